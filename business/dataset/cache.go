package dataset

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"insuranceInsights/domain"
	"insuranceInsights/pkg/logger"
	"insuranceInsights/pkg/metrics"

	"golang.org/x/sync/singleflight"
)

// signature identifies one version of the source file.
type signature struct {
	size    int64
	modTime time.Time
}

func (s signature) equal(o signature) bool {
	return s.size == o.size && s.modTime.Equal(o.modTime)
}

type Loader func(path string) (*domain.Dataset, error)

// Cache memoizes LoadAndPrepare for one path. The file is re-stated on every
// Get and only prepared again when its size or modification time changed.
type Cache struct {
	path  string
	load  Loader
	group singleflight.Group

	mu      sync.RWMutex
	sig     signature
	dataset *domain.Dataset

	subMu       sync.Mutex
	subscribers []func(*domain.Dataset)
}

func NewCache(path string) *Cache {
	return NewCacheWithLoader(path, LoadAndPrepare)
}

func NewCacheWithLoader(path string, load Loader) *Cache {
	return &Cache{path: path, load: load}
}

func (c *Cache) Path() string {
	return c.path
}

// Subscribe registers fn to run after every successful preparation.
// fn must not block.
func (c *Cache) Subscribe(fn func(*domain.Dataset)) {
	c.subMu.Lock()
	c.subscribers = append(c.subscribers, fn)
	c.subMu.Unlock()
}

func (c *Cache) notify(ds *domain.Dataset) {
	c.subMu.Lock()
	subs := append([]func(*domain.Dataset){}, c.subscribers...)
	c.subMu.Unlock()

	for _, fn := range subs {
		fn(ds)
	}
}

// Get returns the prepared dataset, loading it if the source changed.
// Failed loads are not cached.
func (c *Cache) Get(ctx context.Context) (*domain.Dataset, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		metrics.DatasetLoads.WithLabelValues("error").Inc()
		return nil, statError(c.path, err)
	}
	sig := signature{size: info.Size(), modTime: info.ModTime()}

	c.mu.RLock()
	if c.dataset != nil && c.sig.equal(sig) {
		ds := c.dataset
		c.mu.RUnlock()
		return ds, nil
	}
	c.mu.RUnlock()

	ch := c.group.DoChan(c.path, func() (any, error) {
		return c.refresh(sig)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Dataset), nil
	}
}

func (c *Cache) refresh(sig signature) (*domain.Dataset, error) {
	c.mu.RLock()
	if c.dataset != nil && c.sig.equal(sig) {
		ds := c.dataset
		c.mu.RUnlock()
		return ds, nil
	}
	c.mu.RUnlock()

	start := time.Now()
	ds, err := c.load(c.path)
	if err != nil {
		metrics.DatasetLoads.WithLabelValues("error").Inc()
		var loadErr *domain.DataLoadError
		if errors.As(err, &loadErr) {
			logger.Error("dataset load failed", "path", c.path, "row", loadErr.Row, "column", loadErr.Column, "reason", loadErr.Reason)
		} else {
			logger.Error("dataset load failed", "path", c.path, "error", err)
		}
		return nil, err
	}

	c.mu.Lock()
	c.sig = sig
	c.dataset = ds
	c.mu.Unlock()

	metrics.DatasetLoads.WithLabelValues("ok").Inc()
	metrics.DatasetRows.Set(float64(len(ds.Rows)))
	logger.Info("dataset prepared",
		"path", c.path,
		"rows", len(ds.Rows),
		"hash", ds.Source.ContentHash,
		"duration", time.Since(start),
	)
	c.notify(ds)

	return ds, nil
}

// Invalidate drops the cached dataset so the next Get reloads it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.dataset = nil
	c.sig = signature{}
	c.mu.Unlock()
}

// Reload invalidates and immediately prepares the dataset again.
func (c *Cache) Reload(ctx context.Context) (*domain.Dataset, error) {
	c.Invalidate()
	return c.Get(ctx)
}
