package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"insuranceInsights/domain"
	"insuranceInsights/pkg/logger"
	"insuranceInsights/pkg/metrics"

	lru "github.com/hashicorp/golang-lru"
)

const DefaultPreviewRows = 20

// DatasetSource yields the current prepared dataset.
type DatasetSource interface {
	Get(ctx context.Context) (*domain.Dataset, error)
	Reload(ctx context.Context) (*domain.Dataset, error)
}

// ViewCacheRepository is the shared second level of the view cache.
type ViewCacheRepository interface {
	Get(ctx context.Context, key string) (*domain.Dashboard, bool, error)
	Set(ctx context.Context, key string, dashboard *domain.Dashboard, ttl time.Duration) error
}

type Options struct {
	CacheSize   int
	CacheTTL    time.Duration
	PreviewRows int
}

type dashboardService struct {
	source      DatasetSource
	remote      ViewCacheRepository
	local       *lru.Cache
	ttl         time.Duration
	previewRows int
}

// NewDashboardService wires the engine. remote may be nil.
func NewDashboardService(source DatasetSource, remote ViewCacheRepository, opts Options) (*dashboardService, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = DefaultPreviewRows
	}

	local, err := lru.New(opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create view cache: %w", err)
	}

	return &dashboardService{
		source:      source,
		remote:      remote,
		local:       local,
		ttl:         opts.CacheTTL,
		previewRows: opts.PreviewRows,
	}, nil
}

// Dashboard filters the dataset and computes every view. The preview is only
// attached when withPreview is set.
func (s *dashboardService) Dashboard(ctx context.Context, filters domain.Filters, withPreview bool) (*domain.Dashboard, error) {
	ds, err := s.source.Get(ctx)
	if err != nil {
		return nil, err
	}

	key := cacheKey(ds, filters)
	d, ok := s.cached(ctx, key)
	if !ok {
		d = s.compute(ds, filters)
		s.store(ctx, key, d)
	}

	out := *d
	if !withPreview {
		out.Preview = nil
	}
	return &out, nil
}

// Export returns the dashboard together with every filtered row.
func (s *dashboardService) Export(ctx context.Context, filters domain.Filters) (*domain.Dashboard, []domain.Applicant, error) {
	d, err := s.Dashboard(ctx, filters, false)
	if err != nil {
		return nil, nil, err
	}

	ds, err := s.source.Get(ctx)
	if err != nil {
		return nil, nil, err
	}

	return d, ApplyFilters(ds.Rows, filters), nil
}

func (s *dashboardService) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	ds, err := s.source.Get(ctx)
	if err != nil {
		return nil, err
	}

	opts := &domain.FilterOptions{
		BMICategories:  []string{domain.FilterAll},
		AgeGroups:      []string{domain.FilterAll},
		ProductCodes:   []string{domain.FilterAll},
		ResponseScores: []string{domain.FilterAll},
	}
	for _, c := range domain.AllBMICategories() {
		opts.BMICategories = append(opts.BMICategories, c.String())
	}
	for _, g := range domain.AllAgeGroups() {
		opts.AgeGroups = append(opts.AgeGroups, g.String())
	}

	products := make(map[string]struct{})
	scores := make(map[int]struct{})
	for _, r := range ds.Rows {
		products[r.ProductCode] = struct{}{}
		scores[r.Response] = struct{}{}
	}
	opts.ProductCodes = append(opts.ProductCodes, sortedKeys(products)...)

	sortedScores := make([]int, 0, len(scores))
	for score := range scores {
		sortedScores = append(sortedScores, score)
	}
	sort.Ints(sortedScores)
	for _, score := range sortedScores {
		opts.ResponseScores = append(opts.ResponseScores, strconv.Itoa(score))
	}

	return opts, nil
}

func (s *dashboardService) DatasetInfo(ctx context.Context) (*domain.DatasetInfo, error) {
	ds, err := s.source.Get(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.DatasetInfo{
		Source:   ds.Source,
		RowCount: len(ds.Rows),
		Columns:  ds.Columns,
	}, nil
}

// Reload forces the dataset to be prepared again and drops local views.
func (s *dashboardService) Reload(ctx context.Context) (*domain.DatasetInfo, error) {
	ds, err := s.source.Reload(ctx)
	if err != nil {
		return nil, err
	}
	s.local.Purge()

	logger.Info("dataset reloaded", "rows", len(ds.Rows), "hash", ds.Source.ContentHash)

	return &domain.DatasetInfo{
		Source:   ds.Source,
		RowCount: len(ds.Rows),
		Columns:  ds.Columns,
	}, nil
}

func (s *dashboardService) compute(ds *domain.Dataset, filters domain.Filters) *domain.Dashboard {
	start := time.Now()
	defer func() {
		metrics.DashboardDuration.Observe(time.Since(start).Seconds())
	}()

	rows := ApplyFilters(ds.Rows, filters)

	n := s.previewRows
	if n > len(rows) {
		n = len(rows)
	}
	preview := make([]domain.Applicant, n)
	copy(preview, rows[:n])

	return &domain.Dashboard{
		DatasetHash: ds.Source.ContentHash,
		Filters:     filters.Selection(),
		RowCount:    len(rows),
		NoData:      len(rows) == 0,
		Views:       ComputeViews(rows),
		Preview:     preview,
		GeneratedAt: time.Now().UTC(),
	}
}

func (s *dashboardService) cached(ctx context.Context, key string) (*domain.Dashboard, bool) {
	if v, ok := s.local.Get(key); ok {
		metrics.ViewCacheRequests.WithLabelValues("memory", "hit").Inc()
		return v.(*domain.Dashboard), true
	}
	metrics.ViewCacheRequests.WithLabelValues("memory", "miss").Inc()

	if s.remote == nil {
		return nil, false
	}

	d, ok, err := s.remote.Get(ctx, key)
	if err != nil {
		logger.Warn("view cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		metrics.ViewCacheRequests.WithLabelValues("redis", "miss").Inc()
		return nil, false
	}

	metrics.ViewCacheRequests.WithLabelValues("redis", "hit").Inc()
	s.local.Add(key, d)
	return d, true
}

func (s *dashboardService) store(ctx context.Context, key string, d *domain.Dashboard) {
	s.local.Add(key, d)
	if s.remote == nil {
		return
	}
	if err := s.remote.Set(ctx, key, d, s.ttl); err != nil {
		logger.Warn("view cache write failed", "key", key, "error", err)
	}
}

func cacheKey(ds *domain.Dataset, filters domain.Filters) string {
	return ds.Source.ContentHash + "|" + filters.Key()
}
