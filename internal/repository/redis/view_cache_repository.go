package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"insuranceInsights/domain"

	"github.com/redis/go-redis/v9"
)

// ViewCacheRepository shares computed dashboards between server instances.
type ViewCacheRepository struct {
	client *redis.Client
	prefix string
}

func NewViewCacheRepository(client *redis.Client) *ViewCacheRepository {
	return &ViewCacheRepository{
		client: client,
		prefix: "insights:views:",
	}
}

func (r *ViewCacheRepository) Get(ctx context.Context, key string) (*domain.Dashboard, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached views: %w", err)
	}

	var d domain.Dashboard
	if err := json.Unmarshal(val, &d); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached views: %w", err)
	}

	return &d, true, nil
}

func (r *ViewCacheRepository) Set(ctx context.Context, key string, d *domain.Dashboard, ttl time.Duration) error {
	val, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal views: %w", err)
	}

	if err := r.client.Set(ctx, r.prefix+key, val, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache views: %w", err)
	}

	return nil
}
