package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/alex1431999/keyword-monitor/pkg/metrics"
	"github.com/alex1431999/keyword-monitor/pkg/redis"
)

// Cache fronts analytics views with Redis, collapsing concurrent computes of
// the same key through singleflight. A nil *Cache disables caching, every
// call computes.
type Cache struct {
	redis   *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
}

// NewCache creates an analytics cache. m may be nil when metrics are not
// wired.
func NewCache(rc *redis.Client, ttl time.Duration, m *metrics.Metrics) *Cache {
	return &Cache{
		redis:   rc,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "analytics-cache"),
	}
}

// cacheKey builds the canonical key for a cached analytics view.
func cacheKey(view string, keywordID uuid.UUID, params string) string {
	return fmt.Sprintf("analytics:%s:%s:%s", view, keywordID, params)
}

// getOrCompute fills dest with the cached JSON under key, or runs compute,
// caches its result, and fills dest from that. Redis failures degrade to
// computing directly; they never fail the query.
func (c *Cache) getOrCompute(ctx context.Context, key string, dest any, compute func() (any, error)) error {
	if c == nil {
		value, err := compute()
		if err != nil {
			return err
		}
		return roundTrip(value, dest)
	}

	cached, err := c.redis.Get(ctx, key)
	if err == nil {
		c.countHit()
		return json.Unmarshal([]byte(cached), dest)
	}
	if !redis.IsNilError(err) {
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}
	c.countMiss()

	data, err, _ := c.group.Do(key, func() (any, error) {
		value, err := compute()
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshaling cache value: %w", err)
		}
		if err := c.redis.Set(ctx, key, string(encoded), c.ttl); err != nil {
			c.logger.Warn("cache write failed", "key", key, "error", err)
		}
		return encoded, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(data.([]byte), dest)
}

// Invalidate drops every cached view of the given keyword.
func (c *Cache) Invalidate(ctx context.Context, keywordID uuid.UUID) error {
	if c == nil {
		return nil
	}
	pattern := fmt.Sprintf("analytics:*:%s:*", keywordID)
	deleted, err := c.redis.FlushByPattern(ctx, pattern)
	if err != nil {
		return fmt.Errorf("invalidating analytics cache: %w", err)
	}
	if deleted > 0 && c.metrics != nil {
		c.metrics.CacheInvalidationsTotal.Inc()
	}
	return nil
}

func (c *Cache) countHit() {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *Cache) countMiss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// roundTrip copies value into dest through its JSON form so the uncached
// path yields the same shapes as a cache hit.
func roundTrip(value, dest any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling computed value: %w", err)
	}
	return json.Unmarshal(data, dest)
}
