package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/golfmax/fitting-edge/internal/infrastructure/metrics"
)

const (
	// responseCacheKeyPrefix namespaces proxy response bodies in Redis.
	responseCacheKeyPrefix = "reviews:"

	// DefaultEdgeTTL suits append-only public review data.
	DefaultEdgeTTL = 12 * time.Hour
)

// RedisResponseCache is the shared edge tier of the response cache. Keys
// are the fully-qualified upstream request URL, so a config change (API
// key, field list) naturally misses old entries.
type RedisResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisResponseCache creates a Redis-backed response cache. A zero or
// negative ttl falls back to DefaultEdgeTTL.
func NewRedisResponseCache(client *redis.Client, ttl time.Duration) *RedisResponseCache {
	if ttl <= 0 {
		ttl = DefaultEdgeTTL
	}
	return &RedisResponseCache{client: client, ttl: ttl}
}

// Get retrieves a cached response body. Returns nil, nil on cache miss.
func (c *RedisResponseCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, responseCacheKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
			return nil, nil
		}
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
	return data, nil
}

// Set stores a response body with the cache's TTL.
func (c *RedisResponseCache) Set(ctx context.Context, key string, body []byte) error {
	if err := c.client.Set(ctx, responseCacheKeyPrefix+key, body, c.ttl).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}
