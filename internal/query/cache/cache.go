// Package cache is an optional Redis-backed result cache for the query
// processor, deduplicating concurrent identical queries with
// singleflight. Grounded on the teacher's searcher/cache.QueryCache
// (internal/searcher/cache/cache.go) and pkg/redis.Client
// (pkg/redis/client.go), adapted from executor.SearchResult caching to
// caching exec.Result slices keyed by (normalized query, mode, topK).
// A cache miss or an absent cache is semantically identical to a hit
// with a different value: the query processor is a pure function of
// query, mode, and index handles regardless of cache state.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/config"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query/exec"
)

const keyPrefix = "msidx:query:"

// Cache is a Redis-backed, singleflight-deduplicated cache of ranked
// query results. A nil *Cache is a valid no-op.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New connects to Redis and verifies it with a PING. Returns nil, nil
// when cfg is not enabled.
func New(cfg config.RedisConfig) (*Cache, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Cache{
		rdb:    rdb,
		ttl:    ttl,
		logger: slog.Default().With("component", "query-cache"),
	}, nil
}

// Close closes the underlying Redis connection. A nil Cache is a no-op.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// Stats returns cumulative hit/miss counts. A nil Cache always reports
// zero of each.
func (c *Cache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) buildKey(rawQuery string, mode, topK int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(rawQuery)), " ")
	raw := fmt.Sprintf("%s|mode=%d|topk=%d", normalized, mode, topK)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// GetOrCompute returns a cached result for (rawQuery, mode, topK) if
// present, otherwise calls compute, caches its result, and returns it.
// Concurrent identical queries collapse into a single compute call. A
// nil Cache always calls compute directly.
func (c *Cache) GetOrCompute(ctx context.Context, rawQuery string, mode, topK int, compute func() ([]exec.Result, error)) ([]exec.Result, bool, error) {
	if c == nil {
		results, err := compute()
		return results, false, err
	}
	key := c.buildKey(rawQuery, mode, topK)
	if results, ok := c.get(ctx, key); ok {
		return results, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if results, ok := c.get(ctx, key); ok {
			return results, nil
		}
		results, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, results)
		return results, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]exec.Result), false, nil
}

func (c *Cache) get(ctx context.Context, key string) ([]exec.Result, bool) {
	data, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		c.misses.Add(1)
		if err != redis.Nil {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var results []exec.Result
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		c.logger.Warn("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return results, true
}

func (c *Cache) set(ctx context.Context, key string, results []exec.Result) {
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Warn("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}
