// Package cache provides JSON value caching on the cache store, plus the
// pattern invalidation used to drop derived views when an entity changes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/insight-tracker/server-go/internal/config"
	"github.com/insight-tracker/server-go/internal/database"
	"github.com/insight-tracker/server-go/internal/metrics"
	"github.com/insight-tracker/server-go/pkg/logger"
)

// scanCount is the COUNT hint for SCAN; deletes are flushed in batches of the
// same size to keep invalidation from blocking the store the way KEYS would.
const scanCount = 100

// Cache stores JSON-encoded values with a shared TTL.
type Cache struct {
	client *redis.Client
	retry  *database.Retryer
	ttl    time.Duration
	log    *slog.Logger
}

// New creates a cache on top of the connected cache store client.
func New(kv *database.KV, cfg *config.Config, log *slog.Logger) *Cache {
	return &Cache{
		client: kv.Client(),
		retry:  kv.Retry(),
		ttl:    cfg.Redis.CacheTTL,
		log:    log.With(logger.Scope("cache")),
	}
}

// SetJSON stores value under key with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.retry.Do(ctx, "cache.set", func(ctx context.Context) error {
		return c.client.Set(ctx, key, payload, c.ttl).Err()
	})
}

// GetJSON loads the value under key into out, reporting whether the key was
// present.
func (c *Cache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	payload, err := database.Execute(ctx, c.retry, "cache.get", func(ctx context.Context) (string, error) {
		return c.client.Get(ctx, key).Result()
	})
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("unmarshal cache value: %w", err)
	}
	return true, nil
}

// Delete removes the given keys and returns how many existed.
func (c *Cache) Delete(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	removed, err := database.Execute(ctx, c.retry, "cache.delete", func(ctx context.Context) (int64, error) {
		return c.client.Del(ctx, keys...).Result()
	})
	if err != nil {
		return 0, err
	}
	metrics.CacheInvalidations.Add(float64(removed))
	return int(removed), nil
}

// InvalidatePattern removes every key matching pattern and returns how many
// were dropped. Keys are discovered with SCAN and deleted in batches, so a
// large keyspace never blocks the store on a single KEYS call.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	removed := 0
	batch := make([]string, 0, scanCount)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return err
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	iter := c.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanCount {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	if err := flush(); err != nil {
		return removed, err
	}

	if removed > 0 {
		c.log.Debug("cache pattern invalidated",
			slog.String("pattern", pattern),
			slog.Int("removed", removed),
		)
		metrics.CacheInvalidations.Add(float64(removed))
	}
	return removed, nil
}
