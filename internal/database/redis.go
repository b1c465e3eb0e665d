package database

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/insight-tracker/server-go/internal/config"
	"github.com/insight-tracker/server-go/pkg/logger"
)

// KV is the resilient client for the cache store. Locks and cached reads go
// through it.
type KV struct {
	cfg   config.RedisConfig
	log   *slog.Logger
	retry *Retryer

	client *redis.Client
}

// NewKV builds an unconnected cache store client.
func NewKV(cfg *config.Config, log *slog.Logger) *KV {
	log = log.With(logger.Scope("redis"))
	return &KV{
		cfg:   cfg.Redis,
		log:   log,
		retry: NewRetryer("redis", cfg.Redis.MaxRetries, cfg.Redis.RetryDelay, IsRedisTransient, log),
	}
}

// Connect creates the client and verifies it with a ping. Driver-level
// retries are disabled so the shared policy is the only one in play.
func (k *KV) Connect(ctx context.Context) error {
	return k.retry.Do(ctx, "connect", func(ctx context.Context) error {
		client := redis.NewClient(&redis.Options{
			Addr:       k.cfg.Addr,
			Password:   k.cfg.Password,
			DB:         k.cfg.DB,
			PoolSize:   k.cfg.PoolSize,
			MaxRetries: -1,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return err
		}

		k.client = client
		k.log.Info("redis connected",
			slog.String("addr", k.cfg.Addr),
			slog.Int("db", k.cfg.DB),
		)
		return nil
	})
}

// Close releases the client and its pool.
func (k *KV) Close() error {
	if k.client == nil {
		return nil
	}
	k.log.Info("closing redis client")
	return k.client.Close()
}

// HealthCheck reports whether the cache store answers a ping. It never
// returns an error so health aggregation can report a degraded store instead
// of failing the whole probe.
func (k *KV) HealthCheck(ctx context.Context) bool {
	if k.client == nil {
		return false
	}
	if err := k.client.Ping(ctx).Err(); err != nil {
		k.log.Warn("redis health check failed", logger.Error(err))
		return false
	}
	return true
}

// Client returns the underlying redis client.
func (k *KV) Client() *redis.Client {
	return k.client
}

// Retry exposes the store's retry policy to callers.
func (k *KV) Retry() *Retryer {
	return k.retry
}

// IsRedisTransient classifies cache store errors for the retry policy. A
// missing key is a lookup result, not a failure, and canceled contexts are
// the caller's decision to stop.
func IsRedisTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, redis.Nil) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
