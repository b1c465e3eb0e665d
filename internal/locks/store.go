package locks

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/insight-tracker/server-go/internal/database"
)

// Store is the slice of the cache store the lock manager needs.
type Store interface {
	// SetNX writes key only if it does not exist and reports whether the
	// write happened.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Get reads key, reporting found=false when it does not exist.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Del removes key.
	Del(ctx context.Context, key string) error
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore adapts the cache store client to the lock manager.
func NewRedisStore(kv *database.KV) Store {
	return &redisStore{client: kv.Client()}
}

func (s *redisStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *redisStore) Del(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
