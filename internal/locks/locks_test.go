package locks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insight-tracker/server-go/internal/config"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string

	setErr error
	getErr error
	delErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (f *fakeStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, exists := f.data[key]; exists {
		return false, nil
	}
	f.data[key] = value
	return true, nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	value, ok := f.data[key]
	return value, ok, nil
}

func (f *fakeStore) Del(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.data, key)
	return nil
}

func (f *fakeStore) value(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

func newTestManager(store Store) *Manager {
	cfg := &config.Config{Sync: config.SyncConfig{LockTTL: time.Second}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(store, cfg, log)
}

func TestAcquireAndRelease(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	ctx := context.Background()

	token, res := m.Acquire(ctx, "insight:a1")
	require.Equal(t, LockAcquired, res)
	require.NotEmpty(t, token)

	stored, ok := store.value("lock:insight:a1")
	require.True(t, ok)
	assert.Equal(t, token, stored)

	assert.True(t, m.Release(ctx, "insight:a1", token))

	_, ok = store.value("lock:insight:a1")
	assert.False(t, ok)
}

func TestAcquireIsExclusive(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	ctx := context.Background()

	first, res := m.Acquire(ctx, "insight:a1")
	require.Equal(t, LockAcquired, res)

	token, res := m.Acquire(ctx, "insight:a1")
	assert.Equal(t, LockBusy, res)
	assert.Empty(t, token)

	require.True(t, m.Release(ctx, "insight:a1", first))

	second, res := m.Acquire(ctx, "insight:a1")
	assert.Equal(t, LockAcquired, res)
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
}

func TestDistinctNamesDoNotInterfere(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	ctx := context.Background()

	_, res := m.Acquire(ctx, "insight:a1")
	require.Equal(t, LockAcquired, res)

	_, res = m.Acquire(ctx, "insight:b2")
	assert.Equal(t, LockAcquired, res)
}

func TestAcquireFailsClosedOnStoreError(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("connection refused")
	m := newTestManager(store)

	token, res := m.Acquire(context.Background(), "insight:a1")
	assert.Equal(t, LockFailed, res)
	assert.Empty(t, token)
}

func TestReleaseIgnoresForeignToken(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	ctx := context.Background()

	token, res := m.Acquire(ctx, "insight:a1")
	require.Equal(t, LockAcquired, res)

	assert.False(t, m.Release(ctx, "insight:a1", "some-other-token"))

	// Still held by the original owner.
	stored, ok := store.value("lock:insight:a1")
	require.True(t, ok)
	assert.Equal(t, token, stored)

	assert.True(t, m.Release(ctx, "insight:a1", token))
}

func TestReleaseAfterExpiryIsNoop(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)

	// Nothing stored, as if the TTL already reclaimed the key.
	assert.False(t, m.Release(context.Background(), "insight:a1", "stale-token"))
}

func TestReleaseSwallowsStoreErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("read error", func(t *testing.T) {
		store := newFakeStore()
		m := newTestManager(store)
		token, _ := m.Acquire(ctx, "insight:a1")

		store.getErr = errors.New("connection reset")
		assert.False(t, m.Release(ctx, "insight:a1", token))
	})

	t.Run("delete error", func(t *testing.T) {
		store := newFakeStore()
		m := newTestManager(store)
		token, _ := m.Acquire(ctx, "insight:a1")

		store.delErr = errors.New("connection reset")
		assert.False(t, m.Release(ctx, "insight:a1", token))

		_, ok := store.value("lock:insight:a1")
		assert.True(t, ok)
	})
}

func TestAcquireResultString(t *testing.T) {
	assert.Equal(t, "acquired", LockAcquired.String())
	assert.Equal(t, "busy", LockBusy.String())
	assert.Equal(t, "failed", LockFailed.String())
}
