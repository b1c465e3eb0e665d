package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insight-tracker/server-go/pkg/apperror"
)

var (
	errFlaky     = errors.New("connection reset")
	errPermanent = errors.New("document not found")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func flakyOnly(err error) bool {
	return errors.Is(err, errFlaky)
}

func newTestRetryer(maxAttempts int, baseDelay time.Duration) *Retryer {
	return NewRetryer("teststore", maxAttempts, baseDelay, flakyOnly, testLogger())
}

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	r := newTestRetryer(3, time.Millisecond)

	calls := 0
	out, err := Execute(context.Background(), r, "find", func(ctx context.Context) (string, error) {
		calls++
		return "doc-1", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "doc-1", out)
	assert.Equal(t, 1, calls)
}

func TestExecuteRetriesTransientThenSucceeds(t *testing.T) {
	r := newTestRetryer(3, time.Millisecond)

	calls := 0
	out, err := Execute(context.Background(), r, "find", func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errFlaky
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, out)
	assert.Equal(t, 3, calls)
}

func TestExecuteExhaustsRetryBudget(t *testing.T) {
	r := newTestRetryer(3, time.Millisecond)

	calls := 0
	_, err := Execute(context.Background(), r, "upsert", func(ctx context.Context) (string, error) {
		calls++
		return "", errFlaky
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, apperror.IsStoreUnavailable(err))
	assert.ErrorIs(t, err, errFlaky)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "teststore")
	assert.Contains(t, appErr.Message, "'upsert'")
	assert.Contains(t, appErr.Message, "3 attempts")
}

func TestExecutePermanentErrorFailsFast(t *testing.T) {
	r := newTestRetryer(3, time.Millisecond)

	calls := 0
	_, err := Execute(context.Background(), r, "find", func(ctx context.Context) (string, error) {
		calls++
		return "", errPermanent
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errPermanent)
	assert.False(t, apperror.IsStoreUnavailable(err))
}

func TestExecuteBackoffDoubles(t *testing.T) {
	base := 10 * time.Millisecond
	r := newTestRetryer(3, base)

	start := time.Now()
	_, err := Execute(context.Background(), r, "ping", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, errFlaky
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	// Two waits: base after attempt 1, 2*base after attempt 2.
	assert.GreaterOrEqual(t, elapsed, 3*base)
}

func TestExecuteContextCanceledDuringBackoff(t *testing.T) {
	r := newTestRetryer(3, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Execute(ctx, r, "find", func(ctx context.Context) (string, error) {
		calls++
		cancel()
		return "", errFlaky
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRetryerNormalizesAttempts(t *testing.T) {
	r := NewRetryer("teststore", 0, time.Millisecond, flakyOnly, testLogger())

	calls := 0
	err := r.Do(context.Background(), "ping", func(ctx context.Context) error {
		calls++
		return errFlaky
	})

	assert.Equal(t, 1, calls)
	assert.True(t, apperror.IsStoreUnavailable(err))

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "1 attempts")
}

func TestDoPassesThroughSuccess(t *testing.T) {
	r := newTestRetryer(3, time.Millisecond)

	err := r.Do(context.Background(), "delete", func(ctx context.Context) error {
		return nil
	})

	assert.NoError(t, err)
}
