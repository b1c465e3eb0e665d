package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/insight-tracker/server-go/internal/metrics"
	"github.com/insight-tracker/server-go/pkg/apperror"
	"github.com/insight-tracker/server-go/pkg/logger"
)

// Retryer reruns store operations that fail transiently, waiting
// baseDelay * 2^(attempt-1) between attempts. Errors the classifier reports
// as permanent are returned to the caller unchanged, without a retry.
//
// Each store client owns one Retryer configured from its section of the
// application config, so retry budgets can be tuned per store.
type Retryer struct {
	store       string
	maxAttempts int
	baseDelay   time.Duration
	isTransient func(error) bool
	log         *slog.Logger
}

// NewRetryer creates a retry policy for the named store. A maxAttempts below
// one is treated as one so every operation runs at least once.
func NewRetryer(store string, maxAttempts int, baseDelay time.Duration, isTransient func(error) bool, log *slog.Logger) *Retryer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retryer{
		store:       store,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		isTransient: isTransient,
		log:         log.With(logger.Scope("retry")),
	}
}

// Execute runs fn under r's retry policy and returns its result.
//
// Transient failures are retried with exponential backoff until the attempt
// budget is spent; the last error is then wrapped in a store_unavailable
// error carrying the store name, the operation name and the attempt count.
// Permanent failures and context cancellation propagate immediately.
func Execute[T any](ctx context.Context, r *Retryer, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		if !r.isTransient(err) {
			return zero, err
		}
		lastErr = err

		if attempt == r.maxAttempts {
			break
		}

		wait := r.baseDelay * time.Duration(1<<(attempt-1))
		r.log.Warn("transient store error, retrying",
			slog.String("store", r.store),
			slog.String("operation", op),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			logger.Error(err),
		)
		metrics.StoreRetries.WithLabelValues(r.store).Inc()

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	metrics.StoreFailures.WithLabelValues(r.store).Inc()
	r.log.Error("store operation exhausted retry budget",
		slog.String("store", r.store),
		slog.String("operation", op),
		slog.Int("attempts", r.maxAttempts),
		logger.Error(lastErr),
	)
	return zero, apperror.NewStoreUnavailable(r.store, op, r.maxAttempts, lastErr)
}

// Do runs an operation that yields no result under r's retry policy.
func (r *Retryer) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	_, err := Execute(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Store returns the store name this policy was built for.
func (r *Retryer) Store() string {
	return r.store
}
