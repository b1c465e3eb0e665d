package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	enginesync "github.com/insight-tracker/server-go/domain/sync"
	"github.com/insight-tracker/server-go/pkg/logger"
)

// Reconciler runs one full reconciliation sweep. Satisfied by the sync
// service.
type Reconciler interface {
	RunFullReconciliation(ctx context.Context) (enginesync.ReconcileResult, error)
}

// ReconcileTask drives the periodic full sweep, the safety net that repairs
// whatever the per-entity syncs missed or skipped.
type ReconcileTask struct {
	reconciler Reconciler
	log        *slog.Logger
}

// NewReconcileTask creates the scheduled reconciliation task
func NewReconcileTask(reconciler Reconciler, log *slog.Logger) *ReconcileTask {
	return &ReconcileTask{
		reconciler: reconciler,
		log:        log.With(logger.Scope("scheduler.reconcile")),
	}
}

// Run executes one sweep. A sweep already in flight is not a failure: the
// running one covers this tick, so the tick is skipped quietly.
func (t *ReconcileTask) Run(ctx context.Context) error {
	start := time.Now()

	result, err := t.reconciler.RunFullReconciliation(ctx)
	if err != nil {
		if errors.Is(err, enginesync.ErrReconcileRunning) {
			t.log.Debug("sweep already in flight, skipping this tick")
			return nil
		}
		t.log.Error("scheduled sweep failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return err
	}

	t.log.Debug("scheduled sweep completed",
		slog.Int("created", result.Created),
		slog.Int("removed", result.Removed),
		slog.Int("failed", result.Failed),
		slog.Duration("duration", time.Since(start)))
	return nil
}
