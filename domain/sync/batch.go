package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/insight-tracker/server-go/internal/metrics"
	"github.com/insight-tracker/server-go/pkg/logger"
)

// rollbackTimeout bounds the compensation pass. Rollback runs on a context
// detached from the batch's own, so a canceled batch can still be undone.
const rollbackTimeout = 30 * time.Second

// Compensations are the undo actions one step registers for the writes it
// performed. A step that touched only one store leaves the other field nil.
type Compensations struct {
	// UndoPrimary reverts the step's document store write.
	UndoPrimary func(ctx context.Context) error
	// UndoSecondary reverts the step's graph store write.
	UndoSecondary func(ctx context.Context) error
}

// Step is one forward action of a batch. It returns the compensations that
// undo whatever it wrote; they are only invoked if a later step fails.
type Step func(ctx context.Context) (Compensations, error)

// Executor runs multi-store batches with compensation instead of a real
// transaction: steps run in order, and the first failure triggers the
// registered undo actions in reverse. Rollback is best effort; whatever it
// cannot undo is left for the reconciliation sweep.
type Executor struct {
	log *slog.Logger
}

func NewExecutor(log *slog.Logger) *Executor {
	return &Executor{log: log.With(logger.Scope("sync.batch"))}
}

// Run executes steps strictly in order and reports whether all of them
// succeeded. On the first failure no further step runs; the compensations of
// the completed steps run newest first, and within a step the graph store is
// undone before the document store, so a projection never outlives the
// rollback of its record. Step panics are contained and treated as failures.
func (e *Executor) Run(ctx context.Context, steps []Step) bool {
	undos := make([]Compensations, 0, len(steps))

	for i, step := range steps {
		comps, err := e.runStep(ctx, i, step)
		if err != nil {
			e.log.Error("batch step failed, rolling back",
				slog.Int("step", i),
				slog.Int("completed", len(undos)),
				logger.Error(err),
			)
			e.rollback(ctx, undos)
			metrics.BatchRuns.WithLabelValues("failed").Inc()
			return false
		}
		undos = append(undos, comps)
	}

	metrics.BatchRuns.WithLabelValues("ok").Inc()
	return true
}

func (e *Executor) runStep(ctx context.Context, i int, step Step) (comps Compensations, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step %d panicked: %v", i, r)
		}
	}()
	return step(ctx)
}

// rollback runs every registered compensation even when some of them fail. A
// failed or panicking compensation is logged and skipped; stopping early
// would strand the undos registered before it.
func (e *Executor) rollback(ctx context.Context, undos []Compensations) {
	// The batch may have failed because its context was canceled, so the
	// compensation pass gets a fresh deadline on a detached context.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	failed := 0
	for i := len(undos) - 1; i >= 0; i-- {
		failed += e.safeUndo(rctx, i, "secondary", undos[i].UndoSecondary)
		failed += e.safeUndo(rctx, i, "primary", undos[i].UndoPrimary)
	}

	if failed > 0 {
		e.log.Error("rollback incomplete, next reconciliation sweep repairs the remainder",
			slog.Int("failed_compensations", failed),
		)
		metrics.BatchRollbacks.WithLabelValues("incomplete").Inc()
		return
	}
	metrics.BatchRollbacks.WithLabelValues("complete").Inc()
}

func (e *Executor) safeUndo(ctx context.Context, step int, store string, undo func(ctx context.Context) error) (failed int) {
	if undo == nil {
		return 0
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("compensation panicked",
				slog.Int("step", step),
				slog.String("store", store),
				slog.Any("panic", r),
			)
			failed = 1
		}
	}()
	if err := undo(ctx); err != nil {
		e.log.Error("compensation failed",
			slog.Int("step", step),
			slog.String("store", store),
			logger.Error(err),
		)
		return 1
	}
	return 0
}
