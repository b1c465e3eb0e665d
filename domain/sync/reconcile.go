package sync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/insight-tracker/server-go/internal/metrics"
	"github.com/insight-tracker/server-go/pkg/logger"
	"github.com/insight-tracker/server-go/pkg/tracing"
)

// ErrReconcileRunning is returned when a sweep is requested while another one
// is still in flight. Sweeps are idempotent, so the caller can simply wait
// for the running one.
var ErrReconcileRunning = errors.New("sync: reconciliation already running")

// ReconcileResult counts the repairs one full sweep performed.
type ReconcileResult struct {
	// Created is the number of projections written for records that had
	// none.
	Created int `json:"created"`
	// Removed is the number of orphaned projections detach-deleted.
	Removed int `json:"removed"`
	// Failed is the number of entities whose repair errored; they stay
	// divergent until the next sweep.
	Failed int `json:"failed,omitempty"`
}

// RunFullReconciliation compares the id set of the document store against the
// id set of the graph store and repairs both differences: records without a
// projection get one, projections without a record are detach-deleted.
//
// The sweep takes no per-entity locks. Its repairs are the same idempotent
// merge and detach-delete the per-entity sync uses, so racing an in-flight
// sync can only repeat work, not corrupt it. Only one sweep runs at a time
// in this process; a second call returns ErrReconcileRunning.
//
// A failure while scanning either id set aborts the sweep. A failure while
// repairing one entity is logged and counted, and the sweep moves on.
func (s *Service) RunFullReconciliation(ctx context.Context) (ReconcileResult, error) {
	if !s.sweepGate.TryLock() {
		metrics.ReconcileRuns.WithLabelValues("skipped").Inc()
		return ReconcileResult{}, ErrReconcileRunning
	}
	defer s.sweepGate.Unlock()

	ctx, span := tracing.Start(ctx, "sync.reconcile")
	defer span.End()

	start := time.Now()
	s.log.Info("reconciliation sweep started")

	result, err := s.reconcile(ctx)
	elapsed := time.Since(start)
	metrics.ReconcileDuration.Observe(elapsed.Seconds())

	if err != nil {
		metrics.ReconcileRuns.WithLabelValues("error").Inc()
		s.log.Error("reconciliation sweep aborted",
			slog.Duration("elapsed", elapsed),
			logger.Error(err),
		)
		return result, err
	}

	metrics.ReconcileRuns.WithLabelValues("ok").Inc()
	span.SetAttributes(
		attribute.Int("reconcile.created", result.Created),
		attribute.Int("reconcile.removed", result.Removed),
		attribute.Int("reconcile.failed", result.Failed),
	)
	s.log.Info("reconciliation sweep finished",
		slog.Int("created", result.Created),
		slog.Int("removed", result.Removed),
		slog.Int("failed", result.Failed),
		slog.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (s *Service) reconcile(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	docIDs, err := s.scanDocumentIDs(ctx)
	if err != nil {
		return result, err
	}
	graphIDs, err := s.graph.ListIDs(ctx)
	if err != nil {
		return result, err
	}

	inDocs := make(map[string]struct{}, len(docIDs))
	for _, id := range docIDs {
		inDocs[id] = struct{}{}
	}
	inGraph := make(map[string]struct{}, len(graphIDs))
	for _, id := range graphIDs {
		inGraph[id] = struct{}{}
	}

	// Records without a projection.
	for _, id := range docIDs {
		if _, ok := inGraph[id]; ok {
			continue
		}
		created, err := s.repairMissing(ctx, id)
		if err != nil {
			result.Failed++
			s.log.Error("reconcile: projection create failed",
				slog.String("insight_id", id),
				logger.Error(err),
			)
			continue
		}
		if created {
			result.Created++
			metrics.ReconcileRepairs.WithLabelValues("created").Inc()
		}
	}

	// Projections without a record.
	for _, id := range graphIDs {
		if _, ok := inDocs[id]; ok {
			continue
		}
		if err := s.removeProjection(ctx, id); err != nil {
			result.Failed++
			s.log.Error("reconcile: orphaned projection removal failed",
				slog.String("insight_id", id),
				logger.Error(err),
			)
			continue
		}
		result.Removed++
		metrics.ReconcileRepairs.WithLabelValues("removed").Inc()
	}

	return result, nil
}

// repairMissing writes the projection for a record the graph store is
// missing. It reports false when the record vanished between the scan and
// the repair; the entity is then consistent again and needs nothing.
func (s *Service) repairMissing(ctx context.Context, id string) (bool, error) {
	doc, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, nil
	}
	if err := s.graph.UpsertInsight(ctx, projectionOf(*doc)); err != nil {
		return false, err
	}
	return true, nil
}

// scanDocumentIDs pages through the document store's id index until a short
// page signals the end.
func (s *Service) scanDocumentIDs(ctx context.Context) ([]string, error) {
	var ids []string
	afterID := ""
	for {
		page, err := s.docs.ListIDs(ctx, afterID, s.scanPageSize)
		if err != nil {
			return nil, err
		}
		ids = append(ids, page...)
		if len(page) < s.scanPageSize {
			return ids, nil
		}
		afterID = page[len(page)-1]
	}
}
