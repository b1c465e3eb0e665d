// Package sync keeps the document store and the graph store converging. The
// document store owns every insight; the graph store holds a projection per
// insight for traversal. There is no transaction spanning the two, so this
// package provides the three repair mechanisms the system runs on: per-entity
// synchronization after each authoritative write, a full reconciliation sweep
// over both id sets, and a compensating batch executor for multi-entity
// mutations.
//
// None of the three gives atomicity. The model is at-least-once repair: a
// failed or skipped sync leaves the graph stale, never the document store
// wrong, and every repair is idempotent so the sweep can reapply it until
// both stores agree. The guarantee holds only while the sweep keeps running.
package sync

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/insight-tracker/server-go/domain/graph"
	"github.com/insight-tracker/server-go/internal/cache"
	"github.com/insight-tracker/server-go/internal/config"
	"github.com/insight-tracker/server-go/internal/locks"
	"github.com/insight-tracker/server-go/internal/metrics"
	"github.com/insight-tracker/server-go/pkg/apperror"
	"github.com/insight-tracker/server-go/pkg/logger"
	"github.com/insight-tracker/server-go/pkg/tracing"
)

// Document is the engine's view of an insight record in the document store.
// Only the projected fields travel to the graph store; the rest of the record
// never leaves the document store.
type Document struct {
	ID        string
	OwnerID   string
	Title     string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentStore is the slice of the document store the engine reads from.
// It is satisfied by the insights repository through an adapter.
type DocumentStore interface {
	// GetDocument returns the record for id, or nil when no record exists.
	GetDocument(ctx context.Context, id string) (*Document, error)
	// ListIDs returns one id-ordered page of at most limit ids strictly
	// after afterID; an empty afterID starts from the beginning.
	ListIDs(ctx context.Context, afterID string, limit int) ([]string, error)
}

// GraphStore is the slice of the graph store the engine writes to. It is
// satisfied directly by the graph repository.
type GraphStore interface {
	// GetInsight returns the projection for id, or nil when absent.
	GetInsight(ctx context.Context, id string) (*graph.Projection, error)
	// UpsertInsight creates or overwrites the projection keyed by its id.
	UpsertInsight(ctx context.Context, p graph.Projection) error
	// DeleteInsight removes the projection and detaches every edge touching it.
	DeleteInsight(ctx context.Context, id string) error
	// ListIDs returns the id of every projection in the store.
	ListIDs(ctx context.Context) ([]string, error)
}

// LockManager serializes syncs per entity. Satisfied by the locks manager.
type LockManager interface {
	Acquire(ctx context.Context, name string) (token string, result locks.AcquireResult)
	Release(ctx context.Context, name, token string) bool
}

// Invalidator drops cache entries made stale by a mutation. Satisfied by the
// cache.
type Invalidator interface {
	Delete(ctx context.Context, keys ...string) (int, error)
	InvalidatePattern(ctx context.Context, pattern string) (int, error)
}

// Outcome summarizes one SyncInsight call for callers and metrics.
type Outcome string

const (
	// OutcomeApplied means the graph store now reflects the intent.
	OutcomeApplied Outcome = "applied"
	// OutcomeSkipped means another sync holds the entity's lock; the entity
	// is repaired later by that sync or by the sweep.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the graph store could not be brought up to date;
	// the entity stays divergent until the sweep reaches it.
	OutcomeFailed Outcome = "failed"
)

// Service is the consistency engine.
type Service struct {
	docs   DocumentStore
	graph  GraphStore
	locks  LockManager
	caches Invalidator
	log    *slog.Logger

	scanPageSize int

	// sweepGate makes overlapping reconciliation runs skip instead of
	// duplicating repair work.
	sweepGate sync.Mutex
}

// NewService wires the engine onto its stores, the lock manager and the cache.
func NewService(docs DocumentStore, graphStore GraphStore, lockManager LockManager, invalidator Invalidator, cfg *config.Config, log *slog.Logger) *Service {
	pageSize := cfg.Sync.ScanPageSize
	if pageSize < 1 {
		pageSize = 500
	}
	return &Service{
		docs:         docs,
		graph:        graphStore,
		locks:        lockManager,
		caches:       invalidator,
		log:          log.With(logger.Scope("sync.svc")),
		scanPageSize: pageSize,
	}
}

// SyncInsight drives the graph store's projection of one insight into
// agreement with the document store after a write with the given intent.
//
// The whole operation runs under the entity's distributed lock. A busy lock
// is not an error: the call is skipped and convergence is left to the
// concurrent holder or to the next reconciliation sweep. Failures past lock
// acquisition leave the entity divergent, release the lock, and are returned
// for the caller to log; the sweep repairs the entity later.
func (s *Service) SyncInsight(ctx context.Context, id string, intent Intent) (Outcome, error) {
	if !intent.Valid() {
		return OutcomeFailed, apperror.NewBadRequest("unknown sync intent " + string(intent))
	}

	ctx, span := tracing.Start(ctx, "sync.insight",
		attribute.String("insight.id", id),
		attribute.String("sync.intent", string(intent)),
	)
	defer span.End()

	lockName := "insight:" + id
	token, res := s.locks.Acquire(ctx, lockName)
	switch res {
	case locks.LockBusy:
		s.log.Warn("insight locked by a concurrent sync, skipping",
			slog.String("insight_id", id),
			slog.String("intent", string(intent)),
		)
		metrics.SyncOperations.WithLabelValues(string(intent), string(OutcomeSkipped)).Inc()
		return OutcomeSkipped, nil
	case locks.LockFailed:
		// Fail closed: without the lock store there is no mutual exclusion,
		// so no graph write happens.
		metrics.SyncOperations.WithLabelValues(string(intent), string(OutcomeFailed)).Inc()
		return OutcomeFailed, apperror.ErrStoreUnavailable.WithMessage("lock for insight " + id + " could not be acquired")
	}
	defer s.locks.Release(ctx, lockName, token)

	if err := s.apply(ctx, id, intent); err != nil {
		s.log.Error("sync failed, insight stays divergent until the next sweep",
			slog.String("insight_id", id),
			slog.String("intent", string(intent)),
			logger.Error(err),
		)
		metrics.SyncOperations.WithLabelValues(string(intent), string(OutcomeFailed)).Inc()
		return OutcomeFailed, err
	}

	metrics.SyncOperations.WithLabelValues(string(intent), string(OutcomeApplied)).Inc()
	return OutcomeApplied, nil
}

// apply performs the store writes and cache invalidation for one intent,
// assuming the caller holds the entity lock.
func (s *Service) apply(ctx context.Context, id string, intent Intent) error {
	if intent == IntentDelete {
		return s.removeProjection(ctx, id)
	}

	doc, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil {
		// Deleted between the authoritative write and this sync; the delete
		// intent for it may have been skipped, so converge on removal now.
		s.log.Warn("insight vanished from the document store before sync, removing projection",
			slog.String("insight_id", id),
		)
		return s.removeProjection(ctx, id)
	}

	if err := s.graph.UpsertInsight(ctx, projectionOf(*doc)); err != nil {
		return err
	}
	return s.invalidate(ctx, id, doc.OwnerID, false)
}

// removeProjection detach-deletes the projection and drops every cache entry
// keyed by the id. The projection is read first because it is the last place
// the owner id survives once the document is gone.
func (s *Service) removeProjection(ctx context.Context, id string) error {
	ownerID := ""
	if p, err := s.graph.GetInsight(ctx, id); err == nil && p != nil {
		ownerID = p.OwnerID
	}

	if err := s.graph.DeleteInsight(ctx, id); err != nil {
		return err
	}
	return s.invalidate(ctx, id, ownerID, true)
}

// invalidate drops the entity's cache entry, the owner's listing pages and,
// for deletes, every traversal view rooted at the entity. The keys must stay
// aligned with the ones the web layer writes (see the cache package).
func (s *Service) invalidate(ctx context.Context, id, ownerID string, deleted bool) error {
	if _, err := s.caches.Delete(ctx, cache.InsightKey(id)); err != nil {
		return err
	}
	if ownerID != "" {
		if _, err := s.caches.InvalidatePattern(ctx, cache.OwnerListPattern(ownerID)); err != nil {
			return err
		}
	}
	if deleted {
		if _, err := s.caches.InvalidatePattern(ctx, cache.MindmapPattern(id)); err != nil {
			return err
		}
	}
	return nil
}

// RepairAction reports what CheckInsight had to do to settle one entity.
type RepairAction string

const (
	RepairNone    RepairAction = "none"
	RepairCreated RepairAction = "created"
	RepairUpdated RepairAction = "updated"
	RepairRemoved RepairAction = "removed"
)

// CheckInsight repairs a single entity in both directions: a record without a
// projection gets one, a stale projection is overwritten, a projection whose
// record is gone is detach-deleted. It returns the action taken.
func (s *Service) CheckInsight(ctx context.Context, id string) (RepairAction, error) {
	doc, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		return RepairNone, err
	}
	proj, err := s.graph.GetInsight(ctx, id)
	if err != nil {
		return RepairNone, err
	}

	switch {
	case doc == nil && proj == nil:
		return RepairNone, nil
	case doc == nil:
		if err := s.removeProjection(ctx, id); err != nil {
			return RepairNone, err
		}
		s.log.Info("repaired insight: removed orphaned projection", slog.String("insight_id", id))
		return RepairRemoved, nil
	case proj == nil:
		if err := s.graph.UpsertInsight(ctx, projectionOf(*doc)); err != nil {
			return RepairNone, err
		}
		s.log.Info("repaired insight: created missing projection", slog.String("insight_id", id))
		return RepairCreated, nil
	case !projectionsEqual(projectionOf(*doc), *proj):
		if err := s.graph.UpsertInsight(ctx, projectionOf(*doc)); err != nil {
			return RepairNone, err
		}
		s.log.Info("repaired insight: overwrote stale projection", slog.String("insight_id", id))
		return RepairUpdated, nil
	}
	return RepairNone, nil
}

// projectionOf maps a document onto the property set mirrored into the graph
// store. Fields outside this set stay in the document store.
func projectionOf(doc Document) graph.Projection {
	return graph.Projection{
		ID:        doc.ID,
		Title:     doc.Title,
		Tags:      doc.Tags,
		OwnerID:   doc.OwnerID,
		CreatedAt: doc.CreatedAt,
	}
}

// projectionsEqual compares projections on their stored form: tags as a set,
// timestamps at the second precision the graph store keeps.
func projectionsEqual(a, b graph.Projection) bool {
	return a.ID == b.ID &&
		a.Title == b.Title &&
		a.OwnerID == b.OwnerID &&
		sameTagSet(a.Tags, b.Tags) &&
		a.CreatedAt.UTC().Format(time.RFC3339) == b.CreatedAt.UTC().Format(time.RFC3339)
}

func sameTagSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := slices.Clone(a)
	bs := slices.Clone(b)
	slices.Sort(as)
	slices.Sort(bs)
	return slices.Equal(as, bs)
}
