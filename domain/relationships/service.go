package relationships

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/insight-tracker/server-go/domain/graph"
	enginesync "github.com/insight-tracker/server-go/domain/sync"
	"github.com/insight-tracker/server-go/internal/cache"
	"github.com/insight-tracker/server-go/pkg/apperror"
	"github.com/insight-tracker/server-go/pkg/logger"
)

const defaultMindmapDepth = 2

// RecordStore is the slice of the repository the service depends on.
type RecordStore interface {
	Insert(ctx context.Context, rel *Relationship) error
	GetByID(ctx context.Context, id string) (*Relationship, error)
	Remove(ctx context.Context, id string) (bool, error)
	ListForInsight(ctx context.Context, insightID string) ([]Relationship, error)
}

// EdgeStore is the slice of the graph repository the batches write.
type EdgeStore interface {
	CreateEdge(ctx context.Context, sourceID, targetID, relType string, strength float64) error
	DeleteEdge(ctx context.Context, sourceID, targetID, relType string) error
}

// MindmapSource serves the traversal view around one insight.
type MindmapSource interface {
	Neighborhood(ctx context.Context, id string, depth int) (*graph.Mindmap, error)
}

// InsightReader checks edge endpoints against the document store, which is
// authoritative for which insights exist.
type InsightReader interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// ViewCache is the slice of the cache the traversal views live in.
type ViewCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any) error
	InvalidatePattern(ctx context.Context, pattern string) (int, error)
}

// Service owns relationships. A relationship is one record in the document
// store plus one edge in the graph store; every mutation runs both writes as
// a compensated batch so a failure never strands one side.
type Service struct {
	records  RecordStore
	edges    EdgeStore
	mindmaps MindmapSource
	insights InsightReader
	views    ViewCache
	executor *enginesync.Executor
	log      *slog.Logger
}

func NewService(
	records RecordStore,
	edges EdgeStore,
	mindmaps MindmapSource,
	insights InsightReader,
	views ViewCache,
	executor *enginesync.Executor,
	log *slog.Logger,
) *Service {
	return &Service{
		records:  records,
		edges:    edges,
		mindmaps: mindmaps,
		insights: insights,
		views:    views,
		executor: executor,
		log:      log.With(logger.Scope("relationships.svc")),
	}
}

// Create links two insights in both stores. The record insert and the edge
// write run as one batch: if the edge write fails, the record insert is
// compensated away and the caller sees the whole operation fail.
func (s *Service) Create(ctx context.Context, req CreateRelationshipRequest) (*Relationship, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireInsight(ctx, req.SourceID); err != nil {
		return nil, err
	}
	if err := s.requireInsight(ctx, req.TargetID); err != nil {
		return nil, err
	}

	rel := &Relationship{
		ID:        uuid.NewString(),
		SourceID:  req.SourceID,
		TargetID:  req.TargetID,
		Type:      req.Type,
		Strength:  req.strength(),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	steps := []enginesync.Step{
		func(ctx context.Context) (enginesync.Compensations, error) {
			if err := s.records.Insert(ctx, rel); err != nil {
				return enginesync.Compensations{}, err
			}
			return enginesync.Compensations{
				UndoPrimary: func(ctx context.Context) error {
					_, err := s.records.Remove(ctx, rel.ID)
					return err
				},
			}, nil
		},
		func(ctx context.Context) (enginesync.Compensations, error) {
			if err := s.edges.CreateEdge(ctx, rel.SourceID, rel.TargetID, rel.Type, rel.Strength); err != nil {
				return enginesync.Compensations{}, err
			}
			return enginesync.Compensations{
				UndoSecondary: func(ctx context.Context) error {
					return s.edges.DeleteEdge(ctx, rel.SourceID, rel.TargetID, rel.Type)
				},
			}, nil
		},
	}

	if !s.executor.Run(ctx, steps) {
		return nil, apperror.ErrStoreUnavailable.WithMessage(
			"relationship could not be written to both stores")
	}

	s.log.Info("relationship created",
		slog.String("relationship_id", rel.ID),
		slog.String("source_id", rel.SourceID),
		slog.String("target_id", rel.TargetID),
		slog.String("type", rel.Type),
	)
	s.invalidateMindmaps(ctx, rel.SourceID, rel.TargetID)
	return rel, nil
}

// Get returns one relationship record.
func (s *Service) Get(ctx context.Context, id string) (*Relationship, error) {
	rel, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, apperror.NewNotFound("relationship", id)
	}
	return rel, nil
}

// Delete unlinks two insights in both stores, mirroring Create: the record
// removal and the edge removal run as one batch, with reinsertion and edge
// recreation as the compensations.
func (s *Service) Delete(ctx context.Context, id string) error {
	rel, err := s.records.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rel == nil {
		return apperror.NewNotFound("relationship", id)
	}

	steps := []enginesync.Step{
		func(ctx context.Context) (enginesync.Compensations, error) {
			existed, err := s.records.Remove(ctx, rel.ID)
			if err != nil {
				return enginesync.Compensations{}, err
			}
			if !existed {
				// Raced with another delete; nothing to undo.
				return enginesync.Compensations{}, nil
			}
			return enginesync.Compensations{
				UndoPrimary: func(ctx context.Context) error {
					return s.records.Insert(ctx, rel)
				},
			}, nil
		},
		func(ctx context.Context) (enginesync.Compensations, error) {
			if err := s.edges.DeleteEdge(ctx, rel.SourceID, rel.TargetID, rel.Type); err != nil {
				return enginesync.Compensations{}, err
			}
			return enginesync.Compensations{
				UndoSecondary: func(ctx context.Context) error {
					return s.edges.CreateEdge(ctx, rel.SourceID, rel.TargetID, rel.Type, rel.Strength)
				},
			}, nil
		},
	}

	if !s.executor.Run(ctx, steps) {
		return apperror.ErrStoreUnavailable.WithMessage(
			"relationship could not be removed from both stores")
	}

	s.log.Info("relationship deleted",
		slog.String("relationship_id", rel.ID),
		slog.String("source_id", rel.SourceID),
		slog.String("target_id", rel.TargetID),
	)
	s.invalidateMindmaps(ctx, rel.SourceID, rel.TargetID)
	return nil
}

// ListForInsight returns every relationship touching the insight.
func (s *Service) ListForInsight(ctx context.Context, insightID string) (*ListResponse, error) {
	items, err := s.records.ListForInsight(ctx, insightID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Relationship{}
	}
	return &ListResponse{InsightID: insightID, Items: items, Total: len(items)}, nil
}

// Mindmap returns the cached traversal view around one insight. Depth is
// clamped to what the graph repository accepts; entries are cached per depth
// and invalidated by the sync engine when the root is deleted.
func (s *Service) Mindmap(ctx context.Context, id string, depth int) (*graph.Mindmap, error) {
	if depth < 1 {
		depth = defaultMindmapDepth
	}
	if depth > graph.MaxMindmapDepth {
		depth = graph.MaxMindmapDepth
	}

	key := cache.MindmapKey(id, depth)

	var cached graph.Mindmap
	if hit, err := s.views.GetJSON(ctx, key, &cached); err != nil {
		s.log.Warn("cache read failed, falling back to the graph store",
			slog.String("key", key), logger.Error(err))
	} else if hit {
		return &cached, nil
	}

	mindmap, err := s.mindmaps.Neighborhood(ctx, id, depth)
	if err != nil {
		return nil, err
	}
	if mindmap == nil {
		return nil, apperror.NewNotFound("insight", id)
	}

	if err := s.views.SetJSON(ctx, key, mindmap); err != nil {
		s.log.Warn("cache write failed", slog.String("key", key), logger.Error(err))
	}
	return mindmap, nil
}

func (s *Service) requireInsight(ctx context.Context, id string) error {
	exists, err := s.insights.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NewNotFound("insight", id)
	}
	return nil
}

// invalidateMindmaps drops the cached traversal views rooted at the edge's
// endpoints. Views rooted elsewhere age out with the cache TTL.
func (s *Service) invalidateMindmaps(ctx context.Context, ids ...string) {
	for _, id := range ids {
		if _, err := s.views.InvalidatePattern(ctx, cache.MindmapPattern(id)); err != nil {
			s.log.Warn("mindmap cache invalidation failed",
				slog.String("insight_id", id), logger.Error(err))
		}
	}
}
