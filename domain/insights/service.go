package insights

import (
	"context"
	"log/slog"

	enginesync "github.com/insight-tracker/server-go/domain/sync"
	"github.com/insight-tracker/server-go/internal/cache"
	"github.com/insight-tracker/server-go/pkg/apperror"
	"github.com/insight-tracker/server-go/pkg/logger"
)

// Store is the slice of the repository the service depends on.
type Store interface {
	Create(ctx context.Context, ins *Insight) error
	GetByID(ctx context.Context, id string) (*Insight, error)
	Update(ctx context.Context, id string, req UpdateInsightRequest) (*Insight, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string, skip, limit int) ([]Insight, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
}

// EntitySyncer mirrors a document-store write into the graph store. Satisfied
// by the sync service.
type EntitySyncer interface {
	SyncInsight(ctx context.Context, id string, intent enginesync.Intent) (enginesync.Outcome, error)
}

// ViewCache is the slice of the cache the read path uses.
type ViewCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any) error
}

// Service owns the insight lifecycle. Writes land in the document store
// first; the graph projection follows through the sync engine, and a sync
// failure never rolls the write back, because the sweep repairs divergence
// later.
type Service struct {
	store  Store
	syncer EntitySyncer
	views  ViewCache
	log    *slog.Logger
}

func NewService(store Store, syncer EntitySyncer, views ViewCache, log *slog.Logger) *Service {
	return &Service{
		store:  store,
		syncer: syncer,
		views:  views,
		log:    log.With(logger.Scope("insights.svc")),
	}
}

// Create validates and stores a new insight, then syncs its projection.
func (s *Service) Create(ctx context.Context, req CreateInsightRequest) (*Insight, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ins := &Insight{
		OwnerID: req.OwnerID,
		Title:   req.Title,
		Content: req.Content,
		Tags:    normalizeTags(req.Tags),
	}
	if err := s.store.Create(ctx, ins); err != nil {
		return nil, err
	}

	s.log.Info("insight created",
		slog.String("insight_id", ins.ID),
		slog.String("owner_id", ins.OwnerID),
	)
	s.triggerSync(ctx, ins.ID, enginesync.IntentCreate)
	return ins, nil
}

// Get returns one insight, serving repeated reads from the cache.
func (s *Service) Get(ctx context.Context, id string) (*Insight, error) {
	key := cache.InsightKey(id)

	var cached Insight
	if hit, err := s.views.GetJSON(ctx, key, &cached); err != nil {
		s.log.Warn("cache read failed, falling back to the document store",
			slog.String("key", key), logger.Error(err))
	} else if hit {
		return &cached, nil
	}

	ins, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ins == nil {
		return nil, apperror.NewNotFound("insight", id)
	}

	s.cacheView(ctx, key, ins)
	return ins, nil
}

// Update applies a partial update and syncs the new projection.
func (s *Service) Update(ctx context.Context, id string, req UpdateInsightRequest) (*Insight, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Tags != nil {
		req.Tags = normalizeTags(req.Tags)
	}

	ins, err := s.store.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if ins == nil {
		return nil, apperror.NewNotFound("insight", id)
	}

	s.log.Info("insight updated", slog.String("insight_id", id))
	s.triggerSync(ctx, id, enginesync.IntentUpdate)
	return ins, nil
}

// Delete removes an insight and detaches its projection.
func (s *Service) Delete(ctx context.Context, id string) error {
	existed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return apperror.NewNotFound("insight", id)
	}

	s.log.Info("insight deleted", slog.String("insight_id", id))
	s.triggerSync(ctx, id, enginesync.IntentDelete)
	return nil
}

// List returns one page of an owner's insights, newest first, serving
// repeated reads from the cache.
func (s *Service) List(ctx context.Context, ownerID string, skip, limit int) (*ListResponse, error) {
	if ownerID == "" {
		return nil, apperror.ErrValidation.WithMessage("owner_id is required")
	}
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	key := cache.OwnerListKey(ownerID, skip, limit)

	var cached ListResponse
	if hit, err := s.views.GetJSON(ctx, key, &cached); err != nil {
		s.log.Warn("cache read failed, falling back to the document store",
			slog.String("key", key), logger.Error(err))
	} else if hit {
		return &cached, nil
	}

	items, err := s.store.ListByOwner(ctx, ownerID, skip, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Insight{}
	}

	resp := &ListResponse{Items: items, Total: total, Skip: skip, Limit: limit}
	s.cacheView(ctx, key, resp)
	return resp, nil
}

// triggerSync pushes the write into the graph store. The document-store write
// already succeeded, so a sync error is logged and swallowed; the entity
// stays divergent until the reconciliation sweep repairs it.
func (s *Service) triggerSync(ctx context.Context, id string, intent enginesync.Intent) {
	if _, err := s.syncer.SyncInsight(ctx, id, intent); err != nil {
		s.log.Warn("entity sync after write failed",
			slog.String("insight_id", id),
			slog.String("intent", string(intent)),
			logger.Error(err),
		)
	}
}

// cacheView stores a response for later reads; failures only cost the cache.
func (s *Service) cacheView(ctx context.Context, key string, value any) {
	if err := s.views.SetJSON(ctx, key, value); err != nil {
		s.log.Warn("cache write failed", slog.String("key", key), logger.Error(err))
	}
}
