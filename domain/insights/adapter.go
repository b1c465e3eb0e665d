package insights

import (
	"context"

	enginesync "github.com/insight-tracker/server-go/domain/sync"
)

// documentStore adapts the repository to the sync engine's read-only view of
// the document store.
type documentStore struct {
	repo *Repository
}

// NewDocumentStore exposes the repository to the sync engine.
func NewDocumentStore(repo *Repository) enginesync.DocumentStore {
	return &documentStore{repo: repo}
}

func (a *documentStore) GetDocument(ctx context.Context, id string) (*enginesync.Document, error) {
	ins, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ins == nil {
		return nil, nil
	}
	return &enginesync.Document{
		ID:        ins.ID,
		OwnerID:   ins.OwnerID,
		Title:     ins.Title,
		Tags:      ins.Tags,
		CreatedAt: ins.CreatedAt,
		UpdatedAt: ins.UpdatedAt,
	}, nil
}

func (a *documentStore) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	return a.repo.ListIDs(ctx, afterID, limit)
}
