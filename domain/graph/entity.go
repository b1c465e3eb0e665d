package graph

import "time"

// Projection is the graph store's copy of an insight: one node labeled
// Insight whose id property mirrors the document id. The document store
// stays the source of truth; the sync engine overwrites the projection
// wholesale on every upsert.
type Projection struct {
	ID        string
	Title     string
	Tags      []string
	OwnerID   string
	CreatedAt time.Time
}
