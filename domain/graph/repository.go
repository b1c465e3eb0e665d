package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/insight-tracker/server-go/internal/database"
	"github.com/insight-tracker/server-go/pkg/logger"
)

// ErrEndpointMissing is returned when an edge write cannot find one of its
// endpoint projections.
var ErrEndpointMissing = errors.New("graph: edge endpoint projection missing")

// MaxMindmapDepth bounds neighborhood traversals. The depth is interpolated
// into the Cypher pattern, so it is validated as a small integer first.
const MaxMindmapDepth = 3

// Repository reads and writes insight projections and the edges between
// them. Every call opens its own session and runs through the shared retry
// policy of the graph client.
type Repository struct {
	db    *database.Graph
	retry *database.Retryer
	log   *slog.Logger
}

func NewRepository(db *database.Graph, log *slog.Logger) *Repository {
	return &Repository{
		db:    db,
		retry: db.Retry(),
		log:   log.With(logger.Scope("graph.repo")),
	}
}

// UpsertInsight creates or overwrites the projection node for p.ID. The
// merge key is the id property, so repeating the call cannot duplicate
// nodes.
func (r *Repository) UpsertInsight(ctx context.Context, p Projection) error {
	return r.retry.Do(ctx, "graph.upsert_insight", func(ctx context.Context) error {
		session := r.db.Session(ctx, neo4j.AccessModeWrite)
		defer session.Close(ctx)

		result, err := session.Run(ctx, `
			MERGE (i:Insight {id: $id})
			SET i.title = $title,
			    i.tags = $tags,
			    i.owner_id = $ownerID,
			    i.created_at = $createdAt
		`, map[string]any{
			"id":        p.ID,
			"title":     p.Title,
			"tags":      p.Tags,
			"ownerID":   p.OwnerID,
			"createdAt": p.CreatedAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		_, err = result.Consume(ctx)
		return err
	})
}

// DeleteInsight removes the projection together with every edge touching
// it. Detaching is unconditional so a deleted node can never leave dangling
// edges behind. Deleting an absent projection is a no-op.
func (r *Repository) DeleteInsight(ctx context.Context, id string) error {
	return r.retry.Do(ctx, "graph.delete_insight", func(ctx context.Context) error {
		session := r.db.Session(ctx, neo4j.AccessModeWrite)
		defer session.Close(ctx)

		result, err := session.Run(ctx, `
			MATCH (i:Insight {id: $id})
			DETACH DELETE i
		`, map[string]any{"id": id})
		if err != nil {
			return err
		}
		_, err = result.Consume(ctx)
		return err
	})
}

// ListIDs returns the id property of every projection node in one query.
func (r *Repository) ListIDs(ctx context.Context) ([]string, error) {
	return database.Execute(ctx, r.retry, "graph.list_ids", func(ctx context.Context) ([]string, error) {
		session := r.db.Session(ctx, neo4j.AccessModeRead)
		defer session.Close(ctx)

		result, err := session.Run(ctx, `MATCH (i:Insight) RETURN i.id AS id`, nil)
		if err != nil {
			return nil, err
		}

		var ids []string
		for result.Next(ctx) {
			if v, ok := result.Record().Get("id"); ok {
				if id, ok := v.(string); ok {
					ids = append(ids, id)
				}
			}
		}
		return ids, result.Err()
	})
}

// GetInsight reads one projection node back, or nil when no node exists for
// id. The node keeps created_at as an RFC3339 string; an unparsable value is
// returned as the zero time rather than failing the read.
func (r *Repository) GetInsight(ctx context.Context, id string) (*Projection, error) {
	return database.Execute(ctx, r.retry, "graph.get_insight", func(ctx context.Context) (*Projection, error) {
		session := r.db.Session(ctx, neo4j.AccessModeRead)
		defer session.Close(ctx)

		result, err := session.Run(ctx, `
			MATCH (i:Insight {id: $id})
			RETURN i.id AS id, i.title AS title, i.tags AS tags,
			       i.owner_id AS owner_id, i.created_at AS created_at
		`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			return nil, result.Err()
		}

		record := result.Record()
		p := &Projection{
			ID:      recordString(record, "id"),
			Title:   recordString(record, "title"),
			Tags:    recordStrings(record, "tags"),
			OwnerID: recordString(record, "owner_id"),
		}
		if ts, err := time.Parse(time.RFC3339, recordString(record, "created_at")); err == nil {
			p.CreatedAt = ts
		}
		return p, result.Err()
	})
}

// CreateEdge links two projections with a validated relationship type.
// Merging keeps the call idempotent; the strength property is overwritten
// either way. Returns ErrEndpointMissing when either projection is absent.
func (r *Repository) CreateEdge(ctx context.Context, sourceID, targetID, relType string, strength float64) error {
	rel, err := requireRelType(relType)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		MATCH (a:Insight {id: $sourceID})
		MATCH (b:Insight {id: $targetID})
		MERGE (a)-[r:%s]->(b)
		SET r.strength = $strength
		RETURN count(r) AS n
	`, rel)

	return r.retry.Do(ctx, "graph.create_edge", func(ctx context.Context) error {
		session := r.db.Session(ctx, neo4j.AccessModeWrite)
		defer session.Close(ctx)

		result, err := session.Run(ctx, query, map[string]any{
			"sourceID": sourceID,
			"targetID": targetID,
			"strength": strength,
		})
		if err != nil {
			return err
		}
		if result.Next(ctx) {
			if v, ok := result.Record().Get("n"); ok {
				if n, ok := v.(int64); ok && n > 0 {
					return nil
				}
			}
		}
		if err := result.Err(); err != nil {
			return err
		}
		return ErrEndpointMissing
	})
}

// DeleteEdge removes the typed edge between two projections. Absent edges
// are a no-op.
func (r *Repository) DeleteEdge(ctx context.Context, sourceID, targetID, relType string) error {
	rel, err := requireRelType(relType)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		MATCH (a:Insight {id: $sourceID})-[r:%s]->(b:Insight {id: $targetID})
		DELETE r
	`, rel)

	return r.retry.Do(ctx, "graph.delete_edge", func(ctx context.Context) error {
		session := r.db.Session(ctx, neo4j.AccessModeWrite)
		defer session.Close(ctx)

		result, err := session.Run(ctx, query, map[string]any{
			"sourceID": sourceID,
			"targetID": targetID,
		})
		if err != nil {
			return err
		}
		_, err = result.Consume(ctx)
		return err
	})
}

// CountEdges returns how many edges touch the projection with this id,
// regardless of direction or type.
func (r *Repository) CountEdges(ctx context.Context, id string) (int64, error) {
	return database.Execute(ctx, r.retry, "graph.count_edges", func(ctx context.Context) (int64, error) {
		session := r.db.Session(ctx, neo4j.AccessModeRead)
		defer session.Close(ctx)

		result, err := session.Run(ctx, `
			MATCH (i:Insight {id: $id})-[r]-()
			RETURN count(r) AS n
		`, map[string]any{"id": id})
		if err != nil {
			return 0, err
		}
		if result.Next(ctx) {
			if v, ok := result.Record().Get("n"); ok {
				if n, ok := v.(int64); ok {
					return n, nil
				}
			}
		}
		return 0, result.Err()
	})
}

// Neighborhood loads the mindmap around one insight: all projections within
// depth hops plus every edge lying on those paths. Depth is clamped by the
// caller to 1..MaxMindmapDepth before it reaches the query text.
func (r *Repository) Neighborhood(ctx context.Context, id string, depth int) (*Mindmap, error) {
	if depth < 1 || depth > MaxMindmapDepth {
		return nil, fmt.Errorf("graph: mindmap depth %d out of range 1..%d", depth, MaxMindmapDepth)
	}

	return database.Execute(ctx, r.retry, "graph.neighborhood", func(ctx context.Context) (*Mindmap, error) {
		session := r.db.Session(ctx, neo4j.AccessModeRead)
		defer session.Close(ctx)

		nodes, err := r.neighborhoodNodes(ctx, session, id, depth)
		if err != nil {
			return nil, err
		}
		if nodes == nil {
			return nil, nil
		}

		edges, err := r.neighborhoodEdges(ctx, session, id, depth)
		if err != nil {
			return nil, err
		}

		return &Mindmap{RootID: id, Depth: depth, Nodes: nodes, Edges: edges}, nil
	})
}

func (r *Repository) neighborhoodNodes(ctx context.Context, session neo4j.SessionWithContext, id string, depth int) ([]MindmapNode, error) {
	query := fmt.Sprintf(`
		MATCH (root:Insight {id: $id})
		OPTIONAL MATCH (root)-[*1..%d]-(m:Insight)
		WITH root, collect(DISTINCT m) AS neighbors
		UNWIND [root] + neighbors AS n
		RETURN n.id AS id, n.title AS title, n.tags AS tags, n.owner_id AS ownerID
	`, depth)

	result, err := session.Run(ctx, query, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}

	var nodes []MindmapNode
	for result.Next(ctx) {
		record := result.Record()
		nodes = append(nodes, MindmapNode{
			ID:      recordString(record, "id"),
			Title:   recordString(record, "title"),
			Tags:    recordStrings(record, "tags"),
			OwnerID: recordString(record, "ownerID"),
		})
	}
	return nodes, result.Err()
}

func (r *Repository) neighborhoodEdges(ctx context.Context, session neo4j.SessionWithContext, id string, depth int) ([]MindmapEdge, error) {
	query := fmt.Sprintf(`
		MATCH (root:Insight {id: $id})
		OPTIONAL MATCH p = (root)-[*1..%d]-(:Insight)
		UNWIND CASE WHEN p IS NULL THEN [] ELSE relationships(p) END AS rel
		WITH DISTINCT rel
		RETURN startNode(rel).id AS sourceID,
		       endNode(rel).id AS targetID,
		       type(rel) AS relType,
		       rel.strength AS strength
	`, depth)

	result, err := session.Run(ctx, query, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}

	edges := []MindmapEdge{}
	for result.Next(ctx) {
		record := result.Record()
		strength, _ := record.Get("strength")
		f, _ := strength.(float64)
		edges = append(edges, MindmapEdge{
			SourceID: recordString(record, "sourceID"),
			TargetID: recordString(record, "targetID"),
			Type:     recordString(record, "relType"),
			Strength: f,
		})
	}
	return edges, result.Err()
}

func recordString(record *neo4j.Record, key string) string {
	v, _ := record.Get(key)
	s, _ := v.(string)
	return s
}

func recordStrings(record *neo4j.Record, key string) []string {
	v, _ := record.Get(key)
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
