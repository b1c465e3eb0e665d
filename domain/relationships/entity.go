package relationships

import "time"

const collection = "relationships"

// Relationship is the document-store record of one typed, directed edge
// between two insights. The graph store carries the same edge for traversal;
// the batch executor keeps the paired writes together.
type Relationship struct {
	ID        string    `bson:"_id" json:"id"`
	SourceID  string    `bson:"source_id" json:"source_id"`
	TargetID  string    `bson:"target_id" json:"target_id"`
	Type      string    `bson:"type" json:"type"`
	Strength  float64   `bson:"strength" json:"strength"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
