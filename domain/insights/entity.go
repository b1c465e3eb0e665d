package insights

import "time"

// collection is the document store collection holding insight records.
const collection = "insights"

// Insight is the authoritative record of one insight. It lives in the
// document store; the graph store only ever holds a projection of it, and
// the sync engine overwrites that projection from this record, never the
// other way around.
type Insight struct {
	ID        string    `bson:"_id" json:"id"`
	OwnerID   string    `bson:"owner_id" json:"owner_id"`
	Title     string    `bson:"title" json:"title"`
	Content   string    `bson:"content" json:"content"`
	Tags      []string  `bson:"tags" json:"tags"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
