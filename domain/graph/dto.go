package graph

// Mindmap is the neighborhood of one insight up to a bounded depth, shaped
// for the traversal view the web layer serves.
type Mindmap struct {
	RootID string        `json:"root_id"`
	Depth  int           `json:"depth"`
	Nodes  []MindmapNode `json:"nodes"`
	Edges  []MindmapEdge `json:"edges"`
}

type MindmapNode struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
	OwnerID string   `json:"owner_id"`
}

type MindmapEdge struct {
	SourceID string  `json:"source_id"`
	TargetID string  `json:"target_id"`
	Type     string  `json:"type"`
	Strength float64 `json:"strength"`
}
