package cache

import "fmt"

// Cache keys are shared between the web layer, which writes entries, and the
// sync engine, which invalidates them. Both sides must build keys through
// these helpers so the invalidation patterns keep matching the stored keys.

// InsightKey caches a single insight document.
func InsightKey(id string) string {
	return "insight:" + id
}

// OwnerListKey caches one page of an owner's insight listing.
func OwnerListKey(ownerID string, skip, limit int) string {
	return fmt.Sprintf("insights:user:%s:%d:%d", ownerID, skip, limit)
}

// OwnerListPattern matches every cached listing page for one owner.
func OwnerListPattern(ownerID string) string {
	return "insights:user:" + ownerID + ":*"
}

// MindmapKey caches one traversal view rooted at an insight, one entry per
// depth.
func MindmapKey(id string, depth int) string {
	return fmt.Sprintf("mindmap:%s:%d", id, depth)
}

// MindmapPattern matches every cached traversal view rooted at one insight.
func MindmapPattern(id string) string {
	return "mindmap:" + id + ":*"
}
