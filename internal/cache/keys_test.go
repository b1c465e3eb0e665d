package cache

import (
	"strings"
	"testing"
)

func TestKeyScheme(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"insight", InsightKey("a1"), "insight:a1"},
		{"owner list page", OwnerListKey("u7", 20, 10), "insights:user:u7:20:10"},
		{"owner list pattern", OwnerListPattern("u7"), "insights:user:u7:*"},
		{"mindmap pattern", MindmapPattern("a1"), "mindmap:a1:*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestOwnerListPatternCoversPageKeys(t *testing.T) {
	// Invalidation globs by prefix, so every page key for an owner has to
	// start with the pattern minus its trailing wildcard.
	pattern := OwnerListPattern("u7")
	prefix := strings.TrimSuffix(pattern, "*")

	for _, key := range []string{
		OwnerListKey("u7", 0, 20),
		OwnerListKey("u7", 40, 100),
	} {
		if !strings.HasPrefix(key, prefix) {
			t.Errorf("page key %q not covered by pattern %q", key, pattern)
		}
	}

	if strings.HasPrefix(OwnerListKey("u70", 0, 20), prefix) {
		t.Errorf("pattern %q must not cover keys of other owners", pattern)
	}
}
