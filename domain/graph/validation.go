package graph

import "fmt"

// Cypher has no parameter syntax for labels or relationship types, so those
// identifiers end up interpolated into query text. Only names from the fixed
// sets below may be interpolated; every other value travels as a bound
// parameter.

// LabelInsight is the node label carried by every insight projection.
const LabelInsight = "Insight"

// Relationship types the engine may create between projections.
const (
	RelRelatedTo   = "RELATED_TO"
	RelDerivedFrom = "DERIVED_FROM"
	RelContradicts = "CONTRADICTS"
	RelSupports    = "SUPPORTS"
)

var validRelTypes = map[string]bool{
	RelRelatedTo:   true,
	RelDerivedFrom: true,
	RelContradicts: true,
	RelSupports:    true,
}

// ValidRelType reports whether t is an allowed relationship type.
func ValidRelType(t string) bool {
	return validRelTypes[t]
}

// RelTypes returns the allowed relationship types for error messages and
// request validation.
func RelTypes() []string {
	return []string{RelRelatedTo, RelDerivedFrom, RelContradicts, RelSupports}
}

func requireRelType(t string) (string, error) {
	if !validRelTypes[t] {
		return "", fmt.Errorf("relationship type %q is not allowed", t)
	}
	return t, nil
}
