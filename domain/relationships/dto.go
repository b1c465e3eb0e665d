package relationships

import (
	"strings"

	"github.com/insight-tracker/server-go/domain/graph"
	"github.com/insight-tracker/server-go/pkg/apperror"
)

const defaultStrength = 1.0

// CreateRelationshipRequest is the payload for linking two insights. A nil
// strength defaults to 1.0; zero is a valid explicit strength.
type CreateRelationshipRequest struct {
	SourceID string   `json:"source_id"`
	TargetID string   `json:"target_id"`
	Type     string   `json:"type"`
	Strength *float64 `json:"strength,omitempty"`
}

// Validate checks the request and returns a validation error naming the
// first offending field.
func (r *CreateRelationshipRequest) Validate() error {
	if strings.TrimSpace(r.SourceID) == "" {
		return apperror.ErrValidation.WithMessage("source_id is required")
	}
	if strings.TrimSpace(r.TargetID) == "" {
		return apperror.ErrValidation.WithMessage("target_id is required")
	}
	if r.SourceID == r.TargetID {
		return apperror.ErrValidation.WithMessage("source_id and target_id must differ")
	}
	if !graph.ValidRelType(r.Type) {
		return apperror.ErrValidation.WithMessage(
			"type must be one of " + strings.Join(graph.RelTypes(), ", "))
	}
	if r.Strength != nil && (*r.Strength < 0 || *r.Strength > 1) {
		return apperror.ErrValidation.WithMessage("strength must be between 0 and 1")
	}
	return nil
}

// strength returns the requested strength or the default.
func (r *CreateRelationshipRequest) strength() float64 {
	if r.Strength == nil {
		return defaultStrength
	}
	return *r.Strength
}

// ListResponse is every relationship touching one insight, on either side.
type ListResponse struct {
	InsightID string         `json:"insight_id"`
	Items     []Relationship `json:"items"`
	Total     int            `json:"total"`
}
