package insights

import (
	"fmt"
	"strings"

	"github.com/insight-tracker/server-go/pkg/apperror"
)

const (
	maxTitleLength = 200
	maxTagCount    = 32

	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateInsightRequest is the payload for creating an insight. The owner id
// travels in the payload because authentication is handled outside this
// service.
type CreateInsightRequest struct {
	OwnerID string   `json:"owner_id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// Validate checks the request and returns a validation error naming the
// first offending field.
func (r *CreateInsightRequest) Validate() error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return apperror.ErrValidation.WithMessage("owner_id is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return apperror.ErrValidation.WithMessage("title is required")
	}
	if len(r.Title) > maxTitleLength {
		return apperror.ErrValidation.WithMessage(fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	if strings.TrimSpace(r.Content) == "" {
		return apperror.ErrValidation.WithMessage("content is required")
	}
	if len(r.Tags) > maxTagCount {
		return apperror.ErrValidation.WithMessage(fmt.Sprintf("at most %d tags are allowed", maxTagCount))
	}
	return nil
}

// UpdateInsightRequest is the payload for a partial update. Nil fields are
// left untouched; a non-nil empty tag list clears the tags.
type UpdateInsightRequest struct {
	Title   *string  `json:"title,omitempty"`
	Content *string  `json:"content,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// Validate checks the request. At least one field must be set.
func (r *UpdateInsightRequest) Validate() error {
	if r.Title == nil && r.Content == nil && r.Tags == nil {
		return apperror.ErrValidation.WithMessage("no fields to update")
	}
	if r.Title != nil {
		if strings.TrimSpace(*r.Title) == "" {
			return apperror.ErrValidation.WithMessage("title cannot be empty")
		}
		if len(*r.Title) > maxTitleLength {
			return apperror.ErrValidation.WithMessage(fmt.Sprintf("title must be at most %d characters", maxTitleLength))
		}
	}
	if r.Content != nil && strings.TrimSpace(*r.Content) == "" {
		return apperror.ErrValidation.WithMessage("content cannot be empty")
	}
	if len(r.Tags) > maxTagCount {
		return apperror.ErrValidation.WithMessage(fmt.Sprintf("at most %d tags are allowed", maxTagCount))
	}
	return nil
}

// ListResponse is one page of an owner's insights. Pages are cached under a
// key derived from owner, skip and limit, so the shape must stay stable.
type ListResponse struct {
	Items []Insight `json:"items"`
	Total int64     `json:"total"`
	Skip  int       `json:"skip"`
	Limit int       `json:"limit"`
}

// normalizeTags trims whitespace, drops empties and deduplicates while
// keeping first-seen order, so the stored tag list behaves as a set.
func normalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
