package insights

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insight-tracker/server-go/pkg/apperror"
)

func strPtr(s string) *string { return &s }

func TestCreateInsightRequestValidate(t *testing.T) {
	valid := CreateInsightRequest{
		OwnerID: "owner-1",
		Title:   "Distributed locks",
		Content: "SetNX with a TTL and an owner token.",
		Tags:    []string{"redis", "locks"},
	}

	tests := []struct {
		name    string
		mutate  func(r *CreateInsightRequest)
		wantErr string
	}{
		{name: "valid", mutate: func(r *CreateInsightRequest) {}},
		{
			name:    "missing owner",
			mutate:  func(r *CreateInsightRequest) { r.OwnerID = "  " },
			wantErr: "owner_id is required",
		},
		{
			name:    "missing title",
			mutate:  func(r *CreateInsightRequest) { r.Title = "" },
			wantErr: "title is required",
		},
		{
			name:    "title too long",
			mutate:  func(r *CreateInsightRequest) { r.Title = strings.Repeat("x", maxTitleLength+1) },
			wantErr: "title must be at most",
		},
		{
			name:   "title at the limit",
			mutate: func(r *CreateInsightRequest) { r.Title = strings.Repeat("x", maxTitleLength) },
		},
		{
			name:    "missing content",
			mutate:  func(r *CreateInsightRequest) { r.Content = "\t" },
			wantErr: "content is required",
		},
		{
			name:    "too many tags",
			mutate:  func(r *CreateInsightRequest) { r.Tags = make([]string, maxTagCount+1) },
			wantErr: "tags are allowed",
		},
		{
			name:   "no tags",
			mutate: func(r *CreateInsightRequest) { r.Tags = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, apperror.IsValidation(err))
		})
	}
}

func TestUpdateInsightRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     UpdateInsightRequest
		wantErr string
	}{
		{
			name:    "no fields",
			req:     UpdateInsightRequest{},
			wantErr: "no fields to update",
		},
		{
			name: "title only",
			req:  UpdateInsightRequest{Title: strPtr("New title")},
		},
		{
			name:    "empty title",
			req:     UpdateInsightRequest{Title: strPtr("  ")},
			wantErr: "title cannot be empty",
		},
		{
			name:    "title too long",
			req:     UpdateInsightRequest{Title: strPtr(strings.Repeat("x", maxTitleLength+1))},
			wantErr: "title must be at most",
		},
		{
			name: "content only",
			req:  UpdateInsightRequest{Content: strPtr("Rewritten.")},
		},
		{
			name:    "empty content",
			req:     UpdateInsightRequest{Content: strPtr("")},
			wantErr: "content cannot be empty",
		},
		{
			name: "clearing tags is a field",
			req:  UpdateInsightRequest{Tags: []string{}},
		},
		{
			name:    "too many tags",
			req:     UpdateInsightRequest{Tags: make([]string, maxTagCount+1)},
			wantErr: "tags are allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil stays nil", in: nil, want: nil},
		{name: "empty stays empty", in: []string{}, want: []string{}},
		{name: "trims whitespace", in: []string{" go ", "redis"}, want: []string{"go", "redis"}},
		{name: "drops empties", in: []string{"go", "", "  "}, want: []string{"go"}},
		{name: "dedupes keeping order", in: []string{"b", "a", "b"}, want: []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeTags(tt.in))
		})
	}
}
