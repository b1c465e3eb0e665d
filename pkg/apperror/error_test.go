package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorError(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without internal error",
			err:      New(http.StatusNotFound, "not_found", "Resource not found"),
			expected: "not_found: Resource not found",
		},
		{
			name: "with internal error",
			err: New(http.StatusInternalServerError, "internal_error", "Something went wrong").
				WithInternal(errors.New("connection refused")),
			expected: "internal_error: Something went wrong (connection refused)",
		},
		{
			name:     "empty message",
			err:      New(http.StatusBadRequest, "bad_request", ""),
			expected: "bad_request: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("underlying cause")

	assert.Nil(t, ErrNotFound.Unwrap())
	assert.Equal(t, inner, ErrInternal.WithInternal(inner).Unwrap())
}

func TestWithCopiesDoNotMutate(t *testing.T) {
	base := New(http.StatusBadRequest, "bad_request", "Invalid request")

	withMsg := base.WithMessage("different message")
	withErr := base.WithInternal(errors.New("boom"))
	withDet := base.WithDetails(map[string]any{"field": "title"})

	assert.Equal(t, "Invalid request", base.Message)
	assert.Nil(t, base.Internal)
	assert.Nil(t, base.Details)

	assert.Equal(t, "different message", withMsg.Message)
	assert.Equal(t, "bad_request", withMsg.Code)
	assert.Error(t, withErr.Internal)
	assert.Equal(t, map[string]any{"field": "title"}, withDet.Details)
}

func TestSentinels(t *testing.T) {
	tests := []struct {
		err        *Error
		wantStatus int
		wantCode   string
	}{
		{ErrNotFound, http.StatusNotFound, "not_found"},
		{ErrConflict, http.StatusConflict, "conflict"},
		{ErrBadRequest, http.StatusBadRequest, "bad_request"},
		{ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
		{ErrInternal, http.StatusInternalServerError, "internal_error"},
		{ErrDatabase, http.StatusInternalServerError, "database_error"},
		{ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
			assert.Equal(t, tt.wantCode, tt.err.Code)
		})
	}
}

func TestNewStoreUnavailable(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewStoreUnavailable("mongodb", "find_one", 3, cause)

	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus)
	assert.Equal(t, "store_unavailable", err.Code)
	assert.Contains(t, err.Message, "mongodb")
	assert.Contains(t, err.Message, "find_one")
	assert.Contains(t, err.Message, "3 attempts")
	assert.Equal(t, cause, err.Unwrap())
}

func TestIsStoreUnavailable(t *testing.T) {
	base := NewStoreUnavailable("redis", "set_nx", 3, errors.New("timeout"))

	assert.True(t, IsStoreUnavailable(base))
	assert.True(t, IsStoreUnavailable(fmt.Errorf("acquire lock: %w", base)))
	assert.False(t, IsStoreUnavailable(ErrNotFound))
	assert.False(t, IsStoreUnavailable(errors.New("plain error")))
	assert.False(t, IsStoreUnavailable(nil))
}

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, IsValidation(ErrValidation.WithMessage("title is required")))
	assert.True(t, IsValidation(fmt.Errorf("create: %w", ErrValidation)))
	assert.False(t, IsValidation(ErrBadRequest))

	assert.True(t, IsNotFound(NewNotFound("insight", "a1")))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestToHTTPError(t *testing.T) {
	t.Run("app error with details", func(t *testing.T) {
		appErr := ErrValidation.WithDetails(map[string]any{"title": "required"})
		status, body := ToHTTPError(appErr)

		assert.Equal(t, http.StatusUnprocessableEntity, status)
		errObj, ok := body["error"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "validation_error", errObj["code"])
		assert.Equal(t, map[string]any{"title": "required"}, errObj["details"])
	})

	t.Run("wrapped app error", func(t *testing.T) {
		status, body := ToHTTPError(fmt.Errorf("outer: %w", ErrNotFound))

		assert.Equal(t, http.StatusNotFound, status)
		errObj := body["error"].(map[string]any)
		assert.Equal(t, "not_found", errObj["code"])
	})

	t.Run("unknown error falls back to internal", func(t *testing.T) {
		status, body := ToHTTPError(errors.New("mystery"))

		assert.Equal(t, http.StatusInternalServerError, status)
		errObj := body["error"].(map[string]any)
		assert.Equal(t, "internal_error", errObj["code"])
	})
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("insight", "662a9f")

	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.Equal(t, "insight '662a9f' not found", err.Message)
}
