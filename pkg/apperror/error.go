// Package apperror defines the application error type and the error taxonomy
// of the consistency engine: validation and not-found errors are permanent,
// store_unavailable marks a store call that exhausted its retry budget.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error represents an application error with HTTP status and error code
type Error struct {
	HTTPStatus int
	Code       string
	Message    string
	Internal   error
	Details    map[string]any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the internal error
func (e *Error) Unwrap() error {
	return e.Internal
}

// ToEchoError converts the app error to an echo.HTTPError for proper handling
func (e *Error) ToEchoError() *echo.HTTPError {
	errBody := map[string]any{
		"code":    e.Code,
		"message": e.Message,
	}
	if len(e.Details) > 0 {
		errBody["details"] = e.Details
	}
	return echo.NewHTTPError(e.HTTPStatus, map[string]any{
		"error": errBody,
	})
}

// WithInternal returns a copy of the error with an internal error attached
func (e *Error) WithInternal(err error) *Error {
	return &Error{
		HTTPStatus: e.HTTPStatus,
		Code:       e.Code,
		Message:    e.Message,
		Internal:   err,
		Details:    e.Details,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *Error) WithMessage(message string) *Error {
	return &Error{
		HTTPStatus: e.HTTPStatus,
		Code:       e.Code,
		Message:    message,
		Internal:   e.Internal,
		Details:    e.Details,
	}
}

// WithDetails returns a copy of the error with details attached
func (e *Error) WithDetails(details map[string]any) *Error {
	return &Error{
		HTTPStatus: e.HTTPStatus,
		Code:       e.Code,
		Message:    e.Message,
		Internal:   e.Internal,
		Details:    details,
	}
}

// New creates a new application error
func New(status int, code, message string) *Error {
	return &Error{
		HTTPStatus: status,
		Code:       code,
		Message:    message,
	}
}

// Common error definitions
var (
	// Resource errors
	ErrNotFound = New(http.StatusNotFound, "not_found", "Resource not found")
	ErrConflict = New(http.StatusConflict, "conflict", "Resource already exists")

	// Validation errors
	ErrBadRequest = New(http.StatusBadRequest, "bad_request", "Invalid request")
	ErrValidation = New(http.StatusUnprocessableEntity, "validation_error", "Validation failed")

	// Server errors
	ErrInternal = New(http.StatusInternalServerError, "internal_error", "An internal error occurred")
	ErrDatabase = New(http.StatusInternalServerError, "database_error", "Store operation failed")

	// ErrStoreUnavailable is the terminal form of a transient store failure:
	// the resilient client retried up to its budget and every attempt failed.
	ErrStoreUnavailable = New(http.StatusServiceUnavailable, "store_unavailable", "Store is unavailable")
)

// IsStoreUnavailable reports whether err (anywhere in its chain) is the
// exhausted-retries store error.
func IsStoreUnavailable(err error) bool {
	return hasCode(err, ErrStoreUnavailable.Code)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return hasCode(err, ErrValidation.Code)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return hasCode(err, ErrNotFound.Code)
}

func hasCode(err error, code string) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// ToHTTPError converts an app error to an HTTP-friendly format
func ToHTTPError(err error) (int, map[string]any) {
	var appErr *Error
	if errors.As(err, &appErr) {
		errBody := map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
		}
		if len(appErr.Details) > 0 {
			errBody["details"] = appErr.Details
		}
		return appErr.HTTPStatus, map[string]any{
			"error": errBody,
		}
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError, map[string]any{
		"error": map[string]any{
			"code":    "internal_error",
			"message": "An internal error occurred",
		},
	}
}

// NewBadRequest creates a bad request error with a custom message
func NewBadRequest(message string) *Error {
	return ErrBadRequest.WithMessage(message)
}

// NewNotFound creates a not found error for a resource type and ID
func NewNotFound(resourceType, id string) *Error {
	return ErrNotFound.WithMessage(fmt.Sprintf("%s '%s' not found", resourceType, id))
}

// NewInternal creates an internal error with a message and optional wrapped error
func NewInternal(message string, err error) *Error {
	return &Error{
		HTTPStatus: http.StatusInternalServerError,
		Code:       "internal_error",
		Message:    message,
		Internal:   err,
	}
}

// NewStoreUnavailable marks an operation that failed after exhausting its
// retry budget against the named store.
func NewStoreUnavailable(store, op string, attempts int, err error) *Error {
	return &Error{
		HTTPStatus: http.StatusServiceUnavailable,
		Code:       ErrStoreUnavailable.Code,
		Message:    fmt.Sprintf("%s operation '%s' failed after %d attempts", store, op, attempts),
		Internal:   err,
	}
}
