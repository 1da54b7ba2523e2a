package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by repositories, services and handlers.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("remote store unavailable")
	ErrDisabled     = errors.New("feature disabled")
)

// Error is an application error with a stable code and optional field details.
type Error struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	HTTPStatus int               `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing entity.
func NotFound(resource, id string) *Error {
	return &Error{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Code:       "NOT_FOUND",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]string{"resource": resource, "id": id},
	}
}

// Validation reports input that was rejected before any remote call.
func Validation(message string, details map[string]string) *Error {
	return &Error{
		Err:        ErrValidation,
		Message:    message,
		Code:       "VALIDATION_ERROR",
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// Unauthorized reports missing or bad credentials.
func Unauthorized(message string) *Error {
	return &Error{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Conflict reports a uniqueness violation.
func Conflict(message string) *Error {
	return &Error{
		Err:        ErrConflict,
		Message:    message,
		Code:       "CONFLICT",
		HTTPStatus: http.StatusConflict,
	}
}

// Unavailable wraps a failed remote read or write.
func Unavailable(op string, err error) *Error {
	return &Error{
		Err:        fmt.Errorf("%w: %w", ErrUnavailable, err),
		Message:    op + " failed",
		Code:       "STORE_UNAVAILABLE",
		HTTPStatus: http.StatusBadGateway,
	}
}

// Disabled reports a feature whose integration is not configured.
func Disabled(feature string) *Error {
	return &Error{
		Err:        ErrDisabled,
		Message:    feature + " is not configured",
		Code:       "FEATURE_DISABLED",
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// As extracts an *Error from the chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPStatus maps any error to the status code a handler should answer with.
func HTTPStatus(err error) int {
	if appErr, ok := As(err); ok && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
