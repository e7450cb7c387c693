package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure kinds the storefront distinguishes.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal error")
	ErrStorageCorrupt = errors.New("persisted state corrupt")
	ErrNetwork        = errors.New("network failure")
	ErrAPI            = errors.New("commerce api error")
)

// AppError is a structured application error with an HTTP status mapping for
// the consumer-facing surface.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error. The commerce backend returns this when the
// bearer credential is missing, expired, or revoked.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// API creates an error carrying a non-2xx commerce backend response. The
// backend's own message is preserved so it can be surfaced for retry.
func API(status int, message string) *AppError {
	if message == "" {
		message = fmt.Sprintf("commerce api returned status %d", status)
	}
	return &AppError{
		Code:    "API_ERROR",
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     ErrAPI,
	}
}

// Network creates an error for a transport-level failure reaching the backend.
func Network(err error) *AppError {
	return &AppError{
		Code:    "NETWORK_FAILURE",
		Message: "could not reach the commerce backend",
		Status:  http.StatusBadGateway,
		Err:     fmt.Errorf("%w: %w", ErrNetwork, err),
	}
}

// StorageCorrupt creates an error for an unparsable persisted snapshot. It is
// recovered locally and never surfaced to the consumer.
func StorageCorrupt(err error) *AppError {
	return &AppError{
		Code:    "STORAGE_CORRUPT",
		Message: "persisted cart snapshot is not well-formed",
		Status:  http.StatusInternalServerError,
		Err:     fmt.Errorf("%w: %w", ErrStorageCorrupt, err),
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrAPI):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
