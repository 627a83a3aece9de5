// Package apperror is the error vocabulary shared by the session, mission
// and account plugins. Each error knows its HTTP status and a message the
// web client may display; the cause stays server-side for the logs.
//
// Storage and backend API failures are never handed to the client as-is.
// Services wrap them here, usually as NewBadGateway or NewInternal.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a client-facing failure: status, classifier and display text.
type AppError struct {
	Code    int    `json:"-"`
	Type    string `json:"type"`
	Message string `json:"message"`

	// Internal is logged by the error handler and never serialized.
	Internal error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the cause, so errors.Is sees through a BadGateway to the
// remote client's StatusError.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// --- Constructors ---

// NewNotFound is returned for unknown missions and game sessions.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    "not_found",
		Message: message,
	}
}

// NewBadRequest is returned when a request body cannot be bound.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "bad_request",
		Message: message,
	}
}

// NewUnauthorized is returned when a login token is expired or malformed.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    "unauthorized",
		Message: message,
	}
}

// NewConflict is returned for a mission already claimed this rotation or
// a game session already reported.
func NewConflict(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    "conflict",
		Message: message,
	}
}

// NewValidation is returned for input the client can correct, including a
// claim on a mission that is not complete yet.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    "validation_error",
		Message: message,
	}
}

// NewUnavailable creates a 503 error for state that is not ready yet, such
// as a session check still in flight or a storage backend that never came up.
func NewUnavailable(message string) *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Type:    "unavailable",
		Message: message,
	}
}

// NewBadGateway creates a 502 error for a failed call to the remote API.
// The remote error is kept in Internal for logging.
func NewBadGateway(message string, err error) *AppError {
	return &AppError{
		Code:     http.StatusBadGateway,
		Type:     "bad_gateway",
		Message:  message,
		Internal: err,
	}
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging but the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// SafeMessage returns the display text of an AppError and a generic
// message for anything else.
func SafeMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the status of an AppError, 500 otherwise.
func SafeCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// Is reports whether err is an AppError of the given type.
func Is(err error, errType string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errType
}
