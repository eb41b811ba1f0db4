// Package apperror defines the domain error taxonomy shared by every layer.
//
// Repositories and services return these errors; only the HTTP layer decides
// which status code each sentinel maps to.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream failure")
	ErrRateLimited  = errors.New("rate limited")
)

// Violation is one failed rule of a validation schema.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Err        error       // sentinel
	Message    string      // Human-readable error message
	Field      string      // Optional: field causing the error
	Violations []Violation // Validation only: every failed rule, in schema order
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing record, e.g. NotFound("Tool", "slug", "vue-query")
// reads "Tool with slug vue-query not found".
func NotFound(resource, key, value string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s with %s %s not found", resource, key, value),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		Field:      field,
		Violations: []Violation{{Field: field, Message: message}},
	}
}

// Invalid builds a validation error from a full list of violations.
// The first violation becomes the headline message.
func Invalid(violations []Violation) *AppError {
	if len(violations) == 0 {
		return ValidationFailed("", "invalid request")
	}
	return &AppError{
		Err:        ErrValidation,
		Message:    violations[0].Message,
		Field:      violations[0].Field,
		Violations: violations,
	}
}

func Conflict(resource, key, value string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s with %s %s already exists", resource, key, value),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized means no valid identity was presented.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Upstream wraps a third-party failure. The message is shown to the caller,
// so it should carry the underlying provider error.
func Upstream(message string, cause error) *AppError {
	if cause != nil {
		message = fmt.Sprintf("%s: %v", message, cause)
	}
	return &AppError{
		Err:     ErrUpstream,
		Message: message,
	}
}

func RateLimited(message string) *AppError {
	return &AppError{
		Err:     ErrRateLimited,
		Message: message,
	}
}
