// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Quizdesk.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Rejections: Dedicated constructors for every gate and login rejection so that
    "log in again" (401) and "you lack permission" (403) never collapse together.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Error Codes

const (
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeForbidden            = "FORBIDDEN"
	CodeInsufficientRole     = "INSUFFICIENT_ROLE"
	CodeAccountDeactivated   = "ACCOUNT_DEACTIVATED"
	CodeVerificationRequired = "VERIFICATION_REQUIRED"
	CodeInvalidCredential    = "INVALID_CREDENTIAL"
	CodeRateLimited          = "RATE_LIMITED"
	CodeConflict             = "CONFLICT"
	CodeValidation           = "VALIDATION_ERROR"
	CodeInternal             = "INTERNAL_ERROR"
	CodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
)

// AppError is the canonical error type for the Quizdesk API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and optional hints (field errors, role requirements, retry delay).
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "CONFLICT").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"message"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
	// RequiredRoles lists every role that would have satisfied the check.
	RequiredRoles []string `json:"requiredRoles,omitempty"`
	// UserRole is the role the caller actually holds.
	UserRole string `json:"userRole,omitempty"`
	// RetryAfter is the throttle hint in whole seconds. Only set for RATE_LIMITED.
	RetryAfter int `json:"retryAfter,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause returns a copy of the error carrying cause for server-side logs.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("User") // Returns "User not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthenticated creates a 401 [AppError]. The client should (re-)authenticate.
func Unauthenticated(msg string) *AppError {
	return &AppError{
		Code:       CodeUnauthenticated,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// InvalidCredential creates the 401 [AppError] returned by a failed login.
//
// The message is identical for an unknown identifier and a wrong secret.
func InvalidCredential() *AppError {
	return &AppError{
		Code:       CodeInvalidCredential,
		Message:    "Invalid email or password",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a 403 [AppError] for an authenticated caller acting
// outside of their own identity without a sufficient role.
func Forbidden(msg string, requiredRoles []string, userRole string) *AppError {
	return &AppError{
		Code:          CodeForbidden,
		Message:       msg,
		HTTPStatus:    http.StatusForbidden,
		RequiredRoles: requiredRoles,
		UserRole:      userRole,
	}
}

// InsufficientRole creates a 403 [AppError] for a role floor violation.
func InsufficientRole(requiredRoles []string, userRole string) *AppError {
	return &AppError{
		Code:          CodeInsufficientRole,
		Message:       "Insufficient permissions",
		HTTPStatus:    http.StatusForbidden,
		RequiredRoles: requiredRoles,
		UserRole:      userRole,
	}
}

// AccountDeactivated creates a 403 [AppError] for a deleted account.
func AccountDeactivated() *AppError {
	return &AppError{
		Code:       CodeAccountDeactivated,
		Message:    "Account has been deactivated",
		HTTPStatus: http.StatusForbidden,
	}
}

// VerificationRequired creates a 403 [AppError] for an account whose status
// does not match the one the route demands.
func VerificationRequired(required string) *AppError {
	return &AppError{
		Code:       CodeVerificationRequired,
		Message:    fmt.Sprintf("Account must be %s to perform this action", required),
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// RateLimited creates a 429 [AppError]. It is the only rejection that carries
// a retry hint.
func RateLimited(retryAfterSeconds int) *AppError {
	if retryAfterSeconds < 1 {
		retryAfterSeconds = 1
	}
	return &AppError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
		RetryAfter: retryAfterSeconds,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ServiceUnavailable creates a 503 [AppError] for maintenance mode.
func ServiceUnavailable(msg string) *AppError {
	return &AppError{
		Code:       CodeServiceUnavailable,
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
