package apperrors

import (
	"errors"
)

// Common errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrNotReady     = errors.New("resource not ready")
	ErrConflict     = errors.New("conflict")
	ErrTimeout      = errors.New("operation timed out")
	ErrDependency   = errors.New("dependency failed")
	ErrRateLimited  = errors.New("rate limited")
)

// Kind returns the stable code string for a known error, or INTERNAL_ERROR.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrNotReady):
		return "NOT_READY"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrDependency):
		return "DEPENDENCY_ERROR"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	default:
		return "INTERNAL_ERROR"
	}
}

// HTTPStatus maps a known error to its response status.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return 400
	case errors.Is(err, ErrUnauthorized):
		return 401
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrNotReady):
		return 409
	case errors.Is(err, ErrConflict):
		return 409
	case errors.Is(err, ErrRateLimited):
		return 429
	case errors.Is(err, ErrTimeout):
		return 504
	case errors.Is(err, ErrDependency):
		return 502
	default:
		return 500
	}
}
