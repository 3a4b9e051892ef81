// Package errors defines the sentinel errors shared across the search core
// and an AppError wrapper that carries an HTTP status for the serving shim.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrContentNotFound marks content or index entries that do not exist.
	// Removal and lookup paths treat it as a no-op, not a failure.
	ErrContentNotFound = errors.New("content not found")
	// ErrStorageUnavailable marks persistence-layer failures. Never
	// swallowed on indexing or search paths.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidInput marks empty queries and malformed filters. Most
	// operations map it to an empty result rather than propagating.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRebuildInProgress marks a suggestion rebuild suppressed by the
	// debounce lock.
	ErrRebuildInProgress = errors.New("rebuild already in progress")
	ErrInternal          = errors.New("internal error")
)

// AppError pairs a sentinel with an operator-facing message and an HTTP
// status code.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the status the serving layer should
// return.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrContentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrRebuildInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
