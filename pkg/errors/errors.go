// Package errors defines the error taxonomy shared across the monitoring
// core. Sentinels are matched with errors.Is; AppError adds a human-readable
// message and the HTTP status an API layer should map the failure to.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidIdentifier marks an externally-supplied ID that does not
	// parse into the canonical ID type.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrUnsupportedLanguage marks a keyword language outside the fixed
	// supported set.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrUnsupportedIndexType marks an index type outside the fixed enum.
	ErrUnsupportedIndexType = errors.New("unsupported index type")
	// ErrMetaUninitialized marks a read of the meta document before one
	// has been written.
	ErrMetaUninitialized = errors.New("meta document not initialised")
	// ErrNotFound is for callers that need to surface an absent entity as
	// a failure. Lookups themselves return an explicit nil instead.
	ErrNotFound = errors.New("not found")
	// ErrInternal wraps unexpected storage or encoding failures.
	ErrInternal = errors.New("internal error")
)

// AppError pairs a sentinel with a message and HTTP status code.
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

// New wraps a sentinel in an AppError.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf wraps a sentinel in an AppError with a formatted message.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the status code an API layer should
// return for it.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrMetaUninitialized):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidIdentifier),
		errors.Is(err, ErrUnsupportedLanguage),
		errors.Is(err, ErrUnsupportedIndexType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
