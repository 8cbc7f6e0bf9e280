// Package apperr defines the error categories shared across the service.
// Handlers map these to HTTP status codes; core packages only wrap them.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks missing or malformed input; the operation was not attempted.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a missing challenge, day or task; no partial mutation applied.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable marks a fitness or LLM provider failure.
	// Callers at the orchestration boundary degrade to deterministic fallbacks.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedUpstream marks an upstream response that could not be parsed
	// even after cleanup. Treated like ErrUpstreamUnavailable by callers.
	ErrMalformedUpstream = errors.New("malformed upstream response")

	// ErrPersistence marks a document store read/write failure. Fatal for the request.
	ErrPersistence = errors.New("persistence error")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

// Upstreamf wraps ErrUpstreamUnavailable with a formatted message.
func Upstreamf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrUpstreamUnavailable}, args...)...)
}

// Persistencef wraps ErrPersistence with a formatted message.
func Persistencef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrPersistence}, args...)...)
}
