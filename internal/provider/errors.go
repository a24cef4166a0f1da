package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse is returned when the provider body does not match
	// the expected competitor/rate shape.
	ErrMalformedResponse = errors.New("provider: malformed response")
	// ErrUnavailable is returned while the circuit breaker rejects calls.
	ErrUnavailable = errors.New("provider: unavailable")
	// ErrNotConfigured is returned by a client without a base URL.
	ErrNotConfigured = errors.New("provider: not configured")
)

// StatusError carries a non-2xx provider status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("provider: status %d", e.Code)
	}
	return fmt.Sprintf("provider: status %d: %s", e.Code, e.Body)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
