package client

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("not found")

// APIError carries the status and message of a non-2xx reply.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("progress api: HTTP %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the failure may clear on a later attempt.
// Client errors other than 408 and 429 are permanent.
func (e *APIError) Retryable() bool {
	switch {
	case e.StatusCode == 408 || e.StatusCode == 429:
		return true
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return false
	default:
		return true
	}
}

// IsRetryable reports whether err is worth retrying with backoff. Network
// errors (no APIError in the chain) are treated as transient.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return !errors.Is(err, ErrNotFound)
}
