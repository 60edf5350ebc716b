// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openalex

import (
	"errors"
	"fmt"

	"github.com/pdiddy/snowball/internal/httputil"
)

// Common errors returned by the OpenAlex client.
var (
	// ErrNotFound indicates the identifier does not resolve to a work.
	// This is a normal outcome, not a failure.
	ErrNotFound = errors.New("not found in OpenAlex")

	// ErrRetryExhausted indicates a transient error (429, 5xx, network)
	// persisted through all retry attempts.
	ErrRetryExhausted = httputil.ErrRetriesExhausted

	// ErrInvalidResponse indicates an unexpected API payload.
	ErrInvalidResponse = errors.New("invalid response from OpenAlex")
)

// APIError represents a non-retryable error response from the OpenAlex API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("OpenAlex API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err means the identifier was unresolvable.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryExhausted reports whether err means retries ran out on a
// transient failure.
func IsRetryExhausted(err error) bool {
	return errors.Is(err, ErrRetryExhausted)
}
