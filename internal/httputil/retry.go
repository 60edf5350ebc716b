// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the API clients.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// DefaultMaxRetries is the retry budget for transient failures.
const DefaultMaxRetries = 3

// ErrRetriesExhausted indicates a transient failure (HTTP 429, 5xx, or a
// network error) persisted through every retry attempt.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryInitialInterval is the base backoff delay. Tests override this to
// avoid real sleeps.
var RetryInitialInterval = 500 * time.Millisecond

// DoWithRetry executes req, waiting on limiter before every attempt and
// retrying transient failures with exponential backoff (multiplier 2,
// randomized jitter, capped interval). Responses with status 429 or >= 500
// are drained, closed, and retried. Any other response, including 4xx, is
// returned to the caller for classification. After maxRetries transient
// failures the last error is wrapped in ErrRetriesExhausted. A maxRetries
// of 0 selects DefaultMaxRetries.
func DoWithRetry(ctx context.Context, client *http.Client, limiter *rate.Limiter, req *http.Request, maxRetries uint64) (*http.Response, error) {
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}

	attempt := func() (*http.Response, error) {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
			}
		}

		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, fmt.Errorf("HTTP request: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Path)
		}

		return resp, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = RetryInitialInterval
	policy.Multiplier = 2
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 0

	resp, err := backoff.RetryWithData(attempt,
		backoff.WithContext(backoff.WithMaxRetries(policy, maxRetries), ctx))
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRetriesExhausted, err)
	}
	return resp, nil
}
