// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pdiddy/litreview/pkg/types"
)

// BackoffBase and BackoffCap control the exponential backoff applied to
// retryable failures: min(BackoffBase·2^n, BackoffCap). Tests override
// BackoffBase to avoid real sleeps.
var (
	BackoffBase = 1 * time.Second
	BackoffCap  = 10 * time.Second

	// DefaultRetryAfter is the wait applied to HTTP 429 responses that
	// carry no Retry-After header.
	DefaultRetryAfter = 5 * time.Second
)

const defaultRetryAttempts = 3

// StatusError reports a non-retryable HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// Observer receives request outcomes for metrics collection. A nil
// observer is ignored.
type Observer interface {
	Request(provider, outcome string)
	Retry(provider string)
}

// Client wraps an http.Client with a token-bucket rate limiter and a retry
// policy. Rate-limited (429) responses wait out Retry-After and retry
// without growing the backoff; 5xx, network, and timeout failures retry
// with exponential backoff; any other non-2xx status fails immediately.
type Client struct {
	http     *http.Client
	limiter  *RateLimiter
	attempts int
	provider string
	observer Observer
}

// NewClient builds a Client from a provider configuration. The provider
// name is used only for metrics labels.
func NewClient(provider string, cfg types.ProviderConfig, obs Observer) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		limiter:  NewRateLimiter(cfg.RequestsPerSecond, cfg.BurstLimit),
		attempts: attempts,
		provider: provider,
		observer: obs,
	}
}

// Do executes the request under the rate limiter and retry policy. A 2xx
// response is returned with its body open; every other outcome returns an
// error. The caller owns the response body.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	backoffExp := 0

	for attempt := 0; attempt < c.attempts; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req.Clone(ctx))
		if err != nil {
			// Network errors and client timeouts are retryable.
			lastErr = err
			c.observe("network_error", true)
			if waitErr := c.backoff(ctx, backoffExp); waitErr != nil {
				return nil, waitErr
			}
			backoffExp++
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			c.observe("ok", false)
			return resp, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			// Honor Retry-After; a 429 consumes an attempt but not a
			// step of backoff growth.
			delay := retryAfter(resp)
			drain(resp)
			lastErr = &StatusError{Code: resp.StatusCode}
			c.observe("rate_limited", true)
			if waitErr := wait(ctx, delay); waitErr != nil {
				return nil, waitErr
			}

		case resp.StatusCode >= 500:
			drain(resp)
			lastErr = &StatusError{Code: resp.StatusCode}
			c.observe("server_error", true)
			if waitErr := c.backoff(ctx, backoffExp); waitErr != nil {
				return nil, waitErr
			}
			backoffExp++

		default:
			drain(resp)
			c.observe("client_error", false)
			return nil, &StatusError{Code: resp.StatusCode}
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.attempts, lastErr)
}

// backoff sleeps min(BackoffBase·2^exp, BackoffCap) or returns early on
// context cancellation.
func (c *Client) backoff(ctx context.Context, exp int) error {
	d := BackoffBase << exp
	if d > BackoffCap {
		d = BackoffCap
	}
	return wait(ctx, d)
}

func (c *Client) observe(outcome string, retried bool) {
	if c.observer == nil {
		return
	}
	c.observer.Request(c.provider, outcome)
	if retried {
		c.observer.Retry(c.provider)
	}
}

// retryAfter parses the Retry-After header in seconds, defaulting to
// DefaultRetryAfter when absent or malformed.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return DefaultRetryAfter
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
