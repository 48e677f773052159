// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the rate-limited, retrying HTTP client shared
// by every database provider.
package httputil

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket: capacity burst, refilled at rps tokens per
// second from elapsed wall-clock time. Acquire blocks without busy-waiting
// until a token is available.
type RateLimiter struct {
	lim *rate.Limiter
}

// NewRateLimiter creates a limiter with the given sustained rate and burst
// capacity. Non-positive values fall back to 1.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Acquire consumes one token, blocking until one is available or the
// context is cancelled.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	return r.lim.Wait(ctx)
}
