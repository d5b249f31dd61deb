// Package ratelimit paces completion requests so a chatty loop cannot
// hammer the backing API.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration.
type Config struct {
	Enabled           bool
	RequestsPerMinute int
}

// DefaultConfig returns the default rate limiting configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:           false, // Off by default for single-user use
		RequestsPerMinute: 60,
	}
}

// Limiter wraps a token bucket sized from Config. A disabled limiter
// admits everything.
type Limiter struct {
	config Config
	bucket *rate.Limiter
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config Config) *Limiter {
	l := &Limiter{config: config}
	if config.Enabled && config.RequestsPerMinute > 0 {
		perSecond := rate.Limit(float64(config.RequestsPerMinute) / 60.0)
		l.bucket = rate.NewLimiter(perSecond, config.RequestsPerMinute)
	}
	return l
}

// Allow reports whether a request may proceed right now.
func (l *Limiter) Allow() bool {
	if l.bucket == nil {
		return true
	}
	return l.bucket.Allow()
}

// Wait blocks until a request is allowed or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.bucket == nil {
		return nil
	}
	return l.bucket.Wait(ctx)
}

// Tokens returns the number of requests currently admissible without
// waiting.
func (l *Limiter) Tokens() int {
	if l.bucket == nil {
		return int(^uint(0) >> 1)
	}
	tokens := int(l.bucket.Tokens())
	if tokens < 0 {
		return 0
	}
	return tokens
}
