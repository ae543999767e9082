// Package retry implements the event loop's model-call retry strategy (spec
// §4.8): exponential backoff on ErrModelThrottled, bounded by MaxAttempts,
// optionally layered with a token-bucket throttle so the runtime never
// exceeds a caller-configured request rate even across concurrent agents.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/agentcore/agentcore/model"
)

// Strategy computes whether and how long to wait before a retry attempt.
type Strategy struct {
	// MaxAttempts bounds the number of model-call attempts for one cycle,
	// including the first (spec §8 invariant 5 "retry bound").
	MaxAttempts int

	// InitialDelay is the backoff delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration

	// Jitter adds up to this fraction of the computed delay as random skew,
	// to avoid thundering-herd retries across concurrent agents.
	Jitter float64

	// Limiter, if non-nil, is consulted before every attempt (including the
	// first) so the strategy can also enforce a steady-state request rate
	// independent of throttling errors.
	Limiter *rate.Limiter
}

// Default returns the strategy the event loop uses when the caller has not
// configured one: 6 attempts, 4s initial delay doubling up to 128s, no
// jitter, no rate limiter (spec §4.8).
func Default() Strategy {
	return Strategy{
		MaxAttempts:  6,
		InitialDelay: 4 * time.Second,
		MaxDelay:     128 * time.Second,
	}
}

// ShouldRetry reports whether attempt (0-indexed) should be retried given
// err, the most recent model-call failure.
func (s Strategy) ShouldRetry(err error, attempt int) bool {
	if attempt+1 >= s.maxAttempts() {
		return false
	}
	return errors.Is(err, model.ErrModelThrottled)
}

// Delay computes the backoff duration before attempt (0-indexed, the attempt
// about to be made; attempt 0 never delays).
func (s Strategy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	base := float64(s.initialDelay()) * math.Pow(2, float64(attempt-1))
	if max := float64(s.maxDelay()); base > max {
		base = max
	}
	if s.Jitter > 0 {
		base += base * s.Jitter * rand.Float64()
	}
	return time.Duration(base)
}

// Wait blocks for Delay(attempt) and, if a Limiter is configured, for the
// limiter to admit the attempt. Returns ctx.Err() if ctx is cancelled first.
func (s Strategy) Wait(ctx context.Context, attempt int) error {
	if d := s.Delay(attempt); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if s.Limiter == nil {
		return nil
	}
	return s.Limiter.Wait(ctx)
}

func (s Strategy) maxAttempts() int {
	if s.MaxAttempts <= 0 {
		return 1
	}
	return s.MaxAttempts
}

func (s Strategy) initialDelay() time.Duration {
	if s.InitialDelay <= 0 {
		return 4 * time.Second
	}
	return s.InitialDelay
}

func (s Strategy) maxDelay() time.Duration {
	if s.MaxDelay <= 0 {
		return 128 * time.Second
	}
	return s.MaxDelay
}
