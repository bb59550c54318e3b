// Package faulttolerance implements the ErrorRecoveryEngine component
// (spec.md §4.3): exponential-backoff retry, a per-service-key circuit
// breaker, and checkpoint-based resume.
//
// Grounded in the teacher's internal/budget/waiter.go (ticker-based wait
// loop, configurable ceilings) generalized from rate-limit waiting to
// general retry backoff, and on sony/gobreaker (already a real dependency
// in the example pack, via jordigilh-kubernaut's go.mod) for the circuit
// breaker state machine instead of hand-rolling one.
package faulttolerance

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/wavecore/execore/internal/clockutil"
	"github.com/wavecore/execore/internal/coreerrors"
)

// RetryOptions configures retryWithBackoff. All three fields are validated
// by Validate — an explicit record instead of a loosely-typed options bag,
// per spec.md §9's redesign note.
type RetryOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryOptions returns the spec.md §4.3 documented defaults.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// Validate enforces maxAttempts >= 1 and 0 <= baseDelay <= maxDelay.
func (o RetryOptions) Validate() error {
	if o.MaxAttempts < 1 {
		return coreerrors.ErrInvalidRetryOptions
	}
	if o.BaseDelay < 0 || o.BaseDelay > o.MaxDelay {
		return coreerrors.ErrInvalidRetryOptions
	}
	return nil
}

// Retryer runs operations with exponential backoff plus ±25% jitter.
type Retryer struct {
	Clock clockutil.Clock
	Rand  *rand.Rand
}

// NewRetryer builds a Retryer with the real clock and a time-seeded Rand.
// Tests should inject a clockutil.Fake and a deterministically seeded Rand.
func NewRetryer(clock clockutil.Clock, src rand.Source) *Retryer {
	if clock == nil {
		clock = clockutil.Real{}
	}
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Retryer{Clock: clock, Rand: rand.New(src)}
}

// Do calls fn up to opts.MaxAttempts times, sleeping an exponentially
// growing, jittered delay between attempts (capped at opts.MaxDelay).
// Attempt numbers passed to fn are 1-indexed. On exhaustion, returns a
// *coreerrors.RetryExhaustedError wrapping the last error.
func (r *Retryer) Do(ctx context.Context, opts RetryOptions, fn func(ctx context.Context, attempt int) error) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		if attempt == opts.MaxAttempts {
			break
		}

		delay := r.backoffDelay(opts, attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		r.Clock.Sleep(delay)
	}

	return &coreerrors.RetryExhaustedError{Attempts: opts.MaxAttempts, Last: lastErr}
}

// backoffDelay computes min(baseDelay*2^(attempt-1), maxDelay), then
// applies jitter in [-0.25, +0.25) of that value (spec.md §4.3/§8), so
// sleeps stay within 75%-125% of the unjittered delay instead of ranging
// anywhere down to zero.
func (r *Retryer) backoffDelay(opts RetryOptions, attempt int) time.Duration {
	factor := math.Pow(2, float64(attempt-1))
	raw := time.Duration(float64(opts.BaseDelay) * factor)
	if raw > opts.MaxDelay {
		raw = opts.MaxDelay
	}
	if raw <= 0 {
		return 0
	}
	jitter := r.Rand.Float64()*0.5 - 0.25
	jittered := time.Duration(float64(raw) * (1 + jitter))
	if jittered < 0 {
		jittered = 0
	}
	return jittered
}
