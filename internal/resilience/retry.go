// Package resilience provides the retry policy shared by upstream fetches and sink writes.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Class names the kind of operation a policy guards.
type Class string

const (
	// ClassNetwork covers upstream page and search fetches.
	ClassNetwork Class = "network"
	// ClassSink covers batch writes to the document sink.
	ClassSink Class = "sink"
)

// Policy controls retry behavior with exponential backoff.
type Policy struct {
	Class Class

	// MaxAttempts is the total number of attempts including the first try.
	MaxAttempts int

	// BaseDelay is the wait before the second attempt. The wait before
	// attempt k is BaseDelay * Multiplier^(k-2).
	BaseDelay time.Duration

	// MaxDelay caps a single wait.
	MaxDelay time.Duration

	Multiplier float64

	// JitterFraction adds ±fraction of the computed delay. Zero keeps delays exact.
	JitterFraction float64

	// ShouldRetry overrides the default IsTransient check.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry sleep with the attempt that just failed.
	OnRetry func(attempt int, err error)
}

// NetworkPolicy is the default policy for upstream fetches: 3 attempts, 1s base.
func NetworkPolicy() Policy {
	return Policy{
		Class:       ClassNetwork,
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

// SinkPolicy is the default policy for sink writes: 5 attempts, 1s base.
// Any sink error is retried.
func SinkPolicy() Policy {
	return Policy{
		Class:       ClassSink,
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    time.Minute,
		Multiplier:  2.0,
		ShouldRetry: func(err error) bool { return err != nil },
	}
}

// Delay returns the wait before the given 1-based attempt. The first attempt
// never waits.
func (p Policy) Delay(attempt int) time.Duration {
	p = p.withDefaults()
	if attempt < 2 {
		return 0
	}
	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-2))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}

	if p.JitterFraction > 0 {
		spread := delay * p.JitterFraction
		delay += (rand.Float64()*2 - 1) * spread
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Do runs fn until it succeeds, the policy gives up, or ctx is done.
// On exhaustion the last error is returned unchanged.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for operations that return a value.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()
	shouldRetry := p.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(p.Delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, lastErr
			case <-timer.C:
			}
		}

		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !shouldRetry(err) || attempt == p.MaxAttempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
	}
	return zero, lastErr
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	if p.JitterFraction < 0 {
		p.JitterFraction = 0
	}
	return p
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(class Class, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("class", string(class)),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}

// WithLogger returns a copy of p that logs retries of operation.
func (p Policy) WithLogger(operation string) Policy {
	p.OnRetry = RetryLogger(p.Class, operation)
	return p
}
