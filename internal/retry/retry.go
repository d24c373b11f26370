// Package retry wraps fallible operations with bounded attempts and
// exponential backoff.
package retry

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBase        = 2
)

// Policy controls how many times an operation runs and how long to wait
// between attempts. After failed attempt k (1-based), the policy waits
// Base^k units before attempt k+1. The policy itself never classifies
// errors; it retries every failure up to the limit.
type Policy struct {
	MaxAttempts int
	Base        int
	Unit        time.Duration

	// Sleep is swapped out in tests. The default honors ctx cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Base:        DefaultBase,
		Unit:        time.Second,
	}
}

// Delay returns the wait before attempt attempt+1 (attempt is the number of
// attempts already made).
func (p Policy) Delay(attempt int) time.Duration {
	return time.Duration(pow(p.Base, attempt)) * p.Unit
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Base <= 0 {
		p.Base = DefaultBase
	}
	if p.Unit <= 0 {
		p.Unit = time.Second
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

// Do runs op until it succeeds or the attempt limit is exhausted. The last
// failure is surfaced wrapped with the attempt count. Cancellation is never
// swallowed: a cancelled context aborts the wait and returns immediately.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt < p.MaxAttempts {
			if err := p.Sleep(ctx, p.Delay(attempt)); err != nil {
				return zero, err
			}
		}
	}

	return zero, fmt.Errorf("operation failed after %d attempts: %w", p.MaxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func pow(base, exp int) int64 {
	result := int64(1)
	for i := 0; i < exp; i++ {
		result *= int64(base)
	}
	return result
}
