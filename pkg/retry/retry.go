// Package retry provides a bounded retry-with-backoff utility shared by
// chain services and swap providers. Every retry loop in the daemon goes
// through Do so attempt ceilings and delays live in one place.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Config controls retry behavior.
type Config struct {
	Attempts   int           // total attempts, minimum 1
	Delay      time.Duration // fixed delay between attempts
	PerAttempt time.Duration // timeout applied to each attempt (0 = none)
}

// Do runs fn until it succeeds, the attempt ceiling is reached, or ctx is
// canceled. The last error is returned wrapped with the attempt count.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 && cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Delay):
			}
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if cfg.PerAttempt > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.PerAttempt)
		}

		lastErr = fn(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if lastErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// Value runs fn until it returns a usable value. ok reports whether the
// returned value should be accepted; returning ok=false with a nil error
// schedules another attempt (used for sentinel address values that are not
// errors but are not final either).
func Value[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, bool, error)) (T, error) {
	var zero T
	var last T
	var lastErr error

	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		if i > 0 && cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(cfg.Delay):
			}
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if cfg.PerAttempt > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.PerAttempt)
		}

		v, ok, err := fn(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil && ok {
			return v, nil
		}
		last, lastErr = v, err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}

	if lastErr != nil {
		return last, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
	}
	return last, fmt.Errorf("no usable value after %d attempts", attempts)
}
