package errpolicy

import (
	"context"
	"log/slog"
	"time"
)

// RetryOptions configures Retry.
type RetryOptions struct {
	// MaxRetries is the number of additional attempts after the first one.
	MaxRetries int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// Exponential doubles the delay after every failed attempt.
	Exponential bool

	// Sleep waits for d or until ctx is done. Defaults to a timer-based
	// wait; tests substitute a recorder.
	Sleep func(ctx context.Context, d time.Duration) error

	// Logger receives one line per failed attempt. Defaults to slog.Default().
	Logger *slog.Logger
}

// Delay returns the wait before retry number attempt (0-based).
func (o RetryOptions) Delay(attempt int) time.Duration {
	if !o.Exponential {
		return o.BaseDelay
	}
	return o.BaseDelay * time.Duration(1<<attempt)
}

// Retry invokes op up to 1+MaxRetries times, returning nil on the first
// success or the last failure once attempts are exhausted. A cancelled
// context stops retrying and returns the context error.
func Retry(ctx context.Context, op func(ctx context.Context) error, opts RetryOptions) error {
	_, err := RetryValue(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, opts)
	return err
}

// RetryValue is Retry for operations that produce a value.
func RetryValue[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts RetryOptions) (T, error) {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := opts.Delay(attempt - 1)
			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		logger.Warn("operation failed",
			"attempt", attempt+1,
			"max_attempts", opts.MaxRetries+1,
			"error", err,
		)
	}

	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
