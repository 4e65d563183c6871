// Package retry runs an operation with exponential backoff until it succeeds,
// fails permanently or the context is canceled.
//
//	rows, err := retry.DoValue(ctx, cfg, func() ([]Row, error) {
//	    return load(ctx, q)
//	}, store.IsTransient)
//
// Attempt n (counting from 1) waits InitialBackoff * 2^(n-2) before running,
// capped at MaxBackoff, plus a jitter share that grows with n.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Config defines the retry behavior.
type Config struct {
	// MaxRetries is the total number of attempts. Values below 1 mean one
	// attempt.
	MaxRetries int

	// InitialBackoff is the wait before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps a single wait. Zero means no cap.
	MaxBackoff time.Duration

	// Jitter in [0, 1] adds backoff * Jitter * attempt / MaxRetries to each wait.
	Jitter float64
}

// ShouldRetryFunc reports whether err is worth another attempt. A nil
// ShouldRetryFunc retries every error.
type ShouldRetryFunc func(error) bool

// Do runs fn until it returns nil or a non-retryable error, the attempts are
// exhausted, or ctx is done. Exhaustion wraps the last error.
func Do(ctx context.Context, cfg Config, fn func() error, shouldRetry ShouldRetryFunc) error {
	_, err := DoValue(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	}, shouldRetry)
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, cfg Config, fn func() (T, error), shouldRetry ShouldRetryFunc) (T, error) {
	var zero T
	attempts := max(cfg.MaxRetries, 1)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(Backoff(cfg, attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		v, err := fn()
		if err == nil {
			return v, nil
		}
		if shouldRetry != nil && !shouldRetry(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// Backoff returns the wait before retry number attempt (1 for the first retry).
func Backoff(cfg Config, attempt int) time.Duration {
	backoff := time.Duration(math.Pow(2, float64(attempt-1)) * float64(cfg.InitialBackoff))

	if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
		backoff = cfg.MaxBackoff
	}

	if cfg.Jitter > 0 && cfg.MaxRetries > 0 {
		backoff += time.Duration(float64(backoff) * cfg.Jitter * float64(attempt) / float64(cfg.MaxRetries))
	}

	return backoff
}
