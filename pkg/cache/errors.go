package cache

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks an error as transient: RetryWithBackoff retries
// the operation, anything else gives up immediately. Backend misses are
// never errors; they travel in the bool returned by Get.
type RetryableError struct{ Err error }

// Retryable wraps err as transient. A nil err stays nil, so call sites
// can wrap unconditionally.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is marked transient anywhere in its
// chain.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff runs fn up to 3 times, doubling the delay after each
// transient failure. Non-retryable errors and context cancellation return
// immediately.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	const attempts = 3
	delay := time.Second
	var lastErr error

	for i := 0; i < attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
