package shared

import (
	"context"
	"time"
)

const maxRetryDelay = 5 * time.Second

// WithRetry runs fn up to attempts times, doubling the delay between
// attempts and capping it at five seconds. Returns the last error when
// all attempts fail, or the context error when cancelled mid-wait.
func WithRetry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}

	return err
}
