package retry

import (
	"context"
	"fmt"
	"time"
)

type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool // linear backoff: attempt * Delay

	// Retryable reports whether a failed attempt may be repeated. Nil retries every error.
	Retryable func(error) bool
}

// WithRetry calls fn until it succeeds, the attempts run out or ctx is done.
// MaxAttempts below 1 is treated as 1.
func WithRetry(ctx context.Context, config Config, fn func() error) error {
	attempts := max(config.MaxAttempts, 1)

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempts == 1 {
			return err
		}
		if attempt == attempts {
			return fmt.Errorf("failed after %d attempts: %w", attempts, err)
		}
		if config.Retryable != nil && !config.Retryable(err) {
			return err
		}

		delay := config.Delay
		if config.Backoff {
			delay = time.Duration(attempt) * config.Delay
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
