package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/guestlobby/pkg/logger"
)

type Config struct {
	Attempts int
	Backoff  time.Duration
}

// Do runs op up to cfg.Attempts times, doubling the backoff between
// attempts. Every error is treated as transient; the caller decides what to
// do with exhaustion. The wait honors context cancellation.
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	delay := cfg.Backoff
	var err error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		logger.WarnContext(ctx, "Retrying after failure",
			"attempt", attempt,
			"max_attempts", attempts,
			"backoff", delay.String(),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("exhausted %d attempts: %w", attempts, err)
}
