package retry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Logger        *zap.Logger
}

// DefaultConfig returns a conservative exponential backoff: three
// attempts starting at 100ms.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Logger:        zap.NewNop(),
	}
}

// Do executes fn with exponential backoff until it succeeds, the
// attempts are exhausted, or the context is done.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				cfg.Logger.Debug("Operation succeeded after retry",
					zap.Int("attempt", attempt))
			}
			return nil
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		cfg.Logger.Debug("Operation failed, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(lastErr))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return lastErr
}
