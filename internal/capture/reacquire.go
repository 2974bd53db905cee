package capture

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrCameraLost is returned when a camera that was working cannot be reopened.
var ErrCameraLost = errors.New("camera lost")

// ReacquireConfig bounds how hard a lost camera is retried.
type ReacquireConfig struct {
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// DefaultReacquireConfig retries five times starting at 200ms, capped at 2s.
func DefaultReacquireConfig() ReacquireConfig {
	return ReacquireConfig{
		MaxRetries:    5,
		RetryDelay:    200 * time.Millisecond,
		MaxRetryDelay: 2 * time.Second,
	}
}

// Backoff returns the wait before the given 1-based attempt:
// RetryDelay * 2^(attempt-1), capped at MaxRetryDelay.
func (c ReacquireConfig) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 30 {
		return c.MaxRetryDelay
	}
	delay := c.RetryDelay * time.Duration(1<<uint(attempt-1))
	if c.MaxRetryDelay > 0 && delay > c.MaxRetryDelay {
		delay = c.MaxRetryDelay
	}
	return delay
}

// Reacquire closes cam and reopens it, backing off between attempts. It
// returns ctx.Err() if cancelled while waiting and an error wrapping
// ErrCameraLost once MaxRetries attempts have failed.
func Reacquire(ctx context.Context, cam Camera, cfg ReacquireConfig) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		delay := cfg.Backoff(attempt)
		log.Printf("capture: reopening camera in %v (attempt %d/%d)", delay, attempt, cfg.MaxRetries)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := cam.Close(); err != nil {
			log.Printf("capture: close before reopen: %v", err)
		}
		if lastErr = cam.Open(); lastErr == nil {
			log.Printf("capture: camera reopened after %d attempt(s)", attempt)
			return nil
		}
		log.Printf("capture: reopen failed: %v", lastErr)
	}

	if lastErr == nil {
		return ErrCameraLost
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrCameraLost, cfg.MaxRetries, lastErr)
}
