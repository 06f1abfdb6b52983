package infra

import (
	"context"
	"time"
)

const (
	// Standard backoff constants
	baseDelay = 1 * time.Second
	maxDelay  = 60 * time.Second
)

// CalculateBackoff returns the exponential backoff duration for a given retry
// count using the standard constants: baseDelay * 2^retryCount, capped at
// maxDelay.
func CalculateBackoff(retryCount int) time.Duration {
	return CalculateBackoffWith(baseDelay, maxDelay, retryCount)
}

// CalculateBackoffWith returns base * 2^retryCount capped at max.
// Negative retry counts return base.
func CalculateBackoffWith(base, max time.Duration, retryCount int) time.Duration {
	if base <= 0 {
		base = baseDelay
	}
	if max <= 0 {
		max = maxDelay
	}
	if retryCount < 0 {
		return base
	}

	// 2^30 seconds already exceeds any sane cap; avoid shift overflow.
	if retryCount > 30 {
		return max
	}

	backoff := base * time.Duration(1<<retryCount)
	if backoff > max || backoff < base {
		return max
	}
	return backoff
}

// SleepContext waits for d or until ctx is canceled, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
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
