package coordinator

import (
	"context"
	"time"

	"github.com/user/wikipreview/pkg/preview"
)

// Retryable reports whether err may succeed on another attempt. Only the
// cancellation class qualifies: a host that went away mid-render, or no host
// being available yet. Other failures are deterministic and fail at once.
func Retryable(err error) bool {
	return preview.IsCancellation(err)
}

// Retry calls fn up to attempts times while it fails with a retryable error,
// sleeping base × attempt between attempts. It returns the number of
// attempts made and the last error. A done ctx stops retrying.
func Retry(ctx context.Context, attempts int, base time.Duration, fn func(ctx context.Context) error) (int, error) {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !Retryable(err) || attempt == attempts {
			return attempt, err
		}
		if ctx.Err() != nil {
			return attempt, err
		}

		timer := time.NewTimer(base * time.Duration(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return attempt, err
		}
	}
	return attempts, err
}
