package worker

import (
	"context"
	"math"
	"time"
)

// Backoff describes exponential retry delays for export jobs.
type Backoff struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Factor      float64
}

// DefaultBackoff retries three times, starting at one second.
func DefaultBackoff() Backoff {
	return Backoff{MaxAttempts: 3, Initial: time.Second, Max: 30 * time.Second, Factor: 2}
}

// Delay returns the wait before the given attempt (1-based), clamped to Max.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	initial := b.Initial
	if initial <= 0 {
		initial = time.Second
	}
	factor := b.Factor
	if factor <= 0 {
		factor = 2
	}

	d := time.Duration(float64(initial) * math.Pow(factor, float64(attempt-1)))
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	if d <= 0 {
		d = time.Second
	}
	return d
}

// sleep waits for d or until ctx is canceled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
