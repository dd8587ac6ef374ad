package llm

import (
	"context"
	"time"
)

// RetryPolicy supplies the delay schedule between attempts. A schedule of
// length n yields n+1 total attempts.
type RetryPolicy interface {
	Delays() []time.Duration
}

// FixedBackoff retries on a fixed delay table.
type FixedBackoff struct {
	delays []time.Duration
}

// NewFixedBackoff creates a FixedBackoff with the given delay schedule.
func NewFixedBackoff(delays ...time.Duration) *FixedBackoff {
	return &FixedBackoff{delays: delays}
}

// Delays returns a copy of the schedule.
func (b *FixedBackoff) Delays() []time.Duration {
	out := make([]time.Duration, len(b.delays))
	copy(out, b.delays)
	return out
}

// DefaultRetryPolicy is the externally observable backoff contract:
// 2s, 4s, 8s — three retries, four total attempts.
func DefaultRetryPolicy() RetryPolicy {
	return NewFixedBackoff(2*time.Second, 4*time.Second, 8*time.Second)
}

// Sleeper waits for a delay or until the context is cancelled. Substituted in
// tests to avoid real sleeps.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleeper(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
