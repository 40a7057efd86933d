// Package ratelimit implements the per-operation token bucket the storage
// engine throttles chunk and directory-entry throughput with.
//
// The bucket is a discrete, leaky one, not a continuous refill like
// golang.org/x/time/rate: bursts up to Limit per second are allowed, and a
// caller that ticks faster than Limit sleeps out the remainder of the
// current 1-second window before continuing. The first sleep comes on tick
// k+1, so a save of N chunks at limit k takes at least floor((N-1)/k)
// seconds of wall time — a discrete-window floor that a continuous-refill
// bucket does not give in the same sense.
package ratelimit

import (
	"context"
	"time"
)

// Unlimited, used as Limit, disables throttling entirely: Tick never sleeps.
const Unlimited = 0

// Limiter is local to a single operation (one save, one read, one delete);
// it is not safe to share across concurrent operations because its window
// state assumes a single caller ticking it in sequence.
type Limiter struct {
	limit       int
	windowStart time.Time
	count       int
	now         func() time.Time
	sleep       func(context.Context, time.Duration) error
}

// New creates a Limiter allowing limit ticks per second. limit <= 0 means
// unbounded.
func New(limit int) *Limiter {
	return &Limiter{
		limit: limit,
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// Tick accounts for one unit of work (one chunk, one directory entry).
// It returns rolled=true if a window rollover or a throttling sleep
// occurred — the caller pulses progress on either event, independent of the
// per-chunk work itself.
func (l *Limiter) Tick(ctx context.Context) (rolled bool, err error) {
	if l.limit <= 0 {
		return false, nil
	}
	now := l.now()
	if l.windowStart.IsZero() {
		l.windowStart = now
	}
	elapsed := now.Sub(l.windowStart)
	if elapsed < time.Second {
		l.count++
		if l.count > l.limit {
			remaining := time.Second - elapsed
			if err := l.sleep(ctx, remaining); err != nil {
				return false, err
			}
			l.windowStart = l.now()
			l.count = 0
			return true, nil
		}
		return false, nil
	}
	// Window elapsed on its own — reset without sleeping.
	l.windowStart = now
	l.count = 1
	return true, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
