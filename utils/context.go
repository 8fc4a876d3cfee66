package utils

import (
	"context"
	"time"
)

// ContextSleep waits for d. It returns nil if ctx is done first.
func ContextSleep(ctx context.Context, d time.Duration) *time.Time {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil
	case t := <-timer.C:
		return &t
	}
}

// Backoff produces doubling delays starting at Initial, capped by Max when set.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	next time.Duration
}

func (b *Backoff) Next() time.Duration {
	if b.next == 0 {
		b.next = b.Initial
	}
	d := b.next
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	b.next = d * 2
	return d
}

func (b *Backoff) Reset() {
	b.next = 0
}
