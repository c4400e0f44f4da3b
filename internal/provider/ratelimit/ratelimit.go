package ratelimit

import (
	"context"
	"sync"
	"time"

	"marketquotes/internal/provider"
)

// MinInterval wraps a source and enforces a minimum time between upstream calls.
// Concurrent calls wait until the interval has elapsed since the last call,
// or return early if the context is canceled.
type MinInterval struct {
	P        provider.Source
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) Fetch(ctx context.Context, symbols []string) (*provider.Batch, error) {
	if m.Interval > 0 {
		// reserve the next slot under the lock so that waiters queue up
		m.mu.Lock()
		prev := m.last
		next := prev.Add(m.Interval)
		now := time.Now()
		if next.Before(now) {
			next = now
		}
		m.last = next
		m.mu.Unlock()

		if wait := time.Until(next); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				// give the slot back unless a later caller queued behind it
				m.mu.Lock()
				if m.last.Equal(next) {
					m.last = prev
				}
				m.mu.Unlock()
				return nil, ctx.Err()
			case <-t.C:
			}
		}
	}
	return m.P.Fetch(ctx, symbols)
}
