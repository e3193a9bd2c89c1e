// Package ratelimit provides the minimum-interval gate that every outbound
// acquisition and inference call passes through.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Gate enforces a minimum interval between calls across the whole process.
// Callers block in Acquire until the interval since the last successful
// acquisition has elapsed. Waiters are served roughly FIFO; starvation is
// acceptable at the call volumes involved.
type Gate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewGate creates a gate with the given minimum interval.
func NewGate(interval time.Duration) *Gate {
	return &Gate{interval: interval}
}

// Acquire blocks until the minimum interval has elapsed since the previous
// call, then claims the slot. A cancelled context aborts the wait without
// claiming the slot.
func (g *Gate) Acquire(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if wait := g.interval - time.Since(g.last); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	g.last = time.Now()
	return nil
}

// Interval returns the configured minimum interval.
func (g *Gate) Interval() time.Duration {
	return g.interval
}
