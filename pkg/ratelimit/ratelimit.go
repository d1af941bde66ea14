// Package ratelimit provides a ticker-based limiter with optional jitter,
// used to pace competitor-site snapshot fetches.
package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Limiter spaces operations at a fixed rate with optional random jitter.
// Safe for concurrent use.
type Limiter struct {
	ticker   *time.Ticker
	interval time.Duration
	jitter   float64 // fraction of interval, 0..1
}

// New creates a limiter allowing rps operations per second. A non-positive
// rps disables limiting entirely. Jitter outside [0,1] is clamped.
func New(rps, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	if jitter < 0 {
		jitter = 0
	}
	if jitter > 1 {
		jitter = 1
	}

	interval := time.Duration(float64(time.Second) / rps)
	return &Limiter{
		ticker:   time.NewTicker(interval),
		interval: interval,
		jitter:   jitter,
	}
}

// Wait blocks until the next slot, or until ctx is canceled. Jitter only ever
// adds delay; the ticker already enforces the minimum spacing.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.ticker == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ticker.C:
	}

	if l.jitter > 0 {
		extra := time.Duration(rand.Float64() * l.jitter * float64(l.interval))
		if extra > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(extra):
			}
		}
	}
	return nil
}

// Stop releases the limiter's ticker.
func (l *Limiter) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
}
