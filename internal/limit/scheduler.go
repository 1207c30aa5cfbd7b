package limit

import (
	"context"
	"time"
)

// Scheduler invokes fn repeatedly at a fixed interval until ctx is
// cancelled. Invocations do not overlap; a slow fn delays, never doubles,
// the next tick. Tests substitute a manually driven implementation.
type Scheduler interface {
	Schedule(ctx context.Context, interval time.Duration, fn func())
}

// TickerScheduler drives the callback from a time.Ticker goroutine.
type TickerScheduler struct{}

// Schedule starts a goroutine that calls fn on every tick until ctx is done.
func (TickerScheduler) Schedule(ctx context.Context, interval time.Duration, fn func()) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}
