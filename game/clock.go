package game

import (
	"context"
	"sync/atomic"
	"time"
)

// Clock turns wall-clock timestamps into simulation time steps.
// The first Advance after creation or Reset yields dt = 0. Reset may be
// called from any goroutine while another goroutine calls Advance.
type Clock struct {
	last atomic.Int64 // unix nanoseconds of the previous Advance, 0 = unset
}

// Advance returns the seconds elapsed since the previous call.
func (c *Clock) Advance(now time.Time) float64 {
	prev := c.last.Swap(now.UnixNano())
	if prev == 0 {
		return 0
	}
	dt := time.Duration(now.UnixNano() - prev).Seconds()
	if dt < 0 {
		return 0
	}
	return dt
}

// Reset forgets the previous timestamp so time spent paused is not replayed.
func (c *Clock) Reset() {
	c.last.Store(0)
}

// RunRealtime steps the game from the wall clock every interval until ctx
// is cancelled or stop returns true. Pause and Resume may be called from
// other goroutines while it runs; the first tick after Resume has dt = 0.
func (g *Game) RunRealtime(ctx context.Context, interval time.Duration, stop func(*Game) bool) error {
	if interval <= 0 {
		interval = time.Second / 60
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	g.clock.Reset()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if g.paused.Load() {
				continue
			}
			g.perfCollector.RecordFrame()
			g.Step(g.clock.Advance(now))
			if stop != nil && stop(g) {
				return nil
			}
		}
	}
}
