package analysis

import (
	"context"
	"sync/atomic"
	"time"
)

// FrameInterval is the default analysis cadence.
const FrameInterval = time.Second / 60

// Clock schedules the next tick. Wait blocks until the tick is due and
// reports false when no further tick should run.
type Clock interface {
	Wait(ctx context.Context) bool
}

// TickerClock fires at a fixed interval.
type TickerClock struct {
	t *time.Ticker
}

// NewTickerClock creates a clock that fires every d.
func NewTickerClock(d time.Duration) *TickerClock {
	return &TickerClock{t: time.NewTicker(d)}
}

func (c *TickerClock) Wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.t.C:
		return true
	}
}

// Stop releases the ticker.
func (c *TickerClock) Stop() { c.t.Stop() }

// ImmediateClock never waits. It drives offline runs as fast as the
// consumer allows.
type ImmediateClock struct{}

func (ImmediateClock) Wait(ctx context.Context) bool { return ctx.Err() == nil }

// Loop calls a tick function once per clock tick until stopped.
type Loop struct {
	clock   Clock
	tick    func()
	stopped atomic.Bool
}

// NewLoop creates a loop. Nothing runs until Run.
func NewLoop(clock Clock, tick func()) *Loop {
	return &Loop{clock: clock, tick: tick}
}

// Run blocks until ctx is done, the clock gives up or Stop is called. The
// stop flag is checked after every wait, so once Stop returns at most the
// tick already in progress completes.
func (l *Loop) Run(ctx context.Context) {
	for !l.stopped.Load() {
		if !l.clock.Wait(ctx) {
			return
		}
		if l.stopped.Load() {
			return
		}
		l.tick()
	}
}

// Stop ends the loop before its next tick.
func (l *Loop) Stop() { l.stopped.Store(true) }

// Stopped reports whether Stop was called.
func (l *Loop) Stopped() bool { return l.stopped.Load() }
