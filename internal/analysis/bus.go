package analysis

import "sync/atomic"

// Cell is a single-value handoff between goroutines. Store replaces the
// whole value; Load never sees a half-written one.
type Cell[T any] struct {
	p atomic.Pointer[T]
}

// Store publishes a copy of v.
func (c *Cell[T]) Store(v T) {
	c.p.Store(&v)
}

// Load returns the latest value, or the zero value if nothing was stored.
func (c *Cell[T]) Load() T {
	if v := c.p.Load(); v != nil {
		return *v
	}
	var zero T
	return zero
}

// ReactiveSnapshot is what the render side reads each frame.
type ReactiveSnapshot struct {
	Bass           float64
	Mids           float64
	Treble         float64
	OverallEnergy  float64
	NormalizedPeak float64
}

// NewReactiveSnapshot combines one tick's band energy and peak.
func NewReactiveSnapshot(be BandEnergy, peak PeakEnergy) ReactiveSnapshot {
	return ReactiveSnapshot{
		Bass:           be.Bass,
		Mids:           be.Mid,
		Treble:         be.Treble,
		OverallEnergy:  be.Overall,
		NormalizedPeak: peak.Normalized,
	}
}

// Energy returns the band view of the snapshot.
func (r ReactiveSnapshot) Energy() BandEnergy {
	return BandEnergy{Bass: r.Bass, Mid: r.Mids, Treble: r.Treble, Overall: r.OverallEnergy}
}

// Peak returns the peak view of the snapshot.
func (r ReactiveSnapshot) Peak() PeakEnergy {
	return PeakEnergy{Normalized: r.NormalizedPeak}
}

// Bus is the slot between the analysis tick and the render tick. Last value
// wins; nothing is queued.
type Bus struct {
	cell Cell[ReactiveSnapshot]
}

// Publish replaces the current snapshot.
func (b *Bus) Publish(s ReactiveSnapshot) { b.cell.Store(s) }

// Latest returns the most recent snapshot. Before the first publish it is
// the zero snapshot.
func (b *Bus) Latest() ReactiveSnapshot { return b.cell.Load() }
