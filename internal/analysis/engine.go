package analysis

// Engine is the producer side: sample, reduce and publish.
type Engine struct {
	sampler   *Sampler
	extractor Cell[*Extractor]
	bus       *Bus
}

// NewEngine wires a sampler to a bus. The layout is validated against the
// sampler's bin count.
func NewEngine(s *Sampler, layout BandLayout, bus *Bus) (*Engine, error) {
	e := &Engine{sampler: s, bus: bus}
	if err := e.SetLayout(layout); err != nil {
		return nil, err
	}
	return e, nil
}

// SetLayout swaps the band layout from the next tick on. An invalid layout
// is rejected and the current one stays.
func (e *Engine) SetLayout(layout BandLayout) error {
	ex, err := NewExtractor(e.sampler.Bins(), layout)
	if err != nil {
		return err
	}
	e.extractor.Store(ex)
	return nil
}

// Analyze runs one analysis tick and returns what it published.
func (e *Engine) Analyze() ReactiveSnapshot {
	snap := e.sampler.Sample()
	rs := NewReactiveSnapshot(e.extractor.Load().Extract(snap), MeasurePeak(snap.Waveform))
	e.bus.Publish(rs)
	return rs
}

// Reactor is the consumer side. It owns the state carried between frames
// and must be driven from a single goroutine.
type Reactor struct {
	bus        *Bus
	state      State
	thresholds Thresholds
	tuning     Tuning
}

// NewReactor starts a reactor with rotation at its idle speed.
func NewReactor(bus *Bus, th Thresholds, tn Tuning) *Reactor {
	return &Reactor{
		bus:        bus,
		state:      State{RotationSpeed: tn.RotationIdle},
		thresholds: th,
		tuning:     tn,
	}
}

// SetThresholds replaces the detector thresholds from the next frame on.
func (r *Reactor) SetThresholds(th Thresholds) { r.thresholds = th }

// State returns a copy of the carried state.
func (r *Reactor) State() State { return r.state }

// Frame reads the latest snapshot and advances one rendered frame.
func (r *Reactor) Frame(cfg Settings) Parameters {
	return r.Step(r.bus.Latest(), cfg)
}

// Step advances one frame from an explicit snapshot.
func (r *Reactor) Step(rs ReactiveSnapshot, cfg Settings) Parameters {
	be := rs.Energy()
	ev, bass := Detect(be, rs.Peak(), r.state.PrevBass, r.thresholds)
	r.state.PrevBass = bass
	return Advance(&r.state, ev, be, cfg, r.tuning)
}
