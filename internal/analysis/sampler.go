package analysis

import (
	"fmt"
	"sync"
)

// Analyser is the frequency analysis a Sampler pulls from. It mirrors an
// analyser node: a fixed bin count, a fixed window and byte-scaled output.
type Analyser interface {
	FrequencyBinCount() int
	FFTSize() int
	ByteFrequencyData(dst []uint8)
	ByteTimeDomainData(dst []uint8)
}

// Sampler produces one FrequencySnapshot per tick. Until an analyser is
// attached it hands out the silent snapshot.
type Sampler struct {
	mu   sync.Mutex
	node Analyser
	snap FrequencySnapshot
}

// NewSampler creates a sampler whose snapshots hold bins magnitudes and
// window waveform samples.
func NewSampler(bins, window int) *Sampler {
	return &Sampler{snap: NewFrequencySnapshot(bins, window)}
}

// Attach sets the analyser to sample from. Its sizes must match the
// sampler's; passing nil detaches.
func (s *Sampler) Attach(a Analyser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a != nil {
		if a.FrequencyBinCount() != len(s.snap.Magnitudes) || a.FFTSize() != len(s.snap.Waveform) {
			return fmt.Errorf("analyser shape %d/%d does not match sampler %d/%d",
				a.FrequencyBinCount(), a.FFTSize(), len(s.snap.Magnitudes), len(s.snap.Waveform))
		}
	}
	s.node = a
	return nil
}

// Bins returns the fixed magnitude count.
func (s *Sampler) Bins() int { return len(s.snap.Magnitudes) }

// Sample fills and returns the snapshot for this tick. The returned slices
// are reused by the next call.
func (s *Sampler) Sample() FrequencySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.node == nil {
		s.snap.Silence()
		return s.snap
	}
	s.node.ByteFrequencyData(s.snap.Magnitudes)
	s.node.ByteTimeDomainData(s.snap.Waveform)
	return s.snap
}
