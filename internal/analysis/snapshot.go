package analysis

// Midpoint is the byte value of a silent time-domain sample.
const Midpoint = 128

// FrequencySnapshot is one tick's worth of raw analyser output. Both slices
// keep the length they were allocated with and are overwritten in place.
type FrequencySnapshot struct {
	Magnitudes []uint8 // one byte per frequency bin
	Waveform   []uint8 // one byte per time-domain sample, 128 = zero
}

// NewFrequencySnapshot allocates a silent snapshot with the given bin count
// and window size.
func NewFrequencySnapshot(bins, window int) FrequencySnapshot {
	s := FrequencySnapshot{
		Magnitudes: make([]uint8, bins),
		Waveform:   make([]uint8, window),
	}
	s.Silence()
	return s
}

// Silence resets the snapshot to "no energy": zero magnitudes and a flat
// waveform at the midpoint.
func (s *FrequencySnapshot) Silence() {
	clear(s.Magnitudes)
	for i := range s.Waveform {
		s.Waveform[i] = Midpoint
	}
}
