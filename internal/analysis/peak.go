package analysis

// PeakEnergy is the broadband peak of one waveform.
type PeakEnergy struct {
	Normalized float64
}

// MeasurePeak returns the largest deviation from the midpoint, scaled so
// that both rails (0 and 255) read as 1.
func MeasurePeak(waveform []uint8) PeakEnergy {
	peak := 0.0
	for _, v := range waveform {
		var dev float64
		if v >= Midpoint {
			dev = float64(v-Midpoint) / 127
		} else {
			dev = float64(Midpoint-v) / 128
		}
		if dev > peak {
			peak = dev
		}
	}
	return PeakEnergy{Normalized: peak}
}
