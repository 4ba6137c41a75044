package analysis

import (
	"errors"
	"fmt"
)

// ErrBandRange is returned when a band does not fit the analyser's bins.
var ErrBandRange = errors.New("band range out of bounds")

// Band is an inclusive bin range whose mean is mapped from [0, Max] to [0,1].
type Band struct {
	Lo  int     `toml:"lo"`
	Hi  int     `toml:"hi"`
	Max float64 `toml:"max"`
}

// BandLayout holds the three perceptual bands.
type BandLayout struct {
	Bass   Band `toml:"bass"`
	Mid    Band `toml:"mid"`
	Treble Band `toml:"treble"`
}

// DefaultLayout is tuned for a 2048-point FFT at 44.1/48 kHz.
var DefaultLayout = BandLayout{
	Bass:   Band{Lo: 0, Hi: 5, Max: 150},
	Mid:    Band{Lo: 20, Hi: 70, Max: 120},
	Treble: Band{Lo: 150, Hi: 400, Max: 100},
}

// BandEnergy is the per-tick reduction of a snapshot. Every field is in [0,1].
type BandEnergy struct {
	Bass    float64
	Mid     float64
	Treble  float64
	Overall float64
}

// Extractor reduces magnitudes to BandEnergy. The layout is checked once at
// construction so Extract never indexes out of range.
type Extractor struct {
	layout BandLayout
}

// NewExtractor validates layout against a bin count.
func NewExtractor(bins int, layout BandLayout) (*Extractor, error) {
	named := []struct {
		name string
		band Band
	}{{"bass", layout.Bass}, {"mid", layout.Mid}, {"treble", layout.Treble}}
	for _, n := range named {
		b := n.band
		if b.Lo < 0 || b.Hi < b.Lo || b.Hi >= bins {
			return nil, fmt.Errorf("%s band %d-%d with %d bins: %w", n.name, b.Lo, b.Hi, bins, ErrBandRange)
		}
		if b.Max <= 0 {
			return nil, fmt.Errorf("%s band max %v must be positive: %w", n.name, b.Max, ErrBandRange)
		}
	}
	return &Extractor{layout: layout}, nil
}

// Extract computes band energy from a snapshot. It is pure.
func (e *Extractor) Extract(s FrequencySnapshot) BandEnergy {
	bass := mapRange(bandMean(s.Magnitudes, e.layout.Bass), e.layout.Bass.Max)
	mid := mapRange(bandMean(s.Magnitudes, e.layout.Mid), e.layout.Mid.Max)
	treble := mapRange(bandMean(s.Magnitudes, e.layout.Treble), e.layout.Treble.Max)
	return BandEnergy{
		Bass:    bass,
		Mid:     mid,
		Treble:  treble,
		Overall: (bass + mid + treble) / 3,
	}
}

func bandMean(mags []uint8, b Band) float64 {
	sum := 0
	for _, m := range mags[b.Lo : b.Hi+1] {
		sum += int(m)
	}
	return float64(sum) / float64(b.Hi-b.Lo+1)
}

// mapRange maps [0, hi] onto [0, 1], clamping outside the domain.
func mapRange(v, hi float64) float64 {
	return clamp01(v / hi)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
