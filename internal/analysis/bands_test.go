package analysis

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewExtractorRejectsOutOfRangeBands(t *testing.T) {
	if _, err := NewExtractor(1024, DefaultLayout); err != nil {
		t.Fatalf("expected default layout to fit 1024 bins, got %v", err)
	}

	_, err := NewExtractor(256, DefaultLayout)
	if !errors.Is(err, ErrBandRange) {
		t.Fatalf("expected ErrBandRange for treble past 256 bins, got %v", err)
	}

	bad := DefaultLayout
	bad.Mid = Band{Lo: 70, Hi: 20, Max: 120}
	if _, err := NewExtractor(1024, bad); !errors.Is(err, ErrBandRange) {
		t.Fatalf("expected ErrBandRange for inverted band, got %v", err)
	}

	bad = DefaultLayout
	bad.Bass.Max = 0
	if _, err := NewExtractor(1024, bad); !errors.Is(err, ErrBandRange) {
		t.Fatalf("expected ErrBandRange for zero max, got %v", err)
	}
}

func TestExtractClampsArbitraryInput(t *testing.T) {
	ex, err := NewExtractor(1024, DefaultLayout)
	if err != nil {
		t.Fatal(err)
	}
	snap := NewFrequencySnapshot(1024, 2048)
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		for i := range snap.Magnitudes {
			snap.Magnitudes[i] = uint8(rng.Intn(256))
		}
		be := ex.Extract(snap)
		for name, v := range map[string]float64{
			"bass": be.Bass, "mid": be.Mid, "treble": be.Treble, "overall": be.Overall,
		} {
			if v < 0 || v > 1 {
				t.Fatalf("round %d: expected %s in [0,1], got %v", round, name, v)
			}
		}
	}

	for i := range snap.Magnitudes {
		snap.Magnitudes[i] = 255
	}
	be := ex.Extract(snap)
	if be != (BandEnergy{Bass: 1, Mid: 1, Treble: 1, Overall: 1}) {
		t.Fatalf("expected saturated energy, got %+v", be)
	}
}

func TestExtractMapsBandMean(t *testing.T) {
	ex, err := NewExtractor(1024, DefaultLayout)
	if err != nil {
		t.Fatal(err)
	}
	snap := NewFrequencySnapshot(1024, 2048)
	for i := 0; i <= 5; i++ {
		snap.Magnitudes[i] = 75
	}
	// Bins outside every band are ignored.
	snap.Magnitudes[10] = 255

	be := ex.Extract(snap)
	if be.Bass != 0.5 {
		t.Fatalf("expected bass 0.5, got %v", be.Bass)
	}
	if be.Mid != 0 || be.Treble != 0 {
		t.Fatalf("expected silent mid and treble, got %+v", be)
	}
	if be.Overall != 0.5/3 {
		t.Fatalf("expected overall %v, got %v", 0.5/3, be.Overall)
	}
}

func TestSilentSnapshotHasNoEnergyOrEvents(t *testing.T) {
	ex, err := NewExtractor(1024, DefaultLayout)
	if err != nil {
		t.Fatal(err)
	}
	snap := NewFrequencySnapshot(1024, 2048)
	be := ex.Extract(snap)
	if be != (BandEnergy{}) {
		t.Fatalf("expected zero energy, got %+v", be)
	}
	ev, _ := Detect(be, MeasurePeak(snap.Waveform), 0, DefaultThresholds())
	if ev.Transient || ev.Beat {
		t.Fatalf("expected no events, got %+v", ev)
	}
}
