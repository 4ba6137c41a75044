package analysis

import (
	"math"
	"testing"
)

func TestPumpDecaysMonotonicallyToZero(t *testing.T) {
	cfg := DefaultSettings()
	tn := DefaultTuning()
	st := State{}

	Advance(&st, Events{Transient: true, Beat: true}, BandEnergy{}, cfg, tn)
	if want := 1.5 * (1 - tn.DistortionDecay); math.Abs(st.DistortionPump-want) > 1e-12 {
		t.Fatalf("expected distortion pump %v after first frame, got %v", want, st.DistortionPump)
	}

	prevD, prevB := st.DistortionPump, st.BloomPump
	for i := 0; i < 300; i++ {
		Advance(&st, Events{}, BandEnergy{}, cfg, tn)
		if st.DistortionPump < 0 || st.BloomPump < 0 {
			t.Fatalf("frame %d: pump went negative: %+v", i, st)
		}
		if prevD > 0 && st.DistortionPump >= prevD {
			t.Fatalf("frame %d: expected distortion pump to fall below %v, got %v", i, prevD, st.DistortionPump)
		}
		if prevB > 0 && st.BloomPump >= prevB {
			t.Fatalf("frame %d: expected bloom pump to fall below %v, got %v", i, prevB, st.BloomPump)
		}
		prevD, prevB = st.DistortionPump, st.BloomPump
	}
	if st.DistortionPump > 1e-9 || st.BloomPump > 1e-9 {
		t.Fatalf("expected pumps near zero, got %+v", st)
	}
}

func TestPumpResetsRatherThanAccumulates(t *testing.T) {
	cfg := DefaultSettings()
	tn := DefaultTuning()
	st := State{}

	Advance(&st, Events{Transient: true}, BandEnergy{}, cfg, tn)
	first := st.DistortionPump
	Advance(&st, Events{Transient: true}, BandEnergy{}, cfg, tn)
	if st.DistortionPump != first {
		t.Fatalf("expected repeated transient to reset pump to %v, got %v", first, st.DistortionPump)
	}
}

func TestPumpScalesWithSensitivity(t *testing.T) {
	cfg := DefaultSettings()
	cfg.PumpSensitivity = 2
	tn := DefaultTuning()
	st := State{}

	p := Advance(&st, Events{Beat: true}, BandEnergy{}, cfg, tn)
	want := 0.25 * 2 * (1 - tn.BloomDecay)
	if math.Abs(p.Bloom-want) > 1e-12 {
		t.Fatalf("expected bloom %v, got %v", want, p.Bloom)
	}
}

func TestAdvanceMapsBassToOutputs(t *testing.T) {
	cfg := DefaultSettings()
	st := State{}
	p := Advance(&st, Events{}, BandEnergy{Bass: 0.5}, cfg, DefaultTuning())
	if p.Distortion != 0.5*0.75 {
		t.Fatalf("expected distortion %v, got %v", 0.5*0.75, p.Distortion)
	}
	if p.Bloom != 0.5*0.25 {
		t.Fatalf("expected bloom %v, got %v", 0.5*0.25, p.Bloom)
	}
	if p.OrganicMotion != cfg.OrganicMotion {
		t.Fatalf("expected organic motion passthrough %v, got %v", cfg.OrganicMotion, p.OrganicMotion)
	}
}

func TestRotationConvergesToIdleFloor(t *testing.T) {
	cfg := DefaultSettings()
	tn := DefaultTuning()
	st := State{RotationSpeed: 3}

	for i := 0; i < 200; i++ {
		Advance(&st, Events{}, BandEnergy{}, cfg, tn)
	}
	floor := tn.IdleRotation()
	if floor <= 0 {
		t.Fatalf("expected positive idle floor, got %v", floor)
	}
	if math.Abs(st.RotationSpeed-floor) > 1e-9 {
		t.Fatalf("expected rotation to settle at %v, got %v", floor, st.RotationSpeed)
	}

	// Starting from rest reaches the same floor.
	st = State{}
	for i := 0; i < 200; i++ {
		Advance(&st, Events{}, BandEnergy{}, cfg, tn)
	}
	if math.Abs(st.RotationSpeed-floor) > 1e-9 {
		t.Fatalf("expected rotation from rest to settle at %v, got %v", floor, st.RotationSpeed)
	}
}

func TestRotationFollowsEnergy(t *testing.T) {
	cfg := DefaultSettings()
	tn := DefaultTuning()
	st := State{RotationSpeed: tn.RotationIdle}

	p := Advance(&st, Events{}, BandEnergy{Overall: 1}, cfg, tn)
	inner := 0.2 + (2.5-0.2)*0.8
	want := inner + (0.2-inner)*0.1
	if math.Abs(p.RotationSpeed-want) > 1e-12 {
		t.Fatalf("expected rotation %v, got %v", want, p.RotationSpeed)
	}
}

func TestColourIntensitiesEaseTowardBands(t *testing.T) {
	st := State{}
	p := Advance(&st, Events{}, BandEnergy{Bass: 1, Mid: 1, Treble: 1}, DefaultSettings(), DefaultTuning())
	if p.BassIntensity != 0.6 {
		t.Fatalf("expected bass intensity 0.6, got %v", p.BassIntensity)
	}
	if p.MidIntensity != 0.7 || p.TrebleIntensity != 0.7 {
		t.Fatalf("expected mid/treble intensity 0.7, got %v/%v", p.MidIntensity, p.TrebleIntensity)
	}
}
