package analysis

import "testing"

func TestDetectBeatNeedsRatioAndFloor(t *testing.T) {
	th := DefaultThresholds()
	bass := []float64{0.5, 0.3, 0.5}
	want := []bool{true, false, true}

	prev := 0.0
	for i, b := range bass {
		var ev Events
		ev, prev = Detect(BandEnergy{Bass: b}, PeakEnergy{}, prev, th)
		if ev.Beat != want[i] {
			t.Fatalf("tick %d: expected beat=%v, got %v", i+1, want[i], ev.Beat)
		}
		if prev != b {
			t.Fatalf("tick %d: expected history %v, got %v", i+1, b, prev)
		}
	}
}

func TestDetectBeatBelowFloor(t *testing.T) {
	ev, _ := Detect(BandEnergy{Bass: 0.39}, PeakEnergy{}, 0.01, DefaultThresholds())
	if ev.Beat {
		t.Fatal("expected no beat below the floor")
	}
}

func TestDetectTransientIsStrict(t *testing.T) {
	th := DefaultThresholds()
	ev, _ := Detect(BandEnergy{}, PeakEnergy{Normalized: 0.8}, 0, th)
	if ev.Transient {
		t.Fatal("expected no transient at exactly the threshold")
	}
	ev, _ = Detect(BandEnergy{}, PeakEnergy{Normalized: 0.81}, 0, th)
	if !ev.Transient {
		t.Fatal("expected transient above the threshold")
	}
}

func TestDetectUsesOverriddenThresholds(t *testing.T) {
	th := Thresholds{Transient: 0.5, BeatRatio: 2, BeatFloor: 0.1}
	ev, _ := Detect(BandEnergy{Bass: 0.5}, PeakEnergy{Normalized: 0.6}, 0.3, th)
	if !ev.Transient {
		t.Fatal("expected transient with lowered threshold")
	}
	if ev.Beat {
		t.Fatal("expected no beat when rise is under the ratio")
	}
}
