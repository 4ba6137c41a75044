package analysis

import "testing"

func TestSamplerWithoutAnalyserIsSilent(t *testing.T) {
	s := NewSampler(8, 16)
	snap := s.Sample()
	if len(snap.Magnitudes) != 8 || len(snap.Waveform) != 16 {
		t.Fatalf("expected 8/16 lengths, got %d/%d", len(snap.Magnitudes), len(snap.Waveform))
	}
	for i, v := range snap.Waveform {
		if v != Midpoint {
			t.Fatalf("expected waveform[%d]=%d, got %d", i, Midpoint, v)
		}
	}
}

func TestSamplerRejectsMismatchedAnalyser(t *testing.T) {
	s := NewSampler(8, 16)
	if err := s.Attach(newStubAnalyser()); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestSamplerDetachRestoresSilence(t *testing.T) {
	node := newStubAnalyser()
	node.setBass(200)
	s := NewSampler(1024, 2048)
	if err := s.Attach(node); err != nil {
		t.Fatal(err)
	}
	if got := s.Sample().Magnitudes[0]; got != 200 {
		t.Fatalf("expected attached magnitude 200, got %d", got)
	}
	if err := s.Attach(nil); err != nil {
		t.Fatal(err)
	}
	if got := s.Sample().Magnitudes[0]; got != 0 {
		t.Fatalf("expected silence after detach, got %d", got)
	}
}
