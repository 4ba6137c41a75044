package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ik5/audpbx/formats/wav"
)

// writeTone writes a mono 16-bit WAV: silence for the first half, then a
// 50 Hz tone.
func writeTone(t *testing.T, rate int, seconds float64, amp float64) string {
	t.Helper()
	n := int(float64(rate) * seconds)
	samples := make([]int16, n)
	for i := n / 2; i < n; i++ {
		v := amp * math.Sin(2*math.Pi*50*float64(i)/float64(rate))
		samples[i] = int16(v * 32767)
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()
	if err := wav.WriteWAV16(f, rate, samples); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	return path
}

func collect(t *testing.T, path string, opts Options) []Frame {
	t.Helper()
	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	var frames []Frame
	err = Run(context.Background(), src, opts, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return frames
}

func TestRunDetectsToneOnset(t *testing.T) {
	frames := collect(t, writeTone(t, SampleRate, 1, 0.9), Options{FPS: 60})
	if len(frames) != 60 {
		t.Fatalf("expected 60 frames, got %d", len(frames))
	}

	for _, f := range frames[:30] {
		if f.Audio.Bass != 0 || f.Parameters.Events.Beat || f.Parameters.Events.Transient {
			t.Fatalf("expected silence before the onset, frame %d got %+v", f.Index, f.Audio)
		}
	}

	beats, transients := 0, 0
	for _, f := range frames[30:] {
		if f.Parameters.Events.Beat {
			beats++
		}
		if f.Parameters.Events.Transient {
			transients++
		}
	}
	if beats == 0 {
		t.Fatal("expected a beat at the tone onset")
	}
	if transients == 0 {
		t.Fatal("expected transients once the tone peaks above threshold")
	}

	last := frames[len(frames)-1]
	if last.Audio.Bass < 0.5 {
		t.Fatalf("expected strong bass at the end, got %v", last.Audio.Bass)
	}
	if last.Parameters.Distortion <= 0 || last.Parameters.Bloom <= 0 {
		t.Fatalf("expected bass-driven parameters, got %+v", last.Parameters)
	}
	if got := frames[30].Seconds; got != 0.5 {
		t.Fatalf("expected frame 30 at 0.5s, got %v", got)
	}
}

func TestRunResamplesToAnalysisRate(t *testing.T) {
	frames := collect(t, writeTone(t, 24000, 1, 0.5), Options{FPS: 60})
	if len(frames) < 58 || len(frames) > 61 {
		t.Fatalf("expected about 60 frames after resampling, got %d", len(frames))
	}
}

func TestRunStopsWhenEmitFails(t *testing.T) {
	src, err := Open(writeTone(t, SampleRate, 1, 0.5))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	stop := errors.New("stop")
	calls := 0
	err = Run(context.Background(), src, Options{}, func(Frame) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected emit error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 frames, got %d", calls)
	}
}

func TestRunHonoursCancelledContext(t *testing.T) {
	src, err := Open(writeTone(t, SampleRate, 1, 0.5))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Run(ctx, src, Options{}, func(Frame) error {
		t.Fatal("expected no frames after cancellation")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunRejectsFPSAboveSampleRate(t *testing.T) {
	src, err := Open(writeTone(t, SampleRate, 1, 0.5))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	err = Run(context.Background(), src, Options{FPS: SampleRate + 1}, func(Frame) error {
		t.Fatal("expected no frames")
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "fps") {
		t.Fatalf("expected fps error, got %v", err)
	}
}

func TestOpenRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWriters(t *testing.T) {
	f := Frame{Index: 7, Seconds: 0.25}
	f.Audio.Bass = 0.5
	f.Parameters.Events.Beat = true

	var text bytes.Buffer
	w := TextWriter(&text)
	if err := w(f); err != nil {
		t.Fatalf("text writer: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(text.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "frame") {
		t.Fatalf("expected header and one row, got %q", text.String())
	}
	if !strings.HasSuffix(lines[1], "beat") {
		t.Fatalf("expected beat label, got %q", lines[1])
	}

	var js bytes.Buffer
	if err := JSONWriter(&js)(f); err != nil {
		t.Fatalf("json writer: %v", err)
	}
	var decoded struct {
		Frame int     `json:"frame"`
		T     float64 `json:"t"`
		Audio struct {
			Bass float64
		} `json:"audio"`
	}
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if decoded.Frame != 7 || decoded.T != 0.25 || decoded.Audio.Bass != 0.5 {
		t.Fatalf("unexpected json frame: %s", js.String())
	}
}
