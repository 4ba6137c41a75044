package visualizer

import (
	"math"

	"github.com/olivier-w/orb/internal/analysis"
)

// Trace scrolls the recent parameter history from right to left:
// distortion and bloom as lines, beats as vertical ticks.
type Trace struct {
	canvas  canvas
	history []analysis.Parameters
	output  string
	profile colorProfile
}

// NewTrace creates a history trace.
func NewTrace() *Trace {
	return &Trace{profile: currentColorProfile()}
}

func (t *Trace) Name() string { return "trace" }

// levelToDot maps v in [0, top] onto a dot row, 0 at the top.
func levelToDot(v, top float64, h int) int {
	if h <= 1 {
		return 0
	}
	v = clamp01(v / top)
	return int(math.Round((1 - v) * float64(h-1)))
}

func (t *Trace) Update(p analysis.Parameters, st Style, width, height int) {
	if width < 4 || height < 1 {
		t.output = ""
		return
	}
	t.canvas.resize(width, height)
	w, h := t.canvas.dots()

	t.history = append(t.history, p)
	if len(t.history) > w {
		t.history = t.history[len(t.history)-w:]
	}

	// Distortion peaks at intensity plus the full transient pump.
	top := 2.5
	bass, mid, high := parseHex(st.Palette.Bass), parseHex(st.Palette.Mid), parseHex(st.Palette.High)
	offset := w - len(t.history)
	var prevD, prevB int
	for i, hp := range t.history {
		x := offset + i
		if hp.Events.Beat {
			for y := 0; y < h; y += 2 {
				t.canvas.plot(x, y, scaleColor(bass, 1.6))
			}
		}
		d := levelToDot(hp.Distortion, top, h)
		b := levelToDot(hp.Bloom, top, h)
		if i > 0 {
			t.canvas.line(x-1, prevB, x, b, high)
			t.canvas.line(x-1, prevD, x, d, mid)
		} else {
			t.canvas.plot(x, b, high)
			t.canvas.plot(x, d, mid)
		}
		prevD, prevB = d, b
	}

	t.output = t.canvas.render(t.profile)
}

func (t *Trace) View() string {
	return t.output
}
