package visualizer

import (
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/olivier-w/orb/internal/analysis"
	"github.com/olivier-w/orb/internal/settings"
)

func plainStyle() Style {
	return Style{Palette: settings.LookupPalette("Magma")}
}

func TestParseHex(t *testing.T) {
	got := parseHex("#ff4d00")
	if got != (colorRGB{R: 0xff, G: 0x4d, B: 0x00}) {
		t.Fatalf("expected ff4d00, got %+v", got)
	}
	if parseHex("nope") != (colorRGB{}) {
		t.Fatal("expected black for malformed colour")
	}
}

func TestCanvasPlotAndRender(t *testing.T) {
	var c canvas
	c.resize(2, 1)
	c.plot(0, 0, colorRGB{R: 255})
	c.plot(3, 3, colorRGB{R: 255})
	c.plot(-1, 0, colorRGB{R: 255})
	c.plot(4, 0, colorRGB{R: 255})

	got := c.render(colorNone)
	want := string([]rune{0x2801, 0x2880})
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCanvasRenderEmitsColourChangesOnly(t *testing.T) {
	var c canvas
	c.resize(3, 1)
	red := colorRGB{R: 255}
	c.plot(0, 0, red)
	c.plot(2, 0, red)
	c.plot(4, 0, colorRGB{G: 255})

	got := c.render(termenv.TrueColor)
	want := "\x1b[38;2;255;0;0m" + string([]rune{0x2801, 0x2801}) +
		"\x1b[38;2;0;255;0m" + string(rune(0x2801)) + "\x1b[0m"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCanvasKeepsBrightestColour(t *testing.T) {
	var c canvas
	c.resize(1, 1)
	c.plot(0, 0, colorRGB{R: 200, G: 200, B: 200})
	c.plot(1, 1, colorRGB{R: 10})
	if c.color[0] != (colorRGB{R: 200, G: 200, B: 200}) {
		t.Fatalf("expected brightest colour to win, got %+v", c.color[0])
	}
}

func TestOrbViewMatchesSize(t *testing.T) {
	o := NewOrb(60)
	o.profile = colorNone
	o.Update(analysis.Parameters{RotationSpeed: 0.2}, plainStyle(), 40, 12)

	lines := strings.Split(o.View(), "\n")
	if len(lines) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(lines))
	}
	for i, l := range lines {
		if n := len([]rune(l)); n != 40 {
			t.Fatalf("row %d: expected 40 cells, got %d", i, n)
		}
	}
	if strings.TrimSpace(strings.ReplaceAll(o.View(), "\n", "")) == "" {
		t.Fatal("expected the orb outline to be drawn")
	}
}

func TestOrbDistortionChangesShape(t *testing.T) {
	calm, wild := NewOrb(60), NewOrb(60)
	calm.profile, wild.profile = colorNone, colorNone
	for range 30 {
		calm.Update(analysis.Parameters{}, plainStyle(), 40, 12)
		wild.Update(analysis.Parameters{Distortion: 2.5, OrganicMotion: 1}, plainStyle(), 40, 12)
	}
	if calm.View() == wild.View() {
		t.Fatal("expected distortion to change the outline")
	}
}

func TestOrbTooSmall(t *testing.T) {
	o := NewOrb(60)
	o.Update(analysis.Parameters{}, plainStyle(), 2, 1)
	if o.View() != "" {
		t.Fatalf("expected empty view, got %q", o.View())
	}
}

func TestTraceKeepsOneColumnPerDot(t *testing.T) {
	tr := NewTrace()
	tr.profile = colorNone
	for i := range 50 {
		tr.Update(analysis.Parameters{Distortion: float64(i%5) / 2, Events: analysis.Events{Beat: i%10 == 0}}, plainStyle(), 10, 4)
	}
	if len(tr.history) != 20 {
		t.Fatalf("expected history capped at 20 dot columns, got %d", len(tr.history))
	}
	if got := len(strings.Split(tr.View(), "\n")); got != 4 {
		t.Fatalf("expected 4 rows, got %d", got)
	}
}

func TestModes(t *testing.T) {
	names := []string{}
	for _, v := range Modes(60) {
		names = append(names, v.Name())
	}
	if strings.Join(names, ",") != "orb,trace" {
		t.Fatalf("unexpected modes %v", names)
	}
}

func TestRimSnapsThenEases(t *testing.T) {
	r := newRim(60)
	if got := r.settle(0, 10); got != 10 {
		t.Fatalf("expected first frame to snap to 10, got %v", got)
	}
	r.done()
	if got := r.settle(0, 20); got <= 10 || got >= 20 {
		t.Fatalf("expected an eased step between 10 and 20, got %v", got)
	}
}
