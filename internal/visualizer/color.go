package visualizer

import (
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

// colorProfile is the terminal's colour capability. Plain output uses
// colorNone.
type colorProfile = termenv.Profile

const colorNone = termenv.Ascii

type colorRGB struct {
	R, G, B uint8
}

func (c colorRGB) hex() string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}

func fromColorful(c colorful.Color) colorRGB {
	r, g, b := c.Clamped().RGB255()
	return colorRGB{R: r, G: g, B: b}
}

// currentColorProfile follows lipgloss so the art and the chrome agree.
func currentColorProfile() colorProfile {
	return lipgloss.ColorProfile()
}

// parseHex reads #rrggbb. Anything else is black.
func parseHex(s string) colorRGB {
	c, err := colorful.Hex(s)
	if err != nil {
		return colorRGB{}
	}
	return fromColorful(c)
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

// lerpColor blends a toward b in RGB.
func lerpColor(a, b colorRGB, t float64) colorRGB {
	ca := colorful.Color{R: float64(a.R) / 255, G: float64(a.G) / 255, B: float64(a.B) / 255}
	cb := colorful.Color{R: float64(b.R) / 255, G: float64(b.G) / 255, B: float64(b.B) / 255}
	return fromColorful(ca.BlendRgb(cb, clamp01(t)))
}

// scaleColor multiplies brightness by f, saturating at white.
func scaleColor(c colorRGB, f float64) colorRGB {
	f = max(f, 0)
	ch := func(v uint8) uint8 { return uint8(math.Min(255, float64(v)*f)) }
	return colorRGB{R: ch(c.R), G: ch(c.G), B: ch(c.B)}
}

func luma(c colorRGB) float64 {
	return 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
}

// ansiWriter emits a colour escape only when the colour changes.
type ansiWriter struct {
	profile colorProfile
	current colorRGB
	active  bool
}

func (w *ansiWriter) set(sb *strings.Builder, c colorRGB) {
	if w.profile == colorNone || (w.active && c == w.current) {
		return
	}
	sb.WriteString(colorSequence(w.profile, c))
	w.current, w.active = c, true
}

func (w *ansiWriter) reset(sb *strings.Builder) {
	if !w.active {
		return
	}
	sb.WriteString(termenv.CSI + termenv.ResetSeq + "m")
	w.active = false
}

type seqKey struct {
	profile colorProfile
	color   colorRGB
}

var seqCache sync.Map // seqKey -> string

func colorSequence(p colorProfile, c colorRGB) string {
	key := seqKey{p, c}
	if seq, ok := seqCache.Load(key); ok {
		return seq.(string)
	}
	seq := ""
	if s := p.Color(c.hex()).Sequence(false); s != "" {
		seq = termenv.CSI + s + "m"
	}
	seqCache.Store(key, seq)
	return seq
}
