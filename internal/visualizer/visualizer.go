// Package visualizer turns render parameters into terminal art.
package visualizer

import (
	"github.com/olivier-w/orb/internal/analysis"
	"github.com/olivier-w/orb/internal/settings"
)

// Style carries the look settings that are not part of the parameters.
type Style struct {
	Palette   settings.Palette
	Starfield bool
}

// Visualizer renders one frame of parameters.
type Visualizer interface {
	Name() string
	Update(p analysis.Parameters, st Style, width, height int)
	View() string
}

// Modes returns all available visualizers.
func Modes(fps int) []Visualizer {
	return []Visualizer{
		NewOrb(fps),
		NewTrace(),
	}
}

// bandColor blends the palette by band intensity: bass sets the base, the
// mids pull towards the middle colour and treble adds highlights.
func bandColor(p analysis.Parameters, pal settings.Palette, highlight float64) colorRGB {
	c := lerpColor(parseHex(pal.Bass), parseHex(pal.Mid), p.MidIntensity)
	c = lerpColor(c, parseHex(pal.High), p.TrebleIntensity*highlight)
	return scaleColor(c, 0.6+0.8*p.BassIntensity)
}
