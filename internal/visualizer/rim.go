package visualizer

import "github.com/charmbracelet/harmonica"

// rim holds the sprung radius of every outline sample. The first frame
// snaps into place so the orb does not grow out of the centre.
type rim struct {
	spring harmonica.Spring
	radius [orbSamples]float64
	vel    [orbSamples]float64
	primed bool
}

func newRim(fps int) rim {
	return rim{spring: harmonica.NewSpring(harmonica.FPS(fps), 8.0, 0.6)}
}

// settle moves sample i toward target and returns its new radius.
func (r *rim) settle(i int, target float64) float64 {
	if !r.primed {
		r.radius[i] = target
		return target
	}
	r.radius[i], r.vel[i] = r.spring.Update(r.radius[i], r.vel[i], target)
	return r.radius[i]
}

// done marks the end of a frame's updates.
func (r *rim) done() { r.primed = true }
