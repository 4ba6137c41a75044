package visualizer

import (
	"math"
	"math/rand/v2"

	"github.com/olivier-w/orb/internal/analysis"
)

const (
	orbSamples = 240
	orbShells  = 3
	starCount  = 48
)

type star struct {
	angle float64
	dist  float64 // 0 at the centre, 1 at the edge
	speed float64
}

// Orb draws a rotating, distorting sphere outline with an optional bloom
// halo and starfield.
type Orb struct {
	canvas  canvas
	rim     rim
	fps     int
	phase   float64
	clock   float64
	stars   []star
	output  string
	profile colorProfile
}

// NewOrb creates an orb animated at fps frames per second.
func NewOrb(fps int) *Orb {
	fps = max(fps, 1)
	o := &Orb{
		rim:     newRim(fps),
		fps:     fps,
		profile: currentColorProfile(),
	}
	rng := rand.New(rand.NewPCG(7, 11))
	o.stars = make([]star, starCount)
	for i := range o.stars {
		o.stars[i] = star{
			angle: rng.Float64() * 2 * math.Pi,
			dist:  rng.Float64(),
			speed: 0.4 + rng.Float64()*0.8,
		}
	}
	return o
}

func (o *Orb) Name() string { return "orb" }

// surface returns the relative radius at angle theta.
func (o *Orb) surface(p analysis.Parameters, theta float64) float64 {
	t := o.clock
	organic := p.OrganicMotion * 0.12 * (math.Sin(3*theta+1.3*t) + 0.5*math.Sin(7*theta-0.9*t))
	distort := p.Distortion * 0.14 * (0.6*math.Sin(5*theta-2.1*t) + 0.4*math.Sin(11*theta+3.3*t))
	return 1 + organic + distort
}

func (o *Orb) Update(p analysis.Parameters, st Style, width, height int) {
	if width < 4 || height < 2 {
		o.output = ""
		return
	}
	dt := 1 / float64(o.fps)
	o.clock += dt
	o.phase = math.Mod(o.phase+p.RotationSpeed*dt, 2*math.Pi)

	o.canvas.resize(width, height)
	w, h := o.canvas.dots()
	cx, cy := float64(w)/2, float64(h)/2
	base := 0.3 * math.Min(float64(w), float64(h))

	if st.Starfield {
		o.drawStars(p, dt, cx, cy, math.Hypot(cx, cy))
	}

	pts := make([][2]int, orbSamples+1)
	for i := range orbSamples {
		theta := 2*math.Pi*float64(i)/orbSamples + o.phase
		r := o.rim.settle(i, base*o.surface(p, theta))
		pts[i] = [2]int{int(math.Round(cx + r*math.Cos(theta))), int(math.Round(cy + r*math.Sin(theta)))}
	}
	pts[orbSamples] = pts[0]
	o.rim.done()

	if p.Bloom > 0.02 {
		halo := scaleColor(bandColor(p, st.Palette, 1), math.Min(1, p.Bloom))
		grow := 1.12 + 0.5*p.Bloom
		for i := 0; i < orbSamples; i += 2 {
			x := cx + (float64(pts[i][0])-cx)*grow
			y := cy + (float64(pts[i][1])-cy)*grow
			o.canvas.plot(int(math.Round(x)), int(math.Round(y)), halo)
		}
	}

	// Inner shells give the outline some depth; they turn against the rim.
	for s := 1; s < orbShells; s++ {
		k := float64(s) / orbShells
		col := scaleColor(bandColor(p, st.Palette, 0), 0.35+0.4*k)
		for i := 0; i < orbSamples; i += 3 {
			theta := 2*math.Pi*float64(i)/orbSamples - o.phase*k
			r := o.rim.radius[i] * k
			o.canvas.plot(int(math.Round(cx+r*math.Cos(theta))), int(math.Round(cy+r*math.Sin(theta))), col)
		}
	}

	for i := range orbSamples {
		hl := 0.5 + 0.5*math.Sin(2*(2*math.Pi*float64(i)/orbSamples+o.phase))
		o.canvas.line(pts[i][0], pts[i][1], pts[i+1][0], pts[i+1][1], bandColor(p, st.Palette, hl))
	}

	o.output = o.canvas.render(o.profile)
}

func (o *Orb) drawStars(p analysis.Parameters, dt, cx, cy, reach float64) {
	speed := 0.05 + 0.15*p.RotationSpeed
	for i := range o.stars {
		s := &o.stars[i]
		s.dist += s.speed * speed * dt
		if s.dist > 1 {
			s.dist -= 1
		}
		d := s.dist * reach
		col := scaleColor(colorRGB{R: 255, G: 255, B: 255}, 0.2+0.8*s.dist)
		o.canvas.plot(int(cx+d*math.Cos(s.angle)), int(cy+d*math.Sin(s.angle)), col)
	}
}

func (o *Orb) View() string {
	return o.output
}
