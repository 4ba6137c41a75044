package analysis

// Settings are the user-facing multipliers. Values are not validated;
// out-of-range input degrades linearly.
type Settings struct {
	DistortionIntensity float64 `toml:"distortion_intensity"`
	OrganicMotion       float64 `toml:"organic_motion"`
	BloomIntensity      float64 `toml:"bloom_intensity"`
	AutoRotateSpeed     float64 `toml:"auto_rotate_speed"`
	PumpSensitivity     float64 `toml:"pump_sensitivity"`
}

// DefaultSettings returns the stock look.
func DefaultSettings() Settings {
	return Settings{
		DistortionIntensity: 0.75,
		OrganicMotion:       0.25,
		BloomIntensity:      0.25,
		AutoRotateSpeed:     2.5,
		PumpSensitivity:     1.0,
	}
}

// Tuning holds the smoother's fixed rates. Decay and rate values are lerp
// factors applied once per frame.
type Tuning struct {
	DistortionImpulse float64
	DistortionDecay   float64
	BloomImpulse      float64
	BloomDecay        float64

	RotationAttack float64 // pull toward energy-driven speed
	RotationIdle   float64 // floor the speed settles toward
	RotationSettle float64 // pull toward RotationIdle

	BassRate   float64
	MidRate    float64
	TrebleRate float64
}

// DefaultTuning returns the reference rates.
func DefaultTuning() Tuning {
	return Tuning{
		DistortionImpulse: 1.5,
		DistortionDecay:   0.1,
		BloomImpulse:      0.25,
		BloomDecay:        0.4,
		RotationAttack:    0.8,
		RotationIdle:      0.2,
		RotationSettle:    0.1,
		BassRate:          0.6,
		MidRate:           0.7,
		TrebleRate:        0.7,
	}
}

// IdleRotation is the speed the dual pull settles at with no energy. It is
// the fixed point of lerp(lerp(s, 0, attack), idle, settle) and is never zero
// while RotationIdle and RotationSettle are positive.
func (t Tuning) IdleRotation() float64 {
	return t.RotationSettle * t.RotationIdle / (1 - (1-t.RotationSettle)*(1-t.RotationAttack))
}

// State is everything the pipeline carries between ticks.
type State struct {
	PrevBass       float64
	DistortionPump float64
	BloomPump      float64
	RotationSpeed  float64

	BassIntensity   float64
	MidIntensity    float64
	TrebleIntensity float64
}

// Parameters are the render-ready values for one frame.
type Parameters struct {
	Distortion    float64
	Bloom         float64
	RotationSpeed float64
	OrganicMotion float64

	BassIntensity   float64
	MidIntensity    float64
	TrebleIntensity float64

	Events Events
}

// Advance moves st forward one frame and returns the derived parameters.
func Advance(st *State, ev Events, be BandEnergy, cfg Settings, tn Tuning) Parameters {
	if ev.Transient {
		st.DistortionPump = tn.DistortionImpulse * cfg.PumpSensitivity
	}
	st.DistortionPump = lerp(st.DistortionPump, 0, tn.DistortionDecay)

	if ev.Beat {
		st.BloomPump = tn.BloomImpulse * cfg.PumpSensitivity
	}
	st.BloomPump = lerp(st.BloomPump, 0, tn.BloomDecay)

	target := be.Overall * cfg.AutoRotateSpeed
	st.RotationSpeed = lerp(st.RotationSpeed, target, tn.RotationAttack)
	st.RotationSpeed = lerp(st.RotationSpeed, tn.RotationIdle, tn.RotationSettle)

	st.BassIntensity = lerp(st.BassIntensity, be.Bass, tn.BassRate)
	st.MidIntensity = lerp(st.MidIntensity, be.Mid, tn.MidRate)
	st.TrebleIntensity = lerp(st.TrebleIntensity, be.Treble, tn.TrebleRate)

	return Parameters{
		Distortion:      be.Bass*cfg.DistortionIntensity + st.DistortionPump,
		Bloom:           be.Bass*cfg.BloomIntensity + st.BloomPump,
		RotationSpeed:   st.RotationSpeed,
		OrganicMotion:   cfg.OrganicMotion,
		BassIntensity:   st.BassIntensity,
		MidIntensity:    st.MidIntensity,
		TrebleIntensity: st.TrebleIntensity,
		Events:          ev,
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
