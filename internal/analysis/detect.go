package analysis

// Detector thresholds. They were tuned by ear and have no derivation; keep
// them as defaults and override through Thresholds.
const (
	DefaultTransientThreshold = 0.8
	DefaultBeatRatio          = 1.3
	DefaultBeatFloor          = 0.4
)

// Thresholds configures Detect.
type Thresholds struct {
	Transient float64 `toml:"transient"`
	BeatRatio float64 `toml:"beat_ratio"`
	BeatFloor float64 `toml:"beat_floor"`
}

// DefaultThresholds returns the tuned detector constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Transient: DefaultTransientThreshold,
		BeatRatio: DefaultBeatRatio,
		BeatFloor: DefaultBeatFloor,
	}
}

// Events are the impulses detected on one tick.
type Events struct {
	Transient bool
	Beat      bool
}

// Detect derives this tick's events. The returned bass is the history for
// the next call and is always the current bass, beat or not.
func Detect(be BandEnergy, peak PeakEnergy, prevBass float64, th Thresholds) (Events, float64) {
	ev := Events{
		Transient: peak.Normalized > th.Transient,
		Beat:      be.Bass > prevBass*th.BeatRatio && be.Bass > th.BeatFloor,
	}
	return ev, be.Bass
}
