// Package spectrum turns a stream of mono samples into the byte-scaled
// frequency and time-domain data the analysis engine samples each tick.
package spectrum

import (
	"fmt"
	"math"
	"math/bits"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Input supplies the most recent mono samples. Latest fills dst with up to
// len(dst) samples, oldest first, and returns the count.
type Input interface {
	Latest(dst []float32) int
}

// Config describes the analyser's transform.
type Config struct {
	FFTSize     int
	Smoothing   float64 // 0 = no averaging, toward 1 = heavier
	MinDecibels float64
	MaxDecibels float64
}

// DefaultConfig matches the reference analyser: 2048 points, 0.8 smoothing,
// a -100..-30 dB byte range.
func DefaultConfig() Config {
	return Config{
		FFTSize:     2048,
		Smoothing:   0.8,
		MinDecibels: -100,
		MaxDecibels: -30,
	}
}

// Analyser is a single-input FFT node. It holds at most one connected
// Input; connecting replaces the previous one.
type Analyser struct {
	mu    sync.Mutex
	cfg   Config
	input Input

	fft      *fourier.FFT
	win      []float64
	samples  []float32
	frame    []float64
	coeffs   []complex128
	smoothed []float64
	held     bool // samples came from ByteFrequencyData and await ByteTimeDomainData
}

// NewAnalyser validates cfg and allocates the transform buffers.
func NewAnalyser(cfg Config) (*Analyser, error) {
	if cfg.FFTSize < 32 || bits.OnesCount(uint(cfg.FFTSize)) != 1 {
		return nil, fmt.Errorf("fft size %d must be a power of two >= 32", cfg.FFTSize)
	}
	if cfg.Smoothing < 0 || cfg.Smoothing > 1 {
		return nil, fmt.Errorf("smoothing %v outside [0,1]", cfg.Smoothing)
	}
	if cfg.MinDecibels >= cfg.MaxDecibels {
		return nil, fmt.Errorf("decibel range %v..%v is empty", cfg.MinDecibels, cfg.MaxDecibels)
	}

	win := make([]float64, cfg.FFTSize)
	for i := range win {
		win[i] = 1
	}
	window.Blackman(win)

	return &Analyser{
		cfg:      cfg,
		fft:      fourier.NewFFT(cfg.FFTSize),
		win:      win,
		samples:  make([]float32, cfg.FFTSize),
		frame:    make([]float64, cfg.FFTSize),
		coeffs:   make([]complex128, cfg.FFTSize/2+1),
		smoothed: make([]float64, cfg.FFTSize/2),
	}, nil
}

// FFTSize returns the transform length, which is also the waveform length.
func (a *Analyser) FFTSize() int { return a.cfg.FFTSize }

// FrequencyBinCount returns half the FFT size.
func (a *Analyser) FrequencyBinCount() int { return a.cfg.FFTSize / 2 }

// Connect makes in the only input and returns the one it replaced.
func (a *Analyser) Connect(in Input) Input {
	a.mu.Lock()
	defer a.mu.Unlock()

	prev := a.input
	a.input = in
	a.held = false
	clear(a.smoothed)
	return prev
}

// Disconnect removes the current input and returns it.
func (a *Analyser) Disconnect() Input {
	return a.Connect(nil)
}

// Input returns the connected input, or nil.
func (a *Analyser) Input() Input {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.input
}

// pull loads the latest window into a.samples, zero-padded at the front.
// It reports false when nothing is connected.
func (a *Analyser) pull() bool {
	if a.input == nil {
		return false
	}
	n := a.input.Latest(a.samples)
	if n < len(a.samples) {
		copy(a.samples[len(a.samples)-n:], a.samples[:n])
		clear(a.samples[:len(a.samples)-n])
	}
	return true
}

// ByteFrequencyData writes smoothed magnitudes scaled from the decibel
// range onto 0-255. dst must hold FrequencyBinCount bytes. The window it
// transforms is kept for the next ByteTimeDomainData call.
func (a *Analyser) ByteFrequencyData(dst []uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.pull() {
		a.held = false
		clear(a.smoothed)
		clear(dst)
		return
	}
	a.held = true

	for i, v := range a.samples {
		a.frame[i] = float64(v) * a.win[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.frame)

	n := float64(a.cfg.FFTSize)
	tau := a.cfg.Smoothing
	span := a.cfg.MaxDecibels - a.cfg.MinDecibels
	for k := range a.smoothed {
		if k >= len(dst) {
			break
		}
		c := a.coeffs[k]
		mag := math.Hypot(real(c), imag(c)) / n
		a.smoothed[k] = tau*a.smoothed[k] + (1-tau)*mag

		db := math.Inf(-1)
		if a.smoothed[k] > 0 {
			db = 20 * math.Log10(a.smoothed[k])
		}
		dst[k] = toByte(255 * (db - a.cfg.MinDecibels) / span)
	}
}

// ByteTimeDomainData writes the window as 128*(1+x). Right after
// ByteFrequencyData it reuses that window; otherwise it reads a fresh one.
// dst must hold FFTSize bytes.
func (a *Analyser) ByteTimeDomainData(dst []uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	held := a.held
	a.held = false
	if !held && !a.pull() {
		for i := range dst {
			dst[i] = 128
		}
		return
	}
	for i, v := range a.samples {
		if i >= len(dst) {
			break
		}
		dst[i] = toByte(128 * (1 + float64(v)))
	}
}

func toByte(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
