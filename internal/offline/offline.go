// Package offline runs the analysis pipeline over a decoded file as fast
// as it can, producing one frame of parameters per hop.
package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ik5/audpbx/audio"
	"github.com/ik5/audpbx/formats/aiff"
	"github.com/ik5/audpbx/formats/mp3"
	"github.com/ik5/audpbx/formats/vorbis"
	"github.com/ik5/audpbx/formats/wav"

	"github.com/olivier-w/orb/internal/analysis"
	"github.com/olivier-w/orb/internal/player"
	"github.com/olivier-w/orb/internal/spectrum"
)

// SampleRate is the rate every file is resampled to before analysis.
const SampleRate = 48000

// DefaultFPS matches the live frame cadence.
const DefaultFPS = 60

var registry = func() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	r.Register("oga", vorbis.Decoder{})
	r.Register("aif", aiff.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	return r
}()

type fileSource struct {
	audio.Source
	f *os.File
}

func (s fileSource) Close() error {
	err := s.Source.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Open decodes path. Formats the lightweight decoders cannot read (FLAC,
// WAV with extended headers or other bit depths) go through the playback
// decoders instead.
func Open(path string) (audio.Source, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	dec, ok := registry.Get(ext)
	if !ok {
		return player.OpenSource(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		if ext == "wav" {
			return player.OpenSource(path)
		}
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return fileSource{Source: src, f: f}, nil
}

// Options configure a run. Zero values pick the live defaults.
type Options struct {
	FPS        int
	Analyser   spectrum.Config
	Layout     analysis.BandLayout
	Thresholds analysis.Thresholds
	Tuning     analysis.Tuning
	Settings   analysis.Settings
	Log        *slog.Logger
}

func (o *Options) fill() {
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	if o.Analyser.FFTSize == 0 {
		o.Analyser = spectrum.DefaultConfig()
	}
	if o.Layout == (analysis.BandLayout{}) {
		o.Layout = analysis.DefaultLayout
	}
	if o.Thresholds == (analysis.Thresholds{}) {
		o.Thresholds = analysis.DefaultThresholds()
	}
	if o.Tuning == (analysis.Tuning{}) {
		o.Tuning = analysis.DefaultTuning()
	}
	if o.Settings == (analysis.Settings{}) {
		o.Settings = analysis.DefaultSettings()
	}
	if o.Log == nil {
		o.Log = slog.New(slog.DiscardHandler)
	}
}

// Frame is one analysed hop.
type Frame struct {
	Index      int                       `json:"frame"`
	Time       time.Duration             `json:"-"`
	Seconds    float64                   `json:"t"`
	Audio      analysis.ReactiveSnapshot `json:"audio"`
	Parameters analysis.Parameters       `json:"params"`
}

// Run streams src through the pipeline, calling emit once per frame. It
// stops at the end of the source, on ctx cancellation or when emit fails.
func Run(ctx context.Context, src audio.Source, opts Options, emit func(Frame) error) error {
	opts.fill()
	if opts.FPS > SampleRate {
		return fmt.Errorf("fps %d exceeds the %d Hz analysis rate", opts.FPS, SampleRate)
	}
	if src.SampleRate() <= 0 || src.Channels() < 1 {
		return fmt.Errorf("unsupported stream: %d Hz, %d channels", src.SampleRate(), src.Channels())
	}

	an, err := spectrum.NewAnalyser(opts.Analyser)
	if err != nil {
		return err
	}
	sampler := analysis.NewSampler(an.FrequencyBinCount(), an.FFTSize())
	if err := sampler.Attach(an); err != nil {
		return err
	}
	bus := &analysis.Bus{}
	engine, err := analysis.NewEngine(sampler, opts.Layout, bus)
	if err != nil {
		return err
	}
	reactor := analysis.NewReactor(bus, opts.Thresholds, opts.Tuning)

	ring := spectrum.NewRing(opts.Analyser.FFTSize)
	an.Connect(ring)

	if src.SampleRate() != SampleRate {
		src = audio.NewResampler(src, SampleRate)
	}
	mono := audio.NewMonoMixer(src)

	hop := make([]float32, SampleRate/opts.FPS)
	var (
		index  int
		runErr error
		loop   *analysis.Loop
	)
	loop = analysis.NewLoop(analysis.ImmediateClock{}, func() {
		n, err := readFull(mono, hop)
		if n == 0 {
			if err != nil && !errors.Is(err, io.EOF) {
				runErr = fmt.Errorf("reading samples: %w", err)
			}
			loop.Stop()
			return
		}
		ring.Write(hop[:n])
		rs := engine.Analyze()
		params := reactor.Frame(opts.Settings)

		t := time.Duration(index) * time.Second / time.Duration(opts.FPS)
		if err := emit(Frame{Index: index, Time: t, Seconds: t.Seconds(), Audio: rs, Parameters: params}); err != nil {
			runErr = err
			loop.Stop()
			return
		}
		index++
		if err != nil {
			if !errors.Is(err, io.EOF) {
				runErr = fmt.Errorf("reading samples: %w", err)
			}
			loop.Stop()
		}
	})
	loop.Run(ctx)

	opts.Log.Info("offline analysis finished", "frames", index, "err", runErr)
	if runErr != nil {
		return runErr
	}
	return ctx.Err()
}

// readFull fills dst unless the source ends first. Any error is returned
// alongside the samples read before it.
func readFull(src audio.Source, dst []float32) (int, error) {
	n := 0
	for n < len(dst) {
		m, err := src.ReadSamples(dst[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, io.EOF
		}
	}
	return n, nil
}
