// Package session routes one audio source at a time into the analyser and
// owns the playback transport and playlist around it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/olivier-w/orb/internal/analysis"
	"github.com/olivier-w/orb/internal/capture"
	"github.com/olivier-w/orb/internal/player"
	"github.com/olivier-w/orb/internal/queue"
	"github.com/olivier-w/orb/internal/spectrum"
)

// Source identifies what currently feeds the analyser.
type Source int

const (
	SourceNone Source = iota
	SourceFile
	SourceMicrophone
)

func (s Source) String() string {
	switch s {
	case SourceFile:
		return "file"
	case SourceMicrophone:
		return "microphone"
	default:
		return "none"
	}
}

// Playback is the transport surface of an open track.
type Playback interface {
	State() player.State
	Done() <-chan struct{}
	TogglePause()
	Stop() error
	SeekTo(target time.Duration, resume bool) error
	SetVolume(v float64)
	Close()
}

// Microphone is a running capture.
type Microphone interface {
	spectrum.Input
	Done() <-chan struct{}
	Err() error
	Close() error
}

// Config wires a Session. Zero values pick the production implementations.
type Config struct {
	Analyser   spectrum.Config
	Layout     analysis.BandLayout
	Thresholds analysis.Thresholds
	Tuning     analysis.Tuning
	Volume     float64
	Clock      analysis.Clock
	Log        *slog.Logger

	OpenTrack func(path string, opts player.Options) (Playback, error)
	StartMic  func(ctx context.Context, cfg capture.Config) (Microphone, error)
}

func (c *Config) fill() {
	if c.Analyser.FFTSize == 0 {
		c.Analyser = spectrum.DefaultConfig()
	}
	if c.Layout == (analysis.BandLayout{}) {
		c.Layout = analysis.DefaultLayout
	}
	if c.Thresholds == (analysis.Thresholds{}) {
		c.Thresholds = analysis.DefaultThresholds()
	}
	if c.Tuning == (analysis.Tuning{}) {
		c.Tuning = analysis.DefaultTuning()
	}
	if c.Log == nil {
		c.Log = slog.New(slog.DiscardHandler)
	}
	if c.OpenTrack == nil {
		c.OpenTrack = func(path string, opts player.Options) (Playback, error) {
			p, err := player.Open(path, opts)
			if err != nil {
				return nil, err
			}
			return p, nil
		}
	}
	if c.StartMic == nil {
		c.StartMic = func(ctx context.Context, cfg capture.Config) (Microphone, error) {
			mic, err := capture.Start(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return mic, nil
		}
	}
}

// Session owns the analysis pipeline and whatever feeds it.
type Session struct {
	cfg      Config
	log      *slog.Logger
	analyser *spectrum.Analyser
	sampler  *analysis.Sampler
	engine   *analysis.Engine
	bus      *analysis.Bus
	reactor  *analysis.Reactor
	loop     *analysis.Loop
	stopTick func()
	fileTap  *spectrum.Ring

	mu      sync.Mutex
	source  Source
	queue   *queue.Queue
	track   Playback
	mic     Microphone
	volume  float64
	pending error // reported once through TakeError
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	quit    chan struct{}
}

// New builds the pipeline. Nothing runs until Start.
func New(cfg Config) (*Session, error) {
	cfg.fill()

	an, err := spectrum.NewAnalyser(cfg.Analyser)
	if err != nil {
		return nil, fmt.Errorf("creating analyser: %w", err)
	}
	sampler := analysis.NewSampler(an.FrequencyBinCount(), an.FFTSize())
	if err := sampler.Attach(an); err != nil {
		return nil, fmt.Errorf("attaching analyser: %w", err)
	}
	bus := &analysis.Bus{}
	engine, err := analysis.NewEngine(sampler, cfg.Layout, bus)
	if err != nil {
		return nil, fmt.Errorf("band layout: %w", err)
	}

	s := &Session{
		cfg:      cfg,
		log:      cfg.Log,
		analyser: an,
		sampler:  sampler,
		engine:   engine,
		bus:      bus,
		reactor:  analysis.NewReactor(bus, cfg.Thresholds, cfg.Tuning),
		fileTap:  spectrum.NewRing(cfg.Analyser.FFTSize * 2),
		queue:    queue.New(nil),
		volume:   cfg.Volume,
		quit:     make(chan struct{}),
	}
	clock := cfg.Clock
	if clock == nil {
		tc := analysis.NewTickerClock(analysis.FrameInterval)
		clock, s.stopTick = tc, tc.Stop
	}
	s.loop = analysis.NewLoop(clock, func() { s.engine.Analyze() })
	return s, nil
}

// Start runs the analysis loop until ctx is done or Close is called.
func (s *Session) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop.Run(ctx)
		if s.stopTick != nil {
			s.stopTick()
		}
	}()
}

// Bus exposes the published audio snapshot.
func (s *Session) Bus() *analysis.Bus { return s.bus }

// Frame advances the render-side smoother by one frame. Call it from a
// single goroutine.
func (s *Session) Frame(cfg analysis.Settings) analysis.Parameters {
	return s.reactor.Frame(cfg)
}

// SetThresholds changes the beat and transient thresholds.
func (s *Session) SetThresholds(th analysis.Thresholds) {
	s.reactor.SetThresholds(th)
}

// SetLayout changes the band layout. A zero layout means the default; an
// invalid one is rejected and the current layout stays.
func (s *Session) SetLayout(layout analysis.BandLayout) error {
	if layout == (analysis.BandLayout{}) {
		layout = analysis.DefaultLayout
	}
	if err := s.engine.SetLayout(layout); err != nil {
		return fmt.Errorf("band layout: %w", err)
	}
	return nil
}

// Input reports what the analyser is connected to.
func (s *Session) Input() spectrum.Input { return s.analyser.Input() }

// Source reports the active source.
func (s *Session) Source() Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// TakeError returns the last connection failure and clears it.
func (s *Session) TakeError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.pending
	s.pending = nil
	return err
}

// reportLocked records a failure for TakeError. Caller holds s.mu.
func (s *Session) reportLocked(err error) {
	s.log.Warn("audio source failed", "err", err)
	s.pending = err
}

// UseFile routes the playback tap into the analyser and loads the current
// track if none is open.
func (s *Session) UseFile() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.useFileLocked()
}

func (s *Session) useFileLocked() {
	s.closeMicLocked()
	s.analyser.Connect(s.fileTap)
	s.source = SourceFile
	if s.track == nil && s.queue.Current() != nil {
		s.loadLocked(true)
	}
}

// UseMicrophone starts capture and switches the analyser to it. On failure
// the previous source stays connected and the error is reported.
func (s *Session) UseMicrophone(ctx context.Context, mcfg capture.Config) error {
	if mcfg.Log == nil {
		mcfg.Log = s.log
	}
	mic, err := s.cfg.StartMic(ctx, mcfg)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		if err == nil {
			_ = mic.Close()
		}
		return errors.New("session closed")
	}
	if err != nil {
		s.reportLocked(err)
		return err
	}

	if s.track != nil && s.track.State().Playing {
		s.track.TogglePause()
	}
	s.fileTap.Clear()
	prev := s.mic
	s.mic = mic
	s.analyser.Connect(mic)
	s.source = SourceMicrophone
	if prev != nil {
		_ = prev.Close()
	}

	s.wg.Add(1)
	go s.watchMic(mic)
	s.log.Info("microphone connected")
	return nil
}

// watchMic reports a capture process that dies while it is still the
// active source.
func (s *Session) watchMic(mic Microphone) {
	defer s.wg.Done()
	select {
	case <-s.quit:
		return
	case <-mic.Done():
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mic != mic {
		return
	}
	if err := mic.Err(); err != nil {
		s.reportLocked(err)
	}
	s.analyser.Disconnect()
	s.mic = nil
	s.source = SourceNone
}

func (s *Session) closeMicLocked() {
	if s.mic == nil {
		return
	}
	mic := s.mic
	s.mic = nil
	if s.analyser.Input() == mic {
		s.analyser.Disconnect()
	}
	_ = mic.Close()
}

// Append adds tracks to the playlist. When nothing was selected before,
// the first new track is loaded.
func (s *Session) Append(tracks ...queue.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.Append(tracks...) && s.source != SourceMicrophone {
		s.useFileLocked()
	}
}

// Tracks returns the playlist and the current index.
func (s *Session) Tracks() ([]queue.Track, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Tracks(), s.queue.CurrentIndex()
}

// Transport returns the current track's transport state.
func (s *Session) Transport() player.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil {
		return player.State{Volume: s.volume}
	}
	return s.track.State()
}

// loadLocked opens the current queue entry. Caller holds s.mu.
func (s *Session) loadLocked(play bool) {
	s.closeTrackLocked()
	t := s.queue.Current()
	if t == nil {
		return
	}
	if s.source != SourceMicrophone {
		s.source = SourceFile
		s.analyser.Connect(s.fileTap)
	}

	p, err := s.cfg.OpenTrack(t.Path, player.Options{
		Tap:    s.fileTap,
		Volume: s.volume,
		Paused: !play || s.source == SourceMicrophone,
		Log:    s.log,
	})
	if err != nil {
		s.reportLocked(fmt.Errorf("loading %s: %w", t.Path, err))
		return
	}
	s.track = p
	s.wg.Add(1)
	go s.watchTrack(p)
}

func (s *Session) closeTrackLocked() {
	if s.track == nil {
		return
	}
	s.track.Close()
	s.track = nil
	s.fileTap.Clear()
}

// watchTrack advances to the next track when p finishes.
func (s *Session) watchTrack(p Playback) {
	defer s.wg.Done()
	select {
	case <-s.quit:
		return
	case <-p.Done():
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track != p || s.closed {
		return
	}
	if s.queue.Next() {
		s.loadLocked(true)
	}
}

// TogglePause plays or pauses the current track.
func (s *Session) TogglePause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil {
		return
	}
	if s.source == SourceMicrophone {
		s.useFileLocked()
	}
	s.track.TogglePause()
	if !s.track.State().Playing {
		s.fileTap.Clear()
	}
}

// Stop pauses and rewinds the current track.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil {
		return nil
	}
	defer s.fileTap.Clear()
	return s.track.Stop()
}

// maxSeekSeconds is the longest target a time.Duration can hold.
const maxSeekSeconds = float64(math.MaxInt64 / int64(time.Second))

// SeekSeconds moves to an absolute position. Non-finite or negative
// targets are rejected; targets past the end land on the end.
func (s *Session) SeekSeconds(sec float64) error {
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < 0 {
		return fmt.Errorf("invalid seek target %v", sec)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil {
		return nil
	}
	st := s.track.State()
	target := time.Duration(min(sec, maxSeekSeconds) * float64(time.Second))
	if st.Duration > 0 {
		target = min(target, st.Duration)
	}
	defer s.fileTap.Clear()
	return s.track.SeekTo(target, st.Playing)
}

// SetVolume sets the output volume, clamped to [0, 1]. It carries over to
// later tracks.
func (s *Session) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = max(0, min(1, v))
	if s.track != nil {
		s.track.SetVolume(s.volume)
	}
}

// Volume returns the output volume.
func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Next plays the following track, wrapping to the first.
func (s *Session) Next() {
	s.navigate(s.queue.Next)
}

// Previous plays the preceding track, wrapping to the last.
func (s *Session) Previous() {
	s.navigate(s.queue.Previous)
}

// Select plays track i.
func (s *Session) Select(i int) {
	s.navigate(func() bool { return s.queue.Select(i) })
}

func (s *Session) navigate(move func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if move() {
		s.loadLocked(true)
	}
}

// Remove deletes track i. Removing the playing track moves to the track
// now at its index; emptying the playlist stops playback.
func (s *Session) Remove(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed, changed := s.queue.Remove(i)
	if !removed || !changed {
		return
	}
	if s.queue.Current() == nil {
		s.closeTrackLocked()
		return
	}
	playing := s.track != nil && s.track.State().Playing
	s.loadLocked(playing)
}

// Move reorders the playlist, keeping the current track.
func (s *Session) Move(from, to int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Move(from, to)
}

// Close stops analysis and releases every source.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.quit)
	s.loop.Stop()
	if s.cancel != nil {
		s.cancel()
	}
	s.closeTrackLocked()
	s.closeMicLocked()
	s.source = SourceNone
	s.mu.Unlock()

	s.wg.Wait()
}
