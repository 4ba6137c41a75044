package player

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/olivier-w/orb/internal/analysis"
)

// State is the transport snapshot published for the UI.
type State struct {
	Path     string
	Title    string
	Playing  bool
	Ended    bool
	Position time.Duration
	Duration time.Duration
	Volume   float64
}

// Options configure a Player.
type Options struct {
	Tap    Sink    // receives the mono mix; nil disables analysis
	Volume float64 // initial volume, 0..1
	Paused bool    // open without starting playback
	Log    *slog.Logger
}

// Player manages playback of one decoded file.
type Player struct {
	path        string
	title       string
	decoder     audioDecoder
	counter     *countingReader
	stream      *stream
	otoCtx      *oto.Context
	otoPlayer   *oto.Player
	bytesPerSec int64 // decoder output bytes per second
	duration    time.Duration
	volume      float64
	paused      bool
	ended       bool
	canSeek     bool
	done        chan struct{}
	stopMon     chan struct{}
	cleanup     func()
	log         *slog.Logger
	state       analysis.Cell[State]
	mu          sync.Mutex
	closeOnce   sync.Once
}

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

func initOto() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   playbackSampleRate,
			ChannelCount: playbackChannels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   60 * time.Millisecond,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

// Open decodes path and starts playback unless opts.Paused is set.
func Open(path string, opts Options) (*Player, error) {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	counter := &countingReader{reader: dec}
	st, err := newStream(dec, counter, opts.Tap)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	ctx, err := initOto()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("initializing audio output: %w", err)
	}

	bytesPerSec := int64(dec.SampleRate() * dec.ChannelCount() * 2)
	p := &Player{
		path:        path,
		title:       ReadMetadata(path).Label(),
		decoder:     dec,
		counter:     counter,
		stream:      st,
		otoCtx:      ctx,
		bytesPerSec: bytesPerSec,
		duration:    time.Duration(float64(dec.Length()) / float64(bytesPerSec) * float64(time.Second)),
		volume:      clampVolume(opts.Volume),
		paused:      true,
		canSeek:     true,
		done:        make(chan struct{}),
		stopMon:     make(chan struct{}),
		log:         log,
	}
	p.cleanup = func() {
		if p.otoPlayer != nil {
			p.otoPlayer.Pause()
			_ = p.otoPlayer.Close()
		}
		f.Close()
	}

	p.mu.Lock()
	p.restartOutput(!opts.Paused)
	p.publishLocked()
	p.mu.Unlock()

	log.Info("track opened", "path", path, "rate", dec.SampleRate(), "channels", dec.ChannelCount(), "duration", p.duration)

	go p.monitor()
	return p, nil
}

// restartOutput replaces the oto player so buffered audio is discarded.
// Caller holds p.mu.
func (p *Player) restartOutput(play bool) {
	p.paused = !play
	if p.otoCtx == nil {
		return
	}
	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
		_ = p.otoPlayer.Close()
	}
	p.otoPlayer = p.otoCtx.NewPlayer(p.stream)
	p.otoPlayer.SetVolume(p.volume)
	if play {
		p.otoPlayer.Play()
	}
}

func (p *Player) monitor() {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopMon:
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		if !p.paused && !p.ended && p.counter.Pos() >= p.decoder.Length() &&
			(p.otoPlayer == nil || p.otoPlayer.BufferedSize() == 0) {
			p.ended = true
			p.paused = true
			close(p.done)
			p.log.Info("track ended", "path", p.path)
		}
		p.publishLocked()
		p.mu.Unlock()
	}
}

// publishLocked stores the current transport state. Caller holds p.mu.
func (p *Player) publishLocked() {
	p.state.Store(State{
		Path:     p.path,
		Title:    p.title,
		Playing:  !p.paused,
		Ended:    p.ended,
		Position: p.positionLocked(),
		Duration: p.duration,
		Volume:   p.volume,
	})
}

// State returns the most recently published transport state.
func (p *Player) State() State { return p.state.Load() }

// Done returns a channel that closes when playback reaches the end.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Play resumes playback. An ended track restarts from the beginning.
func (p *Player) Play() {
	p.mu.Lock()
	ended := p.ended
	p.mu.Unlock()
	if ended {
		_ = p.SeekTo(0, true)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.otoPlayer != nil {
		p.otoPlayer.Play()
	}
	p.paused = false
	p.publishLocked()
}

// Pause pauses playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
	}
	if p.stream != nil {
		p.stream.silence()
	}
	p.paused = true
	p.publishLocked()
}

// TogglePause toggles between play and pause.
func (p *Player) TogglePause() {
	if p.Paused() {
		p.Play()
	} else {
		p.Pause()
	}
}

// Stop pauses and rewinds to the start.
func (p *Player) Stop() error {
	return p.SeekTo(0, false)
}

// Paused returns whether playback is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *Player) positionLocked() time.Duration {
	if p.bytesPerSec <= 0 || p.counter == nil {
		return 0
	}
	return time.Duration(p.counter.Pos()) * time.Second / time.Duration(p.bytesPerSec)
}

// clampSeekByteOffset converts a target time into a decoder byte offset
// inside [0, length], aligned down to a whole sample frame.
func clampSeekByteOffset(target time.Duration, bytesPerSec, length, frameSize int64) int64 {
	var pos int64
	switch off := target.Seconds() * float64(bytesPerSec); {
	case off >= float64(length):
		pos = length
	case off > 0:
		pos = int64(off)
	}
	if frameSize > 0 {
		pos -= pos % frameSize
	}
	return pos
}

// SeekTo moves playback to an absolute position. Playback continues only
// if resume is set.
func (p *Player) SeekTo(target time.Duration, resume bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.canSeek {
		return fmt.Errorf("track is not seekable")
	}
	frameSize := int64(p.decoder.ChannelCount() * 2)
	pos := clampSeekByteOffset(target, p.bytesPerSec, p.decoder.Length(), frameSize)
	if _, err := p.decoder.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to %s: %w", target, err)
	}
	p.counter.SetPos(pos)
	if p.stream != nil {
		p.stream.reset()
	}

	if p.ended {
		p.ended = false
		p.done = make(chan struct{})
	}
	p.restartOutput(resume)
	p.publishLocked()
	return nil
}

func clampVolume(v float64) float64 {
	return max(0, min(1, v))
}

// SetVolume sets volume (clamped to 0.0 - 1.0). Analysis sees the signal
// before volume is applied.
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = clampVolume(v)
	if p.otoPlayer != nil {
		p.otoPlayer.SetVolume(p.volume)
	}
	p.publishLocked()
}

// Close releases all resources. It is safe to call more than once.
func (p *Player) Close() {
	p.closeOnce.Do(func() {
		if p.stopMon != nil {
			close(p.stopMon)
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		p.paused = true
		if p.cleanup != nil {
			p.cleanup()
		}
	})
}
