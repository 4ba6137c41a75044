// Package capture records the default microphone through an ffmpeg
// subprocess and exposes the most recent samples to the analyser.
package capture

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/olivier-w/orb/internal/spectrum"
)

// ErrUnsupportedPlatform is returned when no capture backend is known for
// the running OS and none was configured.
var ErrUnsupportedPlatform = errors.New("no microphone backend for this platform")

// DeniedMessage is the human-readable cause shown when capture fails.
const DeniedMessage = "Microphone access was denied or no input device is available. Check your system's audio permissions and input device."

// Config selects the capture device. Zero values pick the platform default.
type Config struct {
	Format     string `toml:"format"` // ffmpeg input format, e.g. pulse, alsa, avfoundation
	Device     string `toml:"device"`
	SampleRate int    `toml:"sample_rate"`
	FFmpeg     string `toml:"ffmpeg"` // path to the ffmpeg binary

	Log *slog.Logger `toml:"-"`
}

// DefaultSampleRate matches the playback path so band layouts mean the same
// frequencies for both sources.
const DefaultSampleRate = 48000

// ringSeconds sizes the sample ring; the analyser only needs one window.
const ringSeconds = 1

// startupGrace is how long a freshly started capture must stay alive
// before Start reports success.
const startupGrace = 300 * time.Millisecond

// Error wraps a capture failure with the message shown to the user.
type Error struct {
	Err error
}

func (e *Error) Error() string { return DeniedMessage + " (" + e.Err.Error() + ")" }
func (e *Error) Unwrap() error { return e.Err }

// Microphone is a running capture. It implements spectrum.Input.
type Microphone struct {
	cmd      *exec.Cmd
	stdout   io.ReadCloser
	stderr   *tailBuffer
	ring     *spectrum.Ring
	log      *slog.Logger
	waitDone chan struct{}
	waitErr  error

	closeOnce sync.Once
	closing   chan struct{}
}

// inputArgs resolves the ffmpeg input format and device for goos.
func inputArgs(cfg Config, goos string) (string, string, error) {
	format, device := cfg.Format, cfg.Device
	if format == "" {
		switch goos {
		case "linux":
			format = "pulse"
		case "darwin":
			format = "avfoundation"
		case "windows":
			format = "dshow"
		default:
			return "", "", fmt.Errorf("%s: %w", goos, ErrUnsupportedPlatform)
		}
	}
	if device == "" {
		switch format {
		case "pulse", "alsa":
			device = "default"
		case "avfoundation":
			device = ":default"
		default:
			return "", "", fmt.Errorf("input format %s needs a device: %w", format, ErrUnsupportedPlatform)
		}
	}
	return format, device, nil
}

// commandArgs builds the ffmpeg argument list for a mono float32 capture.
func commandArgs(format, device string, rate int) []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-f", format,
		"-i", device,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(rate),
		"-f", "f32le",
		"pipe:1",
	}
}

// Start launches capture. It fails if ffmpeg is missing, the device cannot
// be opened, or the process exits during startup.
func Start(ctx context.Context, cfg Config) (*Microphone, error) {
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}

	format, device, err := inputArgs(cfg, runtime.GOOS)
	if err != nil {
		return nil, &Error{Err: err}
	}

	bin := cfg.FFmpeg
	if bin == "" {
		bin = "ffmpeg"
	}
	ffmpeg, err := exec.LookPath(bin)
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("ffmpeg not found (required for microphone input): %w", err)}
	}

	cmd := exec.CommandContext(ctx, ffmpeg, commandArgs(format, device, rate)...)
	cmd.Stdin = nil
	stderr := &tailBuffer{limit: 512}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("setting up ffmpeg capture: %w", err)}
	}
	if err := cmd.Start(); err != nil {
		return nil, &Error{Err: fmt.Errorf("starting ffmpeg capture: %w", err)}
	}

	m := &Microphone{
		cmd:      cmd,
		stdout:   stdout,
		stderr:   stderr,
		ring:     spectrum.NewRing(rate * ringSeconds),
		log:      log,
		waitDone: make(chan struct{}),
		closing:  make(chan struct{}),
	}
	go m.pump()
	go func() {
		m.waitErr = cmd.Wait()
		close(m.waitDone)
	}()

	select {
	case <-m.waitDone:
		return nil, &Error{Err: m.exitError()}
	case <-time.After(startupGrace):
	}

	log.Info("microphone capture started", "format", format, "device", device, "rate", rate)
	return m, nil
}

func (m *Microphone) pump() {
	err := pumpSamples(m.stdout, m.ring)
	select {
	case <-m.closing:
	default:
		if err != nil && !errors.Is(err, io.EOF) {
			m.log.Warn("microphone stream ended", "err", err)
		}
	}
}

// pumpSamples decodes little-endian float32 samples from r into ring until
// r fails.
func pumpSamples(r io.Reader, ring *spectrum.Ring) error {
	br := bufio.NewReaderSize(r, 16*1024)
	raw := make([]byte, 4096)
	samples := make([]float32, len(raw)/4)
	var carry int
	for {
		n, err := br.Read(raw[carry:])
		n += carry
		whole := n / 4
		for i := range whole {
			samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		if whole > 0 {
			ring.Write(samples[:whole])
		}
		carry = copy(raw, raw[whole*4:n])
		if err != nil {
			return err
		}
	}
}

func (m *Microphone) exitError() error {
	msg := strings.TrimSpace(m.stderr.String())
	if msg == "" {
		msg = "capture process exited"
	}
	if m.waitErr != nil {
		return fmt.Errorf("%s: %w", msg, m.waitErr)
	}
	return errors.New(msg)
}

// Latest copies the most recent captured samples into dst.
func (m *Microphone) Latest(dst []float32) int { return m.ring.Latest(dst) }

// Done is closed when the capture process exits.
func (m *Microphone) Done() <-chan struct{} { return m.waitDone }

// Err reports why capture stopped, or nil while it is running or after
// Close.
func (m *Microphone) Err() error {
	select {
	case <-m.waitDone:
	default:
		return nil
	}
	select {
	case <-m.closing:
		return nil
	default:
	}
	return &Error{Err: m.exitError()}
}

// Close stops capture and waits for the process to exit.
func (m *Microphone) Close() error {
	m.closeOnce.Do(func() {
		close(m.closing)
		if m.stdout != nil {
			_ = m.stdout.Close()
		}
		if m.cmd != nil && m.cmd.Process != nil {
			_ = m.cmd.Process.Kill()
		}
		<-m.waitDone
		m.ring.Clear()
		m.log.Info("microphone capture stopped")
	})
	return nil
}

var _ spectrum.Input = (*Microphone)(nil)

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
