package player

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/ik5/audpbx/audio"
)

const (
	playbackSampleRate = 48000
	playbackChannels   = 2
	playbackFrameSize  = playbackChannels * 4 // float32 samples
)

// Sink receives the mono mix of everything handed to the output device.
// Clear is called whenever output stops or jumps, so a stale window is not
// analysed as if it were still playing.
type Sink interface {
	Write(samples []float32)
	Clear()
}

// countingReader wraps an io.Reader and tracks bytes read.
type countingReader struct {
	reader io.Reader
	pos    int64
	mu     sync.Mutex
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.mu.Lock()
	cr.pos += int64(n)
	cr.mu.Unlock()
	return n, err
}

func (cr *countingReader) Pos() int64 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.pos
}

func (cr *countingReader) SetPos(pos int64) {
	cr.mu.Lock()
	cr.pos = pos
	cr.mu.Unlock()
}

// pcmSource presents 16-bit interleaved PCM as an audpbx source so the
// resampler can consume it.
type pcmSource struct {
	r        io.Reader
	rate     int
	channels int
	raw      []byte
	closer   io.Closer
}

func (s *pcmSource) SampleRate() int { return s.rate }
func (s *pcmSource) Channels() int   { return s.channels }
func (s *pcmSource) BufSize() int    { return 4096 }

func (s *pcmSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *pcmSource) ReadSamples(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(s.raw) < need {
		s.raw = make([]byte, need)
	}
	n, err := io.ReadFull(s.r, s.raw[:need])
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	samples := n / 2
	for i := range samples {
		dst[i] = float32(int16(binary.LittleEndian.Uint16(s.raw[i*2:]))) / 32768
	}
	return samples, err
}

// OpenSource decodes path with the playback decoders and presents it as an
// audpbx source at its native rate and channel count.
func OpenSource(path string) (audio.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &pcmSource{r: dec, rate: dec.SampleRate(), channels: dec.ChannelCount(), closer: f}, nil
}

// stream is the reader handed to oto. It pulls decoded audio through the
// resampler, feeds the tap and encodes 48 kHz stereo float32.
type stream struct {
	mu      sync.Mutex
	counter *countingReader
	rate    int
	chans   int
	src     audio.Source
	tap     Sink
	buf     []float32
	mono    []float32
}

func newStream(dec audioDecoder, counter *countingReader, tap Sink) (*stream, error) {
	if dec.SampleRate() <= 0 {
		return nil, fmt.Errorf("unsupported sample rate: %d", dec.SampleRate())
	}
	if dec.ChannelCount() < 1 {
		return nil, fmt.Errorf("unsupported channel count: %d", dec.ChannelCount())
	}
	s := &stream{
		counter: counter,
		rate:    dec.SampleRate(),
		chans:   dec.ChannelCount(),
		tap:     tap,
	}
	s.reset()
	return s, nil
}

// reset drops resampler state. Call after the decoder has been moved.
func (s *stream) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var src audio.Source = &pcmSource{r: s.counter, rate: s.rate, channels: s.chans}
	if s.rate != playbackSampleRate {
		src = audio.NewResampler(src, playbackSampleRate)
	}
	s.src = src
	if s.tap != nil {
		s.tap.Clear()
	}
}

// silence drops what the tap holds. It waits for an in-flight Read.
func (s *stream) silence() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tap != nil {
		s.tap.Clear()
	}
}

func (s *stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(p) / playbackFrameSize
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}
	need := frames * s.chans
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}
	if cap(s.mono) < frames {
		s.mono = make([]float32, frames)
	}
	s.buf, s.mono = s.buf[:need], s.mono[:frames]

	n, err := s.src.ReadSamples(s.buf)
	got := n / s.chans
	if got == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	for f := range got {
		frame := s.buf[f*s.chans : (f+1)*s.chans]
		left, right := frame[0], frame[0]
		if s.chans > 1 {
			right = frame[1]
		}
		var sum float32
		for _, v := range frame {
			sum += v
		}
		s.mono[f] = sum / float32(s.chans)

		binary.LittleEndian.PutUint32(p[f*playbackFrameSize:], math.Float32bits(left))
		binary.LittleEndian.PutUint32(p[f*playbackFrameSize+4:], math.Float32bits(right))
	}
	if s.tap != nil {
		s.tap.Write(s.mono[:got])
	}
	return got * playbackFrameSize, err
}
