package player

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// audioDecoder is implemented by all format-specific decoders. Read yields
// interleaved signed 16-bit little-endian PCM at the decoder's native rate
// and channel count; Length and Seek are in those output bytes.
type audioDecoder interface {
	io.ReadSeeker
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// newDecoder detects format by file extension and returns the appropriate decoder.
func newDecoder(f *os.File) (audioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(f.Name()))
	switch ext {
	case ".mp3":
		return newMP3Decoder(f)
	case ".wav":
		return newWAVDecoder(f)
	case ".flac":
		return newFLACDecoder(f)
	case ".ogg", ".oga":
		return newOGGDecoder(f)
	default:
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}
}

// pcmCursor tracks the output byte position of a frame-based decoder and
// holds decoded bytes the caller has not consumed yet.
type pcmCursor struct {
	buf       []byte
	pos       int64
	total     int64
	frameSize int64
}

// drain copies pending bytes into p.
func (c *pcmCursor) drain(p []byte) int {
	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	c.pos += int64(n)
	return n
}

// emit hands raw to the caller, keeping what does not fit.
func (c *pcmCursor) emit(p, raw []byte) int {
	n := copy(p, raw)
	if n < len(raw) {
		c.buf = raw[n:]
	}
	c.pos += int64(n)
	return n
}

// target resolves a Seek request to a clamped, frame-aligned byte offset
// and the sample frame it lands on.
func (c *pcmCursor) target(offset int64, whence int) (int64, int64) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = c.pos + offset
	case io.SeekEnd:
		pos = c.total + offset
	}
	pos = max(0, min(pos, c.total))
	pos -= pos % c.frameSize
	return pos, pos / c.frameSize
}

func (c *pcmCursor) moved(pos int64) {
	c.buf = nil
	c.pos = pos
}

func putSample16(dst []byte, v int) {
	v = max(-32768, min(32767, v))
	binary.LittleEndian.PutUint16(dst, uint16(int16(v)))
}

// --- MP3 decoder ---

// mp3Decoder exposes the decoded stream without the encoder's leading
// delay and trailing padding.
type mp3Decoder struct {
	dec    *mp3.Decoder
	cursor pcmCursor
	start  int64 // decoded bytes skipped at the front
}

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	trim := readLAMETrim(f)
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}

	const frameSize = 4
	d := &mp3Decoder{dec: dec, cursor: pcmCursor{total: dec.Length(), frameSize: frameSize}}
	if trimmed := dec.Length() - (trim.lead+trim.tail)*frameSize; trim.lead > 0 && trimmed > 0 {
		d.start = trim.lead * frameSize
		d.cursor.total = trimmed
		if _, err := dec.Seek(d.start, io.SeekStart); err != nil {
			return nil, fmt.Errorf("skipping MP3 encoder delay: %w", err)
		}
	}
	return d, nil
}

func (d *mp3Decoder) Read(p []byte) (int, error) {
	left := d.cursor.total - d.cursor.pos
	if left <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > left {
		p = p[:left]
	}
	n, err := d.dec.Read(p)
	d.cursor.pos += int64(n)
	return n, err
}

func (d *mp3Decoder) Seek(offset int64, whence int) (int64, error) {
	pos, _ := d.cursor.target(offset, whence)
	if _, err := d.dec.Seek(d.start+pos, io.SeekStart); err != nil {
		return d.cursor.pos, err
	}
	d.cursor.moved(pos)
	return pos, nil
}

func (d *mp3Decoder) Length() int64     { return d.cursor.total }
func (d *mp3Decoder) SampleRate() int   { return d.dec.SampleRate() }
func (d *mp3Decoder) ChannelCount() int { return 2 }

// --- WAV decoder ---

type wavDecoder struct {
	dec      *wav.Decoder
	cursor   pcmCursor
	pcm      *goaudio.IntBuffer
	pcmStart int64 // file offset of the first PCM byte
	srcFrame int64 // bytes per source frame
	left     int64 // source frames not yet decoded
	bitDepth int
	channels int
	rate     int
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("unsupported WAV encoding %d (PCM only)", dec.WavAudioFormat)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if channels < 1 || bitDepth%8 != 0 || bitDepth == 0 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported WAV layout: %d channels, %d bits", channels, bitDepth)
	}

	pcmStart, err := dec.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("getting PCM start position: %w", err)
	}

	srcFrame := int64(channels * bitDepth / 8)
	frames := dec.PCMLen() / srcFrame
	outFrame := int64(channels * 2)

	return &wavDecoder{
		dec: dec,
		cursor: pcmCursor{
			total:     frames * outFrame,
			frameSize: outFrame,
		},
		pcm: &goaudio.IntBuffer{
			Data:   make([]int, 4096*channels),
			Format: &goaudio.Format{NumChannels: channels, SampleRate: int(dec.SampleRate)},
		},
		pcmStart: pcmStart,
		srcFrame: srcFrame,
		left:     frames,
		bitDepth: bitDepth,
		channels: channels,
		rate:     int(dec.SampleRate),
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if len(d.cursor.buf) > 0 {
		return d.cursor.drain(p), nil
	}
	if d.left <= 0 {
		return 0, io.EOF
	}

	// PCMBuffer reads straight from the file, so bound it to the data chunk.
	want := min(int64(len(d.pcm.Data)/d.channels), d.left, int64(max(len(p)/2/d.channels, 1)))
	d.pcm.Data = d.pcm.Data[:want*int64(d.channels)]
	n, err := d.dec.PCMBuffer(d.pcm)
	d.pcm.Data = d.pcm.Data[:cap(d.pcm.Data)]
	if err != nil {
		return 0, fmt.Errorf("reading WAV samples: %w", err)
	}
	n -= n % d.channels
	if n == 0 {
		d.left = 0
		return 0, io.EOF
	}
	d.left -= int64(n / d.channels)

	raw := make([]byte, n*2)
	for i, v := range d.pcm.Data[:n] {
		switch {
		case d.bitDepth == 8:
			v = (v - 128) << 8
		case d.bitDepth > 16:
			v >>= d.bitDepth - 16
		}
		putSample16(raw[i*2:], v)
	}
	return d.cursor.emit(p, raw), nil
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	pos, frame := d.cursor.target(offset, whence)
	if _, err := d.dec.Seek(d.pcmStart+frame*d.srcFrame, io.SeekStart); err != nil {
		return d.cursor.pos, err
	}
	d.left = d.cursor.total/d.cursor.frameSize - frame
	d.cursor.moved(pos)
	return pos, nil
}

func (d *wavDecoder) Length() int64     { return d.cursor.total }
func (d *wavDecoder) SampleRate() int   { return d.rate }
func (d *wavDecoder) ChannelCount() int { return d.channels }

// --- FLAC decoder ---

type flacDecoder struct {
	stream   *flac.Stream
	cursor   pcmCursor
	rate     int
	channels int
	bps      int
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		stream: stream,
		cursor: pcmCursor{
			total:     int64(info.NSamples) * int64(channels) * 2,
			frameSize: int64(channels) * 2,
		},
		rate:     int(info.SampleRate),
		channels: channels,
		bps:      int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if len(d.cursor.buf) > 0 {
		return d.cursor.drain(p), nil
	}

	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	nSamples := int(frame.Subframes[0].NSamples)
	raw := make([]byte, nSamples*d.channels*2)
	for i := 0; i < nSamples; i++ {
		for ch := 0; ch < d.channels; ch++ {
			sample := int(frame.Subframes[ch].Samples[i])
			switch {
			case d.bps > 16:
				sample >>= d.bps - 16
			case d.bps < 16:
				sample <<= 16 - d.bps
			}
			putSample16(raw[(i*d.channels+ch)*2:], sample)
		}
	}
	return d.cursor.emit(p, raw), nil
}

func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	pos, frame := d.cursor.target(offset, whence)
	if _, err := d.stream.Seek(uint64(frame)); err != nil {
		return d.cursor.pos, err
	}
	d.cursor.moved(pos)
	return pos, nil
}

func (d *flacDecoder) Length() int64     { return d.cursor.total }
func (d *flacDecoder) SampleRate() int   { return d.rate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

// --- OGG Vorbis decoder ---

type oggDecoder struct {
	reader  *oggvorbis.Reader
	cursor  pcmCursor
	samples []float32
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}

	channels := int64(reader.Channels())
	return &oggDecoder{
		reader: reader,
		cursor: pcmCursor{
			total:     reader.Length() * channels * 2,
			frameSize: channels * 2,
		},
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if len(d.cursor.buf) > 0 {
		return d.cursor.drain(p), nil
	}

	want := max(len(p)/2, d.reader.Channels())
	if cap(d.samples) < want {
		d.samples = make([]float32, want)
	}
	n, err := d.reader.Read(d.samples[:want])
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	raw := make([]byte, n*2)
	for i, s := range d.samples[:n] {
		putSample16(raw[i*2:], int(max(-1, min(1, s))*32767))
	}
	return d.cursor.emit(p, raw), err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	pos, frame := d.cursor.target(offset, whence)
	if err := d.reader.SetPosition(frame); err != nil {
		return d.cursor.pos, err
	}
	d.cursor.moved(pos)
	return pos, nil
}

func (d *oggDecoder) Length() int64     { return d.cursor.total }
func (d *oggDecoder) SampleRate() int   { return d.reader.SampleRate() }
func (d *oggDecoder) ChannelCount() int { return d.reader.Channels() }
