package player

import (
	"encoding/binary"
	"errors"
	"io"
)

// mp3SynthDelay is the fixed delay of the MPEG layer III synthesis
// filterbank, in samples.
const mp3SynthDelay = 529

// lameTrim is the silence an encoder added around the audio, in sample
// frames.
type lameTrim struct {
	lead, tail int64
}

// readLAMETrim reads encoder delay and padding from the Xing/Info header
// of the first frame. Files without one, or that cannot be read, yield a
// zero trim.
func readLAMETrim(r io.ReaderAt) lameTrim {
	start, err := skipID3Tag(r)
	if err != nil {
		return lameTrim{}
	}
	var hdr [4]byte
	if _, err := r.ReadAt(hdr[:], start); err != nil {
		return lameTrim{}
	}
	skip, err := xingOffset(hdr[:])
	if err != nil {
		return lameTrim{}
	}

	buf := make([]byte, 256)
	n, err := r.ReadAt(buf, start+int64(skip))
	if err != nil && !errors.Is(err, io.EOF) {
		return lameTrim{}
	}
	trim, _ := parseLAMETag(buf[:n])
	return trim
}

// skipID3Tag returns the offset just past a leading ID3v2 tag.
func skipID3Tag(r io.ReaderAt) (int64, error) {
	var hdr [10]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return 0, err
	}
	if string(hdr[:3]) != "ID3" {
		return 0, nil
	}
	size := int64(hdr[6]&0x7f)<<21 | int64(hdr[7]&0x7f)<<14 | int64(hdr[8]&0x7f)<<7 | int64(hdr[9]&0x7f)
	if hdr[5]&0x10 != 0 {
		size += 10 // footer
	}
	return 10 + size, nil
}

// xingOffset returns where the Xing/Info tag starts relative to the frame
// header: past the header, the optional CRC and the side information.
func xingOffset(hdr []byte) (int, error) {
	h := binary.BigEndian.Uint32(hdr)
	if h>>21 != 0x7ff {
		return 0, errors.New("no frame sync")
	}
	version := (h >> 19) & 0x3
	layer := (h >> 17) & 0x3
	if layer != 0x1 {
		return 0, errors.New("not layer III")
	}
	if version == 0x1 {
		return 0, errors.New("reserved MPEG version")
	}

	mpeg1 := version == 0x3
	mono := (h>>6)&0x3 == 0x3
	side := 17
	switch {
	case mpeg1 && !mono:
		side = 32
	case !mpeg1 && mono:
		side = 9
	}
	off := 4 + side
	if (h>>16)&0x1 == 0 {
		off += 2
	}
	return off, nil
}

// parseLAMETag decodes the delay and padding fields of a Xing/Info tag
// with a LAME extension.
func parseLAMETag(b []byte) (lameTrim, bool) {
	if len(b) < 8 {
		return lameTrim{}, false
	}
	if tag := string(b[:4]); tag != "Xing" && tag != "Info" {
		return lameTrim{}, false
	}
	flags := binary.BigEndian.Uint32(b[4:8])
	off := 8
	for _, f := range []struct {
		bit  uint32
		size int
	}{{0x1, 4}, {0x2, 4}, {0x4, 100}, {0x8, 4}} {
		if flags&f.bit != 0 {
			off += f.size
		}
	}
	if len(b) < off+24 {
		return lameTrim{}, false
	}

	d := b[off+21 : off+24]
	delay := int64(d[0])<<4 | int64(d[1]>>4)
	padding := int64(d[1]&0x0f)<<8 | int64(d[2])
	if delay == 0 && padding == 0 {
		return lameTrim{}, false
	}
	return lameTrim{
		lead: delay + mp3SynthDelay,
		tail: max(padding-mp3SynthDelay, 0),
	}, true
}
