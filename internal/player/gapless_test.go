package player

import (
	"bytes"
	"testing"
)

// lameFrame builds the start of an MP3 file: an optional ID3v2 tag, an
// MPEG-1 layer III stereo frame header and an Info tag carrying the given
// encoder delay and padding.
func lameFrame(id3Size int, delay, padding int) []byte {
	var b []byte
	if id3Size > 0 {
		b = append(b, 'I', 'D', '3', 4, 0, 0,
			byte(id3Size>>21&0x7f), byte(id3Size>>14&0x7f), byte(id3Size>>7&0x7f), byte(id3Size&0x7f))
		b = append(b, make([]byte, id3Size)...)
	}
	b = append(b, 0xff, 0xfb, 0x90, 0x64)
	b = append(b, make([]byte, 32)...)
	b = append(b, 'I', 'n', 'f', 'o', 0, 0, 0, 0)
	b = append(b, make([]byte, 21)...)
	b = append(b, byte(delay>>4), byte(delay&0x0f)<<4|byte(padding>>8), byte(padding))
	return append(b, make([]byte, 64)...)
}

func TestReadLAMETrim(t *testing.T) {
	for _, id3 := range []int{0, 300} {
		trim := readLAMETrim(bytes.NewReader(lameFrame(id3, 576, 1600)))
		if trim.lead != 1105 || trim.tail != 1071 {
			t.Fatalf("id3 %d: expected trim (1105, 1071), got (%d, %d)", id3, trim.lead, trim.tail)
		}
	}
}

func TestReadLAMETrimAbsent(t *testing.T) {
	if trim := readLAMETrim(bytes.NewReader(lameFrame(0, 0, 0))); trim != (lameTrim{}) {
		t.Fatalf("expected no trim for empty LAME fields, got %+v", trim)
	}
	if trim := readLAMETrim(bytes.NewReader([]byte("not an mp3 at all, just text"))); trim != (lameTrim{}) {
		t.Fatalf("expected no trim without a frame, got %+v", trim)
	}
}

func TestLAMETrimClampsShortPadding(t *testing.T) {
	trim := readLAMETrim(bytes.NewReader(lameFrame(0, 576, 100)))
	if trim.tail != 0 {
		t.Fatalf("expected padding below the synthesis delay to clamp to 0, got %d", trim.tail)
	}
}

func TestXingOffset(t *testing.T) {
	tests := []struct {
		name string
		hdr  []byte
		want int
	}{
		{"mpeg1 stereo", []byte{0xff, 0xfb, 0x90, 0x64}, 36},
		{"mpeg1 mono", []byte{0xff, 0xfb, 0x90, 0xc4}, 21},
		{"mpeg2 mono", []byte{0xff, 0xf3, 0x90, 0xc4}, 13},
		{"mpeg1 stereo crc", []byte{0xff, 0xfa, 0x90, 0x64}, 38},
	}
	for _, tt := range tests {
		got, err := xingOffset(tt.hdr)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: expected offset %d, got %d", tt.name, tt.want, got)
		}
	}

	if _, err := xingOffset([]byte{0xff, 0xfd, 0x90, 0x64}); err == nil {
		t.Fatal("expected layer II header to be rejected")
	}
}
