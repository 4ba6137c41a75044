package offline

import (
	"encoding/json"
	"fmt"
	"io"
)

// TextWriter renders frames as aligned columns.
func TextWriter(w io.Writer) func(Frame) error {
	header := false
	return func(f Frame) error {
		if !header {
			header = true
			if _, err := fmt.Fprintln(w, "frame      t   bass   mids treble   peak  dist  bloom   rot  events"); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "%5d %6.2f %6.3f %6.3f %6.3f %6.3f %5.2f %6.3f %5.2f  %s\n",
			f.Index, f.Seconds,
			f.Audio.Bass, f.Audio.Mids, f.Audio.Treble, f.Audio.NormalizedPeak,
			f.Parameters.Distortion, f.Parameters.Bloom, f.Parameters.RotationSpeed,
			eventLabel(f))
		return err
	}
}

func eventLabel(f Frame) string {
	ev := f.Parameters.Events
	switch {
	case ev.Beat && ev.Transient:
		return "beat+transient"
	case ev.Beat:
		return "beat"
	case ev.Transient:
		return "transient"
	default:
		return "-"
	}
}

// JSONWriter emits one JSON object per line.
func JSONWriter(w io.Writer) func(Frame) error {
	enc := json.NewEncoder(w)
	return func(f Frame) error { return enc.Encode(f) }
}
