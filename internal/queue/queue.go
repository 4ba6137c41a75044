package queue

// Track is a single playlist entry.
type Track struct {
	Title string
	Path  string
}

// Queue is an ordered playlist with a current position. Navigation wraps
// at both ends. It is not safe for concurrent use; the session serializes
// access.
type Queue struct {
	tracks  []Track
	current int // -1 when nothing is selected
}

// New creates a Queue from the given tracks. The first track, if any, is
// current.
func New(tracks []Track) *Queue {
	q := &Queue{current: -1}
	q.Append(tracks...)
	return q
}

// Append adds tracks to the end. If nothing was selected, the first new
// track becomes current. It reports whether the current track changed.
func (q *Queue) Append(tracks ...Track) bool {
	first := len(q.tracks)
	q.tracks = append(q.tracks, tracks...)
	if q.current == -1 && len(tracks) > 0 {
		q.current = first
		return true
	}
	return false
}

// Current returns a pointer to the current track, or nil if none.
func (q *Queue) Current() *Track {
	return q.Track(q.current)
}

// Track returns a pointer to the track at the given index, or nil if out of range.
func (q *Queue) Track(i int) *Track {
	if i < 0 || i >= len(q.tracks) {
		return nil
	}
	return &q.tracks[i]
}

// Tracks returns a copy of the playlist.
func (q *Queue) Tracks() []Track {
	out := make([]Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

// CurrentIndex returns the zero-based index of the current track, or -1.
func (q *Queue) CurrentIndex() int {
	return q.current
}

// Select makes track i current. Out-of-range indices are ignored.
func (q *Queue) Select(i int) bool {
	if i < 0 || i >= len(q.tracks) {
		return false
	}
	q.current = i
	return true
}

// Next moves to the following track, wrapping to the first.
func (q *Queue) Next() bool {
	if len(q.tracks) == 0 {
		return false
	}
	q.current = (q.current + 1) % len(q.tracks)
	return true
}

// Previous moves to the preceding track, wrapping to the last.
func (q *Queue) Previous() bool {
	n := len(q.tracks)
	if n == 0 {
		return false
	}
	q.current = (q.current - 1 + n) % n
	return true
}

// Remove deletes the track at i and reports whether the current track
// changed. Removing the current track selects the one that slides into
// its place, or the new last track; emptying the queue leaves nothing
// selected.
func (q *Queue) Remove(i int) (removed, currentChanged bool) {
	if i < 0 || i >= len(q.tracks) {
		return false, false
	}
	q.tracks = append(q.tracks[:i], q.tracks[i+1:]...)

	switch {
	case i == q.current:
		if len(q.tracks) == 0 {
			q.current = -1
		} else {
			q.current = min(q.current, len(q.tracks)-1)
		}
		return true, true
	case i < q.current:
		q.current--
	}
	return true, false
}

// Move relocates the track at from to index to. The current track stays
// current wherever it lands.
func (q *Queue) Move(from, to int) bool {
	n := len(q.tracks)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return false
	}
	t := q.tracks[from]
	q.tracks = append(q.tracks[:from], q.tracks[from+1:]...)
	q.tracks = append(q.tracks[:to], append([]Track{t}, q.tracks[to:]...)...)

	switch {
	case q.current == from:
		q.current = to
	case from < q.current && to >= q.current:
		q.current--
	case from > q.current && to <= q.current:
		q.current++
	}
	return true
}
