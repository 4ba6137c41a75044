package spectrum

import "sync"

// Ring is a thread-safe circular buffer of mono samples. Writers append
// decoded or captured audio; the analyser reads the most recent window.
type Ring struct {
	buf  []float32
	size int
	w    int // write position
	len  int // current fill level
	mu   sync.Mutex
}

// NewRing creates a ring holding up to size samples.
func NewRing(size int) *Ring {
	return &Ring{
		buf:  make([]float32, size),
		size: size,
	}
}

// Write appends samples, overwriting the oldest when full.
func (r *Ring) Write(p []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(p) > r.size {
		p = p[len(p)-r.size:]
	}
	for _, v := range p {
		r.buf[r.w] = v
		r.w = (r.w + 1) % r.size
	}
	r.len += len(p)
	if r.len > r.size {
		r.len = r.size
	}
}

// Latest copies the most recent samples into dst in playback order and
// returns how many were written. Fewer than len(dst) are returned while
// the ring is still filling.
func (r *Ring) Latest(dst []float32) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := min(len(dst), r.len)
	start := (r.w - n + r.size) % r.size
	for i := range n {
		dst[i] = r.buf[(start+i)%r.size]
	}
	return n
}

// Clear drops all buffered samples.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w = 0
	r.len = 0
}
