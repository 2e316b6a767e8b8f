package meter

import "time"

// Sample is one point of the APM trend history, recorded once per tick.
type Sample struct {
	At  time.Time `json:"at"`
	APM int       `json:"apm"`
}

// Ring is a fixed-capacity FIFO of Samples. When full, pushing a new
// sample evicts the oldest one. Samples are appended in tick order, so
// timestamps are monotonically increasing.
type Ring struct {
	buf  []Sample
	head int // index of the oldest sample
	n    int
}

// NewRing returns a Ring holding at most capacity samples.
// A capacity below 1 is treated as 1.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]Sample, capacity)}
}

// Push appends s, evicting the oldest sample if the ring is full.
func (r *Ring) Push(s Sample) {
	if r.n < len(r.buf) {
		r.buf[(r.head+r.n)%len(r.buf)] = s
		r.n++
		return
	}
	r.buf[r.head] = s
	r.head = (r.head + 1) % len(r.buf)
}

// Len returns the number of samples currently held.
func (r *Ring) Len() int { return r.n }

// Cap returns the fixed capacity of the ring.
func (r *Ring) Cap() int { return len(r.buf) }

// Samples returns a copy of the held samples, oldest first.
func (r *Ring) Samples() []Sample {
	out := make([]Sample, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Values returns just the APM values, oldest first.
func (r *Ring) Values() []int {
	out := make([]int, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)].APM
	}
	return out
}

// Reset discards all samples while keeping the capacity.
func (r *Ring) Reset() {
	r.head = 0
	r.n = 0
}
