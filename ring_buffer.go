package main

import (
	"sync"
)

// RingBuffer is a thread-safe circular buffer of mono float32 PCM samples
// waiting to be played. The audio callback reads from it; Play writes.
// When full, the oldest samples are overwritten: a burst of removals
// should cut the tail of an old poof, never stall the event loop.
type RingBuffer struct {
	mu   sync.Mutex
	buf  []float32
	cap  int
	head int // index of next write position
	len  int // number of valid samples
}

// NewRingBuffer creates a new RingBuffer with the given capacity (in samples).
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		buf: make([]float32, capacity),
		cap: capacity,
	}
}

// Write appends samples to the ring buffer. If the buffer would overflow,
// the oldest samples are dropped to make room.
func (rb *RingBuffer) Write(samples []float32) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for _, s := range samples {
		rb.buf[rb.head] = s
		rb.head = (rb.head + 1) % rb.cap
		if rb.len < rb.cap {
			rb.len++
		}
	}
}

// Read moves up to len(out) of the oldest samples into out and returns
// how many were copied. It never blocks: the audio callback must not.
func (rb *RingBuffer) Read(out []float32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(out)
	if n > rb.len {
		n = rb.len
	}
	start := (rb.head - rb.len + rb.cap) % rb.cap
	for i := 0; i < n; i++ {
		out[i] = rb.buf[(start+i)%rb.cap]
	}
	rb.len -= n
	return n
}

// Reset discards everything queued.
func (rb *RingBuffer) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.head = 0
	rb.len = 0
}

// Len returns the number of samples currently held in the buffer.
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.len
}
