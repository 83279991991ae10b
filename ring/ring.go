// Package ring implements a fixed-size single-producer single-consumer
// lock-free ring buffer for float32 audio samples. It is the hand-off
// between a streaming decoder goroutine (the producer) and the audio
// callback (the consumer); neither side ever blocks on the other.
package ring

import (
	"sync/atomic"
)

// Buffer is a power-of-two sized SPSC ring. The zero value is not usable;
// use New. TryWrite may only be called from one goroutine at a time, and
// TryRead from one goroutine at a time, but the two sides may run
// concurrently.
type Buffer struct {
	buf  []float32
	mask uint64
	head atomic.Uint64 // advanced only by the consumer
	tail atomic.Uint64 // advanced only by the producer
}

// New returns a Buffer holding at least minCapacity samples, rounded up to
// the next power of two.
func New(minCapacity int) *Buffer {
	if minCapacity < 2 {
		minCapacity = 2
	}
	c := nextPowerOfTwo(uint64(minCapacity))
	return &Buffer{buf: make([]float32, c), mask: c - 1}
}

// Cap returns the total sample capacity of the buffer.
func (b *Buffer) Cap() int { return len(b.buf) }

// Len returns the number of samples currently readable.
func (b *Buffer) Len() int {
	return int(b.tail.Load() - b.head.Load())
}

// Free returns the number of samples currently writable.
func (b *Buffer) Free() int {
	return len(b.buf) - b.Len()
}

// TryWrite copies as many samples from src into the ring as fit and returns
// how many were written. It never blocks.
func (b *Buffer) TryWrite(src []float32) int {
	tail := b.tail.Load()
	head := b.head.Load()
	free := uint64(len(b.buf)) - (tail - head)
	n := uint64(len(src))
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}
	start := tail & b.mask
	first := uint64(len(b.buf)) - start
	if first > n {
		first = n
	}
	copy(b.buf[start:start+first], src[:first])
	copy(b.buf[:n-first], src[first:n])
	b.tail.Store(tail + n)
	return int(n)
}

// TryRead copies up to len(dst) samples out of the ring and returns how
// many were read. It never blocks.
func (b *Buffer) TryRead(dst []float32) int {
	tail := b.tail.Load()
	head := b.head.Load()
	avail := tail - head
	n := uint64(len(dst))
	if n > avail {
		n = avail
	}
	if n == 0 {
		return 0
	}
	start := head & b.mask
	first := uint64(len(b.buf)) - start
	if first > n {
		first = n
	}
	copy(dst[:first], b.buf[start:start+first])
	copy(dst[first:n], b.buf[:n-first])
	b.head.Store(head + n)
	return int(n)
}

func nextPowerOfTwo(v uint64) uint64 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	return v + 1
}
