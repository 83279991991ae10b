package ring_test

import (
	"testing"

	"github.com/jhalonen/kaiku/ring"
)

func TestCapacityRoundsUpToPowerOfTwo(t *testing.T) {
	for _, tc := range []struct {
		min, want int
	}{
		{1, 2},
		{2, 2},
		{3, 4},
		{1000, 1024},
		{1024, 1024},
		{441001, 524288},
	} {
		b := ring.New(tc.min)
		if b.Cap() != tc.want {
			t.Errorf("New(%d).Cap() = %d, want %d", tc.min, b.Cap(), tc.want)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	b := ring.New(8)
	src := []float32{1, 2, 3, 4, 5}
	if n := b.TryWrite(src); n != 5 {
		t.Fatalf("TryWrite wrote %d, want 5", n)
	}
	if b.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", b.Len())
	}
	dst := make([]float32, 5)
	if n := b.TryRead(dst); n != 5 {
		t.Fatalf("TryRead read %d, want 5", n)
	}
	for i, v := range src {
		if dst[i] != v {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], v)
		}
	}
	if n := b.TryRead(dst); n != 0 {
		t.Errorf("TryRead on empty ring read %d, want 0", n)
	}
}

func TestPartialWriteWhenFull(t *testing.T) {
	b := ring.New(4) // capacity 4
	n := b.TryWrite([]float32{1, 2, 3, 4, 5, 6})
	if n != 4 {
		t.Fatalf("TryWrite wrote %d, want 4", n)
	}
	if n := b.TryWrite([]float32{7}); n != 0 {
		t.Fatalf("TryWrite on full ring wrote %d, want 0", n)
	}
	dst := make([]float32, 2)
	b.TryRead(dst)
	if n := b.TryWrite([]float32{7, 8, 9}); n != 2 {
		t.Fatalf("TryWrite after partial drain wrote %d, want 2", n)
	}
}

func TestOrderPreservedAcrossWrap(t *testing.T) {
	b := ring.New(8)
	next := float32(0)
	expect := float32(0)
	dst := make([]float32, 3)
	for round := 0; round < 100; round++ {
		src := make([]float32, 5)
		for i := range src {
			src[i] = next
			next++
		}
		written := b.TryWrite(src)
		next -= float32(len(src) - written) // unwritten samples get resent
		for b.Len() > 3 {
			n := b.TryRead(dst)
			for i := 0; i < n; i++ {
				if dst[i] != expect {
					t.Fatalf("round %d: read %v, want %v", round, dst[i], expect)
				}
				expect++
			}
		}
	}
}

func TestConcurrentProducerConsumer(t *testing.T) {
	b := ring.New(64)
	const total = 100000
	done := make(chan struct{})
	go func() {
		defer close(done)
		v := float32(0)
		buf := make([]float32, 17)
		for int(v) < total {
			n := 0
			for n < len(buf) && int(v) < total {
				buf[n] = v
				v++
				n++
			}
			sent := 0
			for sent < n {
				sent += b.TryWrite(buf[sent:n])
			}
		}
	}()
	expect := float32(0)
	dst := make([]float32, 13)
	for int(expect) < total {
		n := b.TryRead(dst)
		for i := 0; i < n; i++ {
			if dst[i] != expect {
				t.Fatalf("read %v, want %v", dst[i], expect)
			}
			expect++
		}
	}
	<-done
	if b.Len() != 0 {
		t.Errorf("ring not empty after draining: %d", b.Len())
	}
}
