package kaiku_test

import (
	"math"
	"testing"

	"github.com/jhalonen/kaiku"
)

func TestNewSampleDropsPartialFrame(t *testing.T) {
	s := kaiku.NewSample(make([]float32, 5), 2, 44100)
	if s.Frames() != 2 {
		t.Errorf("Frames = %d, want 2", s.Frames())
	}
	if len(s.PCM()) != 4 {
		t.Errorf("PCM length = %d, want 4", len(s.PCM()))
	}
	if c := kaiku.NewSample(nil, 0, 44100).Channels(); c != 1 {
		t.Errorf("channels clamp = %d, want 1", c)
	}
}

func TestSampleDuration(t *testing.T) {
	s := kaiku.NewSample(make([]float32, 22050), 1, 44100)
	if d := s.Duration(); d != 0.5 {
		t.Errorf("Duration = %v, want 0.5", d)
	}
	if d := kaiku.NewSample(nil, 1, 0).Duration(); d != 0 {
		t.Errorf("zero-rate duration = %v", d)
	}
}

func TestSampleAtInterpolates(t *testing.T) {
	mono := kaiku.NewSample([]float32{0, 1, 2, 3}, 1, 44100)
	cases := []struct {
		pos  float64
		want float32
	}{
		{0, 0},
		{0.5, 0.5},
		{2.5, 2.5},
		{3, 3},
	}
	for _, c := range cases {
		l, r := mono.At(c.pos)
		if l != c.want || r != c.want {
			t.Errorf("At(%v) = (%v, %v), want %v on both channels", c.pos, l, r, c.want)
		}
	}
	if l, r := mono.At(-1); l != 0 || r != 0 {
		t.Error("negative position should be silent")
	}
	if l, r := mono.At(4); l != 0 || r != 0 {
		t.Error("position past the end should be silent")
	}

	stereo := kaiku.NewSample([]float32{0, 10, 1, 11, 2, 12}, 2, 44100)
	l, r := stereo.At(0.5)
	if l != 0.5 || r != 10.5 {
		t.Errorf("stereo At(0.5) = (%v, %v), want (0.5, 10.5)", l, r)
	}
}

func TestSampleLoopWraps(t *testing.T) {
	s := kaiku.NewSample([]float32{0, 1, 2, 3, 4, 5}, 1, 44100).WithLoop(2, 5)
	if !s.Looping() {
		t.Fatal("loop not set")
	}

	if l, _ := s.At(5); l != 2 {
		t.Errorf("At(loopEnd) = %v, want wrap to 2", l)
	}
	if l, _ := s.At(6); l != 3 {
		t.Errorf("At(6) = %v, want 3", l)
	}
	// Interpolation across the seam reads the loop start, not frame 5.
	if l, _ := s.At(4.5); l != 3 {
		t.Errorf("At(4.5) = %v, want 3", l)
	}
}

func TestSampleWithLoopRejectsBadRanges(t *testing.T) {
	for _, c := range [][2]int{{-1, 3}, {2, 2}, {3, 1}, {0, 100}} {
		s := kaiku.NewSample(make([]float32, 6), 1, 44100).WithLoop(c[0], c[1])
		if s.Looping() {
			t.Errorf("loop (%d, %d) should have been cleared", c[0], c[1])
		}
		if a, b := s.LoopRange(); a != 0 || b != 0 {
			t.Errorf("loop (%d, %d) left range (%d, %d)", c[0], c[1], a, b)
		}
	}
}

func TestSampleNormalized(t *testing.T) {
	s := kaiku.NewSample([]float32{0.5, -0.25}, 1, 44100)
	n := s.Normalized()
	if n.PCM()[0] != 1 || n.PCM()[1] != -0.5 {
		t.Errorf("normalized pcm = %v", n.PCM())
	}
	if s.PCM()[0] != 0.5 {
		t.Error("Normalized modified the original")
	}

	silent := kaiku.NewSample(make([]float32, 4), 1, 44100).Normalized()
	for _, v := range silent.PCM() {
		if v != 0 {
			t.Fatal("silence should normalize to silence")
		}
	}
}

func TestSampleReversed(t *testing.T) {
	s := kaiku.NewSample([]float32{0, 1, 2, 3, 4, 5}, 1, 44100).WithLoop(0, 2)
	r := s.Reversed()
	for i, want := range []float32{5, 4, 3, 2, 1, 0} {
		if r.PCM()[i] != want {
			t.Errorf("reversed pcm[%d] = %v, want %v", i, r.PCM()[i], want)
		}
	}
	if a, b := r.LoopRange(); a != 4 || b != 6 {
		t.Errorf("reversed loop = (%d, %d), want (4, 6)", a, b)
	}

	st := kaiku.NewSample([]float32{0, 10, 1, 11}, 2, 44100).Reversed()
	if st.PCM()[0] != 1 || st.PCM()[1] != 11 {
		t.Error("stereo frames should reverse as frames, not as samples")
	}
}

func TestSampleTimeStretched(t *testing.T) {
	s := kaiku.NewSample([]float32{0, 1, 2, 3}, 1, 44100).WithLoop(2, 4)

	d := s.TimeStretched(2)
	if d.Frames() != 8 {
		t.Fatalf("frames = %d, want 8", d.Frames())
	}
	// A linear ramp stays a linear ramp; in particular the endpoints survive.
	if d.PCM()[0] != 0 || d.PCM()[7] != 3 {
		t.Errorf("stretched endpoints = %v, %v", d.PCM()[0], d.PCM()[7])
	}
	step := 3.0 / 7.0
	for i, v := range d.PCM() {
		if math.Abs(float64(v)-float64(i)*step) > 1e-6 {
			t.Errorf("stretched pcm[%d] = %v, want %v", i, v, float64(i)*step)
		}
	}
	if a, b := d.LoopRange(); a != 4 || b != 8 {
		t.Errorf("stretched loop = (%d, %d), want (4, 8)", a, b)
	}

	h := s.TimeStretched(0.5)
	if h.Frames() != 2 || h.PCM()[0] != 0 || h.PCM()[1] != 3 {
		t.Errorf("half stretch = %v frames %v", h.Frames(), h.PCM())
	}

	if e := s.TimeStretched(0); e.Frames() != 0 {
		t.Error("non-positive factor should yield an empty sample")
	}
}
