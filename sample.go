package kaiku

import "math"

// Sample is decoded PCM audio held in memory, interleaved float32 at its
// source sample rate. The zero loop (0, 0) means the sample plays once;
// otherwise playback wraps from LoopEnd back to LoopStart.
type Sample struct {
	pcm       []float32
	channels  int
	rate      int
	loopStart int
	loopEnd   int
}

// NewSample wraps interleaved PCM data. Channels is clamped to at least 1;
// a trailing partial frame is dropped.
func NewSample(pcm []float32, channels, rate int) *Sample {
	if channels < 1 {
		channels = 1
	}
	frames := len(pcm) / channels
	return &Sample{pcm: pcm[:frames*channels], channels: channels, rate: rate}
}

// WithLoop marks the frame range [start, end) as the loop region. Invalid
// ranges clear the loop.
func (s *Sample) WithLoop(start, end int) *Sample {
	if start < 0 || end <= start || end > s.Frames() {
		s.loopStart, s.loopEnd = 0, 0
		return s
	}
	s.loopStart, s.loopEnd = start, end
	return s
}

func (s *Sample) Channels() int   { return s.channels }
func (s *Sample) SampleRate() int { return s.rate }
func (s *Sample) PCM() []float32  { return s.pcm }
func (s *Sample) Looping() bool   { return s.loopEnd > s.loopStart }

// LoopRange returns the loop region in frames, (0, 0) when not looping.
func (s *Sample) LoopRange() (start, end int) { return s.loopStart, s.loopEnd }

// Frames returns the number of sample frames.
func (s *Sample) Frames() int {
	if s.channels == 0 {
		return 0
	}
	return len(s.pcm) / s.channels
}

// Duration returns the playing time in seconds at the source rate, ignoring
// the loop.
func (s *Sample) Duration() float64 {
	if s.rate == 0 {
		return 0
	}
	return float64(s.Frames()) / float64(s.rate)
}

// At reads the sample at a fractional frame position with linear
// interpolation. Looping samples wrap the position into the loop region;
// one-shot samples return silence past the end. Mono samples are duplicated
// to both channels.
func (s *Sample) At(pos float64) (l, r float32) {
	frames := s.Frames()
	if frames == 0 || pos < 0 {
		return 0, 0
	}
	if s.Looping() && pos >= float64(s.loopEnd) {
		span := float64(s.loopEnd - s.loopStart)
		pos = float64(s.loopStart) + math.Mod(pos-float64(s.loopStart), span)
	}
	if pos >= float64(frames) {
		return 0, 0
	}
	i := int(pos)
	frac := float32(pos - float64(i))
	j := i + 1
	if s.Looping() && j >= s.loopEnd {
		j = s.loopStart
	}
	if j >= frames {
		j = frames - 1
	}
	if s.channels == 1 {
		v := s.pcm[i] + (s.pcm[j]-s.pcm[i])*frac
		return v, v
	}
	li, ri := s.pcm[i*s.channels], s.pcm[i*s.channels+1]
	lj, rj := s.pcm[j*s.channels], s.pcm[j*s.channels+1]
	return li + (lj-li)*frac, ri + (rj-ri)*frac
}

// Normalized returns a copy scaled so the peak magnitude is 1. A silent
// sample is returned unchanged.
func (s *Sample) Normalized() *Sample {
	peak := float32(0)
	for _, v := range s.pcm {
		if a := float32(math.Abs(float64(v))); a > peak {
			peak = a
		}
	}
	n := s.copyMeta()
	if peak == 0 {
		copy(n.pcm, s.pcm)
		return n
	}
	for i, v := range s.pcm {
		n.pcm[i] = v / peak
	}
	return n
}

// Reversed returns a frame-reversed copy. The loop region flips with the
// audio.
func (s *Sample) Reversed() *Sample {
	n := s.copyMeta()
	frames := s.Frames()
	for f := range frames {
		src := (frames - 1 - f) * s.channels
		dst := f * s.channels
		copy(n.pcm[dst:dst+s.channels], s.pcm[src:src+s.channels])
	}
	if s.Looping() {
		n.loopStart, n.loopEnd = frames-s.loopEnd, frames-s.loopStart
	}
	return n
}

// TimeStretched returns a copy resampled to factor times the original
// length, linearly interpolated, without changing the sample rate. Loop
// points scale with the audio. Factors at or below zero return an empty
// sample.
func (s *Sample) TimeStretched(factor float64) *Sample {
	frames := s.Frames()
	if factor <= 0 || frames == 0 {
		return &Sample{channels: s.channels, rate: s.rate}
	}
	outFrames := int(math.Round(float64(frames) * factor))
	if outFrames < 1 {
		outFrames = 1
	}
	n := &Sample{
		pcm:      make([]float32, outFrames*s.channels),
		channels: s.channels,
		rate:     s.rate,
	}
	step := float64(frames-1) / math.Max(float64(outFrames-1), 1)
	for f := range outFrames {
		pos := float64(f) * step
		i := int(pos)
		frac := float32(pos - float64(i))
		j := min(i+1, frames-1)
		for c := range s.channels {
			a := s.pcm[i*s.channels+c]
			b := s.pcm[j*s.channels+c]
			n.pcm[f*s.channels+c] = a + (b-a)*frac
		}
	}
	if s.Looping() {
		start := int(math.Round(float64(s.loopStart) * factor))
		end := int(math.Round(float64(s.loopEnd) * factor))
		n.WithLoop(start, end)
	}
	return n
}

func (s *Sample) copyMeta() *Sample {
	return &Sample{
		pcm:       make([]float32, len(s.pcm)),
		channels:  s.channels,
		rate:      s.rate,
		loopStart: s.loopStart,
		loopEnd:   s.loopEnd,
	}
}
