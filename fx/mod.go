package fx

import (
	"math"

	"github.com/jhalonen/kaiku"
)

// modDelayLine is a ring buffer read at a fractional, modulated distance
// behind the write head.
type modDelayLine struct {
	buf []float32
	pos int
}

func newModDelayLine(maxSamples int) modDelayLine {
	return modDelayLine{buf: make([]float32, max(maxSamples, 2))}
}

func (d *modDelayLine) read(delay float32) float32 {
	n := len(d.buf)
	p := float64(d.pos) - float64(delay)
	for p < 0 {
		p += float64(n)
	}
	i := int(p)
	frac := float32(p - float64(i))
	if i >= n {
		i -= n
	}
	j := i + 1
	if j >= n {
		j -= n
	}
	return d.buf[i] + (d.buf[j]-d.buf[i])*frac
}

func (d *modDelayLine) write(v float32) {
	d.buf[d.pos] = v
	d.pos++
	if d.pos == len(d.buf) {
		d.pos = 0
	}
}

// chorusState mixes in a copy delayed around 20 ms, swept by a sine LFO.
// The right channel LFO runs a quarter turn ahead for stereo width.
type chorusState struct {
	lines       [2]modDelayLine
	phase, inc  float64
	base, depth float32
	mix         float32
}

func newChorusState(p *kaiku.ChorusParams, sampleRate int) *chorusState {
	depth := p.Depth
	if depth <= 0 {
		depth = 0.005
	}
	rate := p.Rate
	if rate <= 0 {
		rate = 0.8
	}
	base := 0.02 * float64(sampleRate)
	depthSamples := depth * float64(sampleRate)
	c := &chorusState{
		inc:   rate / float64(sampleRate),
		base:  float32(base),
		depth: float32(depthSamples),
		mix:   defaultMix(p.Mix, 0.5),
	}
	maxDelay := int(base+depthSamples) + 4
	c.lines[0] = newModDelayLine(maxDelay)
	c.lines[1] = newModDelayLine(maxDelay)
	return c
}

func (c *chorusState) process(l, r float32) (float32, float32) {
	dl := c.base + c.depth*lfoUnipolar(c.phase)
	dr := c.base + c.depth*lfoUnipolar(c.phase+0.25)
	wl := c.lines[0].read(dl)
	wr := c.lines[1].read(dr)
	c.lines[0].write(l)
	c.lines[1].write(r)
	c.phase += c.inc
	if c.phase >= 1 {
		c.phase -= 1
	}
	return l + (wl-l)*c.mix, r + (wr-r)*c.mix
}

// flangerState is a short swept delay with feedback into the line.
type flangerState struct {
	lines       [2]modDelayLine
	phase, inc  float64
	base, depth float32
	feedback    float32
	mix         float32
}

func newFlangerState(p *kaiku.FlangerParams, sampleRate int) *flangerState {
	depth := p.Depth
	if depth <= 0 {
		depth = 0.003
	}
	rate := p.Rate
	if rate <= 0 {
		rate = 0.3
	}
	base := 0.001 * float64(sampleRate)
	depthSamples := depth * float64(sampleRate)
	f := &flangerState{
		inc:      rate / float64(sampleRate),
		base:     float32(base),
		depth:    float32(depthSamples),
		feedback: float32(min(max(p.Feedback, -0.95), 0.95)),
		mix:      defaultMix(p.Mix, 0.5),
	}
	maxDelay := int(base+depthSamples) + 4
	f.lines[0] = newModDelayLine(maxDelay)
	f.lines[1] = newModDelayLine(maxDelay)
	return f
}

func (f *flangerState) process(l, r float32) (float32, float32) {
	d := f.base + f.depth*lfoUnipolar(f.phase)
	wl := f.lines[0].read(d)
	wr := f.lines[1].read(d)
	f.lines[0].write(l + wl*f.feedback)
	f.lines[1].write(r + wr*f.feedback)
	f.phase += f.inc
	if f.phase >= 1 {
		f.phase -= 1
	}
	return l + (wl-l)*f.mix, r + (wr-r)*f.mix
}

// phaserState sweeps a cascade of first-order all-pass stages between
// 200 Hz and a depth-scaled upper corner. Coefficients are recomputed per
// sample since the sweep never stands still.
type phaserState struct {
	x, y       [2][]float32
	stages     int
	phase, inc float64
	depth      float64
	feedback   float32
	last       [2]float32
	invRate    float64
}

func newPhaserState(p *kaiku.PhaserParams, sampleRate int) *phaserState {
	stages := p.Stages
	if stages <= 0 {
		stages = 4
	}
	stages = min(stages, 12)
	rate := p.Rate
	if rate <= 0 {
		rate = 0.5
	}
	depth := min(max(p.Depth, 0), 1)
	if depth == 0 {
		depth = 1
	}
	s := &phaserState{
		stages:   stages,
		inc:      rate / float64(sampleRate),
		depth:    depth,
		feedback: float32(min(max(p.Feedback, -0.9), 0.9)),
		invRate:  1 / float64(sampleRate),
	}
	for ch := range s.x {
		s.x[ch] = make([]float32, stages)
		s.y[ch] = make([]float32, stages)
	}
	return s
}

func (s *phaserState) process(l, r float32) (float32, float32) {
	sweep := 200 + s.depth*2000*float64(lfoUnipolar(s.phase))
	t := math.Tan(math.Pi * sweep * s.invRate)
	a := float32((t - 1) / (t + 1))
	s.phase += s.inc
	if s.phase >= 1 {
		s.phase -= 1
	}
	return s.channel(0, l, a), s.channel(1, r, a)
}

func (s *phaserState) channel(ch int, dry, a float32) float32 {
	in := dry + s.feedback*s.last[ch]
	for st := range s.stages {
		out := a*(in-s.y[ch][st]) + s.x[ch][st]
		s.x[ch][st] = in
		s.y[ch][st] = out
		in = out
	}
	s.last[ch] = in
	return (dry + in) * 0.5
}

// ringmodState multiplies the signal with a sine carrier.
type ringmodState struct {
	phase, inc float64
	mix        float32
}

func newRingmodState(p *kaiku.RingModParams, sampleRate int) *ringmodState {
	freq := p.Freq
	if freq <= 0 {
		freq = 440
	}
	return &ringmodState{
		inc: freq / float64(sampleRate),
		mix: defaultMix(p.Mix, 1),
	}
}

func (s *ringmodState) process(l, r float32) (float32, float32) {
	m := float32(math.Sin(2 * math.Pi * s.phase))
	s.phase += s.inc
	if s.phase >= 1 {
		s.phase -= 1
	}
	scale := 1 + (m-1)*s.mix
	return l * scale, r * scale
}

// tremoloState modulates the amplitude of both channels together.
type tremoloState struct {
	phase, inc float64
	depth      float32
}

func newTremoloState(p *kaiku.TremoloParams, sampleRate int) *tremoloState {
	rate := p.Rate
	if rate <= 0 {
		rate = 5
	}
	return &tremoloState{
		inc:   rate / float64(sampleRate),
		depth: float32(min(max(p.Depth, 0), 1)),
	}
}

func (s *tremoloState) process(l, r float32) (float32, float32) {
	gain := 1 - s.depth*lfoUnipolar(s.phase)
	s.phase += s.inc
	if s.phase >= 1 {
		s.phase -= 1
	}
	return l * gain, r * gain
}

// autopanState sweeps the signal between channels with the stereo pan law.
type autopanState struct {
	phase, inc float64
	depth      float32
}

func newAutopanState(p *kaiku.AutopanParams, sampleRate int) *autopanState {
	rate := p.Rate
	if rate <= 0 {
		rate = 1
	}
	return &autopanState{
		inc:   rate / float64(sampleRate),
		depth: float32(min(max(p.Depth, 0), 1)),
	}
}

func (s *autopanState) process(l, r float32) (float32, float32) {
	pan := s.depth * float32(math.Sin(2*math.Pi*s.phase))
	s.phase += s.inc
	if s.phase >= 1 {
		s.phase -= 1
	}
	if pan < 0 {
		r *= 1 + pan
	} else {
		l *= 1 - pan
	}
	return l, r
}

func lfoUnipolar(phase float64) float32 {
	return float32(0.5 + 0.5*math.Sin(2*math.Pi*phase))
}

// defaultMix treats a zero mix as unset so an effect dropped into a chain
// is audible without further tuning.
func defaultMix(mix, def float64) float32 {
	if mix <= 0 {
		return float32(def)
	}
	return float32(min(mix, 1))
}
