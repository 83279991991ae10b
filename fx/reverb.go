package fx

import "github.com/jhalonen/kaiku"

// reverbState is a comb and all-pass bank per channel. Size scales the
// comb lengths and feedback; Damp darkens the feedback path the same way
// the delay effect does. The right channel combs run slightly longer so
// the tail decorrelates.
type reverbState struct {
	combs [2][numCombs]combFilter
	aps   [2][numAllpasses]allpassFilter
	mix   float32
}

const (
	numCombs       = 4
	numAllpasses   = 2
	stereoSpread   = 23
	reverbBaseRate = 44100
)

var (
	combTunings    = [numCombs]int{1116, 1188, 1277, 1356}
	allpassTunings = [numAllpasses]int{556, 441}
)

func newReverbState(p *kaiku.ReverbParams, sampleRate int) *reverbState {
	size := min(max(p.Size, 0), 1)
	damp := float32(min(max(p.Damp, 0), 0.99))
	feedback := float32(0.7 + 0.28*size)
	lengthScale := float64(sampleRate) / reverbBaseRate * (0.6 + 0.8*size)
	r := &reverbState{mix: defaultMix(p.Mix, 0.3)}
	for ch := range r.combs {
		for i := range r.combs[ch] {
			n := int(float64(combTunings[i]+ch*stereoSpread) * lengthScale)
			r.combs[ch][i] = combFilter{
				buf:      make([]float32, max(n, 4)),
				feedback: feedback,
				damp:     damp,
			}
		}
		for i := range r.aps[ch] {
			n := int(float64(allpassTunings[i]+ch*stereoSpread) * lengthScale)
			r.aps[ch][i] = allpassFilter{buf: make([]float32, max(n, 4))}
		}
	}
	return r
}

func (r *reverbState) process(l, rr float32) (float32, float32) {
	return l + (r.channel(0, l)-l)*r.mix, rr + (r.channel(1, rr)-rr)*r.mix
}

func (r *reverbState) channel(ch int, in float32) float32 {
	var wet float32
	for i := range r.combs[ch] {
		wet += r.combs[ch][i].process(in)
	}
	wet *= 1.0 / numCombs
	for i := range r.aps[ch] {
		wet = r.aps[ch][i].process(wet)
	}
	return wet
}

type combFilter struct {
	buf      []float32
	pos      int
	feedback float32
	damp     float32
	lp       float32
}

func (c *combFilter) process(in float32) float32 {
	out := c.buf[c.pos]
	c.lp = c.damp*c.lp + (1-c.damp)*out
	c.buf[c.pos] = in + c.lp*c.feedback
	c.pos++
	if c.pos == len(c.buf) {
		c.pos = 0
	}
	return out
}

type allpassFilter struct {
	buf []float32
	pos int
}

func (a *allpassFilter) process(in float32) float32 {
	b := a.buf[a.pos]
	out := b - in
	a.buf[a.pos] = in + b*0.5
	a.pos++
	if a.pos == len(a.buf) {
		a.pos = 0
	}
	return out
}
