package fx

import "github.com/jhalonen/kaiku"

// delayState is a feedback delay line per channel. The feedback path runs
// through a one-pole damp filter, and the output through a DC blocker so
// long feedback tails cannot accumulate offset.
type delayState struct {
	lines     [2][]float32
	pos       int
	feedback  float32
	damp      float32
	mix       float32
	dampState [2]float32
	dcState   [2]float32
	dcIn      [2]float32
}

func newDelayState(p *kaiku.DelayParams, sampleRate int) *delayState {
	secs := p.Time
	if secs <= 0 {
		secs = 0.3
	}
	samples := max(int(secs*float64(sampleRate)), 1)
	d := &delayState{
		feedback: float32(min(max(p.Feedback, 0), 0.98)),
		damp:     float32(min(max(p.Damp, 0), 0.99)),
		mix:      defaultMix(p.Mix, 0.5),
	}
	d.lines[0] = make([]float32, samples)
	d.lines[1] = make([]float32, samples)
	return d
}

func (d *delayState) process(l, r float32) (float32, float32) {
	outL := d.channel(0, l)
	outR := d.channel(1, r)
	d.pos++
	if d.pos == len(d.lines[0]) {
		d.pos = 0
	}
	return outL, outR
}

func (d *delayState) channel(ch int, in float32) float32 {
	delSignal := d.lines[ch][d.pos]
	d.dampState[ch] = d.damp*d.dampState[ch] + (1-d.damp)*delSignal
	d.lines[ch][d.pos] = d.feedback*d.dampState[ch] + in
	out := in + d.mix*delSignal
	d.dcState[ch] = out + (0.99609375*d.dcState[ch] - d.dcIn[ch])
	d.dcIn[ch] = out
	return d.dcState[ch]
}
