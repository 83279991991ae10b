package fx

import (
	"math"

	"github.com/jhalonen/kaiku"
)

// compressorState follows the squared signal level with separate attack
// and release smoothing and reduces gain above the threshold.
type compressorState struct {
	threshold2   float32
	exponent     float64
	attackAlpha  float32
	releaseAlpha float32
	makeup       float32
	level        float32
}

func newCompressorState(p *kaiku.CompressorParams, sampleRate int) *compressorState {
	ratio := max(p.Ratio, 1)
	thr := float32(min(max(p.Threshold, 1e-4), 1))
	makeup := float32(p.Makeup)
	if makeup <= 0 {
		makeup = 1
	}
	return &compressorState{
		threshold2:   thr * thr,
		exponent:     (1 - 1/ratio) / 2,
		attackAlpha:  followerAlpha(p.Attack, sampleRate),
		releaseAlpha: followerAlpha(p.Release, sampleRate),
		makeup:       makeup,
	}
}

func (c *compressorState) process(l, r float32) (float32, float32) {
	level := l*l + r*r // square the signal to get power
	alpha := c.attackAlpha
	if level < c.level {
		alpha = c.releaseAlpha
	}
	c.level += (level - c.level) * alpha
	gain := c.makeup
	if c.level > c.threshold2 {
		gain *= float32(math.Pow(float64(c.threshold2/c.level), c.exponent))
	}
	return l * gain, r * gain
}

// gateState mutes the signal while its level stays below the threshold,
// ramping open and closed with the attack and release times.
type gateState struct {
	threshold2   float32
	attackAlpha  float32
	releaseAlpha float32
	openness     float32
}

func newGateState(p *kaiku.GateParams, sampleRate int) *gateState {
	thr := float32(max(p.Threshold, 0))
	return &gateState{
		threshold2:   thr * thr,
		attackAlpha:  followerAlpha(p.Attack, sampleRate),
		releaseAlpha: followerAlpha(p.Release, sampleRate),
	}
}

func (g *gateState) process(l, r float32) (float32, float32) {
	target := float32(0)
	if l*l+r*r >= g.threshold2 {
		target = 1
	}
	alpha := g.releaseAlpha
	if target > g.openness {
		alpha = g.attackAlpha
	}
	g.openness += (target - g.openness) * alpha
	return l * g.openness, r * g.openness
}

// limiterState caps the peak level at the threshold: the follower attacks
// instantly and decays with the release time.
type limiterState struct {
	threshold    float32
	releaseAlpha float32
	peak         float32
}

func newLimiterState(p *kaiku.LimiterParams, sampleRate int) *limiterState {
	thr := float32(p.Threshold)
	if thr <= 0 {
		thr = 1
	}
	return &limiterState{
		threshold:    thr,
		releaseAlpha: followerAlpha(p.Release, sampleRate),
	}
}

func (m *limiterState) process(l, r float32) (float32, float32) {
	p := l
	if p < 0 {
		p = -p
	}
	if a := r; a < 0 {
		if -a > p {
			p = -a
		}
	} else if a > p {
		p = a
	}
	if p >= m.peak {
		m.peak = p
	} else {
		m.peak += (p - m.peak) * m.releaseAlpha
	}
	gain := float32(1)
	if m.peak > m.threshold {
		gain = m.threshold / m.peak
	}
	return l * gain, r * gain
}

// followerAlpha maps a time constant in seconds to a one-pole smoothing
// coefficient; zero or negative means instant.
func followerAlpha(seconds float64, sampleRate int) float32 {
	if seconds <= 0 {
		return 1
	}
	return float32(1 - math.Exp(-1/(seconds*float64(sampleRate))))
}
