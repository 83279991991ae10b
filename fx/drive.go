package fx

import (
	"math"

	"github.com/jhalonen/kaiku"
)

// saturationState applies tanh drive, normalized so low drive stays near
// the identity.
type saturationState struct {
	drive float32
	norm  float32
}

func newSaturationState(p *kaiku.SaturationParams) *saturationState {
	drive := float32(p.Drive)
	if drive <= 0 {
		drive = 1
	}
	return &saturationState{
		drive: drive,
		norm:  float32(1 / math.Tanh(float64(drive))),
	}
}

func (s *saturationState) process(l, r float32) (float32, float32) {
	return s.shape(l), s.shape(r)
}

func (s *saturationState) shape(in float32) float32 {
	return float32(math.Tanh(float64(in*s.drive))) * s.norm
}

// distortionState drives the signal into the rational waveshaper and clips.
type distortionState struct {
	drive  float32
	amount float32
}

func newDistortionState(p *kaiku.DistortionParams) *distortionState {
	drive := float32(p.Drive)
	if drive <= 0 {
		drive = 1
	}
	shape := min(max(p.Shape, 0), 1)
	return &distortionState{
		drive:  drive,
		amount: float32(0.5 + shape*0.495),
	}
}

func (d *distortionState) process(l, r float32) (float32, float32) {
	return clip(waveshape(l*d.drive, d.amount)), clip(waveshape(r*d.drive, d.amount))
}

// bitcrusherState quantizes the signal to a fixed number of bits and holds
// each value for a number of input samples.
type bitcrusherState struct {
	step    float32
	hold    int
	counter int
	l, r    float32
}

func newBitcrusherState(p *kaiku.BitcrusherParams) *bitcrusherState {
	bits := min(max(p.Bits, 1), 24)
	return &bitcrusherState{
		step: float32(math.Exp2(float64(1 - bits))),
		hold: max(p.Downsample, 1),
	}
}

func (b *bitcrusherState) process(l, r float32) (float32, float32) {
	if b.counter == 0 {
		b.l = crush(l, b.step)
		b.r = crush(r, b.step)
	}
	b.counter++
	if b.counter >= b.hold {
		b.counter = 0
	}
	return b.l, b.r
}

func crush(value, step float32) float32 {
	return float32(math.Round(float64(value/step))) * step
}
