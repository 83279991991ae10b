package fx

import (
	"math"

	"github.com/jhalonen/kaiku"
)

// eqState splits the signal into three bands with one-pole crossovers and
// recombines them with the band gains. At unity gains the split
// reconstructs the input exactly.
type eqState struct {
	lowGain, midGain, highGain float32
	lowCoef, highCoef          float32
	lpLow, lpHigh              [2]float32
}

func newEQState(p *kaiku.EQParams, sampleRate int) *eqState {
	lowFreq := p.LowFreq
	if lowFreq <= 0 {
		lowFreq = 250
	}
	highFreq := p.HighFreq
	if highFreq <= 0 {
		highFreq = 4000
	}
	return &eqState{
		lowGain:  bandGain(p.LowGain),
		midGain:  bandGain(p.MidGain),
		highGain: bandGain(p.HighGain),
		lowCoef:  onePoleCoef(lowFreq, sampleRate),
		highCoef: onePoleCoef(highFreq, sampleRate),
	}
}

// bandGain treats a zero gain as unset, matching how mix and volume fields
// behave elsewhere. A band is cut by setting a small positive gain.
func bandGain(v float64) float32 {
	if v == 0 {
		return 1
	}
	return float32(v)
}

func (e *eqState) process(l, r float32) (float32, float32) {
	return e.channel(0, l), e.channel(1, r)
}

func (e *eqState) channel(i int, in float32) float32 {
	e.lpLow[i] += (1 - e.lowCoef) * (in - e.lpLow[i])
	e.lpHigh[i] += (1 - e.highCoef) * (in - e.lpHigh[i])
	low := e.lpLow[i]
	high := in - e.lpHigh[i]
	mid := e.lpHigh[i] - low
	return e.lowGain*low + e.midGain*mid + e.highGain*high
}

// parameqState is a peaking biquad. The peaking form shares its b1
// coefficient with a1, so the transposed state update needs only four
// multipliers.
type parameqState struct {
	b0, b1, b2, a2 float32
	state          [2][2]float32
}

func newParamEQState(p *kaiku.ParamEQParams, sampleRate int) *parameqState {
	freq := min(max(p.Freq, 10), float64(sampleRate)*0.45)
	q := p.Q
	if q <= 0 {
		q = 0.707
	}
	omega := 2 * math.Pi * freq / float64(sampleRate)
	alpha := float32(math.Sin(omega) / (2 * q))
	a := float32(math.Pow(10, p.GainDB/20))
	den := 1 + alpha/a
	return &parameqState{
		b0: (1 + alpha*a) / den,
		b1: -2 * float32(math.Cos(omega)) / den,
		b2: (1 - alpha*a) / den,
		a2: (1 - alpha/a) / den,
	}
}

func (e *parameqState) process(l, r float32) (float32, float32) {
	return e.channel(0, l), e.channel(1, r)
}

func (e *parameqState) channel(i int, in float32) float32 {
	out := e.b0*in + e.state[i][0]
	e.state[i][0] = e.b1*in - e.b1*out + e.state[i][1]
	e.state[i][1] = e.b2*in - e.a2*out
	return out
}

func onePoleCoef(freq float64, sampleRate int) float32 {
	return float32(math.Exp(-2 * math.Pi * freq / float64(sampleRate)))
}
