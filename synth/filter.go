package synth

import (
	"math"

	"github.com/jhalonen/kaiku"
)

// SVF is a Chamberlin state-variable filter. One instance filters one
// channel and keeps its state across blocks.
type SVF struct {
	low, band float32
}

// Step advances the filter by one sample. freq2 comes from FreqCoef and
// damp from DampCoef.
func (f *SVF) Step(in, freq2, damp float32, typ kaiku.FilterType) float32 {
	f.low += freq2 * f.band
	high := in - f.low - damp*f.band
	f.band += freq2 * high
	switch typ {
	case kaiku.FilterLowPass:
		return f.low
	case kaiku.FilterHighPass:
		return high
	case kaiku.FilterBandPass:
		return f.band
	case kaiku.FilterNotch:
		return f.low + high
	}
	return in
}

// FreqCoef maps a cutoff in Hz to the filter frequency coefficient. The
// cutoff is capped at a sixth of the sample rate, the stable region of
// this filter form.
func FreqCoef(cutoff float64, sampleRate int) float32 {
	if cutoff <= 0 {
		return 0
	}
	return float32(2 * math.Sin(math.Pi*min(cutoff/float64(sampleRate), 1.0/6)))
}

// DampCoef maps resonance 0..1 to the band damping; higher resonance
// damps less.
func DampCoef(resonance float64) float32 {
	return float32(1 - 0.95*min(max(resonance, 0), 1))
}

// noteCutoff maps a filter envelope value 0..1 onto an exponential cutoff
// sweep from 20 Hz up to about 12 kHz.
func noteCutoff(env float64) float64 {
	return 20 * math.Exp2(env*9.3)
}

// onePoleLP integrates one low-pass step with coefficient from cutoff.
func onePoleCoef(cutoff float64, sampleRate int) float32 {
	if cutoff <= 0 {
		return 1
	}
	return float32(math.Exp(-2 * math.Pi * min(cutoff/float64(sampleRate), 0.499)))
}
