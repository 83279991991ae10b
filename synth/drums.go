package synth

import (
	"math"

	"github.com/jhalonen/kaiku"
)

// DrumSample evaluates a drum recipe at elapsed time tau seconds. The
// recipes are closed-form functions of tau, so any sample can be computed
// without rendering the ones before it. Swept oscillators integrate their
// frequency curve analytically to keep the phase exact.
func DrumSample(kind kaiku.DrumKind, tau float64, sampleRate int) float32 {
	if tau < 0 {
		return 0
	}
	switch kind {
	case kaiku.DrumKick:
		return sweptSine(tau, 45, 80, 22, 9)
	case kaiku.DrumSnare:
		body := sweptSine(tau, 160, 90, 30, 25) * 0.5
		hiss := burstNoise(tau, sampleRate) * float32(math.Exp(-tau*18)) * 0.7
		return body + hiss
	case kaiku.DrumHatClosed:
		return burstNoise(tau, sampleRate) * float32(math.Exp(-tau*60)) * 0.7
	case kaiku.DrumHatOpen:
		return burstNoise(tau, sampleRate) * float32(math.Exp(-tau*8)) * 0.6
	case kaiku.DrumTom:
		return sweptSine(tau, 90, 110, 18, 12)
	case kaiku.DrumClap:
		var env float64
		if tau < 0.03 {
			env = math.Exp(-math.Mod(tau, 0.01) * 140)
		} else {
			env = math.Exp(-(tau - 0.03) * 16)
		}
		return burstNoise(tau, sampleRate) * float32(env) * 0.8
	case kaiku.DrumRim:
		ping := math.Sin(2*math.Pi*1700*tau) * math.Exp(-tau*80)
		click := float64(burstNoise(tau, sampleRate)) * math.Exp(-tau*300) * 0.4
		return float32(ping + click)
	}
	return 0
}

// sweptSine is a sine whose frequency decays exponentially from base+sweep
// down to base. The phase is the integral of the frequency curve.
func sweptSine(tau, base, sweep, freqDecay, ampDecay float64) float32 {
	phase := base*tau + sweep/freqDecay*(1-math.Exp(-freqDecay*tau))
	return float32(math.Sin(2*math.Pi*phase) * math.Exp(-ampDecay*tau))
}

// burstNoise is white noise brightened by first-differencing consecutive
// values.
func burstNoise(tau float64, sampleRate int) float32 {
	n := uint64(tau * float64(sampleRate))
	if n == 0 {
		return noiseAt(0)
	}
	return (noiseAt(n) - noiseAt(n-1)) * 0.7
}
