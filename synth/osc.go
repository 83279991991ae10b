// Package synth renders the events of a mix into audio blocks. The voice
// functions are pure: they compute every sample from the elapsed time
// alone, so a block can be rendered at any position without history. Only
// the per-track filter and effect state carried by Renderer mutates across
// blocks.
package synth

import (
	"math"

	"github.com/jhalonen/kaiku"
)

// Osc evaluates a waveform at a phase measured in cycles; only the
// fractional part selects the position within the cycle. Noise holds one
// random value per whole cycle, so it doubles as sample-and-hold when used
// as an LFO shape.
func Osc(w kaiku.Waveform, phase float64, table []float32) float32 {
	switch w {
	case kaiku.WaveSine:
		return float32(math.Sin(2 * math.Pi * frac(phase)))
	case kaiku.WaveSquare:
		if frac(phase) < 0.5 {
			return 1
		}
		return -1
	case kaiku.WaveSaw:
		return float32(2*frac(phase) - 1)
	case kaiku.WaveTriangle:
		f := frac(phase)
		if f < 0.5 {
			return float32(4*f - 1)
		}
		return float32(3 - 4*f)
	case kaiku.WaveNoise:
		return noiseAt(uint64(phase))
	case kaiku.WaveTable:
		return tableSample(table, phase)
	}
	return 0
}

func tableSample(table []float32, phase float64) float32 {
	n := len(table)
	if n == 0 {
		return 0
	}
	pos := frac(phase) * float64(n)
	i := int(pos)
	if i >= n {
		i = 0
	}
	j := i + 1
	if j >= n {
		j = 0
	}
	return table[i] + (table[j]-table[i])*float32(pos-float64(i))
}

func frac(phase float64) float64 {
	return phase - math.Floor(phase)
}

// noiseAt hashes a sample counter into noise in [-1, 1), so the same
// position always produces the same value.
func noiseAt(n uint64) float32 {
	n ^= n >> 33
	n *= 0xff51afd7ed558ccd
	n ^= n >> 33
	return float32(int32(uint32(n))) / -2147483648.0
}

// lfoValue evaluates a track LFO at an absolute track time, scaled to
// [-Depth, Depth].
func lfoValue(l *kaiku.LFO, t float64) float64 {
	if l.Freq <= 0 || l.Depth == 0 {
		return 0
	}
	return float64(Osc(l.Waveform, l.Freq*t, nil)) * l.Depth
}

// semitoneRatio converts an offset in semitones to a frequency ratio.
func semitoneRatio(semitones float64) float64 {
	if semitones == 0 {
		return 1
	}
	return math.Exp2(semitones / 12)
}
