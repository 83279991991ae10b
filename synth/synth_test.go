package synth

import (
	"math"
	"testing"

	"github.com/jhalonen/kaiku"
)

func TestOscShapes(t *testing.T) {
	tests := []struct {
		name  string
		wave  kaiku.Waveform
		phase float64
		want  float32
	}{
		{"sine zero", kaiku.WaveSine, 0, 0},
		{"sine quarter", kaiku.WaveSine, 0.25, 1},
		{"sine wraps", kaiku.WaveSine, 1.25, 1},
		{"square high", kaiku.WaveSquare, 0.25, 1},
		{"square low", kaiku.WaveSquare, 0.75, -1},
		{"saw start", kaiku.WaveSaw, 0, -1},
		{"saw middle", kaiku.WaveSaw, 0.5, 0},
		{"saw late", kaiku.WaveSaw, 0.75, 0.5},
		{"triangle start", kaiku.WaveTriangle, 0, -1},
		{"triangle peak", kaiku.WaveTriangle, 0.5, 1},
		{"triangle falling", kaiku.WaveTriangle, 0.75, 0},
	}
	for _, tt := range tests {
		got := Osc(tt.wave, tt.phase, nil)
		if math.Abs(float64(got-tt.want)) > 1e-6 {
			t.Errorf("%s: Osc = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestOscNoiseIsDeterministic(t *testing.T) {
	for _, phase := range []float64{0, 1, 17, 123456} {
		a := Osc(kaiku.WaveNoise, phase, nil)
		b := Osc(kaiku.WaveNoise, phase, nil)
		if a != b {
			t.Fatalf("noise at phase %v gave %v then %v", phase, a, b)
		}
		if a < -1 || a >= 1 {
			t.Fatalf("noise at phase %v = %v out of range", phase, a)
		}
	}
	if Osc(kaiku.WaveNoise, 3, nil) == Osc(kaiku.WaveNoise, 4, nil) {
		t.Error("neighboring noise cycles should differ")
	}
}

func TestOscTableInterpolates(t *testing.T) {
	table := []float32{0, 1}
	if got := Osc(kaiku.WaveTable, 0.25, table); got != 0.5 {
		t.Errorf("table at 0.25 = %v, want 0.5", got)
	}
	// Past the last entry the table wraps back to its first value.
	if got := Osc(kaiku.WaveTable, 0.75, table); got != 0.5 {
		t.Errorf("table at 0.75 = %v, want 0.5", got)
	}
	if got := Osc(kaiku.WaveTable, 0.5, nil); got != 0 {
		t.Errorf("empty table = %v, want 0", got)
	}
}

func TestSemitoneRatio(t *testing.T) {
	if r := semitoneRatio(12); math.Abs(r-2) > 1e-12 {
		t.Errorf("an octave up = %v, want 2", r)
	}
	if r := semitoneRatio(-12); math.Abs(r-0.5) > 1e-12 {
		t.Errorf("an octave down = %v, want 0.5", r)
	}
	if r := semitoneRatio(0); r != 1 {
		t.Errorf("no bend = %v, want 1", r)
	}
}

// filterGain measures the steady-state amplitude ratio of a sine pushed
// through one SVF channel.
func filterGain(freq, cutoff, resonance float64, typ kaiku.FilterType) float64 {
	const rate = 44100
	const n = rate / 2
	var f SVF
	freq2 := FreqCoef(cutoff, rate)
	damp := DampCoef(resonance)
	var peak float64
	for i := range n {
		in := float32(math.Sin(2 * math.Pi * freq * float64(i) / rate))
		out := f.Step(in, freq2, damp, typ)
		// Skip the transient before measuring.
		if i > n/2 {
			if a := math.Abs(float64(out)); a > peak {
				peak = a
			}
		}
	}
	return peak
}

func TestSVFLowPass(t *testing.T) {
	if g := filterGain(100, 500, 0.1, kaiku.FilterLowPass); g < 0.7 || g > 1.4 {
		t.Errorf("passband gain %v, want near unity", g)
	}
	if g := filterGain(8000, 500, 0.1, kaiku.FilterLowPass); g > 0.1 {
		t.Errorf("stopband gain %v, want strong attenuation", g)
	}
}

func TestSVFHighPass(t *testing.T) {
	if g := filterGain(7000, 2000, 0.1, kaiku.FilterHighPass); g < 0.6 {
		t.Errorf("passband gain %v, want near unity", g)
	}
	if g := filterGain(100, 2000, 0.1, kaiku.FilterHighPass); g > 0.1 {
		t.Errorf("stopband gain %v, want strong attenuation", g)
	}
}

func TestSVFBandPass(t *testing.T) {
	center := filterGain(1000, 1000, 0.5, kaiku.FilterBandPass)
	low := filterGain(100, 1000, 0.5, kaiku.FilterBandPass)
	high := filterGain(10000, 1000, 0.5, kaiku.FilterBandPass)
	if center < 2*low || center < 2*high {
		t.Errorf("band pass gains low=%v center=%v high=%v, want a peak at the center", low, center, high)
	}
}

func TestSVFNoneTypePassesThrough(t *testing.T) {
	var f SVF
	in := float32(0.37)
	if out := f.Step(in, 0.1, 1, kaiku.FilterNone); out != in {
		t.Errorf("FilterNone changed the sample: %v", out)
	}
}

func TestFreqCoefCapsNearNyquist(t *testing.T) {
	high := FreqCoef(40000, 44100)
	capped := FreqCoef(44100.0/6, 44100)
	if high != capped {
		t.Errorf("cutoff beyond the stable region: %v, want the cap %v", high, capped)
	}
	if FreqCoef(0, 44100) != 0 {
		t.Error("zero cutoff should give a zero coefficient")
	}
}

func TestDrumRecipes(t *testing.T) {
	const rate = 44100
	for kind := kaiku.DrumKind(0); kind < kaiku.NumDrumKinds; kind++ {
		d := kaiku.Drum{Kind: kind}
		dur := d.Duration()
		if dur <= 0 {
			t.Fatalf("drum %d has no duration", kind)
		}
		n := int(dur * rate)
		var peak float64
		var headEnergy, tailEnergy float64
		for i := range n {
			tau := float64(i) / rate
			v := float64(DrumSample(kind, tau, rate))
			if a := math.Abs(v); a > peak {
				peak = a
			}
			if i < n/5 {
				headEnergy += v * v
			} else if i >= n*4/5 {
				tailEnergy += v * v
			}
		}
		if peak < 0.05 {
			t.Errorf("drum %d peak %v, want something audible", kind, peak)
		}
		if tailEnergy >= headEnergy {
			t.Errorf("drum %d does not decay: head %v tail %v", kind, headEnergy, tailEnergy)
		}
	}
	if v := DrumSample(kaiku.DrumKick, -0.1, rate); v != 0 {
		t.Errorf("negative time produced %v", v)
	}
}

func TestDrumSampleIsPositionIndependent(t *testing.T) {
	// The same tau must give the same value no matter what was evaluated
	// before it.
	const rate = 44100
	a := DrumSample(kaiku.DrumSnare, 0.1, rate)
	DrumSample(kaiku.DrumSnare, 0.05, rate)
	DrumSample(kaiku.DrumKick, 0.2, rate)
	b := DrumSample(kaiku.DrumSnare, 0.1, rate)
	if a != b {
		t.Fatalf("snare at 0.1s gave %v then %v", a, b)
	}
}

func TestLFOValue(t *testing.T) {
	l := &kaiku.LFO{Waveform: kaiku.WaveSine, Freq: 2, Depth: 0.5}
	if v := lfoValue(l, 0.125); math.Abs(v-0.5) > 1e-9 {
		t.Errorf("sine LFO at its peak = %v, want 0.5", v)
	}
	if v := lfoValue(l, 0); math.Abs(v) > 1e-9 {
		t.Errorf("sine LFO at zero = %v, want 0", v)
	}
	if v := lfoValue(&kaiku.LFO{Freq: 0, Depth: 1}, 1); v != 0 {
		t.Errorf("zero-frequency LFO = %v, want 0", v)
	}
}

func TestNoiseLFOHoldsWithinCycle(t *testing.T) {
	l := &kaiku.LFO{Waveform: kaiku.WaveNoise, Freq: 2, Depth: 1}
	a := lfoValue(l, 0.05)
	b := lfoValue(l, 0.2)
	if a != b {
		t.Errorf("sample-and-hold changed mid-cycle: %v then %v", a, b)
	}
	c := lfoValue(l, 0.6)
	d := lfoValue(l, 1.1)
	if a == c && c == d {
		t.Error("sample-and-hold never changed across cycles")
	}
}

func TestRoutesValueSumsMatchingTargets(t *testing.T) {
	routes := []kaiku.ModRoute{
		{Target: kaiku.ModVolume, LFO: kaiku.LFO{Waveform: kaiku.WaveSine, Freq: 2, Depth: 0.5}},
		{Target: kaiku.ModVolume, LFO: kaiku.LFO{Waveform: kaiku.WaveSine, Freq: 2, Depth: 0.25}},
		{Target: kaiku.ModPan, LFO: kaiku.LFO{Waveform: kaiku.WaveSine, Freq: 2, Depth: 1}},
	}
	if v := routesValue(routes, kaiku.ModVolume, 0.125); math.Abs(v-0.75) > 1e-9 {
		t.Errorf("summed volume routes = %v, want 0.75", v)
	}
	if v := routesValue(routes, kaiku.ModFilterCutoff, 0.125); v != 0 {
		t.Errorf("unrouted target = %v, want 0", v)
	}
}
