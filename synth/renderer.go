package synth

import (
	"math"

	"github.com/viterin/vek/vek32"

	"github.com/jhalonen/kaiku"
	"github.com/jhalonen/kaiku/fx"
)

type (
	// Renderer turns one mix into audio blocks. It owns the mutable
	// per-track filter and effect state of one playback, so concurrent
	// playbacks of the same mix each get their own Renderer.
	Renderer struct {
		mix        *kaiku.Mix
		sampleRate int
		buses      []busState
		trackBuf   []float32
		eventBuf   []float32
		busBuf     []float32
	}

	busState struct {
		chain  *fx.ChainState
		tracks []trackState
	}

	trackState struct {
		filterL, filterR SVF
		chain            *fx.ChainState
	}
)

// NewRenderer prepares the per-playback state for a finalized mix. The
// scratch buffers cover blocks up to maxFrames frames and grow once if a
// larger block shows up.
func NewRenderer(mix *kaiku.Mix, sampleRate, maxFrames int) *Renderer {
	r := &Renderer{mix: mix, sampleRate: sampleRate}
	r.buses = make([]busState, len(mix.Buses))
	for bi := range mix.Buses {
		bus := &mix.Buses[bi]
		r.buses[bi].chain = fx.NewChainState(&bus.Effects, sampleRate)
		r.buses[bi].tracks = make([]trackState, len(bus.Tracks))
		for ti := range bus.Tracks {
			r.buses[bi].tracks[ti].chain = fx.NewChainState(&bus.Tracks[ti].Effects, sampleRate)
		}
	}
	r.grow(max(maxFrames, 1))
	return r
}

// Mix returns the mix this renderer was built for.
func (r *Renderer) Mix() *kaiku.Mix { return r.mix }

func (r *Renderer) grow(frames int) {
	n := frames * 2
	if len(r.trackBuf) >= n {
		return
	}
	r.trackBuf = make([]float32, n)
	r.eventBuf = make([]float32, n)
	r.busBuf = make([]float32, n)
}

// RenderBlock renders frames starting at mix time t0 into out (interleaved
// stereo, length twice the frame count), overwriting it. The listener and
// spatial params apply to events that carry their own positions; both may
// be nil.
func (r *Renderer) RenderBlock(out []float32, t0 float64, listener *kaiku.Listener, spatial *kaiku.SpatialParams) {
	r.grow(len(out) / 2)
	clear(out)
	soloed := r.mix.Soloed()
	t1 := t0 + float64(len(out)/2)/float64(r.sampleRate)
	for bi := range r.mix.Buses {
		bus := &r.mix.Buses[bi]
		if bus.Mute || (soloed && !bus.Solo) {
			continue
		}
		busBuf := r.busBuf[:len(out)]
		clear(busBuf)
		for ti := range bus.Tracks {
			r.renderTrack(&bus.Tracks[ti], &r.buses[bi].tracks[ti], busBuf, t0, t1, listener, spatial)
		}
		r.buses[bi].chain.Process(busBuf)
		mixPanned(out, busBuf, gainOrUnity(bus.Volume), bus.Pan)
	}
}

func (r *Renderer) renderTrack(t *kaiku.Track, st *trackState, dst []float32, t0, t1 float64, listener *kaiku.Listener, spatial *kaiku.SpatialParams) {
	buf := r.trackBuf[:len(dst)]
	clear(buf)
	lo, hi := t.EventRange(t0, t1)
	events := t.Events[lo:hi]
	any := false
	for ei := range events {
		e := &events[ei]
		if !e.Audible() || e.End() <= t0 {
			continue
		}
		target := buf
		pos := e.Position()
		positioned := pos != nil && listener != nil && spatial != nil
		if positioned {
			target = r.eventBuf[:len(dst)]
			clear(target)
		}
		switch e.Kind {
		case kaiku.EventNote:
			r.renderNote(target, e.Note, e.Start, t0, t.Routes)
		case kaiku.EventDrum:
			r.renderDrum(target, e.Drum, e.Start, t0)
		case kaiku.EventSample:
			r.renderSampleEvent(target, e.Sample, e.Start, t0)
		}
		if positioned {
			gain, pan, _ := spatial.Evaluate(listener, *pos, kaiku.Vec3{})
			mixPanned(buf, target, float32(gain), float32(pan))
		}
		any = true
	}
	if !any && st.chain == nil && t.Filter.Type == kaiku.FilterNone {
		return
	}
	r.applyTrackShaping(t, st, buf, t0)
	st.chain.Process(buf)
	mixPanned(dst, buf, gainOrUnity(t.Volume), t.Pan)
}

// applyTrackShaping runs the track filter and the post-synthesis LFO
// targets over the accumulated block.
func (r *Renderer) applyTrackShaping(t *kaiku.Track, st *trackState, buf []float32, t0 float64) {
	hasFilter := t.Filter.Type != kaiku.FilterNone
	var volRoute, panRoute, cutRoute bool
	for i := range t.Routes {
		switch t.Routes[i].Target {
		case kaiku.ModVolume:
			volRoute = true
		case kaiku.ModPan:
			panRoute = true
		case kaiku.ModFilterCutoff:
			cutRoute = true
		}
	}
	if !hasFilter && !volRoute && !panRoute {
		return
	}
	invRate := 1 / float64(r.sampleRate)
	damp := DampCoef(t.Filter.Resonance)
	baseFreq2 := FreqCoef(t.Filter.Cutoff, r.sampleRate)
	for i := 0; i+1 < len(buf); i += 2 {
		ts := t0 + float64(i/2)*invRate
		l, rr := buf[i], buf[i+1]
		if hasFilter {
			freq2 := baseFreq2
			if cutRoute {
				oct := routesValue(t.Routes, kaiku.ModFilterCutoff, ts)
				freq2 = FreqCoef(t.Filter.Cutoff*math.Exp2(oct), r.sampleRate)
			}
			l = st.filterL.Step(l, freq2, damp, t.Filter.Type)
			rr = st.filterR.Step(rr, freq2, damp, t.Filter.Type)
		}
		if volRoute {
			g := float32(1 + routesValue(t.Routes, kaiku.ModVolume, ts))
			if g < 0 {
				g = 0
			}
			l *= g
			rr *= g
		}
		if panRoute {
			pan := float32(min(max(routesValue(t.Routes, kaiku.ModPan, ts), -1), 1))
			if pan < 0 {
				rr *= 1 + pan
			} else {
				l *= 1 - pan
			}
		}
		buf[i], buf[i+1] = l, rr
	}
}

// renderNote adds one note into the stereo accumulator. Pitch-targeted
// LFO routes detune the note per sample; the filter envelope, if present,
// drives a one-pole low-pass whose state lives only within the block.
func (r *Renderer) renderNote(dst []float32, n *kaiku.Note, start, t0 float64, routes []kaiku.ModRoute) {
	if n == nil || len(n.Frequencies) == 0 {
		return
	}
	amp := n.Envelope()
	total := amp.TotalDuration(n.Duration)
	invRate := 1 / float64(r.sampleRate)
	gain := n.Gain()
	freqs := n.Frequencies
	if len(freqs) > kaiku.MaxNoteFrequencies {
		freqs = freqs[:kaiku.MaxNoteFrequencies]
	}
	invN := 1 / float32(len(freqs))
	pitchRoute := false
	for i := range routes {
		if routes[i].Target == kaiku.ModPitch {
			pitchRoute = true
		}
	}
	var lp float32
	lpSeeded := false
	for i := 0; i+1 < len(dst); i += 2 {
		abs := t0 + float64(i/2)*invRate
		tau := abs - start
		if tau < 0 || tau >= total {
			lpSeeded = false
			continue
		}
		env := float32(amp.At(tau, n.Duration))
		bend := n.Bend
		if pitchRoute {
			bend += routesValue(routes, kaiku.ModPitch, abs)
		}
		ratio := semitoneRatio(bend)
		var sum float32
		for _, f := range freqs {
			carrier := f * ratio
			var phase float64
			if n.Waveform == kaiku.WaveNoise {
				phase = tau * float64(r.sampleRate)
			} else {
				phase = carrier * tau
				if n.FM != nil && n.FM.Index != 0 {
					mod := Osc(n.FM.ModWaveform, carrier*n.FM.Ratio*tau, nil)
					phase += n.FM.Index * float64(mod) / (2 * math.Pi)
				}
			}
			sum += Osc(n.Waveform, phase, n.Table)
		}
		v := sum * invN * env * gain
		if n.Filter != nil {
			a := onePoleCoef(noteCutoff(n.Filter.At(tau, n.Duration)), r.sampleRate)
			if !lpSeeded {
				lp = v
				lpSeeded = true
			}
			lp = a*lp + (1-a)*v
			v = lp
		}
		dst[i] += v
		dst[i+1] += v
	}
}

func (r *Renderer) renderDrum(dst []float32, d *kaiku.Drum, start, t0 float64) {
	if d == nil {
		return
	}
	dur := d.Duration()
	invRate := 1 / float64(r.sampleRate)
	for i := 0; i+1 < len(dst); i += 2 {
		tau := t0 + float64(i/2)*invRate - start
		if tau < 0 || tau >= dur {
			continue
		}
		v := DrumSample(d.Kind, tau, r.sampleRate)
		dst[i] += v
		dst[i+1] += v
	}
}

func (r *Renderer) renderSampleEvent(dst []float32, se *kaiku.SampleEvent, start, t0 float64) {
	if se == nil || se.Sample == nil {
		return
	}
	rate := se.Rate
	if rate <= 0 {
		rate = 1
	}
	vol := gainOrUnity(se.Volume)
	srcRate := float64(se.Sample.SampleRate())
	invRate := 1 / float64(r.sampleRate)
	for i := 0; i+1 < len(dst); i += 2 {
		tau := t0 + float64(i/2)*invRate - start
		if tau < 0 {
			continue
		}
		l, rr := se.Sample.At(tau * rate * srcRate)
		dst[i] += l * vol
		dst[i+1] += rr * vol
	}
}

// routesValue sums the LFO outputs of all routes with the given target at
// an absolute track time.
func routesValue(routes []kaiku.ModRoute, target kaiku.ModTarget, t float64) float64 {
	v := 0.0
	for i := range routes {
		if routes[i].Target == target {
			v += lfoValue(&routes[i].LFO, t)
		}
	}
	return v
}

// mixPanned adds src into dst with a volume and the stereo pan law:
// negative pan scales the right channel by 1+pan, positive scales the left
// by 1-pan.
func mixPanned(dst, src []float32, volume, pan float32) {
	if volume == 1 && pan == 0 {
		vek32.Add_Inplace(dst[:len(src)], src)
		return
	}
	lScale, rScale := volume, volume
	if pan > 0 {
		lScale *= 1 - pan
	} else if pan < 0 {
		rScale *= 1 + pan
	}
	for i := 0; i+1 < len(src); i += 2 {
		dst[i] += src[i] * lScale
		dst[i+1] += src[i+1] * rScale
	}
}

// gainOrUnity treats a zero volume as unset so hand-built tracks and buses
// are audible without setting every field.
func gainOrUnity(v float32) float32 {
	if v <= 0 {
		return 1
	}
	return v
}
