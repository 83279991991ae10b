package engine

import (
	"sync/atomic"

	"github.com/jhalonen/kaiku"
	"github.com/jhalonen/kaiku/synth"
)

type (
	// fade ramps the playback volume between two levels on the playback's
	// elapsed clock. A fade alone never removes the playback.
	fade struct {
		active   bool
		from, to float32
		start    float64
		duration float64
	}

	// tween ramps pan or rate linearly toward a target on the same clock.
	tween struct {
		active   bool
		from, to float32
		start    float64
		duration float64
	}

	// playback is one active sound: a private renderer over a cloned mix
	// plus the playhead state the callback advances. Everything except
	// ended is guarded by the mixer mutex.
	playback struct {
		renderer *synth.Renderer
		duration float64
		elapsed  float64
		volume   float32
		pan      float32
		rate     float32
		paused   bool
		looping  bool

		fade      fade
		panTween  tween
		rateTween tween

		position   kaiku.Vec3
		velocity   kaiku.Vec3
		positioned bool

		ended atomic.Bool
	}
)

// newPlayback clones and finalizes the mix so the renderer owns its event
// order and the caller may keep mutating the original.
func newPlayback(mix *kaiku.Mix, sampleRate, maxFrames int, looping bool, rate float32) *playback {
	clone := mix.Copy()
	clone.Finalize()
	return &playback{
		renderer: synth.NewRenderer(&clone, sampleRate, maxFrames),
		duration: clone.TotalDuration(),
		volume:   1,
		rate:     clampRate(rate),
		looping:  looping,
	}
}

func (f *fade) valueAt(t float64) float32 {
	if f.duration <= 0 {
		return f.to
	}
	p := (t - f.start) / f.duration
	if p <= 0 {
		return f.from
	}
	if p >= 1 {
		return f.to
	}
	return f.from + (f.to-f.from)*float32(p)
}

func (f *fade) doneAt(t float64) bool { return t-f.start >= f.duration }

func (tw *tween) valueAt(t float64) (v float32, done bool) {
	if tw.duration <= 0 {
		return tw.to, true
	}
	p := (t - tw.start) / tw.duration
	if p <= 0 {
		return tw.from, false
	}
	if p >= 1 {
		return tw.to, true
	}
	return tw.from + (tw.to-tw.from)*float32(p), false
}

func clampVolume(v float32) float32 { return min(max(v, 0), 1) }
func clampPan(v float32) float32    { return min(max(v, -1), 1) }
func clampRate(v float32) float32   { return min(max(v, 0.1), 4) }
