package kaiku_test

import (
	"math"
	"testing"

	"github.com/jhalonen/kaiku"
)

func TestVec3Ops(t *testing.T) {
	a := kaiku.Vec3{X: 1, Y: 2, Z: 3}
	b := kaiku.Vec3{X: 4, Y: 5, Z: 6}
	if d := a.Sub(b); d != (kaiku.Vec3{X: -3, Y: -3, Z: -3}) {
		t.Errorf("Sub = %+v", d)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}
	// X cross Y is Z in a right-handed basis.
	x := kaiku.Vec3{X: 1}
	y := kaiku.Vec3{Y: 1}
	if c := x.Cross(y); c != (kaiku.Vec3{Z: 1}) {
		t.Errorf("X cross Y = %+v, want Z", c)
	}
	if l := (kaiku.Vec3{X: 3, Y: 4}).Len(); l != 5 {
		t.Errorf("Len = %v, want 5", l)
	}
}

func TestAttenuationLinear(t *testing.T) {
	p := kaiku.SpatialParams{Model: kaiku.AttenuationLinear, RefDistance: 1, MaxDistance: 11}
	cases := []struct{ d, want float64 }{
		{1, 1},
		{6, 0.5},
		{11, 0},
		{12, 0},
		{0.5, 1},
	}
	for _, c := range cases {
		if g := p.Attenuation(c.d); math.Abs(g-c.want) > 1e-9 {
			t.Errorf("linear Attenuation(%v) = %v, want %v", c.d, g, c.want)
		}
	}

	flat := kaiku.SpatialParams{Model: kaiku.AttenuationLinear, RefDistance: 5, MaxDistance: 5}
	if g := flat.Attenuation(3); g != 1 {
		t.Errorf("degenerate span Attenuation = %v, want 1", g)
	}
}

func TestAttenuationInverseSquare(t *testing.T) {
	p := kaiku.SpatialParams{Model: kaiku.AttenuationInverseSquare, RefDistance: 2, MaxDistance: 100}
	cases := []struct{ d, want float64 }{
		{1, 1},
		{2, 1},
		{4, 0.5},
		{8, 0.25},
		{200, 0},
	}
	for _, c := range cases {
		if g := p.Attenuation(c.d); math.Abs(g-c.want) > 1e-9 {
			t.Errorf("inverse Attenuation(%v) = %v, want %v", c.d, g, c.want)
		}
	}
}

func TestAttenuationExponential(t *testing.T) {
	p := kaiku.SpatialParams{
		Model: kaiku.AttenuationExponential, RefDistance: 2, MaxDistance: 100, RolloffFactor: 2,
	}
	if g := p.Attenuation(4); math.Abs(g-0.25) > 1e-9 {
		t.Errorf("exponential Attenuation(4) = %v, want 0.25", g)
	}
	if g := p.Attenuation(8); math.Abs(g-0.0625) > 1e-9 {
		t.Errorf("exponential Attenuation(8) = %v, want 0.0625", g)
	}
}

func TestEvaluateOnTopOfListener(t *testing.T) {
	l := kaiku.DefaultListener()
	p := kaiku.DefaultSpatialParams()
	gain, pan, pitch := p.Evaluate(&l, l.Position, kaiku.Vec3{X: 100})
	if gain != 1 || pan != 0 || pitch != 1 {
		t.Errorf("source on the listener = (%v, %v, %v), want (1, 0, 1)", gain, pan, pitch)
	}
}

func TestEvaluatePanFollowsListenerOrientation(t *testing.T) {
	l := kaiku.DefaultListener()
	p := kaiku.DefaultSpatialParams()
	p.DopplerFactor = 0

	// Facing +Z, a source at +X is hard right.
	if _, pan, _ := p.Evaluate(&l, kaiku.Vec3{X: 5}, kaiku.Vec3{}); pan != 1 {
		t.Errorf("pan = %v, want 1", pan)
	}
	// Turn around and the same source lands on the left.
	l.Forward = kaiku.Vec3{Z: -1}
	if _, pan, _ := p.Evaluate(&l, kaiku.Vec3{X: 5}, kaiku.Vec3{}); pan != -1 {
		t.Errorf("pan after turning = %v, want -1", pan)
	}
}

func TestEvaluateDopplerDriveBy(t *testing.T) {
	// A car at z = 5 m driving at 30 m/s along the x axis: pitched up while
	// approaching, unshifted abeam, pitched down while receding.
	l := kaiku.DefaultListener()
	p := kaiku.DefaultSpatialParams()
	vel := kaiku.Vec3{X: 30}

	gain, pan, pitch := p.Evaluate(&l, kaiku.Vec3{X: -20, Z: 5}, vel)
	if math.Abs(pitch-1.0927) > 1e-3 {
		t.Errorf("approaching pitch = %v, want about 1.0927", pitch)
	}
	if pan > -0.9 {
		t.Errorf("approaching pan = %v, want hard left", pan)
	}
	if d := math.Sqrt(425); math.Abs(gain-1/d) > 1e-6 {
		t.Errorf("approaching gain = %v, want %v", gain, 1/d)
	}

	_, pan, pitch = p.Evaluate(&l, kaiku.Vec3{Z: 5}, vel)
	if pitch != 1 {
		t.Errorf("abeam pitch = %v, want exactly 1", pitch)
	}
	if pan != 0 {
		t.Errorf("abeam pan = %v, want 0", pan)
	}

	_, pan, pitch = p.Evaluate(&l, kaiku.Vec3{X: 20, Z: 5}, vel)
	if math.Abs(pitch-0.9218) > 1e-3 {
		t.Errorf("receding pitch = %v, want about 0.9218", pitch)
	}
	if pan < 0.9 {
		t.Errorf("receding pan = %v, want hard right", pan)
	}
}

func TestEvaluateDopplerListenerMotion(t *testing.T) {
	l := kaiku.DefaultListener()
	l.Velocity = kaiku.Vec3{Z: -5}
	p := kaiku.DefaultSpatialParams()

	// Backing away from a static source at 5 m/s.
	_, _, pitch := p.Evaluate(&l, kaiku.Vec3{Z: 10}, kaiku.Vec3{})
	if math.Abs(pitch-338.0/343.0) > 1e-9 {
		t.Errorf("pitch = %v, want 338/343", pitch)
	}
}

func TestEvaluateDopplerClamps(t *testing.T) {
	l := kaiku.DefaultListener()
	p := kaiku.DefaultSpatialParams()

	// Supersonic approach drives the denominator non-positive.
	_, _, pitch := p.Evaluate(&l, kaiku.Vec3{X: -10}, kaiku.Vec3{X: 400})
	if pitch != 4 {
		t.Errorf("supersonic pitch = %v, want 4", pitch)
	}
	// A near-sonic approach still computes, then hits the same cap.
	_, _, pitch = p.Evaluate(&l, kaiku.Vec3{X: -10}, kaiku.Vec3{X: 300})
	if pitch != 4 {
		t.Errorf("near-sonic pitch = %v, want the 4 cap", pitch)
	}
	// Receding faster than any plausible shift floors out.
	_, _, pitch = p.Evaluate(&l, kaiku.Vec3{X: 10}, kaiku.Vec3{X: 4000})
	if pitch != 0.1 {
		t.Errorf("fast receding pitch = %v, want 0.1", pitch)
	}
}

func TestEvaluateDopplerDisabled(t *testing.T) {
	l := kaiku.DefaultListener()
	p := kaiku.DefaultSpatialParams()
	p.DopplerFactor = 0
	_, _, pitch := p.Evaluate(&l, kaiku.Vec3{X: -10}, kaiku.Vec3{X: 400})
	if pitch != 1 {
		t.Errorf("pitch with Doppler disabled = %v, want 1", pitch)
	}
}
