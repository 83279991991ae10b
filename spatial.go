package kaiku

import "math"

type (
	// Vec3 is a point or direction in the right-handed world space of the
	// engine, in meters.
	Vec3 struct {
		X float32 `yaml:"x"`
		Y float32 `yaml:"y"`
		Z float32 `yaml:"z"`
	}

	// Listener is the ear position used for spatialized sounds. Forward
	// should be unit length; the up direction is fixed to +Y.
	Listener struct {
		Position Vec3 `yaml:"position,flow"`
		Velocity Vec3 `yaml:"velocity,flow"`
		Forward  Vec3 `yaml:"forward,flow"`
	}

	// AttenuationModel selects how gain falls off with distance.
	AttenuationModel int

	// SpatialParams controls distance attenuation and Doppler for one
	// sound. Distances are in meters, SpeedOfSound in m/s. DopplerFactor 0
	// disables the pitch shift.
	SpatialParams struct {
		Model         AttenuationModel `yaml:"model"`
		RefDistance   float64          `yaml:"refdistance"`
		MaxDistance   float64          `yaml:"maxdistance"`
		RolloffFactor float64          `yaml:"rolloff"`
		DopplerFactor float64          `yaml:"doppler"`
		SpeedOfSound  float64          `yaml:"speedofsound"`
	}
)

const (
	AttenuationLinear AttenuationModel = iota
	AttenuationInverseSquare
	AttenuationExponential
)

// DefaultListener sits at the origin facing +Z.
func DefaultListener() Listener {
	return Listener{Forward: Vec3{Z: 1}}
}

// DefaultSpatialParams returns the inverse-square model with a 1 m
// reference distance and full Doppler.
func DefaultSpatialParams() SpatialParams {
	return SpatialParams{
		Model:         AttenuationInverseSquare,
		RefDistance:   1,
		MaxDistance:   100,
		RolloffFactor: 1,
		DopplerFactor: 1,
		SpeedOfSound:  343,
	}
}

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Dot(o Vec3) float64 {
	return float64(v.X)*float64(o.X) + float64(v.Y)*float64(o.Y) + float64(v.Z)*float64(o.Z)
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// Attenuation returns the distance gain in [0, 1] for a source d meters
// away. All models cut to zero beyond MaxDistance.
func (p *SpatialParams) Attenuation(d float64) float64 {
	if d > p.MaxDistance {
		return 0
	}
	var g float64
	switch p.Model {
	case AttenuationLinear:
		span := p.MaxDistance - p.RefDistance
		if span <= 0 {
			return 1
		}
		g = 1 - (d-p.RefDistance)/span
	case AttenuationInverseSquare:
		g = p.RefDistance / math.Max(p.RefDistance, d)
	case AttenuationExponential:
		g = math.Pow(p.RefDistance/math.Max(p.RefDistance, d), p.RolloffFactor)
	default:
		return 1
	}
	return min(max(g, 0), 1)
}

// Evaluate computes the gain, stereo pan and Doppler pitch of a source at
// pos moving with vel, as heard by the listener. A source on top of the
// listener is heard centered at full gain and unshifted pitch.
func (p *SpatialParams) Evaluate(l *Listener, pos, vel Vec3) (gain, pan, pitch float64) {
	r := pos.Sub(l.Position)
	d := r.Len()
	if d < 1e-6 {
		return 1, 0, 1
	}
	gain = p.Attenuation(d)
	right := Vec3{Y: 1}.Cross(l.Forward)
	pan = min(max(r.Dot(right)/d, -1), 1)
	pitch = 1
	if p.DopplerFactor != 0 && p.SpeedOfSound > 0 {
		vl := l.Velocity.Dot(r) / d * p.DopplerFactor
		vs := vel.Dot(r) / d * p.DopplerFactor
		den := p.SpeedOfSound + vs
		if den <= 0 {
			pitch = 4
		} else {
			pitch = (p.SpeedOfSound + vl) / den
		}
		pitch = min(max(pitch, 0.1), 4)
	}
	return gain, pan, pitch
}
