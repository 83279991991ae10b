package kaiku

// ADSR is an attack/decay/sustain/release envelope. Attack, Decay and
// Release are in seconds, Sustain is the level held between the decay and
// the note end. The release phase begins when the note's nominal duration
// has passed, starting from whatever level the envelope had at that moment.
type ADSR struct {
	Attack  float64 `yaml:"attack"`
	Decay   float64 `yaml:"decay"`
	Sustain float64 `yaml:"sustain"`
	Release float64 `yaml:"release"`
}

// DefaultADSR is the envelope used by notes that do not set one.
var DefaultADSR = ADSR{Attack: 0.01, Decay: 0.1, Sustain: 1.0, Release: 0.1}

// TotalDuration returns how long a note with the given nominal duration
// keeps sounding, release tail included.
func (e ADSR) TotalDuration(noteDuration float64) float64 {
	return noteDuration + e.Release
}

// At evaluates the envelope at tau seconds into a note of the given nominal
// duration. Outside [0, TotalDuration) the level is zero.
func (e ADSR) At(tau, noteDuration float64) float64 {
	if tau < 0 {
		return 0
	}
	if tau >= noteDuration {
		rel := tau - noteDuration
		if e.Release <= 0 || rel >= e.Release {
			return 0
		}
		return e.held(noteDuration) * (1 - rel/e.Release)
	}
	return e.held(tau)
}

// held is the envelope level before the release phase.
func (e ADSR) held(tau float64) float64 {
	if tau < e.Attack && e.Attack > 0 {
		return tau / e.Attack
	}
	tau -= e.Attack
	if tau < e.Decay && e.Decay > 0 {
		return 1 + (e.Sustain-1)*tau/e.Decay
	}
	return e.Sustain
}
