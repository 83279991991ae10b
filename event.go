package kaiku

type (
	// Event is a timed instruction inside a Track. It is a tagged union: Kind
	// tells which one of the payload pointers is set. The set of variants is
	// closed, so the renderer switches on Kind instead of using interface
	// dispatch.
	Event struct {
		Kind   EventKind    `yaml:"kind"`
		Start  float64      `yaml:"start"`
		Note   *Note        `yaml:"note,omitempty"`
		Drum   *Drum        `yaml:"drum,omitempty"`
		Sample *SampleEvent `yaml:"sample,omitempty"`
		Meta   *Meta        `yaml:"meta,omitempty"`
	}

	EventKind int

	// Note is a synthesized tone: up to MaxNoteFrequencies simultaneous
	// frequencies sharing one waveform, amplitude envelope and optional
	// frequency modulation. Velocity scales the amplitude and must be in
	// [0, 1]. Bend detunes all frequencies, in semitones.
	Note struct {
		Frequencies []float64 `yaml:"frequencies,flow"`
		Duration    float64   `yaml:"duration"`
		Waveform    Waveform  `yaml:"waveform"`
		Table       []float32 `yaml:"table,omitempty,flow"`
		Amp         ADSR      `yaml:"amp"`
		Filter      *ADSR     `yaml:"filter,omitempty"`
		FM          *FMParams `yaml:"fm,omitempty"`
		Bend        float64   `yaml:"bend,omitempty"`
		Velocity    float32   `yaml:"velocity"`
		Position    *Vec3     `yaml:"position,omitempty"`
	}

	// FMParams adds a modulator oscillator to a note. The modulator runs at
	// carrier frequency times Ratio and offsets the carrier phase by Index
	// times its output.
	FMParams struct {
		Ratio       float64  `yaml:"ratio"`
		Index       float64  `yaml:"index"`
		ModWaveform Waveform `yaml:"modwaveform,omitempty"`
	}

	Waveform int

	// Drum is a percussion hit rendered from a closed-form recipe selected
	// by Kind.
	Drum struct {
		Kind     DrumKind `yaml:"kind"`
		Position *Vec3    `yaml:"position,omitempty"`
	}

	DrumKind int

	// SampleEvent plays back a loaded sample asset. Sample is not
	// serialized; Path remembers where it came from so a deserialized mix
	// can be relinked to its assets.
	SampleEvent struct {
		Sample   *Sample `yaml:"-"`
		Path     string  `yaml:"path,omitempty"`
		Rate     float64 `yaml:"rate"`
		Volume   float32 `yaml:"volume"`
		Position *Vec3   `yaml:"position,omitempty"`
	}

	// Meta carries tempo, time signature and key signature changes. The
	// renderer ignores these; only the MIDI export consumes them. The
	// fields used depend on the event kind.
	Meta struct {
		BPM         float64 `yaml:"bpm,omitempty"`
		Numerator   int     `yaml:"numerator,omitempty"`
		Denominator int     `yaml:"denominator,omitempty"`
		SharpsFlats int     `yaml:"sharpsflats,omitempty"`
		Minor       bool    `yaml:"minor,omitempty"`
	}
)

const (
	EventNote EventKind = iota
	EventDrum
	EventSample
	EventTempoChange
	EventTimeSignature
	EventKeySignature
)

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSaw
	WaveTriangle
	WaveNoise
	WaveTable
)

const (
	DrumKick DrumKind = iota
	DrumSnare
	DrumHatClosed
	DrumHatOpen
	DrumTom
	DrumClap
	DrumRim
	NumDrumKinds
)

// MaxNoteFrequencies is the largest number of simultaneous frequencies a
// single Note may carry; extra ones are ignored.
const MaxNoteFrequencies = 8

// drumDurations are the fixed tail lengths of the drum recipes, in seconds.
var drumDurations = [NumDrumKinds]float64{
	DrumKick:      0.35,
	DrumSnare:     0.25,
	DrumHatClosed: 0.08,
	DrumHatOpen:   0.4,
	DrumTom:       0.3,
	DrumClap:      0.3,
	DrumRim:       0.1,
}

// Duration returns how long the drum sounds.
func (d *Drum) Duration() float64 {
	if d.Kind < 0 || d.Kind >= NumDrumKinds {
		return 0
	}
	return drumDurations[d.Kind]
}

// Gain returns the amplitude scale of the note. Zero velocity means the
// field was left unset and the note plays at full level.
func (n *Note) Gain() float32 {
	if n.Velocity <= 0 {
		return 1
	}
	return min(n.Velocity, 1)
}

// Envelope returns the note's amplitude envelope, substituting DefaultADSR
// when none was set.
func (n *Note) Envelope() ADSR {
	if n.Amp == (ADSR{}) {
		return DefaultADSR
	}
	return n.Amp
}

// End returns the time the event stops sounding, in seconds from the track
// origin. Meta events are instantaneous.
func (e *Event) End() float64 {
	switch e.Kind {
	case EventNote:
		if e.Note == nil {
			return e.Start
		}
		return e.Start + e.Note.Envelope().TotalDuration(e.Note.Duration)
	case EventDrum:
		if e.Drum == nil {
			return e.Start
		}
		return e.Start + e.Drum.Duration()
	case EventSample:
		if e.Sample == nil || e.Sample.Sample == nil {
			return e.Start
		}
		rate := e.Sample.Rate
		if rate <= 0 {
			rate = 1
		}
		return e.Start + e.Sample.Sample.Duration()/rate
	}
	return e.Start
}

// Position returns the payload's 3D position, nil when the event is not
// placed in space.
func (e *Event) Position() *Vec3 {
	switch e.Kind {
	case EventNote:
		if e.Note != nil {
			return e.Note.Position
		}
	case EventDrum:
		if e.Drum != nil {
			return e.Drum.Position
		}
	case EventSample:
		if e.Sample != nil {
			return e.Sample.Position
		}
	}
	return nil
}

// Audible reports whether the event produces sound. Meta events do not.
func (e *Event) Audible() bool {
	switch e.Kind {
	case EventNote, EventDrum, EventSample:
		return true
	}
	return false
}

// Copy returns a deep copy of the event and its payload.
func (e *Event) Copy() Event {
	c := Event{Kind: e.Kind, Start: e.Start}
	if e.Note != nil {
		n := *e.Note
		n.Frequencies = append([]float64(nil), e.Note.Frequencies...)
		n.Table = append([]float32(nil), e.Note.Table...)
		if e.Note.Filter != nil {
			f := *e.Note.Filter
			n.Filter = &f
		}
		if e.Note.FM != nil {
			fm := *e.Note.FM
			n.FM = &fm
		}
		n.Position = copyVec(e.Note.Position)
		c.Note = &n
	}
	if e.Drum != nil {
		d := *e.Drum
		d.Position = copyVec(e.Drum.Position)
		c.Drum = &d
	}
	if e.Sample != nil {
		s := *e.Sample
		s.Position = copyVec(e.Sample.Position)
		c.Sample = &s
	}
	if e.Meta != nil {
		m := *e.Meta
		c.Meta = &m
	}
	return c
}

func copyVec(v *Vec3) *Vec3 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
