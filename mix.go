package kaiku

type (
	// Mix is a finalized composition: an ordered set of buses, each holding
	// an ordered set of tracks. The engine copies a mix into each playback,
	// so edits made after Play do not reach running audio. BPM is
	// informational for the renderer but drives the MIDI export's tick
	// mapping.
	Mix struct {
		BPM   float64 `yaml:"bpm"`
		Buses []Bus   `yaml:"buses"`
	}

	// Bus groups tracks behind a shared effect chain and volume/pan. If any
	// bus in a mix is soloed, only soloed buses contribute to the output;
	// muted buses are always skipped.
	Bus struct {
		Name   string  `yaml:"name,omitempty"`
		Tracks []Track `yaml:"tracks,omitempty"`
		Volume float32 `yaml:"volume"`
		Pan    float32 `yaml:"pan,omitempty"`
		Mute   bool    `yaml:"mute,omitempty"`
		Solo   bool    `yaml:"solo,omitempty"`

		Effects Chain `yaml:"effects,omitempty"`
	}
)

// NewMix returns an empty mix with one default bus at unity volume.
func NewMix(bpm float64) *Mix {
	return &Mix{
		BPM:   bpm,
		Buses: []Bus{{Name: "master", Volume: 1}},
	}
}

// NewSampleMix wraps a single sample playback into a minimal one-track mix,
// which is how one-shot sample plays enter the engine.
func NewSampleMix(s *Sample, rate float64, volume float32) *Mix {
	m := NewMix(120)
	m.Buses[0].Tracks = []Track{{
		Volume: 1,
		Events: []Event{{
			Kind:   EventSample,
			Sample: &SampleEvent{Sample: s, Rate: rate, Volume: volume},
		}},
	}}
	m.Finalize()
	return m
}

// TotalDuration returns the time the last event stops sounding.
func (m *Mix) TotalDuration() float64 {
	var end float64
	for b := range m.Buses {
		for t := range m.Buses[b].Tracks {
			if _, e := m.Buses[b].Tracks[t].Span(); e > end {
				end = e
			}
		}
	}
	return end
}

// Finalize sorts every track's events so that no lazy sorting is left to
// happen on the audio thread. The engine calls it before a mix reaches the
// callback.
func (m *Mix) Finalize() {
	for b := range m.Buses {
		for t := range m.Buses[b].Tracks {
			m.Buses[b].Tracks[t].Sort()
		}
	}
}

// Soloed reports whether any bus has its solo flag set.
func (m *Mix) Soloed() bool {
	for b := range m.Buses {
		if m.Buses[b].Solo {
			return true
		}
	}
	return false
}

// Copy returns a deep copy of the mix.
func (m *Mix) Copy() Mix {
	buses := make([]Bus, len(m.Buses))
	for i := range m.Buses {
		buses[i] = m.Buses[i].Copy()
	}
	return Mix{BPM: m.BPM, Buses: buses}
}

// Copy returns a deep copy of the bus.
func (b *Bus) Copy() Bus {
	tracks := make([]Track, len(b.Tracks))
	for i := range b.Tracks {
		tracks[i] = b.Tracks[i].Copy()
	}
	return Bus{
		Name:    b.Name,
		Tracks:  tracks,
		Volume:  b.Volume,
		Pan:     b.Pan,
		Mute:    b.Mute,
		Solo:    b.Solo,
		Effects: b.Effects.Copy(),
	}
}
