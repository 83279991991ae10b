package kaiku

import (
	"sort"
)

type (
	// Track is an ordered sequence of timed events plus the per-track signal
	// shaping applied after its voices are mixed: a stateful filter, LFO
	// modulation routes, an effect chain, and volume/pan. Tracks keep their
	// events sorted by start time; the sort is (re-)established lazily on
	// the first lookup after an insert.
	Track struct {
		Name    string     `yaml:"name,omitempty"`
		Events  []Event    `yaml:"events,omitempty"`
		Volume  float32    `yaml:"volume"`
		Pan     float32    `yaml:"pan,omitempty"`
		Filter  Filter     `yaml:"filter,omitempty"`
		Routes  []ModRoute `yaml:"routes,omitempty"`
		Effects Chain      `yaml:"effects,omitempty"`

		sorted  bool
		maxNote float64 // longest event length, valid while sorted
	}

	// Filter selects the per-track filter response. Cutoff is in Hz;
	// Resonance is 0..1. Type FilterNone disables it.
	Filter struct {
		Type      FilterType `yaml:"type,omitempty"`
		Cutoff    float64    `yaml:"cutoff,omitempty"`
		Resonance float64    `yaml:"resonance,omitempty"`
	}

	FilterType int

	// ModRoute ties an LFO to one modulation target. Pitch and FilterCutoff
	// modulate synthesis parameters per sample; Volume and Pan act on the
	// track accumulator.
	ModRoute struct {
		LFO    LFO       `yaml:"lfo"`
		Target ModTarget `yaml:"target"`
	}

	// LFO is a low-frequency oscillator: Freq in Hz, Depth in target units
	// (semitones for pitch, a cutoff multiplier for filter, plain gain for
	// volume, pan offset for pan).
	LFO struct {
		Waveform Waveform `yaml:"waveform,omitempty"`
		Freq     float64  `yaml:"freq"`
		Depth    float64  `yaml:"depth"`
	}

	ModTarget int
)

const (
	FilterNone FilterType = iota
	FilterLowPass
	FilterHighPass
	FilterBandPass
	FilterNotch
)

const (
	ModPitch ModTarget = iota
	ModFilterCutoff
	ModVolume
	ModPan
)

// AddEvent appends an event to the track and clears the sorted flag.
func (t *Track) AddEvent(e Event) {
	t.Events = append(t.Events, e)
	t.sorted = false
}

// Sort establishes the ascending start-time order the lookups rely on. It
// is called lazily by EventRange and Span, but callers that hand the track
// to the real-time mixer should call it up front so no sorting happens on
// the audio thread.
func (t *Track) Sort() {
	if t.sorted {
		return
	}
	sort.SliceStable(t.Events, func(i, j int) bool {
		return t.Events[i].Start < t.Events[j].Start
	})
	t.maxNote = 0
	for i := range t.Events {
		if l := t.Events[i].End() - t.Events[i].Start; l > t.maxNote {
			t.maxNote = l
		}
	}
	t.sorted = true
}

// EventRange returns the index range [lo, hi) of events that may sound
// within [t0, t1): every event with start < t1 whose end can still exceed
// t0. Callers must still check End() per event; the range is a superset
// bounded by the longest event on the track.
func (t *Track) EventRange(t0, t1 float64) (lo, hi int) {
	t.Sort()
	lo = sort.Search(len(t.Events), func(i int) bool {
		return t.Events[i].Start >= t0-t.maxNote
	})
	hi = sort.Search(len(t.Events), func(i int) bool {
		return t.Events[i].Start >= t1
	})
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Span returns the time range covered by the track's events.
func (t *Track) Span() (start, end float64) {
	t.Sort()
	if len(t.Events) == 0 {
		return 0, 0
	}
	start = t.Events[0].Start
	for i := range t.Events {
		if e := t.Events[i].End(); e > end {
			end = e
		}
	}
	return start, end
}

// Copy returns a deep copy of the track.
func (t *Track) Copy() Track {
	events := make([]Event, len(t.Events))
	for i := range t.Events {
		events[i] = t.Events[i].Copy()
	}
	routes := append([]ModRoute(nil), t.Routes...)
	return Track{
		Name:    t.Name,
		Events:  events,
		Volume:  t.Volume,
		Pan:     t.Pan,
		Filter:  t.Filter,
		Routes:  routes,
		Effects: t.Effects.Copy(),
		sorted:  t.sorted,
		maxNote: t.maxNote,
	}
}
