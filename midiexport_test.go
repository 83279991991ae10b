package kaiku_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/jhalonen/kaiku"
	"gitlab.com/gomidi/midi/v2/smf"
)

type midiNote struct {
	tick    uint32
	on      bool
	channel uint8
	key     uint8
	vel     uint8
}

func collectNotes(tr smf.Track) []midiNote {
	var notes []midiNote
	tick := uint32(0)
	for _, ev := range tr {
		tick += ev.Delta
		var ch, key, vel uint8
		if ev.Message.GetNoteOn(&ch, &key, &vel) {
			notes = append(notes, midiNote{tick, true, ch, key, vel})
		} else if ev.Message.GetNoteOff(&ch, &key, &vel) {
			notes = append(notes, midiNote{tick, false, ch, key, vel})
		}
	}
	return notes
}

func collectTempos(tr smf.Track) (ticks []uint32, bpms []float64) {
	tick := uint32(0)
	for _, ev := range tr {
		tick += ev.Delta
		var bpm float64
		if ev.Message.GetMetaTempo(&bpm) {
			ticks = append(ticks, tick)
			bpms = append(bpms, bpm)
		}
	}
	return ticks, bpms
}

func noteTrackMix(notes ...kaiku.Event) *kaiku.Mix {
	m := kaiku.NewMix(120)
	m.Buses[0].Tracks = []kaiku.Track{{Volume: 1, Events: notes}}
	return m
}

func TestMIDIConductorDefaultsAndNoteTiming(t *testing.T) {
	m := noteTrackMix(kaiku.Event{
		Kind: kaiku.EventNote,
		Note: &kaiku.Note{Frequencies: []float64{440}, Duration: 0.5},
	})
	s, err := kaiku.MIDI(m)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Tracks) != 2 {
		t.Fatalf("tracks = %d, want conductor + 1", len(s.Tracks))
	}

	ticks, bpms := collectTempos(s.Tracks[0])
	if len(bpms) != 1 || ticks[0] != 0 || math.Abs(bpms[0]-120) > 1e-6 {
		t.Errorf("tempos = %v at %v, want 120 at tick 0", bpms, ticks)
	}
	var num, denom uint8
	foundMeter := false
	for _, ev := range s.Tracks[0] {
		if ev.Message.GetMetaMeter(&num, &denom) {
			foundMeter = true
		}
	}
	if !foundMeter || num != 4 || denom != 4 {
		t.Errorf("meter = %d/%d (found %v), want a default 4/4", num, denom, foundMeter)
	}

	notes := collectNotes(s.Tracks[1])
	if len(notes) != 2 {
		t.Fatalf("note events = %+v", notes)
	}
	on, off := notes[0], notes[1]
	if !on.on || on.tick != 0 || on.channel != 0 || on.key != 69 || on.vel != 127 {
		t.Errorf("note on = %+v, want key 69 vel 127 ch 0 at tick 0", on)
	}
	// 0.5 s at 120 BPM is one quarter note.
	if off.on || off.tick != 960 || off.key != 69 {
		t.Errorf("note off = %+v, want key 69 at tick 960", off)
	}
}

func TestMIDISurvivesEncoding(t *testing.T) {
	m := noteTrackMix(kaiku.Event{
		Kind: kaiku.EventNote,
		Note: &kaiku.Note{Frequencies: []float64{440}, Duration: 0.5},
	})
	var buf bytes.Buffer
	if err := kaiku.WriteMIDI(m, &buf); err != nil {
		t.Fatal(err)
	}
	s, err := smf.ReadFrom(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Tracks) != 2 {
		t.Fatalf("tracks after reread = %d", len(s.Tracks))
	}
	notes := collectNotes(s.Tracks[1])
	if len(notes) != 2 || notes[1].tick != 960 {
		t.Errorf("notes after reread = %+v", notes)
	}
}

func TestMIDITempoChangeMovesTicks(t *testing.T) {
	var tr kaiku.Track
	tr.Volume = 1
	tr.AddEvent(kaiku.Event{Kind: kaiku.EventTempoChange, Start: 1, Meta: &kaiku.Meta{BPM: 60}})
	tr.AddEvent(kaiku.Event{
		Kind:  kaiku.EventNote,
		Start: 1,
		Note:  &kaiku.Note{Frequencies: []float64{440}, Duration: 1},
	})
	m := kaiku.NewMix(120)
	m.Buses[0].Tracks = []kaiku.Track{tr}

	s, err := kaiku.MIDI(m)
	if err != nil {
		t.Fatal(err)
	}
	ticks, bpms := collectTempos(s.Tracks[0])
	if len(bpms) != 2 || ticks[0] != 0 || bpms[0] != 120 || ticks[1] != 1920 || bpms[1] != 60 {
		t.Errorf("tempos = %v at %v, want 120@0 and 60@1920", bpms, ticks)
	}

	notes := collectNotes(s.Tracks[1])
	// The second before the change runs at 120 BPM, the note itself at 60.
	if notes[0].tick != 1920 || notes[1].tick != 2880 {
		t.Errorf("note ticks = %d..%d, want 1920..2880", notes[0].tick, notes[1].tick)
	}
}

func TestMIDITempoChangeAtZeroReplacesDefault(t *testing.T) {
	m := noteTrackMix(
		kaiku.Event{Kind: kaiku.EventTempoChange, Meta: &kaiku.Meta{BPM: 90}},
		kaiku.Event{
			Kind:  kaiku.EventNote,
			Start: 1,
			Note:  &kaiku.Note{Frequencies: []float64{440}, Duration: 0.5},
		},
	)
	s, err := kaiku.MIDI(m)
	if err != nil {
		t.Fatal(err)
	}
	ticks, bpms := collectTempos(s.Tracks[0])
	if len(bpms) != 1 || ticks[0] != 0 || math.Abs(bpms[0]-90) > 1e-3 {
		t.Errorf("tempos = %v at %v, want only 90 at tick 0", bpms, ticks)
	}
	if notes := collectNotes(s.Tracks[1]); notes[0].tick != 1440 {
		t.Errorf("note on tick = %d, want 1440 at 90 BPM", notes[0].tick)
	}
}

func TestMIDIDrumsUsePercussionChannel(t *testing.T) {
	m := noteTrackMix(
		kaiku.Event{Kind: kaiku.EventDrum, Drum: &kaiku.Drum{Kind: kaiku.DrumKick}},
		kaiku.Event{Kind: kaiku.EventDrum, Start: 0.5, Drum: &kaiku.Drum{Kind: kaiku.DrumSnare}},
	)
	s, err := kaiku.MIDI(m)
	if err != nil {
		t.Fatal(err)
	}
	notes := collectNotes(s.Tracks[1])
	if len(notes) != 4 {
		t.Fatalf("drum events = %+v", notes)
	}
	for _, n := range notes {
		if n.channel != 9 {
			t.Errorf("drum event on channel %d", n.channel)
		}
	}
	kickOn, snareOn := notes[0], notes[2]
	if kickOn.key != 36 || kickOn.vel != 100 {
		t.Errorf("kick = %+v, want key 36 vel 100", kickOn)
	}
	if snareOn.key != 38 || snareOn.tick != 960 {
		t.Errorf("snare = %+v, want key 38 at tick 960", snareOn)
	}
}

func TestMIDIChannelAssignmentSkipsPercussion(t *testing.T) {
	m := kaiku.NewMix(120)
	note := func() kaiku.Event {
		return kaiku.Event{
			Kind: kaiku.EventNote,
			Note: &kaiku.Note{Frequencies: []float64{440}, Duration: 0.25},
		}
	}
	var tracks []kaiku.Track
	for range 9 {
		tracks = append(tracks, kaiku.Track{Volume: 1, Events: []kaiku.Event{note()}})
	}
	// A drum-only track renders on channel 9 and must not consume a melodic
	// channel.
	tracks = append(tracks, kaiku.Track{Volume: 1, Events: []kaiku.Event{
		{Kind: kaiku.EventDrum, Drum: &kaiku.Drum{Kind: kaiku.DrumKick}},
	}})
	tracks = append(tracks, kaiku.Track{Volume: 1, Events: []kaiku.Event{note()}})
	m.Buses[0].Tracks = tracks

	s, err := kaiku.MIDI(m)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Tracks) != 12 {
		t.Fatalf("tracks = %d", len(s.Tracks))
	}
	for i := range 9 {
		if ch := collectNotes(s.Tracks[1+i])[0].channel; ch != uint8(i) {
			t.Errorf("melodic track %d on channel %d", i, ch)
		}
	}
	if ch := collectNotes(s.Tracks[10])[0].channel; ch != 9 {
		t.Errorf("drum track on channel %d", ch)
	}
	// The tenth melodic track comes after eight and nine were handed out, so
	// it lands past the reserved percussion channel.
	if ch := collectNotes(s.Tracks[11])[0].channel; ch != 10 {
		t.Errorf("tenth melodic track on channel %d, want 10", ch)
	}
}

func TestMIDIVelocityAndKeyMapping(t *testing.T) {
	m := noteTrackMix(
		kaiku.Event{
			Kind: kaiku.EventNote,
			Note: &kaiku.Note{Frequencies: []float64{440, 880}, Duration: 0.25, Velocity: 0.5},
		},
		kaiku.Event{
			Kind:  kaiku.EventNote,
			Start: 1,
			Note:  &kaiku.Note{Frequencies: []float64{440}, Duration: 0.25, Velocity: 0.001},
		},
		kaiku.Event{
			Kind:  kaiku.EventNote,
			Start: 2,
			Note:  &kaiku.Note{Frequencies: []float64{0.001}, Duration: 0.25},
		},
		kaiku.Event{
			Kind:   kaiku.EventSample,
			Start:  3,
			Sample: &kaiku.SampleEvent{Path: "x.wav", Rate: 1},
		},
	)
	s, err := kaiku.MIDI(m)
	if err != nil {
		t.Fatal(err)
	}
	notes := collectNotes(s.Tracks[1])
	// The chord makes four events, the quiet note two; the subsonic note and
	// the sample make none.
	if len(notes) != 6 {
		t.Fatalf("note events = %+v", notes)
	}
	if notes[0].key != 69 || notes[1].key != 81 {
		t.Errorf("chord keys = %d, %d, want 69 and 81", notes[0].key, notes[1].key)
	}
	if notes[0].vel != 64 || notes[1].vel != 64 {
		t.Errorf("chord velocities = %d, %d, want 64", notes[0].vel, notes[1].vel)
	}
	if notes[4].vel != 1 {
		t.Errorf("near-silent velocity = %d, want the floor of 1", notes[4].vel)
	}
}

func TestMIDIKeySignaturePlacement(t *testing.T) {
	m := noteTrackMix(kaiku.Event{
		Kind:  kaiku.EventKeySignature,
		Start: 2,
		Meta:  &kaiku.Meta{SharpsFlats: 2},
	})
	s, err := kaiku.MIDI(m)
	if err != nil {
		t.Fatal(err)
	}
	// Tempo and meter defaults at 0, then the key signature two seconds in.
	tick, count := uint32(0), 0
	for _, ev := range s.Tracks[0] {
		tick += ev.Delta
		count++
	}
	if count != 4 {
		t.Fatalf("conductor events = %d, want tempo, meter, key and end of track", count)
	}
	if tick != 3840 {
		t.Errorf("last conductor tick = %d, want 3840", tick)
	}
}
