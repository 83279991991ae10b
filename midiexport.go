package kaiku

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const midiTicksPerQuarter = 960

// drumKeys maps drum kinds to General MIDI percussion keys.
var drumKeys = [NumDrumKinds]uint8{
	DrumKick:      36,
	DrumSnare:     38,
	DrumHatClosed: 42,
	DrumHatOpen:   46,
	DrumTom:       45,
	DrumClap:      39,
	DrumRim:       37,
}

// MIDI renders the mix as a format 1 standard MIDI file: a conductor track
// carrying the tempo, meter and key changes, then one track per mix track.
// Drums go to the General MIDI percussion channel; sample events have no
// MIDI form and are skipped.
func MIDI(m *Mix) (*smf.SMF, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(midiTicksPerQuarter)
	tm := newTempoMap(m)
	s.Add(conductorTrack(m, tm))
	channel := uint8(0)
	for _, bus := range m.Buses {
		for i := range bus.Tracks {
			tr, used := noteTrack(&bus.Tracks[i], tm, channel)
			s.Add(tr)
			if used {
				channel++
				if channel == 9 { // reserved for percussion
					channel++
				}
				channel %= 16
			}
		}
	}
	return s, nil
}

// WriteMIDI encodes the mix as a .mid file into w.
func WriteMIDI(m *Mix, w io.Writer) error {
	s, err := MIDI(m)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write MIDI file: %w", err)
	}
	return nil
}

type timedMessage struct {
	tick uint32
	off  bool
	msg  midi.Message
}

func addSorted(tr *smf.Track, msgs []timedMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].tick != msgs[j].tick {
			return msgs[i].tick < msgs[j].tick
		}
		return msgs[i].off && !msgs[j].off
	})
	last := uint32(0)
	for _, m := range msgs {
		tr.Add(m.tick-last, m.msg)
		last = m.tick
	}
}

func conductorTrack(m *Mix, tm *tempoMap) smf.Track {
	var collected []timedMessage
	tempoAtZero, meterAtZero := false, false
	for _, bus := range m.Buses {
		for _, t := range bus.Tracks {
			for _, e := range t.Events {
				if e.Meta == nil {
					continue
				}
				tick := tm.tick(e.Start)
				switch e.Kind {
				case EventTempoChange:
					collected = append(collected, timedMessage{tick, false, smf.MetaTempo(e.Meta.BPM)})
					tempoAtZero = tempoAtZero || tick == 0
				case EventTimeSignature:
					collected = append(collected, timedMessage{tick, false, smf.MetaMeter(uint8(e.Meta.Numerator), uint8(e.Meta.Denominator))})
					meterAtZero = meterAtZero || tick == 0
				case EventKeySignature:
					collected = append(collected, timedMessage{tick, false, keySignature(e.Meta)})
				}
			}
		}
	}
	var msgs []timedMessage
	if !tempoAtZero {
		msgs = append(msgs, timedMessage{0, false, smf.MetaTempo(tm.bpms[0])})
	}
	if !meterAtZero {
		msgs = append(msgs, timedMessage{0, false, smf.MetaMeter(4, 4)})
	}
	msgs = append(msgs, collected...)
	var tr smf.Track
	addSorted(&tr, msgs)
	tr.Close(0)
	return tr
}

func noteTrack(t *Track, tm *tempoMap, channel uint8) (tr smf.Track, used bool) {
	var msgs []timedMessage
	for _, e := range t.Events {
		switch e.Kind {
		case EventNote:
			if e.Note == nil {
				continue
			}
			on := tm.tick(e.Start)
			rel := tm.tick(e.Start + e.Note.Duration)
			vel := noteVelocity(e.Note.Gain())
			for _, f := range e.Note.Frequencies {
				key, ok := frequencyToKey(f)
				if !ok {
					continue
				}
				msgs = append(msgs, timedMessage{on, false, midi.NoteOn(channel, key, vel)})
				msgs = append(msgs, timedMessage{rel, true, midi.NoteOff(channel, key)})
				used = true
			}
		case EventDrum:
			if e.Drum == nil || e.Drum.Kind >= NumDrumKinds {
				continue
			}
			key := drumKeys[e.Drum.Kind]
			on := tm.tick(e.Start)
			off := tm.tick(e.Start + e.Drum.Duration())
			msgs = append(msgs, timedMessage{on, false, midi.NoteOn(9, key, 100)})
			msgs = append(msgs, timedMessage{off, true, midi.NoteOff(9, key)})
		}
	}
	addSorted(&tr, msgs)
	tr.Close(0)
	return tr, used
}

func noteVelocity(gain float32) uint8 {
	v := int(math.Round(float64(gain) * 127))
	return uint8(min(max(v, 1), 127))
}

func frequencyToKey(freq float64) (uint8, bool) {
	if freq <= 0 {
		return 0, false
	}
	k := int(math.Round(69 + 12*math.Log2(freq/440)))
	if k < 0 || k > 127 {
		return 0, false
	}
	return uint8(k), true
}

// keySignature converts a sharps/flats count and mode into the MIDI key
// signature meta event. Positive counts are sharps, negative flats.
func keySignature(m *Meta) midi.Message {
	num := m.SharpsFlats
	isFlat := num < 0
	if isFlat {
		num = -num
	}
	var root int
	if isFlat {
		root = (5 * num) % 12
	} else {
		root = (7 * num) % 12
	}
	if m.Minor {
		root = (root + 9) % 12
	}
	return smf.MetaKey(uint8(root), !m.Minor, uint8(num), isFlat)
}

// tempoMap converts song time in seconds to MIDI ticks across tempo
// changes.
type tempoMap struct {
	times []float64
	bpms  []float64
	ticks []float64
}

func newTempoMap(m *Mix) *tempoMap {
	bpm := m.BPM
	if bpm <= 0 {
		bpm = 120
	}
	tm := &tempoMap{times: []float64{0}, bpms: []float64{bpm}, ticks: []float64{0}}
	var changes []Event
	for _, bus := range m.Buses {
		for _, t := range bus.Tracks {
			for _, e := range t.Events {
				if e.Kind == EventTempoChange && e.Meta != nil && e.Meta.BPM > 0 {
					changes = append(changes, e)
				}
			}
		}
	}
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].Start < changes[j].Start })
	for _, e := range changes {
		if e.Start <= 0 {
			tm.bpms[0] = e.Meta.BPM
			continue
		}
		last := len(tm.times) - 1
		elapsed := e.Start - tm.times[last]
		tm.times = append(tm.times, e.Start)
		tm.bpms = append(tm.bpms, e.Meta.BPM)
		tm.ticks = append(tm.ticks, tm.ticks[last]+elapsed*tm.bpms[last]/60*midiTicksPerQuarter)
	}
	return tm
}

func (tm *tempoMap) tick(t float64) uint32 {
	if t <= 0 {
		return 0
	}
	i := sort.SearchFloat64s(tm.times, t) - 1
	if i < 0 {
		i = 0
	}
	ticks := tm.ticks[i] + (t-tm.times[i])*tm.bpms[i]/60*midiTicksPerQuarter
	return uint32(math.Round(ticks))
}
