package kaiku_test

import (
	"math"
	"testing"

	"github.com/jhalonen/kaiku"
)

func TestADSRAt(t *testing.T) {
	e := kaiku.ADSR{Attack: 0.1, Decay: 0.1, Sustain: 0.5, Release: 0.2}
	tests := []struct {
		name string
		tau  float64
		want float64
	}{
		{"before the note", -0.01, 0},
		{"mid attack", 0.05, 0.5},
		{"attack peak", 0.1, 1},
		{"mid decay", 0.15, 0.75},
		{"sustain", 0.5, 0.5},
		{"mid release", 1.1, 0.25},
		{"after release", 1.3, 0},
	}
	for _, tt := range tests {
		if got := e.At(tt.tau, 1); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: At(%v) = %v, want %v", tt.name, tt.tau, got, tt.want)
		}
	}
}

func TestADSRZeroSegments(t *testing.T) {
	e := kaiku.ADSR{Sustain: 0.8}
	if got := e.At(0.3, 1); got != 0.8 {
		t.Errorf("no attack or decay should hold sustain, got %v", got)
	}
	// Without a release the envelope cuts off at the note end.
	if got := e.At(1.0, 1); got != 0 {
		t.Errorf("at the note end = %v, want 0", got)
	}
}

func TestADSRTotalDuration(t *testing.T) {
	e := kaiku.ADSR{Release: 0.25}
	if got := e.TotalDuration(2); got != 2.25 {
		t.Errorf("TotalDuration = %v, want 2.25", got)
	}
}

func TestDefaultADSRRampsUpAndOut(t *testing.T) {
	e := kaiku.DefaultADSR
	if got := e.At(0, 1); got != 0 {
		t.Errorf("level at zero = %v", got)
	}
	if got := e.At(0.5, 1); got != 1 {
		t.Errorf("sustain level = %v, want 1", got)
	}
	if got := e.At(1.05, 1); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("mid release = %v, want 0.5", got)
	}
}

func TestNoteEnvelopeDefaulting(t *testing.T) {
	n := kaiku.Note{Frequencies: []float64{440}, Duration: 1}
	if got := n.Envelope(); got != kaiku.DefaultADSR {
		t.Errorf("unset envelope = %+v, want the default", got)
	}
	custom := kaiku.ADSR{Attack: 0.2, Sustain: 0.4, Release: 1}
	n.Amp = custom
	if got := n.Envelope(); got != custom {
		t.Errorf("set envelope = %+v, want it kept", got)
	}
}
