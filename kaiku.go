// Package kaiku contains the data model of a real-time audio engine: mixes,
// buses, tracks and their timed events, sample assets, and the spatial
// listener model. The packages synth, fx and engine build the actual signal
// path on top of these types.
package kaiku

import "io"

// SampleRate is the output rate used when nothing else is requested. The
// engine always asks the device for an explicit rate, and this is the one it
// asks for by default.
const SampleRate = 44100

// AudioSource is the pull side of the audio pipeline: the device driver
// repeatedly asks it to fill a buffer of interleaved float32 samples. The
// engine's mixer implements this.
type AudioSource interface {
	ReadAudio(buffer []float32) (n int, err error)
	Close() error
}

// AudioContext represents the low-level audio drivers. It starts pulling
// from an AudioSource and reports the format it runs at.
type AudioContext interface {
	Play(source AudioSource) (io.Closer, error)
	SampleRate() int
	ChannelCount() int
	Close() error
}
