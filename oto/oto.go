// Package oto plays engine audio through the default output device using
// the ebitengine/oto library.
package oto

import (
	"fmt"
	"io"
	"time"

	oto "github.com/ebitengine/oto/v3"

	"github.com/jhalonen/kaiku"
)

type (
	// Context wraps the process-wide device context. The underlying
	// library allows only one per process and never releases it, so
	// Close only stops playback started through this wrapper.
	Context struct {
		ctx          *oto.Context
		sampleRate   int
		channelCount int
	}

	// output adapts a kaiku.AudioSource to the io.Reader the device
	// player pulls from, converting float32 samples to little-endian
	// bytes.
	output struct {
		source kaiku.AudioSource
		player *oto.Player
		frames []float32
		buf    []byte
		rem    []byte
	}
)

// NewContext opens the default output device at the given format.
func NewContext(sampleRate, channelCount int, bufferSize time.Duration) (*Context, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kaiku.ErrDeviceUnavailable, err)
	}
	<-ready
	return &Context{ctx: ctx, sampleRate: sampleRate, channelCount: channelCount}, nil
}

func (c *Context) SampleRate() int   { return c.sampleRate }
func (c *Context) ChannelCount() int { return c.channelCount }

// Play starts pulling from source. Closing the returned closer stops the
// device player; the source itself is not closed.
func (c *Context) Play(source kaiku.AudioSource) (io.Closer, error) {
	o := &output{source: source}
	o.player = c.ctx.NewPlayer(o)
	o.player.Play()
	if err := o.player.Err(); err != nil {
		o.player.Close()
		return nil, fmt.Errorf("%w: %v", kaiku.ErrStreamInit, err)
	}
	return o, nil
}

func (c *Context) Close() error { return nil }

func (o *output) Read(p []byte) (int, error) {
	total := copy(p, o.rem)
	o.rem = o.rem[total:]
	p = p[total:]
	if len(p) == 0 {
		return total, nil
	}
	want := (len(p) + 3) / 4
	if cap(o.frames) < want {
		o.frames = make([]float32, want)
	}
	n, err := o.source.ReadAudio(o.frames[:want])
	if n > 0 {
		o.buf = floatBufferToLEBytes(o.frames[:n], o.buf)
		copied := copy(p, o.buf)
		o.rem = o.buf[copied:]
		total += copied
	}
	if err != nil && total == 0 {
		return 0, err
	}
	return total, nil
}

func (o *output) Close() error {
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close player: %w", err)
	}
	return nil
}
