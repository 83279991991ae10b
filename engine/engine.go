// Package engine drives real-time playback: a controller that accepts
// commands from any goroutine, an audio-callback mixer that applies them in
// send order, per-stream decoder workers, and a shared sample cache.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/jhalonen/kaiku"
	"github.com/jhalonen/kaiku/codec"
	"github.com/jhalonen/kaiku/oto"
)

// Options configure a new engine. The zero value asks for a stereo device
// at the default rate.
type Options struct {
	SampleRate   int         // device sample rate, default kaiku.SampleRate
	ChannelCount int         // 1 or 2, default 2
	BufferFrames int         // frames per callback the device should aim for, default 4096
	Logger       *log.Logger // worker error log, default log.Default()

	// LoadSample decodes a sample file for the cache, default
	// codec.LoadSample.
	LoadSample func(path string) (*kaiku.Sample, error)
}

func (o *Options) fill() error {
	if o.SampleRate <= 0 {
		o.SampleRate = kaiku.SampleRate
	}
	if o.ChannelCount == 0 {
		o.ChannelCount = 2
	}
	if o.ChannelCount < 1 || o.ChannelCount > 2 {
		return fmt.Errorf("%w: %d channel output not supported", kaiku.ErrStreamInit, o.ChannelCount)
	}
	if o.BufferFrames <= 0 {
		o.BufferFrames = 4096
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.LoadSample == nil {
		o.LoadSample = codec.LoadSample
	}
	return nil
}

// Engine is the playback controller. All methods may be called from any
// goroutine; most only enqueue a command for the audio callback and return
// kaiku.ErrEngineStopped once the engine is closed.
type Engine struct {
	ctx        kaiku.AudioContext
	dev        io.Closer
	mixer      *mixer
	queue      *commandQueue
	cache      *sampleCache
	logger     *log.Logger
	ids        atomic.Uint64
	closed     atomic.Bool
	ownCtx     bool
	sampleRate int
	maxFrames  int
}

// New opens the default output device and starts pulling audio.
func New(opts Options) (*Engine, error) {
	if err := opts.fill(); err != nil {
		return nil, err
	}
	bufDur := time.Duration(float64(opts.BufferFrames) / float64(opts.SampleRate) * float64(time.Second))
	ctx, err := oto.NewContext(opts.SampleRate, opts.ChannelCount, bufDur)
	if err != nil {
		return nil, err
	}
	e, err := NewWithContext(ctx, opts)
	if err != nil {
		return nil, err
	}
	e.ownCtx = true
	return e, nil
}

// NewWithContext runs the engine against a caller-supplied device context.
// The context's sample rate and channel count are authoritative.
func NewWithContext(ctx kaiku.AudioContext, opts Options) (*Engine, error) {
	if err := opts.fill(); err != nil {
		return nil, err
	}
	if ctx.ChannelCount() < 1 || ctx.ChannelCount() > 2 {
		return nil, fmt.Errorf("%w: %d channel output not supported", kaiku.ErrStreamInit, ctx.ChannelCount())
	}
	queue := &commandQueue{}
	e := &Engine{
		ctx:        ctx,
		mixer:      newMixer(queue, ctx.SampleRate(), ctx.ChannelCount(), opts.BufferFrames),
		queue:      queue,
		cache:      newSampleCache(opts.LoadSample),
		logger:     opts.Logger,
		sampleRate: ctx.SampleRate(),
		maxFrames:  opts.BufferFrames,
	}
	dev, err := ctx.Play(e.mixer)
	if err != nil {
		if errors.Is(err, kaiku.ErrStreamInit) || errors.Is(err, kaiku.ErrDeviceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", kaiku.ErrStreamInit, err)
	}
	e.dev = dev
	return e, nil
}

// Play starts mix from the beginning and returns its playback id.
func (e *Engine) Play(mix *kaiku.Mix) (uint64, error) {
	id, _, err := e.startPlayback(mix, false, 1)
	return id, err
}

// PlayLooping restarts mix from zero each time it completes.
func (e *Engine) PlayLooping(mix *kaiku.Mix) (uint64, error) {
	id, _, err := e.startPlayback(mix, true, 1)
	return id, err
}

// PlayAtRate plays mix at the given rate and returns once the playback has
// finished or been stopped, polling every 10 ms.
func (e *Engine) PlayAtRate(mix *kaiku.Mix, rate float32) (uint64, error) {
	id, p, err := e.startPlayback(mix, false, rate)
	if err != nil {
		return 0, err
	}
	for !p.ended.Load() {
		time.Sleep(10 * time.Millisecond)
	}
	return id, nil
}

func (e *Engine) startPlayback(mix *kaiku.Mix, looping bool, rate float32) (uint64, *playback, error) {
	if e.closed.Load() {
		return 0, nil, kaiku.ErrEngineStopped
	}
	p := newPlayback(mix, e.sampleRate, e.maxFrames, looping, rate)
	id := e.ids.Add(1)
	if err := e.queue.push(command{kind: cmdPlay, id: id, playback: p}); err != nil {
		return 0, nil, err
	}
	return id, p, nil
}

// PlaySample plays a sample file by path, loading it into the cache on
// first use.
func (e *Engine) PlaySample(path string) (uint64, error) {
	if e.closed.Load() {
		return 0, kaiku.ErrEngineStopped
	}
	s, err := e.cache.get(path)
	if err != nil {
		return 0, err
	}
	id, _, err := e.startPlayback(kaiku.NewSampleMix(s, 1, 1), false, 1)
	return id, err
}

// PreloadSample decodes path into the cache ahead of use.
func (e *Engine) PreloadSample(path string) error {
	if e.closed.Load() {
		return kaiku.ErrEngineStopped
	}
	_, err := e.cache.get(path)
	return err
}

// RemoveCachedSample evicts one path; the next play reloads the file.
func (e *Engine) RemoveCachedSample(path string) { e.cache.remove(path) }

// ClearSampleCache evicts every cached sample.
func (e *Engine) ClearSampleCache() { e.cache.clear() }

// Stop removes the playback at the next callback.
func (e *Engine) Stop(id uint64) error {
	return e.queue.push(command{kind: cmdStop, id: id})
}

func (e *Engine) Pause(id uint64) error {
	return e.queue.push(command{kind: cmdPause, id: id})
}

func (e *Engine) Resume(id uint64) error {
	return e.queue.push(command{kind: cmdResume, id: id})
}

// PauseAll pauses every playback; streams keep their own pause state.
func (e *Engine) PauseAll() error {
	return e.queue.push(command{kind: cmdPauseAll})
}

func (e *Engine) ResumeAll() error {
	return e.queue.push(command{kind: cmdResumeAll})
}

func (e *Engine) StopAll() error {
	return e.queue.push(command{kind: cmdStopAll})
}

// SetVolume sets the playback volume, clamped to [0, 1]. An active fade is
// cancelled.
func (e *Engine) SetVolume(id uint64, v float32) error {
	return e.queue.push(command{kind: cmdSetVolume, id: id, value: v})
}

// SetPan sets the playback pan, clamped to [-1, 1]. An active pan tween is
// cancelled.
func (e *Engine) SetPan(id uint64, v float32) error {
	return e.queue.push(command{kind: cmdSetPan, id: id, value: v})
}

// SetRate sets the playback rate, clamped to [0.1, 4]. An active rate tween
// is cancelled.
func (e *Engine) SetRate(id uint64, v float32) error {
	return e.queue.push(command{kind: cmdSetRate, id: id, value: v})
}

// FadeOut ramps the volume to zero over the given seconds. The playback
// stays active; pair with Stop to remove it.
func (e *Engine) FadeOut(id uint64, seconds float64) error {
	return e.queue.push(command{kind: cmdFadeOut, id: id, duration: seconds})
}

// FadeIn ramps the volume from its current level to target over the given
// seconds.
func (e *Engine) FadeIn(id uint64, seconds float64, target float32) error {
	return e.queue.push(command{kind: cmdFadeIn, id: id, duration: seconds, value: target})
}

// TweenPan ramps the pan linearly to target over the given seconds.
func (e *Engine) TweenPan(id uint64, target float32, seconds float64) error {
	return e.queue.push(command{kind: cmdTweenPan, id: id, value: target, duration: seconds})
}

// TweenRate ramps the playback rate linearly to target over the given
// seconds.
func (e *Engine) TweenRate(id uint64, target float32, seconds float64) error {
	return e.queue.push(command{kind: cmdTweenRate, id: id, value: target, duration: seconds})
}

// SetSoundPosition gives the playback a runtime 3D position, which
// overrides any positions inside the mix.
func (e *Engine) SetSoundPosition(id uint64, pos kaiku.Vec3) error {
	return e.queue.push(command{kind: cmdSetSoundPosition, id: id, vec: pos})
}

func (e *Engine) SetSoundVelocity(id uint64, vel kaiku.Vec3) error {
	return e.queue.push(command{kind: cmdSetSoundVelocity, id: id, vec: vel})
}

func (e *Engine) SetListenerPosition(pos kaiku.Vec3) error {
	return e.queue.push(command{kind: cmdSetListenerPosition, vec: pos})
}

func (e *Engine) SetListenerVelocity(vel kaiku.Vec3) error {
	return e.queue.push(command{kind: cmdSetListenerVelocity, vec: vel})
}

func (e *Engine) SetListenerForward(dir kaiku.Vec3) error {
	return e.queue.push(command{kind: cmdSetListenerForward, vec: dir})
}

func (e *Engine) SetSpatialParams(p kaiku.SpatialParams) error {
	return e.queue.push(command{kind: cmdSetSpatialParams, spatial: p})
}

// StreamFile decodes path in a background worker and plays it without
// loading the whole file.
func (e *Engine) StreamFile(path string) (uint64, error) {
	return e.startStream(path, false)
}

// StreamFileLooping reopens the file at EOF for gapless background looping.
func (e *Engine) StreamFileLooping(path string) (uint64, error) {
	return e.startStream(path, true)
}

func (e *Engine) startStream(path string, looping bool) (uint64, error) {
	if e.closed.Load() {
		return 0, kaiku.ErrEngineStopped
	}
	s := newStream(path, looping, e.sampleRate, e.logger)
	id := e.ids.Add(1)
	if err := e.queue.push(command{kind: cmdStreamFile, id: id, stream: s}); err != nil {
		return 0, err
	}
	return id, nil
}

// StopStream stops the stream and joins its decoder worker.
func (e *Engine) StopStream(id uint64) error {
	return e.queue.push(command{kind: cmdStopStream, id: id})
}

func (e *Engine) PauseStream(id uint64) error {
	return e.queue.push(command{kind: cmdPauseStream, id: id})
}

func (e *Engine) ResumeStream(id uint64) error {
	return e.queue.push(command{kind: cmdResumeStream, id: id})
}

func (e *Engine) SetStreamVolume(id uint64, v float32) error {
	return e.queue.push(command{kind: cmdSetStreamVolume, id: id, value: v})
}

func (e *Engine) SetStreamPan(id uint64, v float32) error {
	return e.queue.push(command{kind: cmdSetStreamPan, id: id, value: v})
}

// IsPlaying reports whether the playback is still in the active set.
func (e *Engine) IsPlaying(id uint64) bool {
	return e.mixer.isPlaying(id)
}

// Close stops the device stream, ends every playback and joins all stream
// workers. Further operations return kaiku.ErrEngineStopped.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	dropped := e.queue.close()
	for i := range dropped {
		if dropped[i].playback != nil {
			dropped[i].playback.ended.Store(true)
		}
	}
	var err error
	if e.dev != nil {
		err = e.dev.Close()
	}
	e.mixer.shutdown()
	if e.ownCtx {
		if cerr := e.ctx.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
