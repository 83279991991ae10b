package engine

import (
	"errors"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/jhalonen/kaiku"
	"github.com/jhalonen/kaiku/codec"
	"github.com/jhalonen/kaiku/ring"
)

// streamRingSeconds is how much stereo device-rate audio a stream ring
// holds; the worker decodes at most this far ahead of the callback.
const streamRingSeconds = 5

var errStreamStopped = errors.New("stream stopped")

// stream is one background-decoded sound. The worker goroutine produces
// into the ring, the callback consumes; the atomic flags are the only other
// state the two sides share.
type stream struct {
	path       string
	looping    bool
	deviceRate int
	logger     *log.Logger
	ring       *ring.Buffer
	stop       atomic.Bool
	pause      atomic.Bool
	done       chan struct{}
	volume     float32
	pan        float32
}

func newStream(path string, looping bool, deviceRate int, logger *log.Logger) *stream {
	return &stream{
		path:       path,
		looping:    looping,
		deviceRate: deviceRate,
		logger:     logger,
		ring:       ring.New(streamRingSeconds * deviceRate * 2),
		done:       make(chan struct{}),
		volume:     1,
	}
}

func (s *stream) start() { go s.run() }

func (s *stream) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// stopAndJoin flags the worker and waits for it with a bound. The worker
// checks the flag between sleeps of at most 10 ms, so the wait is short in
// practice.
func (s *stream) stopAndJoin() {
	s.stop.Store(true)
	select {
	case <-s.done:
	case <-time.After(200 * time.Millisecond):
	}
}

func (s *stream) run() {
	defer close(s.done)
	for {
		src, err := codec.Open(s.path)
		if err != nil {
			s.logger.Printf("stream worker: %v", err)
			return
		}
		err = s.pump(src)
		src.Close()
		switch {
		case errors.Is(err, errStreamStopped):
			return
		case err != nil:
			s.logger.Printf("stream worker: %v", &kaiku.StreamDecodeError{Path: s.path, Err: err})
			return
		}
		if !s.looping || s.stop.Load() {
			return
		}
	}
}

// pump decodes src into the ring as stereo at the device rate until EOF
// (nil), stop (errStreamStopped) or a decoder failure.
func (s *stream) pump(src codec.Source) error {
	read := src.ReadSamples
	if src.SampleRate() != s.deviceRate {
		read = newResampler(src, s.deviceRate).read
	}
	buf := make([]float32, 4096)
	for {
		if s.stop.Load() {
			return errStreamStopped
		}
		if s.pause.Load() {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		n, err := read(buf)
		for off := 0; off < n; {
			w := s.ring.TryWrite(buf[off:n])
			off += w
			if off < n {
				if s.stop.Load() {
					return errStreamStopped
				}
				time.Sleep(time.Millisecond)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// resampler converts a stereo stream between sample rates with linear
// interpolation, one output block at a time.
type resampler struct {
	src     codec.Source
	step    float64
	frac    float64
	a, b    [2]float32
	buf     []float32
	fill    int
	off     int
	primed  bool
	srcDone bool
	done    bool
	err     error
}

func newResampler(src codec.Source, outRate int) *resampler {
	return &resampler{
		src:  src,
		step: float64(src.SampleRate()) / float64(outRate),
		buf:  make([]float32, 4096),
	}
}

// nextFrame pulls one source frame, reporting false once the source is
// drained.
func (r *resampler) nextFrame() ([2]float32, bool) {
	for r.off+2 > r.fill {
		if r.srcDone {
			return [2]float32{}, false
		}
		n, err := r.src.ReadSamples(r.buf)
		r.fill, r.off = n, 0
		if err != nil {
			r.srcDone = true
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
		}
		if n == 0 && r.srcDone {
			return [2]float32{}, false
		}
	}
	f := [2]float32{r.buf[r.off], r.buf[r.off+1]}
	r.off += 2
	return f, true
}

func (r *resampler) read(dst []float32) (int, error) {
	if r.done {
		return 0, r.tailErr()
	}
	if !r.primed {
		a, ok := r.nextFrame()
		if !ok {
			r.done = true
			return 0, r.tailErr()
		}
		b, ok := r.nextFrame()
		if !ok {
			b = a
		}
		r.a, r.b = a, b
		r.primed = true
	}
	out := 0
	for out+2 <= len(dst) && !r.done {
		frac := float32(r.frac)
		dst[out] = r.a[0] + frac*(r.b[0]-r.a[0])
		dst[out+1] = r.a[1] + frac*(r.b[1]-r.a[1])
		out += 2
		r.frac += r.step
		for r.frac >= 1 {
			f, ok := r.nextFrame()
			if !ok {
				r.done = true
				break
			}
			r.frac--
			r.a, r.b = r.b, f
		}
	}
	if out == 0 {
		return 0, r.tailErr()
	}
	return out, nil
}

func (r *resampler) tailErr() error {
	if r.err != nil {
		return r.err
	}
	return io.EOF
}
