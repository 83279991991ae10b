package kaiku

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceUnavailable means no default audio output device could be
	// opened.
	ErrDeviceUnavailable = errors.New("no audio output device available")

	// ErrStreamInit means a device was present but the output stream could
	// not be built or started.
	ErrStreamInit = errors.New("could not start audio output stream")

	// ErrEngineStopped is returned by controller operations after the engine
	// has been closed; its command queue no longer accepts anything.
	ErrEngineStopped = errors.New("engine is stopped")
)

// SampleLoadError reports that decoding a sample file failed. The cache is
// not poisoned by it; a later load of the same path will retry.
type SampleLoadError struct {
	Path string
	Err  error
}

func (e *SampleLoadError) Error() string {
	return fmt.Sprintf("loading sample %q: %v", e.Path, e.Err)
}

func (e *SampleLoadError) Unwrap() error { return e.Err }

// StreamDecodeError reports that runtime decoding of a streamed file failed.
// The decoder worker logs it and exits; the stream ends.
type StreamDecodeError struct {
	Path string
	Err  error
}

func (e *StreamDecodeError) Error() string {
	return fmt.Sprintf("decoding stream %q: %v", e.Path, e.Err)
}

func (e *StreamDecodeError) Unwrap() error { return e.Err }
