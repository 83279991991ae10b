package engine

import (
	"sync"

	"github.com/jhalonen/kaiku"
)

type commandKind uint8

const (
	cmdPlay commandKind = iota
	cmdStop
	cmdPause
	cmdResume
	cmdPauseAll
	cmdResumeAll
	cmdStopAll
	cmdSetVolume
	cmdSetPan
	cmdSetRate
	cmdFadeOut
	cmdFadeIn
	cmdTweenPan
	cmdTweenRate
	cmdSetSoundPosition
	cmdSetSoundVelocity
	cmdSetListenerPosition
	cmdSetListenerVelocity
	cmdSetListenerForward
	cmdSetSpatialParams
	cmdStreamFile
	cmdStopStream
	cmdPauseStream
	cmdResumeStream
	cmdSetStreamVolume
	cmdSetStreamPan
)

// command is the closed set of messages the controller sends to the audio
// callback. Play and StreamFile carry their state fully built so the
// callback only has to file it into the active sets.
type command struct {
	kind     commandKind
	id       uint64
	value    float32
	duration float64
	vec      kaiku.Vec3
	spatial  kaiku.SpatialParams
	playback *playback
	stream   *stream
}

// commandQueue is an unbounded multi-producer queue that the callback
// drains with a buffer swap. Send order is preserved.
type commandQueue struct {
	mu      sync.Mutex
	pending []command
	closed  bool
}

func (q *commandQueue) push(c command) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return kaiku.ErrEngineStopped
	}
	q.pending = append(q.pending, c)
	return nil
}

// drain hands the pending commands to the caller and installs spare as the
// next pending buffer, so steady state ping-pongs between two slices
// without allocating.
func (q *commandQueue) drain(spare []command) []command {
	q.mu.Lock()
	defer q.mu.Unlock()
	cmds := q.pending
	q.pending = spare[:0]
	return cmds
}

// close rejects all further pushes and returns whatever was still pending,
// so the engine can unwind state the callback will never see.
func (q *commandQueue) close() []command {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	cmds := q.pending
	q.pending = nil
	return cmds
}
