package engine

import (
	"io"
	"sync"

	"github.com/jhalonen/kaiku"
)

// mixer is the audio callback: the active and streaming sets plus the
// scratch buffers that keep the hot path free of allocation. One mutex
// guards everything and is held for a whole ReadAudio call; the device
// driver serializes calls so the lock is only ever contended by command
// handlers.
type mixer struct {
	mu         sync.Mutex
	queue      *commandQueue
	sampleRate int
	channels   int

	playbacks map[uint64]*playback
	streams   map[uint64]*stream
	listener  kaiku.Listener
	spatial   kaiku.SpatialParams

	temp      []float32
	streamBuf []float32
	finished  []uint64
	spare     []command
	maxFrames int
	closed    bool
}

func newMixer(queue *commandQueue, sampleRate, channels, maxFrames int) *mixer {
	m := &mixer{
		queue:      queue,
		sampleRate: sampleRate,
		channels:   channels,
		playbacks:  make(map[uint64]*playback, 16),
		streams:    make(map[uint64]*stream, 4),
		listener:   kaiku.DefaultListener(),
		spatial:    kaiku.DefaultSpatialParams(),
		finished:   make([]uint64, 0, 16),
	}
	m.growScratch(max(maxFrames, 1))
	return m
}

// growScratch resizes the block buffers once when a larger callback shows
// up; they never shrink.
func (m *mixer) growScratch(frames int) {
	if frames <= m.maxFrames {
		return
	}
	m.maxFrames = frames
	m.temp = make([]float32, 2*frames)
	m.streamBuf = make([]float32, 2*frames)
}

// ReadAudio implements kaiku.AudioSource. The device driver calls it once
// per block; after the first call at a given block size it does not touch
// the heap.
func (m *mixer) ReadAudio(buffer []float32) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.EOF
	}
	clear(buffer)
	frames := len(buffer) / m.channels
	m.growScratch(frames)

	cmds := m.queue.drain(m.spare)
	for i := range cmds {
		m.applyCommand(&cmds[i])
	}
	m.spare = cmds

	m.advancePlaybacks(buffer, frames)
	m.mixStreams(buffer, frames)

	for i, v := range buffer {
		buffer[i] = min(max(v, -1), 1)
	}
	return len(buffer), nil
}

func (m *mixer) Close() error { return nil }

// applyCommand clamps every numeric input here so the rest of the callback
// can assume bounds. Commands for ids that are already gone fall through
// silently.
func (m *mixer) applyCommand(c *command) {
	switch c.kind {
	case cmdPlay:
		m.playbacks[c.id] = c.playback
	case cmdStop:
		if p, ok := m.playbacks[c.id]; ok {
			p.ended.Store(true)
			delete(m.playbacks, c.id)
		}
	case cmdPause:
		if p, ok := m.playbacks[c.id]; ok {
			p.paused = true
		}
	case cmdResume:
		if p, ok := m.playbacks[c.id]; ok {
			p.paused = false
		}
	case cmdPauseAll:
		for _, p := range m.playbacks {
			p.paused = true
		}
	case cmdResumeAll:
		for _, p := range m.playbacks {
			p.paused = false
		}
	case cmdStopAll:
		for id, p := range m.playbacks {
			p.ended.Store(true)
			delete(m.playbacks, id)
		}
	case cmdSetVolume:
		if p, ok := m.playbacks[c.id]; ok {
			p.volume = clampVolume(c.value)
			p.fade.active = false
		}
	case cmdSetPan:
		if p, ok := m.playbacks[c.id]; ok {
			p.pan = clampPan(c.value)
			p.panTween.active = false
		}
	case cmdSetRate:
		if p, ok := m.playbacks[c.id]; ok {
			p.rate = clampRate(c.value)
			p.rateTween.active = false
		}
	case cmdFadeOut:
		if p, ok := m.playbacks[c.id]; ok {
			p.fade = fade{active: true, from: p.volume, to: 0, start: p.elapsed, duration: max(c.duration, 0)}
		}
	case cmdFadeIn:
		if p, ok := m.playbacks[c.id]; ok {
			p.fade = fade{active: true, from: p.volume, to: clampVolume(c.value), start: p.elapsed, duration: max(c.duration, 0)}
		}
	case cmdTweenPan:
		if p, ok := m.playbacks[c.id]; ok {
			p.panTween = tween{active: true, from: p.pan, to: clampPan(c.value), start: p.elapsed, duration: max(c.duration, 0)}
		}
	case cmdTweenRate:
		if p, ok := m.playbacks[c.id]; ok {
			p.rateTween = tween{active: true, from: p.rate, to: clampRate(c.value), start: p.elapsed, duration: max(c.duration, 0)}
		}
	case cmdSetSoundPosition:
		if p, ok := m.playbacks[c.id]; ok {
			p.position = c.vec
			p.positioned = true
		}
	case cmdSetSoundVelocity:
		if p, ok := m.playbacks[c.id]; ok {
			p.velocity = c.vec
		}
	case cmdSetListenerPosition:
		m.listener.Position = c.vec
	case cmdSetListenerVelocity:
		m.listener.Velocity = c.vec
	case cmdSetListenerForward:
		m.listener.Forward = c.vec
	case cmdSetSpatialParams:
		m.spatial = c.spatial
	case cmdStreamFile:
		m.streams[c.id] = c.stream
		c.stream.start()
	case cmdStopStream:
		if s, ok := m.streams[c.id]; ok {
			s.stopAndJoin()
			delete(m.streams, c.id)
		}
	case cmdPauseStream:
		if s, ok := m.streams[c.id]; ok {
			s.pause.Store(true)
		}
	case cmdResumeStream:
		if s, ok := m.streams[c.id]; ok {
			s.pause.Store(false)
		}
	case cmdSetStreamVolume:
		if s, ok := m.streams[c.id]; ok {
			s.volume = clampVolume(c.value)
		}
	case cmdSetStreamPan:
		if s, ok := m.streams[c.id]; ok {
			s.pan = clampPan(c.value)
		}
	}
}

func (m *mixer) advancePlaybacks(out []float32, frames int) {
	blockDur := float64(frames) / float64(m.sampleRate)
	m.finished = m.finished[:0]
	for id, p := range m.playbacks {
		if p.paused {
			continue
		}
		if p.elapsed >= p.duration {
			if !p.looping {
				m.finished = append(m.finished, id)
				continue
			}
			p.elapsed = 0
		}
		m.renderPlayback(p, out, frames, blockDur)
	}
	for _, id := range m.finished {
		m.playbacks[id].ended.Store(true)
		delete(m.playbacks, id)
	}
}

func (m *mixer) renderPlayback(p *playback, out []float32, frames int, blockDur float64) {
	if p.panTween.active {
		v, done := p.panTween.valueAt(p.elapsed)
		p.pan = v
		if done {
			p.panTween.active = false
		}
	}
	if p.rateTween.active {
		v, done := p.rateTween.valueAt(p.elapsed)
		p.rate = v
		if done {
			p.rateTween.active = false
		}
	}

	// A runtime position replaces any spatial intent inside the mix.
	attn, pan, pitch := float32(1), p.pan, 1.0
	var listener *kaiku.Listener
	var spatial *kaiku.SpatialParams
	if p.positioned {
		g, sp, pt := m.spatial.Evaluate(&m.listener, p.position, p.velocity)
		attn, pan, pitch = float32(g), float32(sp), pt
	} else {
		listener, spatial = &m.listener, &m.spatial
	}

	temp := m.temp[:2*frames]
	p.renderer.RenderBlock(temp, p.elapsed, listener, spatial)

	effRate := float64(p.rate) * pitch
	fadeStep := blockDur / float64(frames) * effRate
	lScale, rScale := float32(1), float32(1)
	if pan > 0 {
		lScale = 1 - pan
	} else if pan < 0 {
		rScale = 1 + pan
	}
	for i := range frames {
		vol := p.volume
		if p.fade.active {
			vol = p.fade.valueAt(p.elapsed + float64(i)*fadeStep)
		}
		l := temp[2*i] * vol * attn * lScale
		r := temp[2*i+1] * vol * attn * rScale
		if m.channels == 1 {
			out[i] += (l + r) / 2
		} else {
			out[2*i] += l
			out[2*i+1] += r
		}
	}
	p.elapsed += blockDur * effRate
	if p.fade.active && p.fade.doneAt(p.elapsed) {
		p.volume = p.fade.to
		p.fade.active = false
	}
}

func (m *mixer) mixStreams(out []float32, frames int) {
	m.finished = m.finished[:0]
	for id, s := range m.streams {
		if s.finished() && s.ring.Len() == 0 {
			m.finished = append(m.finished, id)
			continue
		}
		if s.pause.Load() {
			continue
		}
		buf := m.streamBuf[:2*frames]
		// Underflow just leaves the rest of the block silent.
		n := s.ring.TryRead(buf)
		lScale, rScale := float32(1), float32(1)
		if s.pan > 0 {
			lScale = 1 - s.pan
		} else if s.pan < 0 {
			rScale = 1 + s.pan
		}
		for i := 0; i+1 < n; i += 2 {
			l := buf[i] * s.volume * lScale
			r := buf[i+1] * s.volume * rScale
			if m.channels == 1 {
				out[i/2] += (l + r) / 2
			} else {
				out[i] += l
				out[i+1] += r
			}
		}
	}
	for _, id := range m.finished {
		s := m.streams[id]
		s.stopAndJoin()
		delete(m.streams, id)
	}
}

func (m *mixer) isPlaying(id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.playbacks[id]
	return ok
}

// shutdown ends every playback and joins every stream worker. ReadAudio
// reports io.EOF afterwards.
func (m *mixer) shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, p := range m.playbacks {
		p.ended.Store(true)
		delete(m.playbacks, id)
	}
	for id, s := range m.streams {
		s.stopAndJoin()
		delete(m.streams, id)
	}
}
