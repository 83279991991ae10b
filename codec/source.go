// Package codec decodes audio files into samples and streams. The decoder
// is picked by file extension: wav, aiff, mp3, ogg and flac are supported.
package codec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhalonen/kaiku"
)

// ErrUnsupportedFormat is returned for file extensions no decoder claims.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

type (
	// Source is a streaming decoder. ReadSamples always delivers
	// interleaved stereo regardless of the source channel count, which is
	// what the ring buffers and the mixer consume.
	Source interface {
		SampleRate() int
		Channels() int
		ReadSamples(dst []float32) (int, error)
		Close() error
	}

	// nativeDecoder yields chunks of interleaved samples in the file's
	// own channel count; the source wrapper up-mixes them to stereo.
	nativeDecoder interface {
		sampleRate() int
		channels() int
		decode() ([]float32, error)
		close() error
	}

	source struct {
		d    nativeDecoder
		pend []float32
		off  int
	}
)

// Open opens a file for streaming.
func Open(path string) (Source, error) {
	s, err := open(path)
	if err != nil {
		return nil, &kaiku.StreamDecodeError{Path: path, Err: err}
	}
	return s, nil
}

func open(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	d, err := newDecoder(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &source{d: d}, nil
}

func newDecoder(f *os.File, path string) (nativeDecoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return newWavDecoder(f)
	case ".aif", ".aiff":
		return newAiffDecoder(f)
	case ".mp3":
		return newMP3Decoder(f)
	case ".ogg", ".oga":
		return newVorbisDecoder(f)
	case ".flac":
		return newFlacDecoder(f)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

func (s *source) SampleRate() int { return s.d.sampleRate() }
func (s *source) Channels() int   { return s.d.channels() }
func (s *source) Close() error    { return s.d.close() }

func (s *source) ReadSamples(dst []float32) (int, error) {
	dst = dst[:len(dst)&^1]
	total := 0
	for total < len(dst) {
		if s.off >= len(s.pend) {
			chunk, err := s.d.decode()
			if err != nil {
				if total > 0 && errors.Is(err, io.EOF) {
					return total, nil
				}
				return total, err
			}
			s.pend = stereoUpmix(s.pend[:0], chunk, s.d.channels())
			s.off = 0
			continue
		}
		n := copy(dst[total:], s.pend[s.off:])
		total += n
		s.off += n
	}
	return total, nil
}

// stereoUpmix appends src to dst as stereo: mono duplicates into both
// channels, channels past the first two are dropped.
func stereoUpmix(dst, src []float32, channels int) []float32 {
	switch {
	case channels == 2:
		return append(dst, src...)
	case channels <= 1:
		for _, v := range src {
			dst = append(dst, v, v)
		}
	default:
		for i := 0; i+channels <= len(src); i += channels {
			dst = append(dst, src[i], src[i+1])
		}
	}
	return dst
}

// LoadSample decodes a whole file into memory at its source rate. Mono
// files stay mono.
func LoadSample(path string) (*kaiku.Sample, error) {
	src, err := open(path)
	if err != nil {
		return nil, &kaiku.SampleLoadError{Path: path, Err: err}
	}
	defer src.Close()
	var pcm []float32
	buf := make([]float32, 8192)
	for {
		n, err := src.ReadSamples(buf)
		pcm = append(pcm, buf[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &kaiku.SampleLoadError{Path: path, Err: err}
		}
		if n == 0 {
			break
		}
	}
	if src.Channels() == 1 {
		mono := pcm[:len(pcm)/2]
		for i := range mono {
			mono[i] = pcm[2*i]
		}
		return kaiku.NewSample(mono, 1, src.SampleRate()), nil
	}
	return kaiku.NewSample(pcm, 2, src.SampleRate()), nil
}
