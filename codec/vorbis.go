package codec

import (
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

type vorbisDecoder struct {
	f   *os.File
	dec *oggvorbis.Reader
	buf []float32
}

func newVorbisDecoder(f *os.File) (*vorbisDecoder, error) {
	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, err
	}
	return &vorbisDecoder{f: f, dec: dec, buf: make([]float32, 8192)}, nil
}

func (d *vorbisDecoder) sampleRate() int { return d.dec.SampleRate() }
func (d *vorbisDecoder) channels() int   { return d.dec.Channels() }

func (d *vorbisDecoder) decode() ([]float32, error) {
	// Read returns the number of interleaved values, always a multiple
	// of the channel count.
	n, err := d.dec.Read(d.buf)
	if n > 0 {
		return d.buf[:n], nil
	}
	if err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (d *vorbisDecoder) close() error { return d.f.Close() }
