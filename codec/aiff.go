package codec

import (
	"errors"
	"io"
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

type aiffDecoder struct {
	f     *os.File
	dec   *aiff.Decoder
	buf   *audio.IntBuffer
	out   []float32
	scale float32
}

func newAiffDecoder(f *os.File) (*aiffDecoder, error) {
	dec := aiff.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, errors.New("not a valid aiff file")
	}
	bits := int(dec.BitDepth)
	if bits == 0 {
		bits = 16
	}
	return &aiffDecoder{
		f:   f,
		dec: dec,
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: int(dec.NumChans),
				SampleRate:  int(dec.SampleRate),
			},
			Data:           make([]int, 4096),
			SourceBitDepth: bits,
		},
		out:   make([]float32, 0, 4096),
		scale: float32(int64(1) << (bits - 1)),
	}, nil
}

func (d *aiffDecoder) sampleRate() int { return int(d.dec.SampleRate) }
func (d *aiffDecoder) channels() int   { return int(d.dec.NumChans) }

func (d *aiffDecoder) decode() ([]float32, error) {
	n, err := d.dec.PCMBuffer(d.buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, io.EOF
	}
	out := d.out[:0]
	for _, v := range d.buf.Data[:n] {
		out = append(out, float32(v)/d.scale)
	}
	d.out = out
	return out, nil
}

func (d *aiffDecoder) close() error { return d.f.Close() }
