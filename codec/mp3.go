package codec

import (
	"os"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

type mp3Decoder struct {
	f   *os.File
	dec *gomp3.Decoder
	buf []byte
	out []float32
}

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}
	return &mp3Decoder{
		f:   f,
		dec: dec,
		buf: make([]byte, 16384),
		out: make([]float32, 0, 8192),
	}, nil
}

func (d *mp3Decoder) sampleRate() int { return d.dec.SampleRate() }

// The decoder always outputs 16-bit little endian stereo, whatever the
// channel layout of the file.
func (d *mp3Decoder) channels() int { return 2 }

func (d *mp3Decoder) decode() ([]float32, error) {
	for {
		n, err := d.dec.Read(d.buf)
		if n > 0 {
			n -= n % 2
			out := d.out[:0]
			for i := 0; i < n; i += 2 {
				v := int16(uint16(d.buf[i]) | uint16(d.buf[i+1])<<8)
				out = append(out, float32(v)/32768.0)
			}
			d.out = out
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (d *mp3Decoder) close() error { return d.f.Close() }
