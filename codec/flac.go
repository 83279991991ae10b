package codec

import (
	"io"
	"os"

	"github.com/mewkiz/flac"
)

type flacDecoder struct {
	f      *os.File
	stream *flac.Stream
	out    []float32
	scale  float32
}

func newFlacDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, err
	}
	return &flacDecoder{
		f:      f,
		stream: stream,
		out:    make([]float32, 0, 8192),
		scale:  float32(int64(1) << (stream.Info.BitsPerSample - 1)),
	}, nil
}

func (d *flacDecoder) sampleRate() int { return int(d.stream.Info.SampleRate) }
func (d *flacDecoder) channels() int   { return int(d.stream.Info.NChannels) }

func (d *flacDecoder) decode() ([]float32, error) {
	fr, err := d.stream.ParseNext()
	if err != nil {
		return nil, err
	}
	ch := len(fr.Subframes)
	if ch == 0 {
		return nil, io.EOF
	}
	n := len(fr.Subframes[0].Samples)
	out := d.out[:0]
	for i := range n {
		for c := range ch {
			out = append(out, float32(fr.Subframes[c].Samples[i])/d.scale)
		}
	}
	d.out = out
	return out, nil
}

func (d *flacDecoder) close() error { return d.f.Close() }
