package synth

import (
	"math"

	"github.com/jhalonen/kaiku"
)

const offlineBlockFrames = 512

// Render renders a whole mix offline into an interleaved stereo buffer at
// the given sample rate. The mix is copied and finalized, so the argument
// is left untouched and need not be sorted.
func Render(mix *kaiku.Mix, sampleRate int) []float32 {
	m := mix.Copy()
	m.Finalize()
	r := NewRenderer(&m, sampleRate, offlineBlockFrames)
	totalFrames := int(math.Ceil(m.TotalDuration() * float64(sampleRate)))
	out := make([]float32, 0, totalFrames*2)
	block := make([]float32, offlineBlockFrames*2)
	for rendered := 0; rendered < totalFrames; rendered += offlineBlockFrames {
		frames := min(offlineBlockFrames, totalFrames-rendered)
		buf := block[:frames*2]
		r.RenderBlock(buf, float64(rendered)/float64(sampleRate), nil, nil)
		out = append(out, buf...)
	}
	return out
}
