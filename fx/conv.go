package fx

import "github.com/jhalonen/kaiku"

// convHop is the number of input samples gathered before an FFT segment
// runs; it is also the latency of the wet signal.
const convHop = 256

// convolutionState convolves the signal with an impulse response using
// overlap-add FFT segments. Input samples accumulate per channel until a
// hop is full, then one segment is transformed, multiplied with the
// pre-transformed IR spectrum and inverted; each segment makes exactly one
// hop of output ready, so the per-sample facade never stalls.
type convolutionState struct {
	mix    float32
	n      int
	perm   []int
	irFFT  []complex128
	padded []float32
	spec   []complex128
	spec2  []complex128
	ch     [2]convChannel
}

type convChannel struct {
	in       []float32
	outReady []float32
	tail     []float32
	fill     int
}

func newConvolutionState(p *kaiku.ConvolutionParams) *convolutionState {
	ir := p.IR
	if len(ir) == 0 {
		ir = []float32{1}
	}
	n := nextPowerOfTwo(len(ir) + 2*convHop)
	s := &convolutionState{
		mix:    defaultMix(p.Mix, 0.5),
		n:      n,
		perm:   bitReversalPermutation(n),
		irFFT:  make([]complex128, n),
		padded: make([]float32, n),
		spec:   make([]complex128, n),
		spec2:  make([]complex128, n),
	}
	for i, v := range ir {
		s.padded[i] = v
	}
	for i := range s.irFFT {
		s.irFFT[i] = complex(float64(s.padded[s.perm[i]]), 0)
	}
	fft(s.irFFT, false)
	for ch := range s.ch {
		s.ch[ch] = convChannel{
			in:       make([]float32, convHop),
			outReady: make([]float32, convHop),
			tail:     make([]float32, n-convHop),
		}
	}
	return s
}

func (s *convolutionState) process(l, r float32) (float32, float32) {
	wl := s.channel(0, l)
	wr := s.channel(1, r)
	return l + (wl-l)*s.mix, r + (wr-r)*s.mix
}

func (s *convolutionState) channel(ch int, in float32) float32 {
	c := &s.ch[ch]
	out := c.outReady[c.fill]
	c.in[c.fill] = in
	c.fill++
	if c.fill == convHop {
		s.segment(c)
		c.fill = 0
	}
	return out
}

// segment convolves one hop of input and refills the channel's ready
// buffer. y = IFFT(FFT(pad(in)) * irFFT); the first hop of y plus the
// carried tail is final output, the rest becomes the new tail.
func (s *convolutionState) segment(c *convChannel) {
	for i := range s.padded {
		s.padded[i] = 0
	}
	copy(s.padded, c.in)
	for i := range s.spec {
		s.spec[i] = complex(float64(s.padded[s.perm[i]]), 0)
	}
	fft(s.spec, false)
	for i := range s.spec {
		s.spec[i] *= s.irFFT[i]
	}
	for i := range s.spec2 {
		s.spec2[i] = s.spec[s.perm[i]]
	}
	fft(s.spec2, true)
	for i := range c.outReady {
		c.outReady[i] = float32(real(s.spec2[i])) + c.tail[i]
	}
	for i := range c.tail {
		v := float32(real(s.spec2[i+convHop]))
		if i+convHop < len(c.tail) {
			v += c.tail[i+convHop]
		}
		c.tail[i] = v
	}
}
