// Package fx implements the runtime side of effect chains: stateful
// per-channel processors constructed from the parameter structs in the root
// package. All effects process interleaved stereo float32 and keep their
// state across blocks.
package fx

import "github.com/jhalonen/kaiku"

// ChainState holds the processing state of one effect chain instance. Each
// playback gets its own ChainState so the same chain parameters can be
// played multiple times concurrently.
type ChainState struct {
	order      []kaiku.EffectKind
	sampleRate int

	eq          *eqState
	parameq     *parameqState
	compressor  *compressorState
	gate        *gateState
	limiter     *limiterState
	saturation  *saturationState
	distortion  *distortionState
	bitcrusher  *bitcrusherState
	chorus      *chorusState
	phaser      *phaserState
	flanger     *flangerState
	ringmod     *ringmodState
	tremolo     *tremoloState
	autopan     *autopanState
	delay       *delayState
	reverb      *reverbState
	convolution *convolutionState
}

// NewChainState builds the runtime state for a chain. Returns nil for an
// empty chain so callers can skip processing entirely.
func NewChainState(c *kaiku.Chain, sampleRate int) *ChainState {
	if c == nil || c.Empty() {
		return nil
	}
	s := &ChainState{order: c.Order(), sampleRate: sampleRate}
	if c.EQ != nil {
		s.eq = newEQState(c.EQ, sampleRate)
	}
	if c.ParamEQ != nil {
		s.parameq = newParamEQState(c.ParamEQ, sampleRate)
	}
	if c.Compressor != nil {
		s.compressor = newCompressorState(c.Compressor, sampleRate)
	}
	if c.Gate != nil {
		s.gate = newGateState(c.Gate, sampleRate)
	}
	if c.Limiter != nil {
		s.limiter = newLimiterState(c.Limiter, sampleRate)
	}
	if c.Saturation != nil {
		s.saturation = newSaturationState(c.Saturation)
	}
	if c.Distortion != nil {
		s.distortion = newDistortionState(c.Distortion)
	}
	if c.Bitcrusher != nil {
		s.bitcrusher = newBitcrusherState(c.Bitcrusher)
	}
	if c.Chorus != nil {
		s.chorus = newChorusState(c.Chorus, sampleRate)
	}
	if c.Phaser != nil {
		s.phaser = newPhaserState(c.Phaser, sampleRate)
	}
	if c.Flanger != nil {
		s.flanger = newFlangerState(c.Flanger, sampleRate)
	}
	if c.RingMod != nil {
		s.ringmod = newRingmodState(c.RingMod, sampleRate)
	}
	if c.Tremolo != nil {
		s.tremolo = newTremoloState(c.Tremolo, sampleRate)
	}
	if c.Autopan != nil {
		s.autopan = newAutopanState(c.Autopan, sampleRate)
	}
	if c.Delay != nil {
		s.delay = newDelayState(c.Delay, sampleRate)
	}
	if c.Reverb != nil {
		s.reverb = newReverbState(c.Reverb, sampleRate)
	}
	if c.Convolution != nil {
		s.convolution = newConvolutionState(c.Convolution)
	}
	return s
}

// Process runs the chain over a block of interleaved stereo samples in
// priority order. The block length must be even.
func (s *ChainState) Process(buf []float32) {
	if s == nil {
		return
	}
	for _, k := range s.order {
		switch k {
		case kaiku.EffectEQ:
			processPairs(buf, s.eq.process)
		case kaiku.EffectParamEQ:
			processPairs(buf, s.parameq.process)
		case kaiku.EffectCompressor:
			processPairs(buf, s.compressor.process)
		case kaiku.EffectGate:
			processPairs(buf, s.gate.process)
		case kaiku.EffectLimiter:
			processPairs(buf, s.limiter.process)
		case kaiku.EffectSaturation:
			processPairs(buf, s.saturation.process)
		case kaiku.EffectDistortion:
			processPairs(buf, s.distortion.process)
		case kaiku.EffectBitcrusher:
			processPairs(buf, s.bitcrusher.process)
		case kaiku.EffectChorus:
			processPairs(buf, s.chorus.process)
		case kaiku.EffectPhaser:
			processPairs(buf, s.phaser.process)
		case kaiku.EffectFlanger:
			processPairs(buf, s.flanger.process)
		case kaiku.EffectRingMod:
			processPairs(buf, s.ringmod.process)
		case kaiku.EffectTremolo:
			processPairs(buf, s.tremolo.process)
		case kaiku.EffectAutopan:
			processPairs(buf, s.autopan.process)
		case kaiku.EffectDelay:
			processPairs(buf, s.delay.process)
		case kaiku.EffectReverb:
			processPairs(buf, s.reverb.process)
		case kaiku.EffectConvolution:
			processPairs(buf, s.convolution.process)
		}
	}
}

func processPairs(buf []float32, f func(l, r float32) (float32, float32)) {
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i], buf[i+1] = f(buf[i], buf[i+1])
	}
}

func clip(value float32) float32 {
	if value < -1 {
		return -1
	}
	if value > 1 {
		return 1
	}
	return value
}

// waveshape is a rational soft-to-hard shaper: amount 0.5 is the identity,
// below softens and above sharpens towards a square.
func waveshape(value, amount float32) float32 {
	absVal := value
	if absVal < 0 {
		absVal = -absVal
	}
	return value * amount / (1 - amount + (2*amount-1)*absVal)
}
