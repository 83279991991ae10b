package kaiku

import "sort"

type (
	// Chain holds the optional effect slots of a track or bus. The slots
	// run in a fixed priority order, not in field order: corrective
	// processing (EQ, dynamics) first, then drive, then modulation, then
	// delay, then reverbs last. Effect parameters are immutable data; the
	// per-playback processing state lives in the fx package.
	Chain struct {
		EQ          *EQParams          `yaml:"eq,omitempty"`
		ParamEQ     *ParamEQParams     `yaml:"parameq,omitempty"`
		Compressor  *CompressorParams  `yaml:"compressor,omitempty"`
		Gate        *GateParams        `yaml:"gate,omitempty"`
		Limiter     *LimiterParams     `yaml:"limiter,omitempty"`
		Saturation  *SaturationParams  `yaml:"saturation,omitempty"`
		Distortion  *DistortionParams  `yaml:"distortion,omitempty"`
		Bitcrusher  *BitcrusherParams  `yaml:"bitcrusher,omitempty"`
		Chorus      *ChorusParams      `yaml:"chorus,omitempty"`
		Phaser      *PhaserParams      `yaml:"phaser,omitempty"`
		Flanger     *FlangerParams     `yaml:"flanger,omitempty"`
		RingMod     *RingModParams     `yaml:"ringmod,omitempty"`
		Tremolo     *TremoloParams     `yaml:"tremolo,omitempty"`
		Autopan     *AutopanParams     `yaml:"autopan,omitempty"`
		Delay       *DelayParams       `yaml:"delay,omitempty"`
		Reverb      *ReverbParams      `yaml:"reverb,omitempty"`
		Convolution *ConvolutionParams `yaml:"convolution,omitempty"`
	}

	EffectKind int

	// EQParams is a three-band shelving equalizer. Gains are linear; 1 is
	// flat. LowFreq and HighFreq set the shelf corner frequencies in Hz.
	EQParams struct {
		LowGain  float64 `yaml:"lowgain"`
		MidGain  float64 `yaml:"midgain"`
		HighGain float64 `yaml:"highgain"`
		LowFreq  float64 `yaml:"lowfreq"`
		HighFreq float64 `yaml:"highfreq"`
	}

	// ParamEQParams is a single peaking biquad: boost or cut GainDB
	// decibels around Freq with bandwidth set by Q.
	ParamEQParams struct {
		Freq   float64 `yaml:"freq"`
		Q      float64 `yaml:"q"`
		GainDB float64 `yaml:"gaindb"`
	}

	// CompressorParams reduces gain above Threshold (linear, 0..1) by
	// Ratio. Attack and Release are envelope follower times in seconds;
	// Makeup is applied after.
	CompressorParams struct {
		Threshold float64 `yaml:"threshold"`
		Ratio     float64 `yaml:"ratio"`
		Attack    float64 `yaml:"attack"`
		Release   float64 `yaml:"release"`
		Makeup    float64 `yaml:"makeup,omitempty"`
	}

	// GateParams silences the signal while its level stays below Threshold.
	GateParams struct {
		Threshold float64 `yaml:"threshold"`
		Attack    float64 `yaml:"attack"`
		Release   float64 `yaml:"release"`
	}

	// LimiterParams caps the level at Threshold with a fast follower.
	LimiterParams struct {
		Threshold float64 `yaml:"threshold"`
		Release   float64 `yaml:"release"`
	}

	// SaturationParams applies smooth tanh drive.
	SaturationParams struct {
		Drive float64 `yaml:"drive"`
	}

	// DistortionParams applies a hard rational waveshaper. Shape 0..1 sets
	// how aggressive the curve is; Drive is the pre-gain.
	DistortionParams struct {
		Drive float64 `yaml:"drive"`
		Shape float64 `yaml:"shape"`
	}

	// BitcrusherParams quantizes to Bits of resolution and holds each
	// output value for Downsample input samples.
	BitcrusherParams struct {
		Bits       int `yaml:"bits"`
		Downsample int `yaml:"downsample,omitempty"`
	}

	// ChorusParams mixes in a copy delayed around 20 ms, modulated Depth
	// seconds deep at Rate Hz.
	ChorusParams struct {
		Rate  float64 `yaml:"rate"`
		Depth float64 `yaml:"depth"`
		Mix   float64 `yaml:"mix"`
	}

	// PhaserParams sweeps a cascade of all-pass stages.
	PhaserParams struct {
		Rate     float64 `yaml:"rate"`
		Depth    float64 `yaml:"depth"`
		Stages   int     `yaml:"stages,omitempty"`
		Feedback float64 `yaml:"feedback,omitempty"`
	}

	// FlangerParams is a short modulated delay with feedback.
	FlangerParams struct {
		Rate     float64 `yaml:"rate"`
		Depth    float64 `yaml:"depth"`
		Feedback float64 `yaml:"feedback,omitempty"`
		Mix      float64 `yaml:"mix"`
	}

	// RingModParams multiplies the signal with a carrier at Freq Hz.
	RingModParams struct {
		Freq float64 `yaml:"freq"`
		Mix  float64 `yaml:"mix"`
	}

	// TremoloParams modulates amplitude at Rate Hz, Depth 0..1.
	TremoloParams struct {
		Rate  float64 `yaml:"rate"`
		Depth float64 `yaml:"depth"`
	}

	// AutopanParams sweeps the signal between channels at Rate Hz.
	AutopanParams struct {
		Rate  float64 `yaml:"rate"`
		Depth float64 `yaml:"depth"`
	}

	// DelayParams is a feedback delay line. Time is in seconds; Damp 0..1
	// low-passes the feedback path; Mix is the wet amount.
	DelayParams struct {
		Time     float64 `yaml:"time"`
		Feedback float64 `yaml:"feedback"`
		Damp     float64 `yaml:"damp,omitempty"`
		Mix      float64 `yaml:"mix"`
	}

	// ReverbParams is a comb/all-pass reverb. Size 0..1 scales the comb
	// lengths, Damp 0..1 darkens the tail.
	ReverbParams struct {
		Size float64 `yaml:"size"`
		Damp float64 `yaml:"damp"`
		Mix  float64 `yaml:"mix"`
	}

	// ConvolutionParams convolves the signal with a mono impulse response,
	// applied to both channels. The IR is taken to be at the playback rate.
	ConvolutionParams struct {
		IR  []float32 `yaml:"ir,flow"`
		Mix float64   `yaml:"mix"`
	}
)

const (
	EffectEQ EffectKind = iota
	EffectParamEQ
	EffectCompressor
	EffectGate
	EffectLimiter
	EffectSaturation
	EffectDistortion
	EffectBitcrusher
	EffectChorus
	EffectPhaser
	EffectFlanger
	EffectRingMod
	EffectTremolo
	EffectAutopan
	EffectDelay
	EffectReverb
	EffectConvolution
	NumEffectKinds
)

// effectPriorities orders the chain: 0-49 corrective, 50-124 drive,
// 125-149 modulation, 150-199 delay, 200-255 reverbs.
var effectPriorities = [NumEffectKinds]int{
	EffectEQ:          10,
	EffectParamEQ:     15,
	EffectCompressor:  20,
	EffectGate:        25,
	EffectLimiter:     30,
	EffectSaturation:  60,
	EffectDistortion:  70,
	EffectBitcrusher:  80,
	EffectChorus:      125,
	EffectPhaser:      130,
	EffectFlanger:     135,
	EffectRingMod:     140,
	EffectTremolo:     143,
	EffectAutopan:     146,
	EffectDelay:       150,
	EffectReverb:      200,
	EffectConvolution: 210,
}

// Priority returns the processing priority of the effect kind; lower runs
// earlier.
func (k EffectKind) Priority() int {
	if k < 0 || k >= NumEffectKinds {
		return 255
	}
	return effectPriorities[k]
}

// Has reports whether the slot for the given kind is set.
func (c *Chain) Has(k EffectKind) bool {
	switch k {
	case EffectEQ:
		return c.EQ != nil
	case EffectParamEQ:
		return c.ParamEQ != nil
	case EffectCompressor:
		return c.Compressor != nil
	case EffectGate:
		return c.Gate != nil
	case EffectLimiter:
		return c.Limiter != nil
	case EffectSaturation:
		return c.Saturation != nil
	case EffectDistortion:
		return c.Distortion != nil
	case EffectBitcrusher:
		return c.Bitcrusher != nil
	case EffectChorus:
		return c.Chorus != nil
	case EffectPhaser:
		return c.Phaser != nil
	case EffectFlanger:
		return c.Flanger != nil
	case EffectRingMod:
		return c.RingMod != nil
	case EffectTremolo:
		return c.Tremolo != nil
	case EffectAutopan:
		return c.Autopan != nil
	case EffectDelay:
		return c.Delay != nil
	case EffectReverb:
		return c.Reverb != nil
	case EffectConvolution:
		return c.Convolution != nil
	}
	return false
}

// Empty reports whether no slot is set.
func (c *Chain) Empty() bool {
	for k := EffectKind(0); k < NumEffectKinds; k++ {
		if c.Has(k) {
			return false
		}
	}
	return true
}

// Order returns the present slots sorted by priority, ties broken by
// declaration order.
func (c *Chain) Order() []EffectKind {
	order := make([]EffectKind, 0, NumEffectKinds)
	for k := EffectKind(0); k < NumEffectKinds; k++ {
		if c.Has(k) {
			order = append(order, k)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Priority() < order[j].Priority()
	})
	return order
}

// Copy returns a deep copy of the chain.
func (c *Chain) Copy() Chain {
	n := Chain{}
	if c.EQ != nil {
		v := *c.EQ
		n.EQ = &v
	}
	if c.ParamEQ != nil {
		v := *c.ParamEQ
		n.ParamEQ = &v
	}
	if c.Compressor != nil {
		v := *c.Compressor
		n.Compressor = &v
	}
	if c.Gate != nil {
		v := *c.Gate
		n.Gate = &v
	}
	if c.Limiter != nil {
		v := *c.Limiter
		n.Limiter = &v
	}
	if c.Saturation != nil {
		v := *c.Saturation
		n.Saturation = &v
	}
	if c.Distortion != nil {
		v := *c.Distortion
		n.Distortion = &v
	}
	if c.Bitcrusher != nil {
		v := *c.Bitcrusher
		n.Bitcrusher = &v
	}
	if c.Chorus != nil {
		v := *c.Chorus
		n.Chorus = &v
	}
	if c.Phaser != nil {
		v := *c.Phaser
		n.Phaser = &v
	}
	if c.Flanger != nil {
		v := *c.Flanger
		n.Flanger = &v
	}
	if c.RingMod != nil {
		v := *c.RingMod
		n.RingMod = &v
	}
	if c.Tremolo != nil {
		v := *c.Tremolo
		n.Tremolo = &v
	}
	if c.Autopan != nil {
		v := *c.Autopan
		n.Autopan = &v
	}
	if c.Delay != nil {
		v := *c.Delay
		n.Delay = &v
	}
	if c.Reverb != nil {
		v := *c.Reverb
		n.Reverb = &v
	}
	if c.Convolution != nil {
		v := ConvolutionParams{IR: append([]float32(nil), c.Convolution.IR...), Mix: c.Convolution.Mix}
		n.Convolution = &v
	}
	return n
}
