package engine

import "github.com/anothermachines/fm8-r-2/dsp"

// ParameterLock is a per-step partial override of a track's parameters,
// volume, and FX sends. Nil leaves are inert and resolve to the track's base
// value. A lock only applies when its kind-specific overlay matches the
// track's current kind; a mismatched overlay is ignored.
//
// Sub-records (filter, envelopes, oscillators, LFOs) override as whole
// records: a lock either replaces the full sub-record or leaves it alone.
type ParameterLock struct {
	Volume *float32
	Reverb *float32
	Delay  *float32
	Drive  *float32

	Kick   *KickLock
	Hat    *HatLock
	Poly   *PolyLock
	Bass   *BassLock
	Modal  *ModalLock
	Rift   *RiftLock
	Grain  *GrainLock
	Scream *ScreamLock
}

// KickLock overrides KickParams leaves.
type KickLock struct {
	Tune           *float32
	Decay          *float32
	PitchEnvAmount *float32
	Punch          *float32
	Body           *float32
	Tone           *float32
	NoiseLevel     *float32
	Rumble         *float32

	Filter *FilterParams
	LFO1   *LFOParams
	LFO2   *LFOParams
}

// HatLock overrides HatParams leaves.
type HatLock struct {
	Decay *float32
	Metal *float32
	Tone  *float32

	Filter *FilterParams
	LFO1   *LFOParams
	LFO2   *LFOParams
}

// PolyLock overrides PolyParams leaves.
type PolyLock struct {
	Osc1       *OscParams
	Osc2       *OscParams
	OscMix     *float32
	NoiseLevel *float32

	Filter    *FilterParams
	AmpEnv    *EnvelopeParams
	FilterEnv *EnvelopeParams
	LFO1      *LFOParams
	LFO2      *LFOParams
}

// BassLock overrides BassParams leaves.
type BassLock struct {
	Wave   *dsp.Waveform
	Accent *float32

	AmpEnv *EnvelopeParams
	Filter *FilterParams
	LFO1   *LFOParams
	LFO2   *LFOParams
}

// ModalLock overrides ModalParams leaves.
type ModalLock struct {
	Structure  *float32
	Brightness *float32
	Damping    *float32
	Decay      *float32

	Filter *FilterParams
	LFO1   *LFOParams
	LFO2   *LFOParams
}

// RiftLock overrides RiftParams leaves.
type RiftLock struct {
	Fold     *float32
	Drive    *float32
	Feedback *float32
	Decay    *float32

	Filter *FilterParams
	LFO1   *LFOParams
	LFO2   *LFOParams
}

// GrainLock overrides GrainParams leaves.
type GrainLock struct {
	Density   *float32
	Spread    *float32
	GrainSize *float32
	Decay     *float32

	Filter *FilterParams
	LFO1   *LFOParams
	LFO2   *LFOParams
}

// ScreamLock overrides ScreamParams leaves.
type ScreamLock struct {
	Feedback *float32
	Damp     *float32
	Decay    *float32

	Filter *FilterParams
	LFO1   *LFOParams
	LFO2   *LFOParams
}
