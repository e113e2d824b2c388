package engine

import "github.com/anothermachines/fm8-r-2/dsp"

// Kind identifies one of the eight fixed instrument algorithms. The set is
// closed: voice construction dispatches over it exhaustively.
type Kind int

const (
	KindKick Kind = iota
	KindHat
	KindPoly
	KindBass
	KindModal
	KindRift
	KindGrain
	KindScream

	numKinds
)

// String returns the preset tag of the kind.
func (k Kind) String() string {
	switch k {
	case KindKick:
		return "kick"
	case KindHat:
		return "hat"
	case KindPoly:
		return "poly"
	case KindBass:
		return "bass"
	case KindModal:
		return "modal"
	case KindRift:
		return "rift"
	case KindGrain:
		return "grain"
	case KindScream:
		return "scream"
	default:
		return "unknown"
	}
}

// FilterType selects the response of the per-track filter.
type FilterType int

const (
	FilterLowpass FilterType = iota
	FilterHighpass
	FilterBandpass
	FilterNotch
)

// FilterParams is the resonant filter sub-record shared by every kind.
// EnvAmount is consumed by the Poly voice only; it is inert elsewhere.
type FilterParams struct {
	Type      FilterType
	Cutoff    float32 // Hz
	Q         float32
	EnvAmount float32 // Hz, filter envelope depth (Poly)
}

// LFOParams describes one modulation source attached to a destination.
type LFOParams struct {
	Wave  dsp.Waveform
	Rate  float32 // Hz
	Depth float32 // [0,1]
	Dest  LFODest
}

// EnvelopeParams is a linear ADSR control curve. Times in seconds,
// sustain as a level fraction.
type EnvelopeParams struct {
	Attack  float32
	Decay   float32
	Sustain float32
	Release float32
}

// OscParams describes one Poly oscillator.
type OscParams struct {
	Wave   dsp.Waveform
	Octave int     // octave shift, -2..+2
	Detune float32 // cents
}

// KickParams: sine body with exponential pitch sweep, noise transient,
// tanh body blend, tone lowpass, optional convolution rumble layer.
type KickParams struct {
	Tune           float32 // Hz, body fundamental
	Decay          float32 // seconds
	PitchEnvAmount float32 // [0,1], scales a +/-36 semitone sweep
	Punch          float32 // [0,1], shortens attack, boosts transient
	Body           float32 // [0,1], saturated/clean blend
	Tone           float32 // Hz, post lowpass
	NoiseLevel     float32 // [0,1]
	Rumble         float32 // [0,1], convolution sub-layer send

	Filter FilterParams
	LFO1   LFOParams
	LFO2   LFOParams
}

// HatParams: highpass-filtered noise plus an inharmonic square bank.
type HatParams struct {
	Decay float32 // seconds
	Metal float32 // [0,1], square bank level
	Tone  float32 // Hz, noise highpass cutoff

	Filter FilterParams
	LFO1   LFOParams
	LFO2   LFOParams
}

// PolyParams: two oscillators crossfaded by OscMix, optional noise,
// shared resonant filter, independent amplitude and filter envelopes.
type PolyParams struct {
	Osc1       OscParams
	Osc2       OscParams
	OscMix     float32 // [0,1], 0 = osc1 only
	NoiseLevel float32 // [0,1]

	Filter    FilterParams
	AmpEnv    EnvelopeParams
	FilterEnv EnvelopeParams
	LFO1      LFOParams
	LFO2      LFOParams
}

// BassParams: single oscillator through an accent-modulated pre-filter
// cascaded into the main resonant filter.
type BassParams struct {
	Wave   dsp.Waveform
	Accent float32 // [0,1]

	AmpEnv EnvelopeParams
	Filter FilterParams
	LFO1   LFOParams
	LFO2   LFOParams
}

// ModalParams: noise burst exciting a bank of bandpass resonators.
type ModalParams struct {
	Structure  float32 // [0,1], harmonic..metallic ratio blend
	Brightness float32 // [0,1], per-mode gain rolloff
	Damping    float32 // [0,1], per-mode Q
	Decay      float32 // seconds

	Filter FilterParams
	LFO1   LFOParams
	LFO2   LFOParams
}

// RiftParams: triangle into a sine wavefolder, distortion shaper, and a
// short feedback delay loop closing back into the folder.
type RiftParams struct {
	Fold     float32 // [0,1]
	Drive    float32 // [0,1]
	Feedback float32 // [0,1], clamped below unity at use
	Decay    float32 // seconds

	Filter FilterParams
	LFO1   LFOParams
	LFO2   LFOParams
}

// GrainParams: overlapping sine grains spread across a window.
type GrainParams struct {
	Density   float32 // [0,1], scales grain count
	Spread    float32 // [0,1], scales the scatter window
	GrainSize float32 // seconds per grain
	Decay     float32 // seconds, overall envelope

	Filter FilterParams
	LFO1   LFOParams
	LFO2   LFOParams
}

// ScreamParams: noise burst into a note-period feedback comb with a
// damping lowpass in the loop.
type ScreamParams struct {
	Feedback float32 // [0,1], clamped below unity at use
	Damp     float32 // Hz, loop lowpass cutoff
	Decay    float32 // seconds

	Filter FilterParams
	LFO1   LFOParams
	LFO2   LFOParams
}

// InstrumentParams is the closed tagged variant of kind-specific parameter
// sets. Exactly one field is non-nil and it matches the owning track's kind.
type InstrumentParams struct {
	Kick   *KickParams
	Hat    *HatParams
	Poly   *PolyParams
	Bass   *BassParams
	Modal  *ModalParams
	Rift   *RiftParams
	Grain  *GrainParams
	Scream *ScreamParams
}

// Kind reports which variant is populated.
func (p InstrumentParams) Kind() Kind {
	switch {
	case p.Kick != nil:
		return KindKick
	case p.Hat != nil:
		return KindHat
	case p.Poly != nil:
		return KindPoly
	case p.Bass != nil:
		return KindBass
	case p.Modal != nil:
		return KindModal
	case p.Rift != nil:
		return KindRift
	case p.Grain != nil:
		return KindGrain
	default:
		return KindScream
	}
}

// clone returns a deep value copy so resolved parameters never alias the
// track's base configuration.
func (p InstrumentParams) clone() InstrumentParams {
	var out InstrumentParams
	switch {
	case p.Kick != nil:
		c := *p.Kick
		out.Kick = &c
	case p.Hat != nil:
		c := *p.Hat
		out.Hat = &c
	case p.Poly != nil:
		c := *p.Poly
		out.Poly = &c
	case p.Bass != nil:
		c := *p.Bass
		out.Bass = &c
	case p.Modal != nil:
		c := *p.Modal
		out.Modal = &c
	case p.Rift != nil:
		c := *p.Rift
		out.Rift = &c
	case p.Grain != nil:
		c := *p.Grain
		out.Grain = &c
	case p.Scream != nil:
		c := *p.Scream
		out.Scream = &c
	}
	return out
}

// FXSends holds the per-voice send fractions into the shared bus.
type FXSends struct {
	Reverb float32
	Delay  float32
	Drive  float32
}

const (
	// PatternSteps is the fixed global pattern grid.
	PatternSteps = 16
	// MinPatternLength and MaxPatternLength bound per-track lengths.
	MinPatternLength = 1
	MaxPatternLength = 16
)

// Step is one slot in a track's 16-step pattern.
type Step struct {
	Active   bool
	Note     string  // empty = track default note
	Velocity float32 // [0,1]
	Lock     *ParameterLock
}

// Track is one of the eight fixed sequencer lanes.
type Track struct {
	ID            int
	Name          string
	Kind          Kind
	Params        InstrumentParams
	Sends         FXSends
	Volume        float32
	PatternLength int
	DefaultNote   string
	Steps         [PatternSteps]Step
}

// ReverbParams configures the bus reverb. PreDelaySyncBeats, when > 0,
// overrides PreDelay with a fraction of a beat at the current tempo. Plate
// selects a membrane-mode impulse response instead of the default room.
type ReverbParams struct {
	Decay             float32 // seconds
	Mix               float32 // [0,1]
	PreDelay          float32 // seconds
	PreDelaySyncBeats float32 // fraction of a beat, 0 = use PreDelay
	Plate             bool
}

// DelayParams configures the bus delay. SyncBeats, when > 0, overrides
// Time with a fraction of a beat at the current tempo.
type DelayParams struct {
	Time      float32 // seconds
	SyncBeats float32 // fraction of a beat, 0 = use Time
	Feedback  float32 // [0,1], clamped below unity at use
	Mix       float32 // [0,1]
}

// DriveParams configures the bus saturator.
type DriveParams struct {
	Amount float32 // [0,1]
	Tone   float32 // Hz, post lowpass
	Mix    float32 // [0,1]
}

// CompressorParams configures the master compressor.
type CompressorParams struct {
	ThresholdDB float32
	Ratio       float32
	KneeDB      float32
	Attack      float32 // seconds
	Release     float32 // seconds
	MakeupDB    float32
}

// GlobalFXParams is the process-wide effects configuration, consumed by the
// bus once per change.
type GlobalFXParams struct {
	Reverb ReverbParams
	Delay  DelayParams
	Drive  DriveParams
	Comp   CompressorParams
}

// DefaultGlobalFX returns the startup bus configuration.
func DefaultGlobalFX() GlobalFXParams {
	return GlobalFXParams{
		Reverb: ReverbParams{Decay: 1.6, Mix: 1.0, PreDelay: 0.02},
		Delay:  DelayParams{Time: 0.375, Feedback: 0.45, Mix: 1.0},
		Drive:  DriveParams{Amount: 0.35, Tone: 6500, Mix: 1.0},
		Comp: CompressorParams{
			ThresholdDB: -12, Ratio: 4, KneeDB: 6,
			Attack: 0.005, Release: 0.12, MakeupDB: 3,
		},
	}
}

// DefaultTracks returns the eight fixed tracks created at process start.
func DefaultTracks() []*Track {
	mk := func(id int, name string, kind Kind, note string, params InstrumentParams) *Track {
		t := &Track{
			ID:            id,
			Name:          name,
			Kind:          kind,
			Params:        params,
			Sends:         FXSends{},
			Volume:        0.8,
			PatternLength: PatternSteps,
			DefaultNote:   note,
		}
		for i := range t.Steps {
			t.Steps[i].Velocity = 1
		}
		return t
	}
	return []*Track{
		mk(0, "KICK", KindKick, "C2", InstrumentParams{Kick: &KickParams{
			Tune: 48, Decay: 0.45, PitchEnvAmount: 0.6, Punch: 0.5, Body: 0.6,
			Tone: 5000, NoiseLevel: 0.25, Rumble: 0,
			Filter: FilterParams{Type: FilterLowpass, Cutoff: 18000, Q: 0.707},
		}}),
		mk(1, "HAT", KindHat, "A5", InstrumentParams{Hat: &HatParams{
			Decay: 0.08, Metal: 0.5, Tone: 7000,
			Filter: FilterParams{Type: FilterHighpass, Cutoff: 5000, Q: 0.707},
		}}),
		mk(2, "POLY", KindPoly, "C4", InstrumentParams{Poly: &PolyParams{
			Osc1:   OscParams{Wave: dsp.WaveSaw},
			Osc2:   OscParams{Wave: dsp.WaveSquare, Detune: 8},
			OscMix: 0.5,
			Filter: FilterParams{Type: FilterLowpass, Cutoff: 2400, Q: 1.2},
			AmpEnv: EnvelopeParams{Attack: 0.005, Decay: 0.25, Sustain: 0.4, Release: 0.2},
			FilterEnv: EnvelopeParams{
				Attack: 0.002, Decay: 0.18, Sustain: 0.1, Release: 0.15,
			},
		}}),
		mk(3, "BASS", KindBass, "C2", InstrumentParams{Bass: &BassParams{
			Wave: dsp.WaveSaw, Accent: 0.5,
			AmpEnv: EnvelopeParams{Attack: 0.002, Decay: 0.22, Sustain: 0.0, Release: 0.05},
			Filter: FilterParams{Type: FilterLowpass, Cutoff: 900, Q: 3.0},
		}}),
		mk(4, "MODAL", KindModal, "A3", InstrumentParams{Modal: &ModalParams{
			Structure: 0.3, Brightness: 0.6, Damping: 0.4, Decay: 0.7,
			Filter: FilterParams{Type: FilterLowpass, Cutoff: 16000, Q: 0.707},
		}}),
		mk(5, "RIFT", KindRift, "E2", InstrumentParams{Rift: &RiftParams{
			Fold: 0.5, Drive: 0.4, Feedback: 0.5, Decay: 0.3,
			Filter: FilterParams{Type: FilterLowpass, Cutoff: 9000, Q: 0.9},
		}}),
		mk(6, "GRAIN", KindGrain, "C5", InstrumentParams{Grain: &GrainParams{
			Density: 0.5, Spread: 0.4, GrainSize: 0.05, Decay: 0.5,
			Filter: FilterParams{Type: FilterBandpass, Cutoff: 3000, Q: 1.0},
		}}),
		mk(7, "SCREAM", KindScream, "A2", InstrumentParams{Scream: &ScreamParams{
			Feedback: 0.85, Damp: 4500, Decay: 0.6,
			Filter: FilterParams{Type: FilterHighpass, Cutoff: 120, Q: 0.707},
		}}),
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
