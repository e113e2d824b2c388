package engine

import "github.com/anothermachines/fm8-r-2/dsp"

// LFODest names a modulation destination inside a voice. The shared
// destinations exist on every kind; the rest are scoped to the kinds that
// expose them in their target table.
type LFODest int

const (
	DestNone LFODest = iota

	// Shared destinations.
	DestPitch
	DestVolume
	DestCutoff
	DestResonance

	// Kind-scoped destinations.
	DestBody       // kick: saturated/clean blend
	DestMetal      // hat: square bank level
	DestOscMix     // poly: oscillator crossfade
	DestAccent     // bass: accent amount
	DestBrightness // modal: output tilt
	DestFold       // rift: fold amount
	DestDamp       // scream: loop damping cutoff
)

// String returns the preset tag of the destination.
func (d LFODest) String() string {
	switch d {
	case DestPitch:
		return "pitch"
	case DestVolume:
		return "volume"
	case DestCutoff:
		return "cutoff"
	case DestResonance:
		return "resonance"
	case DestBody:
		return "body"
	case DestMetal:
		return "metal"
	case DestOscMix:
		return "oscmix"
	case DestAccent:
		return "accent"
	case DestBrightness:
		return "brightness"
	case DestFold:
		return "fold"
	case DestDamp:
		return "damp"
	default:
		return "none"
	}
}

// ParseLFODest maps a preset tag to a destination, defaulting to none.
func ParseLFODest(s string) LFODest {
	for d := DestPitch; d <= DestDamp; d++ {
		if d.String() == s {
			return d
		}
	}
	return DestNone
}

// modOffsets is the per-sample modulation accumulator a voice's kernel reads.
// LFOs sum into it; the voice zeroes it every sample before the LFO pass.
type modOffsets struct {
	PitchSemis float32 // additive, semitones
	Volume     float32 // additive around unity gain
	CutoffOct  float32 // additive, octaves on the track filter cutoff
	Resonance  float32 // additive Q
	Aux        float32 // kind-scoped destination, unit range
}

// destScale maps unit LFO depth to a musically useful full-scale swing per
// destination.
func destScale(d LFODest) float32 {
	switch d {
	case DestPitch:
		return 12 // one octave
	case DestCutoff:
		return 2
	case DestResonance:
		return 4
	default:
		return 1
	}
}

// lfoState is one running low-frequency oscillator summing into a target.
type lfoState struct {
	wave   dsp.Waveform
	phase  float64
	inc    float64
	amount float32
	target *float32
}

// attachLFO wires one LFO setting onto a voice's target table. It returns nil
// when the setting is a no-op: destination none, zero depth, or a destination
// the voice does not expose.
func attachLFO(lp LFOParams, sampleRate int, table map[LFODest]*float32) *lfoState {
	if lp.Dest == DestNone || lp.Depth == 0 {
		return nil
	}
	target, ok := table[lp.Dest]
	if !ok {
		return nil
	}
	rate := clampf(lp.Rate, 0.01, 40)
	return &lfoState{
		wave:   lp.Wave,
		inc:    float64(rate) / float64(sampleRate),
		amount: clamp01(lp.Depth) * destScale(lp.Dest),
		target: target,
	}
}

// process advances the LFO one sample and accumulates into its target.
func (l *lfoState) process() {
	*l.target += l.amount * dsp.Shape(l.wave, l.phase)
	l.phase += l.inc
	if l.phase >= 1.0 {
		l.phase -= 1.0
	}
}
