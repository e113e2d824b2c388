package engine

import "github.com/anothermachines/fm8-r-2/dsp"

// bassKernel renders a single oscillator through an accent-swept lowpass
// cascaded into the main resonant filter. High velocities push the accent
// harder, so accented steps bite.
type bassKernel struct {
	t        int64
	velocity float32

	osc       *dsp.Oscillator
	baseFreq  float32
	lastPitch float32

	accent      float32
	accentEnv   float32
	accentCoeff float32
	preFilter   *dsp.Biquad
	preCutoff   float32
	sampleRate  float32

	ampEnv adsr
	filter trackFilter
}

func newBassKernel(p BassParams, note int, velocity float32, gate float64, sampleRate int) (*bassKernel, float64) {
	accent := clamp01(p.Accent)
	if velocity > 0.8 {
		accent = clamp01(accent + (velocity-0.8)*2)
	}
	k := &bassKernel{
		velocity:    velocity,
		baseFreq:    midiNoteToFreq(note),
		accent:      accent,
		accentEnv:   1,
		accentCoeff: decayCoeff(0.05+0.15*float64(accent), sampleRate),
		preFilter:   dsp.NewLowpass(300, float32(sampleRate), 0.9),
		preCutoff:   300,
		sampleRate:  float32(sampleRate),
		ampEnv:      newADSR(p.AmpEnv, gate, sampleRate),
		filter:      newTrackFilter(p.Filter, sampleRate),
	}
	k.osc = dsp.NewOscillator(p.Wave, k.baseFreq, sampleRate)
	tail := float64(k.ampEnv.total())/float64(sampleRate) + 0.02
	return k, tail
}

func (k *bassKernel) targets(off *modOffsets) map[LFODest]*float32 {
	t := sharedTargets(off)
	t[DestAccent] = &off.Aux
	return t
}

func (k *bassKernel) process(off *modOffsets) float32 {
	if off.PitchSemis != k.lastPitch {
		k.osc.SetFreq(k.baseFreq * semisToRatio(off.PitchSemis))
		k.lastPitch = off.PitchSemis
	}
	s := k.osc.Process()

	accent := clamp01(k.accent + off.Aux)
	cutoff := 300 + 2700*accent*k.accentEnv
	k.accentEnv *= k.accentCoeff
	if cutoff < k.preCutoff*0.995 || cutoff > k.preCutoff*1.005 {
		k.preFilter.SetLowpass(cutoff, k.sampleRate, 0.9)
		k.preCutoff = cutoff
	}
	s = k.preFilter.Process(s) * (1 + accent*0.5)

	env := k.ampEnv.level(k.t)
	k.t++
	return k.filter.process(s, off) * env * k.velocity
}
