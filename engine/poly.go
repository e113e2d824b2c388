package engine

import "github.com/anothermachines/fm8-r-2/dsp"

// polyKernel renders two crossfaded oscillators plus noise through a resonant
// filter with its own envelope, shaped by a linear ADSR amplitude envelope.
type polyKernel struct {
	t        int64
	velocity float32

	osc1, osc2 *dsp.Oscillator
	f1, f2     float32
	lastPitch  float32
	oscMix     float32
	noiseLevel float32
	noise      *dsp.Noise

	ampEnv    adsr
	filtEnv   adsr
	envAmount float32
	filter    trackFilter
}

func newPolyKernel(p PolyParams, note int, velocity float32, gate float64, sampleRate int, seed uint64) (*polyKernel, float64) {
	oscFreq := func(o OscParams) float32 {
		return midiNoteToFreq(note+o.Octave*12) * centsToRatio(o.Detune)
	}
	k := &polyKernel{
		velocity:   velocity,
		f1:         oscFreq(p.Osc1),
		f2:         oscFreq(p.Osc2),
		oscMix:     clamp01(p.OscMix),
		noiseLevel: clamp01(p.NoiseLevel),
		noise:      dsp.NewNoise(seed),
		ampEnv:     newADSR(p.AmpEnv, gate, sampleRate),
		filtEnv:    newADSR(p.FilterEnv, gate, sampleRate),
		envAmount:  p.Filter.EnvAmount,
		filter:     newTrackFilter(p.Filter, sampleRate),
	}
	k.osc1 = dsp.NewOscillator(p.Osc1.Wave, k.f1, sampleRate)
	k.osc2 = dsp.NewOscillator(p.Osc2.Wave, k.f2, sampleRate)
	tail := float64(k.ampEnv.total())/float64(sampleRate) + 0.02
	return k, tail
}

func (k *polyKernel) targets(off *modOffsets) map[LFODest]*float32 {
	t := sharedTargets(off)
	t[DestOscMix] = &off.Aux
	return t
}

func (k *polyKernel) process(off *modOffsets) float32 {
	if off.PitchSemis != k.lastPitch {
		ratio := semisToRatio(off.PitchSemis)
		k.osc1.SetFreq(k.f1 * ratio)
		k.osc2.SetFreq(k.f2 * ratio)
		k.lastPitch = off.PitchSemis
	}

	mix := clamp01(k.oscMix + off.Aux)
	s := k.osc1.Process()*(1-mix) + k.osc2.Process()*mix
	if k.noiseLevel > 0 {
		s += k.noise.Process() * k.noiseLevel
	}

	// The filter envelope raises cutoff from its base by EnvAmount hertz,
	// folded into the shared octave offset so LFO cutoff modulation stacks.
	if k.envAmount != 0 {
		fe := k.filtEnv.level(k.t)
		target := k.filter.baseCutoff + k.envAmount*fe
		if target < 5 {
			target = 5
		}
		off.CutoffOct += log2Approx(target / k.filter.baseCutoff)
	}

	env := k.ampEnv.level(k.t)
	k.t++
	return k.filter.process(s, off) * env * k.velocity
}
