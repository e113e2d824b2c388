package engine

import "github.com/anothermachines/fm8-r-2/dsp"

// metalRatios are the inharmonic partials of the square bank, relative to the
// note frequency.
var metalRatios = [6]float32{1.0, 1.34, 1.68, 2.24, 2.78, 3.14}

// hatKernel renders highpassed noise plus an optional bank of six detuned
// square oscillators. The bank only exists when the metal amount is nonzero.
type hatKernel struct {
	t        int64
	amp      float32
	ampCoeff float32
	velocity float32

	noise   *dsp.Noise
	noiseHP *dsp.Biquad

	metal     float32
	bank      []*dsp.Oscillator
	bankFreqs []float32
	lastPitch float32

	filter trackFilter
}

func newHatKernel(p HatParams, note int, velocity float32, sampleRate int, seed uint64) (*hatKernel, float64) {
	decay := float64(clampf(p.Decay, 0.005, 2))
	k := &hatKernel{
		amp:      1,
		ampCoeff: decayCoeff(decay, sampleRate),
		velocity: velocity,
		noise:    dsp.NewNoise(seed),
		noiseHP:  dsp.NewHighpass(clampf(p.Tone, 1000, 16000), float32(sampleRate), 0.707),
		metal:    clamp01(p.Metal),
		filter:   newTrackFilter(p.Filter, sampleRate),
	}
	if k.metal > 0 {
		base := midiNoteToFreq(note)
		k.bank = make([]*dsp.Oscillator, len(metalRatios))
		k.bankFreqs = make([]float32, len(metalRatios))
		for i, r := range metalRatios {
			k.bankFreqs[i] = base * r
			k.bank[i] = dsp.NewOscillator(dsp.WaveSquare, base*r, sampleRate)
		}
	}
	return k, decay*3 + 0.05
}

func (k *hatKernel) targets(off *modOffsets) map[LFODest]*float32 {
	t := sharedTargets(off)
	t[DestMetal] = &off.Aux
	return t
}

func (k *hatKernel) process(off *modOffsets) float32 {
	s := k.noiseHP.Process(k.noise.Process())

	if k.bank != nil {
		if off.PitchSemis != k.lastPitch {
			ratio := semisToRatio(off.PitchSemis)
			for i, osc := range k.bank {
				osc.SetFreq(k.bankFreqs[i] * ratio)
			}
			k.lastPitch = off.PitchSemis
		}
		var m float32
		for _, osc := range k.bank {
			m += osc.Process()
		}
		s += m * clamp01(k.metal+off.Aux) * 0.25
	}

	env := k.amp
	k.amp *= k.ampCoeff
	k.t++
	return k.filter.process(s*env*k.velocity, off)
}
