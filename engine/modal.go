package engine

import "github.com/anothermachines/fm8-r-2/dsp"

const modalModes = 8

// metallicModeRatios are the bell-like partials blended against the harmonic
// series by the structure control.
var metallicModeRatios = [modalModes]float32{
	1.0, 2.76, 5.40, 8.93, 13.34, 18.64, 24.81, 31.87,
}

// modalKernel excites a bank of bandpass resonators with a short noise burst.
// Structure morphs mode frequencies from harmonic to metallic, brightness
// shapes the per-mode gain rolloff, damping sets the mode Q. Modes that land
// above Nyquist are skipped.
type modalKernel struct {
	t        int64
	velocity float32

	burst      int64
	noise      *dsp.Noise
	modes      []*dsp.Biquad
	gains      []float32
	tilt       *dsp.Biquad
	tiltCutoff float32
	sampleRate float32
	brightness float32

	amp      float32
	ampCoeff float32
	filter   trackFilter
}

func newModalKernel(p ModalParams, note int, velocity float32, sampleRate int, seed uint64) (*modalKernel, float64) {
	decay := float64(clampf(p.Decay, 0.05, 6))
	structure := clamp01(p.Structure)
	brightness := clamp01(p.Brightness)
	damping := clamp01(p.Damping)

	f0 := midiNoteToFreq(note)
	nyquist := 0.49 * float32(sampleRate)
	q := clampf(40+760*(1-damping), 40, 1000)
	rolloff := 0.35 + 0.6*brightness

	k := &modalKernel{
		velocity:   velocity,
		burst:      int64(0.005 * float64(sampleRate)),
		noise:      dsp.NewNoise(seed),
		sampleRate: float32(sampleRate),
		brightness: brightness,
		amp:        1,
		ampCoeff:   decayCoeff(decay, sampleRate),
		filter:     newTrackFilter(p.Filter, sampleRate),
	}
	gain := float32(1.0)
	for i := 0; i < modalModes; i++ {
		harmonic := float32(i + 1)
		ratio := harmonic*(1-structure) + metallicModeRatios[i]*structure
		freq := f0 * ratio
		if freq >= nyquist {
			break
		}
		k.modes = append(k.modes, dsp.NewBandpass(freq, float32(sampleRate), q))
		k.gains = append(k.gains, gain)
		gain *= rolloff
	}
	k.tiltCutoff = 1000 + 15000*brightness
	k.tilt = dsp.NewLowpass(k.tiltCutoff, float32(sampleRate), 0.707)

	return k, decay*2 + 0.1
}

func (k *modalKernel) targets(off *modOffsets) map[LFODest]*float32 {
	t := sharedTargets(off)
	t[DestBrightness] = &off.Aux
	return t
}

func (k *modalKernel) process(off *modOffsets) float32 {
	var x float32
	if k.t < k.burst {
		x = k.noise.Process()
	}

	var s float32
	for i, m := range k.modes {
		s += m.Process(x) * k.gains[i]
	}

	if off.Aux != 0 {
		cut := clampf(k.tiltCutoff*pow2Approx(off.Aux*2), 200, 0.45*k.sampleRate)
		k.tilt.SetLowpass(cut, k.sampleRate, 0.707)
	}
	s = k.tilt.Process(s)

	env := k.amp
	k.amp *= k.ampCoeff
	k.t++
	s *= env * k.velocity * 2
	return k.filter.process(s, off)
}
