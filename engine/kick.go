package engine

import "github.com/anothermachines/fm8-r-2/dsp"

// kickKernel renders a sine body with an exponential pitch sweep, a
// highpassed noise transient, a saturated/clean body blend, a tone lowpass,
// and an optional convolved rumble layer ducked against the body envelope.
type kickKernel struct {
	sampleRate int
	t          int64

	baseFreq   float32
	sweepSemis float32
	sweep      float32 // decaying sweep state, 1 -> 0
	sweepCoeff float32
	phase      float64

	amp       float32
	ampCoeff  float32
	attack    int64
	noiseAmp  float32
	noiseCoef float32
	noise     *dsp.Noise
	noiseHP   *dsp.Biquad

	body       float32
	noiseLevel float32
	velocity   float32

	tone   *dsp.Biquad
	rumble float32
	conv   *streamConvolver
	filter trackFilter
}

func newKickKernel(p KickParams, note int, velocity float32, sampleRate int, seed uint64, rumbleIR []float32) (*kickKernel, float64) {
	decay := float64(clampf(p.Decay, 0.02, 4))
	punch := clamp01(p.Punch)
	tune := clampf(p.Tune, 20, 200)

	k := &kickKernel{
		sampleRate: sampleRate,
		baseFreq:   tune * semisToRatio(float32(note-36)),
		sweepSemis: 36 * clamp01(p.PitchEnvAmount),
		sweep:      1,
		sweepCoeff: decayCoeff(0.03+0.04*float64(1-punch), sampleRate),
		amp:        1,
		ampCoeff:   decayCoeff(decay, sampleRate),
		attack:     int64((0.004 - 0.0035*float64(punch)) * float64(sampleRate)),
		noiseAmp:   clamp01(p.NoiseLevel) * (0.5 + 0.5*punch),
		noiseCoef:  decayCoeff(0.03, sampleRate),
		noise:      dsp.NewNoise(seed),
		noiseHP:    dsp.NewHighpass(1500, float32(sampleRate), 0.707),
		body:       clamp01(p.Body),
		noiseLevel: clamp01(p.NoiseLevel),
		velocity:   velocity,
		tone:       dsp.NewLowpass(clampf(p.Tone, 200, 18000), float32(sampleRate), 0.707),
		rumble:     clamp01(p.Rumble),
		filter:     newTrackFilter(p.Filter, sampleRate),
	}

	tail := decay*2.5 + 0.05
	if k.rumble > 0 && len(rumbleIR) > 0 {
		if conv, err := newStreamConvolver(rumbleIR, 64); err == nil {
			k.conv = conv
			tail += float64(len(rumbleIR)) / float64(sampleRate)
		}
	}
	return k, tail
}

func (k *kickKernel) targets(off *modOffsets) map[LFODest]*float32 {
	t := sharedTargets(off)
	t[DestBody] = &off.Aux
	return t
}

func (k *kickKernel) process(off *modOffsets) float32 {
	freq := k.baseFreq * semisToRatio(k.sweepSemis*k.sweep+off.PitchSemis)
	k.sweep *= k.sweepCoeff

	s := dsp.Shape(dsp.WaveSine, k.phase)
	k.phase += float64(freq) / float64(k.sampleRate)
	if k.phase >= 1.0 {
		k.phase -= 1.0
	}

	body := clamp01(k.body + off.Aux)
	s = s*(1-body) + dsp.SoftClip(s*3)*body

	if k.noiseAmp > 1e-4 {
		s += k.noiseHP.Process(k.noise.Process()) * k.noiseAmp
		k.noiseAmp *= k.noiseCoef
	}

	env := k.amp
	k.amp *= k.ampCoeff
	if k.t < k.attack && k.attack > 0 {
		env *= float32(k.t) / float32(k.attack)
	}
	k.t++

	s = k.tone.Process(s * env)

	if k.conv != nil {
		// The rumble tail swells as the direct body fades.
		s += k.conv.process(s) * k.rumble * (1 - env)
	}
	return k.filter.process(s*k.velocity, off)
}
