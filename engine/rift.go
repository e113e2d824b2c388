package engine

import (
	"math"

	"github.com/anothermachines/fm8-r-2/dsp"
)

// riftKernel renders a triangle oscillator through a sine wavefolder and a
// distortion shaper, with a short feedback delay closing back into the
// folder. Loop gain stays below unity so the voice always decays.
type riftKernel struct {
	t        int64
	velocity float32

	osc       *dsp.Oscillator
	baseFreq  float32
	lastPitch float32

	fold     float32
	drive    float32
	feedback float32
	delay    *dsp.DelayLine
	delayLen float32

	amp      float32
	ampCoeff float32
	filter   trackFilter
}

func newRiftKernel(p RiftParams, note int, velocity float32, sampleRate int) (*riftKernel, float64) {
	decay := float64(clampf(p.Decay, 0.02, 4))
	delaySamples := int(0.007 * float64(sampleRate))
	if delaySamples < 1 {
		delaySamples = 1
	}
	k := &riftKernel{
		velocity: velocity,
		baseFreq: midiNoteToFreq(note),
		fold:     clamp01(p.Fold),
		drive:    clamp01(p.Drive),
		feedback: clamp01(p.Feedback) * 0.95,
		delay:    dsp.NewDelayLine(delaySamples + 1),
		delayLen: float32(delaySamples),
		amp:      1,
		ampCoeff: decayCoeff(decay, sampleRate),
		filter:   newTrackFilter(p.Filter, sampleRate),
	}
	k.osc = dsp.NewOscillator(dsp.WaveTriangle, k.baseFreq, sampleRate)
	return k, decay*2.5 + 0.1
}

func (k *riftKernel) targets(off *modOffsets) map[LFODest]*float32 {
	t := sharedTargets(off)
	t[DestFold] = &off.Aux
	return t
}

func (k *riftKernel) process(off *modOffsets) float32 {
	if off.PitchSemis != k.lastPitch {
		k.osc.SetFreq(k.baseFreq * semisToRatio(off.PitchSemis))
		k.lastPitch = off.PitchSemis
	}

	x := k.osc.Process() + k.delay.ReadFractional(k.delayLen)*k.feedback

	fold := clamp01(k.fold + off.Aux)
	s := float32(math.Sin(float64(x) * float64(1+fold*6) * math.Pi / 2))

	d := 1 + k.drive*8
	s = s * d / (1 + k.drive*7*abs32(s))

	k.delay.Write(s)

	env := k.amp
	k.amp *= k.ampCoeff
	k.t++
	return k.filter.process(s*env*k.velocity, off)
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
