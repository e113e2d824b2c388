package engine

import (
	"math"

	"github.com/anothermachines/fm8-r-2/dsp"
)

// screamKernel drives a note-period feedback comb with a short noise burst.
// A one-pole lowpass inside the loop damps the recirculation; loop gain is
// clamped below unity so the comb always dies out.
type screamKernel struct {
	t          int64
	velocity   float32
	sampleRate float32

	burst int64
	noise *dsp.Noise

	loop     *dsp.DelayLine
	period   float32
	feedback float32
	dampCut  float32
	dampCoef float32
	dampMem  float32

	amp      float32
	ampCoeff float32
	filter   trackFilter
}

func newScreamKernel(p ScreamParams, note int, velocity float32, sampleRate int, seed uint64) (*screamKernel, float64) {
	decay := float64(clampf(p.Decay, 0.05, 6))
	freq := midiNoteToFreq(note)
	period := float32(sampleRate) / freq
	if period < 2 {
		period = 2
	}

	k := &screamKernel{
		velocity:   velocity,
		sampleRate: float32(sampleRate),
		burst:      int64(0.01 * float64(sampleRate)),
		noise:      dsp.NewNoise(seed),
		loop:       dsp.NewDelayLine(int(period) + 2),
		period:     period,
		feedback:   clamp01(p.Feedback) * 0.95,
		dampCut:    clampf(p.Damp, 200, 16000),
		amp:        1,
		ampCoeff:   decayCoeff(decay, sampleRate),
		filter:     newTrackFilter(p.Filter, sampleRate),
	}
	k.dampCoef = onePoleCoeff(k.dampCut, sampleRate)
	return k, decay*2.5 + 0.1
}

// onePoleCoeff returns the feedback coefficient of a one-pole lowpass at the
// given cutoff.
func onePoleCoeff(cutoff float32, sampleRate int) float32 {
	return float32(math.Exp(-2.0 * math.Pi * float64(cutoff) / float64(sampleRate)))
}

func (k *screamKernel) targets(off *modOffsets) map[LFODest]*float32 {
	t := sharedTargets(off)
	t[DestDamp] = &off.Aux
	return t
}

func (k *screamKernel) process(off *modOffsets) float32 {
	var x float32
	if k.t < k.burst {
		x = k.noise.Process()
	}

	if off.Aux != 0 {
		cut := clampf(k.dampCut*pow2Approx(off.Aux*2), 200, 16000)
		k.dampCoef = onePoleCoeff(cut, int(k.sampleRate))
	}

	period := k.period
	if off.PitchSemis != 0 {
		period = clampf(k.period/semisToRatio(off.PitchSemis), 2, float32(k.loop.Size()-1))
	}

	s := k.loop.ReadFractional(period)
	k.dampMem = s + (k.dampMem-s)*k.dampCoef
	k.loop.Write(x + k.dampMem*k.feedback)

	env := k.amp
	k.amp *= k.ampCoeff
	k.t++
	return k.filter.process((x+s)*env*k.velocity, off)
}
