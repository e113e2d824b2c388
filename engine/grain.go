package engine

import (
	"math"

	"github.com/anothermachines/fm8-r-2/dsp"
)

// grain is one sine burst with a linear attack/decay window.
type grain struct {
	start  int64
	length int64
	phase  float64
	inc    float64
	gain   float32
}

// grainKernel scatters short sine grains across a window. Density scales the
// grain count, spread scales the window, and every grain carries a small
// deterministic detune so clouds shimmer instead of phasing.
type grainKernel struct {
	t        int64
	velocity float32
	grains   []grain

	amp      float32
	ampCoeff float32
	filter   trackFilter
}

func newGrainKernel(p GrainParams, note int, velocity float32, sampleRate int, seed uint64) (*grainKernel, float64) {
	decay := float64(clampf(p.Decay, 0.05, 4))
	size := float64(clampf(p.GrainSize, 0.005, 0.5))
	window := float64(clamp01(p.Spread)) * 0.25
	count := 1 + int(clamp01(p.Density)*23+0.5)

	freq := midiNoteToFreq(note)
	rnd := dsp.NewNoise(seed)
	sr := float64(sampleRate)

	k := &grainKernel{
		velocity: velocity,
		grains:   make([]grain, count),
		amp:      1,
		ampCoeff: decayCoeff(decay, sampleRate),
		filter:   newTrackFilter(p.Filter, sampleRate),
	}
	norm := float32(1.0 / math.Sqrt(float64(count)))
	for i := range k.grains {
		offset := (float64(rnd.Process()) + 1) * 0.5 * window
		detune := rnd.Process() * 25 // cents
		k.grains[i] = grain{
			start:  int64(offset * sr),
			length: int64(size * sr),
			inc:    float64(freq*centsToRatio(detune)) / sr,
			gain:   norm,
		}
	}
	return k, window + size + decay + 0.05
}

func (k *grainKernel) targets(off *modOffsets) map[LFODest]*float32 {
	return sharedTargets(off)
}

func (k *grainKernel) process(off *modOffsets) float32 {
	ratio := 1.0
	if off.PitchSemis != 0 {
		ratio = float64(semisToRatio(off.PitchSemis))
	}

	var s float32
	for i := range k.grains {
		g := &k.grains[i]
		dt := k.t - g.start
		if dt < 0 || dt >= g.length {
			continue
		}
		// Triangular window, peak at 20% in.
		var win float32
		attack := g.length / 5
		if dt < attack {
			win = float32(dt) / float32(attack)
		} else {
			win = 1 - float32(dt-attack)/float32(g.length-attack)
		}
		s += dsp.Shape(dsp.WaveSine, g.phase) * win * g.gain
		g.phase += g.inc * ratio
		if g.phase >= 1.0 {
			g.phase -= 1.0
		}
	}

	env := k.amp
	k.amp *= k.ampCoeff
	k.t++
	return k.filter.process(s*env*k.velocity, off)
}
