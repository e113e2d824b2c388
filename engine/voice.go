package engine

import (
	"math"

	"github.com/anothermachines/fm8-r-2/dsp"
)

// synthKernel is the per-sample core of one triggered voice. process renders
// the next mono sample reading modulation offsets; targets exposes the
// destinations this kind supports, pointing into the voice's accumulator.
type synthKernel interface {
	process(off *modOffsets) float32
	targets(off *modOffsets) map[LFODest]*float32
}

// sharedTargets builds the destination table every kind exposes.
func sharedTargets(off *modOffsets) map[LFODest]*float32 {
	return map[LFODest]*float32{
		DestPitch:     &off.PitchSemis,
		DestVolume:    &off.Volume,
		DestCutoff:    &off.CutoffOct,
		DestResonance: &off.Resonance,
	}
}

// trackFilter is the per-voice resonant filter applied at the end of every
// kind's chain. Cutoff and Q follow the modulation offsets; coefficients are
// only recomputed when either moved.
type trackFilter struct {
	bq         dsp.Biquad
	typ        FilterType
	baseCutoff float32
	baseQ      float32
	sampleRate float32
	curCutoff  float32
	curQ       float32
}

func newTrackFilter(p FilterParams, sampleRate int) trackFilter {
	f := trackFilter{
		typ:        p.Type,
		baseCutoff: p.Cutoff,
		baseQ:      p.Q,
		sampleRate: float32(sampleRate),
	}
	f.retune(p.Cutoff, p.Q)
	return f
}

func (f *trackFilter) retune(cutoff, q float32) {
	switch f.typ {
	case FilterHighpass:
		f.bq.SetHighpass(cutoff, f.sampleRate, q)
	case FilterBandpass:
		f.bq.SetBandpass(cutoff, f.sampleRate, q)
	case FilterNotch:
		f.bq.SetNotch(cutoff, f.sampleRate, q)
	default:
		f.bq.SetLowpass(cutoff, f.sampleRate, q)
	}
	f.curCutoff = cutoff
	f.curQ = q
}

func (f *trackFilter) process(x float32, off *modOffsets) float32 {
	cutoff := f.baseCutoff
	if off.CutoffOct != 0 {
		cutoff *= pow2Approx(off.CutoffOct)
	}
	q := f.baseQ
	if off.Resonance != 0 {
		q = clampf(q+off.Resonance, 0.05, 20)
	}
	if cutoff != f.curCutoff || q != f.curQ {
		f.retune(cutoff, q)
	}
	return f.bq.Process(x)
}

// adsr is a linear attack/decay/sustain/release envelope with a fixed gate.
// Segment lengths are in samples; level is evaluated against the voice-local
// sample counter.
type adsr struct {
	attack  int64
	decay   int64
	release int64
	gate    int64
	sustain float32
}

func newADSR(p EnvelopeParams, gate float64, sampleRate int) adsr {
	sr := float64(sampleRate)
	e := adsr{
		attack:  int64(float64(clampf(p.Attack, 0, 30)) * sr),
		decay:   int64(float64(clampf(p.Decay, 0, 30)) * sr),
		release: int64(float64(clampf(p.Release, 0, 30)) * sr),
		sustain: clamp01(p.Sustain),
	}
	e.gate = int64(gate * sr)
	// Release never interrupts attack or decay mid-segment.
	if min := e.attack + e.decay; e.gate < min {
		e.gate = min
	}
	return e
}

func (e *adsr) level(t int64) float32 {
	if t < e.attack {
		return float32(t) / float32(e.attack)
	}
	t -= e.attack
	if t < e.decay {
		return 1 + (e.sustain-1)*float32(t)/float32(e.decay)
	}
	if t+e.attack < e.gate {
		return e.sustain
	}
	tr := t + e.attack - e.gate
	if tr < e.release && e.release > 0 {
		return e.sustain * (1 - float32(tr)/float32(e.release))
	}
	return 0
}

// total reports the envelope length in samples.
func (e *adsr) total() int64 {
	return e.gate + e.release
}

// decayCoeff returns the per-sample multiplier of an exponential decay with
// the given time constant in seconds.
func decayCoeff(tau float64, sampleRate int) float32 {
	if tau < 1e-4 {
		tau = 1e-4
	}
	return float32(math.Exp(-1.0 / (tau * float64(sampleRate))))
}

// voiceLimiter bounds a single voice's output so runaway feedback settings can
// never push past the ceiling. Instant attack, exponential release.
type voiceLimiter struct {
	env       float32
	release   float32
	threshold float32
	ratio     float32
	ceiling   float32
}

func newVoiceLimiter(sampleRate int) voiceLimiter {
	return voiceLimiter{
		release:   decayCoeff(0.05, sampleRate),
		threshold: 0.9,
		ratio:     20,
		ceiling:   1.0,
	}
}

func (l *voiceLimiter) process(x float32) float32 {
	a := x
	if a < 0 {
		a = -a
	}
	l.env *= l.release
	if a > l.env {
		l.env = a
	}
	if l.env > l.threshold {
		x *= (l.threshold + (l.env-l.threshold)/l.ratio) / l.env
	}
	return clampf(x, -l.ceiling, l.ceiling)
}

// voice is one scheduled note instance. Start and stop are absolute engine
// frames, fixed at trigger time.
type voice struct {
	trackID int
	start   int64
	stop    int64
	volume  float32
	sends   FXSends

	off     modOffsets
	lfos    []*lfoState
	kernel  synthKernel
	limiter voiceLimiter
}

func newVoice(r ResolvedParams, trackID, note int, velocity float32, gate float64, sampleRate int, seed uint64, start int64, rumbleIR []float32) *voice {
	kernel, tail := newKernel(r, note, clamp01(velocity), gate, sampleRate, seed, rumbleIR)
	if kernel == nil {
		return nil
	}
	v := &voice{
		trackID: trackID,
		start:   start,
		stop:    start + int64(tail*float64(sampleRate)),
		volume:  r.Volume,
		sends:   r.Sends,
		kernel:  kernel,
		limiter: newVoiceLimiter(sampleRate),
	}
	table := kernel.targets(&v.off)
	for _, lp := range lfoRecords(&r.Params) {
		if l := attachLFO(lp, sampleRate, table); l != nil {
			v.lfos = append(v.lfos, l)
		}
	}
	return v
}

// lfoRecords extracts the two LFO records of whichever variant is populated.
func lfoRecords(p *InstrumentParams) [2]LFOParams {
	switch {
	case p.Kick != nil:
		return [2]LFOParams{p.Kick.LFO1, p.Kick.LFO2}
	case p.Hat != nil:
		return [2]LFOParams{p.Hat.LFO1, p.Hat.LFO2}
	case p.Poly != nil:
		return [2]LFOParams{p.Poly.LFO1, p.Poly.LFO2}
	case p.Bass != nil:
		return [2]LFOParams{p.Bass.LFO1, p.Bass.LFO2}
	case p.Modal != nil:
		return [2]LFOParams{p.Modal.LFO1, p.Modal.LFO2}
	case p.Rift != nil:
		return [2]LFOParams{p.Rift.LFO1, p.Rift.LFO2}
	case p.Grain != nil:
		return [2]LFOParams{p.Grain.LFO1, p.Grain.LFO2}
	case p.Scream != nil:
		return [2]LFOParams{p.Scream.LFO1, p.Scream.LFO2}
	}
	return [2]LFOParams{}
}

// render produces the next mono sample. The caller guarantees the current
// frame is inside [start, stop).
func (v *voice) render() float32 {
	v.off = modOffsets{}
	for _, l := range v.lfos {
		l.process()
	}
	s := v.kernel.process(&v.off)
	gain := v.volume
	if v.off.Volume != 0 {
		gain *= clampf(1+v.off.Volume, 0, 2)
	}
	return v.limiter.process(s * gain)
}

// newKernel dispatches over the closed kind set. A resolved parameter set
// whose variant is missing yields no voice.
func newKernel(r ResolvedParams, note int, velocity float32, gate float64, sampleRate int, seed uint64, rumbleIR []float32) (synthKernel, float64) {
	switch r.Kind {
	case KindKick:
		if r.Params.Kick == nil {
			return nil, 0
		}
		return newKickKernel(*r.Params.Kick, note, velocity, sampleRate, seed, rumbleIR)
	case KindHat:
		if r.Params.Hat == nil {
			return nil, 0
		}
		return newHatKernel(*r.Params.Hat, note, velocity, sampleRate, seed)
	case KindPoly:
		if r.Params.Poly == nil {
			return nil, 0
		}
		return newPolyKernel(*r.Params.Poly, note, velocity, gate, sampleRate, seed)
	case KindBass:
		if r.Params.Bass == nil {
			return nil, 0
		}
		return newBassKernel(*r.Params.Bass, note, velocity, gate, sampleRate)
	case KindModal:
		if r.Params.Modal == nil {
			return nil, 0
		}
		return newModalKernel(*r.Params.Modal, note, velocity, sampleRate, seed)
	case KindRift:
		if r.Params.Rift == nil {
			return nil, 0
		}
		return newRiftKernel(*r.Params.Rift, note, velocity, sampleRate)
	case KindGrain:
		if r.Params.Grain == nil {
			return nil, 0
		}
		return newGrainKernel(*r.Params.Grain, note, velocity, sampleRate, seed)
	case KindScream:
		if r.Params.Scream == nil {
			return nil, 0
		}
		return newScreamKernel(*r.Params.Scream, note, velocity, sampleRate, seed)
	}
	return nil, 0
}
