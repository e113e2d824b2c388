package engine

import (
	"math"

	"github.com/anothermachines/fm8-r-2/dsp"
	"github.com/anothermachines/fm8-r-2/irsynth"
)

const convPartSize = 128

// EffectsBus is the shared send chain: convolution reverb, tempo-syncable
// feedback delay, drive saturator, and a master compressor into a hard
// ceiling. Voices accumulate into per-send buffers; the bus folds them with
// the dry sum into the stereo output.
type EffectsBus struct {
	sampleRate int
	bpm        float64
	params     GlobalFXParams

	revL       *streamConvolver
	revR       *streamConvolver
	preDelay   *dsp.DelayLine
	preSamples float32
	revMix     float32
	irDecay    float32
	irPlate    bool

	delayLine *dsp.DelayLine
	delaySamp float32
	delayFB   float32
	delayMix  float32

	driveAmt float32
	driveMix float32
	tone     *dsp.Biquad

	comp compressor
}

// NewEffectsBus builds the bus at the given rate and tempo.
func NewEffectsBus(sampleRate int, bpm float64, fx GlobalFXParams) *EffectsBus {
	b := &EffectsBus{
		sampleRate: sampleRate,
		bpm:        bpm,
		irDecay:    -1,
		preDelay:   dsp.NewDelayLine(sampleRate / 2),
		delayLine:  dsp.NewDelayLine(sampleRate * 4),
		tone:       dsp.NewLowpass(6500, float32(sampleRate), 0.707),
	}
	b.Configure(fx)
	return b
}

// Configure applies a full effects configuration. The reverb impulse response
// is only regenerated when its decay or character changed.
func (b *EffectsBus) Configure(fx GlobalFXParams) {
	b.params = fx

	decay := clampf(fx.Reverb.Decay, 0.1, 8)
	if decay != b.irDecay || fx.Reverb.Plate != b.irPlate {
		b.rebuildIR(decay, fx.Reverb.Plate)
	}
	b.revMix = clamp01(fx.Reverb.Mix)
	b.preSamples = b.syncedSeconds(fx.Reverb.PreDelay, fx.Reverb.PreDelaySyncBeats) * float32(b.sampleRate)
	if max := float32(b.preDelay.Size() - 1); b.preSamples > max {
		b.preSamples = max
	}

	b.delaySamp = b.syncedSeconds(fx.Delay.Time, fx.Delay.SyncBeats) * float32(b.sampleRate)
	if b.delaySamp < 1 {
		b.delaySamp = 1
	}
	if max := float32(b.delayLine.Size() - 1); b.delaySamp > max {
		b.delaySamp = max
	}
	b.delayFB = clamp01(fx.Delay.Feedback) * 0.9
	b.delayMix = clamp01(fx.Delay.Mix)

	b.driveAmt = clamp01(fx.Drive.Amount)
	b.driveMix = clamp01(fx.Drive.Mix)
	b.tone.SetLowpass(clampf(fx.Drive.Tone, 500, 18000), float32(b.sampleRate), 0.707)

	b.comp = newCompressor(fx.Comp, b.sampleRate)
}

// SetTempo updates the tempo and recomputes beat-synced times.
func (b *EffectsBus) SetTempo(bpm float64) {
	if bpm <= 0 {
		return
	}
	b.bpm = bpm
	b.Configure(b.params)
}

// syncedSeconds resolves a time control against its beat-sync override.
func (b *EffectsBus) syncedSeconds(seconds, beats float32) float32 {
	if beats > 0 {
		return beats * float32(60.0/b.bpm)
	}
	if seconds < 0 {
		return 0
	}
	return seconds
}

func (b *EffectsBus) rebuildIR(decay float32, plate bool) {
	var irL, irR []float32
	var err error
	if plate {
		cfg := irsynth.DefaultPlateConfig()
		cfg.SampleRate = b.sampleRate
		cfg.DurationS = float64(decay)
		cfg.LowDecayS = float64(decay) * 0.8
		cfg.HighDecayS = float64(decay) * 0.25
		irL, irR, err = irsynth.GeneratePlate(cfg)
	} else {
		cfg := irsynth.DefaultRoomConfig()
		cfg.SampleRate = b.sampleRate
		cfg.DurationS = float64(decay)
		cfg.LowDecayS = float64(decay) * 0.75
		cfg.HighDecayS = float64(decay) * 0.2
		irL, irR, err = irsynth.GenerateRoom(cfg)
	}
	if err != nil {
		return
	}
	convL, errL := newStreamConvolver(irL, convPartSize)
	convR, errR := newStreamConvolver(irR, convPartSize)
	if errL != nil || errR != nil {
		return
	}
	b.revL = convL
	b.revR = convR
	b.irDecay = decay
	b.irPlate = plate
}

// Process folds one block of send buffers and the dry sum into stereo
// interleaved output. All slices must hold n samples; out must hold 2n.
func (b *EffectsBus) Process(dry, rev, del, drv []float32, out []float32) {
	for i := range dry {
		// Drive: saturate the send, roll off the fizz.
		shaped := dsp.SoftClip(drv[i] * (1 + b.driveAmt*9))
		driveOut := b.tone.Process(shaped) * b.driveMix

		// Delay: feedback loop below unity.
		echo := b.delayLine.ReadFractional(b.delaySamp)
		b.delayLine.Write(del[i] + echo*b.delayFB)
		delayOut := echo * b.delayMix

		// Reverb: pre-delay into the stereo convolver pair.
		b.preDelay.Write(rev[i])
		pd := b.preDelay.ReadFractional(b.preSamples)
		var wetL, wetR float32
		if b.revL != nil {
			wetL = b.revL.process(pd) * b.revMix
			wetR = b.revR.process(pd) * b.revMix
		}

		mono := dry[i] + driveOut + delayOut
		l := mono + wetL
		r := mono + wetR

		peak := abs32(l)
		if ar := abs32(r); ar > peak {
			peak = ar
		}
		g := b.comp.gain(peak)

		out[2*i] = clampf(l*g, -1, 1)
		out[2*i+1] = clampf(r*g, -1, 1)
	}
}

// Reset clears all time-domain state without touching the configuration.
func (b *EffectsBus) Reset() {
	b.delayLine.Reset()
	b.preDelay.Reset()
	b.tone.Reset()
	if b.revL != nil {
		b.revL.reset()
		b.revR.reset()
	}
	b.comp.env = 0
}

// compressor is a soft-knee feedforward compressor with stereo-linked
// detection and makeup gain.
type compressor struct {
	threshold float32 // dB
	ratio     float32
	knee      float32 // dB
	attack    float32
	release   float32
	makeup    float32 // linear
	env       float32
}

func newCompressor(p CompressorParams, sampleRate int) compressor {
	coeff := func(t float32) float32 {
		if t < 1e-4 {
			t = 1e-4
		}
		return 1 - decayCoeff(float64(t), sampleRate)
	}
	ratio := p.Ratio
	if ratio < 1 {
		ratio = 1
	}
	return compressor{
		threshold: p.ThresholdDB,
		ratio:     ratio,
		knee:      clampf(p.KneeDB, 0, 24),
		attack:    coeff(p.Attack),
		release:   coeff(p.Release),
		makeup:    dbToLin(p.MakeupDB),
	}
}

func (c *compressor) gain(peak float32) float32 {
	if peak > c.env {
		c.env += (peak - c.env) * c.attack
	} else {
		c.env += (peak - c.env) * c.release
	}

	level := 20 * float32(math.Log10(float64(c.env)+1e-9))
	over := level - c.threshold

	var gDB float32
	switch {
	case c.knee > 0 && over > -c.knee/2 && over < c.knee/2:
		d := over + c.knee/2
		gDB = -(d * d) / (2 * c.knee) * (1 - 1/c.ratio)
	case over >= c.knee/2:
		gDB = -over * (1 - 1/c.ratio)
	}
	return dbToLin(gDB) * c.makeup
}

func dbToLin(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}
