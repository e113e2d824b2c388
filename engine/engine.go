// Package engine implements an eight-track step-sequenced sound module:
// kind-dispatched voice synthesis, per-step parameter locks, a shared send
// effects bus, and sample-accurate scheduling against an absolute frame
// clock. All rendering is float32 at a fixed sample rate.
package engine

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/anothermachines/fm8-r-2/irsynth"
)

// Engine owns the audio clock, the live voice pool, and the effects bus.
// Triggers are placed at absolute frame positions, so scheduling ahead of
// real time costs nothing at render time.
type Engine struct {
	mu sync.Mutex

	sampleRate int
	frame      int64
	voices     []*voice
	bus        *EffectsBus
	seedBase   uint64
	rumbleIR   []float32

	dry, rev, del, drv []float32
	block              []float32
}

// NewEngine creates an engine at the given rate and tempo.
func NewEngine(sampleRate int, bpm float64, fx GlobalFXParams) *Engine {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &Engine{
		sampleRate: sampleRate,
		bus:        NewEffectsBus(sampleRate, bpm, fx),
		seedBase:   0x5fd1e8a3c0b97246,
	}
}

// SampleRate reports the engine rate in frames per second.
func (e *Engine) SampleRate() int {
	return e.sampleRate
}

// Now reports the playback position in seconds.
func (e *Engine) Now() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return float64(e.frame) / float64(e.sampleRate)
}

// SetSeed rebases the deterministic noise seeding. Two engines with the same
// seed, configuration, and trigger sequence render identical output.
func (e *Engine) SetSeed(seed uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seedBase = seed
}

// SetTempo retunes the beat-synced bus effects.
func (e *Engine) SetTempo(bpm float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bus.SetTempo(bpm)
}

// ConfigureFX applies a new global effects configuration.
func (e *Engine) ConfigureFX(fx GlobalFXParams) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bus.Configure(fx)
}

// SetRumbleIR replaces the kick rumble impulse response, e.g. with one
// decoded from a user-supplied file. A nil slice reverts to the built-in IR.
func (e *Engine) SetRumbleIR(ir []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rumbleIR = ir
}

func (e *Engine) ensureRumbleIR() []float32 {
	if e.rumbleIR == nil {
		cfg := irsynth.DefaultRumbleConfig()
		cfg.SampleRate = e.sampleRate
		ir, err := irsynth.GenerateRumble(cfg)
		if err != nil {
			return nil
		}
		e.rumbleIR = ir
	}
	return e.rumbleIR
}

// Trigger schedules one note at an absolute time in seconds. Times in the
// past start immediately; triggering never fails, a resolved parameter set
// with no matching variant is simply dropped.
func (e *Engine) Trigger(trackID int, r ResolvedParams, note int, velocity float32, when, gate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := int64(when * float64(e.sampleRate))
	if start < e.frame {
		start = e.frame
	}

	var rumbleIR []float32
	if r.Kind == KindKick && r.Params.Kick != nil && r.Params.Kick.Rumble > 0 {
		rumbleIR = e.ensureRumbleIR()
	}

	seed := e.seedBase ^ uint64(start)*0x9e3779b97f4a7c15 ^ uint64(trackID)<<56
	v := newVoice(r, trackID, note, velocity, gate, e.sampleRate, seed, start, rumbleIR)
	if v == nil {
		return
	}
	e.voices = append(e.voices, v)
}

// ActiveVoices reports how many voices are live or pending.
func (e *Engine) ActiveVoices() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.voices)
}

// Process renders the next len(out)/2 frames of interleaved stereo into out
// and advances the clock.
func (e *Engine) Process(out []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.processLocked(out)
}

func (e *Engine) processLocked(out []float32) {
	n := len(out) / 2
	if n == 0 {
		return
	}
	e.ensureScratch(n)
	for i := 0; i < n; i++ {
		e.dry[i] = 0
		e.rev[i] = 0
		e.del[i] = 0
		e.drv[i] = 0
	}

	blockEnd := e.frame + int64(n)
	live := e.voices[:0]
	for _, v := range e.voices {
		if v.stop <= e.frame {
			continue
		}
		from := v.start
		if from < e.frame {
			from = e.frame
		}
		to := v.stop
		if to > blockEnd {
			to = blockEnd
		}
		for f := from; f < to; f++ {
			s := v.render()
			i := int(f - e.frame)
			e.dry[i] += s
			if v.sends.Reverb > 0 {
				e.rev[i] += s * v.sends.Reverb
			}
			if v.sends.Delay > 0 {
				e.del[i] += s * v.sends.Delay
			}
			if v.sends.Drive > 0 {
				e.drv[i] += s * v.sends.Drive
			}
		}
		live = append(live, v)
	}
	e.voices = live

	e.bus.Process(e.dry[:n], e.rev[:n], e.del[:n], e.drv[:n], out)
	e.frame = blockEnd
}

func (e *Engine) ensureScratch(n int) {
	if len(e.dry) >= n {
		return
	}
	e.dry = make([]float32, n)
	e.rev = make([]float32, n)
	e.del = make([]float32, n)
	e.drv = make([]float32, n)
}

// Read renders audio as little-endian float32 interleaved stereo, so the
// engine plugs straight into a playback context as an io.Reader.
func (e *Engine) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	e.mu.Lock()
	if len(e.block) < frames*2 {
		e.block = make([]float32, frames*2)
	}
	buf := e.block[:frames*2]
	e.processLocked(buf)
	e.mu.Unlock()

	for i, s := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return frames * 8, nil
}
