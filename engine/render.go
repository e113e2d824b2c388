package engine

import (
	"fmt"
	"math"
)

// RenderOptions controls an offline render.
type RenderOptions struct {
	SampleRate  int
	Steps       int     // total step boundaries to sequence
	TailSeconds float64 // extra silence rendered after the last step
	Seed        uint64  // noise seed; equal seeds render identical output
}

// DefaultRenderOptions renders four bars of sixteenths with no tail.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		SampleRate: 44100,
		Steps:      64,
		Seed:       1,
	}
}

// Render sequences a store's pattern offline and returns interleaved stereo
// float32. The engine is built fresh, every trigger is placed up front, and
// the frame count is derived exactly from the step count, so two renders of
// the same store and options match sample for sample.
func Render(s *Store, opts RenderOptions) ([]float32, error) {
	if opts.Steps <= 0 {
		return nil, fmt.Errorf("render steps must be > 0, got %d", opts.Steps)
	}
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("render sample rate must be > 0, got %d", opts.SampleRate)
	}
	if opts.TailSeconds < 0 {
		return nil, fmt.Errorf("render tail must be >= 0, got %g", opts.TailSeconds)
	}

	bpm := s.Tempo()
	stepDur := 60.0 / bpm / 4.0
	duration := float64(opts.Steps)*stepDur + opts.TailSeconds
	frames := int(math.Ceil(duration * float64(opts.SampleRate)))
	if frames <= 0 {
		return nil, fmt.Errorf("render duration too short: %g s", duration)
	}

	eng := NewEngine(opts.SampleRate, bpm, s.GlobalFX())
	eng.SetSeed(opts.Seed)

	for step := 0; step < opts.Steps; step++ {
		when := float64(step) * stepDur
		for _, trig := range s.TriggersForStep(step) {
			eng.Trigger(trig.TrackID, trig.Params, trig.Note, trig.Velocity, when, stepDur)
		}
	}

	out := make([]float32, frames*2)
	const blockFrames = 4096
	for off := 0; off < frames; off += blockFrames {
		n := blockFrames
		if frames-off < n {
			n = frames - off
		}
		eng.Process(out[off*2 : (off+n)*2])
	}
	return out, nil
}
