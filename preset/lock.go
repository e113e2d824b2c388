package preset

import (
	"fmt"

	"github.com/anothermachines/fm8-r-2/dsp"
	"github.com/anothermachines/fm8-r-2/engine"
)

// buildLock converts a lock setting into an engine parameter lock. Leaf
// pointers pass through; sub-record settings are completed from the track's
// base record, since locks override sub-records whole.
func buildLock(params *engine.InstrumentParams, s *LockSetting, kind engine.Kind) (*engine.ParameterLock, error) {
	lock := &engine.ParameterLock{
		Volume: s.Volume,
		Reverb: s.Reverb,
		Delay:  s.Delay,
		Drive:  s.Drive,
	}

	kindOf := func(want engine.Kind, got bool) error {
		if got && want != kind {
			return fmt.Errorf("%s lock on a %s track", want, kind)
		}
		return nil
	}
	for _, check := range []struct {
		want engine.Kind
		got  bool
	}{
		{engine.KindKick, s.Kick != nil},
		{engine.KindHat, s.Hat != nil},
		{engine.KindPoly, s.Poly != nil},
		{engine.KindBass, s.Bass != nil},
		{engine.KindModal, s.Modal != nil},
		{engine.KindRift, s.Rift != nil},
		{engine.KindGrain, s.Grain != nil},
		{engine.KindScream, s.Scream != nil},
	} {
		if err := kindOf(check.want, check.got); err != nil {
			return nil, err
		}
	}

	switch {
	case s.Kick != nil && params.Kick != nil:
		lock.Kick = &engine.KickLock{
			Tune:           s.Kick.Tune,
			Decay:          s.Kick.Decay,
			PitchEnvAmount: s.Kick.PitchEnvAmount,
			Punch:          s.Kick.Punch,
			Body:           s.Kick.Body,
			Tone:           s.Kick.Tone,
			NoiseLevel:     s.Kick.NoiseLevel,
			Rumble:         s.Kick.Rumble,
			Filter:         completeFilter(params.Kick.Filter, s.Kick.Filter),
			LFO1:           completeLFO(params.Kick.LFO1, s.Kick.LFO1),
			LFO2:           completeLFO(params.Kick.LFO2, s.Kick.LFO2),
		}
	case s.Hat != nil && params.Hat != nil:
		lock.Hat = &engine.HatLock{
			Decay:  s.Hat.Decay,
			Metal:  s.Hat.Metal,
			Tone:   s.Hat.Tone,
			Filter: completeFilter(params.Hat.Filter, s.Hat.Filter),
			LFO1:   completeLFO(params.Hat.LFO1, s.Hat.LFO1),
			LFO2:   completeLFO(params.Hat.LFO2, s.Hat.LFO2),
		}
	case s.Poly != nil && params.Poly != nil:
		lock.Poly = &engine.PolyLock{
			Osc1:       completeOsc(params.Poly.Osc1, s.Poly.Osc1),
			Osc2:       completeOsc(params.Poly.Osc2, s.Poly.Osc2),
			OscMix:     s.Poly.OscMix,
			NoiseLevel: s.Poly.NoiseLevel,
			Filter:     completeFilter(params.Poly.Filter, s.Poly.Filter),
			AmpEnv:     completeEnv(params.Poly.AmpEnv, s.Poly.AmpEnv),
			FilterEnv:  completeEnv(params.Poly.FilterEnv, s.Poly.FilterEnv),
			LFO1:       completeLFO(params.Poly.LFO1, s.Poly.LFO1),
			LFO2:       completeLFO(params.Poly.LFO2, s.Poly.LFO2),
		}
	case s.Bass != nil && params.Bass != nil:
		var wave *dsp.Waveform
		if s.Bass.Wave != nil {
			w := dsp.ParseWaveform(*s.Bass.Wave)
			wave = &w
		}
		lock.Bass = &engine.BassLock{
			Wave:   wave,
			Accent: s.Bass.Accent,
			AmpEnv: completeEnv(params.Bass.AmpEnv, s.Bass.AmpEnv),
			Filter: completeFilter(params.Bass.Filter, s.Bass.Filter),
			LFO1:   completeLFO(params.Bass.LFO1, s.Bass.LFO1),
			LFO2:   completeLFO(params.Bass.LFO2, s.Bass.LFO2),
		}
	case s.Modal != nil && params.Modal != nil:
		lock.Modal = &engine.ModalLock{
			Structure:  s.Modal.Structure,
			Brightness: s.Modal.Brightness,
			Damping:    s.Modal.Damping,
			Decay:      s.Modal.Decay,
			Filter:     completeFilter(params.Modal.Filter, s.Modal.Filter),
			LFO1:       completeLFO(params.Modal.LFO1, s.Modal.LFO1),
			LFO2:       completeLFO(params.Modal.LFO2, s.Modal.LFO2),
		}
	case s.Rift != nil && params.Rift != nil:
		lock.Rift = &engine.RiftLock{
			Fold:     s.Rift.Fold,
			Drive:    s.Rift.Drive,
			Feedback: s.Rift.Feedback,
			Decay:    s.Rift.Decay,
			Filter:   completeFilter(params.Rift.Filter, s.Rift.Filter),
			LFO1:     completeLFO(params.Rift.LFO1, s.Rift.LFO1),
			LFO2:     completeLFO(params.Rift.LFO2, s.Rift.LFO2),
		}
	case s.Grain != nil && params.Grain != nil:
		lock.Grain = &engine.GrainLock{
			Density:   s.Grain.Density,
			Spread:    s.Grain.Spread,
			GrainSize: s.Grain.GrainSize,
			Decay:     s.Grain.Decay,
			Filter:    completeFilter(params.Grain.Filter, s.Grain.Filter),
			LFO1:      completeLFO(params.Grain.LFO1, s.Grain.LFO1),
			LFO2:      completeLFO(params.Grain.LFO2, s.Grain.LFO2),
		}
	case s.Scream != nil && params.Scream != nil:
		lock.Scream = &engine.ScreamLock{
			Feedback: s.Scream.Feedback,
			Damp:     s.Scream.Damp,
			Decay:    s.Scream.Decay,
			Filter:   completeFilter(params.Scream.Filter, s.Scream.Filter),
			LFO1:     completeLFO(params.Scream.LFO1, s.Scream.LFO1),
			LFO2:     completeLFO(params.Scream.LFO2, s.Scream.LFO2),
		}
	}
	return lock, nil
}

func completeFilter(base engine.FilterParams, s *FilterSetting) *engine.FilterParams {
	if s == nil {
		return nil
	}
	rec := base
	applyFilter(&rec, s)
	return &rec
}

func completeLFO(base engine.LFOParams, s *LFOSetting) *engine.LFOParams {
	if s == nil {
		return nil
	}
	rec := base
	applyLFO(&rec, s)
	return &rec
}

func completeEnv(base engine.EnvelopeParams, s *EnvSetting) *engine.EnvelopeParams {
	if s == nil {
		return nil
	}
	rec := base
	applyEnv(&rec, s)
	return &rec
}

func completeOsc(base engine.OscParams, s *OscSetting) *engine.OscParams {
	if s == nil {
		return nil
	}
	rec := base
	applyOsc(&rec, s)
	return &rec
}
