package engine

// ResolvedParams is the read-only merge of a track's base configuration with
// one step's lock. It never aliases the track: mutating the track after
// resolution does not affect an already-triggered voice.
type ResolvedParams struct {
	Kind   Kind
	Params InstrumentParams
	Volume float32
	Sends  FXSends
}

// Resolve merges a track's base parameter set with an optional step lock.
// The merge is one level deep: a locked leaf wins, an unspecified leaf falls
// back to the base value. Sub-records override whole. A lock overlay for a
// different kind than the track's is inert.
func Resolve(track *Track, lock *ParameterLock) ResolvedParams {
	r := ResolvedParams{
		Kind:   track.Kind,
		Params: track.Params.clone(),
		Volume: clamp01(track.Volume),
		Sends: FXSends{
			Reverb: clamp01(track.Sends.Reverb),
			Delay:  clamp01(track.Sends.Delay),
			Drive:  clamp01(track.Sends.Drive),
		},
	}
	if lock != nil {
		if lock.Volume != nil {
			r.Volume = clamp01(*lock.Volume)
		}
		if lock.Reverb != nil {
			r.Sends.Reverb = clamp01(*lock.Reverb)
		}
		if lock.Delay != nil {
			r.Sends.Delay = clamp01(*lock.Delay)
		}
		if lock.Drive != nil {
			r.Sends.Drive = clamp01(*lock.Drive)
		}

		switch track.Kind {
		case KindKick:
			applyKickLock(r.Params.Kick, lock.Kick)
		case KindHat:
			applyHatLock(r.Params.Hat, lock.Hat)
		case KindPoly:
			applyPolyLock(r.Params.Poly, lock.Poly)
		case KindBass:
			applyBassLock(r.Params.Bass, lock.Bass)
		case KindModal:
			applyModalLock(r.Params.Modal, lock.Modal)
		case KindRift:
			applyRiftLock(r.Params.Rift, lock.Rift)
		case KindGrain:
			applyGrainLock(r.Params.Grain, lock.Grain)
		case KindScream:
			applyScreamLock(r.Params.Scream, lock.Scream)
		}
	}

	if r.Params.Poly != nil {
		var pl *PolyLock
		if lock != nil {
			pl = lock.Poly
		}
		resolvePolyFilterEnvDepth(r.Params.Poly, pl)
	}
	return r
}

// resolvePolyFilterEnvDepth fixes up the Poly filter envelope depth. A locked
// filter record carries its own depth; without one the depth falls back to a
// defaults rule keyed on the filter envelope attack. The track's stored depth
// is deliberately not consulted, matching long-standing behavior.
func resolvePolyFilterEnvDepth(p *PolyParams, l *PolyLock) {
	if l != nil && l.Filter != nil {
		return
	}
	if p.FilterEnv.Attack > 0 {
		p.Filter.EnvAmount = 3000
	} else {
		p.Filter.EnvAmount = 0
	}
}

func setf(dst *float32, src *float32) {
	if src != nil {
		*dst = *src
	}
}

func applyKickLock(p *KickParams, l *KickLock) {
	if p == nil || l == nil {
		return
	}
	setf(&p.Tune, l.Tune)
	setf(&p.Decay, l.Decay)
	setf(&p.PitchEnvAmount, l.PitchEnvAmount)
	setf(&p.Punch, l.Punch)
	setf(&p.Body, l.Body)
	setf(&p.Tone, l.Tone)
	setf(&p.NoiseLevel, l.NoiseLevel)
	setf(&p.Rumble, l.Rumble)
	if l.Filter != nil {
		p.Filter = *l.Filter
	}
	if l.LFO1 != nil {
		p.LFO1 = *l.LFO1
	}
	if l.LFO2 != nil {
		p.LFO2 = *l.LFO2
	}
}

func applyHatLock(p *HatParams, l *HatLock) {
	if p == nil || l == nil {
		return
	}
	setf(&p.Decay, l.Decay)
	setf(&p.Metal, l.Metal)
	setf(&p.Tone, l.Tone)
	if l.Filter != nil {
		p.Filter = *l.Filter
	}
	if l.LFO1 != nil {
		p.LFO1 = *l.LFO1
	}
	if l.LFO2 != nil {
		p.LFO2 = *l.LFO2
	}
}

func applyPolyLock(p *PolyParams, l *PolyLock) {
	if p == nil || l == nil {
		return
	}
	if l.Osc1 != nil {
		p.Osc1 = *l.Osc1
	}
	if l.Osc2 != nil {
		p.Osc2 = *l.Osc2
	}
	setf(&p.OscMix, l.OscMix)
	setf(&p.NoiseLevel, l.NoiseLevel)
	if l.Filter != nil {
		p.Filter = *l.Filter
	}
	if l.AmpEnv != nil {
		p.AmpEnv = *l.AmpEnv
	}
	if l.FilterEnv != nil {
		p.FilterEnv = *l.FilterEnv
	}
	if l.LFO1 != nil {
		p.LFO1 = *l.LFO1
	}
	if l.LFO2 != nil {
		p.LFO2 = *l.LFO2
	}
}

func applyBassLock(p *BassParams, l *BassLock) {
	if p == nil || l == nil {
		return
	}
	if l.Wave != nil {
		p.Wave = *l.Wave
	}
	setf(&p.Accent, l.Accent)
	if l.AmpEnv != nil {
		p.AmpEnv = *l.AmpEnv
	}
	if l.Filter != nil {
		p.Filter = *l.Filter
	}
	if l.LFO1 != nil {
		p.LFO1 = *l.LFO1
	}
	if l.LFO2 != nil {
		p.LFO2 = *l.LFO2
	}
}

func applyModalLock(p *ModalParams, l *ModalLock) {
	if p == nil || l == nil {
		return
	}
	setf(&p.Structure, l.Structure)
	setf(&p.Brightness, l.Brightness)
	setf(&p.Damping, l.Damping)
	setf(&p.Decay, l.Decay)
	if l.Filter != nil {
		p.Filter = *l.Filter
	}
	if l.LFO1 != nil {
		p.LFO1 = *l.LFO1
	}
	if l.LFO2 != nil {
		p.LFO2 = *l.LFO2
	}
}

func applyRiftLock(p *RiftParams, l *RiftLock) {
	if p == nil || l == nil {
		return
	}
	setf(&p.Fold, l.Fold)
	setf(&p.Drive, l.Drive)
	setf(&p.Feedback, l.Feedback)
	setf(&p.Decay, l.Decay)
	if l.Filter != nil {
		p.Filter = *l.Filter
	}
	if l.LFO1 != nil {
		p.LFO1 = *l.LFO1
	}
	if l.LFO2 != nil {
		p.LFO2 = *l.LFO2
	}
}

func applyGrainLock(p *GrainParams, l *GrainLock) {
	if p == nil || l == nil {
		return
	}
	setf(&p.Density, l.Density)
	setf(&p.Spread, l.Spread)
	setf(&p.GrainSize, l.GrainSize)
	setf(&p.Decay, l.Decay)
	if l.Filter != nil {
		p.Filter = *l.Filter
	}
	if l.LFO1 != nil {
		p.LFO1 = *l.LFO1
	}
	if l.LFO2 != nil {
		p.LFO2 = *l.LFO2
	}
}

func applyScreamLock(p *ScreamParams, l *ScreamLock) {
	if p == nil || l == nil {
		return
	}
	setf(&p.Feedback, l.Feedback)
	setf(&p.Damp, l.Damp)
	setf(&p.Decay, l.Decay)
	if l.Filter != nil {
		p.Filter = *l.Filter
	}
	if l.LFO1 != nil {
		p.LFO1 = *l.LFO1
	}
	if l.LFO2 != nil {
		p.LFO2 = *l.LFO2
	}
}
