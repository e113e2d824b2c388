// Package preset loads kit files: JSON documents that partially override the
// default tracks, pattern, tempo, and effects. Absent fields keep their
// defaults; present fields are validated and applied through the store's
// command surface.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/anothermachines/fm8-r-2/dsp"
	"github.com/anothermachines/fm8-r-2/engine"
)

// File is the JSON schema for kit presets.
type File struct {
	BPM    *float64                `json:"bpm"`
	FX     *FXSetting              `json:"fx"`
	Tracks map[string]TrackSetting `json:"tracks"`
}

// FXSetting partially overrides the global effects configuration.
type FXSetting struct {
	Reverb *ReverbSetting `json:"reverb"`
	Delay  *DelaySetting  `json:"delay"`
	Drive  *DriveSetting  `json:"drive"`
	Comp   *CompSetting   `json:"comp"`
}

type ReverbSetting struct {
	Decay             *float32 `json:"decay"`
	Mix               *float32 `json:"mix"`
	PreDelay          *float32 `json:"predelay"`
	PreDelaySyncBeats *float32 `json:"predelay_sync_beats"`
	Plate             *bool    `json:"plate"`
}

type DelaySetting struct {
	Time      *float32 `json:"time"`
	SyncBeats *float32 `json:"sync_beats"`
	Feedback  *float32 `json:"feedback"`
	Mix       *float32 `json:"mix"`
}

type DriveSetting struct {
	Amount *float32 `json:"amount"`
	Tone   *float32 `json:"tone"`
	Mix    *float32 `json:"mix"`
}

type CompSetting struct {
	ThresholdDB *float32 `json:"threshold_db"`
	Ratio       *float32 `json:"ratio"`
	KneeDB      *float32 `json:"knee_db"`
	Attack      *float32 `json:"attack"`
	Release     *float32 `json:"release"`
	MakeupDB    *float32 `json:"makeup_db"`
}

// TrackSetting partially overrides one track. The kind-specific entry must
// match the track's fixed kind.
type TrackSetting struct {
	Volume        *float32      `json:"volume"`
	DefaultNote   *string       `json:"default_note"`
	PatternLength *int          `json:"pattern_length"`
	Sends         *SendsSetting `json:"sends"`

	Kick   *KickSetting   `json:"kick"`
	Hat    *HatSetting    `json:"hat"`
	Poly   *PolySetting   `json:"poly"`
	Bass   *BassSetting   `json:"bass"`
	Modal  *ModalSetting  `json:"modal"`
	Rift   *RiftSetting   `json:"rift"`
	Grain  *GrainSetting  `json:"grain"`
	Scream *ScreamSetting `json:"scream"`

	Steps []StepSetting `json:"steps"`
}

type SendsSetting struct {
	Reverb *float32 `json:"reverb"`
	Delay  *float32 `json:"delay"`
	Drive  *float32 `json:"drive"`
}

type FilterSetting struct {
	Type      *string  `json:"type"`
	Cutoff    *float32 `json:"cutoff"`
	Q         *float32 `json:"q"`
	EnvAmount *float32 `json:"env_amount"`
}

type LFOSetting struct {
	Wave  *string  `json:"wave"`
	Rate  *float32 `json:"rate"`
	Depth *float32 `json:"depth"`
	Dest  *string  `json:"dest"`
}

type EnvSetting struct {
	Attack  *float32 `json:"attack"`
	Decay   *float32 `json:"decay"`
	Sustain *float32 `json:"sustain"`
	Release *float32 `json:"release"`
}

type OscSetting struct {
	Wave   *string  `json:"wave"`
	Octave *int     `json:"octave"`
	Detune *float32 `json:"detune"`
}

type KickSetting struct {
	Tune           *float32       `json:"tune"`
	Decay          *float32       `json:"decay"`
	PitchEnvAmount *float32       `json:"pitch_env_amount"`
	Punch          *float32       `json:"punch"`
	Body           *float32       `json:"body"`
	Tone           *float32       `json:"tone"`
	NoiseLevel     *float32       `json:"noise_level"`
	Rumble         *float32       `json:"rumble"`
	Filter         *FilterSetting `json:"filter"`
	LFO1           *LFOSetting    `json:"lfo1"`
	LFO2           *LFOSetting    `json:"lfo2"`
}

type HatSetting struct {
	Decay  *float32       `json:"decay"`
	Metal  *float32       `json:"metal"`
	Tone   *float32       `json:"tone"`
	Filter *FilterSetting `json:"filter"`
	LFO1   *LFOSetting    `json:"lfo1"`
	LFO2   *LFOSetting    `json:"lfo2"`
}

type PolySetting struct {
	Osc1       *OscSetting    `json:"osc1"`
	Osc2       *OscSetting    `json:"osc2"`
	OscMix     *float32       `json:"osc_mix"`
	NoiseLevel *float32       `json:"noise_level"`
	Filter     *FilterSetting `json:"filter"`
	AmpEnv     *EnvSetting    `json:"amp_env"`
	FilterEnv  *EnvSetting    `json:"filter_env"`
	LFO1       *LFOSetting    `json:"lfo1"`
	LFO2       *LFOSetting    `json:"lfo2"`
}

type BassSetting struct {
	Wave   *string        `json:"wave"`
	Accent *float32       `json:"accent"`
	AmpEnv *EnvSetting    `json:"amp_env"`
	Filter *FilterSetting `json:"filter"`
	LFO1   *LFOSetting    `json:"lfo1"`
	LFO2   *LFOSetting    `json:"lfo2"`
}

type ModalSetting struct {
	Structure  *float32       `json:"structure"`
	Brightness *float32       `json:"brightness"`
	Damping    *float32       `json:"damping"`
	Decay      *float32       `json:"decay"`
	Filter     *FilterSetting `json:"filter"`
	LFO1       *LFOSetting    `json:"lfo1"`
	LFO2       *LFOSetting    `json:"lfo2"`
}

type RiftSetting struct {
	Fold     *float32       `json:"fold"`
	Drive    *float32       `json:"drive"`
	Feedback *float32       `json:"feedback"`
	Decay    *float32       `json:"decay"`
	Filter   *FilterSetting `json:"filter"`
	LFO1     *LFOSetting    `json:"lfo1"`
	LFO2     *LFOSetting    `json:"lfo2"`
}

type GrainSetting struct {
	Density   *float32       `json:"density"`
	Spread    *float32       `json:"spread"`
	GrainSize *float32       `json:"grain_size"`
	Decay     *float32       `json:"decay"`
	Filter    *FilterSetting `json:"filter"`
	LFO1      *LFOSetting    `json:"lfo1"`
	LFO2      *LFOSetting    `json:"lfo2"`
}

type ScreamSetting struct {
	Feedback *float32       `json:"feedback"`
	Damp     *float32       `json:"damp"`
	Decay    *float32       `json:"decay"`
	Filter   *FilterSetting `json:"filter"`
	LFO1     *LFOSetting    `json:"lfo1"`
	LFO2     *LFOSetting    `json:"lfo2"`
}

// StepSetting sets one step of a track's pattern.
type StepSetting struct {
	Step     int          `json:"step"`
	Active   *bool        `json:"active"`
	Note     *string      `json:"note"`
	Velocity *float32     `json:"velocity"`
	Lock     *LockSetting `json:"lock"`
}

// LockSetting builds a parameter lock. Sub-records inside a lock override
// whole, so partial filter/envelope/LFO settings here are completed from the
// track's base record before the lock is stored.
type LockSetting struct {
	Volume *float32 `json:"volume"`
	Reverb *float32 `json:"reverb"`
	Delay  *float32 `json:"delay"`
	Drive  *float32 `json:"drive"`

	Kick   *KickSetting   `json:"kick"`
	Hat    *HatSetting    `json:"hat"`
	Poly   *PolySetting   `json:"poly"`
	Bass   *BassSetting   `json:"bass"`
	Modal  *ModalSetting  `json:"modal"`
	Rift   *RiftSetting   `json:"rift"`
	Grain  *GrainSetting  `json:"grain"`
	Scream *ScreamSetting `json:"scream"`
}

// LoadJSON loads a kit file and applies it onto a store.
func LoadJSON(path string, store *engine.Store) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := Apply(store, &f); err != nil {
		return fmt.Errorf("apply %s: %w", path, err)
	}
	return nil
}

// Apply applies a parsed kit file onto a store.
func Apply(store *engine.Store, f *File) error {
	if store == nil {
		return fmt.Errorf("nil destination store")
	}
	if f == nil {
		return nil
	}

	if f.BPM != nil {
		if *f.BPM <= 0 {
			return fmt.Errorf("bpm must be > 0")
		}
		store.SetTempo(*f.BPM)
	}
	if f.FX != nil {
		fx := store.GlobalFX()
		applyFX(&fx, f.FX)
		store.SetGlobalFX(fx)
	}

	keys := make([]string, 0, len(f.Tracks))
	for k := range f.Tracks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		id, err := strconv.Atoi(k)
		if err != nil || id < 0 || id >= store.NumTracks() {
			return fmt.Errorf("invalid track key %q (expected 0..%d)", k, store.NumTracks()-1)
		}
		ts := f.Tracks[k]
		if err := applyTrack(store, id, &ts); err != nil {
			return fmt.Errorf("track %d: %w", id, err)
		}
	}
	return nil
}

func applyFX(fx *engine.GlobalFXParams, s *FXSetting) {
	if s.Reverb != nil {
		setf(&fx.Reverb.Decay, s.Reverb.Decay)
		setf(&fx.Reverb.Mix, s.Reverb.Mix)
		setf(&fx.Reverb.PreDelay, s.Reverb.PreDelay)
		setf(&fx.Reverb.PreDelaySyncBeats, s.Reverb.PreDelaySyncBeats)
		if s.Reverb.Plate != nil {
			fx.Reverb.Plate = *s.Reverb.Plate
		}
	}
	if s.Delay != nil {
		setf(&fx.Delay.Time, s.Delay.Time)
		setf(&fx.Delay.SyncBeats, s.Delay.SyncBeats)
		setf(&fx.Delay.Feedback, s.Delay.Feedback)
		setf(&fx.Delay.Mix, s.Delay.Mix)
	}
	if s.Drive != nil {
		setf(&fx.Drive.Amount, s.Drive.Amount)
		setf(&fx.Drive.Tone, s.Drive.Tone)
		setf(&fx.Drive.Mix, s.Drive.Mix)
	}
	if s.Comp != nil {
		setf(&fx.Comp.ThresholdDB, s.Comp.ThresholdDB)
		setf(&fx.Comp.Ratio, s.Comp.Ratio)
		setf(&fx.Comp.KneeDB, s.Comp.KneeDB)
		setf(&fx.Comp.Attack, s.Comp.Attack)
		setf(&fx.Comp.Release, s.Comp.Release)
		setf(&fx.Comp.MakeupDB, s.Comp.MakeupDB)
	}
}

func applyTrack(store *engine.Store, id int, ts *TrackSetting) error {
	base, ok := store.TrackSnapshot(id)
	if !ok {
		return fmt.Errorf("no such track")
	}

	if ts.Volume != nil {
		store.SetTrackVolume(id, *ts.Volume)
	}
	if ts.DefaultNote != nil {
		store.SetDefaultNote(id, *ts.DefaultNote)
	}
	if ts.PatternLength != nil {
		if *ts.PatternLength < engine.MinPatternLength || *ts.PatternLength > engine.MaxPatternLength {
			return fmt.Errorf("pattern_length %d out of range", *ts.PatternLength)
		}
		store.SetPatternLength(id, *ts.PatternLength)
	}
	if ts.Sends != nil {
		sends := base.Sends
		setf(&sends.Reverb, ts.Sends.Reverb)
		setf(&sends.Delay, ts.Sends.Delay)
		setf(&sends.Drive, ts.Sends.Drive)
		store.SetTrackSends(id, sends)
	}

	params := base.Params
	if err := applyKindSettings(&params, ts, base.Kind); err != nil {
		return err
	}
	store.SetTrackParams(id, params)

	for _, ss := range ts.Steps {
		if ss.Step < 0 || ss.Step >= engine.PatternSteps {
			return fmt.Errorf("step %d out of range", ss.Step)
		}
		if ss.Active != nil {
			store.SetStep(id, ss.Step, *ss.Active)
		}
		if ss.Note != nil {
			store.SetStepNote(id, ss.Step, *ss.Note)
		}
		if ss.Velocity != nil {
			store.SetStepVelocity(id, ss.Step, *ss.Velocity)
		}
		if ss.Lock != nil {
			lock, err := buildLock(&params, ss.Lock, base.Kind)
			if err != nil {
				return fmt.Errorf("step %d lock: %w", ss.Step, err)
			}
			store.SetLock(id, ss.Step, lock)
		}
	}
	return nil
}

func applyKindSettings(p *engine.InstrumentParams, ts *TrackSetting, kind engine.Kind) error {
	present := func(want engine.Kind, got bool) error {
		if got && want != kind {
			return fmt.Errorf("%s settings on a %s track", want, kind)
		}
		return nil
	}
	for _, check := range []struct {
		want engine.Kind
		got  bool
	}{
		{engine.KindKick, ts.Kick != nil},
		{engine.KindHat, ts.Hat != nil},
		{engine.KindPoly, ts.Poly != nil},
		{engine.KindBass, ts.Bass != nil},
		{engine.KindModal, ts.Modal != nil},
		{engine.KindRift, ts.Rift != nil},
		{engine.KindGrain, ts.Grain != nil},
		{engine.KindScream, ts.Scream != nil},
	} {
		if err := present(check.want, check.got); err != nil {
			return err
		}
	}

	switch kind {
	case engine.KindKick:
		if ts.Kick != nil {
			applyKick(p.Kick, ts.Kick)
		}
	case engine.KindHat:
		if ts.Hat != nil {
			applyHat(p.Hat, ts.Hat)
		}
	case engine.KindPoly:
		if ts.Poly != nil {
			applyPoly(p.Poly, ts.Poly)
		}
	case engine.KindBass:
		if ts.Bass != nil {
			applyBass(p.Bass, ts.Bass)
		}
	case engine.KindModal:
		if ts.Modal != nil {
			applyModal(p.Modal, ts.Modal)
		}
	case engine.KindRift:
		if ts.Rift != nil {
			applyRift(p.Rift, ts.Rift)
		}
	case engine.KindGrain:
		if ts.Grain != nil {
			applyGrain(p.Grain, ts.Grain)
		}
	case engine.KindScream:
		if ts.Scream != nil {
			applyScream(p.Scream, ts.Scream)
		}
	}
	return nil
}

func setf(dst, src *float32) {
	if src != nil {
		*dst = *src
	}
}

func applyFilter(dst *engine.FilterParams, s *FilterSetting) {
	if s == nil {
		return
	}
	if s.Type != nil {
		switch *s.Type {
		case "highpass":
			dst.Type = engine.FilterHighpass
		case "bandpass":
			dst.Type = engine.FilterBandpass
		case "notch":
			dst.Type = engine.FilterNotch
		default:
			dst.Type = engine.FilterLowpass
		}
	}
	setf(&dst.Cutoff, s.Cutoff)
	setf(&dst.Q, s.Q)
	setf(&dst.EnvAmount, s.EnvAmount)
}

func applyLFO(dst *engine.LFOParams, s *LFOSetting) {
	if s == nil {
		return
	}
	if s.Wave != nil {
		dst.Wave = dsp.ParseWaveform(*s.Wave)
	}
	setf(&dst.Rate, s.Rate)
	setf(&dst.Depth, s.Depth)
	if s.Dest != nil {
		dst.Dest = engine.ParseLFODest(*s.Dest)
	}
}

func applyEnv(dst *engine.EnvelopeParams, s *EnvSetting) {
	if s == nil {
		return
	}
	setf(&dst.Attack, s.Attack)
	setf(&dst.Decay, s.Decay)
	setf(&dst.Sustain, s.Sustain)
	setf(&dst.Release, s.Release)
}

func applyOsc(dst *engine.OscParams, s *OscSetting) {
	if s == nil {
		return
	}
	if s.Wave != nil {
		dst.Wave = dsp.ParseWaveform(*s.Wave)
	}
	if s.Octave != nil {
		dst.Octave = *s.Octave
	}
	setf(&dst.Detune, s.Detune)
}

func applyKick(p *engine.KickParams, s *KickSetting) {
	setf(&p.Tune, s.Tune)
	setf(&p.Decay, s.Decay)
	setf(&p.PitchEnvAmount, s.PitchEnvAmount)
	setf(&p.Punch, s.Punch)
	setf(&p.Body, s.Body)
	setf(&p.Tone, s.Tone)
	setf(&p.NoiseLevel, s.NoiseLevel)
	setf(&p.Rumble, s.Rumble)
	applyFilter(&p.Filter, s.Filter)
	applyLFO(&p.LFO1, s.LFO1)
	applyLFO(&p.LFO2, s.LFO2)
}

func applyHat(p *engine.HatParams, s *HatSetting) {
	setf(&p.Decay, s.Decay)
	setf(&p.Metal, s.Metal)
	setf(&p.Tone, s.Tone)
	applyFilter(&p.Filter, s.Filter)
	applyLFO(&p.LFO1, s.LFO1)
	applyLFO(&p.LFO2, s.LFO2)
}

func applyPoly(p *engine.PolyParams, s *PolySetting) {
	applyOsc(&p.Osc1, s.Osc1)
	applyOsc(&p.Osc2, s.Osc2)
	setf(&p.OscMix, s.OscMix)
	setf(&p.NoiseLevel, s.NoiseLevel)
	applyFilter(&p.Filter, s.Filter)
	applyEnv(&p.AmpEnv, s.AmpEnv)
	applyEnv(&p.FilterEnv, s.FilterEnv)
	applyLFO(&p.LFO1, s.LFO1)
	applyLFO(&p.LFO2, s.LFO2)
}

func applyBass(p *engine.BassParams, s *BassSetting) {
	if s.Wave != nil {
		p.Wave = dsp.ParseWaveform(*s.Wave)
	}
	setf(&p.Accent, s.Accent)
	applyEnv(&p.AmpEnv, s.AmpEnv)
	applyFilter(&p.Filter, s.Filter)
	applyLFO(&p.LFO1, s.LFO1)
	applyLFO(&p.LFO2, s.LFO2)
}

func applyModal(p *engine.ModalParams, s *ModalSetting) {
	setf(&p.Structure, s.Structure)
	setf(&p.Brightness, s.Brightness)
	setf(&p.Damping, s.Damping)
	setf(&p.Decay, s.Decay)
	applyFilter(&p.Filter, s.Filter)
	applyLFO(&p.LFO1, s.LFO1)
	applyLFO(&p.LFO2, s.LFO2)
}

func applyRift(p *engine.RiftParams, s *RiftSetting) {
	setf(&p.Fold, s.Fold)
	setf(&p.Drive, s.Drive)
	setf(&p.Feedback, s.Feedback)
	setf(&p.Decay, s.Decay)
	applyFilter(&p.Filter, s.Filter)
	applyLFO(&p.LFO1, s.LFO1)
	applyLFO(&p.LFO2, s.LFO2)
}

func applyGrain(p *engine.GrainParams, s *GrainSetting) {
	setf(&p.Density, s.Density)
	setf(&p.Spread, s.Spread)
	setf(&p.GrainSize, s.GrainSize)
	setf(&p.Decay, s.Decay)
	applyFilter(&p.Filter, s.Filter)
	applyLFO(&p.LFO1, s.LFO1)
	applyLFO(&p.LFO2, s.LFO2)
}

func applyScream(p *engine.ScreamParams, s *ScreamSetting) {
	setf(&p.Feedback, s.Feedback)
	setf(&p.Damp, s.Damp)
	setf(&p.Decay, s.Decay)
	applyFilter(&p.Filter, s.Filter)
	applyLFO(&p.LFO1, s.LFO1)
	applyLFO(&p.LFO2, s.LFO2)
}
