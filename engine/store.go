package engine

import "sync"

// Store is the mutable sequencer state: eight tracks, mute and solo flags,
// tempo, and the global effects configuration. Commands clamp their inputs
// instead of erroring; indices out of range are ignored. All methods are safe
// for concurrent use, so an interactive surface and the scheduler can share
// one store.
type Store struct {
	mu     sync.RWMutex
	tracks []*Track
	muted  []bool
	solo   int // track ID, -1 = none
	bpm    float64
	fx     GlobalFXParams
}

// NewStore creates a store with the default kit, 120 BPM, no mutes, no solo.
func NewStore() *Store {
	tracks := DefaultTracks()
	return &Store{
		tracks: tracks,
		muted:  make([]bool, len(tracks)),
		solo:   -1,
		bpm:    120,
		fx:     DefaultGlobalFX(),
	}
}

// NumTracks reports the fixed track count.
func (s *Store) NumTracks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// Tempo reports the current tempo in BPM.
func (s *Store) Tempo() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bpm
}

// SetTempo sets the tempo, clamped to a playable range.
func (s *Store) SetTempo(bpm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bpm < 30 {
		bpm = 30
	}
	if bpm > 300 {
		bpm = 300
	}
	s.bpm = bpm
}

// GlobalFX returns the current effects configuration.
func (s *Store) GlobalFX() GlobalFXParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fx
}

// SetGlobalFX replaces the effects configuration.
func (s *Store) SetGlobalFX(fx GlobalFXParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fx = fx
}

func (s *Store) track(id int) *Track {
	if id < 0 || id >= len(s.tracks) {
		return nil
	}
	return s.tracks[id]
}

// SetStep activates or deactivates one step. Activating a step with no
// velocity gives it full velocity.
func (s *Store) SetStep(trackID, step int, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.track(trackID)
	if t == nil || step < 0 || step >= PatternSteps {
		return
	}
	t.Steps[step].Active = active
	if active && t.Steps[step].Velocity == 0 {
		t.Steps[step].Velocity = 1
	}
}

// SetStepNote overrides one step's note name. Empty reverts to the track
// default.
func (s *Store) SetStepNote(trackID, step int, note string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.track(trackID)
	if t == nil || step < 0 || step >= PatternSteps {
		return
	}
	t.Steps[step].Note = note
}

// SetStepVelocity sets one step's velocity, clamped to [0,1].
func (s *Store) SetStepVelocity(trackID, step int, velocity float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.track(trackID)
	if t == nil || step < 0 || step >= PatternSteps {
		return
	}
	t.Steps[step].Velocity = clamp01(velocity)
}

// SetLock attaches a parameter lock to one step, replacing any existing one.
// A nil lock removes it.
func (s *Store) SetLock(trackID, step int, lock *ParameterLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.track(trackID)
	if t == nil || step < 0 || step >= PatternSteps {
		return
	}
	t.Steps[step].Lock = lock
}

// ClearLocks removes every lock on a track and resets step notes and
// velocities to their defaults. Step activity is untouched.
func (s *Store) ClearLocks(trackID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.track(trackID)
	if t == nil {
		return
	}
	for i := range t.Steps {
		t.Steps[i].Lock = nil
		t.Steps[i].Note = ""
		t.Steps[i].Velocity = 1
	}
}

// SetPatternLength sets a track's loop length, clamped to the grid.
func (s *Store) SetPatternLength(trackID, length int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.track(trackID)
	if t == nil {
		return
	}
	if length < MinPatternLength {
		length = MinPatternLength
	}
	if length > MaxPatternLength {
		length = MaxPatternLength
	}
	t.PatternLength = length
}

// SetMute mutes or unmutes a track.
func (s *Store) SetMute(trackID int, muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if trackID < 0 || trackID >= len(s.muted) {
		return
	}
	s.muted[trackID] = muted
}

// SetSolo solos one track exclusively; soloing again on the same track or a
// negative ID clears the solo. Solo overrides mutes while active.
func (s *Store) SetSolo(trackID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if trackID < 0 || trackID >= len(s.tracks) || trackID == s.solo {
		s.solo = -1
		return
	}
	s.solo = trackID
}

// Solo reports the soloed track ID, -1 when none.
func (s *Store) Solo() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.solo
}

// Audible reports whether a track sounds under the current mute/solo state.
func (s *Store) Audible(trackID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.audibleLocked(trackID)
}

func (s *Store) audibleLocked(trackID int) bool {
	if trackID < 0 || trackID >= len(s.tracks) {
		return false
	}
	if s.solo >= 0 {
		return trackID == s.solo
	}
	return !s.muted[trackID]
}

// SetTrackVolume sets a track's level, clamped to [0,1].
func (s *Store) SetTrackVolume(trackID int, volume float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.track(trackID); t != nil {
		t.Volume = clamp01(volume)
	}
}

// SetTrackSends sets a track's effect send fractions, clamped to [0,1].
func (s *Store) SetTrackSends(trackID int, sends FXSends) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.track(trackID); t != nil {
		t.Sends = FXSends{
			Reverb: clamp01(sends.Reverb),
			Delay:  clamp01(sends.Delay),
			Drive:  clamp01(sends.Drive),
		}
	}
}

// SetDefaultNote sets the note a track plays when a step has no override.
func (s *Store) SetDefaultNote(trackID int, note string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.track(trackID); t != nil {
		t.DefaultNote = note
	}
}

// SetTrackParams replaces a track's parameter set. The variant must match
// the track's kind; a mismatched set is ignored.
func (s *Store) SetTrackParams(trackID int, params InstrumentParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.track(trackID)
	if t == nil || params.Kind() != t.Kind {
		return
	}
	t.Params = params.clone()
}

// TrackSnapshot returns a deep copy of one track.
func (s *Store) TrackSnapshot(trackID int) (Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.track(trackID)
	if t == nil {
		return Track{}, false
	}
	out := *t
	out.Params = t.Params.clone()
	return out, true
}

// StepTrigger is one note the sequencer owes the engine at a step boundary.
type StepTrigger struct {
	TrackID  int
	Params   ResolvedParams
	Note     int
	Velocity float32
}

// TriggersForStep resolves every audible active step at an absolute step
// count. Each track wraps the running count into its own loop length, so a
// shorter track keeps its own period against the 16-step grid and the whole
// arrangement only repeats at the lowest common multiple of the lengths.
func (s *Store) TriggersForStep(step int) []StepTrigger {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []StepTrigger
	for _, t := range s.tracks {
		if !s.audibleLocked(t.ID) {
			continue
		}
		length := t.PatternLength
		if length < MinPatternLength || length > MaxPatternLength {
			length = PatternSteps
		}
		st := t.Steps[step%length]
		if !st.Active {
			continue
		}
		note := t.DefaultNote
		if st.Note != "" {
			note = st.Note
		}
		out = append(out, StepTrigger{
			TrackID:  t.ID,
			Params:   Resolve(t, st.Lock),
			Note:     NoteToMIDI(note),
			Velocity: clamp01(st.Velocity),
		})
	}
	return out
}
