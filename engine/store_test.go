package engine

import "testing"

func TestSetStepActivationRestoresVelocity(t *testing.T) {
	s := NewStore()
	s.SetStepVelocity(0, 3, 0)
	s.SetStep(0, 3, true)
	tr, _ := s.TrackSnapshot(0)
	if !tr.Steps[3].Active {
		t.Fatal("step not activated")
	}
	if tr.Steps[3].Velocity != 1 {
		t.Fatalf("velocity = %f, want 1 after activating a silent step", tr.Steps[3].Velocity)
	}
}

func TestSetStepVelocityClamps(t *testing.T) {
	s := NewStore()
	s.SetStepVelocity(0, 0, 1.5)
	tr, _ := s.TrackSnapshot(0)
	if tr.Steps[0].Velocity != 1 {
		t.Fatalf("velocity = %f, want 1", tr.Steps[0].Velocity)
	}
	s.SetStepVelocity(0, 0, -0.5)
	tr, _ = s.TrackSnapshot(0)
	if tr.Steps[0].Velocity != 0 {
		t.Fatalf("velocity = %f, want 0", tr.Steps[0].Velocity)
	}
}

func TestSetTempoClamps(t *testing.T) {
	s := NewStore()
	s.SetTempo(10)
	if got := s.Tempo(); got != 30 {
		t.Fatalf("tempo = %f, want 30", got)
	}
	s.SetTempo(999)
	if got := s.Tempo(); got != 300 {
		t.Fatalf("tempo = %f, want 300", got)
	}
}

func TestSoloIsExclusiveAndOverridesMute(t *testing.T) {
	s := NewStore()
	s.SetMute(3, true)
	s.SetSolo(3)
	if got := s.Solo(); got != 3 {
		t.Fatalf("solo = %d, want 3", got)
	}
	if !s.Audible(3) {
		t.Fatal("soloed track should be audible despite its mute")
	}
	for id := 0; id < s.NumTracks(); id++ {
		if id != 3 && s.Audible(id) {
			t.Fatalf("track %d audible while another is soloed", id)
		}
	}

	// Moving the solo is exclusive.
	s.SetSolo(5)
	if !s.Audible(5) || s.Audible(3) {
		t.Fatal("solo did not move exclusively")
	}

	// Soloing the same track again clears it; the mute resurfaces.
	s.SetSolo(5)
	if got := s.Solo(); got != -1 {
		t.Fatalf("solo = %d, want -1", got)
	}
	if s.Audible(3) {
		t.Fatal("mute should apply again once solo cleared")
	}
	if !s.Audible(0) {
		t.Fatal("unmuted track should be audible with no solo")
	}

	// A negative ID clears any solo.
	s.SetSolo(2)
	s.SetSolo(-1)
	if got := s.Solo(); got != -1 {
		t.Fatalf("solo = %d, want -1", got)
	}
}

func TestClearLocksKeepsStepActivity(t *testing.T) {
	s := NewStore()
	s.SetStep(0, 2, true)
	s.SetStepNote(0, 2, "F2")
	s.SetStepVelocity(0, 2, 0.4)
	s.SetLock(0, 2, &ParameterLock{Volume: f32(0.5)})

	s.ClearLocks(0)

	tr, _ := s.TrackSnapshot(0)
	st := tr.Steps[2]
	if !st.Active {
		t.Fatal("clearing locks deactivated the step")
	}
	if st.Lock != nil || st.Note != "" || st.Velocity != 1 {
		t.Fatalf("step not reset: %+v", st)
	}
}

func TestSetPatternLengthClamps(t *testing.T) {
	s := NewStore()
	s.SetPatternLength(0, 0)
	tr, _ := s.TrackSnapshot(0)
	if tr.PatternLength != MinPatternLength {
		t.Fatalf("length = %d, want %d", tr.PatternLength, MinPatternLength)
	}
	s.SetPatternLength(0, 99)
	tr, _ = s.TrackSnapshot(0)
	if tr.PatternLength != MaxPatternLength {
		t.Fatalf("length = %d, want %d", tr.PatternLength, MaxPatternLength)
	}
}

func TestSetTrackParamsRejectsKindMismatch(t *testing.T) {
	s := NewStore()
	s.SetTrackParams(0, InstrumentParams{Hat: &HatParams{Decay: 9}})
	tr, _ := s.TrackSnapshot(0)
	if tr.Params.Kick == nil || tr.Params.Hat != nil {
		t.Fatalf("mismatched params replaced the variant: %+v", tr.Params)
	}
}

func TestTriggersForStepFoldsPatternLength(t *testing.T) {
	s := NewStore()
	// Track 1 loops every 12 steps with a hit on its first step.
	s.SetPatternLength(1, 12)
	s.SetStep(1, 0, true)
	// Track 0 runs the full 16 with a hit on step 12.
	s.SetStep(0, 12, true)

	ids := func(step int) map[int]bool {
		out := map[int]bool{}
		for _, trig := range s.TriggersForStep(step) {
			out[trig.TrackID] = true
		}
		return out
	}

	if got := ids(0); !got[1] || got[0] {
		t.Fatalf("step 0 triggers = %v, want track 1 only", got)
	}
	// Step 12 wraps to the short track's step 0 and hits the long track's
	// own step 12.
	if got := ids(12); !got[1] || !got[0] {
		t.Fatalf("step 12 triggers = %v, want tracks 0 and 1", got)
	}
	// Step 16 lands on the short track's step 4, not back on its step 0.
	if got := ids(16); len(got) != 0 {
		t.Fatalf("step 16 triggers = %v, want none", got)
	}
	if got := ids(24); !got[1] || got[0] {
		t.Fatalf("step 24 triggers = %v, want track 1 only", got)
	}
	if got := ids(28); got[1] || !got[0] {
		t.Fatalf("step 28 triggers = %v, want track 0 only", got)
	}
	if got := ids(6); len(got) != 0 {
		t.Fatalf("step 6 triggers = %v, want none", got)
	}
}

func TestShortPatternKeepsOwnPeriodAgainstGrid(t *testing.T) {
	s := NewStore()
	s.SetPatternLength(1, 12)
	s.SetStep(1, 0, true)
	s.SetStep(0, 0, true)

	// Drive two full cycles of the combined arrangement the way the
	// transport does, with the raw step counter.
	var short, long []int
	for step := 0; step < 96; step++ {
		for _, trig := range s.TriggersForStep(step) {
			switch trig.TrackID {
			case 0:
				long = append(long, step)
			case 1:
				short = append(short, step)
			}
		}
	}

	wantShort := []int{0, 12, 24, 36, 48, 60, 72, 84}
	wantLong := []int{0, 16, 32, 48, 64, 80}
	if !equalInts(short, wantShort) {
		t.Fatalf("length-12 track hit at %v, want %v", short, wantShort)
	}
	if !equalInts(long, wantLong) {
		t.Fatalf("length-16 track hit at %v, want %v", long, wantLong)
	}

	// The tracks coincide only every lcm(16,12) = 48 steps.
	both := map[int]bool{}
	for _, st := range short {
		both[st] = true
	}
	var together []int
	for _, st := range long {
		if both[st] {
			together = append(together, st)
		}
	}
	if !equalInts(together, []int{0, 48}) {
		t.Fatalf("tracks coincided at %v, want realignment at 0 and 48 only", together)
	}
}

func equalInts(got, want []int) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestTriggersForStepRespectsMuteAndSolo(t *testing.T) {
	s := NewStore()
	s.SetStep(0, 0, true)
	s.SetStep(1, 0, true)

	s.SetMute(0, true)
	trigs := s.TriggersForStep(0)
	if len(trigs) != 1 || trigs[0].TrackID != 1 {
		t.Fatalf("muted track still triggered: %+v", trigs)
	}

	s.SetSolo(0)
	trigs = s.TriggersForStep(0)
	if len(trigs) != 1 || trigs[0].TrackID != 0 {
		t.Fatalf("solo should override the mute: %+v", trigs)
	}
}

func TestTriggersForStepResolvesNotesAndLocks(t *testing.T) {
	s := NewStore()
	s.SetStep(0, 0, true)
	s.SetStep(0, 1, true)
	s.SetStepNote(0, 1, "C3")
	s.SetStepVelocity(0, 1, 0.5)
	s.SetLock(0, 1, &ParameterLock{Kick: &KickLock{Tune: f32(60)}})

	trigs := s.TriggersForStep(0)
	if len(trigs) != 1 {
		t.Fatalf("got %d triggers, want 1", len(trigs))
	}
	if trigs[0].Note != NoteToMIDI("C2") {
		t.Fatalf("default note = %d, want C2", trigs[0].Note)
	}

	trigs = s.TriggersForStep(1)
	if len(trigs) != 1 {
		t.Fatalf("got %d triggers, want 1", len(trigs))
	}
	if trigs[0].Note != NoteToMIDI("C3") {
		t.Fatalf("override note = %d, want C3", trigs[0].Note)
	}
	if trigs[0].Velocity != 0.5 {
		t.Fatalf("velocity = %f, want 0.5", trigs[0].Velocity)
	}
	if got := trigs[0].Params.Params.Kick.Tune; got != 60 {
		t.Fatalf("locked tune = %f, want 60", got)
	}
}
