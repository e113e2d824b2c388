package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anothermachines/fm8-r-2/engine"
)

func TestLoadJSONAppliesTempoFXAndTracks(t *testing.T) {
	path := writeKit(t, `{
  "bpm": 140,
  "fx": {
    "reverb": {"decay": 2.5, "mix": 0.6, "plate": true},
    "delay": {"sync_beats": 0.75, "feedback": 0.3},
    "comp": {"threshold_db": -18, "ratio": 6}
  },
  "tracks": {
    "0": {
      "volume": 0.7,
      "default_note": "D2",
      "sends": {"reverb": 0.4},
      "kick": {"tune": 52, "decay": 0.6, "punch": 0.9},
      "steps": [
        {"step": 0, "active": true},
        {"step": 4, "active": true, "note": "F2", "velocity": 0.5}
      ]
    },
    "1": {
      "pattern_length": 12,
      "hat": {"metal": 0.8}
    }
  }
}`)

	store := engine.NewStore()
	if err := LoadJSON(path, store); err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}

	if got := store.Tempo(); got != 140 {
		t.Fatalf("tempo = %f, want 140", got)
	}
	fx := store.GlobalFX()
	if fx.Reverb.Decay != 2.5 || fx.Reverb.Mix != 0.6 || !fx.Reverb.Plate {
		t.Fatalf("reverb not applied: %+v", fx.Reverb)
	}
	if fx.Delay.SyncBeats != 0.75 || fx.Delay.Feedback != 0.3 {
		t.Fatalf("delay not applied: %+v", fx.Delay)
	}
	if fx.Comp.ThresholdDB != -18 || fx.Comp.Ratio != 6 {
		t.Fatalf("comp not applied: %+v", fx.Comp)
	}
	// Untouched fields keep their defaults.
	if fx.Drive.Tone != engine.DefaultGlobalFX().Drive.Tone {
		t.Fatalf("drive tone changed unexpectedly: %f", fx.Drive.Tone)
	}

	kick, ok := store.TrackSnapshot(0)
	if !ok {
		t.Fatal("missing track 0")
	}
	if kick.Volume != 0.7 || kick.DefaultNote != "D2" || kick.Sends.Reverb != 0.4 {
		t.Fatalf("track 0 overrides not applied: vol=%f note=%q sends=%+v",
			kick.Volume, kick.DefaultNote, kick.Sends)
	}
	kp := kick.Params.Kick
	if kp == nil || kp.Tune != 52 || kp.Decay != 0.6 || kp.Punch != 0.9 {
		t.Fatalf("kick params not applied: %+v", kp)
	}
	if kp.Tone != 5000 {
		t.Fatalf("unset kick tone should keep default 5000, got %f", kp.Tone)
	}
	if !kick.Steps[0].Active || !kick.Steps[4].Active {
		t.Fatal("steps not activated")
	}
	if kick.Steps[4].Note != "F2" || kick.Steps[4].Velocity != 0.5 {
		t.Fatalf("step 4 overrides not applied: %+v", kick.Steps[4])
	}

	hat, _ := store.TrackSnapshot(1)
	if hat.PatternLength != 12 {
		t.Fatalf("pattern length = %d, want 12", hat.PatternLength)
	}
	if hat.Params.Hat == nil || hat.Params.Hat.Metal != 0.8 {
		t.Fatalf("hat params not applied: %+v", hat.Params.Hat)
	}
}

func TestLoadJSONBuildsStepLocks(t *testing.T) {
	path := writeKit(t, `{
  "tracks": {
    "0": {
      "steps": [
        {"step": 2, "active": true, "lock": {
          "volume": 0.5,
          "reverb": 0.9,
          "kick": {"tune": 60, "filter": {"cutoff": 400}}
        }}
      ]
    }
  }
}`)

	store := engine.NewStore()
	if err := LoadJSON(path, store); err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}

	track, _ := store.TrackSnapshot(0)
	lock := track.Steps[2].Lock
	if lock == nil {
		t.Fatal("missing lock on step 2")
	}
	if lock.Volume == nil || *lock.Volume != 0.5 {
		t.Fatalf("lock volume not set: %+v", lock.Volume)
	}
	if lock.Reverb == nil || *lock.Reverb != 0.9 {
		t.Fatalf("lock reverb not set: %+v", lock.Reverb)
	}
	if lock.Kick == nil || lock.Kick.Tune == nil || *lock.Kick.Tune != 60 {
		t.Fatalf("kick lock not built: %+v", lock.Kick)
	}
	// A partial filter setting inside a lock is completed from the base
	// record, since locks override sub-records whole.
	if lock.Kick.Filter == nil {
		t.Fatal("kick lock filter missing")
	}
	if lock.Kick.Filter.Cutoff != 400 {
		t.Fatalf("lock filter cutoff = %f, want 400", lock.Kick.Filter.Cutoff)
	}
	if lock.Kick.Filter.Q != 0.707 {
		t.Fatalf("lock filter Q should come from the base record, got %f", lock.Kick.Filter.Q)
	}
}

func TestLoadJSONRejectsKindMismatch(t *testing.T) {
	// Track 0 is a kick; hat settings on it must fail.
	path := writeKit(t, `{"tracks": {"0": {"hat": {"metal": 0.5}}}}`)
	store := engine.NewStore()
	if err := LoadJSON(path, store); err == nil {
		t.Fatal("expected error for hat settings on a kick track")
	}

	path = writeKit(t, `{"tracks": {"0": {"steps": [
	  {"step": 1, "lock": {"hat": {"metal": 0.5}}}
	]}}}`)
	store = engine.NewStore()
	if err := LoadJSON(path, store); err == nil {
		t.Fatal("expected error for hat lock on a kick track")
	}
}

func TestLoadJSONRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad track key", `{"tracks": {"x": {}}}`},
		{"track out of range", `{"tracks": {"42": {}}}`},
		{"bad bpm", `{"bpm": -10}`},
		{"pattern length out of range", `{"tracks": {"0": {"pattern_length": 20}}}`},
		{"step out of range", `{"tracks": {"0": {"steps": [{"step": 16, "active": true}]}}}`},
		{"malformed json", `{"bpm": `},
	}
	for _, tc := range cases {
		path := writeKit(t, tc.content)
		store := engine.NewStore()
		if err := LoadJSON(path, store); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func writeKit(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kit.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write kit: %v", err)
	}
	return path
}
