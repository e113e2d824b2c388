package irsynth

import (
	"math"
	"testing"
)

func TestGenerateRoomBasic(t *testing.T) {
	cfg := DefaultRoomConfig()
	cfg.SampleRate = 48000
	cfg.DurationS = 0.5
	cfg.Seed = 42
	cfg.NormalizePeak = 0.8

	l, r, err := GenerateRoom(cfg)
	if err != nil {
		t.Fatalf("GenerateRoom: %v", err)
	}
	if len(l) != int(0.5*48000) || len(r) != len(l) {
		t.Fatalf("unexpected output lengths: L=%d R=%d", len(l), len(r))
	}
	checkStereoFiniteAndPeak(t, l, r, 0.81)
}

func TestGenerateRoomDeterministicForSeed(t *testing.T) {
	cfg := DefaultRoomConfig()
	cfg.SampleRate = 32000
	cfg.DurationS = 0.2
	cfg.Seed = 99

	l1, r1, err := GenerateRoom(cfg)
	if err != nil {
		t.Fatalf("first GenerateRoom: %v", err)
	}
	l2, r2, err := GenerateRoom(cfg)
	if err != nil {
		t.Fatalf("second GenerateRoom: %v", err)
	}
	if len(l1) != len(l2) || len(r1) != len(r2) {
		t.Fatalf("length mismatch")
	}
	for i := range l1 {
		if l1[i] != l2[i] || r1[i] != r2[i] {
			t.Fatalf("non-deterministic output at index %d", i)
		}
	}
}

func TestGeneratePlateBasic(t *testing.T) {
	cfg := DefaultPlateConfig()
	cfg.SampleRate = 48000
	cfg.DurationS = 0.4
	cfg.Seed = 7

	l, r, err := GeneratePlate(cfg)
	if err != nil {
		t.Fatalf("GeneratePlate: %v", err)
	}
	if len(l) != int(0.4*48000) || len(r) != len(l) {
		t.Fatalf("unexpected output lengths: L=%d R=%d", len(l), len(r))
	}
	checkStereoFiniteAndPeak(t, l, r, cfg.NormalizePeak+0.01)
}

func TestGeneratePlateDiffersFromRoom(t *testing.T) {
	room := DefaultRoomConfig()
	room.DurationS = 0.3
	plate := DefaultPlateConfig()
	plate.DurationS = 0.3

	rl, _, err := GenerateRoom(room)
	if err != nil {
		t.Fatalf("GenerateRoom: %v", err)
	}
	pl, _, err := GeneratePlate(plate)
	if err != nil {
		t.Fatalf("GeneratePlate: %v", err)
	}
	if len(rl) != len(pl) {
		t.Fatalf("length mismatch: room=%d plate=%d", len(rl), len(pl))
	}
	same := true
	for i := range rl {
		if rl[i] != pl[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("room and plate generators produced identical output")
	}
}

func TestGenerateRumbleBasic(t *testing.T) {
	cfg := DefaultRumbleConfig()
	cfg.SampleRate = 44100
	cfg.DurationS = 0.25
	cfg.Seed = 3

	buf, err := GenerateRumble(cfg)
	if err != nil {
		t.Fatalf("GenerateRumble: %v", err)
	}
	if len(buf) != int(0.25*44100) {
		t.Fatalf("unexpected output length: %d", len(buf))
	}

	maxAbs := 0.0
	energy := 0.0
	for i, v := range buf {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("non-finite sample at %d", i)
		}
		if a := math.Abs(f); a > maxAbs {
			maxAbs = a
		}
		energy += f * f
	}
	if energy <= 1e-8 {
		t.Fatal("expected non-zero energy")
	}
	if maxAbs > cfg.NormalizePeak+0.01 {
		t.Fatalf("unexpected normalization peak: %.6f", maxAbs)
	}
}

func TestGenerateRumbleDeterministicForSeed(t *testing.T) {
	cfg := DefaultRumbleConfig()
	cfg.DurationS = 0.1
	cfg.Seed = 17

	a, err := GenerateRumble(cfg)
	if err != nil {
		t.Fatalf("first GenerateRumble: %v", err)
	}
	b, err := GenerateRumble(cfg)
	if err != nil {
		t.Fatalf("second GenerateRumble: %v", err)
	}
	if len(a) != len(b) {
		t.Fatal("length mismatch")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic output at index %d", i)
		}
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	room := DefaultRoomConfig()
	room.DurationS = 0
	if err := room.Validate(); err == nil {
		t.Fatal("expected error for zero room duration")
	}

	plate := DefaultPlateConfig()
	plate.GridSize = 1
	if err := plate.Validate(); err == nil {
		t.Fatal("expected error for degenerate plate grid")
	}
	plate = DefaultPlateConfig()
	plate.BaseFreqHz = -5
	if err := plate.Validate(); err == nil {
		t.Fatal("expected error for negative plate base frequency")
	}

	rumble := DefaultRumbleConfig()
	rumble.DecayS = 0
	if err := rumble.Validate(); err == nil {
		t.Fatal("expected error for zero rumble decay")
	}

	ok := DefaultPlateConfig()
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error for default plate config: %v", err)
	}
}

func checkStereoFiniteAndPeak(t *testing.T, l, r []float32, maxPeak float64) {
	t.Helper()
	maxAbs := 0.0
	energy := 0.0
	for i := range l {
		lf, rf := float64(l[i]), float64(r[i])
		if math.IsNaN(lf) || math.IsInf(lf, 0) || math.IsNaN(rf) || math.IsInf(rf, 0) {
			t.Fatalf("non-finite sample at %d", i)
		}
		if a := math.Abs(lf); a > maxAbs {
			maxAbs = a
		}
		if a := math.Abs(rf); a > maxAbs {
			maxAbs = a
		}
		energy += lf*lf + rf*rf
	}
	if energy <= 1e-8 {
		t.Fatal("expected non-zero energy")
	}
	if maxAbs > maxPeak {
		t.Fatalf("unexpected normalization peak: %.6f", maxAbs)
	}
}
