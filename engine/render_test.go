package engine

import (
	"math"
	"testing"
)

func TestRenderFrameCountIsExact(t *testing.T) {
	s := NewStore()
	s.SetStep(0, 0, true)
	opts := RenderOptions{SampleRate: 44100, Steps: 64, Seed: 1}
	out, err := Render(s, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// 64 sixteenths at 120 BPM span exactly 8 seconds.
	wantFrames := 8 * 44100
	if len(out) != wantFrames*2 {
		t.Fatalf("got %d samples, want %d", len(out), wantFrames*2)
	}
	for i, v := range out {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("non-finite sample at %d", i)
		}
		if v > 1 || v < -1 {
			t.Fatalf("sample %d out of bounds: %f", i, v)
		}
	}
}

func TestRenderFrameCountCoversStepSpanAtUnevenTempo(t *testing.T) {
	s := NewStore()
	s.SetTempo(31)
	out, err := Render(s, RenderOptions{SampleRate: 44100, Steps: 16, Seed: 1})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	stepDur := 60.0 / 31.0 / 4.0
	span := 16 * stepDur * 44100
	wantFrames := int(math.Ceil(span))
	if wantFrames == int(span) {
		t.Fatal("tempo does not land between frames, pick another")
	}
	if len(out) != wantFrames*2 {
		t.Fatalf("got %d samples, want %d (the last partial frame must round up)",
			len(out), wantFrames*2)
	}
}

func TestRenderAddsTail(t *testing.T) {
	s := NewStore()
	opts := RenderOptions{SampleRate: 44100, Steps: 16, TailSeconds: 0.5, Seed: 1}
	out, err := Render(s, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	wantFrames := int(2.5 * 44100)
	if len(out) != wantFrames*2 {
		t.Fatalf("got %d samples, want %d", len(out), wantFrames*2)
	}
}

func TestRenderIsDeterministicForSeed(t *testing.T) {
	build := func() *Store {
		s := NewStore()
		s.SetStep(0, 0, true)
		s.SetStep(1, 2, true)
		s.SetStep(7, 4, true)
		s.SetTrackSends(0, FXSends{Reverb: 0.5, Delay: 0.3})
		return s
	}
	opts := RenderOptions{SampleRate: 44100, Steps: 16, Seed: 7}

	a, err := Render(build(), opts)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	b, err := Render(build(), opts)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("renders diverge at sample %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestRenderDifferentSeedsDiverge(t *testing.T) {
	s := NewStore()
	s.SetStep(1, 0, true) // the hat is noise-driven
	a, err := Render(s, RenderOptions{SampleRate: 44100, Steps: 4, Seed: 1})
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	b, err := Render(s, RenderOptions{SampleRate: 44100, Steps: 4, Seed: 2})
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds rendered identical output")
	}
}

func TestRenderHonorsMuteAndSolo(t *testing.T) {
	s := NewStore()
	s.SetStep(0, 0, true)
	s.SetMute(0, true)
	out, err := Render(s, RenderOptions{SampleRate: 44100, Steps: 4, Seed: 1})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("muted render not silent at sample %d: %f", i, v)
		}
	}
}

func TestRenderRejectsBadOptions(t *testing.T) {
	s := NewStore()
	cases := []RenderOptions{
		{SampleRate: 44100, Steps: 0},
		{SampleRate: 0, Steps: 16},
		{SampleRate: 44100, Steps: 16, TailSeconds: -1},
	}
	for i, opts := range cases {
		if _, err := Render(s, opts); err == nil {
			t.Fatalf("case %d: expected error for %+v", i, opts)
		}
	}
}

func TestDefaultRenderOptions(t *testing.T) {
	opts := DefaultRenderOptions()
	if opts.SampleRate != 44100 || opts.Steps != 64 || opts.Seed != 1 {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}
