package analysis

import (
	"math"
	"testing"
)

func TestCompareIdenticalSignalsHasLowDistance(t *testing.T) {
	sr := 44100
	x := makeDecaySine(sr, 55.0, 1.5, 0.4)
	m := Compare(x, x, sr)
	if m.Score > 0.05 {
		t.Fatalf("expected very low score for identical signals, got %f", m.Score)
	}
	if m.Similarity < 0.85 {
		t.Fatalf("expected high similarity for identical signals, got %f", m.Similarity)
	}
}

func TestCompareDifferentSignalsHasHigherDistance(t *testing.T) {
	sr := 44100
	a := makeDecaySine(sr, 50.0, 1.8, 0.6)
	b := makeDecaySine(sr, 330.0, 0.8, 0.05)
	m := Compare(a, b, sr)
	if m.Score < 0.2 {
		t.Fatalf("expected higher score for different signals, got %f", m.Score)
	}
}

func TestCompareIgnoresLeadingSilence(t *testing.T) {
	sr := 44100
	x := makeDecaySine(sr, 60.0, 1.0, 0.3)
	shifted := make([]float64, 1000+len(x))
	copy(shifted[1000:], x)

	m := Compare(x, shifted, sr)
	if m.Score > 0.05 {
		t.Fatalf("leading silence should not affect the score, got %f", m.Score)
	}
}

func TestCompareIgnoresLevelDifference(t *testing.T) {
	sr := 44100
	x := makeDecaySine(sr, 60.0, 1.0, 0.3)
	quiet := make([]float64, len(x))
	for i := range x {
		quiet[i] = x[i] * 0.05
	}

	m := Compare(x, quiet, sr)
	if m.Score > 0.05 {
		t.Fatalf("loudness should be normalized away, got score %f", m.Score)
	}
}

func TestCompareSilentOrEmptyInputScoresMax(t *testing.T) {
	sr := 44100
	x := makeDecaySine(sr, 60.0, 0.5, 0.3)

	if m := Compare(nil, x, sr); m.Score != 1.0 {
		t.Fatalf("empty reference: score = %f, want 1", m.Score)
	}
	if m := Compare(x, make([]float64, sr), sr); m.Score != 1.0 {
		t.Fatalf("silent candidate: score = %f, want 1", m.Score)
	}
	if m := Compare(x, x, 0); m.Score != 1.0 {
		t.Fatalf("zero sample rate: score = %f, want 1", m.Score)
	}
}

func TestCompareReportsDecaySlopes(t *testing.T) {
	sr := 44100
	fast := makeDecaySine(sr, 60.0, 1.2, 0.1)
	slow := makeDecaySine(sr, 60.0, 1.2, 0.6)
	m := Compare(slow, fast, sr)
	if !isFinite(m.RefDecayDBPerS) || !isFinite(m.CandDecayDBPerS) {
		t.Fatalf("expected finite decay slopes, got ref=%f cand=%f", m.RefDecayDBPerS, m.CandDecayDBPerS)
	}
	// A 0.1s time constant decays steeper than a 0.6s one.
	if m.CandDecayDBPerS >= m.RefDecayDBPerS {
		t.Fatalf("expected candidate to decay faster: ref=%f cand=%f", m.RefDecayDBPerS, m.CandDecayDBPerS)
	}
	if m.DecayDiffDBPerS <= 0 {
		t.Fatalf("expected non-zero decay difference, got %f", m.DecayDiffDBPerS)
	}
}

func makeDecaySine(sr int, freq float64, durationSec float64, decaySec float64) []float64 {
	n := int(float64(sr) * durationSec)
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sr)
		env := math.Exp(-t / decaySec)
		out[i] = env * math.Sin(2*math.Pi*freq*t)
	}
	return out
}
