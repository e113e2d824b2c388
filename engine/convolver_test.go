package engine

import (
	"math"
	"testing"
)

func TestStreamConvolverMatchesDirectConvolution(t *testing.T) {
	ir := []float32{1, 0.5, 0.25, -0.125}
	const partSize = 8
	conv, err := newStreamConvolver(ir, partSize)
	if err != nil {
		t.Fatalf("newStreamConvolver: %v", err)
	}

	in := []float32{1, 0, -0.5, 0.25, 0, 0, 0.75, 0, 0, 0, 0, 0}
	n := len(in) + partSize + len(ir)
	got := make([]float32, 0, n)
	for i := 0; i < n; i++ {
		x := float32(0)
		if i < len(in) {
			x = in[i]
		}
		got = append(got, conv.process(x))
	}

	// The wet signal trails by exactly one partition.
	want := directConvolve(in, ir)
	for i, w := range want {
		g := got[i+partSize]
		if d := math.Abs(float64(g - w)); d > 1e-4 {
			t.Fatalf("sample %d: got %f, want %f", i, g, w)
		}
	}
	// Nothing leaks before the latency boundary on a leading impulse.
	for i := 0; i < partSize; i++ {
		if got[i] != 0 {
			t.Fatalf("pre-latency sample %d non-zero: %f", i, got[i])
		}
	}
}

func TestStreamConvolverReset(t *testing.T) {
	ir := []float32{1, -0.5}
	conv, err := newStreamConvolver(ir, 4)
	if err != nil {
		t.Fatalf("newStreamConvolver: %v", err)
	}
	run := func() []float32 {
		out := make([]float32, 16)
		for i := range out {
			x := float32(0)
			if i == 0 {
				x = 1
			}
			out[i] = conv.process(x)
		}
		return out
	}
	first := run()
	conv.reset()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("reset did not restore state, sample %d: %f vs %f", i, first[i], second[i])
		}
	}
}

func TestStreamConvolverRejectsEmptyIR(t *testing.T) {
	if _, err := newStreamConvolver(nil, 8); err == nil {
		t.Fatal("expected error for empty impulse response")
	}
}

func directConvolve(x, h []float32) []float32 {
	out := make([]float32, len(x)+len(h)-1)
	for i := range x {
		for j := range h {
			out[i+j] += x[i] * h[j]
		}
	}
	return out
}
