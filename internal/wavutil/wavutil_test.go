package wavutil

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"
)

func TestWriteFloat32HeaderLayout(t *testing.T) {
	samples := []float32{0.5, -0.5, 0.25, -0.25}
	var buf bytes.Buffer
	if err := WriteFloat32(&buf, samples, 44100, 2); err != nil {
		t.Fatalf("WriteFloat32: %v", err)
	}
	b := buf.Bytes()
	if len(b) != 44+len(samples)*4 {
		t.Fatalf("file size = %d, want %d", len(b), 44+len(samples)*4)
	}

	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatalf("bad container tags: %q %q", b[0:4], b[8:12])
	}
	if got := binary.LittleEndian.Uint32(b[4:8]); got != uint32(36+len(samples)*4) {
		t.Fatalf("riff size = %d, want %d", got, 36+len(samples)*4)
	}
	if string(b[12:16]) != "fmt " || binary.LittleEndian.Uint32(b[16:20]) != 16 {
		t.Fatal("bad fmt chunk header")
	}
	if got := binary.LittleEndian.Uint16(b[20:22]); got != 3 {
		t.Fatalf("format code = %d, want 3 (IEEE float)", got)
	}
	if got := binary.LittleEndian.Uint16(b[22:24]); got != 2 {
		t.Fatalf("channels = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(b[24:28]); got != 44100 {
		t.Fatalf("sample rate = %d, want 44100", got)
	}
	if got := binary.LittleEndian.Uint32(b[28:32]); got != 44100*8 {
		t.Fatalf("byte rate = %d, want %d", got, 44100*8)
	}
	if got := binary.LittleEndian.Uint16(b[32:34]); got != 8 {
		t.Fatalf("block align = %d, want 8", got)
	}
	if got := binary.LittleEndian.Uint16(b[34:36]); got != 32 {
		t.Fatalf("bit depth = %d, want 32", got)
	}
	if string(b[36:40]) != "data" {
		t.Fatal("missing data chunk")
	}
	if got := binary.LittleEndian.Uint32(b[40:44]); got != uint32(len(samples)*4) {
		t.Fatalf("data size = %d, want %d", got, len(samples)*4)
	}
	for i, want := range samples {
		bits := binary.LittleEndian.Uint32(b[44+i*4:])
		if got := math.Float32frombits(bits); got != want {
			t.Fatalf("sample %d = %f, want %f", i, got, want)
		}
	}
}

func TestWriteFloat32RejectsBadShape(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFloat32(&buf, []float32{1, 2, 3}, 44100, 2); err == nil {
		t.Fatal("expected error for odd sample count on stereo")
	}
	if err := WriteFloat32(&buf, []float32{1}, 44100, 0); err == nil {
		t.Fatal("expected error for zero channels")
	}
}

func TestPCM16RoundTrip(t *testing.T) {
	sr := 44100
	frames := 4096
	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = 0.25 * float32(math.Sin(2*math.Pi*220*float64(i)/float64(sr)))
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := WritePCM16File(path, samples, sr, 1); err != nil {
		t.Fatalf("WritePCM16File: %v", err)
	}

	got, rate, err := ReadMono(path)
	if err != nil {
		t.Fatalf("ReadMono: %v", err)
	}
	if rate != sr {
		t.Fatalf("rate = %d, want %d", rate, sr)
	}
	if len(got) != frames {
		t.Fatalf("frames = %d, want %d", len(got), frames)
	}

	want32 := make([]float32, frames)
	for i, v := range got {
		want32[i] = float32(v)
	}
	in, out := RMS(samples), RMS(want32)
	if math.Abs(in-out)/in > 0.05 {
		t.Fatalf("round-trip RMS drifted: wrote %f, read %f", in, out)
	}
}

func TestReadMonoFloat32NormalizesPeak(t *testing.T) {
	sr := 44100
	samples := make([]float32, 2048)
	for i := range samples {
		samples[i] = 0.3 * float32(math.Sin(2*math.Pi*100*float64(i)/float64(sr)))
	}
	path := filepath.Join(t.TempDir(), "ir.wav")
	if err := WritePCM16File(path, samples, sr, 1); err != nil {
		t.Fatalf("WritePCM16File: %v", err)
	}

	ir, err := ReadMonoFloat32(path, sr)
	if err != nil {
		t.Fatalf("ReadMonoFloat32: %v", err)
	}
	peak := 0.0
	for _, v := range ir {
		if a := math.Abs(float64(v)); a > peak {
			peak = a
		}
	}
	if peak < 0.99 || peak > 1.01 {
		t.Fatalf("peak = %f, want ~1 after normalization", peak)
	}
}

func TestReadMonoFloat32RejectsSilence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	if err := WritePCM16File(path, make([]float32, 1024), 44100, 1); err != nil {
		t.Fatalf("WritePCM16File: %v", err)
	}
	if _, err := ReadMonoFloat32(path, 44100); err == nil {
		t.Fatal("expected error for a silent impulse response")
	}
}

func TestResampleIfNeededPassthroughAndConvert(t *testing.T) {
	in := []float64{0, 0.5, 1, 0.5, 0, -0.5, -1, -0.5}
	same, err := ResampleIfNeeded(in, 44100, 44100)
	if err != nil {
		t.Fatalf("passthrough: %v", err)
	}
	if &same[0] != &in[0] {
		t.Fatal("matching rates should pass the buffer through")
	}

	long := make([]float64, 4096)
	for i := range long {
		long[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 48000)
	}
	out, err := ResampleIfNeeded(long, 48000, 24000)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("resampler returned no output")
	}
	ratio := float64(len(out)) / float64(len(long))
	if ratio < 0.4 || ratio > 0.6 {
		t.Fatalf("length ratio = %f, want ~0.5", ratio)
	}
}

func TestStereoToMono64(t *testing.T) {
	out := StereoToMono64([]float32{1, 0, 0, 1, -1, -1})
	want := []float64{0.5, 0.5, -1}
	if len(out) != len(want) {
		t.Fatalf("len = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("frame %d = %f, want %f", i, out[i], want[i])
		}
	}
	if got := StereoToMono64([]float32{1}); got != nil {
		t.Fatalf("undersized input should yield nil, got %v", got)
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Fatalf("RMS(nil) = %f, want 0", got)
	}
	buf := make([]float32, 100)
	for i := range buf {
		buf[i] = 0.5
	}
	if got := RMS(buf); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("RMS = %f, want 0.5", got)
	}
}
