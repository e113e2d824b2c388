// Package wavutil reads and writes the WAV files the module exchanges with
// the outside world: float32 renders, PCM16 exports, and user-supplied
// impulse responses.
package wavutil

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// WriteFloat32 writes interleaved samples as a 44-byte-header IEEE float
// WAV. The layout is fixed so identical input always produces an identical
// file: header then channels*frames*4 bytes of little-endian float32.
func WriteFloat32(w io.Writer, samples []float32, sampleRate, channels int) error {
	if channels < 1 {
		return fmt.Errorf("channels must be >= 1, got %d", channels)
	}
	if len(samples)%channels != 0 {
		return fmt.Errorf("sample count %d not divisible by %d channels", len(samples), channels)
	}

	dataSize := uint32(len(samples) * 4)
	blockAlign := uint16(channels * 4)
	byteRate := uint32(sampleRate) * uint32(blockAlign)

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 36+dataSize)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 3) // IEEE float
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], byteRate)
	binary.LittleEndian.PutUint16(hdr[32:34], blockAlign)
	binary.LittleEndian.PutUint16(hdr[34:36], 32)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], dataSize)

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	_, err := w.Write(buf)
	return err
}

// WriteFloat32File writes a float32 WAV to disk, creating parent directories.
func WriteFloat32File(path string, samples []float32, sampleRate, channels int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteFloat32(f, samples, sampleRate, channels)
}

// WritePCM16File writes interleaved samples as a 16-bit PCM WAV.
func WritePCM16File(path string, samples []float32, sampleRate, channels int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}

// ReadMono decodes a WAV file to mono float64, averaging channels.
func ReadMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		out[i] = sum / float64(ch)
	}
	return out, buf.Format.SampleRate, nil
}

// ReadMonoFloat32 decodes a WAV file to normalized mono float32 at the given
// rate, resampling when needed. Used for user-supplied impulse responses.
func ReadMonoFloat32(path string, wantRate int) ([]float32, error) {
	raw, rate, err := ReadMono(path)
	if err != nil {
		return nil, err
	}
	raw, err = ResampleIfNeeded(raw, rate, wantRate)
	if err != nil {
		return nil, err
	}
	peak := 0.0
	for _, v := range raw {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak < 1e-12 {
		return nil, fmt.Errorf("silent impulse response: %s", path)
	}
	s := 1.0 / peak
	out := make([]float32, len(raw))
	for i, v := range raw {
		out[i] = float32(v * s)
	}
	return out, nil
}

// ResampleIfNeeded converts between rates, passing through on a match.
func ResampleIfNeeded(in []float64, fromRate int, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return r.Process(in), nil
}

// StereoToMono64 folds interleaved stereo down to mono float64.
func StereoToMono64(st []float32) []float64 {
	if len(st) < 2 {
		return nil
	}
	n := len(st) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = 0.5 * (float64(st[i*2]) + float64(st[i*2+1]))
	}
	return out
}

// RMS returns the root mean square of a sample buffer.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
