// Package irsynth generates the impulse responses the engine convolves with:
// a stereo room or plate reverb IR for the bus, and a short mono rumble IR
// for the kick's sub layer. All generators are deterministic for a given
// seed so offline renders stay reproducible.
package irsynth

import (
	"fmt"
	"math"
	"math/rand"

	pdefd "github.com/cwbudde/algo-pde/fd"
	pdepoisson "github.com/cwbudde/algo-pde/poisson"
)

// RoomConfig controls stereo room/reverb IR generation.
type RoomConfig struct {
	SampleRate  int
	DurationS   float64 // Typically 0.3-4.0s
	Seed        int64
	EarlyCount  int
	LateLevel   float64
	StereoWidth float64
	Brightness  float64
	LowDecayS   float64
	HighDecayS  float64
	FadeOutS    float64 // Cosine fade-out at the end; 0 = no fade

	NormalizePeak float64
}

// DefaultRoomConfig returns sensible defaults for room IR.
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		SampleRate:    44100,
		DurationS:     1.6,
		Seed:          1,
		EarlyCount:    24,
		LateLevel:     0.06,
		StereoWidth:   0.6,
		Brightness:    0.8,
		LowDecayS:     1.2,
		HighDecayS:    0.2,
		FadeOutS:      0.01,
		NormalizePeak: 0.9,
	}
}

func (c *RoomConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.EarlyCount < 0 {
		return fmt.Errorf("early count must be >= 0")
	}
	if c.LateLevel < 0 {
		return fmt.Errorf("late level must be >= 0")
	}
	if c.StereoWidth < 0 {
		return fmt.Errorf("stereo width must be >= 0")
	}
	if c.Brightness <= 0 {
		return fmt.Errorf("brightness must be > 0")
	}
	if c.LowDecayS <= 0 || c.HighDecayS <= 0 {
		return fmt.Errorf("decay seconds must be > 0")
	}
	if c.NormalizePeak <= 0 {
		return fmt.Errorf("normalize peak must be > 0")
	}
	return nil
}

// GenerateRoom synthesizes a stereo room IR (early reflections + diffuse tail).
func GenerateRoom(cfg RoomConfig) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	n := int(math.Round(cfg.DurationS * float64(cfg.SampleRate)))
	if n < 1 {
		n = 1
	}
	left := make([]float64, n)
	right := make([]float64, n)

	rng := rand.New(rand.NewSource(cfg.Seed))

	// Early reflections (stereo, 1-50ms range).
	for i := 0; i < cfg.EarlyCount; i++ {
		t := 0.001 + 0.049*rng.Float64()
		idx := int(t * float64(cfg.SampleRate))
		if idx <= 0 || idx >= n {
			continue
		}
		amp := (0.10 + 0.35*rng.Float64()) * math.Exp(-t*20.0)
		// Brightness rolloff: dampen high-frequency reflections via simple attenuation.
		amp *= math.Pow(0.5+0.5*rng.Float64(), 1.0/cfg.Brightness)
		pan := (rng.Float64()*2.0 - 1.0) * cfg.StereoWidth
		left[idx] += amp * (1.0 - 0.5*pan)
		right[idx] += amp * (1.0 + 0.5*pan)
	}

	// Diffuse late tail (stereo, frequency-dependent decay).
	if cfg.LateLevel > 0 {
		lpL, lpR := 0.0, 0.0
		hpL, hpR := 0.0, 0.0
		for i := 0; i < n; i++ {
			t := float64(i) / float64(cfg.SampleRate)
			lowEnv := math.Exp(-t / (0.75 * cfg.LowDecayS))
			highEnv := math.Exp(-t / (0.75 * cfg.HighDecayS))

			nL := rng.NormFloat64()
			nR := rng.NormFloat64()

			// Low-pass filtered noise.
			lpL = 0.985*lpL + 0.015*nL
			lpR = 0.985*lpR + 0.015*nR

			// High-pass filtered noise (for air/brightness).
			hpL = 0.15*nL - 0.15*hpL
			hpR = 0.15*nR - 0.15*hpR

			brightnessScale := 0.3 * (cfg.Brightness - 0.3)
			if brightnessScale < 0 {
				brightnessScale = 0
			}
			left[i] += cfg.LateLevel * (lowEnv*lpL + brightnessScale*highEnv*hpL)
			right[i] += cfg.LateLevel * (lowEnv*lpR + brightnessScale*highEnv*hpR)
		}
	}

	highpassDC(left, 0.995)
	highpassDC(right, 0.995)
	applyFadeOut(left, cfg.FadeOutS, cfg.SampleRate)
	applyFadeOut(right, cfg.FadeOutS, cfg.SampleRate)

	outL, outR := normalizeStereo(left, right, cfg.NormalizePeak)
	return outL, outR, nil
}

// PlateConfig controls stereo plate reverb IR generation. Mode frequencies
// come from the discrete Laplacian eigenspectrum of a square membrane: the
// eigenvalue sums lambda_m + lambda_n give the characteristic inharmonic
// plate spacing instead of hand-placed ratios.
type PlateConfig struct {
	SampleRate  int
	DurationS   float64
	Seed        int64
	GridSize    int     // eigenvalue grid resolution per axis
	Modes       int     // max modes to include
	BaseFreqHz  float64 // frequency of the lowest mode
	Brightness  float64
	StereoWidth float64
	LowDecayS   float64
	HighDecayS  float64
	FadeOutS    float64

	NormalizePeak float64
}

// DefaultPlateConfig returns sensible defaults for plate IR.
func DefaultPlateConfig() PlateConfig {
	return PlateConfig{
		SampleRate:    44100,
		DurationS:     2.0,
		Seed:          1,
		GridSize:      24,
		Modes:         96,
		BaseFreqHz:    90.0,
		Brightness:    1.0,
		StereoWidth:   0.7,
		LowDecayS:     1.8,
		HighDecayS:    0.4,
		FadeOutS:      0.01,
		NormalizePeak: 0.9,
	}
}

func (c *PlateConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.GridSize < 2 {
		return fmt.Errorf("grid size must be >= 2")
	}
	if c.Modes < 1 {
		return fmt.Errorf("modes must be >= 1")
	}
	if c.BaseFreqHz <= 0 {
		return fmt.Errorf("base frequency must be > 0")
	}
	if c.Brightness <= 0 {
		return fmt.Errorf("brightness must be > 0")
	}
	if c.StereoWidth < 0 {
		return fmt.Errorf("stereo width must be >= 0")
	}
	if c.LowDecayS <= 0 || c.HighDecayS <= 0 {
		return fmt.Errorf("decay seconds must be > 0")
	}
	if c.NormalizePeak <= 0 {
		return fmt.Errorf("normalize peak must be > 0")
	}
	return nil
}

// GeneratePlate synthesizes a stereo plate IR from membrane eigenmodes.
func GeneratePlate(cfg PlateConfig) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	n := int(math.Round(cfg.DurationS * float64(cfg.SampleRate)))
	if n < 1 {
		n = 1
	}
	left := make([]float64, n)
	right := make([]float64, n)

	rng := rand.New(rand.NewSource(cfg.Seed))

	h := 1.0 / float64(cfg.GridSize)
	lambda := pdefd.Eigenvalues(cfg.GridSize, h, pdepoisson.Dirichlet)
	if len(lambda) == 0 || lambda[0] <= 0 {
		return nil, nil, fmt.Errorf("degenerate eigenspectrum")
	}
	base := 2.0 * lambda[0]

	maxF := 0.47 * float64(cfg.SampleRate)
	brightnessExp := 0.7 + 0.9*cfg.Brightness

	count := 0
	for m := 0; m < len(lambda) && count < cfg.Modes; m++ {
		for k := m; k < len(lambda) && count < cfg.Modes; k++ {
			f := cfg.BaseFreqHz * (lambda[m] + lambda[k]) / base
			if f > maxF {
				break
			}
			amp := 0.9 / math.Pow(1.0+f/120.0, brightnessExp)
			amp *= 0.7 + 0.6*rng.Float64()

			tau := lerp(cfg.LowDecayS, cfg.HighDecayS, math.Sqrt(f/maxF))
			decay := math.Exp(-1.0 / (tau * float64(cfg.SampleRate)))

			pan := (rng.Float64()*2.0 - 1.0) * cfg.StereoWidth
			phi := rng.Float64() * 2.0 * math.Pi
			addModeRec(left, amp*(1.0-0.45*pan), f, phi, decay, cfg.SampleRate)
			addModeRec(right, amp*(1.0+0.45*pan), f, phi+0.01*pan, decay, cfg.SampleRate)
			count++
		}
	}

	highpassDC(left, 0.995)
	highpassDC(right, 0.995)
	applyFadeOut(left, cfg.FadeOutS, cfg.SampleRate)
	applyFadeOut(right, cfg.FadeOutS, cfg.SampleRate)

	outL, outR := normalizeStereo(left, right, cfg.NormalizePeak)
	return outL, outR, nil
}

// RumbleConfig controls the short mono low-frequency IR convolved under the
// kick body. Mode placement reuses the 1D Dirichlet eigenspectrum, which
// lands close to the resonances of a closed cavity.
type RumbleConfig struct {
	SampleRate int
	DurationS  float64 // Typically 0.2-1.0s
	Seed       int64
	GridSize   int
	Modes      int
	BaseFreqHz float64 // lowest cavity mode
	DecayS     float64
	FadeOutS   float64

	NormalizePeak float64
}

// DefaultRumbleConfig returns sensible defaults for rumble IR.
func DefaultRumbleConfig() RumbleConfig {
	return RumbleConfig{
		SampleRate:    44100,
		DurationS:     0.5,
		Seed:          1,
		GridSize:      32,
		Modes:         6,
		BaseFreqHz:    38.0,
		DecayS:        0.35,
		FadeOutS:      0.02,
		NormalizePeak: 0.9,
	}
}

func (c *RumbleConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.GridSize < 2 {
		return fmt.Errorf("grid size must be >= 2")
	}
	if c.Modes < 1 {
		return fmt.Errorf("modes must be >= 1")
	}
	if c.BaseFreqHz <= 0 {
		return fmt.Errorf("base frequency must be > 0")
	}
	if c.DecayS <= 0 {
		return fmt.Errorf("decay must be > 0")
	}
	if c.NormalizePeak <= 0 {
		return fmt.Errorf("normalize peak must be > 0")
	}
	return nil
}

// GenerateRumble synthesizes a short mono low-frequency IR.
func GenerateRumble(cfg RumbleConfig) ([]float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := int(math.Round(cfg.DurationS * float64(cfg.SampleRate)))
	if n < 1 {
		n = 1
	}
	buf := make([]float64, n)

	rng := rand.New(rand.NewSource(cfg.Seed))

	h := 1.0 / float64(cfg.GridSize)
	lambda := pdefd.Eigenvalues(cfg.GridSize, h, pdepoisson.Dirichlet)
	if len(lambda) == 0 || lambda[0] <= 0 {
		return nil, fmt.Errorf("degenerate eigenspectrum")
	}

	modes := cfg.Modes
	if modes > len(lambda) {
		modes = len(lambda)
	}
	for m := 0; m < modes; m++ {
		// Cavity resonances scale with sqrt of the Laplacian eigenvalue.
		f := cfg.BaseFreqHz * math.Sqrt(lambda[m]/lambda[0])
		if f > 0.47*float64(cfg.SampleRate) {
			break
		}
		amp := 1.0 / (1.0 + float64(m)*0.8)
		amp *= 0.8 + 0.4*rng.Float64()

		tau := cfg.DecayS / (1.0 + 0.5*float64(m))
		decay := math.Exp(-1.0 / (tau * float64(cfg.SampleRate)))

		phi := rng.Float64() * 2.0 * math.Pi
		addModeRec(buf, amp, f, phi, decay, cfg.SampleRate)
	}

	highpassDC(buf, 0.995)
	applyFadeOut(buf, cfg.FadeOutS, cfg.SampleRate)

	peak := maxAbs(buf)
	if peak < 1e-12 {
		peak = 1e-12
	}
	s := cfg.NormalizePeak / peak
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(buf[i] * s)
	}
	return out, nil
}

func addModeRec(out []float64, amp float64, freq float64, phase float64, decay float64, sampleRate int) {
	if len(out) == 0 {
		return
	}
	w := 2.0 * math.Pi * freq / float64(sampleRate)
	cw := math.Cos(w)
	x0 := math.Cos(phase)
	x1 := math.Cos(phase + w)
	env := 1.0

	out[0] += amp * env * x0
	env *= decay
	if len(out) == 1 {
		return
	}
	out[1] += amp * env * x1
	env *= decay
	for i := 2; i < len(out); i++ {
		x2 := 2.0*cw*x1 - x0
		x0 = x1
		x1 = x2
		out[i] += amp * env * x2
		env *= decay
	}
}

func highpassDC(x []float64, r float64) {
	if len(x) == 0 {
		return
	}
	prevIn := 0.0
	prevOut := 0.0
	for i := range x {
		y := x[i] - prevIn + r*prevOut
		prevIn = x[i]
		prevOut = y
		x[i] = y
	}
}

func maxAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		a := math.Abs(v)
		if a > m {
			m = a
		}
	}
	return m
}

func normalizeStereo(left, right []float64, peakTo float64) ([]float32, []float32) {
	peak := maxAbs(left)
	if rp := maxAbs(right); rp > peak {
		peak = rp
	}
	if peak < 1e-12 {
		peak = 1e-12
	}
	s := peakTo / peak
	outL := make([]float32, len(left))
	outR := make([]float32, len(right))
	for i := range left {
		outL[i] = float32(left[i] * s)
		outR[i] = float32(right[i] * s)
	}
	return outL, outR
}

// applyFadeOut applies a cosine fade-out to the last fadeS seconds of buf.
func applyFadeOut(buf []float64, fadeS float64, sampleRate int) {
	if fadeS <= 0 || len(buf) == 0 {
		return
	}
	fadeSamples := int(math.Round(fadeS * float64(sampleRate)))
	if fadeSamples > len(buf) {
		fadeSamples = len(buf)
	}
	start := len(buf) - fadeSamples
	for i := 0; i < fadeSamples; i++ {
		t := float64(i) / float64(fadeSamples) // 0..1
		gain := 0.5 * (1.0 + math.Cos(t*math.Pi))
		buf[start+i] *= gain
	}
}

func lerp(a, b, t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return a + (b-a)*t
}
