package dsp

import "math"

// Waveform selects the oscillator shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSaw
	WaveSquare
)

// ParseWaveform maps a preset string to a waveform, defaulting to sine.
func ParseWaveform(name string) Waveform {
	switch name {
	case "triangle":
		return WaveTriangle
	case "saw":
		return WaveSaw
	case "square":
		return WaveSquare
	default:
		return WaveSine
	}
}

// String returns the preset name of the waveform.
func (w Waveform) String() string {
	switch w {
	case WaveTriangle:
		return "triangle"
	case WaveSaw:
		return "saw"
	case WaveSquare:
		return "square"
	default:
		return "sine"
	}
}

// Oscillator is a phase-accumulating single-cycle oscillator.
type Oscillator struct {
	wave       Waveform
	sampleRate float32
	phase      float64
	inc        float64
}

// NewOscillator creates an oscillator at the given frequency.
func NewOscillator(wave Waveform, freq float32, sampleRate int) *Oscillator {
	o := &Oscillator{
		wave:       wave,
		sampleRate: float32(sampleRate),
	}
	o.SetFreq(freq)
	return o
}

// SetFreq retunes the oscillator without resetting phase, so pitch can be
// modulated while running.
func (o *Oscillator) SetFreq(freq float32) {
	if freq < 0 {
		freq = 0
	}
	if freq > 0.49*o.sampleRate {
		freq = 0.49 * o.sampleRate
	}
	o.inc = float64(freq) / float64(o.sampleRate)
}

// Process advances the oscillator one sample and returns its output in [-1,1].
func (o *Oscillator) Process() float32 {
	s := Shape(o.wave, o.phase)
	o.phase += o.inc
	if o.phase >= 1.0 {
		o.phase -= 1.0
	}
	return s
}

// Shape evaluates a waveform at a normalized phase in [0,1).
func Shape(w Waveform, phase float64) float32 {
	switch w {
	case WaveTriangle:
		if phase < 0.5 {
			return float32(4.0*phase - 1.0)
		}
		return float32(3.0 - 4.0*phase)
	case WaveSaw:
		return float32(2.0*phase - 1.0)
	case WaveSquare:
		if phase < 0.5 {
			return 1.0
		}
		return -1.0
	default:
		return float32(math.Sin(2.0 * math.Pi * phase))
	}
}

// Noise is a deterministic white noise source (xorshift64*). Seeded noise keeps
// offline renders bit-reproducible for identical inputs.
type Noise struct {
	state uint64
}

// NewNoise creates a noise source from a seed. A zero seed is remapped since
// xorshift has a zero fixed point.
func NewNoise(seed uint64) *Noise {
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return &Noise{state: seed}
}

// Process returns the next noise sample in [-1,1).
func (n *Noise) Process() float32 {
	x := n.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	n.state = x
	v := x * 0x2545f4914f6cdd1d
	return float32(int32(uint32(v>>32)))/float32(1<<31) // top 32 bits, signed scale
}
