package dsp

import "math"

// Biquad implements a second-order IIR filter (no heap allocations in Process)
type Biquad struct {
	// Coefficients
	b0, b1, b2 float32
	a1, a2     float32

	// State (previous samples)
	x1, x2 float32 // input history
	y1, y2 float32 // output history
}

// NewBiquad creates a new biquad filter with the given coefficients
func NewBiquad(b0, b1, b2, a1, a2 float32) *Biquad {
	return &Biquad{
		b0: b0,
		b1: b1,
		b2: b2,
		a1: a1,
		a2: a2,
	}
}

// Process processes one sample through the biquad filter
func (b *Biquad) Process(input float32) float32 {
	// Direct Form I implementation
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2

	// Update state
	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = FlushDenormals(output)

	return output
}

// Reset clears the filter state
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// SetLowpass updates the coefficients in place without clearing state,
// so cutoff can be modulated while the filter is running.
func (b *Biquad) SetLowpass(cutoff, sampleRate, q float32) {
	alpha, cosw0 := biquadPrewarp(cutoff, sampleRate, q)
	b0 := (1.0 - cosw0) / 2.0
	b1 := 1.0 - cosw0
	b2 := (1.0 - cosw0) / 2.0
	b.normalize(b0, b1, b2, alpha, cosw0)
}

// SetHighpass updates the coefficients in place for a highpass response.
func (b *Biquad) SetHighpass(cutoff, sampleRate, q float32) {
	alpha, cosw0 := biquadPrewarp(cutoff, sampleRate, q)
	b0 := (1.0 + cosw0) / 2.0
	b1 := -(1.0 + cosw0)
	b2 := (1.0 + cosw0) / 2.0
	b.normalize(b0, b1, b2, alpha, cosw0)
}

// SetBandpass updates the coefficients in place for a constant-peak bandpass.
func (b *Biquad) SetBandpass(center, sampleRate, q float32) {
	alpha, cosw0 := biquadPrewarp(center, sampleRate, q)
	b.normalize(alpha, 0, -alpha, alpha, cosw0)
}

// SetNotch updates the coefficients in place for a notch response.
func (b *Biquad) SetNotch(center, sampleRate, q float32) {
	alpha, cosw0 := biquadPrewarp(center, sampleRate, q)
	b.normalize(1.0, -2.0*cosw0, 1.0, alpha, cosw0)
}

func biquadPrewarp(freq, sampleRate, q float32) (alpha, cosw0 float64) {
	if freq < 5 {
		freq = 5
	}
	if freq > 0.49*sampleRate {
		freq = 0.49 * sampleRate
	}
	if q < 0.05 {
		q = 0.05
	}
	w0 := 2.0 * math.Pi * float64(freq) / float64(sampleRate)
	alpha = math.Sin(w0) / (2.0 * float64(q))
	cosw0 = math.Cos(w0)
	return
}

func (b *Biquad) normalize(b0, b1, b2, alpha, cosw0 float64) {
	a0 := 1.0 + alpha
	b.b0 = float32(b0 / a0)
	b.b1 = float32(b1 / a0)
	b.b2 = float32(b2 / a0)
	b.a1 = float32(-2.0 * cosw0 / a0)
	b.a2 = float32((1.0 - alpha) / a0)
}

// NewLowpass creates a simple lowpass biquad filter
func NewLowpass(cutoff, sampleRate, q float32) *Biquad {
	b := &Biquad{}
	b.SetLowpass(cutoff, sampleRate, q)
	return b
}

// NewHighpass creates a highpass biquad filter
func NewHighpass(cutoff, sampleRate, q float32) *Biquad {
	b := &Biquad{}
	b.SetHighpass(cutoff, sampleRate, q)
	return b
}

// NewBandpass creates a bandpass biquad filter centered at the given frequency
func NewBandpass(center, sampleRate, q float32) *Biquad {
	b := &Biquad{}
	b.SetBandpass(center, sampleRate, q)
	return b
}

// NewNotch creates a notch biquad filter centered at the given frequency
func NewNotch(center, sampleRate, q float32) *Biquad {
	b := &Biquad{}
	b.SetNotch(center, sampleRate, q)
	return b
}

// DelayLine implements a circular buffer for delay
type DelayLine struct {
	buffer   []float32
	writePos int
	size     int
}

// NewDelayLine creates a new delay line with the given size
func NewDelayLine(size int) *DelayLine {
	if size < 1 {
		size = 1
	}
	return &DelayLine{
		buffer: make([]float32, size),
		size:   size,
	}
}

// Size returns the delay line capacity in samples
func (d *DelayLine) Size() int {
	return d.size
}

// Write writes a sample to the delay line
func (d *DelayLine) Write(sample float32) {
	d.buffer[d.writePos] = FlushDenormals(sample)
	d.writePos = (d.writePos + 1) % d.size
}

// Read reads a sample from the delay line at the given delay (in samples)
func (d *DelayLine) Read(delay int) float32 {
	if delay < 0 {
		delay = 0
	}
	if delay >= d.size {
		delay = d.size - 1
	}
	readPos := (d.writePos - delay + d.size) % d.size
	return d.buffer[readPos]
}

// ReadFractional reads with fractional delay using linear interpolation
func (d *DelayLine) ReadFractional(delay float32) float32 {
	intDelay := int(delay)
	frac := delay - float32(intDelay)

	sample1 := d.Read(intDelay)
	sample2 := d.Read(intDelay + 1)

	// Linear interpolation
	return sample1 + frac*(sample2-sample1)
}

// Reset clears the delay line
func (d *DelayLine) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}

// FlushDenormals converts denormal numbers to zero to avoid performance issues
func FlushDenormals(x float32) float32 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0.0
	}
	return x
}

// SoftClip applies a tanh saturator, bounded to (-1,1) for any input.
func SoftClip(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}
