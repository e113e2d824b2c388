package engine

import (
	"fmt"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
)

// streamConvolver adapts the partitioned overlap-add engine to a per-sample
// call pattern. Input samples are collected into one partition; a full
// partition is convolved in one pass and read back sample by sample, so the
// wet signal trails the input by exactly one partition.
type streamConvolver struct {
	ola      *dspconv.StreamingOverlapAddT[float32, complex64]
	in       []float32
	out      []float32
	pos      int
	partSize int
}

func newStreamConvolver(ir []float32, partSize int) (*streamConvolver, error) {
	if len(ir) == 0 {
		return nil, fmt.Errorf("empty impulse response")
	}
	ola, err := dspconv.NewStreamingOverlapAdd32(ir, partSize)
	if err != nil {
		return nil, fmt.Errorf("overlap-add setup: %w", err)
	}
	return &streamConvolver{
		ola:      ola,
		in:       make([]float32, partSize),
		out:      make([]float32, partSize),
		partSize: partSize,
	}, nil
}

// process pushes one dry sample and returns the wet sample one partition
// earlier in the stream.
func (c *streamConvolver) process(x float32) float32 {
	c.in[c.pos] = x
	y := c.out[c.pos]
	c.pos++
	if c.pos == c.partSize {
		if err := c.ola.ProcessBlockTo(c.out, c.in); err != nil {
			for i := range c.out {
				c.out[i] = 0
			}
		}
		c.pos = 0
	}
	return y
}

func (c *streamConvolver) reset() {
	c.ola.Reset()
	for i := range c.in {
		c.in[i] = 0
		c.out[i] = 0
	}
	c.pos = 0
}
