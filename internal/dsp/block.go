// Package dsp holds the per-block sample math a node runs on the audio thread.
package dsp

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Scratch owns the work buffers for one node. It is sized once at prepare time so the
// audio thread never allocates; longer buffers are processed in Scratch-sized chunks.
type Scratch struct {
	ramp []float64
	sq   []float64
}

// NewScratch allocates buffers for blocks of up to blockSize samples.
func NewScratch(blockSize int) *Scratch {
	if blockSize < 1 {
		blockSize = 1
	}
	return &Scratch{
		ramp: make([]float64, blockSize),
		sq:   make([]float64, blockSize),
	}
}

// Size returns the chunk length.
func (s *Scratch) Size() int { return len(s.ramp) }

// ApplyGain scales buf in place. When from == to the gain is constant; otherwise it ramps
// linearly so the last sample lands exactly on to.
func (s *Scratch) ApplyGain(buf []float64, from, to float64) {
	n := len(buf)
	if n == 0 {
		return
	}
	if from == to {
		if to != 1 {
			vecmath.ScaleBlock(buf, buf, to)
		}
		return
	}

	step := (to - from) / float64(n)
	for off := 0; off < n; off += len(s.ramp) {
		m := min(len(s.ramp), n-off)
		ramp := s.ramp[:m]
		for k := range ramp {
			ramp[k] = from + step*float64(off+k+1)
		}
		vecmath.MulBlockInPlace(buf[off:off+m], ramp)
	}
}

// RMS returns the root-mean-square level of buf, or 0 for an empty buffer.
func (s *Scratch) RMS(buf []float64) float64 {
	n := len(buf)
	if n == 0 {
		return 0
	}
	var sum float64
	for off := 0; off < n; off += len(s.sq) {
		m := min(len(s.sq), n-off)
		chunk := buf[off : off+m]
		sq := s.sq[:m]
		vecmath.MulBlock(sq, chunk, chunk)
		for _, v := range sq {
			sum += v
		}
	}
	return math.Sqrt(sum / float64(n))
}

// Clear zeroes every channel.
func Clear(channels [][]float64) {
	for _, ch := range channels {
		clear(ch)
	}
}
