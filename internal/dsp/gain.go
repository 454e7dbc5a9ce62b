package dsp

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Gain applies per-tick volume changes. It owns the scratch space the
// vectorised kernels need so the mixing path does not allocate.
type Gain struct {
	coeffs  []float64
	scratch []float64
}

// NewGain allocates scratch for blocks of up to size samples.
func NewGain(size int) *Gain {
	return &Gain{
		coeffs:  make([]float64, size),
		scratch: make([]float64, size),
	}
}

// Ramp scales buf by a gain moving linearly from `from` toward `to`, reaching
// `to` on the sample after the block so consecutive ticks join smoothly.
func (g *Gain) Ramp(buf []float64, from, to float64) {
	if from == to {
		g.Scale(buf, to)
		return
	}
	coeffs := g.coeffs[:len(buf)]
	step := (to - from) / float64(len(buf))
	for i := range coeffs {
		coeffs[i] = from + step*float64(i)
	}
	vecmath.MulBlockInPlace(buf, coeffs)
}

// Scale multiplies buf by a constant gain.
func (g *Gain) Scale(buf []float64, gain float64) {
	if gain == 1 {
		return
	}
	vecmath.ScaleBlock(buf, buf, gain)
}

// Accumulate adds src scaled by gain into dst.
func (g *Gain) Accumulate(dst, src []float64, gain float64) {
	switch gain {
	case 0:
		return
	case 1:
		vecmath.AddBlockInPlace(dst, src)
	default:
		tmp := g.scratch[:len(src)]
		vecmath.ScaleBlock(tmp, src, gain)
		vecmath.AddBlockInPlace(dst, tmp)
	}
}

// Saturate rounds x to the nearest int16, clamping to its range.
func Saturate(x float64) int16 {
	switch {
	case math.IsNaN(x):
		return 0
	case x >= math.MaxInt16:
		return math.MaxInt16
	case x <= math.MinInt16:
		return math.MinInt16
	}
	return int16(math.Round(x))
}

// ClampUnit clamps a guest supplied gain to [0, limit].
func ClampUnit(v float32, limit float64) float64 {
	f := float64(v)
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return math.Min(f, limit)
}
