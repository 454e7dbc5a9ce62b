package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQ14SectionPassThrough(t *testing.T) {
	s := NewQ14Section([3]int16{Q14One, 0, 0}, [2]int16{0, 0})
	buf := []float64{1, -2, 3.5, 0}
	s.ProcessBlock(buf)
	assert.Equal(t, []float64{1, -2, 3.5, 0}, buf)
}

func TestQ14SectionFeedbackSign(t *testing.T) {
	// y[n] = x[n] + 0.5*y[n-1] with the guest's negated storage
	s := NewQ14Section([3]int16{Q14One, 0, 0}, [2]int16{Q14One / 2, 0})
	assert.InDelta(t, -0.5, s.A1, 1e-12)

	buf := []float64{1, 0, 0, 0}
	s.ProcessBlock(buf)
	assert.InDeltaSlice(t, []float64{1, 0.5, 0.25, 0.125}, buf, 1e-12)
}

func TestSectionBlockMatchesSample(t *testing.T) {
	coeffs := NewQ14Section([3]int16{4000, 8000, 4000}, [2]int16{12000, -5000})
	a, b := coeffs, coeffs

	buf := []float64{0.3, -1, 0.7, 0.2, 0, 0, 1}
	want := make([]float64, len(buf))
	for i, x := range buf {
		want[i] = a.ProcessSample(x)
	}
	b.ProcessBlock(buf)
	assert.InDeltaSlice(t, want, buf, 1e-12)

	b.Reset()
	assert.Equal(t, 0.0, b.d0)
	assert.Equal(t, 0.0, b.d1)
}

func TestGainRamp(t *testing.T) {
	g := NewGain(4)

	buf := []float64{1, 1, 1, 1}
	g.Ramp(buf, 0, 1)
	assert.InDeltaSlice(t, []float64{0, 0.25, 0.5, 0.75}, buf, 1e-12)

	buf = []float64{2, 2, 2, 2}
	g.Ramp(buf, 0.5, 0.5)
	assert.InDeltaSlice(t, []float64{1, 1, 1, 1}, buf, 1e-12)
}

func TestGainAccumulate(t *testing.T) {
	g := NewGain(3)
	dst := []float64{1, 1, 1}

	g.Accumulate(dst, []float64{1, 2, 3}, 1)
	assert.InDeltaSlice(t, []float64{2, 3, 4}, dst, 1e-12)

	g.Accumulate(dst, []float64{1, 2, 3}, 0.5)
	assert.InDeltaSlice(t, []float64{2.5, 4, 5.5}, dst, 1e-12)

	g.Accumulate(dst, []float64{9, 9, 9}, 0)
	assert.InDeltaSlice(t, []float64{2.5, 4, 5.5}, dst, 1e-12)
}

func TestSaturate(t *testing.T) {
	tests := []struct {
		in   float64
		want int16
	}{
		{0, 0},
		{1000, 1000},
		{-1000.4, -1000},
		{40000, math.MaxInt16},
		{-40000, math.MinInt16},
		{math.Inf(1), math.MaxInt16},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Saturate(tt.in), "Saturate(%v)", tt.in)
	}
}

func TestClampUnit(t *testing.T) {
	assert.Equal(t, 0.0, ClampUnit(-1, 2))
	assert.Equal(t, 0.0, ClampUnit(float32(math.NaN()), 2))
	assert.Equal(t, 2.0, ClampUnit(5, 2))
	assert.Equal(t, 0.5, ClampUnit(0.5, 2))
}
