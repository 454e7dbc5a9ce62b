package dsp

// Q14One is 1.0 in the guest's Q14 fixed point coefficient format.
const Q14One = 1 << 14

// Section is a transposed direct form II biquad:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Section struct {
	B0, B1, B2 float64
	A1, A2     float64
	d0, d1     float64
}

// NewQ14Section converts guest Q14 coefficients. The guest stores the
// feedback coefficients negated, so they are added rather than subtracted.
func NewQ14Section(b [3]int16, a [2]int16) Section {
	return Section{
		B0: float64(b[0]) / Q14One,
		B1: float64(b[1]) / Q14One,
		B2: float64(b[2]) / Q14One,
		A1: -float64(a[0]) / Q14One,
		A2: -float64(a[1]) / Q14One,
	}
}

// SetCoefficients replaces the coefficients and keeps the filter state.
func (s *Section) SetCoefficients(c Section) {
	s.B0, s.B1, s.B2, s.A1, s.A2 = c.B0, c.B1, c.B2, c.A1, c.A2
}

// ProcessSample filters one sample.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.d0
	s.d0 = s.B1*x - s.A1*y + s.d1
	s.d1 = s.B2*x - s.A2*y
	return y
}

// ProcessBlock filters buf in place.
func (s *Section) ProcessBlock(buf []float64) {
	d0, d1 := s.d0, s.d1
	for i, x := range buf {
		y := s.B0*x + d0
		d0 = s.B1*x - s.A1*y + d1
		d1 = s.B2*x - s.A2*y
		buf[i] = y
	}
	s.d0, s.d1 = d0, d1
}

// Reset clears the delay line.
func (s *Section) Reset() {
	s.d0 = 0
	s.d1 = 0
}
