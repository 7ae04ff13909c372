package biquad

import "github.com/cwbudde/algo-qchannel/dsp/core"

// Coefficients holds the transfer function coefficients for a single
// second-order section (biquad). a0 is normalized to 1 and not stored.
//
// The sign convention follows Direct Form II Transposed:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// Section is a single biquad filter with coefficients and internal state.
//
// The two-element DF-II-T delay line carries the same information as the
// two-sample input and output history of a Direct Form I structure, so
// saving and restoring it with [Section.State] and [Section.SetState]
// reproduces the filter output bit for bit.
type Section struct {
	Coefficients

	d0, d1 float64
}

// NewSection returns a Section initialized with the given coefficients
// and zero state.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// SetCoefficients replaces the transfer function and keeps the delay line.
func (s *Section) SetCoefficients(c Coefficients) {
	s.Coefficients = c
}

// ProcessSample runs one sample through the section.
func (s *Section) ProcessSample(x float64) float64 {
	y, d0, d1 := s.step(x, s.d0, s.d1)
	s.d0, s.d1 = d0, d1

	return y
}

// step advances a delay line by one sample without touching the section.
func (c *Coefficients) step(x, d0, d1 float64) (y, n0, n1 float64) {
	y = c.B0*x + d0
	n0 = c.B1*x - c.A1*y + d1
	n1 = c.B2*x - c.A2*y

	return y, n0, n1
}

// ProcessBlock filters buf in place.
func (s *Section) ProcessBlock(buf []float64) {
	s.ProcessBlockTo(buf, buf)
}

// ProcessBlockTo filters src into dst, which must hold at least len(src)
// samples. dst and src may alias. Delay-line values small enough to decay
// into denormals are zeroed at the end of the block. It does not allocate.
func (s *Section) ProcessBlockTo(dst, src []float64) {
	if len(src) == 0 {
		return
	}

	dst = dst[:len(src)]
	d0, d1 := s.d0, s.d1

	for i, x := range src {
		dst[i], d0, d1 = s.step(x, d0, d1)
	}

	// A decaying tail is flushed once per block rather than per sample.
	s.d0, s.d1 = core.FlushDenormals(d0), core.FlushDenormals(d1)
}

// Reset zeroes the delay line.
func (s *Section) Reset() {
	s.d0, s.d1 = 0, 0
}

// State returns the delay line as [d0, d1].
func (s *Section) State() [2]float64 {
	return [2]float64{s.d0, s.d1}
}

// SetState loads a delay line captured with State.
func (s *Section) SetState(state [2]float64) {
	s.d0, s.d1 = state[0], state[1]
}
