package design

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-qchannel/dsp/filter/biquad"
)

// ButterworthQ is the quality factor of a maximally flat second-order
// section (1/√2 ≈ 0.707).
const ButterworthQ = 1 / math.Sqrt2

// ErrInvalidFrequency reports a cutoff outside (0, Nyquist) or a
// non-positive sample rate.
var ErrInvalidFrequency = errors.New("design: cutoff must be in (0, nyquist) and sample rate > 0")

// Lowpass designs an RBJ cookbook lowpass section.
//
// Invalid frequency or sample rate parameters yield zero coefficients,
// which silence the section rather than destabilize it.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	cw, alpha := rbjTerms(w0, q)
	b1 := 1 - cw

	return normalizeBiquad(b1/2, b1, b1/2, 1+alpha, -2*cw, 1-alpha)
}

// Highpass designs an RBJ cookbook highpass section.
func Highpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	cw, alpha := rbjTerms(w0, q)
	b0 := (1 + cw) / 2

	return normalizeBiquad(b0, -(1 + cw), b0, 1+alpha, -2*cw, 1-alpha)
}

// SplitPair designs the lowpass/highpass pair used for a two-band split at
// freq. Both sections share the Butterworth damping factor so their
// responses cross at -3 dB and the bands sum back to the input outside a
// narrow region around the cutoff.
func SplitPair(freq, sampleRate float64) (lp, hp biquad.Coefficients, err error) {
	if _, ok := normalizedW0(freq, sampleRate); !ok {
		return lp, hp, fmt.Errorf("%w: freq=%g sampleRate=%g", ErrInvalidFrequency, freq, sampleRate)
	}

	return Lowpass(freq, ButterworthQ, sampleRate), Highpass(freq, ButterworthQ, sampleRate), nil
}

func rbjTerms(w0, q float64) (cw, alpha float64) {
	return math.Cos(w0), math.Sin(w0) / (2 * normalizedQ(q))
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}

	nyquist := sampleRate / 2
	if freq <= 0 || freq >= nyquist || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, false
	}

	return 2 * math.Pi * freq / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return ButterworthQ
	}

	return q
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
