// Package window generates analysis windows for short-time spectra.
package window

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
)

var (
	hannCoeffs     = []float64{0.5, 0.5}
	hammingCoeffs  = []float64{0.54, 0.46}
	blackmanCoeffs = []float64{0.42, 0.5, 0.08}
)

func (t Type) String() string {
	switch t {
	case TypeRectangular:
		return "rectangular"
	case TypeHann:
		return "hann"
	case TypeHamming:
		return "hamming"
	case TypeBlackman:
		return "blackman"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic generates the periodic (DFT-even) form used for overlapped
// analysis frames instead of the symmetric form.
func WithPeriodic() Option {
	return func(cfg *config) {
		cfg.periodic = true
	}
}

// Generate returns length coefficients of window t. Unknown types and
// non-positive lengths return nil.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 || t < TypeRectangular || t > TypeBlackman {
		return nil
	}

	var cfg config

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = evalWindow(t, samplePosition(i, length, cfg.periodic))
	}

	return out
}

// ApplyCoefficientsInPlace multiplies samples by coeffs element-wise.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return fmt.Errorf("window: samples and coefficients must have same length: %d != %d",
			len(samples), len(coeffs))
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}

// CoherentGain returns the mean of the coefficients.
func CoherentGain(coeffs []float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}

	return vecmath.Sum(coeffs) / float64(len(coeffs))
}

func evalWindow(t Type, x float64) float64 {
	switch t {
	case TypeHann:
		return cosineFromCoeffs(x, hannCoeffs)
	case TypeHamming:
		return cosineFromCoeffs(x, hammingCoeffs)
	case TypeBlackman:
		return cosineFromCoeffs(x, blackmanCoeffs)
	default:
		return 1
	}
}

// cosineFromCoeffs evaluates a0 - a1·cos(2πx) + a2·cos(4πx) - ...
func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	sum := 0.0
	sign := 1.0

	for k, a := range coeffs {
		sum += sign * a * math.Cos(2*math.Pi*float64(k)*x)
		sign = -sign
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0.5
	}

	if periodic {
		return float64(n) / float64(size)
	}

	return float64(n) / float64(size-1)
}
