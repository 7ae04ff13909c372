package quantum

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// EnergyEpsilon is the block energy below which normalization is skipped.
const EnergyEpsilon = 1e-12

// Encode writes src into dst as real-valued amplitudes and returns the
// number of amplitudes written, min(len(dst), len(src)).
func Encode(dst []complex128, src []float64) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = complex(src[i], 0)
	}

	return n
}

// EncodeNormalized encodes src and divides every amplitude by the square
// root of the block energy, so the encoded sequence has unit energy. It
// returns that divisor. Blocks with energy at or below [EnergyEpsilon] are
// encoded unscaled and the returned scale is 1.
func EncodeNormalized(dst []complex128, src []float64) float64 {
	n := min(len(dst), len(src))
	if n == 0 {
		return 1
	}

	energy := vecmath.DotProduct(src[:n], src[:n])
	if !(energy > EnergyEpsilon) || math.IsInf(energy, 0) {
		Encode(dst, src)
		return 1
	}

	scale := math.Sqrt(energy)
	inv := 1 / scale

	for i := range n {
		dst[i] = complex(src[i]*inv, 0)
	}

	return scale
}

// Decode writes the real part of each amplitude to dst and returns the
// number of samples written.
func Decode(dst []float64, src []complex128) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = real(src[i])
	}

	return n
}

// DecodeScaled decodes src and multiplies by scale, undoing
// [EncodeNormalized].
func DecodeScaled(dst []float64, src []complex128, scale float64) int {
	n := Decode(dst, src)
	if scale != 1 {
		vecmath.ScaleBlockInPlace(dst[:n], scale)
	}

	return n
}

// Energy returns the sum of squared magnitudes of seq.
func Energy(seq []complex128) float64 {
	var sum float64

	for _, a := range seq {
		re, im := real(a), imag(a)
		sum += re*re + im*im
	}

	return sum
}
