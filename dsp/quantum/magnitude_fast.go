//go:build fastmath

package quantum

import "github.com/meko-christian/algo-approx"

// magnitude returns an approximation of |re + i·im|.
func magnitude(re, im float64) float64 {
	return approx.FastSqrt(re*re + im*im)
}
