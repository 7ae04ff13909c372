//go:build !fastmath

package quantum

import "math"

// magnitude returns |re + i·im|.
func magnitude(re, im float64) float64 {
	return math.Hypot(re, im)
}
