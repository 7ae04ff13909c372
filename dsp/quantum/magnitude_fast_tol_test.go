//go:build fastmath

package quantum

// magTol bounds the error of the approximate magnitude against math.Hypot.
const magTol = 1e-7
