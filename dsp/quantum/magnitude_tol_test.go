//go:build !fastmath

package quantum

// magTol bounds the error of magnitude against math.Hypot.
const magTol = 1e-12
