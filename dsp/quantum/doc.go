// Package quantum implements the complex-amplitude representation used by the
// decoherence effect and the two nonlinear operators applied to it.
//
// A block of real samples is encoded as one complex amplitude per sample
// (real part = sample, imaginary part = 0). A [Channel] then applies
// dephasing, which scrambles or collapses the phase of every amplitude, and
// damping, which compresses amplitude magnitudes. Decoding keeps the real
// parts.
//
// The terms are a metaphor for the signal representation. Nothing here
// simulates quantum mechanics.
//
// Build with -tags fastmath to use approximate magnitudes in the operators.
package quantum
