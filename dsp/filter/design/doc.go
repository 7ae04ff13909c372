// Package design provides digital IIR filter coefficient designers.
//
// The functions in this package produce biquad coefficients consumable by
// dsp/filter/biquad for runtime processing: RBJ cookbook lowpass and
// highpass sections and the matched pair used for two-band splitting.
package design
