// Package biquad provides biquad (second-order IIR) filter runtime primitives.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. A [Bank] groups several
// independent sections so their delay lines can be checkpointed and
// restored as one unit, which multi-pass block processors rely on.
//
// This package provides the processing runtime only. Coefficient design
// lives in dsp/filter/design.
package biquad
