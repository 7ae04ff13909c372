// Package time provides time-domain level statistics of sample blocks.
package time

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Stats holds time-domain level statistics for a block or a whole file.
//
//nolint:revive
type Stats struct {
	Length         int
	DC             float64 // mean
	RMS            float64
	RMS_dB         float64
	Peak           float64 // max |x|
	Peak_dB        float64
	CrestFactor    float64 // peak / RMS (linear)
	CrestFactor_dB float64
	Energy         float64 // sum of squares
}

// ampTodB converts an amplitude value to decibels: 20 * log10(|value|).
// Returns -Inf for zero values.
func ampTodB(value float64) float64 {
	a := math.Abs(value)
	if a == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(a)
}

func newStats(n int, sum, sumSq, peak float64) Stats {
	if n == 0 {
		return Stats{
			RMS_dB:         math.Inf(-1),
			Peak_dB:        math.Inf(-1),
			CrestFactor_dB: math.Inf(-1),
		}
	}

	nf := float64(n)
	rms := math.Sqrt(sumSq / nf)

	var crest, crestdB float64
	if rms > 0 {
		crest = peak / rms
		crestdB = ampTodB(crest)
	}

	return Stats{
		Length:         n,
		DC:             sum / nf,
		RMS:            rms,
		RMS_dB:         ampTodB(rms),
		Peak:           peak,
		Peak_dB:        ampTodB(peak),
		CrestFactor:    crest,
		CrestFactor_dB: crestdB,
		Energy:         sumSq,
	}
}

// Calculate computes level statistics for signal.
func Calculate(signal []float64) Stats {
	if len(signal) == 0 {
		return newStats(0, 0, 0, 0)
	}

	return newStats(len(signal), vecmath.Sum(signal), Energy(signal), vecmath.MaxAbs(signal))
}

// Energy returns the sum of squared samples.
func Energy(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	return vecmath.DotProduct(signal, signal)
}

// RMS returns the root-mean-square magnitude of the signal, or 0 for an
// empty signal. It does not allocate and is safe on real-time paths.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	return math.Sqrt(Energy(signal) / float64(len(signal)))
}

// Peak returns the peak absolute amplitude of the signal.
func Peak(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	return vecmath.MaxAbs(signal)
}

// CrestFactor returns the crest factor (peak / RMS) of the signal.
// Returns 0 if RMS is zero.
func CrestFactor(signal []float64) float64 {
	r := RMS(signal)
	if r == 0 {
		return 0
	}

	return Peak(signal) / r
}

// StreamingStats accumulates level statistics block by block.
type StreamingStats struct {
	n     int
	sum   float64
	sumSq float64
	peak  float64
}

// NewStreamingStats creates a new StreamingStats accumulator.
func NewStreamingStats() *StreamingStats {
	return &StreamingStats{}
}

// Update adds a block of samples to the running statistics.
func (s *StreamingStats) Update(samples []float64) {
	if len(samples) == 0 {
		return
	}

	s.n += len(samples)
	s.sum += vecmath.Sum(samples)
	s.sumSq += vecmath.DotProduct(samples, samples)
	s.peak = math.Max(s.peak, vecmath.MaxAbs(samples))
}

// Result computes the final statistics from accumulated data.
func (s *StreamingStats) Result() Stats {
	return newStats(s.n, s.sum, s.sumSq, s.peak)
}

// Reset clears all accumulated data, allowing the StreamingStats to be reused.
func (s *StreamingStats) Reset() {
	*s = StreamingStats{}
}
