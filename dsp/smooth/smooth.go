// Package smooth provides per-sample parameter smoothing for real-time
// processors.
//
// A [Linear] smoother ramps from its current value to a target in a fixed
// number of steps derived from a sample rate and a ramp time. Changing the
// target mid-ramp bends the ramp toward the new target without extending it,
// so a target that drifts every block still settles within one ramp time.
package smooth

import "math"

// Linear ramps linearly toward a target value over a fixed number of samples.
//
// The zero value holds 0 and has no ramp: SetTarget jumps immediately until
// Reset configures a ramp length.
type Linear struct {
	current   float64
	target    float64
	step      float64
	remaining int
	rampLen   int
}

// NewLinear returns a smoother initialised to value with a ramp of
// rampSeconds at sampleRate.
func NewLinear(sampleRate, rampSeconds, value float64) *Linear {
	s := &Linear{}
	s.Reset(sampleRate, rampSeconds)
	s.SetCurrentAndTarget(value)

	return s
}

// Reset sets the ramp length and ends any ramp in progress, snapping the
// current value to the target.
func (s *Linear) Reset(sampleRate, rampSeconds float64) {
	steps := 0
	if sampleRate > 0 && rampSeconds > 0 && !math.IsInf(sampleRate*rampSeconds, 0) {
		steps = int(math.Floor(sampleRate * rampSeconds))
	}

	s.rampLen = steps
	s.current = s.target
	s.step = 0
	s.remaining = 0
}

// RampLength returns the number of samples a full ramp takes.
func (s *Linear) RampLength() int { return s.rampLen }

// SetCurrentAndTarget jumps to v without ramping.
func (s *Linear) SetCurrentAndTarget(v float64) {
	s.current = v
	s.target = v
	s.step = 0
	s.remaining = 0
}

// SetTarget ramps from the current value to v. A settled smoother starts a
// full ramp; a ramp in progress keeps its remaining length and only changes
// its slope.
func (s *Linear) SetTarget(v float64) {
	if v == s.target {
		return
	}

	if s.rampLen <= 0 {
		s.SetCurrentAndTarget(v)

		return
	}

	if s.remaining <= 0 {
		s.current = s.target
		s.remaining = s.rampLen
	}

	s.target = v
	s.step = (v - s.current) / float64(s.remaining)
}

// Next advances one sample and returns the new current value.
func (s *Linear) Next() float64 {
	if s.remaining <= 0 {
		return s.target
	}

	s.remaining--
	if s.remaining == 0 {
		s.current = s.target
	} else {
		s.current += s.step
	}

	return s.current
}

// Skip advances n samples at once.
func (s *Linear) Skip(n int) {
	if n <= 0 || s.remaining <= 0 {
		return
	}

	if n >= s.remaining {
		s.current = s.target
		s.remaining = 0

		return
	}

	s.remaining -= n
	s.current += s.step * float64(n)
}

// Current returns the value without advancing.
func (s *Linear) Current() float64 {
	if s.remaining <= 0 {
		return s.target
	}

	return s.current
}

// Target returns the value the smoother is ramping toward.
func (s *Linear) Target() float64 { return s.target }

// IsSmoothing reports whether a ramp is in progress.
func (s *Linear) IsSmoothing() bool { return s.remaining > 0 }
