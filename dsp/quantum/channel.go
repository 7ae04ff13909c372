package quantum

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-qchannel/dsp/core"
)

// AmountEpsilon is the operator amount at or below which an operator is
// skipped entirely.
const AmountEpsilon = 1e-6

// magnitudeEpsilon is the magnitude below which an amplitude is left alone by
// dephasing and renormalizing damping.
const magnitudeEpsilon = 1e-12

const (
	saturateDrive  = 7.0
	saturateMakeup = 1.5
	renormAlpha    = 4.0
)

// ErrNoRandomSource is returned when a randomized policy has no source.
var ErrNoRandomSource = errors.New("quantum: policy requires a random source")

// RandomSource yields uniformly distributed values in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	Float64() float64
}

// Channel applies dephasing and damping to amplitude sequences in place.
// It is not safe for concurrent use when its policy consumes random numbers.
type Channel struct {
	policy Policy
	rng    RandomSource
}

// NewChannel creates a Channel. rng may be nil for deterministic policies.
func NewChannel(policy Policy, rng RandomSource) (*Channel, error) {
	if err := policy.validate(); err != nil {
		return nil, err
	}

	if policy.NeedsRandom() && rng == nil {
		return nil, ErrNoRandomSource
	}

	return &Channel{policy: policy, rng: rng}, nil
}

// Policy returns the channel's policy.
func (c *Channel) Policy() Policy { return c.policy }

// Apply dephases then damps seq in place. Amounts are clamped to [0, 1];
// an amount at or below AmountEpsilon leaves seq untouched by that operator.
func (c *Channel) Apply(seq []complex128, dephase, damp float64) {
	dephase = core.Clamp01(dephase)
	damp = core.Clamp01(damp)

	if dephase > AmountEpsilon {
		switch c.policy.Dephase {
		case DephaseBlend:
			dephaseBlend(seq, dephase)
		default:
			c.dephaseScramble(seq, dephase)
		}
	}

	if damp > AmountEpsilon {
		switch c.policy.Damp {
		case DampRenormalize:
			dampRenormalize(seq, damp)
		default:
			dampSaturate(seq, damp)
		}
	}
}

func (c *Channel) dephaseScramble(seq []complex128, amount float64) {
	maxShift := math.Pi * amount
	coherence := 1 - 0.5*amount
	collapse := 1 - coherence

	for i, a := range seq {
		re, im := real(a), imag(a)

		mag := magnitude(re, im)
		if mag <= magnitudeEpsilon {
			continue
		}

		phase := math.Atan2(im, re) + (2*c.rng.Float64()-1)*maxShift
		sin, cos := math.Sincos(phase)

		seq[i] = complex(coherence*mag*cos+collapse*mag, coherence*mag*sin)
	}
}

func dephaseBlend(seq []complex128, amount float64) {
	keep := 1 - amount

	for i, a := range seq {
		re, im := real(a), imag(a)

		mag := magnitude(re, im)
		if mag <= magnitudeEpsilon {
			continue
		}

		seq[i] = complex(keep*re+amount*mag, keep*im)
	}
}

func dampSaturate(seq []complex128, amount float64) {
	drive := 1 + saturateDrive*amount
	makeup := 1 + saturateMakeup*amount

	for i, a := range seq {
		re := real(a) * drive
		im := imag(a) * drive
		re /= 1 + math.Abs(re)
		im /= 1 + math.Abs(im)

		seq[i] = complex(re*makeup, im*makeup)
	}
}

func dampRenormalize(seq []complex128, amount float64) {
	alpha := 1 + renormAlpha*amount

	for i, a := range seq {
		re, im := real(a), imag(a)

		mag := magnitude(re, im)
		if mag <= magnitudeEpsilon {
			continue
		}

		g := 1 / (1 + alpha*mag*mag)
		seq[i] = complex(re*g, im*g)
	}

	// Any finite nonzero energy is renormalized, however small.
	energy := Energy(seq)
	if !(energy > 0) || math.IsInf(energy, 0) {
		return
	}

	inv := 1 / math.Sqrt(energy)
	for i, a := range seq {
		seq[i] = complex(real(a)*inv, imag(a)*inv)
	}
}
