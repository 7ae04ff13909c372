package quantum

import "fmt"

// DephasePolicy selects how dephasing alters phase.
type DephasePolicy int

const (
	// DephaseScramble rotates every amplitude by a random phase offset within
	// ±π·amount and blends the result toward its magnitude-only form with
	// weight amount/2. Requires a RandomSource.
	DephaseScramble DephasePolicy = iota
	// DephaseBlend blends every amplitude linearly toward its magnitude-only
	// form by amount. Deterministic.
	DephaseBlend
)

func (p DephasePolicy) String() string {
	switch p {
	case DephaseScramble:
		return "scramble"
	case DephaseBlend:
		return "blend"
	default:
		return fmt.Sprintf("DephasePolicy(%d)", int(p))
	}
}

// DampPolicy selects how damping compresses amplitudes.
type DampPolicy int

const (
	// DampSaturate drives the real and imaginary parts by 1+7·amount, soft
	// clips them with x/(1+|x|) and applies a makeup gain of 1+1.5·amount.
	DampSaturate DampPolicy = iota
	// DampRenormalize compresses each magnitude with mag/(1+α·mag²),
	// α = 1+4·amount, keeps phase and rescales the sequence to unit energy.
	DampRenormalize
)

func (p DampPolicy) String() string {
	switch p {
	case DampSaturate:
		return "saturate"
	case DampRenormalize:
		return "renormalize"
	default:
		return fmt.Sprintf("DampPolicy(%d)", int(p))
	}
}

// Policy pairs a dephasing and a damping policy.
type Policy struct {
	Dephase DephasePolicy
	Damp    DampPolicy
}

var (
	// PolicyCharacter scrambles phase randomly and saturates amplitudes with
	// makeup gain.
	PolicyCharacter = Policy{Dephase: DephaseScramble, Damp: DampSaturate}
	// PolicyPrecision is deterministic and keeps a fixed output energy. It
	// expects sequences produced by EncodeNormalized.
	PolicyPrecision = Policy{Dephase: DephaseBlend, Damp: DampRenormalize}
)

// NeedsRandom reports whether the policy consumes random numbers.
func (p Policy) NeedsRandom() bool { return p.Dephase == DephaseScramble }

// Normalized reports whether the policy operates on unit-energy sequences.
func (p Policy) Normalized() bool { return p.Damp == DampRenormalize }

func (p Policy) String() string {
	switch p {
	case PolicyCharacter:
		return "character"
	case PolicyPrecision:
		return "precision"
	default:
		return p.Dephase.String() + "+" + p.Damp.String()
	}
}

// ParsePolicy maps a policy name to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "character", "":
		return PolicyCharacter, nil
	case "precision":
		return PolicyPrecision, nil
	default:
		return Policy{}, fmt.Errorf("quantum: unknown policy %q", name)
	}
}

func (p Policy) validate() error {
	if p.Dephase != DephaseScramble && p.Dephase != DephaseBlend {
		return fmt.Errorf("quantum: invalid dephase policy %v", p.Dephase)
	}

	if p.Damp != DampSaturate && p.Damp != DampRenormalize {
		return fmt.Errorf("quantum: invalid damp policy %v", p.Damp)
	}

	return nil
}
