package decoherence

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-qchannel/dsp/core"
	"github.com/cwbudde/algo-qchannel/dsp/quantum"
)

const (
	defaultCrossoverFreq = 800.0
	defaultParamRamp     = 0.005
	defaultGainRamp      = 0.05
	defaultSeed          = 0x51c4a77e
)

// Split selects how the TransientSustain mode derives its transient band.
type Split int

const (
	// SplitPaired uses a Butterworth high-pass biquad for the transient band
	// alongside the low-pass sustain band. The two bands do not sum to the
	// input exactly around the crossover; use SplitComplementary for exact
	// reconstruction.
	SplitPaired Split = iota
	// SplitComplementary takes the transient band as input minus the
	// low-pass band, so unprocessed bands sum back to the input.
	SplitComplementary
)

func (s Split) String() string {
	switch s {
	case SplitPaired:
		return "paired"
	case SplitComplementary:
		return "complementary"
	default:
		return fmt.Sprintf("Split(%d)", int(s))
	}
}

// Option mutates engine construction parameters.
type Option func(*config) error

type config struct {
	core.ProcessorConfig

	crossover float64
	policy    quantum.Policy
	rng       quantum.RandomSource
	seed      uint64
	paramRamp float64
	gainRamp  float64
	split     Split
}

func defaultConfig() config {
	return config{
		ProcessorConfig: core.DefaultProcessorConfig(),
		crossover:       defaultCrossoverFreq,
		policy:          quantum.PolicyCharacter,
		seed:            defaultSeed,
		paramRamp:       defaultParamRamp,
		gainRamp:        defaultGainRamp,
		split:           SplitPaired,
	}
}

func validPositive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// WithSampleRate sets the initial sample rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *config) error {
		if !validPositive(sampleRate) {
			return fmt.Errorf("decoherence: sample rate must be > 0 and finite: %f", sampleRate)
		}

		cfg.SampleRate = sampleRate

		return nil
	}
}

// WithBlockSize sets the block size scratch buffers are prepared for.
func WithBlockSize(blockSize int) Option {
	return func(cfg *config) error {
		if blockSize <= 0 {
			return fmt.Errorf("decoherence: block size must be > 0: %d", blockSize)
		}

		cfg.BlockSize = blockSize

		return nil
	}
}

// WithCrossoverFreq sets the TransientSustain crossover in Hz.
// It must lie below Nyquist for every sample rate the engine is prepared
// with.
func WithCrossoverFreq(freq float64) Option {
	return func(cfg *config) error {
		if !validPositive(freq) {
			return fmt.Errorf("decoherence: crossover frequency must be > 0 and finite: %f", freq)
		}

		cfg.crossover = freq

		return nil
	}
}

// WithPolicy selects the dephasing and damping policy.
func WithPolicy(policy quantum.Policy) Option {
	return func(cfg *config) error {
		cfg.policy = policy
		return nil
	}
}

// WithRandomSource injects the random source used by randomized dephasing.
// The engine takes ownership; the source must not be shared with other
// goroutines.
func WithRandomSource(src quantum.RandomSource) Option {
	return func(cfg *config) error {
		if src == nil {
			return errors.New("decoherence: random source must not be nil")
		}

		cfg.rng = src

		return nil
	}
}

// WithSeed seeds the engine-owned random source. Ignored when
// WithRandomSource is given.
func WithSeed(seed uint64) Option {
	return func(cfg *config) error {
		cfg.seed = seed
		return nil
	}
}

// WithRampTimes sets the smoothing ramp for dephase, damping and mix, and
// the slower ramp for gain compensation, both in seconds. Zero disables
// smoothing.
func WithRampTimes(param, gain float64) Option {
	return func(cfg *config) error {
		if param < 0 || gain < 0 || !core.IsFinite(param) || !core.IsFinite(gain) {
			return fmt.Errorf("decoherence: ramp times must be >= 0 and finite: %f, %f", param, gain)
		}

		cfg.paramRamp = param
		cfg.gainRamp = gain

		return nil
	}
}

// WithSplit selects how the transient band is derived.
func WithSplit(split Split) Option {
	return func(cfg *config) error {
		if split != SplitPaired && split != SplitComplementary {
			return fmt.Errorf("decoherence: invalid split %v", split)
		}

		cfg.split = split

		return nil
	}
}
