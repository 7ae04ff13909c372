package decoherence

import (
	"fmt"
	"math/rand/v2"

	"github.com/cwbudde/algo-qchannel/dsp/core"
	"github.com/cwbudde/algo-qchannel/dsp/filter/biquad"
	"github.com/cwbudde/algo-qchannel/dsp/filter/design"
	"github.com/cwbudde/algo-qchannel/dsp/param"
	"github.com/cwbudde/algo-qchannel/dsp/quantum"
	"github.com/cwbudde/algo-qchannel/dsp/smooth"
)

// Name is the effect's display name.
const Name = "Quantum Noise Channel"

// Mode is a channel-encoding strategy.
type Mode int

// Channel modes. Values match the MODE parameter index plus one.
const (
	ModeMono Mode = iota + 1
	ModeLeftRight
	ModeMidSide
	ModeTransientSustain
)

// ModeFromIndex maps a MODE parameter index to a Mode. Out-of-range
// indices select ModeMono.
func ModeFromIndex(i int) Mode {
	m := Mode(i + 1)
	if m < ModeMono || m > ModeTransientSustain {
		return ModeMono
	}

	return m
}

func (m Mode) String() string {
	switch m {
	case ModeMono:
		return "Mono"
	case ModeLeftRight:
		return "LeftRight"
	case ModeMidSide:
		return "MidSide"
	case ModeTransientSustain:
		return "TransientSustain"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Filter slots in the crossover bank.
const (
	hpLeft = iota
	hpRight
	lpLeft
	lpRight
	numFilters
)

// Metrics is a snapshot of the engine's level tracking after the last block.
type Metrics struct {
	InputRMS  float64
	OutputRMS float64
	Gain      float64 // current gain compensation
	Mode      Mode    // mode used for the last block
}

// Engine is the decoherence effect processor.
type Engine struct {
	cfg     config
	store   *param.Store
	channel *quantum.Channel

	dephaseParam  *param.Param
	dampParam     *param.Param
	mixParam      *param.Param
	autoGainParam *param.Param
	modeParam     *param.Param

	dephase smooth.Linear
	damp    smooth.Linear
	mix     smooth.Linear
	gain    autoGain

	seqA, seqB []complex128
	dryA, dryB []float64
	wetA, wetB []float64

	filters    *biquad.Bank
	checkpoint biquad.Checkpoint

	lastBlockSize int
	lastMode      Mode
	inputRMS      float64
	outputRMS     float64
}

// New creates an engine reading its controls from store. A nil store is
// replaced with one holding param.DefaultLayout. The store must contain the
// IDs of param.DefaultLayout.
func New(store *param.Store, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewPCG(cfg.seed, cfg.seed^0x9e3779b97f4a7c15))
	}

	channel, err := quantum.NewChannel(cfg.policy, cfg.rng)
	if err != nil {
		return nil, fmt.Errorf("decoherence: %w", err)
	}

	if store == nil {
		store = param.NewDefaultStore()
	}

	e := &Engine{
		cfg:      cfg,
		store:    store,
		channel:  channel,
		filters:  biquad.NewBank(numFilters),
		lastMode: ModeMono,
	}
	e.checkpoint = e.filters.NewCheckpoint()

	handles := []struct {
		id  string
		dst **param.Param
	}{
		{param.Dephase, &e.dephaseParam},
		{param.Damping, &e.dampParam},
		{param.Mix, &e.mixParam},
		{param.AutoGain, &e.autoGainParam},
		{param.Mode, &e.modeParam},
	}

	for _, h := range handles {
		p, err := store.Param(h.id)
		if err != nil {
			return nil, fmt.Errorf("decoherence: %w", err)
		}

		*h.dst = p
	}

	if err := e.Prepare(cfg.SampleRate, cfg.BlockSize); err != nil {
		return nil, err
	}

	return e, nil
}

// Params returns the parameter store the engine reads.
func (e *Engine) Params() *param.Store { return e.store }

// Policy returns the operator policy in use.
func (e *Engine) Policy() quantum.Policy { return e.cfg.policy }

// SampleRate returns the sample rate the engine is prepared for.
func (e *Engine) SampleRate() float64 { return e.cfg.SampleRate }

// TailLengthSeconds reports the effect tail. The effect has none.
func (e *Engine) TailLengthSeconds() float64 { return 0 }

// AcceptsMIDI reports whether the effect consumes MIDI. It does not.
func (e *Engine) AcceptsMIDI() bool { return false }

// SupportsLayout reports whether the engine can run with the given input
// and output channel counts: mono or stereo, with matching counts.
func SupportsLayout(inputs, outputs int) bool {
	return (outputs == 1 || outputs == 2) && inputs == outputs
}

// Prepare configures the engine for a sample rate and maximum block size.
// It recomputes the crossover filters, resets filter state, snaps smoothers
// to the current parameter values and sizes scratch buffers. A non-positive
// block size leaves the buffers as they are. Prepare may allocate and must
// not run concurrently with Process.
func (e *Engine) Prepare(sampleRate float64, blockSize int) error {
	if !validPositive(sampleRate) {
		return fmt.Errorf("decoherence: sample rate must be > 0 and finite: %f", sampleRate)
	}

	lp, hp, err := design.SplitPair(e.cfg.crossover, sampleRate)
	if err != nil {
		return fmt.Errorf("decoherence: crossover: %w", err)
	}

	e.cfg.SampleRate = sampleRate
	e.filters.Section(hpLeft).SetCoefficients(hp)
	e.filters.Section(hpRight).SetCoefficients(hp)
	e.filters.Section(lpLeft).SetCoefficients(lp)
	e.filters.Section(lpRight).SetCoefficients(lp)

	e.dephase.Reset(sampleRate, e.cfg.paramRamp)
	e.damp.Reset(sampleRate, e.cfg.paramRamp)
	e.mix.Reset(sampleRate, e.cfg.paramRamp)
	e.gain.Reset(sampleRate, e.cfg.gainRamp)

	if blockSize > 0 {
		e.cfg.BlockSize = blockSize
		e.ensureCapacity(blockSize)
	}

	e.Reset()

	return nil
}

// Reset clears filter state, level meters and gain compensation and snaps
// the smoothers to the current parameter values. It does not allocate.
func (e *Engine) Reset() {
	e.filters.Reset()
	e.dephase.SetCurrentAndTarget(e.dephaseParam.Load())
	e.damp.SetCurrentAndTarget(e.dampParam.Load())
	e.mix.SetCurrentAndTarget(e.mixParam.Load())
	e.gain.SetCurrentAndTarget(1)
	e.inputRMS = 0
	e.outputRMS = 0
}

// Metrics returns level information about the last processed block.
func (e *Engine) Metrics() Metrics {
	return Metrics{
		InputRMS:  e.inputRMS,
		OutputRMS: e.outputRMS,
		Gain:      e.gain.Current(),
		Mode:      e.lastMode,
	}
}

func (e *Engine) ensureCapacity(n int) {
	e.seqA = core.EnsureComplexLen(e.seqA, n)
	e.seqB = core.EnsureComplexLen(e.seqB, n)
	e.dryA = core.EnsureLen(e.dryA, n)
	e.dryB = core.EnsureLen(e.dryB, n)
	e.wetA = core.EnsureLen(e.wetA, n)
	e.wetB = core.EnsureLen(e.wetB, n)
	e.lastBlockSize = n
}

// Process runs one block in place. buf holds one slice per output channel
// (one or two), all of the same length; the first numInputs channels carry
// input. Output channels at or beyond numInputs are cleared before
// processing.
//
// Process does not allocate unless the block is longer than any block the
// engine was prepared for.
func (e *Engine) Process(buf [][]float64, numInputs int) {
	if len(buf) == 0 {
		return
	}

	n := len(buf[0])
	for _, ch := range buf[1:] {
		n = min(n, len(ch))
	}

	numInputs = max(0, min(numInputs, len(buf), 2))
	for ch := numInputs; ch < len(buf); ch++ {
		core.Zero(buf[ch])
	}

	if n == 0 {
		return
	}

	if n != e.lastBlockSize {
		e.ensureCapacity(n)
	}

	// A block without inputs processes the cleared first channel.
	numInputs = max(numInputs, 1)

	e.dephase.SetTarget(e.dephaseParam.Load())
	e.damp.SetTarget(e.dampParam.Load())
	e.mix.SetTarget(e.mixParam.Load())

	mode := ModeFromIndex(e.modeParam.Index())
	e.lastMode = mode

	switch mode {
	case ModeLeftRight:
		e.processLeftRight(buf, numInputs, n)
	case ModeMidSide:
		e.processMidSide(buf, numInputs, n)
	case ModeTransientSustain:
		e.processTransientSustain(buf, numInputs, n)
	default:
		e.processMono(buf, numInputs, n)
	}

	e.dephase.Skip(n)
	e.damp.Skip(n)
}

// transform encodes dry, applies the channel with the current smoothed
// amounts and decodes into wet.
func (e *Engine) transform(seq []complex128, dry, wet []float64) {
	dephase := e.dephase.Current()
	damp := e.damp.Current()

	if e.cfg.policy.Normalized() {
		scale := quantum.EncodeNormalized(seq, dry)
		if scale == 1 && !(quantum.Energy(seq) > quantum.EnergyEpsilon) {
			// Too quiet to normalize; renormalizing would lift it to unit energy.
			copy(wet, dry)

			return
		}

		e.channel.Apply(seq, dephase, damp)
		quantum.DecodeScaled(wet, seq, scale)

		return
	}

	quantum.Encode(seq, dry)
	e.channel.Apply(seq, dephase, damp)
	quantum.Decode(wet, seq)
}

// blend returns the dry/wet crossfade with a sanitized wet sample.
func blend(dry, wet, mix float64) float64 {
	return dry*(1-mix) + core.Sanitize(wet)*mix
}
