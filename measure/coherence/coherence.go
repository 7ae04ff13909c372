// Package coherence compares a processed signal with its dry source in the
// frequency domain.
//
// The analysis averages short-time spectra of both signals (Welch's method)
// and reports how much of the wet signal is still phase-locked to the dry
// signal, how far per-bin levels moved, and how the spectral shape changed.
package coherence

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-qchannel/dsp/window"
	frequencystats "github.com/cwbudde/algo-qchannel/stats/frequency"
)

const (
	defaultFFTSize = 4096
	defaultMinFreq = 20.0
	defaultMaxFreq = 20000.0

	// powerFloor excludes bins with negligible dry energy.
	powerFloor = 1e-20
)

// ErrTooShort is returned when the signals are shorter than one frame.
var ErrTooShort = errors.New("coherence: signal shorter than one analysis frame")

// Config holds analysis parameters. Zero fields take defaults.
type Config struct {
	SampleRate float64
	FFTSize    int         // power of two, default 4096
	Hop        int         // default FFTSize/2
	Window     window.Type // rectangular (the zero value) selects Hann
	MinFreq    float64     // default 20 Hz
	MaxFreq    float64     // default 20 kHz, limited to Nyquist
}

// Result holds the comparison of a wet signal against its dry source.
//
//nolint:revive
type Result struct {
	Frames int

	// Coherence is the dry-power weighted mean of the magnitude-squared
	// coherence over the analysed band: 1 for a linear time-invariant
	// relation, toward 0 for unrelated signals.
	Coherence float64

	// MagnitudeDeviation_dB is the dry-power weighted RMS of the per-bin
	// level difference wet/dry.
	MagnitudeDeviation_dB float64

	// LevelChange_dB is the total wet/dry energy ratio over the band.
	LevelChange_dB float64

	Dry frequencystats.Shape
	Wet frequencystats.Shape
}

// Analyzer holds the FFT plan and scratch buffers for repeated analysis.
// It is not safe for concurrent use.
type Analyzer struct {
	cfg  Config
	plan *algofft.Plan[complex128]
	win  []float64

	frameDry, frameWet []complex128
	specDry, specWet   []complex128
	re, im, scratch    []float64

	crossRe, crossIm []float64
	powDry, powWet   []float64
}

// NewAnalyzer validates cfg and prepares an analyzer.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("coherence: fft plan: %w", err)
	}

	bins := cfg.FFTSize/2 + 1

	return &Analyzer{
		cfg:      cfg,
		plan:     plan,
		win:      window.Generate(cfg.Window, cfg.FFTSize, window.WithPeriodic()),
		frameDry: make([]complex128, cfg.FFTSize),
		frameWet: make([]complex128, cfg.FFTSize),
		specDry:  make([]complex128, cfg.FFTSize),
		specWet:  make([]complex128, cfg.FFTSize),
		re:       make([]float64, bins),
		im:       make([]float64, bins),
		scratch:  make([]float64, bins),
		crossRe:  make([]float64, bins),
		crossIm:  make([]float64, bins),
		powDry:   make([]float64, bins),
		powWet:   make([]float64, bins),
	}, nil
}

// Analyze is a one-shot comparison using a fresh Analyzer.
func Analyze(dry, wet []float64, cfg Config) (Result, error) {
	a, err := NewAnalyzer(cfg)
	if err != nil {
		return Result{}, err
	}

	return a.Analyze(dry, wet)
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Analyze compares wet against dry over their common length.
func (a *Analyzer) Analyze(dry, wet []float64) (Result, error) {
	n := min(len(dry), len(wet))
	size, hop := a.cfg.FFTSize, a.cfg.Hop

	if n < size {
		return Result{}, fmt.Errorf("%w: %d < %d", ErrTooShort, n, size)
	}

	clear(a.crossRe)
	clear(a.crossIm)
	clear(a.powDry)
	clear(a.powWet)

	frames := 0

	for start := 0; start+size <= n; start += hop {
		if err := a.accumulate(dry[start:start+size], wet[start:start+size]); err != nil {
			return Result{}, err
		}

		frames++
	}

	res := a.summarize()
	res.Frames = frames

	return res, nil
}

func (a *Analyzer) accumulate(dry, wet []float64) error {
	for i, w := range a.win {
		a.frameDry[i] = complex(dry[i]*w, 0)
		a.frameWet[i] = complex(wet[i]*w, 0)
	}

	if err := a.plan.Forward(a.specDry, a.frameDry); err != nil {
		return fmt.Errorf("coherence: forward fft: %w", err)
	}

	if err := a.plan.Forward(a.specWet, a.frameWet); err != nil {
		return fmt.Errorf("coherence: forward fft: %w", err)
	}

	bins := len(a.powDry)
	for k := range bins {
		x, y := a.specDry[k], a.specWet[k]
		// X·conj(Y)
		a.crossRe[k] += real(x)*real(y) + imag(x)*imag(y)
		a.crossIm[k] += imag(x)*real(y) - real(x)*imag(y)
	}

	splitInto(a.re, a.im, a.specDry[:bins])
	vecmath.Power(a.scratch, a.re, a.im)
	vecmath.AddBlockInPlace(a.powDry, a.scratch)

	splitInto(a.re, a.im, a.specWet[:bins])
	vecmath.Power(a.scratch, a.re, a.im)
	vecmath.AddBlockInPlace(a.powWet, a.scratch)

	return nil
}

func (a *Analyzer) summarize() Result {
	binHz := a.cfg.SampleRate / float64(a.cfg.FFTSize)
	lo := max(1, int(math.Ceil(a.cfg.MinFreq/binHz)))
	hi := min(len(a.powDry)-1, int(math.Floor(a.cfg.MaxFreq/binHz)))

	var (
		weight, cohSum, devSum float64
		dryEnergy, wetEnergy   float64
	)

	for k := lo; k <= hi; k++ {
		pd, pw := a.powDry[k], a.powWet[k]
		dryEnergy += pd
		wetEnergy += pw

		if pd <= powerFloor {
			continue
		}

		weight += pd

		if pw > powerFloor {
			cross := a.crossRe[k]*a.crossRe[k] + a.crossIm[k]*a.crossIm[k]
			cohSum += pd * math.Min(1, cross/(pd*pw))

			dev := 10 * math.Log10(pw/pd)
			devSum += pd * dev * dev
		} else {
			devSum += pd * 200 * 200 // wet bin silent: cap at -200 dB
		}
	}

	var res Result
	if weight > 0 {
		res.Coherence = cohSum / weight
		res.MagnitudeDeviation_dB = math.Sqrt(devSum / weight)
	}

	switch {
	case dryEnergy > 0 && wetEnergy > 0:
		res.LevelChange_dB = 10 * math.Log10(wetEnergy/dryEnergy)
	case wetEnergy > 0:
		res.LevelChange_dB = math.Inf(1)
	case dryEnergy > 0:
		res.LevelChange_dB = math.Inf(-1)
	}

	res.Dry = a.shape(a.powDry)
	res.Wet = a.shape(a.powWet)

	return res
}

// shape describes the averaged amplitude spectrum of an accumulated power
// spectrum.
func (a *Analyzer) shape(power []float64) frequencystats.Shape {
	for k, p := range power {
		a.scratch[k] = math.Sqrt(p)
	}

	return frequencystats.Describe(a.scratch, a.cfg.SampleRate)
}

func splitInto(re, im []float64, spec []complex128) {
	for k, c := range spec {
		re[k] = real(c)
		im[k] = imag(c)
	}
}

func normalizeConfig(cfg Config) (Config, error) {
	if !(cfg.SampleRate > 0) || math.IsInf(cfg.SampleRate, 0) {
		return cfg, fmt.Errorf("coherence: sample rate must be > 0 and finite: %f", cfg.SampleRate)
	}

	if cfg.FFTSize == 0 {
		cfg.FFTSize = defaultFFTSize
	}

	if cfg.FFTSize < 16 || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		return cfg, fmt.Errorf("coherence: fft size must be a power of two >= 16: %d", cfg.FFTSize)
	}

	if cfg.Hop == 0 {
		cfg.Hop = cfg.FFTSize / 2
	}

	if cfg.Hop < 1 || cfg.Hop > cfg.FFTSize {
		return cfg, fmt.Errorf("coherence: hop must be in [1, %d]: %d", cfg.FFTSize, cfg.Hop)
	}

	if cfg.Window == window.TypeRectangular {
		cfg.Window = window.TypeHann
	}

	if cfg.MinFreq <= 0 {
		cfg.MinFreq = defaultMinFreq
	}

	if cfg.MaxFreq <= 0 {
		cfg.MaxFreq = defaultMaxFreq
	}

	cfg.MaxFreq = min(cfg.MaxFreq, cfg.SampleRate/2)
	if cfg.MinFreq >= cfg.MaxFreq {
		return cfg, fmt.Errorf("coherence: empty band [%g, %g] Hz", cfg.MinFreq, cfg.MaxFreq)
	}

	return cfg, nil
}
