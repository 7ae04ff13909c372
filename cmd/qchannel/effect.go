package main

import (
	"fmt"

	"github.com/cwbudde/algo-qchannel/dsp/effects/decoherence"
	"github.com/cwbudde/algo-qchannel/dsp/quantum"
	"github.com/cwbudde/algo-qchannel/internal/render"
)

var modeNames = map[string]decoherence.Mode{
	"mono": decoherence.ModeMono,
	"lr":   decoherence.ModeLeftRight,
	"ms":   decoherence.ModeMidSide,
	"ts":   decoherence.ModeTransientSustain,
}

// EffectFlags are the effect parameters and engine options shared by the
// processing commands.
type EffectFlags struct {
	Dephase   float64 `short:"d" default:"0.5" help:"Dephasing amount (0..1)."`
	Damping   float64 `short:"g" default:"0.3" help:"Damping amount (0..1)."`
	Mix       float64 `short:"m" default:"1" help:"Dry/wet mix (0..1)."`
	AutoGain  bool    `name:"autogain" help:"Match output level to input."`
	Mode      string  `default:"mono" enum:"mono,lr,ms,ts" help:"Channel mode (${enum})."`
	Policy    string  `default:"character" enum:"character,precision" help:"Operator policy (${enum})."`
	Split     string  `default:"paired" enum:"paired,complementary" help:"Transient/sustain band split (${enum})."`
	Crossover float64 `default:"800" help:"Transient/sustain crossover in Hz."`
	Block     int     `default:"512" help:"Processing block size in frames."`
	Seed      uint64  `default:"0" help:"Random seed for the dephasing operator (0 uses the built-in seed)."`
}

// Settings converts the flags to render settings.
func (f *EffectFlags) Settings() (render.Settings, error) {
	mode, ok := modeNames[f.Mode]
	if !ok {
		return render.Settings{}, fmt.Errorf("unknown mode %q", f.Mode)
	}

	for name, v := range map[string]float64{"dephase": f.Dephase, "damping": f.Damping, "mix": f.Mix} {
		if v < 0 || v > 1 {
			return render.Settings{}, fmt.Errorf("--%s must be within [0, 1]: %g", name, v)
		}
	}

	return render.Settings{
		Dephase:  f.Dephase,
		Damping:  f.Damping,
		Mix:      f.Mix,
		AutoGain: f.AutoGain,
		Mode:     mode,
	}, nil
}

// EngineOptions converts the flags to engine options.
func (f *EffectFlags) EngineOptions() ([]decoherence.Option, error) {
	policy, err := quantum.ParsePolicy(f.Policy)
	if err != nil {
		return nil, err
	}

	split := decoherence.SplitPaired
	if f.Split == "complementary" {
		split = decoherence.SplitComplementary
	}

	opts := []decoherence.Option{
		decoherence.WithPolicy(policy),
		decoherence.WithSplit(split),
		decoherence.WithCrossoverFreq(f.Crossover),
	}

	if f.Seed != 0 {
		opts = append(opts, decoherence.WithSeed(f.Seed))
	}

	return opts, nil
}
