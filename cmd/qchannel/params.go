package main

import (
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-qchannel/dsp/effects/decoherence"
	"github.com/cwbudde/algo-qchannel/dsp/filter/design"
	"github.com/cwbudde/algo-qchannel/dsp/param"
	"github.com/cwbudde/algo-qchannel/internal/cli"
)

// ParamsCmd prints the parameter layout and the transient/sustain crossover.
type ParamsCmd struct {
	Set       map[string]string `short:"s" help:"Preview values, e.g. --set DEPHASE=0.4 --set MODE=M/S."`
	Crossover float64           `default:"800" help:"Transient/sustain crossover in Hz."`
	Rate      float64           `default:"48000" help:"Sample rate the crossover is designed for."`
}

func (c *ParamsCmd) Run(_ *Globals) error {
	store := param.NewDefaultStore()

	for id, text := range c.Set {
		if err := store.SetText(id, text); err != nil {
			return err
		}
	}

	eng, err := decoherence.New(store,
		decoherence.WithSampleRate(c.Rate),
		decoherence.WithCrossoverFreq(c.Crossover),
	)
	if err != nil {
		return err
	}

	xo, err := crossoverAt(c.Crossover, c.Rate)
	if err != nil {
		return err
	}

	fmt.Println(cli.TitleStyle.Render(decoherence.Name))
	fmt.Println(cli.SubtitleStyle.Render(fmt.Sprintf("tail %gs, MIDI input %t, layouts mono %t stereo %t",
		eng.TailLengthSeconds(), eng.AcceptsMIDI(),
		decoherence.SupportsLayout(1, 1), decoherence.SupportsLayout(2, 2))))
	fmt.Println()
	cli.WriteParams(os.Stdout, store)
	fmt.Println()
	cli.PrintKeyValue(os.Stdout, "Crossover", fmt.Sprintf("%g Hz at %g Hz", c.Crossover, c.Rate))
	cli.PrintKeyValue(os.Stdout, "Sustain band", fmt.Sprintf("%+.2f dB", xo.SustainDB))
	cli.PrintKeyValue(os.Stdout, "Transient band", fmt.Sprintf("%+.2f dB", xo.TransientDB))
	cli.PrintKeyValue(os.Stdout, "Phase split", fmt.Sprintf("%.1f°", xo.PhaseSplit))

	return nil
}

// crossover describes the split filters at their cutoff.
type crossover struct {
	SustainDB   float64 // low-pass level
	TransientDB float64 // high-pass level
	PhaseSplit  float64 // |phase(hp) - phase(lp)| in degrees
}

func crossoverAt(freq, sampleRate float64) (crossover, error) {
	lp, hp, err := design.SplitPair(freq, sampleRate)
	if err != nil {
		return crossover{}, err
	}

	split := math.Abs(hp.Phase(freq, sampleRate) - lp.Phase(freq, sampleRate))

	return crossover{
		SustainDB:   lp.MagnitudeDB(freq, sampleRate),
		TransientDB: hp.MagnitudeDB(freq, sampleRate),
		PhaseSplit:  split * 180 / math.Pi,
	}, nil
}
