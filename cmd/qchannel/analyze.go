package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/algo-qchannel/internal/cli"
	"github.com/cwbudde/algo-qchannel/internal/wav"
	"github.com/cwbudde/algo-qchannel/measure/coherence"
)

// AnalyzeCmd compares a wet file against its dry source.
type AnalyzeCmd struct {
	Dry     string `arg:"" type:"existingfile" help:"Unprocessed WAV file."`
	Wet     string `arg:"" type:"existingfile" help:"Processed WAV file."`
	Channel int    `short:"c" default:"0" help:"Channel index to compare."`
	FFT     int    `default:"4096" help:"FFT size (power of two)."`
	Hop     int    `default:"0" help:"Frame hop in samples (0 = half the FFT size)."`
}

func (c *AnalyzeCmd) Run(_ *Globals) error {
	dry, err := wav.ReadFile(c.Dry)
	if err != nil {
		return err
	}

	wet, err := wav.ReadFile(c.Wet)
	if err != nil {
		return err
	}

	if dry.SampleRate != wet.SampleRate {
		return fmt.Errorf("sample rates differ: %d vs %d Hz", dry.SampleRate, wet.SampleRate)
	}

	if c.Channel < 0 || c.Channel >= len(dry.Channels) || c.Channel >= len(wet.Channels) {
		return fmt.Errorf("channel %d out of range", c.Channel)
	}

	res, err := coherence.Analyze(dry.Channels[c.Channel], wet.Channels[c.Channel], coherence.Config{
		SampleRate: float64(dry.SampleRate),
		FFTSize:    c.FFT,
		Hop:        c.Hop,
	})
	if err != nil {
		return err
	}

	fmt.Println(cli.TitleStyle.Render("Coherence report"))
	cli.PrintKeyValue(os.Stdout, "Dry", c.Dry)
	cli.PrintKeyValue(os.Stdout, "Wet", c.Wet)
	fmt.Println()
	cli.WriteCoherence(os.Stdout, res)

	return nil
}
