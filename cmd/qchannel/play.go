package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/cwbudde/algo-qchannel/dsp/core"
	"github.com/cwbudde/algo-qchannel/dsp/effects/decoherence"
	"github.com/cwbudde/algo-qchannel/dsp/param"
	"github.com/cwbudde/algo-qchannel/dsp/signal"
	"github.com/cwbudde/algo-qchannel/internal/cli"
	"github.com/cwbudde/algo-qchannel/internal/host"
	"github.com/cwbudde/algo-qchannel/internal/wav"
)

// PlayCmd streams audio through the engine to the default output device.
type PlayCmd struct {
	EffectFlags `embed:""`

	File     string        `arg:"" optional:"" type:"existingfile" help:"WAV file to play; a test tone is generated when omitted."`
	Loop     bool          `help:"Loop the input file."`
	Wave     string        `default:"saw" enum:"sine,saw,square,noise,bursts" help:"Test tone waveform (${enum}); bursts are decaying noise hits for the T/S mode."`
	Freq     float64       `default:"220" help:"Test tone frequency in Hz."`
	Amp      float64       `default:"0.3" help:"Test tone amplitude."`
	Rate     int           `default:"48000" help:"Test tone sample rate."`
	Stereo   bool          `help:"Generate a stereo test tone."`
	Duration time.Duration `default:"0s" help:"Stop after this long; 0 plays until the source ends."`
}

func (c *PlayCmd) Run(g *Globals) error {
	settings, err := c.Settings()
	if err != nil {
		return err
	}

	engineOpts, err := c.EngineOptions()
	if err != nil {
		return err
	}

	src, rate, label, err := c.source()
	if err != nil {
		return err
	}

	store := param.NewDefaultStore()
	if err := settings.Apply(store); err != nil {
		return err
	}

	eng, err := decoherence.New(store, append([]decoherence.Option{
		decoherence.WithSampleRate(float64(rate)),
		decoherence.WithBlockSize(c.Block),
	}, engineOpts...)...)
	if err != nil {
		return err
	}

	stream, err := host.NewStream(src, eng, c.Block)
	if err != nil {
		return err
	}

	player, err := host.NewPlayer(rate, stream.Channels(), stream)
	if err != nil {
		return err
	}
	defer player.Close()

	ctx := g.ctx
	if c.Duration > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.Duration)
		defer cancel()
	}

	fmt.Println(cli.TitleStyle.Render(decoherence.Name))
	cli.PrintKeyValue(os.Stdout, "Source", label)
	cli.PrintKeyValue(os.Stdout, "Mode", settings.Mode.String())
	cli.PrintKeyValue(os.Stdout, "Policy", eng.Policy().String())
	log.Printf("play %s at %d Hz, %d channel(s)", label, rate, stream.Channels())

	player.Play()

	done := make(chan struct{})
	go meter(stream, rate, done)

	err = player.Wait(ctx)

	close(done)
	fmt.Println()

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func (c *PlayCmd) source() (host.Source, int, string, error) {
	if c.File != "" {
		a, err := wav.ReadFile(c.File)
		if err != nil {
			return nil, 0, "", err
		}

		src, err := host.NewFileSource(a, c.Loop)
		if err != nil {
			return nil, 0, "", err
		}

		return src, a.SampleRate, filepath.Base(c.File), nil
	}

	if c.Wave == burstWave {
		return c.burstSource()
	}

	wave, err := signal.ParseWaveform(c.Wave)
	if err != nil {
		return nil, 0, "", err
	}

	osc, err := signal.NewOscillator(wave, c.Freq, c.Amp, 1, core.WithSampleRate(float64(c.Rate)))
	if err != nil {
		return nil, 0, "", err
	}

	channels := 1
	if c.Stereo {
		channels = 2
	}

	src, err := host.NewToneSource(osc, channels)
	if err != nil {
		return nil, 0, "", err
	}

	return src, c.Rate, fmt.Sprintf("%s %.0f Hz", wave, c.Freq), nil
}

const (
	burstWave   = "bursts"
	burstPeriod = 0.25 // seconds between hits
	burstDecay  = 0.03
)

// burstSource loops one second of decaying noise bursts.
func (c *PlayCmd) burstSource() (host.Source, int, string, error) {
	x, err := signal.Bursts(float64(c.Rate), burstPeriod, burstDecay, c.Amp, c.Rate, 1)
	if err != nil {
		return nil, 0, "", err
	}

	channels := [][]float64{x}
	if c.Stereo {
		channels = append(channels, append([]float64(nil), x...))
	}

	src, err := host.NewFileSource(&wav.Audio{SampleRate: c.Rate, Channels: channels}, true)
	if err != nil {
		return nil, 0, "", err
	}

	return src, c.Rate, fmt.Sprintf("bursts every %.0f ms", burstPeriod*1000), nil
}

// meter prints elapsed time and output peak until done is closed.
func meter(stream *host.Stream, rate int, done <-chan struct{}) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			peak := stream.Peak()
			db := math.Inf(-1)

			if peak > 0 {
				db = 20 * math.Log10(peak)
			}

			fmt.Printf("\r  %s %6.1fs  %s %6s dBFS ",
				cli.KeyStyle.Render("time"), float64(stream.Frames())/float64(rate),
				cli.KeyStyle.Render("peak"), cli.FormatMetric(db, 1))
		}
	}
}
