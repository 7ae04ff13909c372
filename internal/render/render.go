// Package render runs the decoherence engine over whole files offline.
package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwbudde/algo-qchannel/dsp/effects/decoherence"
	"github.com/cwbudde/algo-qchannel/dsp/param"
	"github.com/cwbudde/algo-qchannel/internal/wav"
	"github.com/cwbudde/algo-qchannel/measure/coherence"
	timestats "github.com/cwbudde/algo-qchannel/stats/time"
)

const (
	DefaultBlockSize = 512

	// progressEvery is the number of blocks between progress callbacks.
	progressEvery = 64
)

// Settings are the user-facing effect parameters.
type Settings struct {
	Dephase  float64
	Damping  float64
	Mix      float64
	AutoGain bool
	Mode     decoherence.Mode
}

// DefaultSettings mirrors the parameter layout defaults.
func DefaultSettings() Settings {
	return Settings{Mix: 1, Mode: decoherence.ModeMono}
}

// Apply writes s into store.
func (s Settings) Apply(store *param.Store) error {
	if s.Mode < decoherence.ModeMono || s.Mode > decoherence.ModeTransientSustain {
		return fmt.Errorf("render: invalid mode %d", int(s.Mode))
	}

	autoGain := 0.0
	if s.AutoGain {
		autoGain = 1
	}

	for _, kv := range []struct {
		id string
		v  float64
	}{
		{param.Dephase, s.Dephase},
		{param.Damping, s.Damping},
		{param.Mix, s.Mix},
		{param.AutoGain, autoGain},
		{param.Mode, float64(s.Mode - decoherence.ModeMono)},
	} {
		if err := store.Set(kv.id, kv.v); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}

	return nil
}

// Progress is reported periodically while rendering.
//
//nolint:revive
type Progress struct {
	Fraction     float64 // 0..1
	OutputRMS_dB float64 // RMS of the last output block, first channel
}

// Options configure a render.
type Options struct {
	BlockSize int
	Engine    []decoherence.Option
	Progress  func(Progress)

	// Analyze enables the dry/wet coherence report on the first channel.
	Analyze bool
	FFTSize int
}

// Report summarizes a render.
type Report struct {
	Frames int
	Blocks int
	Input  []timestats.Stats // per channel
	Output []timestats.Stats

	// Coherence is nil when analysis was disabled or the file is shorter
	// than one analysis frame.
	Coherence *coherence.Result
}

// Render processes in block by block and returns the processed audio.
// The input is not modified.
func Render(ctx context.Context, in *wav.Audio, settings Settings, opts Options) (*wav.Audio, *Report, error) {
	if in == nil || len(in.Channels) == 0 {
		return nil, nil, errors.New("render: no input channels")
	}

	numCh := len(in.Channels)
	if !decoherence.SupportsLayout(numCh, numCh) {
		return nil, nil, fmt.Errorf("render: %d channels not supported", numCh)
	}

	block := opts.BlockSize
	if block <= 0 {
		block = DefaultBlockSize
	}

	store := param.NewDefaultStore()
	if err := settings.Apply(store); err != nil {
		return nil, nil, err
	}

	engineOpts := append([]decoherence.Option{
		decoherence.WithSampleRate(float64(in.SampleRate)),
		decoherence.WithBlockSize(block),
	}, opts.Engine...)

	eng, err := decoherence.New(store, engineOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("render: %w", err)
	}

	frames := in.Frames()
	out := &wav.Audio{
		SampleRate: in.SampleRate,
		Channels:   make([][]float64, numCh),
		Encoding:   in.Encoding,
	}

	buf := make([][]float64, numCh)
	inStats := make([]*timestats.StreamingStats, numCh)
	outStats := make([]*timestats.StreamingStats, numCh)

	for ch := range numCh {
		out.Channels[ch] = make([]float64, frames)
		buf[ch] = make([]float64, block)
		inStats[ch] = timestats.NewStreamingStats()
		outStats[ch] = timestats.NewStreamingStats()
	}

	rep := &Report{Frames: frames}

	for start := 0; start < frames; start += block {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		n := min(block, frames-start)

		for ch := range numCh {
			buf[ch] = buf[ch][:n]
			copy(buf[ch], in.Channels[ch][start:start+n])
			inStats[ch].Update(buf[ch])
		}

		eng.Process(buf, numCh)

		for ch := range numCh {
			outStats[ch].Update(buf[ch])
			copy(out.Channels[ch][start:], buf[ch])
			buf[ch] = buf[ch][:block]
		}

		rep.Blocks++

		if opts.Progress != nil && (rep.Blocks%progressEvery == 0 || start+n == frames) {
			opts.Progress(Progress{
				Fraction:     float64(start+n) / float64(frames),
				OutputRMS_dB: timestats.Calculate(out.Channels[0][start : start+n]).RMS_dB,
			})
		}
	}

	for ch := range numCh {
		rep.Input = append(rep.Input, inStats[ch].Result())
		rep.Output = append(rep.Output, outStats[ch].Result())
	}

	if opts.Analyze {
		res, err := coherence.Analyze(in.Channels[0], out.Channels[0], coherence.Config{
			SampleRate: float64(in.SampleRate),
			FFTSize:    opts.FFTSize,
		})

		switch {
		case err == nil:
			rep.Coherence = &res
		case !errors.Is(err, coherence.ErrTooShort):
			return nil, nil, fmt.Errorf("render: %w", err)
		}
	}

	return out, rep, nil
}
