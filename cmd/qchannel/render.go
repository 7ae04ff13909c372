package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwbudde/algo-qchannel/dsp/effects/decoherence"
	"github.com/cwbudde/algo-qchannel/internal/cli"
	"github.com/cwbudde/algo-qchannel/internal/render"
	"github.com/cwbudde/algo-qchannel/internal/ui"
	"github.com/cwbudde/algo-qchannel/internal/wav"
)

// RenderCmd processes files offline.
type RenderCmd struct {
	EffectFlags `embed:""`

	Files    []string `arg:"" name:"files" type:"existingfile" help:"WAV files to process."`
	OutDir   string   `short:"o" name:"out-dir" type:"path" help:"Output directory (defaults to each input's directory)."`
	Encoding string   `short:"e" default:"source" enum:"source,float32,pcm16,pcm24" help:"Output sample encoding (${enum})."`
	NoDither bool     `name:"no-dither" help:"Disable TPDF dither for integer output."`
	Analyze  bool     `default:"true" negatable:"" help:"Report dry/wet spectral coherence."`
	FFT      int      `default:"4096" help:"FFT size for the coherence report."`
	Plain    bool     `help:"Plain console output instead of the progress view."`
}

func (r *RenderCmd) Run(g *Globals) error {
	settings, err := r.Settings()
	if err != nil {
		return err
	}

	engineOpts, err := r.EngineOptions()
	if err != nil {
		return err
	}

	if r.OutDir != "" {
		if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	job := renderJob{cmd: r, settings: settings, engineOpts: engineOpts}

	if r.Plain {
		return job.runPlain(g.ctx)
	}

	return job.runTUI(g.ctx)
}

type renderJob struct {
	cmd        *RenderCmd
	settings   render.Settings
	engineOpts []decoherence.Option
}

// outputPath returns <dir>/<name>.qchannel.wav for an input path.
func outputPath(input, outDir string) string {
	dir := filepath.Dir(input)
	if outDir != "" {
		dir = outDir
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

	return filepath.Join(dir, base+".qchannel.wav")
}

func (j *renderJob) renderFile(ctx context.Context, input string, progress func(render.Progress)) (string, *render.Report, error) {
	log.Printf("render %s: %+v", input, j.settings)

	in, err := wav.ReadFile(input)
	if err != nil {
		return "", nil, err
	}

	out, rep, err := render.Render(ctx, in, j.settings, render.Options{
		BlockSize: j.cmd.Block,
		Engine:    j.engineOpts,
		Progress:  progress,
		Analyze:   j.cmd.Analyze,
		FFTSize:   j.cmd.FFT,
	})
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", input, err)
	}

	enc := in.Encoding
	if j.cmd.Encoding != "source" {
		if enc, err = wav.ParseEncoding(j.cmd.Encoding); err != nil {
			return "", nil, err
		}
	}

	path := outputPath(input, j.cmd.OutDir)
	if err := wav.WriteFile(path, out, wav.WriteOptions{Encoding: enc, NoDither: j.cmd.NoDither}); err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Printf("wrote %s (%d frames, %d blocks)", path, rep.Frames, rep.Blocks)

	return path, rep, nil
}

func (j *renderJob) runPlain(ctx context.Context) error {
	failed := 0

	for _, input := range j.cmd.Files {
		fmt.Println(cli.TitleStyle.Render(filepath.Base(input)))

		path, rep, err := j.renderFile(ctx, input, nil)
		if err != nil {
			cli.PrintError(err.Error())
			failed++

			if ctx.Err() != nil {
				return ctx.Err()
			}

			continue
		}

		cli.PrintKeyValue(os.Stdout, "Output", path)
		fmt.Println()
		cli.WriteReport(os.Stdout, rep)
		fmt.Println()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(j.cmd.Files))
	}

	return nil
}

func (j *renderJob) runTUI(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	p := tea.NewProgram(ui.NewModel(decoherence.Name, j.cmd.Files))

	go func() {
		for i, input := range j.cmd.Files {
			p.Send(ui.FileStartMsg{FileIndex: i})

			path, rep, err := j.renderFile(ctx, input, func(pr render.Progress) {
				p.Send(ui.ProgressMsg{Progress: pr})
			})
			if err != nil {
				log.Printf("render %s failed: %v", input, err)
			}

			p.Send(ui.FileCompleteMsg{FileIndex: i, OutputPath: path, Report: rep, Err: err})

			if ctx.Err() != nil {
				break
			}
		}

		p.Send(ui.AllCompleteMsg{})
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("ui: %w", err)
	}

	if m, ok := final.(ui.Model); ok {
		if m.Cancelled {
			cancel()
			return context.Canceled
		}

		if m.Failed > 0 {
			return fmt.Errorf("%d of %d file(s) failed", m.Failed, len(j.cmd.Files))
		}
	}

	return nil
}
