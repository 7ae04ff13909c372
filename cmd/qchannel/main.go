// Command qchannel applies the quantum noise channel effect to audio files
// offline or streams it to the audio device in real time.
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/cwbudde/algo-qchannel/dsp/effects/decoherence"
	"github.com/cwbudde/algo-qchannel/internal/cli"
)

var version = "0.1.0"

// Globals are flags shared by every command.
type Globals struct {
	Version  kong.VersionFlag `short:"v" help:"Show version information."`
	DebugLog string           `name:"debug-log" type:"path" help:"Append debug output to this file."`

	ctx context.Context
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Render  RenderCmd  `cmd:"" help:"Process WAV files offline."`
	Play    PlayCmd    `cmd:"" help:"Stream a file or test tone through the effect in real time."`
	Params  ParamsCmd  `cmd:"" help:"Print the parameter layout."`
	Analyze AnalyzeCmd `cmd:"" help:"Compare a processed file against its dry source."`
}

func main() {
	var c CLI

	kctx := kong.Parse(&c,
		kong.Name("qchannel"),
		kong.Description(decoherence.Name+": complex-amplitude decoherence for audio"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Help(cli.StyledHelpPrinter(decoherence.Name)),
	)

	closeLog := setupDebugLog(c.DebugLog)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c.ctx = ctx

	if err := kctx.Run(&c.Globals); err != nil {
		log.Printf("command failed: %v", err)
		cli.PrintError(err.Error())
		closeLog()
		os.Exit(1)
	}
}

// setupDebugLog routes the standard logger to path, or discards it.
func setupDebugLog(path string) func() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	log.SetPrefix("[qchannel] ")

	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("open debug log: %v", err)
	}

	log.SetOutput(f)

	return func() { _ = f.Close() }
}
