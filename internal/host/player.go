//go:build !headless

package host

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player streams interleaved float32 PCM to the default audio device.
// Only one Player may exist per process.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
}

// NewPlayer opens the audio device and attaches r as the sample source.
func NewPlayer(sampleRate, channels int, r io.Reader) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   40 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("host: open audio device: %w", err)
	}
	<-ready

	return &Player{ctx: ctx, player: ctx.NewPlayer(r)}, nil
}

// Play starts playback.
func (p *Player) Play() { p.player.Play() }

// Wait blocks until the source is drained or ctx is done.
func (p *Player) Wait(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for p.player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return nil
}

// Close stops playback and releases the player.
func (p *Player) Close() error {
	return p.player.Close()
}
