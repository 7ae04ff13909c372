//go:build headless

package host

import (
	"context"
	"errors"
	"io"
)

// ErrNoAudio is returned by NewPlayer in headless builds.
var ErrNoAudio = errors.New("host: audio output not available in headless build")

// Player is unavailable in headless builds.
type Player struct{}

func NewPlayer(sampleRate, channels int, r io.Reader) (*Player, error) {
	return nil, ErrNoAudio
}

func (p *Player) Play() {}

func (p *Player) Wait(ctx context.Context) error { return ErrNoAudio }

func (p *Player) Close() error { return nil }
