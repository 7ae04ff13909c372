// Package host drives the decoherence engine in real time: sources feed
// planar blocks, Stream runs them through the engine and exposes the result
// as interleaved float32 PCM for an audio device.
package host

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-qchannel/dsp/effects/decoherence"
	"github.com/cwbudde/algo-qchannel/dsp/signal"
	"github.com/cwbudde/algo-qchannel/internal/wav"
)

const bytesPerSample = 4

// Source produces planar audio blocks.
type Source interface {
	// Channels returns the number of channels Fill writes.
	Channels() int
	// Fill writes up to len(buf[0]) frames into every channel and returns
	// the number of frames written. Zero means the source is exhausted.
	Fill(buf [][]float64) int
}

// FileSource plays decoded audio, optionally looping.
type FileSource struct {
	audio *wav.Audio
	pos   int
	loop  bool
}

// NewFileSource returns a source over a.
func NewFileSource(a *wav.Audio, loop bool) (*FileSource, error) {
	if a == nil || len(a.Channels) == 0 || a.Frames() == 0 {
		return nil, errors.New("host: empty audio")
	}

	return &FileSource{audio: a, loop: loop}, nil
}

func (f *FileSource) Channels() int { return len(f.audio.Channels) }

func (f *FileSource) Fill(buf [][]float64) int {
	frames := f.audio.Frames()
	want := len(buf[0])
	n := 0

	for n < want {
		if f.pos >= frames {
			if !f.loop {
				break
			}

			f.pos = 0
		}

		k := min(want-n, frames-f.pos)
		for ch, dst := range buf {
			copy(dst[n:n+k], f.audio.Channels[ch][f.pos:f.pos+k])
		}

		n += k
		f.pos += k
	}

	return n
}

// ToneSource is an endless oscillator, duplicated to every channel.
type ToneSource struct {
	osc      *signal.Oscillator
	channels int
}

// NewToneSource wraps osc as a source with the given channel count.
func NewToneSource(osc *signal.Oscillator, channels int) (*ToneSource, error) {
	if osc == nil {
		return nil, errors.New("host: nil oscillator")
	}

	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("host: unsupported channel count %d", channels)
	}

	return &ToneSource{osc: osc, channels: channels}, nil
}

func (t *ToneSource) Channels() int { return t.channels }

func (t *ToneSource) Fill(buf [][]float64) int {
	t.osc.Fill(buf[0])

	for _, dst := range buf[1:] {
		copy(dst, buf[0])
	}

	return len(buf[0])
}

// Stream is an io.Reader producing interleaved little-endian float32 PCM
// of the processed source. Read must not be called concurrently.
type Stream struct {
	src      Source
	eng      *decoherence.Engine
	channels int
	block    [][]float64
	out      []byte
	pending  []byte
	done     bool

	frames   atomic.Int64
	peakBits atomic.Uint64
}

// NewStream connects src to eng, processing blockSize frames at a time.
func NewStream(src Source, eng *decoherence.Engine, blockSize int) (*Stream, error) {
	if src == nil || eng == nil {
		return nil, errors.New("host: nil source or engine")
	}

	ch := src.Channels()
	if !decoherence.SupportsLayout(ch, ch) {
		return nil, fmt.Errorf("host: unsupported channel count %d", ch)
	}

	if blockSize <= 0 {
		return nil, fmt.Errorf("host: block size must be > 0: %d", blockSize)
	}

	block := make([][]float64, ch)
	for i := range block {
		block[i] = make([]float64, blockSize)
	}

	return &Stream{
		src:      src,
		eng:      eng,
		channels: ch,
		block:    block,
		out:      make([]byte, blockSize*ch*bytesPerSample),
	}, nil
}

// Channels returns the interleaved channel count.
func (s *Stream) Channels() int { return s.channels }

// Frames returns the number of frames rendered so far. Safe for concurrent use.
func (s *Stream) Frames() int64 { return s.frames.Load() }

// Peak returns and resets the output peak since the last call. Safe for
// concurrent use.
func (s *Stream) Peak() float64 {
	return math.Float64frombits(s.peakBits.Swap(0))
}

func (s *Stream) Read(p []byte) (int, error) {
	written := 0

	for written < len(p) {
		if len(s.pending) == 0 {
			if s.done || !s.render() {
				s.done = true
				break
			}
		}

		k := copy(p[written:], s.pending)
		s.pending = s.pending[k:]
		written += k
	}

	if written == 0 && s.done {
		return 0, io.EOF
	}

	return written, nil
}

// render processes the next block into pending and reports whether the
// source produced any frames.
func (s *Stream) render() bool {
	size := len(s.block[0])
	for ch := range s.block {
		s.block[ch] = s.block[ch][:size]
	}

	n := s.src.Fill(s.block)
	if n == 0 {
		return false
	}

	for ch := range s.block {
		s.block[ch] = s.block[ch][:n]
	}

	s.eng.Process(s.block, s.channels)

	peak := 0.0
	out := s.out[:n*s.channels*bytesPerSample]

	for i := range n {
		for ch, samples := range s.block {
			v := samples[i]
			peak = max(peak, math.Abs(v))
			binary.LittleEndian.PutUint32(out[(i*s.channels+ch)*bytesPerSample:], math.Float32bits(float32(v)))
		}
	}

	s.pending = out
	s.frames.Add(int64(n))

	for {
		old := s.peakBits.Load()
		if peak <= math.Float64frombits(old) || s.peakBits.CompareAndSwap(old, math.Float64bits(peak)) {
			break
		}
	}

	return true
}
