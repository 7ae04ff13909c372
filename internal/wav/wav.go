// Package wav reads and writes WAV files as planar float64 channels.
package wav

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cwbudde/algo-vecmath"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// ErrInvalidFile is returned for inputs that are not WAV files.
var ErrInvalidFile = errors.New("wav: not a valid WAV file")

// Encoding is a sample encoding on disk.
type Encoding int

const (
	EncodingFloat32 Encoding = iota
	EncodingPCM16
	EncodingPCM24
)

func (e Encoding) String() string {
	switch e {
	case EncodingFloat32:
		return "float32"
	case EncodingPCM16:
		return "pcm16"
	case EncodingPCM24:
		return "pcm24"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// ParseEncoding resolves an encoding by name.
func ParseEncoding(name string) (Encoding, error) {
	for _, e := range []Encoding{EncodingFloat32, EncodingPCM16, EncodingPCM24} {
		if e.String() == name {
			return e, nil
		}
	}

	return 0, fmt.Errorf("wav: unknown encoding %q", name)
}

func (e Encoding) bitDepth() int {
	switch e {
	case EncodingPCM16:
		return 16
	case EncodingPCM24:
		return 24
	default:
		return 32
	}
}

func (e Encoding) fullScale() float64 {
	return float64(int64(1)<<(e.bitDepth()-1) - 1)
}

// Audio is decoded audio in planar layout.
type Audio struct {
	SampleRate int
	Channels   [][]float64
	Encoding   Encoding
}

// Frames returns the number of sample frames.
func (a *Audio) Frames() int {
	if len(a.Channels) == 0 {
		return 0
	}

	return len(a.Channels[0])
}

// Duration returns the length in seconds.
func (a *Audio) Duration() float64 {
	if a.SampleRate <= 0 {
		return 0
	}

	return float64(a.Frames()) / float64(a.SampleRate)
}

// Read decodes 16-bit or 24-bit PCM or 32-bit float WAV data.
func Read(r io.ReadSeeker) (*Audio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}

	var (
		enc   Encoding
		float = dec.WavAudioFormat == wavFormatFloat
	)

	switch {
	case float && dec.BitDepth == 32:
		enc = EncodingFloat32
	case !float && dec.BitDepth == 16:
		enc = EncodingPCM16
	case !float && dec.BitDepth == 24:
		enc = EncodingPCM24
	default:
		return nil, fmt.Errorf("wav: unsupported format %d with %d bits", dec.WavAudioFormat, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: decode: %w", err)
	}

	numCh := int(dec.NumChans)
	if numCh < 1 {
		return nil, fmt.Errorf("wav: invalid channel count %d", numCh)
	}

	frames := len(buf.Data) / numCh
	out := &Audio{
		SampleRate: int(dec.SampleRate),
		Channels:   make([][]float64, numCh),
		Encoding:   enc,
	}

	scale := 1 / enc.fullScale()

	for ch := range out.Channels {
		samples := make([]float64, frames)

		for i := range samples {
			v := buf.Data[i*numCh+ch]
			if enc == EncodingFloat32 {
				samples[i] = float64(math.Float32frombits(uint32(int32(v))))
			} else {
				samples[i] = float64(v) * scale
			}
		}

		out.Channels[ch] = samples
	}

	return out, nil
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return a, nil
}

// WriteOptions controls encoding.
type WriteOptions struct {
	Encoding Encoding
	// DitherSeed seeds the TPDF dither applied before integer quantization.
	// Dither is disabled when NoDither is set or for float output.
	DitherSeed int64
	NoDither   bool
}

// Write encodes a to w. All channels must have equal length.
func Write(w io.WriteSeeker, a *Audio, opts WriteOptions) error {
	if a == nil || len(a.Channels) == 0 {
		return errors.New("wav: no channels to write")
	}

	if a.SampleRate <= 0 {
		return fmt.Errorf("wav: invalid sample rate %d", a.SampleRate)
	}

	frames := a.Frames()
	for ch, samples := range a.Channels {
		if len(samples) != frames {
			return fmt.Errorf("wav: channel %d has %d frames, want %d", ch, len(samples), frames)
		}
	}

	enc := opts.Encoding
	format := wavFormatPCM

	if enc == EncodingFloat32 {
		format = wavFormatFloat
	}

	numCh := len(a.Channels)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numCh, SampleRate: a.SampleRate},
		Data:           make([]int, frames*numCh),
		SourceBitDepth: enc.bitDepth(),
	}

	var (
		dither  *vecmath.DitherState
		scratch []float64
	)

	if enc != EncodingFloat32 {
		scratch = make([]float64, frames)
		if !opts.NoDither {
			dither = vecmath.NewDitherState(opts.DitherSeed)
		}
	}

	for ch, samples := range a.Channels {
		if enc == EncodingFloat32 {
			for i, v := range samples {
				buf.Data[i*numCh+ch] = int(int32(math.Float32bits(float32(v))))
			}

			continue
		}

		quantize(scratch, samples, enc.fullScale(), dither)

		for i, v := range scratch {
			buf.Data[i*numCh+ch] = int(v)
		}
	}

	e := wav.NewEncoder(w, a.SampleRate, enc.bitDepth(), numCh, format)
	if err := e.Write(buf); err != nil {
		return fmt.Errorf("wav: encode: %w", err)
	}

	if err := e.Close(); err != nil {
		return fmt.Errorf("wav: finalize: %w", err)
	}

	return nil
}

// WriteFile encodes a into a new file at path.
func WriteFile(path string, a *Audio, opts WriteOptions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return Write(f, a, opts)
}

// quantize scales src to integer full scale, adds optional TPDF dither and
// rounds with clipping into dst.
func quantize(dst, src []float64, fullScale float64, dither *vecmath.DitherState) {
	vecmath.ScaleBlock(dst, src, fullScale)

	if dither != nil {
		vecmath.AddDitherTPDF(dst, 1, dither)
	}

	for i, v := range dst {
		dst[i] = math.Max(-fullScale-1, math.Min(fullScale, math.Round(v)))
	}
}
