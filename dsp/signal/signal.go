// Package signal provides test and demo signal sources for driving the
// effect engine: a phase-continuous oscillator for real-time playback and
// one-shot generators for offline material.
package signal

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-qchannel/dsp/core"
)

// Waveform selects the oscillator shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveNoise
)

var waveformNames = [...]string{"sine", "saw", "square", "noise"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}

	return waveformNames[w]
}

// ParseWaveform resolves a waveform by name.
func ParseWaveform(name string) (Waveform, error) {
	for i, n := range waveformNames {
		if n == name {
			return Waveform(i), nil
		}
	}

	return 0, fmt.Errorf("signal: unknown waveform %q", name)
}

// Oscillator is a streaming, phase-continuous signal source. Fill can be
// called block by block from an audio callback without allocating.
type Oscillator struct {
	wave      Waveform
	freq      float64
	amplitude float64
	phase     float64 // cycles, [0,1)
	step      float64
	rng       *rand.Rand
}

// NewOscillator creates an oscillator at freqHz. The noise waveform ignores
// the frequency.
func NewOscillator(wave Waveform, freqHz, amplitude float64, seed uint64, opts ...core.ProcessorOption) (*Oscillator, error) {
	cfg := core.ApplyProcessorOptions(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if wave < WaveSine || wave > WaveNoise {
		return nil, fmt.Errorf("signal: invalid waveform %d", int(wave))
	}

	if wave != WaveNoise && (!(freqHz > 0) || freqHz >= cfg.SampleRate/2) {
		return nil, fmt.Errorf("signal: frequency must be in (0, %g): %g", cfg.SampleRate/2, freqHz)
	}

	return &Oscillator{
		wave:      wave,
		freq:      freqHz,
		amplitude: amplitude,
		step:      freqHz / cfg.SampleRate,
		rng:       rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb)),
	}, nil
}

// Frequency returns the oscillator frequency in Hz.
func (o *Oscillator) Frequency() float64 { return o.freq }

// Fill overwrites dst with the next len(dst) samples.
func (o *Oscillator) Fill(dst []float64) {
	for i := range dst {
		var v float64

		switch o.wave {
		case WaveSine:
			v = math.Sin(2 * math.Pi * o.phase)
		case WaveSaw:
			v = 2*o.phase - 1
		case WaveSquare:
			v = 1
			if o.phase >= 0.5 {
				v = -1
			}
		case WaveNoise:
			v = 2*o.rng.Float64() - 1
		}

		dst[i] = o.amplitude * v

		o.phase += o.step
		if o.phase >= 1 {
			o.phase -= 1
		}
	}
}

// Reset rewinds the phase to zero.
func (o *Oscillator) Reset() { o.phase = 0 }

// Generate renders n samples of the given waveform.
func Generate(wave Waveform, freqHz, amplitude float64, n int, seed uint64, opts ...core.ProcessorOption) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("signal: length must be > 0: %d", n)
	}

	osc, err := NewOscillator(wave, freqHz, amplitude, seed, opts...)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	osc.Fill(out)

	return out, nil
}

// Bursts renders exponentially decaying noise bursts every period seconds,
// useful for exercising transient handling. decay is the time constant in
// seconds.
func Bursts(sampleRate, period, decay, amplitude float64, n int, seed uint64) ([]float64, error) {
	switch {
	case !(sampleRate > 0):
		return nil, fmt.Errorf("signal: sample rate must be > 0: %g", sampleRate)
	case !(period > 0) || !(decay > 0):
		return nil, fmt.Errorf("signal: period and decay must be > 0: %g, %g", period, decay)
	case n <= 0:
		return nil, fmt.Errorf("signal: length must be > 0: %d", n)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb))
	interval := max(1, int(period*sampleRate))
	k := math.Exp(-1 / (decay * sampleRate))

	out := make([]float64, n)
	env := 0.0

	for i := range out {
		if i%interval == 0 {
			env = 1
		}

		out[i] = amplitude * env * (2*rng.Float64() - 1)
		env *= k
	}

	return out, nil
}

// Normalize scales data in place to the given peak and returns the applied
// gain. Silent input is left untouched and yields gain 0.
func Normalize(data []float64, targetPeak float64) (float64, error) {
	if targetPeak < 0 || math.IsNaN(targetPeak) {
		return 0, fmt.Errorf("signal: target peak must be >= 0: %g", targetPeak)
	}

	peak := vecmath.MaxAbs(data)
	if peak == 0 {
		return 0, nil
	}

	gain := targetPeak / peak
	vecmath.ScaleBlockInPlace(data, gain)

	return gain, nil
}
