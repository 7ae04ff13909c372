package frequency

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func makeSingleBinSpectrum(n, bin int, amplitude float64) []float64 {
	mag := make([]float64, n)
	if bin >= 0 && bin < n {
		mag[bin] = amplitude
	}

	return mag
}

func makeFlatSpectrum(n int, amplitude float64) []float64 {
	mag := make([]float64, n)
	for i := range mag {
		mag[i] = amplitude
	}

	return mag
}

func TestCentroid(t *testing.T) {
	tests := []struct {
		name string
		mag  []float64
		want float64
	}{
		{name: "empty", mag: nil, want: 0},
		{name: "single bin", mag: makeSingleBinSpectrum(513, 128, 1), want: 128 * 48000.0 / 1024},
		{name: "silence", mag: make([]float64, 9), want: 0},
		{name: "symmetric", mag: []float64{0, 1, 2, 1, 0}, want: 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := 48000.0
			if tt.name == "symmetric" {
				sr = 8000
			}

			if got := Centroid(tt.mag, sr); math.Abs(got-tt.want) > tolerance {
				t.Fatalf("Centroid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlatness(t *testing.T) {
	if got := Flatness(makeFlatSpectrum(257, 0.3)); math.Abs(got-1) > tolerance {
		t.Fatalf("flat spectrum: %v, want 1", got)
	}

	if got := Flatness(makeSingleBinSpectrum(257, 20, 1)); got != 0 {
		t.Fatalf("tonal spectrum: %v, want 0", got)
	}

	peaky := makeFlatSpectrum(257, 0.01)
	peaky[40] = 10

	if got := Flatness(peaky); got <= 0 || got >= 0.5 {
		t.Fatalf("peaky spectrum flatness = %v, want in (0, 0.5)", got)
	}
}

func TestRolloff(t *testing.T) {
	mag := makeSingleBinSpectrum(9, 3, 1)
	if got := Rolloff(mag, 16000, 0.85); got != 3000 {
		t.Fatalf("Rolloff() = %v, want 3000", got)
	}

	if got := Rolloff(make([]float64, 9), 16000, 0.85); got != 0 {
		t.Fatalf("silent Rolloff() = %v, want 0", got)
	}
}

func TestDescribe(t *testing.T) {
	mag := []float64{0, 1, 2, 1, 0}

	s := Describe(mag, 8000)
	if math.Abs(s.Centroid-2000) > tolerance {
		t.Errorf("Centroid = %v", s.Centroid)
	}

	// Weighted variance: (1·1000² + 0 + 1·1000²) / 4.
	if want := math.Sqrt(0.5) * 1000; math.Abs(s.Spread-want) > 1e-6 {
		t.Errorf("Spread = %v, want %v", s.Spread, want)
	}

	if s.Rolloff != 3000 {
		t.Errorf("Rolloff = %v, want 3000", s.Rolloff)
	}

	if s.Flatness != 0 {
		t.Errorf("Flatness = %v, want 0 (zero bin)", s.Flatness)
	}

	if (Describe(nil, 8000) != Shape{}) {
		t.Error("empty spectrum should describe as zero")
	}
}
