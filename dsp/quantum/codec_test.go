package quantum

import (
	"math"
	"testing"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	src := []float64{0.5, -0.25, 1, 0, -1}
	seq := make([]complex128, len(src))

	if n := Encode(seq, src); n != len(src) {
		t.Fatalf("Encode() = %d, want %d", n, len(src))
	}

	for i, a := range seq {
		if real(a) != src[i] || imag(a) != 0 {
			t.Fatalf("seq[%d] = %v, want (%v+0i)", i, a, src[i])
		}
	}

	out := make([]float64, len(src))
	Decode(out, seq)

	for i := range src {
		if out[i] != src[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], src[i])
		}
	}
}

func TestEncode_ShortDestination(t *testing.T) {
	seq := make([]complex128, 2)
	if n := Encode(seq, []float64{1, 2, 3}); n != 2 {
		t.Fatalf("Encode() = %d, want 2", n)
	}

	if n := Decode(make([]float64, 1), seq); n != 1 {
		t.Fatalf("Decode() = %d, want 1", n)
	}
}

func TestEncodeNormalized_UnitEnergy(t *testing.T) {
	src := []float64{0.3, -0.4, 0.2, 0.1}
	seq := make([]complex128, len(src))

	scale := EncodeNormalized(seq, src)
	if want := math.Sqrt(0.09 + 0.16 + 0.04 + 0.01); math.Abs(scale-want) > 1e-15 {
		t.Fatalf("scale = %v, want %v", scale, want)
	}

	if e := Energy(seq); math.Abs(e-1) > 1e-12 {
		t.Fatalf("Energy() = %v, want 1", e)
	}

	out := make([]float64, len(src))
	DecodeScaled(out, seq, scale)

	for i := range src {
		if math.Abs(out[i]-src[i]) > 1e-15 {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], src[i])
		}
	}
}

func TestEncodeNormalized_SilenceStaysSilent(t *testing.T) {
	tests := []struct {
		name string
		src  []float64
	}{
		{name: "zeros", src: make([]float64, 32)},
		{name: "below threshold", src: []float64{1e-7, -1e-7}},
		{name: "empty", src: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := make([]complex128, len(tt.src))
			if scale := EncodeNormalized(seq, tt.src); scale != 1 {
				t.Fatalf("scale = %v, want 1", scale)
			}

			out := make([]float64, len(tt.src))
			DecodeScaled(out, seq, 1)

			for i, v := range out {
				if math.IsNaN(v) || v != tt.src[i] {
					t.Fatalf("out[%d] = %v, want %v", i, v, tt.src[i])
				}
			}
		})
	}
}

func TestEnergy(t *testing.T) {
	if got := Energy([]complex128{3 + 4i, 1}); got != 26 {
		t.Fatalf("Energy() = %v, want 26", got)
	}

	if got := Energy(nil); got != 0 {
		t.Fatalf("Energy(nil) = %v, want 0", got)
	}
}
