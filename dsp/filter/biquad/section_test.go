package biquad

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-qchannel/internal/testutil"
)

const eps = 1e-12

// testCoeffs has complex poles at radius √0.2, well inside the unit circle.
var testCoeffs = Coefficients{B0: 0.2, B1: 0.4, B2: 0.2, A1: -0.6, A2: 0.2}

func excitation(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(0.37*float64(i)) + 0.25*math.Cos(1.9*float64(i))
	}

	return x
}

func assertClose(t *testing.T, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length %d, want %d", len(got), len(want))
	}

	for i := range want {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("[%d] = %.15g, want %.15g", i, got[i], want[i])
		}
	}
}

func TestSection_ImpulseResponse(t *testing.T) {
	tests := []struct {
		name string
		c    Coefficients
		want []float64
	}{
		{"identity", Coefficients{B0: 1}, []float64{1, 0, 0, 0, 0}},
		{"one sample delay", Coefficients{B1: 1}, []float64{0, 1, 0, 0, 0}},
		{"two sample delay", Coefficients{B2: 1}, []float64{0, 0, 1, 0, 0}},
		{"two tap average", Coefficients{B0: 0.5, B1: 0.5}, []float64{0.5, 0.5, 0, 0, 0}},
		{"one pole", Coefficients{B0: 1, A1: -0.5}, []float64{1, 0.5, 0.25, 0.125, 0.0625}},
		{"second order feedback", Coefficients{B0: 1, A2: 0.25}, []float64{1, 0, -0.25, 0, 0.0625}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSection(tt.c)
			got := make([]float64, len(tt.want))

			for i, x := range testutil.Impulse(len(tt.want), 0) {
				got[i] = s.ProcessSample(x)
			}

			assertClose(t, got, tt.want, eps)
		})
	}
}

func TestSection_BlockPathsAgree(t *testing.T) {
	src := excitation(97)

	ref := NewSection(testCoeffs)
	want := make([]float64, len(src))

	for i, x := range src {
		want[i] = ref.ProcessSample(x)
	}

	inPlace := append([]float64(nil), src...)
	NewSection(testCoeffs).ProcessBlock(inPlace)
	assertClose(t, inPlace, want, eps)

	dst := make([]float64, len(src)+3)
	orig := append([]float64(nil), src...)
	NewSection(testCoeffs).ProcessBlockTo(dst, src)
	assertClose(t, dst[:len(src)], want, eps)
	assertClose(t, src, orig, 0)

	// Splitting the block must not change the result.
	split := make([]float64, len(src))
	s := NewSection(testCoeffs)
	s.ProcessBlockTo(split[:40], src[:40])
	s.ProcessBlockTo(split[40:], src[40:])
	assertClose(t, split, want, eps)
}

func TestSection_StateReplaysOutput(t *testing.T) {
	src := excitation(64)
	s := NewSection(testCoeffs)
	s.ProcessBlock(append([]float64(nil), src[:16]...))

	saved := s.State()
	first := make([]float64, 48)
	s.ProcessBlockTo(first, src[16:])

	s.SetState(saved)
	second := make([]float64, 48)
	s.ProcessBlockTo(second, src[16:])

	assertClose(t, second, first, 0)
}

func TestSection_Reset(t *testing.T) {
	s := NewSection(testCoeffs)
	if s.State() != [2]float64{} {
		t.Fatalf("new section state = %v", s.State())
	}

	s.ProcessBlock(excitation(8))
	if s.State() == [2]float64{} {
		t.Fatal("state unchanged after processing")
	}

	s.Reset()
	if s.State() != [2]float64{} {
		t.Fatalf("state after Reset = %v", s.State())
	}

	if y := s.ProcessSample(1); y != testCoeffs.B0 {
		t.Fatalf("first output after Reset = %v, want %v", y, testCoeffs.B0)
	}
}

func TestSection_SetCoefficientsKeepsState(t *testing.T) {
	s := NewSection(Coefficients{B0: 0.5, B1: 0.5})
	s.ProcessSample(1)
	before := s.State()

	s.SetCoefficients(Coefficients{B0: 1})
	if s.Coefficients != (Coefficients{B0: 1}) {
		t.Fatalf("coefficients = %+v", s.Coefficients)
	}

	if s.State() != before {
		t.Fatalf("state changed by SetCoefficients: %v -> %v", before, s.State())
	}

	// The pending B1 tap from the old filter still drains.
	if y := s.ProcessSample(0); math.Abs(y-before[0]) > eps {
		t.Fatalf("got %v, want stored d0 %v", y, before[0])
	}
}

func TestSection_EmptyBlock(t *testing.T) {
	s := NewSection(testCoeffs)
	s.ProcessBlockTo(nil, nil)
	s.ProcessBlock(nil)

	if s.State() != [2]float64{} {
		t.Fatal("empty block touched the delay line")
	}
}

func TestSection_FlushesDenormalTail(t *testing.T) {
	s := NewSection(Coefficients{B0: 1, A1: -0.5})
	s.SetState([2]float64{1e-31, -1e-31})

	buf := []float64{0}
	s.ProcessBlock(buf)

	if buf[0] != 1e-31 {
		t.Fatalf("output = %v, want 1e-31", buf[0])
	}

	if s.State() != [2]float64{} {
		t.Fatalf("state = %v, want flushed to zero", s.State())
	}

	// Audible state is left alone.
	s.SetState([2]float64{1e-3, 0})
	s.ProcessBlock(buf)

	if s.State()[0] == 0 {
		t.Fatal("non-denormal state was flushed")
	}
}
