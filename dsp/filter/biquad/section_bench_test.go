package biquad

import (
	"fmt"
	"testing"
)

func BenchmarkSection_ProcessSample(b *testing.B) {
	s := NewSection(testCoeffs)
	x := 0.5

	for b.Loop() {
		x = s.ProcessSample(x)
	}

	_ = x
}

func BenchmarkSection_ProcessBlockTo(b *testing.B) {
	for _, n := range []int{64, 512, 2048} {
		b.Run(fmt.Sprintf("N=%d", n), func(b *testing.B) {
			s := NewSection(testCoeffs)
			src := excitation(n)
			dst := make([]float64, n)

			b.SetBytes(int64(n * 8))
			b.ReportAllocs()

			for b.Loop() {
				s.ProcessBlockTo(dst, src)
			}
		})
	}
}

// Four sections checkpointed and restored once per block, as in the
// transient/sustain split.
func BenchmarkBank_CheckpointRestore(b *testing.B) {
	bank := NewBank(4)
	for i := range bank.Len() {
		bank.Section(i).SetCoefficients(testCoeffs)
	}

	cp := bank.NewCheckpoint()

	b.ReportAllocs()

	for b.Loop() {
		bank.CheckpointInto(cp)
		bank.Restore(cp)
	}
}
