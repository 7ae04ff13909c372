package time_test

import (
	"fmt"

	timestats "github.com/cwbudde/algo-qchannel/stats/time"
)

func ExampleRMS() {
	fmt.Printf("rms=%.3f\n", timestats.RMS([]float64{1, -1, 1, -1}))

	// Output:
	// rms=1.000
}

func ExampleStreamingStats() {
	s := timestats.NewStreamingStats()
	s.Update([]float64{1, -1})
	s.Update([]float64{0.5, -0.5})
	m := s.Result()
	fmt.Printf("len=%d dc=%.1f peak=%.1f\n", m.Length, m.DC, m.Peak)

	// Output:
	// len=4 dc=0.0 peak=1.0
}
