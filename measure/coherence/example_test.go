package coherence_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-qchannel/measure/coherence"
)

func ExampleAnalyze() {
	const sampleRate = 48000.0

	dry := make([]float64, 8192)
	wet := make([]float64, len(dry))

	for i := range dry {
		dry[i] = math.Sin(2 * math.Pi * 1000 * float64(i) / sampleRate)
		wet[i] = 0.5 * dry[i]
	}

	res, err := coherence.Analyze(dry, wet, coherence.Config{SampleRate: sampleRate, FFTSize: 1024})
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("frames=%d coherence=%.2f level=%.1f dB\n", res.Frames, res.Coherence, res.LevelChange_dB)
	// Output:
	// frames=15 coherence=1.00 level=-6.0 dB
}
