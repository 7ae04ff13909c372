package decoherence

import (
	"github.com/cwbudde/algo-qchannel/dsp/core"
	"github.com/cwbudde/algo-qchannel/dsp/smooth"
)

// Auto-gain limits. The clamp bounds compensation to ±20 dB.
const (
	MinGainCompensation = 0.1
	MaxGainCompensation = 10.0

	// RMSEpsilon is the level below which a block is treated as silent.
	RMSEpsilon = 1e-6
)

// GainTarget returns the compensation factor that matches outRMS to inRMS.
// It returns exactly 1 when compensation is disabled or either level is at
// or below RMSEpsilon.
func GainTarget(enabled bool, inRMS, outRMS float64) float64 {
	if !enabled || !(inRMS > RMSEpsilon) || !(outRMS > RMSEpsilon) {
		return 1
	}

	return core.Clamp(inRMS/outRMS, MinGainCompensation, MaxGainCompensation)
}

// autoGain smooths the compensation factor toward the latest target.
type autoGain struct {
	smooth.Linear
}

func (g *autoGain) update(enabled bool, inRMS, outRMS float64) {
	g.SetTarget(GainTarget(enabled, inRMS, outRMS))
}

// updateGain records the block levels and retargets gain compensation.
func (e *Engine) updateGain(inRMS, outRMS float64) {
	e.inputRMS = inRMS
	e.outputRMS = outRMS
	e.gain.update(e.autoGainParam.Bool(), inRMS, outRMS)
}
