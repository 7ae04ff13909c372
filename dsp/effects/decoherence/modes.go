package decoherence

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-qchannel/dsp/core"
	timestats "github.com/cwbudde/algo-qchannel/stats/time"
)

func (e *Engine) processMono(buf [][]float64, numInputs, n int) {
	dry, wet := e.dryA[:n], e.wetA[:n]

	if numInputs >= 2 {
		vecmath.AddBlock(dry, buf[0][:n], buf[1][:n])
	} else {
		copy(dry, buf[0][:n])
	}

	inRMS := timestats.RMS(dry)
	e.transform(e.seqA[:n], dry, wet)
	e.updateGain(inRMS, timestats.RMS(wet))

	for i := range n {
		g := e.gain.Next()
		out := blend(dry[i], wet[i]*g, e.mix.Next())

		for _, ch := range buf {
			ch[i] = out
		}
	}
}

func (e *Engine) processLeftRight(buf [][]float64, numInputs, n int) {
	dryL, dryR := e.dryA[:n], e.dryB[:n]
	wetL, wetR := e.wetA[:n], e.wetB[:n]

	copy(dryL, buf[0][:n])
	if numInputs >= 2 {
		copy(dryR, buf[1][:n])
	} else {
		copy(dryR, dryL)
	}

	inRMS := 0.5 * (timestats.RMS(dryL) + timestats.RMS(dryR))
	e.transform(e.seqA[:n], dryL, wetL)
	e.transform(e.seqB[:n], dryR, wetR)
	e.updateGain(inRMS, 0.5*(timestats.RMS(wetL)+timestats.RMS(wetR)))

	stereo := len(buf) >= 2

	for i := range n {
		g := e.gain.Next()
		m := e.mix.Next()
		outL := blend(dryL[i], wetL[i]*g, m)
		outR := blend(dryR[i], wetR[i]*g, m)

		if stereo {
			buf[0][i] = outL
			buf[1][i] = outR
		} else {
			buf[0][i] = 0.5 * (outL + outR)
		}
	}
}

func (e *Engine) processMidSide(buf [][]float64, numInputs, n int) {
	dryM, dryS := e.dryA[:n], e.dryB[:n]
	wetM, wetS := e.wetA[:n], e.wetB[:n]

	if numInputs >= 2 {
		vecmath.AddBlock(dryM, buf[0][:n], buf[1][:n])
		core.DiffInto(dryS, buf[0][:n], buf[1][:n])
	} else {
		copy(dryM, buf[0][:n])
		core.Zero(dryS)
	}

	inRMS := 0.5 * (timestats.RMS(dryM) + timestats.RMS(dryS))
	e.transform(e.seqA[:n], dryM, wetM)
	e.transform(e.seqB[:n], dryS, wetS)
	e.updateGain(inRMS, 0.5*(timestats.RMS(wetM)+timestats.RMS(wetS)))

	if len(buf) < 2 {
		out := buf[0]
		for i := range n {
			g := e.gain.Next()
			out[i] = blend(dryM[i], wetM[i]*g, e.mix.Next())
		}

		return
	}

	left, right := buf[0], buf[1]
	for i := range n {
		g := e.gain.Next()
		m := e.mix.Next()
		mid := blend(dryM[i], wetM[i]*g, m)
		side := blend(dryS[i], wetS[i]*g, m)
		left[i] = 0.5 * (mid + side)
		right[i] = 0.5 * (mid - side)
	}
}

// processTransientSustain runs the crossover twice over the same filter
// history: once to derive the sustain band that is transformed, and again
// to regenerate the matching bands for reconstruction.
func (e *Engine) processTransientSustain(buf [][]float64, numInputs, n int) {
	inL := buf[0][:n]
	inR := inL

	if numInputs >= 2 {
		inR = buf[1][:n]
	}

	hpL, hpR := e.filters.Section(hpLeft), e.filters.Section(hpRight)
	lpL, lpR := e.filters.Section(lpLeft), e.filters.Section(lpRight)

	e.filters.CheckpointInto(e.checkpoint)

	sustain, wet := e.dryA[:n], e.wetA[:n]
	lowR := e.dryB[:n]
	lpL.ProcessBlockTo(sustain, inL)
	lpR.ProcessBlockTo(lowR, inR)
	vecmath.AddMulBlock(sustain, sustain, lowR, 0.5)

	inRMS := timestats.RMS(sustain)
	e.transform(e.seqA[:n], sustain, wet)
	e.updateGain(inRMS, timestats.RMS(wet))

	e.filters.Restore(e.checkpoint)

	complementary := e.cfg.split == SplitComplementary
	stereo := len(buf) >= 2

	for i := range n {
		g := e.gain.Next()
		m := e.mix.Next()
		l, r := inL[i], inR[i]

		lLow := lpL.ProcessSample(l)
		rLow := lpR.ProcessSample(r)

		var lHigh, rHigh float64
		if complementary {
			lHigh = l - lLow
			rHigh = r - rLow
		} else {
			lHigh = hpL.ProcessSample(l)
			rHigh = hpR.ProcessSample(r)
		}

		processed := core.Sanitize(wet[i] * g)
		outL := lHigh + lLow*(1-m) + processed*m
		outR := rHigh + rLow*(1-m) + processed*m

		if stereo {
			buf[0][i] = outL
			buf[1][i] = outR
		} else {
			buf[0][i] = 0.5 * (outL + outR)
		}
	}
}
