// SPDX-License-Identifier: MIT
package stretch

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
)

// WSOLA stays stable only near unity ratios; outside this band a single
// pass audibly garbles the splice points.
const (
	olaMinRatio = 0.5
	olaMaxRatio = 2.0
)

// overlapAdd time-stretches data by ratio, chaining bounded WSOLA passes
// when the ratio falls outside the stable range: 0.25x is two successive
// 0.5x passes. The chained result matches a single conceptual pass in
// duration within a sample.
func overlapAdd(data []float64, ratio float64, p qualityParams) []float64 {
	if len(data) == 0 || ratio <= 0 {
		return nil
	}
	targetLen := int(math.Round(float64(len(data)) * ratio))

	remaining := ratio
	out := data
	for remaining < olaMinRatio-1e-12 {
		out = wsolaPass(out, olaMinRatio, p)
		remaining /= olaMinRatio
	}
	for remaining > olaMaxRatio+1e-12 {
		out = wsolaPass(out, olaMaxRatio, p)
		remaining /= olaMaxRatio
	}
	if math.Abs(remaining-1) > ratioTolerance {
		out = wsolaPass(out, remaining, p)
	}
	return fitLength(out, targetLen)
}

// wsolaPass is one bounded waveform-similarity overlap-add pass:
// fixed-size frames placed at the synthesis hop, with each analysis frame
// shifted within a seek radius to the offset of maximum cross-correlation
// against the tail of what has been written, then Hann cross-faded in.
func wsolaPass(data []float64, ratio float64, p qualityParams) []float64 {
	frame := p.olaFrame
	if frame > len(data) {
		// Segment shorter than one frame: correlation has nothing to
		// align, resample instead.
		return resampleLinear(data, ratio)
	}
	hopOut := frame / 2
	hopIn := float64(hopOut) / ratio
	seek := p.seekRadius

	win := make([]float64, frame)
	for i := range win {
		win[i] = 1
	}
	window.Hann(win)

	outLen := int(math.Round(float64(len(data)) * ratio))
	out := make([]float64, outLen+frame)
	norm := make([]float64, outLen+frame)

	// Frames run until they cover the full output length; the analysis
	// position clamps to the final frame once the input runs out, so a
	// slowed pass ends in audio rather than silence.
	numFrames := outLen/hopOut + 1
	for f := 0; f < numFrames; f++ {
		nominal := int(math.Round(float64(f) * hopIn))
		if nominal+frame > len(data) {
			nominal = len(data) - frame
		}
		outPos := f * hopOut

		pos := nominal
		if f > 0 && seek > 0 {
			pos = bestOffset(data, out, nominal, outPos, frame, seek)
		}
		for i := 0; i < frame && outPos+i < len(out); i++ {
			out[outPos+i] += data[pos+i] * win[i]
			norm[outPos+i] += win[i]
		}
	}
	for i := range out {
		if norm[i] > 1e-9 {
			out[i] /= norm[i]
		}
	}
	return fitLength(out, outLen)
}

// bestOffset searches [nominal-seek, nominal+seek] for the analysis
// position whose frame head best correlates with the already-written
// output at outPos, which is what keeps splice points click-free.
func bestOffset(data, out []float64, nominal, outPos, frame, seek int) int {
	lo := nominal - seek
	if lo < 0 {
		lo = 0
	}
	hi := nominal + seek
	if hi > len(data)-frame {
		hi = len(data) - frame
	}
	if hi <= lo {
		return nominal
	}

	// Correlate over the overlap head only; the tail is not yet mixed.
	overlap := frame / 2
	if outPos+overlap > len(out) {
		overlap = len(out) - outPos
	}
	if overlap <= 0 {
		return nominal
	}

	best, bestScore := nominal, math.Inf(-1)
	for pos := lo; pos <= hi; pos++ {
		var score float64
		for i := 0; i < overlap; i++ {
			score += data[pos+i] * out[outPos+i]
		}
		if score > bestScore {
			bestScore = score
			best = pos
		}
	}
	return best
}
