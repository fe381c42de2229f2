// SPDX-License-Identifier: MIT
package stretch

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"warp/pkg/bitint"
)

// pvocWorkspace holds the pre-allocated buffers for one vocoder run.
type pvocWorkspace struct {
	input     []float64
	spectrum  []complex128
	synth     []complex128
	frame     []float64
	win       []float64
	mag       []float64
	phase     []float64
	prevPhase []float64
	phaseAcc  []float64
}

func newPvocWorkspace(fftSize int) *pvocWorkspace {
	bins := fftSize/2 + 1
	ws := &pvocWorkspace{
		input:     make([]float64, fftSize),
		spectrum:  make([]complex128, bins),
		synth:     make([]complex128, bins),
		frame:     make([]float64, fftSize),
		win:       make([]float64, fftSize),
		mag:       make([]float64, bins),
		phase:     make([]float64, bins),
		prevPhase: make([]float64, bins),
		phaseAcc:  make([]float64, bins),
	}
	for i := range ws.win {
		ws.win[i] = 1
	}
	window.Hann(ws.win)
	return ws
}

// princarg wraps a phase into [-pi, pi).
func princarg(p float64) float64 {
	return p - 2*math.Pi*math.Round(p/(2*math.Pi))
}

// phaseVocoder time-stretches data by ratio (output/input duration) using
// per-bin phase accumulation with instantaneous-frequency estimation.
// resetAt lists input sample positions where accumulated phase snaps back
// to the analysis phase, which keeps attacks from smearing; pass nil for
// plain behavior. Pitch is untouched: time and pitch stay independent.
func phaseVocoder(data []float64, ratio float64, fftSize int, resetAt []int) []float64 {
	if len(data) == 0 || ratio <= 0 {
		return nil
	}
	if !bitint.IsPowerOfTwo(fftSize) {
		fftSize = bitint.NextPowerOfTwo(fftSize)
	}
	if len(data) < fftSize {
		// Too short for spectral processing; fall back to resampling.
		// The segment is shorter than one analysis window, so phase
		// coherence is moot.
		return resampleLinear(data, ratio)
	}

	bins := fftSize/2 + 1
	hopSynth := fftSize / 4
	hopAnalysis := float64(hopSynth) / ratio

	fft := fourier.NewFFT(fftSize)
	ws := newPvocWorkspace(fftSize)

	outLen := int(math.Round(float64(len(data)) * ratio))
	out := make([]float64, outLen+fftSize)
	norm := make([]float64, outLen+fftSize)

	// Synthesis runs until it covers the full output length; the analysis
	// position clamps to the final window once the input runs out, so a
	// slowed segment ends in audio rather than silence.
	nextReset := 0
	numFrames := outLen/hopSynth + 1
	for f := 0; f < numFrames; f++ {
		pos := int(math.Round(float64(f) * hopAnalysis))
		if pos+fftSize > len(data) {
			pos = len(data) - fftSize
		}
		for i := 0; i < fftSize; i++ {
			ws.input[i] = data[pos+i] * ws.win[i]
		}
		fft.Coefficients(ws.spectrum, ws.input)

		reset := f == 0
		for nextReset < len(resetAt) && resetAt[nextReset] <= pos {
			if resetAt[nextReset]+int(hopAnalysis) > pos {
				reset = true
			}
			nextReset++
		}

		for k := 0; k < bins; k++ {
			ws.mag[k] = cmplx.Abs(ws.spectrum[k])
			ws.phase[k] = cmplx.Phase(ws.spectrum[k])

			if reset {
				ws.phaseAcc[k] = ws.phase[k]
			} else {
				expected := 2 * math.Pi * float64(k) * hopAnalysis / float64(fftSize)
				deviation := princarg(ws.phase[k] - ws.prevPhase[k] - expected)
				trueFreq := 2*math.Pi*float64(k)/float64(fftSize) + deviation/hopAnalysis
				ws.phaseAcc[k] += float64(hopSynth) * trueFreq
			}
			ws.prevPhase[k] = ws.phase[k]
			ws.synth[k] = cmplx.Rect(ws.mag[k], ws.phaseAcc[k])
		}

		fft.Sequence(ws.frame, ws.synth)
		outPos := f * hopSynth
		scale := 1.0 / float64(fftSize)
		for i := 0; i < fftSize && outPos+i < len(out); i++ {
			w := ws.win[i]
			out[outPos+i] += ws.frame[i] * scale * w
			norm[outPos+i] += w * w
		}
	}

	for i := range out {
		if norm[i] > 1e-9 {
			out[i] /= norm[i]
		}
	}
	return fitLength(out[:min(len(out), outLen+fftSize)], outLen)
}

// resampleLinear resamples data by factor (output length = input * factor)
// with linear interpolation. Resampling alone couples pitch and speed; the
// vocoder uses it only as the second half of a decoupled pitch shift.
func resampleLinear(data []float64, factor float64) []float64 {
	if len(data) == 0 || factor <= 0 {
		return nil
	}
	outLen := int(math.Round(float64(len(data)) * factor))
	if outLen < 1 {
		outLen = 1
	}
	out := make([]float64, outLen)
	step := float64(len(data)-1) / float64(max(outLen-1, 1))
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(data)-1 {
			out[i] = data[len(data)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = data[j]*(1-frac) + data[j+1]*frac
	}
	return out
}

// fitLength trims or pads with trailing zeros to exactly n samples.
func fitLength(data []float64, n int) []float64 {
	if n < 0 {
		n = 0
	}
	if len(data) == n {
		return data
	}
	if len(data) > n {
		return data[:n]
	}
	out := make([]float64, n)
	copy(out, data)
	return out
}

// semitonesToFactor converts a pitch shift in semitones to a frequency
// ratio.
func semitonesToFactor(semitones float64) float64 {
	return math.Pow(2, semitones/12)
}
