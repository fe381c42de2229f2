// SPDX-License-Identifier: MIT
package stretch

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"warp/pkg/bitint"
)

// cepstralEnvelope extracts the smooth spectral envelope of a magnitude
// spectrum by liftering the low-quefrency cepstrum. The envelope is the
// perceived timbre; shifting pitch while holding it keeps voices and
// instruments natural.
func cepstralEnvelope(mag []float64, lifter int, fft *fourier.FFT, fftSize int) []float64 {
	logMag := make([]float64, fftSize)
	bins := len(mag)
	for k := 0; k < bins; k++ {
		logMag[k] = math.Log(mag[k] + 1e-12)
	}
	// Mirror for a real, even spectrum.
	for k := bins; k < fftSize; k++ {
		logMag[k] = logMag[fftSize-k]
	}

	ceps := make([]complex128, fftSize/2+1)
	fft.Coefficients(ceps, logMag)

	// Zero everything above the lifter cutoff; what remains is the
	// envelope, the fine structure (harmonics) is discarded.
	for q := lifter; q < len(ceps); q++ {
		ceps[q] = 0
	}

	smooth := make([]float64, fftSize)
	fft.Sequence(smooth, ceps)
	env := make([]float64, bins)
	for k := 0; k < bins; k++ {
		env[k] = math.Exp(smooth[k] / float64(fftSize))
	}
	return env
}

// applyEnvelopeCorrection reshapes shifted so its frame-wise spectral
// envelope matches that of ref. This is the secondary filter pass the
// plain phase-vocoder path uses to approximate formant preservation
// after a pitch shift.
func applyEnvelopeCorrection(shifted, ref []float64, p qualityParams) []float64 {
	fftSize := p.fftSize
	if !bitint.IsPowerOfTwo(fftSize) {
		fftSize = bitint.NextPowerOfTwo(fftSize)
	}
	if len(shifted) < fftSize || len(ref) < fftSize {
		return shifted
	}
	bins := fftSize/2 + 1
	hop := fftSize / 4

	fft := fourier.NewFFT(fftSize)
	win := make([]float64, fftSize)
	for i := range win {
		win[i] = 1
	}
	window.Hann(win)

	input := make([]float64, fftSize)
	spec := make([]complex128, bins)
	refSpec := make([]complex128, bins)
	frame := make([]float64, fftSize)
	mag := make([]float64, bins)
	refMag := make([]float64, bins)

	out := make([]float64, len(shifted))
	norm := make([]float64, len(shifted))

	numFrames := (len(shifted)-fftSize)/hop + 1
	for f := 0; f < numFrames; f++ {
		pos := f * hop

		for i := 0; i < fftSize; i++ {
			input[i] = shifted[pos+i] * win[i]
		}
		fft.Coefficients(spec, input)
		for k := range spec {
			mag[k] = cmplx.Abs(spec[k])
		}

		// Reference frame at the proportional position in ref.
		refPos := int(float64(pos) / float64(len(shifted)) * float64(len(ref)))
		if refPos+fftSize > len(ref) {
			refPos = len(ref) - fftSize
		}
		for i := 0; i < fftSize; i++ {
			input[i] = ref[refPos+i] * win[i]
		}
		fft.Coefficients(refSpec, input)
		for k := range refSpec {
			refMag[k] = cmplx.Abs(refSpec[k])
		}

		envShifted := cepstralEnvelope(mag, p.lifter, fft, fftSize)
		envRef := cepstralEnvelope(refMag, p.lifter, fft, fftSize)
		for k := range spec {
			gain := envRef[k] / (envShifted[k] + 1e-12)
			if gain > 8 {
				gain = 8
			}
			spec[k] *= complex(gain, 0)
		}

		fft.Sequence(frame, spec)
		scale := 1.0 / float64(fftSize)
		for i := 0; i < fftSize && pos+i < len(out); i++ {
			out[pos+i] += frame[i] * scale * win[i]
			norm[pos+i] += win[i] * win[i]
		}
	}

	for i := range out {
		if norm[i] > 1e-9 {
			out[i] /= norm[i]
		} else {
			out[i] = shifted[i]
		}
	}
	return out
}
