// SPDX-License-Identifier: MIT
package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"warp/pkg/bitint"
)

// fluxWorkspace holds the pre-allocated buffers for one flux pass.
type fluxWorkspace struct {
	input   []float64
	spectra []complex128
	mag     []float64
	prevMag []float64
	win     []float64
}

// SpectralFlux computes a positive-difference spectral-flux envelope, one
// value per hop. It is sharper around percussive attacks than the peak
// envelope and drives the transient-aware phase resets of the
// high-quality stretcher.
func SpectralFlux(data []float64, frameSize, hop int) []float64 {
	if frameSize <= 0 || hop <= 0 || len(data) < frameSize {
		return nil
	}
	fftSize := frameSize
	if !bitint.IsPowerOfTwo(fftSize) {
		fftSize = bitint.NextPowerOfTwo(fftSize)
	}
	bins := fftSize/2 + 1

	fft := fourier.NewFFT(fftSize)
	ws := fluxWorkspace{
		input:   make([]float64, fftSize),
		spectra: make([]complex128, bins),
		mag:     make([]float64, bins),
		prevMag: make([]float64, bins),
		win:     make([]float64, frameSize),
	}
	for i := range ws.win {
		ws.win[i] = 1
	}
	window.Hann(ws.win)

	numFrames := (len(data)-frameSize)/hop + 1
	flux := make([]float64, numFrames)
	for f := 0; f < numFrames; f++ {
		start := f * hop
		for i := 0; i < fftSize; i++ {
			if i < frameSize {
				ws.input[i] = data[start+i] * ws.win[i]
			} else {
				ws.input[i] = 0
			}
		}
		fft.Coefficients(ws.spectra, ws.input)
		var sum float64
		for i, c := range ws.spectra {
			ws.mag[i] = cmplx.Abs(c)
			if d := ws.mag[i] - ws.prevMag[i]; d > 0 {
				sum += d
			}
		}
		flux[f] = sum
		copy(ws.prevMag, ws.mag)
	}
	return flux
}

// FluxOnsets returns the sample positions of local flux maxima exceeding
// the mean flux by the given factor. Used as phase-reset points.
func FluxOnsets(data []float64, frameSize, hop int, factor float64) []int {
	flux := SpectralFlux(data, frameSize, hop)
	if len(flux) < 3 {
		return nil
	}
	var mean float64
	for _, v := range flux {
		mean += v
	}
	mean /= float64(len(flux))
	threshold := mean * factor

	var onsets []int
	for i := 1; i < len(flux)-1; i++ {
		if flux[i] > threshold && flux[i] > flux[i-1] && flux[i] > flux[i+1] {
			onsets = append(onsets, i*hop)
		}
	}
	return onsets
}
