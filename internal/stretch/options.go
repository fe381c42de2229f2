// SPDX-License-Identifier: MIT
package stretch

import (
	"strings"

	"github.com/ossrs/go-oryx-lib/errors"
)

// Algorithm selects the per-segment stretch technique.
type Algorithm int

const (
	// AlgorithmHighQuality is formant-aware and the most expensive:
	// phase vocoder with transient-aware phase resets and cepstral
	// formant preservation under pitch shift.
	AlgorithmHighQuality Algorithm = iota

	// AlgorithmPhaseVocoder is the general-purpose frequency-domain
	// technique; formant preservation is approximated with a secondary
	// envelope-correction pass rather than a dedicated formant model.
	AlgorithmPhaseVocoder

	// AlgorithmOverlapAdd is time-domain WSOLA: fastest, stable only in
	// a bounded ratio range, so extreme ratios are reached by chaining
	// bounded passes.
	AlgorithmOverlapAdd
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmHighQuality:
		return "high-quality"
	case AlgorithmPhaseVocoder:
		return "phase-vocoder"
	case AlgorithmOverlapAdd:
		return "overlap-add"
	default:
		return "unknown"
	}
}

// ParseAlgorithm converts a string name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(name) {
	case "high-quality", "hq":
		return AlgorithmHighQuality, nil
	case "phase-vocoder", "pvoc":
		return AlgorithmPhaseVocoder, nil
	case "overlap-add", "ola":
		return AlgorithmOverlapAdd, nil
	default:
		return AlgorithmHighQuality, errors.Errorf("unknown stretch algorithm %q", name)
	}
}

// Quality trades render speed against fidelity by scaling the analysis
// window sizes.
type Quality int

const (
	QualityFast Quality = iota
	QualityNormal
	QualityHigh
)

func (q Quality) String() string {
	switch q {
	case QualityFast:
		return "fast"
	case QualityNormal:
		return "normal"
	case QualityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseQuality converts a string name to a Quality.
func ParseQuality(name string) (Quality, error) {
	switch strings.ToLower(name) {
	case "fast":
		return QualityFast, nil
	case "normal", "":
		return QualityNormal, nil
	case "high":
		return QualityHigh, nil
	default:
		return QualityNormal, errors.Errorf("unknown quality %q", name)
	}
}

// Options is the closed per-invocation configuration of the engine.
// Unknown combinations are rejected at the boundary, not deep inside the
// algorithms.
type Options struct {
	PitchShiftSemitones float64
	PreserveFormants    bool
	Algorithm           Algorithm
	Quality             Quality
}

// DefaultOptions returns the stock engine options.
func DefaultOptions() Options {
	return Options{
		PreserveFormants: true,
		Algorithm:        AlgorithmHighQuality,
		Quality:          QualityNormal,
	}
}

// Validate rejects out-of-range enum values and implausible pitch shifts.
func (o Options) Validate() error {
	if o.Algorithm < AlgorithmHighQuality || o.Algorithm > AlgorithmOverlapAdd {
		return errors.Errorf("invalid algorithm %d", int(o.Algorithm))
	}
	if o.Quality < QualityFast || o.Quality > QualityHigh {
		return errors.Errorf("invalid quality %d", int(o.Quality))
	}
	if o.PitchShiftSemitones < -48 || o.PitchShiftSemitones > 48 {
		return errors.Errorf("pitch shift %.2f semitones out of range", o.PitchShiftSemitones)
	}
	return nil
}

// qualityParams are the per-quality analysis sizes.
type qualityParams struct {
	fftSize    int // phase vocoder window
	olaFrame   int // WSOLA frame
	seekRadius int // WSOLA correlation search radius
	lifter     int // cepstral envelope cutoff
}

func paramsFor(q Quality) qualityParams {
	switch q {
	case QualityFast:
		return qualityParams{fftSize: 1024, olaFrame: 1024, seekRadius: 128, lifter: 24}
	case QualityHigh:
		return qualityParams{fftSize: 4096, olaFrame: 4096, seekRadius: 512, lifter: 48}
	default:
		return qualityParams{fftSize: 2048, olaFrame: 2048, seekRadius: 256, lifter: 32}
	}
}
