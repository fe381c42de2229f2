// SPDX-License-Identifier: MIT
/*
Package stretch implements the segment stretch engine: it splits a source
buffer at warp-marker anchors, applies a local time-stretch ratio per
segment with the selected algorithm, and splices the results back into
one continuous output.

Three algorithm variants with different trade-offs are available per
invocation (high-quality, phase-vocoder, overlap-add); all of them keep
time and pitch independently controllable, unlike naive playback-speed
resampling.

Every invocation works on its own plan and buffers; there is no shared
mutable state between concurrent calls.
*/
package stretch

import (
	"context"

	"github.com/ossrs/go-oryx-lib/errors"

	"warp/internal/analysis"
	"warp/internal/audio"
	"warp/internal/log"
	"warp/internal/warp"
)

// Stretch renders the piecewise time remapping described by markers onto
// src. Markers must be sorted by source time; validation failures surface
// as ErrInvalidMapping before any audio is touched. An empty marker list
// returns a verbatim copy.
func Stretch(ctx context.Context, src *audio.Buffer, markers []warp.Marker, opts Options) (*audio.Buffer, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrapf(warp.ErrInvalidMapping, "options: %v", err)
	}
	if cap := audio.Check(); !cap.Available {
		return nil, errors.Wrapf(warp.ErrBackendUnavailable, "%s", cap.Reason)
	}
	if src == nil || src.SampleRate <= 0 {
		return nil, errors.Wrapf(warp.ErrUnreadableAudio, "no source buffer")
	}

	plan, err := buildPlan(src.Duration(), markers, opts.PitchShiftSemitones != 0)
	if err != nil {
		return nil, err
	}

	p := paramsFor(opts.Quality)
	parts := make([]*audio.Buffer, 0, len(plan))
	for _, seg := range plan {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "stretch canceled at segment %d", seg.index)
		}

		part, err := renderSegment(src, seg, opts, p)
		if err != nil {
			return nil, errors.Wrapf(err, "segment %d [%.3fs +%.3fs] algorithm=%v", seg.index, seg.srcStart, seg.srcDur, opts.Algorithm)
		}
		parts = append(parts, part)
	}

	out, err := audio.Concatenate(parts)
	if err != nil {
		return nil, err
	}
	log.Debugf("Stretch: %d segments, %.3fs -> %.3fs (algorithm=%v quality=%v)",
		len(plan), src.Duration(), out.Duration(), opts.Algorithm, opts.Quality)
	return out, nil
}

// renderSegment extracts one source span and produces its target-duration
// samples.
func renderSegment(src *audio.Buffer, seg segment, opts Options, p qualityParams) (*audio.Buffer, error) {
	part := src.ExtractRange(seg.srcStart, seg.srcDur)
	if seg.verbatim {
		return part, nil
	}

	targetSamples := int(seg.dstDur*float64(src.SampleRate) + 0.5)
	data, err := stretchSamples(part.Data, src.SampleRate, seg.ratio, opts, p)
	if err != nil {
		return nil, err
	}
	part.Data = fitLength(data, targetSamples)
	return part, nil
}

// stretchSamples applies the selected algorithm at the given ratio,
// layering in the decoupled pitch shift when requested.
func stretchSamples(data []float64, sampleRate int, ratio float64, opts Options, p qualityParams) ([]float64, error) {
	if len(data) == 0 {
		return nil, nil
	}

	pitchFactor := semitonesToFactor(opts.PitchShiftSemitones)
	pitched := opts.PitchShiftSemitones != 0

	var out []float64
	switch opts.Algorithm {
	case AlgorithmOverlapAdd:
		out = overlapAdd(data, ratio*pitchFactor, p)
		if pitched {
			out = resampleLinear(out, 1/pitchFactor)
		}

	case AlgorithmPhaseVocoder:
		out = phaseVocoder(data, ratio*pitchFactor, p.fftSize, nil)
		if pitched {
			out = resampleLinear(out, 1/pitchFactor)
			if opts.PreserveFormants {
				out = applyEnvelopeCorrection(out, data, p)
			}
		}

	case AlgorithmHighQuality:
		// Transient positions in the segment anchor phase resets, so
		// attacks stay crisp across the stretch.
		resets := analysis.FluxOnsets(data, p.fftSize, p.fftSize/4, 1.5)
		out = phaseVocoder(data, ratio*pitchFactor, p.fftSize, resets)
		if pitched {
			out = resampleLinear(out, 1/pitchFactor)
			if opts.PreserveFormants {
				out = applyEnvelopeCorrection(out, data, p)
			}
		}

	default:
		return nil, errors.Errorf("unhandled algorithm %v", opts.Algorithm)
	}

	if out == nil {
		return nil, errors.Wrapf(warp.ErrRenderFailure, "algorithm %v produced no output (ratio=%.4f, %d samples in)", opts.Algorithm, ratio, len(data))
	}
	return out, nil
}
