// SPDX-License-Identifier: MIT
package stretch

import (
	"math"

	"github.com/ossrs/go-oryx-lib/errors"

	"warp/internal/warp"
)

// ratioTolerance is the band around 1.0 inside which a segment is copied
// verbatim instead of processed, so unchanged audio picks up no
// processing artifacts.
const ratioTolerance = 1e-6

// zeroDuration is the cutoff below which a segment contributes nothing.
const zeroDuration = 1e-9

// segment is one contiguous span of the piecewise mapping.
type segment struct {
	index    int
	srcStart float64
	srcDur   float64
	dstDur   float64
	ratio    float64

	// verbatim means ratio is negligibly different from 1 and no pitch
	// shift applies, so the samples pass through untouched.
	verbatim bool
}

// buildPlan expands sorted markers into the full segment list: an implicit
// (0,0) head anchor, one segment per marker pair, and a ratio-1 tail after
// the last marker. Ratio errors are caught here, before any audio work.
func buildPlan(duration float64, markers []warp.Marker, pitched bool) ([]segment, error) {
	if err := warp.ValidateMarkers(markers); err != nil {
		return nil, err
	}

	type anchor struct{ src, dst float64 }
	anchors := make([]anchor, 0, len(markers)+2)
	anchors = append(anchors, anchor{0, 0})
	for i, m := range markers {
		if m.SourceTime > duration+zeroDuration {
			return nil, errors.Wrapf(warp.ErrInvalidMapping, "marker %d: source time %.6f beyond clip duration %.6f", i, m.SourceTime, duration)
		}
		if m.SourceTime <= zeroDuration {
			// A marker at t=0 replaces the implicit head anchor.
			anchors[0] = anchor{0, m.TargetTime}
			continue
		}
		anchors = append(anchors, anchor{m.SourceTime, m.TargetTime})
	}
	// Implicit tail: everything after the last marker keeps its duration.
	last := anchors[len(anchors)-1]
	if duration-last.src > zeroDuration {
		anchors = append(anchors, anchor{duration, last.dst + (duration - last.src)})
	}

	var plan []segment
	for i := 1; i < len(anchors); i++ {
		srcDur := anchors[i].src - anchors[i-1].src
		dstDur := anchors[i].dst - anchors[i-1].dst
		if srcDur <= zeroDuration {
			// Zero-length source segment: contributes nothing.
			continue
		}
		if dstDur <= zeroDuration {
			return nil, errors.Wrapf(warp.ErrInvalidMapping, "segment %d: stretch ratio %.6f not positive", i-1, dstDur/srcDur)
		}
		ratio := dstDur / srcDur
		plan = append(plan, segment{
			index:    len(plan),
			srcStart: anchors[i-1].src,
			srcDur:   srcDur,
			dstDur:   dstDur,
			ratio:    ratio,
			verbatim: math.Abs(ratio-1) <= ratioTolerance && !pitched,
		})
	}
	return plan, nil
}
