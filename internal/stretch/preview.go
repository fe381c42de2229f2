// SPDX-License-Identifier: MIT
package stretch

import (
	"context"

	"github.com/ossrs/go-oryx-lib/errors"

	"warp/internal/audio"
	"warp/internal/warp"
)

// Preview renders only the [startTime, endTime) window of the mapping,
// for interactive feedback. Markers outside the window are dropped and
// the rest rebased relative to startTime, so the engine never processes
// more audio than the requested span.
func Preview(ctx context.Context, src *audio.Buffer, markers []warp.Marker, startTime, endTime float64, opts Options) (*audio.Buffer, error) {
	if src == nil || src.SampleRate <= 0 {
		return nil, errors.Wrapf(warp.ErrUnreadableAudio, "no source buffer")
	}
	if startTime < 0 {
		startTime = 0
	}
	if endTime > src.Duration() {
		endTime = src.Duration()
	}
	if endTime <= startTime {
		return nil, errors.Wrapf(warp.ErrInvalidMapping, "preview window [%.3f, %.3f) is empty", startTime, endTime)
	}

	window := src.ExtractRange(startTime, endTime-startTime)

	// Rebase: the window starts its own timeline at zero, and targets
	// shift by the full mapping's target time at the window start. That
	// keeps every in-window stretch ratio identical to the full render,
	// including when the mapping compresses time before the window.
	base := targetAt(markers, startTime)
	var rebased []warp.Marker
	for _, m := range markers {
		if m.SourceTime < startTime || m.SourceTime > endTime {
			continue
		}
		rm := m
		rm.SourceTime = m.SourceTime - startTime
		rm.TargetTime = m.TargetTime - base
		rebased = append(rebased, rm)
	}

	return Stretch(ctx, window, rebased, opts)
}

// targetAt interpolates the mapping's target time at source time t, with
// the implicit origin anchor and ratio-1 continuation past the last
// marker. Markers must be sorted by source time.
func targetAt(markers []warp.Marker, t float64) float64 {
	prevSrc, prevDst := 0.0, 0.0
	for _, m := range markers {
		if m.SourceTime >= t {
			if m.SourceTime == prevSrc {
				return m.TargetTime
			}
			frac := (t - prevSrc) / (m.SourceTime - prevSrc)
			return prevDst + frac*(m.TargetTime-prevDst)
		}
		prevSrc, prevDst = m.SourceTime, m.TargetTime
	}
	return prevDst + (t - prevSrc)
}
