// SPDX-License-Identifier: MIT
/*
Package warp defines the warp-marker data contract shared by the transient
detector, quantizer and segment stretch engine:
- Marker: a pinned (source-time, target-time) anchor of a piecewise,
  monotonic time remapping
- TempoMapping: a beat/bar grid at a target tempo
- the engine-wide error taxonomy

Markers are consumed as an immutable, sorted list for one stretch
invocation and are never mutated mid-invocation.
*/
package warp

import (
	"sort"

	"github.com/ossrs/go-oryx-lib/errors"
)

// Marker is one anchor of the piecewise source-time to target-time mapping.
type Marker struct {
	ID string `json:"id"`

	// SourceTime is the position in the original signal, seconds.
	SourceTime float64 `json:"sourceTime"`

	// TargetTime is the desired position in the output signal, seconds.
	TargetTime float64 `json:"targetTime"`

	// Anchor marks a user-pinned marker that quantization never removes.
	Anchor bool `json:"isAnchor"`

	// Strength is the detection confidence in [0,1] for markers derived
	// from transient detection, 0 otherwise.
	Strength float64 `json:"transientStrength,omitempty"`
}

// SortMarkers orders markers by source time ascending. The engine requires
// sorted input; callers reading markers from persistence sort once up front.
func SortMarkers(markers []Marker) {
	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].SourceTime < markers[j].SourceTime
	})
}

// ValidateMarkers checks the marker list invariant: source times
// non-decreasing, target times non-decreasing, all times non-negative.
// Two markers sharing a source time describe a zero-length segment, which
// the engine skips; a decreasing time reorders audio, which is out of
// scope, so that is a validation error (ErrInvalidMapping), not a crash.
func ValidateMarkers(markers []Marker) error {
	for i, m := range markers {
		if m.SourceTime < 0 || m.TargetTime < 0 {
			return errors.Wrapf(ErrInvalidMapping, "marker %d: negative time (source=%.6f target=%.6f)", i, m.SourceTime, m.TargetTime)
		}
		if i == 0 {
			continue
		}
		prev := markers[i-1]
		if m.SourceTime < prev.SourceTime {
			return errors.Wrapf(ErrInvalidMapping, "marker %d: source time %.6f before %.6f", i, m.SourceTime, prev.SourceTime)
		}
		if m.TargetTime < prev.TargetTime {
			return errors.Wrapf(ErrInvalidMapping, "marker %d: target time %.6f before %.6f", i, m.TargetTime, prev.TargetTime)
		}
	}
	return nil
}
