// SPDX-License-Identifier: MIT
package warp

import "github.com/google/uuid"

// NoBeat marks a transient that did not land near any grid position.
const NoBeat = -1

// Transient is one detected rhythmic event.
type Transient struct {
	// Time is seconds from the start of the clip.
	Time float64 `json:"time"`

	// Strength is the energy ratio relative to the adaptive threshold,
	// clamped to (0,1].
	Strength float64 `json:"strength"`

	// SuggestedBeat is the beat index this transient aligns to within
	// tolerance when a tempo was estimated, NoBeat otherwise.
	SuggestedBeat int `json:"suggestedBeat,omitempty"`
}

// Quantize snaps detected transients onto a beat grid, emitting one marker
// per eligible transient. Target time is interpolated between the
// transient's own time and its grid position by strength: 0 leaves the
// timing untouched, 1 puts it fully on-grid. Transients without a
// suggested beat are skipped rather than forced onto the grid, so
// arrhythmic passages stay intact.
func Quantize(transients []Transient, beatGrid []float64, strength float64) []Marker {
	if strength < 0 {
		strength = 0
	} else if strength > 1 {
		strength = 1
	}

	markers := make([]Marker, 0, len(transients))
	for _, tr := range transients {
		if tr.SuggestedBeat < 0 || tr.SuggestedBeat >= len(beatGrid) {
			continue
		}
		gridTime := beatGrid[tr.SuggestedBeat]
		markers = append(markers, Marker{
			ID:         uuid.NewString(),
			SourceTime: tr.Time,
			TargetTime: tr.Time + strength*(gridTime-tr.Time),
			Strength:   tr.Strength,
		})
	}
	return markers
}
