// SPDX-License-Identifier: MIT
package warp

import (
	"math"

	"github.com/ossrs/go-oryx-lib/errors"
)

// BeatsPerBar is fixed at 4 (4/4 assumption). Odd meters and tempo drift
// across the clip are a known simplification of the tempo mapper.
const BeatsPerBar = 4

// TempoMapping is a beat grid reinterpreted at a target tempo. The grid is
// uniform: only the beat count comes from the source tempo, not per-beat
// timing.
type TempoMapping struct {
	SourceBPM    float64   `json:"sourceBpm"`
	TargetBPM    float64   `json:"targetBpm"`
	BeatGrid     []float64 `json:"beatGrid"`
	BarPositions []float64 `json:"barPositions"`
}

// MapTempo builds the target-tempo beat grid for a clip of the given
// duration. Pure function; the only failure mode is a non-positive input.
func MapTempo(sourceBPM, targetBPM, durationSeconds float64) (TempoMapping, error) {
	if sourceBPM <= 0 || targetBPM <= 0 {
		return TempoMapping{}, errors.Errorf("bpm must be positive, got source=%.3f target=%.3f", sourceBPM, targetBPM)
	}
	if durationSeconds <= 0 {
		return TempoMapping{}, errors.Errorf("duration must be positive, got %.3f", durationSeconds)
	}

	numBeats := int(math.Floor(durationSeconds / (60.0 / sourceBPM)))
	spacing := 60.0 / targetBPM

	m := TempoMapping{
		SourceBPM: sourceBPM,
		TargetBPM: targetBPM,
		BeatGrid:  make([]float64, numBeats),
	}
	for i := range m.BeatGrid {
		m.BeatGrid[i] = float64(i) * spacing
	}
	for i := 0; i < numBeats; i += BeatsPerBar {
		m.BarPositions = append(m.BarPositions, m.BeatGrid[i])
	}
	return m, nil
}
