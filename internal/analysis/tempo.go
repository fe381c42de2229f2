// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"warp/internal/warp"
)

// Musically plausible tempo range. Raw inter-onset arithmetic often lands
// on half or double the perceived tempo, so candidates outside this range
// are folded before being accepted.
const (
	MinPlausibleBPM = 60
	MaxPlausibleBPM = 200
)

// tempoWindow caps how many leading transients feed the estimate.
const tempoWindow = 50

// beatTolerance is the fraction of one beat interval within which a
// transient is considered on-beat.
const beatTolerance = 0.2

// estimateTempo averages the inter-onset intervals of the first
// tempoWindow transients and returns the first of {bpm, bpm/2, bpm*2}
// inside the plausible range, or 0 when none is.
func estimateTempo(transients []warp.Transient) float64 {
	if len(transients) < 4 {
		return 0
	}
	n := len(transients)
	if n > tempoWindow {
		n = tempoWindow
	}

	var sum float64
	for i := 1; i < n; i++ {
		sum += transients[i].Time - transients[i-1].Time
	}
	avg := sum / float64(n-1)
	if avg <= 0 {
		return 0
	}

	base := 60.0 / avg
	for _, candidate := range []float64{base, base / 2, base * 2} {
		if candidate >= MinPlausibleBPM && candidate <= MaxPlausibleBPM {
			return candidate
		}
	}
	return 0
}

// annotateBeats back-fills SuggestedBeat for transients that land within
// beatTolerance of an integer beat multiple at the given tempo.
func annotateBeats(transients []warp.Transient, bpm float64) {
	interval := 60.0 / bpm
	for i := range transients {
		beat := math.Round(transients[i].Time / interval)
		if beat < 0 {
			continue
		}
		if math.Abs(transients[i].Time-beat*interval) <= beatTolerance*interval {
			transients[i].SuggestedBeat = int(beat)
		}
	}
}
