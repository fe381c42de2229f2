// SPDX-License-Identifier: MIT
package analysis

import (
	"sort"

	"warp/internal/audio"
	"warp/internal/log"
	"warp/internal/warp"
)

// Detection option defaults.
const (
	DefaultSensitivity = 0.5
	DefaultMinGap      = 0.05
)

// Options control transient detection. The zero value is not useful;
// start from DefaultOptions.
type Options struct {
	// Sensitivity in [0,1]. Higher lowers the adaptive threshold and
	// admits weaker onsets.
	Sensitivity float64

	// MinGap is the minimum spacing between accepted transients in
	// seconds, guarding against double triggers on a single attack.
	MinGap float64

	// EstimateTempo enables BPM estimation from inter-onset intervals
	// and per-transient beat annotation.
	EstimateTempo bool
}

// DefaultOptions returns the stock detection options.
func DefaultOptions() Options {
	return Options{
		Sensitivity:   DefaultSensitivity,
		MinGap:        DefaultMinGap,
		EstimateTempo: true,
	}
}

// Result is the outcome of one detection pass.
type Result struct {
	Transients []warp.Transient `json:"transients"`

	// DetectedBPM is 0 when no musically plausible tempo was found.
	DetectedBPM float64 `json:"detectedBpm"`

	// Duration of the analyzed signal in seconds.
	Duration float64 `json:"duration"`

	// Degraded is true when the envelope is synthetic because the decode
	// backend was unavailable. Degraded results are advisory only.
	Degraded bool `json:"degraded"`
}

// DetectTransients analyzes a decoded buffer for rhythmic onsets.
func DetectTransients(buf *audio.Buffer, opts Options) Result {
	opts = clampOptions(opts)
	env := PeakEnvelope(buf.Data, buf.SampleRate)
	res := detectFromEnvelope(env, buf.Duration(), opts)
	return res
}

// DetectFile probes and decodes path, then runs detection. When the
// backend is unavailable the detector does not fail the caller: it
// substitutes the synthetic envelope and flags the result.
func DetectFile(path string, opts Options) (Result, error) {
	opts = clampOptions(opts)

	if cap := audio.Check(); !cap.Available {
		log.Warnf("Analysis: backend unavailable (%s), using degraded synthetic envelope for %s", cap.Reason, path)
		env := syntheticEnvelope(0)
		res := detectFromEnvelope(env, float64(len(env))/EnvelopeRate, opts)
		res.Degraded = true
		return res, nil
	}

	buf, err := audio.Decode(path)
	if err != nil {
		return Result{}, err
	}
	return DetectTransients(buf, opts), nil
}

func clampOptions(opts Options) Options {
	if opts.Sensitivity < 0 {
		opts.Sensitivity = 0
	} else if opts.Sensitivity > 1 {
		opts.Sensitivity = 1
	}
	if opts.MinGap <= 0 {
		opts.MinGap = DefaultMinGap
	}
	return opts
}

// AdaptiveThreshold derives the detection threshold from the loudness
// distribution of this specific envelope: the value at the
// (1 - sensitivity*0.3) percentile of the descending-sorted samples,
// scaled by 0.8. Transient prominence is relative, not absolute, so the
// threshold tracks the recording rather than a fixed dB floor. The curve
// is an empirical tuning; keep it as is.
func AdaptiveThreshold(env []float64, sensitivity float64) float64 {
	if len(env) == 0 {
		return 0
	}
	sorted := make([]float64, len(env))
	copy(sorted, env)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	// Index from the loud end: sensitivity 0 sits at the loudest sample,
	// sensitivity 1 reaches 30% of the way into the distribution.
	idx := int(sensitivity * 0.3 * float64(len(sorted)-1))

	// Sparse material (clicks over digital silence) can land the
	// percentile on a zero. Walk back toward the loud end so silence
	// never disables detection outright.
	for idx > 0 && sorted[idx] <= 0 {
		idx--
	}
	return sorted[idx] * 0.8
}

func detectFromEnvelope(env []float64, duration float64, opts Options) Result {
	res := Result{Duration: duration}
	if len(env) < 3 {
		return res
	}

	threshold := AdaptiveThreshold(env, opts.Sensitivity)
	if threshold <= 0 {
		return res
	}

	minGapFrames := int(opts.MinGap * EnvelopeRate)
	lastAccepted := -minGapFrames - 1
	for i := 1; i < len(env)-1; i++ {
		if env[i] <= env[i-1] || env[i] <= env[i+1] {
			continue
		}
		if env[i] < threshold {
			continue
		}
		if i-lastAccepted <= minGapFrames {
			continue
		}
		strength := env[i] / threshold
		if strength > 1 {
			strength = 1
		}
		res.Transients = append(res.Transients, warp.Transient{
			Time:          float64(i) / EnvelopeRate,
			Strength:      strength,
			SuggestedBeat: warp.NoBeat,
		})
		lastAccepted = i
	}

	if opts.EstimateTempo {
		res.DetectedBPM = estimateTempo(res.Transients)
		if res.DetectedBPM > 0 {
			annotateBeats(res.Transients, res.DetectedBPM)
		}
	}

	log.Debugf("Analysis: %d transients over %.2fs (threshold=%.4f bpm=%.1f)",
		len(res.Transients), duration, threshold, res.DetectedBPM)
	return res
}
