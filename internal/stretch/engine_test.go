// SPDX-License-Identifier: MIT
package stretch

import (
	"context"
	"math"
	"testing"

	"warp/internal/audio"
	"warp/internal/warp"
	"warp/pkg/utils"
)

const testRate = 8000

func toneBuffer(seconds float64) *audio.Buffer {
	n := int(seconds * testRate)
	return &audio.Buffer{
		Data:           utils.GenerateComplexWave(n, testRate),
		SampleRate:     testRate,
		SourceChannels: 1,
	}
}

func fastOptions(a Algorithm) Options {
	return Options{Algorithm: a, Quality: QualityFast}
}

func TestStretchNoMarkersIsVerbatim(t *testing.T) {
	src := toneBuffer(1)

	out, err := Stretch(context.Background(), src, nil, fastOptions(AlgorithmHighQuality))
	if err != nil {
		t.Fatalf("Stretch() error = %v", err)
	}

	if len(out.Data) != len(src.Data) {
		t.Fatalf("Stretch() samples = %d, want %d", len(out.Data), len(src.Data))
	}
	for i := range out.Data {
		if out.Data[i] != src.Data[i] {
			t.Fatalf("Stretch() sample %d = %f, want %f (verbatim copy)", i, out.Data[i], src.Data[i])
		}
	}
}

func TestStretchPiecewiseMapping(t *testing.T) {
	// First half untouched, second half stretched 5s -> 6s.
	src := toneBuffer(10)
	markers := []warp.Marker{
		{SourceTime: 0, TargetTime: 0},
		{SourceTime: 5, TargetTime: 5},
		{SourceTime: 10, TargetTime: 11},
	}

	for _, algorithm := range []Algorithm{AlgorithmHighQuality, AlgorithmPhaseVocoder, AlgorithmOverlapAdd} {
		t.Run(algorithm.String(), func(t *testing.T) {
			out, err := Stretch(context.Background(), src, markers, fastOptions(algorithm))
			if err != nil {
				t.Fatalf("Stretch() error = %v", err)
			}

			if want := 11 * testRate; len(out.Data) != want {
				t.Errorf("Stretch() samples = %d, want %d", len(out.Data), want)
			}

			// The unity-ratio half passes through bit exact.
			for i := 0; i < 5*testRate; i++ {
				if out.Data[i] != src.Data[i] {
					t.Fatalf("Stretch() sample %d modified in unity segment", i)
				}
			}
		})
	}
}

func TestStretchDurations(t *testing.T) {
	tests := []struct {
		name    string
		markers []warp.Marker
		seconds float64
		want    int
	}{
		{
			name: "double",
			markers: []warp.Marker{
				{SourceTime: 0, TargetTime: 0},
				{SourceTime: 1, TargetTime: 2},
			},
			seconds: 1,
			want:    2 * testRate,
		},
		{
			name: "halve",
			markers: []warp.Marker{
				{SourceTime: 0, TargetTime: 0},
				{SourceTime: 2, TargetTime: 1},
			},
			seconds: 2,
			want:    1 * testRate,
		},
		{
			name: "tail keeps duration",
			markers: []warp.Marker{
				{SourceTime: 0, TargetTime: 0},
				{SourceTime: 1, TargetTime: 1.5},
			},
			seconds: 2,
			want:    int(2.5 * testRate),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := toneBuffer(tt.seconds)
			out, err := Stretch(context.Background(), src, tt.markers, fastOptions(AlgorithmPhaseVocoder))
			if err != nil {
				t.Fatalf("Stretch() error = %v", err)
			}
			if len(out.Data) != tt.want {
				t.Errorf("Stretch() samples = %d, want %d", len(out.Data), tt.want)
			}
		})
	}
}

func TestStretchSlowedSegmentTailCarriesSignal(t *testing.T) {
	// A steady tone stretched 2s -> 4s must stay audible through the
	// final analysis window of the slowed segment; an algorithm whose
	// frame loop stops early leaves dead silence spliced in right where
	// the next segment begins.
	src := toneBuffer(4)
	markers := []warp.Marker{
		{SourceTime: 0, TargetTime: 0},
		{SourceTime: 2, TargetTime: 4},
	}

	rms := func(x []float64) float64 {
		var sum float64
		for _, s := range x {
			sum += s * s
		}
		return math.Sqrt(sum / float64(len(x)))
	}

	for _, algorithm := range []Algorithm{AlgorithmHighQuality, AlgorithmPhaseVocoder, AlgorithmOverlapAdd} {
		t.Run(algorithm.String(), func(t *testing.T) {
			out, err := Stretch(context.Background(), src, markers, fastOptions(algorithm))
			if err != nil {
				t.Fatalf("Stretch() error = %v", err)
			}

			window := paramsFor(QualityFast).fftSize
			segEnd := 4 * testRate
			tail := rms(out.Data[segEnd-window : segEnd])
			overall := rms(out.Data)
			if tail < overall*0.25 {
				t.Errorf("Stretch() tail rms = %f, overall rms = %f; slowed segment ends in silence", tail, overall)
			}
		})
	}
}

func TestStretchZeroLengthSegment(t *testing.T) {
	src := toneBuffer(4)
	markers := []warp.Marker{
		{SourceTime: 0, TargetTime: 0},
		{SourceTime: 2, TargetTime: 2},
		{SourceTime: 2, TargetTime: 2.5},
	}

	out, err := Stretch(context.Background(), src, markers, fastOptions(AlgorithmOverlapAdd))
	if err != nil {
		t.Fatalf("Stretch() error = %v (zero-length segments must not fail)", err)
	}
	if out == nil || len(out.Data) == 0 {
		t.Fatal("Stretch() produced no output")
	}
}

func TestStretchInvalidMappings(t *testing.T) {
	src := toneBuffer(5)

	tests := []struct {
		name    string
		markers []warp.Marker
	}{
		{
			name: "zero target duration",
			markers: []warp.Marker{
				{SourceTime: 2, TargetTime: 1},
				{SourceTime: 4, TargetTime: 1},
			},
		},
		{
			name: "decreasing target",
			markers: []warp.Marker{
				{SourceTime: 1, TargetTime: 2},
				{SourceTime: 2, TargetTime: 1},
			},
		},
		{
			name: "marker beyond clip",
			markers: []warp.Marker{
				{SourceTime: 0, TargetTime: 0},
				{SourceTime: 9, TargetTime: 9},
			},
		},
		{
			name: "negative time",
			markers: []warp.Marker{
				{SourceTime: -1, TargetTime: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Stretch(context.Background(), src, tt.markers, fastOptions(AlgorithmOverlapAdd))
			if err == nil {
				t.Fatal("Stretch() expected error")
			}
			if !warp.Is(err, warp.ErrInvalidMapping) {
				t.Errorf("Stretch() cause = %v, want ErrInvalidMapping", err)
			}
		})
	}
}

func TestStretchBackendUnavailable(t *testing.T) {
	restore := audio.Override(audio.Capability{Available: false, Reason: "test"})
	defer restore()

	_, err := Stretch(context.Background(), toneBuffer(1), nil, fastOptions(AlgorithmOverlapAdd))
	if err == nil {
		t.Fatal("Stretch() expected error with backend unavailable")
	}
	if !warp.Is(err, warp.ErrBackendUnavailable) {
		t.Errorf("Stretch() cause = %v, want ErrBackendUnavailable", err)
	}
}

func TestStretchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Stretch(ctx, toneBuffer(1), nil, fastOptions(AlgorithmOverlapAdd))
	if err == nil {
		t.Fatal("Stretch() expected error with canceled context")
	}
}

func TestStretchRejectsBadOptions(t *testing.T) {
	opts := Options{Algorithm: Algorithm(99), Quality: QualityNormal}
	_, err := Stretch(context.Background(), toneBuffer(1), nil, opts)
	if err == nil {
		t.Fatal("Stretch() expected error for unknown algorithm")
	}
	if !warp.Is(err, warp.ErrInvalidMapping) {
		t.Errorf("Stretch() cause = %v, want ErrInvalidMapping", err)
	}

	opts = Options{Algorithm: AlgorithmHighQuality, Quality: QualityNormal, PitchShiftSemitones: 60}
	if _, err := Stretch(context.Background(), toneBuffer(1), nil, opts); err == nil {
		t.Fatal("Stretch() expected error for out-of-range pitch shift")
	}
}

func TestStretchPitchShiftKeepsDuration(t *testing.T) {
	src := toneBuffer(1)
	opts := Options{
		Algorithm:           AlgorithmPhaseVocoder,
		Quality:             QualityFast,
		PitchShiftSemitones: 12,
	}

	out, err := Stretch(context.Background(), src, nil, opts)
	if err != nil {
		t.Fatalf("Stretch() error = %v", err)
	}
	if len(out.Data) != len(src.Data) {
		t.Errorf("Stretch() pitch shift changed duration: %d samples, want %d",
			len(out.Data), len(src.Data))
	}
}

func TestStretchPitchShiftWithFormants(t *testing.T) {
	src := toneBuffer(1)
	opts := Options{
		Algorithm:           AlgorithmHighQuality,
		Quality:             QualityFast,
		PitchShiftSemitones: -5,
		PreserveFormants:    true,
	}

	out, err := Stretch(context.Background(), src, nil, opts)
	if err != nil {
		t.Fatalf("Stretch() error = %v", err)
	}
	if len(out.Data) != len(src.Data) {
		t.Errorf("Stretch() samples = %d, want %d", len(out.Data), len(src.Data))
	}

	var energy float64
	for _, s := range out.Data {
		energy += s * s
	}
	if energy == 0 {
		t.Error("Stretch() formant-preserving render produced silence")
	}
}
