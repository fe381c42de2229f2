// SPDX-License-Identifier: MIT
package stretch

import (
	"math"
	"testing"

	"warp/pkg/utils"
)

func TestPhaseVocoderLengths(t *testing.T) {
	data := utils.GenerateComplexWave(2*testRate, testRate)

	for _, ratio := range []float64{0.5, 0.8, 1.0, 1.25, 2.0} {
		out := phaseVocoder(data, ratio, 1024, nil)
		want := int(math.Round(float64(len(data)) * ratio))
		if len(out) != want {
			t.Errorf("phaseVocoder(ratio=%.2f) = %d samples, want %d", ratio, len(out), want)
		}
	}
}

func TestPhaseVocoderShortInputResamples(t *testing.T) {
	data := utils.GenerateSineWave(512, testRate, 440)

	out := phaseVocoder(data, 2.0, 1024, nil)
	if len(out) != 1024 {
		t.Errorf("phaseVocoder(short input) = %d samples, want 1024", len(out))
	}
}

func TestPhaseVocoderSlowdownCoversTail(t *testing.T) {
	// The final synthesis frames clamp their analysis position to the end
	// of the input; without that a doubled stretch trails off into zeros.
	data := utils.GenerateSineWave(2*testRate, testRate, 220)

	out := phaseVocoder(data, 2.0, 1024, nil)

	tail := out[len(out)-1024:]
	var sum float64
	for _, s := range tail {
		sum += s * s
	}
	if rms := math.Sqrt(sum / float64(len(tail))); rms < 0.1 {
		t.Errorf("phaseVocoder(ratio=2) tail rms = %f, want audible signal", rms)
	}
}

func TestPhaseVocoderKeepsDominantFrequency(t *testing.T) {
	// Stretching must not transpose: the dominant bin of a pure tone
	// stays put across a 1.5x stretch.
	const freq = 500.0
	data := utils.GenerateSineWave(2*testRate, testRate, freq)

	out := phaseVocoder(data, 1.5, 1024, nil)

	if peak := dominantFrequency(t, out[testRate/2:testRate/2+4096], testRate); math.Abs(peak-freq) > 20 {
		t.Errorf("phaseVocoder() dominant frequency = %.1f Hz, want %.1f", peak, freq)
	}
}

// dominantFrequency estimates the strongest frequency via a Goertzel-style
// scan over candidate bins of a 4096-point window.
func dominantFrequency(t *testing.T, data []float64, rate int) float64 {
	t.Helper()
	const n = 4096
	if len(data) < n {
		t.Fatalf("dominantFrequency: need %d samples, have %d", n, len(data))
	}
	mags := make([]float64, n/2)
	for k := 1; k < n/2; k++ {
		var re, im float64
		for i := 0; i < n; i++ {
			angle := 2 * math.Pi * float64(k) * float64(i) / n
			re += data[i] * math.Cos(angle)
			im -= data[i] * math.Sin(angle)
		}
		mags[k] = math.Hypot(re, im)
	}
	peak := utils.FindPeakBin(mags, 1, len(mags)-1)
	return float64(peak) * float64(rate) / n
}

func TestResampleLinear(t *testing.T) {
	ramp := make([]float64, 100)
	for i := range ramp {
		ramp[i] = float64(i)
	}

	doubled := resampleLinear(ramp, 2.0)
	if len(doubled) != 200 {
		t.Fatalf("resampleLinear(2.0) = %d samples, want 200", len(doubled))
	}
	if doubled[0] != 0 || doubled[len(doubled)-1] != 99 {
		t.Errorf("resampleLinear() endpoints = %f, %f; want 0, 99", doubled[0], doubled[len(doubled)-1])
	}
	for i := 1; i < len(doubled); i++ {
		if doubled[i] < doubled[i-1] {
			t.Fatalf("resampleLinear() not monotone at %d on a ramp", i)
		}
	}

	halved := resampleLinear(ramp, 0.5)
	if len(halved) != 50 {
		t.Errorf("resampleLinear(0.5) = %d samples, want 50", len(halved))
	}

	if out := resampleLinear(nil, 2.0); out != nil {
		t.Error("resampleLinear(nil) should return nil")
	}
	if out := resampleLinear(ramp, 0); out != nil {
		t.Error("resampleLinear(factor=0) should return nil")
	}
}

func TestFitLength(t *testing.T) {
	data := []float64{1, 2, 3, 4}

	if got := fitLength(data, 4); len(got) != 4 || got[3] != 4 {
		t.Errorf("fitLength(same) = %v", got)
	}
	if got := fitLength(data, 2); len(got) != 2 || got[1] != 2 {
		t.Errorf("fitLength(trim) = %v", got)
	}
	got := fitLength(data, 6)
	if len(got) != 6 || got[3] != 4 || got[4] != 0 || got[5] != 0 {
		t.Errorf("fitLength(pad) = %v", got)
	}
	if got := fitLength(data, -1); len(got) != 0 {
		t.Errorf("fitLength(-1) = %v, want empty", got)
	}
}

func TestSemitonesToFactor(t *testing.T) {
	tests := []struct {
		semitones float64
		want      float64
	}{
		{0, 1.0},
		{12, 2.0},
		{-12, 0.5},
		{7, math.Pow(2, 7.0/12)},
	}

	for _, tt := range tests {
		if got := semitonesToFactor(tt.semitones); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("semitonesToFactor(%f) = %f, want %f", tt.semitones, got, tt.want)
		}
	}
}

func TestPrincarg(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{math.Pi / 2, math.Pi / 2},
		{2 * math.Pi, 0},
		{3 * math.Pi, -math.Pi},
		{-5 * math.Pi / 2, -math.Pi / 2},
	}

	for _, tt := range tests {
		if got := princarg(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("princarg(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}
