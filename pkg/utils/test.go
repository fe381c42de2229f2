// Package utils provides deterministic signal generators shared by tests.
package utils

import "math"

// GenerateSineWave returns a mono sine wave with samples in [-0.9, 0.9].
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*frequency*t) * 0.9
	}
	return buffer
}

// GenerateComplexWave returns a 440Hz fundamental plus two harmonics.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		buffer[i] = (math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2) * 0.9
	}
	return buffer
}

// GenerateClickTrack returns silence punctuated by short decaying bursts at
// the given tempo. Each click is 5ms of full-scale noise-free impulse decay,
// which makes onsets unambiguous for detector tests.
func GenerateClickTrack(bpm float64, duration float64, sampleRate int) []float64 {
	total := int(duration * float64(sampleRate))
	buffer := make([]float64, total)
	interval := 60.0 / bpm
	clickLen := sampleRate / 200
	for beat := 0; ; beat++ {
		start := int(float64(beat) * interval * float64(sampleRate))
		if start >= total {
			break
		}
		for i := 0; i < clickLen && start+i < total; i++ {
			buffer[start+i] = 0.95 * (1 - float64(i)/float64(clickLen))
		}
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude in [startBin, endBin].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
