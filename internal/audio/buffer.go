// SPDX-License-Identifier: MIT
/*
Package audio is the PCM backend for the warp engine:
- WAV probe/decode/encode via go-audio
- sample-accurate range extraction and gap-free concatenation
- an explicit capability check separating "backend missing" from
  "file unreadable"

The engine operates on decoded mono float64 buffers; multi-channel
sources are downmixed on decode. Spatial processing is out of scope.
*/
package audio

import (
	"math"

	"github.com/ossrs/go-oryx-lib/errors"

	"warp/internal/warp"
)

// Buffer holds decoded PCM, mono, normalized to [-1,1).
type Buffer struct {
	Data       []float64
	SampleRate int

	// SourceChannels is the channel count of the file this buffer was
	// decoded from, kept for diagnostics and re-encoding decisions.
	SourceChannels int
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Data)) / float64(b.SampleRate)
}

// Clone returns a deep copy. Stretch invocations never share sample
// storage, so concurrent renders cannot collide.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		Data:           make([]float64, len(b.Data)),
		SampleRate:     b.SampleRate,
		SourceChannels: b.SourceChannels,
	}
	copy(out.Data, b.Data)
	return out
}

// ExtractRange returns a copy of [start, start+duration) seconds, clamped
// to the buffer bounds. A range entirely outside the buffer yields an
// empty buffer, not an error.
func (b *Buffer) ExtractRange(start, duration float64) *Buffer {
	s := int(math.Round(start * float64(b.SampleRate)))
	n := int(math.Round(duration * float64(b.SampleRate)))
	if s < 0 {
		n += s
		s = 0
	}
	if s > len(b.Data) {
		s = len(b.Data)
	}
	if n < 0 {
		n = 0
	}
	if s+n > len(b.Data) {
		n = len(b.Data) - s
	}
	out := &Buffer{
		Data:           make([]float64, n),
		SampleRate:     b.SampleRate,
		SourceChannels: b.SourceChannels,
	}
	copy(out.Data, b.Data[s:s+n])
	return out
}

// Concatenate splices parts into one continuous buffer in the given order.
// Sample rates must agree; there is no resampling here.
func Concatenate(parts []*Buffer) (*Buffer, error) {
	if len(parts) == 0 {
		return nil, errors.Wrapf(warp.ErrRenderFailure, "concatenate: no parts")
	}
	total := 0
	rate := parts[0].SampleRate
	channels := parts[0].SourceChannels
	for i, p := range parts {
		if p.SampleRate != rate {
			return nil, errors.Wrapf(warp.ErrRenderFailure, "concatenate: part %d sample rate %d != %d", i, p.SampleRate, rate)
		}
		total += len(p.Data)
	}
	out := &Buffer{
		Data:           make([]float64, 0, total),
		SampleRate:     rate,
		SourceChannels: channels,
	}
	for _, p := range parts {
		out.Data = append(out.Data, p.Data...)
	}
	return out, nil
}
