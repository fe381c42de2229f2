// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/ossrs/go-oryx-lib/errors"

	"warp/internal/warp"
)

// Info is the metadata reported by Probe. Everything downstream depends on
// an accurate Duration; callers must not proceed on probe failure.
type Info struct {
	Duration   float64 `json:"duration"`
	SampleRate int     `json:"sampleRate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bitDepth"`
	Frames     int     `json:"frames"`
}

// Probe opens a WAV source and reports duration, sample rate and channel
// count without decoding the sample data.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, errors.Wrapf(warp.ErrUnreadableAudio, "open %v: %v", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return Info{}, errors.Wrapf(warp.ErrUnreadableAudio, "not a valid wav file: %v", path)
	}
	if dec.SampleRate == 0 || dec.NumChans == 0 {
		return Info{}, errors.Wrapf(warp.ErrUnreadableAudio, "no audio stream in %v", path)
	}

	dur, err := dec.Duration()
	if err != nil {
		return Info{}, errors.Wrapf(warp.ErrUnreadableAudio, "duration of %v: %v", path, err)
	}
	info := Info{
		Duration:   dur.Seconds(),
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	info.Frames = int(math.Round(info.Duration * float64(info.SampleRate)))
	return info, nil
}

// Decode reads the whole WAV file into a mono Buffer. Multi-channel input
// is averaged down to one channel.
func Decode(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(warp.ErrUnreadableAudio, "open %v: %v", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() || dec.SampleRate == 0 || dec.NumChans == 0 {
		return nil, errors.Wrapf(warp.ErrUnreadableAudio, "not a decodable wav file: %v", path)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrapf(warp.ErrUnreadableAudio, "read pcm of %v: %v", path, err)
	}

	channels := pcm.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := 1.0 / float64(int(1)<<(uint(dec.BitDepth)-1))
	frames := len(pcm.Data) / channels

	out := &Buffer{
		Data:           make([]float64, frames),
		SampleRate:     pcm.Format.SampleRate,
		SourceChannels: channels,
	}
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(pcm.Data[i*channels+c]) * scale
		}
		out.Data[i] = sum / float64(channels)
	}
	return out, nil
}

// Encode writes the buffer as a mono WAV file at the given bit depth.
// The parent directory must exist.
func Encode(path string, buf *Buffer, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return errors.Errorf("unsupported bit depth %d", bitDepth)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(warp.ErrRenderFailure, "create %v: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, buf.SampleRate, bitDepth, 1, 1)
	limit := float64(int(1)<<(uint(bitDepth)-1)) - 1

	chunk := &gaudio.IntBuffer{
		Format: &gaudio.Format{NumChannels: 1, SampleRate: buf.SampleRate},
		Data:   make([]int, 0, 4096),
	}
	for start := 0; start < len(buf.Data); start += 4096 {
		end := start + 4096
		if end > len(buf.Data) {
			end = len(buf.Data)
		}
		chunk.Data = chunk.Data[:0]
		for _, s := range buf.Data[start:end] {
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			chunk.Data = append(chunk.Data, int(math.Round(s*limit)))
		}
		if err := enc.Write(chunk); err != nil {
			enc.Close()
			return errors.Wrapf(warp.ErrRenderFailure, "write wav %v", path)
		}
	}
	if err := enc.Close(); err != nil {
		return errors.Wrapf(warp.ErrRenderFailure, "close wav %v", path)
	}
	return nil
}
