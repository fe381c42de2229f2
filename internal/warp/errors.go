// SPDX-License-Identifier: MIT
package warp

import "github.com/ossrs/go-oryx-lib/errors"

// Sentinel causes for the engine's error taxonomy. Call sites wrap these
// with errors.Wrapf to attach context (segment index, algorithm, file);
// callers classify with errors.Cause.
var (
	// ErrUnreadableAudio means the source container/codec could not be
	// parsed or carries no audio stream.
	ErrUnreadableAudio = errors.New("unreadable audio")

	// ErrBackendUnavailable means the PCM decode/stretch backend is not
	// present in this runtime. Hard failure for the stretch engine; the
	// transient detector degrades instead.
	ErrBackendUnavailable = errors.New("audio backend unavailable")

	// ErrInvalidMapping means the marker list violates ordering or
	// monotonicity, or implies a non-positive stretch ratio. Raised by
	// validation before any audio I/O.
	ErrInvalidMapping = errors.New("invalid warp mapping")

	// ErrRenderFailure means a lower-level processing error occurred
	// during segment extraction, stretch or concatenation.
	ErrRenderFailure = errors.New("render failure")
)

// Is reports whether err's root cause is the given sentinel.
func Is(err, sentinel error) bool {
	return errors.Cause(err) == sentinel
}
