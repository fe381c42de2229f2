// SPDX-License-Identifier: MIT
/*
Package commit orchestrates full-quality asynchronous renders: a commit
request snapshots a clip's markers and options, goes onto the job queue,
and a worker renders it to a new artifact.

State machine per task: pending -> running -> {completed | failed}. Both
terminal states are final; retries belong to the external queue policy,
never to the worker itself.
*/
package commit

import (
	"warp/internal/stretch"
	"warp/internal/warp"
)

// Task states.
const (
	StatePending   = "pending"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// Job is the immutable payload captured at enqueue time. Marker edits
// made after Commit never affect an in-flight render.
type Job struct {
	ID        string            `json:"jobId"`
	ClipID    string            `json:"clipId"`
	SourceKey string            `json:"sourceKey"`
	Markers   []warp.Marker     `json:"markers"`
	Pitch     float64           `json:"pitchShift"`
	Formants  bool              `json:"preserveFormants"`
	Algorithm stretch.Algorithm `json:"algorithm"`
	Quality   stretch.Quality   `json:"quality"`
}

// Result records a completed render for auditability: the artifact
// location, the output duration recomputed from the actual samples, and
// the marker mapping that produced it.
type Result struct {
	OutputKey string        `json:"outputKey"`
	Duration  float64       `json:"duration"`
	Format    string        `json:"format"`
	Markers   []warp.Marker `json:"markers"`
}

// Task is the queryable state of one commit.
type Task struct {
	JobID  string  `json:"jobId"`
	ClipID string  `json:"clipId"`
	State  string  `json:"state"`
	Error  string  `json:"error,omitempty"`
	Result *Result `json:"result,omitempty"`
}

// Clip is the external entity a commit renders, referenced not owned:
// the engine reads it and writes back only the output key on completion.
type Clip struct {
	ID               string        `json:"id"`
	SourceKey        string        `json:"sourceKey"`
	Duration         float64       `json:"duration"`
	PitchShift       float64       `json:"pitchShift"`
	PreserveFormants bool          `json:"preserveFormants"`
	Markers          []warp.Marker `json:"markers"`
}
