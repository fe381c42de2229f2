// SPDX-License-Identifier: MIT
package commit

import (
	"context"

	"github.com/google/uuid"
	"github.com/ossrs/go-oryx-lib/errors"

	"warp/internal/log"
	"warp/internal/stretch"
	"warp/internal/warp"
)

// Pipeline accepts commit requests. Validation happens here,
// synchronously, so an invalid mapping is rejected before anything is
// enqueued.
type Pipeline struct {
	queue  Queue
	tasks  TaskStore
	reader MarkerReader

	// Commits always render at full quality; the algorithm is the
	// caller's own default unless the clip overrides it.
	algorithm stretch.Algorithm
}

func NewPipeline(queue Queue, tasks TaskStore, reader MarkerReader, algorithm stretch.Algorithm) *Pipeline {
	return &Pipeline{
		queue:     queue,
		tasks:     tasks,
		reader:    reader,
		algorithm: algorithm,
	}
}

// Commit snapshots the clip's markers and options and enqueues a render
// job. The snapshot is immutable: later marker edits do not touch the
// in-flight job. Returns the job ID for status polling.
func (p *Pipeline) Commit(ctx context.Context, clipID string) (string, error) {
	clip, err := p.reader.LoadClip(ctx, clipID)
	if err != nil {
		return "", errors.Wrapf(err, "commit clip %v", clipID)
	}

	markers := make([]warp.Marker, len(clip.Markers))
	copy(markers, clip.Markers)
	warp.SortMarkers(markers)
	if err := warp.ValidateMarkers(markers); err != nil {
		return "", err
	}

	job := &Job{
		ID:        uuid.NewString(),
		ClipID:    clip.ID,
		SourceKey: clip.SourceKey,
		Markers:   markers,
		Pitch:     clip.PitchShift,
		Formants:  clip.PreserveFormants,
		Algorithm: p.algorithm,
		Quality:   stretch.QualityHigh,
	}

	if err := p.tasks.Save(ctx, &Task{JobID: job.ID, ClipID: clip.ID, State: StatePending}); err != nil {
		return "", err
	}
	if err := p.queue.Push(ctx, job); err != nil {
		return "", err
	}

	log.Infof("Commit: queued job %s for clip %s (%d markers)", job.ID, clipID, len(markers))
	return job.ID, nil
}

// Status returns the task state for a job.
func (p *Pipeline) Status(ctx context.Context, jobID string) (*Task, error) {
	return p.tasks.Load(ctx, jobID)
}
