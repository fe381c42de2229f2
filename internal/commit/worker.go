// SPDX-License-Identifier: MIT
package commit

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/ossrs/go-oryx-lib/errors"

	"warp/internal/audio"
	"warp/internal/log"
	"warp/internal/storage"
	"warp/internal/stretch"
	"warp/internal/transport"
)

// Worker consumes commit jobs and renders them. One job at a time per
// worker; parallelism across commits comes from running more workers.
type Worker struct {
	queue  Queue
	tasks  TaskStore
	store  storage.Store
	events transport.Transport

	// BitDepth of encoded artifacts.
	BitDepth int
}

func NewWorker(queue Queue, tasks TaskStore, store storage.Store, events transport.Transport) *Worker {
	if events == nil {
		events = transport.NewLoggingTransport()
	}
	return &Worker{
		queue:    queue,
		tasks:    tasks,
		store:    store,
		events:   events,
		BitDepth: 16,
	}
}

// Run consumes jobs until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	log.Infof("Commit worker: running")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		job, err := w.queue.Pop(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Errorf("Commit worker: pop failed: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}
		w.handle(ctx, job)
	}
}

// handle runs one job through the state machine. Terminal state is always
// recorded; a failed render leaves no partial artifact visible and no
// temp files behind.
func (w *Worker) handle(ctx context.Context, job *Job) {
	task := &Task{JobID: job.ID, ClipID: job.ClipID, State: StateRunning}
	if err := w.tasks.Save(ctx, task); err != nil {
		log.Errorf("Commit worker: save running state for %s: %v", job.ID, err)
		return
	}
	w.events.Send(transport.Event{Type: "commit.running", JobID: job.ID})

	result, err := w.render(ctx, job)
	if err != nil {
		task.State = StateFailed
		task.Error = err.Error()
		log.Errorf("Commit worker: job %s failed: %v", job.ID, err)
		w.events.Send(transport.Event{Type: "commit.failed", JobID: job.ID,
			Payload: map[string]any{"error": err.Error()}})
	} else {
		task.State = StateCompleted
		task.Result = result
		log.Infof("Commit worker: job %s completed, artifact %s (%.3fs)", job.ID, result.OutputKey, result.Duration)
		w.events.Send(transport.Event{Type: "commit.completed", JobID: job.ID,
			Payload: map[string]any{"outputKey": result.OutputKey, "duration": result.Duration}})
	}
	if err := w.tasks.Save(ctx, task); err != nil {
		log.Errorf("Commit worker: save terminal state for %s: %v", job.ID, err)
	}
}

// render downloads, stretches and uploads one job. All intermediates live
// in an invocation-scoped temp dir removed on every exit path; the
// artifact reaches its final key only after the whole render succeeded.
func (w *Worker) render(ctx context.Context, job *Job) (*Result, error) {
	// Job IDs come off the queue as external JSON; do not assume length.
	prefix := job.ID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	workDir, err := os.MkdirTemp("", "warp-commit-"+prefix+"-")
	if err != nil {
		return nil, errors.Wrapf(err, "create workspace")
	}
	defer os.RemoveAll(workDir)

	srcData, err := w.store.Download(ctx, job.SourceKey)
	if err != nil {
		return nil, errors.Wrapf(err, "download source %v", job.SourceKey)
	}
	srcPath := filepath.Join(workDir, "source.wav")
	if err := os.WriteFile(srcPath, srcData, 0o644); err != nil {
		return nil, errors.Wrapf(err, "stage source")
	}

	src, err := audio.Decode(srcPath)
	if err != nil {
		return nil, err
	}

	opts := stretch.Options{
		PitchShiftSemitones: job.Pitch,
		PreserveFormants:    job.Formants,
		Algorithm:           job.Algorithm,
		Quality:             job.Quality,
	}
	out, err := stretch.Stretch(ctx, src, job.Markers, opts)
	if err != nil {
		return nil, err
	}

	outPath := filepath.Join(workDir, "output.wav")
	if err := audio.Encode(outPath, out, w.BitDepth); err != nil {
		return nil, err
	}
	outData, err := os.ReadFile(outPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read rendered output")
	}

	// Upload under a temp key, then promote: readers either see the old
	// artifact or the complete new one, never a partial write.
	finalKey := "artifacts/" + job.ClipID + "/" + job.ID + ".wav"
	tempKey := finalKey + ".tmp"
	if err := w.store.Upload(ctx, tempKey, outData); err != nil {
		return nil, err
	}
	if err := w.store.Promote(ctx, tempKey, finalKey); err != nil {
		w.store.Delete(ctx, tempKey)
		return nil, err
	}

	return &Result{
		OutputKey: finalKey,
		Duration:  out.Duration(),
		Format:    "wav",
		Markers:   job.Markers,
	}, nil
}
