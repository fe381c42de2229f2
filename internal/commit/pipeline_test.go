// SPDX-License-Identifier: MIT
package commit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ossrs/go-oryx-lib/errors"

	"warp/internal/stretch"
	"warp/internal/warp"
)

// memBackend is an in-memory Queue, TaskStore and MarkerReader for tests.
type memBackend struct {
	mu    sync.Mutex
	jobs  []*Job
	tasks map[string]*Task
	clips map[string]*Clip

	// saves records every task state written, in order.
	saves []string
}

func newMemBackend() *memBackend {
	return &memBackend{
		tasks: make(map[string]*Task),
		clips: make(map[string]*Clip),
	}
}

func (m *memBackend) Push(ctx context.Context, job *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *memBackend) Pop(ctx context.Context, timeout time.Duration) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.jobs) == 0 {
		return nil, nil
	}
	job := m.jobs[0]
	m.jobs = m.jobs[1:]
	return job, nil
}

func (m *memBackend) Save(ctx context.Context, task *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *task
	m.tasks[task.JobID] = &saved
	m.saves = append(m.saves, task.State)
	return nil
}

func (m *memBackend) Load(ctx context.Context, jobID string) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[jobID]
	if !ok {
		return nil, errors.Errorf("no such task %v", jobID)
	}
	return task, nil
}

func (m *memBackend) LoadClip(ctx context.Context, clipID string) (*Clip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clip, ok := m.clips[clipID]
	if !ok {
		return nil, errors.Errorf("no such clip %v", clipID)
	}
	return clip, nil
}

func validClip() *Clip {
	return &Clip{
		ID:        "clip-1",
		SourceKey: "clips/clip-1/source.wav",
		Duration:  2,
		Markers: []warp.Marker{
			{ID: "m0", SourceTime: 0, TargetTime: 0},
			{ID: "m1", SourceTime: 1, TargetTime: 1.5},
		},
	}
}

func TestPipelineCommitEnqueues(t *testing.T) {
	backend := newMemBackend()
	backend.clips["clip-1"] = validClip()
	pipeline := NewPipeline(backend, backend, backend, stretch.AlgorithmHighQuality)

	jobID, err := pipeline.Commit(context.Background(), "clip-1")
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if jobID == "" {
		t.Fatal("Commit() returned empty job ID")
	}

	if len(backend.jobs) != 1 {
		t.Fatalf("Commit() queued %d jobs, want 1", len(backend.jobs))
	}
	job := backend.jobs[0]
	if job.ID != jobID || job.ClipID != "clip-1" || job.SourceKey != "clips/clip-1/source.wav" {
		t.Errorf("Commit() job = %+v", job)
	}
	if job.Quality != stretch.QualityHigh {
		t.Errorf("Commit() quality = %v, want high (commits always render at full quality)", job.Quality)
	}

	task, err := pipeline.Status(context.Background(), jobID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if task.State != StatePending {
		t.Errorf("Status() state = %q, want %q", task.State, StatePending)
	}
}

func TestPipelineCommitSnapshotsMarkers(t *testing.T) {
	backend := newMemBackend()
	clip := validClip()
	backend.clips[clip.ID] = clip
	pipeline := NewPipeline(backend, backend, backend, stretch.AlgorithmHighQuality)

	if _, err := pipeline.Commit(context.Background(), clip.ID); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	// Edit the clip after committing; the queued job keeps its snapshot.
	clip.Markers[1].TargetTime = 9

	if got := backend.jobs[0].Markers[1].TargetTime; got != 1.5 {
		t.Errorf("Commit() job marker target = %f after clip edit, want 1.5", got)
	}
}

func TestPipelineCommitSortsMarkers(t *testing.T) {
	backend := newMemBackend()
	backend.clips["clip-1"] = &Clip{
		ID:        "clip-1",
		SourceKey: "clips/clip-1/source.wav",
		Markers: []warp.Marker{
			{ID: "late", SourceTime: 1, TargetTime: 1.5},
			{ID: "early", SourceTime: 0, TargetTime: 0},
		},
	}
	pipeline := NewPipeline(backend, backend, backend, stretch.AlgorithmHighQuality)

	if _, err := pipeline.Commit(context.Background(), "clip-1"); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if backend.jobs[0].Markers[0].ID != "early" {
		t.Errorf("Commit() did not sort markers: first = %q", backend.jobs[0].Markers[0].ID)
	}
}

func TestPipelineCommitRejectsInvalidMarkers(t *testing.T) {
	backend := newMemBackend()
	backend.clips["bad"] = &Clip{
		ID:        "bad",
		SourceKey: "clips/bad/source.wav",
		Markers: []warp.Marker{
			{SourceTime: 0, TargetTime: 2},
			{SourceTime: 1, TargetTime: 1},
		},
	}
	pipeline := NewPipeline(backend, backend, backend, stretch.AlgorithmHighQuality)

	_, err := pipeline.Commit(context.Background(), "bad")
	if err == nil {
		t.Fatal("Commit() expected error for invalid markers")
	}
	if !warp.Is(err, warp.ErrInvalidMapping) {
		t.Errorf("Commit() cause = %v, want ErrInvalidMapping", err)
	}

	if len(backend.jobs) != 0 {
		t.Errorf("Commit() queued %d jobs after rejection, want 0", len(backend.jobs))
	}
	if len(backend.tasks) != 0 {
		t.Errorf("Commit() saved %d tasks after rejection, want 0", len(backend.tasks))
	}
}

func TestPipelineCommitUnknownClip(t *testing.T) {
	backend := newMemBackend()
	pipeline := NewPipeline(backend, backend, backend, stretch.AlgorithmHighQuality)

	if _, err := pipeline.Commit(context.Background(), "ghost"); err == nil {
		t.Fatal("Commit() expected error for unknown clip")
	}
}

func TestPipelineStatusUnknownJob(t *testing.T) {
	backend := newMemBackend()
	pipeline := NewPipeline(backend, backend, backend, stretch.AlgorithmHighQuality)

	if _, err := pipeline.Status(context.Background(), "nope"); err == nil {
		t.Fatal("Status() expected error for unknown job")
	}
}
