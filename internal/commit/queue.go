// SPDX-License-Identifier: MIT
package commit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ossrs/go-oryx-lib/errors"
)

// Redis keys for the commit subsystem.
const (
	queueKey = "warp:commit:queue"
	tasksKey = "warp:commit:tasks"
	clipsKey = "warp:clips"
)

// Queue hands jobs from Commit to a worker. Pop blocks up to timeout and
// returns (nil, nil) when nothing arrived.
type Queue interface {
	Push(ctx context.Context, job *Job) error
	Pop(ctx context.Context, timeout time.Duration) (*Job, error)
}

// TaskStore persists task state transitions.
type TaskStore interface {
	Save(ctx context.Context, task *Task) error
	Load(ctx context.Context, jobID string) (*Task, error)
}

// MarkerReader is the read-only clip/marker persistence collaborator.
// The engine never writes markers, it only reads them at commit time.
type MarkerReader interface {
	LoadClip(ctx context.Context, clipID string) (*Clip, error)
}

// RedisBackend implements Queue, TaskStore and MarkerReader on one redis
// client: jobs on a list, task and clip state in hashes.
type RedisBackend struct {
	rdb *redis.Client
}

func NewRedisBackend(addr, password string, db int) *RedisBackend {
	return &RedisBackend{
		rdb: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
	}
}

func (b *RedisBackend) Push(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrapf(err, "marshal job %v", job.ID)
	}
	if err := b.rdb.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		return errors.Wrapf(err, "push job %v", job.ID)
	}
	return nil
}

func (b *RedisBackend) Pop(ctx context.Context, timeout time.Duration) (*Job, error) {
	r, err := b.rdb.BRPop(ctx, timeout, queueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "pop commit queue")
	}
	// BRPop returns [key, value].
	var job Job
	if err := json.Unmarshal([]byte(r[1]), &job); err != nil {
		return nil, errors.Wrapf(err, "unmarshal job payload")
	}
	return &job, nil
}

func (b *RedisBackend) Save(ctx context.Context, task *Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return errors.Wrapf(err, "marshal task %v", task.JobID)
	}
	if err := b.rdb.HSet(ctx, tasksKey, task.JobID, string(data)).Err(); err != nil {
		return errors.Wrapf(err, "save task %v", task.JobID)
	}
	return nil
}

func (b *RedisBackend) Load(ctx context.Context, jobID string) (*Task, error) {
	r, err := b.rdb.HGet(ctx, tasksKey, jobID).Result()
	if err == redis.Nil {
		return nil, errors.Errorf("no such task %v", jobID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load task %v", jobID)
	}
	var task Task
	if err := json.Unmarshal([]byte(r), &task); err != nil {
		return nil, errors.Wrapf(err, "unmarshal task %v", jobID)
	}
	return &task, nil
}

func (b *RedisBackend) LoadClip(ctx context.Context, clipID string) (*Clip, error) {
	r, err := b.rdb.HGet(ctx, clipsKey, clipID).Result()
	if err == redis.Nil {
		return nil, errors.Errorf("no such clip %v", clipID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load clip %v", clipID)
	}
	var clip Clip
	if err := json.Unmarshal([]byte(r), &clip); err != nil {
		return nil, errors.Wrapf(err, "unmarshal clip %v", clipID)
	}
	return &clip, nil
}

// Close releases the redis connection.
func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}

var (
	_ Queue        = (*RedisBackend)(nil)
	_ TaskStore    = (*RedisBackend)(nil)
	_ MarkerReader = (*RedisBackend)(nil)
)
