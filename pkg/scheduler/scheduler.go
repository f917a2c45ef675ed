// Package scheduler runs a task once, after a delay, unless the job is canceled first.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Task is the work performed by a Job.
type Task interface {
	Run(ctx context.Context) error
}

// TaskFunc adapts a function to a Task.
type TaskFunc func(ctx context.Context) error

func (f TaskFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Schedule runs task after waitTime. The job is canceled when ctx is canceled.
func Schedule(ctx context.Context, task Task, waitTime time.Duration) *Job {
	ctx, cancel := context.WithCancel(ctx)
	j := &Job{
		task:   task,
		cancel: cancel,
	}
	go j.run(ctx, waitTime)
	return j
}

// Job is a scheduled Task.
type Job struct {
	task   Task
	cancel context.CancelFunc
	done   bool
	err    error
	lock   sync.RWMutex
}

func (j *Job) run(ctx context.Context, waitTime time.Duration) {
	timer := time.NewTimer(waitTime)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		j.finish(ErrCanceled)
	case <-timer.C:
		var err error
		if taskErr := j.task.Run(ctx); taskErr != nil {
			err = failed(taskErr)
		}
		j.finish(err)
	}
}

func (j *Job) finish(err error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	if !j.done {
		j.done = true
		j.err = err
	}
}

// Cancel stops the job. Canceling a job that has already completed has no effect.
func (j *Job) Cancel() {
	j.cancel()
	j.finish(ErrCanceled)
}

// Result reports whether the job is done and, if so, its outcome: nil if the task succeeded, ErrCanceled if the
// job was canceled, or an error wrapping ErrFailed if the task failed.
func (j *Job) Result() (bool, error) {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return j.done, j.err
}
