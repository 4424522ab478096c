package converter

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned for jobs submitted after Close.
var ErrQueueClosed = errors.New("converter queue closed")

type request struct {
	ctx  context.Context
	job  Job
	done chan error
}

// Queue runs converter jobs one at a time on a single worker goroutine.
type Queue struct {
	runner Runner
	jobs   chan request

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewQueue starts the worker.
func NewQueue(runner Runner) *Queue {
	q := &Queue{runner: runner, jobs: make(chan request)}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for req := range q.jobs {
			if err := req.ctx.Err(); err != nil {
				req.done <- err
				continue
			}
			req.done <- q.runner.Run(req.ctx, req.job)
		}
	}()
	return q
}

// Submit queues job and returns a channel that receives its result.
func (q *Queue) Submit(ctx context.Context, job Job) <-chan error {
	done := make(chan error, 1)
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		done <- ErrQueueClosed
		return done
	}
	select {
	case q.jobs <- request{ctx: ctx, job: job, done: done}:
	case <-ctx.Done():
		done <- ctx.Err()
	}
	return done
}

// Do submits job and waits for it.
func (q *Queue) Do(ctx context.Context, job Job) error {
	return <-q.Submit(ctx, job)
}

// Close stops accepting jobs and waits for the running one.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
