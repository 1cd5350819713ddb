// Package queue runs best-effort background work off the request path.
// Accepted tasks execute at least once, surviving a graceful shutdown; a
// task that fails its retry is dead-lettered to the log and dropped.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const defaultCapacity = 256

type task struct {
	name string
	run  func(ctx context.Context) error
}

// Queue is a fixed-size worker pool over a buffered intake channel.
type Queue struct {
	tasks       chan task
	taskTimeout time.Duration
	wg          sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New starts a queue with the given number of workers. Each task execution
// is bounded by taskTimeout.
func New(workers int, taskTimeout time.Duration) *Queue {
	if workers < 1 {
		workers = 1
	}
	if taskTimeout <= 0 {
		taskTimeout = time.Minute
	}
	q := &Queue{
		tasks:       make(chan task, defaultCapacity),
		taskTimeout: taskTimeout,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Submit enqueues a task. It returns false when the queue is shutting down
// or full; an accepted task will be executed even if Stop is called next.
func (q *Queue) Submit(name string, run func(ctx context.Context) error) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.tasks <- task{name: name, run: run}:
		return true
	default:
		slog.Warn("Task queue full, rejecting task", "task", name)
		return false
	}
}

// Stop closes the intake and waits for queued tasks to drain.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for t := range q.tasks {
		q.execute(t)
	}
}

// execute runs a task with one retry. A second failure dead-letters the
// task: logged with full context, then dropped.
func (q *Queue) execute(t task) {
	if err := q.runOnce(t); err != nil {
		slog.Warn("Task failed, retrying", "task", t.name, "error", err)
		if err := q.runOnce(t); err != nil {
			slog.Error("Task dead-lettered after retry", "task", t.name, "error", err)
		}
	}
}

func (q *Queue) runOnce(t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Task panicked", "task", t.name, "panic", r)
			err = fmt.Errorf("task %s panicked: %v", t.name, r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), q.taskTimeout)
	defer cancel()
	return t.run(ctx)
}
