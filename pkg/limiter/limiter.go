// Package limiter provides a FIFO admission gate bounding how many tasks
// may run concurrently.
//
// Responsibilities
//   - Admit at most N concurrently running tasks
//   - Queue admission requests in arrival order when at capacity
//   - Let a queued request give up early if its context is cancelled
//
// Non-goals
//   - No priority between queued tasks
//   - No cancellation of a task already admitted and running; a running
//     task observes cancellation cooperatively through its own context
//   - No host- or resource-specific politeness delay (see the scheduler's
//     own cooperative stop-flag checks for that)
package limiter

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Limiter admits at most Capacity concurrent Run calls. Excess callers
// block on a weighted semaphore in FIFO order until a slot frees up.
type Limiter struct {
	sem      *semaphore.Weighted
	capacity int64
	inUse    atomic.Int64
}

// New creates a Limiter with the given capacity. A non-positive capacity
// is treated as 1 admitted task at a time.
func New(capacity int) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(capacity)), capacity: int64(capacity)}
}

// Capacity returns the limiter's admission capacity.
func (l *Limiter) Capacity() int {
	return int(l.capacity)
}

// InUse returns the number of tasks currently admitted and running.
func (l *Limiter) InUse() int {
	return int(l.inUse.Load())
}

// Run blocks until a slot is admitted (or ctx is done), then invokes task
// and releases the slot when task returns, regardless of outcome. If ctx
// is cancelled before admission, Run returns ctx.Err() without invoking
// task at all.
func (l *Limiter) Run(ctx context.Context, task func(context.Context) error) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	l.inUse.Add(1)
	defer func() {
		l.inUse.Add(-1)
		l.sem.Release(1)
	}()

	return task(ctx)
}

// TryRun attempts to admit task without blocking. It reports false if the
// limiter was at capacity and the task was not started.
func (l *Limiter) TryRun(ctx context.Context, task func(context.Context) error) (ran bool, err error) {
	if !l.sem.TryAcquire(1) {
		return false, nil
	}
	l.inUse.Add(1)
	defer func() {
		l.inUse.Add(-1)
		l.sem.Release(1)
	}()

	return true, task(ctx)
}
