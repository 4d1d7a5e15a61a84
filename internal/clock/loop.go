package clock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLoopClosed is returned by Do once the loop has stopped.
var ErrLoopClosed = errors.New("clock: loop closed")

// idleWait bounds how long Run sleeps when no timer is armed.
const idleWait = time.Minute

type task struct {
	fn   func(Scheduler)
	done chan struct{}
}

// Loop drives a Queue against the wall clock on a single goroutine.
// Timer callbacks and functions submitted through Do all run on that
// goroutine, one at a time, to completion.
type Loop struct {
	queue *Queue
	now   func() time.Time
	tasks chan task

	stopChan chan struct{}
	stopOnce sync.Once
	finished chan struct{}
}

// NewLoop creates a loop reading the real clock.
func NewLoop() *Loop {
	return newLoop(time.Now)
}

func newLoop(now func() time.Time) *Loop {
	q := NewQueue(now())
	q.SkipMissedTicks(true)
	return &Loop{
		queue:    q,
		now:      now,
		tasks:    make(chan task),
		stopChan: make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Run processes timers and submitted tasks until ctx is done or Close is
// called. Call it in its own goroutine.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.finished)

	for {
		l.queue.AdvanceTo(l.now())

		wait := idleWait
		if next, ok := l.queue.NextDeadline(); ok {
			wait = next.Sub(l.now())
			if wait < 0 {
				wait = 0
			}
		}
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-l.stopChan:
			timer.Stop()
			return
		case t := <-l.tasks:
			timer.Stop()
			l.queue.AdvanceTo(l.now())
			t.fn(l.queue)
			close(t.done)
		case <-timer.C:
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
// fn must not call Do itself.
func (l *Loop) Do(ctx context.Context, fn func(Scheduler)) error {
	t := task{fn: fn, done: make(chan struct{})}
	select {
	case l.tasks <- t:
	case <-l.stopChan:
		return ErrLoopClosed
	case <-l.finished:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-t.done
	return nil
}

// Close stops Run. Pending timers are abandoned.
func (l *Loop) Close() {
	l.stopOnce.Do(func() {
		close(l.stopChan)
	})
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.finished
}

// Scheduler exposes the loop's queue. Its methods may only be called from
// timer callbacks or from functions passed to Do.
func (l *Loop) Scheduler() Scheduler {
	return l.queue
}
