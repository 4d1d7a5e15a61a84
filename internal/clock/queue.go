package clock

import (
	"container/heap"
	"time"
)

// TimerID identifies a scheduled callback. Zero is never issued.
type TimerID uint64

// Scheduler is the timer surface the game engine depends on.
// Callbacks never run concurrently with each other.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func()) TimerID
	Every(interval time.Duration, fn func()) TimerID
	Cancel(id TimerID) bool
}

type timer struct {
	id       TimerID
	deadline time.Time
	seq      uint64
	interval time.Duration
	fn       func()
	index    int
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Queue is a virtual-time timer queue. Timers fire in deadline order;
// timers sharing a deadline fire in the order they were armed.
// A Queue is not safe for concurrent use; Loop serializes access in real time.
type Queue struct {
	now    time.Time
	nextID TimerID
	seq    uint64
	timers timerHeap
	byID   map[TimerID]*timer

	skipMissed bool
}

// NewQueue returns an empty queue whose clock reads start.
func NewQueue(start time.Time) *Queue {
	return &Queue{
		now:  start,
		byID: make(map[TimerID]*timer),
	}
}

// SkipMissedTicks makes a periodic timer that fell behind fire once and
// resume on its original phase, instead of firing once per missed interval.
func (q *Queue) SkipMissedTicks(skip bool) {
	q.skipMissed = skip
}

// Now returns the queue's current time.
func (q *Queue) Now() time.Time {
	return q.now
}

// After arms a one-shot timer.
func (q *Queue) After(d time.Duration, fn func()) TimerID {
	return q.arm(d, 0, fn)
}

// Every arms a periodic timer. Non-positive intervals are clamped to 1ms.
func (q *Queue) Every(interval time.Duration, fn func()) TimerID {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return q.arm(interval, interval, fn)
}

func (q *Queue) arm(d, interval time.Duration, fn func()) TimerID {
	if d < 0 {
		d = 0
	}
	q.nextID++
	q.seq++
	t := &timer{
		id:       q.nextID,
		deadline: q.now.Add(d),
		seq:      q.seq,
		interval: interval,
		fn:       fn,
	}
	heap.Push(&q.timers, t)
	q.byID[t.id] = t
	return t.id
}

// Cancel removes a pending timer. It reports false when the id is unknown
// or the one-shot timer already fired.
func (q *Queue) Cancel(id TimerID) bool {
	t, ok := q.byID[id]
	if !ok {
		return false
	}
	delete(q.byID, id)
	if t.index >= 0 {
		heap.Remove(&q.timers, t.index)
	}
	return true
}

// Pending returns the number of armed timers.
func (q *Queue) Pending() int {
	return len(q.byID)
}

// NextDeadline returns the earliest armed deadline.
func (q *Queue) NextDeadline() (time.Time, bool) {
	if len(q.timers) == 0 {
		return time.Time{}, false
	}
	return q.timers[0].deadline, true
}

// AdvanceTo fires every timer due at or before t and returns how many
// callbacks ran. The clock reads each timer's deadline while its callback
// runs, then settles on t. Moving backwards is ignored.
func (q *Queue) AdvanceTo(t time.Time) int {
	fired := 0
	for len(q.timers) > 0 {
		next := q.timers[0]
		if next.deadline.After(t) {
			break
		}
		heap.Pop(&q.timers)
		if next.deadline.After(q.now) {
			q.now = next.deadline
		}
		if next.interval > 0 {
			q.seq++
			next.deadline = next.deadline.Add(next.interval)
			if q.skipMissed && !next.deadline.After(t) {
				missed := t.Sub(next.deadline)/next.interval + 1
				next.deadline = next.deadline.Add(missed * next.interval)
			}
			next.seq = q.seq
			heap.Push(&q.timers, next)
		} else {
			delete(q.byID, next.id)
		}
		next.fn()
		fired++
	}
	if t.After(q.now) {
		q.now = t
	}
	return fired
}

// Advance moves the clock forward by d. See AdvanceTo.
func (q *Queue) Advance(d time.Duration) int {
	return q.AdvanceTo(q.now.Add(d))
}
