// Package loop is a single-goroutine run loop: posted callbacks and expired
// timers all run on the goroutine calling Run (or RunPending in tests), so
// containers and batchers driven from it need no locking.
package loop

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/eapache/queue"
)

// Loop queues callbacks and timers. Post and After may be called from any
// goroutine; callbacks never run concurrently with each other.
type Loop struct {
	mu     sync.Mutex
	tasks  *queue.Queue // of func()
	timers timerHeap
	seq    uint64
	clock  Clock
	wake   chan struct{}
}

// New returns a loop reading time from clock. A nil clock uses wall time.
func New(clock Clock) *Loop {
	if clock == nil {
		clock = realClock{}
	}
	return &Loop{
		tasks: queue.New(),
		clock: clock,
		wake:  make(chan struct{}, 1),
	}
}

// Clock returns the loop's time source.
func (l *Loop) Clock() Clock { return l.clock }

// Post queues fn to run on the loop after everything already queued.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.tasks.Add(fn)
	l.mu.Unlock()
	l.signal()
}

// After runs fn on the loop once d has elapsed on the loop's clock.
// Timers with equal deadlines fire in the order they were scheduled.
func (l *Loop) After(d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.seq++
	heap.Push(&l.timers, &timer{at: l.clock.Now().Add(d), seq: l.seq, fn: fn})
	l.mu.Unlock()
	l.signal()
}

// Pending reports queued callbacks plus scheduled timers.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tasks.Length() + len(l.timers)
}

// NextDeadline returns the earliest timer deadline, if any.
func (l *Loop) NextDeadline() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.timers) == 0 {
		return time.Time{}, false
	}
	return l.timers[0].at, true
}

// RunPending runs queued callbacks and due timers until nothing is ready,
// including work queued by the callbacks themselves. It returns how many
// callbacks ran.
func (l *Loop) RunPending() int {
	ran := 0
	for {
		fn := l.next()
		if fn == nil {
			return ran
		}
		fn()
		ran++
	}
}

// Advance moves a FakeClock forward by d, firing timers in deadline order
// with the clock set to each deadline as it fires. Panics if the loop does
// not run on a FakeClock.
func (l *Loop) Advance(d time.Duration) int {
	fc, ok := l.clock.(*FakeClock)
	if !ok {
		panic("datasources: Advance requires a FakeClock")
	}
	target := fc.Now().Add(d)
	ran := l.RunPending()
	for {
		at, ok := l.NextDeadline()
		if !ok || at.After(target) {
			break
		}
		if at.After(fc.Now()) {
			fc.Set(at)
		}
		ran += l.RunPending()
	}
	fc.Set(target)
	return ran + l.RunPending()
}

// Run drives the loop until ctx is done, sleeping until the next post or
// timer deadline.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()

		var fire <-chan time.Time
		var t *time.Timer
		if at, ok := l.NextDeadline(); ok {
			t = time.NewTimer(at.Sub(l.clock.Now()))
			fire = t.C
		}
		select {
		case <-ctx.Done():
			if t != nil {
				t.Stop()
			}
			return ctx.Err()
		case <-l.wake:
		case <-fire:
		}
		if t != nil {
			t.Stop()
		}
	}
}

// next pops the next runnable callback: queued tasks first, then the
// earliest due timer.
func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tasks.Length() > 0 {
		return l.tasks.Remove().(func())
	}
	if len(l.timers) > 0 && !l.timers[0].at.After(l.clock.Now()) {
		return heap.Pop(&l.timers).(*timer).fn
	}
	return nil
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

type timer struct {
	at  time.Time
	seq uint64
	fn  func()
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(*timer)) }

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
