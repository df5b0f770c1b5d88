package listview

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/eapache/queue"
)

// RunMsg carries deferred work back onto the Bubble Tea update goroutine.
// The root model runs it when it arrives.
type RunMsg struct {
	Fn func()
}

func (m RunMsg) Run() {
	if m.Fn != nil {
		m.Fn()
	}
}

// TeaScheduler is a batch.Scheduler that delivers work as RunMsg through a
// program's Send, so deferred batcher closures run on the same goroutine as
// every other model update.
//
// Send blocks until the program reads the message, and After is called from
// inside Update, so messages go through a FIFO drained by one goroutine.
// Immediate work therefore arrives in the order it was scheduled; timed
// work joins the queue when its timer fires.
type TeaScheduler struct {
	mu      sync.Mutex
	ready   *sync.Cond
	pending *queue.Queue
	send    func(tea.Msg)
	stopped bool
}

// NewTeaScheduler returns a scheduler that is not yet bound to a program.
// Bind it before the program starts.
func NewTeaScheduler() *TeaScheduler {
	s := &TeaScheduler{pending: queue.New()}
	s.ready = sync.NewCond(&s.mu)
	return s
}

// Bind routes messages through send, normally (*tea.Program).Send, and
// starts delivery. Call Stop once the program has exited.
func (s *TeaScheduler) Bind(send func(tea.Msg)) {
	s.mu.Lock()
	s.send = send
	s.mu.Unlock()
	go s.deliver()
}

// Stop ends delivery. Work still queued is discarded.
func (s *TeaScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.ready.Broadcast()
}

func (s *TeaScheduler) After(d time.Duration, fn func()) {
	s.mu.Lock()
	bound := s.send != nil
	s.mu.Unlock()
	if !bound {
		panic("datasources: TeaScheduler used before Bind")
	}
	msg := RunMsg{Fn: fn}
	if d <= 0 {
		s.enqueue(msg)
		return
	}
	time.AfterFunc(d, func() { s.enqueue(msg) })
}

func (s *TeaScheduler) enqueue(msg RunMsg) {
	s.mu.Lock()
	if !s.stopped {
		s.pending.Add(msg)
	}
	s.mu.Unlock()
	s.ready.Signal()
}

func (s *TeaScheduler) deliver() {
	for {
		s.mu.Lock()
		for s.pending.Length() == 0 && !s.stopped {
			s.ready.Wait()
		}
		if s.stopped {
			s.mu.Unlock()
			return
		}
		msg := s.pending.Remove().(RunMsg)
		send := s.send
		s.mu.Unlock()
		send(msg)
	}
}
