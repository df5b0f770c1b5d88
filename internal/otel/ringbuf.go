package otel

import (
	"maps"
	"strings"
	"sync"
)

// DefaultRingSize holds the last few hundred batcher cycles at the usual
// four or five events per cycle.
const DefaultRingSize = 1024

// RingBuffer keeps the most recent events in memory for the debug overlay.
// It is safe for concurrent use; the logger's drain goroutine pushes while
// the UI goroutine reads.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []Event
	size  int
	next  int // slot the next Push writes
	count int
}

// NewRingBuffer returns a buffer holding size events, or DefaultRingSize
// when size is not positive.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{buf: make([]Event, size), size: size}
}

// Push stores e, evicting the oldest event when full. Extra is cloned so
// the caller may reuse its map.
func (r *RingBuffer) Push(e Event) {
	e.Extra = maps.Clone(e.Extra)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = e
	r.next = (r.next + 1) % r.size
	r.count = min(r.count+1, r.size)
}

// Snapshot returns every buffered event, oldest first.
func (r *RingBuffer) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tail(r.count)
}

// Last returns up to n of the newest events, oldest first. It returns nil
// for n <= 0.
func (r *RingBuffer) Last(n int) []Event {
	if n <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tail(min(n, r.count))
}

// Generation returns the buffered events whose Gen starts with prefix,
// oldest first. Batcher generations are UUIDs, so a short prefix is enough
// to pick out one update cycle.
func (r *RingBuffer) Generation(prefix string) []Event {
	if prefix == "" {
		return nil
	}
	var out []Event
	r.each(func(e *Event) {
		if strings.HasPrefix(e.Gen, prefix) {
			out = append(out, *e)
		}
	})
	return out
}

// Errors counts buffered events at LevelError.
func (r *RingBuffer) Errors() int {
	var n int
	r.each(func(e *Event) {
		if e.Level == LevelError {
			n++
		}
	})
	return n
}

// Stats counts buffered events by kind.
func (r *RingBuffer) Stats() map[EventKind]int {
	counts := make(map[EventKind]int)
	r.each(func(e *Event) { counts[e.Kind]++ })
	return counts
}

func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *RingBuffer) Cap() int { return r.size }

// tail copies the newest n events in order. r.mu must be held.
func (r *RingBuffer) tail(n int) []Event {
	if n == 0 {
		return nil
	}
	out := make([]Event, n)
	start := (r.next - n + r.size) % r.size
	if k := copy(out, r.buf[start:min(start+n, r.size)]); k < n {
		copy(out[k:], r.buf[:n-k])
	}
	return out
}

// each visits buffered events oldest first under the lock.
func (r *RingBuffer) each(fn func(*Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := (r.next - r.count + r.size) % r.size
	for i := range r.count {
		fn(&r.buf[(start+i)%r.size])
	}
}
