package otel

// Concurrency: the drain goroutine is the only reader of l.ch and the only
// writer to l.w. l.mu orders Emit's send against Close's channel close; Emit
// holds it shared, so emitters never wait on each other.

import (
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/abelbrown/datasources/internal/logging"
)

// writerChanSize bounds the events queued for the drain goroutine.
// One batcher cycle emits a handful, so this absorbs long bursts.
const writerChanSize = 4096

// logEntry pairs the encoded line with the Event itself so the ring keeps
// fields the JSON form drops (Dur).
type logEntry struct {
	data []byte
	ev   Event
}

// Logger writes events as JSONL from a background goroutine and mirrors
// them into an optional RingBuffer. A nil *Logger discards everything, so
// components take one without checking.
type Logger struct {
	mu        sync.RWMutex
	closed    bool
	ring      atomic.Pointer[RingBuffer]
	tracing   atomic.Bool
	sessionID string
	ch        chan logEntry
	w         io.Writer
	dropped   atomic.Uint64 // full channel, encode failure, write error, or emit after Close
	done      chan struct{}
	closeOnce sync.Once
}

// NewLogger starts a Logger writing to w. Close flushes and stops it.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{
		sessionID: uuid.NewString(),
		ch:        make(chan logEntry, writerChanSize),
		w:         w,
		done:      make(chan struct{}),
	}
	go l.drain()
	return l
}

// NewNullLogger returns a Logger that only feeds its ring buffer.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

func (l *Logger) drain() {
	defer close(l.done)
	for entry := range l.ch {
		if _, err := l.w.Write(entry.data); err != nil {
			l.dropped.Add(1)
		}
		if rb := l.ring.Load(); rb != nil {
			rb.Push(entry.ev)
		}
	}
}

// Emit queues e, filling in Time when zero and the session id. It never
// blocks: when the queue is full or the logger is closed the event is
// counted as dropped.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.sessionID

	data, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	data = append(data, '\n')

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	select {
	case l.ch <- logEntry{data: data, ev: e}:
	default:
		l.dropped.Add(1)
	}
}

func (l *Logger) Info(kind EventKind, comp string, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

func (l *Logger) Warn(kind EventKind, comp string, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error-level event. A nil err logs an empty Err.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	l.Emit(Event{Level: LevelError, Kind: kind, Comp: comp, Err: msg})
}

// SetTracing turns per-message trace events on or off.
func (l *Logger) SetTracing(on bool) {
	if l != nil {
		l.tracing.Store(on)
	}
}

// Tracing reports whether Trace emits anything. Callers check it before
// formatting a trace message.
func (l *Logger) Tracing() bool {
	return l != nil && l.tracing.Load()
}

// Trace emits a debug-level KindMsgReceived event from comp when tracing is on.
func (l *Logger) Trace(comp, msg string) {
	if !l.Tracing() {
		return
	}
	l.Emit(Event{Level: LevelDebug, Kind: KindMsgReceived, Comp: comp, Msg: msg})
}

// SetRingBuffer mirrors every written event into buf.
func (l *Logger) SetRingBuffer(buf *RingBuffer) {
	l.ring.Store(buf)
}

// SessionID identifies this run in every event.
func (l *Logger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

// Dropped returns the number of events lost since creation.
func (l *Logger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Close flushes queued events and stops the drain goroutine. Later Emits
// are counted as dropped. Drops are reported to the file log.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.ch)
		l.mu.Unlock()
		<-l.done

		if d := l.dropped.Load(); d > 0 {
			logging.Warn("events dropped", "count", d, "session", l.sessionID)
		}
	})
}
