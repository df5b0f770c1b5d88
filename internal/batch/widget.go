// Package batch reconciles fine-grained list deltas into the batch
// transactions of a list widget.
//
// A Batcher observes one list source. Between WillUpdate and DidUpdate it
// records the delta events as Change values; on DidUpdate it replays them
// inside the widget's PerformBatchUpdates. Reloads are split from
// structural changes when both occur, because reloading and moving rows in
// one transaction corrupts most widgets. The reloads and the reloads of
// move destinations run in a second transaction after SettleDelay, and the
// rows that were selected before the update are selected again at the end.
//
// Every closure that outlives the cycle that created it carries that cycle's
// generation and does nothing once a newer cycle has begun.
package batch

import (
	"time"

	"github.com/abelbrown/datasources/internal/observe"
)

// Widget is the surface of a host list widget the Batcher drives.
//
// Insert paths refer to the rows after the call; Delete paths refer to the
// rows before it. Inside one PerformBatchUpdates the calls apply in order.
type Widget interface {
	// Ready reports whether the widget has loaded and can take updates.
	Ready() bool
	Insert(paths []observe.IndexPath)
	Delete(paths []observe.IndexPath)
	Reload(paths []observe.IndexPath)
	Move(from, to observe.IndexPath)
	// PerformBatchUpdates runs updates as one transaction and calls
	// completion when the widget has finished applying it.
	PerformBatchUpdates(updates func(), completion func(finished bool))
	ReloadAll()
	// Select adds p to the selection; nil clears it.
	Select(p observe.IndexPath)
	Selected() []observe.IndexPath
}

// SectionedWidget is a Widget that also manages sections.
type SectionedWidget interface {
	Widget
	InsertSections(sections []int)
	DeleteSections(sections []int)
	ReloadSections(sections []int)
	MoveSection(from, to int)
}

// Scheduler runs fn on the widget's goroutine after d.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(d time.Duration, fn func())

func (f SchedulerFunc) After(d time.Duration, fn func()) { f(d, fn) }

// Inline runs deferred work immediately, ignoring the delay. Useful for
// widgets without animation.
var Inline Scheduler = SchedulerFunc(func(_ time.Duration, fn func()) { fn() })
