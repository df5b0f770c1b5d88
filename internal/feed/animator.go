// Package feed turns an external change stream (a query whose result set
// changes, a polled endpoint, a reloaded snapshot) into observer events.
//
// The stream is the classic four-call protocol: WillChangeContent, any
// number of DidChangeSection/DidChangeObject, DidChangeContent. A
// ListAnimator forwards it to list observers, a MapAnimator to map
// observers. Diff produces such a stream from two result sets.
package feed

import "github.com/abelbrown/datasources/internal/observe"

// ChangeType classifies one change of the stream.
type ChangeType uint8

const (
	Insert ChangeType = iota
	Delete
	Move
	Update
)

func (t ChangeType) String() string {
	switch t {
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	case Move:
		return "move"
	case Update:
		return "update"
	}
	return "unknown"
}

// Delegate is told when an animated update starts and ends.
type Delegate interface {
	WillAnimate(a *Animator)
	DidAnimate(a *Animator)
}

// sink is what a concrete animator does with each change.
type sink interface {
	begin()
	insertSection(index int)
	deleteSection(index int)
	insertObject(obj any, at observe.IndexPath)
	deleteObject(obj any, at observe.IndexPath)
	reloadObject(obj any, u observe.IndexPathUpdate)
	moveObject(obj any, from, to observe.IndexPath)
	end()
	reload()
}

// Animator receives the change stream. With Animate false every change is
// ignored and DidChangeContent reloads the targets instead.
type Animator struct {
	Animate  bool
	Delegate Delegate
	sink     sink
}

func (a *Animator) WillChangeContent() {
	if !a.Animate {
		return
	}
	if a.Delegate != nil {
		a.Delegate.WillAnimate(a)
	}
	a.sink.begin()
}

// DidChangeSection handles section inserts and deletes. Section moves and
// updates are not animated.
func (a *Animator) DidChangeSection(index int, t ChangeType) {
	if !a.Animate {
		return
	}
	switch t {
	case Insert:
		a.sink.insertSection(index)
	case Delete:
		a.sink.deleteSection(index)
	}
}

// DidChangeObject handles one object change. at is the position before the
// change (Delete, Move, Update) and newAt the position after it (Insert,
// Move, Update).
func (a *Animator) DidChangeObject(obj any, at, newAt observe.IndexPath, t ChangeType) {
	if !a.Animate {
		return
	}
	switch t {
	case Insert:
		a.sink.insertObject(obj, newAt)
	case Delete:
		a.sink.deleteObject(obj, at)
	case Update:
		a.sink.reloadObject(obj, observe.IndexPathUpdate{Old: at, New: newAt})
	case Move:
		a.sink.moveObject(obj, at, newAt)
	}
}

func (a *Animator) DidChangeContent() {
	if a.Animate {
		a.sink.end()
		if a.Delegate != nil {
			a.Delegate.DidAnimate(a)
		}
		return
	}
	if a.Delegate != nil {
		a.Delegate.WillAnimate(a)
		a.Delegate.DidAnimate(a)
	}
	a.sink.reload()
}
