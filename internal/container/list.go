// Package container holds the observable collections: List, Map, Value and
// the SortedList derived from a Map.
//
// Every mutation is bracketed by WillUpdate/DidUpdate on the container's
// observers and emits its delta events in between. Containers are not safe
// for concurrent use; mutate them from the goroutine that owns the UI loop.
package container

import (
	"fmt"
	"slices"

	"github.com/abelbrown/datasources/internal/observe"
)

// List is an ordered sequence of T. Observers register under KindList.
type List[T any] struct {
	subject observe.Subject
	items   []T
}

// NewList returns a list holding a copy of items.
func NewList[T any](items ...T) *List[T] {
	return &List[T]{
		subject: observe.NewSubject(observe.KindList),
		items:   slices.Clone(items),
	}
}

func (l *List[T]) Observers() *observe.Registry { return l.subject.Observers() }

func (l *List[T]) Len() int { return len(l.items) }

func (l *List[T]) At(i int) T {
	l.check(i, len(l.items))
	return l.items[i]
}

// Items returns a copy of the contents.
func (l *List[T]) Items() []T { return slices.Clone(l.items) }

// Set replaces the element at i and emits an Update with old == new.
func (l *List[T]) Set(i int, v T) {
	l.check(i, len(l.items))
	l.subject.NotifyWillUpdate(l)
	l.items[i] = v
	l.subject.NotifyUpdated(l, []observe.IndexPathUpdate{observe.SameIndexPath(observe.Index(i))})
	l.subject.NotifyDidUpdate(l)
}

func (l *List[T]) Append(v T) {
	l.Insert(len(l.items), v)
}

// Insert places v at i; i == Len appends.
func (l *List[T]) Insert(i int, v T) {
	l.check(i, len(l.items)+1)
	l.subject.NotifyWillUpdate(l)
	l.items = slices.Insert(l.items, i, v)
	l.subject.NotifyInserted(l, observe.Indexes(i))
	l.subject.NotifyDidUpdate(l)
}

// RemoveAt deletes the element at i and returns it.
func (l *List[T]) RemoveAt(i int) T {
	l.check(i, len(l.items))
	l.subject.NotifyWillUpdate(l)
	v := l.items[i]
	l.items = slices.Delete(l.items, i, i+1)
	l.subject.NotifyDeleted(l, observe.Indexes(i))
	l.subject.NotifyDidUpdate(l)
	return v
}

// RemoveAll empties the list. The Delete event lists every former index and
// is emitted even when the list was already empty.
func (l *List[T]) RemoveAll() {
	l.subject.NotifyWillUpdate(l)
	n := len(l.items)
	l.items = nil
	l.subject.NotifyDeleted(l, observe.Range(n))
	l.subject.NotifyDidUpdate(l)
}

// Move relocates the element at from so it ends up at to.
func (l *List[T]) Move(from, to int) {
	l.check(from, len(l.items))
	l.check(to, len(l.items))
	l.subject.NotifyWillUpdate(l)
	v := l.items[from]
	l.items = slices.Delete(l.items, from, from+1)
	l.items = slices.Insert(l.items, to, v)
	l.subject.NotifyMoved(l, observe.Index(from), observe.Index(to))
	l.subject.NotifyDidUpdate(l)
}

// Replace swaps in new contents as one cycle: a Delete of every old index
// followed by an Insert of every new one.
func (l *List[T]) Replace(items []T) {
	l.subject.NotifyWillUpdate(l)
	n := len(l.items)
	l.items = slices.Clone(items)
	if n > 0 {
		l.subject.NotifyDeleted(l, observe.Range(n))
	}
	if len(l.items) > 0 {
		l.subject.NotifyInserted(l, observe.Range(len(l.items)))
	}
	l.subject.NotifyDidUpdate(l)
}

// Reload swaps in new contents without deltas and emits DidReload.
func (l *List[T]) Reload(items []T) {
	l.items = slices.Clone(items)
	l.subject.NotifyDidReload(l)
}

func (l *List[T]) check(i, n int) {
	if i < 0 || i >= n {
		panic(fmt.Sprintf("datasources: index %d out of range [0,%d)", i, n))
	}
}
