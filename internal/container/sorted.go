package container

import (
	"cmp"
	"fmt"
	"slices"
	"sort"

	"github.com/abelbrown/datasources/internal/observe"
)

// SortedList presents the entries of a Map as a list ordered by less and
// optionally filtered by include. It keeps itself in sync by observing the
// map and re-emits each map cycle as one list cycle, so a Batcher watching
// the SortedList animates map changes.
//
// Entries that compare equal keep the map's insertion order, which makes
// the contents equal to a stable sort of the filtered map entries. Each
// item keeps the insertion stamp it was placed with until it is placed
// again, so items not yet reached in a cycle stay ordered.
//
// The map holds the SortedList weakly; keep a reference for as long as the
// list should track its source.
type SortedList[K comparable, V any] struct {
	subject observe.Subject
	src     *Map[K, V]
	less    func(a, b Entry[K, V]) bool
	include func(Entry[K, V]) bool
	items   []Entry[K, V]
	rank    map[K]uint64
}

// NewSortedList materializes src and starts observing it. A nil include
// keeps every entry.
func NewSortedList[K comparable, V any](src *Map[K, V], less func(a, b Entry[K, V]) bool, include func(Entry[K, V]) bool) *SortedList[K, V] {
	s := &SortedList[K, V]{
		subject: observe.NewSubject(observe.KindList),
		src:     src,
		less:    less,
		include: include,
	}
	s.rebuild()
	observe.Watch(src, observe.KindMap, s)
	return s
}

func (s *SortedList[K, V]) Observers() *observe.Registry { return s.subject.Observers() }

func (s *SortedList[K, V]) Len() int { return len(s.items) }

func (s *SortedList[K, V]) At(i int) Entry[K, V] {
	if i < 0 || i >= len(s.items) {
		panic(fmt.Sprintf("datasources: index %d out of range [0,%d)", i, len(s.items)))
	}
	return s.items[i]
}

// Entries returns a copy of the sorted contents.
func (s *SortedList[K, V]) Entries() []Entry[K, V] { return slices.Clone(s.items) }

// IndexOf returns the position of key, or -1 when it is absent or filtered out.
func (s *SortedList[K, V]) IndexOf(key K) int {
	return slices.IndexFunc(s.items, func(e Entry[K, V]) bool { return e.Key == key })
}

// SetFilter swaps the include predicate, recomputes the contents and emits
// DidReload.
func (s *SortedList[K, V]) SetFilter(include func(Entry[K, V]) bool) {
	s.include = include
	s.rebuild()
	s.subject.NotifyDidReload(s)
}

// Close stops tracking the source map.
func (s *SortedList[K, V]) Close() {
	observe.Unwatch(s.src, observe.KindMap, s)
}

func (s *SortedList[K, V]) WillUpdate(any) {
	s.subject.NotifyWillUpdate(s)
}

func (s *SortedList[K, V]) DidUpdate(any) {
	s.subject.NotifyDidUpdate(s)
}

func (s *SortedList[K, V]) DidReload(any) {
	s.rebuild()
	s.subject.NotifyDidReload(s)
}

// KeysInserted places every included new entry at its position in the
// combined sequence and reports the final positions in one Insert.
func (s *SortedList[K, V]) KeysInserted(_ any, keys []any) {
	var added []Entry[K, V]
	for _, k := range keys {
		e := s.lookup(k)
		if s.keep(e) {
			s.restamp(e.Key)
			added = append(added, e)
		}
	}
	if len(added) == 0 {
		return
	}
	slices.SortFunc(added, s.compare)
	for _, e := range added {
		pos := s.search(e)
		s.items = slices.Insert(s.items, pos, e)
	}
	paths := make([]observe.IndexPath, 0, len(added))
	for _, e := range added {
		paths = append(paths, observe.Index(s.IndexOf(e.Key)))
	}
	slices.SortFunc(paths, observe.IndexPath.Compare)
	s.subject.NotifyInserted(s, paths)
}

// KeysDeleted removes the entries for keys and reports their pre-removal
// positions in one Delete. Keys that were filtered out are ignored.
func (s *SortedList[K, V]) KeysDeleted(_ any, keys []any) {
	var indices []int
	for _, k := range keys {
		if i := s.IndexOf(s.key(k)); i >= 0 {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return
	}
	slices.Sort(indices)
	for i := len(indices) - 1; i >= 0; i-- {
		delete(s.rank, s.items[indices[i]].Key)
		s.items = slices.Delete(s.items, indices[i], indices[i]+1)
	}
	s.subject.NotifyDeleted(s, observe.Indexes(indices...))
}

// KeysUpdated re-evaluates each key against the filter and the order.
// Entries entering or leaving the filter are inserted or deleted, entries
// changing position are moved, and entries staying put are reported in one
// trailing Update carrying their final positions.
func (s *SortedList[K, V]) KeysUpdated(_ any, keys []any) {
	var inPlace []K
	for _, k := range keys {
		e := s.lookup(k)
		idx := s.IndexOf(e.Key)
		inc := s.keep(e)
		switch {
		case idx < 0 && inc:
			s.restamp(e.Key)
			pos := s.search(e)
			s.items = slices.Insert(s.items, pos, e)
			s.subject.NotifyInserted(s, observe.Indexes(pos))
		case idx >= 0 && !inc:
			delete(s.rank, e.Key)
			s.items = slices.Delete(s.items, idx, idx+1)
			s.subject.NotifyDeleted(s, observe.Indexes(idx))
		case idx >= 0 && inc:
			s.items = slices.Delete(s.items, idx, idx+1)
			s.restamp(e.Key)
			pos := s.search(e)
			s.items = slices.Insert(s.items, pos, e)
			if pos == idx {
				inPlace = append(inPlace, e.Key)
			} else {
				s.subject.NotifyMoved(s, observe.Index(idx), observe.Index(pos))
			}
		}
	}
	if len(inPlace) == 0 {
		return
	}
	positions := make([]int, 0, len(inPlace))
	for _, k := range inPlace {
		if i := s.IndexOf(k); i >= 0 {
			positions = append(positions, i)
		}
	}
	slices.Sort(positions)
	updates := make([]observe.IndexPathUpdate, len(positions))
	for i, p := range positions {
		updates[i] = observe.SameIndexPath(observe.Index(p))
	}
	s.subject.NotifyUpdated(s, updates)
}

func (s *SortedList[K, V]) rebuild() {
	s.rank = make(map[K]uint64, s.src.Len())
	s.items = s.items[:0]
	for _, e := range s.src.Entries() {
		if s.keep(e) {
			s.restamp(e.Key)
			s.items = append(s.items, e)
		}
	}
	slices.SortFunc(s.items, s.compare)
}

// restamp records key's current insertion stamp for tie-breaking. It is
// called only as the key is placed, never for items waiting their turn.
func (s *SortedList[K, V]) restamp(key K) {
	s.rank[key] = s.src.stamp(key)
}

func (s *SortedList[K, V]) compare(a, b Entry[K, V]) int {
	switch {
	case s.less(a, b):
		return -1
	case s.less(b, a):
		return 1
	}
	return cmp.Compare(s.rank[a.Key], s.rank[b.Key])
}

// search returns the index before which e belongs.
func (s *SortedList[K, V]) search(e Entry[K, V]) int {
	return sort.Search(len(s.items), func(i int) bool {
		return s.compare(e, s.items[i]) < 0
	})
}

func (s *SortedList[K, V]) keep(e Entry[K, V]) bool {
	return s.include == nil || s.include(e)
}

func (s *SortedList[K, V]) key(k any) K {
	key, ok := k.(K)
	if !ok {
		var zero K
		panic(fmt.Sprintf("datasources: key %v has type %T, want %T", k, k, zero))
	}
	return key
}

func (s *SortedList[K, V]) lookup(k any) Entry[K, V] {
	key := s.key(k)
	v, ok := s.src.Get(key)
	if !ok {
		panic(fmt.Sprintf("datasources: key %v not found in source map", key))
	}
	return Entry[K, V]{Key: key, Value: v}
}
