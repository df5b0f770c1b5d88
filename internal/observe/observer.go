// Package observe defines the change-notification contracts shared by the
// observable containers and their consumers.
//
// A container owns a Registry of weakly-held observers keyed by capability
// Kind. Every mutation is reported as one update cycle:
//
//	WillUpdate → zero or more delta events → DidUpdate
//
// DidReload bypasses the cycle and tells observers to discard everything they
// know about the source.
package observe

// Observer receives the signals every container emits.
type Observer interface {
	WillUpdate(source any)
	DidUpdate(source any)
	DidReload(source any)
}

// ListObserver receives the delta events of an ordered container.
//
// Insert positions refer to the state after the event, delete positions to the
// state before it. A move implies an update of the moved item.
type ListObserver interface {
	Observer
	ItemsInserted(source any, paths []IndexPath)
	ItemsDeleted(source any, paths []IndexPath)
	ItemsUpdated(source any, updates []IndexPathUpdate)
	ItemMoved(source any, from, to IndexPath)
}

// SectionedListObserver additionally receives section-level events.
type SectionedListObserver interface {
	ListObserver
	SectionsInserted(source any, sections []int)
	SectionsDeleted(source any, sections []int)
	SectionsUpdated(source any, sections []int)
	SectionMoved(source any, from, to int)
}

// MapObserver receives the delta events of a keyed container. Keys are the
// container's keys boxed as any.
type MapObserver interface {
	Observer
	KeysInserted(source any, keys []any)
	KeysDeleted(source any, keys []any)
	KeysUpdated(source any, keys []any)
}

// ValueObserver brackets every change of a single-value container.
type ValueObserver interface {
	WillUpdateValue(source any)
	DidUpdateValue(source any)
}

// Kind is the capability an observer is registered under.
type Kind uint8

const (
	KindObserver Kind = iota
	KindList
	KindSectionedList
	KindMap
	KindValue
)

func (k Kind) String() string {
	switch k {
	case KindObserver:
		return "observer"
	case KindList:
		return "list"
	case KindSectionedList:
		return "sectioned-list"
	case KindMap:
		return "map"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

// accepts reports whether obs implements the capability k stands for.
func (k Kind) accepts(obs any) bool {
	var ok bool
	switch k {
	case KindObserver:
		_, ok = obs.(Observer)
	case KindList:
		_, ok = obs.(ListObserver)
	case KindSectionedList:
		_, ok = obs.(SectionedListObserver)
	case KindMap:
		_, ok = obs.(MapObserver)
	case KindValue:
		_, ok = obs.(ValueObserver)
	}
	return ok
}
