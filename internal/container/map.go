package container

import (
	"maps"
	"slices"

	"github.com/abelbrown/datasources/internal/observe"
)

// Entry is one key/value pair of a Map.
type Entry[K comparable, V any] struct {
	Key   K `json:"key" yaml:"key"`
	Value V `json:"value" yaml:"value"`
}

// Patch is one element of a Merge batch. A Delete patch stands for the nil
// value: it removes Key if present.
type Patch[K comparable, V any] struct {
	Key    K
	Value  V
	Delete bool
}

// Put is a Patch that sets key to v.
func Put[K comparable, V any](key K, v V) Patch[K, V] {
	return Patch[K, V]{Key: key, Value: v}
}

// Del is a Patch that removes key.
func Del[K comparable, V any](key K) Patch[K, V] {
	return Patch[K, V]{Key: key, Delete: true}
}

// Map is a keyed collection. Keys keep insertion order so Keys and Entries
// are deterministic. Observers register under KindMap and receive keys as
// K boxed in any.
type Map[K comparable, V any] struct {
	subject observe.Subject
	values  map[K]V
	order   []K
	seq     map[K]uint64 // insertion stamp, fixed while the key is present
	nextSeq uint64
}

func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		subject: observe.NewSubject(observe.KindMap),
		values:  make(map[K]V),
		seq:     make(map[K]uint64),
	}
}

// MapOf returns a map holding the entries of m. Key order follows Go map
// iteration and is unspecified; use NewMap plus Merge for a defined order.
func MapOf[K comparable, V any](m map[K]V) *Map[K, V] {
	out := NewMap[K, V]()
	for k, v := range m {
		out.put(k, v)
	}
	return out
}

func (m *Map[K, V]) Observers() *observe.Registry { return m.subject.Observers() }

func (m *Map[K, V]) Len() int { return len(m.order) }

func (m *Map[K, V]) Get(key K) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map[K, V]) Keys() []K { return slices.Clone(m.order) }

// Entries returns the pairs in insertion order.
func (m *Map[K, V]) Entries() []Entry[K, V] {
	out := make([]Entry[K, V], len(m.order))
	for i, k := range m.order {
		out[i] = Entry[K, V]{Key: k, Value: m.values[k]}
	}
	return out
}

// Set stores v under key: Insert for a new key, Update for an existing one.
func (m *Map[K, V]) Set(key K, v V) {
	m.subject.NotifyWillUpdate(m)
	if m.put(key, v) {
		m.subject.NotifyKeysUpdated(m, []any{key})
	} else {
		m.subject.NotifyKeysInserted(m, []any{key})
	}
	m.subject.NotifyDidUpdate(m)
}

// RemoveValue deletes key. An absent key is a silent no-op.
func (m *Map[K, V]) RemoveValue(key K) {
	if !m.Contains(key) {
		return
	}
	m.subject.NotifyWillUpdate(m)
	m.del(key)
	m.subject.NotifyKeysDeleted(m, []any{key})
	m.subject.NotifyDidUpdate(m)
}

// RemoveAll empties the map in one cycle.
func (m *Map[K, V]) RemoveAll() {
	m.subject.NotifyWillUpdate(m)
	keys := boxKeys(m.order)
	m.values = make(map[K]V)
	m.seq = make(map[K]uint64)
	m.order = nil
	if len(keys) > 0 {
		m.subject.NotifyKeysDeleted(m, keys)
	}
	m.subject.NotifyDidUpdate(m)
}

// Merge applies patches in order as one cycle. Each touched key is classified
// by comparing its presence before and after the whole batch, so a key
// deleted and re-added within one batch is an Update. At most three events
// are emitted, in the order Delete, Insert, Update.
func (m *Map[K, V]) Merge(patches ...Patch[K, V]) {
	m.subject.NotifyWillUpdate(m)

	before := make(map[K]bool, len(patches))
	var touched []K
	for _, p := range patches {
		if _, seen := before[p.Key]; !seen {
			before[p.Key] = m.Contains(p.Key)
			touched = append(touched, p.Key)
		}
		if p.Delete {
			m.del(p.Key)
		} else {
			m.put(p.Key, p.Value)
		}
	}

	var inserted, deleted, updated []any
	for _, k := range touched {
		was, is := before[k], m.Contains(k)
		switch {
		case !was && is:
			inserted = append(inserted, k)
		case was && !is:
			deleted = append(deleted, k)
		case was && is:
			updated = append(updated, k)
		}
	}
	if len(deleted) > 0 {
		m.subject.NotifyKeysDeleted(m, deleted)
	}
	if len(inserted) > 0 {
		m.subject.NotifyKeysInserted(m, inserted)
	}
	if len(updated) > 0 {
		m.subject.NotifyKeysUpdated(m, updated)
	}
	m.subject.NotifyDidUpdate(m)
}

// Replace makes entries the full contents as one Merge: absent keys are
// deleted, the rest put in the given order.
func (m *Map[K, V]) Replace(entries []Entry[K, V]) {
	keep := make(map[K]struct{}, len(entries))
	for _, e := range entries {
		keep[e.Key] = struct{}{}
	}
	var patches []Patch[K, V]
	for _, k := range m.order {
		if _, ok := keep[k]; !ok {
			patches = append(patches, Del[K, V](k))
		}
	}
	for _, e := range entries {
		patches = append(patches, Put(e.Key, e.Value))
	}
	m.Merge(patches...)
}

// Reload swaps in new contents without deltas and emits DidReload.
func (m *Map[K, V]) Reload(entries []Entry[K, V]) {
	m.values = make(map[K]V, len(entries))
	m.seq = make(map[K]uint64, len(entries))
	m.order = m.order[:0]
	for _, e := range entries {
		m.put(e.Key, e.Value)
	}
	m.subject.NotifyDidReload(m)
}

// Snapshot returns the contents as a plain Go map.
func (m *Map[K, V]) Snapshot() map[K]V { return maps.Clone(m.values) }

// put stores v and reports whether key already existed.
func (m *Map[K, V]) put(key K, v V) bool {
	_, existed := m.values[key]
	if !existed {
		m.order = append(m.order, key)
		m.nextSeq++
		m.seq[key] = m.nextSeq
	}
	m.values[key] = v
	return existed
}

func (m *Map[K, V]) del(key K) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	delete(m.seq, key)
	m.order = slices.DeleteFunc(m.order, func(k K) bool { return k == key })
}

// stamp returns the insertion stamp of key. Stamps grow with insertion
// order, and a key removed and added again gets a fresh one.
func (m *Map[K, V]) stamp(key K) uint64 { return m.seq[key] }

func boxKeys[K comparable](keys []K) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
