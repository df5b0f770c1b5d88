package observe

import (
	"fmt"
	"slices"
	"weak"
)

// entry is a type-erased weak handle. id is the weak.Pointer itself, which
// compares equal for equal source pointers.
type entry struct {
	id  any
	get func() any
}

// Registry is a multi-map from capability Kind to weakly-held observers.
// The zero value is ready to use. Not safe for concurrent use: containers and
// their observers live on one goroutine.
type Registry struct {
	sets map[Kind][]entry
}

// Observable is implemented by everything that owns a Registry.
type Observable interface {
	Observers() *Registry
}

// Add registers obs under kind. Adding the same pointer twice under one kind
// is a no-op. Panics if obs does not implement the capability of kind.
func Add[T any](r *Registry, kind Kind, obs *T) {
	if obs == nil {
		panic("datasources: nil observer")
	}
	if !kind.accepts(obs) {
		panic(fmt.Sprintf("datasources: %T does not implement the %s capability", obs, kind))
	}
	wp := weak.Make(obs)
	if r.sets == nil {
		r.sets = make(map[Kind][]entry)
	}
	for _, e := range r.sets[kind] {
		if e.id == any(wp) {
			return
		}
	}
	r.sets[kind] = append(r.sets[kind], entry{
		id: wp,
		get: func() any {
			if p := wp.Value(); p != nil {
				return p
			}
			return nil
		},
	})
}

// Remove unregisters obs from kind. Removing an absent observer is a no-op.
func Remove[T any](r *Registry, kind Kind, obs *T) {
	if obs == nil || r.sets == nil {
		return
	}
	id := any(weak.Make(obs))
	r.sets[kind] = slices.DeleteFunc(r.sets[kind], func(e entry) bool {
		return e.id == id
	})
}

// Watch registers obs with the registry of src.
func Watch[T any](src Observable, kind Kind, obs *T) {
	Add(src.Observers(), kind, obs)
}

// Unwatch removes obs from the registry of src.
func Unwatch[T any](src Observable, kind Kind, obs *T) {
	Remove(src.Observers(), kind, obs)
}

// ForEach calls body for every live observer of kind, in registration order.
// Observers added or removed by body take effect on the next call.
// Collected observers are skipped and pruned.
func (r *Registry) ForEach(kind Kind, body func(obs any)) {
	if r.sets == nil {
		return
	}
	snapshot := slices.Clone(r.sets[kind])
	dead := false
	for _, e := range snapshot {
		obs := e.get()
		if obs == nil {
			dead = true
			continue
		}
		body(obs)
	}
	if dead {
		r.sets[kind] = slices.DeleteFunc(r.sets[kind], func(e entry) bool {
			return e.get() == nil
		})
	}
}

// Each is the typed accessor over ForEach: observers that do not implement O
// are skipped.
func Each[O any](r *Registry, kind Kind, body func(O)) {
	r.ForEach(kind, func(obs any) {
		if o, ok := obs.(O); ok {
			body(o)
		}
	})
}

// Len returns the number of live observers registered under kind.
func (r *Registry) Len(kind Kind) int {
	n := 0
	r.ForEach(kind, func(any) { n++ })
	return n
}
