package feed

import "github.com/abelbrown/datasources/internal/observe"

// MapAnimator forwards a change stream to map observers, identifying each
// object by KeyOf. Maps have no order, so moves and section changes are
// dropped.
type MapAnimator struct {
	Animator
	KeyOf   func(obj any) any
	Source  any
	targets observe.Registry
}

func NewMapAnimator(keyOf func(obj any) any, animate bool) *MapAnimator {
	a := &MapAnimator{KeyOf: keyOf}
	a.Animate = animate
	a.sink = a
	return a
}

func (a *MapAnimator) Observers() *observe.Registry { return &a.targets }

func (a *MapAnimator) src() any {
	if a.Source != nil {
		return a.Source
	}
	return a
}

func (a *MapAnimator) each(body func(observe.MapObserver)) {
	observe.Each(&a.targets, observe.KindMap, body)
}

func (a *MapAnimator) begin() { a.each(func(o observe.MapObserver) { o.WillUpdate(a.src()) }) }

func (a *MapAnimator) insertSection(int) {}
func (a *MapAnimator) deleteSection(int) {}

func (a *MapAnimator) insertObject(obj any, _ observe.IndexPath) {
	a.each(func(o observe.MapObserver) { o.KeysInserted(a.src(), []any{a.KeyOf(obj)}) })
}

func (a *MapAnimator) deleteObject(obj any, _ observe.IndexPath) {
	a.each(func(o observe.MapObserver) { o.KeysDeleted(a.src(), []any{a.KeyOf(obj)}) })
}

func (a *MapAnimator) reloadObject(obj any, _ observe.IndexPathUpdate) {
	a.each(func(o observe.MapObserver) { o.KeysUpdated(a.src(), []any{a.KeyOf(obj)}) })
}

func (a *MapAnimator) moveObject(any, observe.IndexPath, observe.IndexPath) {}

func (a *MapAnimator) end() { a.each(func(o observe.MapObserver) { o.DidUpdate(a.src()) }) }

func (a *MapAnimator) reload() { a.each(func(o observe.MapObserver) { o.DidReload(a.src()) }) }
