package feed

import "github.com/abelbrown/datasources/internal/observe"

// ListAnimator forwards a change stream to list observers. Stream paths are
// (section, row). Targets registered under KindSectionedList receive them
// unchanged along with section events; targets under KindList receive flat
// row indexes and no section events.
type ListAnimator struct {
	Animator
	// Source is reported as the event source. Nil reports the animator.
	Source  any
	targets observe.Registry
}

func NewListAnimator(animate bool) *ListAnimator {
	a := &ListAnimator{}
	a.Animate = animate
	a.sink = a
	return a
}

func (a *ListAnimator) Observers() *observe.Registry { return &a.targets }

func (a *ListAnimator) src() any {
	if a.Source != nil {
		return a.Source
	}
	return a
}

func (a *ListAnimator) flat(body func(observe.ListObserver)) {
	observe.Each(&a.targets, observe.KindList, body)
}

func (a *ListAnimator) sectioned(body func(observe.SectionedListObserver)) {
	observe.Each(&a.targets, observe.KindSectionedList, body)
}

func (a *ListAnimator) all(body func(o observe.ListObserver, sectioned bool)) {
	a.flat(func(o observe.ListObserver) { body(o, false) })
	a.sectioned(func(o observe.SectionedListObserver) { body(o, true) })
}

func convert(p observe.IndexPath, sectioned bool) observe.IndexPath {
	if sectioned {
		return p
	}
	return p.DropFirst()
}

func (a *ListAnimator) begin() {
	a.all(func(o observe.ListObserver, _ bool) { o.WillUpdate(a.src()) })
}

func (a *ListAnimator) insertSection(index int) {
	a.sectioned(func(o observe.SectionedListObserver) { o.SectionsInserted(a.src(), []int{index}) })
}

func (a *ListAnimator) deleteSection(index int) {
	a.sectioned(func(o observe.SectionedListObserver) { o.SectionsDeleted(a.src(), []int{index}) })
}

func (a *ListAnimator) insertObject(_ any, at observe.IndexPath) {
	a.all(func(o observe.ListObserver, s bool) {
		o.ItemsInserted(a.src(), []observe.IndexPath{convert(at, s)})
	})
}

func (a *ListAnimator) deleteObject(_ any, at observe.IndexPath) {
	a.all(func(o observe.ListObserver, s bool) {
		o.ItemsDeleted(a.src(), []observe.IndexPath{convert(at, s)})
	})
}

func (a *ListAnimator) reloadObject(_ any, u observe.IndexPathUpdate) {
	a.all(func(o observe.ListObserver, s bool) {
		o.ItemsUpdated(a.src(), []observe.IndexPathUpdate{{Old: convert(u.Old, s), New: convert(u.New, s)}})
	})
}

func (a *ListAnimator) moveObject(_ any, from, to observe.IndexPath) {
	a.all(func(o observe.ListObserver, s bool) {
		o.ItemMoved(a.src(), convert(from, s), convert(to, s))
	})
}

func (a *ListAnimator) end() {
	a.all(func(o observe.ListObserver, _ bool) { o.DidUpdate(a.src()) })
}

func (a *ListAnimator) reload() {
	a.all(func(o observe.ListObserver, _ bool) { o.DidReload(a.src()) })
}
