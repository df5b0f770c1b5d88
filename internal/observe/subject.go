package observe

// Subject is the notification half of a container. Begin, end and reload
// signals go to KindObserver first, then to the container's own kind;
// delta events go to the container's kind only.
type Subject struct {
	reg  Registry
	kind Kind
}

// NewSubject returns a Subject dispatching delta events to observers of kind.
func NewSubject(kind Kind) Subject {
	return Subject{kind: kind}
}

// Observers returns the registry observers are added to.
func (s *Subject) Observers() *Registry {
	return &s.reg
}

func (s *Subject) NotifyWillUpdate(src any) {
	Each(&s.reg, KindObserver, func(o Observer) { o.WillUpdate(src) })
	if s.kind != KindObserver {
		Each(&s.reg, s.kind, func(o Observer) { o.WillUpdate(src) })
	}
}

func (s *Subject) NotifyDidUpdate(src any) {
	Each(&s.reg, KindObserver, func(o Observer) { o.DidUpdate(src) })
	if s.kind != KindObserver {
		Each(&s.reg, s.kind, func(o Observer) { o.DidUpdate(src) })
	}
}

func (s *Subject) NotifyDidReload(src any) {
	Each(&s.reg, KindObserver, func(o Observer) { o.DidReload(src) })
	if s.kind != KindObserver {
		Each(&s.reg, s.kind, func(o Observer) { o.DidReload(src) })
	}
}

func (s *Subject) NotifyInserted(src any, paths []IndexPath) {
	Each(&s.reg, s.kind, func(o ListObserver) { o.ItemsInserted(src, paths) })
}

func (s *Subject) NotifyDeleted(src any, paths []IndexPath) {
	Each(&s.reg, s.kind, func(o ListObserver) { o.ItemsDeleted(src, paths) })
}

func (s *Subject) NotifyUpdated(src any, updates []IndexPathUpdate) {
	Each(&s.reg, s.kind, func(o ListObserver) { o.ItemsUpdated(src, updates) })
}

func (s *Subject) NotifyMoved(src any, from, to IndexPath) {
	Each(&s.reg, s.kind, func(o ListObserver) { o.ItemMoved(src, from, to) })
}

func (s *Subject) NotifySectionsInserted(src any, sections []int) {
	Each(&s.reg, s.kind, func(o SectionedListObserver) { o.SectionsInserted(src, sections) })
}

func (s *Subject) NotifySectionsDeleted(src any, sections []int) {
	Each(&s.reg, s.kind, func(o SectionedListObserver) { o.SectionsDeleted(src, sections) })
}

func (s *Subject) NotifySectionsUpdated(src any, sections []int) {
	Each(&s.reg, s.kind, func(o SectionedListObserver) { o.SectionsUpdated(src, sections) })
}

func (s *Subject) NotifySectionMoved(src any, from, to int) {
	Each(&s.reg, s.kind, func(o SectionedListObserver) { o.SectionMoved(src, from, to) })
}

func (s *Subject) NotifyKeysInserted(src any, keys []any) {
	Each(&s.reg, s.kind, func(o MapObserver) { o.KeysInserted(src, keys) })
}

func (s *Subject) NotifyKeysDeleted(src any, keys []any) {
	Each(&s.reg, s.kind, func(o MapObserver) { o.KeysDeleted(src, keys) })
}

func (s *Subject) NotifyKeysUpdated(src any, keys []any) {
	Each(&s.reg, s.kind, func(o MapObserver) { o.KeysUpdated(src, keys) })
}

func (s *Subject) NotifyWillUpdateValue(src any) {
	Each(&s.reg, KindValue, func(o ValueObserver) { o.WillUpdateValue(src) })
}

func (s *Subject) NotifyDidUpdateValue(src any) {
	Each(&s.reg, KindValue, func(o ValueObserver) { o.DidUpdateValue(src) })
}
