package observe

// ListForwarder sits between one upstream list source and any number of
// downstream list observers. Every event is forwarded with the forwarder as
// the source and with positions converted per destination.
//
// Destinations are added through Observers() under KindList or
// KindSectionedList; section events only reach the latter.
type ListForwarder struct {
	targets Registry

	// Convert maps an upstream position to the position dst expects.
	// Nil forwards positions unchanged.
	Convert func(p IndexPath, dst ListObserver) IndexPath
}

// Observers returns the destination registry.
func (f *ListForwarder) Observers() *Registry {
	return &f.targets
}

func (f *ListForwarder) each(body func(ListObserver)) {
	Each(&f.targets, KindList, body)
	Each(&f.targets, KindSectionedList, func(o SectionedListObserver) { body(o) })
}

func (f *ListForwarder) convert(p IndexPath, dst ListObserver) IndexPath {
	if f.Convert == nil {
		return p
	}
	return f.Convert(p, dst)
}

func (f *ListForwarder) convertAll(paths []IndexPath, dst ListObserver) []IndexPath {
	if f.Convert == nil {
		return paths
	}
	out := make([]IndexPath, len(paths))
	for i, p := range paths {
		out[i] = f.Convert(p, dst)
	}
	return out
}

func (f *ListForwarder) WillUpdate(any) {
	f.each(func(o ListObserver) { o.WillUpdate(f) })
}

func (f *ListForwarder) DidUpdate(any) {
	f.each(func(o ListObserver) { o.DidUpdate(f) })
}

func (f *ListForwarder) DidReload(any) {
	f.each(func(o ListObserver) { o.DidReload(f) })
}

func (f *ListForwarder) ItemsInserted(_ any, paths []IndexPath) {
	f.each(func(o ListObserver) { o.ItemsInserted(f, f.convertAll(paths, o)) })
}

func (f *ListForwarder) ItemsDeleted(_ any, paths []IndexPath) {
	f.each(func(o ListObserver) { o.ItemsDeleted(f, f.convertAll(paths, o)) })
}

func (f *ListForwarder) ItemsUpdated(_ any, updates []IndexPathUpdate) {
	f.each(func(o ListObserver) {
		converted := make([]IndexPathUpdate, len(updates))
		for i, u := range updates {
			converted[i] = IndexPathUpdate{Old: f.convert(u.Old, o), New: f.convert(u.New, o)}
		}
		o.ItemsUpdated(f, converted)
	})
}

func (f *ListForwarder) ItemMoved(_ any, from, to IndexPath) {
	f.each(func(o ListObserver) { o.ItemMoved(f, f.convert(from, o), f.convert(to, o)) })
}

func (f *ListForwarder) SectionsInserted(_ any, sections []int) {
	Each(&f.targets, KindSectionedList, func(o SectionedListObserver) { o.SectionsInserted(f, sections) })
}

func (f *ListForwarder) SectionsDeleted(_ any, sections []int) {
	Each(&f.targets, KindSectionedList, func(o SectionedListObserver) { o.SectionsDeleted(f, sections) })
}

func (f *ListForwarder) SectionsUpdated(_ any, sections []int) {
	Each(&f.targets, KindSectionedList, func(o SectionedListObserver) { o.SectionsUpdated(f, sections) })
}

func (f *ListForwarder) SectionMoved(_ any, from, to int) {
	Each(&f.targets, KindSectionedList, func(o SectionedListObserver) { o.SectionMoved(f, from, to) })
}

// MapForwarder fans the events of one map source out to downstream map
// observers, converting keys per destination.
type MapForwarder struct {
	targets Registry

	// ConvertKey maps an upstream key to the key dst expects.
	// Nil forwards keys unchanged.
	ConvertKey func(key any, dst MapObserver) any
}

// Observers returns the destination registry (KindMap).
func (f *MapForwarder) Observers() *Registry {
	return &f.targets
}

func (f *MapForwarder) convertAll(keys []any, dst MapObserver) []any {
	if f.ConvertKey == nil {
		return keys
	}
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = f.ConvertKey(k, dst)
	}
	return out
}

func (f *MapForwarder) WillUpdate(any) {
	Each(&f.targets, KindMap, func(o MapObserver) { o.WillUpdate(f) })
}

func (f *MapForwarder) DidUpdate(any) {
	Each(&f.targets, KindMap, func(o MapObserver) { o.DidUpdate(f) })
}

func (f *MapForwarder) DidReload(any) {
	Each(&f.targets, KindMap, func(o MapObserver) { o.DidReload(f) })
}

func (f *MapForwarder) KeysInserted(_ any, keys []any) {
	Each(&f.targets, KindMap, func(o MapObserver) { o.KeysInserted(f, f.convertAll(keys, o)) })
}

func (f *MapForwarder) KeysDeleted(_ any, keys []any) {
	Each(&f.targets, KindMap, func(o MapObserver) { o.KeysDeleted(f, f.convertAll(keys, o)) })
}

func (f *MapForwarder) KeysUpdated(_ any, keys []any) {
	Each(&f.targets, KindMap, func(o MapObserver) { o.KeysUpdated(f, f.convertAll(keys, o)) })
}

// SectionedListForwarder is the name used when the upstream source is
// sectioned. A ListForwarder already passes section events through.
type SectionedListForwarder = ListForwarder
