package batch

import "github.com/abelbrown/datasources/internal/observe"

// ConvertFunc maps a source position to a widget position. src is the
// object that reported the event.
type ConvertFunc func(p observe.IndexPath, src any) observe.IndexPath

// FlatRows places a flat index i at (0, i). It is the default for widgets
// showing one flat list.
func FlatRows(p observe.IndexPath, _ any) observe.IndexPath {
	return observe.Path(0, p.Index())
}

// Identity passes positions through, for sectioned sources.
func Identity(p observe.IndexPath, _ any) observe.IndexPath {
	return p
}

// DropSection turns (section, item) into a flat item index.
func DropSection(p observe.IndexPath, _ any) observe.IndexPath {
	return p.DropFirst()
}

// InSection places flat index i at (section, i).
func InSection(section int) ConvertFunc {
	return func(p observe.IndexPath, _ any) observe.IndexPath {
		return observe.Path(section, p.Index())
	}
}

// Offset shifts positions by a fixed amount. Flat indexes are first placed
// in section 0.
func Offset(sections, items int) ConvertFunc {
	return func(p observe.IndexPath, _ any) observe.IndexPath {
		if len(p) == 1 {
			return observe.Path(sections, p.Index()+items)
		}
		return observe.Path(p.Section()+sections, p.Item()+items)
	}
}

// Chain applies fns left to right.
func Chain(fns ...ConvertFunc) ConvertFunc {
	return func(p observe.IndexPath, src any) observe.IndexPath {
		for _, fn := range fns {
			p = fn(p, src)
		}
		return p
	}
}
