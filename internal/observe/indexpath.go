package observe

import (
	"slices"
	"strconv"
	"strings"
)

// IndexPath addresses an item. Flat containers use one component (the index);
// host widgets use two (section, item).
type IndexPath []int

// Index returns a single-component path.
func Index(i int) IndexPath {
	return IndexPath{i}
}

// Path returns a (section, item) path.
func Path(section, item int) IndexPath {
	return IndexPath{section, item}
}

// Indexes returns one single-component path per index.
func Indexes(indices ...int) []IndexPath {
	paths := make([]IndexPath, len(indices))
	for i, idx := range indices {
		paths[i] = Index(idx)
	}
	return paths
}

// Range returns single-component paths 0..n-1.
func Range(n int) []IndexPath {
	paths := make([]IndexPath, n)
	for i := range paths {
		paths[i] = Index(i)
	}
	return paths
}

// Index returns the first component. Panics on an empty path.
func (p IndexPath) Index() int {
	if len(p) == 0 {
		panic("datasources: index of empty IndexPath")
	}
	return p[0]
}

// Section returns the section of a two-component path.
func (p IndexPath) Section() int {
	if len(p) != 2 {
		panic("datasources: section of IndexPath " + p.String() + " (need 2 components)")
	}
	return p[0]
}

// Item returns the last component.
func (p IndexPath) Item() int {
	if len(p) == 0 {
		panic("datasources: item of empty IndexPath")
	}
	return p[len(p)-1]
}

// DropFirst returns the path without its first component.
func (p IndexPath) DropFirst() IndexPath {
	if len(p) == 0 {
		return nil
	}
	return slices.Clone(p[1:])
}

// Equal reports whether both paths have the same components.
func (p IndexPath) Equal(q IndexPath) bool {
	return slices.Equal(p, q)
}

// Compare orders paths lexicographically.
func (p IndexPath) Compare(q IndexPath) int {
	return slices.Compare(p, q)
}

func (p IndexPath) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ".")
}

// ContainsPath reports whether paths contains p.
func ContainsPath(paths []IndexPath, p IndexPath) bool {
	return slices.ContainsFunc(paths, p.Equal)
}

// IndexPathUpdate pairs the position of an updated item before and after the
// update cycle. A moved item is also updated at its new position.
type IndexPathUpdate struct {
	Old IndexPath
	New IndexPath
}

// SameIndexPath returns an update whose old and new positions are p.
func SameIndexPath(p IndexPath) IndexPathUpdate {
	return IndexPathUpdate{Old: p, New: p}
}

func (u IndexPathUpdate) String() string {
	if u.Old.Equal(u.New) {
		return u.New.String()
	}
	return u.Old.String() + "->" + u.New.String()
}
