package feed

import (
	"fmt"

	"github.com/abelbrown/datasources/internal/observe"
)

// Stats counts the changes a Diff produced.
type Stats struct {
	Inserted, Deleted, Moved, Updated int
}

func (s Stats) Empty() bool { return s == Stats{} }

func (s Stats) String() string {
	return fmt.Sprintf("+%d -%d ~%d >%d", s.Inserted, s.Deleted, s.Updated, s.Moved)
}

// Diff drives a through the changes that turn old into new, in section 0.
// Keys must be unique within each result set.
//
// Every path is valid against the state left by the previous change:
// deletes run from the highest old row down, inserts from the lowest new
// row up, and moves then bring the remaining rows into order one final
// position at a time. Updates come last and name final rows. A nil equal
// treats every surviving object as changed.
func Diff[T any, K comparable](a *Animator, old, new []T, keyOf func(T) K, equal func(x, y T) bool) Stats {
	var st Stats

	newAt := make(map[K]int, len(new))
	for i, v := range new {
		k := keyOf(v)
		if _, dup := newAt[k]; dup {
			panic(fmt.Sprintf("datasources: duplicate key %v in diff", k))
		}
		newAt[k] = i
	}
	oldAt := make(map[K]int, len(old))
	for i, v := range old {
		oldAt[keyOf(v)] = i
	}

	a.WillChangeContent()

	// Working order after deletes: survivors in old order.
	var cur []K
	for i := len(old) - 1; i >= 0; i-- {
		k := keyOf(old[i])
		if _, ok := newAt[k]; !ok {
			a.DidChangeObject(old[i], observe.Path(0, i), nil, Delete)
			st.Deleted++
		}
	}
	for _, v := range old {
		if k := keyOf(v); hasKey(newAt, k) {
			cur = append(cur, k)
		}
	}

	for j, v := range new {
		k := keyOf(v)
		if _, ok := oldAt[k]; ok {
			continue
		}
		cur = append(cur, k)
		copy(cur[j+1:], cur[j:])
		cur[j] = k
		a.DidChangeObject(v, nil, observe.Path(0, j), Insert)
		st.Inserted++
	}

	for j, v := range new {
		k := keyOf(v)
		if cur[j] == k {
			continue
		}
		from := j + 1
		for cur[from] != k {
			from++
		}
		copy(cur[j+1:from+1], cur[j:from])
		cur[j] = k
		a.DidChangeObject(v, observe.Path(0, from), observe.Path(0, j), Move)
		st.Moved++
	}

	for j, v := range new {
		i, ok := oldAt[keyOf(v)]
		if !ok || (equal != nil && equal(old[i], v)) {
			continue
		}
		p := observe.Path(0, j)
		a.DidChangeObject(v, p, p, Update)
		st.Updated++
	}

	a.DidChangeContent()
	return st
}

func hasKey[K comparable](m map[K]int, k K) bool {
	_, ok := m[k]
	return ok
}
