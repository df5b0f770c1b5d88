// Package observetest provides an observer that records every event it
// receives as a compact string, for asserting event sequences in tests.
package observetest

import (
	"fmt"
	"strings"

	"github.com/abelbrown/datasources/internal/observe"
)

// Recorder implements every observer capability.
//
// Event formats:
//
//	will, did, reload
//	insert 0,2    delete 1    update 2 / update 0->1    move 0->1
//	sections+ 1   sections- 1  sections~ 1  section 0->1
//	keys+ a,b     keys- a      keys~ a
//	value-will    value-did
type Recorder struct {
	Events  []string
	Sources []any
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.Events = nil
	r.Sources = nil
}

// Count returns how many recorded events start with prefix.
func (r *Recorder) Count(prefix string) int {
	n := 0
	for _, e := range r.Events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

// String joins the events with " | ".
func (r *Recorder) String() string {
	return strings.Join(r.Events, " | ")
}

func (r *Recorder) add(src any, format string, args ...any) {
	r.Events = append(r.Events, fmt.Sprintf(format, args...))
	r.Sources = append(r.Sources, src)
}

func (r *Recorder) WillUpdate(src any) { r.add(src, "will") }
func (r *Recorder) DidUpdate(src any)  { r.add(src, "did") }
func (r *Recorder) DidReload(src any)  { r.add(src, "reload") }

func (r *Recorder) ItemsInserted(src any, paths []observe.IndexPath) {
	r.add(src, "insert %s", joinPaths(paths))
}

func (r *Recorder) ItemsDeleted(src any, paths []observe.IndexPath) {
	r.add(src, "delete %s", joinPaths(paths))
}

func (r *Recorder) ItemsUpdated(src any, updates []observe.IndexPathUpdate) {
	parts := make([]string, len(updates))
	for i, u := range updates {
		parts[i] = u.String()
	}
	r.add(src, "update %s", strings.Join(parts, ","))
}

func (r *Recorder) ItemMoved(src any, from, to observe.IndexPath) {
	r.add(src, "move %s->%s", from, to)
}

func (r *Recorder) SectionsInserted(src any, sections []int) {
	r.add(src, "sections+ %s", joinInts(sections))
}

func (r *Recorder) SectionsDeleted(src any, sections []int) {
	r.add(src, "sections- %s", joinInts(sections))
}

func (r *Recorder) SectionsUpdated(src any, sections []int) {
	r.add(src, "sections~ %s", joinInts(sections))
}

func (r *Recorder) SectionMoved(src any, from, to int) {
	r.add(src, "section %d->%d", from, to)
}

func (r *Recorder) KeysInserted(src any, keys []any) { r.add(src, "keys+ %s", joinKeys(keys)) }
func (r *Recorder) KeysDeleted(src any, keys []any)  { r.add(src, "keys- %s", joinKeys(keys)) }
func (r *Recorder) KeysUpdated(src any, keys []any)  { r.add(src, "keys~ %s", joinKeys(keys)) }

func (r *Recorder) WillUpdateValue(src any) { r.add(src, "value-will") }
func (r *Recorder) DidUpdateValue(src any)  { r.add(src, "value-did") }

func joinPaths(paths []observe.IndexPath) string {
	parts := make([]string, len(paths))
	for i, p := range paths {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}

func joinInts(ints []int) string {
	parts := make([]string, len(ints))
	for i, v := range ints {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}

func joinKeys(keys []any) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprint(k)
	}
	return strings.Join(parts, ",")
}
