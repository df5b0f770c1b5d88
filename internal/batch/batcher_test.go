package batch

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/abelbrown/datasources/internal/container"
	"github.com/abelbrown/datasources/internal/loop"
	"github.com/abelbrown/datasources/internal/metrics"
	"github.com/abelbrown/datasources/internal/observe"
	"github.com/abelbrown/datasources/internal/otel"
)

// recWidget records every call as a compact string. With hold set,
// transaction completions are queued until release is called.
type recWidget struct {
	ready    bool
	hold     bool
	calls    []string
	selected []observe.IndexPath
	pending  []func(bool)
}

func newRecWidget() *recWidget { return &recWidget{ready: true} }

func (w *recWidget) record(format string, args ...any) {
	w.calls = append(w.calls, fmt.Sprintf(format, args...))
}

func paths(ps []observe.IndexPath) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func ints(xs []int) string { return fmt.Sprint(xs) }

func (w *recWidget) Ready() bool                     { return w.ready }
func (w *recWidget) Insert(ps []observe.IndexPath)   { w.record("insert %s", paths(ps)) }
func (w *recWidget) Delete(ps []observe.IndexPath)   { w.record("delete %s", paths(ps)) }
func (w *recWidget) Reload(ps []observe.IndexPath)   { w.record("reload %s", paths(ps)) }
func (w *recWidget) Move(from, to observe.IndexPath) { w.record("move %s->%s", from, to) }
func (w *recWidget) ReloadAll()                      { w.record("reloadAll") }
func (w *recWidget) Selected() []observe.IndexPath   { return w.selected }

func (w *recWidget) Select(p observe.IndexPath) {
	if p == nil {
		w.selected = nil
		w.record("deselect")
		return
	}
	w.selected = append(w.selected, p)
	w.record("select %s", p)
}

func (w *recWidget) PerformBatchUpdates(updates func(), completion func(bool)) {
	w.record("begin")
	updates()
	w.record("end")
	if w.hold {
		w.pending = append(w.pending, completion)
		return
	}
	completion(true)
}

// release fires the oldest held completion.
func (w *recWidget) release() {
	c := w.pending[0]
	w.pending = w.pending[1:]
	c(true)
}

func (w *recWidget) take() string {
	s := strings.Join(w.calls, " | ")
	w.calls = nil
	return s
}

type sectionedWidget struct{ recWidget }

func (w *sectionedWidget) InsertSections(s []int) { w.record("insertSections %s", ints(s)) }
func (w *sectionedWidget) DeleteSections(s []int) { w.record("deleteSections %s", ints(s)) }
func (w *sectionedWidget) ReloadSections(s []int) { w.record("reloadSections %s", ints(s)) }
func (w *sectionedWidget) MoveSection(from, to int) {
	w.record("moveSection %d->%d", from, to)
}

func newTestBatcher(w Widget) (*Batcher, *loop.Loop, *metrics.Metrics) {
	l := loop.New(loop.NewFakeClock())
	m := metrics.New(prometheus.NewRegistry())
	return New(w, Config{Scheduler: l, Metrics: m}), l, m
}

func TestMoveAndUpdateSplitIntoTwoTransactions(t *testing.T) {
	w := newRecWidget()
	b, l, m := newTestBatcher(w)

	b.WillUpdate(nil)
	b.ItemMoved(nil, observe.Index(0), observe.Index(1))
	b.ItemsUpdated(nil, []observe.IndexPathUpdate{observe.SameIndexPath(observe.Index(2))})
	b.DidUpdate(nil)

	if got, want := w.take(), "begin | move 0.0->0.1 | end"; got != want {
		t.Errorf("immediate = %q, want %q", got, want)
	}
	if b.Stage() != StageDeferredPending {
		t.Errorf("stage = %v, want deferred-pending", b.Stage())
	}

	l.Advance(DefaultSettleDelay - time.Millisecond)
	if got := w.take(); got != "" {
		t.Fatalf("deferred ran before settle delay: %q", got)
	}
	l.Advance(time.Millisecond)
	if got, want := w.take(), "begin | reload [0.2] | reload [0.1] | end"; got != want {
		t.Errorf("deferred = %q, want %q", got, want)
	}
	if b.Stage() != StageIdle {
		t.Errorf("stage = %v, want idle", b.Stage())
	}

	s := m.Summary()
	if s.Immediate != 1 || s.Deferred != 1 {
		t.Errorf("transactions = %v/%v, want 1/1", s.Immediate, s.Deferred)
	}
}

func TestMoveAloneReloadsDestinationLater(t *testing.T) {
	w := newRecWidget()
	b, l, _ := newTestBatcher(w)

	b.WillUpdate(nil)
	b.ItemMoved(nil, observe.Index(0), observe.Index(1))
	b.DidUpdate(nil)
	l.Advance(time.Second)

	want := "begin | move 0.0->0.1 | end | begin | reload [0.1] | end"
	if got := w.take(); got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
}

func TestReloadsOnlyRunImmediatelyWithOldPaths(t *testing.T) {
	w := newRecWidget()
	b, l, _ := newTestBatcher(w)

	b.WillUpdate(nil)
	b.ItemsUpdated(nil, []observe.IndexPathUpdate{{Old: observe.Index(1), New: observe.Index(3)}})
	b.DidUpdate(nil)
	l.Advance(time.Second)

	if got, want := w.take(), "begin | reload [0.1] | end"; got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
}

func TestDeferredReloadUsesNewPathsAndDedupes(t *testing.T) {
	w := newRecWidget()
	b, l, _ := newTestBatcher(w)

	b.WillUpdate(nil)
	b.ItemsInserted(nil, observe.Indexes(0))
	b.ItemMoved(nil, observe.Index(3), observe.Index(1))
	b.ItemMoved(nil, observe.Index(4), observe.Index(2))
	b.ItemsUpdated(nil, []observe.IndexPathUpdate{{Old: observe.Index(1), New: observe.Index(2)}})
	b.DidUpdate(nil)
	l.Advance(time.Second)

	want := "begin | insert [0.0] | move 0.3->0.1 | move 0.4->0.2 | end" +
		" | begin | reload [0.2] | reload [0.1] | end"
	if got := w.take(); got != want {
		t.Errorf("calls = %q,\nwant %q", got, want)
	}
}

func TestSelectionSurvivesUpdate(t *testing.T) {
	w := newRecWidget()
	w.selected = []observe.IndexPath{observe.Path(0, 2)}
	b, l, _ := newTestBatcher(w)

	b.WillUpdate(nil)
	b.ItemsUpdated(nil, []observe.IndexPathUpdate{observe.SameIndexPath(observe.Index(2))})
	b.DidUpdate(nil)
	l.RunPending()

	if got, want := w.take(), "begin | reload [0.2] | end | select 0.2"; got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
}

func TestSelectionFollowsMove(t *testing.T) {
	w := newRecWidget()
	w.selected = []observe.IndexPath{observe.Path(0, 0)}
	b, l, m := newTestBatcher(w)

	b.WillUpdate(nil)
	b.ItemMoved(nil, observe.Index(0), observe.Index(2))
	b.DidUpdate(nil)
	if got := w.take(); got != "begin | move 0.0->0.2 | end" {
		t.Fatalf("immediate = %q", got)
	}
	if b.Stage() != StageDeferredPending {
		t.Errorf("stage = %v", b.Stage())
	}
	l.Advance(time.Second)
	if got, want := w.take(), "begin | reload [0.2] | end | select 0.2"; got != want {
		t.Errorf("deferred = %q, want %q", got, want)
	}
	if m.Summary().Selections != 1 {
		t.Errorf("selections = %v, want 1", m.Summary().Selections)
	}
}

func TestNewCycleFlushesOutstandingWork(t *testing.T) {
	w := newRecWidget()
	b, l, m := newTestBatcher(w)

	b.WillUpdate(nil)
	b.ItemMoved(nil, observe.Index(0), observe.Index(1))
	b.DidUpdate(nil)
	w.take()

	// A second cycle before the settle delay runs the deferred transaction
	// synchronously first.
	b.WillUpdate(nil)
	if got, want := w.take(), "begin | reload [0.1] | end"; got != want {
		t.Errorf("flush = %q, want %q", got, want)
	}
	b.ItemsInserted(nil, observe.Indexes(5))
	b.DidUpdate(nil)
	w.take()

	// The first cycle's timer now finds a newer generation and does nothing.
	l.Advance(time.Second)
	if got := w.take(); got != "" {
		t.Errorf("stale timer ran: %q", got)
	}
	if s := m.Summary().Stale; s != 1 {
		t.Errorf("stale = %v, want 1", s)
	}
}

func TestStaleCompletionIsIgnored(t *testing.T) {
	w := newRecWidget()
	w.hold = true
	b, l, m := newTestBatcher(w)

	b.WillUpdate(nil)
	b.ItemsInserted(nil, observe.Indexes(0))
	b.DidUpdate(nil)
	if b.Stage() != StageImmediatePending {
		t.Fatalf("stage = %v, want immediate-pending", b.Stage())
	}

	b.WillUpdate(nil) // runs the held completion task directly
	b.DidUpdate(nil)
	w.release() // first cycle's completion arrives late
	if m.Summary().Stale != 1 {
		t.Errorf("stale = %v, want 1", m.Summary().Stale)
	}
	w.release()
	l.Advance(time.Second)
	if b.Stage() != StageIdle {
		t.Errorf("stage = %v, want idle", b.Stage())
	}
}

func TestDeltasDroppedWhileNotReady(t *testing.T) {
	w := newRecWidget()
	w.ready = false
	b, _, m := newTestBatcher(w)

	b.WillUpdate(nil)
	if b.Stage() != StageAccumulating {
		t.Errorf("stage = %v, want accumulating", b.Stage())
	}
	b.ItemsInserted(nil, observe.Indexes(0))
	b.ItemMoved(nil, observe.Index(0), observe.Index(1))
	b.DidUpdate(nil)

	if got := w.take(); got != "" {
		t.Errorf("widget touched while not ready: %q", got)
	}
	if m.Summary().Dropped != 2 {
		t.Errorf("dropped = %v, want 2", m.Summary().Dropped)
	}

	// Once ready, earlier drops do not leak into the next cycle.
	w.ready = true
	b.WillUpdate(nil)
	b.ItemsDeleted(nil, observe.Indexes(0))
	b.DidUpdate(nil)
	if got, want := w.take(), "begin | delete [0.0] | end"; got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
}

func TestDidReloadReloadsEverything(t *testing.T) {
	w := newRecWidget()
	b, _, m := newTestBatcher(w)
	b.DidReload(nil)
	if got := w.take(); got != "reloadAll" {
		t.Errorf("calls = %q", got)
	}
	if m.Summary().ReloadAll != 1 {
		t.Error("reload not counted")
	}
}

func TestSectionChanges(t *testing.T) {
	w := &sectionedWidget{recWidget{ready: true}}
	b := New(w, Config{Convert: Identity})

	b.WillUpdate(nil)
	b.SectionsInserted(nil, []int{1})
	b.SectionMoved(nil, 0, 2)
	b.SectionsUpdated(nil, []int{0})
	b.ItemsInserted(nil, []observe.IndexPath{observe.Path(1, 0)})
	b.DidUpdate(nil)

	want := "begin | insertSections [1] | moveSection 0->2 | reloadSections [0] | insert [1.0] | end"
	if got := w.take(); got != want {
		t.Errorf("calls = %q,\nwant %q", got, want)
	}
}

func TestSectionChangesSkippedOnFlatWidget(t *testing.T) {
	w := newRecWidget()
	b := New(w, Config{})
	b.WillUpdate(nil)
	b.SectionsDeleted(nil, []int{0})
	b.ItemsInserted(nil, observe.Indexes(0))
	b.DidUpdate(nil)
	if got, want := w.take(), "begin | insert [0.0] | end"; got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
}

func TestEventsCarryGeneration(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	events := otel.NewNullLogger()
	events.SetRingBuffer(ring)

	w := newRecWidget()
	b := New(w, Config{Events: events, Name: "tasks"})
	b.WillUpdate(nil)
	b.ItemsInserted(nil, observe.Indexes(0))
	b.DidUpdate(nil)
	gen := b.Generation().String()
	events.Close()

	var kinds []otel.EventKind
	for _, e := range ring.Snapshot() {
		kinds = append(kinds, e.Kind)
		if e.Gen != gen {
			t.Errorf("%s: gen = %q, want %q", e.Kind, e.Gen, gen)
		}
		if e.Source != "tasks" {
			t.Errorf("%s: source = %q", e.Kind, e.Source)
		}
	}
	if len(kinds) != 2 || kinds[0] != otel.KindBatchBegin || kinds[1] != otel.KindBatchCommit {
		t.Errorf("kinds = %v", kinds)
	}
}

// A list container wired to a Batcher end to end.
func TestListDrivesWidget(t *testing.T) {
	w := newRecWidget()
	b, l, _ := newTestBatcher(w)
	list := container.NewList("a", "b", "c")
	observe.Watch(list, observe.KindList, b)

	list.Move(0, 2)
	list.Set(0, "B")
	l.Advance(time.Second)
	list.RemoveAll()

	want := "begin | move 0.0->0.2 | end | begin | reload [0.2] | end" +
		" | begin | reload [0.0] | end" +
		" | begin | delete [0.0 0.1 0.2] | end"
	if got := w.take(); got != want {
		t.Errorf("calls = %q,\nwant %q", got, want)
	}
}

func TestConverters(t *testing.T) {
	tests := []struct {
		name string
		fn   ConvertFunc
		in   observe.IndexPath
		want observe.IndexPath
	}{
		{"flat rows", FlatRows, observe.Index(3), observe.Path(0, 3)},
		{"identity", Identity, observe.Path(2, 1), observe.Path(2, 1)},
		{"drop section", DropSection, observe.Path(2, 1), observe.Index(1)},
		{"in section", InSection(4), observe.Index(1), observe.Path(4, 1)},
		{"offset flat", Offset(1, 2), observe.Index(1), observe.Path(1, 3)},
		{"offset sectioned", Offset(1, 2), observe.Path(1, 1), observe.Path(2, 3)},
		{"chain", Chain(FlatRows, Offset(0, 5)), observe.Index(1), observe.Path(0, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in, nil); !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
