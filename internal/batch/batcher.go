package batch

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/abelbrown/datasources/internal/logging"
	"github.com/abelbrown/datasources/internal/metrics"
	"github.com/abelbrown/datasources/internal/observe"
	"github.com/abelbrown/datasources/internal/otel"
)

// DefaultSettleDelay is how long the deferred reload transaction waits for
// the immediate transaction's animation to settle.
const DefaultSettleDelay = 100 * time.Millisecond

// Config configures a Batcher. The zero value is usable: flat rows, inline
// deferred work, no metrics, no events.
type Config struct {
	Scheduler Scheduler
	// Convert maps source positions to widget positions. Nil uses FlatRows.
	Convert ConvertFunc
	// ConvertSection maps source sections to widget sections. Nil keeps them.
	ConvertSection func(section int, src any) int
	SettleDelay    time.Duration
	Metrics        *metrics.Metrics
	Events         *otel.Logger
	// Name labels log lines and events when several batchers run.
	Name string
}

// Stage is the position of a Batcher in its update cycle.
type Stage uint8

const (
	StageIdle Stage = iota
	StageAccumulating
	StageImmediatePending
	StageDeferredPending
	StageSelectionPending
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAccumulating:
		return "accumulating"
	case StageImmediatePending:
		return "immediate-pending"
	case StageDeferredPending:
		return "deferred-pending"
	case StageSelectionPending:
		return "selection-pending"
	}
	return "unknown"
}

// Batcher is a SectionedListObserver that drives a Widget. Register it with
// a list source under KindList or KindSectionedList and keep a reference:
// sources hold observers weakly.
type Batcher struct {
	w   Widget
	cfg Config
	log *log.Logger

	dropLog rate.Sometimes

	gen          uuid.UUID
	accumulating bool

	changes  []Change
	toReload []observe.IndexPath
	toSelect []observe.IndexPath

	completionTask func()
	postponedTask  func()
	selectionTask  func()
}

// New returns a Batcher driving w.
func New(w Widget, cfg Config) *Batcher {
	if cfg.Scheduler == nil {
		cfg.Scheduler = Inline
	}
	if cfg.Convert == nil {
		cfg.Convert = FlatRows
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	prefix := "batch"
	if cfg.Name != "" {
		prefix = "batch/" + cfg.Name
	}
	return &Batcher{
		w:       w,
		cfg:     cfg,
		log:     logging.WithPrefix(prefix),
		dropLog: rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
}

// Generation returns the token of the current update cycle.
func (b *Batcher) Generation() uuid.UUID { return b.gen }

// Stage reports where the current cycle stands.
func (b *Batcher) Stage() Stage {
	switch {
	case b.accumulating:
		return StageAccumulating
	case b.completionTask != nil:
		return StageImmediatePending
	case b.postponedTask != nil:
		return StageDeferredPending
	case b.selectionTask != nil:
		return StageSelectionPending
	}
	return StageIdle
}

// WillUpdate finishes whatever the previous cycle left outstanding, then
// starts a new generation.
func (b *Batcher) WillUpdate(any) {
	runTask(&b.completionTask)
	runTask(&b.postponedTask)
	runTask(&b.selectionTask)

	b.gen = uuid.New()
	b.accumulating = true
	b.changes = nil
	b.toReload = nil
	b.toSelect = nil
	b.emit(otel.Event{Kind: otel.KindBatchBegin})
}

func (b *Batcher) ItemsInserted(src any, paths []observe.IndexPath) {
	if b.drop("insert") {
		return
	}
	b.changes = append(b.changes, Change{Kind: ChangeInsert, Paths: b.convertAll(paths, src)})
}

func (b *Batcher) ItemsDeleted(src any, paths []observe.IndexPath) {
	if b.drop("delete") {
		return
	}
	b.changes = append(b.changes, Change{Kind: ChangeDelete, Paths: b.convertAll(paths, src)})
}

// ItemsUpdated records a reload and remembers which of the old rows were
// selected so the selection survives the reload.
func (b *Batcher) ItemsUpdated(src any, updates []observe.IndexPathUpdate) {
	if b.drop("reload") {
		return
	}
	converted := make([]observe.IndexPathUpdate, len(updates))
	for i, u := range updates {
		converted[i] = observe.IndexPathUpdate{
			Old: b.cfg.Convert(u.Old, src),
			New: b.cfg.Convert(u.New, src),
		}
	}
	b.changes = append(b.changes, Change{Kind: ChangeReload, Updates: converted})

	selected := b.w.Selected()
	for _, u := range converted {
		if observe.ContainsPath(selected, u.Old) {
			b.toSelect = append(b.toSelect, u.Old)
		}
	}
}

// ItemMoved records the move. A moved row also changed, and widgets cannot
// move and reload a row in one transaction, so the destination is reloaded
// in the deferred transaction.
func (b *Batcher) ItemMoved(src any, from, to observe.IndexPath) {
	if b.drop("move") {
		return
	}
	from, to = b.cfg.Convert(from, src), b.cfg.Convert(to, src)
	b.changes = append(b.changes, Change{Kind: ChangeMove, FromPath: from, ToPath: to})
	b.toReload = append(b.toReload, to)
	if observe.ContainsPath(b.w.Selected(), from) {
		b.toSelect = append(b.toSelect, to)
	}
}

func (b *Batcher) SectionsInserted(src any, sections []int) {
	if b.drop("insert_sections") {
		return
	}
	b.changes = append(b.changes, Change{Kind: ChangeInsertSections, Sections: b.convertSections(sections, src)})
}

func (b *Batcher) SectionsDeleted(src any, sections []int) {
	if b.drop("delete_sections") {
		return
	}
	b.changes = append(b.changes, Change{Kind: ChangeDeleteSections, Sections: b.convertSections(sections, src)})
}

func (b *Batcher) SectionsUpdated(src any, sections []int) {
	if b.drop("reload_sections") {
		return
	}
	b.changes = append(b.changes, Change{Kind: ChangeReloadSections, Sections: b.convertSections(sections, src)})
}

func (b *Batcher) SectionMoved(src any, from, to int) {
	if b.drop("move_section") {
		return
	}
	b.changes = append(b.changes, Change{
		Kind: ChangeMoveSection,
		From: b.convertSection(from, src),
		To:   b.convertSection(to, src),
	})
}

// DidUpdate hands the recorded changes to the widget.
func (b *Batcher) DidUpdate(any) {
	b.accumulating = false
	if !b.w.Ready() {
		return
	}

	var reloads, others []Change
	for _, c := range b.changes {
		if c.Kind == ChangeReload {
			reloads = append(reloads, c)
		} else {
			others = append(others, c)
		}
	}
	immediate, deferred := b.changes, []Change(nil)
	if len(reloads) > 0 && len(others) > 0 {
		immediate, deferred = others, reloads
	}
	b.changes = nil

	gen := b.gen
	b.completionTask = func() { b.complete(gen, deferred) }

	b.emit(otel.Event{Kind: otel.KindBatchCommit, Count: len(immediate)})
	b.cfg.Metrics.Transaction(metrics.PhaseImmediate)
	b.w.PerformBatchUpdates(func() {
		for _, c := range immediate {
			c.apply(b.w, false)
			b.cfg.Metrics.Change(c.Kind.String())
		}
	}, func(bool) {
		if b.stale(gen, "immediate completion") {
			return
		}
		runTask(&b.completionTask)
	})
}

// DidReload reloads the whole widget.
func (b *Batcher) DidReload(any) {
	b.emit(otel.Event{Kind: otel.KindBatchReload})
	b.cfg.Metrics.FullReload()
	b.w.ReloadAll()
}

// complete runs after the immediate transaction: it schedules the deferred
// reloads, if any, and arranges the selection replay.
func (b *Batcher) complete(gen uuid.UUID, deferred []Change) {
	toReload, toSelect := b.toReload, b.toSelect
	b.toReload, b.toSelect = nil, nil

	b.selectionTask = func() {
		for _, p := range toSelect {
			b.w.Select(p)
		}
		if len(toSelect) > 0 {
			b.cfg.Metrics.Selection()
			b.emit(otel.Event{Kind: otel.KindBatchSelect, Count: len(toSelect)})
		}
	}

	if len(deferred) == 0 && len(toReload) == 0 {
		runTask(&b.selectionTask)
		return
	}

	b.postponedTask = func() {
		b.emit(otel.Event{Kind: otel.KindBatchDeferred, Count: len(deferred) + len(toReload)})
		b.cfg.Metrics.Transaction(metrics.PhaseDeferred)
		b.w.PerformBatchUpdates(func() {
			var reloaded []observe.IndexPath
			for _, c := range deferred {
				c.apply(b.w, true)
				b.cfg.Metrics.Change(c.Kind.String())
				reloaded = append(reloaded, c.reloadPaths(true)...)
			}
			var dest []observe.IndexPath
			for _, p := range toReload {
				if !observe.ContainsPath(reloaded, p) && !observe.ContainsPath(dest, p) {
					dest = append(dest, p)
				}
			}
			if len(dest) > 0 {
				b.w.Reload(dest)
				b.cfg.Metrics.Change(ChangeReload.String())
			}
		}, func(bool) {
			if b.stale(gen, "deferred completion") {
				return
			}
			runTask(&b.selectionTask)
		})
	}
	b.cfg.Scheduler.After(b.cfg.SettleDelay, func() {
		if b.stale(gen, "deferred transaction") {
			return
		}
		runTask(&b.postponedTask)
	})
}

// drop reports whether a delta must be discarded because the widget cannot
// take updates yet.
func (b *Batcher) drop(kind string) bool {
	if b.w.Ready() {
		return false
	}
	b.cfg.Metrics.DroppedEvent()
	b.emit(otel.Event{Kind: otel.KindBatchDropped, Msg: kind})
	b.dropLog.Do(func() {
		b.log.Debug("widget not ready, dropping delta", "kind", kind, "gen", b.gen)
	})
	return true
}

func (b *Batcher) stale(gen uuid.UUID, what string) bool {
	if gen == b.gen {
		return false
	}
	b.cfg.Metrics.StaleClosure()
	b.emit(otel.Event{Kind: otel.KindBatchStale, Msg: what, Extra: map[string]any{"current": b.gen.String()}})
	b.log.Debug("ignoring stale closure", "what", what, "gen", gen, "current", b.gen)
	return true
}

func (b *Batcher) emit(e otel.Event) {
	if b.cfg.Events == nil {
		return
	}
	e.Level = otel.LevelDebug
	e.Comp = "batch"
	e.Source = b.cfg.Name
	e.Gen = b.gen.String()
	b.cfg.Events.Emit(e)
}

func (b *Batcher) convertAll(paths []observe.IndexPath, src any) []observe.IndexPath {
	out := make([]observe.IndexPath, len(paths))
	for i, p := range paths {
		out[i] = b.cfg.Convert(p, src)
	}
	return out
}

func (b *Batcher) convertSection(s int, src any) int {
	if b.cfg.ConvertSection == nil {
		return s
	}
	return b.cfg.ConvertSection(s, src)
}

func (b *Batcher) convertSections(sections []int, src any) []int {
	out := make([]int, len(sections))
	for i, s := range sections {
		out[i] = b.convertSection(s, src)
	}
	return out
}

// runTask clears *task before running it so a task may install its successor.
func runTask(task *func()) {
	t := *task
	*task = nil
	if t != nil {
		t()
	}
}
