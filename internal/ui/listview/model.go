// Package listview is a Bubble Tea list widget that implements
// batch.SectionedWidget.
//
// The widget caches rendered rows. Structural calls (Insert, Delete, Move
// and their section forms) rearrange the cache; only inserted and reloaded
// rows are fetched from the RowSource, once the outermost transaction ends,
// using their final positions. Rows that were moved but not reloaded keep
// their old text, which is what the Batcher's deferred reload repairs.
package listview

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/datasources/internal/batch"
	"github.com/abelbrown/datasources/internal/logging"
	"github.com/abelbrown/datasources/internal/observe"
)

var _ batch.SectionedWidget = (*Model)(nil)

type row struct {
	text  string
	dirty bool
}

type section struct {
	rows  []row
	fresh bool // refetch every row at flush
}

// Stats counts what the widget has been asked to do.
type Stats struct {
	Transactions int
	Inserts      int
	Deletes      int
	Reloads      int
	Moves        int
	FullReloads  int
	Inconsistent int
}

// Model is the list widget. Use it through a pointer.
type Model struct {
	src   RowSource
	sched batch.Scheduler
	log   *log.Logger

	// AnimationDelay is how long a transaction takes to complete.
	AnimationDelay time.Duration
	Keys           KeyMap
	Styles         Styles

	sections []section
	selected []observe.IndexPath
	ready    bool
	width    int
	height   int
	offset   int

	depth  int
	broken bool
	stats  Stats
}

// New returns a widget over src. Transaction completions are delivered
// through sched; nil completes them inline.
func New(src RowSource, sched batch.Scheduler) *Model {
	return &Model{
		src:    src,
		sched:  sched,
		log:    logging.WithPrefix("listview"),
		Keys:   DefaultKeyMap(),
		Styles: DefaultStyles(),
	}
}

// Ready reports whether the widget has been laid out.
func (m *Model) Ready() bool { return m.ready }

// SetSize lays the widget out. The first call makes it ready and loads
// every row.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	if !m.ready {
		m.ready = true
		m.ReloadAll()
	}
}

func (m *Model) Stats() Stats { return m.stats }

// ReloadAll discards the cache, refetches every row and clears the selection.
func (m *Model) ReloadAll() {
	m.stats.FullReloads++
	m.sections = make([]section, m.src.NumSections())
	for s := range m.sections {
		m.sections[s] = section{rows: m.fetchSection(s)}
	}
	m.selected = nil
	m.offset = 0
	m.broken = false
}

// PerformBatchUpdates applies updates as one transaction. completion runs
// after AnimationDelay on the scheduler.
func (m *Model) PerformBatchUpdates(updates func(), completion func(finished bool)) {
	m.stats.Transactions++
	m.mutate(updates)
	if completion == nil {
		return
	}
	if m.sched == nil {
		completion(true)
		return
	}
	m.sched.After(m.AnimationDelay, func() { completion(true) })
}

func (m *Model) Insert(paths []observe.IndexPath) {
	m.mutate(func() {
		for _, q := range sortedPaths(paths) {
			sec, ok := m.section(q)
			if !ok || q.Item() > len(sec.rows) {
				m.invalid("insert", q)
				continue
			}
			sec.rows = slices.Insert(sec.rows, q.Item(), row{dirty: true})
			m.remap(func(p observe.IndexPath) observe.IndexPath { return shiftInsert(p, q) })
			m.stats.Inserts++
		}
	})
}

func (m *Model) Delete(paths []observe.IndexPath) {
	m.mutate(func() {
		sorted := sortedPaths(paths)
		for i := len(sorted) - 1; i >= 0; i-- {
			q := sorted[i]
			sec, ok := m.section(q)
			if !ok || q.Item() >= len(sec.rows) {
				m.invalid("delete", q)
				continue
			}
			sec.rows = slices.Delete(sec.rows, q.Item(), q.Item()+1)
			m.remap(func(p observe.IndexPath) observe.IndexPath { return shiftDelete(p, q) })
			m.stats.Deletes++
		}
	})
}

// Reload marks rows for refetching. A reloaded row loses its selection.
func (m *Model) Reload(paths []observe.IndexPath) {
	m.mutate(func() {
		for _, q := range paths {
			sec, ok := m.section(q)
			if !ok || q.Item() >= len(sec.rows) {
				m.invalid("reload", q)
				continue
			}
			sec.rows[q.Item()].dirty = true
			m.remap(func(p observe.IndexPath) observe.IndexPath {
				if p.Equal(q) {
					return nil
				}
				return p
			})
			m.stats.Reloads++
		}
	})
}

// Move moves a row. A selected row stays selected at its destination.
func (m *Model) Move(from, to observe.IndexPath) {
	m.mutate(func() {
		src, ok := m.section(from)
		if !ok || from.Item() >= len(src.rows) {
			m.invalid("move from", from)
			return
		}
		r := src.rows[from.Item()]
		src.rows = slices.Delete(src.rows, from.Item(), from.Item()+1)
		dst, ok := m.section(to)
		if !ok || to.Item() > len(dst.rows) {
			m.invalid("move to", to)
			return
		}
		dst.rows = slices.Insert(dst.rows, to.Item(), r)
		m.remap(func(p observe.IndexPath) observe.IndexPath {
			if p.Equal(from) {
				return slices.Clone(to)
			}
			return shiftInsert(shiftDelete(p, from), to)
		})
		m.stats.Moves++
	})
}

func (m *Model) InsertSections(sections []int) {
	m.mutate(func() {
		for _, s := range sortedInts(sections) {
			if s < 0 || s > len(m.sections) {
				m.invalid("insert section", observe.Index(s))
				continue
			}
			m.sections = slices.Insert(m.sections, s, section{fresh: true})
			m.remap(func(p observe.IndexPath) observe.IndexPath {
				if p.Section() >= s {
					return observe.Path(p.Section()+1, p.Item())
				}
				return p
			})
		}
	})
}

func (m *Model) DeleteSections(sections []int) {
	m.mutate(func() {
		sorted := sortedInts(sections)
		for i := len(sorted) - 1; i >= 0; i-- {
			s := sorted[i]
			if s < 0 || s >= len(m.sections) {
				m.invalid("delete section", observe.Index(s))
				continue
			}
			m.sections = slices.Delete(m.sections, s, s+1)
			m.remap(func(p observe.IndexPath) observe.IndexPath {
				switch {
				case p.Section() == s:
					return nil
				case p.Section() > s:
					return observe.Path(p.Section()-1, p.Item())
				}
				return p
			})
		}
	})
}

func (m *Model) ReloadSections(sections []int) {
	m.mutate(func() {
		for _, s := range sections {
			if s < 0 || s >= len(m.sections) {
				m.invalid("reload section", observe.Index(s))
				continue
			}
			m.sections[s].fresh = true
			m.remap(func(p observe.IndexPath) observe.IndexPath {
				if p.Section() == s {
					return nil
				}
				return p
			})
		}
	})
}

func (m *Model) MoveSection(from, to int) {
	m.mutate(func() {
		if from < 0 || from >= len(m.sections) || to < 0 || to >= len(m.sections) {
			m.invalid("move section", observe.Path(from, to))
			return
		}
		sec := m.sections[from]
		m.sections = slices.Delete(m.sections, from, from+1)
		m.sections = slices.Insert(m.sections, to, sec)
		m.remap(func(p observe.IndexPath) observe.IndexPath {
			s := p.Section()
			switch {
			case s == from:
				s = to
			case from < s && s <= to:
				s--
			case to <= s && s < from:
				s++
			}
			return observe.Path(s, p.Item())
		})
	})
}

// Select adds p to the selection; nil clears it. Invalid paths are ignored.
func (m *Model) Select(p observe.IndexPath) {
	if p == nil {
		m.selected = nil
		return
	}
	if !m.valid(p) {
		m.log.Debug("ignoring selection of missing row", "path", p)
		return
	}
	m.selected = slices.DeleteFunc(m.selected, p.Equal)
	m.selected = append(m.selected, slices.Clone(p))
}

// Selected returns the selected rows, most recently selected last.
func (m *Model) Selected() []observe.IndexPath {
	out := make([]observe.IndexPath, len(m.selected))
	for i, p := range m.selected {
		out[i] = slices.Clone(p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Cursor returns the most recently selected row, or nil.
func (m *Model) Cursor() observe.IndexPath {
	if len(m.selected) == 0 {
		return nil
	}
	return slices.Clone(m.selected[len(m.selected)-1])
}

// Len returns the number of cached rows across all sections.
func (m *Model) Len() int {
	n := 0
	for _, s := range m.sections {
		n += len(s.rows)
	}
	return n
}

// Rows returns the cached row text, section by section.
func (m *Model) Rows() []string {
	var out []string
	for _, s := range m.sections {
		for _, r := range s.rows {
			out = append(out, r.text)
		}
	}
	return out
}

func (m *Model) mutate(fn func()) {
	m.depth++
	fn()
	m.depth--
	if m.depth == 0 {
		m.flush()
	}
}

// flush fetches every inserted or reloaded row at its final position and
// checks the cache against the source.
func (m *Model) flush() {
	if !m.broken && len(m.sections) == m.src.NumSections() {
		for s := range m.sections {
			sec := &m.sections[s]
			if sec.fresh {
				sec.rows = m.fetchSection(s)
				sec.fresh = false
				continue
			}
			if len(sec.rows) != m.src.NumRows(s) {
				m.broken = true
				break
			}
			for i := range sec.rows {
				if sec.rows[i].dirty {
					sec.rows[i] = row{text: m.src.Row(observe.Path(s, i))}
				}
			}
		}
	} else {
		m.broken = true
	}
	if m.broken {
		m.stats.Inconsistent++
		m.log.Error("widget out of sync with its source, reloading",
			"sections", len(m.sections), "want", m.src.NumSections())
		m.ReloadAll()
	}
}

func (m *Model) fetchSection(s int) []row {
	n := m.src.NumRows(s)
	rows := make([]row, n)
	for i := range rows {
		rows[i] = row{text: m.src.Row(observe.Path(s, i))}
	}
	return rows
}

func (m *Model) section(p observe.IndexPath) (*section, bool) {
	if len(p) != 2 || p.Section() < 0 || p.Section() >= len(m.sections) || p.Item() < 0 {
		return nil, false
	}
	return &m.sections[p.Section()], true
}

func (m *Model) valid(p observe.IndexPath) bool {
	sec, ok := m.section(p)
	return ok && p.Item() < len(sec.rows)
}

func (m *Model) invalid(op string, p observe.IndexPath) {
	m.broken = true
	m.log.Warn("invalid index path", "op", op, "path", p)
}

// remap rewrites every selected path; fn returns nil to deselect.
func (m *Model) remap(fn func(observe.IndexPath) observe.IndexPath) {
	kept := m.selected[:0]
	for _, p := range m.selected {
		if q := fn(p); q != nil {
			kept = append(kept, q)
		}
	}
	m.selected = kept
}

// shiftInsert returns where p ends up after a row is inserted at q.
func shiftInsert(p, q observe.IndexPath) observe.IndexPath {
	if p == nil || p.Section() != q.Section() || p.Item() < q.Item() {
		return p
	}
	return observe.Path(p.Section(), p.Item()+1)
}

// shiftDelete returns where p ends up after the row at q is removed, or nil
// if p is q.
func shiftDelete(p, q observe.IndexPath) observe.IndexPath {
	switch {
	case p.Equal(q):
		return nil
	case p.Section() != q.Section() || p.Item() < q.Item():
		return p
	}
	return observe.Path(p.Section(), p.Item()-1)
}

func sortedPaths(paths []observe.IndexPath) []observe.IndexPath {
	out := slices.Clone(paths)
	slices.SortFunc(out, observe.IndexPath.Compare)
	return out
}

func sortedInts(in []int) []int {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}
