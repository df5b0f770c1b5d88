package ui

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/abelbrown/datasources/internal/codec"
	"github.com/abelbrown/datasources/internal/container"
	"github.com/abelbrown/datasources/internal/observe"
)

// Task is one card on the board.
type Task struct {
	Title    string    `json:"title" yaml:"title"`
	Priority int       `json:"priority" yaml:"priority"`
	Done     bool      `json:"done" yaml:"done"`
	Created  time.Time `json:"created" yaml:"created"`
}

// Filter selects which tasks the board shows.
type Filter int

const (
	FilterAll Filter = iota
	FilterOpen
	FilterDone
)

func (f Filter) String() string {
	switch f {
	case FilterOpen:
		return "open"
	case FilterDone:
		return "done"
	}
	return "all"
}

func (f Filter) include() func(container.Entry[string, Task]) bool {
	switch f {
	case FilterOpen:
		return func(e container.Entry[string, Task]) bool { return !e.Value.Done }
	case FilterDone:
		return func(e container.Entry[string, Task]) bool { return e.Value.Done }
	}
	return nil
}

// BoardStats is the live summary shown in the header.
type BoardStats struct {
	Total, Open, Done int
	HighPriority      int
}

// Board owns the task map, the sorted view the widget shows and the stats.
type Board struct {
	Tasks  *container.Map[string, Task]
	Sorted *container.SortedList[string, Task]
	Stats  *container.Value[BoardStats]

	filter  Filter
	counter *statsCounter
	now     func() time.Time
	newID   func() string
}

// statsCounter recomputes BoardStats at the end of every map cycle.
type statsCounter struct{ b *Board }

func (c *statsCounter) WillUpdate(any)          {}
func (c *statsCounter) DidUpdate(any)           { c.b.recount() }
func (c *statsCounter) DidReload(any)           { c.b.recount() }
func (c *statsCounter) KeysInserted(any, []any) {}
func (c *statsCounter) KeysDeleted(any, []any)  {}
func (c *statsCounter) KeysUpdated(any, []any)  {}

// taskLess orders open tasks before done ones, then by priority (highest
// first), then oldest first.
func taskLess(a, b container.Entry[string, Task]) bool {
	if a.Value.Done != b.Value.Done {
		return !a.Value.Done
	}
	if a.Value.Priority != b.Value.Priority {
		return a.Value.Priority > b.Value.Priority
	}
	return a.Value.Created.Before(b.Value.Created)
}

func NewBoard() *Board {
	b := &Board{
		Tasks: container.NewMap[string, Task](),
		Stats: container.NewValue(BoardStats{}),
		now:   time.Now,
		newID: func() string { return ulid.Make().String() },
	}
	b.Sorted = container.NewSortedList(b.Tasks, taskLess, nil)
	b.counter = &statsCounter{b: b}
	observe.Watch(b.Tasks, observe.KindMap, b.counter)
	return b
}

// Filter returns the active filter.
func (b *Board) Filter() Filter { return b.filter }

// SetFilter switches the visible subset; the sorted view reloads.
func (b *Board) SetFilter(f Filter) {
	b.filter = f
	b.Sorted.SetFilter(f.include())
}

// CycleFilter advances all → open → done → all.
func (b *Board) CycleFilter() Filter {
	b.SetFilter((b.filter + 1) % 3)
	return b.filter
}

// Add creates a task and returns its id.
func (b *Board) Add(title string, priority int) string {
	id := b.newID()
	b.Tasks.Set(id, Task{Title: title, Priority: priority, Created: b.now().UTC()})
	return id
}

// Edit applies fn to the task stored under id. Unknown ids are ignored.
func (b *Board) Edit(id string, fn func(*Task)) bool {
	t, ok := b.Tasks.Get(id)
	if !ok {
		return false
	}
	fn(&t)
	b.Tasks.Set(id, t)
	return true
}

func (b *Board) Toggle(id string) bool {
	return b.Edit(id, func(t *Task) { t.Done = !t.Done })
}

func (b *Board) Bump(id string, delta int) bool {
	return b.Edit(id, func(t *Task) { t.Priority = max(0, min(t.Priority+delta, 9)) })
}

func (b *Board) Rename(id, title string) bool {
	return b.Edit(id, func(t *Task) { t.Title = title })
}

func (b *Board) Remove(id string) { b.Tasks.RemoveValue(id) }

// ClearDone removes every finished task in one cycle and returns how many.
func (b *Board) ClearDone() int {
	var patches []container.Patch[string, Task]
	for _, e := range b.Tasks.Entries() {
		if e.Value.Done {
			patches = append(patches, container.Del[string, Task](e.Key))
		}
	}
	if len(patches) > 0 {
		b.Tasks.Merge(patches...)
	}
	return len(patches)
}

// KeyAt returns the id of the task shown at row i.
func (b *Board) KeyAt(i int) (string, bool) {
	if i < 0 || i >= b.Sorted.Len() {
		return "", false
	}
	return b.Sorted.At(i).Key, true
}

// Row renders the task shown at row i.
func (b *Board) Row(i int) string {
	t := b.Sorted.At(i).Value
	check := "[ ]"
	if t.Done {
		check = "[x]"
	}
	return fmt.Sprintf("%s P%d  %s", check, t.Priority, t.Title)
}

// Encode serializes the tasks with c.
func (b *Board) Encode(c codec.Codec) ([]byte, error) { return b.Tasks.Encode(c) }

// Decode replaces the tasks with the decoded snapshot in one cycle.
func (b *Board) Decode(c codec.Codec, data []byte) error { return b.Tasks.Decode(c, data) }

func (b *Board) recount() {
	var s BoardStats
	for _, e := range b.Tasks.Entries() {
		s.Total++
		if e.Value.Done {
			s.Done++
		} else {
			s.Open++
			if e.Value.Priority >= 7 {
				s.HighPriority++
			}
		}
	}
	if s != b.Stats.Get() {
		b.Stats.Set(s)
	}
}
