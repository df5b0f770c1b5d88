package ui

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/abelbrown/datasources/internal/codec"
)

// newTestBoard returns a board with deterministic ids and creation times.
func newTestBoard() *Board {
	b := NewBoard()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	b.now = func() time.Time { return base.Add(time.Duration(n) * time.Minute) }
	b.newID = func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}
	return b
}

func titles(b *Board) []string {
	var out []string
	for _, e := range b.Sorted.Entries() {
		out = append(out, e.Value.Title)
	}
	return out
}

func TestBoardOrdering(t *testing.T) {
	b := newTestBoard()
	a := b.Add("a", 1)
	bb := b.Add("b", 5)
	b.Add("c", 5)

	if got := titles(b); !slices.Equal(got, []string{"b", "c", "a"}) {
		t.Fatalf("order = %v, want [b c a]", got)
	}

	b.Toggle(bb)
	if got := titles(b); !slices.Equal(got, []string{"c", "a", "b"}) {
		t.Fatalf("done task should sink: %v", got)
	}

	b.Bump(a, +9)
	if got := titles(b); !slices.Equal(got, []string{"a", "c", "b"}) {
		t.Fatalf("bumped task should rise: %v", got)
	}
	if task, _ := b.Tasks.Get(a); task.Priority != 9 {
		t.Errorf("priority should clamp at 9, got %d", task.Priority)
	}
	b.Bump(a, -20)
	if task, _ := b.Tasks.Get(a); task.Priority != 0 {
		t.Errorf("priority should clamp at 0, got %d", task.Priority)
	}
}

func TestBoardStats(t *testing.T) {
	b := newTestBoard()
	x := b.Add("x", 7)
	b.Add("y", 2)
	z := b.Add("z", 8)
	b.Toggle(z)

	want := BoardStats{Total: 3, Open: 2, Done: 1, HighPriority: 1}
	if got := b.Stats.Get(); got != want {
		t.Fatalf("stats = %+v, want %+v", got, want)
	}

	b.Remove(x)
	want = BoardStats{Total: 2, Open: 1, Done: 1}
	if got := b.Stats.Get(); got != want {
		t.Fatalf("after remove: %+v, want %+v", got, want)
	}
}

func TestBoardFilter(t *testing.T) {
	b := newTestBoard()
	b.Add("open", 1)
	done := b.Add("done", 1)
	b.Toggle(done)

	tests := []struct {
		filter Filter
		want   []string
	}{
		{FilterAll, []string{"open", "done"}},
		{FilterOpen, []string{"open"}},
		{FilterDone, []string{"done"}},
	}
	for _, tt := range tests {
		b.SetFilter(tt.filter)
		if got := titles(b); !slices.Equal(got, tt.want) {
			t.Errorf("filter %s: got %v, want %v", tt.filter, got, tt.want)
		}
	}

	b.SetFilter(FilterDone)
	if f := b.CycleFilter(); f != FilterAll {
		t.Errorf("cycle from done = %s, want all", f)
	}
}

func TestBoardClearDone(t *testing.T) {
	b := newTestBoard()
	for i := range 4 {
		id := b.Add(fmt.Sprintf("task %d", i), i)
		if i%2 == 0 {
			b.Toggle(id)
		}
	}
	if n := b.ClearDone(); n != 2 {
		t.Fatalf("ClearDone = %d, want 2", n)
	}
	if n := b.ClearDone(); n != 0 {
		t.Fatalf("second ClearDone = %d, want 0", n)
	}
	if got := titles(b); !slices.Equal(got, []string{"task 3", "task 1"}) {
		t.Errorf("remaining = %v", got)
	}
}

func TestBoardRowAndKeyAt(t *testing.T) {
	b := newTestBoard()
	id := b.Add("write docs", 4)
	b.Toggle(id)

	if got := b.Row(0); got != "[x] P4  write docs" {
		t.Errorf("Row(0) = %q", got)
	}
	if k, ok := b.KeyAt(0); !ok || k != id {
		t.Errorf("KeyAt(0) = %q, %v", k, ok)
	}
	if _, ok := b.KeyAt(1); ok {
		t.Error("KeyAt past the end should fail")
	}
	if b.Rename("missing", "x") {
		t.Error("renaming an unknown id should report false")
	}
}

func TestBoardSnapshotYAML(t *testing.T) {
	b := newTestBoard()
	b.Add("one", 1)
	b.Add("two", 6)

	data, err := b.Encode(codec.YAML{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	restored := NewBoard()
	if err := restored.Decode(codec.YAML{}, data); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := titles(restored); !slices.Equal(got, []string{"two", "one"}) {
		t.Errorf("restored order = %v", got)
	}
	if got := restored.Stats.Get().Total; got != 2 {
		t.Errorf("restored stats total = %d", got)
	}
}
