package container

import (
	"slices"
	"testing"

	"github.com/abelbrown/datasources/internal/observe"
	"github.com/abelbrown/datasources/internal/observe/observetest"
)

func newTestMap(t *testing.T, pairs ...Patch[string, int]) (*Map[string, int], *observetest.Recorder) {
	t.Helper()
	m := NewMap[string, int]()
	m.Merge(pairs...)
	rec := &observetest.Recorder{}
	observe.Watch(m, observe.KindMap, rec)
	return m, rec
}

func TestMapSet(t *testing.T) {
	m, rec := newTestMap(t, Put("a", 1))
	m.Set("b", 2)
	m.Set("a", 10)
	want := "will | keys+ b | did | will | keys~ a | did"
	if got := rec.String(); got != want {
		t.Errorf("events = %q, want %q", got, want)
	}
	if v, _ := m.Get("a"); v != 10 {
		t.Errorf("a = %d, want 10", v)
	}
	if got := m.Keys(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Keys = %v", got)
	}
}

func TestMapRemoveValue(t *testing.T) {
	m, rec := newTestMap(t, Put("a", 1), Put("b", 2))
	m.RemoveValue("zz")
	if len(rec.Events) != 0 {
		t.Fatalf("removing an absent key emitted %v", rec.Events)
	}
	m.RemoveValue("a")
	if got, want := rec.String(), "will | keys- a | did"; got != want {
		t.Errorf("events = %q, want %q", got, want)
	}
	if m.Contains("a") || m.Len() != 1 {
		t.Errorf("a still present or Len = %d", m.Len())
	}
}

func TestMapRemoveAll(t *testing.T) {
	m, rec := newTestMap(t, Put("a", 1), Put("b", 2))
	m.RemoveAll()
	if got, want := rec.String(), "will | keys- a,b | did"; got != want {
		t.Errorf("events = %q, want %q", got, want)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}

func TestMapMerge(t *testing.T) {
	tests := []struct {
		name    string
		patches []Patch[string, int]
		want    string
		keys    []string
	}{
		{
			name:    "mixed batch emits one event per kind",
			patches: []Patch[string, int]{Put("c", 3), Put("a", 11), Del[string, int]("b"), Put("d", 4), Put("a", 12), Del[string, int]("zz")},
			want:    "will | keys- b | keys+ c,d | keys~ a | did",
			keys:    []string{"a", "c", "d"},
		},
		{
			name:    "delete then reinsert is an update",
			patches: []Patch[string, int]{Del[string, int]("a"), Put("a", 7)},
			want:    "will | keys~ a | did",
			keys:    []string{"b", "a"},
		},
		{
			name:    "insert then delete is invisible",
			patches: []Patch[string, int]{Put("x", 1), Del[string, int]("x")},
			want:    "will | did",
			keys:    []string{"a", "b"},
		},
		{
			name:    "empty merge is still bracketed",
			patches: nil,
			want:    "will | did",
			keys:    []string{"a", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, rec := newTestMap(t, Put("a", 1), Put("b", 2))
			m.Merge(tt.patches...)
			if got := rec.String(); got != tt.want {
				t.Errorf("events = %q, want %q", got, tt.want)
			}
			if got := m.Keys(); !slices.Equal(got, tt.keys) {
				t.Errorf("Keys = %v, want %v", got, tt.keys)
			}
		})
	}
}

func TestMapReplaceAndReload(t *testing.T) {
	m, rec := newTestMap(t, Put("a", 1), Put("b", 2))
	m.Replace([]Entry[string, int]{{Key: "b", Value: 20}, {Key: "c", Value: 3}})
	if got, want := rec.String(), "will | keys- a | keys+ c | keys~ b | did"; got != want {
		t.Errorf("Replace events = %q, want %q", got, want)
	}
	rec.Reset()
	m.Reload([]Entry[string, int]{{Key: "z", Value: 26}})
	if got, want := rec.String(), "reload"; got != want {
		t.Errorf("Reload events = %q, want %q", got, want)
	}
	if got := m.Snapshot(); len(got) != 1 || got["z"] != 26 {
		t.Errorf("Snapshot = %v", got)
	}
}

func TestValue(t *testing.T) {
	type stats struct{ Open, Done int }
	v := NewValue(stats{Open: 1})
	rec := &observetest.Recorder{}
	observe.Watch(v, observe.KindValue, rec)

	v.Update(func(s *stats) { s.Done++ })
	v.Set(stats{Open: 5})
	if got, want := rec.String(), "value-will | value-did | value-will | value-did"; got != want {
		t.Errorf("events = %q, want %q", got, want)
	}
	if got := v.Get(); got.Open != 5 || got.Done != 0 {
		t.Errorf("Get = %+v", got)
	}
}
