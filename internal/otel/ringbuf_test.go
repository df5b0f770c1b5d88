package otel

import (
	"sync"
	"testing"
)

// fill pushes n batch.begin events numbered by Count.
func fill(r *RingBuffer, n int) {
	for i := range n {
		r.Push(Event{Kind: KindBatchBegin, Count: i})
	}
}

func counts(events []Event) []int {
	out := make([]int, len(events))
	for i, e := range events {
		out[i] = e.Count
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSnapshot(t *testing.T) {
	tests := []struct {
		name       string
		size, push int
		want       []int
	}{
		{"empty", 4, 0, []int{}},
		{"partial", 8, 5, []int{0, 1, 2, 3, 4}},
		{"exactly full", 4, 4, []int{0, 1, 2, 3}},
		{"wrapped", 4, 8, []int{4, 5, 6, 7}},
		{"wrapped mid", 4, 6, []int{2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRingBuffer(tt.size)
			fill(r, tt.push)
			got := counts(r.Snapshot())
			if !equalInts(got, tt.want) {
				t.Errorf("Snapshot() = %v, want %v", got, tt.want)
			}
			if r.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", r.Len(), len(tt.want))
			}
		})
	}
}

func TestLast(t *testing.T) {
	tests := []struct {
		name       string
		size, push int
		n          int
		want       []int
	}{
		{"newest three", 8, 8, 3, []int{5, 6, 7}},
		{"more than buffered", 8, 2, 100, []int{0, 1}},
		{"across the seam", 4, 6, 3, []int{3, 4, 5}},
		{"zero", 8, 1, 0, nil},
		{"negative", 8, 1, -1, nil},
		{"empty buffer", 8, 0, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRingBuffer(tt.size)
			fill(r, tt.push)
			got := r.Last(tt.n)
			if tt.want == nil {
				if got != nil {
					t.Errorf("Last(%d) = %v, want nil", tt.n, got)
				}
				return
			}
			if !equalInts(counts(got), tt.want) {
				t.Errorf("Last(%d) = %v, want %v", tt.n, counts(got), tt.want)
			}
		})
	}
}

func TestStatsCountsOnlyBufferedEvents(t *testing.T) {
	r := NewRingBuffer(4)
	r.Push(Event{Kind: KindStartup}) // evicted below
	r.Push(Event{Kind: KindBatchBegin})
	r.Push(Event{Kind: KindBatchCommit})
	r.Push(Event{Kind: KindBatchBegin})
	r.Push(Event{Kind: KindBatchDeferred})

	stats := r.Stats()
	if stats[KindStartup] != 0 {
		t.Errorf("evicted kind still counted: %d", stats[KindStartup])
	}
	if stats[KindBatchBegin] != 2 || stats[KindBatchCommit] != 1 || stats[KindBatchDeferred] != 1 {
		t.Errorf("Stats() = %v", stats)
	}
}

func TestPushClonesExtra(t *testing.T) {
	r := NewRingBuffer(4)
	extra := map[string]any{"current": "gen-a"}
	r.Push(Event{Kind: KindBatchStale, Extra: extra})
	extra["current"] = "gen-b"

	if got := r.Snapshot()[0].Extra["current"]; got != "gen-a" {
		t.Errorf("Extra aliased the caller's map: %v", got)
	}
}

func TestDefaultSize(t *testing.T) {
	for _, size := range []int{0, -3} {
		if got := NewRingBuffer(size).Cap(); got != DefaultRingSize {
			t.Errorf("NewRingBuffer(%d).Cap() = %d, want %d", size, got, DefaultRingSize)
		}
	}
	if got := NewRingBuffer(64).Cap(); got != 64 {
		t.Errorf("Cap() = %d, want 64", got)
	}
}

func TestConcurrentPushAndRead(t *testing.T) {
	r := NewRingBuffer(64)
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			fill(r, 100)
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				r.Snapshot()
				r.Last(10)
				r.Stats()
				r.Generation("a")
			}
		}()
	}
	wg.Wait()
	if r.Len() != 64 {
		t.Errorf("Len() = %d, want 64", r.Len())
	}
}

func TestLoggerFeedsRing(t *testing.T) {
	r := NewRingBuffer(16)
	l := NewNullLogger()
	l.SetRingBuffer(r)

	l.Emit(Event{Kind: KindBatchBegin, Gen: "g1"})
	l.Emit(Event{Kind: KindBatchCommit, Gen: "g1", Count: 2})
	l.Close()

	got := r.Generation("g1")
	if len(got) != 2 || got[0].Kind != KindBatchBegin || got[1].Count != 2 {
		t.Fatalf("ring after Close = %+v", got)
	}
	if got[0].SessionID != l.SessionID() {
		t.Errorf("ring event session = %q, want %q", got[0].SessionID, l.SessionID())
	}
}

func TestGeneration(t *testing.T) {
	r := NewRingBuffer(4)
	r.Push(Event{Kind: KindBatchBegin, Gen: "aaaa-1"})
	r.Push(Event{Kind: KindBatchBegin, Gen: "bbbb-1"})
	r.Push(Event{Kind: KindBatchCommit, Gen: "bbbb-1", Count: 2})
	r.Push(Event{Kind: KindContainerSave})
	r.Push(Event{Kind: KindBatchSelect, Gen: "bbbb-1"}) // evicts aaaa

	got := r.Generation("bbbb")
	if len(got) != 3 {
		t.Fatalf("Generation(bbbb) = %d events, want 3", len(got))
	}
	if got[0].Kind != KindBatchBegin || got[2].Kind != KindBatchSelect {
		t.Errorf("events out of order: %v, %v", got[0].Kind, got[2].Kind)
	}
	if got := r.Generation("aaaa"); got != nil {
		t.Errorf("evicted generation still found: %v", got)
	}
	if got := r.Generation(""); got != nil {
		t.Errorf("empty prefix matched %d events", len(got))
	}
}

func TestErrors(t *testing.T) {
	r := NewRingBuffer(8)
	r.Push(Event{Kind: KindStartup, Level: LevelInfo})
	r.Push(Event{Kind: KindStoreError, Level: LevelError})
	r.Push(Event{Kind: KindError, Level: LevelError})
	if got := r.Errors(); got != 2 {
		t.Errorf("Errors() = %d, want 2", got)
	}
}
