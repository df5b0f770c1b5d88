package loop

import (
	"context"
	"slices"
	"testing"
	"time"
)

func TestPostRunsInOrder(t *testing.T) {
	l := New(NewFakeClock())
	var got []int
	for i := range 3 {
		l.Post(func() { got = append(got, i) })
	}
	if n := l.RunPending(); n != 3 {
		t.Errorf("RunPending = %d, want 3", n)
	}
	if !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("order = %v", got)
	}
	if l.Pending() != 0 {
		t.Errorf("Pending = %d after drain", l.Pending())
	}
}

func TestPostFromCallbackRunsInSameDrain(t *testing.T) {
	l := New(NewFakeClock())
	var got []string
	l.Post(func() {
		got = append(got, "outer")
		l.Post(func() { got = append(got, "inner") })
	})
	l.RunPending()
	if !slices.Equal(got, []string{"outer", "inner"}) {
		t.Errorf("got %v", got)
	}
}

func TestAfterWaitsForClock(t *testing.T) {
	clock := NewFakeClock()
	l := New(clock)
	fired := 0
	l.After(100*time.Millisecond, func() { fired++ })

	l.RunPending()
	if fired != 0 {
		t.Fatal("timer fired before its deadline")
	}
	l.Advance(99 * time.Millisecond)
	if fired != 0 {
		t.Fatal("timer fired 1ms early")
	}
	l.Advance(time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
}

func TestAdvanceFiresTimersInDeadlineOrder(t *testing.T) {
	clock := NewFakeClock()
	start := clock.Now()
	l := New(clock)
	var got []string
	var at []time.Duration
	record := func(name string) func() {
		return func() {
			got = append(got, name)
			at = append(at, clock.Now().Sub(start))
		}
	}
	l.After(300*time.Millisecond, record("c"))
	l.After(100*time.Millisecond, record("a"))
	l.After(100*time.Millisecond, record("a2"))
	l.After(200*time.Millisecond, func() {
		record("b")()
		// Scheduled relative to the firing time, not the Advance start.
		l.After(50*time.Millisecond, record("b+50"))
	})

	l.Advance(time.Second)
	if want := []string{"a", "a2", "b", "b+50", "c"}; !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	wantAt := []time.Duration{100, 100, 200, 250, 300}
	for i, d := range wantAt {
		if at[i] != d*time.Millisecond {
			t.Errorf("%s fired at %v, want %v", got[i], at[i], d*time.Millisecond)
		}
	}
	if clock.Now().Sub(start) != time.Second {
		t.Errorf("clock ended at %v, want 1s", clock.Now().Sub(start))
	}
}

func TestAdvanceRequiresFakeClock(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	New(nil).Advance(time.Second)
}

func TestRunStopsOnCancel(t *testing.T) {
	l := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	ran := make(chan struct{})
	l.Post(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("posted callback never ran")
	}

	fired := make(chan struct{})
	l.After(10*time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}
