package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/datasources/internal/batch"
	"github.com/abelbrown/datasources/internal/metrics"
	"github.com/abelbrown/datasources/internal/otel"
	"github.com/abelbrown/datasources/internal/ui/listview"
)

func TestDebugOverlayNilRing(t *testing.T) {
	result := debugOverlay(debugInfo{}, 80, 24)
	if result != "" {
		t.Errorf("debugOverlay without a ring should return empty string, got %q", result)
	}
}

func TestDebugOverlayRendersStats(t *testing.T) {
	now := time.Now()
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindBatchBegin, Time: now, Gen: "ffff0000"})
	ring.Push(otel.Event{Kind: otel.KindBatchBegin, Time: now, Gen: "0123456789abcdef"})
	ring.Push(otel.Event{Kind: otel.KindBatchCommit, Time: now, Gen: "0123456789abcdef"})
	ring.Push(otel.Event{Kind: otel.KindBatchDeferred, Time: now, Gen: "0123456789abcdef"})
	ring.Push(otel.Event{Kind: otel.KindBatchStale, Time: now})
	ring.Push(otel.Event{Kind: otel.KindStoreError, Time: now, Level: otel.LevelError})

	result := debugOverlay(debugInfo{
		ring:    ring,
		metrics: metrics.Summary{Changes: map[string]float64{"insert": 3, "move": 1}},
		widget:  listview.Stats{Transactions: 4, FullReloads: 1},
		stage:   batch.StageDeferredPending,
		gen:     "0123456789abcdef",
		now:     now,
	}, 100, 40)

	for _, want := range []string{
		"Batcher",
		"deferred-pending",
		"gen 01234567",
		"2 begun, 1 committed, 1 deferred",
		"0 dropped, 1 stale, 0 reloads",
		"insert 3, move 1",
		"4 txns, 1 reloads, 0 inconsistent",
		"This cycle: 3 events",
		"6 / 64 events, 1 errors",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("overlay should contain %q, got:\n%s", want, result)
		}
	}
}

func TestDebugOverlayRecentEvents(t *testing.T) {
	now := time.Now()
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindContainerLoad, Time: now, Msg: "hello world"})
	ring.Push(otel.Event{Kind: otel.KindStoreError, Time: now, Err: "timeout"})
	ring.Push(otel.Event{Kind: otel.KindBatchCommit, Time: now, Count: 7, Gen: "abcdef1234567890"})

	result := debugOverlay(debugInfo{ring: ring, now: now}, 100, 40)

	for _, want := range []string{"Recent Events", "hello world", "ERR:timeout", "n=7", "gen:abcdef12"} {
		if !strings.Contains(result, want) {
			t.Errorf("overlay should contain %q, got:\n%s", want, result)
		}
	}
}

func TestDebugOverlayTruncation(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	for range 30 {
		ring.Push(otel.Event{Kind: otel.KindBatchBegin, Time: time.Now()})
	}

	// Very small height should still render without panic
	result := debugOverlay(debugInfo{ring: ring}, 80, 10)
	if result == "" {
		t.Error("overlay should still render with small height")
	}

	// With height=10, maxHeight=6, so at most ~6 content lines (plus border/padding)
	lines := strings.Count(result, "\n")
	if lines > 20 {
		t.Errorf("overlay should be truncated, got %d lines", lines)
	}
}

func TestDebugToggle(t *testing.T) {
	ring := otel.NewRingBuffer(16)
	app := newTestApp(Options{Ring: ring})

	if app.showDebug {
		t.Error("debug should be hidden initially")
	}

	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'D'}})
	updated := model.(App)
	if !updated.showDebug {
		t.Error("D should show debug overlay")
	}

	view := updated.View()
	if !strings.Contains(view, "[DEBUG]") || !strings.Contains(view, "idle") {
		t.Errorf("debug view should contain '[DEBUG]' and the stage, got:\n%s", view)
	}

	model, _ = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'D'}})
	updated = model.(App)
	if updated.showDebug {
		t.Error("second D should hide debug overlay")
	}
}

func TestDebugWithoutRingFallsBack(t *testing.T) {
	app := newTestApp(Options{ShowDebug: true})
	if view := app.View(); strings.Contains(view, "[DEBUG]") {
		t.Errorf("without a ring the board should render, got:\n%s", view)
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		dur  time.Duration
		want string
	}{
		{0, "0ms"},
		{50 * time.Millisecond, "50ms"},
		{999 * time.Millisecond, "999ms"},
		{1500 * time.Millisecond, "1.5s"},
		{30 * time.Second, "30.0s"},
		{90 * time.Second, "2m"}, // 1.5 minutes rounds to 2 with %.0f
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
	}
	for _, tt := range tests {
		got := formatAge(tt.dur)
		if got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.dur, got, tt.want)
		}
	}
}

func TestFormatAgeNegative(t *testing.T) {
	got := formatAge(-5 * time.Second)
	if got != "0ms" {
		t.Errorf("formatAge(-5s) = %q, want \"0ms\"", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated text", 6, "trunc…"},
		{"héllo wörld", 5, "héll…"},
	}
	for _, tt := range tests {
		if got := truncateRunes(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
