package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/abelbrown/datasources/internal/batch"
	"github.com/abelbrown/datasources/internal/metrics"
	"github.com/abelbrown/datasources/internal/otel"
	"github.com/abelbrown/datasources/internal/ui/listview"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugInfo is everything the overlay shows, gathered by the App.
type debugInfo struct {
	ring    *otel.RingBuffer
	metrics metrics.Summary
	widget  listview.Stats
	stage   batch.Stage
	gen     string
	now     time.Time
}

// debugOverlay renders the debug panel showing batcher stats and recent events.
// Pure function with no side effects. Returns empty string if ring is nil.
func debugOverlay(info debugInfo, width, height int) string {
	ring := info.ring
	if ring == nil {
		return ""
	}
	now := info.now
	if now.IsZero() {
		now = time.Now()
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Batcher"))
	lines = append(lines, fmt.Sprintf("  Stage:      %s  gen %s", info.stage, shortGen(info.gen)))
	lines = append(lines, fmt.Sprintf("  Cycles:     %d begun, %d committed, %d deferred",
		stats[otel.KindBatchBegin], stats[otel.KindBatchCommit], stats[otel.KindBatchDeferred]))
	lines = append(lines, fmt.Sprintf("  Skipped:    %d dropped, %d stale, %d reloads",
		stats[otel.KindBatchDropped], stats[otel.KindBatchStale], stats[otel.KindBatchReload]))
	lines = append(lines, fmt.Sprintf("  Changes:    %s", formatChanges(info.metrics.Changes)))
	lines = append(lines, fmt.Sprintf("  Widget:     %d txns, %d reloads, %d inconsistent",
		info.widget.Transactions, info.widget.FullReloads, info.widget.Inconsistent))
	lines = append(lines, fmt.Sprintf("  This cycle: %d events", len(ring.Generation(info.gen))))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events, %d errors", ring.Len(), ring.Cap(), ring.Errors()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-20s", formatAge(now.Sub(e.Time)), string(e.Kind))
		if e.Count > 0 {
			line += fmt.Sprintf("  n=%d", e.Count)
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		if e.Gen != "" {
			line += "  gen:" + shortGen(e.Gen)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := max(height-debugPanelChrome, 1)
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := max(min(76, width-4), 20)
	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatChanges renders per-kind change counts in a stable order.
func formatChanges(changes map[string]float64) string {
	if len(changes) == 0 {
		return "none"
	}
	var parts []string
	for _, k := range metrics.ChangeKinds {
		if v, ok := changes[k]; ok {
			parts = append(parts, fmt.Sprintf("%s %.0f", k, v))
		}
	}
	var extra []string
	for k, v := range changes {
		if !slices.Contains(metrics.ChangeKinds, k) {
			extra = append(extra, fmt.Sprintf("%s %.0f", k, v))
		}
	}
	slices.Sort(extra)
	return strings.Join(append(parts, extra...), ", ")
}

func shortGen(gen string) string {
	if len(gen) > 8 {
		return gen[:8]
	}
	if gen == "" {
		return "-"
	}
	return gen
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.0fm", d.Minutes())
	default:
		return fmt.Sprintf("%.0fh", d.Hours())
	}
}

// truncateRunes cuts s to at most n runes, marking the cut with an ellipsis.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
