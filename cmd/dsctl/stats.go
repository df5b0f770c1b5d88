package main

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"time"
)

func runStats(e *env, args []string) error {
	fs := newFlags(e, "stats", "")
	withEvents := fs.Bool("events", true, "Include event log counts")
	if err := parse(fs, args, 0); err != nil {
		return err
	}

	st, err := e.store()
	if err != nil {
		return err
	}
	s, err := st.Stats()
	if err != nil {
		return err
	}

	// --- Store statistics ---
	fmt.Fprintf(e.out, "Snapshots:             %d\n", s.Snapshots)
	fmt.Fprintf(e.out, "Revisions:             %d\n", s.Revisions)
	fmt.Fprintf(e.out, "Snapshot bytes:        %d\n", s.Bytes)

	snaps, err := st.List()
	if err != nil {
		return err
	}
	if len(snaps) > 0 {
		now := time.Now()
		fmt.Fprintf(e.out, "\nSnapshots (%d):\n", len(snaps))
		for _, sn := range snaps {
			revs, err := st.History(sn.Name, 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "  %-24s %-5s %8d B  %3d revs  %s ago\n",
				sn.Name, sn.Format, sn.Size, len(revs), now.Sub(sn.UpdatedAt).Round(time.Second))
		}
	}

	if !*withEvents {
		return nil
	}

	// --- Event log section ---
	f, err := os.Open(e.eventsPath)
	if err != nil {
		fmt.Fprintf(e.out, "\nEvent log: none at %s\n", e.eventsPath)
		return nil
	}
	defer f.Close()

	counts := map[string]int{}
	sessions := map[string]bool{}
	var errs int
	_, err = readTailLines(f, 0, func(ev eventRecord) bool {
		counts[ev.Kind]++
		if ev.SessionID != "" {
			sessions[ev.SessionID] = true
		}
		if ev.Level == "error" {
			errs++
		}
		return false
	})
	if err != nil {
		return err
	}

	type kindCount struct {
		kind string
		n    int
	}
	var kinds []kindCount
	for k, n := range counts {
		kinds = append(kinds, kindCount{k, n})
	}
	slices.SortFunc(kinds, func(a, b kindCount) int {
		return cmp.Or(cmp.Compare(b.n, a.n), cmp.Compare(a.kind, b.kind))
	})

	fmt.Fprintf(e.out, "\nEvent log: %d sessions, %d errors\n", len(sessions), errs)
	for _, kc := range kinds {
		fmt.Fprintf(e.out, "  %-24s %d\n", kc.kind, kc.n)
	}
	return nil
}
