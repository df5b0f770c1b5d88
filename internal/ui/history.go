package ui

import (
	"fmt"
	"time"

	"github.com/abelbrown/datasources/internal/batch"
	"github.com/abelbrown/datasources/internal/feed"
	"github.com/abelbrown/datasources/internal/observe"
	"github.com/abelbrown/datasources/internal/store"
	"github.com/abelbrown/datasources/internal/ui/listview"
)

// historyPane shows the snapshot's recent revisions. Each reload from the
// store is diffed against the previous result set and animated into the
// pane through a ListAnimator and its own Batcher.
type historyPane struct {
	revs    []store.Revision
	anim    *feed.ListAnimator
	batcher *batch.Batcher
	list    *listview.Model
	now     func() time.Time
}

func newHistoryPane(sched batch.Scheduler, cfg batch.Config) *historyPane {
	h := &historyPane{now: time.Now}
	h.list = listview.New(listview.FlatSource{
		Len:    func() int { return len(h.revs) },
		Render: h.row,
	}, sched)
	h.anim = feed.NewListAnimator(true)
	h.anim.Source = h
	cfg.Name = "history"
	h.batcher = batch.New(h.list, cfg)
	observe.Add(h.anim.Observers(), observe.KindList, h.batcher)
	return h
}

// set replaces the revisions, animating the difference.
func (h *historyPane) set(revs []store.Revision) feed.Stats {
	old := h.revs
	h.revs = revs
	return feed.Diff(&h.anim.Animator, old, revs,
		func(r store.Revision) int64 { return r.ID },
		func(a, b store.Revision) bool { return a == b })
}

func (h *historyPane) row(i int) string {
	r := h.revs[i]
	return fmt.Sprintf("#%-4d %-5s %6d B  %s ago", r.ID, r.Format, r.Size, formatAge(h.now().Sub(r.SavedAt)))
}
