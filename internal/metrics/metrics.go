// Package metrics counts batcher and container activity with Prometheus
// collectors. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const namespace = "datasources"

// Transaction phases.
const (
	PhaseImmediate = "immediate"
	PhaseDeferred  = "deferred"
)

// ChangeKinds lists the change labels in display order.
var ChangeKinds = []string{
	"insert_sections", "delete_sections", "reload_sections", "move_section",
	"insert", "delete", "reload", "move",
}

type Metrics struct {
	Transactions *prometheus.CounterVec
	Changes      *prometheus.CounterVec
	Dropped      prometheus.Counter
	Stale        prometheus.Counter
	ReloadAll    prometheus.Counter
	Selections   prometheus.Counter
	Saves        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "transactions_total",
			Help:      "Batch transactions handed to the widget.",
		}, []string{"phase"}),
		Changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "changes_total",
			Help:      "Change records applied, by kind.",
		}, []string{"kind"}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "dropped_total",
			Help:      "Delta events dropped because the widget was not ready.",
		}),
		Stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "stale_total",
			Help:      "Deferred closures ignored after a newer cycle began.",
		}),
		ReloadAll: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "reload_all_total",
			Help:      "Full widget reloads.",
		}),
		Selections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "selections_total",
			Help:      "Selection replays.",
		}),
		Saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "saves_total",
			Help:      "Snapshot saves, by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.Transactions, m.Changes, m.Dropped, m.Stale, m.ReloadAll, m.Selections, m.Saves)
	}
	return m
}

func (m *Metrics) Transaction(phase string) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(phase).Inc()
}

func (m *Metrics) Change(kind string) {
	if m == nil {
		return
	}
	m.Changes.WithLabelValues(kind).Inc()
}

func (m *Metrics) DroppedEvent() {
	if m == nil {
		return
	}
	m.Dropped.Inc()
}

func (m *Metrics) StaleClosure() {
	if m == nil {
		return
	}
	m.Stale.Inc()
}

func (m *Metrics) FullReload() {
	if m == nil {
		return
	}
	m.ReloadAll.Inc()
}

func (m *Metrics) Selection() {
	if m == nil {
		return
	}
	m.Selections.Inc()
}

// Save records a snapshot save; err == nil counts as ok.
func (m *Metrics) Save(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Saves.WithLabelValues(result).Inc()
}

// Summary is a point-in-time read of the counters for display.
type Summary struct {
	Immediate, Deferred float64
	Changes             map[string]float64
	Dropped, Stale      float64
	ReloadAll           float64
	Selections          float64
}

// Summary reads the current counter values.
func (m *Metrics) Summary() Summary {
	if m == nil {
		return Summary{}
	}
	s := Summary{
		Immediate:  testutil.ToFloat64(m.Transactions.WithLabelValues(PhaseImmediate)),
		Deferred:   testutil.ToFloat64(m.Transactions.WithLabelValues(PhaseDeferred)),
		Changes:    make(map[string]float64, len(ChangeKinds)),
		Dropped:    testutil.ToFloat64(m.Dropped),
		Stale:      testutil.ToFloat64(m.Stale),
		ReloadAll:  testutil.ToFloat64(m.ReloadAll),
		Selections: testutil.ToFloat64(m.Selections),
	}
	for _, k := range ChangeKinds {
		if v := testutil.ToFloat64(m.Changes.WithLabelValues(k)); v > 0 {
			s.Changes[k] = v
		}
	}
	return s
}
