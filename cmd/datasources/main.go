// Command datasources runs the task board demo: a Map of tasks, sorted into a
// list, batched into a terminal list widget.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abelbrown/datasources/internal/codec"
	"github.com/abelbrown/datasources/internal/config"
	"github.com/abelbrown/datasources/internal/logging"
	"github.com/abelbrown/datasources/internal/metrics"
	"github.com/abelbrown/datasources/internal/otel"
	"github.com/abelbrown/datasources/internal/store"
	"github.com/abelbrown/datasources/internal/ui"
	"github.com/abelbrown/datasources/internal/ui/listview"
)

// historyLimit is how many revisions the history pane shows.
const historyLimit = 10

func main() {
	metricsAddr := flag.String("metrics", "", "Serve Prometheus metrics on this address (e.g. :9464)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
		cfg = config.DefaultConfig()
		cfg.AutoPopulateFromEnv()
	}

	if err := logging.Init(cfg.Log.Dir, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()

	if err := os.MkdirAll(config.Dir(), 0755); err != nil {
		logging.Error("Failed to create data directory", "error", err)
		os.Exit(1)
	}

	// Event log + ring buffer for the debug overlay
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events := otel.NewNullLogger()
	if cfg.Log.Events {
		path := filepath.Join(config.Dir(), "datasources.events.jsonl")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logging.Warn("Event log disabled", "path", path, "error", err)
		} else {
			defer f.Close()
			events = otel.NewLogger(f)
		}
	}
	events.SetRingBuffer(ring)
	events.SetTracing(cfg.Log.Trace)
	defer events.Close()
	events.Info(otel.KindStartup, "main", "datasources starting")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)

	c, err := codec.ByName(cfg.Store.Format)
	if err != nil {
		logging.Error("Bad store format", "format", cfg.Store.Format, "error", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		logging.Error("Failed to open store", "path", cfg.Store.Path, "error", err)
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()
	logging.Info("Store initialized", "path", cfg.Store.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *metricsAddr != "" {
		go serveMetrics(ctx, *metricsAddr, reg)
	}

	name := cfg.Store.Snapshot
	sched := listview.NewTeaScheduler()
	app := ui.NewApp(ui.Options{
		Codec:       c,
		Save:        saveCmd(st, events, name),
		Load:        loadCmd(st, name),
		History:     historyCmd(st, name),
		Autosave:    cfg.Store.Autosave,
		Scheduler:   sched,
		SettleDelay: cfg.SettleDelay(),
		Metrics:     m,
		Events:      events,
		Ring:        ring,
		Theme:       cfg.UI.Theme,
		Compact:     cfg.UI.DensityMode == "compact",
		ShowDebug:   cfg.UI.ShowDebug,
	})

	program := tea.NewProgram(app, tea.WithAltScreen())
	sched.Bind(program.Send)
	defer sched.Stop()

	logging.Info("Starting UI", "snapshot", name, "format", c.Name())
	if _, err := program.Run(); err != nil {
		logging.Error("Application error", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	events.Info(otel.KindShutdown, "main", "datasources exiting")
	logging.Info("datasources exiting normally")
}

func loadCmd(st *store.Store, name string) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg {
			snap, err := st.Load(name)
			if err != nil {
				return ui.SnapshotLoaded{Err: err}
			}
			return ui.SnapshotLoaded{Data: snap.Data, Format: snap.Format}
		}
	}
}

func saveCmd(st *store.Store, events *otel.Logger, name string) func([]byte, string) tea.Cmd {
	return func(data []byte, format string) tea.Cmd {
		return func() tea.Msg {
			start := time.Now()
			err := st.Save(name, format, data)
			if err != nil {
				events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindStoreError, Comp: "store", Source: name, Err: err.Error()})
			}
			logging.Debug("Snapshot saved", "name", name, "bytes", len(data), "dur", time.Since(start), "error", err)
			return ui.SnapshotSaved{Size: len(data), Err: err}
		}
	}
}

func historyCmd(st *store.Store, name string) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg {
			revs, err := st.History(name, historyLimit)
			return ui.HistoryLoaded{Revisions: revs, Err: err}
		}
	}
}

// serveMetrics exposes reg until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Warn("Metrics server stopped", "addr", addr, "error", err)
	}
}
