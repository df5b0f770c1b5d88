// Command dsctl is the maintenance CLI for datasources snapshots.
//
// Usage:
//
//	dsctl                        Show help
//	dsctl list                   Saved snapshots
//	dsctl export <name>          Write a snapshot to stdout or a file
//	dsctl export -all -dir out   Write every snapshot
//	dsctl import <file>          Save a file as a snapshot
//	dsctl delete <name>          Remove a snapshot and its history
//	dsctl history <name>         Revision history
//	dsctl prune <name>           Drop old revisions
//	dsctl diff <a> <b>           Key-level changes between two snapshots
//	dsctl stats                  Store and event log statistics
//	dsctl events                 JSONL event log viewer
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/abelbrown/datasources/internal/config"
	"github.com/abelbrown/datasources/internal/store"
)

const usage = `dsctl - datasources snapshot maintenance CLI

Usage:
  dsctl <command> [flags]

Commands:
  list        Saved snapshots
  export      Write a snapshot (or all of them) to disk, optionally re-encoded
  import      Save a JSON, YAML or proto file as a snapshot
  delete      Remove a snapshot and its revision history
  history     Revision history of a snapshot
  prune       Keep only the newest revisions of a snapshot
  diff        Key-level changes between two snapshots or files
  stats       Store size and event counts
  events      JSONL event log viewer

Environment:
  DATASOURCES_CONFIG   Config file (default: ~/.datasources/config.json)
  DATASOURCES_STORE    SQLite store path

Run 'dsctl <command> -h' for command-specific help.
`

// errUsage means the command printed its own usage.
var errUsage = errors.New("usage")

type command func(e *env, args []string) error

var commands = map[string]command{
	"list":    runList,
	"export":  runExport,
	"import":  runImport,
	"delete":  runDelete,
	"history": runHistory,
	"prune":   runPrune,
	"diff":    runDiff,
	"stats":   runStats,
	"events":  runEvents,
}

// env carries what every command needs. The store opens on first use.
type env struct {
	dbPath     string
	eventsPath string
	out        io.Writer
	errOut     io.Writer

	st *store.Store
}

func (e *env) store() (*store.Store, error) {
	if e.st != nil {
		return e.st, nil
	}
	st, err := store.Open(e.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", e.dbPath, err)
	}
	e.st = st
	return st, nil
}

func (e *env) close() {
	if e.st != nil {
		e.st.Close()
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	name := os.Args[1]
	switch name {
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "dsctl: unknown command %q\n\n", name)
		fmt.Print(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "dsctl: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(config.Dir(), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "dsctl: %v\n", err)
		os.Exit(1)
	}

	e := &env{
		dbPath:     cfg.Store.Path,
		eventsPath: filepath.Join(config.Dir(), "datasources.events.jsonl"),
		out:        os.Stdout,
		errOut:     os.Stderr,
	}
	err = cmd(e, os.Args[2:])
	e.close()
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "dsctl %s: %v\n", name, err)
		}
		os.Exit(1)
	}
}
