package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/abelbrown/datasources/internal/codec"
	"github.com/abelbrown/datasources/internal/container"
	"github.com/abelbrown/datasources/internal/feed"
	"github.com/abelbrown/datasources/internal/observe"
)

type entry = container.Entry[string, any]

// keyPrinter is a map observer that prints one line per changed key.
type keyPrinter struct {
	w        io.Writer
	verbose  bool
	old, new map[string]any
}

func (p *keyPrinter) WillUpdate(any) {}
func (p *keyPrinter) DidUpdate(any)  {}
func (p *keyPrinter) DidReload(any)  {}

func (p *keyPrinter) KeysInserted(_ any, keys []any) { p.print("+", keys, p.new) }
func (p *keyPrinter) KeysDeleted(_ any, keys []any)  { p.print("-", keys, p.old) }
func (p *keyPrinter) KeysUpdated(_ any, keys []any)  { p.print("~", keys, p.new) }

func (p *keyPrinter) print(mark string, keys []any, values map[string]any) {
	for _, k := range keys {
		line := fmt.Sprintf("%s %v", mark, k)
		if p.verbose {
			if b, err := json.Marshal(values[k.(string)]); err == nil {
				line += "  " + string(b)
			}
		}
		fmt.Fprintln(p.w, line)
	}
}

func runDiff(e *env, args []string) error {
	fs := newFlags(e, "diff", "<old> <new>")
	verbose := fs.Bool("v", false, "Print the value of every changed key")
	if err := parse(fs, args, 2); err != nil {
		return err
	}

	old, err := e.entries(fs.Arg(0))
	if err != nil {
		return err
	}
	cur, err := e.entries(fs.Arg(1))
	if err != nil {
		return err
	}

	stats := diffEntries(e.out, old, cur, *verbose)
	if stats.Empty() {
		fmt.Fprintln(e.out, "no changes")
		return nil
	}
	fmt.Fprintln(e.out, stats.String())
	return nil
}

// diffEntries animates the change from old to cur into a keyPrinter.
func diffEntries(w io.Writer, old, cur []entry, verbose bool) feed.Stats {
	p := &keyPrinter{w: w, verbose: verbose, old: valuesOf(old), new: valuesOf(cur)}
	anim := feed.NewMapAnimator(func(obj any) any { return obj.(entry).Key }, true)
	observe.Add(anim.Observers(), observe.KindMap, p)

	stats := feed.Diff(&anim.Animator, old, cur,
		func(x entry) string { return x.Key },
		func(x, y entry) bool { return reflect.DeepEqual(x.Value, y.Value) })
	observe.Remove(anim.Observers(), observe.KindMap, p)
	return stats
}

// entries reads a map snapshot from a file, or from the store when no such
// file exists.
func (e *env) entries(operand string) ([]entry, error) {
	var (
		data   []byte
		format string
	)
	if _, err := os.Stat(operand); err == nil {
		if data, err = os.ReadFile(operand); err != nil {
			return nil, err
		}
		if format, err = formatOf(operand); err != nil {
			return nil, err
		}
	} else {
		st, err := e.store()
		if err != nil {
			return nil, err
		}
		snap, err := st.Load(operand)
		if err != nil {
			return nil, err
		}
		data, format = snap.Data, snap.Format
	}

	c, err := codec.ByName(format)
	if err != nil {
		return nil, err
	}
	m, err := container.DecodeMap[string, any](c, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operand, err)
	}
	return m.Entries(), nil
}

func valuesOf(entries []entry) map[string]any {
	out := make(map[string]any, len(entries))
	for _, en := range entries {
		out[en.Key] = en.Value
	}
	return out
}
