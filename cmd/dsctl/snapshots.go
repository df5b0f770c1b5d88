package main

import (
	"cmp"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/datasources/internal/codec"
	"github.com/abelbrown/datasources/internal/store"
)

// exportWorkers bounds concurrent writes in export -all.
const exportWorkers = 4

// newFlags returns a flag set that reports errors instead of exiting.
func newFlags(e *env, name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	fs.Usage = func() {
		fmt.Fprintf(e.errOut, "Usage: dsctl %s [flags] %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args; help and bad flags become errUsage since fs already
// printed why.
func parse(fs *flag.FlagSet, args []string, nargs int) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if nargs >= 0 && fs.NArg() != nargs {
		fs.Usage()
		return errUsage
	}
	return nil
}

func runList(e *env, args []string) error {
	fs := newFlags(e, "list", "")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	st, err := e.store()
	if err != nil {
		return err
	}
	snaps, err := st.List()
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Fprintln(e.out, "no snapshots")
		return nil
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFORMAT\tSIZE\tUPDATED")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.Name, s.Format, s.Size, s.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func runExport(e *env, args []string) error {
	fs := newFlags(e, "export", "<name>")
	output := fs.String("o", "", "Output file (default: stdout)")
	format := fs.String("format", "", "Re-encode as json, yaml or proto (default: as stored)")
	all := fs.Bool("all", false, "Export every snapshot into -dir")
	dir := fs.String("dir", ".", "Output directory for -all")
	if err := parse(fs, args, -1); err != nil {
		return err
	}
	want := 1
	if *all {
		want = 0
	}
	if fs.NArg() != want {
		fs.Usage()
		return errUsage
	}
	st, err := e.store()
	if err != nil {
		return err
	}

	if *all {
		n, err := exportAll(st, *dir, *format)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "exported %d snapshots to %s\n", n, *dir)
		return nil
	}

	snap, err := st.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	data, err := transcode(snap.Data, snap.Format, *format)
	if err != nil {
		return err
	}
	if *output == "" {
		_, err = e.out.Write(data)
		return err
	}
	return os.WriteFile(*output, data, 0644)
}

// exportAll writes every snapshot to dir as <name>.<format>.
func exportAll(st *store.Store, dir, format string) (int, error) {
	snaps, err := st.List()
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}

	var g errgroup.Group
	g.SetLimit(exportWorkers)
	for _, s := range snaps {
		g.Go(func() error {
			snap, err := st.Load(s.Name)
			if err != nil {
				return err
			}
			to := cmp.Or(format, snap.Format)
			data, err := transcode(snap.Data, snap.Format, to)
			if err != nil {
				return fmt.Errorf("%s: %w", s.Name, err)
			}
			return os.WriteFile(filepath.Join(dir, s.Name+"."+extension(to)), data, 0644)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(snaps), nil
}

func runImport(e *env, args []string) error {
	fs := newFlags(e, "import", "<file>")
	name := fs.String("name", "", "Snapshot name (default: file name without extension)")
	format := fs.String("format", "", "Input format (default: from the file extension)")
	as := fs.String("as", "", "Store re-encoded in this format (default: input format)")
	if err := parse(fs, args, 1); err != nil {
		return err
	}

	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	from := *format
	if from == "" {
		if from, err = formatOf(path); err != nil {
			return err
		}
	}
	to := cmp.Or(*as, from)
	// transcode also validates the input.
	out, err := transcode(data, from, to)
	if err != nil {
		return err
	}
	snapName := *name
	if snapName == "" {
		snapName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	st, err := e.store()
	if err != nil {
		return err
	}
	if err := st.Save(snapName, to, out); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "imported %s as %q (%s, %d bytes)\n", path, snapName, to, len(out))
	return nil
}

func runDelete(e *env, args []string) error {
	fs := newFlags(e, "delete", "<name>")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	st, err := e.store()
	if err != nil {
		return err
	}
	if err := st.Delete(fs.Arg(0)); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "deleted %s\n", fs.Arg(0))
	return nil
}

func runHistory(e *env, args []string) error {
	fs := newFlags(e, "history", "<name>")
	limit := fs.Int("n", 20, "Number of revisions to show (0 = all)")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	st, err := e.store()
	if err != nil {
		return err
	}
	revs, err := st.History(fs.Arg(0), *limit)
	if err != nil {
		return err
	}
	if len(revs) == 0 {
		return fmt.Errorf("%s: %w", fs.Arg(0), store.ErrNotFound)
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REV\tFORMAT\tSIZE\tSAVED")
	for _, r := range revs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", r.ID, r.Format, r.Size, r.SavedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func runPrune(e *env, args []string) error {
	fs := newFlags(e, "prune", "<name>")
	keep := fs.Int("keep", 10, "Revisions to keep")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	if *keep < 0 {
		return errors.New("-keep must not be negative")
	}
	st, err := e.store()
	if err != nil {
		return err
	}
	n, err := st.Prune(fs.Arg(0), *keep)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "pruned %d revisions of %s\n", n, fs.Arg(0))
	return nil
}

// transcode re-encodes data from one codec to another through a generic
// document. Equal formats still decode, so bad input is caught.
func transcode(data []byte, from, to string) ([]byte, error) {
	src, err := codec.ByName(from)
	if err != nil {
		return nil, err
	}
	dst, err := codec.ByName(cmp.Or(to, from))
	if err != nil {
		return nil, err
	}
	var doc any
	if err := src.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if dst.Name() == src.Name() {
		return data, nil
	}
	return dst.Marshal(doc)
}

// formatOf guesses a codec from a file extension.
func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return codec.FormatJSON, nil
	case ".yaml", ".yml":
		return codec.FormatYAML, nil
	case ".pb", ".proto", ".bin":
		return codec.FormatProto, nil
	}
	return "", fmt.Errorf("cannot tell the format of %s, use -format", path)
}

func extension(format string) string {
	if format == codec.FormatProto {
		return "pb"
	}
	return format
}
