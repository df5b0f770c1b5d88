// Package ui provides the Bubble Tea task board that demonstrates the
// observable containers driving a list widget.
package ui

import "github.com/abelbrown/datasources/internal/store"

// SnapshotLoaded is sent when the board snapshot has been read from the store.
// A missing snapshot arrives as an error wrapping store.ErrNotFound.
type SnapshotLoaded struct {
	Data   []byte
	Format string
	Err    error
}

// SnapshotSaved is sent when a save finishes.
type SnapshotSaved struct {
	Size int
	Err  error
}

// HistoryLoaded carries the newest revisions of the board snapshot.
type HistoryLoaded struct {
	Revisions []store.Revision
	Err       error
}
