// Package store provides SQLite persistence for container snapshots.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a named snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex // Protects all database operations
	now func() time.Time
}

// Snapshot is one encoded container stored under a name.
type Snapshot struct {
	Name      string
	Format    string // codec name: json, yaml, proto
	Data      []byte // nil in List results
	Size      int
	UpdatedAt time.Time
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	// Build connection string based on database type
	connStr := dbPath
	if dbPath == ":memory:" {
		// For in-memory databases, use shared cache mode so all connections
		// in the pool see the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// For in-memory databases, limit to 1 connection to avoid issues
	// with multiple connections getting different databases
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, now: time.Now}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		name TEXT PRIMARY KEY,
		format TEXT NOT NULL,
		data BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS revisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		format TEXT NOT NULL,
		size INTEGER NOT NULL,
		saved_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_revisions_name ON revisions(name, id DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Save stores data under name, replacing any previous snapshot, and appends
// a revision record.
// Thread-safe: acquires write lock.
func (s *Store) Save(name, format string, data []byte) error {
	if name == "" {
		return errors.New("save snapshot: empty name")
	}
	if data == nil {
		data = []byte{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", name, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO snapshots (name, format, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			format = excluded.format,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, name, format, data, now)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", name, err)
	}

	_, err = tx.Exec(
		"INSERT INTO revisions (name, format, size, saved_at) VALUES (?, ?, ?, ?)",
		name, format, len(data), now,
	)
	if err != nil {
		return fmt.Errorf("record revision %s: %w", name, err)
	}

	return tx.Commit()
}

// Load returns the snapshot stored under name, or ErrNotFound.
// Thread-safe: acquires read lock.
func (s *Store) Load(name string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Name: name}
	err := s.db.QueryRow(
		"SELECT format, data, updated_at FROM snapshots WHERE name = ?", name,
	).Scan(&snap.Format, &snap.Data, &snap.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("load %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w", name, err)
	}
	snap.Size = len(snap.Data)
	return snap, nil
}

// List returns every snapshot without its data, ordered by name.
// Thread-safe: acquires read lock.
func (s *Store) List() ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT name, format, length(data), updated_at FROM snapshots ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.Name, &snap.Format, &snap.Size, &snap.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snaps, nil
}

// Delete removes the snapshot and its revisions. A missing name is ErrNotFound.
// Thread-safe: acquires write lock.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec("DELETE FROM snapshots WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete %s: %w", name, ErrNotFound)
	}
	if _, err := s.db.Exec("DELETE FROM revisions WHERE name = ?", name); err != nil {
		return fmt.Errorf("delete revisions %s: %w", name, err)
	}
	return nil
}
