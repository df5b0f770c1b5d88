package store

import (
	"fmt"
	"time"
)

// Revision records one Save.
type Revision struct {
	ID      int64
	Name    string
	Format  string
	Size    int
	SavedAt time.Time
}

// History returns the newest revisions of name, at most limit (0 = all).
// Thread-safe: acquires read lock.
func (s *Store) History(name string, limit int) ([]Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, name, format, size, saved_at
		FROM revisions
		WHERE name = ?
		ORDER BY id DESC
		LIMIT ?
	`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", name, err)
	}
	defer rows.Close()

	var revs []Revision
	for rows.Next() {
		var r Revision
		if err := rows.Scan(&r.ID, &r.Name, &r.Format, &r.Size, &r.SavedAt); err != nil {
			return nil, fmt.Errorf("history %s: %w", name, err)
		}
		revs = append(revs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history %s: %w", name, err)
	}
	return revs, nil
}

// Prune keeps the newest keep revisions of name and returns how many were removed.
// Thread-safe: acquires write lock.
func (s *Store) Prune(name string, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
		DELETE FROM revisions
		WHERE name = ? AND id NOT IN (
			SELECT id FROM revisions WHERE name = ? ORDER BY id DESC LIMIT ?
		)
	`, name, name, keep)
	if err != nil {
		return 0, fmt.Errorf("prune %s: %w", name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune %s: %w", name, err)
	}
	return int(n), nil
}

// Stats summarizes the store.
type Stats struct {
	Snapshots int
	Revisions int
	Bytes     int64
}

// Stats counts snapshots, revisions and stored bytes.
// Thread-safe: acquires read lock.
func (s *Store) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	err := s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(length(data)), 0) FROM snapshots",
	).Scan(&st.Snapshots, &st.Bytes)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM revisions").Scan(&st.Revisions); err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
