// Package store persists household settings that must survive a restart.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a household has no stored setting.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS household_settings (
	household TEXT PRIMARY KEY,
	override_duration INTEGER NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store saves settings in an SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path. Use ":memory:" for a transient database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveOverrideDuration stores the override duration of a household, in minutes.
func (s *Store) SaveOverrideDuration(ctx context.Context, household string, minutes int) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO household_settings(household, override_duration, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(household) DO UPDATE SET
	override_duration=excluded.override_duration,
	updated_at=excluded.updated_at
`, household, minutes, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save override duration: %w", err)
	}
	return nil
}

// LoadOverrideDuration returns the stored override duration of a household, in minutes.
func (s *Store) LoadOverrideDuration(ctx context.Context, household string) (int, error) {
	var minutes int
	err := s.db.QueryRowContext(ctx, `SELECT override_duration FROM household_settings WHERE household = ?`, household).Scan(&minutes)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", household, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("load override duration: %w", err)
	}
	return minutes, nil
}
