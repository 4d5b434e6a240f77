// Package storage persists small pieces of process state in a SQLite file.
//
// The only state the service keeps across restarts is its settings, such as the
// active sports-data provider. Everything fetched from providers is rebuilt on
// every request.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// KeyActiveProvider is the settings key holding the selected provider.
const KeyActiveProvider = "activeProvider"

// ErrNotFound is returned by GetSetting for a key that was never written.
var ErrNotFound = errors.New("setting not found")

const schema = `CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// Storage is a settings store backed by SQLite, safe for concurrent use.
type Storage struct {
	db       *sql.DB
	filePath string
	mu       sync.Mutex
}

// New opens (or creates) the database at filePath.
// If filePath is empty, uses OS-appropriate tmp directory.
func New(filePath string, dirPermissions os.FileMode) (*Storage, error) {
	if filePath == "" {
		filePath = filepath.Join(os.TempDir(), "bettips", "bettips.db")
	}
	if dirPermissions == 0 {
		dirPermissions = 0o755
	}

	if err := os.MkdirAll(filepath.Dir(filePath), dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filePath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return &Storage{db: db, filePath: filePath}, nil
}

// Path returns the database file path.
func (s *Storage) Path() string {
	return s.filePath
}

// GetSetting returns the stored value for key, or ErrNotFound.
func (s *Storage) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting writes value under key, replacing any previous value.
func (s *Storage) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}
