// Package local persists TaskFlow state on disk in a small SQLite
// key/value table. The board survives restarts through this store alone;
// the remote is an optional sync target, never the source of truth.
package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/taskflow/taskflow/internal/schema"
)

// Keys in the kv table. These mirror the slots older TaskFlow clients used,
// so a document migrated from one of them lands in a familiar place.
const (
	KeyState        = "taskflow_data"
	KeyLastSync     = "last_sync_time"
	KeyRemoteConfig = "github_config"
)

// Store is a SQLite-backed key/value store. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	path   string
	logger *log.Logger
}

// Open opens (creating if necessary) the store at path.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[local] ", log.LstdFlags)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, path: path, logger: logger}, nil
}

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() error {
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Printf("warning: WAL checkpoint failed: %v", err)
	}
	return s.db.Close()
}

// Path returns the on-disk location of the store.
func (s *Store) Path() string {
	return s.path
}

// Put upserts a raw value.
func (s *Store) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, schema.Now())
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// Get fetches a raw value. The second return is false when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, true, nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// SaveState persists the whole document under KeyState.
func (s *Store) SaveState(ctx context.Context, state *schema.AppState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return s.Put(ctx, KeyState, string(data))
}

// LoadState loads the document saved by SaveState. The bool is false when no
// state has ever been saved. A corrupt payload is an error, not an empty
// board: silently starting over would drop the user's data on the next save.
func (s *Store) LoadState(ctx context.Context) (*schema.AppState, bool, error) {
	raw, found, err := s.Get(ctx, KeyState)
	if err != nil || !found {
		return nil, false, err
	}
	var state schema.AppState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, false, fmt.Errorf("failed to decode stored state: %w", err)
	}
	state.Normalize()
	return &state, true, nil
}

// SaveLastSync records when the last successful sync finished.
func (s *Store) SaveLastSync(ctx context.Context, at int64) error {
	return s.Put(ctx, KeyLastSync, fmt.Sprintf("%d", at))
}

// LoadLastSync returns the last successful sync time in epoch milliseconds.
// The bool is false when the board has never synced.
func (s *Store) LoadLastSync(ctx context.Context) (int64, bool, error) {
	raw, found, err := s.Get(ctx, KeyLastSync)
	if err != nil || !found {
		return 0, false, err
	}
	var at int64
	if _, err := fmt.Sscanf(raw, "%d", &at); err != nil {
		return 0, false, fmt.Errorf("failed to parse last sync time: %w", err)
	}
	return at, true, nil
}
