package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store represents the SQLite storage implementation. It holds only local
// viewer state: session-scoped flags (the export gate) and the activity
// log. Case data itself always comes fresh from the data source.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store instance
func NewStore(dbPath string) (*Store, error) {
	// Ensure target directory exists (e.g., ./data)
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open(sqliteDriver, dbPath+"?_journal_mode=WAL&_foreign_keys=off")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate performs database migrations
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS session_flags (
			session_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (session_id, key)
		)`,

		`CREATE TABLE IF NOT EXISTS activity_entries (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			action TEXT NOT NULL,
			caso TEXT,
			details TEXT,
			created_at INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activity_session ON activity_entries(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_action ON activity_entries(action)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_created_at ON activity_entries(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// SetSessionFlag records a session-scoped string flag.
func (s *Store) SetSessionFlag(ctx context.Context, sessionID, key, value string) error {
	query := `INSERT OR REPLACE INTO session_flags (session_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, sessionID, key, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to set session flag %s: %w", key, err)
	}
	return nil
}

// GetSessionFlag returns the flag's value, or "" when the flag is absent.
func (s *Store) GetSessionFlag(ctx context.Context, sessionID, key string) (string, error) {
	query := `SELECT value FROM session_flags WHERE session_id = ? AND key = ?`

	var value string
	err := s.db.QueryRowContext(ctx, query, sessionID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session flag %s: %w", key, err)
	}
	return value, nil
}
