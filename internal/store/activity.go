package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Activity actions recorded by the viewer.
const (
	ActionIndexLoaded    = "index_loaded"
	ActionCaseOpened     = "case_opened"
	ActionGateUnlocked   = "gate_unlocked"
	ActionGateMismatch   = "gate_mismatch"
	ActionExportDownload = "export_download"
)

// ActivityEntry represents one recorded viewer action.
type ActivityEntry struct {
	ID        string                 `json:"id"`
	SessionID string                 `json:"session_id"`
	Action    string                 `json:"action"`
	Caso      string                 `json:"caso,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// AddActivity appends an activity entry to the log.
func (s *Store) AddActivity(ctx context.Context, entry ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	var detailsJSON []byte
	if entry.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal activity details: %w", err)
		}
	}

	query := `INSERT INTO activity_entries (id, session_id, action, caso, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.SessionID, entry.Action, entry.Caso,
		string(detailsJSON), entry.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}
	return nil
}

// GetActivity retrieves activity entries for a session, newest first.
func (s *Store) GetActivity(ctx context.Context, sessionID string, limit int) ([]ActivityEntry, error) {
	query := `SELECT id, session_id, action, caso, details, created_at
		FROM activity_entries WHERE session_id = ? ORDER BY created_at DESC`

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity entries: %w", err)
	}
	defer rows.Close()

	var entries []ActivityEntry
	for rows.Next() {
		var entry ActivityEntry
		var caso, detailsJSON *string
		var createdAt int64

		if err := rows.Scan(&entry.ID, &entry.SessionID, &entry.Action, &caso, &detailsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}

		if caso != nil {
			entry.Caso = *caso
		}
		if detailsJSON != nil && *detailsJSON != "" {
			if err := json.Unmarshal([]byte(*detailsJSON), &entry.Details); err != nil {
				entry.Details = map[string]interface{}{"raw": *detailsJSON}
			}
		}
		entry.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
