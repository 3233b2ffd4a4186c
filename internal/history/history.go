package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 200
)

// ErrInvalidEntry is returned when an action record is missing required fields.
var ErrInvalidEntry = errors.New("history: invalid entry")

// Entry is one persisted action.
type Entry struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"user_id"`
	DeviceID  string         `json:"device_id,omitempty"`
	Action    map[string]any `json:"action"`
	CreatedAt time.Time      `json:"created_at"`
}

// Repository stores and retrieves action history in SQLite.
//
// It expects the action_history table created by the embedded migrations.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an action history repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *Repository: Repository instance ready for use
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Record inserts an action for a user.
//
// The device ID is lifted out of the action map's "device" key when present
// so entries can be filtered per device without JSON extraction.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - userID: Owner of the action
//   - action: Action payload to persist
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *Repository) Record(ctx context.Context, userID string, action map[string]any) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidEntry)
	}
	if action == nil {
		action = map[string]any{}
	}

	actionJSON, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("marshalling action: %w", err)
	}

	deviceID, _ := action["device"].(string)

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO action_history (user_id, device_id, action) VALUES (?, ?, ?)",
		userID,
		deviceID,
		string(actionJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting action history: %w", err)
	}

	return nil
}

// Recent returns the latest entries for a user, ordered newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - userID: Owner of the actions
//   - limit: Maximum entries to return (default 10, max 200)
//
// Returns:
//   - []Entry: Entries ordered by created_at DESC, then id DESC
//   - error: nil on success, otherwise the underlying query error
func (r *Repository) Recent(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidEntry)
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, device_id, action, created_at
		 FROM action_history
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying action history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var deviceID sql.NullString
		var actionJSON string
		var createdAt string

		if err := rows.Scan(&entry.ID, &entry.UserID, &deviceID, &actionJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning action history: %w", err)
		}
		entry.DeviceID = deviceID.String

		if err := json.Unmarshal([]byte(actionJSON), &entry.Action); err != nil {
			return nil, fmt.Errorf("unmarshalling action: %w", err)
		}

		timestamp, err := parseTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating action history: %w", err)
	}

	return entries, nil
}

// Prune deletes entries older than the given duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Retention window (entries older than now-olderThan are deleted)
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (r *Repository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM action_history WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting action history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// Fetch is a context source adapter: it returns the user's recent actions
// shaped for merging into a Context, oldest first so the most recent action
// sits last.
//
// Anonymous requests yield an empty list rather than an error.
func (r *Repository) Fetch(ctx context.Context, userID string) (map[string]any, error) {
	if userID == "" {
		return map[string]any{"recent_actions": []any{}}, nil
	}

	entries, err := r.Recent(ctx, userID, defaultRecentLimit)
	if err != nil {
		return nil, err
	}

	// Recent returns newest first; reverse into chronological order.
	actions := make([]any, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		actions = append(actions, entries[i].Action)
	}

	return map[string]any{"recent_actions": actions}, nil
}

// parseTimestamp parses a timestamp stored in SQLite.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02 15:04:05", value)
	if fallbackErr == nil {
		return fallback, nil
	}

	return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
}
