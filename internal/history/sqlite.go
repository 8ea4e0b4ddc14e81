package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SQLiteRepository implements Repository using SQLite.
//
// It stores one row per published channel value in the channel_history table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite channel history repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteRepository: Repository instance ready for use
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts a new history entry for one appliance channel.
func (r *SQLiteRepository) Record(ctx context.Context, haID, channel, value string) error {
	if haID == "" {
		return fmt.Errorf("appliance id is required")
	}
	if channel == "" {
		return fmt.Errorf("channel is required")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO channel_history (ha_id, channel, value) VALUES (?, ?, ?)",
		haID,
		channel,
		value,
	)
	if err != nil {
		return fmt.Errorf("inserting channel history: %w", err)
	}

	return nil
}

// GetHistory returns recent entries for one appliance channel, newest first.
//
// The limit defaults to 50 and is clamped to 200.
func (r *SQLiteRepository) GetHistory(ctx context.Context, haID, channel string, limit int) ([]Entry, error) {
	if haID == "" {
		return nil, fmt.Errorf("appliance id is required")
	}
	if channel == "" {
		return nil, fmt.Errorf("channel is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ha_id, channel, value, created_at
		 FROM channel_history
		 WHERE ha_id = ? AND channel = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		haID,
		channel,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying channel history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var createdAt string

		if err := rows.Scan(&entry.ID, &entry.HaID, &entry.Channel, &entry.Value, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning channel history: %w", err)
		}

		timestamp, err := parseHistoryTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating channel history: %w", err)
	}

	return entries, nil
}

// Prune deletes history entries older than the given duration.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM channel_history WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting channel history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseHistoryTimestamp parses a timestamp stored in SQLite.
func parseHistoryTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02T15:04:05Z", value)
	if fallbackErr == nil {
		return fallback, nil
	}

	return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
}
