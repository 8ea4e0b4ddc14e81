package history

import (
	"context"
	"time"
)

// Entry represents a single recorded channel value.
//
// Each entry stores the value exactly as it was published to the host, so
// the table doubles as a local audit trail when the time-series database is
// unavailable.
type Entry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// HaID is the opaque appliance identifier.
	HaID string `json:"ha_id"`

	// Channel is the channel the value was published on.
	Channel string `json:"channel"`

	// Value is the published payload ("Run", "176 °C", "undefined").
	Value string `json:"value"`

	// CreatedAt is the timestamp of the record (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// Repository stores and retrieves channel value history.
//
// Implementations must be thread-safe and use UTC timestamps.
type Repository interface {
	// Record persists one published channel value.
	Record(ctx context.Context, haID, channel, value string) error

	// GetHistory returns recent values for one appliance channel,
	// ordered newest first. The limit may be clamped by the
	// implementation.
	GetHistory(ctx context.Context, haID, channel string, limit int) ([]Entry, error)

	// Prune deletes entries older than the given retention duration and
	// reports the number of rows removed.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}
