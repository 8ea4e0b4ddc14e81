// Package registry persists appliance listing metadata.
//
// The appliances table mirrors the cloud listing so the service can report
// known appliances while the cloud is unreachable. The cloud stays
// authoritative; every discovery pass overwrites the stored metadata.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/homefleet/appliancelink/internal/appliance"
)

// SQLiteRepository stores appliance metadata in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new appliance metadata repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert inserts or replaces the metadata for one appliance.
// Identity is the haId; all descriptive fields are overwritten.
func (r *SQLiteRepository) Upsert(ctx context.Context, a appliance.Appliance) error {
	if a.HaID == "" {
		return fmt.Errorf("appliance id is required")
	}

	connected := 0
	if a.Connected {
		connected = 1
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO appliances (ha_id, name, brand, vib, enumber, type, connected, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(ha_id) DO UPDATE SET
		     name = excluded.name,
		     brand = excluded.brand,
		     vib = excluded.vib,
		     enumber = excluded.enumber,
		     type = excluded.type,
		     connected = excluded.connected,
		     updated_at = excluded.updated_at`,
		a.HaID, a.Name, a.Brand, a.VIB, a.ENumber, a.Type, connected,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting appliance: %w", err)
	}
	return nil
}

// SetConnected updates only the connectivity flag for one appliance.
func (r *SQLiteRepository) SetConnected(ctx context.Context, haID string, connected bool) error {
	if haID == "" {
		return fmt.Errorf("appliance id is required")
	}

	value := 0
	if connected {
		value = 1
	}

	_, err := r.db.ExecContext(ctx,
		"UPDATE appliances SET connected = ?, updated_at = ? WHERE ha_id = ?",
		value, time.Now().UTC().Format(time.RFC3339), haID,
	)
	if err != nil {
		return fmt.Errorf("updating appliance connectivity: %w", err)
	}
	return nil
}

// List returns all known appliances ordered by haId.
func (r *SQLiteRepository) List(ctx context.Context) ([]appliance.Appliance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ha_id, name, brand, vib, enumber, type, connected
		 FROM appliances
		 ORDER BY ha_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying appliances: %w", err)
	}
	defer rows.Close()

	var out []appliance.Appliance
	for rows.Next() {
		var a appliance.Appliance
		var connected int
		if err := rows.Scan(&a.HaID, &a.Name, &a.Brand, &a.VIB, &a.ENumber, &a.Type, &connected); err != nil {
			return nil, fmt.Errorf("scanning appliance: %w", err)
		}
		a.Connected = connected != 0
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating appliances: %w", err)
	}
	return out, nil
}

// Delete removes the metadata for one appliance.
func (r *SQLiteRepository) Delete(ctx context.Context, haID string) error {
	if haID == "" {
		return fmt.Errorf("appliance id is required")
	}

	_, err := r.db.ExecContext(ctx, "DELETE FROM appliances WHERE ha_id = ?", haID)
	if err != nil {
		return fmt.Errorf("deleting appliance: %w", err)
	}
	return nil
}
