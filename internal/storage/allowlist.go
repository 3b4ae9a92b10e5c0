package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/claude/vitalsync/internal/models"
)

// IsSourceAllowed reports whether uploads from src are accepted. Sources
// missing from the allowlist are refused.
func (db *DB) IsSourceAllowed(ctx context.Context, src models.Source) (bool, error) {
	var enabled bool
	err := db.Pool.QueryRow(ctx,
		`SELECT enabled FROM source_allowlist WHERE source = $1`,
		string(src)).Scan(&enabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("checking source allowlist: %w", err)
	}
	return enabled, nil
}

// AllowedSource represents an entry in the source allowlist.
type AllowedSource struct {
	Source  models.Source `json:"source"`
	Label   string        `json:"label"`
	Enabled bool          `json:"enabled"`
}

// GetAllowedSources returns every provider in the allowlist.
func (db *DB) GetAllowedSources(ctx context.Context) ([]AllowedSource, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT source, label, enabled FROM source_allowlist ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("querying source allowlist: %w", err)
	}
	defer rows.Close()

	var result []AllowedSource
	for rows.Next() {
		var a AllowedSource
		var src string
		if err := rows.Scan(&src, &a.Label, &a.Enabled); err != nil {
			return nil, fmt.Errorf("scanning source allowlist: %w", err)
		}
		a.Source = models.Source(src)
		result = append(result, a)
	}
	return result, rows.Err()
}

// SetSourceEnabled toggles uploads for src.
func (db *DB) SetSourceEnabled(ctx context.Context, src models.Source, enabled bool) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE source_allowlist SET enabled = $2 WHERE source = $1`,
		string(src), enabled)
	if err != nil {
		return fmt.Errorf("updating source %s: %w", src, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("source %s not in allowlist", src)
	}
	return nil
}
