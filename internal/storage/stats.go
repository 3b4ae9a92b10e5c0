package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/vitalsync/internal/models"
)

// DataStats holds aggregate statistics about the stored raw payloads.
type DataStats struct {
	TotalPayloads int64        `json:"total_payloads"`
	TotalRecords  int64        `json:"total_records"`
	EarliestDay   *time.Time   `json:"earliest_day"`
	LatestDay     *time.Time   `json:"latest_day"`
	BySource      []SourceStat `json:"by_source"`
}

// SourceStat holds summary stats for one provider and domain.
type SourceStat struct {
	Source    models.Source `json:"source"`
	Kind      models.Kind   `json:"kind"`
	Days      int64         `json:"days"`
	Records   int64         `json:"records"`
	LatestDay time.Time     `json:"latest_day"`
}

// GetDataStats returns aggregate statistics for the profile's payloads.
func (db *DB) GetDataStats(ctx context.Context) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(records), 0), MIN(day), MAX(day)
		 FROM raw_payloads WHERE user_id = $1`, ProfileUserID,
	).Scan(&stats.TotalPayloads, &stats.TotalRecords, &stats.EarliestDay, &stats.LatestDay)
	if err != nil {
		return nil, fmt.Errorf("counting payloads: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT source, kind, COUNT(*), COALESCE(SUM(records), 0), MAX(day)
		 FROM raw_payloads
		 WHERE user_id = $1
		 GROUP BY source, kind
		 ORDER BY source, kind`, ProfileUserID)
	if err != nil {
		return nil, fmt.Errorf("querying payloads by source: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s SourceStat
		var src, kind string
		if err := rows.Scan(&src, &kind, &s.Days, &s.Records, &s.LatestDay); err != nil {
			return nil, fmt.Errorf("scanning source stat: %w", err)
		}
		s.Source, s.Kind = models.Source(src), models.Kind(kind)
		stats.BySource = append(stats.BySource, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
