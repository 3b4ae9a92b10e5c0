package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// IngestLog represents a single ingest operation's outcome.
type IngestLog struct {
	ID              int64            `json:"id"`
	UserID          int              `json:"user_id"`
	CreatedAt       time.Time        `json:"created_at"`
	Source          string           `json:"source"`
	Kind            string           `json:"kind"`
	Day             *time.Time       `json:"day"`
	Status          string           `json:"status"`
	RecordsReceived int              `json:"records_received"`
	RecordsAccepted int              `json:"records_accepted"`
	RecordsSkipped  int              `json:"records_skipped"`
	DurationMs      *int             `json:"duration_ms"`
	ErrorMessage    *string          `json:"error_message"`
	Metadata        *json.RawMessage `json:"metadata"`
}

// InsertIngestLog creates a new ingest log entry and returns its ID.
func (db *DB) InsertIngestLog(ctx context.Context, log IngestLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO ingest_logs (user_id, source, kind, day, status, records_received,
		 records_accepted, records_skipped, duration_ms, error_message, metadata)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 RETURNING id`,
		log.UserID, log.Source, log.Kind, log.Day, log.Status, log.RecordsReceived,
		log.RecordsAccepted, log.RecordsSkipped, log.DurationMs, log.ErrorMessage, log.Metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting ingest log: %w", err)
	}
	return id, nil
}

// QueryIngestLogs returns the most recent ingest logs for a user.
func (db *DB) QueryIngestLogs(ctx context.Context, userID, limit int) ([]IngestLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, created_at, source, kind, day, status, records_received,
		 records_accepted, records_skipped, duration_ms, error_message, metadata
		 FROM ingest_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ingest logs: %w", err)
	}
	defer rows.Close()

	var result []IngestLog
	for rows.Next() {
		var l IngestLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.CreatedAt, &l.Source, &l.Kind, &l.Day, &l.Status,
			&l.RecordsReceived, &l.RecordsAccepted, &l.RecordsSkipped,
			&l.DurationMs, &l.ErrorMessage, &l.Metadata); err != nil {
			return nil, fmt.Errorf("scanning ingest log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
