package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
)

// Payload is one provider's raw record array for one day.
type Payload struct {
	ID         uuid.UUID       `json:"id"`
	Source     models.Source   `json:"source"`
	Kind       models.Kind     `json:"kind"`
	Day        time.Time       `json:"day"`
	Records    int             `json:"records"`
	Body       json.RawMessage `json:"-"`
	ReceivedAt time.Time       `json:"received_at"`
}

// StorePayload saves a day's raw array for the profile, replacing any earlier
// upload for the same source, kind and day. It returns the row ID.
func (db *DB) StorePayload(ctx context.Context, p Payload) (uuid.UUID, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Records == 0 {
		p.Records = ingest.Count(p.Body)
	}
	var id uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO raw_payloads (id, user_id, source, kind, day, records, payload)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, source, kind, day) DO UPDATE
		 SET records = EXCLUDED.records, payload = EXCLUDED.payload, received_at = NOW()
		 RETURNING id`,
		p.ID, ProfileUserID, string(p.Source), string(p.Kind), p.Day, p.Records, []byte(p.Body),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("storing %s %s payload for %s: %w", p.Source, p.Kind, p.Day.Format(models.DateLayout), err)
	}
	return id, nil
}

// Fetch returns the merged raw arrays of every stored day in the period's
// window ending at date, oldest first. It implements fetch.Fetcher.
func (db *DB) Fetch(ctx context.Context, src models.Source, kind models.Kind, period models.Period, date time.Time) (json.RawMessage, error) {
	start, end := period.Window(date)
	rows, err := db.Pool.Query(ctx,
		`SELECT payload FROM raw_payloads
		 WHERE user_id = $1 AND source = $2 AND kind = $3 AND day >= $4 AND day < $5
		 ORDER BY day`,
		ProfileUserID, string(src), string(kind), start, end)
	if err != nil {
		return nil, fmt.Errorf("querying %s %s payloads: %w", src, kind, err)
	}
	defer rows.Close()

	var parts []json.RawMessage
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning payload: %w", err)
		}
		parts = append(parts, body)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading payloads: %w", err)
	}
	return ingest.MergeArrays(parts...), nil
}

// QueryPayloads lists stored payload rows without their bodies, newest first.
func (db *DB) QueryPayloads(ctx context.Context, src models.Source, kind models.Kind, limit int) ([]Payload, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, source, kind, day, records, received_at FROM raw_payloads
		 WHERE user_id = $1 AND source = $2 AND kind = $3
		 ORDER BY day DESC
		 LIMIT $4`,
		ProfileUserID, string(src), string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("querying payload rows: %w", err)
	}
	defer rows.Close()

	var result []Payload
	for rows.Next() {
		var p Payload
		var source, k string
		if err := rows.Scan(&p.ID, &source, &k, &p.Day, &p.Records, &p.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scanning payload row: %w", err)
		}
		p.Source, p.Kind = models.Source(source), models.Kind(k)
		result = append(result, p)
	}
	return result, rows.Err()
}
