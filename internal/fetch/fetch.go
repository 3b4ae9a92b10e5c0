// Package fetch loads every provider's raw payload for a query window in
// parallel, tolerating per-provider failures.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/observability"
)

// Fetcher returns one provider's raw record array for the window of period
// ending at date. A provider with nothing stored returns an empty payload
// and no error.
type Fetcher interface {
	Fetch(ctx context.Context, src models.Source, kind models.Kind, period models.Period, date time.Time) (json.RawMessage, error)
}

// Result is the outcome of one fan-out.
type Result struct {
	Raw          map[models.Source]ingest.Raw
	Availability map[models.Source]bool
	Errors       map[models.Source]error
}

// All fetches kind from every provider concurrently. A failing provider is
// logged, counted and reported unavailable with an empty payload; it never
// fails the group or delays the others beyond its own call. The returned
// error is non-nil only when ctx was cancelled.
func All(ctx context.Context, f Fetcher, kind models.Kind, period models.Period, date time.Time, log *slog.Logger) (*Result, error) {
	res := &Result{
		Raw:          make(map[models.Source]ingest.Raw, len(models.Sources)),
		Availability: make(map[models.Source]bool, len(models.Sources)),
		Errors:       make(map[models.Source]error),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range models.Sources {
		g.Go(func() error {
			payload, err := f.Fetch(gctx, src, kind, period, date)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("provider fetch failed", "source", src, "kind", kind, "error", err)
				observability.RecordFetchFailure(string(src), string(kind))
				res.Errors[src] = err
				res.Raw[src] = ingest.Raw{}
				res.Availability[src] = false
				return nil
			}
			var raw ingest.Raw
			if kind == models.KindSleep {
				raw.Sleep = payload
			} else {
				raw.Activity = payload
			}
			res.Raw[src] = raw
			res.Availability[src] = ingest.Count(payload) > 0
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("fetching %s: %w", kind, err)
	}
	return res, nil
}

// Static serves payloads from memory. Keys are source, kind and date; a
// missing key is an empty payload.
type Static struct {
	mu       sync.RWMutex
	payloads map[staticKey]json.RawMessage
	failures map[models.Source]error
}

type staticKey struct {
	src  models.Source
	kind models.Kind
	date string
}

// NewStatic creates an empty in-memory fetcher.
func NewStatic() *Static {
	return &Static{
		payloads: make(map[staticKey]json.RawMessage),
		failures: make(map[models.Source]error),
	}
}

// Put stores the payload for one source, kind and date.
func (s *Static) Put(src models.Source, kind models.Kind, date string, payload json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[staticKey{src, kind, date}] = payload
}

// Fail makes every fetch for src return err. A nil err clears it.
func (s *Static) Fail(src models.Source, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, src)
		return
	}
	s.failures[src] = err
}

// Fetch merges the stored arrays of every day in the window, oldest first.
func (s *Static) Fetch(ctx context.Context, src models.Source, kind models.Kind, period models.Period, date time.Time) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failures[src]; err != nil {
		return nil, err
	}
	start, end := period.Window(date)
	var parts []json.RawMessage
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if p, ok := s.payloads[staticKey{src, kind, d.Format(models.DateLayout)}]; ok {
			parts = append(parts, p)
		}
	}
	return ingest.MergeArrays(parts...), nil
}
