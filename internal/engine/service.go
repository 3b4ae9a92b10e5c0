package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/claude/vitalsync/internal/fetch"
	"github.com/claude/vitalsync/internal/hourly"
	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/observability"
	"github.com/claude/vitalsync/internal/source"
	"github.com/claude/vitalsync/internal/thresholds"
)

// Service answers queries by fetching provider payloads, running a pass and
// memoizing the result until new data for an affected source is ingested.
type Service struct {
	engine   *Engine
	fetcher  fetch.Fetcher
	activity *Cache[*ActivityResult]
	sleep    *Cache[*SleepResult]
	log      *slog.Logger
}

// NewService wires an engine to a fetcher. With caching disabled every
// query runs a fresh pass.
func NewService(e *Engine, f fetch.Fetcher, cacheEnabled bool, log *slog.Logger) *Service {
	s := &Service{engine: e, fetcher: f, log: log}
	if cacheEnabled {
		s.activity = NewCache[*ActivityResult]()
		s.sleep = NewCache[*SleepResult]()
	}
	return s
}

// Thresholds returns the engine's thresholds table.
func (s *Service) Thresholds() thresholds.Table { return s.engine.Thresholds() }

// Registry returns the engine's provider adapters.
func (s *Service) Registry() *ingest.Registry { return s.engine.Registry() }

// Activity returns the activity analysis for the period ending at date.
func (s *Service) Activity(ctx context.Context, sel source.Selection, period models.Period, date, now time.Time) (*ActivityResult, error) {
	key := Key{Selection: sel, Period: period, Date: date.Format(models.DateLayout)}
	if period == models.PeriodDay {
		key.Cutoff = hourly.Cutoff(date, now)
	}
	var gen uint64
	if s.activity != nil {
		if res, ok := s.activity.Get(key); ok {
			observability.RecordCacheLookup(string(models.KindActivity), true)
			return res, nil
		}
		observability.RecordCacheLookup(string(models.KindActivity), false)
		gen = s.activity.Generation()
	}

	cur, prev, err := s.fetchWindows(ctx, models.KindActivity, period, date)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.Activity(Request{
		Raw:       cur,
		Previous:  prev,
		Selection: sel,
		Period:    period,
		Date:      date,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}
	if s.activity != nil && !s.activity.Put(key, gen, res) {
		s.log.Debug("discarding superseded pass", "pass", res.PassID, "kind", models.KindActivity)
	}
	return res, nil
}

// Sleep returns the sleep analysis for the period ending at date.
func (s *Service) Sleep(ctx context.Context, sel source.Selection, period models.Period, date, now time.Time) (*SleepResult, error) {
	key := Key{Selection: sel, Period: period, Date: date.Format(models.DateLayout)}
	var gen uint64
	if s.sleep != nil {
		if res, ok := s.sleep.Get(key); ok {
			observability.RecordCacheLookup(string(models.KindSleep), true)
			return res, nil
		}
		observability.RecordCacheLookup(string(models.KindSleep), false)
		gen = s.sleep.Generation()
	}

	fetched, err := fetch.All(ctx, s.fetcher, models.KindSleep, period, date, s.log)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.Sleep(Request{
		Raw:       fetched.Raw,
		Selection: sel,
		Period:    period,
		Date:      date,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}
	if s.sleep != nil && !s.sleep.Put(key, gen, res) {
		s.log.Debug("discarding superseded pass", "pass", res.PassID, "kind", models.KindSleep)
	}
	return res, nil
}

// Quality scores every provider in both domains for the period ending at date.
func (s *Service) Quality(ctx context.Context, period models.Period, date time.Time) (*QualityReport, error) {
	var act, slp *fetch.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		act, err = fetch.All(gctx, s.fetcher, models.KindActivity, period, date, s.log)
		return err
	})
	g.Go(func() (err error) {
		slp, err = fetch.All(gctx, s.fetcher, models.KindSleep, period, date, s.log)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring quality: %w", err)
	}
	return s.engine.Quality(act.Raw, slp.Raw, period, date), nil
}

// Ingested drops memoized results that may include src's kind data for date.
func (s *Service) Ingested(src models.Source, kind models.Kind, date time.Time) {
	var n int
	switch {
	case kind == models.KindActivity && s.activity != nil:
		n = s.activity.InvalidateSource(src, date)
	case kind == models.KindSleep && s.sleep != nil:
		n = s.sleep.InvalidateSource(src, date)
	}
	s.log.Debug("cache invalidated", "source", src, "kind", kind, "date", date.Format(models.DateLayout), "dropped", n)
}

// fetchWindows loads the current window and the one before it concurrently.
func (s *Service) fetchWindows(ctx context.Context, kind models.Kind, period models.Period, date time.Time) (cur, prev map[models.Source]ingest.Raw, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := fetch.All(gctx, s.fetcher, kind, period, date, s.log)
		if err != nil {
			return err
		}
		cur = r.Raw
		return nil
	})
	g.Go(func() error {
		r, err := fetch.All(gctx, s.fetcher, kind, period, period.Previous(date), s.log)
		if err != nil {
			return err
		}
		prev = r.Raw
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return cur, prev, nil
}
