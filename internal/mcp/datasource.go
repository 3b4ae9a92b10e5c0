package mcp

import (
	"context"
	"time"

	"github.com/claude/vitalsync/internal/engine"
	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/source"
	"github.com/claude/vitalsync/internal/storage"
	"github.com/claude/vitalsync/internal/thresholds"
)

// DataSource abstracts the analysis layer for MCP tools. Local (in-process)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	Activity(ctx context.Context, sel source.Selection, period models.Period, date time.Time) (*engine.ActivityResult, error)
	Sleep(ctx context.Context, sel source.Selection, period models.Period, date time.Time) (*engine.SleepResult, error)
	Quality(ctx context.Context, period models.Period, date time.Time) (*engine.QualityReport, error)
	Sources(ctx context.Context) ([]storage.AllowedSource, error)
	Thresholds(ctx context.Context) (thresholds.Table, error)
}

// SourceLister reads the provider allowlist. *storage.DB implements it.
type SourceLister interface {
	GetAllowedSources(ctx context.Context) ([]storage.AllowedSource, error)
}

// Local serves MCP calls from the in-process analysis service.
type Local struct {
	svc   *engine.Service
	store SourceLister
	now   func() time.Time
}

var _ DataSource = (*Local)(nil)

// NewLocal wraps svc and store as a DataSource.
func NewLocal(svc *engine.Service, store SourceLister) *Local {
	return &Local{svc: svc, store: store, now: time.Now}
}

func (l *Local) Activity(ctx context.Context, sel source.Selection, period models.Period, date time.Time) (*engine.ActivityResult, error) {
	return l.svc.Activity(ctx, sel, period, date, l.now())
}

func (l *Local) Sleep(ctx context.Context, sel source.Selection, period models.Period, date time.Time) (*engine.SleepResult, error) {
	return l.svc.Sleep(ctx, sel, period, date, l.now())
}

func (l *Local) Quality(ctx context.Context, period models.Period, date time.Time) (*engine.QualityReport, error) {
	return l.svc.Quality(ctx, period, date)
}

func (l *Local) Sources(ctx context.Context) ([]storage.AllowedSource, error) {
	return l.store.GetAllowedSources(ctx)
}

func (l *Local) Thresholds(context.Context) (thresholds.Table, error) {
	return l.svc.Thresholds(), nil
}
