// Package engine runs analysis passes: raw provider payloads in, the active
// dataset with its quality scores and derived metrics out.
package engine

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/claude/vitalsync/internal/abnormality"
	"github.com/claude/vitalsync/internal/hourly"
	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/ingest/applehealth"
	"github.com/claude/vitalsync/internal/ingest/fitbit"
	"github.com/claude/vitalsync/internal/ingest/googlefit"
	"github.com/claude/vitalsync/internal/insights"
	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/observability"
	"github.com/claude/vitalsync/internal/quality"
	"github.com/claude/vitalsync/internal/sleep"
	"github.com/claude/vitalsync/internal/source"
	"github.com/claude/vitalsync/internal/thresholds"
)

// Request is the input of one pass.
type Request struct {
	Raw       map[models.Source]ingest.Raw
	Previous  map[models.Source]ingest.Raw
	Selection source.Selection
	Period    models.Period
	Date      time.Time
	Now       time.Time
}

// ActivityResult is the output of an activity pass.
type ActivityResult struct {
	PassID        string                  `json:"passId"`
	ActiveSource  string                  `json:"activeSource"`
	Period        models.Period           `json:"period"`
	Date          string                  `json:"date"`
	Dataset       []models.ActivitySample `json:"dataset"`
	Synthesized   bool                    `json:"synthesized"`
	Availability  map[models.Source]bool  `json:"availability"`
	QualityScores map[models.Source]int   `json:"qualityScores"`
	Stats         insights.Stats          `json:"stats"`
	Insights      insights.Insights       `json:"insights"`
}

// SleepResult is the output of a sleep pass.
type SleepResult struct {
	PassID          string                    `json:"passId"`
	ActiveSource    string                    `json:"activeSource"`
	Period          models.Period             `json:"period"`
	Date            string                    `json:"date"`
	Dataset         []models.SleepSession     `json:"dataset"`
	Availability    map[models.Source]bool    `json:"availability"`
	QualityScores   map[models.Source]int     `json:"qualityScores"`
	Summary         sleep.Summary             `json:"summary"`
	Abnormalities   []abnormality.Abnormality `json:"abnormalities"`
	Recommendations []models.Recommendation   `json:"recommendations"`
	Stats           sleep.Stats               `json:"stats"`
}

// QualityReport scores every provider in both domains.
type QualityReport struct {
	Period       models.Period                          `json:"period"`
	Date         string                                 `json:"date"`
	Activity     map[models.Source]int                  `json:"activity"`
	Sleep        map[models.Source]int                  `json:"sleep"`
	Availability map[models.Kind]map[models.Source]bool `json:"availability"`
}

// Engine holds the thresholds table and the provider adapters. Passes share
// no mutable state, so one Engine serves concurrent callers.
type Engine struct {
	table    thresholds.Table
	registry *ingest.Registry
	log      *slog.Logger
}

// New creates an engine using the built-in provider adapters.
func New(t thresholds.Table, log *slog.Logger) *Engine {
	return &Engine{
		table:    t,
		registry: ingest.NewRegistry(fitbit.New(t), googlefit.New(t), applehealth.New(t)),
		log:      log,
	}
}

// Thresholds returns the table the engine was built with.
func (e *Engine) Thresholds() thresholds.Table { return e.table }

// Registry returns the provider adapters.
func (e *Engine) Registry() *ingest.Registry { return e.registry }

// Activity runs an activity pass. The previous period is selected from the
// same source as the current one; it is empty when that source has no data.
// A day view holding only a few daily aggregates is replaced by a
// synthesized hourly breakdown.
func (e *Engine) Activity(req Request) (*ActivityResult, error) {
	start := time.Now()
	defer observability.RecordPass(string(models.KindActivity), start)

	passID := uuid.NewString()
	sets := source.Sets[models.ActivitySample](e.registry.Activity(req.Raw, req.Period))
	scores := quality.ActivityAll(sets, req.Period, e.table.Quality)
	recordQuality(models.KindActivity, scores)

	data, active, err := source.Select(sets, req.Selection)
	if err != nil {
		e.log.Debug("activity pass without data", "pass", passID, "selection", req.Selection, "error", err)
		return nil, err
	}

	res := &ActivityResult{
		PassID:        passID,
		ActiveSource:  active,
		Period:        req.Period,
		Date:          req.Date.Format(models.DateLayout),
		Availability:  source.Availability(sets),
		QualityScores: scores,
	}
	if hourly.Applies(req.Period, data, e.table) {
		data = hourly.Distribute(hourly.Total(data), req.Date, req.Now, e.table)
		res.Synthesized = true
	}
	res.Dataset = data

	prevSets := source.Sets[models.ActivitySample](e.registry.Activity(req.Previous, req.Period))
	previous := previousSet(prevSets, active)

	res.Stats = insights.ComputeStats(data, req.Period)
	res.Insights = insights.Analyze(data, previous, req.Period, e.table)

	e.log.Debug("activity pass",
		"pass", passID,
		"source", active,
		"records", len(data),
		"synthesized", res.Synthesized,
	)
	return res, nil
}

// Sleep runs a sleep pass.
func (e *Engine) Sleep(req Request) (*SleepResult, error) {
	start := time.Now()
	defer observability.RecordPass(string(models.KindSleep), start)

	passID := uuid.NewString()
	sets := source.Sets[models.SleepSession](e.registry.Sleep(req.Raw))
	scores := quality.SleepAll(sets, e.table.Quality)
	recordQuality(models.KindSleep, scores)

	data, active, err := source.Select(sets, req.Selection)
	if err != nil {
		e.log.Debug("sleep pass without data", "pass", passID, "selection", req.Selection, "error", err)
		return nil, err
	}

	summary := sleep.Summarize(data, req.Period, e.table)
	abn := abnormality.Detect(data, e.table.Abnormality)
	res := &SleepResult{
		PassID:          passID,
		ActiveSource:    active,
		Period:          req.Period,
		Date:            req.Date.Format(models.DateLayout),
		Dataset:         data,
		Availability:    source.Availability(sets),
		QualityScores:   scores,
		Summary:         summary,
		Abnormalities:   abn,
		Recommendations: sleep.Recommend(summary, len(abn), e.table.Sleep),
		Stats:           sleep.ComputeStats(data),
	}

	e.log.Debug("sleep pass",
		"pass", passID,
		"source", active,
		"records", len(data),
		"abnormalities", len(abn),
	)
	return res, nil
}

// Quality scores every provider from already fetched activity and sleep payloads.
func (e *Engine) Quality(activity, sleepRaw map[models.Source]ingest.Raw, period models.Period, date time.Time) *QualityReport {
	act := source.Sets[models.ActivitySample](e.registry.Activity(activity, period))
	slp := source.Sets[models.SleepSession](e.registry.Sleep(sleepRaw))
	actScores := quality.ActivityAll(act, period, e.table.Quality)
	slpScores := quality.SleepAll(slp, e.table.Quality)
	recordQuality(models.KindActivity, actScores)
	recordQuality(models.KindSleep, slpScores)
	avail := map[models.Kind]map[models.Source]bool{
		models.KindActivity: source.Availability(act),
		models.KindSleep:    source.Availability(slp),
	}
	return &QualityReport{
		Period:       period,
		Date:         date.Format(models.DateLayout),
		Activity:     actScores,
		Sleep:        slpScores,
		Availability: avail,
	}
}

// previousSet picks the previous-period records matching the active source.
func previousSet[T source.Record](sets source.Sets[T], active string) []T {
	if active == source.ActiveCombined {
		recs, _, err := source.Combined(sets)
		if err != nil {
			return nil
		}
		return recs
	}
	return sets[models.Source(active)]
}

func recordQuality(kind models.Kind, scores map[models.Source]int) {
	for src, score := range scores {
		observability.RecordQuality(string(src), string(kind), score)
	}
}
