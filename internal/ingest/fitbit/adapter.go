// Package fitbit adapts Fitbit Web API activity and sleep records.
package fitbit

import (
	"encoding/json"
	"strings"

	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/thresholds"
)

// activityRecord accepts both the flattened daily/intraday shape and the
// /activities/date summary shape.
type activityRecord struct {
	DateTime      string           `json:"dateTime"`
	Date          string           `json:"date"`
	Time          string           `json:"time"`
	Steps         *ingest.Number   `json:"steps"`
	Calories      *ingest.Number   `json:"calories"`
	CaloriesOut   *ingest.Number   `json:"caloriesOut"`
	Distance      *ingest.Number   `json:"distance"`
	Floors        *ingest.Number   `json:"floors"`
	ActiveMinutes *ingest.Number   `json:"activeMinutes"`
	Value         *ingest.Number   `json:"value"` // intraday steps dataset
	Summary       *activitySummary `json:"summary"`
}

type activitySummary struct {
	Steps               *ingest.Number `json:"steps"`
	CaloriesOut         *ingest.Number `json:"caloriesOut"`
	Floors              *ingest.Number `json:"floors"`
	FairlyActiveMinutes *ingest.Number `json:"fairlyActiveMinutes"`
	VeryActiveMinutes   *ingest.Number `json:"veryActiveMinutes"`
	Distances           []struct {
		Activity string        `json:"activity"`
		Distance ingest.Number `json:"distance"`
	} `json:"distances"`
}

type sleepRecord struct {
	DateOfSleep   string         `json:"dateOfSleep"`
	StartTime     string         `json:"startTime"`
	EndTime       string         `json:"endTime"`
	Duration      *ingest.Number `json:"duration"` // milliseconds
	MinutesAsleep *ingest.Number `json:"minutesAsleep"`
	Efficiency    *ingest.Number `json:"efficiency"`
	Levels        *struct {
		Summary map[string]stageSummary `json:"summary"`
	} `json:"levels"`
	SleepScore *struct {
		TotalScore *ingest.Number `json:"total_score"`
	} `json:"sleep_score"`
	Score *ingest.Number `json:"score"`
}

type stageSummary struct {
	Minutes *ingest.Number `json:"minutes"`
	Count   *ingest.Number `json:"count"`
}

// Adapter converts Fitbit payloads to canonical records.
type Adapter struct {
	t thresholds.Table
}

// New creates a Fitbit adapter using the given thresholds for defaults and levels.
func New(t thresholds.Table) *Adapter {
	return &Adapter{t: t}
}

func (a *Adapter) Source() models.Source { return models.SourceFitbit }

// Activity converts Fitbit activity records.
func (a *Adapter) Activity(raw json.RawMessage, period models.Period) []models.ActivitySample {
	elems := ingest.DecodeArray(raw)
	out := make([]models.ActivitySample, 0, len(elems))
	for _, el := range elems {
		var rec activityRecord
		if err := json.Unmarshal(el, &rec); err != nil {
			continue
		}
		out = append(out, a.activity(rec, period))
	}
	return out
}

func (a *Adapter) activity(rec activityRecord, period models.Period) models.ActivitySample {
	s := models.ActivitySample{Source: models.SourceFitbit}

	when := rec.DateTime
	if when == "" {
		when = rec.Date
	}
	s.Date = ingest.DateOf(when)
	if label, ok := ingest.TimeLabel(rec.Time); ok && period == models.PeriodDay {
		s.Time = label
	} else if when != "" {
		s.DateTime = when
	}

	steps := ingest.First(rec.Steps, rec.Value)
	calories := ingest.First(rec.Calories, rec.CaloriesOut)
	distance := rec.Distance
	floors := rec.Floors
	active := rec.ActiveMinutes

	if sum := rec.Summary; sum != nil {
		steps = ingest.First(steps, sum.Steps)
		calories = ingest.First(calories, sum.CaloriesOut)
		floors = ingest.First(floors, sum.Floors)
		if active == nil && (sum.FairlyActiveMinutes != nil || sum.VeryActiveMinutes != nil) {
			n := ingest.Number(sum.FairlyActiveMinutes.Float() + sum.VeryActiveMinutes.Float())
			active = &n
		}
		if distance == nil {
			distance = summaryDistance(sum)
		}
	}

	if steps != nil {
		s.Present |= models.FieldSteps
	}
	if calories != nil {
		s.Present |= models.FieldCalories
	}
	if distance != nil {
		s.Present |= models.FieldDistance
	}
	if active != nil {
		s.Present |= models.FieldActiveMinutes
	}

	s.Steps = steps.Int()
	s.Calories = calories.Int()
	s.Distance = ingest.Round2(distance.Float())
	s.Floors = floors.Int()
	s.ActiveMinutes = active.Int()
	s.Classify(a.t)
	return s
}

// summaryDistance prefers the "total" distance entry and falls back to the first one.
func summaryDistance(sum *activitySummary) *ingest.Number {
	if len(sum.Distances) == 0 {
		return nil
	}
	for _, d := range sum.Distances {
		if strings.EqualFold(d.Activity, "total") {
			v := d.Distance
			return &v
		}
	}
	v := sum.Distances[0].Distance
	return &v
}

// Sleep converts Fitbit sleep log records.
func (a *Adapter) Sleep(raw json.RawMessage) []models.SleepSession {
	elems := ingest.DecodeArray(raw)
	out := make([]models.SleepSession, 0, len(elems))
	for _, el := range elems {
		var rec sleepRecord
		if err := json.Unmarshal(el, &rec); err != nil {
			continue
		}
		out = append(out, a.sleep(rec))
	}
	return out
}

func (a *Adapter) sleep(rec sleepRecord) models.SleepSession {
	s := models.SleepSession{
		Source:    models.SourceFitbit,
		StartTime: ingest.Timestamp(rec.StartTime),
		EndTime:   ingest.Timestamp(rec.EndTime),
	}
	s.Date = rec.DateOfSleep
	if s.Date == "" {
		s.Date = ingest.DateOf(rec.EndTime)
	}

	switch {
	case rec.Duration != nil:
		s.DurationMinutes = int(rec.Duration.Float()/60000 + 0.5)
		s.Present |= models.FieldDuration
	case rec.MinutesAsleep != nil:
		s.DurationMinutes = rec.MinutesAsleep.Int()
		s.Present |= models.FieldDuration
	}

	if rec.Efficiency != nil {
		s.Efficiency = rec.Efficiency.Int()
		s.Present |= models.FieldEfficiency
	}

	if rec.Levels != nil {
		sum := rec.Levels.Summary
		// "stages" logs carry deep/light/rem/wake; "classic" logs carry
		// asleep/restless/awake and have no stage breakdown.
		if st, ok := sum["deep"]; ok && st.Minutes != nil {
			s.DeepSleepMinutes = st.Minutes.Int()
			s.Present |= models.FieldDeepSleep
		}
		if st, ok := sum["rem"]; ok && st.Minutes != nil {
			s.RemSleepMinutes = st.Minutes.Int()
			s.Present |= models.FieldREMSleep
		}
		if st, ok := sum["light"]; ok && st.Minutes != nil {
			s.LightSleepMinutes = st.Minutes.Int()
			s.Present |= models.FieldLightSleep
		}
		if st, ok := sum["wake"]; ok {
			s.AwakeDuringNight = st.Count.Int()
		} else if st, ok := sum["awake"]; ok {
			s.AwakeDuringNight = st.Count.Int()
		}
	}

	score := rec.Score
	if rec.SleepScore != nil {
		score = ingest.First(rec.SleepScore.TotalScore, score)
	}
	if score != nil && score.Int() > 0 {
		s.Score = score.Int()
		s.Present |= models.FieldScore
	}

	s.Normalize(a.t.Sleep)
	return s
}
