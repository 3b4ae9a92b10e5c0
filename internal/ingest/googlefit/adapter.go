// Package googlefit adapts Google Fit aggregate and sleep session records.
package googlefit

import (
	"encoding/json"
	"time"

	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/thresholds"
)

// sleepActivityType is the Google Fit activity type of a sleep session.
const sleepActivityType = 72

type activityRecord struct {
	DateTime              string         `json:"dateTime"`
	Date                  string         `json:"date"`
	Time                  string         `json:"time"`
	Steps                 *ingest.Number `json:"steps"`
	Calories              *ingest.Number `json:"calories"`
	Distance              *ingest.Number `json:"distance"` // meters
	Floors                *ingest.Number `json:"floors"`
	ActiveMinutes         *ingest.Number `json:"activeMinutes"`
	ModerateActiveMinutes *ingest.Number `json:"moderateActiveMinutes"`
	VigorousActiveMinutes *ingest.Number `json:"vigorousActiveMinutes"`
}

type sleepRecord struct {
	StartTimeMillis *ingest.Number `json:"startTimeMillis"`
	EndTimeMillis   *ingest.Number `json:"endTimeMillis"`
	ActivityType    *ingest.Number `json:"activityType"`
	Segments        []segment      `json:"segments"`
}

type segment struct {
	SleepStage      ingest.Number `json:"sleepStage"`
	StartTimeMillis ingest.Number `json:"startTimeMillis"`
	EndTimeMillis   ingest.Number `json:"endTimeMillis"`
}

func (s segment) minutes() float64 {
	d := float64(s.EndTimeMillis) - float64(s.StartTimeMillis)
	if d <= 0 {
		return 0
	}
	return d / float64(time.Minute/time.Millisecond)
}

// Adapter converts Google Fit payloads to canonical records.
type Adapter struct {
	t thresholds.Table
}

// New creates a Google Fit adapter.
func New(t thresholds.Table) *Adapter {
	return &Adapter{t: t}
}

func (a *Adapter) Source() models.Source { return models.SourceGoogleFit }

// Activity converts Google Fit daily or hourly aggregates.
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
	s := models.ActivitySample{Source: models.SourceGoogleFit}

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

	active := rec.ActiveMinutes
	if active == nil && (rec.ModerateActiveMinutes != nil || rec.VigorousActiveMinutes != nil) {
		n := ingest.Number(rec.ModerateActiveMinutes.Float() + rec.VigorousActiveMinutes.Float())
		active = &n
	}

	if rec.Steps != nil {
		s.Present |= models.FieldSteps
	}
	if rec.Calories != nil {
		s.Present |= models.FieldCalories
	}
	if rec.Distance != nil {
		s.Present |= models.FieldDistance
	}
	if active != nil {
		s.Present |= models.FieldActiveMinutes
	}

	s.Steps = rec.Steps.Int()
	s.Calories = rec.Calories.Int()
	s.Distance = ingest.Round2(rec.Distance.Float() / 1000)
	s.Floors = rec.Floors.Int()
	s.ActiveMinutes = active.Int()
	s.Classify(a.t)
	return s
}

// Sleep converts Google Fit sleep sessions. Sessions tagged with a
// non-sleep activity type are dropped.
func (a *Adapter) Sleep(raw json.RawMessage) []models.SleepSession {
	elems := ingest.DecodeArray(raw)
	out := make([]models.SleepSession, 0, len(elems))
	for _, el := range elems {
		var rec sleepRecord
		if err := json.Unmarshal(el, &rec); err != nil {
			continue
		}
		if rec.ActivityType != nil && rec.ActivityType.Int() != sleepActivityType {
			continue
		}
		out = append(out, a.sleep(rec))
	}
	return out
}

func (a *Adapter) sleep(rec sleepRecord) models.SleepSession {
	s := models.SleepSession{Source: models.SourceGoogleFit}

	start, end := int64(rec.StartTimeMillis.Float()), int64(rec.EndTimeMillis.Float())
	if start == 0 && len(rec.Segments) > 0 {
		start = int64(rec.Segments[0].StartTimeMillis)
	}
	if end == 0 && len(rec.Segments) > 0 {
		end = int64(rec.Segments[len(rec.Segments)-1].EndTimeMillis)
	}
	if start > 0 {
		s.StartTime = ingest.FromMillis(start)
	}
	if end > 0 {
		s.EndTime = ingest.FromMillis(end)
		s.Date = time.UnixMilli(end).UTC().Format(models.DateLayout)
	}

	span := 0.0
	if end > start && start > 0 {
		span = float64(end-start) / float64(time.Minute/time.Millisecond)
	}

	if len(rec.Segments) == 0 {
		if span > 0 {
			s.DurationMinutes = int(span + 0.5)
			s.Present |= models.FieldDuration
		}
		s.Normalize(a.t.Sleep)
		return s
	}

	var deep, rem, light, asleep, awake float64
	for _, seg := range rec.Segments {
		m := seg.minutes()
		switch models.GoogleFitStage(seg.SleepStage.Int()) {
		case models.StageDeep:
			deep += m
		case models.StageREM:
			rem += m
		case models.StageLight:
			light += m
		case models.StageAsleep:
			asleep += m
		case models.StageAwake:
			awake += m
			s.AwakeDuringNight++
		}
	}

	// Unstaged sleep next to staged segments counts as light sleep.
	if deep+rem+light > 0 {
		light += asleep
		asleep = 0
		s.Present |= models.FieldDeepSleep | models.FieldREMSleep | models.FieldLightSleep
	}
	s.DeepSleepMinutes = int(deep + 0.5)
	s.RemSleepMinutes = int(rem + 0.5)
	s.LightSleepMinutes = int(light + 0.5)

	slept := deep + rem + light + asleep
	s.DurationMinutes = int(slept + 0.5)
	s.Present |= models.FieldDuration

	inBed := span
	if inBed < slept+awake {
		inBed = slept + awake
	}
	if inBed > 0 {
		s.Efficiency = int(slept/inBed*100 + 0.5)
		s.Present |= models.FieldEfficiency
	}

	s.Normalize(a.t.Sleep)
	return s
}
