// Package applehealth adapts Apple Health records in the Health Auto Export JSON shape.
package applehealth

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/thresholds"
)

type activityRecord struct {
	Date                   string         `json:"date"`
	Time                   string         `json:"time"`
	StepCount              *ingest.Number `json:"stepCount"`
	Steps                  *ingest.Number `json:"steps"`
	ActiveEnergy           *ingest.Number `json:"activeEnergy"` // kcal
	Calories               *ingest.Number `json:"calories"`
	WalkingRunningDistance *ingest.Number `json:"walkingRunningDistance"` // km
	Distance               *ingest.Number `json:"distance"`
	FlightsClimbed         *ingest.Number `json:"flightsClimbed"`
	Floors                 *ingest.Number `json:"floors"`
	AppleExerciseTime      *ingest.Number `json:"appleExerciseTime"`
	ActiveMinutes          *ingest.Number `json:"activeMinutes"`
}

// aggregatedSleep is a nightly summary. Durations are in hours.
type aggregatedSleep struct {
	Date       string         `json:"date"`
	TotalSleep *ingest.Number `json:"totalSleep"`
	Asleep     *ingest.Number `json:"asleep"`
	Core       *ingest.Number `json:"core"`
	Deep       *ingest.Number `json:"deep"`
	REM        *ingest.Number `json:"rem"`
	Awake      *ingest.Number `json:"awake"`
	InBed      *ingest.Number `json:"inBed"`
	SleepStart string         `json:"sleepStart"`
	SleepEnd   string         `json:"sleepEnd"`
}

// stageSegment is one per-stage sleep interval. Qty is in hours.
type stageSegment struct {
	StartDate string         `json:"startDate"`
	EndDate   string         `json:"endDate"`
	Value     string         `json:"value"`
	Qty       *ingest.Number `json:"qty"`
}

// night accumulates per-stage segments that end on the same calendar day.
type night struct {
	date string
	start, end                      time.Time
	deep, rem, light, asleep, inBed float64
	awakeEpisodes int
}

// Adapter converts Apple Health payloads to canonical records.
type Adapter struct {
	t thresholds.Table
}

// New creates an Apple Health adapter.
func New(t thresholds.Table) *Adapter {
	return &Adapter{t: t}
}

func (a *Adapter) Source() models.Source { return models.SourceAppleHealth }

// Activity converts daily (or hourly, with a time field) activity summaries.
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
	s := models.ActivitySample{
		Source: models.SourceAppleHealth,
		Date:   ingest.DateOf(rec.Date),
	}
	if label, ok := ingest.TimeLabel(rec.Time); ok && period == models.PeriodDay {
		s.Time = label
	} else if rec.Date != "" {
		s.DateTime = rec.Date
	}

	steps := ingest.First(rec.StepCount, rec.Steps)
	calories := ingest.First(rec.ActiveEnergy, rec.Calories)
	distance := ingest.First(rec.WalkingRunningDistance, rec.Distance)
	active := ingest.First(rec.AppleExerciseTime, rec.ActiveMinutes)

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
	s.Floors = ingest.First(rec.FlightsClimbed, rec.Floors).Int()
	s.ActiveMinutes = active.Int()
	s.Classify(a.t)
	return s
}

// Sleep converts sleep data in either export format. Each element is probed
// on its own, so one payload may mix nightly summaries and stage segments.
// Segments are grouped into nights by the calendar day they end on.
func (a *Adapter) Sleep(raw json.RawMessage) []models.SleepSession {
	elems := ingest.DecodeArray(raw)
	out := make([]models.SleepSession, 0, len(elems))
	nights := make(map[string]*night)

	for _, el := range elems {
		switch detectSleepFormat(el) {
		case sleepAggregated:
			var rec aggregatedSleep
			if err := json.Unmarshal(el, &rec); err != nil {
				continue
			}
			out = append(out, a.aggregated(rec))
		case sleepPerStage:
			var seg stageSegment
			if err := json.Unmarshal(el, &seg); err != nil {
				continue
			}
			addSegment(nights, seg)
		}
	}

	keys := make([]string, 0, len(nights))
	for k := range nights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, a.fromNight(nights[k]))
	}
	return out
}

func hoursToMinutes(n *ingest.Number) int {
	return int(n.Float()*60 + 0.5)
}

func (a *Adapter) aggregated(rec aggregatedSleep) models.SleepSession {
	s := models.SleepSession{
		Source:    models.SourceAppleHealth,
		StartTime: ingest.Timestamp(rec.SleepStart),
		EndTime:   ingest.Timestamp(rec.SleepEnd),
		Date:      ingest.DateOf(rec.Date),
	}
	if s.Date == "" {
		s.Date = ingest.DateOf(rec.SleepEnd)
	}

	total := ingest.First(rec.TotalSleep, rec.Asleep)
	if total != nil {
		s.DurationMinutes = hoursToMinutes(total)
		s.Present |= models.FieldDuration
	}
	if rec.Deep != nil {
		s.DeepSleepMinutes = hoursToMinutes(rec.Deep)
		s.Present |= models.FieldDeepSleep
	}
	if rec.REM != nil {
		s.RemSleepMinutes = hoursToMinutes(rec.REM)
		s.Present |= models.FieldREMSleep
	}
	if rec.Core != nil {
		s.LightSleepMinutes = hoursToMinutes(rec.Core)
		s.Present |= models.FieldLightSleep
	}
	if inBed := rec.InBed.Float(); inBed > 0 && total != nil {
		s.Efficiency = int(total.Float()/inBed*100 + 0.5)
		s.Present |= models.FieldEfficiency
	}

	s.Normalize(a.t.Sleep)
	return s
}

func addSegment(nights map[string]*night, seg stageSegment) {
	stage, ok := models.ParseSleepStage(seg.Value)
	if !ok {
		return
	}
	end, ok := models.ParseFlexTime(seg.EndDate)
	if !ok {
		return
	}
	start, hasStart := models.ParseFlexTime(seg.StartDate)

	minutes := seg.Qty.Float() * 60
	if hasStart && end.After(start) {
		minutes = end.Sub(start).Minutes()
	}

	key := end.Format(models.DateLayout)
	n, ok := nights[key]
	if !ok {
		n = &night{date: key, start: start, end: end}
		nights[key] = n
	}
	if hasStart && (n.start.IsZero() || start.Before(n.start)) {
		n.start = start
	}
	if end.After(n.end) {
		n.end = end
	}

	switch stage {
	case models.StageDeep:
		n.deep += minutes
	case models.StageREM:
		n.rem += minutes
	case models.StageLight:
		n.light += minutes
	case models.StageAsleep:
		n.asleep += minutes
	case models.StageInBed:
		n.inBed += minutes
	case models.StageAwake:
		n.awakeEpisodes++
	}
}

func (a *Adapter) fromNight(n *night) models.SleepSession {
	if n.deep+n.rem+n.light > 0 {
		n.light += n.asleep
		n.asleep = 0
	}
	s := models.SleepSession{
		Source:            models.SourceAppleHealth,
		Date:              n.date,
		EndTime:           n.end.Format(time.RFC3339),
		DeepSleepMinutes:  int(n.deep + 0.5),
		RemSleepMinutes:   int(n.rem + 0.5),
		LightSleepMinutes: int(n.light + 0.5),
		AwakeDuringNight:  n.awakeEpisodes,
	}
	if !n.start.IsZero() {
		s.StartTime = n.start.Format(time.RFC3339)
	}
	if n.deep+n.rem+n.light > 0 {
		s.Present |= models.FieldDeepSleep | models.FieldREMSleep | models.FieldLightSleep
	}

	slept := n.deep + n.rem + n.light + n.asleep
	s.DurationMinutes = int(slept + 0.5)
	s.Present |= models.FieldDuration

	inBed := n.inBed
	if inBed <= 0 && !n.start.IsZero() {
		inBed = n.end.Sub(n.start).Minutes()
	}
	if inBed > 0 && slept > 0 {
		s.Efficiency = int(slept/inBed*100 + 0.5)
		s.Present |= models.FieldEfficiency
	}

	s.Normalize(a.t.Sleep)
	return s
}
