package insights

import (
	"math"
	"time"

	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
)

// Stats are the headline activity numbers of a period: totals for a day,
// per-day averages otherwise.
type Stats struct {
	Steps         int     `json:"steps"`
	Calories      int     `json:"calories"`
	ActiveMinutes int     `json:"activeMinutes"`
	Distance      float64 `json:"distance"`
	Floors        int     `json:"floors"`
	Days          int     `json:"days"`
}

// ComputeStats summarizes samples for the period.
func ComputeStats(samples []models.ActivitySample, period models.Period) Stats {
	days := Days(samples)
	if len(days) == 0 {
		return Stats{}
	}
	if period == models.PeriodDay {
		var st Stats
		for _, d := range days {
			st.Steps += d.Steps
			st.Calories += d.Calories
			st.ActiveMinutes += d.ActiveMinutes
			st.Distance += d.Distance
			st.Floors += d.Floors
		}
		st.Distance = ingest.Round2(st.Distance)
		st.Days = len(days)
		return st
	}
	return Stats{
		Steps:         int(math.Round(avg(days, steps))),
		Calories:      int(math.Round(avg(days, calories))),
		ActiveMinutes: int(math.Round(avg(days, minutes))),
		Distance:      ingest.Round2(avg(days, distance)),
		Floors:        int(math.Round(avg(days, floors))),
		Days:          len(days),
	}
}

// Days folds samples into one record per calendar day, in first-seen order.
// Intraday buckets of the same day are summed; daily records pass through.
func Days(samples []models.ActivitySample) []models.ActivitySample {
	index := make(map[string]int, len(samples))
	var out []models.ActivitySample
	for _, s := range samples {
		key := s.Date
		if key == "" {
			key = ingest.DateOf(s.DateTime)
		}
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, models.ActivitySample{
				Source:   s.Source,
				Date:     key,
				DateTime: s.DateTime,
				Present:  s.Present,
			})
			i = len(out) - 1
		}
		d := &out[i]
		d.Steps += s.Steps
		d.Calories += s.Calories
		d.ActiveMinutes += s.ActiveMinutes
		d.Distance += s.Distance
		d.Floors += s.Floors
	}
	return out
}

func sampleDay(s models.ActivitySample) (time.Time, bool) {
	if t, ok := models.ParseFlexTime(s.DateTime); ok {
		return t, true
	}
	return models.ParseFlexTime(s.Date)
}

func steps(s models.ActivitySample) float64    { return float64(s.Steps) }
func minutes(s models.ActivitySample) float64  { return float64(s.ActiveMinutes) }
func calories(s models.ActivitySample) float64 { return float64(s.Calories) }
func distance(s models.ActivitySample) float64 { return s.Distance }
func floors(s models.ActivitySample) float64   { return float64(s.Floors) }

func avg(samples []models.ActivitySample, f func(models.ActivitySample) float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += f(s)
	}
	return sum / float64(len(samples))
}
