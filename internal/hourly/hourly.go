// Package hourly synthesizes an intraday breakdown from a daily activity aggregate.
package hourly

import (
	"math"
	"time"

	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/thresholds"
)

// Applies reports whether samples for the given period should be replaced by a
// synthesized distribution: a day view holding only a few daily records with
// at least some steps.
func Applies(period models.Period, samples []models.ActivitySample, t thresholds.Table) bool {
	if period != models.PeriodDay || len(samples) >= t.Hourly.MaxDayRecords {
		return false
	}
	for _, s := range samples {
		if s.Steps > 0 {
			return true
		}
	}
	return false
}

// Total sums daily samples into one aggregate tagged with the first sample's source.
func Total(samples []models.ActivitySample) models.ActivitySample {
	var out models.ActivitySample
	for i, s := range samples {
		if i == 0 {
			out.Source = s.Source
			out.Date = s.Date
		}
		out.Steps += s.Steps
		out.Calories += s.Calories
		out.ActiveMinutes += s.ActiveMinutes
		out.Distance += s.Distance
		out.Floors += s.Floors
		out.Present |= s.Present
	}
	out.Distance = ingest.Round2(out.Distance)
	return out
}

// Cutoff returns the last hour that may receive an allocation for date: the
// current hour when date is today in now's location, 23 for past dates and -1
// for future dates.
func Cutoff(date, now time.Time) int {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	dy, dm, dd := date.In(now.Location()).Date()
	day := time.Date(dy, dm, dd, 0, 0, 0, 0, now.Location())
	switch {
	case day.Equal(today):
		return now.Hour()
	case day.Before(today):
		return 23
	default:
		return -1
	}
}

// Distribute spreads daily across 24 hourly buckets using the weight table.
// Only hours up to the cutoff receive values: the current hour when date is
// today in now's location, the whole day for past dates, nothing for future
// dates. The rounding residue of steps and calories is added to the last
// non-zero bucket, or to the cutoff bucket when every weight up to the cutoff
// is zero, so their sums equal the daily totals. Active minutes are
// capped per bucket and may leave a residue.
func Distribute(daily models.ActivitySample, date, now time.Time, t thresholds.Table) []models.ActivitySample {
	h := t.Hourly
	dateStr := date.Format(models.DateLayout)

	buckets := make([]models.ActivitySample, 24)
	for hour := range buckets {
		buckets[hour] = models.ActivitySample{
			Source:        daily.Source,
			Date:          dateStr,
			Time:          models.HourLabel(hour),
			ActivityLevel: models.LevelSedentary,
			Present:       daily.Present,
		}
	}

	cutoff := Cutoff(date, now)
	sum := t.HourlyWeightSum()
	if cutoff < 0 || sum <= 0 {
		return buckets
	}
	scale := 1 / sum

	var steps, calories, minutes int
	last := -1
	for hour := 0; hour <= cutoff && hour < len(h.Weights); hour++ {
		w := h.Weights[hour] * scale
		b := &buckets[hour]
		b.Steps = int(math.Round(float64(daily.Steps) * w))
		b.Calories = int(math.Round(float64(daily.Calories) * w))
		b.ActiveMinutes = min(int(math.Round(float64(daily.ActiveMinutes)*w)), h.MinutesCap)
		finish(b, t)

		steps += b.Steps
		calories += b.Calories
		minutes += b.ActiveMinutes
		if b.Steps > 0 || b.Calories > 0 || b.ActiveMinutes > 0 {
			last = hour
		}
	}
	if last < 0 {
		last = min(cutoff, len(buckets)-1)
	}

	b := &buckets[last]
	b.Steps = max(0, b.Steps+daily.Steps-steps)
	b.Calories = max(0, b.Calories+daily.Calories-calories)
	b.ActiveMinutes = max(0, min(b.ActiveMinutes+daily.ActiveMinutes-minutes, h.MinutesCap))
	finish(b, t)
	return buckets
}

func finish(b *models.ActivitySample, t thresholds.Table) {
	b.Distance = ingest.Round2(float64(b.Steps) / t.Hourly.StepsPerKm)
	b.Classify(t)
}
