// Package quality rates a provider's canonical record set on a 0-100 scale.
//
// The score blends three parts using the weights in thresholds.Quality:
// quantity (record count against a per-domain target), completeness (share
// of records carrying every required field) and consistency (whether every
// record has the time key its period needs).
package quality

import (
	"math"

	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/thresholds"
)

// Labels returned by Label.
const (
	LabelGood = "Good"
	LabelFair = "Fair"
	LabelPoor = "Poor"
)

// Activity scores one provider's activity samples. Day-period samples must
// carry an intraday time label; other periods need a date.
func Activity(samples []models.ActivitySample, period models.Period, q thresholds.Quality) int {
	complete, keyed := 0, 0
	for _, s := range samples {
		if s.Present.Has(models.RequiredActivityFields) {
			complete++
		}
		if hasActivityKey(s, period) {
			keyed++
		}
	}
	return score(len(samples), complete, keyed, q.ActivityTarget, q)
}

func hasActivityKey(s models.ActivitySample, period models.Period) bool {
	if period == models.PeriodDay {
		return s.Time != ""
	}
	return s.DateTime != "" || s.Date != ""
}

// Sleep scores one provider's sleep sessions. Sessions are keyed by night, so
// a date or start time satisfies the consistency check for every period.
func Sleep(sessions []models.SleepSession, q thresholds.Quality) int {
	complete, keyed := 0, 0
	for _, s := range sessions {
		if s.Present.Has(models.RequiredSleepFields) {
			complete++
		}
		if s.Date != "" || s.StartTime != "" {
			keyed++
		}
	}
	return score(len(sessions), complete, keyed, q.SleepTarget, q)
}

// ActivityAll scores every provider in sets.
func ActivityAll(sets map[models.Source][]models.ActivitySample, period models.Period, q thresholds.Quality) map[models.Source]int {
	out := make(map[models.Source]int, len(models.Sources))
	for _, src := range models.Sources {
		out[src] = Activity(sets[src], period, q)
	}
	return out
}

// SleepAll scores every provider in sets.
func SleepAll(sets map[models.Source][]models.SleepSession, q thresholds.Quality) map[models.Source]int {
	out := make(map[models.Source]int, len(models.Sources))
	for _, src := range models.Sources {
		out[src] = Sleep(sets[src], q)
	}
	return out
}

func score(n, complete, keyed, target int, q thresholds.Quality) int {
	if n == 0 {
		return 0
	}

	quantity := math.Min(100, float64(n)/float64(target)*100)
	completeness := float64(complete) / float64(n) * 100

	var consistency float64
	switch {
	case n < 2:
		consistency = 0
	case keyed == n:
		consistency = q.ConsistentScore
	default:
		consistency = q.InconsistentScore
	}

	v := int(math.Round(q.QuantityWeight*quantity + q.CompletenessWeight*completeness + q.ConsistencyWeight*consistency))
	return max(0, min(100, v))
}

// Label buckets a score for display.
func Label(score int) string {
	switch {
	case score >= 70:
		return LabelGood
	case score >= 40:
		return LabelFair
	default:
		return LabelPoor
	}
}
