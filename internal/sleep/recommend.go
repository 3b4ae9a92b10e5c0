package sleep

import (
	"fmt"
	"math"

	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/thresholds"
)

// Recommend derives prioritized advice from a summary and the number of
// detected abnormalities. At most s.MaxRecommend items are returned.
func Recommend(sum Summary, abnormalities int, s thresholds.Sleep) []models.Recommendation {
	var recs []models.Recommendation

	switch {
	case sum.DurationMinutes < s.ShortSleepMinutes || sum.Score < 60:
		recs = append(recs, models.Recommendation{
			Title:       "Prioritize Sleep Duration",
			Description: "Your sleep metrics indicate insufficient rest. Aim to increase sleep duration by 30-60 minutes.",
			Priority:    models.PriorityHigh,
		})
	case sum.DurationMinutes < s.TargetSleepMinutes || sum.Score < 70:
		recs = append(recs, models.Recommendation{
			Title:       "Optimize Sleep Schedule",
			Description: "Your metrics indicate adequate but not optimal sleep. Consistent sleep and wake times may help improve quality.",
			Priority:    models.PriorityMedium,
		})
	default:
		recs = append(recs, models.Recommendation{
			Title:       "Maintain Sleep Habits",
			Description: "Your metrics indicate good sleep quality and duration. Continue your current sleep hygiene practices.",
			Priority:    models.PriorityLow,
		})
	}

	if abnormalities > 0 {
		noun := "abnormality"
		if abnormalities > 1 {
			noun = "abnormalities"
		}
		recs = append(recs, models.Recommendation{
			Title:       "Address Sleep Disruptions",
			Description: fmt.Sprintf("%d sleep pattern %s detected. Consider environment and pre-sleep routine improvements.", abnormalities, noun),
			Priority:    models.PriorityHigh,
		})
	}

	switch {
	case sum.DeepSleepPercentage < 20:
		recs = append(recs, models.Recommendation{
			Title:       "Improve Deep Sleep",
			Description: "Your deep sleep percentage is below optimal. Regular exercise and reducing alcohol consumption may help increase deep sleep.",
			Priority:    models.PriorityMedium,
		})
	case sum.RemSleepPercentage < 20:
		recs = append(recs, models.Recommendation{
			Title:       "Support REM Sleep",
			Description: "Your REM sleep percentage is below optimal. A regular sleep schedule and stress management may help improve REM sleep.",
			Priority:    models.PriorityMedium,
		})
	}

	if sum.Efficiency < s.ContinuityPct {
		recs = append(recs, models.Recommendation{
			Title:       "Address Sleep Continuity",
			Description: "Your sleep efficiency suggests frequent awakenings. Consider environmental factors and avoid stimulants before bed.",
			Priority:    models.PriorityMedium,
		})
	}

	return models.TopRecommendations(recs, s.MaxRecommend)
}

// Stats are headline averages over a period's sessions.
type Stats struct {
	AvgDuration      int `json:"avgDuration"`
	AvgDeepSleep     int `json:"avgDeepSleep"`
	AvgEfficiency    int `json:"avgEfficiency"`
	AvgScore         int `json:"avgScore"`
	AvgAwakeEpisodes int `json:"avgAwakeEpisodes"`
}

// ComputeStats averages sessions. The score average only counts sessions
// with a positive score and is 0 when none have one.
func ComputeStats(sessions []models.SleepSession) Stats {
	if len(sessions) == 0 {
		return Stats{}
	}
	st := Stats{
		AvgDuration:      mean(sessions, func(ss models.SleepSession) int { return ss.DurationMinutes }),
		AvgDeepSleep:     mean(sessions, func(ss models.SleepSession) int { return ss.DeepSleepMinutes }),
		AvgEfficiency:    mean(sessions, func(ss models.SleepSession) int { return ss.Efficiency }),
		AvgAwakeEpisodes: WakeEpisodes(sessions),
	}
	var scored, sum int
	for _, ss := range sessions {
		if ss.Score > 0 {
			scored++
			sum += ss.Score
		}
	}
	if scored > 0 {
		st.AvgScore = int(math.Round(float64(sum) / float64(scored)))
	}
	return st
}
