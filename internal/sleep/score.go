// Package sleep aggregates canonical sleep sessions into period summaries,
// scores nights and derives bedtime consistency and recommendations.
package sleep

import (
	"math"

	"github.com/claude/vitalsync/internal/thresholds"
)

// Score computes a 0-100 sleep score from duration, efficiency and deep-sleep
// share using the weighted sub-score bands of the thresholds table.
func Score(durationMinutes, efficiency, deepPct float64, s thresholds.Sleep) int {
	d := bandScore(durationMinutes, s.DurationBands, s.DurationFloor)
	e := math.Max(0, math.Min(100, efficiency))
	p := bandScore(deepPct, s.DeepBands, s.DeepFloor)

	v := int(math.Round(s.DurationWeight*d + s.EfficiencyWeight*e + s.DeepWeight*p))
	return max(s.ScoreMin, min(s.ScoreMax, v))
}

// bandScore returns the score of the first band containing v. Fractional
// values are matched by their integer floor.
func bandScore(v float64, bands []thresholds.Band, floor int) float64 {
	n := int(math.Floor(v))
	for _, b := range bands {
		if n >= b.Min && n <= b.Max {
			return float64(b.Score)
		}
	}
	return float64(floor)
}
