package models

import (
	"math"
	"time"

	"github.com/claude/vitalsync/internal/thresholds"
)

// SleepSession is one canonical night of sleep.
type SleepSession struct {
	Source               Source `json:"source"`
	Date                 string `json:"date"`
	StartTime            string `json:"startTime"`
	EndTime              string `json:"endTime"`
	DurationMinutes      int    `json:"durationMinutes"`
	Efficiency           int    `json:"efficiency"`
	DeepSleepMinutes     int    `json:"deepSleepMinutes"`
	RemSleepMinutes      int    `json:"remSleepMinutes"`
	LightSleepMinutes    int    `json:"lightSleepMinutes"`
	AwakeDuringNight     int    `json:"awakeDuringNight"`
	DeepSleepPercentage  int    `json:"deepSleepPercentage"`
	RemSleepPercentage   int    `json:"remSleepPercentage"`
	LightSleepPercentage int    `json:"lightSleepPercentage"`
	Score                int    `json:"score"`
	SleepCycles          int    `json:"sleepCycles"`

	Present FieldSet `json:"-"`
}

// HasStages reports whether the provider sent any stage minutes.
func (s SleepSession) HasStages() bool {
	return s.Present&(FieldDeepSleep|FieldREMSleep|FieldLightSleep) != 0
}

// ExplicitScore reports whether the score came from the provider rather than a default.
func (s SleepSession) ExplicitScore() bool {
	return s.Present.Has(FieldScore) && s.Score > 0
}

// Normalize fills defaults and recomputes derived fields in place:
// efficiency and score defaults, stage minutes/percentages, and sleep cycles.
func (s *SleepSession) Normalize(d thresholds.Sleep) {
	clampNonNegative(&s.DurationMinutes, &s.Efficiency, &s.DeepSleepMinutes,
		&s.RemSleepMinutes, &s.LightSleepMinutes, &s.AwakeDuringNight, &s.Score)

	if !s.Present.Has(FieldEfficiency) || s.Efficiency == 0 {
		s.Efficiency = d.DefaultEfficiency
	}
	if s.Efficiency > 100 {
		s.Efficiency = 100
	}
	if !s.Present.Has(FieldScore) || s.Score == 0 {
		s.Score = d.DefaultScore
	}
	if s.Score > 100 {
		s.Score = 100
	}

	staged := s.DeepSleepMinutes + s.RemSleepMinutes + s.LightSleepMinutes
	switch {
	case staged > 0:
		if s.DurationMinutes < staged {
			s.DurationMinutes = staged
		}
		s.DeepSleepPercentage, s.RemSleepPercentage, s.LightSleepPercentage =
			splitPercent(s.DeepSleepMinutes, s.RemSleepMinutes, staged)
	case s.DurationMinutes > 0:
		s.DeepSleepPercentage = d.DefaultDeepPct
		s.RemSleepPercentage = d.DefaultREMPct
		s.LightSleepPercentage = d.DefaultLightPct
		s.DeepSleepMinutes = roundInt(float64(s.DurationMinutes) * float64(d.DefaultDeepPct) / 100)
		s.RemSleepMinutes = roundInt(float64(s.DurationMinutes) * float64(d.DefaultREMPct) / 100)
		s.LightSleepMinutes = s.DurationMinutes - s.DeepSleepMinutes - s.RemSleepMinutes
	default:
		s.DeepSleepPercentage, s.RemSleepPercentage, s.LightSleepPercentage = 0, 0, 0
	}

	if d.CycleMinutes > 0 {
		s.SleepCycles = s.DurationMinutes / d.CycleMinutes
	}
}

// Timestamp returns the session start for ordering, falling back to its date.
func (s SleepSession) Timestamp() time.Time {
	if ts, ok := ParseFlexTime(s.StartTime); ok {
		return ts
	}
	if ts, ok := ParseFlexTime(s.Date); ok {
		return ts
	}
	return time.Time{}
}

// splitPercent rounds deep and REM shares and folds the rounding residue into light
// so the three always sum to exactly 100.
func splitPercent(deep, rem, total int) (int, int, int) {
	dp := roundInt(float64(deep) / float64(total) * 100)
	rp := roundInt(float64(rem) / float64(total) * 100)
	lp := 100 - dp - rp
	if lp < 0 {
		// only reachable when light is zero and both others round up
		rp += lp
		lp = 0
	}
	return dp, rp, lp
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func clampNonNegative(vals ...*int) {
	for _, v := range vals {
		if *v < 0 {
			*v = 0
		}
	}
}
