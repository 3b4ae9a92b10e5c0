package sleep

import (
	"math"

	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/thresholds"
)

// Quality levels returned by QualityLevel.
const (
	LevelExcellent = "Excellent"
	LevelGood      = "Good"
	LevelFair      = "Fair"
	LevelPoor      = "Poor"
	LevelVeryPoor  = "Very Poor"
)

// Summary is the aggregated view of a period's sleep sessions.
type Summary struct {
	Date                 string `json:"date,omitempty"`
	StartTime            string `json:"startTime,omitempty"`
	EndTime              string `json:"endTime,omitempty"`
	Nights               int    `json:"nights"`
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
	ScoreComputed        bool   `json:"scoreComputed"`
	SleepCycles          int    `json:"sleepCycles"`

	BedtimeConsistency  int    `json:"bedtimeConsistency"`
	DurationVariability int    `json:"durationVariability"`
	WakeEpisodes        int    `json:"wakeEpisodes"`
	QualityLevel        string `json:"qualityLevel"`
	OptimalDistribution bool   `json:"optimalDistribution"`
}

// Summarize aggregates sessions for a period.
//
// A day view, or a period holding one session, reports the latest session
// as is, computing its score when the provider sent none. Longer periods
// average every field over sessions with a positive duration and use the
// mean of explicit scores when any exist. Empty input gives a zeroed
// summary with the default bedtime consistency.
func Summarize(sessions []models.SleepSession, period models.Period, t thresholds.Table) Summary {
	s := t.Sleep
	out := Summary{
		Nights:             len(sessions),
		BedtimeConsistency: BedtimeConsistency(sessions, s),
	}

	valid := make([]models.SleepSession, 0, len(sessions))
	for _, ss := range sessions {
		if ss.DurationMinutes > 0 {
			valid = append(valid, ss)
		}
	}

	switch {
	case len(sessions) == 0:
	case period == models.PeriodDay || len(sessions) == 1:
		single(&out, latest(sessions), s)
	case len(valid) > 0:
		average(&out, valid, s)
	}

	out.DurationVariability = DurationVariability(sessions)
	out.WakeEpisodes = WakeEpisodes(sessions)
	out.QualityLevel = QualityLevel(out.Score)
	out.OptimalDistribution = OptimalDistribution(out.DeepSleepPercentage, out.RemSleepPercentage, out.LightSleepPercentage)
	return out
}

func latest(sessions []models.SleepSession) models.SleepSession {
	best := sessions[0]
	for _, ss := range sessions[1:] {
		if ss.Timestamp().After(best.Timestamp()) {
			best = ss
		}
	}
	return best
}

func single(out *Summary, ss models.SleepSession, s thresholds.Sleep) {
	out.Date = ss.Date
	out.StartTime = ss.StartTime
	out.EndTime = ss.EndTime
	out.DurationMinutes = ss.DurationMinutes
	out.Efficiency = ss.Efficiency
	out.DeepSleepMinutes = ss.DeepSleepMinutes
	out.RemSleepMinutes = ss.RemSleepMinutes
	out.LightSleepMinutes = ss.LightSleepMinutes
	out.AwakeDuringNight = ss.AwakeDuringNight
	out.DeepSleepPercentage = ss.DeepSleepPercentage
	out.RemSleepPercentage = ss.RemSleepPercentage
	out.LightSleepPercentage = ss.LightSleepPercentage
	out.SleepCycles = ss.SleepCycles

	if ss.ExplicitScore() {
		out.Score = ss.Score
		return
	}
	out.Score = Score(float64(ss.DurationMinutes), float64(ss.Efficiency), float64(ss.DeepSleepPercentage), s)
	out.ScoreComputed = true
}

func average(out *Summary, valid []models.SleepSession, s thresholds.Sleep) {
	out.DurationMinutes = mean(valid, func(ss models.SleepSession) int { return ss.DurationMinutes })
	out.Efficiency = mean(valid, func(ss models.SleepSession) int { return ss.Efficiency })
	out.DeepSleepMinutes = mean(valid, func(ss models.SleepSession) int { return ss.DeepSleepMinutes })
	out.RemSleepMinutes = mean(valid, func(ss models.SleepSession) int { return ss.RemSleepMinutes })
	out.LightSleepMinutes = mean(valid, func(ss models.SleepSession) int { return ss.LightSleepMinutes })
	out.AwakeDuringNight = mean(valid, func(ss models.SleepSession) int { return ss.AwakeDuringNight })
	out.DeepSleepPercentage = mean(valid, func(ss models.SleepSession) int { return ss.DeepSleepPercentage })
	out.RemSleepPercentage = mean(valid, func(ss models.SleepSession) int { return ss.RemSleepPercentage })
	// light absorbs the rounding of the other two averages
	out.LightSleepPercentage = max(0, 100-out.DeepSleepPercentage-out.RemSleepPercentage)
	if s.CycleMinutes > 0 {
		out.SleepCycles = out.DurationMinutes / s.CycleMinutes
	}

	var explicit []models.SleepSession
	for _, ss := range valid {
		if ss.ExplicitScore() {
			explicit = append(explicit, ss)
		}
	}
	if len(explicit) > 0 {
		out.Score = mean(explicit, func(ss models.SleepSession) int { return ss.Score })
		return
	}
	out.Score = Score(float64(out.DurationMinutes), float64(out.Efficiency), float64(out.DeepSleepPercentage), s)
	out.ScoreComputed = true
}

// mean returns the rounded average of field over sessions.
func mean(sessions []models.SleepSession, field func(models.SleepSession) int) int {
	if len(sessions) == 0 {
		return 0
	}
	var sum int
	for _, ss := range sessions {
		sum += field(ss)
	}
	return int(math.Round(float64(sum) / float64(len(sessions))))
}

// BedtimeConsistency scores how regular bedtimes are, 0-100. Start times
// before noon are shifted a day forward so after-midnight bedtimes line up
// with evening ones. Fewer than two parseable start times give the default.
func BedtimeConsistency(sessions []models.SleepSession, s thresholds.Sleep) int {
	var minutes []float64
	for _, ss := range sessions {
		ts, ok := models.ParseFlexTime(ss.StartTime)
		if !ok || len(ss.StartTime) <= len(models.DateLayout) {
			continue
		}
		m := float64(ts.Hour()*60 + ts.Minute())
		if ts.Hour() < 12 {
			m += 1440
		}
		minutes = append(minutes, m)
	}
	if len(minutes) < 2 {
		return s.BedtimeDefault
	}
	sd := popStdDev(minutes)
	return int(math.Round(math.Max(0, 100-sd/s.BedtimeDivisor)))
}

// DurationVariability is the rounded population standard deviation of
// positive durations, 0 for fewer than two.
func DurationVariability(sessions []models.SleepSession) int {
	var d []float64
	for _, ss := range sessions {
		if ss.DurationMinutes > 0 {
			d = append(d, float64(ss.DurationMinutes))
		}
	}
	if len(d) < 2 {
		return 0
	}
	return int(math.Round(popStdDev(d)))
}

// WakeEpisodes is the rounded average number of wake episodes per night.
func WakeEpisodes(sessions []models.SleepSession) int {
	return mean(sessions, func(ss models.SleepSession) int { return ss.AwakeDuringNight })
}

// QualityLevel labels a sleep score.
func QualityLevel(score int) string {
	switch {
	case score >= 90:
		return LevelExcellent
	case score >= 80:
		return LevelGood
	case score >= 70:
		return LevelFair
	case score >= 50:
		return LevelPoor
	default:
		return LevelVeryPoor
	}
}

// OptimalDistribution reports whether stage shares fall in the recommended
// ranges: deep and REM 20-25%, light 50-60%.
func OptimalDistribution(deepPct, remPct, lightPct int) bool {
	return deepPct >= 20 && deepPct <= 25 &&
		remPct >= 20 && remPct <= 25 &&
		lightPct >= 50 && lightPct <= 60
}

func popStdDev(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	m := sum / float64(len(vals))
	var variance float64
	for _, v := range vals {
		variance += (v - m) * (v - m)
	}
	return math.Sqrt(variance / float64(len(vals)))
}
