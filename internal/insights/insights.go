// Package insights compares activity across periods and derives patterns and
// ranked recommendations.
package insights

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/thresholds"
)

// Change types of a Trend.
const (
	ChangeIncrease = "increase"
	ChangeDecrease = "decrease"
	ChangeStable   = "stable"
)

// Activity levels and patterns.
const (
	LevelHigh     = "High"
	LevelModerate = "Moderate"
	LevelLow      = "Low"

	MorningActive   = "Morning Active"
	AfternoonActive = "Afternoon Active"
	EveningActive   = "Evening Active"

	WeekendActive    = "Weekend Active"
	WeekdayActive    = "Weekday Active"
	ConsistentWeekly = "Consistent Throughout Week"
)

// Trend compares one metric between the current and previous period.
type Trend struct {
	Title      string  `json:"title"`
	Current    float64 `json:"current"`
	Previous   float64 `json:"previous"`
	Change     float64 `json:"change"`
	ChangeType string  `json:"changeType"`
}

// Pattern is a named observation about the current period.
type Pattern struct {
	Title       string `json:"title"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Insights is the full analysis of a period.
type Insights struct {
	Trends          []Trend                 `json:"trends"`
	Patterns        []Pattern               `json:"patterns"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

// NewTrend builds a trend. Change is the percentage difference, 100 when
// previous is zero; changes within ±band percent are stable.
func NewTrend(title string, current, previous, band float64) Trend {
	change := 100.0
	if previous != 0 {
		change = (current - previous) / previous * 100
	}
	kind := ChangeStable
	switch {
	case change > band:
		kind = ChangeIncrease
	case change < -band:
		kind = ChangeDecrease
	}
	return Trend{
		Title:      title,
		Current:    current,
		Previous:   previous,
		Change:     math.Round(change*10) / 10,
		ChangeType: kind,
	}
}

// Level classifies average daily steps and active minutes.
func Level(avgSteps, avgMinutes float64, a thresholds.Activity) string {
	switch {
	case avgSteps >= float64(a.HighSteps) || avgMinutes >= float64(a.HighMinutes):
		return LevelHigh
	case avgSteps >= float64(a.ModerateSteps) || avgMinutes >= float64(a.ModerateMinutes):
		return LevelModerate
	default:
		return LevelLow
	}
}

// TimeOfDay finds the part of the day with the most steps from intraday
// labels: morning 5-11 AM, afternoon 12-4 PM, evening 5-11 PM. Ties resolve
// to the earlier part. Samples without a label are ignored.
func TimeOfDay(samples []models.ActivitySample) string {
	var morning, afternoon, evening int
	for _, s := range samples {
		h, ok := models.ParseHourLabel(s.Time)
		if !ok {
			continue
		}
		switch {
		case h >= 5 && h <= 11:
			morning += s.Steps
		case h >= 12 && h <= 16:
			afternoon += s.Steps
		case h >= 17 && h <= 23:
			evening += s.Steps
		}
	}
	best := max(morning, afternoon, evening)
	switch best {
	case morning:
		return MorningActive
	case afternoon:
		return AfternoonActive
	default:
		return EveningActive
	}
}

// Weekly compares average steps on weekdays and weekends.
func Weekly(samples []models.ActivitySample, ratio float64) string {
	var weekday, weekend []models.ActivitySample
	for _, s := range samples {
		d, ok := sampleDay(s)
		if !ok {
			continue
		}
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend = append(weekend, s)
		} else {
			weekday = append(weekday, s)
		}
	}
	wd := avg(weekday, steps)
	we := avg(weekend, steps)
	switch {
	case we > wd*ratio:
		return WeekendActive
	case wd > we*ratio:
		return WeekdayActive
	default:
		return ConsistentWeekly
	}
}

// Analyze produces trends, patterns and at most a.MaxRecommend
// recommendations for current against previous. Averages are per day: an
// intraday breakdown counts as one day. Empty current data gives empty
// insights.
func Analyze(current, previous []models.ActivitySample, period models.Period, t thresholds.Table) Insights {
	out := Insights{
		Trends:          []Trend{},
		Patterns:        []Pattern{},
		Recommendations: []models.Recommendation{},
	}
	if len(current) == 0 {
		return out
	}
	a := t.Activity

	cur, prev := Days(current), Days(previous)
	avgSteps, avgMinutes := avg(cur, steps), avg(cur, minutes)

	band := a.TrendBandPct
	out.Trends = []Trend{
		NewTrend("Steps", math.Round(avgSteps), math.Round(avg(prev, steps)), band),
		NewTrend("Active Minutes", math.Round(avgMinutes), math.Round(avg(prev, minutes)), band),
		NewTrend("Calories", math.Round(avg(cur, calories)), math.Round(avg(prev, calories)), band),
		NewTrend("Distance", ingest.Round2(avg(cur, distance)), ingest.Round2(avg(prev, distance)), band),
	}

	level := Level(avgSteps, avgMinutes, a)
	out.Patterns = append(out.Patterns, Pattern{Title: "Activity Level", Value: level, Description: levelDescription(level)})

	var timeOfDay, weekly string
	if period == models.PeriodDay {
		timeOfDay = TimeOfDay(current)
		part := strings.ToLower(strings.Fields(timeOfDay)[0])
		out.Patterns = append(out.Patterns, Pattern{
			Title:       "Most Active Time",
			Value:       timeOfDay,
			Description: fmt.Sprintf("Most of your activity happens during the %s.", part),
		})
	} else {
		weekly = Weekly(cur, a.WeekdayRatio)
		desc := "Your activity is well-balanced throughout the week."
		if weekly != ConsistentWeekly {
			desc = fmt.Sprintf("You're more active during %ss.", strings.ToLower(strings.Fields(weekly)[0]))
		}
		out.Patterns = append(out.Patterns, Pattern{Title: "Weekly Distribution", Value: weekly, Description: desc})
	}

	var recs []models.Recommendation
	if level == LevelLow {
		recs = append(recs, models.Recommendation{
			Title:       "Increase Daily Steps",
			Description: "Aim to add 2,000 more steps daily. Try parking farther away or taking the stairs.",
			Priority:    models.PriorityHigh,
		})
	}
	switch weekly {
	case WeekendActive:
		recs = append(recs, models.Recommendation{
			Title:       "Balance Weekday Activity",
			Description: "Look for ways to be more active during weekdays, such as walking meetings or active commuting.",
			Priority:    models.PriorityMedium,
		})
	case WeekdayActive:
		recs = append(recs, models.Recommendation{
			Title:       "Stay Active on Weekends",
			Description: "Plan active weekend activities like hiking, cycling, or family walks.",
			Priority:    models.PriorityMedium,
		})
	}
	switch timeOfDay {
	case MorningActive:
		recs = append(recs, models.Recommendation{
			Title:       "Add Evening Movement",
			Description: "Try an evening walk after dinner to distribute activity throughout the day.",
			Priority:    models.PriorityLow,
		})
	case EveningActive:
		recs = append(recs, models.Recommendation{
			Title:       "Morning Activity Boost",
			Description: "Start your day with a quick morning stretch or walk to energize for the day.",
			Priority:    models.PriorityLow,
		})
	}
	if avgSteps < float64(a.StepGoal) {
		p := models.PriorityMedium
		if avgSteps < float64(a.LowStepGoal) {
			p = models.PriorityHigh
		}
		recs = append(recs, models.Recommendation{
			Title:       "Step Goal Strategy",
			Description: fmt.Sprintf("Break down your %s step goal into manageable chunks throughout the day.", thousands(a.StepGoal)),
			Priority:    p,
		})
	}
	if avgMinutes < float64(a.MinutesGoal) {
		recs = append(recs, models.Recommendation{
			Title:       "Active Minutes Focus",
			Description: fmt.Sprintf("Aim for at least %d minutes of moderate activity daily for heart health.", a.MinutesGoal),
			Priority:    models.PriorityHigh,
		})
	}
	recs = append(recs, models.Recommendation{
		Title:       "Stay Hydrated",
		Description: "Remember to drink water before, during, and after activity for optimal performance.",
		Priority:    models.PriorityMedium,
	})

	out.Recommendations = models.TopRecommendations(recs, a.MaxRecommend)
	return out
}

func levelDescription(level string) string {
	switch level {
	case LevelHigh:
		return "Excellent activity level! Keep up the good work."
	case LevelModerate:
		return "Good activity level, but could aim higher."
	default:
		return "Activity level is low, try to increase daily movement."
	}
}

var englishPrinter = message.NewPrinter(language.English)

// thousands formats n with comma separators.
func thousands(n int) string {
	return englishPrinter.Sprintf("%d", n)
}
