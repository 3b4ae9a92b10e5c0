package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/claude/vitalsync/internal/thresholds"
)

// ActivityLevel is a categorical intensity label derived from steps and active minutes.
type ActivityLevel string

const (
	LevelSedentary     ActivityLevel = "Sedentary"
	LevelLightlyActive ActivityLevel = "Lightly Active"
	LevelActive        ActivityLevel = "Active"
	LevelVeryActive    ActivityLevel = "Very Active"
)

// FieldSet records which fields a provider actually sent for a record.
// Defaults filled in by an adapter do not set the corresponding bit.
type FieldSet uint16

const (
	FieldSteps FieldSet = 1 << iota
	FieldActiveMinutes
	FieldCalories
	FieldDistance
	FieldDeepSleep
	FieldREMSleep
	FieldLightSleep
	FieldDuration
	FieldEfficiency
	FieldScore
)

const (
	RequiredActivityFields = FieldSteps | FieldActiveMinutes | FieldCalories | FieldDistance
	RequiredSleepFields    = FieldDeepSleep | FieldREMSleep | FieldLightSleep | FieldDuration | FieldEfficiency
)

// Has reports whether every bit of m is set.
func (f FieldSet) Has(m FieldSet) bool { return f&m == m }

// ActivitySample is one canonical activity record, either an intraday bucket
// (Time set) or a daily aggregate (DateTime set).
type ActivitySample struct {
	Source        Source        `json:"source"`
	Date          string        `json:"date"`
	Time          string        `json:"time,omitempty"`
	DateTime      string        `json:"dateTime,omitempty"`
	Steps         int           `json:"steps"`
	Calories      int           `json:"calories"`
	ActiveMinutes int           `json:"activeMinutes"`
	Distance      float64       `json:"distance"`
	Floors        int           `json:"floors"`
	ActivityLevel ActivityLevel `json:"activityLevel"`

	Present FieldSet `json:"-"`
}

// DailyLevel classifies a day aggregate. Every part of a cutoff must be met.
func DailyLevel(steps, minutes int, c thresholds.LevelCutoffs) ActivityLevel {
	switch {
	case minutes >= c.VeryActive.Minutes && steps >= c.VeryActive.Steps:
		return LevelVeryActive
	case minutes >= c.Active.Minutes && steps >= c.Active.Steps:
		return LevelActive
	case minutes >= c.LightlyActive.Minutes && steps >= c.LightlyActive.Steps:
		return LevelLightlyActive
	default:
		return LevelSedentary
	}
}

// HourlyLevel classifies an intraday bucket. Either part of a cutoff suffices.
func HourlyLevel(steps, minutes int, c thresholds.LevelCutoffs) ActivityLevel {
	switch {
	case minutes >= c.VeryActive.Minutes || steps >= c.VeryActive.Steps:
		return LevelVeryActive
	case minutes >= c.Active.Minutes || steps >= c.Active.Steps:
		return LevelActive
	case minutes >= c.LightlyActive.Minutes || steps >= c.LightlyActive.Steps:
		return LevelLightlyActive
	default:
		return LevelSedentary
	}
}

// Classify sets ActivityLevel from the sample's own steps and minutes,
// using the intraday rule for bucketed samples and the daily rule otherwise.
func (a *ActivitySample) Classify(t thresholds.Table) {
	if a.Time != "" {
		a.ActivityLevel = HourlyLevel(a.Steps, a.ActiveMinutes, t.Activity.Hourly)
		return
	}
	a.ActivityLevel = DailyLevel(a.Steps, a.ActiveMinutes, t.Activity.Daily)
}

// Timestamp returns the best-effort instant of the sample for ordering.
// Zero time means no parseable date was present.
func (a ActivitySample) Timestamp() time.Time {
	if a.DateTime != "" {
		if ts, ok := ParseFlexTime(a.DateTime); ok {
			if a.Time == "" {
				return ts
			}
			if h, ok := ParseHourLabel(a.Time); ok {
				return time.Date(ts.Year(), ts.Month(), ts.Day(), h, 0, 0, 0, ts.Location())
			}
			return ts
		}
	}
	if a.Date != "" {
		d, err := time.Parse(DateLayout, a.Date)
		if err != nil {
			return time.Time{}
		}
		if h, ok := ParseHourLabel(a.Time); ok {
			return d.Add(time.Duration(h) * time.Hour)
		}
		return d
	}
	return time.Time{}
}

// HourLabel formats a 0-23 hour as a 12-hour "h:mm AM/PM" label.
func HourLabel(hour int) string {
	return ClockLabel(hour, 0)
}

// ClockLabel formats a 24-hour clock time as "h:mm AM/PM".
func ClockLabel(hour, minute int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, minute, suffix)
}

// ParseHourLabel parses a 12-hour "h:mm AM/PM" label into a 0-23 hour.
func ParseHourLabel(s string) (int, bool) {
	s = strings.TrimSpace(s)
	clock, suffix, ok := strings.Cut(s, " ")
	if !ok {
		return 0, false
	}
	hourStr, _, _ := strings.Cut(clock, ":")
	h, err := strconv.Atoi(hourStr)
	if err != nil || h < 1 || h > 12 {
		return 0, false
	}
	switch strings.ToUpper(strings.TrimSpace(suffix)) {
	case "AM":
		if h == 12 {
			h = 0
		}
	case "PM":
		if h != 12 {
			h += 12
		}
	default:
		return 0, false
	}
	return h, true
}

// flexLayouts covers the timestamp formats the providers emit.
var flexLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	DateLayout,
}

// ParseFlexTime parses any provider timestamp layout. Layouts without a zone are read as UTC.
func ParseFlexTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range flexLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
