package models

import (
	"fmt"
	"time"
)

// Source identifies an upstream health-data provider.
type Source string

const (
	SourceFitbit      Source = "fitbit"
	SourceGoogleFit   Source = "googleFit"
	SourceAppleHealth Source = "appleHealth"
)

// Sources lists every provider in a stable order.
var Sources = []Source{SourceFitbit, SourceGoogleFit, SourceAppleHealth}

// Valid reports whether s names a known provider.
func (s Source) Valid() bool {
	switch s {
	case SourceFitbit, SourceGoogleFit, SourceAppleHealth:
		return true
	}
	return false
}

// ParseSource accepts the canonical provider names plus a few common spellings.
func ParseSource(s string) (Source, error) {
	switch s {
	case "fitbit", "Fitbit":
		return SourceFitbit, nil
	case "googleFit", "googlefit", "google_fit", "google-fit":
		return SourceGoogleFit, nil
	case "appleHealth", "applehealth", "apple_health", "apple-health":
		return SourceAppleHealth, nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// Kind is the data domain of a record set.
type Kind string

const (
	KindActivity Kind = "activity"
	KindSleep    Kind = "sleep"
)

// ParseKind validates a domain name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindActivity, KindSleep:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// Period is the reporting granularity.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty means day.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodWeek, PeriodMonth:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Days returns the number of calendar days a period covers.
func (p Period) Days() int {
	switch p {
	case PeriodWeek:
		return 7
	case PeriodMonth:
		return 30
	default:
		return 1
	}
}

// Window returns the half-open [start, end) range of days the period covers,
// ending with the given date.
func (p Period) Window(date time.Time) (time.Time, time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := day.AddDate(0, 0, 1)
	return end.AddDate(0, 0, -p.Days()), end
}

// Previous returns the anchor date of the window immediately before the one ending at date.
func (p Period) Previous(date time.Time) time.Time {
	return date.AddDate(0, 0, -p.Days())
}

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date in now's location. Empty means today.
func ParseDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	d, err := time.ParseInLocation(DateLayout, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}
