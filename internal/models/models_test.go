package models

import (
	"testing"
	"time"

	"github.com/claude/vitalsync/internal/thresholds"
)

// TestHourLabelRoundTrip verifies every hour survives format then parse,
// including the midnight and noon edge cases of the 12-hour clock.
func TestHourLabelRoundTrip(t *testing.T) {
	for h := 0; h < 24; h++ {
		label := HourLabel(h)
		got, ok := ParseHourLabel(label)
		if !ok || got != h {
			t.Errorf("hour %d -> %q -> %d,%v", h, label, got, ok)
		}
	}
	if HourLabel(0) != "12:00 AM" || HourLabel(12) != "12:00 PM" || HourLabel(13) != "1:00 PM" {
		t.Errorf("unexpected labels: %q %q %q", HourLabel(0), HourLabel(12), HourLabel(13))
	}
}

// TestParseHourLabelRejects verifies malformed labels are rejected.
func TestParseHourLabelRejects(t *testing.T) {
	for _, s := range []string{"", "13:00 PM", "0:00 AM", "7:00", "seven AM", "7:00 XM"} {
		if _, ok := ParseHourLabel(s); ok {
			t.Errorf("ParseHourLabel(%q) accepted", s)
		}
	}
}

// TestDailyLevel verifies the all-of daily activity level rule.
func TestDailyLevel(t *testing.T) {
	c := thresholds.Default().Activity.Daily
	cases := []struct {
		steps, minutes int
		want           ActivityLevel
	}{
		{12000, 70, LevelVeryActive},
		{12000, 40, LevelActive},   // minutes hold it back
		{8000, 90, LevelActive},    // steps hold it back
		{5000, 20, LevelLightlyActive},
		{4999, 90, LevelSedentary},
		{0, 0, LevelSedentary},
	}
	for _, tc := range cases {
		if got := DailyLevel(tc.steps, tc.minutes, c); got != tc.want {
			t.Errorf("DailyLevel(%d,%d) = %s, want %s", tc.steps, tc.minutes, got, tc.want)
		}
	}
}

// TestHourlyLevel verifies the any-of intraday rule with scaled-down cutoffs.
func TestHourlyLevel(t *testing.T) {
	c := thresholds.Default().Activity.Hourly
	cases := []struct {
		steps, minutes int
		want           ActivityLevel
	}{
		{3000, 0, LevelVeryActive},
		{0, 30, LevelVeryActive},
		{1500, 0, LevelActive},
		{0, 15, LevelActive},
		{500, 0, LevelLightlyActive},
		{0, 5, LevelLightlyActive},
		{499, 4, LevelSedentary},
	}
	for _, tc := range cases {
		if got := HourlyLevel(tc.steps, tc.minutes, c); got != tc.want {
			t.Errorf("HourlyLevel(%d,%d) = %s, want %s", tc.steps, tc.minutes, got, tc.want)
		}
	}
}

// TestSleepNormalizeStagePercentages verifies percentages sum to 100 when
// the provider sent stage minutes.
func TestSleepNormalizeStagePercentages(t *testing.T) {
	s := SleepSession{
		DurationMinutes:   450,
		DeepSleepMinutes:  97,
		RemSleepMinutes:   101,
		LightSleepMinutes: 233,
		Efficiency:        91,
		Present:           RequiredSleepFields,
	}
	s.Normalize(thresholds.Default().Sleep)

	sum := s.DeepSleepPercentage + s.RemSleepPercentage + s.LightSleepPercentage
	if sum < 99 || sum > 101 {
		t.Errorf("percentages sum to %d, want ~100", sum)
	}
	if s.DeepSleepPercentage != 23 {
		t.Errorf("deep%% = %d, want 23", s.DeepSleepPercentage)
	}
	if s.Efficiency != 91 {
		t.Errorf("efficiency = %d, want 91 (explicit value kept)", s.Efficiency)
	}
	if s.SleepCycles != 5 {
		t.Errorf("cycles = %d, want 5", s.SleepCycles)
	}
}

// TestSleepNormalizeDefaults verifies the 20/25/55 split and the efficiency
// and score defaults when only a duration is known.
func TestSleepNormalizeDefaults(t *testing.T) {
	s := SleepSession{DurationMinutes: 400, Present: FieldDuration}
	s.Normalize(thresholds.Default().Sleep)

	if s.DeepSleepPercentage != 20 || s.RemSleepPercentage != 25 || s.LightSleepPercentage != 55 {
		t.Errorf("split = %d/%d/%d, want 20/25/55", s.DeepSleepPercentage, s.RemSleepPercentage, s.LightSleepPercentage)
	}
	if s.DeepSleepMinutes != 80 || s.RemSleepMinutes != 100 || s.LightSleepMinutes != 220 {
		t.Errorf("minutes = %d/%d/%d, want 80/100/220", s.DeepSleepMinutes, s.RemSleepMinutes, s.LightSleepMinutes)
	}
	if s.Efficiency != 85 {
		t.Errorf("efficiency = %d, want 85", s.Efficiency)
	}
	if s.Score != 75 {
		t.Errorf("score = %d, want 75", s.Score)
	}
	if s.ExplicitScore() {
		t.Error("default score must not count as explicit")
	}
}

// TestSleepNormalizeDurationFloor verifies duration is raised to the stage sum
// so the duration >= stages invariant holds for malformed input.
func TestSleepNormalizeDurationFloor(t *testing.T) {
	s := SleepSession{
		DurationMinutes:   100,
		DeepSleepMinutes:  60,
		RemSleepMinutes:   60,
		LightSleepMinutes: 60,
		Present:           FieldDeepSleep | FieldREMSleep | FieldLightSleep | FieldDuration,
	}
	s.Normalize(thresholds.Default().Sleep)
	if s.DurationMinutes != 180 {
		t.Errorf("duration = %d, want 180", s.DurationMinutes)
	}
	if s.SleepCycles != 2 {
		t.Errorf("cycles = %d, want 2", s.SleepCycles)
	}
}

// TestSleepNormalizeEmpty verifies an empty session stays zeroed apart from defaults.
func TestSleepNormalizeEmpty(t *testing.T) {
	var s SleepSession
	s.Normalize(thresholds.Default().Sleep)
	if s.DeepSleepPercentage+s.RemSleepPercentage+s.LightSleepPercentage != 0 {
		t.Error("expected zero percentages without any duration")
	}
	if s.SleepCycles != 0 {
		t.Errorf("cycles = %d, want 0", s.SleepCycles)
	}
}

// TestActivityTimestamp verifies ordering keys for daily and intraday samples.
func TestActivityTimestamp(t *testing.T) {
	daily := ActivitySample{DateTime: "2024-03-05"}
	if got := daily.Timestamp(); !got.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("daily timestamp = %v", got)
	}
	hourly := ActivitySample{Date: "2024-03-05", Time: "3:00 PM"}
	if got := hourly.Timestamp(); !got.Equal(time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)) {
		t.Errorf("hourly timestamp = %v", got)
	}
	if !(ActivitySample{}).Timestamp().IsZero() {
		t.Error("expected zero timestamp for empty sample")
	}
}

// TestPeriodWindow verifies window boundaries for each period.
func TestPeriodWindow(t *testing.T) {
	date := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	cases := []struct {
		p         Period
		wantStart time.Time
	}{
		{PeriodDay, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{PeriodWeek, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		{PeriodMonth, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		start, end := tc.p.Window(date)
		if !start.Equal(tc.wantStart) {
			t.Errorf("%s start = %v, want %v", tc.p, start, tc.wantStart)
		}
		if !end.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("%s end = %v", tc.p, end)
		}
	}
}

// TestParseSourceAliases verifies accepted spellings and rejection of unknowns.
func TestParseSourceAliases(t *testing.T) {
	for in, want := range map[string]Source{
		"fitbit": SourceFitbit, "google_fit": SourceGoogleFit, "apple-health": SourceAppleHealth,
	} {
		got, err := ParseSource(in)
		if err != nil || got != want {
			t.Errorf("ParseSource(%q) = %q,%v", in, got, err)
		}
	}
	if _, err := ParseSource("garmin"); err == nil {
		t.Error("expected error for unknown source")
	}
}
