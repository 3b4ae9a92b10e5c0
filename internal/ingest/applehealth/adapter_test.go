package applehealth

import (
	"encoding/json"
	"testing"

	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/thresholds"
)

func newAdapter() *Adapter { return New(thresholds.Default()) }

// TestDetectSleepFormatAggregated verifies detection of nightly summaries.
func TestDetectSleepFormatAggregated(t *testing.T) {
	raw := json.RawMessage(`{"date":"2024-02-06","totalSleep":7.5,"core":3.5,"deep":1.5,"rem":2.0}`)
	if got := detectSleepFormat(raw); got != sleepAggregated {
		t.Errorf("got %d, want sleepAggregated", got)
	}
}

// TestDetectSleepFormatPerStage verifies detection of stage segments.
func TestDetectSleepFormatPerStage(t *testing.T) {
	raw := json.RawMessage(`{"startDate":"2024-02-05 23:00:00 -0800","endDate":"2024-02-05 23:30:00 -0800","value":"Core","qty":0.5}`)
	if got := detectSleepFormat(raw); got != sleepPerStage {
		t.Errorf("got %d, want sleepPerStage", got)
	}
}

// TestDetectSleepFormatUnknown verifies non-objects and unrelated objects are not sleep.
func TestDetectSleepFormatUnknown(t *testing.T) {
	for _, raw := range []string{`42`, `{"qty":3}`, `"x"`} {
		if got := detectSleepFormat(json.RawMessage(raw)); got != sleepUnknown {
			t.Errorf("detectSleepFormat(%s) = %d, want sleepUnknown", raw, got)
		}
	}
}

// TestActivityFieldAliases verifies both the export names and the short names.
func TestActivityFieldAliases(t *testing.T) {
	raw := json.RawMessage(`[
		{"date":"2024-02-06 00:00:00 -0800","stepCount":12000,"activeEnergy":610,
		 "walkingRunningDistance":8.456,"flightsClimbed":12,"appleExerciseTime":75},
		{"date":"2024-02-07","steps":3000,"calories":300,"distance":2.1,"activeMinutes":10}
	]`)
	got := newAdapter().Activity(raw, models.PeriodWeek)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	first := got[0]
	if first.Steps != 12000 || first.Calories != 610 || first.Floors != 12 || first.ActiveMinutes != 75 {
		t.Errorf("first = %+v", first)
	}
	if first.Distance != 8.46 {
		t.Errorf("distance = %v, want 8.46", first.Distance)
	}
	if first.Date != "2024-02-06" {
		t.Errorf("date = %q, want the local calendar day", first.Date)
	}
	if first.ActivityLevel != models.LevelVeryActive {
		t.Errorf("level = %s, want Very Active", first.ActivityLevel)
	}
	if got[1].ActivityLevel != models.LevelSedentary {
		t.Errorf("second level = %s, want Sedentary", got[1].ActivityLevel)
	}
	if !got[1].Present.Has(models.RequiredActivityFields) {
		t.Errorf("present = %b, want all required fields", got[1].Present)
	}
}

// TestSleepAggregated verifies hours become minutes, core counts as light and
// efficiency is asleep over in-bed time.
func TestSleepAggregated(t *testing.T) {
	raw := json.RawMessage(`[{
		"date": "2024-02-06", "totalSleep": 7.5, "deep": 1.5, "rem": 2.0, "core": 4.0,
		"inBed": 8.0, "sleepStart": "2024-02-05 23:00:00 -0800", "sleepEnd": "2024-02-06 07:00:00 -0800"
	}]`)
	got := newAdapter().Sleep(raw)
	if len(got) != 1 {
		t.Fatalf("got %d sessions", len(got))
	}
	s := got[0]
	if s.DurationMinutes != 450 {
		t.Errorf("duration = %d, want 450", s.DurationMinutes)
	}
	if s.DeepSleepMinutes != 90 || s.RemSleepMinutes != 120 || s.LightSleepMinutes != 240 {
		t.Errorf("stages = %d/%d/%d", s.DeepSleepMinutes, s.RemSleepMinutes, s.LightSleepMinutes)
	}
	if s.DeepSleepPercentage != 20 || s.RemSleepPercentage != 27 || s.LightSleepPercentage != 53 {
		t.Errorf("split = %d/%d/%d, want 20/27/53", s.DeepSleepPercentage, s.RemSleepPercentage, s.LightSleepPercentage)
	}
	if s.Efficiency != 94 {
		t.Errorf("efficiency = %d, want 94", s.Efficiency)
	}
	if s.StartTime != "2024-02-05T23:00:00-08:00" {
		t.Errorf("startTime = %q", s.StartTime)
	}
	if s.ExplicitScore() {
		t.Error("apple summaries carry no score")
	}
}

// TestSleepPerStageGroupsNights verifies segments are grouped by end date,
// localized stage names are understood and awake segments are counted.
func TestSleepPerStageGroupsNights(t *testing.T) {
	raw := json.RawMessage(`[
		{"startDate":"2024-02-05 23:00:00 -0800","endDate":"2024-02-06 01:00:00 -0800","value":"Core"},
		{"startDate":"2024-02-06 01:00:00 -0800","endDate":"2024-02-06 02:30:00 -0800","value":"Deep"},
		{"startDate":"2024-02-06 02:30:00 -0800","endDate":"2024-02-06 02:45:00 -0800","value":"Awake"},
		{"startDate":"2024-02-06 02:45:00 -0800","endDate":"2024-02-06 04:25:00 -0800","value":"REM"},
		{"startDate":"2024-02-06 04:25:00 -0800","endDate":"2024-02-06 07:00:00 -0800","value":"Kern"},
		{"startDate":"2024-02-06 23:30:00 -0800","endDate":"2024-02-07 06:30:00 -0800","value":"Asleep"},
		{"startDate":"2024-02-06 23:00:00 -0800","endDate":"2024-02-07 07:00:00 -0800","value":"In Bed"},
		{"startDate":"2024-02-07 08:00:00 -0800","endDate":"2024-02-07 09:00:00 -0800","value":"Napping"}
	]`)
	got := newAdapter().Sleep(raw)
	if len(got) != 2 {
		t.Fatalf("got %d nights, want 2", len(got))
	}

	first := got[0]
	if first.Date != "2024-02-06" {
		t.Errorf("first date = %q", first.Date)
	}
	if first.LightSleepMinutes != 275 || first.DeepSleepMinutes != 90 || first.RemSleepMinutes != 100 {
		t.Errorf("stages = %d/%d/%d, want 90/100/275", first.DeepSleepMinutes, first.RemSleepMinutes, first.LightSleepMinutes)
	}
	if first.DurationMinutes != 465 {
		t.Errorf("duration = %d, want 465", first.DurationMinutes)
	}
	if first.AwakeDuringNight != 1 {
		t.Errorf("awake episodes = %d, want 1", first.AwakeDuringNight)
	}
	// 465 asleep over a 480 minute span
	if first.Efficiency != 97 {
		t.Errorf("efficiency = %d, want 97", first.Efficiency)
	}

	second := got[1]
	if second.DurationMinutes != 420 {
		t.Errorf("second duration = %d, want 420", second.DurationMinutes)
	}
	if second.HasStages() {
		t.Error("asleep-only night must not report stage data")
	}
	if second.DeepSleepPercentage != 20 {
		t.Errorf("second deep%% = %d, want default 20", second.DeepSleepPercentage)
	}
	// 420 asleep over 480 in bed
	if second.Efficiency != 88 {
		t.Errorf("second efficiency = %d, want 88", second.Efficiency)
	}
}

// TestSleepPerStageMixedAsleep verifies unstaged "Asleep" minutes in a staged
// night are counted as light sleep.
func TestSleepPerStageMixedAsleep(t *testing.T) {
	raw := json.RawMessage(`[
		{"startDate":"2024-02-05 23:00:00 -0800","endDate":"2024-02-06 05:40:00 -0800","value":"Asleep"},
		{"startDate":"2024-02-06 05:40:00 -0800","endDate":"2024-02-06 06:40:00 -0800","value":"Deep"}
	]`)
	s := newAdapter().Sleep(raw)[0]
	if s.DurationMinutes != 460 || s.LightSleepMinutes != 400 {
		t.Errorf("duration/light = %d/%d, want 460/400", s.DurationMinutes, s.LightSleepMinutes)
	}
	if s.DeepSleepPercentage != 13 || s.LightSleepPercentage != 87 {
		t.Errorf("deep/light pct = %d/%d, want 13/87", s.DeepSleepPercentage, s.LightSleepPercentage)
	}
}

// TestSleepPerStageQtyFallback verifies qty hours are used when start is missing.
func TestSleepPerStageQtyFallback(t *testing.T) {
	raw := json.RawMessage(`[{"startDate":"","endDate":"2024-02-06 07:00:00 -0800","value":"Deep","qty":1.25}]`)
	got := newAdapter().Sleep(raw)
	if len(got) != 1 || got[0].DeepSleepMinutes != 75 {
		t.Fatalf("got %+v", got)
	}
}
