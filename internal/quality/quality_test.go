package quality

import (
	"testing"

	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/thresholds"
)

func activitySamples(n int, present models.FieldSet, withTime bool) []models.ActivitySample {
	out := make([]models.ActivitySample, n)
	for i := range out {
		out[i] = models.ActivitySample{Date: "2024-02-06", DateTime: "2024-02-06", Present: present}
		if withTime {
			out[i].Time = models.HourLabel(i % 24)
		}
	}
	return out
}

func TestActivityScore(t *testing.T) {
	q := thresholds.Default().Quality
	tests := []struct {
		name    string
		samples []models.ActivitySample
		period  models.Period
		want    int
	}{
		{"empty", nil, models.PeriodWeek, 0},
		// 0.3*2 + 0.4*100 + 0 (single record)
		{"single complete record", activitySamples(1, models.RequiredActivityFields, false), models.PeriodWeek, 41},
		// 0.3*100 + 0.4*100 + 0.3*30
		{"full target", activitySamples(50, models.RequiredActivityFields, false), models.PeriodMonth, 79},
		// day period without time labels: 0.3*4 + 0.4*100 + 0.3*15
		{"day without time key", activitySamples(2, models.RequiredActivityFields, false), models.PeriodDay, 46},
		// day period with labels: 0.3*48 + 0.4*100 + 0.3*30
		{"day hourly", activitySamples(24, models.RequiredActivityFields, true), models.PeriodDay, 63},
		// nothing present: 0.3*20 + 0 + 0.3*30
		{"incomplete", activitySamples(10, 0, false), models.PeriodWeek, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Activity(tt.samples, tt.period, q); got != tt.want {
				t.Errorf("Activity() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestSleepScore verifies partial completeness is proportional.
func TestSleepScore(t *testing.T) {
	q := thresholds.Default().Quality
	sessions := make([]models.SleepSession, 10)
	for i := range sessions {
		sessions[i].Date = "2024-02-06"
		if i%2 == 0 {
			sessions[i].Present = models.RequiredSleepFields
		}
	}
	// 0.3*100 + 0.4*50 + 0.3*30
	if got := Sleep(sessions, q); got != 59 {
		t.Errorf("Sleep() = %d, want 59", got)
	}
	sessions[3].Date = ""
	// one unkeyed record drops consistency to 15
	if got := Sleep(sessions, q); got != 55 {
		t.Errorf("Sleep() with unkeyed record = %d, want 55", got)
	}
	// a night is keyed by its start time as well as its date
	sessions[3].StartTime = "2024-02-05T23:00:00Z"
	if got := Sleep(sessions, q); got != 59 {
		t.Errorf("Sleep() keyed by startTime = %d, want 59", got)
	}
}

// TestScoreAllCoversEverySource verifies missing providers score 0 rather than being omitted.
func TestScoreAllCoversEverySource(t *testing.T) {
	q := thresholds.Default().Quality
	got := ActivityAll(map[models.Source][]models.ActivitySample{
		models.SourceFitbit: activitySamples(50, models.RequiredActivityFields, false),
	}, models.PeriodWeek, q)
	if len(got) != len(models.Sources) {
		t.Fatalf("got %d scores, want %d", len(got), len(models.Sources))
	}
	if got[models.SourceFitbit] != 79 || got[models.SourceGoogleFit] != 0 || got[models.SourceAppleHealth] != 0 {
		t.Errorf("scores = %v", got)
	}
	if s := SleepAll(nil, q); len(s) != len(models.Sources) {
		t.Errorf("SleepAll(nil) returned %d scores", len(s))
	}
}

func TestLabel(t *testing.T) {
	for score, want := range map[int]string{100: LabelGood, 70: LabelGood, 69: LabelFair, 40: LabelFair, 39: LabelPoor, 0: LabelPoor} {
		if got := Label(score); got != want {
			t.Errorf("Label(%d) = %q, want %q", score, got, want)
		}
	}
}
