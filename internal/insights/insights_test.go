package insights

import (
	"testing"

	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/thresholds"
)

func daily(date string, steps, minutes int) models.ActivitySample {
	return models.ActivitySample{Date: date, DateTime: date, Steps: steps, ActiveMinutes: minutes, Calories: steps / 5, Distance: float64(steps) / 1300}
}

func hour(h, steps int) models.ActivitySample {
	return models.ActivitySample{Date: "2024-02-06", Time: models.HourLabel(h), Steps: steps}
}

// TestTrendEqualIsStable verifies identical periods give stable, zero-change trends.
func TestTrendEqualIsStable(t *testing.T) {
	cur := []models.ActivitySample{daily("2024-02-05", 8000, 40), daily("2024-02-06", 9000, 35)}
	prev := []models.ActivitySample{daily("2024-01-29", 8000, 40), daily("2024-01-30", 9000, 35)}
	got := Analyze(cur, prev, models.PeriodWeek, thresholds.Default())
	if len(got.Trends) != 4 {
		t.Fatalf("got %d trends, want 4", len(got.Trends))
	}
	for _, tr := range got.Trends {
		if tr.ChangeType != ChangeStable || tr.Change != 0 {
			t.Errorf("%s: change %v (%s), want stable 0", tr.Title, tr.Change, tr.ChangeType)
		}
	}
}

func TestNewTrend(t *testing.T) {
	tests := []struct {
		cur, prev float64
		change float64
		kind   string
	}{
		{110, 100, 10, ChangeIncrease},
		{105, 100, 5, ChangeStable},
		{94, 100, -6, ChangeDecrease},
		{50, 0, 100, ChangeIncrease},
		{0, 0, 100, ChangeIncrease},
		{1000, 3000, -66.7, ChangeDecrease},
	}
	for _, tt := range tests {
		got := NewTrend("Steps", tt.cur, tt.prev, 5)
		if got.Change != tt.change || got.ChangeType != tt.kind {
			t.Errorf("NewTrend(%v, %v) = %v %s, want %v %s", tt.cur, tt.prev, got.Change, got.ChangeType, tt.change, tt.kind)
		}
	}
}

func TestLevel(t *testing.T) {
	a := thresholds.Default().Activity
	tests := []struct {
		steps, minutes float64
		want string
	}{
		{10000, 65, LevelHigh},
		{3000, 60, LevelHigh},
		{7500, 10, LevelModerate},
		{2000, 30, LevelModerate},
		{6000, 20, LevelLow},
	}
	for _, tt := range tests {
		if got := Level(tt.steps, tt.minutes, a); got != tt.want {
			t.Errorf("Level(%v, %v) = %s, want %s", tt.steps, tt.minutes, got, tt.want)
		}
	}
}

// TestTimeOfDay verifies the bucket boundaries, including noon as afternoon.
func TestTimeOfDay(t *testing.T) {
	tests := []struct {
		name    string
		samples []models.ActivitySample
		want    string
	}{
		{"morning", []models.ActivitySample{hour(7, 3000), hour(13, 1000), hour(19, 500)}, MorningActive},
		{"noon counts as afternoon", []models.ActivitySample{hour(8, 1000), hour(12, 1500)}, AfternoonActive},
		{"late afternoon", []models.ActivitySample{hour(16, 2000), hour(17, 1999)}, AfternoonActive},
		{"evening", []models.ActivitySample{hour(9, 100), hour(20, 4000)}, EveningActive},
		{"tie goes to morning", []models.ActivitySample{hour(9, 1000), hour(20, 1000)}, MorningActive},
		{"overnight ignored", []models.ActivitySample{hour(2, 9000), hour(21, 10)}, EveningActive},
		{"unlabeled ignored", []models.ActivitySample{{Steps: 9000}, hour(14, 10)}, AfternoonActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeOfDay(tt.samples); got != tt.want {
				t.Errorf("TimeOfDay() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWeekly(t *testing.T) {
	// 2024-02-05 is a Monday, 2024-02-10 a Saturday
	weekdays := []models.ActivitySample{daily("2024-02-05", 6000, 0), daily("2024-02-06", 6000, 0)}
	tests := []struct {
		name    string
		weekend int
		want    string
	}{
		{"weekend active", 9000, WeekendActive},
		{"weekday active", 4000, WeekdayActive},
		{"consistent", 6500, ConsistentWeekly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := append([]models.ActivitySample{daily("2024-02-10", tt.weekend, 0)}, weekdays...)
			if got := Weekly(samples, 1.2); got != tt.want {
				t.Errorf("Weekly() = %s, want %s", got, tt.want)
			}
		})
	}
}

// TestAnalyzeLowActivityRecommendations verifies priority order and the top-3 limit.
func TestAnalyzeLowActivityRecommendations(t *testing.T) {
	cur := []models.ActivitySample{daily("2024-02-05", 3000, 10), daily("2024-02-10", 6000, 12)}
	got := Analyze(cur, nil, models.PeriodWeek, thresholds.Default())

	if len(got.Recommendations) != 3 {
		t.Fatalf("got %d recommendations, want 3", len(got.Recommendations))
	}
	want := []string{"Increase Daily Steps", "Step Goal Strategy", "Active Minutes Focus"}
	for i, title := range want {
		if got.Recommendations[i].Title != title {
			t.Errorf("rec[%d] = %q, want %q", i, got.Recommendations[i].Title, title)
		}
		if got.Recommendations[i].Priority != models.PriorityHigh {
			t.Errorf("rec[%d] priority = %s, want high", i, got.Recommendations[i].Priority)
		}
	}
	if got.Patterns[0].Value != LevelLow {
		t.Errorf("level = %s, want Low", got.Patterns[0].Value)
	}
	if got.Patterns[1].Title != "Weekly Distribution" || got.Patterns[1].Value != WeekendActive {
		t.Errorf("weekly pattern = %+v", got.Patterns[1])
	}
	if got.Trends[0].ChangeType != ChangeIncrease || got.Trends[0].Change != 100 {
		t.Errorf("steps trend without previous data = %+v", got.Trends[0])
	}
}

// TestAnalyzeDayUsesDailyTotals verifies an hourly breakdown is judged as one day.
func TestAnalyzeDayUsesDailyTotals(t *testing.T) {
	var cur []models.ActivitySample
	for h := 6; h < 18; h++ {
		s := hour(h, 1000)
		s.ActiveMinutes = 6
		cur = append(cur, s)
	}
	got := Analyze(cur, nil, models.PeriodDay, thresholds.Default())
	if got.Patterns[0].Value != LevelHigh {
		t.Errorf("level = %s, want High for 12000 steps", got.Patterns[0].Value)
	}
	if got.Patterns[1].Title != "Most Active Time" || got.Patterns[1].Value != MorningActive {
		t.Errorf("time pattern = %+v", got.Patterns[1])
	}
	if got.Patterns[1].Description != "Most of your activity happens during the morning." {
		t.Errorf("description = %q", got.Patterns[1].Description)
	}
	titles := map[string]bool{}
	for _, r := range got.Recommendations {
		titles[r.Title] = true
	}
	if !titles["Stay Hydrated"] || !titles["Add Evening Movement"] {
		t.Errorf("recommendations = %+v", got.Recommendations)
	}
	if got.Recommendations[0].Title != "Stay Hydrated" {
		t.Errorf("medium hydration tip should sort before the low tip, got %+v", got.Recommendations)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	got := Analyze(nil, []models.ActivitySample{daily("2024-02-05", 1, 1)}, models.PeriodWeek, thresholds.Default())
	if got.Trends == nil || len(got.Trends) != 0 || len(got.Patterns) != 0 || len(got.Recommendations) != 0 {
		t.Errorf("got %+v, want empty non-nil insights", got)
	}
}

func TestComputeStats(t *testing.T) {
	day := []models.ActivitySample{hour(8, 1000), hour(9, 2500)}
	day[0].Distance, day[1].Distance = 0.5, 1.26
	got := ComputeStats(day, models.PeriodDay)
	if got.Steps != 3500 || got.Distance != 1.76 || got.Days != 1 {
		t.Errorf("day stats = %+v", got)
	}

	week := []models.ActivitySample{daily("2024-02-05", 8000, 30), daily("2024-02-06", 9001, 45)}
	got = ComputeStats(week, models.PeriodWeek)
	if got.Steps != 8501 || got.ActiveMinutes != 38 || got.Days != 2 {
		t.Errorf("week stats = %+v", got)
	}
	if (ComputeStats(nil, models.PeriodWeek) != Stats{}) {
		t.Error("empty input should give zero stats")
	}
}

func TestThousands(t *testing.T) {
	for n, want := range map[int]string{0: "0", 999: "999", 1000: "1,000", 10000: "10,000", 1234567: "1,234,567"} {
		if got := thousands(n); got != want {
			t.Errorf("thousands(%d) = %q, want %q", n, got, want)
		}
	}
}
