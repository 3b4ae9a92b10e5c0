package thresholds

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CurrentVersion identifies the built-in table. Bump it when a default changes.
const CurrentVersion = "2024.1"

// Cutoff is a steps/active-minutes pair used by the activity level rules.
type Cutoff struct {
	Steps   int `yaml:"steps" json:"steps"`
	Minutes int `yaml:"minutes" json:"minutes"`
}

// LevelCutoffs holds the three non-sedentary cutoffs of an activity level rule.
type LevelCutoffs struct {
	VeryActive    Cutoff `yaml:"very_active" json:"very_active"`
	Active        Cutoff `yaml:"active" json:"active"`
	LightlyActive Cutoff `yaml:"lightly_active" json:"lightly_active"`
}

// Activity groups activity-domain thresholds.
type Activity struct {
	// Daily applies to day aggregates; every field of a cutoff must be met.
	Daily LevelCutoffs `yaml:"daily" json:"daily"`
	// Hourly applies to synthesized intraday buckets; either field suffices.
	Hourly LevelCutoffs `yaml:"hourly" json:"hourly"`

	HighSteps       int     `yaml:"high_steps" json:"high_steps"`
	HighMinutes     int     `yaml:"high_minutes" json:"high_minutes"`
	ModerateSteps   int     `yaml:"moderate_steps" json:"moderate_steps"`
	ModerateMinutes int     `yaml:"moderate_minutes" json:"moderate_minutes"`
	StepGoal        int     `yaml:"step_goal" json:"step_goal"`
	LowStepGoal     int     `yaml:"low_step_goal" json:"low_step_goal"`
	MinutesGoal     int     `yaml:"minutes_goal" json:"minutes_goal"`
	TrendBandPct    float64 `yaml:"trend_band_pct" json:"trend_band_pct"`
	WeekdayRatio    float64 `yaml:"weekday_ratio" json:"weekday_ratio"`
	MaxRecommend    int     `yaml:"max_recommendations" json:"max_recommendations"`
}

// Hourly configures the intraday distributor.
type Hourly struct {
	Weights       []float64 `yaml:"weights" json:"weights"`
	MinutesCap    int       `yaml:"minutes_cap" json:"minutes_cap"`
	StepsPerKm    float64   `yaml:"steps_per_km" json:"steps_per_km"`
	MaxDayRecords int       `yaml:"max_day_records" json:"max_day_records"`
}

// Band maps an inclusive integer range to a sub-score.
type Band struct {
	Min   int `yaml:"min" json:"min"`
	Max   int `yaml:"max" json:"max"`
	Score int `yaml:"score" json:"score"`
}

// Sleep groups sleep-domain thresholds and defaults.
type Sleep struct {
	DefaultEfficiency int `yaml:"default_efficiency" json:"default_efficiency"`
	DefaultScore      int `yaml:"default_score" json:"default_score"`
	DefaultDeepPct    int `yaml:"default_deep_pct" json:"default_deep_pct"`
	DefaultREMPct     int `yaml:"default_rem_pct" json:"default_rem_pct"`
	DefaultLightPct   int `yaml:"default_light_pct" json:"default_light_pct"`
	CycleMinutes      int `yaml:"cycle_minutes" json:"cycle_minutes"`

	// DurationBands and DeepBands are checked in order; the first match wins.
	// Values outside every band get the matching Floor score.
	DurationBands []Band `yaml:"duration_bands" json:"duration_bands"`
	DurationFloor int    `yaml:"duration_floor" json:"duration_floor"`
	DeepBands     []Band `yaml:"deep_bands" json:"deep_bands"`
	DeepFloor     int    `yaml:"deep_floor" json:"deep_floor"`

	DurationWeight   float64 `yaml:"duration_weight" json:"duration_weight"`
	EfficiencyWeight float64 `yaml:"efficiency_weight" json:"efficiency_weight"`
	DeepWeight       float64 `yaml:"deep_weight" json:"deep_weight"`
	ScoreMin         int     `yaml:"score_min" json:"score_min"`
	ScoreMax         int     `yaml:"score_max" json:"score_max"`

	BedtimeDivisor     float64 `yaml:"bedtime_divisor" json:"bedtime_divisor"`
	BedtimeDefault     int     `yaml:"bedtime_default" json:"bedtime_default"`
	MaxRecommend       int     `yaml:"max_recommendations" json:"max_recommendations"`
	ShortSleepMinutes  int     `yaml:"short_sleep_minutes" json:"short_sleep_minutes"`
	TargetSleepMinutes int     `yaml:"target_sleep_minutes" json:"target_sleep_minutes"`
	ContinuityPct      int     `yaml:"continuity_pct" json:"continuity_pct"`
}

// Abnormality holds the anomaly detector cutoffs.
type Abnormality struct {
	MinRecords        int `yaml:"min_records" json:"min_records"`
	DeepPct           int `yaml:"deep_pct" json:"deep_pct"`
	REMPct            int `yaml:"rem_pct" json:"rem_pct"`
	Efficiency        int `yaml:"efficiency" json:"efficiency"`
	EfficiencyHigh    int `yaml:"efficiency_high" json:"efficiency_high"`
	DurationStdDev    int `yaml:"duration_stddev" json:"duration_stddev"`
	DurationStdDevHi  int `yaml:"duration_stddev_high" json:"duration_stddev_high"`
	WakeEpisodes      int `yaml:"wake_episodes" json:"wake_episodes"`
	WakeEpisodesHigh  int `yaml:"wake_episodes_high" json:"wake_episodes_high"`
	MaxResults        int `yaml:"max_results" json:"max_results"`
}

// Quality configures the per-provider data quality score.
type Quality struct {
	QuantityWeight     float64 `yaml:"quantity_weight" json:"quantity_weight"`
	CompletenessWeight float64 `yaml:"completeness_weight" json:"completeness_weight"`
	ConsistencyWeight  float64 `yaml:"consistency_weight" json:"consistency_weight"`
	ActivityTarget     int     `yaml:"activity_target" json:"activity_target"`
	SleepTarget        int     `yaml:"sleep_target" json:"sleep_target"`
	ConsistentScore    float64 `yaml:"consistent_score" json:"consistent_score"`
	InconsistentScore  float64 `yaml:"inconsistent_score" json:"inconsistent_score"`
}

// Table is the single source of tunable constants for the metrics engine.
type Table struct {
	Version     string      `yaml:"version" json:"version"`
	Activity    Activity    `yaml:"activity" json:"activity"`
	Hourly      Hourly      `yaml:"hourly" json:"hourly"`
	Sleep       Sleep       `yaml:"sleep" json:"sleep"`
	Abnormality Abnormality `yaml:"abnormality" json:"abnormality"`
	Quality     Quality     `yaml:"quality" json:"quality"`
}

// Default returns the built-in table. Every call returns a fresh copy.
func Default() Table {
	return Table{
		Version: CurrentVersion,
		Activity: Activity{
			Daily: LevelCutoffs{
				VeryActive:    Cutoff{Steps: 10000, Minutes: 60},
				Active:        Cutoff{Steps: 7500, Minutes: 30},
				LightlyActive: Cutoff{Steps: 5000, Minutes: 20},
			},
			Hourly: LevelCutoffs{
				VeryActive:    Cutoff{Steps: 3000, Minutes: 30},
				Active:        Cutoff{Steps: 1500, Minutes: 15},
				LightlyActive: Cutoff{Steps: 500, Minutes: 5},
			},
			HighSteps:       10000,
			HighMinutes:     60,
			ModerateSteps:   7500,
			ModerateMinutes: 30,
			StepGoal:        10000,
			LowStepGoal:     5000,
			MinutesGoal:     30,
			TrendBandPct:    5,
			WeekdayRatio:    1.2,
			MaxRecommend:    3,
		},
		Hourly: Hourly{
			// 00:00 through 23:00. Overnight hours get nothing.
			Weights: []float64{
				0, 0, 0, 0, 0, 0,
				0.02, 0.05, 0.08, 0.06, 0.05, 0.06,
				0.09, 0.07, 0.05, 0.05, 0.06, 0.08,
				0.09, 0.07, 0.05, 0.03, 0.02, 0.01,
			},
			MinutesCap:    60,
			StepsPerKm:    2000,
			MaxDayRecords: 10,
		},
		Sleep: Sleep{
			DefaultEfficiency: 85,
			DefaultScore:      75,
			DefaultDeepPct:    20,
			DefaultREMPct:     25,
			DefaultLightPct:   55,
			CycleMinutes:      90,
			DurationBands: []Band{
				{Min: 420, Max: 540, Score: 100},
				{Min: 360, Max: 419, Score: 80},
				{Min: 541, Max: 600, Score: 80},
				{Min: 300, Max: 359, Score: 60},
				{Min: 601, Max: 1 << 30, Score: 60},
			},
			DurationFloor: 40,
			DeepBands: []Band{
				{Min: 20, Max: 25, Score: 100},
				{Min: 15, Max: 19, Score: 80},
				{Min: 26, Max: 30, Score: 80},
				{Min: 10, Max: 14, Score: 60},
				{Min: 31, Max: 100, Score: 60},
			},
			DeepFloor:          40,
			DurationWeight:     0.4,
			EfficiencyWeight:   0.3,
			DeepWeight:         0.3,
			ScoreMin:           0,
			ScoreMax:           100,
			BedtimeDivisor:     0.6,
			BedtimeDefault:     80,
			MaxRecommend:       3,
			ShortSleepMinutes:  360,
			TargetSleepMinutes: 420,
			ContinuityPct:      85,
		},
		Abnormality: Abnormality{
			MinRecords:       3,
			DeepPct:          15,
			REMPct:           15,
			Efficiency:       80,
			EfficiencyHigh:   70,
			DurationStdDev:   90,
			DurationStdDevHi: 120,
			WakeEpisodes:     3,
			WakeEpisodesHigh: 5,
			MaxResults:       3,
		},
		Quality: Quality{
			QuantityWeight:     0.3,
			CompletenessWeight: 0.4,
			ConsistencyWeight:  0.3,
			ActivityTarget:     50,
			SleepTarget:        10,
			ConsistentScore:    30,
			InconsistentScore:  15,
		},
	}
}

// Load reads a YAML thresholds file on top of the built-in defaults.
// Keys missing from the file keep their default values.
func Load(path string) (Table, error) {
	t := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("reading thresholds file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parsing thresholds file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, fmt.Errorf("thresholds validation: %w", err)
	}
	return t, nil
}

// Validate reports the first structural problem in the table.
func (t Table) Validate() error {
	if t.Version == "" {
		return fmt.Errorf("version is required")
	}
	if len(t.Hourly.Weights) != 24 {
		return fmt.Errorf("hourly.weights must have 24 entries, got %d", len(t.Hourly.Weights))
	}
	var sum float64
	for h, w := range t.Hourly.Weights {
		if w < 0 {
			return fmt.Errorf("hourly.weights[%d] is negative", h)
		}
		sum += w
	}
	if sum <= 0 {
		return fmt.Errorf("hourly.weights must not all be zero")
	}
	if t.Hourly.StepsPerKm <= 0 {
		return fmt.Errorf("hourly.steps_per_km must be positive")
	}
	if t.Quality.ActivityTarget <= 0 || t.Quality.SleepTarget <= 0 {
		return fmt.Errorf("quality targets must be positive")
	}
	if t.Sleep.CycleMinutes <= 0 {
		return fmt.Errorf("sleep.cycle_minutes must be positive")
	}
	if t.Sleep.BedtimeDivisor <= 0 {
		return fmt.Errorf("sleep.bedtime_divisor must be positive")
	}
	if t.Sleep.ScoreMin > t.Sleep.ScoreMax {
		return fmt.Errorf("sleep.score_min exceeds score_max")
	}
	if d := t.Sleep.DefaultDeepPct + t.Sleep.DefaultREMPct + t.Sleep.DefaultLightPct; d != 100 {
		return fmt.Errorf("sleep default stage percentages sum to %d, want 100", d)
	}
	if t.Activity.MaxRecommend <= 0 || t.Sleep.MaxRecommend <= 0 || t.Abnormality.MaxResults <= 0 {
		return fmt.Errorf("result limits must be positive")
	}
	return nil
}

// HourlyWeightSum returns the sum of the hourly distribution weights.
func (t Table) HourlyWeightSum() float64 {
	var sum float64
	for _, w := range t.Hourly.Weights {
		sum += w
	}
	return sum
}
