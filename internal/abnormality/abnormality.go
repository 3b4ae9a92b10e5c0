// Package abnormality flags irregular sleep patterns across a period.
package abnormality

import (
	"fmt"
	"math"
	"slices"

	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/sleep"
	"github.com/claude/vitalsync/internal/thresholds"
)

// Severity grades an abnormality.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

func (s Severity) weight() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// Abnormality is one flagged sleep pattern.
type Abnormality struct {
	Type     string   `json:"type"`
	Detail   string   `json:"detail"`
	Severity Severity `json:"severity"`
}

// Detect flags low deep or REM share, poor efficiency, erratic duration and
// frequent awakenings. It needs at least a.MinRecords sessions and returns
// the a.MaxResults most severe flags.
func Detect(sessions []models.SleepSession, a thresholds.Abnormality) []Abnormality {
	out := []Abnormality{}
	if len(sessions) < a.MinRecords {
		return out
	}

	if deep := average(sessions, func(s models.SleepSession) int { return s.DeepSleepPercentage }); deep < a.DeepPct {
		out = append(out, Abnormality{
			Type:     "Insufficient Deep Sleep",
			Detail:   fmt.Sprintf("Average %d%% is below recommended 15-20%%", deep),
			Severity: SeverityMedium,
		})
	}

	if rem := average(sessions, func(s models.SleepSession) int { return s.RemSleepPercentage }); rem < a.REMPct {
		out = append(out, Abnormality{
			Type:     "Low REM Sleep",
			Detail:   fmt.Sprintf("Average %d%% is below recommended 20-25%%", rem),
			Severity: SeverityMedium,
		})
	}

	if eff := average(sessions, func(s models.SleepSession) int { return s.Efficiency }); eff < a.Efficiency {
		sev := SeverityMedium
		if eff < a.EfficiencyHigh {
			sev = SeverityHigh
		}
		out = append(out, Abnormality{
			Type:     "Poor Sleep Efficiency",
			Detail:   fmt.Sprintf("%d%% efficiency indicates disrupted sleep", eff),
			Severity: sev,
		})
	}

	if v := sleep.DurationVariability(sessions); v > a.DurationStdDev {
		sev := SeverityMedium
		if v > a.DurationStdDevHi {
			sev = SeverityHigh
		}
		out = append(out, Abnormality{
			Type:     "Inconsistent Sleep Duration",
			Detail:   fmt.Sprintf("Variability of %dmin suggests irregular schedule", v),
			Severity: sev,
		})
	}

	if w := sleep.WakeEpisodes(sessions); w > a.WakeEpisodes {
		sev := SeverityMedium
		if w > a.WakeEpisodesHigh {
			sev = SeverityHigh
		}
		out = append(out, Abnormality{
			Type:     "Frequent Awakenings",
			Detail:   fmt.Sprintf("Average %d awakenings per night", w),
			Severity: sev,
		})
	}

	slices.SortStableFunc(out, func(x, y Abnormality) int {
		return y.Severity.weight() - x.Severity.weight()
	})
	if len(out) > a.MaxResults {
		out = out[:a.MaxResults]
	}
	return out
}

func average(sessions []models.SleepSession, field func(models.SleepSession) int) int {
	var sum int
	for _, s := range sessions {
		sum += field(s)
	}
	return int(math.Round(float64(sum) / float64(len(sessions))))
}
