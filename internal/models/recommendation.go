package models

import "slices"

// Priority ranks a recommendation. Lower rank sorts first.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Recommendation is one actionable suggestion.
type Recommendation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// TopRecommendations stable-sorts recs by priority and keeps at most limit.
// Items of equal priority keep the order they were added in.
func TopRecommendations(recs []Recommendation, limit int) []Recommendation {
	out := append([]Recommendation{}, recs...)
	slices.SortStableFunc(out, func(a, b Recommendation) int {
		return a.Priority.rank() - b.Priority.rank()
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
