// Package source chooses which provider's canonical records become the active
// dataset for a pass.
//
// Selection is resolved by walking an ordered list of named strategies; the
// first strategy that matches the selection decides the outcome. Strategies
// are generic over the record type so activity samples and sleep sessions
// share one policy.
package source

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/claude/vitalsync/internal/models"
)

// Selection is a user's data source choice.
type Selection string

const (
	SelectAuto     Selection = "auto"
	SelectCombined Selection = "combined"
)

// ActiveCombined is reported as the active source of a combined selection.
const ActiveCombined = "combined"

// Selections lists every accepted selection, defaults first.
var Selections = []Selection{
	SelectAuto,
	SelectCombined,
	Selection(models.SourceFitbit),
	Selection(models.SourceGoogleFit),
	Selection(models.SourceAppleHealth),
}

// AutoOrder is the priority order of the auto strategy.
var AutoOrder = []models.Source{models.SourceGoogleFit, models.SourceFitbit, models.SourceAppleHealth}

// ParseSelection validates a selection. Empty means auto; provider names
// accept the same spellings as models.ParseSource.
func ParseSelection(s string) (Selection, error) {
	switch Selection(s) {
	case "", SelectAuto:
		return SelectAuto, nil
	case SelectCombined:
		return SelectCombined, nil
	}
	src, err := models.ParseSource(s)
	if err != nil {
		return "", fmt.Errorf("invalid source selection %q", s)
	}
	return Selection(src), nil
}

// Provider returns the provider an explicit selection names.
func (s Selection) Provider() (models.Source, bool) {
	src := models.Source(s)
	return src, src.Valid()
}

func (s Selection) isExplicit() bool {
	_, ok := s.Provider()
	return ok
}

var (
	// ErrSourceUnavailable matches any *SourceUnavailableError.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrNoData matches any *NoDataError.
	ErrNoData = errors.New("no data")
)

// SourceUnavailableError reports an explicitly selected provider with no records.
type SourceUnavailableError struct {
	Source models.Source
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s has no data for this period", e.Source)
}

func (e *SourceUnavailableError) Is(target error) bool { return target == ErrSourceUnavailable }

// NoDataError reports that no provider had records for the selection.
type NoDataError struct {
	Selection Selection
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data for selection %s", e.Selection)
}

func (e *NoDataError) Is(target error) bool { return target == ErrNoData }

// Record is a canonical record that can be ordered in time.
type Record interface {
	models.ActivitySample | models.SleepSession
	Timestamp() time.Time
}

// Sets holds each provider's canonical records.
type Sets[T Record] map[models.Source][]T

// Strategy is one named step of the selection policy.
type Strategy[T Record] struct {
	Name  string
	Match func(Selection) bool
	Apply func(Sets[T], Selection) ([]T, string, error)
}

// Strategies returns the selection policy in evaluation order.
func Strategies[T Record]() []Strategy[T] {
	return []Strategy[T]{
		{
			Name:  "explicit",
			Match: Selection.isExplicit,
			Apply: Explicit[T],
		},
		{
			Name:  "combined",
			Match: func(s Selection) bool { return s == SelectCombined },
			Apply: func(sets Sets[T], _ Selection) ([]T, string, error) { return Combined(sets) },
		},
		{
			Name:  "auto",
			Match: func(s Selection) bool { return s == SelectAuto || s == "" },
			Apply: func(sets Sets[T], _ Selection) ([]T, string, error) { return Auto(sets) },
		},
	}
}

// Select resolves sel against sets and returns the active dataset and the
// name of the source it came from.
func Select[T Record](sets Sets[T], sel Selection) ([]T, string, error) {
	for _, st := range Strategies[T]() {
		if st.Match(sel) {
			return st.Apply(sets, sel)
		}
	}
	return nil, "", fmt.Errorf("invalid source selection %q", sel)
}

// Explicit returns the named provider's records. There is no fallback: an
// empty set is a *SourceUnavailableError.
func Explicit[T Record](sets Sets[T], sel Selection) ([]T, string, error) {
	src, ok := sel.Provider()
	if !ok {
		return nil, "", fmt.Errorf("invalid source selection %q", sel)
	}
	recs := sets[src]
	if len(recs) == 0 {
		return nil, "", &SourceUnavailableError{Source: src}
	}
	return recs, string(src), nil
}

// Combined concatenates every non-empty provider set in source order and
// stable-sorts the union by timestamp. Records are not deduplicated.
func Combined[T Record](sets Sets[T]) ([]T, string, error) {
	var all []T
	for _, src := range models.Sources {
		all = append(all, sets[src]...)
	}
	if len(all) == 0 {
		return nil, "", &NoDataError{Selection: SelectCombined}
	}
	slices.SortStableFunc(all, func(a, b T) int {
		return a.Timestamp().Compare(b.Timestamp())
	})
	return all, ActiveCombined, nil
}

// Auto returns the first non-empty set in AutoOrder.
func Auto[T Record](sets Sets[T]) ([]T, string, error) {
	for _, src := range AutoOrder {
		if recs := sets[src]; len(recs) > 0 {
			return recs, string(src), nil
		}
	}
	return nil, "", &NoDataError{Selection: SelectAuto}
}

// Availability reports which providers have at least one record.
func Availability[T Record](sets Sets[T]) map[models.Source]bool {
	out := make(map[models.Source]bool, len(models.Sources))
	for _, src := range models.Sources {
		out[src] = len(sets[src]) > 0
	}
	return out
}
