package ingest

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/claude/vitalsync/internal/models"
)

// Number decodes a JSON number or a numeric string ("8000" in Fitbit time series).
// Use *Number fields so absent values stay nil. Values of any other type decode
// as zero instead of failing the whole record.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	*n = Number(f)
	return nil
}

// Int returns the rounded, non-negative integer value. Nil reads as zero.
func (n *Number) Int() int {
	if n == nil {
		return 0
	}
	v := math.Round(float64(*n))
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return int(v)
}

// Float returns the non-negative value. Nil reads as zero.
func (n *Number) Float() float64 {
	if n == nil {
		return 0
	}
	v := float64(*n)
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// First returns the first non-nil number.
func First(ns ...*Number) *Number {
	for _, n := range ns {
		if n != nil {
			return n
		}
	}
	return nil
}

// DecodeArray splits a raw JSON array into its elements. Anything that is not
// an array decodes to nil.
func DecodeArray(raw json.RawMessage) []json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil
	}
	return elems
}

// MergeArrays concatenates the elements of several raw arrays into one array.
// Parts that are not arrays are ignored.
func MergeArrays(parts ...json.RawMessage) json.RawMessage {
	var all []json.RawMessage
	for _, p := range parts {
		all = append(all, DecodeArray(p)...)
	}
	if len(all) == 0 {
		return nil
	}
	out, err := json.Marshal(all)
	if err != nil {
		return nil
	}
	return out
}

// Count returns the number of elements in a raw array.
func Count(raw json.RawMessage) int {
	return len(DecodeArray(raw))
}

// TimeLabel converts an intraday time ("15:04:05", "15:04", "3:04 PM") into the
// canonical 12-hour label. The second result is false when s is not a time of day.
func TimeLabel(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if _, ok := models.ParseHourLabel(s); ok {
		t, err := time.Parse("3:04 PM", strings.ToUpper(s))
		if err != nil {
			return s, true
		}
		return models.ClockLabel(t.Hour(), t.Minute()), true
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return models.ClockLabel(t.Hour(), t.Minute()), true
		}
	}
	return "", false
}

// DateOf returns the YYYY-MM-DD calendar date of a provider timestamp, or ""
// when it cannot be parsed.
func DateOf(s string) string {
	t, ok := models.ParseFlexTime(s)
	if !ok {
		return ""
	}
	return t.Format(models.DateLayout)
}

// Timestamp normalizes a provider timestamp to RFC3339, keeping the input
// unchanged when it cannot be parsed.
func Timestamp(s string) string {
	t, ok := models.ParseFlexTime(s)
	if !ok {
		return s
	}
	return t.Format(time.RFC3339)
}

// FromMillis formats epoch milliseconds as RFC3339 UTC.
func FromMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
