package applehealth

import "encoding/json"

// sleepFormat describes whether a sleep element is a nightly aggregate or a single stage segment.
type sleepFormat int

const (
	sleepAggregated sleepFormat = iota // has "totalSleep"
	sleepPerStage                      // has "startDate"
	sleepUnknown
)

// detectSleepFormat probes one raw sleep element for its distinguishing keys.
func detectSleepFormat(raw json.RawMessage) sleepFormat {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return sleepUnknown
	}
	if _, ok := probe["totalSleep"]; ok {
		return sleepAggregated
	}
	if _, ok := probe["startDate"]; ok {
		return sleepPerStage
	}
	// exports without totalSleep still carry the nightly window
	if _, ok := probe["sleepStart"]; ok {
		return sleepAggregated
	}
	return sleepUnknown
}
