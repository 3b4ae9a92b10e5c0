package ingest

import (
	"encoding/json"

	"github.com/claude/vitalsync/internal/models"
)

// Adapter converts one provider's raw record arrays into canonical records.
// Implementations never fail: null, non-array or undecodable input yields an
// empty slice, and undecodable elements are skipped.
type Adapter interface {
	Source() models.Source
	Activity(raw json.RawMessage, period models.Period) []models.ActivitySample
	Sleep(raw json.RawMessage) []models.SleepSession
}

// Raw holds one provider's unparsed payloads for a query window.
type Raw struct {
	Activity json.RawMessage `json:"activity,omitempty"`
	Sleep    json.RawMessage `json:"sleep,omitempty"`
}

// Payload returns the raw array for the given kind.
func (r Raw) Payload(kind models.Kind) json.RawMessage {
	if kind == models.KindSleep {
		return r.Sleep
	}
	return r.Activity
}

// Canonical is one provider's record set after adaptation.
type Canonical struct {
	Activity []models.ActivitySample
	Sleep    []models.SleepSession
}

// Registry dispatches raw payloads to the adapter for their source.
type Registry struct {
	adapters map[models.Source]Adapter
}

// NewRegistry creates a registry from the given adapters. A later adapter for
// the same source replaces an earlier one.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[models.Source]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Source()] = a
	}
	return r
}

// Adapter returns the adapter registered for src.
func (r *Registry) Adapter(src models.Source) (Adapter, bool) {
	a, ok := r.adapters[src]
	return a, ok
}

// Activity adapts every provider's activity payload. Sources without an
// adapter or payload map to an empty set.
func (r *Registry) Activity(raws map[models.Source]Raw, period models.Period) map[models.Source][]models.ActivitySample {
	out := make(map[models.Source][]models.ActivitySample, len(models.Sources))
	for _, src := range models.Sources {
		a, ok := r.adapters[src]
		if !ok {
			out[src] = nil
			continue
		}
		out[src] = a.Activity(raws[src].Activity, period)
	}
	return out
}

// Sleep adapts every provider's sleep payload.
func (r *Registry) Sleep(raws map[models.Source]Raw) map[models.Source][]models.SleepSession {
	out := make(map[models.Source][]models.SleepSession, len(models.Sources))
	for _, src := range models.Sources {
		a, ok := r.adapters[src]
		if !ok {
			out[src] = nil
			continue
		}
		out[src] = a.Sleep(raws[src].Sleep)
	}
	return out
}

// Result holds the outcome of storing one raw payload.
type Result struct {
	PayloadID string        `json:"payload_id,omitempty"`
	Source    models.Source `json:"source"`
	Kind      models.Kind   `json:"kind"`
	Date      string        `json:"date"`
	Received  int           `json:"records_received"`
	Accepted  int           `json:"records_accepted"`
	Skipped   int           `json:"records_skipped"`
	Message   string        `json:"message,omitempty"`
}
