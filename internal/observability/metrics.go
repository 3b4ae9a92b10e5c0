// Package observability holds the Prometheus collectors shared by the engine,
// the fetch fan-out and the HTTP ingest path.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	qualityScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "vitalsync",
		Subsystem: "engine",
		Name:      "quality_score",
		Help:      "Most recent data quality score (0-100) per provider and domain.",
	}, []string{"source", "kind"})
	fetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitalsync",
		Subsystem: "fetch",
		Name:      "failures_total",
		Help:      "Provider fetches that failed and were replaced by an empty set.",
	}, []string{"source", "kind"})
	passDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vitalsync",
		Subsystem: "engine",
		Name:      "pass_duration_seconds",
		Help:      "Duration of one analysis pass.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"kind"})
	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitalsync",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Memo cache lookups by result (hit or miss).",
	}, []string{"kind", "result"})
	ingestedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitalsync",
		Subsystem: "ingest",
		Name:      "records_total",
		Help:      "Raw records received per provider and domain, by outcome.",
	}, []string{"source", "kind", "outcome"})
)

func init() {
	prometheus.MustRegister(qualityScore, fetchFailures, passDuration, cacheLookups, ingestedRecords)
}

// RecordQuality sets the quality gauge for one provider.
func RecordQuality(source, kind string, score int) {
	qualityScore.WithLabelValues(source, kind).Set(float64(score))
}

// RecordFetchFailure counts one failed provider fetch.
func RecordFetchFailure(source, kind string) {
	fetchFailures.WithLabelValues(source, kind).Inc()
}

// RecordPass observes the duration of a pass that started at start.
func RecordPass(kind string, start time.Time) {
	passDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// RecordCacheLookup counts a memo cache hit or miss.
func RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(kind, result).Inc()
}

// RecordIngest counts accepted and skipped records of one stored payload.
func RecordIngest(source, kind string, accepted, skipped int) {
	if accepted > 0 {
		ingestedRecords.WithLabelValues(source, kind, "accepted").Add(float64(accepted))
	}
	if skipped > 0 {
		ingestedRecords.WithLabelValues(source, kind, "skipped").Add(float64(skipped))
	}
}
