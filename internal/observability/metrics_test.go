package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFetchFailure(t *testing.T) {
	before := testutil.ToFloat64(fetchFailures.WithLabelValues("fitbit", "sleep"))
	RecordFetchFailure("fitbit", "sleep")
	RecordFetchFailure("fitbit", "sleep")
	if got := testutil.ToFloat64(fetchFailures.WithLabelValues("fitbit", "sleep")) - before; got != 2 {
		t.Errorf("failures delta = %v, want 2", got)
	}
}

func TestRecordQuality(t *testing.T) {
	RecordQuality("googleFit", "activity", 83)
	if got := testutil.ToFloat64(qualityScore.WithLabelValues("googleFit", "activity")); got != 83 {
		t.Errorf("quality gauge = %v, want 83", got)
	}
}

// TestRecordCacheLookup verifies hits and misses land on separate series.
func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("sleep", "hit"))
	misses := testutil.ToFloat64(cacheLookups.WithLabelValues("sleep", "miss"))
	RecordCacheLookup("sleep", true)
	RecordCacheLookup("sleep", false)
	RecordCacheLookup("sleep", false)
	if got := testutil.ToFloat64(cacheLookups.WithLabelValues("sleep", "hit")) - hits; got != 1 {
		t.Errorf("hits delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(cacheLookups.WithLabelValues("sleep", "miss")) - misses; got != 2 {
		t.Errorf("misses delta = %v, want 2", got)
	}
}

func TestRecordIngestSkipsZero(t *testing.T) {
	before := testutil.ToFloat64(ingestedRecords.WithLabelValues("appleHealth", "activity", "accepted"))
	RecordIngest("appleHealth", "activity", 5, 0)
	if got := testutil.ToFloat64(ingestedRecords.WithLabelValues("appleHealth", "activity", "accepted")) - before; got != 5 {
		t.Errorf("accepted delta = %v, want 5", got)
	}
}
