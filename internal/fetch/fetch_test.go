package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func day(s string) time.Time {
	d, _ := time.Parse(models.DateLayout, s)
	return d
}

// TestAllIsolatesFailures verifies one failing provider leaves the others populated.
func TestAllIsolatesFailures(t *testing.T) {
	st := NewStatic()
	st.Put(models.SourceFitbit, models.KindActivity, "2024-02-06", json.RawMessage(`[{"dateTime":"2024-02-06","steps":100}]`))
	st.Put(models.SourceAppleHealth, models.KindActivity, "2024-02-06", json.RawMessage(`[{"date":"2024-02-06","steps":50}]`))
	st.Fail(models.SourceGoogleFit, errors.New("upstream timeout"))

	res, err := All(context.Background(), st, models.KindActivity, models.PeriodDay, day("2024-02-06"), discard())
	require.NoError(t, err)

	assert.True(t, res.Availability[models.SourceFitbit])
	assert.True(t, res.Availability[models.SourceAppleHealth])
	assert.False(t, res.Availability[models.SourceGoogleFit])
	assert.EqualError(t, res.Errors[models.SourceGoogleFit], "upstream timeout")
	assert.Len(t, res.Errors, 1)
	assert.Equal(t, 1, ingest.Count(res.Raw[models.SourceFitbit].Activity))
	assert.Nil(t, res.Raw[models.SourceGoogleFit].Activity)
}

func TestAllRoutesSleepPayload(t *testing.T) {
	st := NewStatic()
	st.Put(models.SourceFitbit, models.KindSleep, "2024-02-06", json.RawMessage(`[{"dateOfSleep":"2024-02-06"}]`))

	res, err := All(context.Background(), st, models.KindSleep, models.PeriodDay, day("2024-02-06"), discard())
	require.NoError(t, err)
	assert.Nil(t, res.Raw[models.SourceFitbit].Activity)
	assert.Equal(t, 1, ingest.Count(res.Raw[models.SourceFitbit].Sleep))
	assert.False(t, res.Availability[models.SourceAppleHealth])
}

// TestStaticMergesWindow verifies a week fetch joins the stored days in order
// and ignores days outside the window.
func TestStaticMergesWindow(t *testing.T) {
	st := NewStatic()
	st.Put(models.SourceFitbit, models.KindActivity, "2024-01-30", json.RawMessage(`[{"dateTime":"2024-01-30"}]`))
	st.Put(models.SourceFitbit, models.KindActivity, "2024-02-01", json.RawMessage(`[{"dateTime":"2024-02-01"}]`))
	st.Put(models.SourceFitbit, models.KindActivity, "2024-02-06", json.RawMessage(`[{"dateTime":"2024-02-06"},{"dateTime":"2024-02-06"}]`))

	raw, err := st.Fetch(context.Background(), models.SourceFitbit, models.KindActivity, models.PeriodWeek, day("2024-02-06"))
	require.NoError(t, err)
	elems := ingest.DecodeArray(raw)
	require.Len(t, elems, 3)
	assert.JSONEq(t, `{"dateTime":"2024-02-01"}`, string(elems[0]))
}

type blocking struct{}

func (blocking) Fetch(ctx context.Context, _ models.Source, _ models.Kind, _ models.Period, _ time.Time) (json.RawMessage, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAllCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res, err := All(ctx, blocking{}, models.KindActivity, models.PeriodDay, day("2024-02-06"), discard())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, res.Errors, len(models.Sources))
}
