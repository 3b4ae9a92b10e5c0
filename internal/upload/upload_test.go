package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// writeDay writes one export file under root/<src>/<kind>/<date>.json.
func writeDay(t *testing.T, root, src, kind, date, body string) {
	t.Helper()
	dir := filepath.Join(root, src, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, date+".json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ingestServer is a fake VitalSync server recording every ingest call.
type ingestServer struct {
	mu       sync.Mutex
	calls    []string
	disabled map[string]bool
	fail     int
}

func (s *ingestServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/sources", func(w http.ResponseWriter, r *http.Request) {
		var out []map[string]any
		for _, src := range []string{"fitbit", "googleFit", "appleHealth"} {
			out = append(out, map[string]any{"source": src, "enabled": !s.disabled[src]})
		}
		json.NewEncoder(w).Encode(map[string]any{"sources": out})
	})
	mux.HandleFunc("POST /api/v1/ingest/{source}/{kind}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.fail > 0 {
			s.fail--
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		body, _ := io.ReadAll(r.Body)
		date := r.URL.Query().Get("date")
		s.calls = append(s.calls, r.PathValue("source")+"/"+r.PathValue("kind")+"/"+date)
		n := ingest.Count(body)
		json.NewEncoder(w).Encode(ingest.Result{
			PayloadID: "p-" + date,
			Source:    models.Source(r.PathValue("source")),
			Kind:      models.Kind(r.PathValue("kind")),
			Date:      date,
			Received:  n,
			Accepted:  n,
		})
	})
	return mux
}

func newUploader(t *testing.T, srv *httptest.Server, root string, dryRun bool) (*Uploader, *StateDB) {
	t.Helper()
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { state.Close() })
	var client *Client
	if srv != nil {
		client = NewClient(srv.URL+"/", "secret")
		client.backoff = time.Millisecond
	}
	return New(client, state, root, dryRun, discard()), state
}

// TestRunUploadsAndSkips verifies files are sent once, oldest first, and
// re-runs skip unchanged files.
func TestRunUploadsAndSkips(t *testing.T) {
	root := t.TempDir()
	writeDay(t, root, "fitbit", "activity", "2024-02-02", `[{"dateTime":"2024-02-02"}]`)
	writeDay(t, root, "fitbit", "activity", "2024-02-01", `[{"dateTime":"2024-02-01"},{"dateTime":"2024-02-01"}]`)
	writeDay(t, root, "googleFit", "sleep", "2024-02-01", `[]`)
	writeDay(t, root, "fitbit", "activity", "notes", `[]`)

	fake := &ingestServer{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	u, state := newUploader(t, srv, root, false)
	stats, err := u.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesUploaded != 3 || stats.FilesErrored != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.RecordsAccepted != 3 {
		t.Errorf("accepted = %d, want 3", stats.RecordsAccepted)
	}
	if fake.calls[len(fake.calls)-1] != "fitbit/activity/2024-02-02" {
		t.Errorf("calls = %v, want newest day last", fake.calls)
	}
	if n, _ := state.UploadedCount(); n != 3 {
		t.Errorf("tracked files = %d, want 3", n)
	}
	if v, _ := state.GetSyncState(lastRunKey); v == "" {
		t.Error("last run not recorded")
	}

	u2 := New(u.client, state, root, false, discard())
	stats, err = u2.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesSkipped != 3 || stats.FilesUploaded != 0 {
		t.Errorf("second run stats = %+v, want all skipped", stats)
	}

	// An edited file is sent again.
	writeDay(t, root, "fitbit", "activity", "2024-02-02", `[{"dateTime":"2024-02-02","summary":{}}]`)
	stats, _ = New(u.client, state, root, false, discard()).Run(context.Background())
	if stats.FilesUploaded != 1 {
		t.Errorf("edited file uploads = %d, want 1", stats.FilesUploaded)
	}
}

func TestRunRespectsAllowlist(t *testing.T) {
	root := t.TempDir()
	writeDay(t, root, "appleHealth", "activity", "2024-02-01", `[]`)
	writeDay(t, root, "garmin", "activity", "2024-02-01", `[]`)

	fake := &ingestServer{disabled: map[string]bool{"appleHealth": true}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	u, _ := newUploader(t, srv, root, false)
	stats, err := u.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stats.RejectedSources) != 1 || stats.RejectedSources[0] != "appleHealth" {
		t.Errorf("rejected = %v", stats.RejectedSources)
	}
	if len(stats.UnknownDirs) != 1 || stats.UnknownDirs[0] != "garmin" {
		t.Errorf("unknown = %v", stats.UnknownDirs)
	}
	if len(fake.calls) != 0 {
		t.Errorf("calls = %v, want none", fake.calls)
	}
}

// TestRunRetriesServerErrors verifies 5xx responses are retried and invalid
// files are counted as errors without aborting the run.
func TestRunRetriesServerErrors(t *testing.T) {
	root := t.TempDir()
	writeDay(t, root, "fitbit", "sleep", "2024-02-01", `[{"dateOfSleep":"2024-02-01"}]`)
	writeDay(t, root, "fitbit", "sleep", "2024-02-02", `{"not":"an array"}`)

	fake := &ingestServer{fail: 2}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	u, _ := newUploader(t, srv, root, false)
	stats, err := u.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesUploaded != 1 || stats.FilesErrored != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSendDayPermanentError(t *testing.T) {
	srv := httptest.NewServer((&ingestServer{}).handler(t))
	defer srv.Close()

	c := NewClient(srv.URL, "wrong")
	c.backoff = time.Millisecond
	_, err := c.SendDay(context.Background(), models.SourceFitbit, models.KindActivity, time.Now(), []byte(`[]`))
	var perm *permanentError
	if err == nil || !errors.As(err, &perm) || perm.status != http.StatusForbidden {
		t.Errorf("err = %v, want permanent 403", err)
	}
}

func TestDryRunSendsNothing(t *testing.T) {
	root := t.TempDir()
	writeDay(t, root, "googleFit", "activity", "2024-02-01", `[{"date":"2024-02-01"},{"date":"2024-02-01"}]`)

	u, state := newUploader(t, nil, root, true)
	stats, err := u.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesUploaded != 1 || stats.RecordsReceived != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if n, _ := state.UploadedCount(); n != 0 {
		t.Errorf("dry run tracked %d files", n)
	}
}
