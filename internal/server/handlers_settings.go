package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/storage"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetDataStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handlePayloads lists stored upload rows for one provider and kind, without bodies.
func (s *Server) handlePayloads(w http.ResponseWriter, r *http.Request) {
	src, err := models.ParseSource(chi.URLParam(r, "source"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	rows, err := s.store.QueryPayloads(r.Context(), src, kind, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = []storage.Payload{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleIngestLogs(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.store.QueryIngestLogs(r.Context(), uid, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleSetSource(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustUserID(w, r); !ok {
		return
	}
	src, err := models.ParseSource(chi.URLParam(r, "source"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": `body must be {"enabled": bool}`})
		return
	}
	if err := s.store.SetSourceEnabled(r.Context(), src, *body.Enabled); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.log.Info("source toggled", "source", src, "enabled", *body.Enabled)
	writeJSON(w, http.StatusOK, map[string]any{"source": src, "enabled": *body.Enabled})
}

// logIngest records an ingest operation's result to the ingest_logs table.
func (s *Server) logIngest(uid int, result *ingest.Result, ingestErr error, durationMs int) {
	status := "success"
	var errMsg *string
	if ingestErr != nil {
		status = "error"
		msg := ingestErr.Error()
		errMsg = &msg
	}

	var day *time.Time
	if d, err := time.Parse(models.DateLayout, result.Date); err == nil {
		day = &d
	}

	log := storage.IngestLog{
		UserID:          uid,
		Source:          string(result.Source),
		Kind:            string(result.Kind),
		Day:             day,
		Status:          status,
		RecordsReceived: result.Received,
		RecordsAccepted: result.Accepted,
		RecordsSkipped:  result.Skipped,
		DurationMs:      &durationMs,
		ErrorMessage:    errMsg,
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()

	if _, err := s.store.InsertIngestLog(ctx, log); err != nil {
		s.log.Error("failed to log ingest", "source", result.Source, "error", err)
	}
}

// contextWithTimeout returns a background context with a 5-second timeout for async logging.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
}
