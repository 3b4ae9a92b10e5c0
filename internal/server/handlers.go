package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/observability"
	"github.com/claude/vitalsync/internal/source"
	"github.com/claude/vitalsync/internal/storage"
)

// maxPayloadBytes bounds one uploaded day.
const maxPayloadBytes = 32 << 20

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}

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
	q := r.URL.Query()
	date, err := models.ParseDate(q.Get("date"), s.now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	period, err := models.ParsePeriod(q.Get("period"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	allowed, err := s.store.IsSourceAllowed(r.Context(), src)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !allowed {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": fmt.Sprintf("source %s is disabled", src)})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return
	}
	if !json.Valid(body) || !bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payload must be a JSON array"})
		return
	}

	result := s.adapt(src, kind, period, date, body)
	id, err := s.store.StorePayload(r.Context(), storage.Payload{
		Source:  src,
		Kind:    kind,
		Day:     date,
		Records: result.Received,
		Body:    body,
	})
	s.logIngest(uid, result, err, int(time.Since(start).Milliseconds()))
	if err != nil {
		s.log.Error("ingest error", "source", src, "kind", kind, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	result.PayloadID = id.String()

	s.svc.Ingested(src, kind, date)
	observability.RecordIngest(string(src), string(kind), result.Accepted, result.Skipped)
	writeJSON(w, http.StatusOK, result)
}

// adapt runs the provider adapter over an upload to report what it accepts.
// Nothing is rejected: the raw array is stored as received.
func (s *Server) adapt(src models.Source, kind models.Kind, period models.Period, date time.Time, body []byte) *ingest.Result {
	res := &ingest.Result{
		Source:   src,
		Kind:     kind,
		Date:     date.Format(models.DateLayout),
		Received: ingest.Count(body),
	}
	a, ok := s.svc.Registry().Adapter(src)
	if !ok {
		res.Message = "no adapter registered"
		return res
	}
	if kind == models.KindSleep {
		res.Accepted = len(a.Sleep(body))
	} else {
		res.Accepted = len(a.Activity(body, period))
	}
	res.Skipped = max(0, res.Received-res.Accepted)
	return res
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	sel, period, date, err := s.parseQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := s.svc.Activity(r.Context(), sel, period, date, s.now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSleep(w http.ResponseWriter, r *http.Request) {
	sel, period, date, err := s.parseQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := s.svc.Sleep(r.Context(), sel, period, date, s.now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	_, period, date, err := s.parseQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	rep, err := s.svc.Quality(r.Context(), period, date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	allowed, err := s.store.GetAllowedSources(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sources":    allowed,
		"selections": source.Selections,
		"auto_order": source.AutoOrder,
	})
}

func (s *Server) handleThresholds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Thresholds())
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

// parseQuery reads the source, period and date query parameters.
func (s *Server) parseQuery(r *http.Request) (source.Selection, models.Period, time.Time, error) {
	q := r.URL.Query()
	sel, err := source.ParseSelection(q.Get("source"))
	if err != nil {
		return "", "", time.Time{}, err
	}
	period, err := models.ParsePeriod(q.Get("period"))
	if err != nil {
		return "", "", time.Time{}, err
	}
	date, err := models.ParseDate(q.Get("date"), s.now())
	if err != nil {
		return "", "", time.Time{}, err
	}
	return sel, period, date, nil
}

// writeError maps engine errors to HTTP statuses. Both no-data cases are 404
// so the dashboard can fall back to its demo dataset.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var unavailable *source.SourceUnavailableError
	switch {
	case errors.As(err, &unavailable):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error":  err.Error(),
			"source": string(unavailable.Source),
		})
	case errors.Is(err, source.ErrNoData):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no data"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
