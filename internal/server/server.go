package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/vitalsync/internal/engine"
	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/storage"
)

// Store is the persistence the HTTP layer needs. *storage.DB implements it.
type Store interface {
	UserStore
	StorePayload(ctx context.Context, p storage.Payload) (uuid.UUID, error)
	QueryPayloads(ctx context.Context, src models.Source, kind models.Kind, limit int) ([]storage.Payload, error)
	IsSourceAllowed(ctx context.Context, src models.Source) (bool, error)
	GetAllowedSources(ctx context.Context) ([]storage.AllowedSource, error)
	SetSourceEnabled(ctx context.Context, src models.Source, enabled bool) error
	InsertIngestLog(ctx context.Context, log storage.IngestLog) (int64, error)
	QueryIngestLogs(ctx context.Context, userID, limit int) ([]storage.IngestLog, error)
	GetDataStats(ctx context.Context) (*storage.DataStats, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store  Store
	svc    *engine.Service
	log    *slog.Logger
	apiKey string
	router chi.Router
	whois  WhoIser
	now    func() time.Time
}

// New creates a new Server with all routes configured.
func New(store Store, svc *engine.Service, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:  store,
		svc:    svc,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
		now:    time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches request identity from the dev user to tailnet WhoIs.
func (s *Server) SetTailscale(who WhoIser) {
	s.whois = who
}

// SetMCP mounts an MCP handler at /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Mount("/mcp", h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	// Ingest endpoints (API key required)
	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.With(APIKeyAuth(s.apiKey)).Post("/{source}/{kind}", s.handleIngest)
		r.Get("/log", s.handleIngestLogs)
	})

	// Dashboard API endpoints (no auth, tsnet handles access)
	s.router.Get("/api/v1/activity", s.handleActivity)
	s.router.Get("/api/v1/sleep", s.handleSleep)
	s.router.Get("/api/v1/quality", s.handleQuality)
	s.router.Get("/api/v1/sources", s.handleSources)
	s.router.Put("/api/v1/sources/{source}", s.handleSetSource)
	s.router.Get("/api/v1/stats", s.handleStats)
	s.router.Get("/api/v1/payloads/{source}/{kind}", s.handlePayloads)
	s.router.Get("/api/v1/thresholds", s.handleThresholds)
	s.router.Get("/api/v1/me", s.handleMe)

	s.router.Handle("/metrics", promhttp.Handler())
}

// identity picks the tailnet identity when tsnet is active, else the dev user.
func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.whois, s.store, s.log)(next).ServeHTTP(w, r)
	})
}
