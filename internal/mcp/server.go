package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("VitalSync", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("VitalSync wellness analysis server. Query activity insights, sleep metrics and per-provider data quality for Fitbit, Google Fit and Apple Health. Dates are YYYY-MM-DD; periods are day, week or month."),
	)

	h := &handlers{ds: ds, log: log, now: time.Now}

	s.AddTools(
		server.ServerTool{Tool: toolGetActivityInsights, Handler: h.getActivityInsights},
		server.ServerTool{Tool: toolGetSleepMetrics, Handler: h.getSleepMetrics},
		server.ServerTool{Tool: toolGetDataQuality, Handler: h.getDataQuality},
		server.ServerTool{Tool: toolListSources, Handler: h.listSources},
	)

	s.AddResources(
		server.ServerResource{Resource: resThresholds, Handler: h.thresholds},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
	now func() time.Time
}

var resThresholds = mcp.NewResource(
	"vitalsync://thresholds",
	"Thresholds",
	mcp.WithResourceDescription("Active classification thresholds: activity levels, sleep bands, abnormality limits and quality cutoffs"),
	mcp.WithMIMEType("application/json"),
)
