package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/source"
)

// --- Tool definitions ---

var toolGetActivityInsights = mcp.NewTool("get_activity_insights",
	mcp.WithDescription("Analyze step and active-minute data for a day, week or month. Returns the active dataset, per-provider quality scores, stats, trends versus the previous period, peak hours and recommendations."),
	mcp.WithString("source", mcp.Description("Provider selection: auto (default), combined, fitbit, googleFit or appleHealth")),
	mcp.WithString("period", mcp.Description("day (default), week or month")),
	mcp.WithString("date", mcp.Description("Anchor date (YYYY-MM-DD). Defaults to today")),
)

var toolGetSleepMetrics = mcp.NewTool("get_sleep_metrics",
	mcp.WithDescription("Analyze sleep sessions for a day, week or month. Returns sessions with stage breakdowns, a summary, detected abnormalities, recommendations and stats."),
	mcp.WithString("source", mcp.Description("Provider selection: auto (default), combined, fitbit, googleFit or appleHealth")),
	mcp.WithString("period", mcp.Description("day (default), week or month")),
	mcp.WithString("date", mcp.Description("Anchor date (YYYY-MM-DD). Defaults to today")),
)

var toolGetDataQuality = mcp.NewTool("get_data_quality",
	mcp.WithDescription("Score every provider's activity and sleep data (0-100) for a period and report which providers have data."),
	mcp.WithString("period", mcp.Description("day (default), week or month")),
	mcp.WithString("date", mcp.Description("Anchor date (YYYY-MM-DD). Defaults to today")),
)

var toolListSources = mcp.NewTool("list_sources",
	mcp.WithDescription("List the providers in the upload allowlist with their enabled status."),
)

// --- Tool handlers ---

func (h *handlers) getActivityInsights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sel, period, date, err := h.parseArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := h.ds.Activity(ctx, sel, period, date)
	if err != nil {
		return h.queryError(ctx, "get_activity_insights", err), nil
	}

	result, err := mcp.NewToolResultJSON(res)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSleepMetrics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sel, period, date, err := h.parseArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := h.ds.Sleep(ctx, sel, period, date)
	if err != nil {
		return h.queryError(ctx, "get_sleep_metrics", err), nil
	}

	result, err := mcp.NewToolResultJSON(res)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getDataQuality(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, period, date, err := h.parseArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rep, err := h.ds.Quality(ctx, period, date)
	if err != nil {
		return h.queryError(ctx, "get_data_quality", err), nil
	}

	result, err := mcp.NewToolResultJSON(rep)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listSources(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sources, err := h.ds.Sources(ctx)
	if err != nil {
		return h.queryError(ctx, "list_sources", err), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"sources":    sources,
		"selections": source.Selections,
		"auto_order": source.AutoOrder,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// parseArgs reads the optional source, period and date arguments.
func (h *handlers) parseArgs(req mcp.CallToolRequest) (source.Selection, models.Period, time.Time, error) {
	sel, err := source.ParseSelection(req.GetString("source", ""))
	if err != nil {
		return "", "", time.Time{}, err
	}
	period, err := models.ParsePeriod(req.GetString("period", ""))
	if err != nil {
		return "", "", time.Time{}, err
	}
	date, err := models.ParseDate(req.GetString("date", ""), h.now())
	if err != nil {
		return "", "", time.Time{}, err
	}
	return sel, period, date, nil
}

// queryError turns a data source failure into a tool error. Missing data is
// an expected answer and is not logged.
func (h *handlers) queryError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	if errors.Is(err, source.ErrSourceUnavailable) || errors.Is(err, source.ErrNoData) {
		return mcp.NewToolResultError(err.Error())
	}
	h.log.Error("mcp "+tool, "user", UserIDFromContext(ctx), "error", err)
	return mcp.NewToolResultError("query failed: " + err.Error())
}
