package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/vitalsync/internal/engine"
	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/source"
	"github.com/claude/vitalsync/internal/storage"
	"github.com/claude/vitalsync/internal/thresholds"
)

// HTTPClient implements DataSource by calling the VitalSync REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is the REST error body.
type apiError struct {
	Error  string `json:"error"`
	Source string `json:"source"`
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, sel source.Selection, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		// The server reports missing data as 404; rebuild the typed error.
		var ae apiError
		if json.Unmarshal(body, &ae) == nil {
			if ae.Source != "" {
				return &source.SourceUnavailableError{Source: models.Source(ae.Source)}
			}
			if ae.Error == "no data" {
				return &source.NoDataError{Selection: sel}
			}
		}
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	default:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func queryParams(sel source.Selection, period models.Period, date time.Time) url.Values {
	v := url.Values{}
	if sel != "" {
		v.Set("source", string(sel))
	}
	v.Set("period", string(period))
	v.Set("date", date.Format(models.DateLayout))
	return v
}

func (c *HTTPClient) Activity(ctx context.Context, sel source.Selection, period models.Period, date time.Time) (*engine.ActivityResult, error) {
	var res engine.ActivityResult
	if err := c.get(ctx, "/api/v1/activity", queryParams(sel, period, date), sel, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Sleep(ctx context.Context, sel source.Selection, period models.Period, date time.Time) (*engine.SleepResult, error) {
	var res engine.SleepResult
	if err := c.get(ctx, "/api/v1/sleep", queryParams(sel, period, date), sel, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Quality(ctx context.Context, period models.Period, date time.Time) (*engine.QualityReport, error) {
	var rep engine.QualityReport
	if err := c.get(ctx, "/api/v1/quality", queryParams("", period, date), "", &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (c *HTTPClient) Sources(ctx context.Context) ([]storage.AllowedSource, error) {
	var body struct {
		Sources []storage.AllowedSource `json:"sources"`
	}
	if err := c.get(ctx, "/api/v1/sources", nil, "", &body); err != nil {
		return nil, err
	}
	return body.Sources, nil
}

func (c *HTTPClient) Thresholds(ctx context.Context) (thresholds.Table, error) {
	var t thresholds.Table
	if err := c.get(ctx, "/api/v1/thresholds", nil, "", &t); err != nil {
		return thresholds.Table{}, err
	}
	return t, nil
}
