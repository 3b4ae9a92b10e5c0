package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
)

// allowedSource mirrors storage.AllowedSource without importing the storage package
// (which would pull in pgx and other server-side dependencies).
type allowedSource struct {
	Source  models.Source `json:"source"`
	Enabled bool          `json:"enabled"`
}

// Client sends provider payloads to the VitalSync server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the VitalSync server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// FetchAllowlist retrieves the enabled providers from the server.
func (c *Client) FetchAllowlist(ctx context.Context) (map[models.Source]bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/api/v1/sources", nil)
	if err != nil {
		return nil, fmt.Errorf("creating allowlist request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching allowlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("allowlist request failed (status %d): %s", resp.StatusCode, body)
	}

	var body struct {
		Sources []allowedSource `json:"sources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding allowlist: %w", err)
	}

	allowlist := make(map[models.Source]bool, len(body.Sources))
	for _, s := range body.Sources {
		if s.Enabled {
			allowlist[s.Source] = true
		}
	}
	return allowlist, nil
}

// permanentError is an ingest rejection that retrying cannot fix.
type permanentError struct {
	status int
	body   []byte
}

func (e *permanentError) Error() string {
	return fmt.Sprintf("ingest rejected (status %d): %s", e.status, e.body)
}

// SendDay POSTs one day's raw provider array to the ingest endpoint.
// Retries up to 3 times with exponential backoff on transport and 5xx failures.
func (c *Client) SendDay(ctx context.Context, src models.Source, kind models.Kind, date time.Time, data []byte) (*ingest.Result, error) {
	q := url.Values{}
	q.Set("date", date.Format(models.DateLayout))
	endpoint := fmt.Sprintf("%s/api/v1/ingest/%s/%s?%s", c.serverURL, src, kind, q.Encode())

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("creating ingest request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			var res ingest.Result
			if err := json.Unmarshal(body, &res); err != nil {
				return nil, fmt.Errorf("decoding ingest result: %w", err)
			}
			return &res, nil
		case resp.StatusCode < http.StatusInternalServerError:
			return nil, &permanentError{status: resp.StatusCode, body: body}
		}
		lastErr = fmt.Errorf("ingest failed (status %d): %s", resp.StatusCode, body)
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}
