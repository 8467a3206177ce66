// Package places talks to the Google Places Details API, the upstream
// data source for the reviews proxy.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/golfmax/fitting-edge/internal/domain/model"
	"github.com/golfmax/fitting-edge/internal/infrastructure/metrics"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api/place/details/json"

	// detailsFields is the field mask requested from upstream.
	detailsFields = "url,rating,user_ratings_total,reviews"
)

// Details is the subset of the upstream payload the proxy cares about.
// Rating and Total are nil when upstream omits its summary fields.
type Details struct {
	URL     string
	Rating  *float64
	Total   *int
	Reviews []model.Review
}

// StatusError reports an upstream transport-level failure (non-2xx).
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d", e.Code)
}

// RejectedError reports a logical rejection: upstream answered 200 but
// flagged the request in its payload (bad place id, quota, key).
type RejectedError struct {
	Status  string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream rejected request: %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream rejected request: %s", e.Status)
}

// ClientConfig holds configuration for the Places client.
type ClientConfig struct {
	APIKey   string
	BaseURL  string // overridable for tests
	MockFile string // local fixture served instead of the live API
	Timeout  time.Duration
}

// Client fetches place details over HTTP, or from a local mock fixture
// when MockFile is set (local development without an API key).
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	mockFile   string
}

// NewClient creates a Places client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		mockFile:   cfg.MockFile,
	}
}

// detailsPayload mirrors the upstream response envelope.
type detailsPayload struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		URL     string         `json:"url"`
		Rating  *float64       `json:"rating"`
		Total   *int           `json:"user_ratings_total"`
		Reviews []model.Review `json:"reviews"`
	} `json:"result"`
}

// mockPayload is the flat fixture shape used by the local dev server.
type mockPayload struct {
	URL     string         `json:"url"`
	Rating  *float64       `json:"rating"`
	Total   *int           `json:"user_ratings_total"`
	Reviews []model.Review `json:"reviews"`
}

// DetailsRequestURL returns the fully-qualified upstream request URL for
// a place, API key included. It doubles as the edge cache key.
func (c *Client) DetailsRequestURL(placeID string) string {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", detailsFields)
	q.Set("key", c.apiKey)
	return c.baseURL + "?" + q.Encode()
}

// FetchDetails retrieves place details from upstream.
func (c *Client) FetchDetails(ctx context.Context, placeID string) (*Details, error) {
	if c.mockFile != "" {
		return c.fetchMock()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DetailsRequestURL(placeID), nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(metrics.UpstreamTransportError).Inc()
		return nil, fmt.Errorf("fetch upstream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequestsTotal.WithLabelValues(metrics.UpstreamHTTPError).Inc()
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var payload detailsPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(metrics.UpstreamTransportError).Inc()
		return nil, fmt.Errorf("decode upstream payload: %w", err)
	}

	if payload.Status != "OK" {
		metrics.UpstreamRequestsTotal.WithLabelValues(metrics.UpstreamRejected).Inc()
		return nil, &RejectedError{Status: payload.Status, Message: payload.ErrorMessage}
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(metrics.UpstreamOK).Inc()
	return &Details{
		URL:     payload.Result.URL,
		Rating:  payload.Result.Rating,
		Total:   payload.Result.Total,
		Reviews: payload.Result.Reviews,
	}, nil
}

func (c *Client) fetchMock() (*Details, error) {
	data, err := os.ReadFile(c.mockFile)
	if err != nil {
		return nil, fmt.Errorf("read mock fixture: %w", err)
	}

	var payload mockPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode mock fixture: %w", err)
	}

	return &Details{
		URL:     payload.URL,
		Rating:  payload.Rating,
		Total:   payload.Total,
		Reviews: payload.Reviews,
	}, nil
}
