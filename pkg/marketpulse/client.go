// Package marketpulse is a Go SDK for the MarketPulse sentiment API: the wire
// types of a sentiment snapshot and a client for GET /sentiment.
package marketpulse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	// DefaultBaseURL matches the API prefix the backend mounts its routes on.
	DefaultBaseURL = "http://localhost:8000/api"

	// DefaultTimeout bounds a single snapshot request.
	DefaultTimeout = 30 * time.Second

	// RequestIDHeader carries a per-request UUID for log correlation.
	RequestIDHeader = "X-Request-Id"

	maxBodyBytes = 8 << 20
)

// ErrFetch is returned (wrapped in a *FetchError) for every failed snapshot
// fetch: transport failures, non-2xx responses and malformed bodies alike.
var ErrFetch = errors.New("failed to fetch sentiment data")

// FetchError describes a failed fetch. Status is 0 when no HTTP response was
// received.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", ErrFetch, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrFetch, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is reports ErrFetch as a match so callers can test with errors.Is.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// Client provides access to the sentiment API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
	log        *slog.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP client timeout. The client set by WithHTTPClient
// is copied, not modified.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger sets a logger.
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a new sentiment API client. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		validate:   validator.New(),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetSentiment retrieves the snapshot for symbol. A blank symbol requests the
// unfiltered snapshot and omits the query parameter entirely.
func (c *Client) GetSentiment(ctx context.Context, symbol string) (*Snapshot, error) {
	reqURL := c.baseURL + "/sentiment"
	if s := strings.TrimSpace(symbol); s != "" {
		reqURL += "?" + url.Values{"symbol": {s}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("creating request: %w", err)}
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Status: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}
	c.log.Debug("sentiment response",
		"requestID", reqID, "symbol", symbol, "status", resp.StatusCode,
		"bytes", len(body), "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	var wire wireSnapshot
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &FetchError{Status: resp.StatusCode, Err: fmt.Errorf("decoding snapshot: %w", err)}
	}
	if err := c.validate.Struct(&wire); err != nil {
		return nil, &FetchError{Status: resp.StatusCode, Err: fmt.Errorf("invalid snapshot: %w", err)}
	}
	return wire.snapshot(), nil
}
