package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CatalogFetcher is the read-only half of the API the UI needs at startup.
type CatalogFetcher interface {
	FetchThemes(ctx context.Context) ([]Theme, error)
	FetchHealth(ctx context.Context) (Health, error)
}

// Generator issues generation requests.
type Generator interface {
	Generate(ctx context.Context, theme string, duration int) (Handle, error)
}

// StatusFetcher queries the progress of one generation job.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, handle Handle) (Progress, error)
}

// Ensure Client implements the API interfaces at compile time.
var (
	_ CatalogFetcher = (*Client)(nil)
	_ Generator      = (*Client)(nil)
	_ StatusFetcher  = (*Client)(nil)
)

// Client talks to the animation studio HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultBaseURL   = "127.0.0.1:8011"
	defaultUserAgent = "studio/0.1"
	requestTimeout   = 10 * time.Second
	generateTimeout  = 2 * time.Minute
	maxErrorBody     = 64 * 1024
)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client for the service at apiURL (host:port or URL).
func NewClient(apiURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the resolved service root.
func (c *Client) BaseURL() string {
	if c == nil || c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// FetchThemes retrieves the theme catalog in server order.
func (c *Client) FetchThemes(ctx context.Context) ([]Theme, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	ctx, cancel := withDefaultTimeout(ctx, requestTimeout)
	defer cancel()

	var payload themesResponse
	if err := c.do(ctx, "fetch themes", http.MethodGet, "/themes", nil, &payload); err != nil {
		return nil, err
	}
	return normalizeThemes(payload.Themes), nil
}

// FetchHealth retrieves the backend health summary. A 503 carrying a
// status body is reported as unhealthy rather than as an error.
func (c *Client) FetchHealth(ctx context.Context) (Health, error) {
	if c == nil {
		return Health{}, fmt.Errorf("client is nil")
	}
	ctx, cancel := withDefaultTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.send(ctx, http.MethodGet, &url.URL{Path: "/health"}, nil)
	if err != nil {
		return Health{}, &NetworkError{Op: "fetch health", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	var raw struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&raw)
	if resp.StatusCode >= 400 {
		if decodeErr == nil && strings.TrimSpace(raw.Status) != "" {
			return Health{Status: normalizeHealth(raw.Status), Detail: strings.TrimSpace(raw.Error)}, nil
		}
		return Health{}, &NetworkError{Op: "fetch health", StatusCode: resp.StatusCode}
	}
	if decodeErr != nil {
		return Health{}, &DecodeError{Op: "fetch health", Err: decodeErr}
	}
	return Health{Status: normalizeHealth(raw.Status), Detail: strings.TrimSpace(raw.Error)}, nil
}

// Generate submits a generation request and returns its handle.
func (c *Client) Generate(ctx context.Context, theme string, duration int) (Handle, error) {
	if c == nil {
		return Handle{}, fmt.Errorf("client is nil")
	}
	ctx, cancel := withDefaultTimeout(ctx, generateTimeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{Theme: theme, Duration: duration})
	if err != nil {
		return Handle{}, &RequestError{Err: fmt.Errorf("encode request: %w", err)}
	}
	resp, err := c.send(ctx, http.MethodPost, &url.URL{Path: "/generate"}, body)
	if err != nil {
		return Handle{}, &RequestError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return Handle{}, &RequestError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Handle{}, &RequestError{Err: &DecodeError{Op: "generate", Err: err}}
	}
	id := strings.TrimSpace(payload.AnimationID)
	if id == "" {
		return Handle{}, &RequestError{Message: "response did not include an animation id"}
	}
	return Handle{ID: id}, nil
}

// FetchStatus retrieves the progress of a generation job. Callers own the
// deadline through ctx.
func (c *Client) FetchStatus(ctx context.Context, handle Handle) (Progress, error) {
	if c == nil {
		return Progress{}, fmt.Errorf("client is nil")
	}
	if handle.IsZero() {
		return Progress{}, fmt.Errorf("animation id required")
	}
	var payload statusResponse
	path := "/status/" + url.PathEscape(handle.ID)
	if err := c.do(ctx, "fetch status", http.MethodGet, path, nil, &payload); err != nil {
		return Progress{}, err
	}
	return payload.progress(), nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte, dest any) error {
	resp, err := c.send(ctx, method, &url.URL{Path: path}, body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method string, rel *url.URL, body []byte) (*http.Response, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		return body.message()
	}
	return strings.TrimSpace(string(data))
}

func withDefaultTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.StatusCode == 0 || netErr.StatusCode >= 500
	}
	var decErr *DecodeError
	return errors.As(err, &decErr)
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", apiURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
