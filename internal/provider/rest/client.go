// Package rest is the JSON-over-HTTPS transport shared by the firewall
// providers. It issues exactly one attempt per call.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/bcnelson/firewall-ddns/internal/domain"
	"github.com/bcnelson/firewall-ddns/internal/metrics"
)

// Client talks to one provider API.
type Client struct {
	name         string
	baseURL      string
	httpClient   *http.Client
	authStatuses []int
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Its transport is wrapped
// to add the bearer token; its timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each outbound call. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Transport: c.httpClient.Transport, Timeout: d}
	}
}

// WithAuthStatuses sets the response codes that mean the token was rejected.
func WithAuthStatuses(statuses ...int) Option {
	return func(c *Client) {
		c.authStatuses = statuses
	}
}

// WithMetrics counts every outbound request.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Settings carries the knobs every provider accepts.
type Settings struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// Options converts s into client options. HTTPClient is applied before
// Timeout so that a configured timeout wins.
func (s Settings) Options() []Option {
	opts := []Option{WithHTTPClient(s.HTTPClient)}
	if s.Timeout > 0 {
		opts = append(opts, WithTimeout(s.Timeout))
	}
	return append(opts, WithLogger(s.Logger), WithMetrics(s.Metrics))
}

// New creates a new Client for the API rooted at baseURL.
func New(name, baseURL string, opts ...Option) *Client {
	c := &Client{
		name:         name,
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{},
		authStatuses: []int{http.StatusUnauthorized},
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return domain.NewProviderError("decoding response: %v", err)
	}
	return nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, token, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, token, http.MethodGet, path, query, nil)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, token, path string, body any) (*Response, error) {
	return c.Do(ctx, token, http.MethodPut, path, nil, body)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, token, path string, body any) (*Response, error) {
	return c.Do(ctx, token, http.MethodPost, path, nil, body)
}

// Do sends one request authenticated with token. A response whose status is
// one of the configured auth statuses is returned as *domain.AuthError; any
// other status is returned to the caller to interpret.
func (c *Client) Do(ctx context.Context, token, method, path string, query url.Values, body any) (*Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.authorized(token).Do(req)
	if err != nil {
		c.observe(method, "error")
		return nil, &domain.ProviderError{Message: fmt.Sprintf("%s %s", method, path), Err: err}
	}
	defer resp.Body.Close()

	c.observe(method, strconv.Itoa(resp.StatusCode))
	c.logger.Debug("provider request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	if slices.Contains(c.authStatuses, resp.StatusCode) {
		return nil, &domain.AuthError{Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ProviderError{Message: fmt.Sprintf("reading %s %s", method, path), Err: err}
	}

	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// authorized returns an HTTP client that sends token as a bearer credential.
func (c *Client) authorized(token string) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   c.httpClient.Transport,
		},
		Timeout: c.httpClient.Timeout,
	}
}

func (c *Client) observe(method, code string) {
	if c.metrics == nil {
		return
	}
	c.metrics.ProviderRequests.WithLabelValues(c.name, method, code).Inc()
}
