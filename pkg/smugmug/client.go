package smugmug

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"smugmirror/pkg/envelope"
	errs "smugmirror/pkg/errors"
	"smugmirror/pkg/logger"
)

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// ClientConfig configures a Client
type ClientConfig struct {
	// Endpoint is prepended to resource paths
	Endpoint string
	// Session is the SMSESS token; empty means anonymous access
	Session string
	// UserAgent overrides DefaultUserAgent
	UserAgent string
	// Timeout bounds a single API request
	Timeout time.Duration
	// DownloadTimeout bounds a whole file transfer (0 means no limit)
	DownloadTimeout time.Duration
}

// Client talks to the gallery API. Each call is a single attempt; retries
// belong to Fetcher.
type Client struct {
	api      *http.Client
	download *http.Client
	headers  map[string]string
	endpoint string
	session  string
	logger   logger.Logger
}

// NewClient creates a new gallery API client
func NewClient(cfg ClientConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		api:      &http.Client{Timeout: cfg.Timeout},
		download: &http.Client{Timeout: cfg.DownloadTimeout},
		headers: map[string]string{
			"User-Agent":      userAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
		},
		endpoint: endpoint,
		session:  cfg.Session,
		logger:   log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetTransport replaces the round tripper of both underlying HTTP clients
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.api.Transport = rt
	c.download.Transport = rt
}

// Endpoint returns the base URL resource paths are resolved against
func (c *Client) Endpoint() string {
	return c.endpoint
}

// FetchEnvelope requests one API resource and decodes its envelope
func (c *Client) FetchEnvelope(ctx context.Context, path string) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, JoinEndpoint(c.endpoint, path), nil)
	if err != nil {
		return nil, errs.NewNetworkError(path, fmt.Errorf("failed to create request: %w", err))
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: c.session})
	}

	resp, err := c.do(c.api, req)
	if err != nil {
		return nil, errs.NewNetworkError(path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errs.NewStatusError(path, resp.StatusCode)
	}

	raw, err := envelope.Decode(resp.Body)
	if err != nil {
		return nil, errs.NewDecodeError(path, err)
	}

	payload, err := ParsePayload(path, raw)
	if err != nil {
		return nil, errs.NewDecodeError(path, err)
	}
	return payload, nil
}

// Open starts an unauthenticated download of rawURL. The caller closes the body.
func (c *Client) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, JoinEndpoint(c.endpoint, rawURL), nil)
	if err != nil {
		return nil, errs.NewNetworkError(rawURL, fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.do(c.download, req)
	if err != nil {
		return nil, errs.NewNetworkError(rawURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, errs.NewStatusError(rawURL, resp.StatusCode)
	}
	return resp.Body, nil
}

// do performs an HTTP request with the configured headers
func (c *Client) do(hc *http.Client, req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, err
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})
	return resp, nil
}
