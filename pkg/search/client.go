package search

import (
	"context"
	"io"
	"net/http"
	"time"

	errs "imagegrab/pkg/errors"
	"imagegrab/pkg/logger"
)

// MaxBodyBytes caps how much of a response body is read
const MaxBodyBytes = 64 << 20

// Client fetches search pages and image bytes
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	agents     UserAgentProvider
	logger     logger.Logger
}

// NewClient creates a new client. A nil agents provider rotates through
// desktop Firefox user agents; a nil logger uses the global logger.
func NewClient(timeout time.Duration, agents UserAgentProvider, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if agents == nil {
		agents = NewFirefoxRotation()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.5",
		},
		agents: agents,
		logger: log,
	}
}

// FetchPage downloads a search results page as text
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	data, err := c.get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FetchBytes downloads the raw body at imageURL
func (c *Client) FetchBytes(ctx context.Context, imageURL string) ([]byte, error) {
	return c.get(ctx, imageURL)
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to create request")
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("User-Agent", c.agents.UserAgent())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":      rawURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "request failed")
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, rawURL, resp.StatusCode, duration)

	if err := checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read response body")
	}
	return data, nil
}

// checkResponseStatus maps HTTP failures to protocol errors
func checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	return errs.New(errs.ErrorTypeProtocol, resp.StatusCode,
		"HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
