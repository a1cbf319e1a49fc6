// Package news proxies the third-party news search used by the dashboard's
// cybersecurity headlines feed. It is deliberately thin: the provider's JSON
// body is passed through untouched.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vigilynx/vigilynx/internal/logging"
)

// Config for the news client.
type Config struct {
	APIKey      string
	BaseURL     string
	Query       string
	PageSize    int
	HTTPTimeout time.Duration
}

// DefaultConfig matches the dashboard's feed: newest cybersecurity articles,
// English, 100 per page.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://newsapi.org/v2",
		Query:       "cybersecurity",
		PageSize:    100,
		HTTPTimeout: 15 * time.Second,
	}
}

// Client fetches headlines from the news provider.
type Client struct {
	cfg    Config
	http   *http.Client
	logger logging.Logger
}

// NewClient constructs a Client. httpClient may be nil.
func NewClient(cfg Config, logger logging.Logger, httpClient *http.Client) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Query == "" {
		cfg.Query = def.Query
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = def.HTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger.With(logging.Field{Key: "component", Value: "news"}),
	}
}

// Latest returns the provider's response body verbatim.
func (c *Client) Latest(ctx context.Context) (json.RawMessage, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("news: API key is not configured")
	}

	q := url.Values{
		"q":        {c.cfg.Query},
		"language": {"en"},
		"sortBy":   {"publishedAt"},
		"pageSize": {fmt.Sprintf("%d", c.cfg.PageSize)},
		"apiKey":   {c.cfg.APIKey},
	}
	endpoint := c.cfg.BaseURL + "/everything?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching news: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading news body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("news provider returned error status",
			logging.Field{Key: "status", Value: resp.StatusCode})
		return nil, fmt.Errorf("news provider status %d", resp.StatusCode)
	}
	return json.RawMessage(body), nil
}
