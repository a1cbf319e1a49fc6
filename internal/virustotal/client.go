// Package virustotal implements the upstream analysis client against the
// VirusTotal v3 REST API: synchronous resource lookups for hashes, domains
// and IP addresses, and the submit-then-poll workflow for URLs and files.
package virustotal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vigilynx/vigilynx/internal/interfaces"
	"github.com/vigilynx/vigilynx/internal/logging"
	"github.com/vigilynx/vigilynx/internal/model"
)

var (
	// ErrNotFound means the provider has no record of the resource.
	ErrNotFound = errors.New("resource not found")

	// ErrUpstream covers provider-side failures other than a missing resource.
	ErrUpstream = errors.New("upstream analysis error")

	// ErrAnalysisTimeout means the poll budget ran out before the analysis
	// completed. The analysis may still finish upstream later.
	ErrAnalysisTimeout = errors.New("analysis timed out")
)

// Client talks to the VirusTotal API. It keeps no state between calls.
type Client struct {
	cfg    Config
	http   *http.Client
	clock  interfaces.Clock
	logger logging.Logger
}

// NewClient constructs a Client. httpClient and clock may be nil, in which
// case defaults derived from cfg are used.
func NewClient(cfg Config, logger logging.Logger, httpClient *http.Client, clock interfaces.Clock) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("virustotal: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if clock == nil {
		clock = interfaces.RealClock{}
	}

	return &Client{
		cfg:    cfg,
		http:   httpClient,
		clock:  clock,
		logger: logger.With(logging.Field{Key: "component", Value: "virustotal"}),
	}, nil
}

// resourceEnvelope is the common shape of v3 object responses.
type resourceEnvelope struct {
	Data struct {
		ID         string          `json:"id"`
		Attributes json.RawMessage `json:"attributes"`
	} `json:"data"`
}

// resourceAttributes is the subset of object attributes the scan pipeline
// consumes; everything else rides along in the retained raw JSON.
type resourceAttributes struct {
	LastAnalysisStats model.DetectionStats `json:"last_analysis_stats"`
	Stats             model.DetectionStats `json:"stats"`
	Status            string               `json:"status"`
	Reputation        *int64               `json:"reputation"`
	ThreatNames       []string             `json:"threat_names"`
	Categories        map[string]string    `json:"categories"`
}

// LookupHash fetches the report for a file hash.
func (c *Client) LookupHash(ctx context.Context, hash string) (*model.Report, error) {
	return c.lookup(ctx, "/files/"+url.PathEscape(hash))
}

// LookupDomain fetches the report for a domain.
func (c *Client) LookupDomain(ctx context.Context, domain string) (*model.Report, error) {
	return c.lookup(ctx, "/domains/"+url.PathEscape(domain))
}

// LookupIP fetches the report for an IP address.
func (c *Client) LookupIP(ctx context.Context, ip string) (*model.Report, error) {
	return c.lookup(ctx, "/ip_addresses/"+url.PathEscape(ip))
}

func (c *Client) lookup(ctx context.Context, path string) (*model.Report, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	return reportFromResource(body, false)
}

// ScanURL resolves a URL report. The URL id is the padding-stripped URL-safe
// base64 of the raw URL, so previously analyzed URLs resolve with a single
// GET; unknown URLs are submitted and polled until completed or the URL poll
// budget runs out.
func (c *Client) ScanURL(ctx context.Context, rawURL string) (*model.Report, error) {
	id := URLIdentifier(rawURL)

	report, err := c.lookup(ctx, "/urls/"+id)
	if err == nil {
		return report, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	c.logger.Info("url unknown to provider, submitting",
		logging.Field{Key: "url", Value: rawURL})

	analysisID, err := c.submitURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	_, report, err = c.poll(ctx, analysisID, c.cfg.URLPollInterval, c.cfg.URLPollAttempts, nil)
	return report, err
}

// ScanFile submits file contents and polls with the file budget. The analysis
// id is returned alongside ErrAnalysisTimeout so callers can answer with a
// pending result that a client may follow up on.
func (c *Client) ScanFile(ctx context.Context, filename string, contents []byte, progress interfaces.ProgressFunc) (string, *model.Report, error) {
	analysisID, err := c.submitFile(ctx, filename, contents)
	if err != nil {
		return "", nil, err
	}

	c.logger.Info("file submitted for analysis",
		logging.Field{Key: "filename", Value: filename},
		logging.Field{Key: "analysis_id", Value: analysisID})

	_, report, err := c.poll(ctx, analysisID, c.cfg.FilePollInterval, c.cfg.FilePollAttempts, progress)
	return analysisID, report, err
}

// Analysis fetches the current state of a submitted analysis without waiting.
func (c *Client) Analysis(ctx context.Context, analysisID string) (*model.AnalysisStatus, error) {
	body, err := c.get(ctx, "/analyses/"+url.PathEscape(analysisID))
	if err != nil {
		return nil, err
	}

	var env resourceEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding analysis: %v", ErrUpstream, err)
	}
	var attrs resourceAttributes
	if err := json.Unmarshal(env.Data.Attributes, &attrs); err != nil {
		return nil, fmt.Errorf("%w: decoding analysis attributes: %v", ErrUpstream, err)
	}

	status := &model.AnalysisStatus{ID: analysisID, Status: attrs.Status}
	if attrs.Status == model.AnalysisCompleted {
		report, err := reportFromResource(body, true)
		if err != nil {
			return nil, err
		}
		status.Report = report
	}
	return status, nil
}

// poll drives the Submitted -> Polling -> Completed | TimedOut state machine.
// Each attempt sleeps first, then reads the analysis status, mirroring the
// provider's guidance that results are never ready immediately.
func (c *Client) poll(ctx context.Context, analysisID string, interval time.Duration, attempts int, progress interfaces.ProgressFunc) (string, *model.Report, error) {
	for i := 1; i <= attempts; i++ {
		if err := c.clock.Sleep(ctx, interval); err != nil {
			return analysisID, nil, err
		}

		status, err := c.Analysis(ctx, analysisID)
		if err != nil {
			return analysisID, nil, err
		}

		c.logger.Debug("poll attempt",
			logging.Field{Key: "analysis_id", Value: analysisID},
			logging.Field{Key: "attempt", Value: i},
			logging.Field{Key: "status", Value: status.Status})

		if progress != nil {
			progress(i, status.Status)
		}

		if status.Status == model.AnalysisCompleted {
			return analysisID, status.Report, nil
		}
	}

	c.logger.Warn("analysis poll budget exhausted",
		logging.Field{Key: "analysis_id", Value: analysisID},
		logging.Field{Key: "attempts", Value: attempts})
	return analysisID, nil, ErrAnalysisTimeout
}

func (c *Client) submitURL(ctx context.Context, rawURL string) (string, error) {
	form := url.Values{"url": {rawURL}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/urls", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	return analysisIDFrom(body)
}

func (c *Client) submitFile(ctx context.Context, filename string, contents []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create multipart: %w", err)
	}
	if _, err := part.Write(contents); err != nil {
		return "", fmt.Errorf("write multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/files", &buf)
	if err != nil {
		return "", fmt.Errorf("create submit request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	return analysisIDFrom(body)
}

func analysisIDFrom(body []byte) (string, error) {
	var env resourceEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("%w: decoding submit response: %v", ErrUpstream, err)
	}
	if env.Data.ID == "" {
		return "", fmt.Errorf("%w: submit response missing analysis id", ErrUpstream)
	}
	return env.Data.ID, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("x-apikey", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Warn("provider returned error status",
			logging.Field{Key: "status", Value: resp.StatusCode},
			logging.Field{Key: "url", Value: req.URL.Path})
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	return body, nil
}

// reportFromResource extracts stats and metadata from a v3 object body.
// Analysis objects carry counts under "stats"; resource objects carry them
// under "last_analysis_stats".
func reportFromResource(body []byte, analysis bool) (*model.Report, error) {
	var env resourceEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding resource: %v", ErrUpstream, err)
	}
	var attrs resourceAttributes
	if err := json.Unmarshal(env.Data.Attributes, &attrs); err != nil {
		return nil, fmt.Errorf("%w: decoding attributes: %v", ErrUpstream, err)
	}

	stats := attrs.LastAnalysisStats
	if analysis {
		stats = attrs.Stats
	}

	return &model.Report{
		Stats: stats,
		Analysis: model.AnalysisRecord{
			Reputation:  attrs.Reputation,
			ThreatNames: attrs.ThreatNames,
			Categories:  attrs.Categories,
			Raw:         env.Data.Attributes,
		},
	}, nil
}

// URLIdentifier derives the provider's URL resource id: URL-safe base64 of
// the raw URL with padding stripped.
func URLIdentifier(rawURL string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(rawURL))
}
