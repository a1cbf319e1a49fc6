// Package gemini turns structured scan findings into a human-readable report
// via the Gemini generateContent API. Generation is strictly best-effort: any
// failure falls back to a deterministic local template, so callers always get
// non-empty text and never an error.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/vigilynx/vigilynx/internal/logging"
	"github.com/vigilynx/vigilynx/internal/model"
	"github.com/vigilynx/vigilynx/internal/score"
)

// Generator implements interfaces.Narrator against the Gemini REST API.
type Generator struct {
	cfg    Config
	http   *http.Client
	logger logging.Logger
}

// request/response shapes for models/{model}:generateContent.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// NewGenerator constructs a Generator. httpClient may be nil.
func NewGenerator(cfg Config, logger logging.Logger, httpClient *http.Client) *Generator {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = def.MaxOutputTokens
	}
	if httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = def.HTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Generator{
		cfg:    cfg,
		http:   httpClient,
		logger: logger.With(logging.Field{Key: "component", Value: "gemini"}),
	}
}

// Generate produces the narrative for a scan. It never fails: model errors,
// quota problems, malformed responses and a missing API key all degrade to
// the local fallback report built from the same detection stats.
func (g *Generator) Generate(ctx context.Context, inputType model.InputType, input string, stats model.DetectionStats, analysis model.AnalysisRecord) string {
	pcts := score.Breakdown(stats)

	if g.cfg.APIKey == "" {
		g.logger.Warn("api key not configured, using fallback narrative")
		return fallbackNarrative(inputType, input, stats, analysis, pcts)
	}

	text, err := g.generate(ctx, buildPrompt(inputType, input, stats, analysis, pcts))
	if err != nil {
		g.logger.Warn("generation failed, using fallback narrative",
			logging.Field{Key: "input", Value: input},
			logging.Field{Key: "error", Value: err.Error()})
		return fallbackNarrative(inputType, input, stats, analysis, pcts)
	}

	// The prompt forbids the model from inventing its own percentages, but a
	// language model cannot be trusted with arithmetic: verify the embedded
	// pie-chart JSON and substitute the computed values if they diverge.
	return enforceBreakdown(text, pcts)
}

func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     g.cfg.Temperature,
			MaxOutputTokens: g.cfg.MaxOutputTokens,
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.cfg.BaseURL, g.cfg.Model, url.QueryEscape(g.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("generate: status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty candidate set")
	}

	text := strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("empty narrative text")
	}
	return text, nil
}

// Passthrough forwards raw prompt content to the generative endpoint and
// returns the provider's JSON body verbatim. Unlike Generate this propagates
// errors; it backs the thin generation proxy endpoint, not the scan pipeline.
func (g *Generator) Passthrough(ctx context.Context, promptText string) (json.RawMessage, error) {
	if g.cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is not configured")
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: promptText}}}},
		GenerationConfig: generationConfig{
			Temperature:     g.cfg.Temperature,
			MaxOutputTokens: g.cfg.MaxOutputTokens,
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.cfg.BaseURL, g.cfg.Model, url.QueryEscape(g.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("generate: status %d", resp.StatusCode)
	}
	return json.RawMessage(buf.Bytes()), nil
}
