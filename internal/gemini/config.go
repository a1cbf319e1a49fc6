package gemini

import "time"

// Config for the generative narrative backend.
type Config struct {
	// APIKey authenticates against the generative-language API. When empty,
	// every Generate call goes straight to the local fallback template.
	APIKey string

	Model   string
	BaseURL string

	Temperature     float64
	MaxOutputTokens int

	// HTTPTimeout bounds the generation call; these calls are slow, and a
	// failure is recovered locally, so there is no retry.
	HTTPTimeout time.Duration
}

// DefaultConfig returns production defaults for the narrative backend.
func DefaultConfig() Config {
	return Config{
		Model:           "gemini-1.5-flash",
		BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
		Temperature:     0.7,
		MaxOutputTokens: 2048,
		HTTPTimeout:     45 * time.Second,
	}
}
