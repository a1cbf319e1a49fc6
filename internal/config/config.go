// Package config assembles the per-package configuration structs from the
// process environment. Every knob has a default; only the upstream API key
// is mandatory.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vigilynx/vigilynx/internal/app"
	"github.com/vigilynx/vigilynx/internal/gemini"
	"github.com/vigilynx/vigilynx/internal/insights"
	"github.com/vigilynx/vigilynx/internal/logging"
	"github.com/vigilynx/vigilynx/internal/news"
	"github.com/vigilynx/vigilynx/internal/server"
	"github.com/vigilynx/vigilynx/internal/virustotal"
)

// Config is the full runtime configuration, one section per component.
type Config struct {
	Server     server.Config
	VirusTotal virustotal.Config `validate:"required"`
	Gemini     gemini.Config
	Insights   insights.Config
	News       news.Config
	App        *app.Config
	Logging    logging.Options
}

// FromEnv reads the environment into a Config. Empty optional keys leave
// their component unconfigured: no DATABASE_URL means no persistence, no
// GEMINI_API_KEY means fallback narratives only, no NEWS_API_KEY disables
// the news proxy.
func FromEnv() (*Config, error) {
	vt := virustotal.DefaultConfig()
	vt.APIKey = os.Getenv("VT_API_KEY")
	vt.BaseURL = getEnvOrDefault("VT_BASE_URL", vt.BaseURL)
	vt.URLPollInterval = getEnvDurationOrDefault("VT_URL_POLL_INTERVAL", vt.URLPollInterval)
	vt.URLPollAttempts = getEnvIntOrDefault("VT_URL_POLL_ATTEMPTS", vt.URLPollAttempts)
	vt.FilePollInterval = getEnvDurationOrDefault("VT_FILE_POLL_INTERVAL", vt.FilePollInterval)
	vt.FilePollAttempts = getEnvIntOrDefault("VT_FILE_POLL_ATTEMPTS", vt.FilePollAttempts)

	gem := gemini.DefaultConfig()
	gem.APIKey = os.Getenv("GEMINI_API_KEY")
	gem.Model = getEnvOrDefault("GEMINI_MODEL", gem.Model)

	ins := insights.DefaultConfig()
	ins.DatabaseURL = os.Getenv("DATABASE_URL")

	nw := news.DefaultConfig()
	nw.APIKey = os.Getenv("NEWS_API_KEY")

	appCfg := app.DefaultConfig()
	appCfg.MaxInputLength = getEnvIntOrDefault("MAX_INPUT_LENGTH", appCfg.MaxInputLength)

	srv := server.DefaultConfig()
	srv.ListenAddr = ":" + getEnvOrDefault("PORT", "5000")
	srv.AllowedOrigins = splitAndTrim(os.Getenv("ALLOWED_ORIGINS"))
	srv.MaxFileSize = int64(getEnvIntOrDefault("MAX_FILE_SIZE_MB", 50)) << 20
	srv.RateLimit = getEnvIntOrDefault("RATE_LIMIT", srv.RateLimit)
	srv.FileRateLimit = getEnvIntOrDefault("FILE_RATE_LIMIT", srv.FileRateLimit)
	srv.RateWindow = getEnvDurationOrDefault("RATE_WINDOW", srv.RateWindow)
	srv.EnableSwagger = getEnvBoolOrDefault("ENABLE_SWAGGER", false)

	cfg := &Config{
		Server:     srv,
		VirusTotal: vt,
		Gemini:     gem,
		Insights:   ins,
		News:       nw,
		App:        appCfg,
		Logging: logging.Options{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.VirusTotal.APIKey == "" {
		return fmt.Errorf("VT_API_KEY is required")
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
