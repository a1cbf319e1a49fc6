package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("VT_API_KEY", "test-key")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	if cfg.Server.ListenAddr != ":5000" {
		t.Errorf("expected default listen addr :5000, got %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.MaxFileSize != 50<<20 {
		t.Errorf("expected 50MB file cap, got %d", cfg.Server.MaxFileSize)
	}
	if cfg.VirusTotal.URLPollAttempts != 5 || cfg.VirusTotal.URLPollInterval != 2*time.Second {
		t.Errorf("unexpected URL poll cadence: %d x %s",
			cfg.VirusTotal.URLPollAttempts, cfg.VirusTotal.URLPollInterval)
	}
	if cfg.VirusTotal.FilePollAttempts != 30 || cfg.VirusTotal.FilePollInterval != 3*time.Second {
		t.Errorf("unexpected file poll cadence: %d x %s",
			cfg.VirusTotal.FilePollAttempts, cfg.VirusTotal.FilePollInterval)
	}
	if cfg.Insights.DatabaseURL != "" {
		t.Errorf("expected persistence unconfigured by default, got %q", cfg.Insights.DatabaseURL)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("VT_API_KEY", "test-key")
	t.Setenv("PORT", "8080")
	t.Setenv("VT_URL_POLL_INTERVAL", "500ms")
	t.Setenv("MAX_FILE_SIZE_MB", "10")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("expected :8080, got %q", cfg.Server.ListenAddr)
	}
	if cfg.VirusTotal.URLPollInterval != 500*time.Millisecond {
		t.Errorf("expected 500ms poll interval, got %s", cfg.VirusTotal.URLPollInterval)
	}
	if cfg.Server.MaxFileSize != 10<<20 {
		t.Errorf("expected 10MB cap, got %d", cfg.Server.MaxFileSize)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins: %v", cfg.Server.AllowedOrigins)
	}
}

func TestFromEnv_RequiresUpstreamKey(t *testing.T) {
	t.Setenv("VT_API_KEY", "")

	if _, err := FromEnv(); err == nil {
		t.Fatal("expected an error without VT_API_KEY")
	}
}
