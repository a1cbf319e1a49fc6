package app

import "time"

// Config contains the orchestrator's own runtime options. Component clients
// carry their cadence and endpoint configuration themselves and are injected
// already constructed.
type Config struct {
	// MaxInputLength rejects oversized scan inputs before classification.
	MaxInputLength int

	// WatchInterval and WatchAttempts drive the live analysis watcher that
	// feeds websocket subscribers of a pending file analysis.
	WatchInterval time.Duration
	WatchAttempts int
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxInputLength: 2000,
		WatchInterval:  3 * time.Second,
		WatchAttempts:  100,
	}
}
