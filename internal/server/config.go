package server

import "time"

// Config is the HTTP surface configuration.
type Config struct {
	// ListenAddr is the address the API server binds, e.g. ":5000".
	ListenAddr string

	// AllowedOrigins is handed to the CORS middleware. An empty list allows
	// any origin, which suits the browser-extension callers.
	AllowedOrigins []string

	// MaxFileSize caps multipart uploads on the file-scan endpoint, in bytes.
	MaxFileSize int64

	// RateLimit and FileRateLimit are per-IP request budgets over RateWindow.
	// The file endpoint gets the stricter budget.
	RateLimit     int
	FileRateLimit int
	RateWindow    time.Duration

	// FileRequestTimeout extends the handler deadline on the file-scan
	// endpoint, which legitimately waits out a slow upstream analysis.
	FileRequestTimeout time.Duration

	// EnableSwagger mounts the interactive API docs under /docs.
	EnableSwagger bool
}

// DefaultConfig mirrors the production posture: 50 MiB uploads, 100 requests
// per 15 minutes per IP, 30 for file scans.
func DefaultConfig() Config {
	return Config{
		ListenAddr:         ":5000",
		MaxFileSize:        50 << 20,
		RateLimit:          100,
		FileRateLimit:      30,
		RateWindow:         15 * time.Minute,
		FileRequestTimeout: 5 * time.Minute,
	}
}
