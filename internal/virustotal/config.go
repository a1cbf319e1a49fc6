package virustotal

import "time"

// Config carries everything needed to construct a Client. Poll cadences are
// deliberately configurable: URL analyses usually land within seconds, file
// analyses can take minutes.
type Config struct {
	// BaseURL is the provider API root, without a trailing slash.
	BaseURL string

	// APIKey is sent on every request via the x-apikey header.
	APIKey string

	// HTTPTimeout bounds each individual provider call so a hung upstream
	// cannot stall a request beyond it.
	HTTPTimeout time.Duration

	URLPollInterval time.Duration
	URLPollAttempts int

	FilePollInterval time.Duration
	FilePollAttempts int
}

// DefaultConfig returns a Config populated with the production cadences:
// 5 x 2s for URL analyses, 30 x 3s for file analyses.
func DefaultConfig() Config {
	return Config{
		BaseURL:          "https://www.virustotal.com/api/v3",
		HTTPTimeout:      30 * time.Second,
		URLPollInterval:  2 * time.Second,
		URLPollAttempts:  5,
		FilePollInterval: 3 * time.Second,
		FilePollAttempts: 30,
	}
}
