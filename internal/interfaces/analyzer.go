package interfaces

import (
	"context"

	"github.com/vigilynx/vigilynx/internal/model"
)

// Analyzer is the contract for the upstream reputation-analysis provider.
// Hash, domain and IP lookups are synchronous; URL and file analysis may be
// asynchronous upstream, in which case implementations submit the input and
// poll until the analysis completes or the configured attempt budget runs out.
//
// The rest of the codebase depends on this abstraction rather than on a
// concrete provider client.
type Analyzer interface {
	// LookupHash fetches the detection report for a file hash (MD5/SHA1/SHA256).
	LookupHash(ctx context.Context, hash string) (*model.Report, error)

	// LookupDomain fetches the detection report for a domain name.
	LookupDomain(ctx context.Context, domain string) (*model.Report, error)

	// LookupIP fetches the detection report for an IP address.
	LookupIP(ctx context.Context, ip string) (*model.Report, error)

	// ScanURL fetches a previously analyzed URL report, or submits the URL
	// and polls for completion when the provider has never seen it.
	ScanURL(ctx context.Context, rawURL string) (*model.Report, error)

	// ScanFile submits file contents for analysis and polls for completion.
	// The returned analysis id is set even when the poll budget is exhausted,
	// so callers can surface a pending result and check back later. progress
	// may be nil; when set it is invoked once per poll attempt.
	ScanFile(ctx context.Context, filename string, contents []byte, progress ProgressFunc) (string, *model.Report, error)

	// Analysis fetches the current state of a previously submitted analysis.
	Analysis(ctx context.Context, analysisID string) (*model.AnalysisStatus, error)
}

// ProgressFunc receives poll-loop progress: the 1-based attempt number and the
// provider-reported status for that attempt.
type ProgressFunc func(attempt int, status string)
