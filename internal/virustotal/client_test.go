package virustotal_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vigilynx/vigilynx/internal/interfaces"
	"github.com/vigilynx/vigilynx/internal/model"
	"github.com/vigilynx/vigilynx/internal/virustotal"
)

// instantClock skips real sleeping so poll loops run at test speed.
type instantClock struct {
	sleeps atomic.Int64
}

func (c *instantClock) Now() time.Time { return time.Unix(0, 0) }

func (c *instantClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps.Add(1)
	return ctx.Err()
}

func newTestClient(t *testing.T, ts *httptest.Server, attempts int) (*virustotal.Client, *instantClock) {
	t.Helper()
	cfg := virustotal.DefaultConfig()
	cfg.BaseURL = ts.URL
	cfg.APIKey = "test-key"
	cfg.URLPollAttempts = attempts
	cfg.FilePollAttempts = attempts
	clock := &instantClock{}
	c, err := virustotal.NewClient(cfg, interfaces.NewTestLogger(false), ts.Client(), clock)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, clock
}

func resourceBody(stats string) string {
	return fmt.Sprintf(`{"data":{"id":"res","attributes":{"last_analysis_stats":%s,"reputation":12,"threat_names":["evil"],"categories":{"vendor":"phishing"}}}}`, stats)
}

func analysisBody(status, stats string) string {
	return fmt.Sprintf(`{"data":{"id":"an","attributes":{"status":%q,"stats":%s}}}`, status, stats)
}

func TestLookupHash(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/deadbeef" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-apikey") != "test-key" {
			t.Errorf("missing api key header")
		}
		fmt.Fprint(w, resourceBody(`{"malicious":1,"suspicious":0,"harmless":60,"undetected":9,"timeout":0}`))
	}))
	defer ts.Close()

	c, _ := newTestClient(t, ts, 5)
	report, err := c.LookupHash(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("LookupHash: %v", err)
	}
	if report.Stats.Malicious != 1 || report.Stats.Harmless != 60 {
		t.Errorf("stats = %+v", report.Stats)
	}
	if report.Analysis.Reputation == nil || *report.Analysis.Reputation != 12 {
		t.Errorf("reputation = %v", report.Analysis.Reputation)
	}
	if len(report.Analysis.ThreatNames) != 1 || report.Analysis.ThreatNames[0] != "evil" {
		t.Errorf("threat names = %v", report.Analysis.ThreatNames)
	}
	if len(report.Analysis.Raw) == 0 {
		t.Error("raw attributes not retained")
	}
}

func TestLookupNotFound(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c, _ := newTestClient(t, ts, 5)
	if _, err := c.LookupDomain(context.Background(), "nope.example"); !errors.Is(err, virustotal.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLookupUpstreamError(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c, _ := newTestClient(t, ts, 5)
	if _, err := c.LookupIP(context.Background(), "8.8.8.8"); !errors.Is(err, virustotal.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

// A URL the provider already knows resolves with a single GET and no polling.
func TestScanURLKnown(t *testing.T) {
	t.Parallel()
	id := virustotal.URLIdentifier("https://example.com")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/urls/"+id {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, resourceBody(`{"malicious":0,"suspicious":0,"harmless":70,"undetected":10,"timeout":0}`))
	}))
	defer ts.Close()

	c, clock := newTestClient(t, ts, 5)
	report, err := c.ScanURL(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("ScanURL: %v", err)
	}
	if report.Stats.Harmless != 70 {
		t.Errorf("stats = %+v", report.Stats)
	}
	if clock.sleeps.Load() != 0 {
		t.Errorf("known URL should not poll, slept %d times", clock.sleeps.Load())
	}
}

// An unknown URL is submitted and polled until the analysis completes.
func TestScanURLSubmitAndPoll(t *testing.T) {
	t.Parallel()
	var polls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("GET /urls/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("POST /urls", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("url") != "https://fresh.example" {
			t.Errorf("submit body = %v (%v)", r.PostForm, err)
		}
		fmt.Fprint(w, `{"data":{"id":"an-123"}}`)
	})
	mux.HandleFunc("GET /analyses/an-123", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			fmt.Fprint(w, analysisBody("queued", `{}`))
			return
		}
		fmt.Fprint(w, analysisBody("completed", `{"malicious":0,"suspicious":0,"harmless":65,"undetected":8,"timeout":0}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, clock := newTestClient(t, ts, 5)
	report, err := c.ScanURL(context.Background(), "https://fresh.example")
	if err != nil {
		t.Fatalf("ScanURL: %v", err)
	}
	if report.Stats.Harmless != 65 {
		t.Errorf("stats = %+v", report.Stats)
	}
	if got := clock.sleeps.Load(); got != 3 {
		t.Errorf("slept %d times, want 3", got)
	}
}

// The poll budget bounds the state machine: exhaustion yields ErrAnalysisTimeout.
func TestScanURLPollTimeout(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /urls/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("POST /urls", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"an-stuck"}}`)
	})
	mux.HandleFunc("GET /analyses/an-stuck", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, analysisBody("queued", `{}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, clock := newTestClient(t, ts, 4)
	_, err := c.ScanURL(context.Background(), "https://slow.example")
	if !errors.Is(err, virustotal.ErrAnalysisTimeout) {
		t.Fatalf("err = %v, want ErrAnalysisTimeout", err)
	}
	if got := clock.sleeps.Load(); got != 4 {
		t.Errorf("slept %d times, want 4", got)
	}
}

func TestScanFileReportsProgressAndTimeout(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /files", func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("multipart file missing: %v", err)
		} else {
			f.Close()
			if hdr.Filename != "sample.bin" {
				t.Errorf("filename = %q", hdr.Filename)
			}
		}
		fmt.Fprint(w, `{"data":{"id":"an-file"}}`)
	})
	mux.HandleFunc("GET /analyses/an-file", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, analysisBody("queued", `{}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, _ := newTestClient(t, ts, 3)
	var attempts []int
	id, report, err := c.ScanFile(context.Background(), "sample.bin", []byte("payload"), func(attempt int, status string) {
		attempts = append(attempts, attempt)
		if status != "queued" {
			t.Errorf("status = %q", status)
		}
	})
	if !errors.Is(err, virustotal.ErrAnalysisTimeout) {
		t.Fatalf("err = %v, want ErrAnalysisTimeout", err)
	}
	if id != "an-file" {
		t.Errorf("analysis id = %q, want an-file (needed for 202 pending responses)", id)
	}
	if report != nil {
		t.Errorf("report = %+v, want nil on timeout", report)
	}
	if len(attempts) != 3 || attempts[2] != 3 {
		t.Errorf("progress attempts = %v", attempts)
	}
}

func TestScanFileCompletes(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /files", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"an-ok"}}`)
	})
	mux.HandleFunc("GET /analyses/an-ok", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, analysisBody("completed", `{"malicious":2,"suspicious":0,"harmless":58,"undetected":10,"timeout":0}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, _ := newTestClient(t, ts, 3)
	id, report, err := c.ScanFile(context.Background(), "ok.bin", []byte("x"), nil)
	if err != nil {
		t.Fatalf("ScanFile: %v", err)
	}
	if id != "an-ok" || report.Stats.Malicious != 2 {
		t.Errorf("id = %q, stats = %+v", id, report.Stats)
	}
}

func TestAnalysisPendingAndCompleted(t *testing.T) {
	t.Parallel()
	var done atomic.Bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if done.Load() {
			fmt.Fprint(w, analysisBody("completed", `{"malicious":0,"suspicious":0,"harmless":40,"undetected":5,"timeout":0}`))
			return
		}
		fmt.Fprint(w, analysisBody("queued", `{}`))
	}))
	defer ts.Close()

	c, _ := newTestClient(t, ts, 3)

	st, err := c.Analysis(context.Background(), "an-x")
	if err != nil {
		t.Fatalf("Analysis: %v", err)
	}
	if st.Status != "queued" || st.Report != nil {
		t.Errorf("pending status = %+v", st)
	}

	done.Store(true)
	st, err = c.Analysis(context.Background(), "an-x")
	if err != nil {
		t.Fatalf("Analysis: %v", err)
	}
	if st.Status != model.AnalysisCompleted || st.Report == nil || st.Report.Stats.Harmless != 40 {
		t.Errorf("completed status = %+v", st)
	}
}

// cancelingClock cancels the request context on its first sleep, simulating
// a client that disconnects mid-poll.
type cancelingClock struct {
	cancel context.CancelFunc
}

func (c *cancelingClock) Now() time.Time { return time.Unix(0, 0) }

func (c *cancelingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.cancel()
	return ctx.Err()
}

func TestPollStopsOnContextCancel(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /urls/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("POST /urls", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"an-cancel"}}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := virustotal.DefaultConfig()
	cfg.BaseURL = ts.URL
	cfg.APIKey = "test-key"
	c, err := virustotal.NewClient(cfg, interfaces.NewTestLogger(false), ts.Client(), &cancelingClock{cancel: cancel})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := c.ScanURL(ctx, "https://cancel.example"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
