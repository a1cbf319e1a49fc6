package news_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vigilynx/vigilynx/internal/interfaces"
	"github.com/vigilynx/vigilynx/internal/news"
)

func TestLatestPassesProviderBodyThrough(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "cybersecurity" || q.Get("apiKey") != "news-key" {
			t.Errorf("query = %v", q)
		}
		fmt.Fprint(w, `{"status":"ok","articles":[{"title":"breach"}]}`)
	}))
	defer ts.Close()

	cfg := news.DefaultConfig()
	cfg.APIKey = "news-key"
	cfg.BaseURL = ts.URL
	c := news.NewClient(cfg, interfaces.NewTestLogger(false), ts.Client())

	body, err := c.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if !strings.Contains(string(body), `"breach"`) {
		t.Errorf("body = %s", body)
	}
}

func TestLatestErrors(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	cfg := news.DefaultConfig()
	cfg.APIKey = "bad"
	cfg.BaseURL = ts.URL
	c := news.NewClient(cfg, interfaces.NewTestLogger(false), ts.Client())
	if _, err := c.Latest(context.Background()); err == nil {
		t.Fatal("expected error on 401")
	}

	noKey := news.NewClient(news.Config{BaseURL: ts.URL}, interfaces.NewTestLogger(false), ts.Client())
	if _, err := noKey.Latest(context.Background()); err == nil {
		t.Fatal("expected error without API key")
	}
}
