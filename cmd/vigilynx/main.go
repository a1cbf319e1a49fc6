// Command vigilynx starts the scan-orchestration API server.
// Usage: vigilynx (configuration comes from the environment; a .env file in
// the working directory is loaded when present).
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vigilynx/vigilynx/internal/app"
	"github.com/vigilynx/vigilynx/internal/config"
	"github.com/vigilynx/vigilynx/internal/gemini"
	"github.com/vigilynx/vigilynx/internal/insights"
	"github.com/vigilynx/vigilynx/internal/interfaces"
	"github.com/vigilynx/vigilynx/internal/logging"
	"github.com/vigilynx/vigilynx/internal/news"
	"github.com/vigilynx/vigilynx/internal/server"
	"github.com/vigilynx/vigilynx/internal/virustotal"
)

func main() {
	// Missing .env is fine; real deployments configure the process directly.
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		logging.New(logging.Options{}).Error("configuration",
			logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyzer, err := virustotal.NewClient(cfg.VirusTotal, logger, nil, interfaces.RealClock{})
	if err != nil {
		return err
	}

	generator := gemini.NewGenerator(cfg.Gemini, logger, nil)
	if cfg.Gemini.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, narratives use the local fallback template")
	}

	var newsClient *news.Client
	if cfg.News.APIKey != "" {
		newsClient = news.NewClient(cfg.News, logger, nil)
	} else {
		logger.Warn("NEWS_API_KEY not set, news endpoint disabled")
	}

	var store *insights.Store
	if cfg.Insights.DatabaseURL != "" {
		store, err = insights.NewStore(ctx, cfg.Insights, logger)
		if err != nil {
			// Persistence is best-effort end to end; start without it.
			logger.Error("connecting to insights store, continuing without persistence",
				logging.Field{Key: "error", Value: err.Error()})
			store = nil
		} else {
			defer store.Close()
		}
	} else {
		logger.Warn("DATABASE_URL not set, scan results will not be persisted")
	}

	var insightStore interfaces.InsightStore
	if store != nil {
		insightStore = store
	}

	orch := app.NewOrchestrator(cfg.App, analyzer, generator, insightStore, interfaces.RealClock{}, logger)
	srv := server.NewServer(cfg.Server, orch, generator, newsClient, logger)
	hs := srv.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: cfg.Server.ListenAddr})
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx, hs)
}
