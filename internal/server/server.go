// Package server is the HTTP and WebSocket API surface for VigiLynx: the
// scan endpoints, the insights feed, the news proxy and the live analysis
// watch stream.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/vigilynx/vigilynx/internal/app"
	"github.com/vigilynx/vigilynx/internal/gemini"
	"github.com/vigilynx/vigilynx/internal/logging"
	"github.com/vigilynx/vigilynx/internal/news"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Server is the API server. It delegates all scan work to the orchestrator.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	generator    *gemini.Generator
	newsClient   *news.Client
	router       chi.Router
	upgrader     websocket.Upgrader
	validate     *validator.Validate
	logger       logging.Logger
}

// NewServer wires routes and middleware around an already-constructed
// orchestrator. generator and newsClient back the proxy endpoints and may be
// nil, in which case those endpoints answer 503.
func NewServer(cfg Config, orch *app.Orchestrator, generator *gemini.Generator, newsClient *news.Client, logger logging.Logger) *Server {
	def := DefaultConfig()
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = def.MaxFileSize
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.FileRateLimit <= 0 {
		cfg.FileRateLimit = def.FileRateLimit
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = def.RateWindow
	}
	if cfg.FileRequestTimeout <= 0 {
		cfg.FileRequestTimeout = def.FileRequestTimeout
	}

	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		generator:    generator,
		newsClient:   newsClient,
		router:       chi.NewRouter(),
		validate:     validator.New(),
		logger:       logger.With(logging.Field{Key: "component", Value: "server"}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(s.cfg.RateLimit, s.cfg.RateWindow))

		r.Get("/api/scan", s.handleScan)
		r.Get("/api/analyses/{analysisID}", s.handleAnalysisStatus)
		r.Get("/api/insights", s.handleInsights)
		r.Get("/api/news", s.handleNews)
		r.Post("/api/gemini", s.handleGenerate)
		r.Get("/api/health", s.handleHealth)
	})

	// The file endpoint gets its own stricter budget: uploads are expensive
	// on both sides of the wire.
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(s.cfg.FileRateLimit, s.cfg.RateWindow))
		r.Post("/api/scan-file", s.handleScanFile)
	})

	r.Get("/ws/analyses/{analysisID}", s.handleWatchAnalysis)

	mountSwagger(r, s.cfg.EnableSwagger)
}

func (s *Server) allowedOrigins() []string {
	if len(s.cfg.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return s.cfg.AllowedOrigins
}

// accessLog records method, path, status and elapsed time for every request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("http_request",
			logging.Field{Key: "method", Value: r.Method},
			logging.Field{Key: "path", Value: r.URL.Path},
			logging.Field{Key: "status", Value: ww.Status()},
			logging.Field{Key: "elapsed", Value: time.Since(start).String()})
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe. Write timeout
// stays generous because the file-scan endpoint legitimately holds requests
// open while an upstream analysis runs.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  s.cfg.FileRequestTimeout,
		WriteTimeout: s.cfg.FileRequestTimeout,
	}
}

// Shutdown drains the given http.Server.
func (s *Server) Shutdown(ctx context.Context, hs *http.Server) error {
	return hs.Shutdown(ctx)
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
