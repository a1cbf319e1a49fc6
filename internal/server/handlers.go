package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vigilynx/vigilynx/internal/app"
	"github.com/vigilynx/vigilynx/internal/classify"
	"github.com/vigilynx/vigilynx/internal/logging"
	"github.com/vigilynx/vigilynx/internal/model"
	"github.com/vigilynx/vigilynx/internal/virustotal"
)

// handleScan runs the synchronous scan pipeline for a string input.
//
// @Summary Scan a URL, domain, hash or IP address
// @Tags Scan
// @Produce json
// @Param input query string true "Input to classify and scan"
// @Success 200 {object} model.ScanResult
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/scan [get]
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("input")
	if input == "" {
		writeError(w, http.StatusBadRequest, "Input is required")
		return
	}

	result, err := s.orchestrator.Scan(r.Context(), input)
	if err != nil {
		s.respondScanError(w, input, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) respondScanError(w http.ResponseWriter, input string, err error) {
	switch {
	case errors.Is(err, classify.ErrUnrecognizedInput):
		writeError(w, http.StatusBadRequest, "Invalid input type. Please provide a valid URL, domain, hash, or IP address.")
	case errors.Is(err, app.ErrInputTooLong):
		writeError(w, http.StatusBadRequest, "Input exceeds maximum length")
	case errors.Is(err, virustotal.ErrNotFound):
		writeError(w, http.StatusNotFound, "No analysis available for this input")
	default:
		// Upstream failures and poll timeouts alike; details stay in the log.
		s.logger.Error("scan failed",
			logging.Field{Key: "input", Value: input},
			logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "Scan failed")
	}
}

// handleScanFile accepts a multipart upload and runs the file pipeline. A
// file whose analysis outlives the poll budget answers 202 with the upstream
// analysis id; this differs deliberately from the URL path's 500, which has
// a much smaller budget and no client-side follow-up story.
//
// @Summary Scan an uploaded file
// @Tags Scan
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to analyze"
// @Success 200 {object} model.ScanResult
// @Success 202 {object} pendingResponse
// @Failure 400 {object} errorResponse
// @Failure 413 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/scan-file [post]
func (s *Server) handleScanFile(w http.ResponseWriter, r *http.Request) {
	// This request legitimately outlives normal deadlines while the upstream
	// analysis runs.
	rc := http.NewResponseController(w)
	deadline := time.Now().Add(s.cfg.FileRequestTimeout)
	_ = rc.SetReadDeadline(deadline)
	_ = rc.SetWriteDeadline(deadline)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize+1)
	if err := r.ParseMultipartForm(s.cfg.MaxFileSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File exceeds maximum size of %dMB", s.cfg.MaxFileSize>>20))
			return
		}
		writeError(w, http.StatusBadRequest, "Valid file is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Valid file is required")
		return
	}
	defer file.Close()

	if header.Size == 0 {
		writeError(w, http.StatusBadRequest, "Valid file is required")
		return
	}
	if header.Size > s.cfg.MaxFileSize {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds maximum size of %dMB", s.cfg.MaxFileSize>>20))
		return
	}

	contents, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Valid file is required")
		return
	}

	s.logger.Info("file scan requested",
		logging.Field{Key: "filename", Value: header.Filename},
		logging.Field{Key: "size", Value: header.Size})

	outcome, err := s.orchestrator.ScanFile(r.Context(), header.Filename, contents, nil)
	if err != nil {
		s.logger.Error("file scan failed",
			logging.Field{Key: "filename", Value: header.Filename},
			logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "Scan failed")
		return
	}

	if outcome.Pending {
		writeJSON(w, http.StatusAccepted, newPendingResponse(outcome.AnalysisID,
			"File scan queued, analysis still in progress"))
		return
	}
	writeJSON(w, http.StatusOK, outcome.Result)
}

// handleAnalysisStatus reports a previously submitted analysis, completing
// the follow-up story for 202-pending file scans.
//
// @Summary Check a pending analysis
// @Tags Scan
// @Produce json
// @Param analysisID path string true "Upstream analysis id"
// @Success 200 {object} analysisResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/analyses/{analysisID} [get]
func (s *Server) handleAnalysisStatus(w http.ResponseWriter, r *http.Request) {
	analysisID := chi.URLParam(r, "analysisID")

	pending, status, result, err := s.orchestrator.CheckAnalysis(r.Context(), analysisID)
	if err != nil {
		if errors.Is(err, virustotal.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Analysis not found")
			return
		}
		s.logger.Error("analysis check failed",
			logging.Field{Key: "analysis_id", Value: analysisID},
			logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to check analysis")
		return
	}

	resp := analysisResponse{AnalysisID: analysisID, Status: status}
	if !pending {
		resp.Result = result
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleInsights lists persisted scan results, newest first.
//
// @Summary List persisted scan insights
// @Tags Insights
// @Produce json
// @Param limit query int false "Maximum rows"
// @Success 200 {array} model.InsightRecord
// @Failure 500 {object} errorResponse
// @Router /api/insights [get]
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}

	rows, err := s.orchestrator.Insights(r.Context(), limit)
	if err != nil {
		s.logger.Error("insights fetch failed", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to fetch insights")
		return
	}
	if rows == nil {
		rows = []*model.InsightRecord{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleNews proxies the cybersecurity headlines feed.
//
// @Summary Latest cybersecurity news
// @Tags News
// @Produce json
// @Success 200 {object} object
// @Failure 500 {object} errorResponse
// @Router /api/news [get]
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.newsClient == nil {
		writeError(w, http.StatusServiceUnavailable, "News feed is not configured")
		return
	}

	body, err := s.newsClient.Latest(r.Context())
	if err != nil {
		s.logger.Error("news fetch failed", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to fetch news")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleGenerate forwards raw prompt content to the generative endpoint.
//
// @Summary Raw generative-model proxy
// @Tags Generate
// @Accept json
// @Produce json
// @Param payload body generateRequest true "Prompt content"
// @Success 200 {object} object
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/gemini [post]
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		writeError(w, http.StatusServiceUnavailable, "Generation is not configured")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "content is required and must be under 8000 characters")
		return
	}

	body, err := s.generator.Passthrough(r.Context(), req.Content)
	if err != nil {
		s.logger.Error("generation proxy failed", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to process generation request")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleHealth reports liveness.
//
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} healthResponse
// @Router /api/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}
