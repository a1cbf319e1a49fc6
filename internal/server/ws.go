package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vigilynx/vigilynx/internal/app"
	"github.com/vigilynx/vigilynx/internal/logging"
)

// handleWatchAnalysis upgrades to a websocket and streams watch events for a
// pending analysis until it completes or the client goes away. The final
// event is either a result or an error; the server closes the socket after.
func (s *Server) handleWatchAnalysis(w http.ResponseWriter, r *http.Request) {
	analysisID := chi.URLParam(r, "analysisID")
	if analysisID == "" {
		writeError(w, http.StatusBadRequest, "analysis id is required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.logger.Info("analysis watch started", logging.Field{Key: "analysis_id", Value: analysisID})

	s.orchestrator.WatchAnalysis(ctx, analysisID, func(ev app.WatchEvent) {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; stop the watch
			cancel()
		}
	})
}
