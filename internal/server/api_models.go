package server

import (
	"strings"

	"github.com/vigilynx/vigilynx/internal/model"
)

// errorResponse is the uniform non-2xx body. Upstream internals are never
// echoed into it.
type errorResponse struct {
	Error string `json:"error"`
}

// pendingResponse is the 202 body returned when a file analysis outlives the
// poll budget. The nulled fields keep the shape close to a completed scan so
// clients can render both uniformly.
type pendingResponse struct {
	Message     string  `json:"message"`
	AnalysisID  string  `json:"analysisId"`
	IsSafe      *bool   `json:"isSafe"`
	SafetyScore *int    `json:"safetyScore"`
	VTStats     any     `json:"vtStats"`
	VTFullData  any     `json:"vtFullData"`
	Narrative   string  `json:"geminiInsights"`
	InputType   string  `json:"inputType"`
	RecordID    *string `json:"recordId"`
}

func newPendingResponse(analysisID, message string) pendingResponse {
	return pendingResponse{
		Message:    message,
		AnalysisID: analysisID,
		Narrative:  "Analysis pending",
		InputType:  strings.ToLower(string(model.InputFile)),
	}
}

// analysisResponse is returned by the analysis-status endpoint.
type analysisResponse struct {
	AnalysisID string            `json:"analysisId"`
	Status     string            `json:"status"`
	Result     *model.ScanResult `json:"result,omitempty"`
}

// healthResponse reports service liveness.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// generateRequest is the body of the raw generation proxy endpoint.
type generateRequest struct {
	Content string `json:"content" validate:"required,max=8000"`
}
