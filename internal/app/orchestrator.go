// Package app sequences one scan request through its full pipeline:
// classification, upstream analysis, score synthesis, narrative generation
// and the best-effort persistence write. The orchestrator owns no state
// between requests; every chain runs independently on its caller's context.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vigilynx/vigilynx/internal/classify"
	"github.com/vigilynx/vigilynx/internal/interfaces"
	"github.com/vigilynx/vigilynx/internal/logging"
	"github.com/vigilynx/vigilynx/internal/model"
	"github.com/vigilynx/vigilynx/internal/score"
	"github.com/vigilynx/vigilynx/internal/virustotal"
)

// ErrInputTooLong rejects inputs above Config.MaxInputLength.
var ErrInputTooLong = errors.New("input exceeds maximum length")

// Orchestrator ties the scan pipeline together. All collaborators are
// injected once at startup; there are no hidden singletons.
type Orchestrator struct {
	cfg      *Config
	analyzer interfaces.Analyzer
	narrator interfaces.Narrator
	store    interfaces.InsightStore
	clock    interfaces.Clock
	logger   logging.Logger
}

// NewOrchestrator wires config, collaborators and logger. store may be nil
// when persistence is not configured; every result then carries a null
// record id. clock may be nil.
func NewOrchestrator(cfg *Config, analyzer interfaces.Analyzer, narrator interfaces.Narrator, store interfaces.InsightStore, clock interfaces.Clock, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if clock == nil {
		clock = interfaces.RealClock{}
	}
	return &Orchestrator{
		cfg:      cfg,
		analyzer: analyzer,
		narrator: narrator,
		store:    store,
		clock:    clock,
		logger:   logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
	}
}

// Scan runs the full pipeline for a string input. Classification and
// upstream-analysis failures propagate; narrative and persistence failures
// are absorbed here and never reach the caller.
func (o *Orchestrator) Scan(ctx context.Context, input string) (*model.ScanResult, error) {
	// The trimmed value is what gets classified, so it is also what must go
	// upstream; surrounding whitespace would name a different resource there.
	input = strings.TrimSpace(input)
	if o.cfg.MaxInputLength > 0 && len(input) > o.cfg.MaxInputLength {
		return nil, ErrInputTooLong
	}

	inputType, err := classify.Detect(input)
	if err != nil {
		return nil, err
	}

	o.logger.Info("scan classified",
		logging.Field{Key: "input", Value: input},
		logging.Field{Key: "type", Value: inputType})

	var report *model.Report
	switch inputType {
	case model.InputURL:
		report, err = o.analyzer.ScanURL(ctx, input)
	case model.InputHash:
		report, err = o.analyzer.LookupHash(ctx, input)
	case model.InputDomain:
		report, err = o.analyzer.LookupDomain(ctx, input)
	case model.InputIP:
		report, err = o.analyzer.LookupIP(ctx, input)
	default:
		return nil, classify.ErrUnrecognizedInput
	}
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", inputType, err)
	}

	return o.finish(ctx, inputType, input, report), nil
}

// FileScanOutcome is the result of a file scan. Pending is set when the poll
// budget ran out; AnalysisID then lets a client follow the analysis later.
type FileScanOutcome struct {
	AnalysisID string
	Pending    bool
	Result     *model.ScanResult
}

// ScanFile submits uploaded file contents and polls for the verdict.
// Exhausting the poll budget is not an error at this level: the outcome comes
// back pending with the upstream analysis id. progress may be nil.
func (o *Orchestrator) ScanFile(ctx context.Context, filename string, contents []byte, progress interfaces.ProgressFunc) (*FileScanOutcome, error) {
	analysisID, report, err := o.analyzer.ScanFile(ctx, filename, contents, progress)
	if err != nil {
		if errors.Is(err, virustotal.ErrAnalysisTimeout) {
			o.logger.Warn("file analysis still pending after poll budget",
				logging.Field{Key: "filename", Value: filename},
				logging.Field{Key: "analysis_id", Value: analysisID})
			return &FileScanOutcome{AnalysisID: analysisID, Pending: true}, nil
		}
		return nil, fmt.Errorf("analyzing file: %w", err)
	}

	result := o.finish(ctx, model.InputFile, filename, report)
	return &FileScanOutcome{AnalysisID: analysisID, Result: result}, nil
}

// finish runs the tail of the pipeline shared by every scan kind: score,
// narrate, persist. The narrative call cannot fail by contract, and a store
// failure only nulls the record id.
func (o *Orchestrator) finish(ctx context.Context, inputType model.InputType, input string, report *model.Report) *model.ScanResult {
	verdict := score.Synthesize(report.Stats)
	narrative := o.narrator.Generate(ctx, inputType, input, report.Stats, report.Analysis)

	result := &model.ScanResult{
		IsSafe:      verdict.IsSafe,
		SafetyScore: verdict.SafetyScore,
		Stats:       report.Stats,
		FullData:    report.Analysis.Raw,
		Narrative:   narrative,
		// Responses carry the lowercased type; persisted rows keep the
		// internal value.
		InputType: strings.ToLower(string(inputType)),
		Analysis:  report.Analysis,
	}
	result.RecordID = o.persistBestEffort(ctx, inputType, input, result)

	o.logger.Info("scan completed",
		logging.Field{Key: "input", Value: input},
		logging.Field{Key: "is_safe", Value: result.IsSafe},
		logging.Field{Key: "safety_score", Value: result.SafetyScore})
	return result
}

// persistBestEffort attempts the insert, captures the outcome, and never
// propagates a failure.
func (o *Orchestrator) persistBestEffort(ctx context.Context, inputType model.InputType, input string, result *model.ScanResult) *string {
	if o.store == nil {
		return nil
	}

	rec := &model.InsightRecord{
		Input:       input,
		Type:        string(inputType),
		IsSafe:      result.IsSafe,
		SafetyScore: result.SafetyScore,
		Stats:       result.Stats,
		FullData:    result.FullData,
		Narrative:   result.Narrative,
	}
	id, err := o.store.SaveScan(ctx, rec)
	if err != nil {
		o.logger.Error("persisting scan failed, responding without record id",
			logging.Field{Key: "input", Value: input},
			logging.Field{Key: "error", Value: err.Error()})
		return nil
	}
	return &id
}

// CheckAnalysis reports the current state of a previously submitted analysis.
// When the analysis has completed, the report is scored and narrated so the
// caller receives the same result shape a synchronous scan would have
// produced.
func (o *Orchestrator) CheckAnalysis(ctx context.Context, analysisID string) (pending bool, status string, result *model.ScanResult, err error) {
	st, err := o.analyzer.Analysis(ctx, analysisID)
	if err != nil {
		return false, "", nil, fmt.Errorf("checking analysis: %w", err)
	}
	if st.Status != model.AnalysisCompleted {
		return true, st.Status, nil, nil
	}
	return false, st.Status, o.finish(ctx, model.InputFile, analysisID, st.Report), nil
}

// WatchEventType discriminates watch stream events.
type WatchEventType string

const (
	WatchEventProgress WatchEventType = "progress"
	WatchEventResult   WatchEventType = "result"
	WatchEventError    WatchEventType = "error"
)

// WatchEvent is one message on a live analysis watch stream.
type WatchEvent struct {
	Type    WatchEventType    `json:"type"`
	Attempt int               `json:"attempt,omitempty"`
	Status  string            `json:"status,omitempty"`
	Error   string            `json:"error,omitempty"`
	Result  *model.ScanResult `json:"result,omitempty"`
}

// WatchAnalysis polls a pending analysis on the configured watch cadence and
// invokes emit for every state change until the analysis completes, the
// budget runs out, or ctx is canceled. The final event is either a result or
// an error.
func (o *Orchestrator) WatchAnalysis(ctx context.Context, analysisID string, emit func(WatchEvent)) {
	for attempt := 1; attempt <= o.cfg.WatchAttempts; attempt++ {
		pending, status, result, err := o.CheckAnalysis(ctx, analysisID)
		if err != nil {
			emit(WatchEvent{Type: WatchEventError, Attempt: attempt, Error: "analysis check failed"})
			return
		}
		if !pending {
			emit(WatchEvent{Type: WatchEventResult, Attempt: attempt, Status: status, Result: result})
			return
		}

		emit(WatchEvent{Type: WatchEventProgress, Attempt: attempt, Status: status})

		if err := o.clock.Sleep(ctx, o.cfg.WatchInterval); err != nil {
			return
		}
	}
	emit(WatchEvent{Type: WatchEventError, Error: "analysis still pending after watch budget"})
}

// Insights lists persisted scan rows, newest first.
func (o *Orchestrator) Insights(ctx context.Context, limit int) ([]*model.InsightRecord, error) {
	if o.store == nil {
		return nil, fmt.Errorf("insights store is not configured")
	}
	return o.store.ListScans(ctx, limit)
}
