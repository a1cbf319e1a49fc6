package model

import (
	"encoding/json"
	"time"
)

// InputType classifies what kind of artifact a scan request refers to.
type InputType string

const (
	InputURL    InputType = "URL"
	InputDomain InputType = "Domain"
	InputHash   InputType = "Hash"
	InputIP     InputType = "IP Address"
	InputFile   InputType = "File"
)

// DetectionStats aggregates per-engine verdict counts as reported by the
// upstream provider. All fields are counts and immutable once received.
type DetectionStats struct {
	Malicious  uint `json:"malicious"`
	Suspicious uint `json:"suspicious"`
	Harmless   uint `json:"harmless"`
	Undetected uint `json:"undetected"`
	Timeout    uint `json:"timeout"`
}

// Total returns the sum of all engine counts, defaulting to 1 so ratio math
// never divides by zero when the provider reports nothing.
func (s DetectionStats) Total() uint {
	t := s.Malicious + s.Suspicious + s.Harmless + s.Undetected + s.Timeout
	if t == 0 {
		return 1
	}
	return t
}

// AnalysisRecord carries the provider's raw resource metadata. It is passed
// through to clients largely unvalidated; Raw retains the complete attribute
// object so nothing the provider returned is lost.
type AnalysisRecord struct {
	Reputation  *int64            `json:"reputation"`
	ThreatNames []string          `json:"threat_names,omitempty"`
	Categories  map[string]string `json:"categories,omitempty"`
	Raw         json.RawMessage   `json:"-"`
}

// Report is the unit returned by the upstream analysis client: detection
// counts plus the raw resource metadata they came with.
type Report struct {
	Stats    DetectionStats
	Analysis AnalysisRecord
}

// AnalysisStatus is the state of an asynchronous upstream analysis.
type AnalysisStatus struct {
	ID     string
	Status string
	// Report is set once Status indicates completion.
	Report *Report
}

// AnalysisCompleted is the provider status value that terminates a poll loop.
const AnalysisCompleted = "completed"

// Verdict is the synthesizer output: the boolean safety flag and the derived
// 0-100 safety score.
type Verdict struct {
	IsSafe      bool
	SafetyScore int
}

// Percentages is the rounded three-way detection split embedded in narrative
// reports. Safe covers harmless plus undetected engines.
type Percentages struct {
	Safe       int `json:"Safe"`
	Malicious  int `json:"Malicious"`
	Suspicious int `json:"Suspicious"`
}

// ScanResult is the consolidated outcome of one scan request. It is built
// once per request, optionally persisted, serialized to the client, and then
// discarded; the durable copy lives only in the external store.
type ScanResult struct {
	IsSafe      bool            `json:"isSafe"`
	SafetyScore int             `json:"safetyScore"`
	Stats       DetectionStats  `json:"vtStats"`
	FullData    json.RawMessage `json:"vtFullData"`
	Narrative   string          `json:"geminiInsights"`
	InputType   string          `json:"inputType"`
	RecordID    *string         `json:"recordId"`

	Analysis AnalysisRecord `json:"-"`
}

// InsightRecord is the persisted shape of a ScanResult, as stored in and read
// back from the insights tables.
type InsightRecord struct {
	ID          string          `json:"id"`
	Input       string          `json:"input"`
	Type        string          `json:"type"`
	IsSafe      bool            `json:"is_safe"`
	SafetyScore int             `json:"safety_score"`
	Stats       DetectionStats  `json:"vt_stats"`
	FullData    json.RawMessage `json:"vt_full_data"`
	Narrative   string          `json:"gemini_insights"`
	CreatedAt   time.Time       `json:"created_at"`
}
