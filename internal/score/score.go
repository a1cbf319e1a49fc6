// Package score derives the boolean safety flag and the 0-100 safety score
// from upstream detection counts. Everything here is pure and deterministic.
package score

import (
	"math"

	"github.com/vigilynx/vigilynx/internal/model"
)

// Policy constants. These are product tuning knobs, not laws of nature: the
// safety threshold is the combined malicious+suspicious detection percentage
// above which an input is flagged, and the penalty weights are applied per
// flagging engine (absolute counts, so a handful of detections can swing the
// score sharply when few engines reported).
const (
	UnsafeThresholdPct = 5.0
	MaliciousPenalty   = 10
	SuspiciousPenalty  = 5
)

// Synthesize turns detection counts into a Verdict.
//
// isSafe holds whenever malicious and suspicious detections together stay
// under UnsafeThresholdPct of all engines. The score starts from the clean
// share of engines and subtracts the per-detection penalties, clamped to
// [0, 100].
func Synthesize(stats model.DetectionStats) model.Verdict {
	total := float64(stats.Total())

	maliciousPct := float64(stats.Malicious) / total * 100
	suspiciousPct := float64(stats.Suspicious) / total * 100

	base := float64(stats.Harmless+stats.Undetected) / total * 100
	penalty := float64(stats.Malicious)*MaliciousPenalty + float64(stats.Suspicious)*SuspiciousPenalty

	s := int(math.Round(base - penalty))
	if s < 0 {
		s = 0
	}
	if s > 100 {
		s = 100
	}

	return model.Verdict{
		IsSafe:      maliciousPct+suspiciousPct < UnsafeThresholdPct,
		SafetyScore: s,
	}
}

// Breakdown returns the rounded Safe/Malicious/Suspicious percentage split
// that narrative reports embed. Safe counts harmless plus undetected engines.
func Breakdown(stats model.DetectionStats) model.Percentages {
	total := float64(stats.Total())
	return model.Percentages{
		Safe:       int(math.Round(float64(stats.Harmless+stats.Undetected) / total * 100)),
		Malicious:  int(math.Round(float64(stats.Malicious) / total * 100)),
		Suspicious: int(math.Round(float64(stats.Suspicious) / total * 100)),
	}
}
