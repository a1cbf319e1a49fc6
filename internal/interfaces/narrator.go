package interfaces

import (
	"context"

	"github.com/vigilynx/vigilynx/internal/model"
)

// Narrator produces the human-readable report for a scan. Implementations
// must never fail: when the generative backend is unreachable they fall back
// to a locally templated report, so the returned text is always non-empty.
type Narrator interface {
	Generate(ctx context.Context, inputType model.InputType, input string, stats model.DetectionStats, analysis model.AnalysisRecord) string
}
