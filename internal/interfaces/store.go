package interfaces

import (
	"context"

	"github.com/vigilynx/vigilynx/internal/model"
)

// InsightStore is the durable home of scan results. Writes are best-effort:
// callers log failures and carry on, so implementations should not retry.
// Implementations must be safe for concurrent use.
type InsightStore interface {
	// SaveScan inserts one scan row and returns its generated record id.
	SaveScan(ctx context.Context, rec *model.InsightRecord) (string, error)

	// ListScans returns persisted scan rows, newest first. limit <= 0 means
	// the implementation's default page size.
	ListScans(ctx context.Context, limit int) ([]*model.InsightRecord, error)

	// Close releases the underlying connections.
	Close()
}
