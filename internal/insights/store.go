// Package insights persists scan results to the hosted Postgres database
// (Supabase) and reads them back for the insights feed. Writes are
// best-effort by contract: the orchestrator logs a failed insert and answers
// the client anyway, so nothing here retries.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vigilynx/vigilynx/internal/logging"
	"github.com/vigilynx/vigilynx/internal/model"
)

// Config for the insights store.
type Config struct {
	// DatabaseURL is a postgres:// connection string (the Supabase pooler URL).
	DatabaseURL string

	// ScanTable and FileTable are the destination tables for input scans and
	// file scans respectively.
	ScanTable string
	FileTable string

	// DefaultListLimit caps ListScans when the caller passes no limit.
	DefaultListLimit int

	ConnectTimeout time.Duration
}

// DefaultConfig returns the table names and limits used in production.
func DefaultConfig() Config {
	return Config{
		ScanTable:        "scan_insights",
		FileTable:        "file_insights",
		DefaultListLimit: 100,
		ConnectTimeout:   10 * time.Second,
	}
}

// Store implements interfaces.InsightStore over a pgx connection pool.
type Store struct {
	cfg    Config
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewStore connects the pool and verifies it with a ping.
func NewStore(ctx context.Context, cfg Config, logger logging.Logger) (*Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("insights: database URL is required")
	}
	def := DefaultConfig()
	if cfg.ScanTable == "" {
		cfg.ScanTable = def.ScanTable
	}
	if cfg.FileTable == "" {
		cfg.FileTable = def.FileTable
	}
	if cfg.DefaultListLimit <= 0 {
		cfg.DefaultListLimit = def.DefaultListLimit
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting insights pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging insights database: %w", err)
	}

	return &Store{
		cfg:    cfg,
		pool:   pool,
		logger: logger.With(logging.Field{Key: "component", Value: "insights"}),
	}, nil
}

// SaveScan inserts one scan row and returns its generated id. File scans land
// in the file table, everything else in the scan table.
func (s *Store) SaveScan(ctx context.Context, rec *model.InsightRecord) (string, error) {
	table := s.cfg.ScanTable
	if rec.Type == string(model.InputFile) {
		table = s.cfg.FileTable
	}

	statsJSON, err := json.Marshal(rec.Stats)
	if err != nil {
		return "", fmt.Errorf("marshal stats: %w", err)
	}
	fullData := rec.FullData
	if len(fullData) == 0 {
		fullData = json.RawMessage("{}")
	}

	id := uuid.New().String()
	query := fmt.Sprintf(`
		INSERT INTO %s (id, input, type, is_safe, safety_score, vt_stats, vt_full_data, gemini_insights, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`, table)

	if _, err := s.pool.Exec(ctx, query,
		id, rec.Input, rec.Type, rec.IsSafe, rec.SafetyScore, statsJSON, fullData, rec.Narrative); err != nil {
		return "", fmt.Errorf("inserting into %s: %w", table, err)
	}

	s.logger.Debug("scan persisted",
		logging.Field{Key: "record_id", Value: id},
		logging.Field{Key: "table", Value: table})
	return id, nil
}

// ListScans returns persisted scan rows, newest first.
func (s *Store) ListScans(ctx context.Context, limit int) ([]*model.InsightRecord, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultListLimit
	}

	query := fmt.Sprintf(`
		SELECT id, input, type, is_safe, safety_score, vt_stats, vt_full_data, gemini_insights, created_at
		FROM %s
		ORDER BY created_at DESC
		LIMIT $1`, s.cfg.ScanTable)

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.cfg.ScanTable, err)
	}
	defer rows.Close()

	var out []*model.InsightRecord
	for rows.Next() {
		var (
			rec       model.InsightRecord
			statsJSON []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Input, &rec.Type, &rec.IsSafe, &rec.SafetyScore,
			&statsJSON, &rec.FullData, &rec.Narrative, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning insight row: %w", err)
		}
		if err := json.Unmarshal(statsJSON, &rec.Stats); err != nil {
			s.logger.Warn("malformed stats column, leaving zeroed",
				logging.Field{Key: "record_id", Value: rec.ID},
				logging.Field{Key: "error", Value: err.Error()})
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating insight rows: %w", err)
	}
	return out, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}
