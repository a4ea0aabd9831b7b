package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

type Config struct {
	Path        string // sqlite file path
	BusyTimeout time.Duration
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS extract_jobs (
	id             TEXT PRIMARY KEY,
	source_path    TEXT NOT NULL,
	format         TEXT NOT NULL,
	status         TEXT NOT NULL,
	started_at     TEXT NOT NULL,
	finished_at    TEXT,
	error_message  TEXT,
	needs_review   INTEGER NOT NULL DEFAULT 0,
	ocr_text       TEXT,
	extracted_json TEXT,
	invalid_meds   TEXT
);
CREATE INDEX IF NOT EXISTS idx_extract_jobs_started_at ON extract_jobs(started_at);
`

// Open opens (creating if needed) the sqlite job store and applies the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	logger.Info("opening job store", "path", cfg.Path)
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open job store", "error", err)
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one writer at a time; sqlite serializes writes anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		logger.Error("failed to apply schema", "error", err)
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	logger.Info("job store ready")
	return db, nil
}

// Close closes the database gracefully
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close job store", "error", err)
		return
	}
	logger.Info("job store closed")
}

// HealthCheck pings the store.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}
