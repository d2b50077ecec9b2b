package datastore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/scriptwatch/scriptwatch/internal/errorwrapper"
	"github.com/scriptwatch/scriptwatch/internal/models"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const scanLedgerSchema = `
CREATE TABLE IF NOT EXISTS scan_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	domain TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	processed INTEGER NOT NULL DEFAULT 0,
	added INTEGER NOT NULL DEFAULT 0,
	modified INTEGER NOT NULL DEFAULT 0,
	removed INTEGER NOT NULL DEFAULT 0,
	renamed INTEGER NOT NULL DEFAULT 0,
	new_endpoints INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_scan_sessions_domain ON scan_sessions(domain);
`

// ScanLedger records scan sessions in SQLite. Its autoincrement row ID doubles
// as the monotonic scan ID for snapshots, and its per-domain history lets the
// pipeline tell a genuine first run from a lost snapshot file.
type ScanLedger struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewScanLedger opens (creating if needed) the ledger database at the given path.
func NewScanLedger(path string, logger zerolog.Logger) (*ScanLedger, error) {
	if path == "" {
		return nil, errorwrapper.NewValidationError("scan_ledger_path", path, "ledger path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to ensure ledger directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to open scan ledger database")
	}
	if _, err := db.Exec(scanLedgerSchema); err != nil {
		db.Close()
		return nil, errorwrapper.WrapError(err, "failed to initialize scan ledger schema")
	}

	return &ScanLedger{
		db:     db,
		logger: logger.With().Str("component", "ScanLedger").Logger(),
	}, nil
}

// BeginScan allocates a new monotonic scan ID for a domain's cycle.
func (l *ScanLedger) BeginScan(ctx context.Context, domain string) (int64, error) {
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO scan_sessions (domain, started_at) VALUES (?, ?)`,
		domain, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, errorwrapper.WrapError(err, "failed to allocate scan session")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errorwrapper.WrapError(err, "failed to read allocated scan id")
	}
	return id, nil
}

// CompleteScan marks a scan session finished and records its summary counts.
func (l *ScanLedger) CompleteScan(ctx context.Context, scanID int64, counts models.DomainCounts) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE scan_sessions
		 SET finished_at = ?, processed = ?, added = ?, modified = ?, removed = ?, renamed = ?, new_endpoints = ?
		 WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339),
		counts.Processed, counts.Added, counts.Modified, counts.Removed, counts.Renamed, counts.NewEndpoints,
		scanID)
	if err != nil {
		return errorwrapper.WrapError(err, "failed to complete scan session")
	}
	return nil
}

// HasHistory reports whether any completed scan session exists for a domain.
// Used to warn when a snapshot file vanished under a domain that has history.
func (l *ScanLedger) HasHistory(ctx context.Context, domain string) (bool, error) {
	var count int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM scan_sessions WHERE domain = ? AND finished_at IS NOT NULL`,
		domain).Scan(&count)
	if err != nil {
		return false, errorwrapper.WrapError(err, "failed to query scan history")
	}
	return count > 0, nil
}

// Close releases the underlying database handle.
func (l *ScanLedger) Close() error {
	return l.db.Close()
}
