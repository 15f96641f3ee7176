package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mdreorg/mdreorg/internal/model"
)

// HistoryDB provides SQLite-based storage for run reports.
// It manages the connection and provides methods for saving and querying
// past runs.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in the specified directory.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "mdreorg.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per check/plan/apply invocation
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root TEXT NOT NULL,
		mode TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		document_count INTEGER DEFAULT 0,
		move_count INTEGER DEFAULT 0,
		patch_count INTEGER DEFAULT 0,
		ok_count INTEGER DEFAULT 0,
		broken_count INTEGER DEFAULT 0,
		external_count INTEGER DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_root ON runs(root);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);

	-- Broken references per run, for quick listing without JSON parsing
	CREATE TABLE IF NOT EXISTS broken_refs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		owner TEXT NOT NULL,
		line INTEGER NOT NULL,
		target TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_broken_run ON broken_refs(run_id);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored run summary.
type RunRecord struct {
	ID            int64
	Root          string
	Mode          string
	Timestamp     time.Time
	DocumentCount int
	MoveCount     int
	PatchCount    int
	OKCount       int
	BrokenCount   int
	ExternalCount int
}

// SaveRunReport stores a completed run and its broken references.
func (hdb *HistoryDB) SaveRunReport(ctx context.Context, report *model.RunReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize run report: %w", err)
	}

	var ok, broken, external int
	if report.Integrity != nil {
		ok = report.Integrity.OKCount
		broken = report.Integrity.BrokenCount
		external = report.Integrity.ExternalCount
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (root, mode, document_count, move_count, patch_count, ok_count, broken_count, external_count, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.Root,
		report.Mode,
		len(report.Documents),
		report.MoveCount(),
		report.PatchCount(),
		ok,
		broken,
		external,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	if report.Integrity != nil {
		for _, e := range report.Integrity.Broken() {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO broken_refs (run_id, owner, line, target)
			VALUES (?, ?, ?, ?)`,
				runID, e.Ref.Owner, e.Ref.Line, e.Ref.RawTarget,
			); err != nil {
				return 0, fmt.Errorf("failed to insert broken reference: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	committed = true

	return runID, nil
}

// ListRuns returns the most recent runs, newest first. When root is
// non-empty only runs for that repository are returned.
func (hdb *HistoryDB) ListRuns(ctx context.Context, root string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT id, root, mode, timestamp, document_count, move_count, patch_count, ok_count, broken_count, external_count
	FROM runs`
	args := []any{}
	if root != "" {
		query += " WHERE root = ?"
		args = append(args, root)
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var ts string
		if err := rows.Scan(
			&rec.ID, &rec.Root, &rec.Mode, &ts,
			&rec.DocumentCount, &rec.MoveCount, &rec.PatchCount,
			&rec.OKCount, &rec.BrokenCount, &rec.ExternalCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.Timestamp = parseTimestamp(ts)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// BrokenRef is one stored broken reference.
type BrokenRef struct {
	Owner  string
	Line   int
	Target string
}

// BrokenRefs returns the broken references recorded for a run.
func (hdb *HistoryDB) BrokenRefs(ctx context.Context, runID int64) ([]BrokenRef, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT owner, line, target FROM broken_refs
	WHERE run_id = ? ORDER BY owner, line`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query broken references: %w", err)
	}
	defer rows.Close()

	var refs []BrokenRef
	for rows.Next() {
		var r BrokenRef
		if err := rows.Scan(&r.Owner, &r.Line, &r.Target); err != nil {
			return nil, fmt.Errorf("failed to scan broken reference: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// LatestRun returns the newest run for a root, or nil when none exists.
func (hdb *HistoryDB) LatestRun(ctx context.Context, root string) (*RunRecord, error) {
	records, err := hdb.ListRuns(ctx, root, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// GetRunReport loads the full stored report JSON for a run.
func (hdb *HistoryDB) GetRunReport(ctx context.Context, runID int64) (*model.RunReport, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx,
		"SELECT report_json FROM runs WHERE id = ?", runID).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run report: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse run report: %w", err)
	}
	return &report, nil
}

// parseTimestamp parses the timestamp formats SQLite may return.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05Z",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
