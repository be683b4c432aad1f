// Package history records enhance and translate runs in a local SQLite
// database so past runs and their per-block outcomes can be listed later.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/samsaffron/notion-llm/internal/config"
	"github.com/samsaffron/notion-llm/internal/enhance"
)

// Store is the SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Schema for the history database.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    page_id TEXT NOT NULL,
    page_title TEXT,
    mode TEXT NOT NULL,
    strategy TEXT,
    provider TEXT,
    model TEXT,
    target_language TEXT,
    dry_run BOOLEAN DEFAULT FALSE,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL,
    blocks_processed INTEGER DEFAULT 0,
    enhanced INTEGER DEFAULT 0,
    no_changes INTEGER DEFAULT 0,
    skipped INTEGER DEFAULT 0,
    json_errors INTEGER DEFAULT 0,
    failed INTEGER DEFAULT 0,
    synced_protected INTEGER DEFAULT 0,
    report_path TEXT
);

CREATE TABLE IF NOT EXISTS block_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    block_id TEXT NOT NULL,
    block_type TEXT,
    status TEXT NOT NULL,
    reason TEXT,
    error TEXT,
    sequence INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_block_results_run_id ON block_results(run_id, sequence);
`

// DefaultPath returns the history database path under the data dir.
func DefaultPath() string {
	return filepath.Join(config.GetDataDir(), "history.db")
}

// Open opens the run history database at path, creating it and its
// schema if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record stores a finished run with its per-block results and returns
// the run ID.
func (s *Store) Record(ctx context.Context, r *enhance.Report, pageTitle, reportPath string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (page_id, page_title, mode, strategy, provider, model, target_language, dry_run,
		                  started_at, finished_at, blocks_processed, enhanced, no_changes, skipped,
		                  json_errors, failed, synced_protected, report_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.PageID, nullString(pageTitle), r.Mode, nullString(r.Strategy),
		nullString(r.Provider), nullString(r.Model), nullString(r.TargetLanguage), r.DryRun,
		r.StartedAt, time.Now(), r.Summary.BlocksProcessed, r.Summary.Enhanced,
		r.Summary.NoChanges, r.Summary.Skipped, r.Summary.JSONErrors, r.Summary.Failed,
		r.Summary.SyncedProtected, nullString(reportPath))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for i, br := range r.Results {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO block_results (run_id, block_id, block_type, status, reason, error, sequence)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, br.BlockID, nullString(br.BlockType), string(br.Status),
			nullString(br.Reason), nullString(br.Error), i)
		if err != nil {
			return 0, fmt.Errorf("insert block result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return runID, nil
}

const runColumns = `id, page_id, page_title, mode, strategy, provider, model, target_language, dry_run,
       started_at, finished_at, blocks_processed, enhanced, no_changes, skipped,
       json_errors, failed, synced_protected, report_path`

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Get returns one run by ID, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRun(rows)
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var run Run
	var pageTitle, strategy, provider, model, targetLanguage, reportPath sql.NullString
	err := rows.Scan(&run.ID, &run.PageID, &pageTitle, &run.Mode, &strategy,
		&provider, &model, &targetLanguage, &run.DryRun,
		&run.StartedAt, &run.FinishedAt, &run.BlocksProcessed, &run.Enhanced,
		&run.NoChanges, &run.Skipped, &run.JSONErrors, &run.Failed,
		&run.SyncedProtected, &reportPath)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.PageTitle = pageTitle.String
	run.Strategy = strategy.String
	run.Provider = provider.String
	run.Model = model.String
	run.TargetLanguage = targetLanguage.String
	run.ReportPath = reportPath.String
	return &run, nil
}

// Results returns the per-block outcomes of a run in processing order.
func (s *Store) Results(ctx context.Context, runID int64) ([]BlockResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT block_id, block_type, status, reason, error
		FROM block_results
		WHERE run_id = ?
		ORDER BY sequence ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query block results: %w", err)
	}
	defer rows.Close()

	var results []BlockResult
	for rows.Next() {
		var br BlockResult
		var blockType, reason, errText sql.NullString
		if err := rows.Scan(&br.BlockID, &blockType, &br.Status, &reason, &errText); err != nil {
			return nil, fmt.Errorf("scan block result: %w", err)
		}
		br.BlockType = blockType.String
		br.Reason = reason.String
		br.Error = errText.String
		results = append(results, br)
	}
	return results, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// nullString converts an empty string to NULL for database storage.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
