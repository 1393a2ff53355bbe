// Package store persists run results in a SQLite database so that past runs
// can be listed and inspected with "mig results".
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/abdul-hamid-achik/mig/packages/core/runner"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	file        TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	duration_ms REAL NOT NULL,
	total       INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	errored     INTEGER NOT NULL,
	p50_ms      REAL NOT NULL,
	p95_ms      REAL NOT NULL,
	p99_ms      REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position        INTEGER NOT NULL,
	name            TEXT NOT NULL,
	method          TEXT NOT NULL,
	url             TEXT NOT NULL,
	expected_status INTEGER NOT NULL,
	status          INTEGER NOT NULL,
	passed          INTEGER NOT NULL,
	error_kind      TEXT NOT NULL,
	reason          TEXT NOT NULL,
	duration_ms     REAL NOT NULL,
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);
`

// ErrRunNotFound is returned by Results for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Run is one stored run of a definitions file.
type Run struct {
	ID        string
	File      string
	StartedAt time.Time
	Duration  time.Duration
	Total     int
	Passed    int
	Failed    int
	Errored   int
	P50       time.Duration
	P95       time.Duration
	P99       time.Duration
}

// Result is one stored test case verdict.
type Result struct {
	Name           string
	Method         string
	URL            string
	ExpectedStatus int
	Status         int
	Passed         bool
	// ErrorKind is empty, ConfigError or one of the request error kinds.
	ErrorKind string
	Reason    string
	Duration  time.Duration
}

type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the results database. target is a file
// path, optionally prefixed with "sqlite://" or "sqlite:".
func Open(ctx context.Context, target string) (*Store, error) {
	path, err := parseTarget(target)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialise database %s: %w", path, err)
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun stores result and all of its test case verdicts in one transaction.
func (s *Store) SaveRun(ctx context.Context, result *runner.RunResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, file, started_at, duration_ms, total, passed, failed, errored, p50_ms, p95_ms, p99_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.File,
		result.StartedAt.UTC().Format(time.RFC3339Nano),
		millis(result.Duration),
		len(result.Results),
		result.Passed,
		result.Failed,
		result.Errored,
		millis(result.Latency.P50),
		millis(result.Latency.P95),
		millis(result.Latency.P99),
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", result.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, position, name, method, url, expected_status, status, passed, error_kind, reason, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range result.Results {
		_, err := stmt.ExecContext(ctx,
			result.RunID,
			i,
			r.Name(),
			string(r.TestCase.Method),
			r.TestCase.URL,
			r.TestCase.StatusCode,
			r.Status,
			r.Passed,
			errorKind(r),
			r.Reason(),
			millis(r.Duration),
		)
		if err != nil {
			return fmt.Errorf("saving result %q: %w", r.Name(), err)
		}
	}

	return tx.Commit()
}

// Runs returns the most recent runs, newest first. A limit <= 0 returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, file, started_at, duration_ms, total, passed, failed, errored, p50_ms, p95_ms, p99_ms
		FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                     Run
			startedAt               string
			duration, p50, p95, p99 float64
		)
		err := rows.Scan(&run.ID, &run.File, &startedAt, &duration, &run.Total, &run.Passed,
			&run.Failed, &run.Errored, &p50, &p95, &p99)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("run %s: bad start time %q: %w", run.ID, startedAt, err)
		}
		run.Duration = fromMillis(duration)
		run.P50 = fromMillis(p50)
		run.P95 = fromMillis(p95)
		run.P99 = fromMillis(p99)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// Results returns the verdicts of one run in file order.
func (s *Store) Results(ctx context.Context, runID string) ([]Result, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, method, url, expected_status, status, passed, error_kind, reason, duration_ms
		 FROM results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r        Result
			duration float64
		)
		err := rows.Scan(&r.Name, &r.Method, &r.URL, &r.ExpectedStatus, &r.Status, &r.Passed,
			&r.ErrorKind, &r.Reason, &duration)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.Duration = fromMillis(duration)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return results, nil
}

func errorKind(r *runner.TestResult) string {
	switch {
	case r.ConfigErr != nil:
		return "ConfigError"
	case r.Err != nil:
		return r.Err.Kind.String()
	default:
		return ""
	}
}

// parseTarget accepts:
// - sqlite://path/to/results.db
// - sqlite:./results.db
// - path/to/results.db
func parseTarget(target string) (string, error) {
	target = strings.TrimSpace(target)
	switch {
	case strings.HasPrefix(target, "sqlite://"):
		target = strings.TrimPrefix(target, "sqlite://")
	case strings.HasPrefix(target, "sqlite:"):
		target = strings.TrimPrefix(target, "sqlite:")
	case strings.Contains(target, "://"):
		return "", fmt.Errorf("unsupported database scheme in %q", target)
	}
	if target == "" {
		return "", errors.New("empty database path")
	}
	return target, nil
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func fromMillis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
