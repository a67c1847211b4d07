// Package ledger records generation rounds in a SQLite database so that
// past runs and the files they produced can be listed later. The sqlite3
// driver is registered by tx.go.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/declgen/internal/generator"
)

// ErrRunNotFound is returned when a run id is unknown
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TIMESTAMP NOT NULL,
	duration_ms INTEGER NOT NULL,
	rules       INTEGER NOT NULL,
	outputs     INTEGER NOT NULL,
	warnings    INTEGER NOT NULL,
	errors      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS outputs (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	rule   TEXT NOT NULL,
	area   TEXT NOT NULL,
	path   TEXT NOT NULL,
	status TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS outputs_run_id ON outputs(run_id);`

// Run is one recorded round
type Run struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Rules    int
	Outputs  int
	Warnings int
	Errors   int
}

// Output is one recorded rendering
type Output struct {
	RunID  string
	Rule   string
	Area   string
	Path   string
	Status string
}

// Ledger stores round reports
type Ledger struct {
	db    *sql.DB
	log   *zap.Logger
	retry *RetryConfig
}

var _ generator.Recorder = (*Ledger)(nil)

// Open opens or creates the ledger database at path and migrates it
func Open(ctx context.Context, path string, log *zap.Logger) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	l := New(db, log)
	if err := l.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// New wraps an open database
func New(db *sql.DB, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{db: db, log: log, retry: DefaultRetryConfig()}
}

// Migrate creates the ledger tables when they are missing
func (l *Ledger) Migrate(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return nil
}

// Close closes the database
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores a round report and its outputs in one transaction
func (l *Ledger) Record(ctx context.Context, report *generator.Report) error {
	errs, warnings, _ := report.Diagnostics.Count()

	err := l.withRetry(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, started_at, duration_ms, rules, outputs, warnings, errors) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			report.RoundID, report.Started.UTC(), report.Duration.Milliseconds(),
			report.Rules, report.Written(), warnings, errs,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		for _, o := range report.Outputs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO outputs (run_id, rule, area, path, status) VALUES (?, ?, ?, ?, ?)`,
				report.RoundID, o.Rule, string(o.Area), o.Path, string(o.Status),
			)
			if err != nil {
				return fmt.Errorf("failed to insert output: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.log.Debug("recorded round",
		zap.String("round_id", report.RoundID),
		zap.Int("outputs", len(report.Outputs)),
	)
	return nil
}

// Runs returns the most recent runs, newest first. A limit of zero or
// less returns every run.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, duration_ms, rules, outputs, warnings, errors FROM runs ORDER BY started_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.Started, &durationMS, &r.Rules, &r.Outputs, &r.Warnings, &r.Errors); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

// Outputs returns the outputs of one run in recording order
func (l *Ledger) Outputs(ctx context.Context, runID string) ([]Output, error) {
	var exists int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT run_id, rule, area, path, status FROM outputs WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outputs: %w", err)
	}
	defer rows.Close()

	var outputs []Output
	for rows.Next() {
		var o Output
		if err := rows.Scan(&o.RunID, &o.Rule, &o.Area, &o.Path, &o.Status); err != nil {
			return nil, fmt.Errorf("failed to scan output: %w", err)
		}
		outputs = append(outputs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read outputs: %w", err)
	}
	return outputs, nil
}
