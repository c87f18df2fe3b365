// Package history keeps finished sync reports in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/sunvalleybronze/dropmirror/internal/db"
	"github.com/sunvalleybronze/dropmirror/internal/mirror"
)

var ErrRunNotFound = errors.New("history: run not found")

const DefaultListLimit = 20

var migrations = []string{
	`CREATE TABLE runs (
		id                  TEXT PRIMARY KEY,
		started_at          INTEGER NOT NULL,
		finished_at         INTEGER NOT NULL,
		source_files        INTEGER NOT NULL,
		target_files        INTEGER NOT NULL,
		added               INTEGER NOT NULL,
		changed             INTEGER NOT NULL,
		deleted             INTEGER NOT NULL,
		transfers_attempted INTEGER NOT NULL,
		transfers_succeeded INTEGER NOT NULL,
		transfers_failed    INTEGER NOT NULL,
		deletions_attempted INTEGER NOT NULL,
		deletions_succeeded INTEGER NOT NULL,
		deletions_failed    INTEGER NOT NULL,
		bytes               INTEGER NOT NULL,
		guard_tripped       INTEGER NOT NULL,
		anomalies           TEXT NOT NULL DEFAULT '[]'
	);
	CREATE INDEX idx_runs_started_at ON runs (started_at DESC);
	CREATE TABLE failures (
		run_id TEXT NOT NULL REFERENCES runs (id) ON DELETE CASCADE,
		op     TEXT NOT NULL,
		path   TEXT NOT NULL,
		cause  TEXT NOT NULL
	);
	CREATE INDEX idx_failures_run_id ON failures (run_id);`,
}

type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	// Keep is how many runs are retained; zero keeps everything.
	Keep int `mapstructure:"keep"`
}

func (c *Config) Validate() error {
	if c.Enabled && c.Path == "" {
		return fmt.Errorf("history `path` is required when history is enabled")
	}
	if c.Keep < 0 {
		return fmt.Errorf("history `keep` must not be negative")
	}
	return nil
}

// Run is a stored report.
type Run struct {
	ID           string           `json:"runId"`
	StartedAt    time.Time        `json:"startedAt"`
	FinishedAt   time.Time        `json:"finishedAt"`
	SourceFiles  int              `json:"sourceFiles"`
	TargetFiles  int              `json:"targetFiles"`
	Added        int              `json:"added"`
	Changed      int              `json:"changed"`
	Deleted      int              `json:"deleted"`
	Transfers    mirror.Counter   `json:"transfers"`
	Deletions    mirror.Counter   `json:"deletions"`
	Bytes        int64            `json:"bytes"`
	GuardTripped bool             `json:"guardTripped"`
	Anomalies    []string         `json:"anomalies,omitempty"`
	Failures     []mirror.Failure `json:"failures,omitempty"`
}

type runRow struct {
	ID                 string `db:"id"`
	StartedAt          int64  `db:"started_at"`
	FinishedAt         int64  `db:"finished_at"`
	SourceFiles        int    `db:"source_files"`
	TargetFiles        int    `db:"target_files"`
	Added              int    `db:"added"`
	Changed            int    `db:"changed"`
	Deleted            int    `db:"deleted"`
	TransfersAttempted int    `db:"transfers_attempted"`
	TransfersSucceeded int    `db:"transfers_succeeded"`
	TransfersFailed    int    `db:"transfers_failed"`
	DeletionsAttempted int    `db:"deletions_attempted"`
	DeletionsSucceeded int    `db:"deletions_succeeded"`
	DeletionsFailed    int    `db:"deletions_failed"`
	Bytes              int64  `db:"bytes"`
	GuardTripped       bool   `db:"guard_tripped"`
	Anomalies          string `db:"anomalies"`
}

type failureRow struct {
	RunID string `db:"run_id"`
	Op    string `db:"op"`
	Path  string `db:"path"`
	Cause string `db:"cause"`
}

type Store struct {
	db   *sqlx.DB
	keep int
}

// Open opens the history database at config.Path.
func Open(ctx context.Context, config *Config) (*Store, error) {
	conn, err := db.NewSqliteDB(db.WithPath(config.Path))
	if err != nil {
		return nil, err
	}
	s, err := New(ctx, conn, config.Keep)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func New(ctx context.Context, conn *sqlx.DB, keep int) (*Store, error) {
	if err := db.Migrate(ctx, conn, migrations...); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return &Store{db: conn, keep: keep}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Consume stores a finished report.
func (s *Store) Consume(ctx context.Context, report *mirror.Report) error {
	anomalies, err := json.Marshal(report.Anomalies)
	if err != nil {
		return fmt.Errorf("history: encode anomalies: %w", err)
	}
	if report.Anomalies == nil {
		anomalies = []byte("[]")
	}

	row := &runRow{
		ID:                 report.RunID,
		StartedAt:          report.StartedAt.UnixMilli(),
		FinishedAt:         report.FinishedAt.UnixMilli(),
		SourceFiles:        report.SourceFiles,
		TargetFiles:        report.TargetFiles,
		Added:              len(report.Delta.Added),
		Changed:            len(report.Delta.Changed),
		Deleted:            len(report.Delta.Deleted),
		TransfersAttempted: report.Transfers.Attempted,
		TransfersSucceeded: report.Transfers.Succeeded,
		TransfersFailed:    report.Transfers.Failed,
		DeletionsAttempted: report.Deletions.Attempted,
		DeletionsSucceeded: report.Deletions.Succeeded,
		DeletionsFailed:    report.Deletions.Failed,
		Bytes:              report.Bytes,
		GuardTripped:       report.GuardTripped,
		Anomalies:          string(anomalies),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, finished_at, source_files, target_files, added, changed, deleted,
			transfers_attempted, transfers_succeeded, transfers_failed,
			deletions_attempted, deletions_succeeded, deletions_failed,
			bytes, guard_tripped, anomalies
		) VALUES (
			:id, :started_at, :finished_at, :source_files, :target_files, :added, :changed, :deleted,
			:transfers_attempted, :transfers_succeeded, :transfers_failed,
			:deletions_attempted, :deletions_succeeded, :deletions_failed,
			:bytes, :guard_tripped, :anomalies
		)`, row); err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}

	for _, f := range report.Failures {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO failures (run_id, op, path, cause) VALUES (:run_id, :op, :path, :cause)`,
			&failureRow{RunID: report.RunID, Op: f.Op.String(), Path: f.Path, Cause: f.Cause},
		); err != nil {
			return fmt.Errorf("history: insert failure: %w", err)
		}
	}

	if s.keep > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM runs WHERE id NOT IN (
				SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
			)`, s.keep); err != nil {
			return fmt.Errorf("history: prune: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM failures WHERE run_id NOT IN (SELECT id FROM runs)`); err != nil {
			return fmt.Errorf("history: prune failures: %w", err)
		}
	}

	return tx.Commit()
}

// List returns the most recent runs, newest first, without their failures.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var rows []*runRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM runs ORDER BY started_at DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}

	runs := make([]*Run, 0, len(rows))
	for _, row := range rows {
		run, err := row.toRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Get returns one run with its failures.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	var row runRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM runs WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("history: get %s: %w", id, err)
	}
	run, err := row.toRun()
	if err != nil {
		return nil, err
	}

	var failures []*failureRow
	if err := s.db.SelectContext(ctx, &failures, `SELECT * FROM failures WHERE run_id = ? ORDER BY rowid`, id); err != nil {
		return nil, fmt.Errorf("history: get %s failures: %w", id, err)
	}
	for _, f := range failures {
		var op mirror.OpType
		if err := op.UnmarshalText([]byte(f.Op)); err != nil {
			return nil, fmt.Errorf("history: run %s: %w", id, err)
		}
		run.Failures = append(run.Failures, mirror.Failure{Op: op, Path: f.Path, Cause: f.Cause})
	}
	return run, nil
}

func (r *runRow) toRun() (*Run, error) {
	run := &Run{
		ID:          r.ID,
		StartedAt:   time.UnixMilli(r.StartedAt).UTC(),
		FinishedAt:  time.UnixMilli(r.FinishedAt).UTC(),
		SourceFiles: r.SourceFiles,
		TargetFiles: r.TargetFiles,
		Added:       r.Added,
		Changed:     r.Changed,
		Deleted:     r.Deleted,
		Transfers: mirror.Counter{
			Attempted: r.TransfersAttempted,
			Succeeded: r.TransfersSucceeded,
			Failed:    r.TransfersFailed,
		},
		Deletions: mirror.Counter{
			Attempted: r.DeletionsAttempted,
			Succeeded: r.DeletionsSucceeded,
			Failed:    r.DeletionsFailed,
		},
		Bytes:        r.Bytes,
		GuardTripped: r.GuardTripped,
	}
	if err := json.Unmarshal([]byte(r.Anomalies), &run.Anomalies); err != nil {
		return nil, fmt.Errorf("history: run %s: decode anomalies: %w", r.ID, err)
	}
	return run, nil
}

var _ mirror.ReportSink = (*Store)(nil)
