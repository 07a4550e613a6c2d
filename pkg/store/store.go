// Package store persists batch summaries in a SQLite database so that
// measurements can be compared over time.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ccollicutt/startlat/pkg/aggregate"
	"github.com/ccollicutt/startlat/pkg/output"
)

// ErrBatchNotFound is returned when a batch id is unknown.
var ErrBatchNotFound = errors.New("batch not found")

// Store wraps the SQLite history database.
type Store struct {
	db   *sql.DB
	path string
}

// Batch is one row of the batch listing.
type Batch struct {
	ID         string
	LogFile    string
	Runs       int
	Intervals  int
	MeasuredAt time.Time
	Duration   time.Duration
}

// Open opens or creates the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			log_file TEXT NOT NULL,
			measured_at INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS batch_runs (
			batch_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			run_id TEXT NOT NULL,
			PRIMARY KEY (batch_id, position),
			FOREIGN KEY (batch_id) REFERENCES batches(id)
		)`,
		`CREATE TABLE IF NOT EXISTS interval_stats (
			batch_id TEXT NOT NULL,
			interval_key TEXT NOT NULL,
			minimum INTEGER NOT NULL,
			maximum INTEGER NOT NULL,
			average INTEGER NOT NULL,
			samples INTEGER NOT NULL,
			PRIMARY KEY (batch_id, interval_key),
			FOREIGN KEY (batch_id) REFERENCES batches(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_batches_measured ON batches(measured_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// SaveReport stores a report under a new batch id, records the id in the
// report metadata and returns it.
func (s *Store) SaveReport(ctx context.Context, report *output.Report) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	md := report.Metadata
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO batches (id, log_file, measured_at, duration_ns) VALUES (?, ?, ?, ?)`,
		id, md.LogFile, md.MeasuredAt.UnixNano(), int64(md.Duration)); err != nil {
		return "", fmt.Errorf("failed to insert batch: %w", err)
	}

	for i, run := range md.Runs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO batch_runs (batch_id, position, run_id) VALUES (?, ?, ?)`,
			id, i, run); err != nil {
			return "", fmt.Errorf("failed to insert run %s: %w", run, err)
		}
	}

	for key, st := range report.Summary {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO interval_stats (batch_id, interval_key, minimum, maximum, average, samples) VALUES (?, ?, ?, ?, ?, ?)`,
			id, key, st.Minimum, st.Maximum, st.Average, st.Samples); err != nil {
			return "", fmt.Errorf("failed to insert interval %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit batch: %w", err)
	}

	report.Metadata.BatchID = id
	return id, nil
}

// ListBatches returns stored batches, newest first. A limit of zero or less
// returns all of them.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]Batch, error) {
	query := `SELECT b.id, b.log_file, b.measured_at, b.duration_ns,
			(SELECT COUNT(*) FROM batch_runs r WHERE r.batch_id = b.id),
			(SELECT COUNT(*) FROM interval_stats i WHERE i.batch_id = b.id)
		FROM batches b
		ORDER BY b.measured_at DESC, b.rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		var measured, duration int64
		if err := rows.Scan(&b.ID, &b.LogFile, &measured, &duration, &b.Runs, &b.Intervals); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		b.MeasuredAt = time.Unix(0, measured).UTC()
		b.Duration = time.Duration(duration)
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// LoadReport rebuilds the report stored under id.
func (s *Store) LoadReport(ctx context.Context, id string) (*output.Report, error) {
	var measured, duration int64
	report := &output.Report{Summary: aggregate.Summary{}}
	report.Metadata.BatchID = id

	err := s.db.QueryRowContext(ctx,
		`SELECT log_file, measured_at, duration_ns FROM batches WHERE id = ?`, id).
		Scan(&report.Metadata.LogFile, &measured, &duration)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load batch %s: %w", id, err)
	}
	report.Metadata.MeasuredAt = time.Unix(0, measured).UTC()
	report.Metadata.Duration = time.Duration(duration)

	if report.Metadata.Runs, err = s.loadRuns(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT interval_key, minimum, maximum, average, samples FROM interval_stats WHERE batch_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load intervals of %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var st aggregate.Stats
		if err := rows.Scan(&key, &st.Minimum, &st.Maximum, &st.Average, &st.Samples); err != nil {
			return nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		report.Summary[key] = st
	}
	return report, rows.Err()
}

func (s *Store) loadRuns(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id FROM batch_runs WHERE batch_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load runs of %s: %w", id, err)
	}
	defer rows.Close()

	runs := []string{}
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
