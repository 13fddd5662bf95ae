// Package results persists replication studies to SQLite.
package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/facility-sim/facility-sim/sim"
	"github.com/facility-sim/facility-sim/sim/replication"
)

var (
	// ErrStoreClosed is returned by every operation after Close.
	ErrStoreClosed = errors.New("results store is closed")
	// ErrRunNotFound is returned when no estimate exists for a run ID.
	ErrRunNotFound = errors.New("run not found")
)

// RunSummary is one row of ListRuns.
type RunSummary struct {
	RunID        string
	Replications int
	Converged    bool
	CreatedAt    time.Time
}

// SQLiteStore saves per-replication statistics and final estimates.
// It implements replication.Sink.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

var _ replication.Sink = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path.
// Use ":memory:" for a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: an in-memory database is private to its connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS replications (
		run_id       TEXT NOT NULL,
		idx          INTEGER NOT NULL,
		seed         INTEGER NOT NULL,
		window_start REAL NOT NULL,
		window_end   REAL NOT NULL,
		created_at   TEXT NOT NULL,
		PRIMARY KEY (run_id, idx)
	);

	CREATE TABLE IF NOT EXISTS replication_stats (
		run_id   TEXT NOT NULL,
		idx      INTEGER NOT NULL,
		name     TEXT NOT NULL,
		value    REAL NOT NULL,
		controls INTEGER NOT NULL,
		PRIMARY KEY (run_id, idx, name)
	);
	CREATE INDEX IF NOT EXISTS idx_replication_stats_name ON replication_stats(run_id, name);

	CREATE TABLE IF NOT EXISTS runs (
		run_id       TEXT PRIMARY KEY,
		replications INTEGER NOT NULL,
		converged    INTEGER NOT NULL,
		confidence   REAL NOT NULL,
		precision    REAL NOT NULL,
		created_at   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS estimates (
		run_id     TEXT NOT NULL REFERENCES runs(run_id),
		position   INTEGER NOT NULL,
		name       TEXT NOT NULL,
		mean       REAL NOT NULL,
		std_dev    REAL NOT NULL,
		half_width REAL,
		required   REAL,
		controls   INTEGER NOT NULL,
		PRIMARY KEY (run_id, name)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database. Further calls return ErrStoreClosed.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// SaveReplication stores the statistics of one replication.
func (s *SQLiteStore) SaveReplication(ctx context.Context, runID string, index int, seed int64, stats *sim.ReplicationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO replications (run_id, idx, seed, window_start, window_end, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, index, seed, stats.Start.Minutes(), stats.End.Minutes(), now,
	); err != nil {
		return fmt.Errorf("insert replication %d: %w", index, err)
	}
	for _, st := range stats.Values() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO replication_stats (run_id, idx, name, value, controls) VALUES (?, ?, ?, ?, ?)`,
			runID, index, st.Name, st.Value, st.Controls,
		); err != nil {
			return fmt.Errorf("insert %q: %w", st.Name, err)
		}
	}
	return tx.Commit()
}

// SaveEstimate stores the final estimate of a study, replacing any earlier
// estimate with the same run ID.
func (s *SQLiteStore) SaveEstimate(ctx context.Context, est *replication.Estimate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM estimates WHERE run_id = ?`, est.RunID); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, replications, converged, confidence, precision, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET
			replications = excluded.replications,
			converged = excluded.converged,
			confidence = excluded.confidence,
			precision = excluded.precision`,
		est.RunID, est.Replications, est.Converged, est.Confidence, est.Precision, now,
	); err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	for pos, st := range est.Stats {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO estimates (run_id, position, name, mean, std_dev, half_width, required, controls)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			est.RunID, pos, st.Name, st.Mean, st.StdDev, finite(st.HalfWidth), finite(st.Required), st.Controls,
		); err != nil {
			return fmt.Errorf("insert estimate %q: %w", st.Name, err)
		}
	}
	return tx.Commit()
}

// LoadEstimate reads back the estimate of runID.
func (s *SQLiteStore) LoadEstimate(ctx context.Context, runID string) (*replication.Estimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	est := &replication.Estimate{RunID: runID}
	err := s.db.QueryRowContext(ctx,
		`SELECT replications, converged, confidence, precision FROM runs WHERE run_id = ?`, runID,
	).Scan(&est.Replications, &est.Converged, &est.Confidence, &est.Precision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, mean, std_dev, half_width, required, controls
		 FROM estimates WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var st replication.StatEstimate
		var hw, req sql.NullFloat64
		if err := rows.Scan(&st.Name, &st.Mean, &st.StdDev, &hw, &req, &st.Controls); err != nil {
			return nil, err
		}
		st.HalfWidth = orInf(hw)
		st.Required = orInf(req)
		est.Stats = append(est.Stats, st)
	}
	return est, rows.Err()
}

// ReplicationValues returns the per-replication values of one statistic,
// ordered by replication index.
func (s *SQLiteStore) ReplicationValues(ctx context.Context, runID, name string) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM replication_stats WHERE run_id = ? AND name = ? ORDER BY idx`, runID, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListRuns returns every stored study, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, replications, converged, created_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var created string
		if err := rows.Scan(&r.RunID, &r.Replications, &r.Converged, &created); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("run %s: created_at: %w", r.RunID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// finite maps ±Inf and NaN to NULL.
func finite(v float64) sql.NullFloat64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func orInf(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.Inf(1)
	}
	return v.Float64
}
