package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	started_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS api_calls (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	method TEXT NOT NULL,
	url    TEXT NOT NULL,
	count  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS step_timings (
	run_id      INTEGER NOT NULL REFERENCES runs(id),
	scenario    TEXT NOT NULL,
	step        TEXT NOT NULL,
	duration_us INTEGER NOT NULL
);`

// Store persists recorded runs into a SQLite database.
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// OpenStore opens (creating if needed) the database at path. A "sqlite://"
// or "sqlite:" prefix is accepted.
func OpenStore(path string) (*Store, error) {
	dsn := strings.TrimSpace(path)
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	dsn = strings.TrimPrefix(dsn, "sqlite:")
	if dsn == "" {
		return nil, fmt.Errorf("empty audit database path")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}

	return &Store{db: db, queryTimeout: 30 * time.Second}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save writes everything in r as a new run and returns its id.
func (s *Store) Save(name string, startedAt time.Time, r *Recorder) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO runs (name, started_at) VALUES (?, ?)`,
		name, startedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, c := range r.Calls() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO api_calls (run_id, method, url, count) VALUES (?, ?, ?, ?)`,
			runID, c.Method, c.URL, c.Count); err != nil {
			return 0, fmt.Errorf("failed to insert api call: %w", err)
		}
	}
	for _, st := range r.Steps() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO step_timings (run_id, scenario, step, duration_us) VALUES (?, ?, ?, ?)`,
			runID, st.Scenario, st.Step, st.Duration.Microseconds()); err != nil {
			return 0, fmt.Errorf("failed to insert step timing: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// Calls returns the calls stored for a run, sorted by method then URL.
func (s *Store) Calls(runID int64) ([]Call, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT method, url, count FROM api_calls WHERE run_id = ? ORDER BY method, url`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var calls []Call
	for rows.Next() {
		var c Call
		if err := rows.Scan(&c.Method, &c.URL, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return calls, nil
}

// StepCount returns the number of step timings stored for a run.
func (s *Store) StepCount(runID int64) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM step_timings WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}
	return n, nil
}
