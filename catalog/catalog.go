/*package catalog keeps a SQLite record of every simulated energy: the run
parameters, where the results were written and a summary of the detector
response.
*/
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var ErrStore = errors.New("catalog: store is not configured")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	particle TEXT NOT NULL,
	energy REAL NOT NULL,
	runs INTEGER NOT NULL,
	enter_x REAL NOT NULL,
	enter_y REAL NOT NULL,
	sigma REAL NOT NULL,
	rad_lengths REAL NOT NULL,
	seed INTEGER NOT NULL,
	stream INTEGER NOT NULL,
	output TEXT NOT NULL,
	elapsed_ns INTEGER NOT NULL,
	mean REAL NOT NULL,
	std_dev REAL NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_energy ON runs (energy);
`

// Run describes the simulation of a single incident energy.
type Run struct {
	ID       int64
	Particle string
	Energy   float64
	Runs     int

	EnterX, EnterY    float64
	Sigma, RadLengths float64
	// Seed and Stream identify the generator the runs were drawn from.
	Seed, Stream      int64

	// Output is the result file the runs were written to.
	Output  string
	Elapsed time.Duration

	// Mean and StdDev summarize the total ionisation of the runs.
	Mean, StdDev float64

	CreatedAt time.Time
}

// Store is a SQLite-backed catalog of runs.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the catalog at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("catalog path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	// Runs are recorded from several sweep workers.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Record adds a run to the catalog and returns its ID.
func (s *Store) Record(ctx context.Context, run Run) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, ErrStore
	}

	run.Particle = strings.TrimSpace(run.Particle)
	if run.Particle == "" {
		return 0, fmt.Errorf("particle is required")
	} else if !(run.Energy > 0) {
		return 0, fmt.Errorf("energy must be positive, got %g", run.Energy)
	} else if run.Runs <= 0 {
		return 0, fmt.Errorf("runs must be positive, got %d", run.Runs)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	res, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO runs (
	particle,
	energy,
	runs,
	enter_x,
	enter_y,
	sigma,
	rad_lengths,
	seed,
	stream,
	output,
	elapsed_ns,
	mean,
	std_dev,
	created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		run.Particle,
		run.Energy,
		run.Runs,
		run.EnterX,
		run.EnterY,
		run.Sigma,
		run.RadLengths,
		run.Seed,
		run.Stream,
		run.Output,
		run.Elapsed.Nanoseconds(),
		run.Mean,
		run.StdDev,
		run.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	return id, nil
}

// Runs lists every run in the catalog, ordered by energy and then by the
// order they were recorded in.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, ErrStore
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	id,
	particle,
	energy,
	runs,
	enter_x,
	enter_y,
	sigma,
	rad_lengths,
	seed,
	stream,
	output,
	elapsed_ns,
	mean,
	std_dev,
	created_at
FROM runs
ORDER BY energy ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		var elapsed, createdAt int64
		if err := rows.Scan(
			&run.ID,
			&run.Particle,
			&run.Energy,
			&run.Runs,
			&run.EnterX,
			&run.EnterY,
			&run.Sigma,
			&run.RadLengths,
			&run.Seed,
			&run.Stream,
			&run.Output,
			&elapsed,
			&run.Mean,
			&run.StdDev,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Elapsed = time.Duration(elapsed)
		run.CreatedAt = time.UnixMilli(createdAt).UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
