package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/utakatalp/league-tally/internal/league"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnsupportedDriver is returned for drivers other than postgres and sqlite.
var ErrUnsupportedDriver = errors.New("unsupported store driver")

// Store wraps a database connection and persists raw match results.
// Standings are never stored, they are tallied from the results on read.
type Store struct {
	DB     *sql.DB
	driver string
}

// NewStore opens a connection for the given driver and verifies it.
func NewStore(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	if dsn == "" {
		return nil, errors.New("store dsn required")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// verify early
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if driver == DriverSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}
	return &Store{DB: db, driver: driver}, nil
}

// Driver returns the name of the underlying SQL driver.
func (s *Store) Driver() string {
	return s.driver
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Ping checks that the database is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Migrate creates the results table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == DriverPostgres {
		id = "SERIAL PRIMARY KEY"
	}
	q := `
	CREATE TABLE IF NOT EXISTS results (
		id            ` + id + `,
		home_team     TEXT NOT NULL,
		visiting_team TEXT NOT NULL,
		outcome       TEXT NOT NULL CHECK (outcome IN ('win', 'loss', 'draw'))
	)`
	if _, err := s.DB.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	return nil
}

// SaveResults appends the results in a single transaction.
func (s *Store) SaveResults(ctx context.Context, results []league.Result) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin SaveResults tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO results (home_team, visiting_team, outcome) VALUES (?, ?, ?)`,
	))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err := stmt.ExecContext(ctx, r.Home, r.Visiting, r.Outcome.String()); err != nil {
			return fmt.Errorf("inserting result %d (%s): %w", i+1, r.Line(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit SaveResults tx: %w", err)
	}
	return nil
}

// LoadResults fetches all stored results in insertion order.
func (s *Store) LoadResults(ctx context.Context) ([]league.Result, error) {
	const q = `
	SELECT home_team, visiting_team, outcome
	FROM results
	ORDER BY id
	`
	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var results []league.Result
	for rows.Next() {
		var r league.Result
		var outcome string
		if err := rows.Scan(&r.Home, &r.Visiting, &outcome); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		if r.Outcome, err = league.ParseOutcome(outcome); err != nil {
			return nil, fmt.Errorf("stored result %s;%s: %w", r.Home, r.Visiting, err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating result rows: %w", err)
	}
	return results, nil
}

// CountResults returns the number of stored results.
func (s *Store) CountResults(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting results: %w", err)
	}
	return n, nil
}

// GetTable tallies every stored result into per-team records.
func (s *Store) GetTable(ctx context.Context) (map[string]*league.Record, error) {
	results, err := s.LoadResults(ctx)
	if err != nil {
		return nil, err
	}
	return league.Accumulate(results), nil
}

// DeleteAllResults removes every stored result. The table itself is kept.
func (s *Store) DeleteAllResults(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM results`)
	if err != nil {
		return fmt.Errorf("deleting all results: %w", err)
	}
	return nil
}

// rebind turns ? placeholders into $N for postgres.
func (s *Store) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
