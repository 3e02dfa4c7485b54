// Package duckdb archives integration and sanitize runs in DuckDB so that
// edits and decisions from many iterations can be queried together.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for the run archive.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, "" for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id VARCHAR PRIMARY KEY,
			phase VARCHAR,
			created_at TIMESTAMP,
			input VARCHAR,
			input_size BIGINT,
			input_modtime TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			run_id VARCHAR,
			seq BIGINT,
			contig VARCHAR,
			ins_start BIGINT,
			ins_end BIGINT,
			inserted VARCHAR,
			original VARCHAR,
			coverage BIGINT,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS sanitize_decisions (
			run_id VARCHAR,
			seq BIGINT,
			contig VARCHAR,
			ins_start BIGINT,
			ins_end BIGINT,
			inserted VARCHAR,
			original VARCHAR,
			recorded_coverage BIGINT,
			new_coverage BIGINT,
			reverted BOOLEAN,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS run_counters (
			run_id VARCHAR,
			seq BIGINT,
			name VARCHAR,
			value BIGINT,
			PRIMARY KEY (run_id, name)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
