// Package history keeps a local record of past runs so operators can see
// how a fleet trends over time. The store is strictly best-effort: a
// missing or broken database must never fail a validation run.
package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ndhoang91/sitecheck-cli/internal/runner"
)

// Store wraps the sqlite run-history database.
type Store struct {
	db *sql.DB
}

// Entry is one recorded run.
type Entry struct {
	ID          int64
	Timestamp   time.Time
	Environment string
	Modules     []string
	Passed      int
	Failed      int
	Warnings    int
	Skipped     int
	Reports     []string
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TIMESTAMP NOT NULL,
		environment TEXT NOT NULL DEFAULT '',
		modules TEXT NOT NULL DEFAULT '',
		passed INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		reports TEXT NOT NULL DEFAULT ''
	);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}

	return &Store{db: db}, nil
}

// Record inserts one row for a completed run.
func (s *Store) Record(summary runner.RunSummary, reports []string) error {
	modules := make([]string, 0, len(summary.Modules))
	for name := range summary.Modules {
		modules = append(modules, name)
	}

	_, err := s.db.Exec(`
	INSERT INTO runs (timestamp, environment, modules, passed, failed, warnings, skipped, reports)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.Timestamp,
		summary.Environment,
		strings.Join(modules, ","),
		summary.Passed,
		summary.Failed,
		summary.Warnings,
		summary.Skipped,
		strings.Join(reports, ","),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns the newest runs, most recent first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
	SELECT id, timestamp, environment, modules, passed, failed, warnings, skipped, reports
	FROM runs ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var modules, reports string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Environment, &modules,
			&e.Passed, &e.Failed, &e.Warnings, &e.Skipped, &reports); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.Modules = splitList(modules)
		e.Reports = splitList(reports)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
