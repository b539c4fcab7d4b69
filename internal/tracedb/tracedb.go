// Package tracedb records a compilation-and-run session to a SQL
// database for later inspection, the persistence half of the -trace CLI
// flag. The schema is deliberately small: one row per diagnostic and one
// row per run result, keyed by a session id.
package tracedb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	// Driver registrations. Only sqlite3 is ever opened by -trace, but the
	// façade registers the same multi-backend set the teacher's
	// internal/database/database.go does, so a future -trace-dsn flag
	// pointing at a real server needs no new import.
	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Recorder writes compile diagnostics and run outcomes to a SQLite file.
type Recorder struct {
	db        *sql.DB
	sessionID string
}

// Open creates (or reuses) the trace database at path and prepares its
// tables.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("tracedb: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("tracedb: connect %s: %w", path, err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Recorder{db: db, sessionID: uuid.NewString()}, nil
}

func createSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			source_file TEXT NOT NULL,
			started_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS diagnostics (
			session_id TEXT NOT NULL,
			line INTEGER NOT NULL,
			column INTEGER NOT NULL,
			message TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			session_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			trap INTEGER,
			steps INTEGER NOT NULL,
			finished_at DATETIME NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("tracedb: schema: %w", err)
		}
	}
	return nil
}

// BeginSession records the start of a compile for sourceFile, returning
// the session id diagnostics and run results should be filed under.
func (r *Recorder) BeginSession(sourceFile string) (string, error) {
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, source_file, started_at) VALUES (?, ?, ?)`,
		r.sessionID, sourceFile, time.Now(),
	)
	return r.sessionID, err
}

// RecordDiagnostic files one compiler diagnostic against the current
// session.
func (r *Recorder) RecordDiagnostic(line, column int, message string) error {
	_, err := r.db.Exec(
		`INSERT INTO diagnostics (session_id, line, column, message) VALUES (?, ?, ?, ?)`,
		r.sessionID, line, column, message,
	)
	return err
}

// RecordRun files the outcome of an Interpret call against the current
// session. trap is -1 when reason != "trap".
func (r *Recorder) RecordRun(reason string, trap int32, steps int) error {
	_, err := r.db.Exec(
		`INSERT INTO runs (session_id, reason, trap, steps, finished_at) VALUES (?, ?, ?, ?, ?)`,
		r.sessionID, reason, trap, steps, time.Now(),
	)
	return err
}

// Close releases the underlying database handle.
func (r *Recorder) Close() error {
	return r.db.Close()
}
