// Package sqlite provides a SQLite-backed implementation of
// storage.Storage on top of database/sql.
//
// LAYOUT
// ──────
//
//	sqlite.go    opening the file, schema creation, shared helpers
//	users.go     the AccountStore half (users table)
//	students.go  the StudentStore half (students table)
//
// Importing go-sqlite3 registers the "sqlite3" driver with database/sql as
// a side effect; the package is also used directly for its error codes.
//
// Every error leaving this package is wrapped as "<Operation>: <step>: <err>"
// so a log line alone says which query failed and at which stage. The
// driver error stays at the end of the chain for errors.As.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aanand-mishra/smart-umis-api/internal/config"
	"github.com/aanand-mishra/smart-umis-api/internal/storage"
	"github.com/mattn/go-sqlite3"
)

// ─────────────────────────────────────────────────────────────────────────────
// timeLayout is how created_at and updated_at are written.
//
// SQLite has no real date type: a DATETIME column holds text. The layout is
// fixed width, so ORDER BY on the text sorts chronologically, and
// microseconds keep rows written in the same second apart.
//
// On the way back out the driver sees the DATETIME declared type and parses
// the text into time.Time, as it does for legacy rows written by
// CURRENT_TIMESTAMP ("YYYY-MM-DD HH:MM:SS").
// ─────────────────────────────────────────────────────────────────────────────
const timeLayout = "2006-01-02 15:04:05.000000"

var _ storage.Storage = (*SQLite)(nil)

// schema lists the tables created at startup, in order.
//
// CREATE TABLE IF NOT EXISTS is idempotent, so this runs on every start.
// Column names match databases written by the legacy service: users keeps
// its camelCase fullName column, students uses snake_case throughout.
var schema = []struct {
	table string
	ddl   string
}{
	{
		table: "users",
		ddl: `
		CREATE TABLE IF NOT EXISTS users (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			fullName TEXT,
			username TEXT UNIQUE,
			email    TEXT UNIQUE,
			password TEXT,
			role     TEXT
		)`,
	},
	{
		table: "students",
		ddl: `
		CREATE TABLE IF NOT EXISTS students (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			department        TEXT NOT NULL,
			full_name         TEXT NOT NULL,
			father_name       TEXT NOT NULL,
			caste             TEXT,
			mother_occupation TEXT,
			father_occupation TEXT,
			entered_by        TEXT,
			created_at        DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	},
}

// SQLite is the concrete implementation of storage.Storage.
//
// Db is a *sql.DB, safe for concurrent use by every request goroutine.
// now supplies timestamps; tests swap it with WithClock to get
// deterministic ordering.
type SQLite struct {
	Db  *sql.DB
	now func() time.Time
	log *slog.Logger
}

// Option customises a SQLite store.
type Option func(*SQLite)

// WithClock replaces time.Now as the source of created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *SQLite) {
		s.now = now
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New opens the database at cfg.StoragePath and makes sure every table
// exists.
//
// sql.Open only validates the driver name; Ping forces the first real
// connection, so a path that cannot be opened fails here and not on the
// first request.
//
// A table that cannot be created is logged and skipped: the server still
// starts and requests touching that table fail with a database error.
// ─────────────────────────────────────────────────────────────────────────────
func New(cfg *config.Config, log *slog.Logger, opts ...Option) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// One connection shared by every request; SQLite serialises the writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: ping: %w", err)
	}

	s := &SQLite{Db: db, now: time.Now, log: log}
	for _, opt := range opts {
		opt(s)
	}

	s.createTables()

	return s, nil
}

func (s *SQLite) createTables() {
	for _, t := range schema {
		if _, err := s.Db.Exec(t.ddl); err != nil {
			s.log.Error("failed to create table",
				slog.String("table", t.table),
				slog.String("error", err.Error()))
			continue
		}
		s.log.Debug("table ready", slog.String("table", t.table))
	}
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

func (s *SQLite) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

// exec prepares and runs a single write statement.
//
// A uniqueness violation comes back wrapping both storage.ErrDuplicate and
// the driver error, so callers can test for either with errors.Is/As.
func (s *SQLite) exec(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	stmt, err := s.Db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: exec: %w: %w", op, storage.ErrDuplicate, err)
		}
		return nil, fmt.Errorf("%s: exec: %w", op, err)
	}

	return result, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}
