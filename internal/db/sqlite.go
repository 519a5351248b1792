package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	busyTimeoutMS   = 5000
	maxOpenConns    = 4
	maxIdleConns    = 4
	connMaxLifetime = 5 * time.Minute
)

// SQLite wraps an embedded database. SQLite admits one writer at a time, so
// every mutating statement goes through Write; reads use DB directly and run
// concurrently under WAL.
type SQLite struct {
	DB      *sql.DB
	writeMu sync.Mutex
}

// OpenSQLite opens (creating if needed) the database file at path and applies
// all pending migrations.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := MigrateSQLite(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLite{DB: db}, nil
}

// MigrateSQLite runs all pending up migrations against the SQLite file at path.
func MigrateSQLite(path string) error {
	return migrateUp("sqlite", "sqlite://"+path)
}

// Write runs fn while holding the single-writer lock.
func (s *SQLite) Write(fn func(db *sql.DB) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return fn(s.DB)
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// sqliteDSN builds a file: URI whose pragmas apply to every pooled connection.
func sqliteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	// "file:" without "//" keeps relative paths relative to the working directory.
	return "file:" + path + "?" + q.Encode()
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ParseTime parses a timestamp written by the schema's strftime defaults.
func ParseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse sqlite time %q: %w", value, err)
	}
	return t.UTC(), nil
}
