package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a row does not exist. It is a normal outcome
// (unknown id, already-consumed session), not a storage failure.
var ErrNotFound = errors.New("storage: not found")

// Bounded retry policy for writers colliding on the database lock.
const (
	maxWriteAttempts = 5
	retryBaseDelay   = 10 * time.Millisecond
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// Open opens or creates a SQLite database at the given path
func Open(path string) (*DB, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database connection
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn: conn,
		path: path,
	}

	// Initialize database
	if err := db.initialize(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// initialize sets up the database schema and configuration
func (db *DB) initialize() error {
	// The search index is an FTS5 virtual table; a binary built without the
	// extension would fail mid-migration with an obscure "no such module"
	// error, so refuse up front with the fix.
	if !fts5Enabled {
		return errors.New("this binary was built without full-text search support; rebuild with: go build -tags sqlite_fts5 ./...")
	}

	// Enable WAL mode for better concurrency
	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Bounded wait on the storage-engine lock before SQLITE_BUSY surfaces
	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// REPLACE conflict resolution deletes the colliding row; its delete
	// trigger (which removes the FTS projection) only fires with recursive
	// triggers enabled.
	if _, err := db.conn.Exec("PRAGMA recursive_triggers=ON"); err != nil {
		return fmt.Errorf("failed to enable recursive triggers: %w", err)
	}

	// Run migrations
	if err := db.migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// migrate applies database migrations
func (db *DB) migrate() error {
	// Get current schema version
	currentVersion, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	// Apply migrations if needed
	if currentVersion < CurrentSchema {
		return db.applyMigrations(currentVersion, CurrentSchema)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	// Check if schema_version table exists
	var tableExists bool
	err := db.conn.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM sqlite_master
			WHERE type='table' AND name='schema_version'
		)
	`).Scan(&tableExists)
	if err != nil {
		return 0, err
	}

	if !tableExists {
		return 0, nil
	}

	// Get latest version
	var version sql.NullInt64
	err = db.conn.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}

	return int(version.Int64), nil
}

// applyMigrations applies all migrations from 'from' to 'to' version.
// Each migration runs in its own transaction: a failure leaves the database
// at the last fully applied version, never in between.
func (db *DB) applyMigrations(from, to int) error {
	for version := from + 1; version <= to; version++ {
		schema := GetSchema(version)
		if schema == "" {
			return fmt.Errorf("no schema found for version %d", version)
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.Exec(schema); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply schema v%d: %w", version, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_version (version, applied_at) VALUES (?, strftime('%s', 'now'))",
			version,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration v%d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration v%d: %w", version, err)
		}
	}

	return nil
}

// withRetry runs fn, retrying with linear backoff while the storage engine
// reports lock contention. Any other error, or exhaustion of the attempts,
// surfaces to the caller.
func (db *DB) withRetry(fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		err = fn()
		if err == nil || !isLockContention(err) {
			return err
		}
		time.Sleep(time.Duration(attempt) * retryBaseDelay)
	}
	return err
}

// isLockContention reports whether err is a transient SQLITE_BUSY or
// SQLITE_LOCKED collision with another writer.
func isLockContention(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}
