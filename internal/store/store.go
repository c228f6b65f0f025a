package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
)

const (
	currentSchemaVersion = 1

	// Opening a fresh catalog is itself a write: the WAL pragma and the
	// initial migration both take the write lock, so concurrent workers
	// racing to open the same new database contend exactly like commits do.
	openAttempts  = 10
	openRetryWait = 100 * time.Millisecond
)

// SQLite primary result codes for contention.
const (
	sqliteBusy   = 5
	sqliteLocked = 6
)

// Store is one connection to the shared catalog database.
//
// Every directory worker must open its own Store: the reconciliation engine
// relies on workers holding independent connections so that one worker's
// transaction never shares state with a sibling's.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog database at the given path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer per connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db}

	// Pragmas and migration retry under lock contention like any other
	// write; whichever worker wins runs the migration, the rest see the
	// finished schema on a later attempt
	for attempt := 1; ; attempt++ {
		err = store.initialize()
		if err == nil {
			break
		}
		if !IsLocked(err) || attempt == openAttempts {
			db.Close()
			return nil, err
		}
		time.Sleep(openRetryWait)
	}

	return store, nil
}

// initialize applies connection pragmas and brings the schema up to date
func (s *Store) initialize() error {
	// WAL keeps sibling workers' readers unblocked while one of them commits
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	if err := s.migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// IsLocked reports whether err is a write-contention error from SQLite.
// These are the only errors worth retrying a reconciliation commit for.
func IsLocked(err error) bool {
	if err == nil {
		return false
	}

	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqliteBusy, sqliteLocked:
			return true
		}
	}

	// Fallback for errors the driver has already flattened to text
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// migrate applies database migrations
func (s *Store) migrate() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if err := s.setSchemaVersion(tx, 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	// Future migrations would go here:
	// if version < 2 { ... }

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (s *Store) getSchemaVersion() (int, error) {
	var exists int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}

	if exists == 0 {
		return 0, nil
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion records a schema version in a transaction
func (s *Store) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// Transaction executes a function within a transaction
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
