package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/pagemorph/pagemorph/pkg/types"
)

// SQLiteStore implements Store using SQLite via the pure-Go driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-backed store at the given path, initializing
// the schema if needed.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rules (
			original       TEXT PRIMARY KEY,
			replacement    TEXT NOT NULL,
			case_sensitive INTEGER NOT NULL DEFAULT 0,
			enabled        INTEGER NOT NULL DEFAULT 1
		);
		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// Load returns the persisted rule set.
func (s *SQLiteStore) Load(ctx context.Context) (types.RuleSet, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT original, replacement, case_sensitive, enabled FROM rules")
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	set := make(types.RuleSet)
	for rows.Next() {
		var r types.Rule
		if err := rows.Scan(&r.Original, &r.Replacement, &r.CaseSensitive, &r.Enabled); err != nil {
			return nil, fmt.Errorf("scanning rule row: %w", err)
		}
		set[r.Original] = &r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rule rows: %w", err)
	}
	return set, nil
}

// Save replaces the persisted rule set wholesale inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, set types.RuleSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM rules"); err != nil {
		return fmt.Errorf("clearing rules: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO rules (original, replacement, case_sensitive, enabled) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range set {
		if _, err := stmt.ExecContext(ctx, r.Original, r.Replacement, r.CaseSensitive, r.Enabled); err != nil {
			return fmt.Errorf("inserting rule %q: %w", r.Original, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rules: %w", err)
	}
	return nil
}

// Enabled returns the master enabled flag, defaulting to true.
func (s *SQLiteStore) Enabled(ctx context.Context) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = 'enabled'").Scan(&value)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying enabled flag: %w", err)
	}
	return value == "true", nil
}

// SetEnabled persists the master enabled flag.
func (s *SQLiteStore) SetEnabled(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES ('enabled', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		value)
	if err != nil {
		return fmt.Errorf("saving enabled flag: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
