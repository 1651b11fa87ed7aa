// Package store persists rule sets and the master enabled flag.
package store

import (
	"context"
	"fmt"

	"github.com/pagemorph/pagemorph/pkg/types"
)

// Store is the persistence boundary for rule management. The engine itself
// never reads or writes storage; it only consumes rule-set snapshots the
// surrounding collaborator loads from here.
type Store interface {
	// Load returns the persisted rule set.
	Load(ctx context.Context) (types.RuleSet, error)

	// Save replaces the persisted rule set wholesale.
	Save(ctx context.Context, set types.RuleSet) error

	// Enabled returns the master enabled flag. Defaults to true when never
	// set.
	Enabled(ctx context.Context) (bool, error)

	// SetEnabled persists the master enabled flag.
	SetEnabled(ctx context.Context, enabled bool) error

	// Close releases the underlying resources.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path. Use ":memory:" for an in-memory
	// store (useful for testing).
	Path string
}

// New creates a Store. ":memory:" paths get the in-memory implementation,
// anything else a SQLite database at that path.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.Path == ":memory:" {
		return NewMemory(), nil
	}
	return NewSQLite(cfg.Path)
}
