package types

import (
	"errors"
	"fmt"
)

// ErrLeafBudget reports that a leaf's substitution exceeded its time budget.
// The leaf is left unmodified; the scan continues with the next leaf.
var ErrLeafBudget = errors.New("leaf substitution budget exceeded")

// ErrDetached reports that a leaf was no longer attached to the tree when
// visited. This is an expected race with host mutation and is skipped
// silently, never surfaced as an error log.
var ErrDetached = errors.New("leaf detached from tree")

// ValidationError describes a rule dropped during ingestion. It is logged
// once per rule and never aborts compilation of the remaining rules.
type ValidationError struct {
	Original string // the rule's key, possibly truncated for logging
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid rule %q: %s", e.Original, e.Reason)
}
