package types

import "time"

// Fixed numeric contracts of the engine. These mirror the limits enforced by
// the rule management surface; the compiler re-enforces them as a secondary
// safety net against rules arriving from untrusted storage.
const (
	// MaxEnabledRules is the maximum number of rules that participate in
	// matching. Surviving rules beyond this count are dropped with a warning.
	MaxEnabledRules = 255

	// MaxTextLen is the maximum length, in UTF-16 units, of a rule's
	// original or replacement text.
	MaxTextLen = 255

	// LeafBudget is the wall-clock budget for substituting a single leaf,
	// shared across both matching passes.
	LeafBudget = 100 * time.Millisecond

	// BudgetCheckInterval throttles deadline checks to every Nth resolved
	// match, amortizing the cost of reading the clock.
	BudgetCheckInterval = 50

	// OversizeLimit is the leaf text length above which the scanner skips
	// the leaf without invoking the matcher at all.
	OversizeLimit = 50_000

	// InflationLimit bounds post-substitution growth: a result longer than
	// this is discarded and the leaf left unmodified.
	InflationLimit = 2 * OversizeLimit

	// DebounceWindow coalesces bursts of rescan requests into one scan.
	DebounceWindow = 200 * time.Millisecond
)
