package types

import "strings"

// Rule is one text-replacement rule: occurrences of Original are rewritten
// to Replacement wherever they appear in scanned document text.
type Rule struct {
	Original      string // text to find
	Replacement   string // text to substitute (may be empty: a delete rule)
	CaseSensitive bool   // exact-case matching when true
	Enabled       bool   // disabled rules never participate in matching
}

// FoldedOriginal returns the case-folded original text, the lookup key used
// for case-insensitive rules.
func (r *Rule) FoldedOriginal() string {
	return strings.ToLower(r.Original)
}

// RuleSet maps original text to its rule. Keys are unique; iteration order
// is irrelevant to matching order, which is determined by the compiler's
// length-descending sort.
type RuleSet map[string]*Rule

// EnabledRules returns the subset of rules with Enabled set, in unspecified order.
func (rs RuleSet) EnabledRules() []*Rule {
	out := make([]*Rule, 0, len(rs))
	for _, r := range rs {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a deep copy of the rule set. Compiled bundles hold rule
// pointers, so swapping in a new set must never alias the old one.
func (rs RuleSet) Clone() RuleSet {
	out := make(RuleSet, len(rs))
	for k, r := range rs {
		cp := *r
		out[k] = &cp
	}
	return out
}
