// Package prefilter provides a cheap Aho-Corasick gate that decides whether
// a block of text can possibly contain any rule's original text, so that the
// regex passes only run on leaves that stand a chance of matching.
package prefilter

import (
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/pagemorph/pagemorph/pkg/types"
)

// Prefilter answers "may any rule match this text" in one multi-pattern
// scan. Matching is performed over case-folded text so a single automaton
// covers both the case-sensitive and case-insensitive rule buckets.
type Prefilter struct {
	matcher *ahocorasick.Matcher
}

// New builds a prefilter over the originals of the given rules.
// Returns nil when there are no rules; a nil Prefilter passes everything.
func New(rules []*types.Rule) *Prefilter {
	if len(rules) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(rules))
	keywords := make([]string, 0, len(rules))
	for _, r := range rules {
		folded := r.FoldedOriginal()
		if !seen[folded] {
			seen[folded] = true
			keywords = append(keywords, folded)
		}
	}

	return &Prefilter{matcher: ahocorasick.NewStringMatcher(keywords)}
}

// MayMatch reports whether any rule's original occurs in text, ignoring
// case and boundary constraints. False means no rule can match; true means
// the regex passes must run to find out.
func (pf *Prefilter) MayMatch(text string) bool {
	if pf == nil {
		return true
	}
	return len(pf.matcher.Match([]byte(strings.ToLower(text)))) > 0
}
