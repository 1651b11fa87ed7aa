package matcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/pagemorph/pagemorph/pkg/logging"
	"github.com/pagemorph/pagemorph/pkg/types"
)

// budget tracks the wall-clock allowance for one leaf's substitution. The
// deadline is shared across both passes, and to amortize clock reads it is
// only consulted on every Nth resolved match.
type budget struct {
	clock    func() time.Time
	deadline time.Time
	interval int
	count    int
}

func newBudget(clock func() time.Time, allowance time.Duration, interval int) *budget {
	return &budget{
		clock:    clock,
		deadline: clock().Add(allowance),
		interval: interval,
	}
}

// tick records one resolved match and reports whether the budget has
// expired. Expiry is only ever observed at a checkpoint; a single match
// attempt between checkpoints cannot be interrupted.
func (bd *budget) tick() bool {
	bd.count++
	if bd.count%bd.interval != 0 {
		return false
	}
	return bd.clock().After(bd.deadline)
}

// Substitute applies the bundle to one leaf's text and returns the rewritten
// text along with whether anything changed.
//
// Matching runs as two sequential cascading passes: the case-sensitive
// matcher first, then the case-insensitive matcher over the FIRST PASS'S
// OUTPUT, not the original input. A case-sensitive rule's replacement can
// therefore itself be rewritten by a case-insensitive rule. This mirrors
// running two find-and-replace sweeps back to back and is intentional; do
// not collapse it into a single merged pass.
//
// On budget expiry Substitute returns the input unchanged together with
// types.ErrLeafBudget; partial output is never surfaced. Any other failure
// is recovered here, logged, and reported as no change.
func (b *Bundle) Substitute(text string) (result string, changed bool, err error) {
	if b.Empty() || text == "" {
		return text, false, nil
	}
	if !b.pre.MayMatch(text) {
		return text, false, nil
	}

	defer func() {
		if r := recover(); r != nil {
			logger := logging.GetLogger("matcher")
			logger.Error().
				Interface("panic", r).
				Msg("unexpected failure during substitution")
			result, changed, err = text, false, nil
		}
	}()

	bd := newBudget(b.clock, b.budget, b.checkInterval)

	out := text
	if b.sensitive != nil {
		pass1, ch1, err := b.replaceAll(b.sensitive, out, b.lookupExact, bd)
		if err != nil {
			return text, false, err
		}
		out = pass1
		changed = changed || ch1
	}
	if b.insensitive != nil {
		pass2, ch2, err := b.replaceAll(b.insensitive, out, b.lookupFolded, bd)
		if err != nil {
			return text, false, err
		}
		out = pass2
		changed = changed || ch2
	}

	if !changed {
		return text, false, nil
	}
	if types.TextLen(out) > types.InflationLimit {
		logger := logging.GetLogger("matcher")
		logger.Warn().
			Int("length", types.TextLen(out)).
			Int("limit", types.InflationLimit).
			Msg("substitution result exceeds inflation limit, discarding")
		return text, false, nil
	}
	return out, true, nil
}

func (b *Bundle) lookupExact(matched string) (*types.Rule, bool) {
	r, ok := b.exact[matched]
	return r, ok
}

func (b *Bundle) lookupFolded(matched string) (*types.Rule, bool) {
	r, ok := b.folded[strings.ToLower(matched)]
	return r, ok
}

// replaceAll runs one matcher pass over text. Each match is resolved through
// the pass's lookup table; a match with no table entry is emitted unchanged.
// Returns types.ErrLeafBudget when the shared budget expires mid-pass.
func (b *Bundle) replaceAll(re *regexp2.Regexp, text string, lookup func(string) (*types.Rule, bool), bd *budget) (string, bool, error) {
	m, err := re.FindStringMatch(text)
	if err != nil {
		// regexp2's own MatchTimeout fired; treat it like budget expiry.
		return text, false, fmt.Errorf("%w: %v", types.ErrLeafBudget, err)
	}
	if m == nil {
		return text, false, nil
	}

	// regexp2 reports match offsets in runes, so the pass assembles output
	// from a rune view of the text.
	runes := []rune(text)
	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	changed := false

	for m != nil {
		if bd.tick() {
			return text, false, types.ErrLeafBudget
		}

		matched := m.String()
		replacement := matched
		if rule, ok := lookup(matched); ok {
			replacement = rule.Replacement
		}
		if replacement != matched {
			changed = true
		}

		sb.WriteString(string(runes[last:m.Index]))
		sb.WriteString(replacement)
		last = m.Index + m.Length

		m, err = re.FindNextMatch(m)
		if err != nil {
			return text, false, fmt.Errorf("%w: %v", types.ErrLeafBudget, err)
		}
	}
	sb.WriteString(string(runes[last:]))

	if !changed {
		return text, false, nil
	}
	return sb.String(), true, nil
}
