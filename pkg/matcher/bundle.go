// Package matcher compiles rule sets into immutable matcher bundles and
// applies them to blocks of text under a cooperative time budget.
package matcher

import (
	"sort"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/pagemorph/pagemorph/pkg/logging"
	"github.com/pagemorph/pagemorph/pkg/prefilter"
	"github.com/pagemorph/pagemorph/pkg/types"
)

// Bundle is the compiled artifact derived from a rule set: one combined
// alternation per case bucket plus the lookup tables that resolve a matched
// string back to its rule. Bundles are immutable; a rule-set change compiles
// a fresh bundle which is swapped in whole.
type Bundle struct {
	sensitive   *regexp2.Regexp // case-sensitive alternation, nil when bucket empty
	insensitive *regexp2.Regexp // case-insensitive alternation, nil when bucket empty
	exact       map[string]*types.Rule
	folded      map[string]*types.Rule
	pre         *prefilter.Prefilter

	ruleCount     int
	budget        time.Duration
	checkInterval int
	clock         func() time.Time
}

// Config adjusts compilation and substitution behavior. The zero value uses
// the engine's fixed contracts; tests shrink the budget or inject a clock.
type Config struct {
	// LeafBudget overrides the per-leaf substitution budget.
	LeafBudget time.Duration

	// CheckInterval overrides how many resolved matches pass between
	// deadline checks.
	CheckInterval int

	// Clock overrides the time source used for deadline checks.
	Clock func() time.Time
}

// Compile builds a bundle from rules with default configuration.
func Compile(rules []*types.Rule) *Bundle {
	return CompileWithConfig(rules, Config{})
}

// CompileWithConfig builds a bundle from already-sanitized rules.
//
// Compilation never fails: a rule whose pattern cannot be compiled is
// dropped with a warning, and the worst case is an empty bundle, which makes
// substitution a no-op. Rules beyond the enabled-rule ceiling are dropped
// here as a second line of defense, independent of the limit the rule
// management surface enforces.
func CompileWithConfig(rules []*types.Rule, cfg Config) *Bundle {
	logger := logging.GetLogger("matcher")

	if cfg.LeafBudget <= 0 {
		cfg.LeafBudget = types.LeafBudget
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = types.BudgetCheckInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	if len(rules) > types.MaxEnabledRules {
		logger.Warn().
			Int("rules", len(rules)).
			Int("max", types.MaxEnabledRules).
			Msg("rule set exceeds enabled-rule ceiling, truncating")
		rules = rules[:types.MaxEnabledRules]
	}

	b := &Bundle{
		exact:         make(map[string]*types.Rule, len(rules)),
		folded:        make(map[string]*types.Rule, len(rules)),
		budget:        cfg.LeafBudget,
		checkInterval: cfg.CheckInterval,
		clock:         cfg.Clock,
	}

	var sensitive, insensitive []*types.Rule
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		if r.Original == "" {
			logger.Warn().Msg("rule with empty original, dropping")
			continue
		}
		if r.CaseSensitive {
			if _, dup := b.exact[r.Original]; dup {
				logger.Warn().Str("original", r.Original).Msg("duplicate rule, keeping first")
				continue
			}
			b.exact[r.Original] = r
			sensitive = append(sensitive, r)
		} else {
			folded := r.FoldedOriginal()
			if _, dup := b.folded[folded]; dup {
				logger.Warn().Str("original", r.Original).Msg("case-folded duplicate rule, keeping first")
				continue
			}
			b.folded[folded] = r
			insensitive = append(insensitive, r)
		}
	}

	b.sensitive = compileAlternation(sensitive, regexp2.RE2, cfg.LeafBudget)
	b.insensitive = compileAlternation(insensitive, regexp2.RE2|regexp2.IgnoreCase, cfg.LeafBudget)
	b.ruleCount = len(sensitive) + len(insensitive)
	b.pre = prefilter.New(append(sensitive, insensitive...))

	logger.Debug().
		Int("caseSensitive", len(sensitive)).
		Int("caseInsensitive", len(insensitive)).
		Msg("compiled matcher bundle")
	return b
}

// Empty reports whether the bundle holds no rules, making substitution a
// no-op.
func (b *Bundle) Empty() bool {
	return b == nil || b.ruleCount == 0
}

// RuleCount returns the number of rules compiled into the bundle.
func (b *Bundle) RuleCount() int {
	if b == nil {
		return 0
	}
	return b.ruleCount
}

// compileAlternation builds one combined pattern for a rule bucket, longest
// original first so that an overlapping longer pattern wins at any given
// offset. Returns nil for an empty bucket.
func compileAlternation(rules []*types.Rule, opts regexp2.RegexOptions, timeout time.Duration) *regexp2.Regexp {
	if len(rules) == 0 {
		return nil
	}

	// Length-descending order is the sole mechanism behind longest-match
	// precedence: the alternation is tried left to right at each position.
	// The secondary lexicographic key only keeps output deterministic.
	sorted := make([]*types.Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := types.TextLen(sorted[i].Original), types.TextLen(sorted[j].Original)
		if li != lj {
			return li > lj
		}
		return sorted[i].Original < sorted[j].Original
	})

	parts := make([]string, 0, len(sorted))
	for _, r := range sorted {
		parts = append(parts, anchorPattern(r.Original))
	}

	re, err := regexp2.Compile(strings.Join(parts, "|"), opts)
	if err != nil {
		// Originals are escaped literals, so this indicates a bug rather
		// than bad input; degrade to a nil matcher for this bucket.
		logger := logging.GetLogger("matcher")
		logger.Error().Err(err).Msg("alternation failed to compile")
		return nil
	}
	// Backstop for a single match attempt that never reaches a cooperative
	// checkpoint.
	re.MatchTimeout = timeout
	return re
}

// anchorPattern escapes a rule's original text and adds a word-boundary
// anchor on each side whose outermost character is word-like. A pattern that
// starts or ends with punctuation (a currency amount, say) stays unanchored
// on that side so it can match inside adjacent punctuation, while a word
// pattern never matches inside a longer word.
func anchorPattern(original string) string {
	pattern := regexp2.Escape(original)
	runes := []rune(original)
	if isWordRune(runes[0]) {
		pattern = `\b` + pattern
	}
	if isWordRune(runes[len(runes)-1]) {
		pattern += `\b`
	}
	return pattern
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z')
}
