package rule

import (
	"fmt"
	"strings"

	"github.com/pagemorph/pagemorph/pkg/types"
)

// ValidateRule checks one rule against the engine's structural limits.
func ValidateRule(r *types.Rule) error {
	if r == nil {
		return fmt.Errorf("rule is nil")
	}
	if strings.TrimSpace(r.Original) == "" {
		return fmt.Errorf("original text is required")
	}
	if reservedKeys[r.Original] {
		return fmt.Errorf("original text %q is a reserved identifier", r.Original)
	}
	if n := types.TextLen(r.Original); n > types.MaxTextLen {
		return fmt.Errorf("original text is %d units, limit is %d", n, types.MaxTextLen)
	}
	if n := types.TextLen(r.Replacement); n > types.MaxTextLen {
		return fmt.Errorf("replacement text is %d units, limit is %d", n, types.MaxTextLen)
	}
	return nil
}

// ValidateSet checks every rule in a set and detects originals that collide
// under case-folding among enabled case-insensitive rules. Collisions are
// reported, not resolved: the compiler keeps the first and warns, but the
// management surface should refuse to store such a set.
func ValidateSet(set types.RuleSet) []error {
	var errs []error

	folded := make(map[string]string) // folded original -> first original seen
	for _, original := range SortedOriginals(set) {
		r := set[original]
		if err := ValidateRule(r); err != nil {
			errs = append(errs, fmt.Errorf("rule %q: %w", truncateForLog(original), err))
			continue
		}
		if !r.Enabled || r.CaseSensitive {
			continue
		}
		key := r.FoldedOriginal()
		if first, dup := folded[key]; dup {
			errs = append(errs, fmt.Errorf("rules %q and %q collide under case-folding", first, original))
			continue
		}
		folded[key] = original
	}

	if n := len(set.EnabledRules()); n > types.MaxEnabledRules {
		errs = append(errs, fmt.Errorf("%d enabled rules, limit is %d", n, types.MaxEnabledRules))
	}
	return errs
}
