// Package rule handles rule-set ingestion, validation, interchange formats,
// and filtering. Rule sets arrive from untrusted storage (manual edits,
// corrupted sync, stale schema versions), so ingestion drops anything
// malformed instead of trusting it.
package rule

import (
	"sort"
	"strings"

	"github.com/pagemorph/pagemorph/pkg/logging"
	"github.com/pagemorph/pagemorph/pkg/types"
)

// Wire field names of the storage object format.
const (
	fieldReplacement   = "replacementText"
	fieldCaseSensitive = "caseSensitive"
	fieldEnabled       = "enabled"
)

// reservedKeys are identifiers reserved by the generic-object representation
// rule sets travel through in storage. A rule keyed on one of these could
// shadow non-rule data during lookup, so they are rejected at ingestion.
var reservedKeys = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
}

// Sanitize turns a raw decoded rule mapping into the enabled rules that may
// participate in matching. Malformed input is never an error: a value that
// is not a key-to-object mapping yields no rules at all, and individual bad
// entries are dropped with one warning each. Keys are processed in sorted
// order so the result is deterministic regardless of decode order.
func Sanitize(raw any) []*types.Rule {
	logger := logging.GetLogger("rule")

	mapping, ok := raw.(map[string]any)
	if !ok {
		if raw != nil {
			logger.Warn().Msg("rule set is not a key-to-object mapping, ignoring")
		}
		return nil
	}

	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rules []*types.Rule
	for _, original := range keys {
		r, verr := sanitizeEntry(original, mapping[original])
		if verr != nil {
			logger.Warn().Str("reason", verr.Reason).Str("original", verr.Original).Msg("dropping rule")
			continue
		}
		if r == nil {
			// Disabled: valid, just not a participant.
			continue
		}
		rules = append(rules, r)
	}
	return rules
}

// sanitizeEntry validates one raw entry. A nil rule with nil error means the
// entry is valid but disabled.
func sanitizeEntry(original string, value any) (*types.Rule, *types.ValidationError) {
	if reservedKeys[original] {
		return nil, &types.ValidationError{Original: original, Reason: "reserved identifier"}
	}
	if strings.TrimSpace(original) == "" {
		return nil, &types.ValidationError{Original: original, Reason: "empty original text"}
	}
	if types.TextLen(original) > types.MaxTextLen {
		return nil, &types.ValidationError{Original: truncateForLog(original), Reason: "original text too long"}
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, &types.ValidationError{Original: original, Reason: "value is not an object"}
	}

	replacement := ""
	if rv, present := obj[fieldReplacement]; present && rv != nil {
		s, ok := rv.(string)
		if !ok {
			return nil, &types.ValidationError{Original: original, Reason: "replacement is not a string"}
		}
		replacement = s
	}
	if types.TextLen(replacement) > types.MaxTextLen {
		return nil, &types.ValidationError{Original: original, Reason: "replacement text too long"}
	}

	if !truthy(obj[fieldEnabled]) {
		return nil, nil
	}

	return &types.Rule{
		Original:      original,
		Replacement:   replacement,
		CaseSensitive: truthy(obj[fieldCaseSensitive]),
		Enabled:       true,
	}, nil
}

// truthy coerces a loosely-typed flag to a boolean the way the storage
// format's host language would: absent values, false, zero, and the empty
// string are false; everything else is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}

func truncateForLog(s string) string {
	const max = 64
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
