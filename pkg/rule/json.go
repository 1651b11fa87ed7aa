package rule

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pagemorph/pagemorph/pkg/types"
)

// wireRule is the JSON object format rules are stored and exchanged in:
// a top-level mapping from original text to this shape.
type wireRule struct {
	ReplacementText string `json:"replacementText"`
	CaseSensitive   bool   `json:"caseSensitive"`
	Enabled         bool   `json:"enabled"`
}

// ImportJSON parses a rule set from its JSON wire format. The input is
// treated as untrusted: entries that fail sanitization are dropped, and
// disabled entries are preserved (import is a management operation, not a
// matching one). Only outright unparseable JSON is an error.
func ImportJSON(data []byte) (types.RuleSet, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing rules JSON: %w", err)
	}

	mapping, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("rules JSON is not an object")
	}

	set := make(types.RuleSet, len(mapping))

	// Enabled rules go through the same sanitizer the engine uses.
	for _, r := range Sanitize(raw) {
		set[r.Original] = r
	}

	// Disabled rules survive import as long as they are structurally valid.
	for original, value := range mapping {
		if _, present := set[original]; present {
			continue
		}
		obj, ok := value.(map[string]any)
		if !ok || reservedKeys[original] {
			continue
		}
		if truthy(obj[fieldEnabled]) {
			continue // enabled but dropped by the sanitizer: stays dropped
		}
		r, verr := sanitizeDisabled(original, obj)
		if verr != nil {
			continue
		}
		set[original] = r
	}

	return set, nil
}

// sanitizeDisabled applies the structural checks to a disabled entry.
func sanitizeDisabled(original string, obj map[string]any) (*types.Rule, *types.ValidationError) {
	enabled := obj[fieldEnabled]
	obj[fieldEnabled] = true
	r, verr := sanitizeEntry(original, obj)
	obj[fieldEnabled] = enabled
	if verr != nil {
		return nil, verr
	}
	r.Enabled = false
	return r, nil
}

// ExportJSON serializes a rule set to its JSON wire format with stable key
// order.
func ExportJSON(set types.RuleSet) ([]byte, error) {
	out := make(map[string]wireRule, len(set))
	for original, r := range set {
		out[original] = wireRule{
			ReplacementText: r.Replacement,
			CaseSensitive:   r.CaseSensitive,
			Enabled:         r.Enabled,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding rules JSON: %w", err)
	}
	return data, nil
}

// SortedOriginals returns the set's keys in sorted order, for stable listing.
func SortedOriginals(set types.RuleSet) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
