package rule

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pagemorph/pagemorph/pkg/types"
)

// FilterConfig specifies include and exclude patterns for rule filtering.
// Patterns match against a rule's original text.
type FilterConfig struct {
	Include []string // regex patterns - only matching rules included
	Exclude []string // regex patterns - matching rules excluded
}

// ParsePatterns splits a comma-separated string into individual patterns.
// Patterns are trimmed of whitespace.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter applies include and exclude patterns to a rule set.
// Include is applied first, then exclude. Empty include means "include all".
// Returns error if any pattern is invalid regex.
func Filter(set types.RuleSet, config FilterConfig) (types.RuleSet, error) {
	if len(set) == 0 {
		return set, nil
	}

	includeRegexes, err := compilePatterns(config.Include)
	if err != nil {
		return nil, err
	}
	excludeRegexes, err := compilePatterns(config.Exclude)
	if err != nil {
		return nil, err
	}

	filtered := make(types.RuleSet, len(set))
	for original, r := range set {
		if len(includeRegexes) > 0 && !matchesAny(original, includeRegexes) {
			continue
		}
		if matchesAny(original, excludeRegexes) {
			continue
		}
		filtered[original] = r
	}
	return filtered, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	var regexes []*regexp.Regexp
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		regexes = append(regexes, re)
	}
	return regexes, nil
}

func matchesAny(original string, regexes []*regexp.Regexp) bool {
	for _, re := range regexes {
		if re.MatchString(original) {
			return true
		}
	}
	return false
}
