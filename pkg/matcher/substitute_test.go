package matcher

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagemorph/pagemorph/pkg/types"
)

func mustSubstitute(t *testing.T, b *Bundle, text string) (string, bool) {
	t.Helper()
	result, changed, err := b.Substitute(text)
	require.NoError(t, err)
	return result, changed
}

func ruleOf(original, replacement string, caseSensitive bool) *types.Rule {
	return &types.Rule{
		Original:      original,
		Replacement:   replacement,
		CaseSensitive: caseSensitive,
		Enabled:       true,
	}
}

func TestSubstitute_ExactRule(t *testing.T) {
	tests := []struct {
		name     string
		rule     *types.Rule
		input    string
		expected string
	}{
		{
			name:     "whole input equals original",
			rule:     ruleOf("hello", "goodbye", false),
			input:    "hello",
			expected: "goodbye",
		},
		{
			name:     "original inside surrounding text",
			rule:     ruleOf("hello", "goodbye", false),
			input:    "say hello there",
			expected: "say goodbye there",
		},
		{
			name:     "empty replacement deletes the match",
			rule:     ruleOf("hello", "", false),
			input:    "say hello there",
			expected: "say  there",
		},
		{
			name:     "case-sensitive exact match",
			rule:     ruleOf("Hello", "goodbye", true),
			input:    "Hello world",
			expected: "goodbye world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Compile([]*types.Rule{tt.rule})
			result, changed := mustSubstitute(t, b, tt.input)
			assert.Equal(t, tt.expected, result)
			assert.True(t, changed)
		})
	}
}

func TestSubstitute_LongestMatchPrecedence(t *testing.T) {
	b := Compile([]*types.Rule{
		ruleOf("super", "X", false),
		ruleOf("superman", "Y", false),
	})

	result, changed := mustSubstitute(t, b, "superman")
	assert.True(t, changed)
	assert.Equal(t, "Y", result, "longer pattern must win at the same offset")

	result, _ = mustSubstitute(t, b, "super powers")
	assert.Equal(t, "X powers", result)
}

func TestSubstitute_CaseIsolation(t *testing.T) {
	t.Run("case-sensitive rule ignores other casings", func(t *testing.T) {
		b := Compile([]*types.Rule{ruleOf("Cat", "Z", true)})

		result, changed := mustSubstitute(t, b, "my cat here")
		assert.False(t, changed)
		assert.Equal(t, "my cat here", result)

		result, changed = mustSubstitute(t, b, "my Cat here")
		assert.True(t, changed)
		assert.Equal(t, "my Z here", result)
	})

	t.Run("case-insensitive rule matches every casing", func(t *testing.T) {
		b := Compile([]*types.Rule{ruleOf("cat", "Z", false)})
		for _, input := range []string{"cat", "Cat", "CAT"} {
			result, changed := mustSubstitute(t, b, input)
			assert.True(t, changed, "input %q", input)
			assert.Equal(t, "Z", result, "input %q", input)
		}
	})
}

func TestSubstitute_CascadeOrder(t *testing.T) {
	// The case-insensitive pass runs over the case-sensitive pass's OUTPUT:
	// "The" -> "DA" (pass 1), then "DA" matches "da" -> "X" (pass 2).
	b := Compile([]*types.Rule{
		ruleOf("The", "DA", true),
		ruleOf("da", "X", false),
	})

	result, changed := mustSubstitute(t, b, "The")
	assert.True(t, changed)
	assert.Equal(t, "X", result)
}

func TestSubstitute_CascadeReproducible(t *testing.T) {
	// The cascade is deterministic but NOT idempotent: re-applying the
	// bundle to its own output may change it again. What must hold is that
	// the same input always produces the same two-pass result.
	b := Compile([]*types.Rule{
		ruleOf("The", "DA", true),
		ruleOf("da", "X", false),
	})

	first, _ := mustSubstitute(t, b, "The da The")
	for i := 0; i < 5; i++ {
		again, _ := mustSubstitute(t, b, "The da The")
		assert.Equal(t, first, again)
	}
}

func TestSubstitute_LiteralEscaping(t *testing.T) {
	b := Compile([]*types.Rule{ruleOf("$5.00", "five dollars", false)})

	result, changed := mustSubstitute(t, b, "Price: $5.00 today")
	assert.True(t, changed)
	assert.Equal(t, "Price: five dollars today", result)

	// The dot must not act as a metacharacter.
	result, changed = mustSubstitute(t, b, "Price: $5x00 today")
	assert.False(t, changed)
	assert.Equal(t, "Price: $5x00 today", result)
}

func TestSubstitute_WordBoundaries(t *testing.T) {
	b := Compile([]*types.Rule{ruleOf("dog", "cat", false)})

	result, changed := mustSubstitute(t, b, "I love my dog and Dog, not my doggy")
	assert.True(t, changed)
	assert.Equal(t, "I love my cat and cat, not my doggy", result)
}

func TestSubstitute_PunctuationPatternUnanchored(t *testing.T) {
	// A pattern whose edges are punctuation stays unanchored on those sides
	// and may match inside adjacent punctuation.
	b := Compile([]*types.Rule{ruleOf("$5.00", "five", false)})

	result, changed := mustSubstitute(t, b, "($5.00)")
	assert.True(t, changed)
	assert.Equal(t, "(five)", result)
}

func TestSubstitute_DisabledRulesNeverFire(t *testing.T) {
	disabled := ruleOf("dog", "cat", false)
	disabled.Enabled = false
	b := Compile([]*types.Rule{disabled})

	result, changed := mustSubstitute(t, b, "my dog")
	assert.False(t, changed)
	assert.Equal(t, "my dog", result)
}

func TestSubstitute_EmptyBundleNoOp(t *testing.T) {
	b := Compile(nil)
	result, changed := mustSubstitute(t, b, "anything at all")
	assert.False(t, changed)
	assert.Equal(t, "anything at all", result)
}

func TestSubstitute_NoMatchUnchanged(t *testing.T) {
	b := Compile([]*types.Rule{ruleOf("dog", "cat", false)})
	result, changed := mustSubstitute(t, b, "nothing relevant here")
	assert.False(t, changed)
	assert.Equal(t, "nothing relevant here", result)
}

func TestSubstitute_UnicodeOffsets(t *testing.T) {
	// regexp2 reports offsets in runes; multi-byte text around the match
	// must survive reassembly intact.
	b := Compile([]*types.Rule{ruleOf("dog", "cat", false)})
	result, changed := mustSubstitute(t, b, "héllo dog wörld 日本")
	assert.True(t, changed)
	assert.Equal(t, "héllo cat wörld 日本", result)
}

func TestSubstitute_BudgetExpiry(t *testing.T) {
	// A clock that leaps past the deadline after budget creation makes the
	// very first checkpoint observe expiry. The leaf must come back exactly
	// as it went in, with no partial substitution.
	now := time.Now()
	calls := 0
	clock := func() time.Time {
		calls++
		if calls == 1 {
			return now
		}
		return now.Add(time.Hour)
	}

	b := CompileWithConfig([]*types.Rule{ruleOf("dog", "cat", false)}, Config{
		LeafBudget:    time.Second,
		CheckInterval: 1,
		Clock:         clock,
	})

	input := "dog dog dog"
	result, changed, err := b.Substitute(input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrLeafBudget))
	assert.False(t, changed)
	assert.Equal(t, input, result)
}

func TestSubstitute_BudgetSharedAcrossPasses(t *testing.T) {
	// Same leaping clock, but the only checkpoint that can observe expiry
	// is in the second (case-insensitive) pass: the budget is one allowance
	// for both passes, not one each.
	now := time.Now()
	calls := 0
	clock := func() time.Time {
		calls++
		if calls == 1 {
			return now
		}
		return now.Add(time.Hour)
	}

	b := CompileWithConfig([]*types.Rule{
		ruleOf("The", "DA", true),
		ruleOf("dog", "cat", false),
	}, Config{
		LeafBudget:    time.Second,
		CheckInterval: 2, // pass 1 resolves one match, pass 2's match is the 2nd tick
		Clock:         clock,
	})

	input := "The dog"
	result, changed, err := b.Substitute(input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrLeafBudget))
	assert.False(t, changed)
	assert.Equal(t, input, result, "no partial output from the completed first pass")
}

func TestSubstitute_InflationGuard(t *testing.T) {
	big := strings.Repeat("x", types.MaxTextLen)
	b := Compile([]*types.Rule{ruleOf("a", big, false)})

	// 500 matches * 255 units comfortably exceeds the inflation limit.
	input := strings.Repeat("a ", 500)
	result, changed := mustSubstitute(t, b, input)
	assert.False(t, changed)
	assert.Equal(t, input, result)

	// A small input with the same rule is fine.
	result, changed = mustSubstitute(t, b, "a")
	assert.True(t, changed)
	assert.Equal(t, big, result)
}

func TestSubstitute_IdentityReplacementNotChanged(t *testing.T) {
	b := Compile([]*types.Rule{ruleOf("dog", "dog", false)})
	result, changed := mustSubstitute(t, b, "my dog")
	assert.False(t, changed, "identity replacements must not report change")
	assert.Equal(t, "my dog", result)
}
