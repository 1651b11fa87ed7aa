// Package pagemorph provides a live text-substitution engine for document
// trees.
//
// Pagemorph compiles user-defined replacement rules into an immutable
// matcher bundle and applies it to the text leaves of a document, in place,
// without disturbing structure. Matching runs in two cascading passes
// (case-sensitive, then case-insensitive over the first pass's output) under
// a cooperative per-leaf time budget, so adversarial rule sets and huge text
// blocks degrade to skipped leaves instead of a frozen host.
//
// # Basic Usage
//
// Create an engine from a rule set and rewrite some text:
//
//	engine := pagemorph.New(pagemorph.WithRules(rules))
//	out, changed := engine.Substitute("I love my dog")
//
// # Rewriting HTML
//
// Whole documents are parsed, scanned leaf by leaf, and rendered back:
//
//	stats, err := engine.RewriteHTML(input, output)
//
// # Live documents
//
// For a continuously mutating tree, attach an Observer, which recompiles on
// rule changes, rescans inserted subtrees, and debounces rescan bursts:
//
//	obs := observer.New(root, observer.WithRuleLoader(loadFromStore))
//	obs.Start()
//	obs.SetRules(rules)
package pagemorph

import (
	"fmt"
	"io"
	"sync"

	"github.com/pagemorph/pagemorph/pkg/document"
	"github.com/pagemorph/pagemorph/pkg/matcher"
	"github.com/pagemorph/pagemorph/pkg/rule"
	"github.com/pagemorph/pagemorph/pkg/scanner"
	"github.com/pagemorph/pagemorph/pkg/types"
)

// Re-export commonly used types so callers can import just
// "github.com/pagemorph/pagemorph" without subpackages.
type (
	// Rule is one original-text to replacement-text mapping.
	Rule = types.Rule

	// RuleSet maps original text to its rule.
	RuleSet = types.RuleSet

	// Stats summarizes one scan pass.
	Stats = scanner.Stats
)

// Engine applies a compiled rule set to text and documents. The bundle is
// replaced atomically on rule changes, so substitutions already in flight
// complete against a consistent snapshot.
type Engine struct {
	mu      sync.RWMutex
	bundle  *matcher.Bundle
	scanner *scanner.Scanner
	cfg     matcher.Config
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	rules   types.RuleSet
	matcher matcher.Config
	scanner []scanner.Option
}

// WithRules sets the initial rule set.
func WithRules(set RuleSet) Option {
	return func(c *engineConfig) { c.rules = set }
}

// WithMatcherConfig overrides matcher limits, chiefly for tests.
func WithMatcherConfig(cfg matcher.Config) Option {
	return func(c *engineConfig) { c.matcher = cfg }
}

// WithScannerOptions passes options through to the tree scanner.
func WithScannerOptions(opts ...scanner.Option) Option {
	return func(c *engineConfig) { c.scanner = opts }
}

// New creates an Engine. Without WithRules the engine starts empty and
// substitution is a no-op until ReplaceRules is called.
func New(opts ...Option) *Engine {
	var cfg engineConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{
		bundle:  matcher.CompileWithConfig(cfg.rules.EnabledRules(), cfg.matcher),
		scanner: scanner.New(cfg.scanner...),
		cfg:     cfg.matcher,
	}
}

// ReplaceRules compiles a new rule set and swaps it in atomically.
func (e *Engine) ReplaceRules(set RuleSet) {
	bundle := matcher.CompileWithConfig(set.EnabledRules(), e.cfg)
	e.mu.Lock()
	e.bundle = bundle
	e.mu.Unlock()
}

// ReplaceRulesRaw ingests a raw decoded rule mapping, as loaded from
// untrusted storage, sanitizes it, and swaps in the result. Malformed input
// degrades to an empty bundle rather than an error.
func (e *Engine) ReplaceRulesRaw(raw any) {
	bundle := matcher.CompileWithConfig(rule.Sanitize(raw), e.cfg)
	e.mu.Lock()
	e.bundle = bundle
	e.mu.Unlock()
}

// RuleCount returns the number of rules compiled into the active bundle.
func (e *Engine) RuleCount() int {
	return e.snapshot().RuleCount()
}

// Substitute applies the active rules to one block of text. On timeout or
// any internal failure the input is returned unchanged.
func (e *Engine) Substitute(text string) (string, bool) {
	result, changed, err := e.snapshot().Substitute(text)
	if err != nil {
		return text, false
	}
	return result, changed
}

// RewriteDocument scans every eligible text leaf under root, overwriting
// matched leaves in place.
func (e *Engine) RewriteDocument(root document.Node) Stats {
	return e.scanner.ScanFull(root, e.snapshot())
}

// RewriteHTML parses an HTML document from r, rewrites its text leaves, and
// renders the result to w.
func (e *Engine) RewriteHTML(r io.Reader, w io.Writer) (Stats, error) {
	doc, err := document.ParseHTML(r)
	if err != nil {
		return Stats{}, err
	}
	stats := e.RewriteDocument(doc.Root())
	if err := doc.Render(w); err != nil {
		return stats, fmt.Errorf("rendering html: %w", err)
	}
	return stats, nil
}

// snapshot returns the active bundle. Scans and substitutions hold this one
// snapshot for their whole run.
func (e *Engine) snapshot() *matcher.Bundle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bundle
}
