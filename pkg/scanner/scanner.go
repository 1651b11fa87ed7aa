// Package scanner walks document trees and applies a compiled matcher
// bundle to every eligible text leaf.
package scanner

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/pagemorph/pagemorph/pkg/document"
	"github.com/pagemorph/pagemorph/pkg/logging"
	"github.com/pagemorph/pagemorph/pkg/matcher"
	"github.com/pagemorph/pagemorph/pkg/types"
)

// Stats summarizes one scan pass.
type Stats struct {
	Visited  int // eligible leaves that reached the matcher
	Replaced int // leaves whose text was overwritten
	Skipped  int // leaves filtered out or oversize
	TimedOut int // leaves abandoned on budget expiry
}

// Scanner applies a matcher bundle to the text leaves of a tree. A Scanner
// is stateless between passes and safe to reuse; it never creates or removes
// nodes, only overwrites leaf text.
type Scanner struct {
	logger   zerolog.Logger
	oversize int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithOversizeLimit overrides the leaf-size ceiling above which leaves are
// skipped without matching.
func WithOversizeLimit(limit int) Option {
	return func(s *Scanner) {
		if limit > 0 {
			s.oversize = limit
		}
	}
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		logger:   logging.GetLogger("scanner"),
		oversize: types.OversizeLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanFull scans every text leaf reachable from root. Full scans are
// reserved for initial load, rule-set changes, and re-enabling; incremental
// updates should use ScanSubtree.
func (s *Scanner) ScanFull(root document.Node, bundle *matcher.Bundle) Stats {
	var stats Stats
	if root == nil || bundle.Empty() {
		return stats
	}
	s.walk(root, bundle, &stats)
	s.logger.Debug().
		Int("visited", stats.Visited).
		Int("replaced", stats.Replaced).
		Int("skipped", stats.Skipped).
		Int("timedOut", stats.TimedOut).
		Msg("full scan complete")
	return stats
}

// ScanSubtree scans the text leaves of one inserted subtree. The node itself
// may be a leaf.
func (s *Scanner) ScanSubtree(node document.Node, bundle *matcher.Bundle) Stats {
	var stats Stats
	if node == nil || bundle.Empty() {
		return stats
	}
	s.walk(node, bundle, &stats)
	return stats
}

func (s *Scanner) walk(node document.Node, bundle *matcher.Bundle, stats *Stats) {
	if node.IsLeaf() {
		s.visitLeaf(node, bundle, stats)
		return
	}
	// Exclusion is judged per leaf against its immediate container, not per
	// subtree: a generic container nested inside an excluded one (foreign
	// content inside vector graphics, say) is still fair game.
	for _, child := range node.Children() {
		s.walk(child, bundle, stats)
	}
}

func (s *Scanner) visitLeaf(leaf document.Node, bundle *matcher.Bundle, stats *Stats) {
	if !s.eligible(leaf) {
		stats.Skipped++
		return
	}

	text := leaf.Text()
	if types.TextLen(text) > s.oversize {
		// A single huge match attempt cannot always be interrupted at a
		// cooperative checkpoint, so oversize leaves never reach the
		// matcher at all.
		stats.Skipped++
		s.logger.Debug().Int("length", types.TextLen(text)).Msg("skipping oversize leaf")
		return
	}

	stats.Visited++
	result, changed, err := bundle.Substitute(text)
	if err != nil {
		if errors.Is(err, types.ErrLeafBudget) {
			stats.TimedOut++
			s.logger.Warn().Int("length", len(text)).Msg("leaf substitution timed out, leaving unmodified")
			return
		}
		s.logger.Error().Err(err).Msg("leaf substitution failed, leaving unmodified")
		return
	}
	// Writing identical text back would still fire host change
	// notifications, so only changed leaves are touched.
	if changed {
		leaf.SetText(result)
		stats.Replaced++
	}
}

// eligible is the safety predicate applied before any leaf is matched.
func (s *Scanner) eligible(leaf document.Node) bool {
	if !leaf.Attached() {
		// Expected race with host mutation; not worth a log line.
		return false
	}
	parent := leaf.Parent()
	if parent == nil {
		return false
	}
	if parent.Category().Excluded() {
		return false
	}
	// Editable regions mark the region root, which may sit one level above
	// the leaf's direct container.
	if parent.Editable() {
		return false
	}
	if grandparent := parent.Parent(); grandparent != nil && grandparent.Editable() {
		return false
	}
	return true
}
