package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pagemorph/pagemorph/pkg/document"
	"github.com/pagemorph/pagemorph/pkg/matcher"
	"github.com/pagemorph/pagemorph/pkg/types"
)

func dogBundle() *matcher.Bundle {
	return matcher.Compile([]*types.Rule{
		{Original: "dog", Replacement: "cat", Enabled: true},
	})
}

func TestScanFull_ReplacesEligibleLeaves(t *testing.T) {
	root := document.NewRoot()
	p := document.NewElement("p")
	leaf := document.NewText("I love my dog")
	p.Append(leaf)
	root.Append(p)

	stats := New().ScanFull(root, dogBundle())

	assert.Equal(t, "I love my cat", leaf.Text())
	assert.Equal(t, 1, stats.Visited)
	assert.Equal(t, 1, stats.Replaced)
}

func TestScanFull_ExcludedContainers(t *testing.T) {
	tests := []struct {
		name string
		tag  string
	}{
		{name: "script", tag: "script"},
		{name: "style", tag: "style"},
		{name: "noscript", tag: "noscript"},
		{name: "textarea", tag: "textarea"},
		{name: "svg", tag: "svg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := document.NewRoot()
			container := document.NewElement(tt.tag)
			leaf := document.NewText("my dog here")
			container.Append(leaf)
			root.Append(container)

			stats := New().ScanFull(root, dogBundle())

			assert.Equal(t, "my dog here", leaf.Text())
			assert.Equal(t, 1, stats.Skipped)
			assert.Equal(t, 0, stats.Replaced)
		})
	}
}

func TestScanFull_EditableContainersSkipped(t *testing.T) {
	t.Run("parent editable", func(t *testing.T) {
		root := document.NewRoot()
		div := document.NewElement("div")
		div.SetEditable(true)
		leaf := document.NewText("my dog")
		div.Append(leaf)
		root.Append(div)

		New().ScanFull(root, dogBundle())
		assert.Equal(t, "my dog", leaf.Text())
	})

	t.Run("grandparent editable", func(t *testing.T) {
		root := document.NewRoot()
		outer := document.NewElement("div")
		outer.SetEditable(true)
		inner := document.NewElement("span")
		leaf := document.NewText("my dog")
		inner.Append(leaf)
		outer.Append(inner)
		root.Append(outer)

		New().ScanFull(root, dogBundle())
		assert.Equal(t, "my dog", leaf.Text())
	})
}

func TestScanFull_DetachedLeafSkipped(t *testing.T) {
	p := document.NewElement("p")
	leaf := document.NewText("my dog")
	p.Append(leaf)
	// p never appended to root: everything under it is detached.

	stats := New().ScanSubtree(p, dogBundle())
	assert.Equal(t, "my dog", leaf.Text())
	assert.Equal(t, 1, stats.Skipped)
}

func TestScanFull_OversizeLeafSkipped(t *testing.T) {
	root := document.NewRoot()
	p := document.NewElement("p")
	huge := "dog " + strings.Repeat("x", types.OversizeLimit)
	leaf := document.NewText(huge)
	p.Append(leaf)
	root.Append(p)

	stats := New().ScanFull(root, dogBundle())

	assert.Equal(t, huge, leaf.Text(), "oversize leaf must come back byte-for-byte unchanged")
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Visited)
}

func TestScanFull_OversizeLimitOverride(t *testing.T) {
	root := document.NewRoot()
	p := document.NewElement("p")
	leaf := document.NewText("dog dog dog")
	p.Append(leaf)
	root.Append(p)

	s := New(WithOversizeLimit(5))
	stats := s.ScanFull(root, dogBundle())

	assert.Equal(t, "dog dog dog", leaf.Text())
	assert.Equal(t, 1, stats.Skipped)
}

func TestScanFull_NestedGenericInsideExcluded(t *testing.T) {
	// Exclusion applies to the leaf's immediate container only; a generic
	// container nested inside an excluded one is still scanned.
	root := document.NewRoot()
	svg := document.NewElement("svg")
	inner := document.NewElement("div")
	leaf := document.NewText("my dog")
	inner.Append(leaf)
	svg.Append(inner)
	root.Append(svg)

	New().ScanFull(root, dogBundle())
	assert.Equal(t, "my cat", leaf.Text())
}

func TestScanFull_EmptyBundleNoOp(t *testing.T) {
	root := document.NewRoot()
	p := document.NewElement("p")
	leaf := document.NewText("my dog")
	p.Append(leaf)
	root.Append(p)

	stats := New().ScanFull(root, matcher.Compile(nil))
	assert.Equal(t, "my dog", leaf.Text())
	assert.Equal(t, Stats{}, stats)
}

func TestScanSubtree_LeafNode(t *testing.T) {
	root := document.NewRoot()
	p := document.NewElement("p")
	leaf := document.NewText("a dog appeared")
	p.Append(leaf)
	root.Append(p)

	stats := New().ScanSubtree(leaf, dogBundle())
	assert.Equal(t, "a cat appeared", leaf.Text())
	assert.Equal(t, 1, stats.Replaced)
}

func TestScanFull_MultipleLeaves(t *testing.T) {
	root := document.NewRoot()
	for _, text := range []string{"dog one", "no match", "dog two"} {
		p := document.NewElement("p")
		p.Append(document.NewText(text))
		root.Append(p)
	}

	stats := New().ScanFull(root, dogBundle())
	assert.Equal(t, 3, stats.Visited)
	assert.Equal(t, 2, stats.Replaced)
}
