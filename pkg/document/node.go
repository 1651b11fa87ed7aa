// Package document models the host document tree the engine scans.
//
// The engine never creates or destroys nodes; it only reads tree structure
// and overwrites the text of leaves it has matched. Hosts expose their tree
// through the Node interface. Two implementations ship with the package: an
// in-memory tree for tests and embedding, and an adapter over parsed HTML.
package document

import "strings"

// Category classifies a container node for the scanner's safety predicate.
type Category int

const (
	// CategoryGeneric containers are eligible for scanning.
	CategoryGeneric Category = iota
	// CategoryScript containers hold executable code.
	CategoryScript
	// CategoryStyle containers hold stylesheet text.
	CategoryStyle
	// CategoryRawMarkup containers hold inert or template markup.
	CategoryRawMarkup
	// CategoryInput containers are form controls whose text the user edits.
	CategoryInput
	// CategoryVector containers hold vector-graphics content.
	CategoryVector
)

// String returns the category name for logging.
func (c Category) String() string {
	switch c {
	case CategoryGeneric:
		return "generic"
	case CategoryScript:
		return "script"
	case CategoryStyle:
		return "style"
	case CategoryRawMarkup:
		return "raw-markup"
	case CategoryInput:
		return "input"
	case CategoryVector:
		return "vector"
	default:
		return "unknown"
	}
}

// Excluded reports whether leaves directly inside this category of container
// must never be substituted.
func (c Category) Excluded() bool {
	return c != CategoryGeneric
}

// categoryByTag maps lowercase tag names to non-generic categories.
var categoryByTag = map[string]Category{
	"script":   CategoryScript,
	"style":    CategoryStyle,
	"noscript": CategoryRawMarkup,
	"template": CategoryRawMarkup,
	"xmp":      CategoryRawMarkup,
	"textarea": CategoryInput,
	"input":    CategoryInput,
	"select":   CategoryInput,
	"option":   CategoryInput,
	"svg":      CategoryVector,
	"math":     CategoryVector,
}

// CategoryForTag returns the scanner category for a tag name.
func CategoryForTag(tag string) Category {
	if c, ok := categoryByTag[strings.ToLower(tag)]; ok {
		return c
	}
	return CategoryGeneric
}

// Node is one node of a host document tree.
//
// Text leaves report IsLeaf true and carry mutable text; containers report
// IsLeaf false and carry a category, an editable flag, and children.
type Node interface {
	// IsLeaf reports whether this node is a text-bearing leaf.
	IsLeaf() bool

	// Text returns the leaf's text. Empty for containers.
	Text() string

	// SetText overwrites the leaf's text. No-op for containers.
	SetText(s string)

	// Parent returns the immediate container, or nil at the root.
	Parent() Node

	// Children returns the node's children in document order.
	Children() []Node

	// Category classifies a container. Leaves report CategoryGeneric.
	Category() Category

	// Editable reports whether a container is in a live-editable state.
	Editable() bool

	// Attached reports whether the node is still reachable from its
	// document root. Hosts mutate concurrently with scanning from the
	// engine's perspective, so a visited leaf may already be detached.
	Attached() bool
}
