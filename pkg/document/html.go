package document

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLDocument exposes a parsed HTML tree as a scannable document. Text
// mutations made through the Node interface are reflected when the document
// is rendered back out.
type HTMLDocument struct {
	root *html.Node
}

// ParseHTML parses an HTML document from r.
func ParseHTML(r io.Reader) (*HTMLDocument, error) {
	n, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return &HTMLDocument{root: n}, nil
}

// Root returns the document root as a scannable node.
func (d *HTMLDocument) Root() Node {
	return &htmlNode{n: d.root, doc: d}
}

// Render serializes the (possibly mutated) document to w.
func (d *HTMLDocument) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// htmlNode adapts one *html.Node to the Node interface.
type htmlNode struct {
	n   *html.Node
	doc *HTMLDocument
}

func (h *htmlNode) IsLeaf() bool {
	return h.n.Type == html.TextNode
}

func (h *htmlNode) Text() string {
	if h.n.Type != html.TextNode {
		return ""
	}
	return h.n.Data
}

func (h *htmlNode) SetText(s string) {
	if h.n.Type == html.TextNode {
		h.n.Data = s
	}
}

func (h *htmlNode) Parent() Node {
	if h.n.Parent == nil {
		return nil
	}
	return &htmlNode{n: h.n.Parent, doc: h.doc}
}

func (h *htmlNode) Children() []Node {
	var out []Node
	for c := h.n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, &htmlNode{n: c, doc: h.doc})
	}
	return out
}

func (h *htmlNode) Category() Category {
	if h.n.Type != html.ElementNode {
		return CategoryGeneric
	}
	if h.n.Namespace == "svg" || h.n.Namespace == "math" {
		return CategoryVector
	}
	return CategoryForTag(h.n.Data)
}

func (h *htmlNode) Editable() bool {
	if h.n.Type != html.ElementNode {
		return false
	}
	for _, attr := range h.n.Attr {
		if strings.EqualFold(attr.Key, "contenteditable") {
			return !strings.EqualFold(attr.Val, "false")
		}
	}
	return false
}

func (h *htmlNode) Attached() bool {
	for n := h.n; n != nil; n = n.Parent {
		if n == h.doc.root {
			return true
		}
	}
	return false
}
