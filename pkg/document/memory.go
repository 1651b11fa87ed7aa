package document

// Element is a container node of the in-memory tree.
type Element struct {
	tag      string
	category Category
	editable bool
	root     bool
	parent   *Element
	children []Node
}

// Text is a text-bearing leaf of the in-memory tree.
type Text struct {
	text   string
	parent *Element
}

// NewRoot creates the root container of an in-memory tree.
func NewRoot() *Element {
	return &Element{tag: "#root", root: true}
}

// NewElement creates a detached container. Its category is derived from the
// tag name the same way the HTML adapter derives it.
func NewElement(tag string) *Element {
	return &Element{tag: tag, category: CategoryForTag(tag)}
}

// NewText creates a detached text leaf.
func NewText(s string) *Text {
	return &Text{text: s}
}

// Tag returns the element's tag name.
func (e *Element) Tag() string { return e.tag }

// SetEditable marks the container as live-editable.
func (e *Element) SetEditable(editable bool) { e.editable = editable }

// Append attaches children to this container, reparenting them.
func (e *Element) Append(children ...Node) {
	for _, c := range children {
		switch n := c.(type) {
		case *Element:
			n.parent = e
		case *Text:
			n.parent = e
		}
		e.children = append(e.children, c)
	}
}

// Remove detaches a direct child. Detached subtrees report Attached false.
func (e *Element) Remove(child Node) {
	for i, c := range e.children {
		if c == child {
			e.children = append(e.children[:i], e.children[i+1:]...)
			switch n := child.(type) {
			case *Element:
				n.parent = nil
			case *Text:
				n.parent = nil
			}
			return
		}
	}
}

func (e *Element) IsLeaf() bool       { return false }
func (e *Element) Text() string       { return "" }
func (e *Element) SetText(string)     {}
func (e *Element) Category() Category { return e.category }
func (e *Element) Editable() bool     { return e.editable }

func (e *Element) Parent() Node {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

func (e *Element) Children() []Node { return e.children }

func (e *Element) Attached() bool {
	for n := e; n != nil; n = n.parent {
		if n.root {
			return true
		}
	}
	return false
}

func (t *Text) IsLeaf() bool       { return true }
func (t *Text) Text() string       { return t.text }
func (t *Text) SetText(s string)   { t.text = s }
func (t *Text) Category() Category { return CategoryGeneric }
func (t *Text) Editable() bool     { return false }
func (t *Text) Children() []Node   { return nil }

func (t *Text) Parent() Node {
	if t.parent == nil {
		return nil
	}
	return t.parent
}

func (t *Text) Attached() bool {
	return t.parent != nil && t.parent.Attached()
}
