package xml

import "strings"

// Name is a namespace-qualified XML name. Space holds the namespace URI,
// not a prefix.
type Name struct {
	Space string
	Local string
}

// String returns the name in {uri}local notation.
func (n Name) String() string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

// Attr is an attribute. Prefix is a serialization hint.
type Attr struct {
	Name   Name
	Prefix string
	Value  string
}

// Node is a member of the closed union {Text, *Element}.
type Node interface {
	isNode()
}

// Text is character data.
type Text string

func (Text) isNode() {}

// Element is an immutable XML element.
type Element struct {
	name     Name
	prefix   string
	attrs    []Attr
	children []Node
}

func (*Element) isNode() {}

// NewElement creates an element. The attrs and children slices are copied;
// nil children are skipped.
func NewElement(name Name, attrs []Attr, children ...Node) *Element {
	e := &Element{name: name}
	if len(attrs) > 0 {
		e.attrs = append([]Attr(nil), attrs...)
	}
	e.children = compact(children)
	return e
}

func compact(nodes []Node) []Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if el, ok := n.(*Element); ok && el == nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Name returns the element name.
func (e *Element) Name() Name { return e.name }

// Prefix returns the prefix the element was read with, if any.
func (e *Element) Prefix() string { return e.prefix }

// Is reports whether the element has the given name.
func (e *Element) Is(name Name) bool { return e != nil && e.name == name }

// Attrs returns a copy of the attributes in document order.
func (e *Element) Attrs() []Attr {
	return append([]Attr(nil), e.attrs...)
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name Name) (string, bool) {
	for _, a := range e.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Children returns a copy of the child nodes in document order.
func (e *Element) Children() []Node {
	return append([]Node(nil), e.children...)
}

// NumChildren returns the number of child nodes.
func (e *Element) NumChildren() int { return len(e.children) }

// Child returns the i-th child node.
func (e *Element) Child(i int) Node { return e.children[i] }

// Elements returns the child elements, skipping text.
func (e *Element) Elements() []*Element {
	var out []*Element
	for _, c := range e.children {
		if el, ok := c.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// ElementsNamed returns the child elements with the given name.
func (e *Element) ElementsNamed(name Name) []*Element {
	var out []*Element
	for _, c := range e.children {
		if el, ok := c.(*Element); ok && el.name == name {
			out = append(out, el)
		}
	}
	return out
}

// FirstNamed returns the first child element with the given name, or nil.
func (e *Element) FirstNamed(name Name) *Element {
	for _, c := range e.children {
		if el, ok := c.(*Element); ok && el.name == name {
			return el
		}
	}
	return nil
}

// InnerText concatenates all descendant text.
func (e *Element) InnerText() string {
	var sb strings.Builder
	e.writeText(&sb)
	return sb.String()
}

func (e *Element) writeText(sb *strings.Builder) {
	for _, c := range e.children {
		switch n := c.(type) {
		case Text:
			sb.WriteString(string(n))
		case *Element:
			n.writeText(sb)
		}
	}
}

// WithPrefix returns a copy of e carrying the given prefix hint.
func (e *Element) WithPrefix(prefix string) *Element {
	c := *e
	c.prefix = prefix
	return &c
}

// WithAttrs returns a copy of e with its attributes replaced.
func (e *Element) WithAttrs(attrs []Attr) *Element {
	c := *e
	c.attrs = append([]Attr(nil), attrs...)
	if len(c.attrs) == 0 {
		c.attrs = nil
	}
	return &c
}

// WithChildren returns a copy of e with its children replaced. Name,
// prefix and attributes are kept.
func (e *Element) WithChildren(children ...Node) *Element {
	c := *e
	c.children = compact(children)
	return &c
}

// Replace returns a copy of e in which the element old (matched by identity)
// has been replaced by repl. A nil repl removes old. The second result is
// false when old does not occur in e's subtree; e is then returned as is.
func (e *Element) Replace(old *Element, repl Node) (*Element, bool) {
	if e == old {
		if el, ok := repl.(*Element); ok {
			return el, true
		}
		return nil, true
	}
	for i, c := range e.children {
		el, ok := c.(*Element)
		if !ok {
			continue
		}
		if el == old {
			children := append([]Node(nil), e.children[:i]...)
			if repl != nil {
				children = append(children, repl)
			}
			children = append(children, e.children[i+1:]...)
			return e.WithChildren(children...), true
		}
		if updated, found := el.Replace(old, repl); found {
			children := append([]Node(nil), e.children...)
			children[i] = updated
			return e.WithChildren(children...), true
		}
	}
	return e, false
}

// Equal reports whether a and b are structurally equal. Prefixes are
// ignored; names, attribute order and values, and children must match.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case Text:
		y, ok := b.(Text)
		return ok && x == y
	case *Element:
		y, ok := b.(*Element)
		if !ok || x.name != y.name || len(x.attrs) != len(y.attrs) || len(x.children) != len(y.children) {
			return false
		}
		for i := range x.attrs {
			if x.attrs[i].Name != y.attrs[i].Name || x.attrs[i].Value != y.attrs[i].Value {
				return false
			}
		}
		for i := range x.children {
			if !Equal(x.children[i], y.children[i]) {
				return false
			}
		}
		return true
	}
	return a == nil && b == nil
}
