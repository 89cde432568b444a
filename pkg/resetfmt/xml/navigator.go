package xml

import (
	"fmt"

	"github.com/antchfx/xpath"
)

// Compile compiles an XPath expression. Prefixes in expr resolve through
// namespaces, so matching is by namespace URI rather than by the prefixes
// used in the document.
func Compile(expr string, namespaces map[string]string) (*xpath.Expr, error) {
	e, err := xpath.CompileWithNS(expr, namespaces)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	return e, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string, namespaces map[string]string) *xpath.Expr {
	e, err := Compile(expr, namespaces)
	if err != nil {
		panic(err)
	}
	return e
}

// Select evaluates expr with top as the context node and returns the
// matching elements in document order. An absolute path starts above top,
// so "/pkg:package" matches top itself when it is a pkg:package element.
func Select(top *Element, expr *xpath.Expr) []*Element {
	var out []*Element
	it := expr.Select(newNavigator(top))
	for it.MoveNext() {
		nav, ok := it.Current().(*navigator)
		if !ok || nav.attr != -1 {
			continue
		}
		if el, ok := nav.curr.(*Element); ok && el != nil {
			out = append(out, el)
		}
	}
	return out
}

// Evaluate evaluates expr with top as the context node. The result is a
// float64, string, bool or *xpath.NodeIterator as documented by xpath.
func Evaluate(top *Element, expr *xpath.Expr) interface{} {
	return expr.Evaluate(newNavigator(top))
}

type frame struct {
	parent *Element
	index  int
}

// navigator implements xpath.NodeNavigator. The tree has no parent links,
// so the path from top to the current node is kept as a stack of frames.
// A nil curr is the document root above top.
type navigator struct {
	top   *Element
	curr  Node
	stack []frame
	attr  int
}

var _ xpath.NodeNavigator = (*navigator)(nil)

func newNavigator(top *Element) *navigator {
	return &navigator{top: top, curr: top, attr: -1}
}

func (n *navigator) element() (*Element, bool) {
	el, ok := n.curr.(*Element)
	return el, ok && el != nil
}

func (n *navigator) NodeType() xpath.NodeType {
	switch c := n.curr.(type) {
	case nil:
		return xpath.RootNode
	case Text:
		return xpath.TextNode
	case *Element:
		if c == nil {
			return xpath.RootNode
		}
		if n.attr != -1 {
			return xpath.AttributeNode
		}
		return xpath.ElementNode
	}
	panic(fmt.Sprintf("unknown XML node type: %T", n.curr))
}

func (n *navigator) LocalName() string {
	el, ok := n.element()
	if !ok {
		return ""
	}
	if n.attr != -1 {
		return el.attrs[n.attr].Name.Local
	}
	return el.name.Local
}

func (n *navigator) Prefix() string {
	el, ok := n.element()
	if !ok {
		return ""
	}
	if n.attr != -1 {
		return el.attrs[n.attr].Prefix
	}
	return el.prefix
}

// NamespaceURL makes xpath compare names by namespace URI.
func (n *navigator) NamespaceURL() string {
	el, ok := n.element()
	if !ok {
		return ""
	}
	if n.attr != -1 {
		return el.attrs[n.attr].Name.Space
	}
	return el.name.Space
}

func (n *navigator) Value() string {
	switch c := n.curr.(type) {
	case nil:
		return n.top.InnerText()
	case Text:
		return string(c)
	case *Element:
		if n.attr != -1 {
			return c.attrs[n.attr].Value
		}
		return c.InnerText()
	}
	return ""
}

func (n *navigator) Copy() xpath.NodeNavigator {
	c := *n
	c.stack = append([]frame(nil), n.stack...)
	return &c
}

func (n *navigator) MoveToRoot() {
	n.curr = nil
	n.stack = nil
	n.attr = -1
}

func (n *navigator) MoveToParent() bool {
	if n.attr != -1 {
		n.attr = -1
		return true
	}
	if n.curr == nil {
		return false
	}
	if len(n.stack) == 0 {
		n.curr = nil
		return true
	}
	top := n.stack[len(n.stack)-1]
	n.stack = n.stack[:len(n.stack)-1]
	n.curr = top.parent
	return true
}

func (n *navigator) MoveToNextAttribute() bool {
	el, ok := n.element()
	if !ok || n.attr >= len(el.attrs)-1 {
		return false
	}
	n.attr++
	return true
}

func (n *navigator) MoveToChild() bool {
	if n.attr != -1 {
		return false
	}
	if n.curr == nil {
		n.curr = n.top
		return true
	}
	el, ok := n.element()
	if !ok || len(el.children) == 0 {
		return false
	}
	n.stack = append(n.stack, frame{parent: el, index: 0})
	n.curr = el.children[0]
	return true
}

func (n *navigator) MoveToFirst() bool {
	if n.attr != -1 || len(n.stack) == 0 {
		return false
	}
	f := &n.stack[len(n.stack)-1]
	if f.index == 0 {
		return false
	}
	f.index = 0
	n.curr = f.parent.children[0]
	return true
}

func (n *navigator) MoveToNext() bool {
	if n.attr != -1 || len(n.stack) == 0 {
		return false
	}
	f := &n.stack[len(n.stack)-1]
	if f.index+1 >= len(f.parent.children) {
		return false
	}
	f.index++
	n.curr = f.parent.children[f.index]
	return true
}

func (n *navigator) MoveToPrevious() bool {
	if n.attr != -1 || len(n.stack) == 0 {
		return false
	}
	f := &n.stack[len(n.stack)-1]
	if f.index == 0 {
		return false
	}
	f.index--
	n.curr = f.parent.children[f.index]
	return true
}

func (n *navigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*navigator)
	if !ok || o.top != n.top {
		return false
	}
	n.curr = o.curr
	n.attr = o.attr
	n.stack = append(n.stack[:0], o.stack...)
	return true
}

func (n *navigator) String() string {
	return n.Value()
}
