package xml

import (
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Parse reads an XML document and returns its root element.
func Parse(r io.Reader) (*Element, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return convert(n, nil), nil
		}
	}
	return nil, fmt.Errorf("failed to parse XML: no root element")
}

// ParseString is Parse over a string.
func ParseString(s string) (*Element, error) {
	return Parse(strings.NewReader(s))
}

// scope maps prefixes to namespace URIs for the elements being converted.
// xmlquery only recovers an element's prefix when it can see it in its
// read-ahead cache, so prefixes are re-derived from the declarations.
type scope struct {
	parent   *scope
	bindings map[string]string
}

func (s *scope) prefixFor(uri string) (string, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		best, found := "", false
		for p, u := range sc.bindings {
			if u != uri || s.lookup(p) != uri {
				continue
			}
			if !found || p < best {
				best, found = p, true
			}
		}
		if found {
			return best, true
		}
	}
	return "", false
}

func (s *scope) lookup(prefix string) string {
	for sc := s; sc != nil; sc = sc.parent {
		if u, ok := sc.bindings[prefix]; ok {
			return u
		}
	}
	return ""
}

func convert(n *xmlquery.Node, parent *scope) *Element {
	sc := &scope{parent: parent}
	attrs := make([]Attr, 0, len(n.Attr))
	for _, a := range n.Attr {
		var attr Attr
		switch {
		case a.Name.Space == "xmlns":
			attr = NamespaceDecl(a.Name.Local, a.Value)
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			attr = NamespaceDecl("", a.Value)
		default:
			attr = Attr{
				Name:   Name{Space: a.NamespaceURI, Local: a.Name.Local},
				Prefix: a.Name.Space,
				Value:  a.Value,
			}
			if attr.Name.Space == "" {
				attr.Prefix = ""
			}
		}
		if attr.Name.Space == NamespaceXMLNS || (attr.Name.Space == "" && attr.Name.Local == "xmlns") {
			if sc.bindings == nil {
				sc.bindings = make(map[string]string)
			}
			prefix := ""
			if attr.Name.Space == NamespaceXMLNS {
				prefix = attr.Name.Local
			}
			sc.bindings[prefix] = attr.Value
		}
		attrs = append(attrs, attr)
	}

	prefix := n.Prefix
	if n.NamespaceURI != "" && (prefix == "" || sc.lookup(prefix) != n.NamespaceURI) {
		if p, ok := sc.prefixFor(n.NamespaceURI); ok {
			prefix = p
		}
	}

	var children []Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode:
			children = append(children, convert(c, sc))
		case xmlquery.TextNode, xmlquery.CharDataNode:
			children = append(children, Text(c.Data))
		}
	}

	e := NewElement(Name{Space: n.NamespaceURI, Local: n.Data}, attrs, children...)
	e.prefix = prefix
	return e
}
