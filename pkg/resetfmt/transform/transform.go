// Package transform removes direct paragraph and run formatting from
// WordprocessingML trees.
//
// The functions here are pure: they never modify their input and build a
// new tree that shares unchanged subtrees with the old one.
package transform

import (
	"github.com/benjaminschreck/go-resetfmt/pkg/resetfmt/xml"
)

// kind classifies the elements the transformation treats specially.
type kind int

const (
	kindGeneric kind = iota
	kindParagraphProperties
	kindRunProperties
	kindParagraphStyle
	kindRunStyle
	kindNumbering
)

var kinds = map[xml.Name]kind{
	xml.WPPr:    kindParagraphProperties,
	xml.WRPr:    kindRunProperties,
	xml.WPStyle: kindParagraphStyle,
	xml.WRStyle: kindRunStyle,
	xml.WNumPr:  kindNumbering,
}

func kindOf(e *xml.Element) kind {
	return kinds[e.Name()]
}

// RemoveDirectFormatting returns a copy of n without direct paragraph and
// run formatting. Inside w:pPr only w:pStyle, w:numPr and non-empty nested
// property groups survive; inside w:rPr only w:rStyle and non-empty nested
// w:rPr groups survive. A property group left
// without children is removed from its parent.
//
// The result is nil only when n is itself a property group that collapses.
func RemoveDirectFormatting(n xml.Node) xml.Node {
	return removeDirectFormatting(n)
}

// Document applies RemoveDirectFormatting to a w:document element.
func Document(doc *xml.Element) *xml.Element {
	out, _ := removeDirectFormatting(doc).(*xml.Element)
	return out
}

func removeDirectFormatting(n xml.Node) xml.Node {
	e, ok := n.(*xml.Element)
	if !ok {
		return n
	}

	switch kindOf(e) {
	case kindParagraphProperties:
		return present(paragraphProperties(e))
	case kindRunProperties:
		return present(runProperties(e))
	}

	children := make([]xml.Node, 0, e.NumChildren())
	for i := 0; i < e.NumChildren(); i++ {
		if c := removeDirectFormatting(e.Child(i)); c != nil {
			children = append(children, c)
		}
	}
	return e.WithChildren(children...)
}

// present keeps a nil *xml.Element from becoming a non-nil xml.Node.
func present(e *xml.Element) xml.Node {
	if e == nil {
		return nil
	}
	return e
}

func paragraphProperties(e *xml.Element) *xml.Element {
	var retained []xml.Node
	for _, c := range e.Elements() {
		var kept *xml.Element
		switch kindOf(c) {
		case kindParagraphProperties:
			kept = paragraphProperties(c)
		case kindRunProperties:
			kept = runProperties(c)
		case kindParagraphStyle, kindNumbering:
			kept = c
		}
		if kept != nil {
			retained = append(retained, kept)
		}
	}
	return rebuild(e, retained)
}

func runProperties(e *xml.Element) *xml.Element {
	var retained []xml.Node
	for _, c := range e.Elements() {
		var kept *xml.Element
		switch kindOf(c) {
		case kindRunProperties:
			kept = runProperties(c)
		case kindRunStyle:
			kept = c
		}
		if kept != nil {
			retained = append(retained, kept)
		}
	}
	return rebuild(e, retained)
}

// rebuild creates a fresh property group. Attributes of the original group
// are not carried over.
func rebuild(group *xml.Element, retained []xml.Node) *xml.Element {
	if len(retained) == 0 {
		return nil
	}
	return xml.NewElement(group.Name(), nil, retained...).WithPrefix(group.Prefix())
}
