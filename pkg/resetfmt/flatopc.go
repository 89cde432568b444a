package resetfmt

import (
	"github.com/antchfx/xpath"

	"github.com/benjaminschreck/go-resetfmt/pkg/resetfmt/xml"
)

// Content types of Flat OPC parts.
const (
	MainContentType          = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	StylesContentType        = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
	NumberingContentType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"
	RelationshipsContentType = "application/vnd.openxmlformats-package.relationships+xml"
)

var (
	mainPartExpr     = xml.MustCompile("*[@pkg:contentType='"+MainContentType+"']", xml.DefaultNamespaces)
	documentRootExpr = xml.MustCompile("pkg:xmlData/w:document", xml.DefaultNamespaces)
)

// MainDocumentRoot returns the w:document element of the main document part
// of a Flat OPC package. Exactly one child of pkg must carry the main
// content type and that part must hold exactly one w:document; anything
// else is a *StructuralError.
func MainDocumentRoot(pkg *xml.Element) (*xml.Element, error) {
	part, err := single(pkg, mainPartExpr, ReasonNoMainPart, ReasonAmbiguousMainPart)
	if err != nil {
		return nil, err
	}
	return single(part, documentRootExpr, ReasonNoDocumentRoot, ReasonAmbiguousDocumentRoot)
}

func single(context *xml.Element, expr *xpath.Expr, none, ambiguous string) (*xml.Element, error) {
	if context == nil {
		return nil, NewStructuralError(none, 0)
	}
	matches := xml.Select(context, expr)
	switch len(matches) {
	case 0:
		return nil, NewStructuralError(none, 0)
	case 1:
		return matches[0], nil
	default:
		return nil, NewStructuralError(ambiguous, len(matches))
	}
}
