package resetfmt

import (
	"context"
	"errors"

	"github.com/benjaminschreck/go-resetfmt/pkg/resetfmt/transform"
	"github.com/benjaminschreck/go-resetfmt/pkg/resetfmt/xml"
)

// Selection is a host range together with its Flat OPC package.
type Selection struct {
	// Range covers whole paragraphs, marks included.
	Range Range
	// Package is the pkg:package root of the range's Flat OPC package.
	Package *xml.Element
	// Document is the w:document element of the main document part.
	Document *xml.Element
	// Valid reports whether the range can be replaced with the package,
	// transformed or not, without damaging the document.
	Valid bool
}

// Transformation rewrites a w:document element. It must not return nil.
type Transformation func(document *xml.Element) *xml.Element

// RemoveDirectFormatting is the Transformation that resets direct paragraph
// and run formatting.
var RemoveDirectFormatting Transformation = transform.Document

// ExtendSelection extends sel to cover every paragraph it touches. The
// paragraph mark is included because it carries the paragraph's w:pPr.
func ExtendSelection(sel Range) Range {
	paragraphs := sel.Paragraphs()
	start := paragraphs.First().Range(RangeWhole)
	end := paragraphs.Last().Range(RangeWhole)
	return sel.ExpandTo(start).ExpandTo(end)
}

// The body of a fetched range always ends with an empty w:p and a w:sectPr,
// both marked w:rsidR="00000000". The element before them is the last one
// the user selected.
var lastSelectedExpr = xml.MustCompile("w:body/*[last()-2]", xml.DefaultNamespaces)

// SelectionIsValid reports whether a range whose main document is document
// can be replaced in place. Replacing a range that ends in a table corrupts
// the table boundary, so such ranges are invalid. A body with fewer than
// three elements, or no body at all, is also invalid.
func SelectionIsValid(document *xml.Element) bool {
	if document == nil {
		return false
	}
	matches := xml.Select(document, lastSelectedExpr)
	if len(matches) != 1 {
		return false
	}
	return !matches[0].Is(xml.WTbl)
}

// GetSelection extends the host's selection to whole paragraphs, fetches it
// as a Flat OPC package and validates it.
func GetSelection(ctx context.Context, host Host) (*Selection, error) {
	r := ExtendSelection(host.Selection())
	pending := r.OOXML()
	if err := host.Sync(ctx); err != nil {
		return nil, NewHostError("fetch", err)
	}
	text, err := pending.Value()
	if err != nil {
		return nil, NewHostError("fetch", err)
	}

	pkg, err := xml.ParseString(text)
	if err != nil {
		return nil, NewDocumentError("parse", "", err)
	}
	document, err := MainDocumentRoot(pkg)
	if err != nil {
		return nil, err
	}

	return &Selection{
		Range:    r,
		Package:  pkg,
		Document: document,
		Valid:    SelectionIsValid(document),
	}, nil
}

// Apply removes direct formatting from sel and writes it back to the host.
// It returns false without touching the host when sel is not valid.
func Apply(ctx context.Context, host Host, sel *Selection) (bool, error) {
	return ApplyTransformation(ctx, host, sel, RemoveDirectFormatting)
}

// ApplyTransformation runs fn over the main document of sel, replaces the
// range's content with the resulting package and syncs the host.
func ApplyTransformation(ctx context.Context, host Host, sel *Selection, fn Transformation) (bool, error) {
	if sel == nil || !sel.Valid {
		return false, nil
	}

	transformed := fn(sel.Document)
	if transformed == nil {
		return false, NewDocumentError("transform", "", errors.New("transformation removed the document root"))
	}
	pkg, ok := sel.Package.Replace(sel.Document, transformed)
	if !ok {
		return false, NewDocumentError("transform", "", errors.New("document root is not part of the package"))
	}

	sel.Range.InsertOOXML(xml.Serialize(pkg), InsertReplace)
	if err := host.Sync(ctx); err != nil {
		return false, NewHostError("replace", err)
	}
	return true, nil
}

// TransformSelection gets the host's selection and, when it is valid,
// replaces it with the result of fn. The boolean result reports whether the
// document was changed.
func TransformSelection(ctx context.Context, host Host, fn Transformation) (bool, error) {
	sel, err := GetSelection(ctx, host)
	if err != nil {
		return false, err
	}
	return ApplyTransformation(ctx, host, sel, fn)
}

// ResetFormatting removes direct paragraph and run formatting from the
// paragraphs touched by the host's selection.
func ResetFormatting(ctx context.Context, host Host) (bool, error) {
	return TransformSelection(ctx, host, RemoveDirectFormatting)
}
