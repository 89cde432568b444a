// Package xml provides the immutable XML tree used by go-resetfmt to read,
// rewrite and write Flat OPC packages.
//
// A Flat OPC package is the single-file form of a DOCX archive: one
// pkg:package element with one pkg:part child per archive entry. Word hands
// out this form for any range of a document, and accepts it back to replace
// that range.
//
// # Structure Organization
//
//   - types.go: Name, Attr, the Node union (Text, *Element) and Element accessors
//   - ooxml.go: namespace URIs and the WordprocessingML / package names we use
//   - parse.go: Parse, converting text into a tree (backed by antchfx/xmlquery)
//   - encode.go: Serialize, deterministic output in insertion order
//   - navigator.go: an antchfx/xpath navigator over the tree and Select/Evaluate
//
// # Key Concepts
//
// Node: either Text or *Element. Nothing else survives parsing: comments,
// processing instructions and the XML declaration are dropped.
//
// Name: a namespace URI plus a local name. Names compare with ==; prefixes
// are kept on elements and attributes only as serialization hints.
//
// Immutability: an Element never changes after construction. The With*
// methods and Replace return new elements that share untouched subtrees
// with the original.
//
// # Usage
//
//	root, err := xml.Parse(strings.NewReader(ooxml))
//	if err != nil {
//	    return err
//	}
//	parts := xml.Select(root, xml.MustCompile("pkg:part", xml.DefaultNamespaces))
//	out := xml.Serialize(root)
package xml
