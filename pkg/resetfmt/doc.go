// Package resetfmt removes direct paragraph and run formatting from a
// selected region of a Word document, keeping style and numbering
// references.
//
// A reset works on the Flat OPC package of the selection, the single-file
// XML form in which Word hands out and accepts back any range:
//
//  1. the selection is extended to whole paragraphs, marks included
//  2. the range is fetched as a package and its w:document located
//  3. the selection is checked: a range whose last block is a table cannot
//     be replaced in place and is left alone
//  4. w:pPr and w:rPr groups are rewritten to keep only w:pStyle, w:numPr
//     and w:rStyle
//  5. the package is written back over the range
//
// # Quick Start
//
//	engine := resetfmt.New()
//	outcome, err := engine.ResetFile(ctx, "in.docx", "out.docx", resetfmt.Span{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !outcome.Changed {
//	    fmt.Println("nothing was changed")
//	}
//
// # Hosts
//
// The steps above talk to a Host, the live document. DocxHost edits a .docx
// held in memory; FragmentHost serves a package that a remote editor has
// already fetched. Any other editor can take part by implementing Host.
//
// Host operations are queued and run by Sync, so a fetch is never read, and
// a replacement never issued, before the host has synced.
//
// # Errors
//
//   - *StructuralError: the package has no main document part, or several
//   - *DocumentError: a package or part could not be read or parsed
//   - *HostError: a fetch or replacement round trip failed
//   - *RangeError: a selection position lies outside the body
//   - *ConfigError: invalid configuration
//
// A rejected selection is not an error: the reset reports false.
//
// # Architecture
//
//   - xml: immutable XML tree, XPath navigator, deterministic serializer
//   - transform: the formatting removal itself
//   - server: HTTP API
package resetfmt
