package resetfmt

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	wNS   = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
	pkgNS = `xmlns:pkg="http://schemas.microsoft.com/office/2006/xmlPackage"`

	syntheticTail = `<w:p w:rsidR="00000000"/><w:sectPr w:rsidR="00000000"/>`
)

// flatPackage builds a Flat OPC package whose main document body is body.
func flatPackage(body string) string {
	return `<pkg:package ` + pkgNS + `>` +
		`<pkg:part pkg:name="/_rels/.rels" pkg:contentType="application/vnd.openxmlformats-package.relationships+xml" pkg:padding="512"><pkg:xmlData>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>` +
		`</pkg:xmlData></pkg:part>` +
		`<pkg:part pkg:name="/word/document.xml" pkg:contentType="` + MainContentType + `"><pkg:xmlData>` +
		`<w:document ` + wNS + `><w:body>` + body + `</w:body></w:document>` +
		`</pkg:xmlData></pkg:part></pkg:package>`
}

// createDocx builds a minimal DOCX whose body is body, with a styles part.
func createDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	write := func(name, content string) {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
  <Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`)

	write("_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`)

	write("word/_rels/document.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/></Relationships>`)

	write("word/styles.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles `+wNS+`><w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/></w:style></w:styles>`)

	write("word/document.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document `+wNS+`><w:body>`+body+`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr></w:body></w:document>`)

	require.NoError(t, w.Close())
	return buf.Bytes()
}

// recordingHost is a Host whose fetch returns a fixed package and which
// records every call made on it.
type recordingHost struct {
	ooxml    string
	syncErrs []error
	syncs    int
	calls    []string
	inserts  []string
	queue    []func()
}

func (h *recordingHost) Selection() Range {
	h.calls = append(h.calls, "selection")
	return &recordingRange{host: h, name: "sel"}
}

func (h *recordingHost) Sync(ctx context.Context) error {
	h.calls = append(h.calls, "sync")
	i := h.syncs
	h.syncs++
	queue := h.queue
	h.queue = nil
	if i < len(h.syncErrs) && h.syncErrs[i] != nil {
		return h.syncErrs[i]
	}
	for _, op := range queue {
		op()
	}
	return ctx.Err()
}

type recordingRange struct {
	host *recordingHost
	name string
}

func (r *recordingRange) Paragraphs() ParagraphCollection { return r }

func (r *recordingRange) First() Paragraph {
	r.host.calls = append(r.host.calls, "first("+r.name+")")
	return &recordingRange{host: r.host, name: "first"}
}

func (r *recordingRange) Last() Paragraph {
	r.host.calls = append(r.host.calls, "last("+r.name+")")
	return &recordingRange{host: r.host, name: "last"}
}

func (r *recordingRange) Range(loc RangeLocation) Range {
	name := r.name + "." + loc.String()
	r.host.calls = append(r.host.calls, "range("+name+")")
	return &recordingRange{host: r.host, name: name}
}

func (r *recordingRange) ExpandTo(other Range) Range {
	o := other.(*recordingRange)
	name := "(" + r.name + "+" + o.name + ")"
	r.host.calls = append(r.host.calls, "expand"+name)
	return &recordingRange{host: r.host, name: name}
}

func (r *recordingRange) OOXML() *Pending[string] {
	r.host.calls = append(r.host.calls, "ooxml("+r.name+")")
	p := NewPending[string]()
	r.host.queue = append(r.host.queue, func() { p.Resolve(r.host.ooxml) })
	return p
}

func (r *recordingRange) InsertOOXML(ooxml string, loc InsertLocation) Range {
	r.host.calls = append(r.host.calls, "insert("+r.name+","+loc.String()+")")
	r.host.queue = append(r.host.queue, func() { r.host.inserts = append(r.host.inserts, ooxml) })
	return r
}
