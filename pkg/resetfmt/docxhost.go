package resetfmt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/benjaminschreck/go-resetfmt/pkg/resetfmt/xml"
)

// EndOfBlock is the offset of a position just past a block's paragraph mark.
const EndOfBlock = -1

// SyntheticRsid marks the trailing w:p and w:sectPr that close every
// fetched range.
const SyntheticRsid = "00000000"

const (
	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	mainPartPath          = "/word/document.xml"
	mainRelsPath          = "/word/_rels/document.xml.rels"
	packageRelsPath       = "/_rels/.rels"
	msoApplication        = `<?mso-application progid="Word.Document"?>`
)

// Position addresses a character in the document body: Block indexes the
// body's block elements (w:p, w:tbl, ...) and Offset counts characters in
// that block's text. Offset equal to the text length addresses the
// paragraph mark; EndOfBlock addresses the point just past it.
type Position struct {
	Block  int
	Offset int
}

func (p Position) String() string {
	if p.Offset == EndOfBlock {
		return strconv.Itoa(p.Block) + ":end"
	}
	return strconv.Itoa(p.Block) + ":" + strconv.Itoa(p.Offset)
}

// ParsePosition parses "B", "B:O" or "B:end".
func ParsePosition(s string) (Position, error) {
	block, offset, hasOffset := strings.Cut(strings.TrimSpace(s), ":")
	b, err := strconv.Atoi(block)
	if err != nil || b < 0 {
		return Position{}, fmt.Errorf("invalid position %q: block must be a non-negative integer", s)
	}
	if !hasOffset {
		return Position{Block: b}, nil
	}
	if offset == "end" {
		return Position{Block: b, Offset: EndOfBlock}, nil
	}
	o, err := strconv.Atoi(offset)
	if err != nil || o < 0 {
		return Position{}, fmt.Errorf("invalid position %q: offset must be a non-negative integer or \"end\"", s)
	}
	return Position{Block: b, Offset: o}, nil
}

// DocxHost is a Host over a DOCX file held in memory. Ranges have block
// granularity: a range covers every block it touches, and it carries a
// block's w:pPr only when it reaches that block's paragraph mark.
type DocxHost struct {
	reader   *DocxReader
	document *xml.Element
	logger   *Logger

	selection *docxRange
	queue     []operation
	changed   bool
}

type operation struct {
	name string
	run  func() error
	fail func(error)
}

// OpenDocx loads a DOCX package. The initial selection covers the whole
// body.
func OpenDocx(r io.ReaderAt, size int64) (*DocxHost, error) {
	reader, err := NewDocxReader(r, size)
	if err != nil {
		return nil, NewDocumentError("open", "", err)
	}
	content, err := reader.GetPart(reader.MainPartName())
	if err != nil {
		return nil, NewDocumentError("read", reader.MainPartName(), err)
	}
	document, err := xml.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, NewDocumentError("parse", reader.MainPartName(), err)
	}
	if !document.Is(xml.WDocument) || document.FirstNamed(xml.WBody) == nil {
		return nil, NewDocumentError("parse", reader.MainPartName(), fmt.Errorf("missing w:document/w:body"))
	}

	h := &DocxHost{
		reader:   reader,
		document: document,
		logger:   GetLogger(),
	}
	h.SelectAll()
	return h, nil
}

// OpenDocxBytes loads a DOCX package from memory.
func OpenDocxBytes(data []byte) (*DocxHost, error) {
	return OpenDocx(bytes.NewReader(data), int64(len(data)))
}

// WithLogger sets the logger used for host operations.
func (h *DocxHost) WithLogger(l *Logger) *DocxHost {
	h.logger = l
	return h
}

// Document returns the current w:document element.
func (h *DocxHost) Document() *xml.Element {
	return h.document
}

// Blocks returns the number of blocks in the body.
func (h *DocxHost) Blocks() int {
	return len(h.blocks())
}

// Changed reports whether any insertion has been applied.
func (h *DocxHost) Changed() bool {
	return h.changed
}

// SelectAll selects the whole body.
func (h *DocxHost) SelectAll() {
	n := h.Blocks()
	if n == 0 {
		h.selection = &docxRange{host: h}
		return
	}
	h.selection = &docxRange{host: h, end: Position{Block: n - 1, Offset: EndOfBlock}}
}

// Select sets the selection. Positions are validated against the body.
func (h *DocxHost) Select(from, to Position) error {
	for _, p := range []Position{from, to} {
		if err := h.checkPosition(p); err != nil {
			return err
		}
	}
	if less(to, from) {
		from, to = to, from
	}
	h.selection = &docxRange{host: h, start: from, end: to}
	return nil
}

func (h *DocxHost) checkPosition(p Position) error {
	n := h.Blocks()
	if p.Block < 0 || p.Block >= n {
		return NewRangeError(p, n, "")
	}
	if p.Offset == EndOfBlock {
		return nil
	}
	if limit := h.markOffset(p.Block) + 1; p.Offset < 0 || p.Offset > limit {
		return NewRangeError(p, n, fmt.Sprintf("offset must be between 0 and %d", limit))
	}
	return nil
}

// Selection implements Host.
func (h *DocxHost) Selection() Range {
	return h.selection
}

// Sync implements Host. Queued operations run in order; the first failure
// stops the queue and fails every pending value that was not yet resolved.
func (h *DocxHost) Sync(ctx context.Context) error {
	queue := h.queue
	h.queue = nil

	for i, op := range queue {
		err := ctx.Err()
		if err == nil {
			h.logger.Debug("docx host: %s", op.name)
			err = op.run()
		}
		if err != nil {
			for _, rest := range queue[i:] {
				rest.fail(err)
			}
			return fmt.Errorf("%s: %w", op.name, err)
		}
	}
	return nil
}

// Save writes the current document as a DOCX package.
func (h *DocxHost) Save(w io.Writer) error {
	main := []byte(xml.Header + xml.Serialize(h.document))
	return h.reader.Rewrite(w, map[string][]byte{h.reader.MainPartName(): main})
}

// Bytes returns the current document as a DOCX package.
func (h *DocxHost) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := h.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *DocxHost) body() *xml.Element {
	return h.document.FirstNamed(xml.WBody)
}

// blocks returns the body's block elements, without the final w:sectPr.
func (h *DocxHost) blocks() []*xml.Element {
	els := h.body().Elements()
	if n := len(els); n > 0 && els[n-1].Is(xml.WSectPr) {
		els = els[:n-1]
	}
	return els
}

func (h *DocxHost) sectPr() *xml.Element {
	els := h.body().Elements()
	if n := len(els); n > 0 && els[n-1].Is(xml.WSectPr) {
		return els[n-1]
	}
	return nil
}

// markOffset returns the offset of a paragraph's mark. Other blocks count
// as a single character.
func (h *DocxHost) markOffset(block int) int {
	blocks := h.blocks()
	if block < 0 || block >= len(blocks) || !blocks[block].Is(xml.WP) {
		return 0
	}
	return utf8.RuneCountInString(blocks[block].InnerText())
}

// reachesMark reports whether p lies past the mark of its block.
func (h *DocxHost) reachesMark(p Position) bool {
	return p.Offset == EndOfBlock || p.Offset > h.markOffset(p.Block)
}

func (h *DocxHost) enqueue(name string, run func() error, fail func(error)) {
	h.queue = append(h.queue, operation{name: name, run: run, fail: fail})
}

// fetch renders the blocks of r as a Flat OPC package.
func (h *DocxHost) fetch(r *docxRange) (string, error) {
	blocks := h.blocks()
	var covered []xml.Node
	if len(blocks) > 0 {
		for i := r.start.Block; i <= r.end.Block && i < len(blocks); i++ {
			b := blocks[i]
			if i == r.end.Block && b.Is(xml.WP) && !h.reachesMark(r.end) {
				b, _ = b.Replace(b.FirstNamed(xml.WPPr), nil)
			}
			covered = append(covered, b)
		}
	}
	covered = append(covered, h.syntheticParagraph(), h.syntheticSectPr())

	body := h.body().WithAttrs(nil).WithChildren(covered...)
	document := h.document.WithChildren(body)

	parts := []xml.Node{
		packageRelsPart(),
		xmlPart(mainPartPath, MainContentType, "", document),
	}
	if rels, err := h.partRoot(RelationshipsPartName(h.reader.MainPartName())); err != nil {
		return "", err
	} else if rels != nil {
		parts = append(parts, xmlPart(mainRelsPath, RelationshipsContentType, "256", rels))
	}
	for _, ct := range []string{StylesContentType, NumberingContentType} {
		for _, name := range h.reader.PartsWithContentType(ct) {
			root, err := h.partRoot(name)
			if err != nil {
				return "", err
			}
			parts = append(parts, xmlPart("/"+name, ct, "", root))
		}
	}

	pkg := xml.NewElement(xml.PkgPackage, []xml.Attr{xml.NamespaceDecl("pkg", xml.NamespacePkg)}, parts...).WithPrefix("pkg")
	return xml.Header + msoApplication + xml.Serialize(pkg), nil
}

func (h *DocxHost) partRoot(name string) (*xml.Element, error) {
	if _, ok := h.reader.Parts[name]; !ok {
		return nil, nil
	}
	content, err := h.reader.GetPart(name)
	if err != nil {
		return nil, NewDocumentError("read", name, err)
	}
	root, err := xml.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, NewDocumentError("parse", name, err)
	}
	return root, nil
}

func (h *DocxHost) syntheticParagraph() *xml.Element {
	return xml.NewElement(xml.WP, []xml.Attr{{Name: xml.WRsidR, Prefix: "w", Value: SyntheticRsid}}).WithPrefix("w")
}

// syntheticSectPr copies the document's section properties under the
// synthetic marker.
func (h *DocxHost) syntheticSectPr() *xml.Element {
	attrs := []xml.Attr{{Name: xml.WRsidR, Prefix: "w", Value: SyntheticRsid}}
	if s := h.sectPr(); s != nil {
		return s.WithAttrs(attrs)
	}
	return xml.NewElement(xml.WSectPr, attrs).WithPrefix("w")
}

// insert splices the body of a Flat OPC package over the blocks of r, or
// after them. The synthetic trailing elements of the package are dropped.
func (h *DocxHost) insert(r *docxRange, ooxml string, loc InsertLocation, result *docxRange) error {
	pkg, err := xml.ParseString(ooxml)
	if err != nil {
		return NewDocumentError("parse", "", err)
	}
	document, err := MainDocumentRoot(pkg)
	if err != nil {
		return err
	}
	body := document.FirstNamed(xml.WBody)
	if body == nil {
		return NewDocumentError("insert", "", fmt.Errorf("package has no w:body"))
	}
	incoming := stripSynthetic(body.Elements())

	blocks := h.blocks()
	from, to := r.start.Block, r.end.Block+1
	if to > len(blocks) {
		to = len(blocks)
	}
	if from > to {
		from = to
	}
	if loc == InsertEnd {
		from = to
	} else if n := len(incoming); n > 0 && to > from && to-1 == r.end.Block && !h.reachesMark(r.end) {
		// The range stops short of the last paragraph's mark, so that
		// paragraph keeps its own properties.
		incoming = append(incoming[:n-1:n-1], keepMark(incoming[n-1], blocks[to-1]))
	}

	children := make([]xml.Node, 0, len(blocks)-(to-from)+len(incoming)+1)
	for _, b := range blocks[:from] {
		children = append(children, b)
	}
	for _, b := range incoming {
		children = append(children, b)
	}
	for _, b := range blocks[to:] {
		children = append(children, b)
	}
	if s := h.sectPr(); s != nil {
		children = append(children, s)
	}

	updated, _ := h.document.Replace(h.body(), h.body().WithChildren(children...))
	h.document = updated
	h.changed = true

	result.start = Position{Block: from}
	result.end = Position{Block: from, Offset: EndOfBlock}
	if len(incoming) > 0 {
		result.end.Block = from + len(incoming) - 1
	}
	h.logger.Debug("docx host: replaced blocks %d-%d with %d blocks", from, to-1, len(incoming))
	return nil
}

// keepMark gives p the w:pPr of the paragraph original. p is returned as is
// when either of them is not a paragraph.
func keepMark(p, original *xml.Element) *xml.Element {
	if !p.Is(xml.WP) || !original.Is(xml.WP) {
		return p
	}
	pPr := original.FirstNamed(xml.WPPr)
	if current := p.FirstNamed(xml.WPPr); current != nil {
		var updated *xml.Element
		if pPr == nil {
			updated, _ = p.Replace(current, nil)
		} else {
			updated, _ = p.Replace(current, pPr)
		}
		return updated
	}
	if pPr == nil {
		return p
	}
	return p.WithChildren(append([]xml.Node{pPr}, p.Children()...)...)
}

func stripSynthetic(els []*xml.Element) []*xml.Element {
	if n := len(els); n > 0 && els[n-1].Is(xml.WSectPr) {
		els = els[:n-1]
	}
	if n := len(els); n > 0 && isSyntheticParagraph(els[n-1]) {
		els = els[:n-1]
	}
	return els
}

func isSyntheticParagraph(e *xml.Element) bool {
	if !e.Is(xml.WP) || len(e.Elements()) > 0 {
		return false
	}
	v, _ := e.Attr(xml.WRsidR)
	return v == SyntheticRsid
}

func xmlPart(name, contentType, padding string, root *xml.Element) *xml.Element {
	attrs := []xml.Attr{
		{Name: xml.PkgName, Prefix: "pkg", Value: name},
		{Name: xml.PkgContentType, Prefix: "pkg", Value: contentType},
	}
	if padding != "" {
		attrs = append(attrs, xml.Attr{Name: xml.PkgPadding, Prefix: "pkg", Value: padding})
	}
	data := xml.NewElement(xml.PkgXMLData, nil, root).WithPrefix("pkg")
	return xml.NewElement(xml.PkgPart, attrs, data).WithPrefix("pkg")
}

func packageRelsPart() *xml.Element {
	rel := xml.NewElement(xml.Name{Space: xml.NamespaceRels, Local: "Relationship"}, []xml.Attr{
		{Name: xml.Name{Local: "Id"}, Value: "rId1"},
		{Name: xml.Name{Local: "Type"}, Value: relTypeOfficeDocument},
		{Name: xml.Name{Local: "Target"}, Value: strings.TrimPrefix(mainPartPath, "/")},
	})
	rels := xml.NewElement(xml.Name{Space: xml.NamespaceRels, Local: "Relationships"},
		[]xml.Attr{xml.NamespaceDecl("", xml.NamespaceRels)}, rel)
	return xmlPart(packageRelsPath, RelationshipsContentType, "512", rels)
}

func less(a, b Position) bool {
	if a.Block != b.Block {
		return a.Block < b.Block
	}
	if a.Offset == b.Offset {
		return false
	}
	if a.Offset == EndOfBlock {
		return false
	}
	return b.Offset == EndOfBlock || a.Offset < b.Offset
}

// docxRange is a Range of a DocxHost.
type docxRange struct {
	host       *DocxHost
	start, end Position
}

func (r *docxRange) Paragraphs() ParagraphCollection {
	return docxParagraphs{r: r}
}

func (r *docxRange) ExpandTo(other Range) Range {
	o, ok := other.(*docxRange)
	if !ok || o.host != r.host {
		return r
	}
	out := &docxRange{host: r.host, start: r.start, end: r.end}
	if less(o.start, out.start) {
		out.start = o.start
	}
	if less(out.end, o.end) {
		out.end = o.end
	}
	return out
}

func (r *docxRange) OOXML() *Pending[string] {
	p := NewPending[string]()
	r.host.enqueue("fetch "+r.String(), func() error {
		text, err := r.host.fetch(r)
		if err != nil {
			return err
		}
		p.Resolve(text)
		return nil
	}, p.Fail)
	return p
}

func (r *docxRange) InsertOOXML(ooxml string, loc InsertLocation) Range {
	result := &docxRange{host: r.host, start: r.start, end: r.end}
	r.host.enqueue("insert "+loc.String()+" "+r.String(), func() error {
		return r.host.insert(r, ooxml, loc, result)
	}, func(error) {})
	return result
}

func (r *docxRange) String() string {
	return r.start.String() + "-" + r.end.String()
}

type docxParagraphs struct {
	r *docxRange
}

func (p docxParagraphs) First() Paragraph {
	return docxParagraph{host: p.r.host, block: p.r.start.Block}
}

func (p docxParagraphs) Last() Paragraph {
	return docxParagraph{host: p.r.host, block: p.r.end.Block}
}

type docxParagraph struct {
	host  *DocxHost
	block int
}

func (p docxParagraph) Range(loc RangeLocation) Range {
	end := Position{Block: p.block, Offset: EndOfBlock}
	if loc == RangeContent {
		end.Offset = p.host.markOffset(p.block)
	}
	return &docxRange{host: p.host, start: Position{Block: p.block}, end: end}
}
