package resetfmt

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-resetfmt/pkg/resetfmt/xml"
)

const threeBlocks = `<w:p><w:pPr><w:pStyle w:val="Heading1"/><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t>Title</w:t></w:r></w:p>` +
	`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
	`<w:p><w:pPr><w:ind w:left="720"/></w:pPr><w:r><w:rPr><w:i/></w:rPr><w:t>Body</w:t></w:r></w:p>`

func openHost(t *testing.T, body string) *DocxHost {
	t.Helper()
	h, err := OpenDocxBytes(createDocx(t, body))
	require.NoError(t, err)
	return h.WithLogger(NewNopLogger())
}

func fetch(t *testing.T, h *DocxHost, r Range) *xml.Element {
	t.Helper()
	pending := r.OOXML()
	_, err := pending.Value()
	require.ErrorIs(t, err, ErrNotSynced)

	require.NoError(t, h.Sync(context.Background()))
	text, err := pending.Value()
	require.NoError(t, err)
	pkg, err := xml.ParseString(text)
	require.NoError(t, err)
	return pkg
}

func bodyNames(t *testing.T, pkg *xml.Element) []string {
	t.Helper()
	doc, err := MainDocumentRoot(pkg)
	require.NoError(t, err)
	var names []string
	for _, el := range doc.FirstNamed(xml.WBody).Elements() {
		names = append(names, el.Name().Local)
	}
	return names
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    Position
		wantErr bool
	}{
		{"0", Position{}, false},
		{"3:5", Position{Block: 3, Offset: 5}, false},
		{"2:end", Position{Block: 2, Offset: EndOfBlock}, false},
		{" 1:0 ", Position{Block: 1}, false},
		{"", Position{}, true},
		{"-1", Position{}, true},
		{"1:x", Position{}, true},
		{"1:-2", Position{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePosition(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.want.Offset != 0 {
				assert.Equal(t, strings.TrimSpace(tt.in), got.String())
			}
		})
	}
}

func TestOpenDocx(t *testing.T) {
	h := openHost(t, threeBlocks)
	assert.Equal(t, 3, h.Blocks())
	assert.False(t, h.Changed())

	_, err := OpenDocxBytes([]byte("not a zip"))
	assert.True(t, IsDocumentError(err))
}

func TestDocxHost_Select(t *testing.T) {
	h := openHost(t, threeBlocks)

	tests := []struct {
		name     string
		from, to Position
		wantErr  bool
	}{
		{"whole body", Position{}, Position{Block: 2, Offset: EndOfBlock}, false},
		{"inside paragraph", Position{Block: 0, Offset: 1}, Position{Block: 0, Offset: 3}, false},
		{"mark", Position{Block: 0, Offset: 5}, Position{Block: 0, Offset: 6}, false},
		{"reversed", Position{Block: 2}, Position{Block: 0}, false},
		{"block out of range", Position{}, Position{Block: 3}, true},
		{"offset out of range", Position{Block: 0, Offset: 7}, Position{Block: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Select(tt.from, tt.to)
			if tt.wantErr {
				assert.True(t, IsRangeError(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			r := h.Selection().(*docxRange)
			assert.False(t, less(r.end, r.start))
		})
	}
}

func TestDocxHost_FetchWholeBody(t *testing.T) {
	h := openHost(t, threeBlocks)
	pkg := fetch(t, h, ExtendSelection(h.Selection()))

	assert.Equal(t, []string{"p", "tbl", "p", "p", "sectPr"}, bodyNames(t, pkg))

	doc, err := MainDocumentRoot(pkg)
	require.NoError(t, err)
	blocks := doc.FirstNamed(xml.WBody).Elements()
	for _, tail := range blocks[3:] {
		v, _ := tail.Attr(xml.WRsidR)
		assert.Equal(t, SyntheticRsid, v)
	}
	assert.NotNil(t, blocks[4].FirstNamed(xml.W("pgSz")), "section properties are carried over")
	assert.True(t, SelectionIsValid(doc))

	var names []string
	for _, part := range pkg.ElementsNamed(xml.PkgPart) {
		name, _ := part.Attr(xml.PkgName)
		names = append(names, name)
	}
	assert.Equal(t, []string{"/_rels/.rels", "/word/document.xml", "/word/_rels/document.xml.rels", "/word/styles.xml"}, names)
}

func TestDocxHost_FetchExtendsToWholeParagraphs(t *testing.T) {
	h := openHost(t, threeBlocks)
	require.NoError(t, h.Select(Position{Block: 0, Offset: 2}, Position{Block: 0, Offset: 3}))

	raw := fetch(t, h, h.Selection())
	doc, err := MainDocumentRoot(raw)
	require.NoError(t, err)
	assert.Nil(t, doc.FirstNamed(xml.WBody).Elements()[0].FirstNamed(xml.WPPr), "w:pPr needs the paragraph mark")

	whole := fetch(t, h, ExtendSelection(h.Selection()))
	doc, err = MainDocumentRoot(whole)
	require.NoError(t, err)
	assert.NotNil(t, doc.FirstNamed(xml.WBody).Elements()[0].FirstNamed(xml.WPPr))
	assert.Equal(t, []string{"p", "p", "sectPr"}, bodyNames(t, whole))
}

func TestDocxHost_ResetMiddleParagraph(t *testing.T) {
	h := openHost(t, threeBlocks)
	require.NoError(t, h.Select(Position{Block: 2, Offset: 1}, Position{Block: 2, Offset: 1}))

	changed, err := ResetFormatting(context.Background(), h)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, h.Changed())

	blocks := h.blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, `<w:p `+wNS+`><w:r><w:t>Body</w:t></w:r></w:p>`, xml.Serialize(blocks[2]))
	assert.NotNil(t, blocks[0].FirstNamed(xml.WPPr).FirstNamed(xml.W("jc")), "unselected blocks are untouched")
	assert.NotNil(t, h.sectPr(), "the body keeps its own section properties")
}

func TestDocxHost_RejectsSelectionEndingInTable(t *testing.T) {
	h := openHost(t, threeBlocks)
	require.NoError(t, h.Select(Position{Block: 0}, Position{Block: 1}))
	before := xml.Serialize(h.Document())

	changed, err := ResetFormatting(context.Background(), h)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.False(t, h.Changed())
	assert.Equal(t, before, xml.Serialize(h.Document()))
}

func TestDocxHost_Save(t *testing.T) {
	h := openHost(t, threeBlocks)
	changed, err := ResetFormatting(context.Background(), h)
	require.NoError(t, err)
	// the whole body ends in a paragraph
	require.True(t, changed)

	out, err := h.Bytes()
	require.NoError(t, err)

	reopened, err := OpenDocxBytes(out)
	require.NoError(t, err)
	assert.Equal(t, 3, reopened.Blocks())

	docXML, err := reopened.reader.GetDocumentXML()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(docXML, xml.Header))
	assert.NotContains(t, docXML, "w:jc")
	assert.NotContains(t, docXML, "<w:b/>")
	assert.Contains(t, docXML, `<w:pStyle w:val="Heading1"/>`)
	assert.ElementsMatch(t, h.reader.ListParts(), reopened.reader.ListParts())

	styles, err := reopened.reader.GetPart("word/styles.xml")
	require.NoError(t, err)
	assert.Contains(t, string(styles), "Heading1")
}

func TestDocxHost_InsertEnd(t *testing.T) {
	h := openHost(t, threeBlocks)
	r := docxParagraph{host: h, block: 0}.Range(RangeWhole)
	inserted := r.InsertOOXML(flatPackage(`<w:p><w:r><w:t>new</w:t></w:r></w:p>`+syntheticTail), InsertEnd)
	require.NoError(t, h.Sync(context.Background()))

	require.Equal(t, 4, h.Blocks())
	assert.Equal(t, "new", h.blocks()[1].InnerText())
	ir := inserted.(*docxRange)
	assert.Equal(t, Position{Block: 1}, ir.start)
	assert.Equal(t, Position{Block: 1, Offset: EndOfBlock}, ir.end)
}

func TestDocxHost_InsertReplaceKeepsUnreachedMark(t *testing.T) {
	tests := []struct {
		name     string
		from, to Position
		want     string
	}{
		{
			name: "range stops before the mark",
			from: Position{Block: 0, Offset: 1},
			to:   Position{Block: 0, Offset: 3},
			want: `<w:p ` + wNS + `><w:pPr><w:pStyle w:val="Heading1"/><w:jc w:val="center"/></w:pPr><w:r><w:t>new</w:t></w:r></w:p>`,
		},
		{
			name: "range covers the mark",
			from: Position{Block: 0},
			to:   Position{Block: 0, Offset: EndOfBlock},
			want: `<w:p ` + wNS + `><w:r><w:t>new</w:t></w:r></w:p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := openHost(t, threeBlocks)
			require.NoError(t, h.Select(tt.from, tt.to))
			h.Selection().InsertOOXML(flatPackage(`<w:p><w:r><w:t>new</w:t></w:r></w:p>`+syntheticTail), InsertReplace)
			require.NoError(t, h.Sync(context.Background()))

			require.Equal(t, 3, h.Blocks())
			assert.Equal(t, tt.want, xml.Serialize(h.blocks()[0]))
		})
	}
}

func TestDocxHost_FetchThenReplacePartialRange(t *testing.T) {
	h := openHost(t, threeBlocks)
	require.NoError(t, h.Select(Position{Block: 0, Offset: 1}, Position{Block: 0, Offset: 3}))
	r := h.Selection()

	text := r.OOXML()
	require.NoError(t, h.Sync(context.Background()))
	ooxml, err := text.Value()
	require.NoError(t, err)

	r.InsertOOXML(ooxml, InsertReplace)
	require.NoError(t, h.Sync(context.Background()))

	pPr := h.blocks()[0].FirstNamed(xml.WPPr)
	require.NotNil(t, pPr)
	assert.NotNil(t, pPr.FirstNamed(xml.W("pStyle")))
	assert.NotNil(t, pPr.FirstNamed(xml.W("jc")))
}

func TestDocxHost_SyncFailureFailsPending(t *testing.T) {
	h := openHost(t, threeBlocks)
	r := h.Selection()
	r.InsertOOXML(`<pkg:package `+pkgNS+`/>`, InsertReplace)
	pending := r.OOXML()

	err := h.Sync(context.Background())
	require.Error(t, err)
	assert.True(t, IsStructuralError(err))

	_, err = pending.Value()
	assert.True(t, IsStructuralError(err), "later operations fail with the same error")
	assert.False(t, h.Changed())
}

func TestDocxHost_SyncHonorsContext(t *testing.T) {
	h := openHost(t, threeBlocks)
	pending := h.Selection().OOXML()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, h.Sync(ctx), context.Canceled)

	_, err := pending.Value()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDocxHost_EmptyBody(t *testing.T) {
	h := openHost(t, "")
	assert.Equal(t, 0, h.Blocks())

	changed, err := ResetFormatting(context.Background(), h)
	require.NoError(t, err)
	assert.False(t, changed, "a body without blocks has nothing to select")
}
