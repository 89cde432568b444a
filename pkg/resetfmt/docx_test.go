package resetfmt

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocxReader_Read(t *testing.T) {
	tests := []struct {
		name    string
		setup   func() []byte
		wantErr bool
		check   func(t *testing.T, dr *DocxReader)
	}{
		{
			name:  "valid docx",
			setup: func() []byte { return createDocx(t, `<w:p/>`) },
			check: func(t *testing.T, dr *DocxReader) {
				assert.Equal(t, "word/document.xml", dr.MainPartName())
				assert.Len(t, dr.Parts, 5)
			},
		},
		{
			name: "main part named by content types",
			setup: func() []byte {
				var buf bytes.Buffer
				w := zip.NewWriter(&buf)
				f, _ := w.Create("[Content_Types].xml")
				f.Write([]byte(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Override PartName="/word/document2.xml" ContentType="` + MainContentType + `"/></Types>`))
				f, _ = w.Create("word/document2.xml")
				f.Write([]byte(`<w:document ` + wNS + `><w:body/></w:document>`))
				w.Close()
				return buf.Bytes()
			},
			check: func(t *testing.T, dr *DocxReader) {
				assert.Equal(t, "word/document2.xml", dr.MainPartName())
			},
		},
		{
			name: "missing main part",
			setup: func() []byte {
				var buf bytes.Buffer
				w := zip.NewWriter(&buf)
				f, _ := w.Create("_rels/.rels")
				f.Write([]byte(`<Relationships/>`))
				w.Close()
				return buf.Bytes()
			},
			wantErr: true,
		},
		{
			name: "unparsable content types",
			setup: func() []byte {
				var buf bytes.Buffer
				w := zip.NewWriter(&buf)
				f, _ := w.Create("[Content_Types].xml")
				f.Write([]byte(`<Types>`))
				f, _ = w.Create("word/document.xml")
				f.Write([]byte(`<w:document ` + wNS + `/>`))
				w.Close()
				return buf.Bytes()
			},
			wantErr: true,
		},
		{
			name:    "non-zip file",
			setup:   func() []byte { return []byte("not a zip file") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.setup()
			dr, err := NewDocxReader(bytes.NewReader(data), int64(len(data)))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, dr)
		})
	}
}

func TestDocxReader_ContentTypes(t *testing.T) {
	data := createDocx(t, `<w:p/>`)
	dr, err := NewDocxReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, MainContentType, dr.ContentType("word/document.xml"))
	assert.Equal(t, StylesContentType, dr.ContentType("word/styles.xml"))
	assert.Equal(t, RelationshipsContentType, dr.ContentType("word/_rels/document.xml.rels"))
	assert.Equal(t, "application/xml", dr.ContentType("word/other.xml"))
	assert.Empty(t, dr.ContentType("media/image1.png"))

	assert.Equal(t, []string{"_rels/.rels", "word/_rels/document.xml.rels"}, dr.PartsWithContentType(RelationshipsContentType))
	assert.Equal(t, []string{"word/styles.xml"}, dr.PartsWithContentType(StylesContentType))
	assert.Empty(t, dr.PartsWithContentType(NumberingContentType))
}

func TestRelationshipsPartName(t *testing.T) {
	assert.Equal(t, "word/_rels/document.xml.rels", RelationshipsPartName("word/document.xml"))
	assert.Equal(t, "_rels/.rels", RelationshipsPartName(""))
}

func TestDocxReader_Rewrite(t *testing.T) {
	data := createDocx(t, `<w:p/>`)
	dr, err := NewDocxReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, dr.Rewrite(&buf, map[string][]byte{"word/styles.xml": []byte("<replaced/>")}))

	out, err := NewDocxReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, dr.ListParts(), out.ListParts())

	styles, err := out.GetPart("word/styles.xml")
	require.NoError(t, err)
	assert.Equal(t, "<replaced/>", string(styles))

	original, _ := dr.GetDocumentXML()
	copied, _ := out.GetDocumentXML()
	assert.Equal(t, original, copied)

	_, err = out.GetPart("word/missing.xml")
	assert.Error(t, err)
}
