package resetfmt

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/benjaminschreck/go-resetfmt/pkg/resetfmt/xml"
)

const (
	contentTypesPart      = "[Content_Types].xml"
	defaultMainPart       = "word/document.xml"
	namespaceContentTypes = "http://schemas.openxmlformats.org/package/2006/content-types"
)

var (
	contentTypeNamespaces = map[string]string{"ct": namespaceContentTypes}
	overrideExpr          = xml.MustCompile("/ct:Types/ct:Override", contentTypeNamespaces)
	defaultExpr           = xml.MustCompile("/ct:Types/ct:Default", contentTypeNamespaces)
)

// DocxReader handles reading DOCX files
type DocxReader struct {
	reader    *zip.Reader
	Parts     map[string]*zip.File
	order     []string
	overrides map[string]string
	defaults  map[string]string
	main      string
}

// NewDocxReader creates a new DOCX reader
func NewDocxReader(r io.ReaderAt, size int64) (*DocxReader, error) {
	zipReader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip file: %w", err)
	}

	dr := &DocxReader{
		reader:    zipReader,
		Parts:     make(map[string]*zip.File),
		overrides: make(map[string]string),
		defaults:  make(map[string]string),
	}

	// Index all parts by name
	for _, file := range zipReader.File {
		dr.Parts[file.Name] = file
		dr.order = append(dr.order, file.Name)
	}

	if err := dr.readContentTypes(); err != nil {
		return nil, err
	}

	dr.main = defaultMainPart
	for name, ct := range dr.overrides {
		if ct == MainContentType {
			dr.main = name
			break
		}
	}
	if _, ok := dr.Parts[dr.main]; !ok {
		return nil, fmt.Errorf("not a valid DOCX file: missing %s", dr.main)
	}

	return dr, nil
}

func (dr *DocxReader) readContentTypes() error {
	if _, ok := dr.Parts[contentTypesPart]; !ok {
		return nil
	}
	content, err := dr.GetPart(contentTypesPart)
	if err != nil {
		return err
	}
	root, err := xml.Parse(bytes.NewReader(content))
	if err != nil {
		return NewDocumentError("parse", contentTypesPart, err)
	}

	for _, o := range xml.Select(root, overrideExpr) {
		name, _ := o.Attr(xml.Name{Local: "PartName"})
		ct, _ := o.Attr(xml.Name{Local: "ContentType"})
		dr.overrides[strings.TrimPrefix(name, "/")] = ct
	}
	for _, d := range xml.Select(root, defaultExpr) {
		ext, _ := d.Attr(xml.Name{Local: "Extension"})
		ct, _ := d.Attr(xml.Name{Local: "ContentType"})
		dr.defaults[strings.ToLower(ext)] = ct
	}
	return nil
}

// MainPartName returns the zip name of the main document part.
func (dr *DocxReader) MainPartName() string {
	return dr.main
}

// ContentType returns the declared content type of a part, or "" if the
// package declares none.
func (dr *DocxReader) ContentType(partName string) string {
	if ct, ok := dr.overrides[partName]; ok {
		return ct
	}
	ext := strings.TrimPrefix(path.Ext(partName), ".")
	return dr.defaults[strings.ToLower(ext)]
}

// PartsWithContentType returns the parts declared with the given content
// type, in archive order.
func (dr *DocxReader) PartsWithContentType(contentType string) []string {
	var out []string
	for _, name := range dr.order {
		if dr.ContentType(name) == contentType {
			out = append(out, name)
		}
	}
	return out
}

// GetDocumentXML retrieves the content of the main document part
func (dr *DocxReader) GetDocumentXML() (string, error) {
	content, err := dr.GetPart(dr.main)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// GetPart retrieves the content of a specific part
func (dr *DocxReader) GetPart(partName string) ([]byte, error) {
	file, ok := dr.Parts[partName]
	if !ok {
		return nil, fmt.Errorf("part %s not found", partName)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", partName, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", partName, err)
	}

	return content, nil
}

// ListParts returns the part names in archive order
func (dr *DocxReader) ListParts() []string {
	return append([]string(nil), dr.order...)
}

// RelationshipsPartName returns the name of the part holding the
// relationships of partName, e.g. "word/_rels/document.xml.rels".
func RelationshipsPartName(partName string) string {
	dir, base := path.Split(partName)
	return dir + "_rels/" + base + ".rels"
}

// Rewrite writes a copy of the package to w, substituting the content of
// the parts named in replacements.
func (dr *DocxReader) Rewrite(w io.Writer, replacements map[string][]byte) error {
	zw := zip.NewWriter(w)

	for _, file := range dr.reader.File {
		if content, ok := replacements[file.Name]; ok {
			fw, err := zw.CreateHeader(&zip.FileHeader{
				Name:     file.Name,
				Method:   zip.Deflate,
				Modified: file.Modified,
			})
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", file.Name, err)
			}
			if _, err := fw.Write(content); err != nil {
				return fmt.Errorf("failed to write %s: %w", file.Name, err)
			}
			continue
		}

		if err := zw.Copy(file); err != nil {
			return fmt.Errorf("failed to copy %s: %w", file.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zip writer: %w", err)
	}
	return nil
}

// DocxReaderFromFile creates a DocxReader from a file path
func DocxReaderFromFile(path string) (*DocxReader, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	reader := bytes.NewReader(content)
	return NewDocxReader(reader, int64(len(content)))
}
