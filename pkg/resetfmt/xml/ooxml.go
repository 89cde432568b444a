package xml

// Namespace URIs.
const (
	NamespaceW     = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NamespaceR     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NamespacePkg   = "http://schemas.microsoft.com/office/2006/xmlPackage"
	NamespaceRels  = "http://schemas.openxmlformats.org/package/2006/relationships"
	NamespaceXML   = "http://www.w3.org/XML/1998/namespace"
	NamespaceXMLNS = "http://www.w3.org/2000/xmlns/"
)

// DefaultNamespaces binds the prefixes used in XPath expressions throughout
// go-resetfmt.
var DefaultNamespaces = map[string]string{
	"w":   NamespaceW,
	"r":   NamespaceR,
	"pkg": NamespacePkg,
}

// W returns a WordprocessingML name.
func W(local string) Name { return Name{Space: NamespaceW, Local: local} }

// Pkg returns a Flat OPC package name.
func Pkg(local string) Name { return Name{Space: NamespacePkg, Local: local} }

// WordprocessingML names.
var (
	WDocument = W("document")
	WBody     = W("body")
	WP        = W("p")
	WR        = W("r")
	WT        = W("t")
	WTbl      = W("tbl")
	WSectPr   = W("sectPr")
	WPPr      = W("pPr")
	WRPr      = W("rPr")
	WPStyle   = W("pStyle")
	WRStyle   = W("rStyle")
	WNumPr    = W("numPr")
	WVal      = W("val")
	WRsidR    = W("rsidR")
)

// Flat OPC package names.
var (
	PkgPackage     = Pkg("package")
	PkgPart        = Pkg("part")
	PkgName        = Pkg("name")
	PkgContentType = Pkg("contentType")
	PkgPadding     = Pkg("padding")
	PkgXMLData     = Pkg("xmlData")
	PkgBinaryData  = Pkg("binaryData")
)

// NamespaceDecl returns the attribute declaring prefix for uri. An empty
// prefix declares the default namespace.
func NamespaceDecl(prefix, uri string) Attr {
	if prefix == "" {
		return Attr{Name: Name{Local: "xmlns"}, Value: uri}
	}
	return Attr{Name: Name{Space: NamespaceXMLNS, Local: prefix}, Prefix: "xmlns", Value: uri}
}
