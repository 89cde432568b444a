package xml

import (
	"io"
	"strconv"
	"strings"
)

// Header is the declaration written at the top of standalone parts.
const Header = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", "\"", "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;")
)

// Serialize renders e as text. Attributes and children are written in the
// order they appear in the tree. Element and attribute prefixes are taken
// from the namespace declarations in scope; a declaration is added where a
// namespace is used without one.
func Serialize(e *Element) string {
	var sb strings.Builder
	enc := &encoder{w: &sb}
	enc.element(e)
	return sb.String()
}

// Write serializes e to w.
func Write(w io.Writer, e *Element) error {
	_, err := io.WriteString(w, Serialize(e))
	return err
}

type binding struct {
	prefix string
	uri    string
}

type encoder struct {
	w     *strings.Builder
	scope []binding
	gen   int
}

func (enc *encoder) lookup(prefix string) (string, bool) {
	if prefix == "xml" {
		return NamespaceXML, true
	}
	for i := len(enc.scope) - 1; i >= 0; i-- {
		if enc.scope[i].prefix == prefix {
			return enc.scope[i].uri, true
		}
	}
	return "", false
}

// prefixFor resolves the prefix to write for uri. Attributes never use the
// default namespace. When no binding is in scope one is created and
// returned as a declaration to emit.
func (enc *encoder) prefixFor(uri, hint string, element bool) (string, *Attr) {
	if uri == "" {
		return "", nil
	}
	if uri == NamespaceXML {
		return "xml", nil
	}
	if hint != "" {
		if u, ok := enc.lookup(hint); ok && u == uri {
			return hint, nil
		}
	}
	if element && hint == "" {
		if u, ok := enc.lookup(""); ok && u == uri {
			return "", nil
		}
	}
	for i := len(enc.scope) - 1; i >= 0; i-- {
		b := enc.scope[i]
		if b.uri != uri || (b.prefix == "" && !element) {
			continue
		}
		if u, _ := enc.lookup(b.prefix); u == uri {
			return b.prefix, nil
		}
	}

	prefix := hint
	if _, taken := enc.lookup(prefix); prefix == "" || prefix == "xmlns" || taken {
		for {
			prefix = "ns" + strconv.Itoa(enc.gen)
			enc.gen++
			if _, taken := enc.lookup(prefix); !taken {
				break
			}
		}
	}
	enc.scope = append(enc.scope, binding{prefix: prefix, uri: uri})
	decl := NamespaceDecl(prefix, uri)
	return prefix, &decl
}

func qualified(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func isDecl(a Attr) bool {
	return a.Name.Space == NamespaceXMLNS || (a.Name.Space == "" && a.Name.Local == "xmlns")
}

func (enc *encoder) element(e *Element) {
	mark := len(enc.scope)
	for _, a := range e.attrs {
		if a.Name.Space == NamespaceXMLNS {
			enc.scope = append(enc.scope, binding{prefix: a.Name.Local, uri: a.Value})
		} else if isDecl(a) {
			enc.scope = append(enc.scope, binding{uri: a.Value})
		}
	}

	var extra []Attr
	prefix, decl := enc.prefixFor(e.name.Space, e.prefix, true)
	if decl != nil {
		extra = append(extra, *decl)
	}
	name := qualified(prefix, e.name.Local)

	enc.w.WriteString("<")
	enc.w.WriteString(name)
	for _, a := range e.attrs {
		var an string
		switch {
		case a.Name.Space == NamespaceXMLNS:
			an = "xmlns:" + a.Name.Local
		case isDecl(a):
			an = "xmlns"
		default:
			ap, adecl := enc.prefixFor(a.Name.Space, a.Prefix, false)
			if adecl != nil {
				extra = append(extra, *adecl)
			}
			an = qualified(ap, a.Name.Local)
		}
		enc.attr(an, a.Value)
	}
	for _, a := range extra {
		if a.Name.Space == NamespaceXMLNS {
			enc.attr("xmlns:"+a.Name.Local, a.Value)
		} else {
			enc.attr("xmlns", a.Value)
		}
	}

	if len(e.children) == 0 {
		enc.w.WriteString("/>")
	} else {
		enc.w.WriteString(">")
		for _, c := range e.children {
			switch n := c.(type) {
			case Text:
				textEscaper.WriteString(enc.w, string(n))
			case *Element:
				enc.element(n)
			}
		}
		enc.w.WriteString("</")
		enc.w.WriteString(name)
		enc.w.WriteString(">")
	}
	enc.scope = enc.scope[:mark]
}

func (enc *encoder) attr(name, value string) {
	enc.w.WriteString(" ")
	enc.w.WriteString(name)
	enc.w.WriteString(`="`)
	attrEscaper.WriteString(enc.w, value)
	enc.w.WriteString(`"`)
}
