package xmldom

import (
	"bytes"
	"strings"
)

// Marshal renders the document back to bytes. Element and attribute names are
// written with their stored prefixes; empty elements collapse to the
// self-closing form PowerPoint itself emits.
func (d *Document) Marshal() []byte {
	var buf bytes.Buffer
	for _, n := range d.Prolog {
		writeNode(&buf, n)
		if n.Kind == ProcInstKind {
			buf.WriteString("\r\n")
		}
	}
	if d.Root != nil {
		writeNode(&buf, d.Root)
	}
	for _, n := range d.Epilog {
		writeNode(&buf, n)
	}
	return buf.Bytes()
}

func writeNode(buf *bytes.Buffer, n *Node) {
	switch n.Kind {
	case TextKind:
		escapeText(buf, n.Text)
	case CommentKind:
		buf.WriteString("<!--")
		buf.WriteString(n.Text)
		buf.WriteString("-->")
	case ProcInstKind:
		buf.WriteString("<?")
		buf.WriteString(n.Local)
		if n.Text != "" {
			buf.WriteByte(' ')
			buf.WriteString(n.Text)
		}
		buf.WriteString("?>")
	case DirectiveKind:
		buf.WriteString("<!")
		buf.WriteString(n.Text)
		buf.WriteString(">")
	case ElementKind:
		buf.WriteByte('<')
		buf.WriteString(n.Name())
		for _, a := range n.Attrs {
			buf.WriteByte(' ')
			buf.WriteString(a.Name())
			buf.WriteString(`="`)
			escapeAttr(buf, a.Value)
			buf.WriteByte('"')
		}
		if len(n.Children) == 0 {
			buf.WriteString("/>")
			return
		}
		buf.WriteByte('>')
		for _, c := range n.Children {
			writeNode(buf, c)
		}
		buf.WriteString("</")
		buf.WriteString(n.Name())
		buf.WriteByte('>')
	}
}

func escapeText(buf *bytes.Buffer, s string) {
	if !strings.ContainsAny(s, "&<>") {
		buf.WriteString(s)
		return
	}
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}
}

func escapeAttr(buf *bytes.Buffer, s string) {
	if !strings.ContainsAny(s, "&<>\"\n\t") {
		buf.WriteString(s)
		return
	}
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\n':
			buf.WriteString("&#10;")
		case '\t':
			buf.WriteString("&#9;")
		default:
			buf.WriteRune(r)
		}
	}
}
