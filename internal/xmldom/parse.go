package xmldom

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// Parse builds a Document from raw XML bytes. Prefixes are kept as written
// (RawToken does not rewrite them to namespace URLs), which is what lets a
// later Marshal reproduce the part faithfully.
func Parse(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	doc := &Document{}
	var stack []*Node

	appendNode := func(n *Node) {
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			n.parent = parent
			parent.Children = append(parent.Children, n)
			return
		}
		if doc.Root == nil {
			doc.Prolog = append(doc.Prolog, n)
		} else {
			doc.Epilog = append(doc.Epilog, n)
		}
	}

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmldom: parse at offset %d: %w", dec.InputOffset(), err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && doc.Root != nil {
				return nil, fmt.Errorf("xmldom: second root element <%s>", rawName(t.Name))
			}
			elem := &Node{
				Kind:   ElementKind,
				Prefix: t.Name.Space,
				Local:  t.Name.Local,
			}
			if len(t.Attr) > 0 {
				elem.Attrs = make([]Attr, len(t.Attr))
				for i, a := range t.Attr {
					elem.Attrs[i] = Attr{Prefix: a.Name.Space, Local: a.Name.Local, Value: a.Value}
				}
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				elem.parent = parent
				parent.Children = append(parent.Children, elem)
			} else {
				doc.Root = elem
			}
			stack = append(stack, elem)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("xmldom: unexpected </%s>", rawName(t.Name))
			}
			top := stack[len(stack)-1]
			// RawToken skips the start/end match check; do it here.
			if top.Prefix != t.Name.Space || top.Local != t.Name.Local {
				return nil, fmt.Errorf("xmldom: element <%s> closed by </%s>", top.Name(), rawName(t.Name))
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				// Whitespace between the declaration and the root is noise.
				continue
			}
			appendNode(&Node{Kind: TextKind, Text: string(t)})

		case xml.Comment:
			appendNode(&Node{Kind: CommentKind, Text: string(t)})

		case xml.ProcInst:
			appendNode(&Node{Kind: ProcInstKind, Local: t.Target, Text: string(t.Inst)})

		case xml.Directive:
			appendNode(&Node{Kind: DirectiveKind, Text: string(t)})
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("xmldom: unclosed element <%s>", stack[len(stack)-1].Name())
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("xmldom: no root element")
	}
	return doc, nil
}

func rawName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
