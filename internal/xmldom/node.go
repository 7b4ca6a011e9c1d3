// Package xmldom implements a small mutable XML tree that keeps namespace
// prefixes exactly as written, so OOXML parts survive an edit round trip
// with their a:/p:/r: prefixes intact.
package xmldom

// Kind classifies tree nodes.
type Kind int

const (
	// ElementKind is a regular element node.
	ElementKind Kind = iota
	// TextKind is character data (entities already decoded).
	TextKind
	// CommentKind is an XML comment.
	CommentKind
	// ProcInstKind is a processing instruction.
	ProcInstKind
	// DirectiveKind is a <!...> directive.
	DirectiveKind
)

// Attr is one attribute with its prefix as written in the source.
type Attr struct {
	Prefix string
	Local  string
	Value  string
}

// Name returns the attribute name as written (prefix:local or local).
func (a Attr) Name() string {
	if a.Prefix == "" {
		return a.Local
	}
	return a.Prefix + ":" + a.Local
}

// Node is one node of the tree. Element nodes use Prefix/Local/Attrs/Children;
// all other kinds carry their payload in Text.
type Node struct {
	Kind     Kind
	Prefix   string
	Local    string
	Attrs    []Attr
	Children []*Node
	Text     string

	parent *Node
}

// NewElement creates a detached element node.
func NewElement(prefix, local string) *Node {
	return &Node{Kind: ElementKind, Prefix: prefix, Local: local}
}

// NewText creates a detached text node.
func NewText(text string) *Node {
	return &Node{Kind: TextKind, Text: text}
}

// Name returns the element name as written (prefix:local or local).
func (n *Node) Name() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

// Parent returns the parent element, or nil for a root or detached node.
func (n *Node) Parent() *Node { return n.parent }

// Namespace resolves the node's own prefix to a namespace URI by walking the
// in-scope xmlns declarations outward. Empty when unbound.
func (n *Node) Namespace() string { return n.ResolveNS(n.Prefix) }

// ResolveNS resolves a prefix against the xmlns declarations in scope at this
// node. The empty prefix resolves to the default namespace.
func (n *Node) ResolveNS(prefix string) string {
	for cur := n; cur != nil; cur = cur.parent {
		for _, a := range cur.Attrs {
			if prefix == "" {
				if a.Prefix == "" && a.Local == "xmlns" {
					return a.Value
				}
			} else if a.Prefix == "xmlns" && a.Local == prefix {
				return a.Value
			}
		}
	}
	return ""
}

// PrefixFor finds a prefix bound to the namespace among the xmlns
// declarations in scope at this node. ok is false when no binding exists.
func (n *Node) PrefixFor(ns string) (string, bool) {
	for cur := n; cur != nil; cur = cur.parent {
		for _, a := range cur.Attrs {
			if a.Prefix == "xmlns" && a.Value == ns {
				return a.Local, true
			}
			if a.Prefix == "" && a.Local == "xmlns" && a.Value == ns {
				return "", true
			}
		}
	}
	return "", false
}

// Is reports whether the node is an element with the given namespace URI and
// local name.
func (n *Node) Is(ns, local string) bool {
	return n.Kind == ElementKind && n.Local == local && n.Namespace() == ns
}

// Elements returns the element children in document order.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementKind {
			out = append(out, c)
		}
	}
	return out
}

// FindChild returns the first direct child element matching ns and local.
func (n *Node) FindChild(ns, local string) *Node {
	for _, c := range n.Children {
		if c.Is(ns, local) {
			return c
		}
	}
	return nil
}

// FindChildren returns every direct child element matching ns and local.
func (n *Node) FindChildren(ns, local string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Is(ns, local) {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the first descendant element (depth-first, document order)
// matching ns and local. The node itself is not considered.
func (n *Node) Find(ns, local string) *Node {
	for _, c := range n.Children {
		if c.Kind != ElementKind {
			continue
		}
		if c.Is(ns, local) {
			return c
		}
		if found := c.Find(ns, local); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant element matching ns and local in document
// order. The node itself is not considered.
func (n *Node) FindAll(ns, local string) []*Node {
	var out []*Node
	n.findAll(ns, local, &out)
	return out
}

func (n *Node) findAll(ns, local string, out *[]*Node) {
	for _, c := range n.Children {
		if c.Kind != ElementKind {
			continue
		}
		if c.Is(ns, local) {
			*out = append(*out, c)
		}
		c.findAll(ns, local, out)
	}
}

// Walk visits the node and every descendant element in document order. The
// visitor returning false prunes that subtree.
func (n *Node) Walk(visit func(*Node) bool) {
	if n.Kind != ElementKind || !visit(n) {
		return
	}
	for _, c := range n.Children {
		if c.Kind == ElementKind {
			c.Walk(visit)
		}
	}
}

// Attr returns the value of the first attribute with the given local name,
// regardless of prefix. Empty when absent.
func (n *Node) Attr(local string) string {
	for _, a := range n.Attrs {
		if a.Local == local {
			return a.Value
		}
	}
	return ""
}

// HasAttr reports whether an attribute with the given local name exists.
func (n *Node) HasAttr(local string) bool {
	for _, a := range n.Attrs {
		if a.Local == local {
			return true
		}
	}
	return false
}

// SetAttr sets an unprefixed attribute, replacing an existing one with the
// same local name.
func (n *Node) SetAttr(local, value string) {
	n.SetAttrNS("", local, value)
}

// SetAttrNS sets an attribute with an explicit prefix.
func (n *Node) SetAttrNS(prefix, local, value string) {
	for i, a := range n.Attrs {
		if a.Prefix == prefix && a.Local == local {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Prefix: prefix, Local: local, Value: value})
}

// RemoveAttr removes every attribute with the given local name.
func (n *Node) RemoveAttr(local string) {
	out := n.Attrs[:0]
	for _, a := range n.Attrs {
		if a.Local != local {
			out = append(out, a)
		}
	}
	n.Attrs = out
}

// AppendChild adds c as the last child, detaching it from any previous parent.
func (n *Node) AppendChild(c *Node) {
	c.Detach()
	c.parent = n
	n.Children = append(n.Children, c)
}

// InsertChildAt inserts c at index i among the children. Out-of-range indexes
// clamp to the ends.
func (n *Node) InsertChildAt(i int, c *Node) {
	c.Detach()
	if i < 0 {
		i = 0
	}
	if i > len(n.Children) {
		i = len(n.Children)
	}
	c.parent = n
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = c
}

// IndexOf returns the position of c among the children, or -1.
func (n *Node) IndexOf(c *Node) int {
	for i, cur := range n.Children {
		if cur == c {
			return i
		}
	}
	return -1
}

// RemoveChild detaches c from n. Returns false when c is not a child of n.
func (n *Node) RemoveChild(c *Node) bool {
	i := n.IndexOf(c)
	if i < 0 {
		return false
	}
	n.Children = append(n.Children[:i], n.Children[i+1:]...)
	c.parent = nil
	return true
}

// ReplaceChild puts repl in old's position, moving old's children onto repl.
// Returns false when old is not a child of n.
func (n *Node) ReplaceChild(old, repl *Node) bool {
	i := n.IndexOf(old)
	if i < 0 {
		return false
	}
	repl.Detach()
	repl.Children = old.Children
	for _, c := range repl.Children {
		c.parent = repl
	}
	old.Children = nil
	repl.parent = n
	n.Children[i] = repl
	old.parent = nil
	return true
}

// Detach removes the node from its parent, if any.
func (n *Node) Detach() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// Clone returns a deep copy of the node, detached from any parent.
func (n *Node) Clone() *Node {
	cp := &Node{
		Kind:   n.Kind,
		Prefix: n.Prefix,
		Local:  n.Local,
		Text:   n.Text,
	}
	if len(n.Attrs) > 0 {
		cp.Attrs = make([]Attr, len(n.Attrs))
		copy(cp.Attrs, n.Attrs)
	}
	for _, c := range n.Children {
		cc := c.Clone()
		cc.parent = cp
		cp.Children = append(cp.Children, cc)
	}
	return cp
}

// InnerText returns the concatenated text content of the subtree.
func (n *Node) InnerText() string {
	var out []byte
	n.collectText(&out)
	return string(out)
}

func (n *Node) collectText(out *[]byte) {
	if n.Kind == TextKind {
		*out = append(*out, n.Text...)
		return
	}
	for _, c := range n.Children {
		c.collectText(out)
	}
}

// Document is a parsed XML part: the root element plus any prolog and epilog
// nodes (declaration, comments) around it.
type Document struct {
	Prolog []*Node
	Root   *Node
	Epilog []*Node
}

// NewDocument wraps root in a document with the standard OOXML declaration.
func NewDocument(root *Node) *Document {
	return &Document{
		Prolog: []*Node{{
			Kind:  ProcInstKind,
			Local: "xml",
			Text:  `version="1.0" encoding="UTF-8" standalone="yes"`,
		}},
		Root: root,
	}
}
