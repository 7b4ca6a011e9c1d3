// Package styletree models the color references slides, layouts, and
// masters carry, and resolves them to effective RGB values by walking the
// slide→layout→master inheritance chain through the active color map and
// the theme scheme.
package styletree

import (
	"strings"

	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/xmldom"
)

// Kind tags the three color reference variants a style node can hold.
type Kind int

const (
	// Literal is a hard-coded srgbClr value.
	Literal Kind = iota
	// System is a sysClr reference with its last rendered value.
	System
	// RoleRef is a schemeClr reference resolved through the color map.
	RoleRef
)

// Node is one color reference as written in a part.
type Node struct {
	Kind     Kind
	RGB      string // Literal: uppercase RRGGBB
	SysName  string // System: OS color name
	Fallback string // System: lastClr, may be empty
	Role     string // RoleRef: raw schemeClr val
}

// Ref renders the node the way error reports and audits describe it.
func (n Node) Ref() string {
	switch n.Kind {
	case Literal:
		return "srgbClr " + n.RGB
	case System:
		return "sysClr " + n.SysName
	default:
		return "schemeClr " + n.Role
	}
}

// ParseColorNode classifies a color-choice element. Color forms outside the
// three variants (scrgbClr, prstClr, hslClr) report ok=false.
func ParseColorNode(el *xmldom.Node) (Node, bool) {
	if el.Namespace() != deck.NSDrawing {
		return Node{}, false
	}
	switch el.Local {
	case "srgbClr":
		return Node{Kind: Literal, RGB: strings.ToUpper(el.Attr("val"))}, true
	case "sysClr":
		return Node{Kind: System, SysName: el.Attr("val"), Fallback: strings.ToUpper(el.Attr("lastClr"))}, true
	case "schemeClr":
		return Node{Kind: RoleRef, Role: el.Attr("val")}, true
	}
	return Node{}, false
}

// FirstColorNode finds the first classifiable color element directly under
// parent (typically a solidFill).
func FirstColorNode(parent *xmldom.Node) (Node, bool) {
	for _, el := range parent.Elements() {
		if n, ok := ParseColorNode(el); ok {
			return n, true
		}
	}
	return Node{}, false
}

// FillState describes what a shape's properties say about its fill.
type FillState int

const (
	// FillAbsent means no fill element at all; inheritance continues.
	FillAbsent FillState = iota
	// FillOpaque means a fill exists but is not a flat resolvable color
	// (gradient, picture, pattern, noFill, or an exotic color form).
	FillOpaque
	// FillSolid means a solidFill with a classifiable color.
	FillSolid
)

var opaqueFills = map[string]bool{
	"noFill": true, "gradFill": true, "blipFill": true, "pattFill": true, "grpFill": true,
}

// ShapeFill inspects a shape's spPr for its fill.
func ShapeFill(sp *xmldom.Node) (Node, FillState) {
	spPr := sp.FindChild(deck.NSPresentation, "spPr")
	if spPr == nil {
		return Node{}, FillAbsent
	}
	for _, el := range spPr.Elements() {
		if el.Namespace() != deck.NSDrawing {
			continue
		}
		if el.Local == "solidFill" {
			if n, ok := FirstColorNode(el); ok {
				return n, FillSolid
			}
			return Node{}, FillOpaque
		}
		if opaqueFills[el.Local] {
			return Node{}, FillOpaque
		}
	}
	return Node{}, FillAbsent
}

// Placeholder identifies a placeholder shape for cross-scope matching.
// Type and Idx are normalized to the schema defaults ("obj" and "0") when
// the attributes are absent.
type Placeholder struct {
	Type string
	Idx  string
}

// PlaceholderOf reads the placeholder identity off an sp element.
func PlaceholderOf(sp *xmldom.Node) (Placeholder, bool) {
	nv := sp.FindChild(deck.NSPresentation, "nvSpPr")
	if nv == nil {
		return Placeholder{}, false
	}
	nvPr := nv.FindChild(deck.NSPresentation, "nvPr")
	if nvPr == nil {
		return Placeholder{}, false
	}
	ph := nvPr.FindChild(deck.NSPresentation, "ph")
	if ph == nil {
		return Placeholder{}, false
	}
	p := Placeholder{Type: ph.Attr("type"), Idx: ph.Attr("idx")}
	if p.Type == "" {
		p.Type = "obj"
	}
	if p.Idx == "" {
		p.Idx = "0"
	}
	return p, true
}

// titleFamily groups the placeholder types that inherit from each other.
var titleFamily = map[string]bool{"title": true, "ctrTitle": true}

// TypeMatches reports whether two placeholder types correspond across
// scopes. Title and centered title are one family.
func TypeMatches(a, b string) bool {
	if a == b {
		return true
	}
	return titleFamily[a] && titleFamily[b]
}

// Placeholders lists the placeholder shapes of a part's shape tree in
// document order.
func Placeholders(doc *xmldom.Document) []*xmldom.Node {
	cSld := doc.Root.FindChild(deck.NSPresentation, "cSld")
	if cSld == nil {
		return nil
	}
	spTree := cSld.FindChild(deck.NSPresentation, "spTree")
	if spTree == nil {
		return nil
	}
	var out []*xmldom.Node
	for _, sp := range spTree.FindChildren(deck.NSPresentation, "sp") {
		if _, ok := PlaceholderOf(sp); ok {
			out = append(out, sp)
		}
	}
	return out
}

// MatchPlaceholder finds the shape matching want within a part: an index
// match is preferred over a type match at the same scope.
func MatchPlaceholder(doc *xmldom.Document, want Placeholder) *xmldom.Node {
	shapes := Placeholders(doc)
	for _, sp := range shapes {
		ph, _ := PlaceholderOf(sp)
		if ph.Idx == want.Idx {
			return sp
		}
	}
	for _, sp := range shapes {
		ph, _ := PlaceholderOf(sp)
		if TypeMatches(ph.Type, want.Type) {
			return sp
		}
	}
	return nil
}
