// Package rewrite mutates slide styling: normalize swaps hard-coded colors
// for scheme references, strip removes local overrides so inheritance takes
// over, and sanitize repairs structural omissions. Every operation
// validates its inputs and the affected parts before the first mutation,
// so a failed call leaves the deck untouched.
package rewrite

import (
	"strings"

	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/theme"
	"github.com/starford/dagaz/internal/xmldom"
)

// SlideChanges counts the replacements made on one slide.
type SlideChanges struct {
	Number   int    `json:"number"`
	Part     string `json:"part"`
	Replaced int    `json:"replaced"`
}

// NormalizeResult reports a normalize run.
type NormalizeResult struct {
	Slides []SlideChanges `json:"slides"`
	Total  int            `json:"total"`
}

// Normalize replaces every literal color in the selected slides that
// matches a mapping key (case-insensitively) with a scheme reference to
// the mapped role. The mapping and every affected slide's color map are
// validated up front; nothing is mutated when any of it is bad. Running
// the same mapping twice changes nothing the second time.
func Normalize(d *deck.Deck, mapping map[string]string, sel parser.Selection) (*NormalizeResult, error) {
	roleFor := make(map[string]theme.Role, len(mapping))
	for rawHex, rawRole := range mapping {
		hex, err := parser.NormalizeHex(rawHex)
		if err != nil {
			return nil, err
		}
		role, err := theme.CanonicalRole(rawRole)
		if err != nil {
			return nil, err
		}
		roleFor[hex] = role
	}

	refs, err := d.ResolveSelection(sel)
	if err != nil {
		return nil, err
	}

	// Pre-pass: every selected slide must parse and carry a usable color
	// map before any slide is touched.
	for _, ref := range refs {
		if _, err := d.Doc(ref.Part); err != nil {
			return nil, err
		}
		if _, err := theme.ActiveMap(d, ref.Part); err != nil {
			return nil, err
		}
	}

	result := &NormalizeResult{}
	for _, ref := range refs {
		doc, err := d.Doc(ref.Part)
		if err != nil {
			return nil, err
		}
		replaced := normalizeDoc(doc, roleFor)
		if replaced > 0 {
			d.MarkDirty(ref.Part)
		}
		result.Slides = append(result.Slides, SlideChanges{Number: ref.Number, Part: ref.Part, Replaced: replaced})
		result.Total += replaced
	}
	return result, nil
}

func normalizeDoc(doc *xmldom.Document, roleFor map[string]theme.Role) int {
	cSld := doc.Root.FindChild(deck.NSPresentation, "cSld")
	if cSld == nil {
		return 0
	}

	type hit struct {
		node *xmldom.Node
		role theme.Role
	}
	var hits []hit
	cSld.Walk(func(n *xmldom.Node) bool {
		if n.Is(deck.NSDrawing, "srgbClr") {
			if role, ok := roleFor[strings.ToUpper(n.Attr("val"))]; ok {
				hits = append(hits, hit{node: n, role: role})
			}
		}
		return true
	})

	for _, h := range hits {
		repl := xmldom.NewElement(h.node.Prefix, "schemeClr")
		repl.SetAttr("val", string(h.role))
		h.node.Parent().ReplaceChild(h.node, repl)
	}
	return len(hits)
}
