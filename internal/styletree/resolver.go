package styletree

import (
	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/theme"
	"github.com/starford/dagaz/internal/xmldom"
)

// Resolution is the outcome of resolving one style node. Unresolved is not
// an error: it means the host application default applies.
type Resolution struct {
	Value      string `json:"value,omitempty"`
	Unresolved bool   `json:"unresolved,omitempty"`
	Ref        string `json:"ref,omitempty"`
	Scope      string `json:"scope,omitempty"`
}

// Warning converts an unresolved resolution into its report form. Nil for
// resolved values.
func (r Resolution) Warning() *apperr.UnresolvedStyleWarning {
	if !r.Unresolved {
		return nil
	}
	return &apperr.UnresolvedStyleWarning{Ref: r.Ref}
}

func unresolved(ref string) Resolution {
	return Resolution{Unresolved: true, Ref: ref}
}

// Resolver computes effective styles for one deck. Results are a pure
// function of the deck's current state; create a fresh resolver per
// operation rather than holding one across edits.
type Resolver struct {
	deck *deck.Deck
}

// New wraps a deck for style resolution.
func New(d *deck.Deck) *Resolver {
	return &Resolver{deck: d}
}

// ResolveNode resolves a single color reference in the context of the
// slide it renders on. Literals resolve to themselves, system colors to
// their last rendered value, and role references through the slide's
// active color map into the theme scheme. phClr has no meaning outside a
// format-scheme placeholder and reports Unresolved.
func (r *Resolver) ResolveNode(slide string, n Node) (Resolution, error) {
	switch n.Kind {
	case Literal:
		if n.RGB == "" {
			return unresolved(n.Ref()), nil
		}
		return Resolution{Value: n.RGB, Ref: n.Ref()}, nil

	case System:
		if n.Fallback == "" {
			return unresolved(n.Ref()), nil
		}
		return Resolution{Value: n.Fallback, Ref: n.Ref()}, nil

	default:
		if n.Role == "phClr" {
			return unresolved(n.Ref()), nil
		}
		role, err := theme.CanonicalRole(n.Role)
		if err != nil {
			// Unknown value written in the document, not user input.
			return unresolved(n.Ref()), nil
		}
		cm, err := theme.ActiveMap(r.deck, slide)
		if err != nil {
			return Resolution{}, err
		}
		slot, ok := cm.SlotFor(role)
		if !ok {
			return unresolved(n.Ref()), nil
		}
		scheme, err := r.schemeFor(slide)
		if err != nil {
			return Resolution{}, err
		}
		c, ok := scheme.Colors[slot]
		if !ok || c.Hex == "" {
			return unresolved(n.Ref()), nil
		}
		return Resolution{Value: c.Hex, Ref: n.Ref()}, nil
	}
}

// schemeFor loads the color scheme of the theme governing a slide,
// falling back to the deck's primary theme when the chain is incomplete.
func (r *Resolver) schemeFor(slide string) (*theme.Scheme, error) {
	part := ""
	if layout, err := r.deck.LayoutOf(slide); err == nil {
		if master, err := r.deck.MasterOf(layout); err == nil {
			if t, err := r.deck.ThemeOf(master); err == nil {
				part = t
			}
		}
	}
	if part == "" {
		t, err := r.deck.ThemePart()
		if err != nil {
			return nil, err
		}
		part = t
	}
	doc, err := r.deck.Doc(part)
	if err != nil {
		return nil, err
	}
	return theme.ParseScheme(doc)
}

// scope is one step of the inheritance walk.
type scope struct {
	name string
	part string
}

// scopeChain returns the slide, layout, and master scopes that exist for a
// slide. Broken links shorten the chain instead of failing: resolution then
// reports Unresolved for values only an absent scope could supply.
func (r *Resolver) scopeChain(slide string) []scope {
	chain := []scope{{name: "slide", part: slide}}
	layout, err := r.deck.LayoutOf(slide)
	if err != nil {
		return chain
	}
	chain = append(chain, scope{name: "layout", part: layout})
	master, err := r.deck.MasterOf(layout)
	if err != nil {
		return chain
	}
	return append(chain, scope{name: "master", part: master})
}

// EffectiveFill resolves the fill of the placeholder identified by want as
// rendered on slide: the nearest scope with a fill wins, and a non-solid
// fill stops inheritance without producing a value.
func (r *Resolver) EffectiveFill(slide string, want Placeholder) (Resolution, error) {
	for _, sc := range r.scopeChain(slide) {
		doc, err := r.deck.Doc(sc.part)
		if err != nil {
			return Resolution{}, err
		}
		sp := MatchPlaceholder(doc, want)
		if sp == nil {
			continue
		}
		node, state := ShapeFill(sp)
		switch state {
		case FillAbsent:
			continue
		case FillOpaque:
			res := unresolved("non-solid fill")
			res.Scope = sc.name
			return res, nil
		default:
			res, err := r.ResolveNode(slide, node)
			if err != nil {
				return Resolution{}, err
			}
			res.Scope = sc.name
			return res, nil
		}
	}
	return unresolved("fill absent at every scope"), nil
}

// EffectiveTextColor resolves the first text color of the placeholder
// identified by want: the slide's first explicit run color, then the
// layout's list-style default, then the master's text styles.
func (r *Resolver) EffectiveTextColor(slide string, want Placeholder) (Resolution, error) {
	for _, sc := range r.scopeChain(slide) {
		doc, err := r.deck.Doc(sc.part)
		if err != nil {
			return Resolution{}, err
		}

		var node Node
		found := false
		switch sc.name {
		case "slide":
			if sp := MatchPlaceholder(doc, want); sp != nil {
				node, found = runColor(sp)
			}
		case "layout":
			if sp := MatchPlaceholder(doc, want); sp != nil {
				node, found = listStyleColor(sp)
			}
		default:
			node, found = masterStyleColor(doc, want)
		}
		if !found {
			continue
		}
		res, err := r.ResolveNode(slide, node)
		if err != nil {
			return Resolution{}, err
		}
		res.Scope = sc.name
		return res, nil
	}
	return unresolved("text color absent at every scope"), nil
}

// runColor finds the first explicit run color in a shape's text body.
func runColor(sp *xmldom.Node) (Node, bool) {
	txBody := sp.FindChild(deck.NSPresentation, "txBody")
	if txBody == nil {
		return Node{}, false
	}
	for _, rPr := range txBody.FindAll(deck.NSDrawing, "rPr") {
		if fill := rPr.FindChild(deck.NSDrawing, "solidFill"); fill != nil {
			if n, ok := FirstColorNode(fill); ok {
				return n, true
			}
		}
	}
	return Node{}, false
}

// listStyleColor finds the level-1 default run color in a shape's local
// list style.
func listStyleColor(sp *xmldom.Node) (Node, bool) {
	txBody := sp.FindChild(deck.NSPresentation, "txBody")
	if txBody == nil {
		return Node{}, false
	}
	lstStyle := txBody.FindChild(deck.NSDrawing, "lstStyle")
	if lstStyle == nil {
		return Node{}, false
	}
	return defRPrColor(lstStyle.FindChild(deck.NSDrawing, "lvl1pPr"))
}

// masterStyleColor reads the master's txStyles entry for the placeholder
// family.
func masterStyleColor(doc *xmldom.Document, want Placeholder) (Node, bool) {
	txStyles := doc.Root.FindChild(deck.NSPresentation, "txStyles")
	if txStyles == nil {
		return Node{}, false
	}
	styleName := "otherStyle"
	switch {
	case titleFamily[want.Type]:
		styleName = "titleStyle"
	case want.Type == "body":
		styleName = "bodyStyle"
	}
	style := txStyles.FindChild(deck.NSPresentation, styleName)
	if style == nil {
		return Node{}, false
	}
	return defRPrColor(style.FindChild(deck.NSDrawing, "lvl1pPr"))
}

func defRPrColor(pPr *xmldom.Node) (Node, bool) {
	if pPr == nil {
		return Node{}, false
	}
	defRPr := pPr.FindChild(deck.NSDrawing, "defRPr")
	if defRPr == nil {
		return Node{}, false
	}
	fill := defRPr.FindChild(deck.NSDrawing, "solidFill")
	if fill == nil {
		return Node{}, false
	}
	return FirstColorNode(fill)
}
