package rewrite

import (
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/xmldom"
)

// StripOptions selects what strip removes. Zero options strip nothing;
// callers default to Colors.
type StripOptions struct {
	// Colors removes literal srgbClr/sysClr nodes from the shape tree and
	// the slide's color-map override.
	Colors bool
	// Fonts removes explicit typeface elements so fonts fall through to
	// the theme.
	Fonts bool
	// Inline removes run and paragraph formatting wholesale: rPr, defRPr,
	// lstStyle, and bullet styling.
	Inline bool
}

// StripSlide counts what was removed from one slide.
type StripSlide struct {
	Number      int    `json:"number"`
	Part        string `json:"part"`
	Colors      int    `json:"colors,omitempty"`
	Fonts       int    `json:"fonts,omitempty"`
	Inline      int    `json:"inline,omitempty"`
	MapOverride bool   `json:"map_override_removed,omitempty"`
}

// StripResult reports a strip run.
type StripResult struct {
	Slides       []StripSlide `json:"slides"`
	Colors       int          `json:"colors"`
	Fonts        int          `json:"fonts"`
	Inline       int          `json:"inline"`
	MapOverrides int          `json:"map_overrides"`
}

var inlineLocals = map[string]bool{
	"rPr": true, "defRPr": true, "lstStyle": true,
	"buClr": true, "buSzPct": true, "buSzPts": true,
	"buFont": true, "buChar": true, "buAutoNum": true,
}

var fontLocals = map[string]bool{
	"latin": true, "ea": true, "cs": true, "sym": true,
}

// Strip removes local styling overrides from the selected slides so
// resolution falls through to the layout and master. Layouts and masters
// are never touched. Slides that fail to parse fail the whole call before
// any mutation.
func Strip(d *deck.Deck, sel parser.Selection, opts StripOptions) (*StripResult, error) {
	refs, err := d.ResolveSelection(sel)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if _, err := d.Doc(ref.Part); err != nil {
			return nil, err
		}
	}

	result := &StripResult{}
	for _, ref := range refs {
		doc, _ := d.Doc(ref.Part)
		entry := StripSlide{Number: ref.Number, Part: ref.Part}

		spTree := shapeTree(doc)
		if spTree != nil {
			if opts.Inline {
				entry.Inline = removeMatching(spTree, func(n *xmldom.Node) bool {
					return n.Namespace() == deck.NSDrawing && inlineLocals[n.Local]
				})
			}
			if opts.Colors {
				entry.Colors = removeMatching(spTree, func(n *xmldom.Node) bool {
					return n.Namespace() == deck.NSDrawing && (n.Local == "srgbClr" || n.Local == "sysClr")
				})
				entry.Colors += dropEmptiedFills(spTree)
			}
			if opts.Fonts {
				entry.Fonts = removeMatching(spTree, func(n *xmldom.Node) bool {
					return n.Namespace() == deck.NSDrawing && fontLocals[n.Local]
				})
			}
		}
		if opts.Colors {
			entry.MapOverride = dropMapOverride(doc)
		}

		if entry.Colors+entry.Fonts+entry.Inline > 0 || entry.MapOverride {
			d.MarkDirty(ref.Part)
		}
		result.Slides = append(result.Slides, entry)
		result.Colors += entry.Colors
		result.Fonts += entry.Fonts
		result.Inline += entry.Inline
		if entry.MapOverride {
			result.MapOverrides++
		}
	}
	return result, nil
}

func shapeTree(doc *xmldom.Document) *xmldom.Node {
	cSld := doc.Root.FindChild(deck.NSPresentation, "cSld")
	if cSld == nil {
		return nil
	}
	return cSld.FindChild(deck.NSPresentation, "spTree")
}

// removeMatching detaches every descendant the predicate accepts and
// returns how many were removed.
func removeMatching(root *xmldom.Node, match func(*xmldom.Node) bool) int {
	var hits []*xmldom.Node
	root.Walk(func(n *xmldom.Node) bool {
		if n != root && match(n) {
			hits = append(hits, n)
			return false
		}
		return true
	})
	for _, n := range hits {
		n.Detach()
	}
	return len(hits)
}

// dropEmptiedFills removes solidFill and gradient-stop elements whose
// color child was just stripped away.
func dropEmptiedFills(root *xmldom.Node) int {
	removed := 0
	for {
		var hits []*xmldom.Node
		root.Walk(func(n *xmldom.Node) bool {
			if n.Namespace() == deck.NSDrawing && (n.Local == "solidFill" || n.Local == "gs") && len(n.Elements()) == 0 {
				hits = append(hits, n)
				return false
			}
			return true
		})
		if len(hits) == 0 {
			return removed
		}
		for _, n := range hits {
			n.Detach()
		}
		removed += len(hits)
	}
}

// dropMapOverride resets a slide's color-map override back to the master
// mapping. A masterClrMapping marker is already inert and stays.
func dropMapOverride(doc *xmldom.Document) bool {
	ovr := doc.Root.FindChild(deck.NSPresentation, "clrMapOvr")
	if ovr == nil {
		return false
	}
	mapping := ovr.FindChild(deck.NSDrawing, "overrideClrMapping")
	if mapping == nil {
		return false
	}
	ovr.ReplaceChild(mapping, xmldom.NewElement(mapping.Prefix, "masterClrMapping"))
	return true
}
