// Package audit inspects slides for hard-coded styling: literal color
// counts, background overrides, and layout identity, grouped into
// signatures that cluster visually similar slides.
package audit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/xmldom"
)

// topColors is how many literal values a palette signature keeps.
const topColors = 5

// ColorCount is one literal color and how often it appears on a slide.
type ColorCount struct {
	Hex   string `json:"hex"`
	Count int    `json:"count"`
}

// SlideAudit is the per-slide result. Error is set when the slide's XML
// could not be parsed; the other fields are zero in that case.
type SlideAudit struct {
	Number        int          `json:"number"`
	Part          string       `json:"part"`
	Error         string       `json:"error,omitempty"`
	HardCoded     int          `json:"hard_coded"`
	SchemeDerived int          `json:"scheme_derived"`
	TopColors     []ColorCount `json:"top_colors,omitempty"`
	Background    string       `json:"background"`
	HasBackground bool         `json:"has_background"`
	HasClrMapOvr  bool         `json:"has_clr_map_ovr"`
	UsesGradient  bool         `json:"uses_gradient_or_image"`
	TextOverrides bool         `json:"text_overrides"`
	Layout        string       `json:"layout,omitempty"`
	Master        string       `json:"master,omitempty"`
}

// Report is a whole-deck audit.
type Report struct {
	SlidesTotal   int          `json:"slides_total"`
	SlidesAudited int          `json:"slides_audited"`
	Slides        []SlideAudit `json:"slides"`
}

// Group is one cluster of slides sharing a composite signature.
type Group struct {
	Key    string `json:"key"`
	Slides []int  `json:"slides"`
}

// Audit inspects the selected slides. A slide that fails to parse becomes
// an error entry without aborting the rest.
func Audit(d *deck.Deck, sel parser.Selection) (*Report, error) {
	refs, err := d.ResolveSelection(sel)
	if err != nil {
		return nil, err
	}
	all, err := d.SlideParts()
	if err != nil {
		return nil, err
	}

	report := &Report{SlidesTotal: len(all)}
	for _, ref := range refs {
		entry := auditSlide(d, ref)
		if entry.Error == "" {
			report.SlidesAudited++
		}
		report.Slides = append(report.Slides, entry)
	}
	return report, nil
}

func auditSlide(d *deck.Deck, ref deck.SlideRef) SlideAudit {
	entry := SlideAudit{Number: ref.Number, Part: ref.Part}

	doc, err := d.Doc(ref.Part)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}

	if layout, lErr := d.LayoutOf(ref.Part); lErr == nil {
		entry.Layout = layout
		if master, mErr := d.MasterOf(layout); mErr == nil {
			entry.Master = master
		}
	}

	cSld := doc.Root.FindChild(deck.NSPresentation, "cSld")
	if cSld == nil {
		entry.Background = "none"
		return entry
	}

	entry.Background, entry.HasBackground = backgroundSignature(cSld)
	entry.HasClrMapOvr = hasMapOverride(doc)

	spTree := cSld.FindChild(deck.NSPresentation, "spTree")
	if spTree == nil {
		return entry
	}

	counts := map[string]int{}
	spTree.Walk(func(n *xmldom.Node) bool {
		if n.Namespace() != deck.NSDrawing {
			return true
		}
		switch n.Local {
		case "srgbClr":
			entry.HardCoded++
			counts[strings.ToUpper(n.Attr("val"))]++
		case "sysClr":
			entry.HardCoded++
		case "schemeClr":
			entry.SchemeDerived++
		case "gradFill", "blipFill":
			entry.UsesGradient = true
		case "rPr", "defRPr":
			if n.FindChild(deck.NSDrawing, "solidFill") != nil {
				entry.TextOverrides = true
			}
		}
		return true
	})
	entry.TopColors = rankColors(counts)
	return entry
}

// rankColors orders a color multiset by count descending, hex ascending,
// keeping the top entries.
func rankColors(counts map[string]int) []ColorCount {
	out := make([]ColorCount, 0, len(counts))
	for hex, n := range counts {
		out = append(out, ColorCount{Hex: hex, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Hex < out[j].Hex
	})
	if len(out) > topColors {
		out = out[:topColors]
	}
	return out
}

// backgroundSignature classifies the slide background: none, ref for a
// theme-indexed bgRef, or the bgPr fill kind.
func backgroundSignature(cSld *xmldom.Node) (sig string, present bool) {
	bg := cSld.FindChild(deck.NSPresentation, "bg")
	if bg == nil {
		return "none", false
	}
	if bg.FindChild(deck.NSPresentation, "bgRef") != nil {
		return "ref", true
	}
	bgPr := bg.FindChild(deck.NSPresentation, "bgPr")
	if bgPr == nil {
		return "none", true
	}
	for _, el := range bgPr.Elements() {
		if el.Namespace() != deck.NSDrawing {
			continue
		}
		switch el.Local {
		case "solidFill":
			return "solid", true
		case "gradFill":
			return "grad", true
		case "blipFill":
			return "blip", true
		case "pattFill":
			return "patt", true
		case "noFill":
			return "none", true
		}
	}
	return "none", true
}

func hasMapOverride(doc *xmldom.Document) bool {
	ovr := doc.Root.FindChild(deck.NSPresentation, "clrMapOvr")
	return ovr != nil && ovr.FindChild(deck.NSDrawing, "overrideClrMapping") != nil
}

// Group clusters audited slides by the selected signature axes. Slides
// with parse errors carry no signatures and are left out. Groups are
// ordered by first occurrence.
func (r *Report) Group(axes []string) ([]Group, error) {
	if len(axes) == 0 {
		axes = parser.DefaultAxes
	}
	var groups []Group
	index := map[string]int{}
	for _, s := range r.Slides {
		if s.Error != "" {
			continue
		}
		key, err := s.signature(axes)
		if err != nil {
			return nil, err
		}
		if at, ok := index[key]; ok {
			groups[at].Slides = append(groups[at].Slides, s.Number)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, Group{Key: key, Slides: []int{s.Number}})
	}
	return groups, nil
}

func (s SlideAudit) signature(axes []string) (string, error) {
	parts := make([]string, 0, len(axes))
	for _, axis := range axes {
		switch axis {
		case parser.AxisPalette:
			parts = append(parts, s.paletteSignature())
		case parser.AxisBackground:
			parts = append(parts, s.Background)
		case parser.AxisLayout:
			parts = append(parts, s.layoutSignature())
		default:
			return "", fmt.Errorf("unknown audit axis %q: %w", axis, apperr.ErrInvalid)
		}
	}
	return strings.Join(parts, "|"), nil
}

func (s SlideAudit) paletteSignature() string {
	if len(s.TopColors) == 0 {
		return "-"
	}
	parts := make([]string, len(s.TopColors))
	for i, c := range s.TopColors {
		parts[i] = fmt.Sprintf("%s*%d", c.Hex, c.Count)
	}
	return strings.Join(parts, "+")
}

func (s SlideAudit) layoutSignature() string {
	if s.Layout == "" {
		return "-"
	}
	if s.Master == "" {
		return s.Layout
	}
	return s.Layout + "+" + s.Master
}
