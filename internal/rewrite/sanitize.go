package rewrite

import (
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/theme"
	"github.com/starford/dagaz/internal/xmldom"
)

// SanitizeResult counts the structural fixes applied.
type SanitizeResult struct {
	ClrMapAdded     int `json:"clr_map_added"`
	BodyPrAdded     int `json:"body_pr_added"`
	LstStyleFixed   int `json:"lst_style_fixed"`
	BackgroundAdded int `json:"background_added"`
}

// Total is the number of fixes applied.
func (r *SanitizeResult) Total() int {
	return r.ClrMapAdded + r.BodyPrAdded + r.LstStyleFixed + r.BackgroundAdded
}

// Sanitize repairs structural omissions PowerPoint tolerates but strict
// readers reject: masters get a default clrMap, every txBody gets a bodyPr
// and an lstStyle in schema order, and slides without a background get an
// explicit no-fill one. Running it twice fixes nothing the second time.
func Sanitize(d *deck.Deck) (*SanitizeResult, error) {
	result := &SanitizeResult{}

	masters, err := d.MasterParts()
	if err != nil {
		return nil, err
	}
	for _, master := range masters {
		doc, err := d.Doc(master)
		if err != nil {
			return nil, err
		}
		changed := false
		if ensureClrMap(doc) {
			result.ClrMapAdded++
			changed = true
		}
		if fixed := fixTextBodies(doc, result); fixed {
			changed = true
		}
		if changed {
			d.MarkDirty(master)
		}
	}

	layouts, err := d.LayoutParts()
	if err != nil {
		return nil, err
	}
	for _, layout := range layouts {
		doc, err := d.Doc(layout)
		if err != nil {
			return nil, err
		}
		if fixTextBodies(doc, result) {
			d.MarkDirty(layout)
		}
	}

	slides, err := d.SlideParts()
	if err != nil {
		return nil, err
	}
	for _, slide := range slides {
		doc, err := d.Doc(slide)
		if err != nil {
			return nil, err
		}
		changed := false
		if ensureBackground(doc) {
			result.BackgroundAdded++
			changed = true
		}
		if fixTextBodies(doc, result) {
			changed = true
		}
		if changed {
			d.MarkDirty(slide)
		}
	}
	return result, nil
}

// ensureClrMap inserts a default clrMap right after cSld when a master
// lacks one.
func ensureClrMap(doc *xmldom.Document) bool {
	root := doc.Root
	if root.FindChild(deck.NSPresentation, "clrMap") != nil {
		return false
	}
	clrMap := xmldom.NewElement(root.Prefix, "clrMap")
	theme.DefaultColorMap().Apply(clrMap)

	if cSld := root.FindChild(deck.NSPresentation, "cSld"); cSld != nil {
		root.InsertChildAt(root.IndexOf(cSld)+1, clrMap)
	} else {
		root.InsertChildAt(0, clrMap)
	}
	return true
}

// ensureBackground gives a slide an explicit transparent background as the
// first element of cSld.
func ensureBackground(doc *xmldom.Document) bool {
	cSld := doc.Root.FindChild(deck.NSPresentation, "cSld")
	if cSld == nil || cSld.FindChild(deck.NSPresentation, "bg") != nil {
		return false
	}
	bg := xmldom.NewElement(cSld.Prefix, "bg")
	bgPr := xmldom.NewElement(cSld.Prefix, "bgPr")
	bgPr.AppendChild(xmldom.NewElement(drawingPrefix(cSld), "noFill"))
	bg.AppendChild(bgPr)
	cSld.InsertChildAt(firstElementIndex(cSld), bg)
	return true
}

// fixTextBodies ensures every txBody has bodyPr first and lstStyle right
// after it, creating or moving as needed.
func fixTextBodies(doc *xmldom.Document, result *SanitizeResult) bool {
	changed := false
	for _, txBody := range doc.Root.FindAll(deck.NSPresentation, "txBody") {
		aPrefix := drawingPrefix(txBody)

		bodyPr := txBody.FindChild(deck.NSDrawing, "bodyPr")
		if bodyPr == nil {
			bodyPr = xmldom.NewElement(aPrefix, "bodyPr")
			txBody.InsertChildAt(firstElementIndex(txBody), bodyPr)
			result.BodyPrAdded++
			changed = true
		}

		lstStyle := txBody.FindChild(deck.NSDrawing, "lstStyle")
		if lstStyle == nil {
			lstStyle = xmldom.NewElement(aPrefix, "lstStyle")
			txBody.InsertChildAt(txBody.IndexOf(bodyPr)+1, lstStyle)
			result.LstStyleFixed++
			changed = true
			continue
		}
		if txBody.IndexOf(lstStyle) < txBody.IndexOf(bodyPr) {
			lstStyle.Detach()
			txBody.InsertChildAt(txBody.IndexOf(bodyPr)+1, lstStyle)
			result.LstStyleFixed++
			changed = true
		}
	}
	return changed
}

// drawingPrefix guesses the prefix bound to the drawing namespace in
// scope, defaulting to "a".
func drawingPrefix(n *xmldom.Node) string {
	if prefix, ok := n.PrefixFor(deck.NSDrawing); ok {
		return prefix
	}
	return "a"
}

// firstElementIndex returns the index of the first element child, or the
// child count when there are none.
func firstElementIndex(n *xmldom.Node) int {
	for i, c := range n.Children {
		if c.Kind == xmldom.ElementKind {
			return i
		}
	}
	return len(n.Children)
}
