// Package typo applies bulk text styling: master text styles and the
// title/body placeholder list styles across layouts and slides.
package typo

import (
	"fmt"
	"math"
	"strconv"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/styletree"
	"github.com/starford/dagaz/internal/xmldom"
)

// Options selects which run properties to rewrite. Zero sizes and nil bold
// flags leave the corresponding family untouched.
type Options struct {
	TitleSizePt float64
	BodySizePt  float64
	TitleBold   *bool
	BodyBold    *bool
}

func (o Options) titleWanted() bool { return o.TitleSizePt != 0 || o.TitleBold != nil }
func (o Options) bodyWanted() bool  { return o.BodySizePt != 0 || o.BodyBold != nil }

// Result counts the style nodes SetTextStyles actually changed.
type Result struct {
	MasterStyles int `json:"master_styles"`
	Placeholders int `json:"placeholders"`
}

// Total sums the changes.
func (r Result) Total() int { return r.MasterStyles + r.Placeholders }

// SetTextStyles rewrites level-1 default run properties deck-wide: the
// master txStyles blocks, then every title and body placeholder on layouts
// and slides. Sizes are written in hundredths of a point.
func SetTextStyles(d *deck.Deck, opts Options) (Result, error) {
	var res Result
	if !opts.titleWanted() && !opts.bodyWanted() {
		return res, fmt.Errorf("no text style changes requested: %w", apperr.ErrInvalid)
	}
	for _, size := range []float64{opts.TitleSizePt, opts.BodySizePt} {
		if size < 0 || size > 4000 {
			return res, fmt.Errorf("point size %g out of range: %w", size, apperr.ErrInvalid)
		}
	}

	masters, err := d.MasterParts()
	if err != nil {
		return res, err
	}
	for _, master := range masters {
		doc, err := d.Doc(master)
		if err != nil {
			return res, err
		}
		changed := 0
		if txStyles := doc.Root.FindChild(deck.NSPresentation, "txStyles"); txStyles != nil {
			if opts.titleWanted() {
				if style := txStyles.FindChild(deck.NSPresentation, "titleStyle"); style != nil {
					if applyToStyle(style, opts.TitleSizePt, opts.TitleBold) {
						changed++
					}
				}
			}
			if opts.bodyWanted() {
				if style := txStyles.FindChild(deck.NSPresentation, "bodyStyle"); style != nil {
					if applyToStyle(style, opts.BodySizePt, opts.BodyBold) {
						changed++
					}
				}
			}
		}
		if changed > 0 {
			res.MasterStyles += changed
			d.MarkDirty(master)
		}
	}

	layouts, err := d.LayoutParts()
	if err != nil {
		return res, err
	}
	slides, err := d.SlideParts()
	if err != nil {
		return res, err
	}
	for _, part := range append(layouts, slides...) {
		doc, err := d.Doc(part)
		if err != nil {
			return res, err
		}
		changed := 0
		for _, sp := range styletree.Placeholders(doc) {
			ph, _ := styletree.PlaceholderOf(sp)
			switch {
			case styletree.TypeMatches(ph.Type, "title") && opts.titleWanted():
				if applyToShape(sp, opts.TitleSizePt, opts.TitleBold) {
					changed++
				}
			case ph.Type == "body" && opts.bodyWanted():
				if applyToShape(sp, opts.BodySizePt, opts.BodyBold) {
					changed++
				}
			}
		}
		if changed > 0 {
			res.Placeholders += changed
			d.MarkDirty(part)
		}
	}
	return res, nil
}

// applyToStyle updates the lvl1pPr defRPr under a master style block.
func applyToStyle(style *xmldom.Node, sizePt float64, bold *bool) bool {
	defRPr := ensureDefRPr(style)
	return setRunProps(defRPr, sizePt, bold)
}

// applyToShape updates the lvl1pPr defRPr of a placeholder's list style.
func applyToShape(sp *xmldom.Node, sizePt float64, bold *bool) bool {
	txBody := sp.FindChild(deck.NSPresentation, "txBody")
	if txBody == nil {
		return false
	}
	lstStyle := txBody.FindChild(deck.NSDrawing, "lstStyle")
	if lstStyle == nil {
		lstStyle = xmldom.NewElement(drawingPrefix(txBody), "lstStyle")
		idx := 0
		if bodyPr := txBody.FindChild(deck.NSDrawing, "bodyPr"); bodyPr != nil {
			idx = txBody.IndexOf(bodyPr) + 1
		}
		txBody.InsertChildAt(idx, lstStyle)
	}
	defRPr := ensureDefRPr(lstStyle)
	return setRunProps(defRPr, sizePt, bold)
}

// ensureDefRPr walks container>lvl1pPr>defRPr, creating what is missing.
func ensureDefRPr(container *xmldom.Node) *xmldom.Node {
	aPrefix := drawingPrefix(container)
	lvl1 := container.FindChild(deck.NSDrawing, "lvl1pPr")
	if lvl1 == nil {
		lvl1 = xmldom.NewElement(aPrefix, "lvl1pPr")
		container.InsertChildAt(0, lvl1)
	}
	defRPr := lvl1.FindChild(deck.NSDrawing, "defRPr")
	if defRPr == nil {
		defRPr = xmldom.NewElement(aPrefix, "defRPr")
		lvl1.AppendChild(defRPr)
	}
	return defRPr
}

func setRunProps(defRPr *xmldom.Node, sizePt float64, bold *bool) bool {
	changed := false
	if sizePt > 0 {
		sz := strconv.Itoa(int(math.Round(sizePt * 100)))
		if defRPr.Attr("sz") != sz {
			defRPr.SetAttr("sz", sz)
			changed = true
		}
	}
	if bold != nil {
		b := "0"
		if *bold {
			b = "1"
		}
		if defRPr.Attr("b") != b {
			defRPr.SetAttr("b", b)
			changed = true
		}
	}
	return changed
}

func drawingPrefix(n *xmldom.Node) string {
	if prefix, ok := n.PrefixFor(deck.NSDrawing); ok {
		return prefix
	}
	return "a"
}
