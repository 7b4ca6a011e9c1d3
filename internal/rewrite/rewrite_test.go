package rewrite

import (
	"bytes"
	"errors"
	"testing"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/styletree"
	"github.com/starford/dagaz/internal/testutil"
	"github.com/starford/dagaz/internal/xmldom"
)

func srgb(val string) *xmldom.Node {
	n := xmldom.NewElement("a", "srgbClr")
	n.SetAttr("val", val)
	return n
}

// fillShape appends solidFill children to a part's first shape.
func fillShape(t *testing.T, d *deck.Deck, part string, colors ...*xmldom.Node) {
	t.Helper()
	doc, err := d.Doc(part)
	if err != nil {
		t.Fatalf("doc: %v", err)
	}
	sp := doc.Root.Find(deck.NSPresentation, "sp")
	spPr := sp.FindChild(deck.NSPresentation, "spPr")
	for _, c := range colors {
		fill := xmldom.NewElement("a", "solidFill")
		fill.AppendChild(c)
		spPr.AppendChild(fill)
	}
}

func countLocal(doc *xmldom.Document, local, val string) int {
	n := 0
	for _, el := range doc.Root.FindAll(deck.NSDrawing, local) {
		if val == "" || el.Attr("val") == val {
			n++
		}
	}
	return n
}

func TestNormalizeMatchesCaseInsensitively(t *testing.T) {
	d := deck.New(false)
	slides, _ := d.SlideParts()
	fillShape(t, d, slides[0], srgb("1f6bff"), srgb("1F6BFF"), srgb("1F6Bff"), srgb("1F6BFE"))

	res, err := Normalize(d, map[string]string{"#1F6BFF": "accent1"}, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if res.Total != 3 || res.Slides[0].Replaced != 3 {
		t.Errorf("replaced = %d, want 3", res.Total)
	}

	doc, _ := d.Doc(slides[0])
	if got := countLocal(doc, "schemeClr", "accent1"); got != 3 {
		t.Errorf("accent1 refs = %d, want 3", got)
	}
	if got := countLocal(doc, "srgbClr", "1F6BFE"); got != 1 {
		t.Errorf("near-miss literal should survive, found %d", got)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	d := deck.New(false)
	slides, _ := d.SlideParts()
	fillShape(t, d, slides[0], srgb("1F6BFF"))
	mapping := map[string]string{"1F6BFF": "accent1"}

	if _, err := Normalize(d, mapping, nil); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, err := d.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	re, _ := deck.Open(first)
	res, err := Normalize(re, mapping, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.Total != 0 {
		t.Errorf("second run replaced %d, want 0", res.Total)
	}
	second, err := re.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("second normalize changed the archive")
	}
}

func TestNormalizeTouchesOnlySelection(t *testing.T) {
	d := testutil.BuildDeck(t, 2)
	refs, _ := d.ResolveSelection(nil)
	fillShape(t, d, refs[0].Part, srgb("1F6BFF"))
	fillShape(t, d, refs[1].Part, srgb("1F6BFF"))

	sel, _ := parser.ParseSelection("1")
	res, err := Normalize(d, map[string]string{"1F6BFF": "accent1"}, sel)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("total = %d, want 1", res.Total)
	}

	doc2, _ := d.Doc(refs[1].Part)
	if countLocal(doc2, "srgbClr", "1F6BFF") != 1 {
		t.Error("slide 2 was touched outside the selection")
	}
}

func TestNormalizeRejectsBadInputBeforeMutating(t *testing.T) {
	d := deck.New(false)
	slides, _ := d.SlideParts()
	fillShape(t, d, slides[0], srgb("1F6BFF"))

	if _, err := Normalize(d, map[string]string{"1F6BFF": "accent9"}, nil); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("unknown role: err = %v, want ErrInvalid", err)
	}
	if _, err := Normalize(d, map[string]string{"red": "accent1"}, nil); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad hex: err = %v, want ErrInvalid", err)
	}

	doc, _ := d.Doc(slides[0])
	if countLocal(doc, "srgbClr", "1F6BFF") != 1 || countLocal(doc, "schemeClr", "accent1") != 0 {
		t.Error("failed normalize must not mutate the slide")
	}
}

func TestNormalizeRejectsBrokenColorMapAtomically(t *testing.T) {
	d := testutil.BuildDeck(t, 2)
	refs, _ := d.ResolveSelection(nil)
	fillShape(t, d, refs[0].Part, srgb("1F6BFF"))
	fillShape(t, d, refs[1].Part, srgb("1F6BFF"))

	masters, _ := d.MasterParts()
	masterDoc, _ := d.Doc(masters[0])
	masterDoc.Root.FindChild(deck.NSPresentation, "clrMap").RemoveAttr("tx2")

	_, err := Normalize(d, map[string]string{"1F6BFF": "accent1"}, nil)
	if !errors.Is(err, apperr.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
	for _, ref := range refs {
		doc, _ := d.Doc(ref.Part)
		if countLocal(doc, "schemeClr", "accent1") != 0 {
			t.Errorf("slide %d mutated despite pre-pass failure", ref.Number)
		}
	}
}

func TestNormalizePreservesColorChildren(t *testing.T) {
	d := deck.New(false)
	slides, _ := d.SlideParts()
	clr := srgb("1F6BFF")
	alpha := xmldom.NewElement("a", "alpha")
	alpha.SetAttr("val", "50000")
	clr.AppendChild(alpha)
	fillShape(t, d, slides[0], clr)

	if _, err := Normalize(d, map[string]string{"1F6BFF": "accent1"}, nil); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	doc, _ := d.Doc(slides[0])
	ref := doc.Root.Find(deck.NSDrawing, "schemeClr")
	if ref == nil || ref.FindChild(deck.NSDrawing, "alpha") == nil {
		t.Error("alpha modifier lost in replacement")
	}
}

func TestStripColorsFallsThroughToLayout(t *testing.T) {
	d := deck.New(false)
	slides, _ := d.SlideParts()
	layout, _ := d.LayoutOf(slides[0])

	// Layout paints the title ED7D31; the slide hard-codes over it.
	layoutDoc, _ := d.Doc(layout)
	sp := layoutDoc.Root.Find(deck.NSPresentation, "sp")
	fill := xmldom.NewElement("a", "solidFill")
	fill.AppendChild(srgb("ED7D31"))
	sp.FindChild(deck.NSPresentation, "spPr").AppendChild(fill)

	fillShape(t, d, slides[0], srgb("1F6BFF"))

	res, err := Strip(d, nil, StripOptions{Colors: true})
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	if res.Colors != 2 { // srgbClr plus its emptied solidFill
		t.Errorf("colors removed = %d, want 2", res.Colors)
	}

	slideDoc, _ := d.Doc(slides[0])
	if countLocal(slideDoc, "srgbClr", "") != 0 {
		t.Error("literal colors remain on the slide")
	}

	eff, err := styletree.New(d).EffectiveFill(slides[0], styletree.Placeholder{Type: "title", Idx: "0"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if eff.Value != "ED7D31" || eff.Scope != "layout" {
		t.Errorf("effective fill = %+v, want ED7D31 from layout", eff)
	}

	if countLocal(layoutDoc, "srgbClr", "ED7D31") != 1 {
		t.Error("strip must never touch the layout")
	}
}

func TestStripResetsMapOverride(t *testing.T) {
	d := deck.New(false)
	slides, _ := d.SlideParts()
	doc, _ := d.Doc(slides[0])
	ovr := doc.Root.FindChild(deck.NSPresentation, "clrMapOvr")
	ovr.Children = nil
	mapping := xmldom.NewElement("a", "overrideClrMapping")
	mapping.SetAttr("bg1", "dk1")
	ovr.AppendChild(mapping)

	res, err := Strip(d, nil, StripOptions{Colors: true})
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	if res.MapOverrides != 1 {
		t.Errorf("map overrides = %d, want 1", res.MapOverrides)
	}
	if ovr.FindChild(deck.NSDrawing, "masterClrMapping") == nil {
		t.Error("override should reset to masterClrMapping")
	}

	res, _ = Strip(d, nil, StripOptions{Colors: true})
	if res.MapOverrides != 0 {
		t.Error("second strip should find no override")
	}
}

func TestStripInlineAndFonts(t *testing.T) {
	d := deck.New(false)
	slides, _ := d.SlideParts()
	doc, _ := d.Doc(slides[0])

	rPr := doc.Root.Find(deck.NSDrawing, "rPr")
	latin := xmldom.NewElement("a", "latin")
	latin.SetAttr("typeface", "Comic Sans MS")
	rPr.AppendChild(latin)

	res, err := Strip(d, nil, StripOptions{Fonts: true})
	if err != nil {
		t.Fatalf("strip fonts: %v", err)
	}
	if res.Fonts != 1 {
		t.Errorf("fonts removed = %d, want 1", res.Fonts)
	}
	if doc.Root.Find(deck.NSDrawing, "latin") != nil {
		t.Error("latin element survived font strip")
	}

	res, err = Strip(d, nil, StripOptions{Inline: true})
	if err != nil {
		t.Fatalf("strip inline: %v", err)
	}
	if res.Inline == 0 {
		t.Error("inline strip removed nothing, expected rPr and lstStyle nodes")
	}
	if doc.Root.Find(deck.NSDrawing, "rPr") != nil {
		t.Error("rPr survived inline strip")
	}
}

func TestSanitizeFixesAndIsIdempotent(t *testing.T) {
	d := deck.New(false)
	slides, _ := d.SlideParts()
	masters, _ := d.MasterParts()

	masterDoc, _ := d.Doc(masters[0])
	masterDoc.Root.FindChild(deck.NSPresentation, "clrMap").Detach()

	slideDoc, _ := d.Doc(slides[0])
	txBody := slideDoc.Root.Find(deck.NSPresentation, "txBody")
	txBody.FindChild(deck.NSDrawing, "bodyPr").Detach()

	res, err := Sanitize(d)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if res.ClrMapAdded != 1 {
		t.Errorf("clrMap added = %d, want 1", res.ClrMapAdded)
	}
	if res.BodyPrAdded != 1 {
		t.Errorf("bodyPr added = %d, want 1", res.BodyPrAdded)
	}
	if res.BackgroundAdded != 1 {
		t.Errorf("background added = %d, want 1", res.BackgroundAdded)
	}

	if masterDoc.Root.FindChild(deck.NSPresentation, "clrMap") == nil {
		t.Error("master clrMap not restored")
	}
	elems := txBody.Elements()
	if len(elems) < 2 || elems[0].Local != "bodyPr" || elems[1].Local != "lstStyle" {
		t.Errorf("txBody order = %v", []string{elems[0].Local, elems[1].Local})
	}
	cSld := slideDoc.Root.FindChild(deck.NSPresentation, "cSld")
	if first := cSld.Elements()[0]; first.Local != "bg" {
		t.Errorf("first cSld element = %s, want bg", first.Local)
	}

	again, err := Sanitize(d)
	if err != nil {
		t.Fatalf("second sanitize: %v", err)
	}
	if again.Total() != 0 {
		t.Errorf("second run fixed %d, want 0 (%+v)", again.Total(), again)
	}
}

func TestSanitizeReordersLstStyle(t *testing.T) {
	d := deck.New(false)
	slides, _ := d.SlideParts()
	doc, _ := d.Doc(slides[0])
	txBody := doc.Root.Find(deck.NSPresentation, "txBody")
	lstStyle := txBody.FindChild(deck.NSDrawing, "lstStyle")
	lstStyle.Detach()
	txBody.InsertChildAt(0, lstStyle)

	res, err := Sanitize(d)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if res.LstStyleFixed != 1 {
		t.Errorf("lstStyle fixed = %d, want 1", res.LstStyleFixed)
	}
	elems := txBody.Elements()
	if elems[0].Local != "bodyPr" || elems[1].Local != "lstStyle" {
		t.Errorf("order = %s,%s", elems[0].Local, elems[1].Local)
	}
}
