package typo

import (
	"errors"
	"testing"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/xmldom"
)

func defRPrOf(t *testing.T, d *deck.Deck, part, styleLocal string) *xmldom.Node {
	t.Helper()
	doc, err := d.Doc(part)
	if err != nil {
		t.Fatalf("doc %s: %v", part, err)
	}
	style := doc.Root.Find(deck.NSPresentation, styleLocal)
	if style == nil {
		t.Fatalf("%s has no %s", part, styleLocal)
	}
	defRPr := style.Find(deck.NSDrawing, "defRPr")
	if defRPr == nil {
		t.Fatalf("%s %s has no defRPr", part, styleLocal)
	}
	return defRPr
}

func TestSetTextStylesUpdatesMasterAndPlaceholders(t *testing.T) {
	d := deck.New(false)
	bold := true

	res, err := SetTextStyles(d, Options{TitleSizePt: 40, TitleBold: &bold, BodySizePt: 20})
	if err != nil {
		t.Fatalf("SetTextStyles: %v", err)
	}
	if res.MasterStyles != 2 {
		t.Fatalf("master styles changed = %d, want 2", res.MasterStyles)
	}
	// Title and body placeholders on one layout and one slide.
	if res.Placeholders != 4 {
		t.Fatalf("placeholders changed = %d, want 4", res.Placeholders)
	}

	const master = "ppt/slideMasters/slideMaster1.xml"
	title := defRPrOf(t, d, master, "titleStyle")
	if title.Attr("sz") != "4000" || title.Attr("b") != "1" {
		t.Fatalf("master title defRPr sz=%s b=%s", title.Attr("sz"), title.Attr("b"))
	}
	body := defRPrOf(t, d, master, "bodyStyle")
	if body.Attr("sz") != "2000" {
		t.Fatalf("master body defRPr sz=%s", body.Attr("sz"))
	}
	if body.HasAttr("b") {
		t.Fatal("body bold set without being requested")
	}

	// The slide's title placeholder gained a lvl1pPr/defRPr in its lstStyle.
	slideDoc, err := d.Doc("ppt/slides/slide1.xml")
	if err != nil {
		t.Fatalf("slide doc: %v", err)
	}
	var got []string
	for _, defRPr := range slideDoc.Root.FindAll(deck.NSDrawing, "defRPr") {
		got = append(got, defRPr.Attr("sz"))
	}
	if len(got) != 2 || got[0] != "4000" || got[1] != "2000" {
		t.Fatalf("slide defRPr sizes = %v", got)
	}

	data, err := d.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	re, err := deck.Open(data)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if errs := re.Validate(); len(errs) > 0 {
		t.Fatalf("validate: %v", errs)
	}
	reTitle := defRPrOf(t, re, master, "titleStyle")
	if reTitle.Attr("sz") != "4000" {
		t.Fatalf("size lost on round trip: %s", reTitle.Attr("sz"))
	}
}

func TestSetTextStylesIsIdempotent(t *testing.T) {
	d := deck.New(false)
	bold := false

	first, err := SetTextStyles(d, Options{TitleSizePt: 36, BodySizePt: 18, TitleBold: &bold})
	if err != nil || first.Total() == 0 {
		t.Fatalf("first run = %+v, %v", first, err)
	}
	second, err := SetTextStyles(d, Options{TitleSizePt: 36, BodySizePt: 18, TitleBold: &bold})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Total() != 0 {
		t.Fatalf("second run changed %d nodes, want 0", second.Total())
	}
}

func TestSetTextStylesValidatesInput(t *testing.T) {
	d := deck.New(false)

	if _, err := SetTextStyles(d, Options{}); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("empty options: want ErrInvalid, got %v", err)
	}
	if _, err := SetTextStyles(d, Options{TitleSizePt: -4}); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("negative size: want ErrInvalid, got %v", err)
	}
	if _, err := SetTextStyles(d, Options{BodySizePt: 5000}); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("huge size: want ErrInvalid, got %v", err)
	}
}
