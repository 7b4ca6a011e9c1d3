package audit

import (
	"strings"
	"testing"

	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/testutil"
	"github.com/starford/dagaz/internal/xmldom"
)

// paintSlide adds fills to the title shape of a slide part: literal hexes
// each as its own solidFill, then scheme references.
func paintSlide(t *testing.T, d *deck.Deck, part string, hexes []string, schemes []string) {
	t.Helper()
	doc, err := d.Doc(part)
	if err != nil {
		t.Fatalf("doc: %v", err)
	}
	sp := doc.Root.Find(deck.NSPresentation, "sp")
	spPr := sp.FindChild(deck.NSPresentation, "spPr")
	for _, hex := range hexes {
		fill := xmldom.NewElement("a", "solidFill")
		clr := xmldom.NewElement("a", "srgbClr")
		clr.SetAttr("val", hex)
		fill.AppendChild(clr)
		spPr.AppendChild(fill)
	}
	for _, val := range schemes {
		fill := xmldom.NewElement("a", "solidFill")
		clr := xmldom.NewElement("a", "schemeClr")
		clr.SetAttr("val", val)
		fill.AppendChild(clr)
		spPr.AppendChild(fill)
	}
}

func TestAuditFreshSlide(t *testing.T) {
	d := deck.New(false)
	report, err := Audit(d, nil)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if report.SlidesTotal != 1 || report.SlidesAudited != 1 {
		t.Fatalf("totals = %d/%d", report.SlidesTotal, report.SlidesAudited)
	}
	s := report.Slides[0]
	if s.HardCoded != 0 || s.SchemeDerived != 0 {
		t.Errorf("counts = %d/%d, want 0/0", s.HardCoded, s.SchemeDerived)
	}
	if s.Background != "none" || s.HasBackground {
		t.Errorf("background = %q/%v", s.Background, s.HasBackground)
	}
	if s.HasClrMapOvr {
		t.Error("masterClrMapping must not count as a map override")
	}
	if s.Layout != "ppt/slideLayouts/slideLayout1.xml" || s.Master != "ppt/slideMasters/slideMaster1.xml" {
		t.Errorf("identity = %q/%q", s.Layout, s.Master)
	}
}

func TestAuditCountsAndTopColors(t *testing.T) {
	d := deck.New(false)
	slides, _ := d.SlideParts()
	paintSlide(t, d, slides[0],
		[]string{"1f6bff", "1F6BFF", "ED7D31", "AAAAAA", "ED7D31", "ED7D31"},
		[]string{"accent1", "tx1"},
	)

	report, err := Audit(d, nil)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	s := report.Slides[0]
	if s.HardCoded != 6 {
		t.Errorf("hard coded = %d, want 6", s.HardCoded)
	}
	if s.SchemeDerived != 2 {
		t.Errorf("scheme derived = %d, want 2", s.SchemeDerived)
	}

	want := []ColorCount{{"ED7D31", 3}, {"1F6BFF", 2}, {"AAAAAA", 1}}
	if len(s.TopColors) != len(want) {
		t.Fatalf("top colors = %+v", s.TopColors)
	}
	for i := range want {
		if s.TopColors[i] != want[i] {
			t.Errorf("top[%d] = %+v, want %+v (case folded, count desc, hex asc)", i, s.TopColors[i], want[i])
		}
	}
}

func TestAuditBackgroundSignatures(t *testing.T) {
	d := testutil.BuildDeck(t, 3)
	refs, _ := d.ResolveSelection(nil)

	setBg := func(part string, fill *xmldom.Node) {
		doc, _ := d.Doc(part)
		cSld := doc.Root.FindChild(deck.NSPresentation, "cSld")
		bg := xmldom.NewElement("p", "bg")
		bgPr := xmldom.NewElement("p", "bgPr")
		bgPr.AppendChild(fill)
		bg.AppendChild(bgPr)
		cSld.InsertChildAt(0, bg)
	}

	solid := xmldom.NewElement("a", "solidFill")
	clr := xmldom.NewElement("a", "srgbClr")
	clr.SetAttr("val", "123456")
	solid.AppendChild(clr)
	setBg(refs[1].Part, solid)
	setBg(refs[2].Part, xmldom.NewElement("a", "gradFill"))

	report, err := Audit(d, nil)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	got := []string{report.Slides[0].Background, report.Slides[1].Background, report.Slides[2].Background}
	want := []string{"none", "solid", "grad"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slide %d background = %q, want %q", i+1, got[i], want[i])
		}
	}
	if !report.Slides[1].HasBackground || report.Slides[0].HasBackground {
		t.Errorf("has_background flags wrong: %v/%v", report.Slides[0].HasBackground, report.Slides[1].HasBackground)
	}
}

func TestAuditIsolatesParseFailures(t *testing.T) {
	d := testutil.BuildDeck(t, 4)
	refs, _ := d.ResolveSelection(nil)
	d.Package().PutPart(refs[2].Part, []byte("<p:sld"))

	report, err := Audit(d, nil)
	if err != nil {
		t.Fatalf("audit must not abort on one bad slide: %v", err)
	}
	if report.SlidesTotal != 4 || report.SlidesAudited != 3 {
		t.Errorf("totals = %d/%d, want 4/3", report.SlidesTotal, report.SlidesAudited)
	}
	if report.Slides[2].Error == "" {
		t.Error("slide 3 should carry a parse error")
	}
	if !strings.Contains(report.Slides[2].Error, refs[2].Part) {
		t.Errorf("error should name the part: %q", report.Slides[2].Error)
	}
	for _, i := range []int{0, 1, 3} {
		if report.Slides[i].Error != "" {
			t.Errorf("slide %d unexpectedly failed: %s", i+1, report.Slides[i].Error)
		}
	}
}

func TestAuditSelection(t *testing.T) {
	d := testutil.BuildDeck(t, 5)
	sel, err := parser.ParseSelection("2,4-5")
	if err != nil {
		t.Fatalf("selection: %v", err)
	}
	report, err := Audit(d, sel)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if report.SlidesTotal != 5 {
		t.Errorf("slides_total = %d, want 5", report.SlidesTotal)
	}
	nums := make([]int, len(report.Slides))
	for i, s := range report.Slides {
		nums[i] = s.Number
	}
	want := []int{2, 4, 5}
	if len(nums) != 3 || nums[0] != want[0] || nums[1] != want[1] || nums[2] != want[2] {
		t.Errorf("audited slides = %v, want %v", nums, want)
	}
}

func TestGroupBySignature(t *testing.T) {
	d := testutil.BuildDeck(t, 4)
	refs, _ := d.ResolveSelection(nil)

	paintSlide(t, d, refs[0].Part, []string{"1F6BFF"}, nil)
	paintSlide(t, d, refs[2].Part, []string{"1F6BFF"}, nil)
	paintSlide(t, d, refs[3].Part, []string{"ED7D31"}, nil)

	report, err := Audit(d, nil)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}

	groups, err := report.Group(nil)
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("groups = %+v, want 3", groups)
	}
	// First occurrence order: slide 1's key, then slide 2's, then slide 4's.
	if g := groups[0]; len(g.Slides) != 2 || g.Slides[0] != 1 || g.Slides[1] != 3 {
		t.Errorf("group 0 = %+v, want slides 1 and 3", g)
	}
	if !strings.Contains(groups[0].Key, "1F6BFF*1") {
		t.Errorf("palette signature missing from key %q", groups[0].Key)
	}
	if !strings.Contains(groups[0].Key, "slideLayout1") {
		t.Errorf("layout identity missing from default axes key %q", groups[0].Key)
	}

	if _, err := report.Group([]string{"zzz"}); err == nil {
		t.Error("unknown axis should fail")
	}
}

func TestGroupSkipsErrorSlides(t *testing.T) {
	d := testutil.BuildDeck(t, 3)
	refs, _ := d.ResolveSelection(nil)
	d.Package().PutPart(refs[1].Part, []byte("not xml"))

	report, err := Audit(d, nil)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	groups, err := report.Group([]string{parser.AxisLayout})
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	total := 0
	for _, g := range groups {
		total += len(g.Slides)
	}
	if total != 2 {
		t.Errorf("grouped %d slides, want 2 (error slide excluded)", total)
	}
}
