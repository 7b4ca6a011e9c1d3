package xmldom

import (
	"strings"
	"testing"
)

const sampleSlide = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n" +
	`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:sp><p:spPr><a:solidFill><a:srgbClr val="1F6BFF"><a:alpha val="50000"/></a:srgbClr></a:solidFill></p:spPr></p:sp></p:spTree></p:cSld></p:sld>`

const aNS = "http://schemas.openxmlformats.org/drawingml/2006/main"
const pNS = "http://schemas.openxmlformats.org/presentationml/2006/main"

func mustParse(t *testing.T, data string) *Document {
	t.Helper()
	doc, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestParsePreservesPrefixes(t *testing.T) {
	doc := mustParse(t, sampleSlide)
	if doc.Root.Name() != "p:sld" {
		t.Errorf("root name = %q, want p:sld", doc.Root.Name())
	}
	clr := doc.Root.Find(aNS, "srgbClr")
	if clr == nil {
		t.Fatal("srgbClr not found by namespace")
	}
	if clr.Prefix != "a" {
		t.Errorf("prefix = %q, want a", clr.Prefix)
	}
	if clr.Attr("val") != "1F6BFF" {
		t.Errorf("val = %q", clr.Attr("val"))
	}
}

func TestNamespaceResolution(t *testing.T) {
	doc := mustParse(t, sampleSlide)
	sp := doc.Root.Find(pNS, "sp")
	if sp == nil {
		t.Fatal("p:sp not found")
	}
	if got := sp.ResolveNS("a"); got != aNS {
		t.Errorf("ResolveNS(a) = %q", got)
	}
	if got := sp.ResolveNS("nope"); got != "" {
		t.Errorf("ResolveNS(nope) = %q, want empty", got)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	doc := mustParse(t, sampleSlide)
	out := string(doc.Marshal())
	if out != sampleSlide {
		t.Errorf("round trip changed bytes:\n got %q\nwant %q", out, sampleSlide)
	}
}

func TestReplaceChildKeepsChildren(t *testing.T) {
	doc := mustParse(t, sampleSlide)
	clr := doc.Root.Find(aNS, "srgbClr")
	fill := clr.Parent()

	repl := NewElement("a", "schemeClr")
	repl.SetAttr("val", "accent1")
	if !fill.ReplaceChild(clr, repl) {
		t.Fatal("ReplaceChild returned false")
	}

	got := doc.Root.Find(aNS, "schemeClr")
	if got == nil {
		t.Fatal("schemeClr not present after replace")
	}
	if got.FindChild(aNS, "alpha") == nil {
		t.Error("alpha child not carried over")
	}
	if doc.Root.Find(aNS, "srgbClr") != nil {
		t.Error("srgbClr still present after replace")
	}
	if !strings.Contains(string(doc.Marshal()), `<a:schemeClr val="accent1"><a:alpha val="50000"/></a:schemeClr>`) {
		t.Errorf("marshal output missing replacement: %s", doc.Marshal())
	}
}

func TestInsertChildAt(t *testing.T) {
	doc := mustParse(t, sampleSlide)
	tree := doc.Root.Find(pNS, "spTree")
	bg := NewElement("p", "bg")
	tree.Parent().InsertChildAt(0, bg)

	cSld := doc.Root.FindChild(pNS, "cSld")
	if cSld.Children[0] != bg {
		t.Error("bg not first child of cSld")
	}
}

func TestEscaping(t *testing.T) {
	root := NewElement("", "root")
	root.SetAttr("q", `a<b&"c`)
	root.AppendChild(NewText("x < y & z"))
	out := string(NewDocument(root).Marshal())

	want := `<root q="a&lt;b&amp;&quot;c">x &lt; y &amp; z</root>`
	if !strings.HasSuffix(out, want) {
		t.Errorf("escaped output = %q, want suffix %q", out, want)
	}

	back, err := Parse([]byte(out))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if back.Root.Attr("q") != `a<b&"c` {
		t.Errorf("attr after reparse = %q", back.Root.Attr("q"))
	}
	if back.Root.InnerText() != "x < y & z" {
		t.Errorf("text after reparse = %q", back.Root.InnerText())
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"mismatched close", "<a:x xmlns:a=\"u\"></a:y>"},
		{"unclosed", "<root><child>"},
		{"second root", "<a/><b/>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.in)); err == nil {
				t.Errorf("Parse(%q): expected error", tc.in)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	doc := mustParse(t, sampleSlide)
	orig := doc.Root.Find(pNS, "sp")
	cp := orig.Clone()

	cp.Find(aNS, "srgbClr").SetAttr("val", "000000")
	if orig.Find(aNS, "srgbClr").Attr("val") != "1F6BFF" {
		t.Error("mutating clone changed original")
	}
	if cp.Parent() != nil {
		t.Error("clone should be detached")
	}
}

func TestWalkPrune(t *testing.T) {
	doc := mustParse(t, sampleSlide)
	var visited []string
	doc.Root.Walk(func(n *Node) bool {
		visited = append(visited, n.Local)
		return n.Local != "spPr" // prune below spPr
	})
	for _, name := range visited {
		if name == "solidFill" {
			t.Error("walk descended into pruned subtree")
		}
	}
	if visited[0] != "sld" {
		t.Errorf("walk did not start at root: %v", visited)
	}
}
