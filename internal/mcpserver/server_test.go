package mcpserver

import (
	"context"
	"encoding/base64"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/deckservice"
	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/testutil"
	"github.com/starford/dagaz/internal/xmldom"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	workDir := t.TempDir()
	store, err := storage.NewFS(workDir)
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "dagaz-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	svc := deckservice.NewService(store, db)
	srv := New(store, svc)
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so dispatch to the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "deck_info":
		result, err = srv.deckInfo(ctx, req)
	case "deck_new":
		result, err = srv.deckNew(ctx, req)
	case "deck_validate":
		result, err = srv.deckValidate(ctx, req)
	case "deck_audit":
		result, err = srv.deckAudit(ctx, req)
	case "theme_dump":
		result, err = srv.themeDump(ctx, req)
	case "tree_dump":
		result, err = srv.treeDump(ctx, req)
	case "palette_template":
		result, err = srv.paletteTemplate(ctx, req)
	case "palette_apply":
		result, err = srv.paletteApply(ctx, req)
	case "theme_set_colors":
		result, err = srv.themeSetColors(ctx, req)
	case "theme_set_fonts":
		result, err = srv.themeSetFonts(ctx, req)
	case "theme_set_names":
		result, err = srv.themeSetNames(ctx, req)
	case "deck_normalize":
		result, err = srv.deckNormalize(ctx, req)
	case "deck_strip":
		result, err = srv.deckStrip(ctx, req)
	case "deck_sanitize":
		result, err = srv.deckSanitize(ctx, req)
	case "text_styles_set":
		result, err = srv.textStylesSet(ctx, req)
	case "layout_make":
		result, err = srv.layoutMake(ctx, req)
	case "layout_assign":
		result, err = srv.layoutAssign(ctx, req)
	case "layout_prune":
		result, err = srv.layoutPrune(ctx, req)
	case "layout_reindex":
		result, err = srv.layoutReindex(ctx, req)
	case "layout_set_background":
		result, err = srv.layoutSetBackground(ctx, req)
	case "layout_suggest":
		result, err = srv.layoutSuggest(ctx, req)
	case "image_add":
		result, err = srv.imageAdd(ctx, req)
	case "image_fetch":
		result, err = srv.imageFetch(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// coloredDeckBytes builds a one-slide deck whose title shape carries a
// literal srgbClr fill.
func coloredDeckBytes(t *testing.T, hex string) []byte {
	t.Helper()
	d := deck.New(false)
	slides, err := d.SlideParts()
	if err != nil {
		t.Fatal(err)
	}
	doc, err := d.Doc(slides[0])
	if err != nil {
		t.Fatal(err)
	}
	sp := doc.Root.Find(deck.NSPresentation, "sp")
	spPr := sp.FindChild(deck.NSPresentation, "spPr")
	fill := xmldom.NewElement("a", "solidFill")
	clr := xmldom.NewElement("a", "srgbClr")
	clr.SetAttr("val", hex)
	fill.AppendChild(clr)
	spPr.AppendChild(fill)
	d.MarkDirty(slides[0])

	data, err := d.Save()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestDeckNewAndInfo(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "deck_new", map[string]interface{}{"deck": "new.pptx"})
	if text := resultText(r); text != "created: new.pptx" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "deck_info", map[string]interface{}{"deck": "new.pptx"})
	text := resultText(r)
	if !strings.Contains(text, `"slides": 1`) {
		t.Errorf("info missing slide count: %s", text)
	}
	if !strings.Contains(text, `"kind": "presentation"`) {
		t.Errorf("info missing kind: %s", text)
	}
}

func TestDeckNewTemplateKind(t *testing.T) {
	srv, _ := testServer(t)

	callTool(t, srv, "deck_new", map[string]interface{}{"deck": "base.potx", "template": true})
	r := callTool(t, srv, "deck_info", map[string]interface{}{"deck": "base.potx"})
	if text := resultText(r); !strings.Contains(text, `"kind": "template"`) {
		t.Errorf("info kind = %s, want template", text)
	}
}

func TestDeckNewAlreadyExists(t *testing.T) {
	srv, _ := testServer(t)

	callTool(t, srv, "deck_new", map[string]interface{}{"deck": "dup.pptx"})
	r := callTool(t, srv, "deck_new", map[string]interface{}{"deck": "dup.pptx"})
	if !r.IsError {
		t.Fatal("expected error for duplicate deck")
	}
	if text := resultText(r); !strings.Contains(text, "already exists") {
		t.Errorf("error = %q", text)
	}
}

func TestDeckInfoMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "deck_info", map[string]interface{}{"deck": "nope.pptx"})
	if !r.IsError {
		t.Error("expected error for missing deck")
	}
}

func TestToolRequiresDeckArgument(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "theme_dump", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error when deck argument is missing")
	}
}

func TestThemeSetColorsAndDump(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("th.pptx", testutil.DeckBytes(t, 1))

	r := callTool(t, srv, "theme_set_colors", map[string]interface{}{
		"deck":   "th.pptx",
		"colors": "accent1=E94560, dk1=1A1A2E",
	})
	if r.IsError {
		t.Fatalf("set colors: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, `"colors_changed": 2`) {
		t.Errorf("result = %s", text)
	}

	r = callTool(t, srv, "theme_dump", map[string]interface{}{"deck": "th.pptx"})
	text := resultText(r)
	if !strings.Contains(text, "E94560") || !strings.Contains(text, "1A1A2E") {
		t.Errorf("dump missing new colors: %s", text)
	}
}

func TestThemeSetFontsRequiresArgument(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("f.pptx", testutil.DeckBytes(t, 1))

	r := callTool(t, srv, "theme_set_fonts", map[string]interface{}{"deck": "f.pptx"})
	if !r.IsError {
		t.Fatal("expected error when neither typeface is given")
	}

	r = callTool(t, srv, "theme_set_fonts", map[string]interface{}{
		"deck":  "f.pptx",
		"major": "Georgia",
	})
	if r.IsError {
		t.Fatalf("set fonts: %s", resultText(r))
	}

	r = callTool(t, srv, "theme_dump", map[string]interface{}{"deck": "f.pptx"})
	if text := resultText(r); !strings.Contains(text, "Georgia") {
		t.Errorf("dump missing new typeface: %s", text)
	}
}

func TestPaletteApplyRoundTrip(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("p.pptx", testutil.DeckBytes(t, 1))

	doc := `name: Midnight
colors:
  accent1: "E94560"
  dk1: "1A1A2E"
fonts:
  major: Georgia
  minor: Verdana
`
	r := callTool(t, srv, "palette_apply", map[string]interface{}{
		"deck":    "p.pptx",
		"palette": doc,
	})
	if r.IsError {
		t.Fatalf("apply: %s", resultText(r))
	}

	r = callTool(t, srv, "theme_dump", map[string]interface{}{"deck": "p.pptx"})
	text := resultText(r)
	for _, want := range []string{"Midnight", "E94560", "Georgia", "Verdana"} {
		if !strings.Contains(text, want) {
			t.Errorf("dump missing %q: %s", want, text)
		}
	}
}

func TestPaletteTemplateExport(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("t.pptx", testutil.DeckBytes(t, 1))

	r := callTool(t, srv, "palette_template", map[string]interface{}{"deck": "t.pptx"})
	text := resultText(r)
	if !strings.Contains(text, "accent1:") || !strings.Contains(text, "fonts:") {
		t.Errorf("template = %s", text)
	}
}

func TestDeckNormalize(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("n.pptx", coloredDeckBytes(t, "1F6BFF"))

	r := callTool(t, srv, "deck_normalize", map[string]interface{}{
		"deck":    "n.pptx",
		"mapping": `"1F6BFF": accent1`,
	})
	if r.IsError {
		t.Fatalf("normalize: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, `"total": 1`) {
		t.Errorf("result = %s", text)
	}
}

func TestDeckStripDefaultsToColors(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("s.pptx", coloredDeckBytes(t, "ABCDEF"))

	r := callTool(t, srv, "deck_strip", map[string]interface{}{"deck": "s.pptx"})
	if r.IsError {
		t.Fatalf("strip: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, `"colors": 1`) {
		t.Errorf("result = %s", text)
	}
}

func TestDeckSanitizeStockDeck(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("ok.pptx", testutil.DeckBytes(t, 1))

	r := callTool(t, srv, "deck_sanitize", map[string]interface{}{"deck": "ok.pptx"})
	if r.IsError {
		t.Fatalf("sanitize: %s", resultText(r))
	}
}

func TestDeckAuditRecordsRun(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("a.pptx", testutil.DeckBytes(t, 3))

	r := callTool(t, srv, "deck_audit", map[string]interface{}{
		"deck":     "a.pptx",
		"group_by": "palette,layout",
	})
	if r.IsError {
		t.Fatalf("audit: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, `"slides_audited": 3`) {
		t.Errorf("audit result = %s", text)
	}
	if !strings.Contains(text, `"run"`) || !strings.Contains(text, `"id"`) {
		t.Errorf("audit result missing run record: %s", text)
	}
}

func TestTextStylesSet(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("ts.pptx", testutil.DeckBytes(t, 1))

	r := callTool(t, srv, "text_styles_set", map[string]interface{}{
		"deck":       "ts.pptx",
		"title_size": 40,
		"body_bold":  true,
	})
	if r.IsError {
		t.Fatalf("text styles: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, `"master_styles"`) {
		t.Errorf("result = %s", text)
	}
}

func TestTextStylesSetRejectsEmpty(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("e.pptx", testutil.DeckBytes(t, 1))

	r := callTool(t, srv, "text_styles_set", map[string]interface{}{"deck": "e.pptx"})
	if !r.IsError {
		t.Error("expected error when no style change is requested")
	}
}

func TestLayoutLifecycle(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("l.pptx", testutil.DeckBytes(t, 2))

	r := callTool(t, srv, "layout_make", map[string]interface{}{
		"deck": "l.pptx", "slide": 1, "name": "Hero",
	})
	if r.IsError {
		t.Fatalf("make: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, "slideLayout2.xml") || !strings.Contains(text, "Hero") {
		t.Errorf("make result = %s", text)
	}

	r = callTool(t, srv, "layout_assign", map[string]interface{}{
		"deck": "l.pptx", "layout": "Hero",
	})
	if r.IsError {
		t.Fatalf("assign: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, `"assigned": 2`) {
		t.Errorf("assign result = %s", text)
	}

	r = callTool(t, srv, "layout_prune", map[string]interface{}{"deck": "l.pptx"})
	if r.IsError {
		t.Fatalf("prune: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, "slideLayout1.xml") {
		t.Errorf("prune should drop the orphaned layout: %s", text)
	}

	r = callTool(t, srv, "layout_reindex", map[string]interface{}{"deck": "l.pptx"})
	if r.IsError {
		t.Fatalf("reindex: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, "slideLayout1.xml") {
		t.Errorf("reindex should renumber into the gap: %s", text)
	}
}

func TestLayoutSetBackgroundColor(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("bg.pptx", testutil.DeckBytes(t, 1))

	r := callTool(t, srv, "layout_set_background", map[string]interface{}{
		"deck": "bg.pptx", "layout": "1", "color": "1A1A2E",
	})
	if r.IsError {
		t.Fatalf("set background: %s", resultText(r))
	}

	r = callTool(t, srv, "layout_set_background", map[string]interface{}{
		"deck": "bg.pptx", "layout": "1",
	})
	if !r.IsError {
		t.Error("expected error with neither color nor image")
	}

	r = callTool(t, srv, "layout_set_background", map[string]interface{}{
		"deck": "bg.pptx", "layout": "1", "color": "FF0000", "image": "https://example.com/x.png",
	})
	if !r.IsError {
		t.Error("expected error with both color and image")
	}
}

func TestLayoutSuggest(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("sg.pptx", testutil.DeckBytes(t, 2))

	r := callTool(t, srv, "layout_suggest", map[string]interface{}{"deck": "sg.pptx"})
	if r.IsError {
		t.Fatalf("suggest: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, `"suggestions"`) {
		t.Errorf("result = %s", text)
	}
}

func TestImageAdd(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("img.pptx", testutil.DeckBytes(t, 1))

	png := append([]byte("\x89PNG\r\n\x1a\n"), []byte("fakebody")...)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	r := callTool(t, srv, "image_add", map[string]interface{}{
		"deck": "img.pptx", "data": uri,
	})
	if r.IsError {
		t.Fatalf("image add: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, "ppt/media/image1.png") {
		t.Errorf("result = %s", text)
	}
}

func TestImageAddRejectsNonImage(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("img.pptx", testutil.DeckBytes(t, 1))

	uri := "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))
	r := callTool(t, srv, "image_add", map[string]interface{}{
		"deck": "img.pptx", "data": uri,
	})
	if !r.IsError {
		t.Fatal("expected error for non-image MIME")
	}
	if text := resultText(r); !strings.Contains(text, "unsupported MIME") {
		t.Errorf("error = %q", text)
	}

	r = callTool(t, srv, "image_add", map[string]interface{}{
		"deck": "img.pptx", "data": "not-a-uri",
	})
	if !r.IsError {
		t.Error("expected error for plain string data")
	}
}

func TestImageFetchBlocksLoopback(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("img.pptx", testutil.DeckBytes(t, 1))

	r := callTool(t, srv, "image_fetch", map[string]interface{}{
		"deck": "img.pptx", "url": "http://127.0.0.1/logo.png",
	})
	if !r.IsError {
		t.Fatal("expected loopback URL to be blocked")
	}
	if text := resultText(r); !strings.Contains(text, "blocked host") {
		t.Errorf("error = %q", text)
	}
}

func TestTreeDump(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("tr.pptx", testutil.DeckBytes(t, 1))

	r := callTool(t, srv, "tree_dump", map[string]interface{}{"deck": "tr.pptx"})
	text := resultText(r)
	if !strings.Contains(text, "slide 1") || !strings.Contains(text, "slideLayout1.xml") {
		t.Errorf("tree = %s", text)
	}

	r = callTool(t, srv, "tree_dump", map[string]interface{}{"deck": "tr.pptx", "slide": 1})
	if text := resultText(r); !strings.Contains(text, "ppt/slides/slide1.xml") {
		t.Errorf("slide tree = %s", text)
	}
}

func TestDeckValidateTool(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("v.pptx", testutil.DeckBytes(t, 1))

	r := callTool(t, srv, "deck_validate", map[string]interface{}{"deck": "v.pptx"})
	if text := resultText(r); !strings.Contains(text, `"valid": true`) {
		t.Errorf("validate result = %s", text)
	}
}

func TestPaletteFormatResource(t *testing.T) {
	srv, _ := testServer(t)

	contents, err := srv.readPaletteFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] = %T, want TextResourceContents", contents[0])
	}
	if !strings.Contains(tc.Text, "Palette File Contract") {
		t.Error("resource text missing contract heading")
	}
}
