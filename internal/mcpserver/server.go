// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes dagaz deck styling tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/deckservice"
	"github.com/starford/dagaz/internal/storage"
)

// Server wraps the MCP server with dagaz tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	svc   *deckservice.Service
}

// New creates a new MCP server with all dagaz tools registered.
func New(store storage.Provider, svc *deckservice.Service) *Server {
	s := &Server{store: store, svc: svc}

	s.mcp = server.NewMCPServer(
		"Dagaz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	// Inspection.
	s.mcp.AddTool(mcp.NewTool("deck_info",
		mcp.WithDescription("Summarize a deck: kind, slide/layout/master counts, theme name, slide size."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path (e.g. decks/q3.pptx)")),
	), s.deckInfo)

	s.mcp.AddTool(mcp.NewTool("deck_new",
		mcp.WithDescription("Create a minimal single-slide deck at the given path."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative path for the new deck (must end with .pptx or .potx)")),
		mcp.WithBoolean("template", mcp.Description("Mark the package as a template (.potx kind)")),
	), s.deckNew)

	s.mcp.AddTool(mcp.NewTool("deck_validate",
		mcp.WithDescription("Check package structure and styling parts; returns findings."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
	), s.deckValidate)

	s.mcp.AddTool(mcp.NewTool("deck_audit",
		mcp.WithDescription("Audit slide styling (hard-coded colors, background overrides, layouts) and cluster slides by signature."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithString("slides", mcp.Description("Slide selection like 1-3,5 (empty for all)")),
		mcp.WithString("group_by", mcp.Description("Signature axes: palette, background, layout (or p,b,l)")),
	), s.deckAudit)

	s.mcp.AddTool(mcp.NewTool("theme_dump",
		mcp.WithDescription("Dump the deck's theme: twelve color slots and the font pairing."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
	), s.themeDump)

	s.mcp.AddTool(mcp.NewTool("tree_dump",
		mcp.WithDescription("Render the styling inheritance tree (masters, layouts, slides), or one slide's resolution chain."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithNumber("slide", mcp.Description("Slide number for a single-slide chain (omit for the whole tree)")),
	), s.treeDump)

	// Theme and palette editing. Content contracts live in the
	// dagaz://palette-format resource.
	s.mcp.AddTool(mcp.NewTool("palette_template",
		mcp.WithDescription("Export the deck's current theme as a palette document ready to edit and re-apply. "+
			"The format is described by the dagaz://palette-format resource."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithString("format", mcp.Description("yaml (default) or json")),
	), s.paletteTemplate)

	s.mcp.AddTool(mcp.NewTool("palette_apply",
		mcp.WithDescription("Apply a palette document to the deck's theme: colors, fonts, and name. "+
			"The document MUST follow the dagaz://palette-format contract; read it first."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithString("palette", mcp.Required(), mcp.Description("Palette document content (YAML or JSON)")),
	), s.paletteApply)

	s.mcp.AddTool(mcp.NewTool("theme_set_colors",
		mcp.WithDescription("Set individual theme color slots without touching the rest."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithString("colors", mcp.Required(), mcp.Description("Comma-separated slot=RRGGBB pairs (e.g. accent1=E94560,dk1=1A1A2E)")),
	), s.themeSetColors)

	s.mcp.AddTool(mcp.NewTool("theme_set_fonts",
		mcp.WithDescription("Replace the theme's major (headings) and/or minor (body) typeface."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithString("major", mcp.Description("Heading typeface name")),
		mcp.WithString("minor", mcp.Description("Body typeface name")),
	), s.themeSetFonts)

	s.mcp.AddTool(mcp.NewTool("theme_set_names",
		mcp.WithDescription("Rename the theme and/or its color and font schemes."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithString("theme", mcp.Description("New theme name")),
		mcp.WithString("colors", mcp.Description("New color scheme name")),
		mcp.WithString("fonts", mcp.Description("New font scheme name")),
	), s.themeSetNames)

	// Slide rewriting.
	s.mcp.AddTool(mcp.NewTool("deck_normalize",
		mcp.WithDescription("Replace hard-coded slide colors with theme scheme references using a hex-to-role mapping. "+
			"Mapping format is described by the dagaz://palette-format resource."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithString("mapping", mcp.Required(), mcp.Description("Mapping document content (YAML or JSON, hex keys to role values)")),
		mcp.WithString("slides", mcp.Description("Slide selection like 1-3,5 (empty for all)")),
	), s.deckNormalize)

	s.mcp.AddTool(mcp.NewTool("deck_strip",
		mcp.WithDescription("Remove local styling overrides from slides so layout and master styling shows through. "+
			"Strips colors by default; fonts and inline run formatting are opt-in."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithString("slides", mcp.Description("Slide selection like 1-3,5 (empty for all)")),
		mcp.WithBoolean("colors", mcp.Description("Strip literal color nodes (default true)")),
		mcp.WithBoolean("fonts", mcp.Description("Strip explicit typefaces")),
		mcp.WithBoolean("inline", mcp.Description("Strip run and paragraph formatting wholesale")),
	), s.deckStrip)

	s.mcp.AddTool(mcp.NewTool("deck_sanitize",
		mcp.WithDescription("Repair structural omissions strict consumers choke on: missing clrMap, bodyPr, lstStyle, background."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
	), s.deckSanitize)

	s.mcp.AddTool(mcp.NewTool("text_styles_set",
		mcp.WithDescription("Set default title/body text size and weight deck-wide (master text styles plus placeholders)."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithNumber("title_size", mcp.Description("Title size in points")),
		mcp.WithNumber("body_size", mcp.Description("Body size in points")),
		mcp.WithBoolean("title_bold", mcp.Description("Title bold on/off")),
		mcp.WithBoolean("body_bold", mcp.Description("Body bold on/off")),
	), s.textStylesSet)

	// Layout management.
	s.mcp.AddTool(mcp.NewTool("layout_make",
		mcp.WithDescription("Clone a slide's look into a new reusable layout registered with its master."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithNumber("slide", mcp.Required(), mcp.Description("Slide number to clone (1-based)")),
		mcp.WithString("name", mcp.Description("Display name for the new layout")),
	), s.layoutMake)

	s.mcp.AddTool(mcp.NewTool("layout_assign",
		mcp.WithDescription("Point slides at a different layout."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithString("layout", mcp.Required(), mcp.Description("Layout reference: display name, number, or part name")),
		mcp.WithString("slides", mcp.Description("Slide selection like 1-3,5 (empty for all)")),
	), s.layoutAssign)

	s.mcp.AddTool(mcp.NewTool("layout_prune",
		mcp.WithDescription("Delete layouts no slide uses and unregister them from their masters."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
	), s.layoutPrune)

	s.mcp.AddTool(mcp.NewTool("layout_reindex",
		mcp.WithDescription("Renumber layout parts into a contiguous sequence, fixing every reference."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
	), s.layoutReindex)

	s.mcp.AddTool(mcp.NewTool("layout_set_background",
		mcp.WithDescription("Replace a layout's background with a flat color or an image."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithString("layout", mcp.Required(), mcp.Description("Layout reference: display name, number, or part name")),
		mcp.WithString("color", mcp.Description("RRGGBB hex fill (one of color/image is required)")),
		mcp.WithString("image", mcp.Description("Image to stretch over the background: http(s) URL or data URI")),
	), s.layoutSetBackground)

	s.mcp.AddTool(mcp.NewTool("layout_suggest",
		mcp.WithDescription("Score layouts against each slide's placeholder population and suggest the best fit."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithString("slides", mcp.Description("Slide selection like 1-3,5 (empty for all)")),
		mcp.WithBoolean("apply", mcp.Description("Assign each slide to its best-scoring layout")),
	), s.layoutSuggest)

	// Media.
	s.mcp.AddTool(mcp.NewTool("image_add",
		mcp.WithDescription("Embed an image into the deck's media store from a base64 data URI."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithString("data", mcp.Required(), mcp.Description("data:<mime>;base64,<payload> URI")),
	), s.imageAdd)

	s.mcp.AddTool(mcp.NewTool("image_fetch",
		mcp.WithDescription("Download an image over http(s) and embed it into the deck's media store."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Workspace-relative deck path")),
		mcp.WithString("url", mcp.Required(), mcp.Description("Image URL (http or https)")),
	), s.imageFetch)

	// Resource: palette file contract.
	s.mcp.AddResource(
		mcp.NewResource("dagaz://palette-format", "Palette File Contract",
			mcp.WithResourceDescription("Palette and color-mapping document format used by the styling tools."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPaletteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// openDeck reads and parses a workspace deck for a tool call.
func (s *Server) openDeck(path string) (*deck.Deck, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, fmt.Errorf("deck not found: %s", path)
	}
	d, err := deck.Open(data)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", path, err)
	}
	return d, nil
}

// saveDeck serializes a mutated deck back through the service so the
// write lands atomically and the index and event stream stay current.
func (s *Server) saveDeck(ctx context.Context, path string, d *deck.Deck) error {
	data, err := d.Save()
	if err != nil {
		return err
	}
	_, _, err = s.svc.UploadDeck(ctx, path, data, "")
	return err
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) deckInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetDeck(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(detail), nil
}

func (s *Server) deckNew(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, readErr := s.store.Read(path); readErr == nil {
		return mcp.NewToolResultError(fmt.Sprintf("deck already exists: %s", path)), nil
	}

	d := deck.New(req.GetBool("template", false))
	if err := s.saveDeck(ctx, path, d); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) deckValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	findings, err := s.svc.ValidateDeck(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"valid":    len(findings) == 0,
		"findings": findings,
	}), nil
}

func (s *Server) deckAudit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outcome, err := s.svc.Audit(ctx, path, req.GetString("slides", ""), req.GetString("group_by", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(outcome), nil
}

func (s *Server) themeDump(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dump, err := s.svc.ThemeDump(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(dump), nil
}

func (s *Server) treeDump(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.openDeck(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var tree string
	if slide := req.GetInt("slide", 0); slide > 0 {
		tree, err = d.DumpSlideTree(slide)
	} else {
		tree, err = d.DumpTree()
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(tree), nil
}

func (s *Server) readPaletteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "dagaz://palette-format",
			MIMEType: "text/markdown",
			Text:     PaletteFormatContract,
		},
	}, nil
}
