package mcpserver

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/dagaz/internal/palette"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/rewrite"
	"github.com/starford/dagaz/internal/theme"
	"github.com/starford/dagaz/internal/typo"
)

func (s *Server) paletteTemplate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.openDeck(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := palette.Template(d, req.GetString("format", "yaml"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) paletteApply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := req.RequireString("palette")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := palette.Parse("palette.yaml", []byte(doc))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.openDeck(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := palette.Apply(d, p)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.saveDeck(ctx, path, d); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) themeSetColors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("colors")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var pairs []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			pairs = append(pairs, p)
		}
	}
	order, values, err := parser.ParseAssignments(pairs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.openDeck(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	changed, err := theme.NewEditor(d).SetColors(order, values)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.saveDeck(ctx, path, d); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]int{"colors_changed": changed}), nil
}

func (s *Server) themeSetFonts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	major := req.GetString("major", "")
	minor := req.GetString("minor", "")
	if major == "" && minor == "" {
		return mcp.NewToolResultError("major or minor typeface is required"), nil
	}

	d, err := s.openDeck(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := theme.NewEditor(d).SetFonts(major, minor); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.saveDeck(ctx, path, d); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("fonts updated"), nil
}

func (s *Server) themeSetNames(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	themeName := req.GetString("theme", "")
	colors := req.GetString("colors", "")
	fonts := req.GetString("fonts", "")
	if themeName == "" && colors == "" && fonts == "" {
		return mcp.NewToolResultError("at least one of theme, colors, fonts is required"), nil
	}

	d, err := s.openDeck(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := theme.NewEditor(d).SetNames(themeName, colors, fonts); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.saveDeck(ctx, path, d); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("names updated"), nil
}

func (s *Server) deckNormalize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := req.RequireString("mapping")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mapping, err := palette.ParseMapping("mapping.yaml", []byte(doc))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sel, err := parser.ParseSelection(req.GetString("slides", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.openDeck(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := rewrite.Normalize(d, mapping, sel)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.saveDeck(ctx, path, d); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) deckStrip(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sel, err := parser.ParseSelection(req.GetString("slides", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := rewrite.StripOptions{
		Colors: req.GetBool("colors", true),
		Fonts:  req.GetBool("fonts", false),
		Inline: req.GetBool("inline", false),
	}

	d, err := s.openDeck(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := rewrite.Strip(d, sel, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.saveDeck(ctx, path, d); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) deckSanitize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.openDeck(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := rewrite.Sanitize(d)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.saveDeck(ctx, path, d); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) textStylesSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := typo.Options{
		TitleSizePt: req.GetFloat("title_size", 0),
		BodySizePt:  req.GetFloat("body_size", 0),
	}
	args := req.GetArguments()
	if v, ok := args["title_bold"].(bool); ok {
		opts.TitleBold = &v
	}
	if v, ok := args["body_bold"].(bool); ok {
		opts.BodyBold = &v
	}

	d, err := s.openDeck(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := typo.SetTextStyles(d, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.saveDeck(ctx, path, d); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}
