package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/dagaz/internal/layout"
	"github.com/starford/dagaz/internal/media"
	"github.com/starford/dagaz/internal/parser"
)

func (s *Server) layoutMake(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slide, err := req.RequireInt("slide")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.openDeck(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	part, err := layout.MakeFromSlide(d, slide, req.GetString("name", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.saveDeck(ctx, path, d); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]string{
		"layout": part,
		"name":   layout.Name(d, part),
	}), nil
}

func (s *Server) layoutAssign(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ref, err := req.RequireString("layout")
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
	assigned, err := layout.Assign(d, sel, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.saveDeck(ctx, path, d); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]int{"assigned": assigned}), nil
}

func (s *Server) layoutPrune(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.openDeck(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	removed, err := layout.Prune(d)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(removed) == 0 {
		return mcp.NewToolResultText("no unused layouts"), nil
	}
	if err := s.saveDeck(ctx, path, d); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"removed": removed}), nil
}

func (s *Server) layoutReindex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.openDeck(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	renamed, err := layout.Reindex(d)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(renamed) == 0 {
		return mcp.NewToolResultText("layouts already contiguous"), nil
	}
	if err := s.saveDeck(ctx, path, d); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"renamed": renamed}), nil
}

func (s *Server) layoutSetBackground(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ref, err := req.RequireString("layout")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	color := req.GetString("color", "")
	image := req.GetString("image", "")
	switch {
	case color == "" && image == "":
		return mcp.NewToolResultError("one of color or image is required"), nil
	case color != "" && image != "":
		return mcp.NewToolResultError("specify color or image, not both"), nil
	}

	d, err := s.openDeck(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if color != "" {
		if err := layout.SetBackgroundColor(d, ref, color); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	} else {
		data, err := resolveImage(image)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		ext, err := media.DetectImageExt(data)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		part, err := media.AddImage(d, data, ext)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := layout.SetBackgroundImage(d, ref, part); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	if err := s.saveDeck(ctx, path, d); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("background updated"), nil
}

func (s *Server) layoutSuggest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sel, err := parser.ParseSelection(req.GetString("slides", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	apply := req.GetBool("apply", false)

	d, err := s.openDeck(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	suggestions, err := layout.Suggest(d, sel, apply)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if apply {
		if err := s.saveDeck(ctx, path, d); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return jsonResult(map[string]any{"suggestions": suggestions}), nil
}
