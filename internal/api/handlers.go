package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/deckservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *deckservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *deckservice.Service) *Handler {
	return &Handler{svc: svc}
}

// deckName extracts the deck path from the {name} route parameter.
// Nested paths arrive with encoded slashes (e.g. archive%2Fq3.pptx);
// chi routes on the escaped form, so the parameter is unescaped here.
func deckName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListDecks handles GET /api/v1/decks.
//
//	@Summary		List decks with optional pagination and sorting
//	@Tags			decks
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			sort	query		string	false	"Sort field"	Enums(updated_at, name, path, slides)
//	@Success		200		{object}	DeckListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/decks [get]
func (h *Handler) ListDecks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	sort := q.Get("sort")

	items, total, err := h.svc.ListDecks(r.Context(), limit, offset, sort)
	if err != nil {
		writeServiceError(w, "list decks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"decks": items,
		"total": total,
	})
}

// GetDeck handles GET /api/v1/decks/{name}.
//
//	@Summary		Get a deck summary by path
//	@Tags			decks
//	@Produce		json
//	@Param			name	path		string	true	"Deck path"
//	@Success		200		{object}	DeckDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/decks/{name} [get]
func (h *Handler) GetDeck(w http.ResponseWriter, r *http.Request) {
	name := deckName(r)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("deck path is required"))
		return
	}
	detail, err := h.svc.GetDeck(r.Context(), name)
	if err != nil {
		writeServiceError(w, "get deck", err, slog.String("deck", name))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// DeleteDeck handles DELETE /api/v1/decks/{name}.
//
//	@Summary		Delete a deck
//	@Tags			decks
//	@Param			name	path	string	true	"Deck path"
//	@Success		204		"Deck deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/decks/{name} [delete]
func (h *Handler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	name := deckName(r)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("deck path is required"))
		return
	}
	if err := h.svc.DeleteDeck(r.Context(), name); err != nil {
		writeServiceError(w, "delete deck", err, slog.String("deck", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadDeck handles GET /api/v1/decks/{name}/download.
//
//	@Summary		Download the raw deck file
//	@Tags			decks
//	@Produce		application/octet-stream
//	@Param			name	path	string	true	"Deck path"
//	@Success		200		{file}	binary
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/decks/{name}/download [get]
func (h *Handler) DownloadDeck(w http.ResponseWriter, r *http.Request) {
	name := deckName(r)
	data, err := h.svc.Download(r.Context(), name)
	if err != nil {
		writeServiceError(w, "download deck", err, slog.String("deck", name))
		return
	}
	w.Header().Set("Content-Type", deckMIME(name))
	w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(name)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		slog.Error("download write failed", slog.String("deck", name), slog.String("error", err.Error()))
	}
}

func deckMIME(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".potx") {
		return "application/vnd.openxmlformats-officedocument.presentationml.template"
	}
	return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
}

// ThemeDump handles GET /api/v1/decks/{name}/theme.
//
//	@Summary		Dump the deck's theme palette and font pairing
//	@Tags			styling
//	@Produce		json
//	@Param			name	path		string	true	"Deck path"
//	@Success		200		{object}	theme.Dump
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/decks/{name}/theme [get]
func (h *Handler) ThemeDump(w http.ResponseWriter, r *http.Request) {
	name := deckName(r)
	dump, err := h.svc.ThemeDump(r.Context(), name)
	if err != nil {
		writeServiceError(w, "theme dump", err, slog.String("deck", name))
		return
	}
	writeJSON(w, http.StatusOK, dump)
}

// ValidateDeck handles GET /api/v1/decks/{name}/validate.
//
//	@Summary		Validate package structure and styling parts
//	@Tags			styling
//	@Produce		json
//	@Param			name	path		string	true	"Deck path"
//	@Success		200		{object}	ValidateResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/decks/{name}/validate [get]
func (h *Handler) ValidateDeck(w http.ResponseWriter, r *http.Request) {
	name := deckName(r)
	findings, err := h.svc.ValidateDeck(r.Context(), name)
	if err != nil {
		writeServiceError(w, "validate deck", err, slog.String("deck", name))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":    len(findings) == 0,
		"findings": findings,
	})
}

// Audit handles GET /api/v1/decks/{name}/audit.
//
//	@Summary		Audit slide styling and cluster by signature axes
//	@Tags			styling
//	@Produce		json
//	@Param			name		path		string	true	"Deck path"
//	@Param			slides		query		string	false	"Slide selection (e.g. 1-3,5)"
//	@Param			group_by	query		string	false	"Signature axes (palette, background, layout)"
//	@Success		200			{object}	AuditOutcome
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/decks/{name}/audit [get]
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	name := deckName(r)
	q := r.URL.Query()

	outcome, err := h.svc.Audit(r.Context(), name, q.Get("slides"), q.Get("group_by"))
	if err != nil {
		writeServiceError(w, "audit", err, slog.String("deck", name))
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// AuditHistory handles GET /api/v1/decks/{name}/audits.
//
//	@Summary		List recorded audit runs for a deck
//	@Tags			styling
//	@Produce		json
//	@Param			name	path		string	true	"Deck path"
//	@Param			limit	query		int		false	"Max runs"
//	@Success		200		{object}	AuditHistoryResponse
//	@Security		BearerAuth
//	@Router			/decks/{name}/audits [get]
func (h *Handler) AuditHistory(w http.ResponseWriter, r *http.Request) {
	name := deckName(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.AuditHistory(r.Context(), name, limit)
	if err != nil {
		writeServiceError(w, "audit history", err, slog.String("deck", name))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs": runs,
	})
}

// Search handles GET /api/v1/search.
//
//	@Summary		Full-text search across slide text
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}
