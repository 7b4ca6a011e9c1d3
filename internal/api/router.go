package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/deckservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *deckservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Decks CRUD. Nested workspace paths use an encoded slash in {name}.
	r.Get("/decks", h.ListDecks)
	r.Route("/decks/{name}", func(r chi.Router) {
		r.Get("/", h.GetDeck)
		r.Put("/", h.UploadDeck)
		r.Delete("/", h.DeleteDeck)
		r.Get("/download", h.DownloadDeck)

		// Styling inspection.
		r.Get("/theme", h.ThemeDump)
		r.Get("/validate", h.ValidateDeck)
		r.Get("/audit", h.Audit)
		r.Get("/audits", h.AuditHistory)
	})

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
