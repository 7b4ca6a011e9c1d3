package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const maxUploadBytes = 100 << 20 // 100 MB

// UploadDeck handles PUT /api/v1/decks/{name}.
//
// The body carries the deck either raw or as a multipart form with a
// "file" field (what browser clients send). Bytes that do not open as a
// valid package are rejected before anything touches the workspace.
//
//	@Summary		Create or replace a deck
//	@Tags			decks
//	@Accept			application/octet-stream
//	@Produce		json
//	@Param			name		path		string	true	"Deck path"
//	@Param			If-Match	header		string	false	"SHA-256 checksum for optimistic concurrency"
//	@Success		200			{object}	DeckDetail	"Replaced"
//	@Success		201			{object}	DeckDetail	"Created"
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		413			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/decks/{name} [put]
func (h *Handler) UploadDeck(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	name := deckName(r)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("deck path is required"))
		return
	}

	data, err := readUploadBody(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("deck exceeds upload limit"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("request body is required"))
		return
	}

	ifMatch := r.Header.Get("If-Match")
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch = strings.Trim(ifMatch, `"`)

	detail, created, err := h.svc.UploadDeck(r.Context(), name, data, ifMatch)
	if err != nil {
		writeServiceError(w, "upload deck", err, slog.String("deck", name))
		return
	}
	if created {
		writeJSON(w, http.StatusCreated, detail)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func readUploadBody(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, errors.New("file too large or invalid multipart")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New("missing 'file' field in multipart form")
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	return io.ReadAll(r.Body)
}
