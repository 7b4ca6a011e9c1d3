package api

import (
	"time"

	"github.com/starford/dagaz/internal/deckservice"
)

// DeckDetail is the full deck response type (aliased from the domain layer).
type DeckDetail = deckservice.DeckDetail

// DeckListItem is a lightweight item in a list response (aliased from the domain layer).
type DeckListItem = deckservice.DeckListItem

// AuditOutcome is the audit response type (aliased from the domain layer).
type AuditOutcome = deckservice.AuditOutcome

// DeckListResponse wraps paginated deck listings.
type DeckListResponse struct {
	Decks []DeckListItem `json:"decks" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"decks/q3.pptx" validate:"required"`
	Name    string `json:"name" example:"q3" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// ValidateResponse reports package and deck findings.
type ValidateResponse struct {
	Valid    bool     `json:"valid" example:"false" validate:"required"`
	Findings []string `json:"findings" validate:"required"`
}

// AuditHistoryResponse wraps recorded audit runs.
type AuditHistoryResponse struct {
	Runs []AuditRunDTO `json:"runs" validate:"required"`
}

// AuditRunDTO mirrors index.AuditRun for swag.
type AuditRunDTO struct {
	ID     string    `json:"id" example:"7f4a1c9e-..."`
	Deck   string    `json:"deck" example:"decks/q3.pptx"`
	Axes   string    `json:"axes" example:"p,l"`
	Groups int       `json:"groups" example:"2"`
	Slides int       `json:"slides" example:"14"`
	RanAt  time.Time `json:"ran_at"`
}

// DeckListItemDTO mirrors DeckListItem for swag.
type DeckListItemDTO struct {
	Path      string    `json:"path" example:"decks/q3.pptx"`
	Name      string    `json:"name" example:"q3"`
	Kind      string    `json:"kind" example:"presentation"`
	Checksum  string    `json:"checksum" example:"abc123..."`
	Size      int64     `json:"size" example:"43210"`
	Slides    int       `json:"slides" example:"14"`
	Theme     string    `json:"theme" example:"Office Theme"`
	UpdatedAt time.Time `json:"updated_at"`
}
