package deckservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/audit"
	"github.com/starford/dagaz/internal/checksum"
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/theme"
)

// DeckDetail is the full representation of a stored deck.
type DeckDetail struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	Info      deck.Info `json:"info"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeckListItem is a lightweight item in a list response.
type DeckListItem struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	Slides    int       `json:"slides"`
	Layouts   int       `json:"layouts"`
	Masters   int       `json:"masters"`
	Theme     string    `json:"theme"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditOutcome bundles one audit pass with its recorded run.
type AuditOutcome struct {
	Run    index.AuditRun `json:"run"`
	Report *audit.Report  `json:"report"`
	Groups []audit.Group  `json:"groups"`
}

// Service coordinates storage and index operations.
type Service struct {
	store  storage.Provider
	db     *index.DB
	notify func(kind, path string)
}

// NewService creates a new deck service.
func NewService(store storage.Provider, db *index.DB) *Service {
	return &Service{store: store, db: db}
}

// SetEventFunc registers a callback invoked after successful mutations.
// kind is one of "created", "updated", "deleted", or "audited".
func (s *Service) SetEventFunc(fn func(kind, path string)) {
	s.notify = fn
}

// GetDeck reads a deck from storage and summarizes it.
func (s *Service) GetDeck(_ context.Context, path string) (*DeckDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	d, err := deck.Open(data)
	if err != nil {
		return nil, err
	}
	return buildDeckDetail(path, data, d)
}

// UploadDeck writes deck bytes with optimistic concurrency and indexes
// them. The bytes must open as a valid package before anything touches
// disk. The returned flag reports whether the path was newly created.
func (s *Service) UploadDeck(_ context.Context, path string, data []byte, ifMatch string) (*DeckDetail, bool, error) {
	if !storage.IsDeckFile(path) {
		return nil, false, fmt.Errorf("%s: not a deck file: %w", path, apperr.ErrInvalid)
	}
	d, err := deck.Open(data)
	if err != nil {
		return nil, false, err
	}

	created := false
	existing, err := s.store.Read(path)
	switch {
	case err == nil:
		if ifMatch != "" && ifMatch != checksum.Sum(existing) {
			return nil, false, apperr.ErrConflict
		}
	case errors.Is(err, os.ErrNotExist):
		if ifMatch != "" {
			return nil, false, apperr.ErrConflict
		}
		created = true
	default:
		return nil, false, err
	}

	if err := s.store.Write(path, data); err != nil {
		return nil, false, err
	}
	if err := index.IndexDeck(s.db, path, data, time.Now()); err != nil {
		return nil, false, err
	}
	if created {
		s.event("created", path)
	} else {
		s.event("updated", path)
	}
	detail, err := buildDeckDetail(path, data, d)
	return detail, created, err
}

// DeleteDeck removes a deck from storage and index.
func (s *Service) DeleteDeck(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	if err := s.db.DeleteDeck(path); err != nil {
		return err
	}
	s.event("deleted", path)
	return nil
}

// ListDecks returns paginated catalog rows.
func (s *Service) ListDecks(_ context.Context, limit, offset int, sort string) ([]DeckListItem, int, error) {
	rows, total, err := s.db.ListDecks(limit, offset, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DeckListItem, len(rows))
	for i, r := range rows {
		items[i] = DeckListItem{
			Path:      r.Path,
			Name:      r.Name,
			Kind:      r.Kind,
			Checksum:  r.Checksum,
			Size:      r.Size,
			Slides:    r.Slides,
			Layouts:   r.Layouts,
			Masters:   r.Masters,
			Theme:     r.Theme,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Download returns the raw deck bytes.
func (s *Service) Download(_ context.Context, path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// ValidateDeck runs the package and deck checks and returns findings as
// display strings. An empty slice means the deck is sound.
func (s *Service) ValidateDeck(ctx context.Context, path string) ([]string, error) {
	data, err := s.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	d, err := deck.Open(data)
	if err != nil {
		return nil, err
	}
	findings := []string{}
	for _, vErr := range d.Validate() {
		findings = append(findings, vErr.Error())
	}
	return findings, nil
}

// ThemeDump reads the deck's theme into a serializable report.
func (s *Service) ThemeDump(ctx context.Context, path string) (*theme.Dump, error) {
	data, err := s.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	d, err := deck.Open(data)
	if err != nil {
		return nil, err
	}
	return theme.NewEditor(d).Dump()
}

// Audit inspects the selected slides, clusters them along the given
// axes, and records the run. Empty expressions fall back to all slides
// and the default axes.
func (s *Service) Audit(_ context.Context, path, slidesExpr, axesExpr string) (*AuditOutcome, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	d, err := deck.Open(data)
	if err != nil {
		return nil, err
	}
	sel, err := parser.ParseSelection(slidesExpr)
	if err != nil {
		return nil, err
	}
	axes, err := parser.ParseAxes(axesExpr)
	if err != nil {
		return nil, err
	}

	report, err := audit.Audit(d, sel)
	if err != nil {
		return nil, err
	}
	groups, err := report.Group(axes)
	if err != nil {
		return nil, err
	}

	run := index.AuditRun{
		ID:     uuid.New().String(),
		Deck:   path,
		Axes:   strings.Join(axes, ","),
		Groups: len(groups),
		Slides: report.SlidesAudited,
		RanAt:  time.Now().UTC(),
	}
	if err := s.db.AddAuditRun(run); err != nil {
		return nil, err
	}
	s.event("audited", path)

	return &AuditOutcome{Run: run, Report: report, Groups: nonNilSlice(groups)}, nil
}

// AuditHistory returns recorded audit runs for a deck, newest first.
func (s *Service) AuditHistory(_ context.Context, path string, limit int) ([]index.AuditRun, error) {
	runs, err := s.db.AuditRuns(path, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(runs), nil
}

func (s *Service) event(kind, path string) {
	if s.notify != nil {
		s.notify(kind, path)
	}
}

// buildDeckDetail constructs a DeckDetail from raw data without re-reading
// the file.
func buildDeckDetail(path string, data []byte, d *deck.Deck) (*DeckDetail, error) {
	info, err := d.Info()
	if err != nil {
		return nil, err
	}
	return &DeckDetail{
		Path:      path,
		Name:      index.DisplayName(path),
		Checksum:  checksum.Sum(data),
		Size:      int64(len(data)),
		Info:      info,
		UpdatedAt: time.Now(),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
