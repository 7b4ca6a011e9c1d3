package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/dagaz/internal/apperr"
)

// DeckRow represents a row in the decks table.
type DeckRow struct {
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

// SearchResult represents one slide-text search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

// AuditRun records one audit executed through the service.
type AuditRun struct {
	ID     string    `json:"id"`
	Deck   string    `json:"deck"`
	Axes   string    `json:"axes"`
	Groups int       `json:"groups"`
	Slides int       `json:"slides"`
	RanAt  time.Time `json:"ran_at"`
}

const deckColumns = `path, name, kind, checksum, size, slides, layouts, masters, theme, updated_at`

func scanDeck(row interface{ Scan(...any) error }) (DeckRow, error) {
	var r DeckRow
	err := row.Scan(&r.Path, &r.Name, &r.Kind, &r.Checksum, &r.Size,
		&r.Slides, &r.Layouts, &r.Masters, &r.Theme, &r.UpdatedAt)
	return r, err
}

// UpsertDeck inserts or replaces a deck row and its FTS entry within a
// transaction. body is the flattened slide text used for search.
func (db *DB) UpsertDeck(row DeckRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO decks (path, name, kind, checksum, size, slides, layouts, masters, theme, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name       = excluded.name,
			kind       = excluded.kind,
			checksum   = excluded.checksum,
			size       = excluded.size,
			slides     = excluded.slides,
			layouts    = excluded.layouts,
			masters    = excluded.masters,
			theme      = excluded.theme,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, row.Path, row.Name, row.Kind, row.Checksum, row.Size,
		row.Slides, row.Layouts, row.Masters, row.Theme, body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert deck: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, row.Path, row.Name, row.Theme, body); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteDeck removes a deck row and its FTS entry.
func (db *DB) DeleteDeck(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM decks WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM audit_runs WHERE deck = ?`, path)

	return tx.Commit()
}

// GetDeck returns the catalog row for one deck.
func (db *DB) GetDeck(path string) (*DeckRow, error) {
	row, err := scanDeck(db.conn.QueryRow(
		`SELECT `+deckColumns+` FROM decks WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: deck %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get deck: %w", err)
	}
	return &row, nil
}

// GetChecksum returns the stored checksum for a deck, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM decks WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// ListDecks returns a page of catalog rows plus the total count. sort is one
// of updated_at (default, newest first), name, path, slides.
func (db *DB) ListDecks(limit, offset int, sort string) ([]DeckRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	order := "updated_at DESC"
	switch sort {
	case "", "updated_at":
	case "name":
		order = "name COLLATE NOCASE ASC"
	case "path":
		order = "path ASC"
	case "slides":
		order = "slides DESC"
	default:
		return nil, 0, fmt.Errorf("index: unknown sort %q: %w", sort, apperr.ErrInvalid)
	}

	total, err := db.CountDecks()
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.conn.Query(
		`SELECT `+deckColumns+` FROM decks ORDER BY `+order+` LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list decks: %w", err)
	}
	defer rows.Close()

	var out []DeckRow
	for rows.Next() {
		r, err := scanDeck(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// CountDecks returns the number of cataloged decks.
func (db *DB) CountDecks() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM decks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count decks: %w", err)
	}
	return n, nil
}

// AllChecksums returns path → checksum for every cataloged deck.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM decks`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// AddAuditRun records a completed audit.
func (db *DB) AddAuditRun(run AuditRun) error {
	_, err := db.conn.Exec(`
		INSERT INTO audit_runs (id, deck, axes, group_count, slide_count, ran_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Deck, run.Axes, run.Groups, run.Slides, run.RanAt)
	if err != nil {
		return fmt.Errorf("index: add audit run: %w", err)
	}
	return nil
}

// AuditRuns returns the most recent audit records for a deck, newest first.
func (db *DB) AuditRuns(deck string, limit int) ([]AuditRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, deck, axes, group_count, slide_count, ran_at
		FROM audit_runs
		WHERE deck = ?
		ORDER BY ran_at DESC, id
		LIMIT ?
	`, deck, limit)
	if err != nil {
		return nil, fmt.Errorf("index: audit runs: %w", err)
	}
	defer rows.Close()

	var out []AuditRun
	for rows.Next() {
		var r AuditRun
		if err := rows.Scan(&r.ID, &r.Deck, &r.Axes, &r.Groups, &r.Slides, &r.RanAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
