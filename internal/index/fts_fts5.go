//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS decks_fts USING fts5(
			path UNINDEXED,
			name,
			theme,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path, name, theme, body string) error {
	_, _ = tx.Exec(`DELETE FROM decks_fts WHERE path = ?`, path)
	_, err := tx.Exec(`INSERT INTO decks_fts (path, name, theme, body) VALUES (?, ?, ?, ?)`,
		path, name, theme, body)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM decks_fts WHERE path = ?`, path)
}

// Search performs an FTS5 full-text search over slide text and returns
// matching decks with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT path,
		       name,
		       snippet(decks_fts, 3, '<b>', '</b>', '...', 64)
		FROM decks_fts
		WHERE decks_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Name, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
