package index

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/dagaz/internal/checksum"
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/storage"
)

// Sync walks the workspace and brings the catalog up to date:
//   - new/changed deck files are opened and upserted
//   - files removed from disk are deleted from the catalog
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDeck(db, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path), slog.String("sum", checksum.Short(m.Checksum)))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDeck(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexDeck opens deck bytes and upserts the catalog row, including the
// flattened slide text for search. The upload path and the watcher both
// funnel through here.
func IndexDeck(db *DB, path string, data []byte, modTime time.Time) error {
	d, err := deck.Open(data)
	if err != nil {
		return err
	}
	info, err := d.Info()
	if err != nil {
		return err
	}

	row := DeckRow{
		Path:      path,
		Name:      DisplayName(path),
		Kind:      info.Kind,
		Checksum:  checksum.Sum(data),
		Size:      int64(len(data)),
		Slides:    info.Slides,
		Layouts:   info.Layouts,
		Masters:   info.Masters,
		Theme:     info.ThemeName,
		UpdatedAt: modTime,
	}
	return db.UpsertDeck(row, d.Text())
}

// DisplayName derives a human-facing deck name from its workspace path.
func DisplayName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
