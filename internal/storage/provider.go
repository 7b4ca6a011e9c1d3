// Package storage defines the workspace file-system abstraction.
package storage

import (
	"path/filepath"
	"strings"

	"github.com/starford/dagaz/internal/models"
)

// Provider is the interface for workspace file operations.
type Provider interface {
	// List returns metadata for every deck file under dir (relative to the workspace root).
	List(dir string) ([]models.DeckMetadata, error)
	// Stat returns metadata for the single file at path.
	Stat(path string) (models.DeckMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the workspace root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the workspace root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the workspace root).
	Delete(path string) error
}

// IsDeckFile reports whether name carries a presentation or template
// extension. Listing and watching skip everything else.
func IsDeckFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pptx", ".potx":
		return true
	}
	return false
}
