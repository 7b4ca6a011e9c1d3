// Package models defines the domain types shared across dagaz services.
package models

import "time"

// DeckMetadata is a lightweight representation of a deck file on disk,
// returned by storage list and stat operations.
type DeckMetadata struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
