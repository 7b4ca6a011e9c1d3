package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/storage"
)

// fileStore roots a storage provider at the file's directory so deck I/O
// goes through the provider's traversal guard and atomic writes.
func fileStore(path string, create bool) (storage.Provider, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	dir := filepath.Dir(abs)
	if create {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, "", err
		}
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		return nil, "", err
	}
	return store, filepath.Base(abs), nil
}

// readDeck loads the deck named by --in.
func readDeck(cmd *cli.Command) (*deck.Deck, string, error) {
	in := cmd.String("in")
	if in == "" {
		return nil, "", cli.Exit("--in is required", 2)
	}
	store, name, err := fileStore(in, false)
	if err != nil {
		return nil, "", err
	}
	data, err := store.Read(name)
	if err != nil {
		return nil, "", err
	}
	d, err := deck.Open(data)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", in, err)
	}
	return d, in, nil
}

// writeDeck saves the deck to --out, defaulting to in-place.
func writeDeck(cmd *cli.Command, in string, d *deck.Deck) error {
	out := cmd.String("out")
	if out == "" {
		out = in
	}
	store, name, err := fileStore(out, true)
	if err != nil {
		return err
	}
	data, err := d.Save()
	if err != nil {
		return err
	}
	return store.Write(name, data)
}

func inFlag() cli.Flag {
	return &cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "Source deck file (.pptx/.potx)"}
}

func outFlag() cli.Flag {
	return &cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Destination deck file (defaults to --in)"}
}

func slidesFlag() cli.Flag {
	return &cli.StringFlag{Name: "slides", Aliases: []string{"s"}, Usage: "Slide selection like 1-3,5 (default all)"}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Output format: text, json, or yaml", Value: "text"}
}
