// Package palette loads and applies palette documents: portable YAML or
// JSON files naming theme colors, fonts, and an optional theme name.
package palette

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/theme"
)

// Fonts names the two typeface sides of a font scheme.
type Fonts struct {
	Major string `json:"major,omitempty" yaml:"major,omitempty"`
	Minor string `json:"minor,omitempty" yaml:"minor,omitempty"`
}

// Palette is the exchange document for theme styling. Color keys are scheme
// slot names or their long aliases, values are RRGGBB hex.
type Palette struct {
	Name   string            `json:"name,omitempty" yaml:"name,omitempty"`
	Colors map[string]string `json:"colors" yaml:"colors"`
	Fonts  Fonts             `json:"fonts,omitempty" yaml:"fonts,omitempty"`
}

// Validate checks the slot names and color values.
func (p *Palette) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Colors, validation.Required, validation.By(validateColors)),
	)
}

func validateColors(value interface{}) error {
	colors, _ := value.(map[string]string)
	seen := map[theme.Slot]string{}
	for name, hex := range colors {
		slot, err := theme.CanonicalSlot(name)
		if err != nil {
			return err
		}
		if prev, dup := seen[slot]; dup {
			return fmt.Errorf("colors %q and %q name the same slot", prev, name)
		}
		seen[slot] = name
		if _, err := parser.NormalizeHex(hex); err != nil {
			return err
		}
	}
	return nil
}

// Parse decodes palette bytes in the format the file name implies.
func Parse(name string, data []byte) (*Palette, error) {
	var p Palette
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse palette %s: %w", name, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse palette %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("unsupported palette format %q, want .yaml, .yml, or .json: %w", filepath.Ext(name), apperr.ErrInvalid)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("palette %s: %w", name, err)
	}
	return &p, nil
}

// Load reads and parses a palette file.
func Load(path string) (*Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read palette: %w", err)
	}
	return Parse(path, data)
}

// Result reports what Apply changed.
type Result struct {
	ColorsChanged int  `json:"colors_changed"`
	FontsChanged  bool `json:"fonts_changed"`
	Renamed       bool `json:"renamed"`
}

// Apply pushes a palette into the deck's theme: colors in scheme order,
// then fonts, then the theme name.
func Apply(d *deck.Deck, p *Palette) (Result, error) {
	var res Result
	if err := p.Validate(); err != nil {
		return res, err
	}
	ed := theme.NewEditor(d)

	changed, err := ed.SetColors(canonicalOrder(p.Colors), p.Colors)
	if err != nil {
		return res, err
	}
	res.ColorsChanged = changed

	if p.Fonts.Major != "" || p.Fonts.Minor != "" {
		before, err := ed.Fonts()
		if err != nil {
			return res, err
		}
		if err := ed.SetFonts(p.Fonts.Major, p.Fonts.Minor); err != nil {
			return res, err
		}
		after, err := ed.Fonts()
		if err != nil {
			return res, err
		}
		res.FontsChanged = before.Major.Latin != after.Major.Latin || before.Minor.Latin != after.Minor.Latin
	}

	if p.Name != "" {
		part, err := d.ThemePart()
		if err != nil {
			return res, err
		}
		doc, err := d.Doc(part)
		if err != nil {
			return res, err
		}
		was := doc.Root.Attr("name")
		if err := ed.SetNames(p.Name, "", ""); err != nil {
			return res, err
		}
		res.Renamed = was != p.Name
	}
	return res, nil
}

// canonicalOrder lists the palette's color keys in scheme slot order so
// edits land deterministically.
func canonicalOrder(colors map[string]string) []string {
	var order []string
	for _, slot := range theme.Slots {
		for key := range colors {
			if got, err := theme.CanonicalSlot(key); err == nil && got == slot {
				order = append(order, key)
				break
			}
		}
	}
	return order
}

// Template renders the deck's current theme as a palette document others
// can edit and apply. Formats: "yaml" (default) or "json".
func Template(d *deck.Deck, format string) ([]byte, error) {
	ed := theme.NewEditor(d)
	dump, err := ed.Dump()
	if err != nil {
		return nil, err
	}
	fonts, err := ed.Fonts()
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		return yamlTemplate(dump, fonts), nil
	case "json":
		p := Palette{
			Name:   dump.Name,
			Colors: make(map[string]string, len(dump.Colors)),
			Fonts:  Fonts{Major: fonts.Major.Latin, Minor: fonts.Minor.Latin},
		}
		for _, row := range dump.Colors {
			p.Colors[row.Slot] = hexOrBlack(row.Value)
		}
		return json.MarshalIndent(p, "", "  ")
	}
	return nil, fmt.Errorf("unsupported template format %q: %w", format, apperr.ErrInvalid)
}

// yamlTemplate writes slots in scheme order with a short usage header,
// which plain map marshaling cannot do.
func yamlTemplate(dump *theme.Dump, fonts *theme.Fonts) []byte {
	var b strings.Builder
	b.WriteString("# Palette exported from the deck's theme.\n")
	b.WriteString("# Edit the values and apply with: dagaz theme apply-palette\n")
	fmt.Fprintf(&b, "name: %q\n", dump.Name)
	b.WriteString("colors:\n")
	for _, row := range dump.Colors {
		fmt.Fprintf(&b, "  %s: %q\n", row.Slot, hexOrBlack(row.Value))
	}
	b.WriteString("fonts:\n")
	fmt.Fprintf(&b, "  major: %q\n", fonts.Major.Latin)
	fmt.Fprintf(&b, "  minor: %q\n", fonts.Minor.Latin)
	return []byte(b.String())
}

func hexOrBlack(hex string) string {
	if hex == "" {
		return "000000"
	}
	return hex
}

// ParseMapping decodes a hex→role table for the normalize rewrite, in the
// same formats palettes use. Key and role validation happens in the
// rewrite itself.
func ParseMapping(name string, data []byte) (map[string]string, error) {
	out := map[string]string{}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("parse mapping %s: %w", name, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("parse mapping %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("unsupported mapping format %q, want .yaml, .yml, or .json: %w", filepath.Ext(name), apperr.ErrInvalid)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("mapping %s is empty: %w", name, apperr.ErrInvalid)
	}
	return out, nil
}

// LoadMapping reads and parses a mapping file.
func LoadMapping(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	return ParseMapping(path, data)
}
