package theme

import (
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/xmldom"
)

// Editor applies theme edits to a deck's primary theme part.
type Editor struct {
	deck *deck.Deck
}

// NewEditor wraps a deck for theme editing.
func NewEditor(d *deck.Deck) *Editor {
	return &Editor{deck: d}
}

func (e *Editor) themeDoc() (string, *xmldom.Document, error) {
	part, err := e.deck.ThemePart()
	if err != nil {
		return "", nil, err
	}
	doc, err := e.deck.Doc(part)
	if err != nil {
		return "", nil, err
	}
	return part, doc, nil
}

// Scheme returns the parsed color scheme of the primary theme.
func (e *Editor) Scheme() (*Scheme, error) {
	_, doc, err := e.themeDoc()
	if err != nil {
		return nil, err
	}
	return ParseScheme(doc)
}

// Fonts returns the parsed font scheme of the primary theme.
func (e *Editor) Fonts() (*Fonts, error) {
	_, doc, err := e.themeDoc()
	if err != nil {
		return nil, err
	}
	return ParseFonts(doc)
}

// SetColors assigns literal colors to scheme slots. Every name and value is
// validated before the first mutation, so a bad assignment leaves the theme
// untouched. Returns the number of slots changed.
func (e *Editor) SetColors(order []string, values map[string]string) (int, error) {
	part, doc, err := e.themeDoc()
	if err != nil {
		return 0, err
	}
	scheme, err := ParseScheme(doc)
	if err != nil {
		return 0, err
	}

	type edit struct {
		slot Slot
		hex  string
	}
	edits := make([]edit, 0, len(order))
	for _, name := range order {
		slot, slotErr := CanonicalSlot(name)
		if slotErr != nil {
			return 0, slotErr
		}
		hex, hexErr := parser.NormalizeHex(values[name])
		if hexErr != nil {
			return 0, hexErr
		}
		edits = append(edits, edit{slot: slot, hex: hex})
	}

	clrScheme := doc.Root.FindChild(deck.NSDrawing, "themeElements").FindChild(deck.NSDrawing, "clrScheme")
	changed := 0
	for _, ed := range edits {
		cur := scheme.Colors[ed.slot]
		if cur.Kind == SrgbColor && cur.Hex == ed.hex {
			continue
		}
		slotEl := clrScheme.FindChild(deck.NSDrawing, string(ed.slot))
		srgb := xmldom.NewElement(slotEl.Prefix, "srgbClr")
		srgb.SetAttr("val", ed.hex)
		slotEl.Children = nil
		slotEl.AppendChild(srgb)
		changed++
	}
	if changed > 0 {
		e.deck.MarkDirty(part)
	}
	return changed, nil
}

// SetFonts replaces the major and/or minor latin typeface. Empty strings
// leave the corresponding side unchanged.
func (e *Editor) SetFonts(major, minor string) error {
	part, doc, err := e.themeDoc()
	if err != nil {
		return err
	}
	fonts, err := ParseFonts(doc)
	if err != nil {
		return err
	}

	fontScheme := doc.Root.FindChild(deck.NSDrawing, "themeElements").FindChild(deck.NSDrawing, "fontScheme")
	changed := false
	if major != "" && major != fonts.Major.Latin {
		setLatin(fontScheme.FindChild(deck.NSDrawing, "majorFont"), major)
		changed = true
	}
	if minor != "" && minor != fonts.Minor.Latin {
		setLatin(fontScheme.FindChild(deck.NSDrawing, "minorFont"), minor)
		changed = true
	}
	if changed {
		e.deck.MarkDirty(part)
	}
	return nil
}

func setLatin(fontSet *xmldom.Node, typeface string) {
	latin := fontSet.FindChild(deck.NSDrawing, "latin")
	if latin == nil {
		latin = xmldom.NewElement(fontSet.Prefix, "latin")
		fontSet.InsertChildAt(0, latin)
	}
	latin.SetAttr("typeface", typeface)
}

// SetNames renames the theme, its color scheme, and its font scheme. Empty
// strings leave the corresponding name unchanged.
func (e *Editor) SetNames(theme, colors, fonts string) error {
	part, doc, err := e.themeDoc()
	if err != nil {
		return err
	}
	elements := doc.Root.FindChild(deck.NSDrawing, "themeElements")

	changed := false
	set := func(n *xmldom.Node, name string) {
		if n != nil && name != "" && n.Attr("name") != name {
			n.SetAttr("name", name)
			changed = true
		}
	}
	set(doc.Root, theme)
	if elements != nil {
		set(elements.FindChild(deck.NSDrawing, "clrScheme"), colors)
		set(elements.FindChild(deck.NSDrawing, "fontScheme"), fonts)
	}
	if changed {
		e.deck.MarkDirty(part)
	}
	return nil
}

// SlotDump is one row of a theme dump.
type SlotDump struct {
	Slot   string `json:"slot"`
	Kind   string `json:"kind"`
	Value  string `json:"value"`
	SysVal string `json:"sys_val,omitempty"`
}

// Dump is the full readout of a theme part.
type Dump struct {
	Part   string     `json:"part"`
	Name   string     `json:"name"`
	Colors []SlotDump `json:"colors"`
	Fonts  Fonts      `json:"fonts"`
}

// Dump reads the whole theme into a serializable report, slots in
// canonical order.
func (e *Editor) Dump() (*Dump, error) {
	part, doc, err := e.themeDoc()
	if err != nil {
		return nil, err
	}
	scheme, err := ParseScheme(doc)
	if err != nil {
		return nil, err
	}
	fonts, err := ParseFonts(doc)
	if err != nil {
		return nil, err
	}

	dump := &Dump{
		Part:  part,
		Name:  doc.Root.Attr("name"),
		Fonts: *fonts,
	}
	for _, slot := range Slots {
		c := scheme.Colors[slot]
		row := SlotDump{Slot: string(slot), Value: c.Hex}
		switch c.Kind {
		case SrgbColor:
			row.Kind = "srgb"
		case SystemColor:
			row.Kind = "system"
			row.SysVal = c.SysVal
		}
		dump.Colors = append(dump.Colors, row)
	}
	return dump, nil
}
