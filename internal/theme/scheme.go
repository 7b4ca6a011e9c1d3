// Package theme reads and edits the DrawingML theme: the twelve-slot color
// scheme, the major/minor font pairing, and the clrMap/clrMapOvr role
// mappings that slides resolve scheme references through.
package theme

import (
	"fmt"
	"strings"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/xmldom"
)

// Slot is one of the twelve theme color scheme slots.
type Slot string

const (
	SlotDk1      Slot = "dk1"
	SlotLt1      Slot = "lt1"
	SlotDk2      Slot = "dk2"
	SlotLt2      Slot = "lt2"
	SlotAccent1  Slot = "accent1"
	SlotAccent2  Slot = "accent2"
	SlotAccent3  Slot = "accent3"
	SlotAccent4  Slot = "accent4"
	SlotAccent5  Slot = "accent5"
	SlotAccent6  Slot = "accent6"
	SlotHlink    Slot = "hlink"
	SlotFolHlink Slot = "folHlink"
)

// Slots lists every scheme slot in canonical order.
var Slots = []Slot{
	SlotDk1, SlotLt1, SlotDk2, SlotLt2,
	SlotAccent1, SlotAccent2, SlotAccent3, SlotAccent4, SlotAccent5, SlotAccent6,
	SlotHlink, SlotFolHlink,
}

// slotAliases maps the long-form names users type to canonical slots.
var slotAliases = map[string]Slot{
	"dark1":  SlotDk1,
	"light1": SlotLt1,
	"dark2":  SlotDk2,
	"light2": SlotLt2,
}

// CanonicalSlot resolves a user-supplied slot name, accepting the dark1,
// light1, dark2, and light2 aliases. Matching ignores case.
func CanonicalSlot(name string) (Slot, error) {
	if s, ok := slotAliases[strings.ToLower(name)]; ok {
		return s, nil
	}
	for _, s := range Slots {
		if strings.EqualFold(string(s), name) {
			return s, nil
		}
	}
	return "", &apperr.InvalidRoleNameError{Role: name}
}

// ColorKind distinguishes how a scheme slot states its color.
type ColorKind int

const (
	// SrgbColor is a literal RRGGBB value.
	SrgbColor ColorKind = iota
	// SystemColor names an OS color and carries the last rendered value.
	SystemColor
)

// Color is one scheme slot's value. Hex is the uppercase RRGGBB literal,
// taken from lastClr for system colors; it can be empty when a system color
// omits lastClr.
type Color struct {
	Kind   ColorKind
	Hex    string
	SysVal string
}

// Scheme is a parsed color scheme.
type Scheme struct {
	Name   string
	Colors map[Slot]Color
}

// ParseScheme reads the clrScheme out of a theme document.
func ParseScheme(doc *xmldom.Document) (*Scheme, error) {
	elements := doc.Root.FindChild(deck.NSDrawing, "themeElements")
	if elements == nil {
		return nil, &apperr.MalformedPackageError{Reason: "theme has no themeElements"}
	}
	clrScheme := elements.FindChild(deck.NSDrawing, "clrScheme")
	if clrScheme == nil {
		return nil, &apperr.MalformedPackageError{Reason: "theme has no clrScheme"}
	}

	scheme := &Scheme{
		Name:   clrScheme.Attr("name"),
		Colors: make(map[Slot]Color, len(Slots)),
	}
	for _, slot := range Slots {
		slotEl := clrScheme.FindChild(deck.NSDrawing, string(slot))
		if slotEl == nil {
			return nil, &apperr.MalformedPackageError{Reason: fmt.Sprintf("clrScheme missing slot %s", slot)}
		}
		color, err := parseColor(slotEl)
		if err != nil {
			return nil, err
		}
		scheme.Colors[slot] = color
	}
	return scheme, nil
}

func parseColor(slotEl *xmldom.Node) (Color, error) {
	if srgb := slotEl.FindChild(deck.NSDrawing, "srgbClr"); srgb != nil {
		return Color{Kind: SrgbColor, Hex: upperHex(srgb.Attr("val"))}, nil
	}
	if sys := slotEl.FindChild(deck.NSDrawing, "sysClr"); sys != nil {
		return Color{Kind: SystemColor, Hex: upperHex(sys.Attr("lastClr")), SysVal: sys.Attr("val")}, nil
	}
	return Color{}, &apperr.MalformedPackageError{Reason: fmt.Sprintf("slot %s has no srgbClr or sysClr", slotEl.Name())}
}

func upperHex(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// FontSet is one half of the font scheme.
type FontSet struct {
	Latin         string `json:"latin"`
	EastAsian     string `json:"east_asian,omitempty"`
	ComplexScript string `json:"complex_script,omitempty"`
}

// Fonts is a parsed font scheme.
type Fonts struct {
	Name  string  `json:"name"`
	Major FontSet `json:"major"`
	Minor FontSet `json:"minor"`
}

// ParseFonts reads the fontScheme out of a theme document.
func ParseFonts(doc *xmldom.Document) (*Fonts, error) {
	elements := doc.Root.FindChild(deck.NSDrawing, "themeElements")
	if elements == nil {
		return nil, &apperr.MalformedPackageError{Reason: "theme has no themeElements"}
	}
	fontScheme := elements.FindChild(deck.NSDrawing, "fontScheme")
	if fontScheme == nil {
		return nil, &apperr.MalformedPackageError{Reason: "theme has no fontScheme"}
	}

	fonts := &Fonts{Name: fontScheme.Attr("name")}
	major := fontScheme.FindChild(deck.NSDrawing, "majorFont")
	minor := fontScheme.FindChild(deck.NSDrawing, "minorFont")
	if major == nil || minor == nil {
		return nil, &apperr.MalformedPackageError{Reason: "fontScheme missing majorFont or minorFont"}
	}
	var err error
	if fonts.Major, err = parseFontSet(major); err != nil {
		return nil, err
	}
	if fonts.Minor, err = parseFontSet(minor); err != nil {
		return nil, err
	}
	return fonts, nil
}

func parseFontSet(n *xmldom.Node) (FontSet, error) {
	latin := n.FindChild(deck.NSDrawing, "latin")
	if latin == nil {
		return FontSet{}, &apperr.MalformedPackageError{Reason: fmt.Sprintf("%s has no latin font", n.Name())}
	}
	set := FontSet{Latin: latin.Attr("typeface")}
	if ea := n.FindChild(deck.NSDrawing, "ea"); ea != nil {
		set.EastAsian = ea.Attr("typeface")
	}
	if cs := n.FindChild(deck.NSDrawing, "cs"); cs != nil {
		set.ComplexScript = cs.Attr("typeface")
	}
	return set, nil
}
