package theme

import (
	"errors"
	"testing"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/xmldom"
)

func TestParseSchemeFromFreshDeck(t *testing.T) {
	e := NewEditor(deck.New(false))
	scheme, err := e.Scheme()
	if err != nil {
		t.Fatalf("scheme: %v", err)
	}
	if scheme.Name != "Office" {
		t.Errorf("scheme name = %q", scheme.Name)
	}
	if len(scheme.Colors) != 12 {
		t.Fatalf("slots = %d, want 12", len(scheme.Colors))
	}

	dk1 := scheme.Colors[SlotDk1]
	if dk1.Kind != SystemColor || dk1.SysVal != "windowText" || dk1.Hex != "000000" {
		t.Errorf("dk1 = %+v", dk1)
	}
	a1 := scheme.Colors[SlotAccent1]
	if a1.Kind != SrgbColor || a1.Hex != "4472C4" {
		t.Errorf("accent1 = %+v", a1)
	}
}

func TestCanonicalSlot(t *testing.T) {
	cases := []struct {
		in   string
		want Slot
		ok   bool
	}{
		{"dk1", SlotDk1, true},
		{"dark1", SlotDk1, true},
		{"LIGHT2", SlotLt2, true},
		{"FolHlink", SlotFolHlink, true},
		{"folhlink", SlotFolHlink, true},
		{"accent3", SlotAccent3, true},
		{"bg1", "", false},
		{"banana", "", false},
	}
	for _, tc := range cases {
		got, err := CanonicalSlot(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Errorf("CanonicalSlot(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
			}
			continue
		}
		if !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("CanonicalSlot(%q) err = %v, want ErrInvalid", tc.in, err)
		}
	}
}

func TestCanonicalRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"tx1", RoleTx1, true},
		{"accent6", RoleAccent6, true},
		{"dk1", RoleTx1, true},
		{"dark1", RoleTx1, true},
		{"lt2", RoleBg2, true},
		{"LIGHT1", RoleBg1, true},
		{"folHlink", RoleFolHlink, true},
		{"phClr", "", false},
		{"nope", "", false},
	}
	for _, tc := range cases {
		got, err := CanonicalRole(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Errorf("CanonicalRole(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
			}
			continue
		}
		var roleErr *apperr.InvalidRoleNameError
		if !errors.As(err, &roleErr) {
			t.Errorf("CanonicalRole(%q) err = %v, want InvalidRoleNameError", tc.in, err)
		}
	}
}

func colorMapNode(overrides map[string]string) *xmldom.Node {
	n := xmldom.NewElement("p", "clrMap")
	n.SetAttrNS("xmlns", "p", deck.NSPresentation)
	DefaultColorMap().Apply(n)
	for role, slot := range overrides {
		if slot == "" {
			n.RemoveAttr(role)
		} else {
			n.SetAttr(role, slot)
		}
	}
	return n
}

func TestParseColorMap(t *testing.T) {
	cm, err := ParseColorMap(colorMapNode(nil))
	if err != nil {
		t.Fatalf("default map: %v", err)
	}
	if slot, _ := cm.SlotFor(RoleBg1); slot != SlotLt1 {
		t.Errorf("bg1 -> %q, want lt1", slot)
	}
	if slot, _ := cm.SlotFor(RoleAccent4); slot != SlotAccent4 {
		t.Errorf("accent4 -> %q", slot)
	}
}

func TestParseColorMapRejectsBrokenMaps(t *testing.T) {
	cases := map[string]map[string]string{
		"missing role":   {"tx2": ""},
		"unknown slot":   {"accent1": "accent9"},
		"duplicate slot": {"accent1": "accent2"},
	}
	for name, overrides := range cases {
		if _, err := ParseColorMap(colorMapNode(overrides)); !errors.Is(err, apperr.ErrMalformed) {
			t.Errorf("%s: err = %v, want ErrMalformed", name, err)
		}
	}
}

func TestActiveMapUsesOverrideWhenPresent(t *testing.T) {
	d := deck.New(false)
	slides, _ := d.SlideParts()

	// masterClrMapping defers to the master.
	cm, err := ActiveMap(d, slides[0])
	if err != nil {
		t.Fatalf("active map: %v", err)
	}
	if slot, _ := cm.SlotFor(RoleAccent1); slot != SlotAccent1 {
		t.Errorf("accent1 -> %q before override", slot)
	}

	doc, _ := d.Doc(slides[0])
	ovr := doc.Root.FindChild(deck.NSPresentation, "clrMapOvr")
	ovr.Children = nil
	mapping := xmldom.NewElement("a", "overrideClrMapping")
	ovr.AppendChild(mapping)
	DefaultColorMap().Apply(mapping)
	mapping.SetAttr("accent1", "accent2")
	mapping.SetAttr("accent2", "accent1")

	cm, err = ActiveMap(d, slides[0])
	if err != nil {
		t.Fatalf("active map with override: %v", err)
	}
	if slot, _ := cm.SlotFor(RoleAccent1); slot != SlotAccent2 {
		t.Errorf("accent1 -> %q, want accent2 via override", slot)
	}
}

func TestSetColorsRoundTrip(t *testing.T) {
	d := deck.New(false)
	e := NewEditor(d)

	changed, err := e.SetColors(
		[]string{"accent1", "dark1"},
		map[string]string{"accent1": "FF0000", "dark1": "222222"},
	)
	if err != nil {
		t.Fatalf("set colors: %v", err)
	}
	if changed != 2 {
		t.Errorf("changed = %d, want 2", changed)
	}

	data, err := d.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	re, err := deck.Open(data)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	scheme, err := NewEditor(re).Scheme()
	if err != nil {
		t.Fatalf("scheme: %v", err)
	}
	if c := scheme.Colors[SlotAccent1]; c.Kind != SrgbColor || c.Hex != "FF0000" {
		t.Errorf("accent1 = %+v", c)
	}
	if c := scheme.Colors[SlotDk1]; c.Kind != SrgbColor || c.Hex != "222222" {
		t.Errorf("dk1 = %+v (system color should have been replaced)", c)
	}

	// Same assignment again is a no-op.
	changed, err = NewEditor(re).SetColors([]string{"accent1"}, map[string]string{"accent1": "ff0000"})
	if err != nil {
		t.Fatalf("repeat set: %v", err)
	}
	if changed != 0 {
		t.Errorf("repeat changed = %d, want 0", changed)
	}
}

func TestSetColorsValidatesBeforeMutating(t *testing.T) {
	d := deck.New(false)
	e := NewEditor(d)

	_, err := e.SetColors(
		[]string{"accent1", "banana"},
		map[string]string{"accent1": "00FF00", "banana": "112233"},
	)
	var roleErr *apperr.InvalidRoleNameError
	if !errors.As(err, &roleErr) {
		t.Fatalf("err = %v, want InvalidRoleNameError", err)
	}

	scheme, _ := e.Scheme()
	if c := scheme.Colors[SlotAccent1]; c.Hex != "4472C4" {
		t.Errorf("accent1 = %+v, want untouched 4472C4", c)
	}

	_, err = e.SetColors([]string{"accent2"}, map[string]string{"accent2": "red"})
	var colorErr *apperr.InvalidColorValueError
	if !errors.As(err, &colorErr) {
		t.Errorf("err = %v, want InvalidColorValueError", err)
	}
}

func TestSetFontsAndNames(t *testing.T) {
	d := deck.New(false)
	e := NewEditor(d)

	if err := e.SetFonts("Georgia", ""); err != nil {
		t.Fatalf("set fonts: %v", err)
	}
	if err := e.SetNames("Dagaz", "Dagaz Colors", ""); err != nil {
		t.Fatalf("set names: %v", err)
	}

	dump, err := e.Dump()
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if dump.Name != "Dagaz" {
		t.Errorf("theme name = %q", dump.Name)
	}
	if dump.Fonts.Major.Latin != "Georgia" {
		t.Errorf("major latin = %q", dump.Fonts.Major.Latin)
	}
	if dump.Fonts.Minor.Latin != "Calibri" {
		t.Errorf("minor latin = %q, want untouched Calibri", dump.Fonts.Minor.Latin)
	}

	scheme, _ := e.Scheme()
	if scheme.Name != "Dagaz Colors" {
		t.Errorf("scheme name = %q", scheme.Name)
	}
}

func TestDumpOrdersSlots(t *testing.T) {
	dump, err := NewEditor(deck.New(false)).Dump()
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if dump.Part != "ppt/theme/theme1.xml" {
		t.Errorf("part = %q", dump.Part)
	}
	if len(dump.Colors) != 12 {
		t.Fatalf("rows = %d", len(dump.Colors))
	}
	if dump.Colors[0].Slot != "dk1" || dump.Colors[0].Kind != "system" {
		t.Errorf("first row = %+v", dump.Colors[0])
	}
	if dump.Colors[11].Slot != "folHlink" || dump.Colors[11].Value != "954F72" {
		t.Errorf("last row = %+v", dump.Colors[11])
	}
}
