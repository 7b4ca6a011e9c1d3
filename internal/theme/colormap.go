package theme

import (
	"fmt"
	"strings"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/xmldom"
)

// Role is one of the twelve color map roles slides reference colors by.
type Role string

const (
	RoleBg1      Role = "bg1"
	RoleTx1      Role = "tx1"
	RoleBg2      Role = "bg2"
	RoleTx2      Role = "tx2"
	RoleAccent1  Role = "accent1"
	RoleAccent2  Role = "accent2"
	RoleAccent3  Role = "accent3"
	RoleAccent4  Role = "accent4"
	RoleAccent5  Role = "accent5"
	RoleAccent6  Role = "accent6"
	RoleHlink    Role = "hlink"
	RoleFolHlink Role = "folHlink"
)

// Roles lists every color map role in the order clrMap writes them.
var Roles = []Role{
	RoleBg1, RoleTx1, RoleBg2, RoleTx2,
	RoleAccent1, RoleAccent2, RoleAccent3, RoleAccent4, RoleAccent5, RoleAccent6,
	RoleHlink, RoleFolHlink,
}

// slotCorrespondence pairs the slot names a schemeClr may carry directly
// with the role that resolves the same way through the map.
var slotCorrespondence = map[Slot]Role{
	SlotDk1: RoleTx1,
	SlotLt1: RoleBg1,
	SlotDk2: RoleTx2,
	SlotLt2: RoleBg2,
}

// CanonicalRole resolves a scheme reference or user-supplied name to a map
// role. Slot names dk1/lt1/dk2/lt2 and their long aliases fold onto the
// corresponding text/background roles. Matching ignores case.
func CanonicalRole(name string) (Role, error) {
	for _, r := range Roles {
		if strings.EqualFold(string(r), name) {
			return r, nil
		}
	}
	slot := Slot(strings.ToLower(name))
	if alias, ok := slotAliases[strings.ToLower(name)]; ok {
		slot = alias
	}
	if role, ok := slotCorrespondence[slot]; ok {
		return role, nil
	}
	return "", &apperr.InvalidRoleNameError{Role: name}
}

// ColorMap is a parsed clrMap or overrideClrMapping: a bijection from the
// twelve roles onto the twelve scheme slots.
type ColorMap struct {
	slots map[Role]Slot
}

// DefaultColorMap returns the mapping PowerPoint writes into new masters.
func DefaultColorMap() *ColorMap {
	return &ColorMap{slots: map[Role]Slot{
		RoleBg1: SlotLt1, RoleTx1: SlotDk1, RoleBg2: SlotLt2, RoleTx2: SlotDk2,
		RoleAccent1: SlotAccent1, RoleAccent2: SlotAccent2, RoleAccent3: SlotAccent3,
		RoleAccent4: SlotAccent4, RoleAccent5: SlotAccent5, RoleAccent6: SlotAccent6,
		RoleHlink: SlotHlink, RoleFolHlink: SlotFolHlink,
	}}
}

// ParseColorMap reads a clrMap or overrideClrMapping element. Every role
// must be present, name a real slot, and no two roles may share a slot.
func ParseColorMap(n *xmldom.Node) (*ColorMap, error) {
	cm := &ColorMap{slots: make(map[Role]Slot, len(Roles))}
	taken := make(map[Slot]Role, len(Roles))
	for _, role := range Roles {
		val := n.Attr(string(role))
		if val == "" {
			return nil, &apperr.MalformedPackageError{Reason: fmt.Sprintf("%s missing role %s", n.Name(), role)}
		}
		slot, err := CanonicalSlot(val)
		if err != nil {
			return nil, &apperr.MalformedPackageError{Reason: fmt.Sprintf("%s role %s names unknown slot %q", n.Name(), role, val)}
		}
		if prev, dup := taken[slot]; dup {
			return nil, &apperr.MalformedPackageError{Reason: fmt.Sprintf("%s maps both %s and %s to slot %s", n.Name(), prev, role, slot)}
		}
		taken[slot] = role
		cm.slots[role] = slot
	}
	return cm, nil
}

// SlotFor returns the slot a role maps to.
func (cm *ColorMap) SlotFor(role Role) (Slot, bool) {
	s, ok := cm.slots[role]
	return s, ok
}

// Apply writes the mapping onto a clrMap element as attributes in
// canonical role order.
func (cm *ColorMap) Apply(n *xmldom.Node) {
	for _, role := range Roles {
		n.SetAttr(string(role), string(cm.slots[role]))
	}
}

// ActiveMap resolves the color map in effect for a slide: its own
// overrideClrMapping when present, otherwise the master's clrMap.
func ActiveMap(d *deck.Deck, slide string) (*ColorMap, error) {
	doc, err := d.Doc(slide)
	if err != nil {
		return nil, err
	}
	if ovr := doc.Root.FindChild(deck.NSPresentation, "clrMapOvr"); ovr != nil {
		if mapping := ovr.FindChild(deck.NSDrawing, "overrideClrMapping"); mapping != nil {
			return ParseColorMap(mapping)
		}
	}

	layout, err := d.LayoutOf(slide)
	if err != nil {
		return nil, err
	}
	master, err := d.MasterOf(layout)
	if err != nil {
		return nil, err
	}
	return MasterMap(d, master)
}

// MasterMap reads a master's clrMap.
func MasterMap(d *deck.Deck, master string) (*ColorMap, error) {
	doc, err := d.Doc(master)
	if err != nil {
		return nil, err
	}
	clrMap := doc.Root.FindChild(deck.NSPresentation, "clrMap")
	if clrMap == nil {
		return nil, &apperr.MalformedPackageError{Reason: fmt.Sprintf("master %s has no clrMap", master)}
	}
	return ParseColorMap(clrMap)
}
