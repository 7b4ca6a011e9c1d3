// Package deck layers presentation semantics over the OPC container: it
// knows which parts are slides, layouts, masters, and themes, how they link
// to each other, and keeps parsed XML trees cached so edits flow back into
// the package only for parts that were actually modified.
package deck

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/opc"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/xmldom"
)

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Deck is one presentation package under edit. Not safe for concurrent use.
type Deck struct {
	pkg   *opc.Package
	docs  map[string]*xmldom.Document
	dirty map[string]bool
}

// Open loads a deck from raw package bytes.
func Open(data []byte) (*Deck, error) {
	pkg, err := opc.Load(data)
	if err != nil {
		return nil, err
	}
	return &Deck{
		pkg:   pkg,
		docs:  make(map[string]*xmldom.Document),
		dirty: make(map[string]bool),
	}, nil
}

// Package exposes the underlying container.
func (d *Deck) Package() *opc.Package { return d.pkg }

// Doc returns the parsed XML tree of a part, cached across calls. Reading
// never marks the part dirty; call MarkDirty after mutating the tree.
func (d *Deck) Doc(name string) (*xmldom.Document, error) {
	if doc, ok := d.docs[name]; ok {
		return doc, nil
	}
	data, err := d.pkg.GetPart(name)
	if err != nil {
		return nil, err
	}
	doc, err := xmldom.Parse(data)
	if err != nil {
		return nil, &apperr.SlideParseError{Part: name, Err: err}
	}
	d.docs[name] = doc
	return doc, nil
}

// MarkDirty flags a cached tree for re-serialization on Save.
func (d *Deck) MarkDirty(name string) {
	d.dirty[name] = true
}

// PutDoc replaces a part with a new tree and marks it dirty.
func (d *Deck) PutDoc(name string, doc *xmldom.Document) {
	d.docs[name] = doc
	d.dirty[name] = true
}

// Flush writes every dirty tree back into the package store.
func (d *Deck) Flush() {
	names := make([]string, 0, len(d.dirty))
	for name, dirty := range d.dirty {
		if dirty {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if doc, ok := d.docs[name]; ok {
			d.pkg.PutPart(name, doc.Marshal())
		}
		d.dirty[name] = false
	}
}

// Save flushes pending edits, repairs the theme wiring the way PowerPoint
// expects it (presentation→theme relationship plus the content-type
// override), and serializes the archive.
func (d *Deck) Save() ([]byte, error) {
	d.Flush()

	if theme, err := d.ThemePart(); err == nil {
		d.pkg.EnsureOverrideType(theme, CTTheme)
		if pres, err := d.PresentationPart(); err == nil {
			rel, relErr := relativeTarget(pres, theme)
			if relErr == nil {
				d.pkg.EnsureRelationship(pres, RelTypeTheme, rel)
			}
		}
	}
	return d.pkg.Serialize()
}

// Validate layers deck checks over the container ones: the presentation part
// must exist, every slide, layout, master, and theme part must parse, and
// slide list entries must resolve.
func (d *Deck) Validate() []error {
	errs := d.pkg.Validate()

	pres, err := d.PresentationPart()
	if err != nil {
		return append(errs, err)
	}

	for _, name := range d.stylingParts() {
		if _, docErr := d.Doc(name); docErr != nil {
			errs = append(errs, docErr)
		}
	}

	if doc, docErr := d.Doc(pres); docErr == nil {
		for _, sldID := range doc.Root.FindAll(NSPresentation, "sldId") {
			embed := RelIDAttr(sldID)
			if embed == "" {
				errs = append(errs, fmt.Errorf("sldId %s has no relationship id: %w", PlainAttr(sldID, "id"), apperr.ErrInvalid))
				continue
			}
			if _, ok := d.pkg.RelationshipByID(pres, embed); !ok {
				errs = append(errs, &apperr.RelationshipDanglingError{Source: pres, ID: embed, Target: "(sldIdLst entry)"})
			}
		}
	}

	return errs
}

func (d *Deck) stylingParts() []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	slides, _ := d.SlideParts()
	for _, s := range slides {
		add(s)
	}
	masters, _ := d.MasterParts()
	for _, m := range masters {
		add(m)
		for _, l := range d.LayoutPartsOf(m) {
			add(l)
		}
	}
	if theme, err := d.ThemePart(); err == nil {
		add(theme)
	}
	return out
}

// PresentationPart resolves the main document part from the package root.
func (d *Deck) PresentationPart() (string, error) {
	if rel, ok := d.pkg.FindRelationship("", RelTypeOfficeDocument); ok {
		name := d.pkg.ResolveTarget("", rel)
		if d.pkg.HasPart(name) {
			return name, nil
		}
	}
	if d.pkg.HasPart("ppt/presentation.xml") {
		return "ppt/presentation.xml", nil
	}
	return "", &apperr.MalformedPackageError{Reason: "no presentation part"}
}

// ThemePart returns the primary theme part: ppt/theme/theme1.xml when
// present, otherwise the first ppt/theme/*.xml in name order.
func (d *Deck) ThemePart() (string, error) {
	if d.pkg.HasPart("ppt/theme/theme1.xml") {
		return "ppt/theme/theme1.xml", nil
	}
	var candidates []string
	for _, name := range d.pkg.PartNames() {
		if strings.HasPrefix(name, "ppt/theme/") && strings.HasSuffix(name, ".xml") {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return "", &apperr.PartNotFoundError{Part: "ppt/theme/*.xml"}
	}
	sort.Strings(candidates)
	return candidates[0], nil
}

// SlideParts returns slide part names in presentation order: the sldIdLst
// resolved through the presentation relationships, falling back to
// ppt/slides/slideN.xml sorted by number when the list is absent.
func (d *Deck) SlideParts() ([]string, error) {
	pres, err := d.PresentationPart()
	if err != nil {
		return nil, err
	}
	doc, err := d.Doc(pres)
	if err != nil {
		return nil, err
	}

	var out []string
	if lst := doc.Root.FindChild(NSPresentation, "sldIdLst"); lst != nil {
		for _, sldID := range lst.FindChildren(NSPresentation, "sldId") {
			rid := RelIDAttr(sldID)
			if rid == "" {
				continue
			}
			rel, ok := d.pkg.RelationshipByID(pres, rid)
			if !ok {
				continue
			}
			name := d.pkg.ResolveTarget(pres, rel)
			if d.pkg.HasPart(name) {
				out = append(out, name)
			}
		}
		if len(out) > 0 {
			return out, nil
		}
	}
	return d.slidePartsByName(), nil
}

func (d *Deck) slidePartsByName() []string {
	type numbered struct {
		n    int
		name string
	}
	var found []numbered
	for _, name := range d.pkg.PartNames() {
		if m := slidePartRe.FindStringSubmatch(name); m != nil {
			n, _ := strconv.Atoi(m[1])
			found = append(found, numbered{n: n, name: name})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })
	out := make([]string, len(found))
	for i, f := range found {
		out[i] = f.name
	}
	return out
}

// SlideRef pairs a 1-based slide number with its part name.
type SlideRef struct {
	Number int
	Part   string
}

// ResolveSelection maps a slide selection onto the deck. Out-of-range
// numbers are a hard error before any caller mutates anything.
func (d *Deck) ResolveSelection(sel parser.Selection) ([]SlideRef, error) {
	slides, err := d.SlideParts()
	if err != nil {
		return nil, err
	}
	if sel == nil {
		out := make([]SlideRef, len(slides))
		for i, name := range slides {
			out[i] = SlideRef{Number: i + 1, Part: name}
		}
		return out, nil
	}
	for _, n := range sel.Numbers() {
		if n > len(slides) {
			return nil, fmt.Errorf("slide %d selected but deck has %d slides: %w", n, len(slides), apperr.ErrInvalid)
		}
	}
	var out []SlideRef
	for i, name := range slides {
		if sel.Contains(i + 1) {
			out = append(out, SlideRef{Number: i + 1, Part: name})
		}
	}
	return out, nil
}

// MasterParts returns slide master part names in sldMasterIdLst order,
// falling back to name order.
func (d *Deck) MasterParts() ([]string, error) {
	pres, err := d.PresentationPart()
	if err != nil {
		return nil, err
	}
	doc, err := d.Doc(pres)
	if err != nil {
		return nil, err
	}

	var out []string
	if lst := doc.Root.FindChild(NSPresentation, "sldMasterIdLst"); lst != nil {
		for _, id := range lst.FindChildren(NSPresentation, "sldMasterId") {
			rid := RelIDAttr(id)
			if rid == "" {
				continue
			}
			rel, ok := d.pkg.RelationshipByID(pres, rid)
			if !ok {
				continue
			}
			name := d.pkg.ResolveTarget(pres, rel)
			if d.pkg.HasPart(name) {
				out = append(out, name)
			}
		}
	}
	if len(out) > 0 {
		return out, nil
	}
	for _, name := range d.pkg.PartNames() {
		if strings.HasPrefix(name, "ppt/slideMasters/") && strings.HasSuffix(name, ".xml") {
			out = append(out, name)
		}
	}
	return out, nil
}

// LayoutPartsOf returns the layout parts a master links to, in rId order.
func (d *Deck) LayoutPartsOf(master string) []string {
	var out []string
	for _, rel := range d.pkg.Relationships(master) {
		if rel.Type != RelTypeSlideLayout || rel.External {
			continue
		}
		name := d.pkg.ResolveTarget(master, rel)
		if d.pkg.HasPart(name) {
			out = append(out, name)
		}
	}
	return out
}

// LayoutParts returns every layout reachable from the masters; decks with no
// master list fall back to the ppt/slideLayouts directory.
func (d *Deck) LayoutParts() ([]string, error) {
	masters, err := d.MasterParts()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, m := range masters {
		for _, l := range d.LayoutPartsOf(m) {
			if !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	if len(out) > 0 {
		return out, nil
	}
	for _, name := range d.pkg.PartNames() {
		if strings.HasPrefix(name, "ppt/slideLayouts/") && strings.HasSuffix(name, ".xml") {
			out = append(out, name)
		}
	}
	return out, nil
}

// LayoutOf resolves the layout a slide is built on.
func (d *Deck) LayoutOf(slide string) (string, error) {
	rel, ok := d.pkg.FindRelationship(slide, RelTypeSlideLayout)
	if !ok {
		return "", fmt.Errorf("slide %s has no layout relationship: %w", slide, apperr.ErrNotFound)
	}
	return d.pkg.ResolveTarget(slide, rel), nil
}

// MasterOf resolves the master a layout belongs to.
func (d *Deck) MasterOf(layout string) (string, error) {
	rel, ok := d.pkg.FindRelationship(layout, RelTypeSlideMaster)
	if !ok {
		return "", fmt.Errorf("layout %s has no master relationship: %w", layout, apperr.ErrNotFound)
	}
	return d.pkg.ResolveTarget(layout, rel), nil
}

// ThemeOf resolves the theme a master references, falling back to the
// primary theme part.
func (d *Deck) ThemeOf(master string) (string, error) {
	if rel, ok := d.pkg.FindRelationship(master, RelTypeTheme); ok {
		return d.pkg.ResolveTarget(master, rel), nil
	}
	return d.ThemePart()
}

// SlideSize returns the deck's slide dimensions in EMU.
func (d *Deck) SlideSize() (cx, cy int64, err error) {
	pres, err := d.PresentationPart()
	if err != nil {
		return 0, 0, err
	}
	doc, err := d.Doc(pres)
	if err != nil {
		return 0, 0, err
	}
	sz := doc.Root.FindChild(NSPresentation, "sldSz")
	if sz == nil {
		return 0, 0, fmt.Errorf("presentation has no sldSz: %w", apperr.ErrNotFound)
	}
	cx, _ = strconv.ParseInt(sz.Attr("cx"), 10, 64)
	cy, _ = strconv.ParseInt(sz.Attr("cy"), 10, 64)
	return cx, cy, nil
}

// RelIDAttr reads the r:id attribute off an element, matching by the
// relationship namespace rather than the literal prefix. sldId and friends
// carry both a plain id and an r:id, so matching by local name alone would
// be ambiguous.
func RelIDAttr(n *xmldom.Node) string {
	for _, a := range n.Attrs {
		if a.Local == "id" && a.Prefix != "" && n.ResolveNS(a.Prefix) == NSDocRels {
			return a.Value
		}
	}
	return ""
}

// PlainAttr reads an unprefixed attribute, skipping any namespaced attribute
// that shares the local name.
func PlainAttr(n *xmldom.Node, local string) string {
	for _, a := range n.Attrs {
		if a.Local == local && a.Prefix == "" {
			return a.Value
		}
	}
	return ""
}

// RenamePart moves a part to a new name in the same directory: bytes (or
// the pending edited tree), the content-type override, and the part's own
// relationships move with it. Inbound relationships are the caller's to
// repoint.
func (d *Deck) RenamePart(oldName, newName string) error {
	ct, hadOverride := d.pkg.OverrideTypeOf(oldName)

	var data []byte
	if doc, ok := d.docs[oldName]; ok && d.dirty[oldName] {
		data = doc.Marshal()
	} else {
		var err error
		data, err = d.pkg.GetPart(oldName)
		if err != nil {
			return err
		}
	}
	rels := d.pkg.Relationships(oldName)

	if err := d.pkg.DeletePart(oldName); err != nil {
		return err
	}
	delete(d.docs, oldName)
	delete(d.dirty, oldName)

	d.pkg.PutPart(newName, data)
	if hadOverride {
		d.pkg.EnsureOverrideType(newName, ct)
	}
	for _, rel := range rels {
		if rel.External {
			d.pkg.EnsureExternalRelationship(newName, rel.Type, rel.Target)
		} else {
			d.pkg.EnsureRelationship(newName, rel.Type, rel.Target)
		}
	}
	return nil
}

// RemovePart drops a part along with its cached tree.
func (d *Deck) RemovePart(name string) error {
	if err := d.pkg.DeletePart(name); err != nil {
		return err
	}
	delete(d.docs, name)
	delete(d.dirty, name)
	return nil
}

// RelativeTarget computes the relationship target string linking source to
// target (both part names).
func RelativeTarget(source, target string) (string, error) {
	return relativeTarget(source, target)
}

// relativeTarget computes the relationship target string for linking source
// to target (both part names).
func relativeTarget(source, target string) (string, error) {
	srcDir := path.Dir(source)
	if srcDir == "." {
		return target, nil
	}
	srcSegs := strings.Split(srcDir, "/")
	tgtSegs := strings.Split(target, "/")

	common := 0
	for common < len(srcSegs) && common < len(tgtSegs)-1 && srcSegs[common] == tgtSegs[common] {
		common++
	}
	var b strings.Builder
	for i := common; i < len(srcSegs); i++ {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(tgtSegs[common:], "/"))
	if b.Len() == 0 {
		return "", fmt.Errorf("cannot relate %s to %s", source, target)
	}
	return b.String(), nil
}
