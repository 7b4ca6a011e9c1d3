// Package layout manages slide layout parts: creating layouts from slides,
// assigning them, pruning and renumbering them, and painting their
// backgrounds.
package layout

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/xmldom"
)

var layoutPartRe = regexp.MustCompile(`^ppt/slideLayouts/slideLayout(\d+)\.xml$`)

// Resolve turns a layout reference into a part name. A number selects
// slideLayoutN.xml, a part name is taken as is, anything else matches the
// layout's display name case-insensitively.
func Resolve(d *deck.Deck, ref string) (string, error) {
	layouts, err := d.LayoutParts()
	if err != nil {
		return "", err
	}
	if n, convErr := strconv.Atoi(ref); convErr == nil {
		want := fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", n)
		for _, l := range layouts {
			if l == want {
				return l, nil
			}
		}
		return "", fmt.Errorf("no layout numbered %d: %w", n, apperr.ErrNotFound)
	}
	for _, l := range layouts {
		if l == ref || l == "ppt/slideLayouts/"+ref {
			return l, nil
		}
	}
	for _, l := range layouts {
		if strings.EqualFold(Name(d, l), ref) {
			return l, nil
		}
	}
	return "", fmt.Errorf("no layout named %q: %w", ref, apperr.ErrNotFound)
}

// Name returns a layout's display name, empty when unreadable.
func Name(d *deck.Deck, part string) string {
	doc, err := d.Doc(part)
	if err != nil {
		return ""
	}
	cSld := doc.Root.FindChild(deck.NSPresentation, "cSld")
	if cSld == nil {
		return ""
	}
	return cSld.Attr("name")
}

// MakeFromSlide clones a slide's shape tree into a new layout part so the
// slide's look can be reused. The new part starts as a copy of the slide's
// current layout, takes over the slide's shapes and map override, re-targets
// relationship references the shapes carry, and is registered with the
// master under the given display name. Returns the new part name.
func MakeFromSlide(d *deck.Deck, slideNumber int, name string) (string, error) {
	slides, err := d.SlideParts()
	if err != nil {
		return "", err
	}
	if slideNumber < 1 || slideNumber > len(slides) {
		return "", fmt.Errorf("slide %d selected but deck has %d slides: %w", slideNumber, len(slides), apperr.ErrInvalid)
	}
	slidePart := slides[slideNumber-1]

	srcLayout, err := d.LayoutOf(slidePart)
	if err != nil {
		return "", err
	}
	master, err := d.MasterOf(srcLayout)
	if err != nil {
		return "", err
	}

	slideDoc, err := d.Doc(slidePart)
	if err != nil {
		return "", err
	}
	srcDoc, err := d.Doc(srcLayout)
	if err != nil {
		return "", err
	}

	// Re-parse the marshaled source so the new tree shares nothing with the
	// cached one.
	newDoc, err := xmldom.Parse(srcDoc.Marshal())
	if err != nil {
		return "", &apperr.SlideParseError{Part: srcLayout, Err: err}
	}

	newPart := nextLayoutPart(d)
	newDoc.Root.RemoveAttr("type")

	cSld := newDoc.Root.FindChild(deck.NSPresentation, "cSld")
	if cSld == nil {
		return "", &apperr.MalformedPackageError{Reason: fmt.Sprintf("layout %s has no cSld", srcLayout)}
	}
	if name != "" {
		cSld.SetAttr("name", name)
	}

	if err := transplantShapes(slideDoc, cSld); err != nil {
		return "", err
	}
	transplantMapOverride(slideDoc, newDoc)

	// The part must exist before the next flush so lookups during the same
	// edit session can see it; Flush rewrites the bytes from the cached tree.
	d.Package().PutPart(newPart, newDoc.Marshal())
	d.PutDoc(newPart, newDoc)
	d.Package().EnsureOverrideType(newPart, deck.CTSlideLayout)

	masterTarget, err := deck.RelativeTarget(newPart, master)
	if err != nil {
		return "", err
	}
	d.Package().EnsureRelationship(newPart, deck.RelTypeSlideMaster, masterTarget)

	// Shapes reference the slide's relationship ids, everything kept from
	// the source layout references its own. Rewire each against the part it
	// came from.
	newTree := cSld.FindChild(deck.NSPresentation, "spTree")
	retargetDocRels(d, slidePart, newPart, newTree, nil)
	retargetDocRels(d, srcLayout, newPart, newDoc.Root, newTree)

	if err := registerWithMaster(d, master, newPart); err != nil {
		return "", err
	}
	return newPart, nil
}

// transplantShapes swaps the layout clone's spTree for a copy of the
// slide's.
func transplantShapes(slideDoc *xmldom.Document, cSld *xmldom.Node) error {
	slideCSld := slideDoc.Root.FindChild(deck.NSPresentation, "cSld")
	if slideCSld == nil {
		return &apperr.MalformedPackageError{Reason: "slide has no cSld"}
	}
	slideTree := slideCSld.FindChild(deck.NSPresentation, "spTree")
	if slideTree == nil {
		return &apperr.MalformedPackageError{Reason: "slide has no spTree"}
	}
	old := cSld.FindChild(deck.NSPresentation, "spTree")
	if old == nil {
		return &apperr.MalformedPackageError{Reason: "layout has no spTree"}
	}
	swapChild(cSld, old, slideTree.Clone())
	return nil
}

// transplantMapOverride copies the slide's color map override onto the new
// layout so remapped scheme references keep their meaning.
func transplantMapOverride(slideDoc, layoutDoc *xmldom.Document) {
	slideOvr := slideDoc.Root.FindChild(deck.NSPresentation, "clrMapOvr")
	if slideOvr == nil {
		return
	}
	override := slideOvr.FindChild(deck.NSDrawing, "overrideClrMapping")
	if override == nil {
		return
	}
	layoutOvr := layoutDoc.Root.FindChild(deck.NSPresentation, "clrMapOvr")
	if layoutOvr == nil {
		layoutOvr = xmldom.NewElement(layoutDoc.Root.Prefix, "clrMapOvr")
		idx := len(layoutDoc.Root.Children)
		if cSld := layoutDoc.Root.FindChild(deck.NSPresentation, "cSld"); cSld != nil {
			idx = layoutDoc.Root.IndexOf(cSld) + 1
		}
		layoutDoc.Root.InsertChildAt(idx, layoutOvr)
	}
	for _, el := range layoutOvr.Elements() {
		el.Detach()
	}
	layoutOvr.AppendChild(override.Clone())
}

// retargetDocRels rewrites relationship-id attributes (r:embed, r:link,
// r:id) under root to ids valid for the new part, creating the backing
// relationships as it goes. The skip subtree is left untouched; references
// srcPart cannot resolve are left alone.
func retargetDocRels(d *deck.Deck, srcPart, newPart string, root *xmldom.Node, skip *xmldom.Node) {
	if root == nil {
		return
	}
	pkg := d.Package()
	root.Walk(func(n *xmldom.Node) bool {
		if n == skip {
			return false
		}
		for i, a := range n.Attrs {
			if a.Prefix == "" || a.Prefix == "xmlns" || n.ResolveNS(a.Prefix) != deck.NSDocRels {
				continue
			}
			rel, ok := pkg.RelationshipByID(srcPart, a.Value)
			if !ok {
				continue
			}
			var newID string
			if rel.External {
				newID = pkg.EnsureExternalRelationship(newPart, rel.Type, rel.Target)
			} else {
				abs := pkg.ResolveTarget(srcPart, rel)
				target, err := deck.RelativeTarget(newPart, abs)
				if err != nil {
					continue
				}
				newID = pkg.EnsureRelationship(newPart, rel.Type, target)
			}
			n.Attrs[i].Value = newID
		}
		return true
	})
}

// registerWithMaster appends a sldLayoutId entry for the new layout, with an
// id above every slide master and layout id already in use.
func registerWithMaster(d *deck.Deck, master, newPart string) error {
	target, err := deck.RelativeTarget(master, newPart)
	if err != nil {
		return err
	}
	rid := d.Package().EnsureRelationship(master, deck.RelTypeSlideLayout, target)

	doc, err := d.Doc(master)
	if err != nil {
		return err
	}
	lst := doc.Root.FindChild(deck.NSPresentation, "sldLayoutIdLst")
	if lst == nil {
		lst = xmldom.NewElement(doc.Root.Prefix, "sldLayoutIdLst")
		idx := len(doc.Root.Children)
		if clrMap := doc.Root.FindChild(deck.NSPresentation, "clrMap"); clrMap != nil {
			idx = doc.Root.IndexOf(clrMap) + 1
		}
		doc.Root.InsertChildAt(idx, lst)
	}

	entry := xmldom.NewElement(lst.Prefix, "sldLayoutId")
	entry.SetAttr("id", strconv.FormatInt(nextStylingID(d), 10))
	entry.SetAttrNS("r", "id", rid)
	lst.AppendChild(entry)
	d.MarkDirty(master)
	return nil
}

// nextStylingID picks an id above every sldMasterId and sldLayoutId in the
// deck. The schema floor for these ids is 2147483648.
func nextStylingID(d *deck.Deck) int64 {
	var max int64 = 2147483648
	scan := func(doc *xmldom.Document, local string) {
		for _, el := range doc.Root.FindAll(deck.NSPresentation, local) {
			if v, err := strconv.ParseInt(deck.PlainAttr(el, "id"), 10, 64); err == nil && v > max {
				max = v
			}
		}
	}
	if pres, err := d.PresentationPart(); err == nil {
		if doc, err := d.Doc(pres); err == nil {
			scan(doc, "sldMasterId")
		}
	}
	masters, _ := d.MasterParts()
	for _, m := range masters {
		if doc, err := d.Doc(m); err == nil {
			scan(doc, "sldLayoutId")
		}
	}
	return max + 1
}

func nextLayoutPart(d *deck.Deck) string {
	used := map[int]bool{}
	for _, name := range d.Package().PartNames() {
		if m := layoutPartRe.FindStringSubmatch(name); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				used[n] = true
			}
		}
	}
	n := 1
	for used[n] {
		n++
	}
	return fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", n)
}

// Assign repoints the selected slides at the given layout. Returns how many
// slides actually changed.
func Assign(d *deck.Deck, sel parser.Selection, ref string) (int, error) {
	layoutPart, err := Resolve(d, ref)
	if err != nil {
		return 0, err
	}
	refs, err := d.ResolveSelection(sel)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, slide := range refs {
		ok, err := assignSlide(d, slide.Part, layoutPart)
		if err != nil {
			return changed, err
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

func assignSlide(d *deck.Deck, slidePart, layoutPart string) (bool, error) {
	pkg := d.Package()
	target, err := deck.RelativeTarget(slidePart, layoutPart)
	if err != nil {
		return false, err
	}
	rel, ok := pkg.FindRelationship(slidePart, deck.RelTypeSlideLayout)
	if !ok {
		pkg.EnsureRelationship(slidePart, deck.RelTypeSlideLayout, target)
		return true, nil
	}
	if pkg.ResolveTarget(slidePart, rel) == layoutPart {
		return false, nil
	}
	pkg.SetRelationshipTarget(slidePart, rel.ID, target)
	return true, nil
}

// Prune removes layouts no slide references: the parts, their master list
// entries, and the master relationships. Returns the removed part names.
func Prune(d *deck.Deck) ([]string, error) {
	slides, err := d.SlideParts()
	if err != nil {
		return nil, err
	}
	used := map[string]bool{}
	for _, s := range slides {
		if l, err := d.LayoutOf(s); err == nil {
			used[l] = true
		}
	}

	var removed []string
	masters, err := d.MasterParts()
	if err != nil {
		return nil, err
	}
	for _, master := range masters {
		for _, rel := range d.Package().Relationships(master) {
			if rel.Type != deck.RelTypeSlideLayout || rel.External {
				continue
			}
			layoutPart := d.Package().ResolveTarget(master, rel)
			if used[layoutPart] {
				continue
			}
			d.Package().RemoveRelationship(master, rel.ID)
			dropLayoutEntry(d, master, rel.ID)
			if d.Package().HasPart(layoutPart) {
				if err := d.RemovePart(layoutPart); err != nil {
					return removed, err
				}
				removed = append(removed, layoutPart)
			}
		}
	}

	// Orphan layout parts no master links to.
	for _, name := range d.Package().PartNames() {
		if layoutPartRe.MatchString(name) && !used[name] && !contains(removed, name) {
			if linked(d, masters, name) {
				continue
			}
			if err := d.RemovePart(name); err != nil {
				return removed, err
			}
			removed = append(removed, name)
		}
	}

	sort.Strings(removed)
	return removed, nil
}

func dropLayoutEntry(d *deck.Deck, master, rid string) {
	doc, err := d.Doc(master)
	if err != nil {
		return
	}
	lst := doc.Root.FindChild(deck.NSPresentation, "sldLayoutIdLst")
	if lst == nil {
		return
	}
	for _, entry := range lst.FindChildren(deck.NSPresentation, "sldLayoutId") {
		if deck.RelIDAttr(entry) == rid {
			entry.Detach()
			d.MarkDirty(master)
			return
		}
	}
}

func linked(d *deck.Deck, masters []string, layoutPart string) bool {
	for _, master := range masters {
		for _, rel := range d.Package().Relationships(master) {
			if rel.Type == deck.RelTypeSlideLayout && !rel.External &&
				d.Package().ResolveTarget(master, rel) == layoutPart {
				return true
			}
		}
	}
	return false
}

// Reindex renumbers layout parts to a dense slideLayout1..N in master
// order, renaming through temporary names so swapped numbers cannot
// collide, then repoints every relationship that referenced an old name.
// Returns the old→new mapping for the parts that moved.
func Reindex(d *deck.Deck) (map[string]string, error) {
	masters, err := d.MasterParts()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var order []string
	for _, m := range masters {
		for _, l := range d.LayoutPartsOf(m) {
			if !seen[l] {
				seen[l] = true
				order = append(order, l)
			}
		}
	}
	for _, name := range d.Package().PartNames() {
		if layoutPartRe.MatchString(name) && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}

	mapping := map[string]string{}
	for i, old := range order {
		want := fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", i+1)
		if old != want {
			mapping[old] = want
		}
	}
	if len(mapping) == 0 {
		return mapping, nil
	}

	for old := range mapping {
		if err := d.RenamePart(old, old+".swap"); err != nil {
			return nil, err
		}
	}
	for old, want := range mapping {
		if err := d.RenamePart(old+".swap", want); err != nil {
			return nil, err
		}
	}

	for _, source := range d.Package().RelSources() {
		for _, rel := range d.Package().Relationships(source) {
			if rel.External {
				continue
			}
			resolved := d.Package().ResolveTarget(source, rel)
			want, moved := mapping[resolved]
			if !moved {
				continue
			}
			target, err := deck.RelativeTarget(source, want)
			if err != nil {
				return nil, err
			}
			d.Package().SetRelationshipTarget(source, rel.ID, target)
		}
	}
	return mapping, nil
}

// SetBackgroundColor replaces a layout's background with a flat color.
func SetBackgroundColor(d *deck.Deck, ref, hex string) error {
	normalized, err := parser.NormalizeHex(hex)
	if err != nil {
		return err
	}
	part, cSld, err := backgroundTarget(d, ref)
	if err != nil {
		return err
	}

	aPrefix := drawingPrefix(cSld)
	fill := xmldom.NewElement(aPrefix, "solidFill")
	clr := xmldom.NewElement(aPrefix, "srgbClr")
	clr.SetAttr("val", normalized)
	fill.AppendChild(clr)

	installBackground(cSld, fill)
	d.MarkDirty(part)
	return nil
}

// SetBackgroundImage replaces a layout's background with a stretched
// picture fill over an image part already stored in the deck.
func SetBackgroundImage(d *deck.Deck, ref, imagePart string) error {
	if !d.Package().HasPart(imagePart) {
		return &apperr.PartNotFoundError{Part: imagePart}
	}
	part, cSld, err := backgroundTarget(d, ref)
	if err != nil {
		return err
	}
	target, err := deck.RelativeTarget(part, imagePart)
	if err != nil {
		return err
	}
	rid := d.Package().EnsureRelationship(part, deck.RelTypeImage, target)

	aPrefix := drawingPrefix(cSld)
	fill := xmldom.NewElement(aPrefix, "blipFill")
	blip := xmldom.NewElement(aPrefix, "blip")
	blip.SetAttrNS("r", "embed", rid)
	fill.AppendChild(blip)
	stretch := xmldom.NewElement(aPrefix, "stretch")
	stretch.AppendChild(xmldom.NewElement(aPrefix, "fillRect"))
	fill.AppendChild(stretch)

	installBackground(cSld, fill)
	d.MarkDirty(part)
	return nil
}

func backgroundTarget(d *deck.Deck, ref string) (string, *xmldom.Node, error) {
	part, err := Resolve(d, ref)
	if err != nil {
		return "", nil, err
	}
	doc, err := d.Doc(part)
	if err != nil {
		return "", nil, err
	}
	cSld := doc.Root.FindChild(deck.NSPresentation, "cSld")
	if cSld == nil {
		return "", nil, &apperr.MalformedPackageError{Reason: fmt.Sprintf("layout %s has no cSld", part)}
	}
	return part, cSld, nil
}

// installBackground replaces any existing bg element with bg>bgPr>fill at
// the head of cSld.
func installBackground(cSld *xmldom.Node, fill *xmldom.Node) {
	if old := cSld.FindChild(deck.NSPresentation, "bg"); old != nil {
		old.Detach()
	}
	bg := xmldom.NewElement(cSld.Prefix, "bg")
	bgPr := xmldom.NewElement(cSld.Prefix, "bgPr")
	bgPr.AppendChild(fill)
	bg.AppendChild(bgPr)
	cSld.InsertChildAt(firstElementIndex(cSld), bg)
}

// swapChild puts repl at old's position without the child-moving semantics
// of ReplaceChild.
func swapChild(parent, old, repl *xmldom.Node) {
	i := parent.IndexOf(old)
	parent.RemoveChild(old)
	parent.InsertChildAt(i, repl)
}

func drawingPrefix(n *xmldom.Node) string {
	if prefix, ok := n.PrefixFor(deck.NSDrawing); ok {
		return prefix
	}
	return "a"
}

func firstElementIndex(n *xmldom.Node) int {
	for i, c := range n.Children {
		if c.Kind == xmldom.ElementKind {
			return i
		}
	}
	return len(n.Children)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
