package deck

import (
	"fmt"
	"strings"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/xmldom"
)

// DumpTree renders the slide→layout→master→theme chains as an indented
// outline, followed by any layouts no slide uses.
func (d *Deck) DumpTree() (string, error) {
	pres, err := d.PresentationPart()
	if err != nil {
		return "", err
	}
	slides, err := d.SlideParts()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "presentation  %s\n", pres)

	used := map[string]bool{}
	for i, slide := range slides {
		fmt.Fprintf(&b, "  slide %-3d   %s\n", i+1, slide)
		layout, lErr := d.LayoutOf(slide)
		if lErr != nil {
			fmt.Fprintf(&b, "    layout    (none)\n")
			continue
		}
		used[layout] = true
		fmt.Fprintf(&b, "    layout    %s%s\n", layout, d.cSldName(layout))
		master, mErr := d.MasterOf(layout)
		if mErr != nil {
			continue
		}
		fmt.Fprintf(&b, "      master  %s\n", master)
		if theme, tErr := d.ThemeOf(master); tErr == nil {
			fmt.Fprintf(&b, "        theme %s%s\n", theme, d.themeName(theme))
		}
	}

	layouts, _ := d.LayoutParts()
	var unused []string
	for _, l := range layouts {
		if !used[l] {
			unused = append(unused, l)
		}
	}
	if len(unused) > 0 {
		b.WriteString("unreferenced layouts\n")
		for _, l := range unused {
			fmt.Fprintf(&b, "  %s%s\n", l, d.cSldName(l))
		}
	}
	return b.String(), nil
}

// DumpSlideTree renders the element tree of one slide (1-based) as an
// indented outline. Attributes appear inline; text content is quoted and
// truncated.
func (d *Deck) DumpSlideTree(number int) (string, error) {
	slides, err := d.SlideParts()
	if err != nil {
		return "", err
	}
	if number < 1 || number > len(slides) {
		return "", fmt.Errorf("slide %d selected but deck has %d slides: %w", number, len(slides), apperr.ErrInvalid)
	}
	part := slides[number-1]
	doc, err := d.Doc(part)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", part)
	dumpNode(&b, doc.Root, 1)
	return b.String(), nil
}

func dumpNode(b *strings.Builder, n *xmldom.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s", indent, n.Name())
	for _, a := range n.Attrs {
		if a.Local == "xmlns" || a.Prefix == "xmlns" {
			continue
		}
		name := a.Local
		if a.Prefix != "" {
			name = a.Prefix + ":" + a.Local
		}
		fmt.Fprintf(b, " %s=%q", name, a.Value)
	}
	b.WriteString("\n")
	for _, c := range n.Children {
		switch c.Kind {
		case xmldom.ElementKind:
			dumpNode(b, c, depth+1)
		case xmldom.TextKind:
			text := strings.TrimSpace(c.Text)
			if text == "" {
				continue
			}
			if len(text) > 40 {
				text = text[:40] + "…"
			}
			fmt.Fprintf(b, "%s  %q\n", indent, text)
		}
	}
}

func (d *Deck) cSldName(part string) string {
	doc, err := d.Doc(part)
	if err != nil {
		return ""
	}
	cSld := doc.Root.FindChild(NSPresentation, "cSld")
	if cSld == nil {
		return ""
	}
	if name := cSld.Attr("name"); name != "" {
		return fmt.Sprintf("  %q", name)
	}
	return ""
}

func (d *Deck) themeName(part string) string {
	doc, err := d.Doc(part)
	if err != nil {
		return ""
	}
	if name := doc.Root.Attr("name"); name != "" {
		return fmt.Sprintf("  %q", name)
	}
	return ""
}
