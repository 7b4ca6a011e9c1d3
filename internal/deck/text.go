package deck

import (
	"strings"

	"github.com/starford/dagaz/internal/xmldom"
)

// ExtractText flattens a slide's visible text: one line per paragraph,
// runs within a paragraph joined without separators. Slides that fail to
// parse contribute nothing.
func (d *Deck) ExtractText(slide string) string {
	doc, err := d.Doc(slide)
	if err != nil {
		return ""
	}
	var lines []string
	doc.Root.Walk(func(n *xmldom.Node) bool {
		if !n.Is(NSDrawing, "p") {
			return true
		}
		var b strings.Builder
		for _, t := range n.FindAll(NSDrawing, "t") {
			b.WriteString(t.InnerText())
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			lines = append(lines, s)
		}
		return false
	})
	return strings.Join(lines, "\n")
}

// Text concatenates the extracted text of every slide in order, for
// indexing.
func (d *Deck) Text() string {
	slides, err := d.SlideParts()
	if err != nil {
		return ""
	}
	var chunks []string
	for _, s := range slides {
		if t := d.ExtractText(s); t != "" {
			chunks = append(chunks, t)
		}
	}
	return strings.Join(chunks, "\n")
}
