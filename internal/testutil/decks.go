// Package testutil provides shared test fixtures: multi-slide decks and
// workspace directories.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/xmldom"
)

// BuildDeck returns an in-memory deck with n slides, all on the same
// layout. Slide 1 is the stock minimal slide; the rest are copies of it.
func BuildDeck(t *testing.T, n int) *deck.Deck {
	t.Helper()
	d := deck.New(false)
	for i := 2; i <= n; i++ {
		AddSlideCopy(t, d, i)
	}
	return d
}

// AddSlideCopy clones slide 1 into ppt/slides/slide<n>.xml and appends it
// to the slide list.
func AddSlideCopy(t *testing.T, d *deck.Deck, n int) string {
	t.Helper()
	pkg := d.Package()

	src, err := pkg.GetPart("ppt/slides/slide1.xml")
	if err != nil {
		t.Fatalf("slide1 missing: %v", err)
	}
	name := fmt.Sprintf("ppt/slides/slide%d.xml", n)
	pkg.PutPart(name, src)
	pkg.EnsureOverrideType(name, deck.CTSlide)
	pkg.EnsureRelationship(name, deck.RelTypeSlideLayout, "../slideLayouts/slideLayout1.xml")

	pres, err := d.PresentationPart()
	if err != nil {
		t.Fatalf("presentation part: %v", err)
	}
	rid := pkg.EnsureRelationship(pres, deck.RelTypeSlide, fmt.Sprintf("slides/slide%d.xml", n))

	doc, err := d.Doc(pres)
	if err != nil {
		t.Fatalf("presentation doc: %v", err)
	}
	lst := doc.Root.FindChild(deck.NSPresentation, "sldIdLst")
	if lst == nil {
		t.Fatal("presentation has no sldIdLst")
	}
	sldID := xmldom.NewElement("p", "sldId")
	sldID.SetAttr("id", strconv.Itoa(255+n))
	sldID.SetAttrNS("r", "id", rid)
	lst.AppendChild(sldID)
	d.MarkDirty(pres)

	return name
}

// DeckBytes builds an n-slide deck and serializes it.
func DeckBytes(t *testing.T, n int) []byte {
	t.Helper()
	data, err := BuildDeck(t, n).Save()
	if err != nil {
		t.Fatalf("save deck: %v", err)
	}
	return data
}

// WriteDeck writes an n-slide deck into dir under the given file name and
// returns the full path.
func WriteDeck(t *testing.T, dir, name string, n int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, DeckBytes(t, n), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	return path
}

// Workspace creates a temp dir pre-populated with the named decks, each
// with slides slide count.
func Workspace(t *testing.T, slides int, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		WriteDeck(t, dir, name, slides)
	}
	return dir
}
