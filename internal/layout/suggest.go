package layout

import (
	"github.com/starford/dagaz/internal/deck"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/styletree"
)

// Suggestion pairs a slide with the layout whose placeholders fit it best.
type Suggestion struct {
	Slide      int    `json:"slide"`
	Layout     string `json:"layout"`
	LayoutName string `json:"layout_name,omitempty"`
	Score      int    `json:"score"`
	Current    bool   `json:"current"`
	Assigned   bool   `json:"assigned,omitempty"`
}

// Matching an exact type and index outweighs matching the type alone.
const (
	exactMatchScore = 3
	typeMatchScore  = 1
)

// Suggest scores every layout against each selected slide by placeholder
// overlap and picks the best fit. With apply set, winning layouts that
// differ from the slide's current one are assigned on the spot.
func Suggest(d *deck.Deck, sel parser.Selection, apply bool) ([]Suggestion, error) {
	refs, err := d.ResolveSelection(sel)
	if err != nil {
		return nil, err
	}
	layouts, err := d.LayoutParts()
	if err != nil {
		return nil, err
	}

	type candidate struct {
		part string
		phs  []styletree.Placeholder
	}
	candidates := make([]candidate, 0, len(layouts))
	for _, l := range layouts {
		doc, err := d.Doc(l)
		if err != nil {
			continue
		}
		var phs []styletree.Placeholder
		for _, sp := range styletree.Placeholders(doc) {
			if ph, ok := styletree.PlaceholderOf(sp); ok {
				phs = append(phs, ph)
			}
		}
		candidates = append(candidates, candidate{part: l, phs: phs})
	}

	var out []Suggestion
	for _, slide := range refs {
		doc, err := d.Doc(slide.Part)
		if err != nil {
			return nil, err
		}
		var want []styletree.Placeholder
		for _, sp := range styletree.Placeholders(doc) {
			if ph, ok := styletree.PlaceholderOf(sp); ok {
				want = append(want, ph)
			}
		}
		current, _ := d.LayoutOf(slide.Part)

		best := Suggestion{Slide: slide.Number, Score: -1}
		bestDiff := 0
		for _, c := range candidates {
			score := matchScore(want, c.phs)
			diff := len(c.phs) - len(want)
			if diff < 0 {
				diff = -diff
			}
			if score > best.Score || (score == best.Score && diff < bestDiff) {
				best = Suggestion{
					Slide:      slide.Number,
					Layout:     c.part,
					LayoutName: Name(d, c.part),
					Score:      score,
					Current:    c.part == current,
				}
				bestDiff = diff
			}
		}
		if best.Layout == "" {
			continue
		}
		if apply && !best.Current {
			if _, err := assignSlide(d, slide.Part, best.Layout); err != nil {
				return nil, err
			}
			best.Assigned = true
		}
		out = append(out, best)
	}
	return out, nil
}

// matchScore greedily pairs slide placeholders with layout placeholders:
// exact type+idx pairs first, then type-family pairs over whatever remains.
func matchScore(want, have []styletree.Placeholder) int {
	usedHave := make([]bool, len(have))
	matchedWant := make([]bool, len(want))
	score := 0
	for wi, w := range want {
		for i, h := range have {
			if !usedHave[i] && h.Type == w.Type && h.Idx == w.Idx {
				usedHave[i] = true
				matchedWant[wi] = true
				score += exactMatchScore
				break
			}
		}
	}
	for wi, w := range want {
		if matchedWant[wi] {
			continue
		}
		for i, h := range have {
			if !usedHave[i] && styletree.TypeMatches(h.Type, w.Type) {
				usedHave[i] = true
				score += typeMatchScore
				break
			}
		}
	}
	return score
}
