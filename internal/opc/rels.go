package opc

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/dagaz/internal/apperr"
)

// RelationshipsNS is the OPC package-relationships namespace.
const RelationshipsNS = "http://schemas.openxmlformats.org/package/2006/relationships"

// Relationship is one edge in the relationship graph. Internal targets are
// part-relative paths; external ones are left verbatim (usually URLs).
type Relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
}

// relSet holds the relationships of one source in insertion order.
type relSet struct {
	rels []Relationship
}

type relXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

type relationshipsXML struct {
	XMLName xml.Name `xml:"http://schemas.openxmlformats.org/package/2006/relationships Relationships"`
	Rels    []relXML `xml:"Relationship"`
}

func parseRels(partName string, data []byte) (*relSet, error) {
	var doc relationshipsXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &apperr.MalformedPackageError{Reason: "unparsable relationships part " + partName, Err: err}
	}
	set := &relSet{}
	for _, r := range doc.Rels {
		if r.ID == "" || r.Type == "" || r.Target == "" {
			return nil, &apperr.MalformedPackageError{
				Reason: fmt.Sprintf("relationship in %s missing Id, Type, or Target", partName),
			}
		}
		set.rels = append(set.rels, Relationship{
			ID:       r.ID,
			Type:     r.Type,
			Target:   r.Target,
			External: strings.EqualFold(r.TargetMode, "External"),
		})
	}
	return set, nil
}

func (s *relSet) byID(id string) (Relationship, bool) {
	for _, r := range s.rels {
		if r.ID == id {
			return r, true
		}
	}
	return Relationship{}, false
}

func (s *relSet) firstOfType(relType string) (Relationship, bool) {
	for _, r := range s.rels {
		if r.Type == relType {
			return r, true
		}
	}
	return Relationship{}, false
}

// ensure returns the ID of an existing relationship with the same type,
// target, and mode, or appends a new one under the lowest free rId.
func (s *relSet) ensure(relType, target string, external bool) string {
	for _, r := range s.rels {
		if r.Type == relType && r.Target == target && r.External == external {
			return r.ID
		}
	}
	id := s.nextID()
	s.rels = append(s.rels, Relationship{ID: id, Type: relType, Target: target, External: external})
	return id
}

// nextID allocates the lowest unused rId<N> for this source.
func (s *relSet) nextID() string {
	used := make(map[int]bool, len(s.rels))
	for _, r := range s.rels {
		if n, ok := ridNumber(r.ID); ok {
			used[n] = true
		}
	}
	for n := 1; ; n++ {
		if !used[n] {
			return "rId" + strconv.Itoa(n)
		}
	}
}

func (s *relSet) remove(id string) bool {
	for i, r := range s.rels {
		if r.ID == id {
			s.rels = append(s.rels[:i], s.rels[i+1:]...)
			return true
		}
	}
	return false
}

func (s *relSet) setTarget(id, target string) bool {
	for i, r := range s.rels {
		if r.ID == id {
			s.rels[i].Target = target
			return true
		}
	}
	return false
}

// marshal renders the set sorted by numeric rId suffix; IDs outside the
// rId<N> pattern sort after the numbered ones, lexicographically.
func (s *relSet) marshal() ([]byte, error) {
	sorted := make([]Relationship, len(s.rels))
	copy(sorted, s.rels)
	sort.SliceStable(sorted, func(i, j int) bool {
		ni, iok := ridNumber(sorted[i].ID)
		nj, jok := ridNumber(sorted[j].ID)
		switch {
		case iok && jok:
			return ni < nj
		case iok:
			return true
		case jok:
			return false
		default:
			return sorted[i].ID < sorted[j].ID
		}
	})

	doc := relationshipsXML{}
	for _, r := range sorted {
		rx := relXML{ID: r.ID, Type: r.Type, Target: r.Target}
		if r.External {
			rx.TargetMode = "External"
		}
		doc.Rels = append(doc.Rels, rx)
	}
	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("opc: marshal relationships: %w", err)
	}
	return append([]byte(xmlDecl), body...), nil
}

func ridNumber(id string) (int, bool) {
	if !strings.HasPrefix(id, "rId") {
		return 0, false
	}
	n, err := strconv.Atoi(id[len("rId"):])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
