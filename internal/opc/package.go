// Package opc implements the Open Packaging Conventions container model:
// a ZIP of parts plus relationship parts and a content-type stream. Loading
// keeps every part's original bytes; serializing rewrites the whole archive,
// regenerating [Content_Types].xml and all .rels parts from the in-memory
// registry and graph while untouched parts are copied byte for byte.
package opc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/starford/dagaz/internal/apperr"
)

type part struct {
	data  []byte
	dirty bool
}

// Package is an in-memory OPC container. It is not safe for concurrent use;
// one goroutine owns a Package at a time.
type Package struct {
	parts map[string]*part
	rels  map[string]*relSet // key: source part name, "" for package root
	types *contentTypes
}

// New returns an empty package with an empty content-type registry.
func New() *Package {
	return &Package{
		parts: make(map[string]*part),
		rels:  make(map[string]*relSet),
		types: newContentTypes(),
	}
}

// Load opens a package from raw ZIP bytes.
func Load(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &apperr.MalformedPackageError{Reason: "not a ZIP archive", Err: err}
	}

	p := New()
	var sawTypes bool

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := normName(f.Name)
		rc, err := f.Open()
		if err != nil {
			return nil, &apperr.MalformedPackageError{Reason: "unreadable entry " + name, Err: err}
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &apperr.MalformedPackageError{Reason: "unreadable entry " + name, Err: err}
		}

		switch {
		case name == ContentTypesPart:
			ct, err := parseContentTypes(content)
			if err != nil {
				return nil, err
			}
			p.types = ct
			sawTypes = true
		case isRelsPart(name):
			source, _ := sourceForRelsPart(name)
			set, err := parseRels(name, content)
			if err != nil {
				return nil, err
			}
			p.rels[source] = set
		default:
			p.parts[name] = &part{data: content}
		}
	}

	if !sawTypes {
		return nil, &apperr.MalformedPackageError{Reason: "missing [Content_Types].xml"}
	}
	return p, nil
}

// HasPart reports whether the package contains the named part.
func (p *Package) HasPart(name string) bool {
	_, ok := p.parts[normName(name)]
	return ok
}

// GetPart returns the current bytes of a part.
func (p *Package) GetPart(name string) ([]byte, error) {
	pt, ok := p.parts[normName(name)]
	if !ok {
		return nil, &apperr.PartNotFoundError{Part: normName(name)}
	}
	return pt.data, nil
}

// PutPart inserts or replaces a part and marks it dirty.
func (p *Package) PutPart(name string, data []byte) {
	p.parts[normName(name)] = &part{data: data, dirty: true}
}

// DeletePart removes a part together with its own relationships and any
// content-type override. Relationships from other parts that point at the
// deleted part are left in place; Validate reports them as dangling.
func (p *Package) DeletePart(name string) error {
	name = normName(name)
	if _, ok := p.parts[name]; !ok {
		return &apperr.PartNotFoundError{Part: name}
	}
	delete(p.parts, name)
	delete(p.rels, name)
	p.types.removeOverride(name)
	return nil
}

// PartNames returns every part name in sorted order.
func (p *Package) PartNames() []string {
	names := make([]string, 0, len(p.parts))
	for name := range p.parts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DirtyParts returns the names of parts modified since load, sorted.
func (p *Package) DirtyParts() []string {
	var names []string
	for name, pt := range p.parts {
		if pt.dirty {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Relationships returns a copy of the relationships of source ("" = root).
func (p *Package) Relationships(source string) []Relationship {
	set, ok := p.rels[normName(source)]
	if !ok {
		return nil
	}
	out := make([]Relationship, len(set.rels))
	copy(out, set.rels)
	return out
}

// RelationshipByID looks up one relationship of source by its ID.
func (p *Package) RelationshipByID(source, id string) (Relationship, bool) {
	set, ok := p.rels[normName(source)]
	if !ok {
		return Relationship{}, false
	}
	return set.byID(id)
}

// FindRelationship returns the first relationship of source with relType.
func (p *Package) FindRelationship(source, relType string) (Relationship, bool) {
	set, ok := p.rels[normName(source)]
	if !ok {
		return Relationship{}, false
	}
	return set.firstOfType(relType)
}

// EnsureRelationship ensures an internal relationship from source to target
// and returns its ID. An existing relationship with the same type and target
// is reused; otherwise the lowest unused rId is allocated.
func (p *Package) EnsureRelationship(source, relType, target string) string {
	return p.ensureRel(source, relType, target, false)
}

// EnsureExternalRelationship is EnsureRelationship for external targets.
func (p *Package) EnsureExternalRelationship(source, relType, target string) string {
	return p.ensureRel(source, relType, target, true)
}

func (p *Package) ensureRel(source, relType, target string, external bool) string {
	source = normName(source)
	set, ok := p.rels[source]
	if !ok {
		set = &relSet{}
		p.rels[source] = set
	}
	return set.ensure(relType, target, external)
}

// RemoveRelationship deletes one relationship of source by ID.
func (p *Package) RemoveRelationship(source, id string) bool {
	set, ok := p.rels[normName(source)]
	if !ok {
		return false
	}
	return set.remove(id)
}

// SetRelationshipTarget repoints an existing relationship.
func (p *Package) SetRelationshipTarget(source, id, target string) bool {
	set, ok := p.rels[normName(source)]
	if !ok {
		return false
	}
	return set.setTarget(id, target)
}

// ResolveTarget resolves an internal relationship target to a part name.
func (p *Package) ResolveTarget(source string, rel Relationship) string {
	return resolveTarget(normName(source), rel.Target)
}

// RelSources returns every source that has relationships, sorted; the
// package root appears as the empty string.
func (p *Package) RelSources() []string {
	out := make([]string, 0, len(p.rels))
	for source := range p.rels {
		out = append(out, source)
	}
	sort.Strings(out)
	return out
}

// ContentTypeOf resolves a part's content type (override, then default).
func (p *Package) ContentTypeOf(name string) (string, error) {
	return p.types.typeOf(name)
}

// OverrideTypeOf reports the part-name override only, ignoring extension
// defaults.
func (p *Package) OverrideTypeOf(name string) (string, bool) {
	ct, ok := p.types.overrides[normName(name)]
	return ct, ok
}

// EnsureDefaultType registers an extension default content type.
func (p *Package) EnsureDefaultType(ext, contentType string) {
	p.types.ensureDefault(ext, contentType)
}

// EnsureOverrideType registers a part-name content-type override.
func (p *Package) EnsureOverrideType(name, contentType string) {
	p.types.ensureOverride(name, contentType)
}

// RemoveOverrideType drops a part-name override, if present.
func (p *Package) RemoveOverrideType(name string) {
	p.types.removeOverride(name)
}

// Validate collects structural problems without failing fast: dangling
// internal relationship targets, relationship sources that no longer exist,
// and parts with no applicable content type.
func (p *Package) Validate() []error {
	var errs []error

	for _, source := range p.RelSources() {
		if source != "" {
			if _, ok := p.parts[source]; !ok {
				errs = append(errs, fmt.Errorf("relationships declared for missing part %s: %w", source, apperr.ErrInvalid))
				continue
			}
		}
		for _, r := range p.rels[source].rels {
			if r.External {
				continue
			}
			target := resolveTarget(source, r.Target)
			if _, ok := p.parts[target]; !ok {
				errs = append(errs, &apperr.RelationshipDanglingError{Source: displaySource(source), ID: r.ID, Target: target})
			}
		}
	}

	for _, name := range p.PartNames() {
		if _, err := p.ContentTypeOf(name); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

func displaySource(source string) string {
	if source == "" {
		return "<package>"
	}
	return source
}

// Serialize rewrites the package as a fresh ZIP archive. Entry order is
// deterministic: the content-type stream, the root relationships, then parts
// sorted by name with each part's relationships directly after it. Clean
// parts keep their exact loaded bytes.
func (p *Package) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	writeEntry := func(name string, data []byte) error {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("opc: create entry %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("opc: write entry %s: %w", name, err)
		}
		return nil
	}

	ctData, err := p.types.marshal()
	if err != nil {
		return nil, err
	}
	if err := writeEntry(ContentTypesPart, ctData); err != nil {
		return nil, err
	}

	writeRels := func(source string) error {
		set, ok := p.rels[source]
		if !ok || len(set.rels) == 0 {
			return nil
		}
		data, err := set.marshal()
		if err != nil {
			return err
		}
		return writeEntry(relsPartFor(source), data)
	}

	if err := writeRels(""); err != nil {
		return nil, err
	}
	for _, name := range p.PartNames() {
		if err := writeEntry(name, p.parts[name].data); err != nil {
			return nil, err
		}
		if err := writeRels(name); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("opc: close archive: %w", err)
	}
	return buf.Bytes(), nil
}
