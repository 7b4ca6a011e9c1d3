package opc

import (
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/starford/dagaz/internal/apperr"
)

// ContentTypesNS is the OPC content-types namespace.
const ContentTypesNS = "http://schemas.openxmlformats.org/package/2006/content-types"

// ContentTypesPart is the fixed name of the content-types stream.
const ContentTypesPart = "[Content_Types].xml"

// RelsContentType is the content type of relationship parts.
const RelsContentType = "application/vnd.openxmlformats-package.relationships+xml"

// contentTypes is the registry of Default (by extension) and Override
// (by part name) declarations. It is rebuilt into XML on every serialize.
type contentTypes struct {
	defaults  map[string]string // lowercase extension → content type
	overrides map[string]string // normalized part name → content type
}

func newContentTypes() *contentTypes {
	return &contentTypes{
		defaults:  make(map[string]string),
		overrides: make(map[string]string),
	}
}

type ctDefaultXML struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type ctOverrideXML struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type ctTypesXML struct {
	XMLName   xml.Name        `xml:"http://schemas.openxmlformats.org/package/2006/content-types Types"`
	Defaults  []ctDefaultXML  `xml:"Default"`
	Overrides []ctOverrideXML `xml:"Override"`
}

func parseContentTypes(data []byte) (*contentTypes, error) {
	var doc ctTypesXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &apperr.MalformedPackageError{Reason: "unparsable [Content_Types].xml", Err: err}
	}
	ct := newContentTypes()
	for _, d := range doc.Defaults {
		if d.Extension == "" || d.ContentType == "" {
			return nil, &apperr.MalformedPackageError{Reason: "content-type Default missing Extension or ContentType"}
		}
		ct.defaults[lowerASCII(d.Extension)] = d.ContentType
	}
	for _, o := range doc.Overrides {
		if o.PartName == "" || o.ContentType == "" {
			return nil, &apperr.MalformedPackageError{Reason: "content-type Override missing PartName or ContentType"}
		}
		ct.overrides[normName(o.PartName)] = o.ContentType
	}
	return ct, nil
}

// typeOf resolves a part name: overrides win over extension defaults.
func (ct *contentTypes) typeOf(name string) (string, error) {
	name = normName(name)
	if t, ok := ct.overrides[name]; ok {
		return t, nil
	}
	if t, ok := ct.defaults[extensionOf(name)]; ok {
		return t, nil
	}
	return "", fmt.Errorf("no content type declared for %s: %w", name, apperr.ErrInvalid)
}

func (ct *contentTypes) ensureDefault(ext, contentType string) {
	ct.defaults[lowerASCII(ext)] = contentType
}

func (ct *contentTypes) ensureOverride(name, contentType string) {
	ct.overrides[normName(name)] = contentType
}

func (ct *contentTypes) removeOverride(name string) {
	delete(ct.overrides, normName(name))
}

// marshal renders the registry deterministically: defaults sorted by
// extension, overrides sorted by part name.
func (ct *contentTypes) marshal() ([]byte, error) {
	doc := ctTypesXML{}

	exts := make([]string, 0, len(ct.defaults))
	for ext := range ct.defaults {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		doc.Defaults = append(doc.Defaults, ctDefaultXML{Extension: ext, ContentType: ct.defaults[ext]})
	}

	names := make([]string, 0, len(ct.overrides))
	for name := range ct.overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		doc.Overrides = append(doc.Overrides, ctOverrideXML{PartName: "/" + name, ContentType: ct.overrides[name]})
	}

	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("opc: marshal content types: %w", err)
	}
	return append([]byte(xmlDecl), body...), nil
}

const xmlDecl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n"

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
