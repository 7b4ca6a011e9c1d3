package opc

import (
	"path"
	"strings"
)

// normName canonicalizes a part name for storage: forward slashes, no
// leading slash. Case is preserved and names compare case-sensitively.
func normName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.TrimPrefix(name, "/")
}

// relsPartFor returns the name of the .rels part that holds relationships
// for source. The empty source means the package root.
func relsPartFor(source string) string {
	if source == "" {
		return "_rels/.rels"
	}
	dir, base := path.Split(source)
	return dir + "_rels/" + base + ".rels"
}

// sourceForRelsPart inverts relsPartFor. ok is false when the name is not a
// well-formed .rels part name.
func sourceForRelsPart(relsName string) (source string, ok bool) {
	if relsName == "_rels/.rels" {
		return "", true
	}
	dir, base := path.Split(relsName)
	if !strings.HasSuffix(dir, "_rels/") || !strings.HasSuffix(base, ".rels") {
		return "", false
	}
	parent := strings.TrimSuffix(dir, "_rels/")
	return parent + strings.TrimSuffix(base, ".rels"), true
}

// isRelsPart reports whether name denotes a relationships part.
func isRelsPart(name string) bool {
	_, ok := sourceForRelsPart(name)
	return ok
}

// resolveTarget resolves a relationship target against its source part.
// Absolute targets (leading slash) resolve against the package root;
// relative ones against the source part's directory.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return normName(target)
	}
	base := path.Dir(source)
	if base == "." {
		base = ""
	}
	return path.Clean(path.Join(base, target))
}

// extensionOf returns the lowercase extension of a part name without the dot.
func extensionOf(name string) string {
	ext := path.Ext(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
