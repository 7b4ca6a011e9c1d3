// Package parser turns user-facing input strings (slide selections, color
// assignments, audit axes) into typed values, validating before anything
// downstream mutates a deck.
package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/dagaz/internal/apperr"
)

var (
	hexRe   = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)
	rangeRe = regexp.MustCompile(`^(\d+)-(\d+)$`)
)

// Selection is a set of 1-based slide numbers. A nil Selection means "all
// slides".
type Selection map[int]struct{}

// Contains reports whether slide number n is selected. A nil selection
// contains every slide.
func (s Selection) Contains(n int) bool {
	if s == nil {
		return true
	}
	_, ok := s[n]
	return ok
}

// Numbers returns the selected slide numbers in ascending order.
func (s Selection) Numbers() []int {
	out := make([]int, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// ParseSelection parses a selection expression like "1,3-5,8" into a slide
// number set. Ranges given backwards ("5-3") are normalized. The empty
// string selects all slides (nil). Zero and negative numbers are rejected.
func ParseSelection(expr string) (Selection, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	sel := make(Selection)
	for _, tok := range strings.Split(expr, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if m := rangeRe.FindStringSubmatch(tok); m != nil {
			lo, _ := strconv.Atoi(m[1])
			hi, _ := strconv.Atoi(m[2])
			if lo > hi {
				lo, hi = hi, lo
			}
			if lo < 1 {
				return nil, fmt.Errorf("slide numbers are 1-based, got %q: %w", tok, apperr.ErrInvalid)
			}
			for n := lo; n <= hi; n++ {
				sel[n] = struct{}{}
			}
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("bad slide selection token %q: %w", tok, apperr.ErrInvalid)
		}
		if n < 1 {
			return nil, fmt.Errorf("slide numbers are 1-based, got %d: %w", n, apperr.ErrInvalid)
		}
		sel[n] = struct{}{}
	}
	if len(sel) == 0 {
		return nil, fmt.Errorf("empty slide selection %q: %w", expr, apperr.ErrInvalid)
	}
	return sel, nil
}

// NormalizeHex canonicalizes a color literal: optional leading '#', exactly
// six hex digits, uppercased.
func NormalizeHex(s string) (string, error) {
	v := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if !hexRe.MatchString(v) {
		return "", &apperr.InvalidColorValueError{Value: s}
	}
	return strings.ToUpper(v), nil
}

// ParseAssignments parses "name=RRGGBB" pairs (color slot or role
// assignments from the command line) into an ordered key list plus a map
// with normalized hex values. Keys are lowercased; duplicate keys are an
// error.
func ParseAssignments(args []string) ([]string, map[string]string, error) {
	out := make(map[string]string, len(args))
	keys := make([]string, 0, len(args))
	for _, arg := range args {
		name, value, found := strings.Cut(arg, "=")
		if !found {
			return nil, nil, fmt.Errorf("expected name=RRGGBB, got %q: %w", arg, apperr.ErrInvalid)
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return nil, nil, fmt.Errorf("empty name in %q: %w", arg, apperr.ErrInvalid)
		}
		hex, err := NormalizeHex(value)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := out[name]; dup {
			return nil, nil, fmt.Errorf("duplicate assignment for %q: %w", name, apperr.ErrInvalid)
		}
		out[name] = hex
		keys = append(keys, name)
	}
	return keys, out, nil
}

// Audit grouping axes.
const (
	AxisPalette    = "p"
	AxisBackground = "b"
	AxisLayout     = "l"
)

// DefaultAxes is the grouping used when the caller does not name any.
var DefaultAxes = []string{AxisPalette, AxisLayout}

// ParseAxes parses a comma-separated audit axis list. Axes go by single
// letter ("p,b,l") or full name ("palette,background,layout"); the empty
// string yields DefaultAxes. Duplicates collapse, order is kept.
func ParseAxes(expr string) ([]string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		out := make([]string, len(DefaultAxes))
		copy(out, DefaultAxes)
		return out, nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range strings.Split(expr, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		switch tok {
		case AxisPalette, AxisBackground, AxisLayout:
		case "palette":
			tok = AxisPalette
		case "background":
			tok = AxisBackground
		case "layout":
			tok = AxisLayout
		default:
			return nil, fmt.Errorf("unknown audit axis %q (want p, b, or l): %w", tok, apperr.ErrInvalid)
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty axis list %q: %w", expr, apperr.ErrInvalid)
	}
	return out, nil
}
