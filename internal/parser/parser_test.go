package parser

import (
	"errors"
	"reflect"
	"testing"

	"github.com/starford/dagaz/internal/apperr"
)

func TestParseSelection(t *testing.T) {
	cases := []struct {
		in   string
		want []int
	}{
		{"1", []int{1}},
		{"1,3-5,8", []int{1, 3, 4, 5, 8}},
		{"5-3", []int{3, 4, 5}},
		{"2,2,2", []int{2}},
		{" 1 , 2 ", []int{1, 2}},
	}
	for _, tc := range cases {
		sel, err := ParseSelection(tc.in)
		if err != nil {
			t.Errorf("ParseSelection(%q): %v", tc.in, err)
			continue
		}
		if got := sel.Numbers(); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseSelection(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseSelectionAll(t *testing.T) {
	sel, err := ParseSelection("")
	if err != nil {
		t.Fatalf("empty selection: %v", err)
	}
	if sel != nil {
		t.Errorf("empty selection should be nil (all), got %v", sel)
	}
	if !sel.Contains(42) {
		t.Error("nil selection should contain every slide")
	}
}

func TestParseSelectionErrors(t *testing.T) {
	for _, in := range []string{"0", "-1", "a", "1-b", "1,0", ","} {
		if _, err := ParseSelection(in); !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("ParseSelection(%q) err = %v, want ErrInvalid", in, err)
		}
	}
}

func TestNormalizeHex(t *testing.T) {
	cases := map[string]string{
		"1f6bff":  "1F6BFF",
		"#1F6BFF": "1F6BFF",
		" ED7D31": "ED7D31",
	}
	for in, want := range cases {
		got, err := NormalizeHex(in)
		if err != nil {
			t.Errorf("NormalizeHex(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("NormalizeHex(%q) = %q, want %q", in, got, want)
		}
	}

	for _, in := range []string{"", "FFF", "GGGGGG", "#12345", "1F6BFF00"} {
		_, err := NormalizeHex(in)
		var ice *apperr.InvalidColorValueError
		if !errors.As(err, &ice) {
			t.Errorf("NormalizeHex(%q) err = %v, want InvalidColorValueError", in, err)
		}
	}
}

func TestParseAssignments(t *testing.T) {
	keys, m, err := ParseAssignments([]string{"accent1=ff0000", "DK1=#001122"})
	if err != nil {
		t.Fatalf("ParseAssignments: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"accent1", "dk1"}) {
		t.Errorf("keys = %v", keys)
	}
	if m["accent1"] != "FF0000" || m["dk1"] != "001122" {
		t.Errorf("map = %v", m)
	}

	if _, _, err := ParseAssignments([]string{"accent1"}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("missing '=': err = %v", err)
	}
	if _, _, err := ParseAssignments([]string{"a=FF0000", "a=00FF00"}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("duplicate key: err = %v", err)
	}
	if _, _, err := ParseAssignments([]string{"a=zzz"}); err == nil {
		t.Error("bad hex accepted")
	}
}

func TestParseAxes(t *testing.T) {
	got, err := ParseAxes("")
	if err != nil {
		t.Fatalf("default axes: %v", err)
	}
	if !reflect.DeepEqual(got, []string{AxisPalette, AxisLayout}) {
		t.Errorf("default axes = %v", got)
	}

	got, err = ParseAxes("B, p,b")
	if err != nil {
		t.Fatalf("ParseAxes: %v", err)
	}
	if !reflect.DeepEqual(got, []string{AxisBackground, AxisPalette}) {
		t.Errorf("axes = %v", got)
	}

	got, err = ParseAxes("Palette,background")
	if err != nil {
		t.Fatalf("ParseAxes long names: %v", err)
	}
	if !reflect.DeepEqual(got, []string{AxisPalette, AxisBackground}) {
		t.Errorf("long-name axes = %v", got)
	}

	if _, err := ParseAxes("x"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("unknown axis err = %v", err)
	}
}
