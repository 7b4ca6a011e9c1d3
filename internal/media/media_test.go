package media

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/deck"
)

var pngStub = append([]byte("\x89PNG\r\n\x1a\n"), []byte("stub")...)

func TestAddImageNumbersAcrossExtensions(t *testing.T) {
	d := deck.New(false)

	first, err := AddImage(d, pngStub, "png")
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	if first != "ppt/media/image1.png" {
		t.Fatalf("first image part = %q", first)
	}

	second, err := AddImage(d, []byte{0xFF, 0xD8, 0xFF, 0xE0}, ".JPG")
	if err != nil {
		t.Fatalf("AddImage jpg: %v", err)
	}
	if second != "ppt/media/image2.jpg" {
		t.Fatalf("second image part = %q", second)
	}

	data, err := d.Package().GetPart(first)
	if err != nil || string(data[8:]) != "stub" {
		t.Fatalf("stored bytes mismatch: %q err=%v", data, err)
	}
}

func TestAddImageFillsGaps(t *testing.T) {
	d := deck.New(false)
	d.Package().PutPart("ppt/media/image2.png", pngStub)

	name, err := AddImage(d, pngStub, "png")
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	if name != "ppt/media/image1.png" {
		t.Fatalf("gap not filled, got %q", name)
	}
}

func TestAddImageRejectsUnknownExtension(t *testing.T) {
	d := deck.New(false)
	if _, err := AddImage(d, pngStub, "tiff"); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
	if _, err := AddImage(d, nil, "png"); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("empty data: want ErrInvalid, got %v", err)
	}
}

func TestAddImageSurvivesRoundTrip(t *testing.T) {
	d := deck.New(false)
	name, err := AddImage(d, pngStub, "png")
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}

	data, err := d.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	re, err := deck.Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !re.Package().HasPart(name) {
		t.Fatalf("image part lost on round trip")
	}
	ct, err := re.Package().ContentTypeOf(name)
	if err != nil || ct != "image/png" {
		t.Fatalf("content type = %q err=%v", ct, err)
	}
}

func TestDetectImageExt(t *testing.T) {
	cases := []struct {
		data []byte
		want string
	}{
		{pngStub, "png"},
		{[]byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00}, "jpg"},
		{[]byte("GIF89a...."), "gif"},
		{[]byte("BM1234"), "bmp"},
	}
	for _, tc := range cases {
		got, err := DetectImageExt(tc.data)
		if err != nil || got != tc.want {
			t.Fatalf("DetectImageExt(%v) = %q, %v; want %q", tc.data[:2], got, err, tc.want)
		}
	}
	if _, err := DetectImageExt([]byte("<svg>")); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("svg: want ErrInvalid, got %v", err)
	}
	_, err := DetectImageExt(nil)
	if err == nil || !strings.Contains(err.Error(), "unrecognized") {
		t.Fatalf("nil data should report unrecognized format, got %v", err)
	}
}
