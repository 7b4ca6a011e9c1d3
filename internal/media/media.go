// Package media stores binary assets inside a deck package.
package media

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/deck"
)

// contentTypes maps supported image extensions to their MIME types.
var contentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
}

var imagePartRe = regexp.MustCompile(`^ppt/media/image(\d+)\.[A-Za-z0-9]+$`)

// AddImage stores data as a new part under ppt/media/ and registers the
// extension's default content type. The numeric suffix is the lowest unused
// one across all media extensions. Returns the part name.
func AddImage(d *deck.Deck, data []byte, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	ct, ok := contentTypes[ext]
	if !ok {
		return "", fmt.Errorf("unsupported image extension %q: %w", ext, apperr.ErrInvalid)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty image data: %w", apperr.ErrInvalid)
	}

	used := map[int]bool{}
	for _, name := range d.Package().PartNames() {
		m := imagePartRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			used[n] = true
		}
	}
	n := 1
	for used[n] {
		n++
	}

	name := fmt.Sprintf("ppt/media/image%d.%s", n, ext)
	d.Package().PutPart(name, data)
	d.Package().EnsureDefaultType(ext, ct)
	return name, nil
}

// DetectImageExt sniffs the image format from leading magic bytes.
func DetectImageExt(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "png", nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "jpg", nil
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "gif", nil
	case bytes.HasPrefix(data, []byte("BM")):
		return "bmp", nil
	}
	return "", fmt.Errorf("unrecognized image format: %w", apperr.ErrInvalid)
}
