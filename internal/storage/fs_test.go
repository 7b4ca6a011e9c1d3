package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempWorkspace(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempWorkspace(t)
	content := []byte("PK\x03\x04 deck bytes")
	if err := s.Write("deck.pptx", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("deck.pptx")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempWorkspace(t)
	if err := s.Write("a/b/c.pptx", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.pptx")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestDelete(t *testing.T) {
	s := tempWorkspace(t)
	_ = s.Write("del.pptx", []byte("bye"))
	if err := s.Delete("del.pptx"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.pptx"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestListFiltersDeckFiles(t *testing.T) {
	s := tempWorkspace(t)
	_ = s.Write("a.pptx", []byte("a"))
	_ = s.Write("sub/b.potx", []byte("b"))
	_ = s.Write("readme.txt", []byte("not a deck"))
	_ = s.Write("notes.md", []byte("also not"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	for _, m := range items {
		if m.Size == 0 || m.Checksum == "" || m.UpdatedAt.IsZero() {
			t.Errorf("incomplete metadata for %s: %+v", m.Path, m)
		}
	}
}

func TestStat(t *testing.T) {
	s := tempWorkspace(t)
	_ = s.Write("one.pptx", []byte("twelve bytes"))

	m, err := s.Stat("one.pptx")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if m.Path != "one.pptx" {
		t.Errorf("path = %q", m.Path)
	}
	if m.Size != 12 {
		t.Errorf("size = %d, want 12", m.Size)
	}
	if m.Checksum == "" {
		t.Error("missing checksum")
	}

	if _, err := s.Stat("missing.pptx"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempWorkspace(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.pptx",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	// Verify that if we read during a write the old content is intact
	// (the rename is atomic on POSIX).
	s := tempWorkspace(t)
	original := []byte("original content")
	_ = s.Write("atomic.pptx", original)

	// Overwrite with new content.
	updated := []byte("updated content")
	if err := s.Write("atomic.pptx", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.pptx")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	// Confirm no leftover temp files.
	matches, _ := filepath.Glob(filepath.Join(s.root, ".dagaz-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestIsDeckFile(t *testing.T) {
	for name, want := range map[string]bool{
		"deck.pptx":      true,
		"template.potx":  true,
		"LOUD.PPTX":      true,
		"deck.pptx.bak":  false,
		"notes.md":       false,
		".dagaz-tmp-123": false,
	} {
		if got := IsDeckFile(name); got != want {
			t.Errorf("IsDeckFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/dagaz-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "dagaz-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
