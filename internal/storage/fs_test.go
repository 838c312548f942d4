package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fenwick/ordna/internal/apperr"
	"github.com/fenwick/ordna/internal/checksum"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempVault(t)
	if err := s.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestReadMissingFile(t *testing.T) {
	s := tempVault(t)
	_, err := s.Read("nope.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
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
	s := tempVault(t)
	original := []byte("original content")
	_ = s.Write("atomic.md", original)

	// Overwrite with new content.
	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	// Confirm no leftover temp files.
	matches, _ := filepath.Glob(filepath.Join(s.root, ".ordna-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestWriteIfMatch(t *testing.T) {
	s := tempVault(t)
	original := []byte("v1")
	_ = s.Write("m.md", original)

	if err := s.WriteIfMatch("m.md", []byte("v2"), checksum.Sum(original)); err != nil {
		t.Fatalf("WriteIfMatch: %v", err)
	}
	got, _ := s.Read("m.md")
	if string(got) != "v2" {
		t.Errorf("content = %q, want v2", got)
	}
}

func TestWriteIfMatch_ConflictOnChange(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("m.md", []byte("v1"))
	stale := checksum.Sum([]byte("something else"))

	err := s.WriteIfMatch("m.md", []byte("v2"), stale)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	got, _ := s.Read("m.md")
	if string(got) != "v1" {
		t.Errorf("conflicting write clobbered file: %q", got)
	}
}

func TestWriteIfMatch_CreateNew(t *testing.T) {
	s := tempVault(t)

	// Empty checksum means the file must not exist yet.
	if err := s.WriteIfMatch("new.md", []byte("fresh"), ""); err != nil {
		t.Fatalf("WriteIfMatch: %v", err)
	}

	// A second create against the same expectation conflicts.
	err := s.WriteIfMatch("new.md", []byte("again"), "")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestWriteIfMatch_ConflictOnRemoval(t *testing.T) {
	s := tempVault(t)
	original := []byte("v1")
	_ = s.Write("m.md", original)
	sum := checksum.Sum(original)

	if err := os.Remove(filepath.Join(s.root, "m.md")); err != nil {
		t.Fatal(err)
	}
	err := s.WriteIfMatch("m.md", []byte("v2"), sum)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/ordna-does-not-exist-" + t.Name())
	if !errors.Is(err, apperr.ErrVaultRoot) {
		t.Errorf("err = %v, want ErrVaultRoot", err)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "ordna-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if !errors.Is(err, apperr.ErrVaultRoot) {
		t.Errorf("err = %v, want ErrVaultRoot", err)
	}
}
