// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fenwick/ordna/internal/history"
	"github.com/fenwick/ordna/internal/models"
	"github.com/fenwick/ordna/internal/storage"
)

// TestDB creates a temporary SQLite run ledger that is automatically cleaned up.
func TestDB(t *testing.T) *history.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ordna-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := history.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// MakePillar creates Inbox/Projects/Knowledge under dir/rel.
func MakePillar(t *testing.T, dir, rel string) string {
	t.Helper()
	p := filepath.Join(dir, rel)
	for _, sub := range []string{models.CaptureFolder, models.ActiveFolder, models.ReferenceFolder} {
		if err := os.MkdirAll(filepath.Join(p, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return p
}

// WriteFile writes content to dir/rel, creating parent directories.
func WriteFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	p := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// Touch sets the modification time of dir/rel.
func Touch(t *testing.T, dir, rel string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(filepath.Join(dir, rel), mtime, mtime); err != nil {
		t.Fatal(err)
	}
}
