// Package scanner discovers pillars under a vault root and snapshots the
// files inside their canonical subfolders. Scanning is a pure read: the
// snapshot is immutable for the duration of one run and nothing is cached
// across runs.
package scanner

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fenwick/ordna/internal/apperr"
	"github.com/fenwick/ordna/internal/checksum"
	"github.com/fenwick/ordna/internal/models"
	"github.com/fenwick/ordna/internal/parser"
	"github.com/fenwick/ordna/internal/storage"
)

// rootAllowlist holds the .md files that may legitimately sit at the vault
// root; anything else is reported as misplaced.
var rootAllowlist = map[string]struct{}{
	"README.md": {},
	"CLAUDE.md": {},
	"AGENTS.md": {},
}

// Snapshot is the read-only result of one scan.
type Snapshot struct {
	Pillars   []models.Pillar      `json:"pillars"`
	RootFiles []string             `json:"root_files,omitempty"`
	Warnings  []models.Warning     `json:"warnings,omitempty"`
	Errors    []models.PillarError `json:"errors,omitempty"`
}

// Scanner walks a vault and produces Snapshots.
type Scanner struct {
	store  storage.Provider
	logger *slog.Logger
}

// New creates a Scanner over the given vault.
func New(store storage.Provider, logger *slog.Logger) *Scanner {
	return &Scanner{store: store, logger: logger}
}

// Scan discovers every pillar and snapshots its contents. Only a wholly
// inaccessible vault root is fatal; per-file problems become warnings and
// per-pillar structural problems become errors on the snapshot.
func (s *Scanner) Scan() (*Snapshot, error) {
	snap := &Snapshot{}

	dirs, err := s.collectDirs(snap)
	if err != nil {
		return nil, err
	}

	var pillarPaths []string
	for _, dir := range dirs {
		if s.isPillar(dir, snap) {
			pillarPaths = append(pillarPaths, dir)
		}
	}
	sort.Strings(pillarPaths)

	for _, p := range pillarPaths {
		snap.Pillars = append(snap.Pillars, s.snapshotPillar(p, snap))
	}

	s.collectRootFiles(snap)
	return snap, nil
}

// collectDirs returns every directory under the root (including "."),
// skipping hidden directories. Only a failure on the root itself is fatal.
func (s *Scanner) collectDirs(snap *Snapshot) ([]string, error) {
	var out []string
	var walk func(dir string, isRoot bool) error
	walk = func(dir string, isRoot bool) error {
		entries, err := s.store.ReadDir(dir)
		if err != nil {
			if isRoot {
				return fmt.Errorf("scanner: %s: %w", dir, errors.Join(err, apperr.ErrVaultRoot))
			}
			snap.Warnings = append(snap.Warnings, models.Warning{
				Path:   dir,
				Reason: fmt.Sprintf("unreadable directory: %v", err),
			})
			return nil
		}
		out = append(out, dir)
		for _, e := range entries {
			if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if err := walk(filepath.Join(dir, e.Name()), false); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(".", true); err != nil {
		return nil, err
	}
	return out, nil
}

// isPillar reports whether dir contains at least one canonical subfolder.
// A canonical name present as a plain file is a structural error for that
// pillar; the rest of the run continues.
func (s *Scanner) isPillar(dir string, snap *Snapshot) bool {
	qualified := false
	for _, name := range []string{models.CaptureFolder, models.ActiveFolder, models.ReferenceFolder} {
		info, err := s.store.Stat(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if !info.IsDir() {
			snap.Errors = append(snap.Errors, models.PillarError{
				Pillar: dir,
				Err:    fmt.Sprintf("%s is not a directory", name),
			})
			continue
		}
		qualified = true
	}
	return qualified
}

func (s *Scanner) snapshotPillar(pillar string, snap *Snapshot) models.Pillar {
	p := models.Pillar{Path: pillar}

	if info, err := s.store.Stat(filepath.Join(pillar, models.ReferenceFolder)); err == nil && info.IsDir() {
		p.HasReference = true
	}
	p.Notes = s.listNotes(pillar, snap)
	p.Captures = s.listTracked(pillar, models.CaptureFolder, snap)
	p.Actives = s.listTracked(pillar, models.ActiveFolder, snap)
	p.Manifest = s.readManifest(pillar)

	return p
}

// listNotes returns the NoteRecords of the pillar's reference folder:
// direct children with the note extension, the manifest itself excluded.
func (s *Scanner) listNotes(pillar string, snap *Snapshot) []models.NoteRecord {
	dir := filepath.Join(pillar, models.ReferenceFolder)
	entries, err := s.store.ReadDir(dir)
	if err != nil {
		return nil
	}

	var out []models.NoteRecord
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !noteFile(name) || name == models.ManifestName {
			continue
		}
		rel := filepath.Join(dir, name)
		info, err := e.Info()
		if err != nil {
			s.warn(snap, pillar, rel, fmt.Sprintf("stat failed: %v", err))
			continue
		}
		data, err := s.store.Read(rel)
		if err != nil {
			// One unreadable note never aborts the run: exclude and move on.
			s.warn(snap, pillar, rel, fmt.Sprintf("unreadable: %v", err))
			continue
		}
		res := parser.Parse(data)
		if res.Unparsed {
			s.warn(snap, pillar, rel, "malformed frontmatter block")
		}
		out = append(out, models.NoteRecord{
			Path:    rel,
			Title:   strings.TrimSuffix(name, models.NoteExt),
			ModTime: info.ModTime(),
			Tags:    res.Tags,
			Links:   res.Links,
		})
	}
	return out
}

// listTracked returns the items of a capture or active-work folder with
// their effective timestamps (explicit frontmatter date over mtime).
func (s *Scanner) listTracked(pillar, folder string, snap *Snapshot) []models.TrackedItem {
	dir := filepath.Join(pillar, folder)
	entries, err := s.store.ReadDir(dir)
	if err != nil {
		return nil
	}

	var out []models.TrackedItem
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !noteFile(name) {
			continue
		}
		rel := filepath.Join(dir, name)
		info, err := e.Info()
		if err != nil {
			s.warn(snap, pillar, rel, fmt.Sprintf("stat failed: %v", err))
			continue
		}
		created := info.ModTime()
		if data, err := s.store.Read(rel); err == nil {
			res := parser.Parse(data)
			if res.Unparsed {
				s.warn(snap, pillar, rel, "malformed frontmatter block")
			}
			// Explicit authored date wins: syncing files across machines
			// rewrites mtimes without changing intent.
			if !res.Created.IsZero() {
				created = res.Created
			}
		}
		out = append(out, models.TrackedItem{Path: rel, Name: name, Created: created})
	}
	return out
}

func (s *Scanner) readManifest(pillar string) models.ManifestFile {
	rel := filepath.Join(pillar, models.ReferenceFolder, models.ManifestName)
	mf := models.ManifestFile{Path: rel}
	data, err := s.store.Read(rel)
	if err != nil {
		return mf
	}
	mf.Exists = true
	mf.Content = data
	mf.Checksum = checksum.Sum(data)
	return mf
}

// collectRootFiles records misplaced .md files sitting directly at the
// vault root.
func (s *Scanner) collectRootFiles(snap *Snapshot) {
	entries, err := s.store.ReadDir(".")
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !noteFile(name) {
			continue
		}
		if _, ok := rootAllowlist[name]; ok {
			continue
		}
		snap.RootFiles = append(snap.RootFiles, name)
	}
	sort.Strings(snap.RootFiles)
}

func (s *Scanner) warn(snap *Snapshot, pillar, path, reason string) {
	snap.Warnings = append(snap.Warnings, models.Warning{Pillar: pillar, Path: path, Reason: reason})
	if s.logger != nil {
		s.logger.Warn("scan warning", slog.String("path", path), slog.String("reason", reason))
	}
}

// noteFile reports whether name is a visible file with the note extension.
func noteFile(name string) bool {
	return strings.HasSuffix(name, models.NoteExt) && !strings.HasPrefix(name, ".")
}
