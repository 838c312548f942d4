// Package models defines the domain types for Ordna.
package models

import "time"

// Canonical pillar subfolders. A directory qualifies as a pillar when it
// contains at least one of these by exact, case-sensitive name.
const (
	CaptureFolder   = "Inbox"
	ActiveFolder    = "Projects"
	ReferenceFolder = "Knowledge"
)

const (
	// NoteExt is the only file extension the scanner recognises.
	NoteExt = ".md"
	// ManifestName is the derived index file inside each reference folder.
	// It is never listed as a note.
	ManifestName = "MANIFEST.md"
)

// Pillar is one life-area folder discovered during a scan, together with an
// immutable snapshot of the files inside its canonical subfolders.
type Pillar struct {
	// Path is relative to the vault root; "." when the root itself qualifies.
	Path string `json:"path"`
	// HasReference reports whether the reference folder exists. A pillar may
	// qualify through its capture or active-work folder alone; such pillars
	// carry no manifest and are never reconciled.
	HasReference bool          `json:"has_reference"`
	Notes        []NoteRecord  `json:"notes"`
	Captures     []TrackedItem `json:"captures"`
	Actives      []TrackedItem `json:"actives"`
	Manifest     ManifestFile  `json:"manifest"`
}

// NoteRecord is one note file inside a reference folder.
type NoteRecord struct {
	Path    string    `json:"path"` // relative to the vault root
	Title   string    `json:"title"`
	ModTime time.Time `json:"mod_time"`
	Tags    []string  `json:"tags,omitempty"`
	Links   []string  `json:"links,omitempty"`
}

// TrackedItem is a file inside a capture or active-work folder. Created is
// the effective timestamp: an explicit frontmatter date when present,
// otherwise the filesystem modification time.
type TrackedItem struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
}

// ManifestFile is the persisted manifest as observed at scan time. The
// checksum guards the later fix-apply against concurrent edits.
type ManifestFile struct {
	Path     string `json:"path"`
	Exists   bool   `json:"exists"`
	Content  []byte `json:"-"`
	Checksum string `json:"checksum,omitempty"`
}
