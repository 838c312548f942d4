// Package storage defines the vault file-system abstraction.
package storage

import "io/fs"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// Root returns the absolute vault root path.
	Root() string
	// ReadDir lists the entries of a directory.
	ReadDir(dir string) ([]fs.DirEntry, error)
	// Stat returns file metadata.
	Stat(path string) (fs.FileInfo, error)
	// Read returns the raw bytes of a file.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// WriteIfMatch atomically writes content, but only when the file on disk
	// still has the given checksum (empty means "must not exist yet").
	// Returns apperr.ErrConflict when the file changed underneath.
	WriteIfMatch(path string, content []byte, ifMatch string) error
}
