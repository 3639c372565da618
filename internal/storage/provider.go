// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/notelens/internal/models"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root and use forward slashes.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Exists reports whether a regular file exists at path.
	Exists(path string) (bool, error)
	// Write atomically writes content to path, replacing any existing file.
	Write(path string, content []byte) error
	// Create writes content to path and fails with apperr.ErrAlreadyExists
	// if the file is already present.
	Create(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
