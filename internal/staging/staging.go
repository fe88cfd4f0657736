// Package staging manages the short-lived local copies of photographs
// that pass between Telegram and the remote disk. Every staged file is
// removed as soon as its transfer finishes.
package staging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store hands out paths inside the local staging directory.
type Store struct {
	root string
}

// NewStore creates the staging root if needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create root: %w", err)
	}
	return &Store{root: root}, nil
}

// File is one staged local file. Remove is safe to call more than once
// and after a failed write.
type File struct {
	path string
}

// Path returns the local filesystem path.
func (f *File) Path() string { return f.path }

// Remove deletes the staged file; a file that never materialized is not
// an error.
func (f *File) Remove() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("staging: remove %s: %w", f.path, err)
	}
	return nil
}

// ForSave reserves a path for an incoming photograph, mirroring the
// remote {date}/{filename} layout so concurrent saves of the same name
// on different days cannot collide locally.
func (s *Store) ForSave(date, filename string) (*File, error) {
	dir := filepath.Join(s.root, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create %s: %w", dir, err)
	}
	return &File{path: filepath.Join(dir, filename)}, nil
}

// ForPreview reserves a uniquely named path for a downloaded search hit.
func (s *Store) ForPreview() *File {
	return &File{path: filepath.Join(s.root, "preview_"+uuid.NewString()+".jpg")}
}
