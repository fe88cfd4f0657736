package disk

import "errors"

// ResourceType tags a remote node as a directory or a file.
type ResourceType string

const (
	// TypeDir marks a directory resource.
	TypeDir ResourceType = "dir"
	// TypeFile marks a file resource.
	TypeFile ResourceType = "file"
)

// Resource is one node of the remote tree as reported by a listing.
// Resources are transient; they are re-fetched on every traversal.
type Resource struct {
	Path string
	Name string
	Type ResourceType
}

var (
	// ErrNotFound indicates the remote path does not exist.
	ErrNotFound = errors.New("disk: resource not found")
	// ErrExists indicates the remote path is already taken.
	ErrExists = errors.New("disk: resource already exists")
)
