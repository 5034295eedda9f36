package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Download when no object exists at the path.
var ErrNotFound = errors.New("storage: object not found")

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// Storage is a blob store addressed by slash-separated relative paths.
type Storage interface {
	// Upload writes data from reader to the given path, replacing any
	// existing object.
	Upload(ctx context.Context, path string, reader io.Reader) error

	// Download returns a reader for the object at the given path.
	// The caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at the given path.
	// Returns nil if the object does not exist.
	Delete(ctx context.Context, path string) error

	Exists(ctx context.Context, path string) (bool, error)

	// List returns metadata for all objects whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}
