package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// FileInfo represents metadata about a file
type FileInfo struct {
	Path         string
	Size         int64
	ModTime      time.Time
	IsDir        bool
	IsRegular    bool
	Permissions  uint32
	RelativePath string
}

// ErrSkipDir is returned by a WalkFunc to skip the directory being visited
var ErrSkipDir = errors.New("skip this directory")

// ErrDestinationExists is returned when a destination root already exists
// and overwriting was not authorized
var ErrDestinationExists = errors.New("destination already exists")

// WalkFunc is called for every entry below the root. relPath is forward-slash
// separated and empty for the root itself. When err is non-nil, info may be
// nil and the entry could not be read; returning nil continues the walk.
type WalkFunc func(relPath string, info *FileInfo, err error) error

// Backend defines the interface for storage operations
type Backend interface {
	// Root returns the absolute root of the backend
	Root() string

	// Walk visits the tree below the root in lexical order
	Walk(ctx context.Context, fn WalkFunc) error

	// Read opens a file for reading
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates or overwrites a file with the given content.
	// The content is staged in a uniquely named file next to the target and
	// renamed into place, so a failed write never leaves a truncated file at
	// path and never clobbers a sibling.
	// If metadata is provided, attempts to preserve timestamps and permissions
	Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) error

	// Delete removes a file or directory
	Delete(ctx context.Context, path string) error

	// Exists checks if a file or directory exists
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns file metadata
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// MkdirAll creates a directory and all necessary parents
	MkdirAll(ctx context.Context, path string) error

	// Close releases any resources held by the backend
	Close() error
}
