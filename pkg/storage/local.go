package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Local is a filesystem-based storage backend. All paths handed to it are
// relative to its root and may use forward slashes.
type Local struct {
	fs       afero.Fs
	rootPath string
}

// NewLocal creates a new local filesystem backend rooted at rootPath
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}

	return &Local{
		fs:       afero.NewBasePathFs(afero.NewOsFs(), absPath),
		rootPath: absPath,
	}, nil
}

// NewMemory creates an in-memory backend, used by tests and dry runs
func NewMemory(name string) *Local {
	return &Local{
		fs:       afero.NewMemMapFs(),
		rootPath: name,
	}
}

// PrepareDestination prepares a local destination root through a backend
// on its parent directory. An existing root is only accepted when overwrite
// is true, in which case it is removed first.
func PrepareDestination(ctx context.Context, rootPath string, overwrite bool) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	parentPath, name := filepath.Split(absPath)
	if name == "" {
		return nil, fmt.Errorf("destination cannot be a filesystem root: %s", absPath)
	}

	if err := afero.NewOsFs().MkdirAll(parentPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination parent: %w", err)
	}
	parent, err := NewLocal(parentPath)
	if err != nil {
		return nil, err
	}
	defer parent.Close()

	exists, err := parent.Exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to access destination: %w", err)
	}
	if exists {
		if !overwrite {
			return nil, fmt.Errorf("%w: %s", ErrDestinationExists, absPath)
		}
		if err := parent.Delete(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to clear destination: %w", err)
		}
	}

	if err := parent.MkdirAll(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to create destination: %w", err)
	}

	return NewLocal(absPath)
}

// Root returns the absolute root of the backend
func (l *Local) Root() string {
	return l.rootPath
}

// fsPath maps a relative path onto the backend filesystem
func (l *Local) fsPath(path string) string {
	return filepath.Join(string(filepath.Separator), filepath.FromSlash(path))
}

// relPath maps a backend filesystem path back to a forward-slash relative path
func (l *Local) relPath(p string) string {
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(p)), "/")
}

func (l *Local) toFileInfo(p string, info os.FileInfo) *FileInfo {
	rel := l.relPath(p)
	return &FileInfo{
		Path:         filepath.Join(l.rootPath, filepath.FromSlash(rel)),
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		IsDir:        info.IsDir(),
		IsRegular:    info.Mode().IsRegular(),
		Permissions:  uint32(info.Mode().Perm()),
		RelativePath: rel,
	}
}

// Walk visits the tree below the root in lexical order
func (l *Local) Walk(ctx context.Context, fn WalkFunc) error {
	return afero.Walk(l.fs, l.fsPath(""), func(p string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var fi *FileInfo
		if info != nil {
			fi = l.toFileInfo(p, info)
		}

		if cbErr := fn(l.relPath(p), fi, err); cbErr != nil {
			if errors.Is(cbErr, ErrSkipDir) {
				return filepath.SkipDir
			}
			return cbErr
		}
		return nil
	})
}

// Read opens a file for reading
func (l *Local) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := l.fs.Open(l.fsPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Write creates or overwrites a file. The content is staged in a uniquely
// named hidden file next to the target.
func (l *Local) Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) error {
	fullPath := l.fsPath(path)
	dir, base := filepath.Split(fullPath)

	if err := l.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := afero.TempFile(l.fs, dir, "."+base+"-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	stagePath := file.Name()

	written, err := io.Copy(file, reader)
	closeErr := file.Close()
	if err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		l.fs.Remove(stagePath)
		return fmt.Errorf("failed to write file: %w", err)
	}

	if size >= 0 && written != size {
		l.fs.Remove(stagePath)
		return fmt.Errorf("incomplete write: expected %d bytes, wrote %d", size, written)
	}

	perm := os.FileMode(0644)
	if metadata != nil && metadata.Permissions != 0 {
		perm = os.FileMode(metadata.Permissions)
	}
	if err := l.fs.Chmod(stagePath, perm); err != nil {
		l.fs.Remove(stagePath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if metadata != nil && !metadata.ModTime.IsZero() {
		if err := l.fs.Chtimes(stagePath, metadata.ModTime, metadata.ModTime); err != nil {
			l.fs.Remove(stagePath)
			return fmt.Errorf("failed to set modification time: %w", err)
		}
	}

	if err := l.fs.Rename(stagePath, fullPath); err != nil {
		l.fs.Remove(stagePath)
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	return nil
}

// Delete removes a file or directory
func (l *Local) Delete(ctx context.Context, path string) error {
	if err := l.fs.RemoveAll(l.fsPath(path)); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}

	return nil
}

// Exists checks if a file or directory exists
func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	exists, err := afero.Exists(l.fs, l.fsPath(path))
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return exists, nil
}

// Stat returns file metadata
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	fullPath := l.fsPath(path)

	info, err := l.fs.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return l.toFileInfo(fullPath, info), nil
}

// MkdirAll creates a directory and all necessary parents
func (l *Local) MkdirAll(ctx context.Context, path string) error {
	if err := l.fs.MkdirAll(l.fsPath(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}
