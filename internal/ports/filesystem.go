package ports

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileInfo contains file metadata.
type FileInfo struct {
	Size    int64
	Mode    os.FileMode
	ModTime time.Time
	IsDir   bool
}

// FileSystem provides the filesystem primitives the reconciler needs.
// Implementations must report a missing path from Stat as an error
// satisfying errors.Is(err, os.ErrNotExist).
type FileSystem interface {
	Exists(path string) bool
	Stat(path string) (FileInfo, error)
	Open(path string) (io.ReadCloser, error)
	Create(path string, perm os.FileMode) (io.WriteCloser, error)
	Remove(path string) error
	RemoveAll(path string) error
	Rename(oldPath, newPath string) error
	MkdirAll(path string, perm os.FileMode) error
	Chmod(path string, mode os.FileMode) error
	Chown(path, user, group string) error
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// IsPathWithinRoot reports whether path stays inside root once cleaned.
// Archive entries are checked with this before they are written.
func IsPathWithinRoot(root, path string) bool {
	if path == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
