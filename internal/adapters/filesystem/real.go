// Package filesystem provides the afero-backed file system adapter.
package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// OwnerLookup resolves user and group names to numeric ids. An empty name
// resolves to -1, which leaves that id unchanged.
type OwnerLookup func(user, group string) (uid, gid int, err error)

// AferoFileSystem implements ports.FileSystem on top of an afero.Fs.
type AferoFileSystem struct {
	fs     afero.Fs
	lookup OwnerLookup
}

// NewRealFileSystem creates a file system backed by the operating system.
func NewRealFileSystem() *AferoFileSystem {
	return New(afero.NewOsFs())
}

// NewMemFileSystem creates an in-memory file system.
func NewMemFileSystem() *AferoFileSystem {
	return New(afero.NewMemMapFs())
}

// New wraps fs.
func New(fs afero.Fs) *AferoFileSystem {
	return &AferoFileSystem{fs: fs, lookup: lookupOwner}
}

// WithOwnerLookup returns a copy that resolves owners with lookup.
func (a *AferoFileSystem) WithOwnerLookup(lookup OwnerLookup) *AferoFileSystem {
	clone := *a
	clone.lookup = lookup
	return &clone
}

// Afero exposes the underlying afero.Fs.
func (a *AferoFileSystem) Afero() afero.Fs {
	return a.fs
}

// Exists checks if a file or directory exists.
func (a *AferoFileSystem) Exists(path string) bool {
	_, err := a.fs.Stat(path)
	return err == nil
}

// Stat returns metadata about a file.
func (a *AferoFileSystem) Stat(path string) (ports.FileInfo, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		return ports.FileInfo{}, err
	}
	return ports.FileInfo{
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

// Open opens a file for reading.
func (a *AferoFileSystem) Open(path string) (io.ReadCloser, error) {
	return a.fs.Open(path)
}

// Create creates or truncates a file.
func (a *AferoFileSystem) Create(path string, perm os.FileMode) (io.WriteCloser, error) {
	return a.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
}

// Remove removes a file or empty directory.
func (a *AferoFileSystem) Remove(path string) error {
	return a.fs.Remove(path)
}

// RemoveAll removes a path and any children.
func (a *AferoFileSystem) RemoveAll(path string) error {
	return a.fs.RemoveAll(path)
}

// Rename renames (moves) a file, replacing newPath if it exists.
func (a *AferoFileSystem) Rename(oldPath, newPath string) error {
	return a.fs.Rename(oldPath, newPath)
}

// MkdirAll creates a directory and all necessary parents.
func (a *AferoFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

// Chmod changes the mode of a file.
func (a *AferoFileSystem) Chmod(path string, mode os.FileMode) error {
	return a.fs.Chmod(path, mode)
}

// Chown changes the owner of a file by user and group name.
func (a *AferoFileSystem) Chown(path, user, group string) error {
	if user == "" && group == "" {
		return nil
	}
	if a.lookup == nil {
		return errors.New("no owner lookup configured")
	}
	uid, gid, err := a.lookup(user, group)
	if err != nil {
		return fmt.Errorf("resolve owner %s:%s: %w", user, group, err)
	}
	return a.fs.Chown(path, uid, gid)
}

// Ensure AferoFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*AferoFileSystem)(nil)
