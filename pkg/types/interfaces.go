package types

import (
	"io/fs"
)

// FS is the filesystem interface required for pkglink operations
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Symlink operations
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error

	// Lstat must not follow symlinks; the build tree relies on telling a
	// dependency symlink apart from the directory it points to.
	Lstat(name string) (fs.FileInfo, error)
}
