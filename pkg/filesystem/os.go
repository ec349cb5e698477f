package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/pkglink/pkg/errors"
	"github.com/arthur-debert/pkglink/pkg/types"
)

// osFS implements types.FS on the OS filesystem. Removals that would take a
// protected path with them are refused.
type osFS struct {
	protected []string
}

// NewOS creates an OS filesystem that still refuses to remove the
// filesystem root.
func NewOS() types.FS {
	return &osFS{}
}

// NewGuardedOS creates an OS filesystem that refuses to remove any of the
// protected paths or a directory containing one. pkglink protects the source
// root and the project's .meteor directory so that build-tree cleanup can
// never reach authored content.
func NewGuardedOS(protected ...string) types.FS {
	o := &osFS{}
	for _, p := range protected {
		if p != "" {
			o.protected = append(o.protected, filepath.Clean(p))
		}
	}
	return o
}

func (o *osFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (o *osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (o *osFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (o *osFS) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (o *osFS) Symlink(oldname, newname string) error {
	return os.Symlink(oldname, newname)
}

func (o *osFS) Readlink(name string) (string, error) {
	return os.Readlink(name)
}

func (o *osFS) Remove(name string) error {
	if err := o.checkRemove(name); err != nil {
		return err
	}
	return os.Remove(name)
}

func (o *osFS) RemoveAll(path string) error {
	if err := o.checkRemove(path); err != nil {
		return err
	}
	return os.RemoveAll(path)
}

func (o *osFS) Lstat(name string) (fs.FileInfo, error) {
	return os.Lstat(name)
}

func (o *osFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

func (o *osFS) checkRemove(path string) error {
	if path == "" {
		return errors.New(errors.ErrInvalidInput, "refusing to remove an empty path")
	}
	clean := filepath.Clean(path)
	if filepath.Dir(clean) == clean {
		return errors.New(errors.ErrFilesystem, "refusing to remove the filesystem root").
			WithDetail("path", clean)
	}
	for _, p := range o.protected {
		if clean == p || strings.HasPrefix(p, clean+string(filepath.Separator)) {
			return errors.Newf(errors.ErrFilesystem, "refusing to remove %s", clean).
				WithDetail("path", clean).
				WithDetail("protected", p)
		}
	}
	return nil
}
