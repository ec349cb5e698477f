package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/pkglink/pkg/config"
	"github.com/arthur-debert/pkglink/pkg/errors"
	"github.com/arthur-debert/pkglink/pkg/logging"
)

// Environment variable names
const (
	EnvPrivatePackageDirs = "METEOR_PRIVATE_PACKAGE_DIRS"
	EnvPackageDirs        = "METEOR_PACKAGE_DIRS"
	EnvHome               = "HOME"
)

// Defaults, relative to the project root
const (
	MeteorDirName   = ".meteor"
	DefaultManifest = ".meteor/packages"
	DefaultPackages = "packages"
)

// Paths holds absolute project locations
type Paths struct {
	Root     string `json:"root" yaml:"root" toml:"root"`
	Manifest string `json:"manifest" yaml:"manifest" toml:"manifest"`
	Source   string `json:"source" yaml:"source" toml:"source"`
	Build    string `json:"build" yaml:"build" toml:"build"`
}

// SharedTree reports whether packages are built in place
func (p Paths) SharedTree() bool {
	return p.Source == p.Build
}

// Options are the inputs to Resolve, highest precedence first
type Options struct {
	// Root overrides project root discovery
	Root string

	// Flag values
	Manifest string
	Source   string
	Build    string

	// Config values
	Config config.PathsConfig
}

// Resolve computes absolute paths from opts and the environment.
func Resolve(opts Options) (Paths, error) {
	logger := logging.GetLogger("paths")

	root := opts.Root
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Paths{}, errors.Wrap(err, errors.ErrFilesystem, "failed to get working directory")
		}
		if found, ok := FindProjectRoot(cwd); ok {
			root = found
		} else {
			root = cwd
		}
	}
	root, err := filepath.Abs(ExpandHome(root))
	if err != nil {
		return Paths{}, errors.Wrap(err, errors.ErrInvalidInput, "invalid project root").WithDetail("path", opts.Root)
	}

	p := Paths{
		Root:     root,
		Manifest: abs(root, first(opts.Manifest, opts.Config.Manifest, DefaultManifest)),
		Source: abs(root, first(
			opts.Source,
			opts.Config.Source,
			envPath(EnvPrivatePackageDirs),
			envPath(EnvPackageDirs),
			DefaultPackages,
		)),
		Build: abs(root, first(
			opts.Build,
			opts.Config.Build,
			envPath(EnvPackageDirs),
			DefaultPackages,
		)),
	}

	if err := CheckTrees(p.Source, p.Build); err != nil {
		return Paths{}, err
	}

	logger.Debug().
		Str("root", p.Root).
		Str("manifest", p.Manifest).
		Str("source", p.Source).
		Str("build", p.Build).
		Msg("Paths resolved")
	return p, nil
}

// CheckTrees rejects a build root nested with the source root. Cleaning a
// build root that holds the sources would delete them, and a build root inside
// the source root is scanned back as duplicate packages. Equal roots are the
// shared layout and are allowed.
func CheckTrees(source, build string) error {
	source, build = filepath.Clean(source), filepath.Clean(build)
	if source == build {
		return nil
	}
	if contains(build, source) {
		return errors.New(errors.ErrInvalidInput, "build root must not contain the source root").
			WithDetail("source", source).
			WithDetail("build", build)
	}
	if contains(source, build) {
		return errors.New(errors.ErrInvalidInput, "build root must not be inside the source root").
			WithDetail("source", source).
			WithDetail("build", build)
	}
	return nil
}

// contains reports whether path lies strictly below dir.
func contains(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// FindProjectRoot walks up from start looking for a directory that contains
// a .meteor directory.
func FindProjectRoot(start string) (string, bool) {
	dir := filepath.Clean(start)
	for {
		if info, err := os.Stat(filepath.Join(dir, MeteorDirName)); err == nil && info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}
	// ~user forms are left alone
	return path
}

func envPath(name string) string {
	list := filepath.SplitList(os.Getenv(name))
	for _, entry := range list {
		if entry != "" {
			return entry
		}
	}
	return ""
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func abs(root, path string) string {
	path = ExpandHome(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}
