package store

import (
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/pkglink/pkg/descriptor"
	"github.com/arthur-debert/pkglink/pkg/errors"
	"github.com/arthur-debert/pkglink/pkg/logging"
	"github.com/arthur-debert/pkglink/pkg/types"
	"github.com/arthur-debert/pkglink/pkg/usage"
)

// LoadOptions controls how the source root is scanned
type LoadOptions struct {
	SourceRoot     string
	BuildRoot      string
	TopLevelNames  []string
	DescriptorFile string
	NestedDir      string
	IgnorePatterns []string

	// Strict makes an unparsable descriptor fail the whole load. Otherwise
	// the package is logged and left out.
	Strict bool
}

// Store is the package metadata index
type Store struct {
	sourceRoot string
	buildRoot  string
	packages   map[string]*types.Package
}

// Empty returns a store without packages, used before the first scan.
func Empty(sourceRoot, buildRoot string) *Store {
	return &Store{
		sourceRoot: filepath.Clean(sourceRoot),
		buildRoot:  filepath.Clean(buildRoot),
		packages:   make(map[string]*types.Package),
	}
}

// Load scans opts.SourceRoot and builds a fully resolved store.
func Load(fsys types.FS, opts LoadOptions) (*Store, error) {
	logger := logging.GetLogger("store.Load")
	done := logging.LogOperationStart(logger, "scan")
	defer done()

	if opts.DescriptorFile == "" {
		opts.DescriptorFile = descriptor.DefaultFileName
	}

	s := Empty(opts.SourceRoot, opts.BuildRoot)

	info, err := fsys.Stat(s.sourceRoot)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFileNotFound, "source root is not accessible").
			WithDetail("path", s.sourceRoot)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrInvalidInput, "source root is not a directory").
			WithDetail("path", s.sourceRoot)
	}

	sc := &scanner{fs: fsys, opts: opts, store: s}
	if err := sc.walk(s.sourceRoot); err != nil {
		return nil, err
	}

	names := s.Names()
	for _, p := range s.packages {
		p.PrivateDependencies = usage.Intersect(p.DeclaredDependencies, names)
		for _, dep := range p.DeclaredDependencies {
			if _, ok := s.packages[dep]; !ok {
				logger.Trace().Str("package", p.Name).Str("dependency", dep).Msg("External dependency")
			}
		}
	}

	for _, name := range usage.Intersect(opts.TopLevelNames, names) {
		s.packages[name].TopLevel = true
	}

	used, err := s.ResolveUsed()
	if err != nil {
		return nil, err
	}
	for _, name := range used {
		s.packages[name].Used = true
	}

	logger.Info().
		Int("packages", s.Len()).
		Int("used", len(used)).
		Str("source", s.sourceRoot).
		Str("build", s.buildRoot).
		Msg("Package metadata loaded")

	return s, nil
}

type scanner struct {
	fs    types.FS
	opts  LoadOptions
	store *Store
}

func (sc *scanner) walk(dir string) error {
	logger := logging.GetLogger("store.scan")

	descriptorPath := filepath.Join(dir, sc.opts.DescriptorFile)
	if info, err := sc.fs.Stat(descriptorPath); err == nil && !info.IsDir() {
		return sc.register(dir, descriptorPath)
	} else if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, errors.ErrFilesystem, "failed to stat descriptor").
			WithDetail("path", descriptorPath)
	}

	entries, err := sc.fs.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, errors.ErrFilesystem, "failed to read directory").
			WithDetail("path", dir)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if sc.skip(entry.Name()) {
			logger.Trace().Str("dir", filepath.Join(dir, entry.Name())).Msg("Skipping directory")
			continue
		}
		if err := sc.walk(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (sc *scanner) skip(name string) bool {
	if strings.HasPrefix(name, ".") || name == sc.opts.NestedDir {
		return true
	}
	for _, pattern := range sc.opts.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

func (sc *scanner) register(dir, descriptorPath string) error {
	logger := logging.GetLogger("store.scan")

	content, err := sc.fs.ReadFile(descriptorPath)
	if err != nil {
		return errors.Wrap(err, errors.ErrFilesystem, "failed to read descriptor").
			WithDetail("path", descriptorPath)
	}

	desc, err := descriptor.Parse(string(content))
	if err != nil {
		if sc.opts.Strict {
			return errors.Wrap(err, errors.ErrDescriptorParse, "invalid package descriptor").
				WithDetail("path", descriptorPath)
		}
		logger.Warn().Err(err).Str("path", descriptorPath).Msg("Skipping package with invalid descriptor")
		return nil
	}

	if existing, ok := sc.store.packages[desc.Name]; ok {
		return errors.Newf(errors.ErrDuplicatePackage, "package %q is declared twice", desc.Name).
			WithDetail("package", desc.Name).
			WithDetail("first", existing.SourcePath).
			WithDetail("second", dir)
	}

	sc.store.packages[desc.Name] = &types.Package{
		Name:                 desc.Name,
		SourcePath:           dir,
		BuildPath:            sc.store.buildPathFor(desc.Name, dir),
		DeclaredDependencies: desc.Dependencies,
	}
	logger.Debug().Str("package", desc.Name).Str("path", dir).Strs("dependencies", desc.Dependencies).Msg("Found package")
	return nil
}

func (s *Store) buildPathFor(name, sourcePath string) string {
	if s.SharedTree() {
		return sourcePath
	}
	return filepath.Join(s.buildRoot, name)
}

// SourceRoot returns the scanned root
func (s *Store) SourceRoot() string { return s.sourceRoot }

// BuildRoot returns the root of the build tree
func (s *Store) BuildRoot() string { return s.buildRoot }

// SharedTree reports whether packages are built in place
func (s *Store) SharedTree() bool { return s.sourceRoot == s.buildRoot }

// Len returns the number of packages
func (s *Store) Len() int { return len(s.packages) }

// Has reports whether a package with the given name exists
func (s *Store) Has(name string) bool {
	_, ok := s.packages[name]
	return ok
}

// Get returns a copy of the named package.
func (s *Store) Get(name string) (types.Package, bool) {
	p, ok := s.packages[name]
	if !ok {
		return types.Package{}, false
	}
	return p.Clone(), true
}

// Names returns every package name, sorted.
func (s *Store) Names() []string {
	return s.Query(All())
}

// TopLevelNames returns the packages named by the manifest, sorted.
func (s *Store) TopLevelNames() []string {
	return s.Query(IsTopLevel(true))
}

// UsedNames returns the packages reachable from the top level, sorted.
func (s *Store) UsedNames() []string {
	return s.Query(IsUsed(true))
}

// Dependencies implements usage.Graph over private dependency edges.
func (s *Store) Dependencies(name string) ([]string, bool) {
	p, ok := s.packages[name]
	if !ok {
		return nil, false
	}
	return p.PrivateDependencies, true
}

// ResolveUsed computes the used set from the current top-level flags and
// dependency edges without changing the store.
func (s *Store) ResolveUsed() ([]string, error) {
	return usage.Resolve(s.TopLevelNames(), s)
}

// OwnerOf returns the package whose source directory contains path. The
// deepest match wins.
func (s *Store) OwnerOf(path string) (types.Package, bool) {
	path = filepath.Clean(path)
	var owner *types.Package
	for _, p := range s.packages {
		if !p.Contains(path) {
			continue
		}
		if owner == nil || len(p.SourcePath) > len(owner.SourcePath) {
			owner = p
		}
	}
	if owner == nil {
		return types.Package{}, false
	}
	return owner.Clone(), true
}

// Packages returns copies of every package, sorted by name.
func (s *Store) Packages() []types.Package {
	names := s.Names()
	out := make([]types.Package, 0, len(names))
	for _, name := range names {
		out = append(out, s.packages[name].Clone())
	}
	return out
}

func sortedKeys(m map[string]*types.Package, keep func(*types.Package) bool) []string {
	names := make([]string, 0, len(m))
	for name, p := range m {
		if keep(p) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
