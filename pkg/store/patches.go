package store

import (
	"github.com/arthur-debert/pkglink/pkg/errors"
	"github.com/arthur-debert/pkglink/pkg/types"
)

// Patch is a single attribute change applied by SetAttributes. The set of
// patches is closed: only the constructors below produce one.
type Patch interface {
	apply(p *types.Package)
}

type patchFunc func(p *types.Package)

func (f patchFunc) apply(p *types.Package) { f(p) }

// SetTopLevel sets whether the manifest names the package.
func SetTopLevel(v bool) Patch {
	return patchFunc(func(p *types.Package) { p.TopLevel = v })
}

// SetUsed sets whether the package is reachable from the top level.
func SetUsed(v bool) Patch {
	return patchFunc(func(p *types.Package) { p.Used = v })
}

// SetPrivateDependencies replaces the private dependency edges.
func SetPrivateDependencies(deps []string) Patch {
	deps = append([]string(nil), deps...)
	return patchFunc(func(p *types.Package) { p.PrivateDependencies = append([]string(nil), deps...) })
}

// SetDeclaredDependencies replaces the declared dependency list.
func SetDeclaredDependencies(deps []string) Patch {
	deps = append([]string(nil), deps...)
	return patchFunc(func(p *types.Package) { p.DeclaredDependencies = append([]string(nil), deps...) })
}

// UpdatePrivateDependencies derives new private dependency edges from the
// current ones.
func UpdatePrivateDependencies(fn func([]string) []string) Patch {
	return patchFunc(func(p *types.Package) {
		p.PrivateDependencies = fn(append([]string(nil), p.PrivateDependencies...))
	})
}

// SetAttributes applies patches to every named package. Nothing is changed
// when a name is unknown.
func (s *Store) SetAttributes(names []string, patches ...Patch) error {
	for _, name := range names {
		if _, ok := s.packages[name]; !ok {
			return errors.Newf(errors.ErrNotFound, "unknown package %q", name).
				WithDetail("package", name)
		}
	}
	for _, name := range names {
		p := s.packages[name]
		for _, patch := range patches {
			patch.apply(p)
		}
	}
	return nil
}
