package store

import "github.com/arthur-debert/pkglink/pkg/types"

// Predicate selects packages in Query
type Predicate func(p types.Package) bool

// All matches every package
func All() Predicate {
	return func(types.Package) bool { return true }
}

// IsUsed matches packages whose used flag equals v
func IsUsed(v bool) Predicate {
	return func(p types.Package) bool { return p.Used == v }
}

// IsTopLevel matches packages whose top-level flag equals v
func IsTopLevel(v bool) Predicate {
	return func(p types.Package) bool { return p.TopLevel == v }
}

// Where wraps an arbitrary filter
func Where(fn func(types.Package) bool) Predicate {
	return Predicate(fn)
}

// And matches packages satisfying every predicate
func And(preds ...Predicate) Predicate {
	return func(p types.Package) bool {
		for _, pred := range preds {
			if !pred(p) {
				return false
			}
		}
		return true
	}
}

// Query returns the sorted names of the packages matching pred.
func (s *Store) Query(pred Predicate) []string {
	return sortedKeys(s.packages, func(p *types.Package) bool { return pred(*p) })
}
