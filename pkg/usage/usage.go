// Package usage computes which packages are needed by a project: the
// transitive closure of the top-level packages over the private dependency
// graph.
package usage

import (
	"sort"
	"strings"

	"github.com/arthur-debert/pkglink/pkg/errors"
)

// Graph exposes the private dependency edges of a package set.
// Dependencies returns false when the name is not part of the graph.
type Graph interface {
	Dependencies(name string) ([]string, bool)
}

// MapGraph is a Graph backed by a plain adjacency map.
type MapGraph map[string][]string

// Dependencies implements Graph.
func (m MapGraph) Dependencies(name string) ([]string, bool) {
	deps, ok := m[name]
	return deps, ok
}

type visitState int

const (
	unvisited visitState = iota
	onStack
	done
)

// Resolve returns the sorted set of packages reachable from topLevel,
// topLevel included. Names missing from the graph are skipped. A cycle
// reachable from the top level returns ErrDependencyCycle with the cycle
// path in the "cycle" detail.
func Resolve(topLevel []string, g Graph) ([]string, error) {
	state := make(map[string]visitState)
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case onStack:
			return cycleError(stack, name)
		}

		deps, ok := g.Dependencies(name)
		if !ok {
			return nil
		}

		state[name] = onStack
		stack = append(stack, name)
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	for _, name := range topLevel {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	used := make([]string, 0, len(state))
	for name, s := range state {
		if s == done {
			used = append(used, name)
		}
	}
	sort.Strings(used)
	return used, nil
}

func cycleError(stack []string, name string) error {
	start := 0
	for i, n := range stack {
		if n == name {
			start = i
			break
		}
	}
	cycle := append(append([]string(nil), stack[start:]...), name)
	return errors.Newf(errors.ErrDependencyCycle, "dependency cycle: %s", strings.Join(cycle, " -> ")).
		WithDetail("cycle", cycle)
}

// Diff returns the names in after but not in before (added) and the names in
// before but not in after (removed), both sorted.
func Diff(after, before []string) (added, removed []string) {
	afterSet := toSet(after)
	beforeSet := toSet(before)

	for name := range afterSet {
		if !beforeSet[name] {
			added = append(added, name)
		}
	}
	for name := range beforeSet {
		if !afterSet[name] {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

// Intersect returns the members of names that are also in universe, keeping
// the order of names and dropping duplicates.
func Intersect(names, universe []string) []string {
	known := toSet(universe)
	seen := make(map[string]bool, len(names))
	var out []string
	for _, name := range names {
		if known[name] && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
