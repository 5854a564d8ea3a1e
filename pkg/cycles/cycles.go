// Package cycles finds circular "depends on" chains in a project graph.
package cycles

import (
	"slices"

	"github.com/PROACTIVA-US/VISLZR/pkg/graph"
	"gonum.org/v1/gonum/graph/topo"
)

// Cycle is a set of nodes that all transitively depend on each other
type Cycle struct {
	Nodes []string `json:"nodes"`
}

// FindDependencyCycles returns every strongly connected component with more
// than one node. Node ids within a cycle are sorted, and cycles are ordered by
// their first id.
func FindDependencyCycles(dg *graph.DependencyGraph) []Cycle {
	found := make([]Cycle, 0)
	for _, scc := range topo.TarjanSCC(dg.Graph()) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]string, 0, len(scc))
		for _, n := range scc {
			if name, ok := dg.Name(n.ID()); ok {
				ids = append(ids, name)
			}
		}
		slices.Sort(ids)
		found = append(found, Cycle{Nodes: ids})
	}

	slices.SortFunc(found, func(a, b Cycle) int {
		return slices.Compare(a.Nodes, b.Nodes)
	})
	return found
}

// Blocked reports whether id sits on any of the cycles
func Blocked(id string, found []Cycle) bool {
	for _, c := range found {
		if slices.Contains(c.Nodes, id) {
			return true
		}
	}
	return false
}
