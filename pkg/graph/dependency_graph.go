// Package graph indexes the "depends on" relation of a project graph so that
// transitive upstream and downstream sets can be walked cheaply.
package graph

import (
	"slices"
	"strings"

	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// DependencyGraph holds an edge from every node to each node it depends on,
// plus the reversed edge set for dependent lookups.
type DependencyGraph struct {
	graph   *simple.DirectedGraph
	reverse *simple.DirectedGraph
	ids     map[string]int64
	names   map[int64]string
	nextID  int64
}

// NewDependencyGraph creates an empty dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		graph:   simple.NewDirectedGraph(),
		reverse: simple.NewDirectedGraph(),
		ids:     make(map[string]int64),
		names:   make(map[int64]string),
	}
}

// AddNode adds a node id to the graph
func (dg *DependencyGraph) AddNode(id string) {
	if _, exists := dg.ids[id]; exists {
		return
	}

	dg.ids[id] = dg.nextID
	dg.names[dg.nextID] = id
	dg.graph.AddNode(simple.Node(dg.nextID))
	dg.reverse.AddNode(simple.Node(dg.nextID))
	dg.nextID++
}

// AddDependency records that dependent depends on prerequisite.
// Self-dependencies are ignored.
func (dg *DependencyGraph) AddDependency(dependent, prerequisite string) {
	if dependent == prerequisite {
		return
	}
	dg.AddNode(dependent)
	dg.AddNode(prerequisite)

	from, to := dg.ids[dependent], dg.ids[prerequisite]
	if !dg.graph.HasEdgeFromTo(from, to) {
		dg.graph.SetEdge(dg.graph.NewEdge(simple.Node(from), simple.Node(to)))
		dg.reverse.SetEdge(dg.reverse.NewEdge(simple.Node(to), simple.Node(from)))
	}
}

// Has reports whether id is in the graph
func (dg *DependencyGraph) Has(id string) bool {
	_, ok := dg.ids[id]
	return ok
}

// Graph returns the underlying directed graph, edges pointing at prerequisites
func (dg *DependencyGraph) Graph() graph.Directed {
	return dg.graph
}

// Name maps a gonum node id back to the project node id
func (dg *DependencyGraph) Name(id int64) (string, bool) {
	name, ok := dg.names[id]
	return name, ok
}

// Len returns the number of nodes
func (dg *DependencyGraph) Len() int {
	return len(dg.ids)
}

// Edges returns every [dependent, prerequisite] pair, sorted
func (dg *DependencyGraph) Edges() [][2]string {
	var edges [][2]string
	iter := dg.graph.Edges()
	for iter.Next() {
		e := iter.Edge()
		edges = append(edges, [2]string{dg.names[e.From().ID()], dg.names[e.To().ID()]})
	}
	slices.SortFunc(edges, func(a, b [2]string) int {
		if a[0] != b[0] {
			return strings.Compare(a[0], b[0])
		}
		return strings.Compare(a[1], b[1])
	})
	return edges
}

// DirectDependencies returns the ids id depends on directly, sorted
func (dg *DependencyGraph) DirectDependencies(id string) []string {
	return dg.neighbors(dg.graph, id)
}

// DirectDependents returns the ids that depend on id directly, sorted
func (dg *DependencyGraph) DirectDependents(id string) []string {
	return dg.neighbors(dg.reverse, id)
}

// Upstream returns everything id transitively depends on, sorted
func (dg *DependencyGraph) Upstream(id string) []string {
	return dg.walk(dg.graph, id)
}

// Downstream returns everything that transitively depends on id, sorted
func (dg *DependencyGraph) Downstream(id string) []string {
	return dg.walk(dg.reverse, id)
}

// BlockingUpstream returns the upstream nodes of id that are not COMPLETED in g
func (dg *DependencyGraph) BlockingUpstream(id string, g *model.Graph) []string {
	var blocking []string
	for _, up := range dg.Upstream(id) {
		n := g.Node(up)
		if n == nil || n.Status != model.StatusCompleted {
			blocking = append(blocking, up)
		}
	}
	return blocking
}

func (dg *DependencyGraph) neighbors(g *simple.DirectedGraph, id string) []string {
	nid, ok := dg.ids[id]
	if !ok {
		return nil
	}
	var out []string
	iter := g.From(nid)
	for iter.Next() {
		out = append(out, dg.names[iter.Node().ID()])
	}
	slices.Sort(out)
	return out
}

func (dg *DependencyGraph) walk(g *simple.DirectedGraph, id string) []string {
	nid, ok := dg.ids[id]
	if !ok {
		return nil
	}

	var out []string
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) {
			if n.ID() != nid {
				out = append(out, dg.names[n.ID()])
			}
		},
	}
	bf.Walk(g, simple.Node(nid), nil)
	slices.Sort(out)
	return out
}

// Build indexes the dependency relation of g. A DEPENDENCY edge from A to B
// means B depends on A; each node's Dependencies list is folded in as well.
// Ids that do not resolve to a node are skipped.
func Build(g *model.Graph) *DependencyGraph {
	dg := NewDependencyGraph()
	if g == nil {
		return dg
	}

	for _, n := range g.Nodes {
		dg.AddNode(n.ID)
	}
	for _, e := range g.Edges {
		if e.Type != model.EdgeDependency || g.Node(e.Source) == nil || g.Node(e.Target) == nil {
			continue
		}
		dg.AddDependency(e.Target, e.Source)
	}
	for _, n := range g.Nodes {
		for _, dep := range n.Dependencies {
			if g.Node(dep) != nil {
				dg.AddDependency(n.ID, dep)
			}
		}
	}
	return dg
}
