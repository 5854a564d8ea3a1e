package model

// Graph is the project graph: nodes, typed edges between them and the
// milestones that group them. Node order is preserved as loaded so that
// derived lists (children, dependents) are deterministic.
type Graph struct {
	Project    *Project     `json:"project,omitempty" yaml:"project,omitempty"`
	Nodes      []*Node      `json:"nodes" yaml:"nodes"`
	Edges      []*Edge      `json:"edges" yaml:"edges"`
	Milestones []*Milestone `json:"milestones,omitempty" yaml:"milestones,omitempty"`

	index map[string]*Node
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make([]*Node, 0),
		Edges: make([]*Edge, 0),
		index: make(map[string]*Node),
	}
}

// AddNode adds a node to the graph. If a node with the same ID exists, it is replaced in place.
func (g *Graph) AddNode(node *Node) {
	if node.Metadata == nil {
		node.Metadata = make(map[string]any)
	}
	g.ensureIndex()
	if _, exists := g.index[node.ID]; exists {
		for i, n := range g.Nodes {
			if n.ID == node.ID {
				g.Nodes[i] = node
				break
			}
		}
	} else {
		g.Nodes = append(g.Nodes, node)
	}
	g.index[node.ID] = node
}

// AddEdge adds an edge to the graph.
func (g *Graph) AddEdge(edge *Edge) {
	if edge.Metadata == nil {
		edge.Metadata = make(map[string]any)
	}
	if edge.Status == "" {
		edge.Status = EdgeActive
	}
	g.Edges = append(g.Edges, edge)
}

// RemoveNode deletes a node and every edge touching it. Reports whether the node existed.
func (g *Graph) RemoveNode(id string) bool {
	g.ensureIndex()
	if _, exists := g.index[id]; !exists {
		return false
	}
	delete(g.index, id)

	nodes := g.Nodes[:0]
	for _, n := range g.Nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	g.Nodes = nodes

	edges := g.Edges[:0]
	for _, e := range g.Edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}
	g.Edges = edges
	return true
}

// RemoveEdge deletes the edge with the given ID. Reports whether it existed.
func (g *Graph) RemoveEdge(id string) bool {
	for i, e := range g.Edges {
		if e.ID == id {
			g.Edges = append(g.Edges[:i], g.Edges[i+1:]...)
			return true
		}
	}
	return false
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *Node {
	if g == nil {
		return nil
	}
	if g.index != nil {
		return g.index[id]
	}
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Edge returns the edge with the given ID, or nil.
func (g *Graph) Edge(id string) *Edge {
	if g == nil {
		return nil
	}
	for _, e := range g.Edges {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Reindex rebuilds the ID lookup table after Nodes was assigned directly
// (for example by a decoder).
func (g *Graph) Reindex() {
	g.index = make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		g.index[n.ID] = n
	}
}

func (g *Graph) ensureIndex() {
	if g.index == nil {
		g.Reindex()
	}
}

// Clone returns a deep copy of the graph. Metadata maps are copied one level deep.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	out := &Graph{
		Nodes: make([]*Node, 0, len(g.Nodes)),
		Edges: make([]*Edge, 0, len(g.Edges)),
	}
	if g.Project != nil {
		p := *g.Project
		out.Project = &p
	}
	for _, n := range g.Nodes {
		out.Nodes = append(out.Nodes, n.Clone())
	}
	for _, e := range g.Edges {
		c := *e
		c.Metadata = cloneMap(e.Metadata)
		out.Edges = append(out.Edges, &c)
	}
	for _, m := range g.Milestones {
		c := *m
		c.NodeIDs = append([]string(nil), m.NodeIDs...)
		out.Milestones = append(out.Milestones, &c)
	}
	out.Reindex()
	return out
}

// Clone returns a copy of the node that shares no slices or maps with n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Tags = append([]string(nil), n.Tags...)
	c.Dependencies = append([]string(nil), n.Dependencies...)
	c.Metadata = cloneMap(n.Metadata)
	return &c
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
