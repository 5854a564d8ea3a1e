package nodectx

import "github.com/PROACTIVA-US/VISLZR/pkg/model"

// Parent returns the parent id of id: the source of the first incoming parent
// edge, falling back to the node's ParentID field. Empty when there is none.
func Parent(id string, g *model.Graph) string {
	if g == nil {
		return ""
	}
	for _, e := range g.Edges {
		if e.Type == model.EdgeParent && e.Target == id {
			return e.Source
		}
	}
	if n := g.Node(id); n != nil {
		return n.ParentID
	}
	return ""
}

// Depth counts hops from id up to its root. A parent cycle stops the walk at
// the first repeated id; the hops taken so far are returned.
func Depth(id string, g *model.Graph) int {
	visited := map[string]bool{id: true}
	depth := 0
	current := id
	for {
		parent := Parent(current, g)
		if parent == "" || visited[parent] {
			return depth
		}
		visited[parent] = true
		depth++
		current = parent
	}
}

// Children returns the direct children of id: targets of parent edges from id
// plus nodes naming id as ParentID, deduplicated in first-seen order.
func Children(id string, g *model.Graph) []*model.Node {
	if g == nil {
		return nil
	}
	c := newCollector(g)
	for _, e := range g.Edges {
		if e.Type == model.EdgeParent && e.Source == id {
			c.add(e.Target)
		}
	}
	for _, n := range g.Nodes {
		if n.ParentID == id {
			c.add(n.ID)
		}
	}
	return c.nodes
}

// Dependencies returns what node depends on: its explicit Dependencies plus
// the sources of dependency edges pointing at it.
func Dependencies(node *model.Node, g *model.Graph) []*model.Node {
	if node == nil || g == nil {
		return nil
	}
	c := newCollector(g)
	for _, dep := range node.Dependencies {
		c.add(dep)
	}
	for _, e := range g.Edges {
		if e.Type == model.EdgeDependency && e.Target == node.ID {
			c.add(e.Source)
		}
	}
	return c.nodes
}

// Dependents returns what depends on node: targets of dependency edges leaving
// it plus nodes listing it among their Dependencies.
func Dependents(node *model.Node, g *model.Graph) []*model.Node {
	if node == nil || g == nil {
		return nil
	}
	c := newCollector(g)
	for _, e := range g.Edges {
		if e.Type == model.EdgeDependency && e.Source == node.ID {
			c.add(e.Target)
		}
	}
	for _, n := range g.Nodes {
		for _, dep := range n.Dependencies {
			if dep == node.ID {
				c.add(n.ID)
				break
			}
		}
	}
	return c.nodes
}

// SubtreeProgress is the node's own progress for a leaf, otherwise the mean
// progress of its direct children. Grandchildren are not consulted.
func SubtreeProgress(id string, g *model.Graph) float64 {
	children := Children(id, g)
	if len(children) == 0 {
		if n := g.Node(id); n != nil {
			return n.Progress
		}
		return 0
	}
	var total float64
	for _, child := range children {
		total += child.Progress
	}
	return total / float64(len(children))
}

// IsLeaf reports whether id has no children
func IsLeaf(id string, g *model.Graph) bool {
	return len(Children(id, g)) == 0
}

// IsRoot reports whether node has no parent
func IsRoot(node *model.Node, g *model.Graph) bool {
	return !HasParent(node, g)
}

// collector accumulates graph nodes by id, skipping duplicates and ids the graph does not know
type collector struct {
	g     *model.Graph
	seen  map[string]bool
	nodes []*model.Node
}

func newCollector(g *model.Graph) *collector {
	return &collector{g: g, seen: make(map[string]bool), nodes: make([]*model.Node, 0)}
}

func (c *collector) add(id string) {
	if c.seen[id] {
		return
	}
	c.seen[id] = true
	if n := c.g.Node(id); n != nil {
		c.nodes = append(c.nodes, n)
	}
}
