package lens

import (
	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/PROACTIVA-US/VISLZR/pkg/nodectx"
)

// Infinite marks a node with no path to the focal set
const Infinite = -1

type distanceQueueNode struct {
	nodeID   string
	distance int
}

// ComputeDistances returns the shortest hop count from each node to the nearest
// focal node, treating every edge as undirected. Parent and dependency ids
// stored on nodes count as edges too. Focal ids missing from g are ignored.
func ComputeDistances(g *model.Graph, focal []string) map[string]int {
	distances := make(map[string]int, len(g.Nodes))
	adjacency := buildAdjacencyList(g)

	queue := make([]distanceQueueNode, 0, len(focal))
	for _, id := range focal {
		if g.Node(id) == nil {
			continue
		}
		if _, seen := distances[id]; seen {
			continue
		}
		distances[id] = 0
		queue = append(queue, distanceQueueNode{nodeID: id})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbor := range adjacency[current.nodeID] {
			if _, exists := distances[neighbor]; !exists {
				distances[neighbor] = current.distance + 1
				queue = append(queue, distanceQueueNode{nodeID: neighbor, distance: current.distance + 1})
			}
		}
	}

	for _, n := range g.Nodes {
		if _, exists := distances[n.ID]; !exists {
			distances[n.ID] = Infinite
		}
	}
	return distances
}

// buildAdjacencyList creates an undirected adjacency list restricted to known nodes
func buildAdjacencyList(g *model.Graph) map[string][]string {
	adjacency := make(map[string][]string)
	link := func(a, b string) {
		if a == b || g.Node(a) == nil || g.Node(b) == nil {
			return
		}
		adjacency[a] = append(adjacency[a], b)
		adjacency[b] = append(adjacency[b], a)
	}

	for _, e := range g.Edges {
		link(e.Source, e.Target)
	}
	for _, n := range g.Nodes {
		if n.ParentID != "" {
			link(n.ParentID, n.ID)
		}
		for _, dep := range n.Dependencies {
			link(dep, n.ID)
		}
	}
	return adjacency
}

// ancestors lists id's parents from nearest to root, stopping on cycles
func ancestors(id string, g *model.Graph) []string {
	var out []string
	visited := map[string]bool{id: true}
	for p := nodectx.Parent(id, g); p != "" && !visited[p]; p = nodectx.Parent(p, g) {
		visited[p] = true
		out = append(out, p)
	}
	return out
}

// Neighborhood returns the nodes within depth hops of id and the edges among
// them. An unknown id yields an empty graph.
func Neighborhood(g *model.Graph, id string, depth int) *model.Graph {
	cfg := DefaultConfig()
	cfg.Depth = depth
	return Render(g, []string{id}, cfg).Graph
}
