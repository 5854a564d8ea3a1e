package lens

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"

	"github.com/PROACTIVA-US/VISLZR/pkg/model"
)

// GraphDiff represents the difference between two graph states
type GraphDiff struct {
	AddedNodes    []*model.Node `json:"addedNodes"`
	RemovedNodes  []string      `json:"removedNodes"`  // Node IDs
	ModifiedNodes []*model.Node `json:"modifiedNodes"` // Nodes with changed properties
	AddedEdges    []*model.Edge `json:"addedEdges"`
	RemovedEdges  []string      `json:"removedEdges"` // Edge keys
	FullGraph     bool          `json:"fullGraph"`    // True if this is a full graph, not a diff
}

// Empty reports whether the diff carries no change
func (d *GraphDiff) Empty() bool {
	return !d.FullGraph && len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 &&
		len(d.ModifiedNodes) == 0 && len(d.AddedEdges) == 0 && len(d.RemovedEdges) == 0
}

// GraphSnapshot represents a cached graph state for diffing
type GraphSnapshot struct {
	Hash  string
	Nodes map[string]*model.Node // nodeID -> node
	Edges map[string]*model.Edge // edgeKey -> edge
}

// CreateSnapshot copies g into a snapshot for later diffing
func CreateSnapshot(g *model.Graph) *GraphSnapshot {
	snapshot := &GraphSnapshot{
		Nodes: make(map[string]*model.Node, len(g.Nodes)),
		Edges: make(map[string]*model.Edge, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		snapshot.Nodes[n.ID] = n.Clone()
	}
	for _, e := range g.Edges {
		c := *e
		snapshot.Edges[keyOf(e)] = &c
	}
	snapshot.Hash = Hash(g)
	return snapshot
}

// Hash fingerprints the graph contents
func Hash(g *model.Graph) string {
	data, err := json.Marshal(g)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// ComputeDiff computes the difference between a snapshot and the current graph.
// Results are sorted by id so that identical changes produce identical diffs.
func ComputeDiff(oldSnapshot *GraphSnapshot, newGraph *model.Graph) *GraphDiff {
	if oldSnapshot == nil {
		return &GraphDiff{
			AddedNodes: newGraph.Nodes,
			AddedEdges: newGraph.Edges,
			FullGraph:  true,
		}
	}

	diff := &GraphDiff{
		AddedNodes:    make([]*model.Node, 0),
		RemovedNodes:  make([]string, 0),
		ModifiedNodes: make([]*model.Node, 0),
		AddedEdges:    make([]*model.Edge, 0),
		RemovedEdges:  make([]string, 0),
	}

	newNodes := make(map[string]bool, len(newGraph.Nodes))
	for _, n := range newGraph.Nodes {
		newNodes[n.ID] = true
		if old, exists := oldSnapshot.Nodes[n.ID]; exists {
			if !nodesEqual(old, n) {
				diff.ModifiedNodes = append(diff.ModifiedNodes, n)
			}
		} else {
			diff.AddedNodes = append(diff.AddedNodes, n)
		}
	}
	for id := range oldSnapshot.Nodes {
		if !newNodes[id] {
			diff.RemovedNodes = append(diff.RemovedNodes, id)
		}
	}

	newEdges := make(map[string]bool, len(newGraph.Edges))
	for _, e := range newGraph.Edges {
		key := keyOf(e)
		newEdges[key] = true
		if _, exists := oldSnapshot.Edges[key]; !exists {
			diff.AddedEdges = append(diff.AddedEdges, e)
		}
	}
	for key := range oldSnapshot.Edges {
		if !newEdges[key] {
			diff.RemovedEdges = append(diff.RemovedEdges, key)
		}
	}

	slices.Sort(diff.RemovedNodes)
	slices.Sort(diff.RemovedEdges)
	return diff
}

// keyOf prefers the edge id and falls back to source|target|type
func keyOf(e *model.Edge) string {
	if e.ID != "" {
		return e.ID
	}
	return edgeKey(e.Source, e.Target, e.Type)
}

func edgeKey(source, target string, edgeType model.EdgeType) string {
	return fmt.Sprintf("%s|%s|%s", source, target, edgeType)
}

// nodesEqual compares every field that a client renders
func nodesEqual(a, b *model.Node) bool {
	return a.ID == b.ID &&
		a.Label == b.Label &&
		a.Type == b.Type &&
		a.Status == b.Status &&
		a.Priority == b.Priority &&
		a.Progress == b.Progress &&
		a.ParentID == b.ParentID &&
		slices.Equal(a.Tags, b.Tags) &&
		slices.Equal(a.Dependencies, b.Dependencies) &&
		reflect.DeepEqual(normalize(a.Metadata), normalize(b.Metadata))
}

func normalize(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}
