// Package store keeps the live project graph and the action history, and
// announces changes to subscribers.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PROACTIVA-US/VISLZR/pkg/actions"
	"github.com/PROACTIVA-US/VISLZR/pkg/lens"
	"github.com/PROACTIVA-US/VISLZR/pkg/logging"
	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/PROACTIVA-US/VISLZR/pkg/pubsub"
	"github.com/google/uuid"
)

var (
	ErrNodeNotFound = errors.New("node not found")
	ErrNodeExists   = errors.New("node already exists")
	ErrEdgeNotFound = errors.New("edge not found")
)

// Change reasons carried by graph_changed events
const (
	ReasonReloaded    = "reloaded"
	ReasonNodeAdded   = "node_added"
	ReasonNodePatched = "node_patched"
	ReasonNodeDeleted = "node_deleted"
	ReasonEdgeAdded   = "edge_added"
	ReasonEdgeDeleted = "edge_deleted"
)

var _ actions.Mutator = (*Memory)(nil)

// Memory is an in-memory graph store. Readers get deep copies; writers go
// through the Mutator methods, each of which publishes a graph_changed diff.
type Memory struct {
	mu        sync.RWMutex
	graph     *model.Graph
	snapshot  *lens.GraphSnapshot
	publisher pubsub.Publisher
}

// Option configures a Memory store
type Option func(*Memory)

// WithPublisher announces every change on the graph_changed topic
func WithPublisher(p pubsub.Publisher) Option {
	return func(m *Memory) { m.publisher = p }
}

// NewMemory wraps g. The store takes ownership of g.
func NewMemory(g *model.Graph, opts ...Option) *Memory {
	if g == nil {
		g = model.NewGraph()
	}
	m := &Memory{graph: g}
	for _, opt := range opts {
		opt(m)
	}
	m.snapshot = lens.CreateSnapshot(g)
	return m
}

// Snapshot returns a deep copy of the current graph
func (m *Memory) Snapshot() *model.Graph {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.graph.Clone()
}

// Node returns a copy of one node
func (m *Memory) Node(id string) (*model.Node, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := m.graph.Node(id)
	return n.Clone(), n != nil
}

// ProjectID returns the id of the loaded project, if any
func (m *Memory) ProjectID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.graph.Project == nil {
		return ""
	}
	return m.graph.Project.ID
}

// Replace swaps in a freshly loaded graph
func (m *Memory) Replace(ctx context.Context, g *model.Graph) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graph = g
	m.changed(ctx, ReasonReloaded, "")
}

func (m *Memory) AddNode(ctx context.Context, node *model.Node) (*model.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if m.graph.Node(node.ID) != nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeExists, node.ID)
	}
	stored := node.Clone()
	m.graph.AddNode(stored)
	m.changed(ctx, ReasonNodeAdded, stored.ID)
	return stored.Clone(), nil
}

func (m *Memory) PatchNode(ctx context.Context, id string, patch *model.NodePatch) (*model.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.graph.Node(id)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	patch.Apply(n)
	m.changed(ctx, ReasonNodePatched, id)
	return n.Clone(), nil
}

func (m *Memory) DeleteNode(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.graph.RemoveNode(id) {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	m.changed(ctx, ReasonNodeDeleted, id)
	return nil
}

// AddEdge stores edge; both endpoints must exist. An empty id gets a generated one.
func (m *Memory) AddEdge(ctx context.Context, edge *model.Edge) (*model.Edge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, end := range []string{edge.Source, edge.Target} {
		if m.graph.Node(end) == nil {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, end)
		}
	}
	stored := *edge
	if stored.ID == "" {
		stored.ID = "edge-" + uuid.NewString()
	}
	m.graph.AddEdge(&stored)
	m.changed(ctx, ReasonEdgeAdded, stored.Target)
	out := stored
	return &out, nil
}

func (m *Memory) DeleteEdge(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.graph.RemoveEdge(id) {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}
	m.changed(ctx, ReasonEdgeDeleted, "")
	return nil
}

// changed diffs against the last published state and announces it.
// Callers hold the write lock.
func (m *Memory) changed(ctx context.Context, reason, nodeID string) {
	diff := lens.ComputeDiff(m.snapshot, m.graph)
	m.snapshot = lens.CreateSnapshot(m.graph)
	logging.DebugContext(ctx, "graph changed", "reason", reason, "node", nodeID,
		"added", len(diff.AddedNodes), "modified", len(diff.ModifiedNodes), "removed", len(diff.RemovedNodes))

	if m.publisher == nil {
		return
	}
	payload := pubsub.GraphChanged{Reason: reason, NodeID: nodeID, Hash: m.snapshot.Hash, Diff: diff}
	if err := m.publisher.Publish(pubsub.TopicGraphChanged, reason, payload); err != nil {
		logging.WarnContext(ctx, "failed to publish graph change", "reason", reason, "error", err)
	}
}
