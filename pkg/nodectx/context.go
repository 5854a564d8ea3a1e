// Package nodectx derives the structural and status snapshot of a node that
// action rules are evaluated against.
//
// Every function here is total: a missing node, a dangling edge or malformed
// metadata yields false or an empty result, never an error or a panic.
package nodectx

import (
	"time"

	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/araddon/dateparse"
)

// NodeContext is the derived, ephemeral view of a node within its graph
type NodeContext struct {
	NodeType        model.NodeType   `json:"nodeType"`
	Status          model.NodeStatus `json:"status"`
	HasChildren     bool             `json:"hasChildren"`
	HasParent       bool             `json:"hasParent"`
	HasDependencies bool             `json:"hasDependencies"`
	IsBlocked       bool             `json:"isBlocked"`
	IsOverdue       bool             `json:"isOverdue"`
	HasCode         bool             `json:"hasCode"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
}

// Builder builds contexts against a clock. The zero value uses time.Now.
type Builder struct {
	Now func() time.Time
}

// Build derives the context of node within g using the wall clock
func Build(node *model.Node, g *model.Graph) NodeContext {
	return Builder{}.Build(node, g)
}

// Build derives the context of node within g
func (b Builder) Build(node *model.Node, g *model.Graph) NodeContext {
	if node == nil {
		return NodeContext{}
	}
	metadata := node.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return NodeContext{
		NodeType:        node.Type,
		Status:          node.Status,
		HasChildren:     HasChildren(node.ID, g),
		HasParent:       HasParent(node, g),
		HasDependencies: HasDependencies(node, g),
		IsBlocked:       IsBlocked(node, g),
		IsOverdue:       IsOverdue(node, b.now()),
		HasCode:         truthy(node.Metadata["code"]),
		Metadata:        metadata,
	}
}

func (b Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// HasChildren reports whether any parent edge originates at id
func HasChildren(id string, g *model.Graph) bool {
	if g == nil {
		return false
	}
	for _, e := range g.Edges {
		if e.Type == model.EdgeParent && e.Source == id {
			return true
		}
	}
	return false
}

// HasParent reports whether the node names a parent or is the target of a parent edge
func HasParent(node *model.Node, g *model.Graph) bool {
	if node == nil {
		return false
	}
	if node.ParentID != "" {
		return true
	}
	if g == nil {
		return false
	}
	for _, e := range g.Edges {
		if e.Type == model.EdgeParent && e.Target == node.ID {
			return true
		}
	}
	return false
}

// HasDependencies reports whether the node lists dependencies or touches any
// dependency edge, in either direction
func HasDependencies(node *model.Node, g *model.Graph) bool {
	if node == nil {
		return false
	}
	if len(node.Dependencies) > 0 {
		return true
	}
	if g == nil {
		return false
	}
	for _, e := range g.Edges {
		if e.Type == model.EdgeDependency && (e.Source == node.ID || e.Target == node.ID) {
			return true
		}
	}
	return false
}

// IsBlocked reports whether the node is BLOCKED or has an incoming blocked dependency edge
func IsBlocked(node *model.Node, g *model.Graph) bool {
	if node == nil {
		return false
	}
	if node.Status == model.StatusBlocked {
		return true
	}
	if g == nil {
		return false
	}
	for _, e := range g.Edges {
		if e.Type == model.EdgeDependency && e.Target == node.ID && e.Status == model.EdgeBlocked {
			return true
		}
	}
	return false
}

// IsOverdue reports whether the node is flagged OVERDUE or AT_RISK, or carries a
// due_date before now while not COMPLETED. Unparseable dates are not overdue.
func IsOverdue(node *model.Node, now time.Time) bool {
	if node == nil {
		return false
	}
	if node.Status == model.StatusOverdue || node.Status == model.StatusAtRisk {
		return true
	}
	if node.Status == model.StatusCompleted {
		return false
	}
	due, ok := dueDate(node.Metadata["due_date"])
	if !ok {
		return false
	}
	return due.Before(now)
}

func dueDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, !d.IsZero()
	case string:
		if d == "" {
			return time.Time{}, false
		}
		t, err := dateparse.ParseAny(d)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

// truthy mirrors loose boolean coercion for metadata flags
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}
