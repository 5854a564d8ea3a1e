// Package lens narrows a project graph to what matters around a focused node:
// hop distances, depth-limited neighborhoods, collapsed subtrees and the
// snapshot diffs that drive incremental updates.
package lens

import "github.com/PROACTIVA-US/VISLZR/pkg/model"

// Config defines how a focused view is cut out of the full graph
type Config struct {
	Name          string           `json:"name"`
	Depth         int              `json:"depth"`                   // hops kept around the focal set; negative keeps everything reachable
	EdgeTypes     []model.EdgeType `json:"edgeTypes,omitempty"`     // empty keeps all edge types
	HideCompleted bool             `json:"hideCompleted,omitempty"` // focal nodes are always kept
	Collapse      []string         `json:"collapse,omitempty"`      // nodes whose descendants fold into them
}

// DefaultConfig is the focus lens used when a client asks for none
func DefaultConfig() Config {
	return Config{Name: "focus", Depth: 2}
}

// NodeState is the computed state of one node in a view
type NodeState struct {
	Visible   bool `json:"visible"`
	Collapsed bool `json:"collapsed"`
	Distance  int  `json:"distance"`
}

// View is the rendered result of a lens
type View struct {
	Graph  *model.Graph          `json:"graph"`
	States map[string]*NodeState `json:"states"`
}

func (c Config) keepsEdge(t model.EdgeType) bool {
	if len(c.EdgeTypes) == 0 {
		return true
	}
	for _, want := range c.EdgeTypes {
		if want == t {
			return true
		}
	}
	return false
}

func (c Config) inRange(d int) bool {
	if d == Infinite {
		return false
	}
	return c.Depth < 0 || d <= c.Depth
}
