package model

// NodeType is the kind of work item or system element a node represents
type NodeType string

const (
	NodeTypeRoot        NodeType = "ROOT"
	NodeTypeFolder      NodeType = "FOLDER"
	NodeTypeFile        NodeType = "FILE"
	NodeTypeTask        NodeType = "TASK"
	NodeTypeService     NodeType = "SERVICE"
	NodeTypeComponent   NodeType = "COMPONENT"
	NodeTypeDependency  NodeType = "DEPENDENCY"
	NodeTypeMilestone   NodeType = "MILESTONE"
	NodeTypeIdea        NodeType = "IDEA"
	NodeTypeNote        NodeType = "NOTE"
	NodeTypeSecurity    NodeType = "SECURITY"
	NodeTypeAgent       NodeType = "AGENT"
	NodeTypeAPIEndpoint NodeType = "API_ENDPOINT"
	NodeTypeDatabase    NodeType = "DATABASE"
)

// NodeStatus is the lifecycle state of a node
type NodeStatus string

const (
	StatusIdle       NodeStatus = "IDLE"
	StatusPlanned    NodeStatus = "PLANNED"
	StatusInProgress NodeStatus = "IN_PROGRESS"
	StatusAtRisk     NodeStatus = "AT_RISK"
	StatusOverdue    NodeStatus = "OVERDUE"
	StatusBlocked    NodeStatus = "BLOCKED"
	StatusCompleted  NodeStatus = "COMPLETED"
	StatusRunning    NodeStatus = "RUNNING"
	StatusError      NodeStatus = "ERROR"
	StatusStopped    NodeStatus = "STOPPED"
)

// EdgeType is the relation an edge expresses
type EdgeType string

const (
	EdgeParent     EdgeType = "parent"     // Source is the parent of Target
	EdgeDependency EdgeType = "dependency" // Target depends on Source
	EdgeReference  EdgeType = "reference"  // Informational link, ignored by structural queries
)

// EdgeStatus is the state of a relation, mostly meaningful for dependencies
type EdgeStatus string

const (
	EdgeActive  EdgeStatus = "active"
	EdgeBlocked EdgeStatus = "blocked"
	EdgeMet     EdgeStatus = "met"
)

// Node is a work item or system element in the project graph.
// Metadata is open-ended; well-known keys include "due_date", "code" and
// the completed_at/started_at timestamps written by state-change actions.
type Node struct {
	ID           string         `json:"id" yaml:"id"`
	Label        string         `json:"label" yaml:"label"`
	Type         NodeType       `json:"type" yaml:"type"`
	Status       NodeStatus     `json:"status" yaml:"status"`
	Priority     int            `json:"priority,omitempty" yaml:"priority,omitempty"`
	Progress     float64        `json:"progress,omitempty" yaml:"progress,omitempty"` // 0-100
	Tags         []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	ParentID     string         `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Edge is a directed relation between two nodes.
type Edge struct {
	ID       string         `json:"id" yaml:"id"`
	Source   string         `json:"source" yaml:"source"`
	Target   string         `json:"target" yaml:"target"`
	Type     EdgeType       `json:"type" yaml:"type"`
	Status   EdgeStatus     `json:"status,omitempty" yaml:"status,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Project identifies the graph being edited
type Project struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Milestone groups nodes under a target date
type Milestone struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	TargetDate string   `json:"target_date,omitempty" yaml:"target_date,omitempty"`
	NodeIDs    []string `json:"node_ids,omitempty" yaml:"node_ids,omitempty"`
}

// NodePatch is a partial update of a node. Nil fields are left untouched;
// Metadata entries are merged key by key.
type NodePatch struct {
	Label    *string        `json:"label,omitempty"`
	Status   *NodeStatus    `json:"status,omitempty"`
	Priority *int           `json:"priority,omitempty"`
	Progress *float64       `json:"progress,omitempty"`
	Tags     []string       `json:"tags,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Apply writes the patch onto n in place
func (p *NodePatch) Apply(n *Node) {
	if p == nil || n == nil {
		return
	}
	if p.Label != nil {
		n.Label = *p.Label
	}
	if p.Status != nil {
		n.Status = *p.Status
	}
	if p.Priority != nil {
		n.Priority = *p.Priority
	}
	if p.Progress != nil {
		n.Progress = *p.Progress
	}
	if p.Tags != nil {
		n.Tags = append([]string(nil), p.Tags...)
	}
	if len(p.Metadata) > 0 {
		if n.Metadata == nil {
			n.Metadata = make(map[string]any, len(p.Metadata))
		}
		for k, v := range p.Metadata {
			n.Metadata[k] = v
		}
	}
}

// GraphPatch describes structural changes made by an action
type GraphPatch struct {
	AddedNodes   []*Node  `json:"added_nodes,omitempty"`
	AddedEdges   []*Edge  `json:"added_edges,omitempty"`
	RemovedNodes []string `json:"removed_nodes,omitempty"`
	RemovedEdges []string `json:"removed_edges,omitempty"`
}
