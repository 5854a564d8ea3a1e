// Package actions holds the action catalog: declarative descriptors filtered by
// rules, and the registry that resolves them to handlers and executes them.
package actions

import (
	"context"
	"time"

	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/PROACTIVA-US/VISLZR/pkg/rules"
)

// Category classifies what an action does
type Category string

const (
	CategoryView         Category = "view"
	CategoryCreate       Category = "create"
	CategoryStateChange  Category = "state-change"
	CategoryAIAnalysis   Category = "ai-analysis"
	CategoryAIGenerative Category = "ai-generative"
	CategoryIntegration  Category = "integration"
	CategoryDestructive  Category = "destructive"
)

// HandlerID names an entry in a HandlerTable
type HandlerID string

// Descriptor declares an action: when it is offered and how it runs
type Descriptor struct {
	ID                   string       `json:"id" yaml:"id" koanf:"id"`
	Label                string       `json:"label" yaml:"label" koanf:"label"`
	Icon                 string       `json:"icon,omitempty" yaml:"icon,omitempty" koanf:"icon"`
	Category             Category     `json:"category" yaml:"category" koanf:"category"`
	Rules                []rules.Rule `json:"rules,omitempty" yaml:"rules,omitempty" koanf:"rules"`
	Priority             int          `json:"priority" yaml:"priority" koanf:"priority"` // lower sorts first
	Group                string       `json:"group,omitempty" yaml:"group,omitempty" koanf:"group"`
	IsGroupParent        bool         `json:"isGroupParent,omitempty" yaml:"is_group_parent,omitempty" koanf:"is_group_parent"`
	Handler              HandlerID    `json:"handler" yaml:"handler" koanf:"handler"`
	RequiresConfirmation bool         `json:"requiresConfirmation,omitempty" yaml:"requires_confirmation,omitempty" koanf:"requires_confirmation"`
	ConfirmationMessage  string       `json:"confirmationMessage,omitempty" yaml:"confirmation_message,omitempty" koanf:"confirmation_message"`
	Tooltip              string       `json:"tooltip,omitempty" yaml:"tooltip,omitempty" koanf:"tooltip"`
	EstimatedDuration    int          `json:"estimatedDuration,omitempty" yaml:"estimated_duration,omitempty" koanf:"estimated_duration"` // seconds
	Tags                 []string     `json:"tags,omitempty" yaml:"tags,omitempty" koanf:"tags"`
}

// Result is the outcome of executing an action
type Result struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message,omitempty"`
	Data        map[string]any    `json:"data,omitempty"`
	NodeUpdate  *model.NodePatch  `json:"nodeUpdate,omitempty"`
	GraphUpdate *model.GraphPatch `json:"graphUpdate,omitempty"`
}

// Mutator applies graph changes on behalf of handlers
type Mutator interface {
	AddNode(ctx context.Context, node *model.Node) (*model.Node, error)
	PatchNode(ctx context.Context, id string, patch *model.NodePatch) (*model.Node, error)
	DeleteNode(ctx context.Context, id string) error
	AddEdge(ctx context.Context, edge *model.Edge) (*model.Edge, error)
	DeleteEdge(ctx context.Context, id string) error
}

// GraphContext is what a handler may consult and change besides the node itself.
// Params carries caller-supplied input such as a label or a progress value.
type GraphContext struct {
	ProjectID string
	Graph     *model.Graph
	Mutator   Mutator
	Params    map[string]any
}

// Handler performs an action against a node
type Handler interface {
	Handle(ctx context.Context, node *model.Node, gctx GraphContext) (Result, error)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, node *model.Node, gctx GraphContext) (Result, error)

// Handle calls f
func (f HandlerFunc) Handle(ctx context.Context, node *model.Node, gctx GraphContext) (Result, error) {
	return f(ctx, node, gctx)
}

// HandlerTable maps handler ids to implementations
type HandlerTable map[HandlerID]Handler

// Merge returns a table holding t's entries overlaid with other's
func (t HandlerTable) Merge(other HandlerTable) HandlerTable {
	out := make(HandlerTable, len(t)+len(other))
	for id, h := range t {
		out[id] = h
	}
	for id, h := range other {
		out[id] = h
	}
	return out
}

// Confirmer gates actions that require confirmation
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// ConfirmerFunc adapts a function to Confirmer
type ConfirmerFunc func(ctx context.Context, message string) (bool, error)

// Confirm calls f
func (f ConfirmerFunc) Confirm(ctx context.Context, message string) (bool, error) {
	return f(ctx, message)
}

// AutoConfirm approves every prompt
var AutoConfirm = ConfirmerFunc(func(context.Context, string) (bool, error) { return true, nil })

// Execution describes one finished action run
type Execution struct {
	ProjectID  string
	NodeID     string
	ActionID   string
	Success    bool
	Message    string
	ExecutedAt time.Time
	Duration   time.Duration
}

// Recorder observes finished executions (history, metrics)
type Recorder interface {
	Record(ctx context.Context, exec Execution)
}
