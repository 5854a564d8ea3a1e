package actions

import (
	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/PROACTIVA-US/VISLZR/pkg/rules"
)

func isType(t model.NodeType) rules.Rule {
	return rules.Rule{Field: rules.FieldNodeType, Operator: rules.OpEquals, Value: string(t)}
}

func hasDependencies() rules.Rule {
	return rules.Rule{Field: rules.FieldHasDependencies, Operator: rules.OpEquals, Value: true}
}

func notCompleted() rules.Rule {
	return rules.Rule{Field: rules.FieldStatus, Operator: rules.OpNotEquals, Value: string(model.StatusCompleted)}
}

// DefaultDescriptors returns the stock catalog, grouped actions last.
// Each call returns fresh descriptors.
func DefaultDescriptors() []*Descriptor {
	return []*Descriptor{
		{
			ID: "view-details", Label: "Details", Icon: "ℹ️", Category: CategoryView,
			Rules:    []rules.Rule{rules.Always()},
			Priority: 10, Handler: HandlerViewDetails,
			Tooltip: "View full node details",
		},
		{
			ID: "view-dependencies", Label: "Dependencies", Icon: "🔗", Category: CategoryView,
			Rules:    []rules.Rule{hasDependencies()},
			Priority: 11, Handler: HandlerViewDependencies,
			Tooltip: "View dependency relationships",
		},
		{
			ID: "add-task", Label: "Add Task", Icon: "✓", Category: CategoryCreate,
			Rules:    []rules.Rule{rules.Always()},
			Priority: 1, Handler: HandlerAddTask,
			Tooltip: "Create a new task",
		},
		{
			ID: "add-note", Label: "Add Note", Icon: "📝", Category: CategoryCreate,
			Rules:    []rules.Rule{rules.Always()},
			Priority: 3, Handler: HandlerAddNote,
			Tooltip: "Add a note or comment",
		},
		{
			ID: "add-child", Label: "Add Child", Icon: "➕", Category: CategoryCreate,
			Rules:    []rules.Rule{rules.Always()},
			Priority: 2, Handler: HandlerAddChild,
			Tooltip: "Add a child node",
		},
		{
			ID: "mark-complete", Label: "Complete", Icon: "✓", Category: CategoryStateChange,
			Rules:    []rules.Rule{notCompleted(), isType(model.NodeTypeTask)},
			Priority: 1, Handler: HandlerMarkComplete,
			Tooltip: "Mark task as complete",
		},
		{
			ID: "start-task", Label: "Start", Icon: "▶️", Category: CategoryStateChange,
			Rules: []rules.Rule{
				{Field: rules.FieldStatus, Operator: rules.OpEquals, Value: string(model.StatusIdle)},
				isType(model.NodeTypeTask),
			},
			Priority: 1, Handler: HandlerStartTask,
			Tooltip: "Start working on task",
		},
		{
			ID: "update-progress", Label: "Progress", Icon: "📊", Category: CategoryStateChange,
			Rules:    []rules.Rule{notCompleted(), isType(model.NodeTypeTask)},
			Priority: 2, Handler: HandlerUpdateProgress,
			Tooltip: "Update progress percentage",
		},
		{
			ID: "security-scan", Label: "Security Scan", Icon: "🔒", Category: CategoryAIAnalysis,
			Rules:    []rules.Rule{isType(model.NodeTypeService)},
			Priority: 20, Handler: HandlerPlaceholder,
			Tooltip: "Run security vulnerability scan", EstimatedDuration: 30,
		},
		{
			ID: "dependency-audit", Label: "Audit Deps", Icon: "🔍", Category: CategoryAIAnalysis,
			Rules:    []rules.Rule{hasDependencies()},
			Priority: 21, Handler: HandlerPlaceholder,
			Tooltip: "Audit dependency versions and vulnerabilities", EstimatedDuration: 20,
		},
		{
			ID: "ask-ai", Label: "Ask AI", Icon: "🤖", Category: CategoryAIGenerative,
			Rules:    []rules.Rule{rules.Always()},
			Priority: 30, Handler: HandlerPlaceholder,
			Tooltip: "Ask AI about this node", EstimatedDuration: 10,
		},
		{
			ID: "view-logs", Label: "Logs", Icon: "📋", Category: CategoryView,
			Rules:    []rules.Rule{isType(model.NodeTypeService)},
			Priority: 12, Handler: HandlerPlaceholder,
			Tooltip: "View service logs",
		},
		{
			ID: "restart-service", Label: "Restart", Icon: "🔄", Category: CategoryStateChange,
			Rules:    []rules.Rule{isType(model.NodeTypeService)},
			Priority: 10, Handler: HandlerPlaceholder,
			RequiresConfirmation: true,
			ConfirmationMessage:  "Are you sure you want to restart this service?",
			Tooltip:              "Restart the service",
		},
		{
			ID: "view-code", Label: "View Code", Icon: "💻", Category: CategoryView,
			Rules:    []rules.Rule{isType(model.NodeTypeFile)},
			Priority: 5, Handler: HandlerPlaceholder,
			Tooltip: "View file contents",
		},
		{
			ID: "run-tests", Label: "Run Tests", Icon: "🧪", Category: CategoryIntegration,
			Rules: []rules.Rule{
				isType(model.NodeTypeFile),
				{Field: rules.FieldLabel, Operator: rules.OpMatches, Value: rules.MustCompile(`\.(test|spec)\.(ts|tsx|js|jsx)$`)},
			},
			Priority: 15, Handler: HandlerPlaceholder,
			Tooltip: "Run test file", EstimatedDuration: 15,
		},

		// Grouped actions
		{
			ID: "create-group", Label: "Create", Icon: "➕", Category: CategoryCreate,
			Group: "create", IsGroupParent: true,
			Rules:    []rules.Rule{rules.Always()},
			Priority: 1, Handler: HandlerNoop,
			Tooltip: "Create new items",
		},
		{
			ID: "scans-group", Label: "Scans", Icon: "🔍", Category: CategoryAIAnalysis,
			Group: "scans", IsGroupParent: true,
			Rules:    []rules.Rule{isType(model.NodeTypeService)},
			Priority: 20, Handler: HandlerNoop,
			Tooltip: "Run analysis scans",
		},
		{
			ID: "compliance-scan", Label: "Compliance", Icon: "📋", Category: CategoryAIAnalysis,
			Group:    "scans",
			Rules:    []rules.Rule{isType(model.NodeTypeService)},
			Priority: 21, Handler: HandlerPlaceholder,
			Tooltip: "Check regulatory compliance", EstimatedDuration: 25,
		},
		{
			ID: "optimization-scan", Label: "Optimization", Icon: "⚡", Category: CategoryAIAnalysis,
			Group:    "scans",
			Rules:    []rules.Rule{isType(model.NodeTypeService)},
			Priority: 22, Handler: HandlerPlaceholder,
			Tooltip: "Find performance improvements", EstimatedDuration: 30,
		},
	}
}

// NewDefaultRegistry builds a registry holding the stock catalog and handlers
func NewDefaultRegistry(opts ...Option) (*Registry, error) {
	r := NewRegistry(BuiltinHandlers(), opts...)
	if err := r.RegisterAll(DefaultDescriptors()); err != nil {
		return nil, err
	}
	return r, nil
}
