package actions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/PROACTIVA-US/VISLZR/pkg/nodectx"
	"github.com/google/uuid"
)

// Built-in handler ids
const (
	HandlerViewDetails      HandlerID = "view-details"
	HandlerViewDependencies HandlerID = "view-dependencies"
	HandlerAddTask          HandlerID = "add-task"
	HandlerAddNote          HandlerID = "add-note"
	HandlerAddChild         HandlerID = "add-child"
	HandlerMarkComplete     HandlerID = "mark-complete"
	HandlerStartTask        HandlerID = "start-task"
	HandlerUpdateProgress   HandlerID = "update-progress"
	HandlerPauseResume      HandlerID = "pause-resume"
	HandlerPlaceholder      HandlerID = "placeholder"
	HandlerNoop             HandlerID = "noop"
)

var errNoNode = errors.New("no node given")

// BuiltinHandlers returns the stock handler table
func BuiltinHandlers() HandlerTable {
	return HandlerTable{
		HandlerViewDetails:      HandlerFunc(viewDetails),
		HandlerViewDependencies: HandlerFunc(viewDependencies),
		HandlerAddTask:          HandlerFunc(addTask),
		HandlerAddNote:          HandlerFunc(addNote),
		HandlerAddChild:         HandlerFunc(addChild),
		HandlerMarkComplete:     HandlerFunc(markComplete),
		HandlerStartTask:        HandlerFunc(startTask),
		HandlerUpdateProgress:   HandlerFunc(updateProgress),
		HandlerPauseResume:      HandlerFunc(pauseResume),
		HandlerPlaceholder:      HandlerFunc(placeholder),
		HandlerNoop:             HandlerFunc(noop),
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func viewDetails(_ context.Context, node *model.Node, _ GraphContext) (Result, error) {
	if node == nil {
		return Result{}, errNoNode
	}
	return Result{
		Success: true,
		Message: "Viewing details",
		Data:    map[string]any{"node": node},
	}, nil
}

func viewDependencies(_ context.Context, node *model.Node, gctx GraphContext) (Result, error) {
	if node == nil {
		return Result{}, errNoNode
	}
	edges := make([]*model.Edge, 0)
	if gctx.Graph != nil {
		for _, e := range gctx.Graph.Edges {
			if e.Type == model.EdgeDependency && (e.Source == node.ID || e.Target == node.ID) {
				edges = append(edges, e)
			}
		}
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Found %d dependencies", len(edges)),
		Data: map[string]any{
			"dependencies": edges,
			"upstream":     ids(nodectx.Dependencies(node, gctx.Graph)),
			"downstream":   ids(nodectx.Dependents(node, gctx.Graph)),
		},
	}, nil
}

func ids(nodes []*model.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func addTask(ctx context.Context, node *model.Node, gctx GraphContext) (Result, error) {
	label := stringParam(gctx.Params, "label")
	if label == "" {
		return Result{Message: "Task creation cancelled"}, nil
	}
	child := newChild(node, "task", label, model.NodeTypeTask)
	child.Priority = 2
	child.Tags = []string{"task"}
	return createChild(ctx, node, gctx, child, fmt.Sprintf("Task %q created", label))
}

func addNote(ctx context.Context, node *model.Node, gctx GraphContext) (Result, error) {
	text := stringParam(gctx.Params, "text")
	if text == "" {
		text = stringParam(gctx.Params, "label")
	}
	if text == "" {
		return Result{Message: "Note creation cancelled"}, nil
	}
	label := text
	if len([]rune(label)) > 50 {
		label = string([]rune(label)[:50]) + "..."
	}
	child := newChild(node, "note", label, model.NodeTypeNote)
	child.Priority = 1
	child.Progress = 100
	child.Tags = []string{"note"}
	child.Metadata["fullText"] = text
	return createChild(ctx, node, gctx, child, "Note added")
}

func addChild(ctx context.Context, node *model.Node, gctx GraphContext) (Result, error) {
	label := stringParam(gctx.Params, "label")
	if label == "" {
		return Result{Message: "Child creation cancelled"}, nil
	}
	nodeType := model.NodeTypeFolder
	if t := stringParam(gctx.Params, "type"); t != "" {
		nodeType = model.NodeType(strings.ToUpper(t))
	}
	child := newChild(node, "node", label, nodeType)
	child.Priority = 2
	return createChild(ctx, node, gctx, child, fmt.Sprintf("Child node %q created", label))
}

func newChild(parent *model.Node, prefix, label string, nodeType model.NodeType) *model.Node {
	now := timestamp()
	child := &model.Node{
		ID:           prefix + "-" + uuid.NewString(),
		Label:        label,
		Type:         nodeType,
		Status:       model.StatusIdle,
		Dependencies: []string{},
		Metadata: map[string]any{
			"created_at": now,
			"updated_at": now,
		},
	}
	if parent != nil {
		child.ParentID = parent.ID
	}
	return child
}

// createChild adds child under parent through the mutator, if any, and
// reports the structural change either way
func createChild(ctx context.Context, parent *model.Node, gctx GraphContext, child *model.Node, message string) (Result, error) {
	if parent == nil {
		return Result{}, errNoNode
	}
	edge := &model.Edge{
		ID:     "edge-" + uuid.NewString(),
		Source: parent.ID,
		Target: child.ID,
		Type:   model.EdgeParent,
		Status: model.EdgeActive,
	}
	if gctx.Mutator != nil {
		if _, err := gctx.Mutator.AddNode(ctx, child); err != nil {
			return Result{}, fmt.Errorf("adding node: %w", err)
		}
		if _, err := gctx.Mutator.AddEdge(ctx, edge); err != nil {
			return Result{}, fmt.Errorf("adding edge: %w", err)
		}
	}
	return Result{
		Success: true,
		Message: message,
		Data:    map[string]any{"newNode": child},
		GraphUpdate: &model.GraphPatch{
			AddedNodes: []*model.Node{child},
			AddedEdges: []*model.Edge{edge},
		},
	}, nil
}

func markComplete(ctx context.Context, node *model.Node, gctx GraphContext) (Result, error) {
	if node == nil {
		return Result{}, errNoNode
	}
	now := timestamp()
	status := model.StatusCompleted
	progress := 100.0
	patch := &model.NodePatch{
		Status:   &status,
		Progress: &progress,
		Metadata: map[string]any{"updated_at": now, "completed_at": now},
	}
	if err := patchNode(ctx, node, gctx, patch); err != nil {
		return Result{}, err
	}
	return Result{Success: true, Message: fmt.Sprintf("%s marked as complete", node.Label), NodeUpdate: patch}, nil
}

func startTask(ctx context.Context, node *model.Node, gctx GraphContext) (Result, error) {
	if node == nil {
		return Result{}, errNoNode
	}
	now := timestamp()
	status := model.StatusInProgress
	patch := &model.NodePatch{
		Status:   &status,
		Metadata: map[string]any{"updated_at": now, "started_at": now},
	}
	if err := patchNode(ctx, node, gctx, patch); err != nil {
		return Result{}, err
	}
	return Result{Success: true, Message: fmt.Sprintf("Started %s", node.Label), NodeUpdate: patch}, nil
}

func updateProgress(ctx context.Context, node *model.Node, gctx GraphContext) (Result, error) {
	if node == nil {
		return Result{}, errNoNode
	}
	raw, ok := gctx.Params["progress"]
	if !ok || raw == nil || raw == "" {
		return Result{Message: "Progress update cancelled"}, nil
	}
	progress, ok := intParam(raw)
	if !ok || progress < 0 || progress > 100 {
		return Result{Message: "Invalid progress value (must be 0-100)"}, nil
	}

	now := timestamp()
	value := float64(progress)
	patch := &model.NodePatch{
		Progress: &value,
		Metadata: map[string]any{"updated_at": now},
	}
	if progress == 100 && node.Status != model.StatusCompleted {
		status := model.StatusCompleted
		patch.Status = &status
		patch.Metadata["completed_at"] = now
	}
	if err := patchNode(ctx, node, gctx, patch); err != nil {
		return Result{}, err
	}
	return Result{Success: true, Message: fmt.Sprintf("Progress updated to %d%%", progress), NodeUpdate: patch}, nil
}

func pauseResume(ctx context.Context, node *model.Node, gctx GraphContext) (Result, error) {
	if node == nil {
		return Result{}, errNoNode
	}
	var status model.NodeStatus
	var taken string
	switch node.Status {
	case model.StatusInProgress:
		status, taken = model.StatusIdle, "paused"
	case model.StatusIdle:
		status, taken = model.StatusInProgress, "resumed"
	default:
		return Result{}, fmt.Errorf("cannot pause/resume from status: %s", node.Status)
	}
	patch := &model.NodePatch{
		Status:   &status,
		Metadata: map[string]any{"updated_at": timestamp()},
	}
	if err := patchNode(ctx, node, gctx, patch); err != nil {
		return Result{}, err
	}
	return Result{
		Success:    true,
		Message:    fmt.Sprintf("Node %s", taken),
		NodeUpdate: patch,
		Data:       map[string]any{"old_status": node.Status, "new_status": status},
	}, nil
}

// placeholder acknowledges actions whose integrations are not wired yet
func placeholder(_ context.Context, node *model.Node, gctx GraphContext) (Result, error) {
	if node == nil {
		return Result{}, errNoNode
	}
	return Result{
		Success: true,
		Message: "Request queued (integration pending)",
		Data:    map[string]any{"node_id": node.ID, "status": "pending", "params": gctx.Params},
	}, nil
}

// noop backs group parents, which expand rather than execute
func noop(context.Context, *model.Node, GraphContext) (Result, error) {
	return Result{Success: true}, nil
}

func patchNode(ctx context.Context, node *model.Node, gctx GraphContext, patch *model.NodePatch) error {
	if gctx.Mutator == nil {
		return nil
	}
	if _, err := gctx.Mutator.PatchNode(ctx, node.ID, patch); err != nil {
		return fmt.Errorf("updating node: %w", err)
	}
	return nil
}

func stringParam(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return strings.TrimSpace(s)
}

func intParam(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	default:
		return 0, false
	}
}
