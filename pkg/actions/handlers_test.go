package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMutator records calls and optionally fails them
type fakeMutator struct {
	nodes   []*model.Node
	edges   []*model.Edge
	patches map[string]*model.NodePatch
	err     error
}

func (m *fakeMutator) AddNode(_ context.Context, n *model.Node) (*model.Node, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.nodes = append(m.nodes, n)
	return n, nil
}

func (m *fakeMutator) PatchNode(_ context.Context, id string, p *model.NodePatch) (*model.Node, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.patches == nil {
		m.patches = make(map[string]*model.NodePatch)
	}
	m.patches[id] = p
	return &model.Node{ID: id}, nil
}

func (m *fakeMutator) DeleteNode(context.Context, string) error { return m.err }

func (m *fakeMutator) AddEdge(_ context.Context, e *model.Edge) (*model.Edge, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.edges = append(m.edges, e)
	return e, nil
}

func (m *fakeMutator) DeleteEdge(context.Context, string) error { return m.err }

func run(t *testing.T, action string, node *model.Node, gctx GraphContext) Result {
	t.Helper()
	r, err := NewDefaultRegistry()
	require.NoError(t, err)
	return r.Execute(context.Background(), action, node, gctx)
}

func TestAddTask_CreatesChildAndEdge(t *testing.T) {
	mut := &fakeMutator{}
	parent := &model.Node{ID: "p", Label: "Parent"}

	result := run(t, "add-task", parent, GraphContext{Mutator: mut, Params: map[string]any{"label": "  Write docs "}})

	require.True(t, result.Success, result.Message)
	assert.Equal(t, `Task "Write docs" created`, result.Message)
	require.Len(t, mut.nodes, 1)
	require.Len(t, mut.edges, 1)

	child := mut.nodes[0]
	assert.Equal(t, "Write docs", child.Label)
	assert.Equal(t, model.NodeTypeTask, child.Type)
	assert.Equal(t, model.StatusIdle, child.Status)
	assert.Equal(t, "p", child.ParentID)
	assert.Equal(t, []string{"task"}, child.Tags)

	edge := mut.edges[0]
	assert.Equal(t, "p", edge.Source)
	assert.Equal(t, child.ID, edge.Target)
	assert.Equal(t, model.EdgeParent, edge.Type)
	assert.Equal(t, model.EdgeActive, edge.Status)

	require.NotNil(t, result.GraphUpdate)
	assert.Equal(t, child, result.GraphUpdate.AddedNodes[0])
}

func TestAddTask_NoLabelCancels(t *testing.T) {
	mut := &fakeMutator{}
	result := run(t, "add-task", &model.Node{ID: "p"}, GraphContext{Mutator: mut})
	assert.False(t, result.Success)
	assert.Equal(t, "Task creation cancelled", result.Message)
	assert.Empty(t, mut.nodes)
}

func TestAddNote_TruncatesLabel(t *testing.T) {
	mut := &fakeMutator{}
	text := "This note is deliberately longer than fifty characters in total"
	result := run(t, "add-note", &model.Node{ID: "p"}, GraphContext{Mutator: mut, Params: map[string]any{"text": text}})

	require.True(t, result.Success)
	note := mut.nodes[0]
	assert.Equal(t, model.NodeTypeNote, note.Type)
	assert.Equal(t, text[:50]+"...", note.Label)
	assert.Equal(t, text, note.Metadata["fullText"])
	assert.Equal(t, 100.0, note.Progress)
}

func TestAddChild_MutatorFailure(t *testing.T) {
	mut := &fakeMutator{err: errors.New("store offline")}
	result := run(t, "add-child", &model.Node{ID: "p"}, GraphContext{Mutator: mut, Params: map[string]any{"label": "Sub"}})
	assert.False(t, result.Success)
	assert.Equal(t, "Failed to execute Add Child: adding node: store offline", result.Message)
}

func TestAddChild_WithoutMutatorReportsPatch(t *testing.T) {
	result := run(t, "add-child", &model.Node{ID: "p"}, GraphContext{Params: map[string]any{"label": "Sub", "type": "component"}})
	require.True(t, result.Success)
	require.NotNil(t, result.GraphUpdate)
	assert.Equal(t, model.NodeTypeComponent, result.GraphUpdate.AddedNodes[0].Type)
}

func TestMarkComplete(t *testing.T) {
	mut := &fakeMutator{}
	node := &model.Node{ID: "t", Label: "Ship it", Type: model.NodeTypeTask, Status: model.StatusInProgress}

	result := run(t, "mark-complete", node, GraphContext{Mutator: mut})

	require.True(t, result.Success)
	assert.Equal(t, "Ship it marked as complete", result.Message)
	patch := mut.patches["t"]
	require.NotNil(t, patch)
	assert.Equal(t, model.StatusCompleted, *patch.Status)
	assert.Equal(t, 100.0, *patch.Progress)
	assert.Contains(t, patch.Metadata, "completed_at")
	assert.Same(t, patch, result.NodeUpdate)
}

func TestStartTask(t *testing.T) {
	mut := &fakeMutator{}
	node := &model.Node{ID: "t", Label: "Build", Type: model.NodeTypeTask, Status: model.StatusIdle}

	result := run(t, "start-task", node, GraphContext{Mutator: mut})

	require.True(t, result.Success)
	assert.Equal(t, model.StatusInProgress, *mut.patches["t"].Status)
	assert.Contains(t, mut.patches["t"].Metadata, "started_at")
}

func TestUpdateProgress(t *testing.T) {
	tests := []struct {
		name          string
		params        map[string]any
		wantSuccess   bool
		wantMessage   string
		wantCompleted bool
	}{
		{"json number", map[string]any{"progress": 40.0}, true, "Progress updated to 40%", false},
		{"string", map[string]any{"progress": "75"}, true, "Progress updated to 75%", false},
		{"auto complete", map[string]any{"progress": 100}, true, "Progress updated to 100%", true},
		{"too large", map[string]any{"progress": 120}, false, "Invalid progress value (must be 0-100)", false},
		{"negative", map[string]any{"progress": -1}, false, "Invalid progress value (must be 0-100)", false},
		{"garbage", map[string]any{"progress": "lots"}, false, "Invalid progress value (must be 0-100)", false},
		{"missing", nil, false, "Progress update cancelled", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mut := &fakeMutator{}
			node := &model.Node{ID: "t", Type: model.NodeTypeTask, Status: model.StatusInProgress}

			result := run(t, "update-progress", node, GraphContext{Mutator: mut, Params: tt.params})

			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantMessage, result.Message)
			if tt.wantCompleted {
				require.NotNil(t, result.NodeUpdate.Status)
				assert.Equal(t, model.StatusCompleted, *result.NodeUpdate.Status)
			} else if result.NodeUpdate != nil {
				assert.Nil(t, result.NodeUpdate.Status)
			}
		})
	}
}

func TestViewDependencies(t *testing.T) {
	g := model.NewGraph()
	g.AddNode(&model.Node{ID: "a"})
	g.AddNode(&model.Node{ID: "b"})
	g.AddNode(&model.Node{ID: "c"})
	g.AddEdge(&model.Edge{ID: "1", Source: "a", Target: "b", Type: model.EdgeDependency})
	g.AddEdge(&model.Edge{ID: "2", Source: "b", Target: "c", Type: model.EdgeDependency})
	g.AddEdge(&model.Edge{ID: "3", Source: "b", Target: "c", Type: model.EdgeReference})

	result := run(t, "view-dependencies", g.Node("b"), GraphContext{Graph: g})

	require.True(t, result.Success)
	assert.Equal(t, "Found 2 dependencies", result.Message)
	assert.Equal(t, []string{"a"}, result.Data["upstream"])
	assert.Equal(t, []string{"c"}, result.Data["downstream"])
}

func TestPauseResume(t *testing.T) {
	h := BuiltinHandlers()[HandlerPauseResume]

	result, err := h.Handle(context.Background(), &model.Node{ID: "t", Status: model.StatusIdle}, GraphContext{})
	require.NoError(t, err)
	assert.Equal(t, "Node resumed", result.Message)

	_, err = h.Handle(context.Background(), &model.Node{ID: "t", Status: model.StatusCompleted}, GraphContext{})
	assert.Error(t, err)
}

func TestHandlers_NilNode(t *testing.T) {
	for id, h := range BuiltinHandlers() {
		if id == HandlerNoop || id == HandlerAddTask || id == HandlerAddNote || id == HandlerAddChild {
			continue
		}
		_, err := h.Handle(context.Background(), nil, GraphContext{Params: map[string]any{"progress": 10}})
		assert.ErrorIs(t, err, errNoNode, "handler %s", id)
	}
}
