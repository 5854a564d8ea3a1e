package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PROACTIVA-US/VISLZR/pkg/actions"
	"github.com/PROACTIVA-US/VISLZR/pkg/layout"
	"github.com/PROACTIVA-US/VISLZR/pkg/lens"
	"github.com/PROACTIVA-US/VISLZR/pkg/metrics"
	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/PROACTIVA-US/VISLZR/pkg/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphYAML = `
project:
  id: demo
  name: Demo
nodes:
  - {id: root, label: Root, type: ROOT, status: IN_PROGRESS}
  - {id: api, label: api-gateway, type: SERVICE, status: IN_PROGRESS, parent_id: root}
  - {id: db, label: Database, type: DATABASE, status: COMPLETED, parent_id: root}
  - {id: t1, label: Write docs, type: TASK, status: IDLE, parent_id: api}
  - {id: t2, label: Ship, type: TASK, status: PLANNED, parent_id: api, dependencies: [t1]}
edges:
  - {id: e1, source: db, target: api, type: dependency}
  - {id: e2, source: t2, target: t1, type: dependency}
  - {id: e3, source: t1, target: t2, type: dependency}
`

func writeGraph(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func openEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	if opts.GraphPath == "" {
		opts.GraphPath = writeGraph(t, graphYAML)
	}
	e, err := Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func actionIDs(t *testing.T, e *Engine, node string) []string {
	t.Helper()
	ds, err := e.Actions(node)
	require.NoError(t, err)
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func TestOpen_RequiresGraph(t *testing.T) {
	_, err := Open(Options{})
	assert.Error(t, err)
}

func TestContextAndActions(t *testing.T) {
	e := openEngine(t, Options{})

	nc, err := e.Context("api")
	require.NoError(t, err)
	assert.True(t, nc.HasChildren)
	assert.True(t, nc.HasParent)

	ids := actionIDs(t, e, "api")
	assert.Contains(t, ids, "restart-service")
	assert.Contains(t, ids, "security-scan")
	assert.NotContains(t, ids, "mark-complete")

	_, err = e.Actions("nope")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestGroupActions(t *testing.T) {
	e := openEngine(t, Options{})
	ds, err := e.GroupActions("api", "scans")
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, "compliance-scan", ds[0].ID)

	ds, err = e.GroupActions("t1", "scans")
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestExecute_MutatesStore(t *testing.T) {
	e := openEngine(t, Options{})

	res, err := e.Execute(context.Background(), "t1", "mark-complete", ExecuteRequest{})
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)

	nc, err := e.Context("t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, nc.Status)
	assert.NotContains(t, actionIDs(t, e, "t1"), "mark-complete")

	hist := e.History("t1", 0)
	require.Len(t, hist, 1)
	assert.Equal(t, "mark-complete", hist[0].ActionID)
	assert.Equal(t, "demo", hist[0].ProjectID)
}

func TestExecute_Confirmation(t *testing.T) {
	e := openEngine(t, Options{})
	ctx := context.Background()

	res, err := e.Execute(ctx, "api", "restart-service", ExecuteRequest{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Action cancelled by user", res.Message)

	res, err = e.Execute(ctx, "api", "restart-service", ExecuteRequest{Confirmed: true})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestExecute_UnknownActionAndNode(t *testing.T) {
	e := openEngine(t, Options{})

	res, err := e.Execute(context.Background(), "t1", "teleport", ExecuteRequest{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Action 'teleport' not found", res.Message)

	_, err = e.Execute(context.Background(), "ghost", "ask-ai", ExecuteRequest{})
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestExecute_Params(t *testing.T) {
	e := openEngine(t, Options{})

	res, err := e.Execute(context.Background(), "api", "add-task", ExecuteRequest{
		Params: map[string]any{"label": "Add rate limiting"},
	})
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)

	g := e.Graph()
	assert.Len(t, g.Nodes, 6)
}

func TestLayout(t *testing.T) {
	m := metrics.New()
	e := openEngine(t, Options{Metrics: m})

	offered, err := e.Actions("api")
	require.NoError(t, err)

	placed, err := e.Layout("api", LayoutRequest{Focal: layout.Focal{X: 200, Y: 200, Radius: 30}})
	require.NoError(t, err)
	require.Len(t, placed, len(offered))
	for i, p := range placed {
		assert.Equal(t, layout.InstanceID(offered[i].ID, i), p.ID)
		assert.Equal(t, layout.Select(len(offered), e.LayoutConfig()), p.Layout)
	}
}

func TestFocus(t *testing.T) {
	e := openEngine(t, Options{})
	g, err := e.Focus("t1", 1)
	require.NoError(t, err)
	assert.NotNil(t, g.Node("t1"))
	assert.NotNil(t, g.Node("api"))
	assert.Nil(t, g.Node("db"))
}

func TestDependenciesAndCycles(t *testing.T) {
	e := openEngine(t, Options{})

	deps, err := e.Dependencies("api")
	require.NoError(t, err)
	assert.Equal(t, []string{"db"}, deps.Upstream)
	assert.Empty(t, deps.Blocking)
	assert.False(t, deps.OnCycle)

	found := e.Cycles()
	require.Len(t, found, 1)
	assert.Equal(t, []string{"t1", "t2"}, found[0].Nodes)

	deps, err = e.Dependencies("t1")
	require.NoError(t, err)
	assert.True(t, deps.OnCycle)
	assert.Equal(t, []string{"t2"}, deps.Blocking)
}

func TestReloadGraph(t *testing.T) {
	path := writeGraph(t, graphYAML)
	m := metrics.New()
	e := openEngine(t, Options{GraphPath: path, Metrics: m})

	require.NoError(t, os.WriteFile(path, []byte("nodes:\n  - {id: solo, label: Solo, type: TASK, status: IDLE}\n"), 0o644))
	e.Apply(context.Background(), &watcher.ChangeAnalysis{ReloadGraph: true})

	g := e.Graph()
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "solo", g.Nodes[0].ID)

	require.NoError(t, os.WriteFile(path, []byte("nodes: [oops"), 0o644))
	assert.Error(t, e.ReloadGraph(context.Background()))
	assert.Len(t, e.Graph().Nodes, 1, "failed reload keeps the previous graph")
}

func TestReloadGraph_EmptyEntryKeepsSnapshot(t *testing.T) {
	path := writeGraph(t, graphYAML)
	e := openEngine(t, Options{GraphPath: path})
	before := e.Graph()

	require.NoError(t, os.WriteFile(path, []byte("nodes:\n  - {id: solo, label: Solo, type: TASK}\nedges:\n  -\n"), 0o644))
	err := e.ReloadGraph(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edge 0 is empty")

	e.Apply(context.Background(), &watcher.ChangeAnalysis{ReloadGraph: true})
	assert.Equal(t, before, e.Graph())
}

func TestReloadCatalog_PreviousRegistryStillExecutes(t *testing.T) {
	e := openEngine(t, Options{})
	old := e.Registry()
	node, ok := e.Store().Node("api")
	require.True(t, ok)

	require.NoError(t, e.ReloadCatalog(context.Background()))
	require.NotSame(t, old, e.Registry())

	res := old.Execute(context.Background(), "ask-ai", node, actions.GraphContext{Graph: e.Graph()})
	assert.True(t, res.Success, res.Message)
}

func TestReloadCatalog(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "actions.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(`
include_defaults: false
actions:
  - id: archive
    label: Archive
    category: destructive
    priority: 50
    handler: placeholder
`), 0o644))

	e := openEngine(t, Options{CatalogPath: catalog})
	assert.Equal(t, []string{"archive"}, actionIDs(t, e, "t1"))
	first := e.Registry()

	require.NoError(t, os.WriteFile(catalog, []byte(`
include_defaults: false
actions:
  - id: archive
    label: Archive
    category: destructive
    priority: 50
    handler: placeholder
  - id: pin
    label: Pin
    category: view
    priority: 1
    handler: noop
`), 0o644))
	require.NoError(t, e.ReloadCatalog(context.Background()))
	assert.Equal(t, []string{"pin", "archive"}, actionIDs(t, e, "t1"))
	assert.NotSame(t, first, e.Registry())

	require.NoError(t, os.WriteFile(catalog, []byte("actions:\n  - id: bad\n    handler: teleport\n"), 0o644))
	assert.Error(t, e.ReloadCatalog(context.Background()))
	assert.Equal(t, []string{"pin", "archive"}, actionIDs(t, e, "t1"))
}

func TestNew_UsesClock(t *testing.T) {
	g := model.NewGraph()
	g.AddNode(&model.Node{
		ID: "late", Label: "Late", Type: model.NodeTypeTask, Status: model.StatusPlanned,
		Metadata: map[string]any{"due_date": "2024-01-01"},
	})
	e, err := New(g, Options{Clock: func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }})
	require.NoError(t, err)
	defer e.Close()

	nc, err := e.Context("late")
	require.NoError(t, err)
	assert.True(t, nc.IsOverdue)
}

func TestView(t *testing.T) {
	e := openEngine(t, Options{})

	view, err := e.View("api", lens.Config{Depth: 1, HideCompleted: true})
	require.NoError(t, err)
	assert.Nil(t, view.Graph.Node("db"))
	assert.NotNil(t, view.Graph.Node("t1"))
	assert.NotNil(t, view.Graph.Node("root"))

	_, err = e.View("ghost", lens.DefaultConfig())
	assert.ErrorIs(t, err, ErrNodeNotFound)
}
