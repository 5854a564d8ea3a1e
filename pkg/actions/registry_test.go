package actions

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/PROACTIVA-US/VISLZR/pkg/nodectx"
	"github.com/PROACTIVA-US/VISLZR/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorderFunc func(ctx context.Context, exec Execution)

func (f recorderFunc) Record(ctx context.Context, exec Execution) { f(ctx, exec) }

func descriptorIDs(ds []*Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.ID)
	}
	return out
}

func okHandler() Handler {
	return HandlerFunc(func(context.Context, *model.Node, GraphContext) (Result, error) {
		return Result{Success: true, Message: "ok"}, nil
	})
}

func TestRegister_DuplicateID(t *testing.T) {
	r := NewRegistry(HandlerTable{"ok": okHandler()})
	require.NoError(t, r.Register(&Descriptor{ID: "a", Handler: "ok"}))

	err := r.Register(&Descriptor{ID: "a", Handler: "ok"})
	assert.ErrorIs(t, err, ErrDuplicateAction)
	assert.Equal(t, 1, r.Count())
}

func TestRegister_RejectsInvalid(t *testing.T) {
	r := NewRegistry(nil)
	assert.ErrorIs(t, r.Register(&Descriptor{}), ErrInvalidAction)
	assert.ErrorIs(t, r.Register(&Descriptor{
		ID:    "bad",
		Rules: []rules.Rule{{Field: "colour", Operator: rules.OpEquals, Value: "red"}},
	}), ErrInvalidAction)
}

func TestUnregister_Idempotent(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(&Descriptor{ID: "a"}))

	assert.True(t, r.Unregister("a"))
	assert.False(t, r.Unregister("a"))
	_, ok := r.Get("a")
	assert.False(t, ok)

	// the id is free again
	require.NoError(t, r.Register(&Descriptor{ID: "a"}))
}

func TestActionsForContext_OrderingAndFiltering(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.RegisterAll([]*Descriptor{
		{ID: "late", Priority: 5},
		{ID: "first-tie", Priority: 1},
		{ID: "hidden", Priority: 0, Rules: []rules.Rule{{Field: rules.FieldNever}}},
		{ID: "second-tie", Priority: 1},
		{ID: "tasks-only", Priority: 2, Rules: []rules.Rule{{Field: rules.FieldNodeType, Operator: rules.OpEquals, Value: "TASK"}}},
	}))

	task := &model.Node{ID: "t", Type: model.NodeTypeTask}
	got := r.ActionsForContext(task, nodectx.Build(task, model.NewGraph()))
	assert.Equal(t, []string{"first-tie", "second-tie", "tasks-only", "late"}, descriptorIDs(got))

	file := &model.Node{ID: "f", Type: model.NodeTypeFile}
	got = r.ActionsForContext(file, nodectx.Build(file, model.NewGraph()))
	assert.Equal(t, []string{"first-tie", "second-tie", "late"}, descriptorIDs(got))
}

func TestActionsForContext_Empty(t *testing.T) {
	r := NewRegistry(nil)
	assert.Empty(t, r.ActionsForContext(&model.Node{ID: "x"}, nodectx.NodeContext{}))
}

func TestDefaultCatalog_ForTask(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)

	g := model.NewGraph()
	task := &model.Node{ID: "t1", Type: model.NodeTypeTask, Status: model.StatusIdle}
	g.AddNode(task)

	got := descriptorIDs(r.ActionsForContext(task, nodectx.Build(task, g)))
	assert.Equal(t, []string{
		"add-task", "mark-complete", "start-task", "create-group",
		"add-child", "update-progress", "add-note", "view-details", "ask-ai",
	}, got)
}

func TestDefaultCatalog_ForService(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)

	g := model.NewGraph()
	svc := &model.Node{ID: "svc", Type: model.NodeTypeService, Status: model.StatusRunning}
	g.AddNode(svc)

	got := descriptorIDs(r.ActionsForContext(svc, nodectx.Build(svc, g)))
	assert.Contains(t, got, "restart-service")
	assert.Contains(t, got, "security-scan")
	assert.Contains(t, got, "scans-group")
	assert.NotContains(t, got, "mark-complete")
	assert.NotContains(t, got, "view-dependencies")
}

func TestDefaultCatalog_RunTestsMatchesLabel(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)
	g := model.NewGraph()

	specFile := &model.Node{ID: "f1", Label: "parser.spec.tsx", Type: model.NodeTypeFile}
	plain := &model.Node{ID: "f2", Label: "parser.ts", Type: model.NodeTypeFile}

	assert.Contains(t, descriptorIDs(r.ActionsForContext(specFile, nodectx.Build(specFile, g))), "run-tests")
	assert.NotContains(t, descriptorIDs(r.ActionsForContext(plain, nodectx.Build(plain, g))), "run-tests")
}

func TestGroupChildren(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)

	assert.Equal(t, []string{"compliance-scan", "optimization-scan"}, descriptorIDs(r.GroupChildren("scans")))
	assert.Empty(t, r.GroupChildren("create"))
	assert.Empty(t, r.GroupChildren("missing"))
}

func TestExpandGroup_FiltersByContext(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)

	task := &model.Node{ID: "t", Type: model.NodeTypeTask}
	assert.Empty(t, r.ExpandGroup("scans", task, nodectx.Build(task, nil)))

	svc := &model.Node{ID: "s", Type: model.NodeTypeService}
	assert.Len(t, r.ExpandGroup("scans", svc, nodectx.Build(svc, nil)), 2)
}

func TestExecute_NotFound(t *testing.T) {
	r := NewRegistry(nil)
	result := r.Execute(context.Background(), "ghost", &model.Node{ID: "n"}, GraphContext{})
	assert.False(t, result.Success)
	assert.Equal(t, "Action 'ghost' not found", result.Message)
}

func TestExecute_MissingHandler(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(&Descriptor{ID: "a", Handler: "nope"}))
	result := r.Execute(context.Background(), "a", &model.Node{ID: "n"}, GraphContext{})
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "nope")
}

func TestExecute_HandlerErrorAndPanic(t *testing.T) {
	r := NewRegistry(HandlerTable{
		"boom": HandlerFunc(func(context.Context, *model.Node, GraphContext) (Result, error) {
			return Result{}, errors.New("disk full")
		}),
		"panic": HandlerFunc(func(context.Context, *model.Node, GraphContext) (Result, error) {
			panic("nil map")
		}),
		"ok": okHandler(),
	})
	require.NoError(t, r.RegisterAll([]*Descriptor{
		{ID: "save", Label: "Save", Handler: "boom"},
		{ID: "crash", Label: "Crash", Handler: "panic"},
		{ID: "fine", Label: "Fine", Handler: "ok"},
	}))
	node := &model.Node{ID: "n"}

	result := r.Execute(context.Background(), "save", node, GraphContext{})
	assert.False(t, result.Success)
	assert.Equal(t, "Failed to execute Save: disk full", result.Message)

	result = r.Execute(context.Background(), "crash", node, GraphContext{})
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Failed to execute Crash")

	// registry remains usable
	result = r.Execute(context.Background(), "fine", node, GraphContext{})
	assert.True(t, result.Success)
	assert.Equal(t, 3, r.Count())
}

func TestExecute_Confirmation(t *testing.T) {
	var calls int
	handlers := HandlerTable{"ok": HandlerFunc(func(context.Context, *model.Node, GraphContext) (Result, error) {
		calls++
		return Result{Success: true}, nil
	})}
	descriptor := func() *Descriptor {
		return &Descriptor{ID: "wipe", Label: "wipe everything", Handler: "ok", RequiresConfirmation: true}
	}

	var prompted string
	deny := ConfirmerFunc(func(_ context.Context, msg string) (bool, error) {
		prompted = msg
		return false, nil
	})
	r := NewRegistry(handlers, WithConfirmer(deny))
	require.NoError(t, r.Register(descriptor()))

	result := r.Execute(context.Background(), "wipe", &model.Node{ID: "n"}, GraphContext{})
	assert.False(t, result.Success)
	assert.Equal(t, "Action cancelled by user", result.Message)
	assert.Equal(t, "Are you sure you want to wipe everything?", prompted)
	assert.Zero(t, calls)

	r = NewRegistry(handlers)
	require.NoError(t, r.Register(descriptor()))
	result = r.Execute(context.Background(), "wipe", &model.Node{ID: "n"}, GraphContext{})
	assert.Equal(t, "Action cancelled by user", result.Message)
	assert.Zero(t, calls)

	r = NewRegistry(handlers, WithConfirmer(AutoConfirm))
	require.NoError(t, r.Register(descriptor()))
	result = r.Execute(context.Background(), "wipe", &model.Node{ID: "n"}, GraphContext{})
	assert.True(t, result.Success)
	assert.Equal(t, 1, calls)
}

func TestExecute_RecordsExecutions(t *testing.T) {
	var mu sync.Mutex
	var seen []Execution
	rec := recorderFunc(func(_ context.Context, exec Execution) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, exec)
	})

	r := NewRegistry(HandlerTable{"ok": okHandler()}, WithRecorder(rec))
	require.NoError(t, r.Register(&Descriptor{ID: "a", Handler: "ok"}))

	r.Execute(context.Background(), "a", &model.Node{ID: "n1"}, GraphContext{ProjectID: "p"})
	r.Execute(context.Background(), "missing", &model.Node{ID: "n1"}, GraphContext{ProjectID: "p"})

	require.Len(t, seen, 2)
	assert.Equal(t, Execution{ProjectID: "p", NodeID: "n1", ActionID: "a", Success: true, Message: "ok",
		ExecutedAt: seen[0].ExecutedAt, Duration: seen[0].Duration}, seen[0])
	assert.False(t, seen[1].Success)
}

func TestClearAndClose(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)
	require.NotZero(t, r.Count())

	r.Clear()
	assert.Zero(t, r.Count())
	require.NoError(t, r.Register(&Descriptor{ID: "again", Handler: HandlerNoop}))

	require.NoError(t, r.Close())
	assert.Zero(t, r.Count())
	assert.ErrorIs(t, r.Register(&Descriptor{ID: "late"}), ErrRegistryClosed)
	assert.False(t, r.Execute(context.Background(), "again", &model.Node{ID: "n"}, GraphContext{}).Success)
}
