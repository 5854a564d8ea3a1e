// Package engine ties the graph store, action registry, layout and dependency
// analysis together behind the operations the HTTP API and CLI expose.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PROACTIVA-US/VISLZR/pkg/actions"
	"github.com/PROACTIVA-US/VISLZR/pkg/cycles"
	"github.com/PROACTIVA-US/VISLZR/pkg/graph"
	"github.com/PROACTIVA-US/VISLZR/pkg/layout"
	"github.com/PROACTIVA-US/VISLZR/pkg/lens"
	"github.com/PROACTIVA-US/VISLZR/pkg/logging"
	"github.com/PROACTIVA-US/VISLZR/pkg/metrics"
	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/PROACTIVA-US/VISLZR/pkg/nodectx"
	"github.com/PROACTIVA-US/VISLZR/pkg/pubsub"
	"github.com/PROACTIVA-US/VISLZR/pkg/store"
	"github.com/PROACTIVA-US/VISLZR/pkg/watcher"
)

// ErrNodeNotFound is returned for operations on an unknown node
var ErrNodeNotFound = errors.New("node not found")

// Options configures an Engine
type Options struct {
	GraphPath    string // reloaded by ReloadGraph; may be empty for in-memory graphs
	CatalogPath  string // empty means the default catalog
	ProjectID    string // overrides the graph's project id
	Layout       layout.Config
	HistoryLimit int
	Publisher    pubsub.Publisher
	Metrics      *metrics.Metrics
	Handlers     actions.HandlerTable // merged over the builtin handlers
	Clock        func() time.Time
}

// Engine is safe for concurrent use. The registry is swapped wholesale on
// catalog reloads, so callers never see a half-built catalog.
type Engine struct {
	opts     Options
	store    *store.Memory
	history  *store.History
	registry atomic.Pointer[actions.Registry]
	handlers actions.HandlerTable
	builder  nodectx.Builder
	reloadMu sync.Mutex
}

// Open loads opts.GraphPath and builds an engine over it
func Open(opts Options) (*Engine, error) {
	if opts.GraphPath == "" {
		return nil, errors.New("no graph file configured")
	}
	g, err := model.LoadGraph(opts.GraphPath)
	if err != nil {
		return nil, err
	}
	return New(g, opts)
}

// New builds an engine over an already loaded graph
func New(g *model.Graph, opts Options) (*Engine, error) {
	if opts.Layout == (layout.Config{}) {
		opts.Layout = layout.DefaultConfig()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	e := &Engine{
		opts:     opts,
		handlers: actions.BuiltinHandlers().Merge(opts.Handlers),
		builder:  nodectx.Builder{Now: opts.Clock},
		history:  store.NewHistory(opts.HistoryLimit, opts.Publisher),
	}
	var storeOpts []store.Option
	if opts.Publisher != nil {
		storeOpts = append(storeOpts, store.WithPublisher(opts.Publisher))
	}
	e.store = store.NewMemory(g, storeOpts...)

	reg, err := e.buildRegistry()
	if err != nil {
		return nil, err
	}
	e.registry.Store(reg)

	logging.Info("engine ready", "nodes", len(g.Nodes), "edges", len(g.Edges), "actions", reg.Count())
	return e, nil
}

func (e *Engine) buildRegistry() (*actions.Registry, error) {
	regOpts := []actions.Option{
		actions.WithConfirmer(requestConfirmer),
		actions.WithRecorder(e.history),
		actions.WithClock(e.opts.Clock),
	}
	if e.opts.Metrics != nil {
		regOpts = append(regOpts, actions.WithRecorder(e.opts.Metrics))
	}

	if e.opts.CatalogPath == "" {
		reg := actions.NewRegistry(e.handlers, regOpts...)
		if err := reg.RegisterAll(actions.DefaultDescriptors()); err != nil {
			return nil, err
		}
		return reg, nil
	}
	cat, err := actions.LoadCatalog(e.opts.CatalogPath)
	if err != nil {
		return nil, err
	}
	return cat.Build(e.handlers, regOpts...)
}

// Registry returns the current action registry
func (e *Engine) Registry() *actions.Registry {
	return e.registry.Load()
}

// Store returns the graph store
func (e *Engine) Store() *store.Memory {
	return e.store
}

// LayoutConfig returns the geometry in use
func (e *Engine) LayoutConfig() layout.Config {
	return e.opts.Layout
}

// Graph returns a snapshot of the project graph
func (e *Engine) Graph() *model.Graph {
	return e.store.Snapshot()
}

func (e *Engine) projectID() string {
	if e.opts.ProjectID != "" {
		return e.opts.ProjectID
	}
	return e.store.ProjectID()
}

// lookup returns a consistent snapshot together with the node inside it
func (e *Engine) lookup(id string) (*model.Graph, *model.Node, error) {
	g := e.store.Snapshot()
	n := g.Node(id)
	if n == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return g, n, nil
}

// Context derives the node context for id
func (e *Engine) Context(id string) (nodectx.NodeContext, error) {
	g, n, err := e.lookup(id)
	if err != nil {
		return nodectx.NodeContext{}, err
	}
	return e.builder.Build(n, g), nil
}

// Actions returns the actions offered for id, ordered by priority
func (e *Engine) Actions(id string) ([]*actions.Descriptor, error) {
	g, n, err := e.lookup(id)
	if err != nil {
		return nil, err
	}
	offered := e.Registry().ActionsForContext(n, e.builder.Build(n, g))
	if e.opts.Metrics != nil {
		e.opts.Metrics.ObserveOffered(len(offered))
	}
	return offered, nil
}

// GroupActions returns the applicable children of group for id
func (e *Engine) GroupActions(id, group string) ([]*actions.Descriptor, error) {
	g, n, err := e.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.Registry().ExpandGroup(group, n, e.builder.Build(n, g)), nil
}

// ExecuteRequest carries caller input for one execution
type ExecuteRequest struct {
	Confirmed bool           `json:"confirmed"`
	Params    map[string]any `json:"params,omitempty"`
}

// Execute runs actionID against node id. Unknown nodes are an error; every
// other failure is reported in the Result.
func (e *Engine) Execute(ctx context.Context, id, actionID string, req ExecuteRequest) (actions.Result, error) {
	g, n, err := e.lookup(id)
	if err != nil {
		return actions.Result{}, err
	}
	ctx = WithConfirmation(ctx, req.Confirmed)
	return e.Registry().Execute(ctx, actionID, n, actions.GraphContext{
		ProjectID: e.projectID(),
		Graph:     g,
		Mutator:   e.store,
		Params:    req.Params,
	}), nil
}

// LayoutRequest positions the siblings of a node on screen
type LayoutRequest struct {
	Focal    layout.Focal    `json:"focal"`
	Entities []layout.Entity `json:"entities,omitempty"`
}

// Layout places the actions offered for id around the focal point
func (e *Engine) Layout(id string, req LayoutRequest) ([]layout.Instance, error) {
	offered, err := e.Actions(id)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	placed := layout.Place(req.Focal, offered, req.Entities, e.opts.Layout)
	if e.opts.Metrics != nil {
		e.opts.Metrics.ObserveLayout(layout.Select(len(offered), e.opts.Layout), time.Since(start))
	}
	logging.Trace("layout computed", "node", id, "slots", len(placed))
	return placed, nil
}

// Focus returns the neighborhood of id within depth hops
func (e *Engine) Focus(id string, depth int) (*model.Graph, error) {
	g, _, err := e.lookup(id)
	if err != nil {
		return nil, err
	}
	return lens.Neighborhood(g, id, depth), nil
}

// View applies a full lens configuration around id
func (e *Engine) View(id string, cfg lens.Config) (*lens.View, error) {
	g, _, err := e.lookup(id)
	if err != nil {
		return nil, err
	}
	return lens.Render(g, []string{id}, cfg), nil
}

// Dependencies summarizes what id waits on and what waits on it
type Dependencies struct {
	Upstream   []string `json:"upstream"`
	Downstream []string `json:"downstream"`
	Blocking   []string `json:"blocking"`
	OnCycle    bool     `json:"onCycle"`
}

// Dependencies analyses the transitive dependency relation around id
func (e *Engine) Dependencies(id string) (Dependencies, error) {
	g, _, err := e.lookup(id)
	if err != nil {
		return Dependencies{}, err
	}
	dg := graph.Build(g)
	return Dependencies{
		Upstream:   nonNil(dg.Upstream(id)),
		Downstream: nonNil(dg.Downstream(id)),
		Blocking:   nonNil(dg.BlockingUpstream(id, g)),
		OnCycle:    cycles.Blocked(id, cycles.FindDependencyCycles(dg)),
	}, nil
}

// Cycles lists every dependency cycle in the graph
func (e *Engine) Cycles() []cycles.Cycle {
	return cycles.FindDependencyCycles(graph.Build(e.store.Snapshot()))
}

// History returns recorded executions for id, newest first
func (e *Engine) History(id string, limit int) []store.HistoryEntry {
	return e.history.ForNode(id, limit)
}

// RecentHistory returns the latest executions across all nodes
func (e *Engine) RecentHistory(limit int) []store.HistoryEntry {
	return e.history.Recent(limit)
}

// ReloadGraph re-reads the graph file into the store
func (e *Engine) ReloadGraph(ctx context.Context) error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	if e.opts.GraphPath == "" {
		return nil
	}
	g, err := model.LoadGraph(e.opts.GraphPath)
	e.observeReload("graph", err)
	if err != nil {
		return err
	}
	e.store.Replace(ctx, g)
	logging.InfoContext(ctx, "graph reloaded", "path", e.opts.GraphPath, "nodes", len(g.Nodes))
	return nil
}

// ReloadCatalog rebuilds the registry from the catalog file and swaps it in.
// On error the previous registry stays active. The replaced registry is left
// open so executions already holding it complete normally.
func (e *Engine) ReloadCatalog(ctx context.Context) error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	reg, err := e.buildRegistry()
	e.observeReload("catalog", err)
	if err != nil {
		return err
	}
	e.registry.Store(reg)
	logging.InfoContext(ctx, "catalog reloaded", "path", e.opts.CatalogPath, "actions", reg.Count())
	return nil
}

// Apply performs the reloads a batch of file changes calls for
func (e *Engine) Apply(ctx context.Context, change *watcher.ChangeAnalysis) {
	if change.ReloadGraph {
		if err := e.ReloadGraph(ctx); err != nil {
			logging.ErrorContext(ctx, "graph reload failed", "files", change.ChangedFiles, "error", err)
		}
	}
	if change.RebuildRegistry {
		if err := e.ReloadCatalog(ctx); err != nil {
			logging.ErrorContext(ctx, "catalog reload failed", "files", change.ChangedFiles, "error", err)
		}
	}
}

// Close releases the registry
func (e *Engine) Close() error {
	if reg := e.registry.Load(); reg != nil {
		return reg.Close()
	}
	return nil
}

func (e *Engine) observeReload(kind string, err error) {
	if e.opts.Metrics != nil {
		e.opts.Metrics.ObserveReload(kind, err)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
