package actions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/PROACTIVA-US/VISLZR/pkg/logging"
	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/PROACTIVA-US/VISLZR/pkg/nodectx"
	"github.com/PROACTIVA-US/VISLZR/pkg/rules"
)

var (
	ErrDuplicateAction = errors.New("action already registered")
	ErrInvalidAction   = errors.New("invalid action descriptor")
	ErrRegistryClosed  = errors.New("registry is closed")
)

// Registry is the action catalog. Descriptors keep their registration order,
// which breaks ties between equal priorities.
type Registry struct {
	mu        sync.RWMutex
	actions   map[string]*Descriptor
	order     []string
	handlers  HandlerTable
	confirmer Confirmer
	recorders []Recorder
	now       func() time.Time
	closed    bool
}

// Option configures a Registry
type Option func(*Registry)

// WithConfirmer sets the gate for actions that require confirmation.
// Without one, such actions are cancelled.
func WithConfirmer(c Confirmer) Option {
	return func(r *Registry) { r.confirmer = c }
}

// WithRecorder adds an observer of finished executions
func WithRecorder(rec Recorder) Option {
	return func(r *Registry) { r.recorders = append(r.recorders, rec) }
}

// WithClock overrides the time source used for execution timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty registry resolving handler ids through handlers
func NewRegistry(handlers HandlerTable, opts ...Option) *Registry {
	r := &Registry{
		actions:  make(map[string]*Descriptor),
		order:    make([]string, 0),
		handlers: handlers,
		now:      time.Now,
	}
	if r.handlers == nil {
		r.handlers = HandlerTable{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a descriptor. Ids must be unique.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil || d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidAction)
	}
	for i, rule := range d.Rules {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("%w: %s rule %d: %w", ErrInvalidAction, d.ID, i, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRegistryClosed
	}
	if _, exists := r.actions[d.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAction, d.ID)
	}
	r.actions[d.ID] = d
	r.order = append(r.order, d.ID)
	logging.Trace("registered action", "action", d.ID, "priority", d.Priority)
	return nil
}

// RegisterAll registers descriptors in order, stopping at the first error
func (r *Registry) RegisterAll(ds []*Descriptor) error {
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes a descriptor, reporting whether it was present
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[id]; !exists {
		return false
	}
	delete(r.actions, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the descriptor with the given id
func (r *Registry) Get(id string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.actions[id]
	return d, ok
}

// All returns every descriptor in registration order
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.actions[id])
	}
	return out
}

// Count returns the number of registered descriptors
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Clear drops every descriptor. The registry stays usable.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = make(map[string]*Descriptor)
	r.order = make([]string, 0)
}

// Close drops every descriptor and rejects further registrations and executions
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = make(map[string]*Descriptor)
	r.order = make([]string, 0)
	r.closed = true
	return nil
}

// ActionsForContext returns the descriptors whose rules all hold for node,
// ordered by ascending priority with registration order breaking ties
func (r *Registry) ActionsForContext(node *model.Node, ctx nodectx.NodeContext) []*Descriptor {
	out := make([]*Descriptor, 0)
	for _, d := range r.All() {
		if rules.EvaluateAll(d.Rules, node, &ctx) {
			out = append(out, d)
		}
	}
	sortByPriority(out)
	return out
}

// GroupChildren returns the non-parent members of a group, ordered by priority
func (r *Registry) GroupChildren(group string) []*Descriptor {
	out := make([]*Descriptor, 0)
	for _, d := range r.All() {
		if d.Group == group && !d.IsGroupParent {
			out = append(out, d)
		}
	}
	sortByPriority(out)
	return out
}

// ExpandGroup returns the group children whose rules also hold for node
func (r *Registry) ExpandGroup(group string, node *model.Node, ctx nodectx.NodeContext) []*Descriptor {
	out := make([]*Descriptor, 0)
	for _, d := range r.GroupChildren(group) {
		if rules.EvaluateAll(d.Rules, node, &ctx) {
			out = append(out, d)
		}
	}
	return out
}

func sortByPriority(ds []*Descriptor) {
	sort.SliceStable(ds, func(i, j int) bool {
		return ds[i].Priority < ds[j].Priority
	})
}

// Execute runs the action id against node. It never returns an error:
// every failure, including a handler panic, is reported as an unsuccessful Result.
func (r *Registry) Execute(ctx context.Context, id string, node *model.Node, gctx GraphContext) Result {
	start := r.now()
	result := r.execute(ctx, id, node, gctx)

	exec := Execution{
		ProjectID:  gctx.ProjectID,
		ActionID:   id,
		Success:    result.Success,
		Message:    result.Message,
		ExecutedAt: start,
		Duration:   r.now().Sub(start),
	}
	if node != nil {
		exec.NodeID = node.ID
	}
	r.mu.RLock()
	recorders := r.recorders
	r.mu.RUnlock()
	for _, rec := range recorders {
		rec.Record(ctx, exec)
	}
	return result
}

func (r *Registry) execute(ctx context.Context, id string, node *model.Node, gctx GraphContext) Result {
	r.mu.RLock()
	closed := r.closed
	d, ok := r.actions[id]
	handler, hasHandler := r.handlers[d.handlerID()]
	confirmer := r.confirmer
	r.mu.RUnlock()

	if closed {
		return Result{Message: "Action registry is closed"}
	}
	if !ok {
		logging.WarnContext(ctx, "action not found", "action", id)
		return Result{Message: fmt.Sprintf("Action '%s' not found", id)}
	}
	if !hasHandler || handler == nil {
		logging.ErrorContext(ctx, "action has no handler", "action", id, "handler", d.Handler)
		return Result{Message: fmt.Sprintf("Handler not found: %s", d.Handler)}
	}

	if d.RequiresConfirmation {
		message := d.ConfirmationMessage
		if message == "" {
			message = fmt.Sprintf("Are you sure you want to %s?", d.Label)
		}
		if confirmer == nil {
			return Result{Message: "Action cancelled by user"}
		}
		confirmed, err := confirmer.Confirm(ctx, message)
		if err != nil {
			return Result{Message: fmt.Sprintf("Failed to execute %s: %v", d.Label, err)}
		}
		if !confirmed {
			logging.InfoContext(ctx, "action cancelled", "action", id)
			return Result{Message: "Action cancelled by user"}
		}
	}

	logging.DebugContext(ctx, "executing action", "action", id, "handler", d.Handler)
	result, err := invoke(ctx, handler, node, gctx)
	if err != nil {
		logging.WarnContext(ctx, "action failed", "action", id, "error", err)
		return Result{Message: fmt.Sprintf("Failed to execute %s: %v", d.Label, err)}
	}
	return result
}

// invoke calls the handler, converting a panic into an error
func invoke(ctx context.Context, h Handler, node *model.Node, gctx GraphContext) (result Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panicked: %v", p)
		}
	}()
	return h.Handle(ctx, node, gctx)
}

func (d *Descriptor) handlerID() HandlerID {
	if d == nil {
		return ""
	}
	return d.Handler
}
