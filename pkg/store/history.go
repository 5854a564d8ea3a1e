package store

import (
	"context"
	"sync"
	"time"

	"github.com/PROACTIVA-US/VISLZR/pkg/actions"
	"github.com/PROACTIVA-US/VISLZR/pkg/logging"
	"github.com/PROACTIVA-US/VISLZR/pkg/pubsub"
	"github.com/google/uuid"
)

// Execution outcomes stored in history
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// DefaultHistoryLimit bounds how many entries History keeps
const DefaultHistoryLimit = 1000

// HistoryEntry is one recorded action execution
type HistoryEntry struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId,omitempty"`
	NodeID     string    `json:"nodeId"`
	ActionID   string    `json:"actionId"`
	ExecutedAt time.Time `json:"executedAt"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	DurationMs int64     `json:"durationMs"`
}

var _ actions.Recorder = (*History)(nil)

// History is a bounded in-memory log of action executions. It doubles as the
// publisher of action_executed events.
type History struct {
	mu        sync.RWMutex
	entries   []HistoryEntry // oldest first
	limit     int
	publisher pubsub.Publisher
}

// NewHistory creates a history keeping at most limit entries (DefaultHistoryLimit when <= 0)
func NewHistory(limit int, publisher pubsub.Publisher) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, publisher: publisher}
}

// Record implements actions.Recorder
func (h *History) Record(ctx context.Context, exec actions.Execution) {
	status := StatusSuccess
	if !exec.Success {
		status = StatusFailed
	}
	entry := HistoryEntry{
		ID:         uuid.NewString(),
		ProjectID:  exec.ProjectID,
		NodeID:     exec.NodeID,
		ActionID:   exec.ActionID,
		ExecutedAt: exec.ExecutedAt,
		Status:     status,
		Message:    exec.Message,
		DurationMs: exec.Duration.Milliseconds(),
	}

	h.mu.Lock()
	h.entries = append(h.entries, entry)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append(h.entries[:0:0], h.entries[over:]...)
	}
	h.mu.Unlock()

	if h.publisher == nil {
		return
	}
	payload := pubsub.ActionExecuted{
		ProjectID:  exec.ProjectID,
		NodeID:     exec.NodeID,
		ActionID:   exec.ActionID,
		Success:    exec.Success,
		Message:    exec.Message,
		DurationMs: entry.DurationMs,
	}
	if err := h.publisher.Publish(pubsub.TopicActionExecuted, status, payload); err != nil {
		logging.WarnContext(ctx, "failed to publish action execution", "action", exec.ActionID, "error", err)
	}
}

// ForNode returns the node's entries, newest first. limit <= 0 returns all.
func (h *History) ForNode(nodeID string, limit int) []HistoryEntry {
	return h.collect(limit, func(e HistoryEntry) bool { return e.NodeID == nodeID })
}

// Recent returns the latest entries across all nodes, newest first
func (h *History) Recent(limit int) []HistoryEntry {
	return h.collect(limit, func(HistoryEntry) bool { return true })
}

// Len returns the number of stored entries
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

func (h *History) collect(limit int, keep func(HistoryEntry) bool) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]HistoryEntry, 0)
	for i := len(h.entries) - 1; i >= 0; i-- {
		if !keep(h.entries[i]) {
			continue
		}
		out = append(out, h.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
