// Package pubsub fans graph and action events out to streaming clients.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
)

// Topics published by the engine
const (
	TopicGraphChanged   = "graph_changed"
	TopicActionExecuted = "action_executed"
)

// ErrClosed is returned once the publisher has shut down
var ErrClosed = errors.New("publisher is closed")

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"` // e.g. "node_patched", "reloaded", "succeeded"
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic, strictly increasing
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	Topic() string
	Events() <-chan Event
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	Close() error
}

// GraphChanged is the payload of graph_changed events
type GraphChanged struct {
	Reason string `json:"reason"`
	NodeID string `json:"nodeId,omitempty"`
	Hash   string `json:"hash"`
	Diff   any    `json:"diff,omitempty"`
}

// ActionExecuted is the payload of action_executed events
type ActionExecuted struct {
	ProjectID  string `json:"projectId,omitempty"`
	NodeID     string `json:"nodeId"`
	ActionID   string `json:"actionId"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	DurationMs int64  `json:"durationMs"`
}

// ConfigureDefaultTopics sets the buffering used by the engine's topics:
// graph_changed replays only the latest change, action_executed replays recent history.
func ConfigureDefaultTopics(p *SSEPublisher) {
	p.ConfigureTopic(TopicGraphChanged, TopicConfig{BufferSize: 1})
	p.ConfigureTopic(TopicActionExecuted, TopicConfig{BufferSize: 50, ReplayAll: true})
}

// Known reports whether topic is one the engine publishes
func Known(topic string) bool {
	return topic == TopicGraphChanged || topic == TopicActionExecuted
}
